// Package views renders the site pages and the guide document with gomponents.
package views

import (
	"io"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/procyborg2222/SAFETAG/internal/nav"
	"github.com/procyborg2222/SAFETAG/internal/seo"
)

const (
	stylesheetPath = "/assets/site.css"
	htmxSrc        = "https://unpkg.com/htmx.org@1.9.12"
	faviconPath    = "/assets/logo/SafetagSymbol.svg"
)

// PageData is the shared view model of every site page.
type PageData struct {
	SiteTitle string
	Path      string
	CSRFToken string
	Nav       []nav.RenderedItem
	Crumbs    []nav.Crumb
	Meta      seo.Meta
	// JSONLD holds pre-marshalled schema.org payloads.
	JSONLD []string
}

// Render writes n to w.
func Render(w io.Writer, n g.Node) error {
	return n.Render(w)
}

// PageLayout wraps body in the site chrome.
func PageLayout(p PageData, body ...g.Node) g.Node {
	title := p.Meta.Title
	if title == "" {
		title = p.SiteTitle
	}
	return g.Group([]g.Node{
		g.Raw("<!DOCTYPE html>"),
		HTML(
			Lang("en"),
			Head(
				Meta(Charset("utf-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1.0")),
				TitleEl(g.Text(title)),
				g.If(p.Meta.Description != "", Meta(Name("description"), Content(p.Meta.Description))),
				g.If(p.Meta.Canonical != "", Link(Rel("canonical"), Href(p.Meta.Canonical))),
				Meta(g.Attr("property", "og:title"), Content(p.Meta.OG.Title)),
				Meta(g.Attr("property", "og:description"), Content(p.Meta.OG.Description)),
				Meta(g.Attr("property", "og:type"), Content(p.Meta.OG.Type)),
				g.If(p.Meta.Twitter.Card != "", Meta(Name("twitter:card"), Content(p.Meta.Twitter.Card))),
				g.If(p.CSRFToken != "", Meta(Name("csrf-token"), Content(p.CSRFToken))),
				Link(Rel("icon"), Href(faviconPath)),
				Link(Rel("stylesheet"), Href(stylesheetPath)),
				Script(Src(htmxSrc), Defer()),
				g.Map(p.JSONLD, func(ld string) g.Node {
					return Script(Type("application/ld+json"), g.Raw(ld))
				}),
			),
			Body(
				topNav(p.Nav),
				g.If(len(p.Crumbs) > 1, breadcrumbs(p.Crumbs)),
				Main(ID("main"), g.Group(body)),
			),
		),
	})
}

func topNav(items []nav.RenderedItem) g.Node {
	return Nav(
		Class("page-nav"),
		Aria("label", "Main"),
		g.Map(items, func(it nav.RenderedItem) g.Node {
			return A(
				Href(it.Href),
				g.If(it.Active, Class("is-active")),
				g.If(it.Active, Aria("current", "page")),
				g.Text(it.Label),
			)
		}),
	)
}

func breadcrumbs(crumbs []nav.Crumb) g.Node {
	return Nav(
		Aria("label", "Breadcrumb"),
		Class("inpage-body-inner"),
		Ol(
			Class("breadcrumbs"),
			g.Map(crumbs, func(c nav.Crumb) g.Node {
				if c.Active {
					return Li(Span(Aria("current", "page"), g.Text(c.Label)))
				}
				return Li(A(Href(c.Href), g.Text(c.Label)))
			}),
		),
	)
}

func heading(size, variation string, deco bool, children ...g.Node) g.Node {
	classes := "heading heading--" + size + " heading--" + variation
	if deco {
		classes += " heading--deco"
	}
	return H2(Class(classes), g.Group(children))
}
