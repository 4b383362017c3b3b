package views

import (
	"io"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/procyborg2222/SAFETAG/internal/guide"
)

// GuideComposer returns a guide.Composer writing a standalone document styled with css.
func GuideComposer(css string) guide.Composer {
	return func(w io.Writer, doc guide.Document) error {
		return GuideDocument(doc, css).Render(w)
	}
}

// GuideDocument renders a prepared guide as a printable page.
func GuideDocument(doc guide.Document, css string) g.Node {
	return g.Group([]g.Node{
		g.Raw("<!DOCTYPE html>"),
		HTML(
			Lang("en"),
			Head(
				Meta(Charset("utf-8")),
				TitleEl(g.Text(doc.Title)),
				StyleEl(g.Raw(css+printCSS)),
			),
			Body(
				Class("guide"),
				Data("output", doc.OutputID),
				Header(
					Class("guide-cover"),
					H1(Class("heading heading--jumbo"), g.Text(doc.Title)),
					P(Class("subheading"), g.Text("Generated "+doc.GeneratedAt.Format("2 January 2006"))),
				),
				Nav(
					Class("guide-toc"),
					H2(g.Text("Contents")),
					Ol(g.Map(doc.TOC, func(e guide.TOCEntry) g.Node {
						return Li(
							Class(tocClass(e.Level)),
							A(Href("#"+e.ID), g.Text(e.Text)),
						)
					})),
				),
				g.Map(doc.Chapters(), func(ch guide.Chapter) g.Node {
					return Section(
						ID(ch.ID),
						Class("guide-chapter guide-chapter--"+ch.Kind),
						H1(Class("heading"), g.Text(ch.Title)),
						g.Raw(ch.HTML),
					)
				}),
			),
		),
	})
}

func tocClass(level int) string {
	if level <= 1 {
		return "toc-chapter"
	}
	return "toc-heading"
}

const printCSS = `
@page { size: A4; margin: 20mm 18mm; }
.guide-cover { page-break-after: always; padding-top: 30vh; }
.guide-toc { page-break-after: always; }
.guide-toc .toc-heading { margin-left: 1.5rem; }
.guide-chapter { page-break-before: always; }
`
