package views

import (
	"strconv"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/procyborg2222/SAFETAG/internal/content"
)

// MethodPage renders one method with its summary and body.
func MethodPage(p PageData, m content.Method) g.Node {
	return PageLayout(p,
		Article(
			Class("inpage-body-inner prose"),
			ID(m.Name),
			Header(
				Class("card-header"),
				g.If(m.IconURL != "", Img(Src(m.IconURL), Alt(""))),
				H1(Class("heading heading--jumbo heading--primary heading--deco"), g.Text(m.Title)),
			),
			g.If(m.SummaryHTML != "", Div(Class("method-summary"), g.Raw(m.SummaryHTML))),
			Div(Class("method-body"), g.Raw(m.HTML)),
			P(A(Href(GuideBuilderPath), g.Text("Add this method to a custom guide"))),
		),
	)
}

// AboutPage renders a static page.
func AboutPage(p PageData, pg content.Page) g.Node {
	return PageLayout(p,
		Article(
			Class("inpage-body-inner prose"),
			heading("jumbo", "primary", true, g.Text(pg.Title)),
			g.Raw(pg.HTML),
		),
	)
}

// ErrorPage renders a plain error message inside the site chrome.
func ErrorPage(p PageData, status int, message string) g.Node {
	return PageLayout(p,
		Div(
			Class("inpage-body-inner"),
			Data("status", strconv.Itoa(status)),
			heading("jumbo", "primary", true, g.Text(message)),
			P(A(Href("/"), g.Text("Back to the homepage"))),
		),
	)
}
