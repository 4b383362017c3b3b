package views

import (
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/procyborg2222/SAFETAG/internal/content"
)

// GuideBuilderPath is where the custom guide builder lives.
const GuideBuilderPath = "/guide-builder/"

// HomeData is the view model of the homepage.
type HomeData struct {
	Page     PageData
	Download DownloadControl
	Methods  []content.MethodSummary
}

// HomePage renders the landing page.
func HomePage(d HomeData) g.Node {
	return PageLayout(d.Page,
		Div(
			Class("inpage"),
			homepageHeader(d.Download),
			Div(
				Class("inpage-body"),
				Div(
					Class("inpage-body-inner"),
					H2(ID("allMethods"), Class("heading heading--jumbo heading--primary heading--deco"), g.Text("Methods")),
					P(Class("subheading"), g.Text("Explore all Safetag Methods")),
					MethodCards(d.Methods),
				),
			),
		),
	)
}

func homepageHeader(ctl DownloadControl) g.Node {
	return Header(
		Class("inpage-header homepage-header"),
		Div(
			Class("inpage-header-inner homepage-header-inner"),
			Div(
				Class("inpage-headline"),
				H1(Class("heading heading--jumbo heading--white homepage-title"), g.Text("Safetag")),
				P(Class("subheading"), g.Text("Custom guide creator_")),
			),
			P(g.Text("Security Auditing Framework and Evaluation Template for Advocacy Groups. "+
				"SAFETAG is a professional audit framework that adapts traditional penetration testing "+
				"and risk assessment methodologies to be relevant to smaller non-profit organizations "+
				"based or operating in the developing world.")),
			A(Class("more-link more-link--forward"), Href("/about/"), g.Text("Learn More")),
		),
		Div(
			Class("homepage-header-buttons"),
			DownloadButton(ctl),
			CustomGuideLink(),
		),
	)
}

// CustomGuideLink is the navigation to the guide builder. It does not depend on any
// download state.
func CustomGuideLink() g.Node {
	return A(
		ID("create-custom-guide"),
		Class("button button--jumbo button--primary-raised-light"),
		Href(GuideBuilderPath),
		g.Text("Create Custom Guide"),
	)
}

// MethodCards renders one card per summary.
func MethodCards(methods []content.MethodSummary) g.Node {
	return Ul(
		Class("card-list"),
		g.Map(methods, func(m content.MethodSummary) g.Node {
			return Li(MethodCard(m))
		}),
	)
}

// MethodCard renders a linked card for one method.
func MethodCard(m content.MethodSummary) g.Node {
	return A(
		Class("card card--primary card--hover"),
		Href(m.Slug),
		Div(
			Class("card-header"),
			Img(Src(m.IconURL), Alt(""), g.Attr("loading", "lazy")),
			H3(Class("card-heading heading--deco"), g.Text(m.Title)),
		),
		P(Class("card-excerpt"), g.Text(m.Excerpt)),
	)
}
