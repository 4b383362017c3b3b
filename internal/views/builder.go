package views

import (
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/procyborg2222/SAFETAG/internal/content"
)

// BuilderData is the view model of the guide builder.
type BuilderData struct {
	Page     PageData
	Download DownloadControl
	Methods  []content.Method
	Selected map[string]bool
	Error    string
}

// BuilderPage lists every method as a checkbox attached to the custom guide form.
func BuilderPage(d BuilderData) g.Node {
	formID := ControlID(d.Download.OutputID)
	return PageLayout(d.Page,
		Div(
			Class("inpage-body-inner"),
			H1(Class("heading heading--jumbo heading--primary heading--deco"), g.Text("Guide Builder")),
			P(Class("subheading"), g.Text("Select the methods to include in your guide")),
			g.If(d.Error != "", P(Class("form-error"), Role("alert"), g.Text(d.Error))),
			Ul(
				Class("builder-list"),
				ID("builder-methods"),
				g.Map(d.Methods, func(m content.Method) g.Node {
					id := "method-" + m.Name
					return Li(
						Label(
							For(id),
							Input(
								Type("checkbox"),
								ID(id),
								Name("method"),
								Value(m.Name),
								g.Attr("form", formID),
								g.If(d.Selected[m.Name], Checked()),
							),
							g.Text(m.Title),
						),
					)
				}),
			),
			DownloadButton(d.Download),
		),
	)
}
