package views

import (
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/procyborg2222/SAFETAG/internal/download"
)

// Download control labels.
const (
	LabelDownloading = "Downloading"
	LabelFullGuide   = "Download Full Guide"
	LabelCustomGuide = "Download Custom Guide"
)

// StatusPollInterval is how often a Downloading control asks for its state.
const StatusPollInterval = "every 250ms"

// DownloadControl is the view model of a guide download button.
type DownloadControl struct {
	OutputID   string
	State      download.State
	LastResult download.Result
	Label      string
	Title      string
	Variation  string
	CSRFToken  string
}

// ControlID returns the DOM id of the control for an output.
func ControlID(outputID string) string {
	return "download-" + outputID
}

// PrepareURL is the endpoint that starts a preparation.
func PrepareURL(outputID string) string {
	return "/guide/" + outputID + "/prepare"
}

// StatusURL is the endpoint polled while Downloading.
func StatusURL(outputID string) string {
	return "/guide/" + outputID + "/status"
}

// DownloadButton renders the control in its current state. Idle is a form posting to
// the prepare endpoint; Downloading is a disabled button that polls for its state.
func DownloadButton(c DownloadControl) g.Node {
	variation := c.Variation
	if variation == "" {
		variation = "primary-outline"
	}
	buttonClass := "button button--jumbo button--" + variation
	if c.State == download.Downloading {
		return Div(
			ID(ControlID(c.OutputID)),
			Class("download-control"),
			Data("state", c.State.String()),
			Data("last-result", c.LastResult.String()),
			g.Attr("hx-get", StatusURL(c.OutputID)),
			g.Attr("hx-trigger", StatusPollInterval),
			g.Attr("hx-swap", "outerHTML"),
			Button(
				Type("button"),
				Class(buttonClass+" is-spinning"),
				g.If(c.Title != "", Title(c.Title)),
				Disabled(),
				Aria("busy", "true"),
				Span(Class("spinner spinner--light"), Aria("hidden", "true")),
				g.Text(LabelDownloading),
			),
		)
	}
	return Form(
		ID(ControlID(c.OutputID)),
		Class("download-control"),
		Method("post"),
		Action(PrepareURL(c.OutputID)),
		Data("state", c.State.String()),
		Data("last-result", c.LastResult.String()),
		g.Attr("hx-post", PrepareURL(c.OutputID)),
		g.Attr("hx-swap", "outerHTML"),
		g.If(c.CSRFToken != "", Input(Type("hidden"), Name("csrf_token"), Value(c.CSRFToken))),
		Button(
			Type("submit"),
			Class(buttonClass),
			g.If(c.Title != "", Title(c.Title)),
			g.Text(c.Label),
		),
	)
}
