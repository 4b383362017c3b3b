package theme

import "strings"

// LogoSymbolURL is the decorative logo drawn behind the homepage header.
const LogoSymbolURL = "/assets/logo/SafetagSymbolWhite.svg"

// Stylesheet composes the site CSS from t.
func Stylesheet(t Theme) string {
	blocks := []Block{t.CustomProperties()}
	blocks = append(blocks, base(t)...)
	blocks = append(blocks, buttons(t)...)
	blocks = append(blocks, homepageHeader(t)...)
	blocks = append(blocks, cards(t)...)
	blocks = append(blocks, prose(t)...)

	var b strings.Builder
	for _, blk := range blocks {
		b.WriteString(blk.CSS())
	}
	return b.String()
}

func base(t Theme) []Block {
	return []Block{
		R("*, *::before, *::after", "box-sizing", "border-box"),
		R("body",
			"margin", "0",
			"font-family", t.Val("type.base.family"),
			"font-size", t.Val("type.base.size"),
			"line-height", "1.5",
			"color", t.Val("color.base"),
			"background", t.Val("color.surface"),
		),
		R("a", "color", t.Val("color.primary")),
		R(".page-nav",
			"display", "flex",
			"gap", t.Glsp(),
			"padding", t.Glsp(1, 2),
			"border-bottom", "1px solid "+t.Val("color.line"),
		),
		R(".page-nav a", "text-decoration", "none", "font-weight", "500"),
		R(".page-nav a.is-active", "color", t.Val("color.secondary")),
		R(".inpage-body-inner, .inpage-header-inner",
			"max-width", t.Val("layout.max"),
			"margin", "0 auto",
			"padding", t.Glsp(2, 1),
		),
		R(".heading", "font-family", t.Val("type.heading.family"), "margin", "0"),
		R(".heading--jumbo", "font-size", "3rem", "line-height", "1.1"),
		R(".heading--deco::after",
			"content", "''",
			"display", "block",
			"width", t.Glsp(2),
			"height", "4px",
			"margin-top", t.Glsp(0.5),
			"background", t.Val("color.secondary"),
		),
		R(".subheading", "font-size", "1.25rem", "color", t.Val("color.muted"), "margin", t.Glsp(0.5, 0)),
		R(".breadcrumbs", "display", "flex", "gap", t.Glsp(0.5), "list-style", "none", "padding", "0"),
	}
}

func buttons(t Theme) []Block {
	return []Block{
		R(".button",
			"display", "inline-flex",
			"align-items", "center",
			"justify-content", "center",
			"gap", t.Glsp(0.5),
			"padding", t.Glsp(0.75, 1.5),
			"border-radius", t.Val("shape.rounded"),
			"border", "2px solid transparent",
			"font", "inherit",
			"font-weight", "500",
			"line-height", "1.5",
			"text-decoration", "none",
			"cursor", "pointer",
		),
		R(".button--jumbo", "font-size", "1.25rem", "min-width", "16rem"),
		R(".button--primary-outline",
			"background", "transparent",
			"color", t.Val("color.surface"),
			"border-color", t.Val("color.surface"),
		),
		R(".button--primary-raised-light",
			"background", t.Val("color.surface"),
			"color", t.Val("color.primary"),
			"box-shadow", "0 2px 6px rgba(0, 0, 0, 0.16)",
		),
		R(".button[disabled]", "opacity", "0.64", "cursor", "not-allowed"),
		R(".spinner",
			"width", "1em",
			"height", "1em",
			"border-radius", "50%",
			"border", "2px solid currentColor",
			"border-right-color", "transparent",
			"animation", "spin 0.8s linear infinite",
		),
		R(".spinner--light", "color", t.Val("color.surface")),
		rawBlock("@keyframes spin {\n  to { transform: rotate(360deg); }\n}\n"),
	}
}

func homepageHeader(t Theme) []Block {
	return []Block{
		R(".homepage-header",
			"position", "relative",
			"background-color", t.Val("color.primary"),
			"color", t.Val("color.surface"),
		),
		R(".homepage-header .more-link",
			"color", t.Val("color.surface"),
			"padding-bottom", t.Glsp(),
			"border-bottom", "1px solid "+t.Val("color.surface"),
			"text-decoration", "none",
		),
		R(".homepage-header-inner", "text-align", "justify"),
		R(".homepage-title",
			"border-top", "2px solid "+t.Val("color.surface"),
			"padding-top", t.Glsp(),
		),
		R(".homepage-header-buttons",
			"display", "flex",
			"flex-direction", "column",
			"justify-content", "center",
			"position", "relative",
			"z-index", "1",
		),
		R(".homepage-header-buttons .button", "margin", t.Glsp()),
		t.MediumUp(
			R(".homepage-header", "padding-bottom", t.Glsp(6)),
			R(".homepage-header::after",
				"content", "url("+LogoSymbolURL+")",
				"position", "absolute",
				"bottom", "20%",
				"right", "10%",
				"opacity", "0.125",
				"transform", "scale(1.75)",
			),
			R(".homepage-header-inner", "padding", "6rem 1rem", "padding-right", "40vw"),
			R(".homepage-header-buttons", "flex-flow", "row nowrap"),
		),
		t.LargeUp(
			R(".homepage-header-inner", "padding-right", "40rem"),
		),
	}
}

func cards(t Theme) []Block {
	return []Block{
		R(".card-list",
			"display", "grid",
			"grid-template-columns", "1fr",
			"gap", t.Glsp(2),
			"list-style", "none",
			"padding", "0",
			"margin", t.Glsp(4, 0),
		),
		R(".card",
			"display", "block",
			"height", "100%",
			"padding", t.Glsp(1.5),
			"border", "1px solid "+t.Val("color.line"),
			"border-top", "4px solid "+t.Val("color.primary"),
			"border-radius", t.Val("shape.rounded"),
			"color", "inherit",
			"text-decoration", "none",
			"transition", "box-shadow 0.16s ease",
		),
		R(".card:hover", "box-shadow", "0 4px 16px rgba(0, 0, 0, 0.12)"),
		R(".card-header", "display", "flex", "align-items", "center", "gap", t.Glsp()),
		R(".card-header img", "width", t.Glsp(3), "height", t.Glsp(3)),
		R(".card-heading", "color", t.Val("color.primary"), "font-size", "1.25rem", "margin", "0"),
		t.MediumUp(R(".card-list", "grid-template-columns", "repeat(2, 1fr)")),
		t.LargeUp(R(".card-list", "grid-template-columns", "repeat(3, 1fr)")),
	}
}

func prose(t Theme) []Block {
	return []Block{
		R(".prose", "max-width", "48rem"),
		R(".prose h2", "margin-top", t.Glsp(2)),
		R(".prose img", "max-width", "100%"),
		R(".builder-list", "list-style", "none", "padding", "0", "columns", "2"),
		R(".builder-list label", "display", "flex", "gap", t.Glsp(0.5), "padding", t.Glsp(0.25, 0)),
		R(".form-error", "color", t.Val("color.secondary"), "font-weight", "500"),
	}
}

type rawBlock string

func (r rawBlock) CSS() string { return string(r) }
