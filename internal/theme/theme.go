// Package theme holds the design tokens of the site and builds its stylesheet from them.
package theme

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Theme is a flat table of named design tokens such as "color.primary" or "layout.space".
type Theme map[string]string

// Default is the site theme.
var Default = Theme{
	"color.base":          "#2a2a3c",
	"color.primary":       "#3e4fd6",
	"color.secondary":     "#f39325",
	"color.surface":       "#ffffff",
	"color.muted":         "#5c5f78",
	"color.line":          "#e2e4ef",
	"type.base.family":    "\"Rubik\", \"Helvetica Neue\", Arial, sans-serif",
	"type.heading.family": "\"Rubik\", \"Helvetica Neue\", Arial, sans-serif",
	"type.base.size":      "16px",
	"layout.space":        "1rem",
	"layout.max":          "1280px",
	"shape.rounded":       "0.25rem",
	"media.medium":        "768px",
	"media.large":         "992px",
}

// Val returns the token at path, or an empty string when it is not defined.
func (t Theme) Val(path string) string {
	return t[path]
}

// Glsp returns the global spacing token multiplied by the given factors. With no
// factors it returns one unit; several factors produce a space separated shorthand.
func (t Theme) Glsp(factors ...float64) string {
	if len(factors) == 0 {
		factors = []float64{1}
	}
	num, unit := splitUnit(t.Val("layout.space"))
	parts := make([]string, len(factors))
	for i, f := range factors {
		v := num * f
		if v == 0 {
			parts[i] = "0"
			continue
		}
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64) + unit
	}
	return strings.Join(parts, " ")
}

// MediumUp wraps rules in a min-width media query at the medium breakpoint.
func (t Theme) MediumUp(rules ...Rule) Block {
	return Media{Query: "(min-width: " + t.Val("media.medium") + ")", Rules: rules}
}

// LargeUp wraps rules in a min-width media query at the large breakpoint.
func (t Theme) LargeUp(rules ...Rule) Block {
	return Media{Query: "(min-width: " + t.Val("media.large") + ")", Rules: rules}
}

// CustomProperties returns the theme as CSS custom properties on :root.
func (t Theme) CustomProperties() Rule {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	decls := make([]Decl, 0, len(keys))
	for _, k := range keys {
		decls = append(decls, Decl{"--" + strings.ReplaceAll(k, ".", "-"), t[k]})
	}
	return Rule{Selector: ":root", Decls: decls}
}

func splitUnit(v string) (float64, string) {
	v = strings.TrimSpace(v)
	i := len(v)
	for i > 0 && (v[i-1] < '0' || v[i-1] > '9') && v[i-1] != '.' {
		i--
	}
	num, err := strconv.ParseFloat(v[:i], 64)
	if err != nil {
		return 1, "rem"
	}
	return num, v[i:]
}

// Block is anything that renders to CSS text.
type Block interface {
	CSS() string
}

// Decl is a single property declaration.
type Decl struct {
	Prop  string
	Value string
}

// Rule is a selector with its declarations.
type Rule struct {
	Selector string
	Decls    []Decl
}

// CSS renders the rule.
func (r Rule) CSS() string {
	var b strings.Builder
	b.WriteString(r.Selector)
	b.WriteString(" {\n")
	for _, d := range r.Decls {
		fmt.Fprintf(&b, "  %s: %s;\n", d.Prop, d.Value)
	}
	b.WriteString("}\n")
	return b.String()
}

// Media is a media query block.
type Media struct {
	Query string
	Rules []Rule
}

// CSS renders the media block.
func (m Media) CSS() string {
	var b strings.Builder
	fmt.Fprintf(&b, "@media %s {\n", m.Query)
	for _, r := range m.Rules {
		for _, line := range strings.SplitAfter(r.CSS(), "\n") {
			if line != "" {
				b.WriteString("  ")
				b.WriteString(line)
			}
		}
	}
	b.WriteString("}\n")
	return b.String()
}

// R is shorthand for building a Rule from alternating property/value pairs.
func R(selector string, kv ...string) Rule {
	decls := make([]Decl, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		decls = append(decls, Decl{kv[i], kv[i+1]})
	}
	return Rule{Selector: selector, Decls: decls}
}
