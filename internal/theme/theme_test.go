package theme

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVal(t *testing.T) {
	assert.Equal(t, "#3e4fd6", Default.Val("color.primary"))
	assert.Equal(t, "", Default.Val("color.unknown"))
}

func TestGlsp(t *testing.T) {
	th := Theme{"layout.space": "1.5rem"}
	assert.Equal(t, "1.5rem", th.Glsp())
	assert.Equal(t, "9rem", th.Glsp(6))
	assert.Equal(t, "6rem 0", th.Glsp(4, 0))
	assert.Equal(t, "0.75rem", th.Glsp(0.5))
	assert.Equal(t, "8px", Theme{"layout.space": "4px"}.Glsp(2))
}

func TestMediaQueries(t *testing.T) {
	css := Default.MediumUp(R(".a", "color", "red")).CSS()
	assert.Equal(t, "@media (min-width: 768px) {\n  .a {\n    color: red;\n  }\n}\n", css)

	css = Default.LargeUp(R(".b", "display", "none")).CSS()
	assert.True(t, strings.HasPrefix(css, "@media (min-width: 992px) {"))
}

func TestStylesheet(t *testing.T) {
	css := Stylesheet(Default)
	assert.Contains(t, css, "--color-primary: #3e4fd6;")
	assert.Contains(t, css, ".homepage-header {\n  position: relative;\n  background-color: #3e4fd6;")
	assert.Contains(t, css, "padding-bottom: 6rem;")
	assert.Contains(t, css, "content: url("+LogoSymbolURL+");")
	assert.Contains(t, css, "@keyframes spin")
	assert.Equal(t, css, Stylesheet(Default), "stylesheet is deterministic")
}
