package seo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageMeta(t *testing.T) {
	m := PageMeta("Safetag guide", "Safetag guide", "", "", "/")
	assert.Equal(t, "Safetag guide", m.Title)
	assert.Equal(t, DefaultDescription, m.Description)
	assert.Empty(t, m.Canonical)

	m = PageMeta("Safetag guide", "About", "What SAFETAG is.", "https://safetag.example/", "/about/")
	assert.Equal(t, "About | Safetag guide", m.Title)
	assert.Equal(t, "https://safetag.example/about/", m.Canonical)
	assert.Equal(t, "website", m.OG.Type)
}

func TestBreadcrumbListJSON(t *testing.T) {
	out := JSON(BreadcrumbList([]BreadcrumbItem{{Name: "Home", Item: "https://x/"}}))
	assert.JSONEq(t, `{"@context":"https://schema.org","@type":"BreadcrumbList","itemListElement":[{"@type":"ListItem","position":1,"name":"Home","item":"https://x/"}]}`, out)
}
