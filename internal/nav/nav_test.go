package nav

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestBuildMarksActive(t *testing.T) {
	items := Build("/guide-builder/")
	want := []RenderedItem{
		{Href: "/", Label: "Home"},
		{Href: "/about/", Label: "About"},
		{Href: "/guide-builder/", Label: "Guide Builder", Active: true},
	}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Fatalf("Build mismatch (-want +got):\n%s", diff)
	}

	home := Build("")
	assert.True(t, home[0].Active)
	assert.False(t, home[1].Active)
}

func TestBreadcrumbs(t *testing.T) {
	assert.Equal(t, []Crumb{{Href: "/", Label: "Home", Active: true}}, Breadcrumbs("/", ""))

	got := Breadcrumbs("/methods/network_mapping/", "Network Mapping")
	want := []Crumb{
		{Href: "/", Label: "Home"},
		{Href: "/#allMethods", Label: "Methods"},
		{Href: "/methods/network_mapping/", Label: "Network Mapping", Active: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Breadcrumbs mismatch (-want +got):\n%s", diff)
	}

	about := Breadcrumbs("/about", "")
	assert.Equal(t, "About", about[1].Label)
	assert.Equal(t, "/about/", about[1].Href)

	fallback := Breadcrumbs("/methods/data_assessment/", "")
	assert.Equal(t, "Data Assessment", fallback[2].Label)
}
