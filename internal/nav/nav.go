// Package nav builds the top navigation and breadcrumbs of the site.
package nav

import (
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Item represents a top-level navigation item.
type Item struct {
	Path  string // e.g. "/about/"
	Label string
}

// RenderedItem is a view model for templates.
type RenderedItem struct {
	Href   string
	Label  string
	Active bool
}

// Crumb represents a breadcrumb entry.
type Crumb struct {
	Href   string
	Label  string
	Active bool
}

// Main is the primary navigation definition.
var Main = []Item{
	{Path: "/", Label: "Home"},
	{Path: "/about/", Label: "About"},
	{Path: "/guide-builder/", Label: "Guide Builder"},
}

// sections maps top-level path segments that are not themselves pages to their landing.
var sections = map[string]Item{
	"methods": {Path: "/#allMethods", Label: "Methods"},
}


// Build renders navigation items with active state given the current path.
func Build(currentPath string) []RenderedItem {
	currentPath = normalize(currentPath)
	items := make([]RenderedItem, 0, len(Main))
	for _, it := range Main {
		items = append(items, RenderedItem{
			Href:   it.Path,
			Label:  it.Label,
			Active: isActive(it.Path, currentPath),
		})
	}
	return items
}

func normalize(p string) string {
	if p == "" {
		return "/"
	}
	clean := path.Clean("/" + p)
	if clean != "/" {
		clean += "/"
	}
	return clean
}

func isActive(itemPath, currentPath string) bool {
	if itemPath == "/" {
		return currentPath == "/"
	}
	return strings.HasPrefix(currentPath, itemPath)
}

// Breadcrumbs builds breadcrumb entries from the current path. The last crumb uses
// leaf as its label when it is not empty.
func Breadcrumbs(currentPath, leaf string) []Crumb {
	currentPath = normalize(currentPath)
	crumbs := []Crumb{{Href: "/", Label: "Home", Active: currentPath == "/"}}
	if currentPath == "/" {
		return crumbs
	}

	parts := strings.Split(strings.Trim(currentPath, "/"), "/")
	href := "/"
	for i, seg := range parts {
		href += seg + "/"
		last := i == len(parts)-1
		label := labelFor(href, seg)
		target := href
		if sec, ok := sections[seg]; ok && i == 0 && !last {
			label, target = sec.Label, sec.Path
		}
		if last && leaf != "" {
			label = leaf
		}
		crumbs = append(crumbs, Crumb{Href: target, Label: label, Active: last})
	}
	return crumbs
}

func labelFor(href, seg string) string {
	for _, it := range Main {
		if it.Path == href {
			return it.Label
		}
	}
	return titleFromSegment(seg)
}

func titleFromSegment(seg string) string {
	s := strings.ReplaceAll(seg, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	return cases.Title(language.English).String(s)
}
