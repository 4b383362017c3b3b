// Package seo builds page meta tags and schema.org JSON-LD payloads.
package seo

import (
	"strings"
)

type OpenGraph struct {
	Title       string
	Description string
	Image       string
	Type        string
}

type Twitter struct {
	Card  string
	Image string
}

type Meta struct {
	Title       string
	Description string
	Canonical   string
	OG          OpenGraph
	Twitter     Twitter
}

// DefaultDescription is used by pages without their own summary.
const DefaultDescription = "Security Auditing Framework and Evaluation Template for Advocacy Groups."

// PageMeta returns meta for a page titled title on a site named site. The page path is
// resolved against baseURL for canonical and Open Graph URLs when baseURL is set.
func PageMeta(site, title, description, baseURL, pagePath string) Meta {
	full := site
	if title != "" && title != site {
		full = title + " | " + site
	}
	if strings.TrimSpace(description) == "" {
		description = DefaultDescription
	}
	m := Meta{
		Title:       full,
		Description: description,
		OG:          OpenGraph{Title: full, Description: description, Type: "website"},
		Twitter:     Twitter{Card: "summary"},
	}
	if baseURL != "" {
		m.Canonical = AbsURL(baseURL, pagePath)
	}
	return m
}

// AbsURL joins a base URL and a site path.
func AbsURL(baseURL, p string) string {
	base := strings.TrimRight(baseURL, "/")
	if p == "" {
		p = "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return base + p
}
