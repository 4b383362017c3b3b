package guide

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/procyborg2222/SAFETAG/internal/content"
)

// compile converts sections and methods into chapters with document-unique heading ids
// and collects the table of contents from their h1 and h2 headings.
func compile(md *content.Markdown, fixed []content.Section, methods []content.Method) ([]Chapter, []Chapter, []TOCEntry, error) {
	var toc []TOCEntry
	front := make([]Chapter, 0, len(fixed))
	for _, s := range fixed {
		ch, entries, err := compileChapter(md, "section", s.Name, s.Title, s.Body, s.HTML)
		if err != nil {
			return nil, nil, nil, err
		}
		front = append(front, ch)
		toc = append(toc, entries...)
	}
	body := make([]Chapter, 0, len(methods))
	for _, m := range methods {
		ch, entries, err := compileChapter(md, "method", m.Name, m.Title, m.Body, m.HTML)
		if err != nil {
			return nil, nil, nil, err
		}
		body = append(body, ch)
		toc = append(toc, entries...)
	}
	return front, body, toc, nil
}

func compileChapter(md *content.Markdown, kind, name, title, src, rendered string) (Chapter, []TOCEntry, error) {
	if strings.TrimSpace(rendered) == "" && strings.TrimSpace(src) != "" {
		html, err := md.Render(src)
		if err != nil {
			return Chapter{}, nil, fmt.Errorf("guide: render %s %q: %w", kind, name, err)
		}
		rendered = html
	}
	id := kind + "-" + name
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<div id=\"chapter\">" + rendered + "</div>"))
	if err != nil {
		return Chapter{}, nil, fmt.Errorf("guide: parse %s %q: %w", kind, name, err)
	}

	entries := []TOCEntry{{Level: 1, ID: id, Text: title}}
	root := doc.Find("#chapter")
	seen := map[string]int{}
	root.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, h *goquery.Selection) {
		local, _ := h.Attr("id")
		if local == "" {
			local = "heading"
		}
		seen[local]++
		if n := seen[local]; n > 1 {
			local += "-" + strconv.Itoa(n)
		}
		anchor := id + "--" + local
		h.SetAttr("id", anchor)
		if level := headingLevel(goquery.NodeName(h)); level <= 2 {
			if text := strings.TrimSpace(h.Text()); text != "" {
				entries = append(entries, TOCEntry{Level: 2, ID: anchor, Text: text})
			}
		}
	})

	html, err := root.Html()
	if err != nil {
		return Chapter{}, nil, fmt.Errorf("guide: serialize %s %q: %w", kind, name, err)
	}
	return Chapter{ID: id, Kind: kind, Title: title, HTML: html}, entries, nil
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' {
		if n, err := strconv.Atoi(tag[1:]); err == nil {
			return n
		}
	}
	return 0
}
