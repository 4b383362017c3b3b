package content

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a content resource cannot be located.
var ErrNotFound = errors.New("content: not found")

// MethodSummary is the backing data of one method card on the homepage.
type MethodSummary struct {
	Slug    string
	Title   string
	IconURL string
	Excerpt string
}

// MethodRecord is one row of the methods query. Fields is nil when no slug could be
// derived for the file and Markdown is nil when the file could not be parsed.
type MethodRecord struct {
	Path     string
	Fields   *FileFields
	Markdown *MarkdownNode
}

// FileFields holds values derived from the file itself.
type FileFields struct {
	Slug string
}

// MarkdownNode holds values derived from parsing the markdown file.
type MarkdownNode struct {
	Frontmatter Frontmatter
	// Summary is the front matter summary rendered as markdown; nil when absent.
	Summary *MarkdownField
	Body    string
	HTML    string
}

// Frontmatter is the typed front matter of a method file.
type Frontmatter struct {
	Title      string
	MethodIcon string
	Position   int
}

// MarkdownField is a front matter value that is itself markdown.
type MarkdownField struct {
	Raw     string
	HTML    string
	Excerpt string
}

// Method is a fully parsed method, as used by method pages and guide preparation.
type Method struct {
	Name        string
	Slug        string
	Title       string
	IconURL     string
	Summary     string
	SummaryHTML string
	Body        string
	HTML        string
	Position    int
}

// Section is a fixed front or back matter section of the guide.
type Section struct {
	Name     string
	Title    string
	Body     string
	HTML     string
	Position int
}

// Page is a standalone static page such as "about".
type Page struct {
	Name      string
	Title     string
	Summary   string
	Body      string
	HTML      string
	UpdatedAt time.Time
}

// GuideInputs is the aggregate handed to guide preparation unchanged.
type GuideInputs struct {
	FullGuide     []Method
	FixedSections []Section
}

// Summarize maps a query record to a card. It reports false when the record lacks
// a slug, parsed markdown, a title, an icon or a summary excerpt.
func Summarize(rec MethodRecord) (MethodSummary, bool) {
	if rec.Fields == nil || rec.Markdown == nil {
		return MethodSummary{}, false
	}
	if rec.Fields.Slug == "" || rec.Markdown.Summary == nil {
		return MethodSummary{}, false
	}
	fm := rec.Markdown.Frontmatter
	if fm.Title == "" || fm.MethodIcon == "" || rec.Markdown.Summary.Excerpt == "" {
		return MethodSummary{}, false
	}
	return MethodSummary{
		Slug:    rec.Fields.Slug,
		Title:   fm.Title,
		IconURL: fm.MethodIcon,
		Excerpt: rec.Markdown.Summary.Excerpt,
	}, true
}

// SummarizeAll maps records to cards, dropping the ones Summarize rejects.
func SummarizeAll(records []MethodRecord) []MethodSummary {
	out := make([]MethodSummary, 0, len(records))
	for _, rec := range records {
		if s, ok := Summarize(rec); ok {
			out = append(out, s)
		}
	}
	return out
}

func cloneMethods(src []Method) []Method {
	if len(src) == 0 {
		return []Method{}
	}
	out := make([]Method, len(src))
	copy(out, src)
	return out
}

func cloneSections(src []Section) []Section {
	if len(src) == 0 {
		return []Section{}
	}
	out := make([]Section, len(src))
	copy(out, src)
	return out
}
