// Package guide prepares downloadable guide artifacts from method and section content.
package guide

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrInvalidOutput reports an output identifier outside [a-z0-9-]+.
	ErrInvalidOutput = errors.New("guide: invalid output identifier")
	// ErrEmptyGuide reports a preparation with no methods and no sections.
	ErrEmptyGuide = errors.New("guide: nothing to prepare")

	errStoreRequired    = errors.New("guide: artifact store is required")
	errRendererRequired = errors.New("guide: renderer is required")
	errComposerRequired = errors.New("guide: document composer is required")
)

const (
	// FullGuide is the output identifier of the complete guide.
	FullGuide = "full-guide"
	// CustomGuide is the output identifier of a guide built from a method selection.
	CustomGuide = "custom-guide"
)

var outputPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// ValidOutput reports whether id is an acceptable output identifier.
func ValidOutput(id string) bool {
	return outputPattern.MatchString(id)
}

// Artifact is a prepared guide held in the artifact store.
type Artifact struct {
	ID          string
	OutputID    string
	Filename    string
	ContentType string
	Size        int64
	Key         string
	CreatedAt   time.Time
}

// Chapter is one compiled part of a guide document.
type Chapter struct {
	ID    string
	Kind  string
	Title string
	HTML  string
}

// TOCEntry is one line of the guide's table of contents.
type TOCEntry struct {
	Level int
	ID    string
	Text  string
}

// Document is the composed guide handed to a Composer.
type Document struct {
	Title       string
	OutputID    string
	Front       []Chapter
	Methods     []Chapter
	TOC         []TOCEntry
	GeneratedAt time.Time
}

// Chapters returns front matter chapters followed by method chapters.
func (d Document) Chapters() []Chapter {
	out := make([]Chapter, 0, len(d.Front)+len(d.Methods))
	out = append(out, d.Front...)
	return append(out, d.Methods...)
}

// Composer writes a Document as a complete HTML page.
type Composer func(w io.Writer, doc Document) error

// Renderer turns a guide HTML page into the final artifact bytes.
type Renderer interface {
	Render(ctx context.Context, page []byte) ([]byte, error)
	ContentType() string
	Extension() string
}

// DocumentTitle returns the display title for an output identifier.
func DocumentTitle(outputID string) string {
	switch outputID {
	case FullGuide:
		return "SAFETAG Full Guide"
	case CustomGuide:
		return "SAFETAG Custom Guide"
	default:
		return "SAFETAG " + strings.ReplaceAll(outputID, "-", " ")
	}
}
