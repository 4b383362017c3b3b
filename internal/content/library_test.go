package content

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeContent(t *testing.T, root, rel, body string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func method(title, icon, summary string, position int) string {
	var b strings.Builder
	b.WriteString("---\n")
	if title != "" {
		b.WriteString("title: " + title + "\n")
	}
	if icon != "" {
		b.WriteString("method_icon: " + icon + "\n")
	}
	if summary != "" {
		b.WriteString("summary: |\n  " + summary + "\n")
	}
	if position > 0 {
		b.WriteString("position: " + string(rune('0'+position)) + "\n")
	}
	b.WriteString("---\n\n# " + title + "\n\nMethod body.\n")
	return b.String()
}

func TestMethodsBuildsCardsInPositionOrder(t *testing.T) {
	root := t.TempDir()
	writeContent(t, root, "methods/reconnaissance.md", method("Reconnaissance", "/img/recon.svg", "Gather *public* information.", 2))
	writeContent(t, root, "methods/capacity.md", method("Capacity", "/img/capacity.svg", "Assess the organisation's capacity.", 1))
	writeContent(t, root, "methods/network-mapping.md", method("Network Mapping", "/img/network.svg", "Map the office network.", 3))

	lib := NewLibrary(root)
	got, err := lib.Methods(context.Background())
	require.NoError(t, err)

	want := []MethodSummary{
		{Slug: "/methods/capacity/", Title: "Capacity", IconURL: "/img/capacity.svg", Excerpt: "Assess the organisation's capacity."},
		{Slug: "/methods/reconnaissance/", Title: "Reconnaissance", IconURL: "/img/recon.svg", Excerpt: "Gather public information."},
		{Slug: "/methods/network-mapping/", Title: "Network Mapping", IconURL: "/img/network.svg", Excerpt: "Map the office network."},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Methods mismatch (-want +got):\n%s", diff)
	}
}

func TestMethodsSkipsMalformedRecords(t *testing.T) {
	root := t.TempDir()
	writeContent(t, root, "methods/valid.md", method("Valid", "/img/valid.svg", "A well formed method.", 0))
	writeContent(t, root, "methods/broken-yaml.md", "---\ntitle: [unterminated\n---\nbody\n")
	writeContent(t, root, "methods/empty.md", "   \n")
	writeContent(t, root, "methods/no-summary.md", method("No Summary", "/img/x.svg", "", 0))
	writeContent(t, root, "methods/no-icon.md", method("No Icon", "", "Has a summary.", 0))
	writeContent(t, root, "methods/@@@.md", method("Bad Slug", "/img/y.svg", "Slug cannot be derived.", 0))
	writeContent(t, root, "methods/notes.txt", "not markdown")

	lib := NewLibrary(root)
	records, err := lib.Query(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 6, "every markdown file yields a record")

	var nilFields, nilMarkdown int
	for _, rec := range records {
		if rec.Fields == nil {
			nilFields++
		}
		if rec.Markdown == nil {
			nilMarkdown++
		}
	}
	assert.Equal(t, 1, nilFields)
	assert.Equal(t, 2, nilMarkdown)

	cards, err := lib.Methods(context.Background())
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "/methods/valid/", cards[0].Slug)
}

func TestDuplicateSlugKeepsFirstFile(t *testing.T) {
	root := t.TempDir()
	writeContent(t, root, "methods/Recon.md", method("A", "/img/a.svg", "First file.", 1))
	writeContent(t, root, "methods/recon.markdown", method("B", "/img/b.svg", "Second file.", 2))
	writeContent(t, root, "methods/Évaluation.md", method("C", "/img/c.svg", "Accented name.", 3))
	writeContent(t, root, "methods/evaluation.md", method("D", "/img/d.svg", "Plain name.", 4))

	lib := NewLibrary(root)
	ctx := context.Background()
	cards, err := lib.Methods(ctx)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	slugs := map[string]string{}
	for _, c := range cards {
		_, seen := slugs[c.Slug]
		assert.False(t, seen, "slug %s listed twice", c.Slug)
		slugs[c.Slug] = c.Title
	}
	assert.Equal(t, "A", slugs["/methods/recon/"])

	m, err := lib.Method(ctx, "recon")
	require.NoError(t, err)
	assert.Equal(t, "A", m.Title, "the card and the page agree")
	m, err = lib.Method(ctx, "evaluation")
	require.NoError(t, err)
	assert.Equal(t, slugs["/methods/evaluation/"], m.Title)

	all, err := lib.AllMethods(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	records, err := lib.Query(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 4)
	var orphaned int
	for _, r := range records {
		if r.Fields == nil {
			orphaned++
		}
	}
	assert.Equal(t, 2, orphaned)
}

func TestSummarizeRequiresFieldsAndMarkdown(t *testing.T) {
	summary := &MarkdownField{Raw: "s", HTML: "<p>s</p>", Excerpt: "s"}
	full := MethodRecord{
		Fields:   &FileFields{Slug: "/methods/a/"},
		Markdown: &MarkdownNode{Frontmatter: Frontmatter{Title: "A", MethodIcon: "/a.svg"}, Summary: summary},
	}

	_, ok := Summarize(full)
	assert.True(t, ok)

	noFields := full
	noFields.Fields = nil
	_, ok = Summarize(noFields)
	assert.False(t, ok, "nil fields must not render")

	noMarkdown := full
	noMarkdown.Markdown = nil
	_, ok = Summarize(noMarkdown)
	assert.False(t, ok, "nil markdown must not render")

	emptySlug := full
	emptySlug.Fields = &FileFields{}
	_, ok = Summarize(emptySlug)
	assert.False(t, ok)

	assert.Len(t, SummarizeAll([]MethodRecord{full, noFields, noMarkdown}), 1)
}

func TestExcerptIsPlainTextAndPruned(t *testing.T) {
	md := NewMarkdown()
	long := strings.Repeat("Assess digital security practices ", 10)
	got, err := md.Excerpt("**" + long + "**")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(got, "…"), "expected ellipsis, got %q", got)
	assert.LessOrEqual(t, len([]rune(got)), ExcerptLength+1)
	assert.NotContains(t, got, "<")

	short, err := md.Excerpt("Just *one* line.")
	require.NoError(t, err)
	assert.Equal(t, "Just one line.", short)
}

func TestRenderSanitizesScripts(t *testing.T) {
	md := NewMarkdown()
	out, err := md.Render("## Title\n\n<script>alert(1)</script>\n\n[link](https://example.org)")
	require.NoError(t, err)
	assert.NotContains(t, out, "<script")
	assert.Contains(t, out, `id="title"`)
	assert.Contains(t, out, `rel="nofollow"`)
}

func TestMethodPageAndGuideInputs(t *testing.T) {
	root := t.TempDir()
	writeContent(t, root, "methods/reconnaissance.md", method("Reconnaissance", "/img/recon.svg", "Gather information.", 2))
	writeContent(t, root, "methods/capacity.md", method("Capacity", "/img/capacity.svg", "Assess capacity.", 1))
	writeContent(t, root, "sections/introduction.md", "---\ntitle: Introduction\nposition: 1\n---\nWelcome.\n")
	writeContent(t, root, "sections/glossary.md", "---\nposition: 2\n---\nTerms.\n")
	writeContent(t, root, "pages/about.md", "---\ntitle: About SAFETAG\nupdated_at: 2024-03-01\n---\nAbout body.\n")

	lib := NewLibrary(root)
	ctx := context.Background()

	m, err := lib.Method(ctx, "reconnaissance")
	require.NoError(t, err)
	assert.Equal(t, "Reconnaissance", m.Title)
	assert.Contains(t, m.HTML, "Method body.")

	_, err = lib.Method(ctx, "../etc/passwd")
	assert.True(t, errors.Is(err, ErrNotFound))

	page, err := lib.Page(ctx, "about")
	require.NoError(t, err)
	assert.Equal(t, "About SAFETAG", page.Title)
	assert.Equal(t, 2024, page.UpdatedAt.Year())

	inputs, err := lib.GuideInputs(ctx)
	require.NoError(t, err)
	require.Len(t, inputs.FullGuide, 2)
	assert.Equal(t, "capacity", inputs.FullGuide[0].Name)
	require.Len(t, inputs.FixedSections, 2)
	assert.Equal(t, "Introduction", inputs.FixedSections[0].Title)
	assert.Equal(t, "Glossary", inputs.FixedSections[1].Title, "title falls back to the prettified name")

	selected, err := lib.Select(ctx, []string{"reconnaissance"})
	require.NoError(t, err)
	require.Len(t, selected.FullGuide, 1)
	assert.Equal(t, "reconnaissance", selected.FullGuide[0].Name)

	_, err = lib.Select(ctx, []string{"missing"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCacheExpiresAndInvalidates(t *testing.T) {
	root := t.TempDir()
	writeContent(t, root, "methods/one.md", method("One", "/1.svg", "First.", 0))

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	lib := NewLibrary(root, WithCacheTTL(time.Minute), WithClock(func() time.Time { return now }))
	ctx := context.Background()

	digest1, err := lib.Digest(ctx)
	require.NoError(t, err)

	writeContent(t, root, "methods/two.md", method("Two", "/2.svg", "Second.", 0))
	cards, err := lib.Methods(ctx)
	require.NoError(t, err)
	assert.Len(t, cards, 1, "cached tree is reused within the TTL")

	now = now.Add(2 * time.Minute)
	cards, err = lib.Methods(ctx)
	require.NoError(t, err)
	assert.Len(t, cards, 2)

	digest2, err := lib.Digest(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, digest1, digest2)

	writeContent(t, root, "methods/three.md", method("Three", "/3.svg", "Third.", 0))
	lib.Invalidate()
	cards, err = lib.Methods(ctx)
	require.NoError(t, err)
	assert.Len(t, cards, 3)
}

func TestMissingContentDirIsEmpty(t *testing.T) {
	lib := NewLibrary(filepath.Join(t.TempDir(), "nothing"))
	cards, err := lib.Methods(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func TestSanitizeSlug(t *testing.T) {
	cases := map[string]string{
		"Reconnaissance":   "reconnaissance",
		"Évaluation":       "evaluation",
		"network mapping":  "network-mapping",
		"../secret":        "",
		"data_assessment":  "data_assessment",
		"web--application": "web-application",
		"下载":               "",
	}
	for in, want := range cases {
		if got := sanitizeSlug(in); got != want {
			t.Errorf("sanitizeSlug(%q) = %q, want %q", in, got, want)
		}
	}
}
