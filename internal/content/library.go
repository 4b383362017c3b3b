package content

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/procyborg2222/SAFETAG/internal/observability"
)

// Content directories relative to the library root.
const (
	MethodsDir  = "methods"
	SectionsDir = "sections"
	PagesDir    = "pages"
)

const defaultCacheTTL = 5 * time.Minute

// Library reads the markdown content tree and caches the parsed result.
type Library struct {
	dir    string
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
	md     *Markdown

	mu      sync.RWMutex
	snap    *snapshot
	expires time.Time
}

// Option customises a Library.
type Option func(*Library)

// WithCacheTTL overrides how long a loaded content tree is reused.
func WithCacheTTL(d time.Duration) Option {
	return func(l *Library) {
		if d > 0 {
			l.ttl = d
		}
	}
}

// WithLogger sets the logger used for skipped records and reloads.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Library) {
		l.logger = observability.OrNop(logger)
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(now func() time.Time) Option {
	return func(l *Library) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLibrary constructs a Library rooted at dir.
func NewLibrary(dir string, opts ...Option) *Library {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = "content"
	}
	l := &Library{
		dir:    dir,
		ttl:    defaultCacheTTL,
		now:    time.Now,
		logger: observability.OrNop(nil),
		md:     NewMarkdown(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Dir returns the content root.
func (l *Library) Dir() string { return l.dir }

// Markdown exposes the converter used for content bodies.
func (l *Library) Markdown() *Markdown { return l.md }

// Invalidate drops the cached content tree; the next read reloads from disk.
func (l *Library) Invalidate() {
	l.mu.Lock()
	l.snap = nil
	l.expires = time.Time{}
	l.mu.Unlock()
}

// Query returns one record per markdown file in the methods directory, including
// records whose fields could not be derived.
func (l *Library) Query(ctx context.Context) ([]MethodRecord, error) {
	s, err := l.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MethodRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Methods returns the homepage cards in display order.
func (l *Library) Methods(ctx context.Context) ([]MethodSummary, error) {
	s, err := l.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MethodSummary, len(s.summaries))
	copy(out, s.summaries)
	return out, nil
}

// AllMethods returns every parsed method in guide order.
func (l *Library) AllMethods(ctx context.Context) ([]Method, error) {
	s, err := l.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return cloneMethods(s.methods), nil
}

// Method returns one method by name.
func (l *Library) Method(ctx context.Context, name string) (Method, error) {
	s, err := l.snapshot(ctx)
	if err != nil {
		return Method{}, err
	}
	name = sanitizeSlug(name)
	if i, ok := s.methodIndex[name]; ok && name != "" {
		return s.methods[i], nil
	}
	return Method{}, ErrNotFound
}

// Page returns a static page by name.
func (l *Library) Page(ctx context.Context, name string) (Page, error) {
	s, err := l.snapshot(ctx)
	if err != nil {
		return Page{}, err
	}
	name = sanitizeSlug(name)
	if p, ok := s.pages[name]; ok && name != "" {
		return p, nil
	}
	return Page{}, ErrNotFound
}

// GuideInputs returns the full guide: every method plus the fixed sections.
func (l *Library) GuideInputs(ctx context.Context) (GuideInputs, error) {
	s, err := l.snapshot(ctx)
	if err != nil {
		return GuideInputs{}, err
	}
	return GuideInputs{
		FullGuide:     cloneMethods(s.methods),
		FixedSections: cloneSections(s.sections),
	}, nil
}

// Select returns guide inputs limited to the named methods, kept in guide order.
func (l *Library) Select(ctx context.Context, names []string) (GuideInputs, error) {
	s, err := l.snapshot(ctx)
	if err != nil {
		return GuideInputs{}, err
	}
	wanted := make(map[int]struct{}, len(names))
	for _, raw := range names {
		name := sanitizeSlug(raw)
		i, ok := s.methodIndex[name]
		if !ok || name == "" {
			return GuideInputs{}, fmt.Errorf("%w: method %q", ErrNotFound, raw)
		}
		wanted[i] = struct{}{}
	}
	selected := make([]Method, 0, len(wanted))
	for i, m := range s.methods {
		if _, ok := wanted[i]; ok {
			selected = append(selected, m)
		}
	}
	return GuideInputs{
		FullGuide:     selected,
		FixedSections: cloneSections(s.sections),
	}, nil
}

// Digest identifies the loaded content tree; it changes whenever any file changes.
func (l *Library) Digest(ctx context.Context) (string, error) {
	s, err := l.snapshot(ctx)
	if err != nil {
		return "", err
	}
	return s.digest, nil
}

type snapshot struct {
	records     []MethodRecord
	summaries   []MethodSummary
	methods     []Method
	methodIndex map[string]int
	sections    []Section
	pages       map[string]Page
	digest      string
}

func (l *Library) snapshot(ctx context.Context) (*snapshot, error) {
	now := l.now()
	l.mu.RLock()
	s, expires := l.snap, l.expires
	l.mu.RUnlock()
	if s != nil && now.Before(expires) {
		return s, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.snap != nil && now.Before(l.expires) {
		return l.snap, nil
	}
	s, err := l.load(ctx)
	if err != nil {
		observability.ContentReloads.WithLabelValues("failed").Inc()
		return nil, err
	}
	observability.ContentReloads.WithLabelValues("ok").Inc()
	l.snap = s
	l.expires = now.Add(l.ttl)
	return s, nil
}

func (l *Library) load(ctx context.Context) (*snapshot, error) {
	fsys := os.DirFS(l.dir)
	h := sha256.New()
	s := &snapshot{
		methodIndex: map[string]int{},
		pages:       map[string]Page{},
	}

	claimed := map[string]string{}
	if err := l.walk(ctx, fsys, MethodsDir, h, func(name string, data []byte) {
		rec, method := l.parseMethod(name, data)
		if method != nil {
			// The first file in name order owns a slug; later ones lose their fields.
			if first, dup := claimed[method.Name]; dup {
				l.logger.Debug("content: duplicate method slug",
					zap.String("path", rec.Path),
					zap.String("first", first),
				)
				rec.Fields = nil
				method = nil
			} else {
				claimed[method.Name] = rec.Path
			}
		}
		s.records = append(s.records, rec)
		if method != nil {
			s.methods = append(s.methods, *method)
		}
	}); err != nil {
		return nil, err
	}
	if err := l.walk(ctx, fsys, SectionsDir, h, func(name string, data []byte) {
		if sec, ok := l.parseSection(name, data); ok {
			s.sections = append(s.sections, sec)
		}
	}); err != nil {
		return nil, err
	}
	if err := l.walk(ctx, fsys, PagesDir, h, func(name string, data []byte) {
		if p, ok := l.parsePage(name, data); ok {
			s.pages[p.Name] = p
		}
	}); err != nil {
		return nil, err
	}

	sortRecords(s.records)
	sortMethods(s.methods)
	sort.SliceStable(s.sections, func(i, j int) bool {
		return lessByPosition(s.sections[i].Position, s.sections[j].Position, s.sections[i].Title, s.sections[j].Title, s.sections[i].Name, s.sections[j].Name)
	})
	for i, m := range s.methods {
		s.methodIndex[m.Name] = i
	}
	s.summaries = SummarizeAll(s.records)
	if skipped := len(s.records) - len(s.summaries); skipped > 0 {
		observability.SkippedRecords.Add(float64(skipped))
		l.logger.Debug("content: method records without card", zap.Int("skipped", skipped))
	}
	s.digest = hex.EncodeToString(h.Sum(nil))
	return s, nil
}

// walk feeds every markdown file of dir to fn in name order. A missing dir is empty.
func (l *Library) walk(ctx context.Context, fsys fs.FS, dir string, h hash.Hash, fn func(name string, data []byte)) error {
	entries, err := fs.ReadDir(fsys, dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("content: read %s: %w", dir, err)
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !entry.Type().IsRegular() {
			continue
		}
		if !markdownExtensions[strings.ToLower(path.Ext(entry.Name()))] {
			continue
		}
		rel := path.Join(dir, entry.Name())
		data, err := fs.ReadFile(fsys, rel)
		if err != nil {
			return fmt.Errorf("content: read %s: %w", rel, err)
		}
		h.Write([]byte(rel))
		h.Write(data)
		fn(entry.Name(), data)
	}
	return nil
}

func (l *Library) parseMethod(fileName string, data []byte) (MethodRecord, *Method) {
	rel := path.Join(MethodsDir, fileName)
	rec := MethodRecord{Path: rel}
	name := sanitizeSlug(strings.TrimSuffix(fileName, path.Ext(fileName)))
	if name != "" {
		rec.Fields = &FileFields{Slug: "/" + MethodsDir + "/" + name + "/"}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return rec, nil
	}
	fm, body := splitFrontMatter(string(data))
	front := methodFrontMatter{}
	if strings.TrimSpace(fm) != "" {
		if err := yaml.Unmarshal([]byte(fm), &front); err != nil {
			l.logger.Debug("content: parse front matter", zap.String("path", rel), zap.Error(err))
			return rec, nil
		}
	}
	bodyHTML, err := l.md.Render(body)
	if err != nil {
		l.logger.Debug("content: render body", zap.String("path", rel), zap.Error(err))
		return rec, nil
	}
	node := &MarkdownNode{
		Frontmatter: Frontmatter{
			Title:      strings.TrimSpace(front.Title),
			MethodIcon: strings.TrimSpace(front.MethodIcon),
			Position:   front.Position,
		},
		Body: body,
		HTML: bodyHTML,
	}
	if front.Summary != nil {
		raw := strings.TrimSpace(*front.Summary)
		summaryHTML, err := l.md.Render(raw)
		if err == nil {
			node.Summary = &MarkdownField{
				Raw:     raw,
				HTML:    summaryHTML,
				Excerpt: prune(plainText(summaryHTML), ExcerptLength),
			}
		}
	}
	rec.Markdown = node

	if rec.Fields == nil {
		return rec, nil
	}
	method := &Method{
		Name:     name,
		Slug:     rec.Fields.Slug,
		Title:    node.Frontmatter.Title,
		IconURL:  node.Frontmatter.MethodIcon,
		Body:     body,
		HTML:     bodyHTML,
		Position: node.Frontmatter.Position,
	}
	if method.Title == "" {
		method.Title = prettifySlug(name)
	}
	if node.Summary != nil {
		method.Summary = node.Summary.Raw
		method.SummaryHTML = node.Summary.HTML
	}
	return rec, method
}

func (l *Library) parseSection(fileName string, data []byte) (Section, bool) {
	name := sanitizeSlug(strings.TrimSuffix(fileName, path.Ext(fileName)))
	if name == "" {
		return Section{}, false
	}
	fm, body := splitFrontMatter(string(data))
	front := sectionFrontMatter{}
	if strings.TrimSpace(fm) != "" {
		if err := yaml.Unmarshal([]byte(fm), &front); err != nil {
			l.logger.Debug("content: parse section front matter", zap.String("name", name), zap.Error(err))
			return Section{}, false
		}
	}
	bodyHTML, err := l.md.Render(body)
	if err != nil {
		return Section{}, false
	}
	sec := Section{
		Name:     name,
		Title:    strings.TrimSpace(front.Title),
		Body:     body,
		HTML:     bodyHTML,
		Position: front.Position,
	}
	if sec.Title == "" {
		sec.Title = prettifySlug(name)
	}
	return sec, true
}

func (l *Library) parsePage(fileName string, data []byte) (Page, bool) {
	name := sanitizeSlug(strings.TrimSuffix(fileName, path.Ext(fileName)))
	if name == "" {
		return Page{}, false
	}
	fm, body := splitFrontMatter(string(data))
	front := pageFrontMatter{}
	if strings.TrimSpace(fm) != "" {
		if err := yaml.Unmarshal([]byte(fm), &front); err != nil {
			l.logger.Debug("content: parse page front matter", zap.String("name", name), zap.Error(err))
			return Page{}, false
		}
	}
	bodyHTML, err := l.md.Render(body)
	if err != nil {
		return Page{}, false
	}
	p := Page{
		Name:      name,
		Title:     strings.TrimSpace(front.Title),
		Summary:   strings.TrimSpace(front.Summary),
		Body:      body,
		HTML:      bodyHTML,
		UpdatedAt: parseContentDate(front.UpdatedAt),
	}
	if p.Title == "" {
		p.Title = prettifySlug(name)
	}
	return p, true
}

func sortRecords(items []MethodRecord) {
	key := func(r MethodRecord) (int, string) {
		if r.Markdown == nil {
			return 0, ""
		}
		return r.Markdown.Frontmatter.Position, r.Markdown.Frontmatter.Title
	}
	sort.SliceStable(items, func(i, j int) bool {
		pi, ti := key(items[i])
		pj, tj := key(items[j])
		return lessByPosition(pi, pj, ti, tj, items[i].Path, items[j].Path)
	})
}

func sortMethods(items []Method) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		return lessByPosition(a.Position, b.Position, a.Title, b.Title, a.Name, b.Name)
	})
}

// lessByPosition orders positioned items first (ascending), then by title, then by key.
func lessByPosition(pa, pb int, ta, tb, ka, kb string) bool {
	switch {
	case pa > 0 && pb > 0:
		if pa != pb {
			return pa < pb
		}
	case pa > 0:
		return true
	case pb > 0:
		return false
	}
	if c := strings.Compare(strings.ToLower(ta), strings.ToLower(tb)); c != 0 {
		return c < 0
	}
	return strings.Compare(ka, kb) < 0
}
