package server_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/procyborg2222/SAFETAG/internal/content"
	"github.com/procyborg2222/SAFETAG/internal/download"
	"github.com/procyborg2222/SAFETAG/internal/guide"
	"github.com/procyborg2222/SAFETAG/internal/middleware"
	"github.com/procyborg2222/SAFETAG/internal/server"
	"github.com/procyborg2222/SAFETAG/internal/storage"
)

const testLinger = 150 * time.Millisecond

// fakePreparer blocks each call until released and records what it was asked for.
type fakePreparer struct {
	mu      sync.Mutex
	calls   []string
	methods [][]string
	release chan struct{}
	err     error
}

func newFakePreparer() *fakePreparer {
	return &fakePreparer{release: make(chan struct{})}
}

func (f *fakePreparer) Prepare(ctx context.Context, methods []content.Method, outputID string, _ []content.Section) (guide.Artifact, error) {
	names := make([]string, 0, len(methods))
	for _, m := range methods {
		names = append(names, m.Name)
	}
	f.mu.Lock()
	f.calls = append(f.calls, outputID)
	f.methods = append(f.methods, names)
	f.mu.Unlock()

	select {
	case <-f.release:
	case <-ctx.Done():
		return guide.Artifact{}, ctx.Err()
	}
	if f.err != nil {
		return guide.Artifact{}, f.err
	}
	return guide.Artifact{ID: "01HFAKE", OutputID: outputID, Filename: "01HFAKE.html", Key: outputID + "/01HFAKE.html"}, nil
}

func (f *fakePreparer) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type harness struct {
	URL       string
	Client    *http.Client
	Downloads *download.Registry
	Artifacts storage.Store
}

type serverOption func(*server.Config)

func withPreparer(p server.Preparer) serverOption {
	return func(cfg *server.Config) { cfg.Preparer = p }
}

func withContentDir(dir string) serverOption {
	return func(cfg *server.Config) { cfg.Library = content.NewLibrary(dir) }
}

func newHarness(t *testing.T, opts ...serverOption) *harness {
	t.Helper()

	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	sessions, err := middleware.NewSessions("test-key", false)
	require.NoError(t, err)
	downloads := download.NewRegistry(download.WithLinger(testLinger), download.WithTimeout(5*time.Second))

	cfg := server.Config{
		SiteTitle:   "Safetag guide",
		PublicDir:   "testdata/public",
		MetricsPath: "/metrics",
		Library:     content.NewLibrary("testdata/content"),
		Preparer:    newFakePreparer(),
		Artifacts:   store,
		Downloads:   downloads,
		Sessions:    sessions,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if p, ok := cfg.Preparer.(*fakePreparer); ok {
		t.Cleanup(func() {
			select {
			case <-p.release:
			default:
				close(p.release)
			}
		})
	}

	handler, err := server.NewHandler(cfg)
	require.NoError(t, err)
	ts := httptest.NewServer(handler)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = downloads.Wait(ctx)
		downloads.Close()
		ts.Close()
	})

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &harness{URL: ts.URL, Client: client, Downloads: downloads, Artifacts: store}
}

func (h *harness) get(t *testing.T, path string, htmx bool) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, h.URL+path, nil)
	require.NoError(t, err)
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return h.do(t, req)
}

func (h *harness) post(t *testing.T, path string, form url.Values, htmx bool) (*http.Response, []byte) {
	t.Helper()
	if form == nil {
		form = url.Values{}
	}
	req, err := http.NewRequest(http.MethodPost, h.URL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return h.do(t, req)
}

// fetch is get without assertions; it returns nil on any error.
func (h *harness) fetch(path string, htmx bool) []byte {
	req, err := http.NewRequest(http.MethodGet, h.URL+path, nil)
	if err != nil {
		return nil
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return body
}

func (h *harness) do(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := h.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

// csrf loads the homepage to establish a session and returns its token.
func (h *harness) csrf(t *testing.T) string {
	t.Helper()
	_, body := h.get(t, "/", false)
	token, ok := parseHTML(t, body).Find(`meta[name="csrf-token"]`).Attr("content")
	require.True(t, ok)
	require.NotEmpty(t, token)
	return token
}

func parseHTML(t testing.TB, body []byte) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	require.NoError(t, err)
	return doc
}

func tokenForm(token string, kv ...string) url.Values {
	v := url.Values{middleware.CSRFFormField: {token}}
	for i := 0; i+1 < len(kv); i += 2 {
		v.Add(kv[i], kv[i+1])
	}
	return v
}
