// Package server wires the site's HTTP routes and middleware stack.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/procyborg2222/SAFETAG/internal/content"
	"github.com/procyborg2222/SAFETAG/internal/download"
	"github.com/procyborg2222/SAFETAG/internal/guide"
	"github.com/procyborg2222/SAFETAG/internal/middleware"
	"github.com/procyborg2222/SAFETAG/internal/observability"
	"github.com/procyborg2222/SAFETAG/internal/storage"
	"github.com/procyborg2222/SAFETAG/internal/theme"
)

// Preparer assembles a guide artifact from content.
type Preparer interface {
	Prepare(ctx context.Context, methods []content.Method, outputID string, fixed []content.Section) (guide.Artifact, error)
}

// Config holds runtime options and collaborators of the HTTP server.
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// RequestTimeout bounds handler execution; zero uses 30s.
	RequestTimeout time.Duration

	SiteTitle string
	BaseURL   string
	PublicDir string
	// MetricsPath mounts the Prometheus handler when not empty.
	MetricsPath string

	Library   *content.Library
	Preparer  Preparer
	Artifacts storage.Store
	Downloads *download.Registry
	Sessions  *middleware.Sessions
	Theme     theme.Theme
	Logger    *zap.Logger
}

var (
	errLibraryRequired   = errors.New("server: content library is required")
	errPreparerRequired  = errors.New("server: guide preparer is required")
	errArtifactsRequired = errors.New("server: artifact store is required")
	errDownloadsRequired = errors.New("server: download registry is required")
	errSessionsRequired  = errors.New("server: session manager is required")
)

// New constructs the HTTP server with its middleware stack.
func New(cfg Config) (*http.Server, error) {
	handler, err := NewHandler(cfg)
	if err != nil {
		return nil, err
	}
	return &http.Server{
		Addr:              cfg.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       durationOr(cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      durationOr(cfg.WriteTimeout, 60*time.Second),
		IdleTimeout:       durationOr(cfg.IdleTimeout, 60*time.Second),
	}, nil
}

// NewHandler returns the router without an http.Server around it.
func NewHandler(cfg Config) (http.Handler, error) {
	switch {
	case cfg.Library == nil:
		return nil, errLibraryRequired
	case cfg.Preparer == nil:
		return nil, errPreparerRequired
	case cfg.Artifacts == nil:
		return nil, errArtifactsRequired
	case cfg.Downloads == nil:
		return nil, errDownloadsRequired
	case cfg.Sessions == nil:
		return nil, errSessionsRequired
	}
	if cfg.Theme == nil {
		cfg.Theme = theme.Default
	}
	if strings.TrimSpace(cfg.SiteTitle) == "" {
		cfg.SiteTitle = "Safetag guide"
	}
	logger := observability.OrNop(cfg.Logger)
	h := &handlers{
		cfg:    cfg,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.HTMX)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(durationOr(cfg.RequestTimeout, 30*time.Second)))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsPath != "" {
		r.Handle(cfg.MetricsPath, promhttp.Handler())
	}

	r.Handle("/assets/site.css", middleware.StaticAsset([]byte(theme.Stylesheet(cfg.Theme)), "text/css; charset=utf-8"))
	if cfg.PublicDir != "" {
		r.Handle("/assets/*", http.StripPrefix("/assets", middleware.AssetsWithCache(cfg.PublicDir)))
	}

	r.Group(func(r chi.Router) {
		r.Use(cfg.Sessions.Middleware)
		r.Use(middleware.CSRF(cfg.Sessions.Secure()))

		r.Get("/", h.home)
		r.Get("/about", redirectSlash)
		r.Get("/about/", h.about)
		r.Get("/guide-builder", redirectSlash)
		r.Get("/guide-builder/", h.builder)
		r.Get("/methods/{name}", redirectSlash)
		r.Get("/methods/{name}/", h.method)

		r.Post("/guide/{output}/prepare", h.prepare)
		r.Get("/guide/{output}/status", h.status)
		r.Get("/guide/artifacts/{output}/{file}", h.artifact)
	})

	r.NotFound(h.notFound)
	return r, nil
}

func redirectSlash(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Path + "/"
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, target, http.StatusMovedPermanently)
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
