package server

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	g "maragu.dev/gomponents"

	"github.com/procyborg2222/SAFETAG/internal/content"
	"github.com/procyborg2222/SAFETAG/internal/middleware"
	"github.com/procyborg2222/SAFETAG/internal/nav"
	"github.com/procyborg2222/SAFETAG/internal/observability"
	"github.com/procyborg2222/SAFETAG/internal/seo"
	"github.com/procyborg2222/SAFETAG/internal/views"
)

type handlers struct {
	cfg    Config
	logger *zap.Logger
}

// pageData builds the shared view model. leaf labels the last breadcrumb.
func (h *handlers) pageData(r *http.Request, title, description, leaf string) views.PageData {
	path := r.URL.Path
	return views.PageData{
		SiteTitle: h.cfg.SiteTitle,
		Path:      path,
		CSRFToken: middleware.SessionFromContext(r.Context()).CSRFToken,
		Nav:       nav.Build(path),
		Crumbs:    nav.Breadcrumbs(path, leaf),
		Meta:      seo.PageMeta(h.cfg.SiteTitle, title, description, h.cfg.BaseURL, path),
	}
}

func (h *handlers) breadcrumbLD(crumbs []nav.Crumb) string {
	items := make([]seo.BreadcrumbItem, 0, len(crumbs))
	for _, c := range crumbs {
		items = append(items, seo.BreadcrumbItem{Name: c.Label, Item: seo.AbsURL(h.cfg.BaseURL, c.Href)})
	}
	return seo.JSON(seo.BreadcrumbList(items))
}

func (h *handlers) home(w http.ResponseWriter, r *http.Request) {
	methods, err := h.cfg.Library.Methods(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page := h.pageData(r, h.cfg.SiteTitle, "", "")
	page.JSONLD = []string{
		seo.JSON(seo.WebSite(h.cfg.SiteTitle, h.cfg.BaseURL)),
		seo.JSON(seo.Organization("SAFETAG", h.cfg.BaseURL, "")),
	}
	h.render(w, r, http.StatusOK, views.HomePage(views.HomeData{
		Page:     page,
		Download: h.control(r, fullGuideOutput),
		Methods:  methods,
	}))
}

func (h *handlers) about(w http.ResponseWriter, r *http.Request) {
	pg, err := h.cfg.Library.Page(r.Context(), "about")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, views.AboutPage(h.pageData(r, pg.Title, pg.Summary, pg.Title), pg))
}

func (h *handlers) method(w http.ResponseWriter, r *http.Request) {
	m, err := h.cfg.Library.Method(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page := h.pageData(r, m.Title, m.Summary, m.Title)
	page.JSONLD = []string{
		h.breadcrumbLD(page.Crumbs),
		seo.JSON(seo.HowTo(m.Title, m.Summary, page.Meta.Canonical, m.IconURL)),
	}
	h.render(w, r, http.StatusOK, views.MethodPage(page, m))
}

func (h *handlers) builder(w http.ResponseWriter, r *http.Request) {
	h.renderBuilder(w, r, http.StatusOK, nil, "")
}

func (h *handlers) renderBuilder(w http.ResponseWriter, r *http.Request, status int, selected []string, msg string) {
	methods, err := h.cfg.Library.AllMethods(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	picked := make(map[string]bool, len(selected))
	for _, name := range selected {
		picked[name] = true
	}
	h.render(w, r, status, views.BuilderPage(views.BuilderData{
		Page:     h.pageData(r, "Guide Builder", "Build a custom SAFETAG guide from selected methods.", ""),
		Download: h.control(r, customGuideOutput),
		Methods:  methods,
		Selected: picked,
		Error:    msg,
	}))
}

func (h *handlers) notFound(w http.ResponseWriter, r *http.Request) {
	h.fail(w, r, content.ErrNotFound)
}

// fail maps err to a status and renders it.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := http.StatusInternalServerError, "Something went wrong"
	if errors.Is(err, content.ErrNotFound) {
		status, msg = http.StatusNotFound, "Page not found"
	} else {
		observability.FromContext(r.Context()).Error("request failed", zap.Error(err))
	}
	if middleware.IsHTMX(r.Context()) {
		middleware.WriteError(w, r, status, msg)
		return
	}
	h.render(w, r, status, views.ErrorPage(h.pageData(r, msg, "", ""), status, msg))
}

func (h *handlers) render(w http.ResponseWriter, r *http.Request, status int, n g.Node) {
	var buf bytes.Buffer
	if err := views.Render(&buf, n); err != nil {
		observability.FromContext(r.Context()).Error("render failed", zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
