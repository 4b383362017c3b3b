package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/procyborg2222/SAFETAG/internal/content"
	"github.com/procyborg2222/SAFETAG/internal/download"
	"github.com/procyborg2222/SAFETAG/internal/guide"
	"github.com/procyborg2222/SAFETAG/internal/middleware"
	"github.com/procyborg2222/SAFETAG/internal/observability"
	"github.com/procyborg2222/SAFETAG/internal/storage"
	"github.com/procyborg2222/SAFETAG/internal/views"
)

// output describes one downloadable guide and the page that hosts its control.
type output struct {
	ID        string
	Label     string
	Title     string
	Variation string
	Origin    string
}

var (
	fullGuideOutput = output{
		ID:        guide.FullGuide,
		Label:     views.LabelFullGuide,
		Title:     "Download full guide as PDF",
		Variation: "primary-outline",
		Origin:    "/",
	}
	customGuideOutput = output{
		ID:        guide.CustomGuide,
		Label:     views.LabelCustomGuide,
		Title:     "Download the selected methods as a guide",
		Variation: "primary-raised-light",
		Origin:    views.GuideBuilderPath,
	}
	outputs = map[string]output{
		fullGuideOutput.ID:   fullGuideOutput,
		customGuideOutput.ID: customGuideOutput,
	}
)

type customGuideForm struct {
	Methods []string `validate:"required,min=1,dive,required,max=128"`
}

var formValidator = validator.New()

func (h *handlers) key(r *http.Request, out output) download.Key {
	return download.Key{Session: middleware.SessionFromContext(r.Context()).ID, Output: out.ID}
}

// control renders the current state of the caller's button for out.
func (h *handlers) control(r *http.Request, out output) views.DownloadControl {
	ctl := views.DownloadControl{
		OutputID:  out.ID,
		State:     download.Idle,
		Label:     out.Label,
		Title:     out.Title,
		Variation: out.Variation,
		CSRFToken: middleware.SessionFromContext(r.Context()).CSRFToken,
	}
	if b, ok := h.cfg.Downloads.Lookup(h.key(r, out)); ok {
		snap := b.Snapshot()
		ctl.State = snap.State
		ctl.LastResult = snap.LastResult
	}
	return ctl
}

func lookupOutput(r *http.Request) (output, bool) {
	out, ok := outputs[chi.URLParam(r, "output")]
	return out, ok
}

func (h *handlers) prepare(w http.ResponseWriter, r *http.Request) {
	out, ok := lookupOutput(r)
	if !ok {
		h.fail(w, r, content.ErrNotFound)
		return
	}

	inputs, selected, err := h.inputsFor(r, out)
	if err != nil {
		if errors.Is(err, errInvalidSelection) {
			h.rejectSelection(w, r, selected)
			return
		}
		h.fail(w, r, err)
		return
	}

	logger := observability.FromContext(r.Context()).With(zap.String("output", out.ID))
	_, err = h.cfg.Downloads.Trigger(r.Context(), h.key(r, out), func(ctx context.Context) (guide.Artifact, error) {
		ctx = observability.WithLogger(ctx, logger)
		return h.cfg.Preparer.Prepare(ctx, inputs.FullGuide, out.ID, inputs.FixedSections)
	})
	if errors.Is(err, download.ErrInFlight) {
		middleware.WriteError(w, r, http.StatusConflict, "guide preparation already in progress")
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	logger.Info("guide preparation started", zap.Int("methods", len(inputs.FullGuide)))

	if !middleware.IsHTMX(r.Context()) {
		http.Redirect(w, r, out.Origin, http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, views.DownloadButton(h.control(r, out)))
}

var errInvalidSelection = errors.New("server: invalid method selection")

func (h *handlers) inputsFor(r *http.Request, out output) (content.GuideInputs, []string, error) {
	if out.ID == guide.FullGuide {
		in, err := h.cfg.Library.GuideInputs(r.Context())
		return in, nil, err
	}
	if err := r.ParseForm(); err != nil {
		return content.GuideInputs{}, nil, errInvalidSelection
	}
	form := customGuideForm{Methods: r.PostForm["method"]}
	if err := formValidator.Struct(form); err != nil {
		return content.GuideInputs{}, form.Methods, errInvalidSelection
	}
	in, err := h.cfg.Library.Select(r.Context(), form.Methods)
	if errors.Is(err, content.ErrNotFound) {
		return content.GuideInputs{}, form.Methods, errInvalidSelection
	}
	return in, form.Methods, err
}

func (h *handlers) rejectSelection(w http.ResponseWriter, r *http.Request, selected []string) {
	const msg = "Select at least one method."
	if middleware.IsHTMX(r.Context()) {
		middleware.WriteError(w, r, http.StatusUnprocessableEntity, msg)
		return
	}
	h.renderBuilder(w, r, http.StatusUnprocessableEntity, selected, msg)
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	out, ok := lookupOutput(r)
	if !ok {
		h.fail(w, r, content.ErrNotFound)
		return
	}
	if b, ok := h.cfg.Downloads.Lookup(h.key(r, out)); ok {
		if art, ok := b.TakeArtifact(); ok {
			target := ArtifactURL(art)
			if !middleware.IsHTMX(r.Context()) {
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}
			w.Header().Set("HX-Redirect", target)
		}
	}
	h.render(w, r, http.StatusOK, views.DownloadButton(h.control(r, out)))
}

// ArtifactURL is where a prepared artifact can be downloaded.
func ArtifactURL(art guide.Artifact) string {
	return "/guide/artifacts/" + art.OutputID + "/" + art.Filename
}

// artifact serves a stored guide to anyone holding its URL. Guides hold only public
// content and filenames are ULIDs, so the link is shareable and not tied to a session.
func (h *handlers) artifact(w http.ResponseWriter, r *http.Request) {
	out, ok := lookupOutput(r)
	if !ok {
		h.fail(w, r, content.ErrNotFound)
		return
	}
	file := chi.URLParam(r, "file")
	rc, obj, err := h.cfg.Artifacts.Open(r.Context(), out.ID+"/"+file)
	if errors.Is(err, storage.ErrNotFound) {
		h.fail(w, r, content.ErrNotFound)
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "safetag-"+out.ID+path.Ext(file)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	if _, err := io.Copy(w, rc); err != nil {
		observability.FromContext(r.Context()).Warn("artifact copy interrupted", zap.Error(err))
	}
}
