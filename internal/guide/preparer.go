package guide

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/procyborg2222/SAFETAG/internal/content"
	"github.com/procyborg2222/SAFETAG/internal/observability"
	"github.com/procyborg2222/SAFETAG/internal/storage"
)

var tracer = otel.Tracer("github.com/procyborg2222/SAFETAG/internal/guide")

// PreparerDeps wires the collaborators of a Preparer.
type PreparerDeps struct {
	Store       storage.Store
	Renderer    Renderer
	Composer    Composer
	Markdown    *content.Markdown
	Logger      *zap.Logger
	Clock       func() time.Time
	IDGenerator func() string
	// Timeout bounds one shared preparation; zero uses DefaultTimeout.
	Timeout time.Duration
}

// DefaultTimeout bounds a preparation when PreparerDeps.Timeout is unset.
const DefaultTimeout = 2 * time.Minute

// Preparer assembles guide artifacts.
type Preparer struct {
	store    storage.Store
	renderer Renderer
	compose  Composer
	md       *content.Markdown
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
	timeout  time.Duration
	group    singleflight.Group
}

// NewPreparer validates deps and returns a Preparer.
func NewPreparer(deps PreparerDeps) (*Preparer, error) {
	if deps.Store == nil {
		return nil, errStoreRequired
	}
	if deps.Renderer == nil {
		return nil, errRendererRequired
	}
	if deps.Composer == nil {
		return nil, errComposerRequired
	}
	md := deps.Markdown
	if md == nil {
		md = content.NewMarkdown()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	timeout := deps.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Preparer{
		timeout:  timeout,
		store:    deps.Store,
		renderer: deps.Renderer,
		compose:  deps.Composer,
		md:       md,
		logger:   observability.OrNop(deps.Logger),
		now:      func() time.Time { return clock().UTC() },
		newID:    idGen,
	}, nil
}

// Prepare compiles fixed sections and methods into a guide, renders it and stores
// the result. Concurrent calls with identical inputs share one execution.
func (p *Preparer) Prepare(ctx context.Context, methods []content.Method, outputID string, fixed []content.Section) (Artifact, error) {
	if !ValidOutput(outputID) {
		return Artifact{}, fmt.Errorf("%w: %q", ErrInvalidOutput, outputID)
	}
	if len(methods) == 0 && len(fixed) == 0 {
		return Artifact{}, ErrEmptyGuide
	}

	key := outputID + ":" + digest(methods, fixed)
	// The shared run outlives any single caller; each caller stops waiting on its own ctx.
	shared := context.WithoutCancel(ctx)
	ch := p.group.DoChan(key, func() (any, error) {
		runCtx, cancel := context.WithTimeout(shared, p.timeout)
		defer cancel()
		return p.prepare(runCtx, methods, outputID, fixed)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return Artifact{}, res.Err
		}
		return res.Val.(Artifact), nil
	case <-ctx.Done():
		return Artifact{}, ctx.Err()
	}
}

// PrepareInputs is Prepare over a content aggregate.
func (p *Preparer) PrepareInputs(ctx context.Context, in content.GuideInputs, outputID string) (Artifact, error) {
	return p.Prepare(ctx, in.FullGuide, outputID, in.FixedSections)
}

func (p *Preparer) prepare(ctx context.Context, methods []content.Method, outputID string, fixed []content.Section) (art Artifact, err error) {
	ctx, span := tracer.Start(ctx, "guide.Prepare",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("guide.output", outputID),
			attribute.Int("guide.methods", len(methods)),
			attribute.Int("guide.sections", len(fixed)),
		),
	)
	start := time.Now()
	defer func() {
		result := "success"
		if err != nil {
			result = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		observability.GuidePreparations.WithLabelValues(outputID, result).Inc()
		observability.GuidePreparationSeconds.WithLabelValues(outputID).Observe(time.Since(start).Seconds())
		span.End()
	}()

	front, body, toc, err := compile(p.md, fixed, methods)
	if err != nil {
		return Artifact{}, err
	}
	now := p.now()
	doc := Document{
		Title:       DocumentTitle(outputID),
		OutputID:    outputID,
		Front:       front,
		Methods:     body,
		TOC:         toc,
		GeneratedAt: now,
	}

	var buf bytes.Buffer
	if err := p.compose(&buf, doc); err != nil {
		return Artifact{}, fmt.Errorf("guide: compose %s: %w", outputID, err)
	}
	out, err := p.renderer.Render(ctx, buf.Bytes())
	if err != nil {
		return Artifact{}, err
	}

	id := p.newID()
	filename := id + p.renderer.Extension()
	obj, err := p.store.Put(ctx, outputID+"/"+filename, p.renderer.ContentType(), out)
	if err != nil {
		return Artifact{}, fmt.Errorf("guide: store %s: %w", outputID, err)
	}

	p.logger.Debug("guide artifact stored",
		zap.String("output", outputID),
		zap.String("key", obj.Key),
		zap.Int("toc_entries", len(toc)),
	)
	return Artifact{
		ID:          id,
		OutputID:    outputID,
		Filename:    filename,
		ContentType: obj.ContentType,
		Size:        obj.Size,
		Key:         obj.Key,
		CreatedAt:   now,
	}, nil
}

func digest(methods []content.Method, fixed []content.Section) string {
	h := sha256.New()
	for _, s := range fixed {
		fmt.Fprintf(h, "s\x00%s\x00%s\x00%s\x00", s.Name, s.Title, s.Body)
	}
	for _, m := range methods {
		fmt.Fprintf(h, "m\x00%s\x00%s\x00%s\x00", m.Name, m.Title, m.Body)
	}
	return hex.EncodeToString(h.Sum(nil))
}
