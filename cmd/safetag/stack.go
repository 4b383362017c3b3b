package main

import (
	"context"
	"fmt"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/procyborg2222/SAFETAG/internal/guide"
	"github.com/procyborg2222/SAFETAG/internal/storage"
	"github.com/procyborg2222/SAFETAG/internal/theme"
	"github.com/procyborg2222/SAFETAG/internal/views"
)

// gcsPrefix namespaces guide artifacts inside a shared bucket.
const gcsPrefix = "guides"

// artifactStore opens the configured store. The returned func releases its client.
func (a *app) artifactStore(ctx context.Context) (storage.Store, func(), error) {
	if a.cfg.Guide.Bucket == "" {
		store, err := storage.NewFileStore(a.cfg.Guide.OutputDir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}

	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("initialise storage client: %w", err)
	}
	store, err := storage.NewGCSStore(client, a.cfg.Guide.Bucket, gcsPrefix)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return store, func() {
		if err := client.Close(); err != nil {
			a.logger.Warn("storage close error", zap.Error(err))
		}
	}, nil
}

func (a *app) preparer(store storage.Store) (*guide.Preparer, error) {
	renderer, err := guide.NewRenderer(a.cfg.Guide.Renderer, a.cfg.Guide.Timeout)
	if err != nil {
		return nil, err
	}
	return guide.NewPreparer(guide.PreparerDeps{
		Store:    store,
		Renderer: renderer,
		Composer: views.GuideComposer(theme.Stylesheet(theme.Default)),
		Logger:   a.logger.Named("guide"),
		Timeout:  a.cfg.Guide.Timeout,
	})
}
