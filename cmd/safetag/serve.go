package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/procyborg2222/SAFETAG/internal/content"
	"github.com/procyborg2222/SAFETAG/internal/download"
	"github.com/procyborg2222/SAFETAG/internal/middleware"
	"github.com/procyborg2222/SAFETAG/internal/scheduler"
	"github.com/procyborg2222/SAFETAG/internal/server"
	"github.com/procyborg2222/SAFETAG/internal/theme"
)

const shutdownTimeout = 15 * time.Second

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	logger := a.logger

	lib := a.library()
	store, closeStore, err := a.artifactStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	preparer, err := a.preparer(store)
	if err != nil {
		return err
	}

	sessions, err := middleware.NewSessions(cfg.Session.SigningKey, cfg.Session.Secure)
	if err != nil {
		return err
	}
	if sessions.Ephemeral() {
		logger.Warn("session signing key not configured; using an ephemeral key")
	}

	downloads := download.NewRegistry(
		download.WithLinger(cfg.Guide.Linger),
		download.WithTimeout(cfg.Guide.Timeout),
		download.WithLogger(logger.Named("download")),
	)
	defer downloads.Close()

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	srv, err := server.New(server.Config{
		Address:      cfg.Server.Addr(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		SiteTitle:    cfg.Site.Title,
		BaseURL:      cfg.Site.BaseURL,
		PublicDir:    cfg.Site.PublicDir,
		MetricsPath:  metricsPath,
		Library:      lib,
		Preparer:     preparer,
		Artifacts:    store,
		Downloads:    downloads,
		Sessions:     sessions,
		Theme:        theme.Default,
		Logger:       logger.Named("http"),
	})
	if err != nil {
		return err
	}

	jobs := scheduler.New(logger.Named("scheduler"), time.Minute)
	if err := scheduler.RegisterHousekeeping(jobs, cfg.Download.Schedule, downloads, cfg.Download.IdleTTL, store, cfg.Guide.ArtifactTTL); err != nil {
		return err
	}

	group, gctx := errgroup.WithContext(ctx)

	if cfg.Content.Watch {
		watcher, err := content.NewWatcher(lib, logger.Named("content"))
		if err != nil {
			logger.Warn("content watcher disabled", zap.Error(err))
		} else {
			group.Go(func() error { return watcher.Run(gctx) })
		}
	}

	jobs.Start()
	group.Go(func() error {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.Bool("dev", cfg.Server.Dev))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		if err := jobs.Stop(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		if err := downloads.Wait(shutdownCtx); err != nil {
			logger.Warn("guide preparations still running at shutdown", zap.Error(err))
		}
		return errors.Join(errs...)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
