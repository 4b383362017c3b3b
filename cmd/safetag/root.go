package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/procyborg2222/SAFETAG/internal/config"
	"github.com/procyborg2222/SAFETAG/internal/content"
	"github.com/procyborg2222/SAFETAG/internal/observability"
)

// app carries what every subcommand needs once flags and configuration are resolved.
type app struct {
	envFile string

	cfg    config.Config
	logger *zap.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "safetag",
		Short:         "SAFETAG guide site",
		Long:          "Serves the SAFETAG homepage, method pages and guide builder, and prepares full or custom guides.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd.Context(), cmd.Name() == "serve")
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file with configuration overrides (empty to disable)")

	root.AddCommand(
		newServeCommand(a),
		newGuideCommand(a),
		newMethodsCommand(a),
	)
	return root
}

func (a *app) load(ctx context.Context, server bool) error {
	cfg, err := config.Load(ctx, config.WithEnvFile(a.envFile))
	if err != nil {
		return err
	}
	newLogger := observability.NewStderrLogger
	if server {
		newLogger = observability.NewLogger
	}
	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("initialise logger: %w", err)
	}
	a.cfg = cfg
	a.logger = logger.Named("safetag")
	return nil
}

func (a *app) library() *content.Library {
	return content.NewLibrary(a.cfg.Content.Dir,
		content.WithCacheTTL(a.cfg.Content.CacheTTL),
		content.WithLogger(a.logger.Named("content")),
	)
}
