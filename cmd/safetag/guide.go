package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/procyborg2222/SAFETAG/internal/content"
	"github.com/procyborg2222/SAFETAG/internal/guide"
)

type guideOptions struct {
	methods []string
	out     string
}

func newGuideCommand(a *app) *cobra.Command {
	opts := &guideOptions{}
	cmd := &cobra.Command{
		Use:   "guide",
		Short: "Prepare the full guide, or a custom guide from selected methods",
		Example: "  safetag guide --out safetag.html\n" +
			"  safetag guide --method reconnaissance --method data_assessment --out custom.pdf",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.guide(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringArrayVar(&opts.methods, "method", nil, "method to include (repeatable); all methods when omitted")
	cmd.Flags().StringVar(&opts.out, "out", "", "write the guide to this file instead of stdout")
	return cmd
}

func (a *app) guide(ctx context.Context, opts *guideOptions, stdout io.Writer) error {
	lib := a.library()
	outputID := guide.FullGuide
	var (
		in  content.GuideInputs
		err error
	)
	if len(opts.methods) > 0 {
		outputID = guide.CustomGuide
		in, err = lib.Select(ctx, opts.methods)
	} else {
		in, err = lib.GuideInputs(ctx)
	}
	if err != nil {
		return err
	}

	store, closeStore, err := a.artifactStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()
	preparer, err := a.preparer(store)
	if err != nil {
		return err
	}

	art, err := preparer.PrepareInputs(ctx, in, outputID)
	if err != nil {
		return err
	}
	a.logger.Info("guide prepared",
		zap.String("output", art.OutputID),
		zap.String("key", art.Key),
		zap.Int64("bytes", art.Size),
	)

	rc, _, err := store.Open(ctx, art.Key)
	if err != nil {
		return err
	}
	defer rc.Close()

	if opts.out == "" {
		_, err = io.Copy(stdout, rc)
		return err
	}
	f, err := os.Create(opts.out)
	if err != nil {
		return fmt.Errorf("create %s: %w", opts.out, err)
	}
	if _, err := io.Copy(f, rc); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", opts.out, err)
	}
	return f.Close()
}
