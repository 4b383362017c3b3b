package guide

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// HTMLRenderer returns the composed page unchanged.
type HTMLRenderer struct{}

func (HTMLRenderer) Render(_ context.Context, p []byte) ([]byte, error) {
	out := make([]byte, len(p))
	copy(out, p)
	return out, nil
}

func (HTMLRenderer) ContentType() string { return "text/html; charset=utf-8" }

func (HTMLRenderer) Extension() string { return ".html" }

// ChromeRenderer prints the composed page to PDF in a headless Chrome.
// Requires Chrome/Chromium to be installed on the system.
type ChromeRenderer struct {
	Timeout time.Duration
	// ExecPath overrides the browser binary discovered by chromedp.
	ExecPath string
}

func (r ChromeRenderer) Render(ctx context.Context, p []byte) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.ExecPath))
	}
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(p)).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("guide: pdf rendering failed: %w", err)
	}
	return pdf, nil
}

func (ChromeRenderer) ContentType() string { return "application/pdf" }

func (ChromeRenderer) Extension() string { return ".pdf" }

// NewRenderer returns the renderer registered under name.
func NewRenderer(name string, timeout time.Duration) (Renderer, error) {
	switch name {
	case "", "html":
		return HTMLRenderer{}, nil
	case "chromedp":
		return ChromeRenderer{Timeout: timeout}, nil
	default:
		return nil, fmt.Errorf("guide: unknown renderer %q", name)
	}
}
