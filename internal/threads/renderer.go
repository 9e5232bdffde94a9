package threads

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
)

// Renderer produces the final HTML of a page, scripts included. The
// chrome-backed implementation is optional; without it the provider falls
// back to the raw HTTP response, which often still carries the islands.
type Renderer interface {
	Render(ctx context.Context, rawURL string) (string, error)
}

// ChromeRenderer renders pages in headless Chrome via chromedp.
type ChromeRenderer struct {
	timeout time.Duration
}

// NewChromeRenderer creates a renderer with the given per-page timeout.
// Zero means 30 seconds.
func NewChromeRenderer(timeout time.Duration) *ChromeRenderer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChromeRenderer{timeout: timeout}
}

// Render loads the page, waits for the post container and returns the
// resulting document.
func (r *ChromeRenderer) Render(ctx context.Context, rawURL string) (string, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.WindowSize(1920, 1080),
		)...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	timeoutCtx, cancelTimeout := context.WithTimeout(browserCtx, r.timeout)
	defer cancelTimeout()

	var content string
	err := chromedp.Run(timeoutCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitVisible(`[data-pressable-container="true"]`, chromedp.ByQuery),
		chromedp.OuterHTML("html", &content, chromedp.ByQuery),
	)
	if err != nil {
		return "", err
	}
	return content, nil
}
