package utils

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/chromedp/chromedp"

	"woo-exporter/internal/types"
)

// BrowserClient renders JavaScript-heavy product pages through a headless
// browser. Storefronts that assemble their gallery or variation data
// client-side return an empty shell to a plain HTTP fetch; routing those
// through chromedp yields the settled DOM instead.
type BrowserClient struct {
	config *types.Config
	logger types.Logger
}

// NewBrowserClient creates a new browser client.
func NewBrowserClient(config *types.Config, logger types.Logger) *BrowserClient {
	// Suppress chromedp debug logging
	log.SetOutput(io.Discard)

	return &BrowserClient{
		config: config,
		logger: logger,
	}
}

// GetPageContent retrieves the settled HTML of a page using the headless
// browser. Failures are reported with the same taxonomy as the HTTP
// client so callers handle both paths uniformly.
func (b *BrowserClient) GetPageContent(ctx context.Context, url string) (string, error) {
	browserCtx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, b.config.Timeout)
	defer cancel()

	var html string

	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(500*time.Millisecond), // let late gallery scripts settle
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		reason := types.FetchNetwork
		if browserCtx.Err() == context.DeadlineExceeded {
			reason = types.FetchTimeout
		}
		return "", &types.FetchError{URL: url, Reason: reason, Err: err}
	}

	b.logger.Debugf("Successfully rendered page content from %s (%d bytes)", url, len(html))
	return html, nil
}
