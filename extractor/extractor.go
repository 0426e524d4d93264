package extractor

import (
	"context"
	"fmt"

	"woo-exporter/adapters"
	"woo-exporter/internal/types"
	"woo-exporter/utils"
)

// Extractor turns a product-page URL into a reconciled ProductRecord. It
// fetches the page once, runs every extraction adapter over the parsed
// document and merges the resulting drafts by source precedence.
type Extractor struct {
	config   *types.Config
	logger   types.Logger
	client   *utils.HTTPClient
	browser  *utils.BrowserClient
	woo      *adapters.WooCommerceAdapter
	jsonld   *adapters.JSONLDAdapter
	fallback *adapters.FallbackAdapter
}

// New creates an extractor that shares the given HTTP client with the
// rest of the pipeline.
func New(config *types.Config, logger types.Logger, client *utils.HTTPClient) *Extractor {
	return &Extractor{
		config:   config,
		logger:   logger,
		client:   client,
		browser:  utils.NewBrowserClient(config, logger),
		woo:      adapters.NewWooCommerceAdapter(logger),
		jsonld:   adapters.NewJSONLDAdapter(logger),
		fallback: adapters.NewFallbackAdapter(logger),
	}
}

// ExtractProduct fetches and extracts one product page.
func (e *Extractor) ExtractProduct(ctx context.Context, rawURL string) (*types.ProductRecord, error) {
	pageURL, err := utils.ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	html, err := e.pageContent(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	doc, err := adapters.ParseHTML(html)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	wcDraft, err := e.woo.Extract(doc, pageURL)
	if err != nil {
		e.logger.Warnf("data-attribute extraction failed for %s: %v", rawURL, err)
	}
	ldDraft, err := e.jsonld.Extract(doc, pageURL)
	if err != nil {
		e.logger.Warnf("JSON-LD extraction failed for %s: %v", rawURL, err)
	}
	fbDraft, _ := e.fallback.Extract(doc, pageURL)

	record := Reconcile(rawURL, wcDraft, ldDraft, fbDraft)

	if len(record.Images) > e.config.MaxImages {
		record.Images = record.Images[:e.config.MaxImages]
	}

	e.logger.Infof("Extracted %q from %s (source=%s, %d variations, %d images)",
		record.Title, rawURL, record.Source, len(record.Variations), len(record.Images))
	return record, nil
}

// pageContent retrieves the HTML of a page using either the HTTP client
// or the headless browser, depending on configuration.
func (e *Extractor) pageContent(ctx context.Context, rawURL string) (string, error) {
	if e.config.UseHeadlessBrowser {
		return e.browser.GetPageContent(ctx, rawURL)
	}
	body, err := e.client.Get(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
