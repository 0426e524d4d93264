// Package pipeline runs the per-URL export flow: fetch, extract,
// reconcile, normalize images and build import rows, with bounded
// concurrency across products and across one product's image downloads.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"woo-exporter/extractor"
	"woo-exporter/images"
	"woo-exporter/internal/types"
	"woo-exporter/output"
	"woo-exporter/utils"
)

// Runner processes batches of product URLs. Products are independent
// units of work; a failure in one never aborts the batch.
type Runner struct {
	config     *types.Config
	logger     types.Logger
	client     *utils.HTTPClient
	extractor  *extractor.Extractor
	normalizer *images.Normalizer
}

// NewRunner creates a runner. The HTTP client is shared between page
// fetching and image downloading so both follow one politeness policy.
func NewRunner(config *types.Config, logger types.Logger) *Runner {
	client := utils.NewHTTPClient(config, logger)
	return &Runner{
		config:     config,
		logger:     logger,
		client:     client,
		extractor:  extractor.New(config, logger, client),
		normalizer: images.NewNormalizer(config, logger, client),
	}
}

// Close releases the runner's network resources.
func (r *Runner) Close() {
	r.client.Close()
}

// ParseURLList splits raw input into product URLs: one per line, blank
// lines ignored, duplicates kept and processed independently.
func ParseURLList(text string) []string {
	var urls []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			urls = append(urls, line)
		}
	}
	return urls
}

// Run processes every URL with bounded concurrency and returns one bundle
// per input URL, in input order. Cancelling ctx stops scheduling new
// products; products that never completed are reported as cancelled, and
// already-completed bundles are kept.
func (r *Runner) Run(ctx context.Context, urls []string, export types.ExportConfig) []types.ProductBundle {
	bundles := make([]types.ProductBundle, len(urls))

	g := new(errgroup.Group)
	g.SetLimit(r.config.MaxConcurrentProducts)

	for i, rawURL := range urls {
		i, rawURL := i, rawURL
		g.Go(func() error {
			// Each goroutine owns exactly one slot, so bundles never
			// interleave across products.
			bundles[i] = r.processURL(ctx, rawURL, export)
			return nil
		})
	}
	g.Wait()

	return bundles
}

// processURL produces the complete output bundle for a single product.
func (r *Runner) processURL(ctx context.Context, rawURL string, export types.ExportConfig) types.ProductBundle {
	bundle := types.ProductBundle{SourceURL: rawURL, Status: types.StatusFailed}

	if ctx.Err() != nil {
		bundle.Status = types.StatusCancelled
		bundle.AddNote("batch cancelled before processing started")
		return bundle
	}

	record, err := r.extractor.ExtractProduct(ctx, rawURL)
	if err != nil {
		if ctx.Err() != nil {
			bundle.Status = types.StatusCancelled
			bundle.AddNote("batch cancelled while fetching")
			return bundle
		}
		r.logger.Warnf("Extraction failed for %s: %v", rawURL, err)
		bundle.AddNote(err.Error())
		return bundle
	}

	bundle.Record = record
	bundle.Notes = append(bundle.Notes, record.Notes...)
	bundle.ImagesExpected = len(record.Images)

	processed, imageNotes := r.processImages(ctx, record)
	bundle.Images = processed
	bundle.ImagesProcessed = len(processed)
	bundle.Notes = append(bundle.Notes, imageNotes...)

	if ctx.Err() != nil {
		bundle.Status = types.StatusCancelled
		bundle.AddNote("batch cancelled before the bundle completed")
		return bundle
	}

	imgSet := output.ImageSet{ByURL: make(map[string]string, len(processed))}
	for _, img := range processed {
		imgSet.Names = append(imgSet.Names, img.FileName)
		imgSet.ByURL[utils.NormalizeURL(img.SourceURL)] = img.FileName
	}

	rows, err := output.BuildRows(record, export, imgSet)
	if err != nil {
		// Row generation is the importable artifact; without it the
		// product failed even though images may have processed.
		r.logger.Warnf("Row generation failed for %s: %v", rawURL, err)
		bundle.AddNote(err.Error())
		return bundle
	}
	bundle.Rows = rows

	if r.config.OutputDir != "" {
		if err := r.writeBundleFiles(&bundle, record); err != nil {
			r.logger.Warnf("Failed to write outputs for %s: %v", rawURL, err)
			bundle.AddNote(err.Error())
		}
	}

	switch {
	case record.Source == types.SourceNone || bundle.ImagesProcessed < bundle.ImagesExpected:
		bundle.Status = types.StatusPartial
	default:
		bundle.Status = types.StatusSuccess
	}

	r.logger.Infof("Processed %s: status=%s rows=%d images=%d/%d",
		rawURL, bundle.Status, len(bundle.Rows), bundle.ImagesProcessed, bundle.ImagesExpected)
	return bundle
}

// processImages downloads and normalizes the product's images with
// bounded per-product concurrency. Failures are collected as notes; the
// remaining images still process.
func (r *Runner) processImages(ctx context.Context, record *types.ProductRecord) ([]types.ProcessedImage, []string) {
	slots := make([]*types.ProcessedImage, len(record.Images))
	noteSlots := make([]string, len(record.Images))
	slug := utils.Slugify(record.Title)

	sem := semaphore.NewWeighted(int64(r.config.MaxConcurrentImages))
	var wg sync.WaitGroup

	for i, imageURL := range record.Images {
		if err := sem.Acquire(ctx, 1); err != nil {
			noteSlots[i] = fmt.Sprintf("image %s: skipped, batch cancelled", imageURL)
			continue
		}
		wg.Add(1)
		go func(i int, imageURL string) {
			defer wg.Done()
			defer sem.Release(1)

			img, err := r.normalizer.Normalize(ctx, imageURL)
			if err != nil {
				noteSlots[i] = err.Error()
				return
			}
			img.FileName = fmt.Sprintf("%s-%02d.jpg", slug, i+1)
			slots[i] = img
		}(i, imageURL)
	}
	wg.Wait()

	var processed []types.ProcessedImage
	var notes []string
	for i := range slots {
		if slots[i] != nil {
			processed = append(processed, *slots[i])
		} else if noteSlots[i] != "" {
			notes = append(notes, noteSlots[i])
		}
	}
	return processed, notes
}

// writeBundleFiles persists the bundle under
// <OutputDir>/<slug>/: images/, <slug>.csv and <slug>_images.zip.
func (r *Runner) writeBundleFiles(bundle *types.ProductBundle, record *types.ProductRecord) error {
	slug := utils.Slugify(record.Title)
	dir := filepath.Join(r.config.OutputDir, slug)
	imgDir := filepath.Join(dir, "images")
	if err := os.MkdirAll(imgDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, img := range bundle.Images {
		path := filepath.Join(imgDir, img.FileName)
		if err := os.WriteFile(path, img.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	csvPath := filepath.Join(dir, slug+".csv")
	if err := output.WriteCSV(csvPath, bundle.Rows); err != nil {
		return err
	}

	zipPath := filepath.Join(dir, slug+"_images.zip")
	if err := output.WriteImagesZip(zipPath, bundle.Images); err != nil {
		return err
	}

	bundle.OutputDir = dir
	bundle.CSVPath = csvPath
	bundle.ImagesZipPath = zipPath
	return nil
}
