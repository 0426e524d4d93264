package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"woo-exporter/internal/types"
	"woo-exporter/output"
	"woo-exporter/pipeline"
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	// Parse command line flags
	var (
		inputFlag       = flag.String("input", "", "File with product URLs, one per line ('-' for stdin)")
		categoryFlag    = flag.String("category", "", "WooCommerce category path, e.g. 'Gear > Backpacks'")
		tagsFlag        = flag.String("tags", "", "Comma-separated tags")
		skuPrefixFlag   = flag.String("sku-prefix", "", "Prefix for generated SKUs")
		outFlag         = flag.String("out", "out", "Output directory")
		bundleFlag      = flag.Bool("bundle", false, "Also write export_bundle.zip with every product's files")
		requestDelay    = flag.Duration("delay", 500*time.Millisecond, "Delay between requests")
		maxRetries      = flag.Int("retries", 3, "Maximum retry attempts")
		timeout         = flag.Duration("timeout", 30*time.Second, "Request timeout")
		maxConcurrent   = flag.Int("concurrent", 4, "Maximum products processed concurrently")
		imageConcurrent = flag.Int("image-concurrent", 5, "Maximum concurrent image downloads per product")
		maxImages       = flag.Int("max-images", 12, "Maximum gallery images per product")
		useBrowser      = flag.Bool("browser", false, "Use headless browser for JavaScript-heavy storefronts")
		verbose         = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	// URLs come from --input and/or positional arguments
	var urls []string
	if *inputFlag != "" {
		text, err := readInput(*inputFlag)
		if err != nil {
			log.Fatalf("Failed to read input: %v", err)
		}
		urls = append(urls, pipeline.ParseURLList(text)...)
	}
	urls = append(urls, flag.Args()...)
	if len(urls) == 0 {
		log.Fatal("No product URLs given: use --input or pass URLs as arguments")
	}

	// Setup logging
	logger := logrus.New()

	// Set timestamp format with milliseconds
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	// Set log level from LOG_LEVEL env if present
	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		if level, err := logrus.ParseLevel(levelStr); err == nil {
			logger.SetLevel(level)
		}
	} else if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	// Create configuration
	config := types.DefaultConfig()
	config.RequestDelay = *requestDelay
	config.MaxRetries = *maxRetries
	config.Timeout = *timeout
	config.MaxConcurrentProducts = *maxConcurrent
	config.MaxConcurrentImages = *imageConcurrent
	config.MaxImages = *maxImages
	config.UseHeadlessBrowser = *useBrowser
	config.OutputDir = *outFlag

	export := types.ExportConfig{
		Category:  *categoryFlag,
		Tags:      splitTags(*tagsFlag),
		SKUPrefix: *skuPrefixFlag,
	}

	// Ctrl-C stops scheduling new products; in-flight work is abandoned
	// and already-completed products are kept.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runner := pipeline.NewRunner(config, logger)
	defer runner.Close()

	startTime := time.Now()
	logger.Infof("Starting export of %d product URLs", len(urls))

	bundles := runner.Run(ctx, urls, export)

	counts := map[types.BundleStatus]int{}
	for _, bundle := range bundles {
		counts[bundle.Status]++
		switch bundle.Status {
		case types.StatusSuccess, types.StatusPartial:
			logger.Infof("%s: %s (rows=%d images=%d/%d)",
				bundle.Status, bundle.SourceURL, len(bundle.Rows), bundle.ImagesProcessed, bundle.ImagesExpected)
		default:
			logger.Warnf("%s: %s", bundle.Status, bundle.SourceURL)
		}
		for _, note := range bundle.Notes {
			logger.Debugf("  note: %s", note)
		}
	}

	if *bundleFlag {
		bundlePath := filepath.Join(config.OutputDir, "export_bundle.zip")
		if err := output.WriteBundleZip(bundlePath, bundles); err != nil {
			logger.Errorf("Failed to write %s: %v", bundlePath, err)
		} else {
			logger.Infof("Bundle written to %s", bundlePath)
		}
	}

	logger.Infof("Export completed in %v: %d success, %d partial, %d failed, %d cancelled",
		time.Since(startTime), counts[types.StatusSuccess], counts[types.StatusPartial],
		counts[types.StatusFailed], counts[types.StatusCancelled])

	if counts[types.StatusSuccess]+counts[types.StatusPartial] == 0 {
		os.Exit(1)
	}
}

func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	var tags []string
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}
