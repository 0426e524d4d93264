package types

import "time"

// ExtractionSource tags which structured-data convention produced the
// accepted fields of a ProductRecord.
type ExtractionSource string

const (
	SourceDataAttribute ExtractionSource = "data-attribute"
	SourceJSONLD        ExtractionSource = "json-ld"
	SourceMerged        ExtractionSource = "merged"
	SourceNone          ExtractionSource = "none"
)

// VariationRecord represents one purchasable option combination of a
// variable product. AxisValues maps axis name (e.g. "Color") to the value
// for this combination; every axis declared on the parent is present as a
// key. Label carries a textual variant name for sources (JSON-LD offer
// lists) that name variants without an axis mapping.
type VariationRecord struct {
	AxisValues map[string]string `json:"axis_values,omitempty"`
	Label      string            `json:"label,omitempty"`
	Price      string            `json:"price,omitempty"`
	SKU        string            `json:"sku,omitempty"`
	ImageURL   string            `json:"image_url,omitempty"`
}

// ProductRecord is the normalized intermediate product shape shared by all
// extraction adapters and consumed by the reconciler, row builder and
// image normalizer. Prices are canonical decimal strings ("99.00"); an
// empty string means absent.
type ProductRecord struct {
	SourceURL        string            `json:"source_url"`
	Title            string            `json:"title,omitempty"`
	ShortDescription string            `json:"short_description,omitempty"`
	Description      string            `json:"description,omitempty"`
	SKU              string            `json:"sku,omitempty"`
	BasePrice        string            `json:"base_price,omitempty"`
	Images           []string          `json:"images,omitempty"`
	VariationAxes    []string          `json:"variation_axes,omitempty"`
	Variations       []VariationRecord `json:"variations,omitempty"`
	SyntheticAxis    bool              `json:"synthetic_axis,omitempty"`
	Source           ExtractionSource  `json:"extraction_source"`
	Notes            []string          `json:"notes,omitempty"`
}

// IsVariable reports whether the record describes a variable product.
func (p *ProductRecord) IsVariable() bool {
	return len(p.Variations) > 0
}

// ProcessedImage is one source image re-rendered onto the fixed square
// white canvas. Data holds the encoded JPEG and is never mutated after
// the normalizer produces it.
type ProcessedImage struct {
	SourceURL string `json:"source_url"`
	FileName  string `json:"file_name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Data      []byte `json:"-"`
}

// BundleStatus is the per-product outcome reported to the caller.
type BundleStatus string

const (
	StatusSuccess   BundleStatus = "success"
	StatusPartial   BundleStatus = "partial"
	StatusFailed    BundleStatus = "failed"
	StatusCancelled BundleStatus = "cancelled"
)

// ProductBundle is the per-product output handed to the packaging/UI
// layer: generated rows, processed images and diagnostic notes.
type ProductBundle struct {
	SourceURL       string           `json:"source_url"`
	Status          BundleStatus     `json:"status"`
	Record          *ProductRecord   `json:"record,omitempty"`
	Rows            [][]string       `json:"rows,omitempty"`
	Images          []ProcessedImage `json:"images,omitempty"`
	ImagesExpected  int              `json:"images_expected"`
	ImagesProcessed int              `json:"images_processed"`
	Notes           []string         `json:"notes,omitempty"`
	CSVPath         string           `json:"csv_path,omitempty"`
	ImagesZipPath   string           `json:"images_zip_path,omitempty"`
	OutputDir       string           `json:"output_dir,omitempty"`
}

// AddNote appends a diagnostic note to the bundle.
func (b *ProductBundle) AddNote(note string) {
	b.Notes = append(b.Notes, note)
}

// Config holds the runtime configuration for the exporter.
type Config struct {
	RequestDelay          time.Duration
	MaxRetries            int
	RetryBackoff          time.Duration
	Timeout               time.Duration
	MaxConcurrentProducts int
	MaxConcurrentImages   int
	MaxImages             int
	UseHeadlessBrowser    bool
	UserAgent             string
	OutputDir             string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		RequestDelay:          500 * time.Millisecond,
		MaxRetries:            3,
		RetryBackoff:          1 * time.Second,
		Timeout:               30 * time.Second,
		MaxConcurrentProducts: 4,
		MaxConcurrentImages:   5,
		MaxImages:             12,
		UseHeadlessBrowser:    false,
		UserAgent:             "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		OutputDir:             "out",
	}
}

// ExportConfig is the user-supplied batch configuration applied to every
// product's rows. It is passed explicitly into the row builder so that
// row generation stays a pure function of (record, config).
type ExportConfig struct {
	Category  string   `json:"category,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	SKUPrefix string   `json:"sku_prefix,omitempty"`
}

// Logger defines the logging interface.
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}
