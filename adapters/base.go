package adapters

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"woo-exporter/internal/types"
	"woo-exporter/utils"
)

// DraftAdapter parses one structured-data convention out of a product
// page. Extract returns nil (not an error) when the convention is absent
// from the document; errors are reserved for documents that cannot be
// processed at all.
type DraftAdapter interface {
	Name() string
	Extract(doc *goquery.Document, base *url.URL) (*types.ProductRecord, error)
}

// BaseAdapter provides the selection helpers shared by all extraction
// adapters.
type BaseAdapter struct {
	logger types.Logger
}

// NewBaseAdapter creates the shared adapter foundation.
func NewBaseAdapter(logger types.Logger) *BaseAdapter {
	return &BaseAdapter{logger: logger}
}

// ParseHTML parses HTML content into a goquery document.
func ParseHTML(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// FirstText returns the trimmed text of the first selector that matches a
// non-empty element, or "".
func (b *BaseAdapter) FirstText(doc *goquery.Document, selectors ...string) string {
	for _, selector := range selectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text != "" {
			return text
		}
	}
	return ""
}

// MetaContent returns the content attribute of the first meta tag whose
// property or name matches one of the given keys.
func (b *BaseAdapter) MetaContent(doc *goquery.Document, keys ...string) string {
	for _, key := range keys {
		sel := "meta[property='" + key + "'], meta[name='" + key + "']"
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			if content = strings.TrimSpace(content); content != "" {
				return content
			}
		}
	}
	return ""
}

// GalleryImages collects product gallery image URLs using the common
// WooCommerce gallery markup, resolved against base and deduplicated in
// display order.
func (b *BaseAdapter) GalleryImages(doc *goquery.Document, base *url.URL) []string {
	var urls []string
	gallerySelectors := []string{
		".woocommerce-product-gallery img",
		".product-images img",
		".images img",
		".gallery img",
	}
	for _, selector := range gallerySelectors {
		doc.Find(selector).Each(func(i int, s *goquery.Selection) {
			src := firstAttr(s, "data-src", "src", "data-large_image")
			if resolved := utils.ResolveURL(base, src); resolved != "" {
				urls = append(urls, resolved)
			}
		})
	}
	return DedupeURLs(urls)
}

// DedupeURLs removes duplicates (by normalized URL) preserving order.
func DedupeURLs(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	var unique []string
	for _, u := range urls {
		key := utils.NormalizeURL(u)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, u)
	}
	return unique
}

// CleanAxisName turns a WooCommerce attribute key into a display axis
// name: "attribute_pa_color" becomes "Color".
func CleanAxisName(key string) string {
	name := strings.TrimPrefix(key, "attribute_pa_")
	name = strings.TrimPrefix(name, "attribute_")
	name = strings.ReplaceAll(name, "_", " ")
	words := strings.Fields(name)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// FormatPrice normalizes raw price text to a canonical two-decimal string
// ("99.00"). Currency symbols, grouping commas and surrounding markup
// residue are stripped. Text that still does not parse as a single number
// (price ranges, prose) yields "" — absent — so a non-numeric value never
// reaches a price cell.
func FormatPrice(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, strings.ReplaceAll(s, ",", ""))
	if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return strconv.FormatFloat(f, 'f', 2, 64)
	}
	return ""
}

// firstAttr returns the first non-empty attribute among names.
func firstAttr(s *goquery.Selection, names ...string) string {
	for _, name := range names {
		if val, ok := s.Attr(name); ok {
			if val = strings.TrimSpace(val); val != "" {
				return val
			}
		}
	}
	return ""
}
