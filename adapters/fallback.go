package adapters

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"woo-exporter/internal/types"
	"woo-exporter/utils"
)

// FallbackAdapter scrapes whatever generic product signals a page offers
// when no structured-data block is usable: heading/OpenGraph title, meta
// description, SKU nodes and likely product images. It always produces a
// draft, possibly a mostly empty one, and participates as the lowest
// precedence gap filler even when structured sources exist.
type FallbackAdapter struct {
	*BaseAdapter
}

// NewFallbackAdapter creates a new best-effort page scraper.
func NewFallbackAdapter(logger types.Logger) *FallbackAdapter {
	return &FallbackAdapter{BaseAdapter: NewBaseAdapter(logger)}
}

// Name returns the adapter name.
func (f *FallbackAdapter) Name() string { return "fallback" }

// Extract scrapes the generic signals. It never returns nil.
func (f *FallbackAdapter) Extract(doc *goquery.Document, base *url.URL) (*types.ProductRecord, error) {
	title := f.FirstText(doc, "h1[class*='product']", "h2[class*='product']", "h1")
	if title == "" {
		title = f.MetaContent(doc, "og:title")
	}

	description := f.FirstText(doc, "#tab-description", ".product-description", "#description")
	if description == "" {
		description = f.MetaContent(doc, "og:description", "description")
	}

	record := &types.ProductRecord{
		Title:       title,
		Description: description,
		SKU:         f.FirstText(doc, ".sku", ".product-sku", "[itemprop=sku]"),
		Images:      f.imageCandidates(doc, base),
		Source:      types.SourceNone,
	}
	return record, nil
}

// imageCandidates collects likely product images: the gallery markup
// first, then OpenGraph, then any img tagged with a product-ish class.
func (f *FallbackAdapter) imageCandidates(doc *goquery.Document, base *url.URL) []string {
	urls := f.GalleryImages(doc, base)

	doc.Find("meta[property='og:image'], meta[property='og:image:url']").Each(func(i int, s *goquery.Selection) {
		if content, ok := s.Attr("content"); ok {
			if resolved := utils.ResolveURL(base, content); resolved != "" {
				urls = append(urls, resolved)
			}
		}
	})

	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		src := firstAttr(s, "src", "data-src")
		if src == "" {
			return
		}
		class, _ := s.Attr("class")
		class = strings.ToLower(class)
		if strings.Contains(class, "product") || strings.Contains(class, "gallery") || strings.Contains(class, "zoom") {
			if resolved := utils.ResolveURL(base, src); resolved != "" {
				urls = append(urls, resolved)
			}
		}
	})

	return DedupeURLs(urls)
}
