package adapters

import (
	"encoding/json"
	"html"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"woo-exporter/internal/types"
	"woo-exporter/utils"
)

// WooCommerceAdapter extracts a product draft from the WooCommerce
// data-attribute convention: a variations form carrying the full
// variation list as JSON in its data-product_variations attribute. This
// source is the most precise one for WooCommerce-shaped storefronts
// because it states explicit axis/value pairs per variation.
type WooCommerceAdapter struct {
	*BaseAdapter
}

// NewWooCommerceAdapter creates a new WooCommerce data-attribute adapter.
func NewWooCommerceAdapter(logger types.Logger) *WooCommerceAdapter {
	return &WooCommerceAdapter{BaseAdapter: NewBaseAdapter(logger)}
}

// Name returns the adapter name.
func (w *WooCommerceAdapter) Name() string { return "woocommerce" }

// wcVariation mirrors one entry of the data-product_variations JSON
// array. Image arrives either as an object with src/url or as a bare
// string; DisplayPrice as a JSON number or string.
type wcVariation struct {
	Attributes   map[string]string `json:"attributes"`
	Image        json.RawMessage   `json:"image"`
	SKU          string            `json:"sku"`
	DisplayPrice json.RawMessage   `json:"display_price"`
	PriceHTML    string            `json:"price_html"`
}

// Extract parses the variations form. It returns nil when the document
// has no data-product_variations block; a block with zero entries yields
// a draft with no variations (a simple product), not an error.
func (w *WooCommerceAdapter) Extract(doc *goquery.Document, base *url.URL) (*types.ProductRecord, error) {
	form := doc.Find("form.variations_form").First()
	if form.Length() == 0 {
		form = doc.Find("form[class*='variations_form']").First()
	}
	if form.Length() == 0 {
		return nil, nil
	}

	raw := firstAttr(form, "data-product_variations", "data-product_variations-json")
	if raw == "" {
		return nil, nil
	}

	var entries []wcVariation
	if err := json.Unmarshal([]byte(html.UnescapeString(raw)), &entries); err != nil {
		w.logger.Warnf("Malformed data-product_variations block: %v", err)
		return nil, nil
	}

	record := &types.ProductRecord{
		Title:            w.FirstText(doc, "h1[class*='product']", "h2[class*='product']", "h1"),
		ShortDescription: w.FirstText(doc, ".woocommerce-product-details__short-description", ".short-description", ".product-short-description"),
		Description:      w.FirstText(doc, "#tab-description", ".woocommerce-Tabs-panel--description", ".product-description", "#description"),
		SKU:              w.FirstText(doc, ".sku", ".product-sku", "[itemprop=sku]"),
		Images:           w.GalleryImages(doc, base),
		Source:           types.SourceDataAttribute,
	}

	axes, variations := w.parseVariations(entries, base)
	record.VariationAxes = axes
	record.Variations = variations

	w.logger.Debugf("data-attribute block yielded %d variations across axes %v", len(variations), axes)
	return record, nil
}

// parseVariations converts the raw entries into variation records,
// collecting the axis set in first-seen order. Every record carries a
// value for every axis; entries that leave an axis open ("any" in
// WooCommerce terms) get an empty value.
func (w *WooCommerceAdapter) parseVariations(entries []wcVariation, base *url.URL) ([]string, []types.VariationRecord) {
	var axes []string
	seenAxis := make(map[string]bool)
	var variations []types.VariationRecord

	for _, entry := range entries {
		// Attribute keys arrive as a JSON object; sort them so the axis
		// order is stable from run to run.
		keys := make([]string, 0, len(entry.Attributes))
		for key := range entry.Attributes {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		axisValues := make(map[string]string, len(entry.Attributes))
		for _, key := range keys {
			axis := CleanAxisName(key)
			if !seenAxis[axis] {
				seenAxis[axis] = true
				axes = append(axes, axis)
			}
			axisValues[axis] = strings.TrimSpace(entry.Attributes[key])
		}

		variations = append(variations, types.VariationRecord{
			AxisValues: axisValues,
			SKU:        strings.TrimSpace(entry.SKU),
			Price:      decodePrice(entry.DisplayPrice, entry.PriceHTML),
			ImageURL:   decodeImageRef(entry.Image, base),
		})
	}

	// Every variation covers the full axis set.
	for i := range variations {
		if variations[i].AxisValues == nil {
			variations[i].AxisValues = make(map[string]string, len(axes))
		}
		for _, axis := range axes {
			if _, ok := variations[i].AxisValues[axis]; !ok {
				variations[i].AxisValues[axis] = ""
			}
		}
	}

	return axes, variations
}

// decodePrice prefers the numeric display_price, falling back to text
// scraped out of price_html.
func decodePrice(displayPrice json.RawMessage, priceHTML string) string {
	if len(displayPrice) > 0 && string(displayPrice) != "null" {
		var asNumber float64
		if err := json.Unmarshal(displayPrice, &asNumber); err == nil {
			return strconv.FormatFloat(asNumber, 'f', 2, 64)
		}
		var asString string
		if err := json.Unmarshal(displayPrice, &asString); err == nil {
			return FormatPrice(asString)
		}
	}
	if priceHTML != "" {
		if doc, err := ParseHTML(priceHTML); err == nil {
			return FormatPrice(doc.Text())
		}
	}
	return ""
}

// decodeImageRef accepts the image field as an object with src/url keys
// or as a plain string.
func decodeImageRef(raw json.RawMessage, base *url.URL) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var asObject struct {
		Src string `json:"src"`
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &asObject); err == nil {
		if asObject.Src != "" {
			return utils.ResolveURL(base, asObject.Src)
		}
		if asObject.URL != "" {
			return utils.ResolveURL(base, asObject.URL)
		}
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil && asString != "" {
		return utils.ResolveURL(base, asString)
	}
	return ""
}
