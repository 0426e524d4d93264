package extractor

import (
	"fmt"

	"woo-exporter/internal/types"
	"woo-exporter/utils"
)

// SyntheticAxisName is the pseudo-axis used when the only variation
// source names variants without an axis mapping.
const SyntheticAxisName = "option"

// shortDescriptionLimit caps the short description derived from the long
// one when no dedicated short-description node exists.
const shortDescriptionLimit = 300

// Reconcile merges the drafts produced by the extraction adapters into a
// single ProductRecord. Precedence per field: the data-attribute draft
// when non-empty, else JSON-LD, else the best-effort fallback scrape.
// Any draft may be nil except the fallback, which always exists but may
// be empty.
func Reconcile(sourceURL string, wc, ld, fb *types.ProductRecord) *types.ProductRecord {
	result := &types.ProductRecord{SourceURL: sourceURL, Source: types.SourceNone}

	var usedWC, usedLD bool

	pickField := func(dst *string, sel func(*types.ProductRecord) string) {
		if wc != nil {
			if v := sel(wc); v != "" {
				*dst = v
				usedWC = true
				return
			}
		}
		if ld != nil {
			if v := sel(ld); v != "" {
				*dst = v
				usedLD = true
				return
			}
		}
		if fb != nil {
			if v := sel(fb); v != "" {
				*dst = v
			}
		}
	}

	pickField(&result.Title, func(r *types.ProductRecord) string { return r.Title })
	pickField(&result.ShortDescription, func(r *types.ProductRecord) string { return r.ShortDescription })
	pickField(&result.Description, func(r *types.ProductRecord) string { return r.Description })
	pickField(&result.SKU, func(r *types.ProductRecord) string { return r.SKU })
	pickField(&result.BasePrice, func(r *types.ProductRecord) string { return r.BasePrice })

	// Pages without a short-description node still get one on the parent
	// row: the opening of the long description.
	if result.ShortDescription == "" {
		result.ShortDescription = truncate(result.Description, shortDescriptionLimit)
	}

	// Image union: data-attribute order first, then JSON-LD images not
	// already present, then fallback candidates. Equality is judged on
	// normalized URLs.
	seen := make(map[string]bool)
	addImages := func(r *types.ProductRecord, used *bool) {
		if r == nil {
			return
		}
		for _, img := range r.Images {
			key := utils.NormalizeURL(img)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			result.Images = append(result.Images, img)
			if used != nil {
				*used = true
			}
		}
	}
	addImages(wc, &usedWC)
	addImages(ld, &usedLD)
	addImages(fb, nil)

	switch {
	case wc != nil && len(wc.Variations) > 0:
		// The data-attribute list carries explicit axis/value mappings;
		// take it verbatim.
		result.VariationAxes = wc.VariationAxes
		result.Variations = wc.Variations
		usedWC = true
		result.Notes = append(result.Notes, priceConflicts(wc, ld)...)
	case ld != nil && len(ld.Variations) > 0:
		// JSON-LD offers name variants without any axis mapping;
		// synthesize a single pseudo-axis from the offer names so the
		// row builder can still emit variation rows.
		result.VariationAxes = []string{SyntheticAxisName}
		result.SyntheticAxis = true
		for i, v := range ld.Variations {
			value := v.Label
			if value == "" {
				value = v.SKU
			}
			if value == "" {
				value = fmt.Sprintf("Option %d", i+1)
			}
			v.AxisValues = map[string]string{SyntheticAxisName: value}
			result.Variations = append(result.Variations, v)
		}
		usedLD = true
	}

	switch {
	case usedWC && usedLD:
		result.Source = types.SourceMerged
	case usedWC:
		result.Source = types.SourceDataAttribute
	case usedLD:
		result.Source = types.SourceJSONLD
	}

	return result
}

// truncate cuts s to at most limit characters without splitting a rune.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// priceConflicts reports SKUs whose data-attribute and JSON-LD prices
// disagree. The data-attribute value is already the one kept; the note
// exists so the inconsistency surfaces in the bundle diagnostics.
func priceConflicts(wc, ld *types.ProductRecord) []string {
	if ld == nil || len(ld.Variations) == 0 {
		return nil
	}

	ldPrices := make(map[string]string, len(ld.Variations))
	for _, v := range ld.Variations {
		if v.SKU != "" && v.Price != "" {
			ldPrices[v.SKU] = v.Price
		}
	}

	var notes []string
	for _, v := range wc.Variations {
		if v.SKU == "" || v.Price == "" {
			continue
		}
		if ldPrice, ok := ldPrices[v.SKU]; ok && ldPrice != v.Price {
			notes = append(notes, fmt.Sprintf(
				"price conflict for SKU %s: kept %s from data-attribute block, JSON-LD said %s",
				v.SKU, v.Price, ldPrice))
		}
	}
	return notes
}
