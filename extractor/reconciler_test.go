package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"woo-exporter/internal/types"
)

const testURL = "https://shop.example.com/product/shoe"

func emptyFallback() *types.ProductRecord {
	return &types.ProductRecord{Source: types.SourceNone}
}

func TestReconcile_TitlePrecedence(t *testing.T) {
	wc := &types.ProductRecord{Title: "Red Shoe", Source: types.SourceDataAttribute}
	ld := &types.ProductRecord{Title: "Shoe (JSON-LD)", Source: types.SourceJSONLD}

	merged := Reconcile(testURL, wc, ld, emptyFallback())

	assert.Equal(t, "Red Shoe", merged.Title)
}

func TestReconcile_DataAttributeGapsFilledFromJSONLD(t *testing.T) {
	wc := &types.ProductRecord{Title: "Red Shoe", Source: types.SourceDataAttribute}
	ld := &types.ProductRecord{
		Title:       "Shoe (JSON-LD)",
		Description: "Only JSON-LD describes it.",
		BasePrice:   "79.00",
		Source:      types.SourceJSONLD,
	}

	merged := Reconcile(testURL, wc, ld, emptyFallback())

	assert.Equal(t, "Red Shoe", merged.Title)
	assert.Equal(t, "Only JSON-LD describes it.", merged.Description)
	assert.Equal(t, "79.00", merged.BasePrice)
	assert.Equal(t, types.SourceMerged, merged.Source)
}

func TestReconcile_ShortDescriptionDerivedFromLong(t *testing.T) {
	long := strings.Repeat("A sentence about the product. ", 22)
	require.Greater(t, len(long), 300)

	ld := &types.ProductRecord{
		Title:       "Verbose Product",
		Description: long,
		Source:      types.SourceJSONLD,
	}

	merged := Reconcile(testURL, nil, ld, emptyFallback())

	assert.Equal(t, string([]rune(long)[:300]), merged.ShortDescription)
	assert.Equal(t, long, merged.Description)
}

func TestReconcile_ExplicitShortDescriptionKept(t *testing.T) {
	wc := &types.ProductRecord{
		ShortDescription: "Short and sweet.",
		Description:      strings.Repeat("Long text. ", 40),
		Source:           types.SourceDataAttribute,
	}

	merged := Reconcile(testURL, wc, nil, emptyFallback())

	assert.Equal(t, "Short and sweet.", merged.ShortDescription)
}

func TestReconcile_SingleDraftPassesThrough(t *testing.T) {
	ld := &types.ProductRecord{
		Title:     "Solo",
		BasePrice: "10.00",
		Images:    []string{"https://cdn.example.com/solo.jpg"},
		Source:    types.SourceJSONLD,
	}

	merged := Reconcile(testURL, nil, ld, emptyFallback())

	assert.Equal(t, "Solo", merged.Title)
	assert.Equal(t, "10.00", merged.BasePrice)
	assert.Equal(t, ld.Images, merged.Images)
	assert.Equal(t, types.SourceJSONLD, merged.Source)
}

func TestReconcile_ImageUnion(t *testing.T) {
	wc := &types.ProductRecord{
		Images: []string{
			"https://cdn.example.com/a.jpg",
			"https://cdn.example.com/b.jpg",
		},
		Source: types.SourceDataAttribute,
	}
	ld := &types.ProductRecord{
		Images: []string{
			// Same as a.jpg once tracking parameters are stripped
			"https://CDN.example.com/a.jpg?utm_source=feed",
			"https://cdn.example.com/c.jpg",
		},
		Source: types.SourceJSONLD,
	}

	merged := Reconcile(testURL, wc, ld, emptyFallback())

	assert.Equal(t, []string{
		"https://cdn.example.com/a.jpg",
		"https://cdn.example.com/b.jpg",
		"https://cdn.example.com/c.jpg",
	}, merged.Images)
}

func TestReconcile_DataAttributeVariationsWinVerbatim(t *testing.T) {
	wc := &types.ProductRecord{
		VariationAxes: []string{"Color"},
		Variations: []types.VariationRecord{
			{AxisValues: map[string]string{"Color": "Red"}, SKU: "S-R", Price: "99.00"},
			{AxisValues: map[string]string{"Color": "Blue"}, SKU: "S-B", Price: "109.00"},
		},
		Source: types.SourceDataAttribute,
	}
	ld := &types.ProductRecord{
		Variations: []types.VariationRecord{
			{Label: "Red", SKU: "S-R", Price: "89.00"},
		},
		Source: types.SourceJSONLD,
	}

	merged := Reconcile(testURL, wc, ld, emptyFallback())

	assert.Equal(t, []string{"Color"}, merged.VariationAxes)
	assert.False(t, merged.SyntheticAxis)
	require.Len(t, merged.Variations, 2)
	assert.Equal(t, "99.00", merged.Variations[0].Price)

	// The conflicting JSON-LD price surfaces as a note, not an error.
	require.Len(t, merged.Notes, 1)
	assert.Contains(t, merged.Notes[0], "S-R")
	assert.Contains(t, merged.Notes[0], "99.00")
	assert.Contains(t, merged.Notes[0], "89.00")
}

func TestReconcile_SynthesizesOptionAxis(t *testing.T) {
	ld := &types.ProductRecord{
		Title: "Merino Tee",
		Variations: []types.VariationRecord{
			{Label: "Small", Price: "39.00"},
			{Label: "Medium", Price: "39.00"},
			{Label: "Large", Price: "42.50"},
		},
		Source: types.SourceJSONLD,
	}

	merged := Reconcile(testURL, nil, ld, emptyFallback())

	assert.True(t, merged.SyntheticAxis)
	assert.Equal(t, []string{SyntheticAxisName}, merged.VariationAxes)
	require.Len(t, merged.Variations, 3)
	assert.Equal(t, "Small", merged.Variations[0].AxisValues[SyntheticAxisName])
	assert.Equal(t, "Medium", merged.Variations[1].AxisValues[SyntheticAxisName])
	assert.Equal(t, "Large", merged.Variations[2].AxisValues[SyntheticAxisName])
}

func TestReconcile_FallbackOnly(t *testing.T) {
	fb := &types.ProductRecord{
		Title:  "Scraped Title",
		Images: []string{"https://shop.example.com/img/og.jpg"},
		Source: types.SourceNone,
	}

	merged := Reconcile(testURL, nil, nil, fb)

	assert.Equal(t, "Scraped Title", merged.Title)
	assert.Equal(t, types.SourceNone, merged.Source)
	assert.Empty(t, merged.Variations)
}

func TestReconcile_AxisInvariantHolds(t *testing.T) {
	// Whatever the sources, every variation covers exactly the axis set.
	ld := &types.ProductRecord{
		Variations: []types.VariationRecord{{Label: "One"}, {SKU: "SKU-2"}},
		Source:     types.SourceJSONLD,
	}

	merged := Reconcile(testURL, nil, ld, emptyFallback())

	require.NotEmpty(t, merged.VariationAxes)
	for _, v := range merged.Variations {
		assert.Len(t, v.AxisValues, len(merged.VariationAxes))
		for _, axis := range merged.VariationAxes {
			assert.Contains(t, v.AxisValues, axis)
			assert.NotEmpty(t, v.AxisValues[axis])
		}
	}
}
