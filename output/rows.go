// Package output maps reconciled product records into the WooCommerce
// product-import CSV shape and packages per-product artifacts.
package output

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"woo-exporter/internal/types"
	"woo-exporter/utils"
)

// Columns is the conventional WooCommerce product-import template header.
// The import tool accepts files with exactly this column set unmodified.
var Columns = []string{
	"ID", "Type", "SKU", "Name", "Published", "Visibility in catalog",
	"Short description", "Description",
	"Tax status", "In stock?", "Stock", "Backorders allowed?",
	"Sold individually?", "Allow customer reviews?",
	"Regular price", "Sale price", "Categories", "Tags", "Images",
	"Attribute 1 name", "Attribute 1 value(s)", "Attribute 1 visible", "Attribute 1 global", "Attribute 1 default",
	"Attribute 2 name", "Attribute 2 value(s)", "Attribute 2 visible", "Attribute 2 global", "Attribute 2 default",
	"Attribute 3 name", "Attribute 3 value(s)", "Attribute 3 visible", "Attribute 3 global", "Attribute 3 default",
	"Parent",
}

// The template carries three attribute column groups, so at most three
// axes make it into the CSV.
const maxAttributeAxes = 3

// Up to this many processed images are listed on the parent row.
const maxGalleryImages = 6

var skuPrefixPattern = regexp.MustCompile(`^[A-Za-z0-9_-]*$`)

// ImageSet tells the row builder which processed files exist for the
// product. ByURL maps normalized source image URLs to processed file
// names so variation rows can reference their override image.
type ImageSet struct {
	Names []string
	ByURL map[string]string
}

// ValidateExportConfig rejects malformed user configuration before any
// rows are generated.
func ValidateExportConfig(cfg types.ExportConfig) error {
	if !skuPrefixPattern.MatchString(cfg.SKUPrefix) {
		return &types.ValidationError{
			Field:   "sku_prefix",
			Message: fmt.Sprintf("%q may only contain letters, digits, '-' and '_'", cfg.SKUPrefix),
		}
	}
	return nil
}

// BuildRows maps a reconciled record plus the user configuration into
// WooCommerce import rows: one parent row always, then one variation row
// per VariationRecord in record order. The mapping is pure; calling it
// twice with the same inputs yields identical rows, and missing optional
// fields become empty cells rather than errors.
func BuildRows(record *types.ProductRecord, cfg types.ExportConfig, imgs ImageSet) ([][]string, error) {
	if err := ValidateExportConfig(cfg); err != nil {
		return nil, err
	}

	parentSKU := resolveParentSKU(record, cfg)
	axes := record.VariationAxes
	if len(axes) > maxAttributeAxes {
		axes = axes[:maxAttributeAxes]
	}

	rows := make([][]string, 0, 1+len(record.Variations))
	rows = append(rows, buildParentRow(record, cfg, imgs, parentSKU, axes))
	for i, variation := range record.Variations {
		rows = append(rows, buildVariationRow(record, cfg, imgs, parentSKU, axes, i, variation))
	}
	return rows, nil
}

// resolveParentSKU prefers the SKU stated on the page, then a prefix plus
// title slug.
func resolveParentSKU(record *types.ProductRecord, cfg types.ExportConfig) string {
	if record.SKU != "" {
		return record.SKU
	}
	return cfg.SKUPrefix + utils.Slugify(record.Title)
}

func buildParentRow(record *types.ProductRecord, cfg types.ExportConfig, imgs ImageSet, parentSKU string, axes []string) []string {
	row := newRow()

	productType := "simple"
	if record.IsVariable() {
		productType = "variable"
	}

	gallery := imgs.Names
	if len(gallery) > maxGalleryImages {
		gallery = gallery[:maxGalleryImages]
	}

	row["Type"] = productType
	row["SKU"] = parentSKU
	row["Name"] = record.Title
	row["Published"] = "1"
	row["Visibility in catalog"] = "visible"
	row["Short description"] = record.ShortDescription
	row["Description"] = record.Description
	row["Tax status"] = "taxable"
	row["In stock?"] = "1"
	row["Backorders allowed?"] = "0"
	row["Sold individually?"] = "0"
	row["Allow customer reviews?"] = "1"
	row["Regular price"] = record.BasePrice
	row["Categories"] = cfg.Category
	row["Tags"] = strings.Join(cfg.Tags, ", ")
	row["Images"] = strings.Join(gallery, ", ")

	for i, axis := range axes {
		col := i + 1
		row[attrCol(col, "name")] = axis
		row[attrCol(col, "value(s)")] = strings.Join(axisValues(record, axis), "|")
		row[attrCol(col, "visible")] = "1"
		row[attrCol(col, "global")] = "0"
	}

	return project(row)
}

func buildVariationRow(record *types.ProductRecord, cfg types.ExportConfig, imgs ImageSet, parentSKU string, axes []string, index int, variation types.VariationRecord) []string {
	row := newRow()

	row["Type"] = "variation"
	row["Parent"] = parentSKU
	row["Published"] = "1"
	row["Visibility in catalog"] = "visible"
	row["In stock?"] = "1"
	row["Allow customer reviews?"] = "1"
	row["SKU"] = resolveVariationSKU(variation, cfg, parentSKU, index)

	price := variation.Price
	if price == "" {
		price = record.BasePrice
	}
	row["Regular price"] = price

	image := ""
	if variation.ImageURL != "" {
		image = imgs.ByURL[utils.NormalizeURL(variation.ImageURL)]
	}
	if image == "" && len(imgs.Names) > 0 {
		image = imgs.Names[0]
	}
	row["Images"] = image

	for i, axis := range axes {
		col := i + 1
		row[attrCol(col, "name")] = axis
		row[attrCol(col, "value(s)")] = variation.AxisValues[axis]
		row[attrCol(col, "visible")] = "1"
		row[attrCol(col, "global")] = "0"
	}

	return project(row)
}

// resolveVariationSKU implements the identifier precedence: an explicit
// SKU from the source always wins, then the user prefix with a 1-based
// sequence number, then a parent-derived default.
func resolveVariationSKU(variation types.VariationRecord, cfg types.ExportConfig, parentSKU string, index int) string {
	if variation.SKU != "" {
		return variation.SKU
	}
	if cfg.SKUPrefix != "" {
		return fmt.Sprintf("%s-%d", strings.TrimSuffix(cfg.SKUPrefix, "-"), index+1)
	}
	return fmt.Sprintf("%s-%d", parentSKU, index+1)
}

// axisValues collects the distinct values a variable product offers on
// one axis, sorted so the parent row is stable across runs.
func axisValues(record *types.ProductRecord, axis string) []string {
	seen := make(map[string]bool)
	var values []string
	for _, v := range record.Variations {
		value := v.AxisValues[axis]
		if value == "" || seen[value] {
			continue
		}
		seen[value] = true
		values = append(values, value)
	}
	sort.Strings(values)
	return values
}

func attrCol(n int, suffix string) string {
	return fmt.Sprintf("Attribute %d %s", n, suffix)
}

func newRow() map[string]string {
	return make(map[string]string, len(Columns))
}

// project renders a row map into the fixed column order; absent keys
// become empty cells.
func project(row map[string]string) []string {
	out := make([]string, len(Columns))
	for i, col := range Columns {
		out[i] = row[col]
	}
	return out
}
