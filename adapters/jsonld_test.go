package adapters

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"woo-exporter/internal/types"
)

func ldPage(script string) string {
	return `<html><head>
		<script type="application/ld+json">` + script + `</script>
	</head><body></body></html>`
}

func TestJSONLDAdapter_SimpleProduct(t *testing.T) {
	doc, err := ParseHTML(ldPage(`{
		"@context": "https://schema.org",
		"@type": "Product",
		"name": "Trail Pack 40L",
		"description": "A 40 liter pack.",
		"sku": "TP-40",
		"image": ["https://cdn.example.com/a.jpg", "https://cdn.example.com/b.jpg"],
		"offers": {"@type": "Offer", "price": "119.00", "priceCurrency": "USD"}
	}`))
	require.NoError(t, err)

	adapter := NewJSONLDAdapter(logrus.New())
	record, err := adapter.Extract(doc, testBase(t))

	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, types.SourceJSONLD, record.Source)
	assert.Equal(t, "Trail Pack 40L", record.Title)
	assert.Equal(t, "A 40 liter pack.", record.Description)
	assert.Equal(t, "TP-40", record.SKU)
	assert.Equal(t, "119.00", record.BasePrice)
	assert.Equal(t, []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.jpg"}, record.Images)
	assert.Empty(t, record.Variations)
}

func TestJSONLDAdapter_GraphNesting(t *testing.T) {
	doc, err := ParseHTML(ldPage(`{
		"@context": "https://schema.org",
		"@graph": [
			{"@type": "WebSite", "name": "Shop"},
			{"@type": "Product", "name": "Nested Product", "image": "https://cdn.example.com/n.jpg"}
		]
	}`))
	require.NoError(t, err)

	adapter := NewJSONLDAdapter(logrus.New())
	record, err := adapter.Extract(doc, testBase(t))

	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "Nested Product", record.Title)
	assert.Equal(t, []string{"https://cdn.example.com/n.jpg"}, record.Images)
}

func TestJSONLDAdapter_OfferList(t *testing.T) {
	doc, err := ParseHTML(ldPage(`{
		"@type": "Product",
		"name": "Merino Tee",
		"offers": [
			{"name": "Small", "price": 39, "sku": "MT-S"},
			{"name": "Medium", "price": 39, "sku": "MT-M"},
			{"name": "Large", "price": "42.50", "sku": "MT-L"}
		]
	}`))
	require.NoError(t, err)

	adapter := NewJSONLDAdapter(logrus.New())
	record, err := adapter.Extract(doc, testBase(t))

	require.NoError(t, err)
	require.NotNil(t, record)
	require.Len(t, record.Variations, 3)

	// Offer lists carry names but no axis mapping; the labels survive
	// for the reconciler to turn into a pseudo-axis.
	assert.Empty(t, record.VariationAxes)
	assert.Equal(t, "Small", record.Variations[0].Label)
	assert.Equal(t, "39.00", record.Variations[0].Price)
	assert.Equal(t, "MT-S", record.Variations[0].SKU)
	assert.Equal(t, "Large", record.Variations[2].Label)
	assert.Equal(t, "42.50", record.Variations[2].Price)
}

func TestJSONLDAdapter_TypeAsList(t *testing.T) {
	doc, err := ParseHTML(ldPage(`{"@type": ["Product", "IndividualProduct"], "name": "Listed Type"}`))
	require.NoError(t, err)

	adapter := NewJSONLDAdapter(logrus.New())
	record, err := adapter.Extract(doc, testBase(t))

	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "Listed Type", record.Title)
}

func TestJSONLDAdapter_NoProduct(t *testing.T) {
	doc, err := ParseHTML(ldPage(`{"@type": "BreadcrumbList"}`))
	require.NoError(t, err)

	adapter := NewJSONLDAdapter(logrus.New())
	record, err := adapter.Extract(doc, testBase(t))

	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestJSONLDAdapter_MalformedBlockSkipped(t *testing.T) {
	page := `<html><head>
		<script type="application/ld+json">{broken</script>
		<script type="application/ld+json">{"@type": "Product", "name": "Second Block"}</script>
	</head><body></body></html>`
	doc, err := ParseHTML(page)
	require.NoError(t, err)

	adapter := NewJSONLDAdapter(logrus.New())
	record, err := adapter.Extract(doc, testBase(t))

	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "Second Block", record.Title)
}
