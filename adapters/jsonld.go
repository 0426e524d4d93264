package adapters

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"woo-exporter/internal/types"
	"woo-exporter/utils"
)

// JSONLDAdapter extracts a product draft from embedded JSON-LD Product
// markup. JSON-LD reliably carries name, description, images and offer
// prices, but its offer lists name variants textually without stating
// which option axis the name belongs to; the reconciler compensates by
// synthesizing a pseudo-axis when this is the only variation source.
type JSONLDAdapter struct {
	*BaseAdapter
}

// NewJSONLDAdapter creates a new JSON-LD adapter.
func NewJSONLDAdapter(logger types.Logger) *JSONLDAdapter {
	return &JSONLDAdapter{BaseAdapter: NewBaseAdapter(logger)}
}

// Name returns the adapter name.
func (j *JSONLDAdapter) Name() string { return "json-ld" }

// ldNode is a lenient shape for JSON-LD nodes. @type may be a string or a
// list; image a string or a list; offers a single object or an array.
type ldNode struct {
	Type        json.RawMessage `json:"@type"`
	Graph       []ldNode        `json:"@graph"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	SKU         string          `json:"sku"`
	Image       json.RawMessage `json:"image"`
	Offers      json.RawMessage `json:"offers"`
}

type ldOffer struct {
	Name  string          `json:"name"`
	SKU   string          `json:"sku"`
	Price json.RawMessage `json:"price"`
	Image string          `json:"image"`
}

// Extract scans every ld+json script region for a Product node, including
// nodes nested under @graph. Malformed blocks are skipped; the first
// Product found wins. Returns nil when no Product markup exists.
func (j *JSONLDAdapter) Extract(doc *goquery.Document, base *url.URL) (*types.ProductRecord, error) {
	var product *ldNode

	doc.Find("script[type='application/ld+json']").EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return true
		}
		for _, node := range decodeNodes(text) {
			if found := findProduct(node); found != nil {
				product = found
				return false
			}
		}
		return true
	})

	if product == nil {
		return nil, nil
	}

	record := &types.ProductRecord{
		Title:       strings.TrimSpace(product.Name),
		Description: strings.TrimSpace(product.Description),
		SKU:         strings.TrimSpace(product.SKU),
		Images:      decodeImages(product.Image, base),
		Source:      types.SourceJSONLD,
	}

	offers := decodeOffers(product.Offers)
	switch {
	case len(offers) == 1:
		record.BasePrice = decodeOfferPrice(offers[0].Price)
		if record.SKU == "" {
			record.SKU = strings.TrimSpace(offers[0].SKU)
		}
	case len(offers) > 1:
		for _, offer := range offers {
			record.Variations = append(record.Variations, types.VariationRecord{
				Label:    strings.TrimSpace(offer.Name),
				SKU:      strings.TrimSpace(offer.SKU),
				Price:    decodeOfferPrice(offer.Price),
				ImageURL: utils.ResolveURL(base, offer.Image),
			})
		}
	}

	j.logger.Debugf("JSON-LD product %q yielded %d offers", record.Title, len(offers))
	return record, nil
}

// decodeNodes parses a script body that may hold a single node or an
// array of nodes.
func decodeNodes(text string) []ldNode {
	var single ldNode
	if err := json.Unmarshal([]byte(text), &single); err == nil {
		return []ldNode{single}
	}
	var list []ldNode
	if err := json.Unmarshal([]byte(text), &list); err == nil {
		return list
	}
	return nil
}

// findProduct walks a node and its @graph children for a Product type.
func findProduct(node ldNode) *ldNode {
	if isProductType(node.Type) {
		n := node
		return &n
	}
	for _, child := range node.Graph {
		if isProductType(child.Type) {
			c := child
			return &c
		}
	}
	return nil
}

// isProductType handles @type given as "Product" or ["Product", ...].
func isProductType(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString == "Product"
	}
	var asList []string
	if err := json.Unmarshal(raw, &asList); err == nil {
		for _, t := range asList {
			if t == "Product" {
				return true
			}
		}
	}
	return false
}

// decodeImages accepts the image field as a string, a list of strings, or
// a list of ImageObject nodes with a url key.
func decodeImages(raw json.RawMessage, base *url.URL) []string {
	if len(raw) == 0 {
		return nil
	}
	var urls []string

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if resolved := utils.ResolveURL(base, asString); resolved != "" {
			urls = append(urls, resolved)
		}
		return urls
	}

	var asList []json.RawMessage
	if err := json.Unmarshal(raw, &asList); err != nil {
		return nil
	}
	for _, item := range asList {
		var itemString string
		if err := json.Unmarshal(item, &itemString); err == nil {
			if resolved := utils.ResolveURL(base, itemString); resolved != "" {
				urls = append(urls, resolved)
			}
			continue
		}
		var itemObject struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(item, &itemObject); err == nil && itemObject.URL != "" {
			if resolved := utils.ResolveURL(base, itemObject.URL); resolved != "" {
				urls = append(urls, resolved)
			}
		}
	}
	return DedupeURLs(urls)
}

// decodeOffers accepts offers as a single object or an array.
func decodeOffers(raw json.RawMessage) []ldOffer {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	if trimmed[0] == '{' {
		var single ldOffer
		if err := json.Unmarshal(trimmed, &single); err == nil {
			return []ldOffer{single}
		}
		return nil
	}
	var list []ldOffer
	if err := json.Unmarshal(trimmed, &list); err == nil {
		return list
	}
	return nil
}

// decodeOfferPrice accepts price as a JSON number or string.
func decodeOfferPrice(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return FormatPrice(asString)
	}
	var asNumber float64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return strconv.FormatFloat(asNumber, 'f', 2, 64)
	}
	return ""
}
