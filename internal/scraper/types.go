package scraper

import (
	"pricesnap/config"
)

// Availability is the stock state observed on a product card.
type Availability string

const (
	// Available means no out-of-stock marker was found on the card.
	Available Availability = "Available"
	// OutOfStock means the card text carried an out-of-stock marker.
	OutOfStock Availability = "Out of Stock"
)

// Extraction method tags recorded in ProductRecord.Notes.
const (
	MethodOverride  = "override"
	MethodHeuristic = "heuristic"
)

// DefaultCurrency is assumed when the price text carries no recognizable
// currency marker.
const DefaultCurrency = "EGP"

// SiteTask describes one storefront to crawl.
type SiteTask struct {
	URL      string
	Domain   string
	Override config.Override
}

// ExtractedFields holds the raw output of field extraction for one card,
// before filtering and assembly.
type ExtractedFields struct {
	Name     string
	URL      string
	RawPrice string
	Price    *float64 // nil when the price text could not be parsed
	Currency string
	Status   Availability
	Method   string
}

// ProductRecord is the canonical, immutable snapshot unit. It is created
// once per accepted card, persisted immediately and never mutated.
type ProductRecord struct {
	TimestampISO string       `json:"timestamp_iso"`
	SiteName     string       `json:"site_name"`
	ProductName  string       `json:"product_name"`
	SKU          string       `json:"sku"`
	ProductURL   string       `json:"product_url"`
	Status       Availability `json:"status"`
	PriceValue   *float64     `json:"price_value"`
	Currency     string       `json:"currency"`
	RawPriceText string       `json:"raw_price_text"`
	SourceURL    string       `json:"source_url"`
	Notes        string       `json:"notes"`
}
