package sink

import (
	"pricesnap/internal/scraper"
)

// Sink persists whole-page batches of product records as an append-only
// stream. Records are never rewritten or deleted once appended.
type Sink interface {
	// Append persists a batch of records
	Append(records []scraper.ProductRecord) error

	// Close flushes and releases the sink
	Close() error
}

// csvHeader is the fixed column order shared by the CSV and Postgres sinks.
var csvHeader = []string{
	"timestamp_iso", "site_name", "product_name", "sku", "product_url",
	"status", "price_value", "currency", "raw_price_text", "source_url", "notes",
}
