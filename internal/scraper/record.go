package scraper

import "time"

// AssembleRecord builds the canonical record for one accepted card. It
// reports false for structural noise: a card with no name, no parsed price
// and a URL that just points back at the page itself.
func AssembleRecord(fields ExtractedFields, task SiteTask, pageURL string, now time.Time) (ProductRecord, bool) {
	if fields.Name == "" && fields.Price == nil && fields.URL == pageURL {
		return ProductRecord{}, false
	}

	currency := fields.Currency
	if currency == "" {
		currency = DefaultCurrency
	}

	method := fields.Method
	if method == "" {
		method = MethodHeuristic
	}

	return ProductRecord{
		TimestampISO: now.UTC().Format(time.RFC3339),
		SiteName:     task.Domain,
		ProductName:  fields.Name,
		SKU:          "",
		ProductURL:   fields.URL,
		Status:       fields.Status,
		PriceValue:   fields.Price,
		Currency:     currency,
		RawPriceText: fields.RawPrice,
		SourceURL:    pageURL,
		Notes:        method,
	}, true
}
