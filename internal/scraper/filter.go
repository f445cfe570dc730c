package scraper

import (
	"strings"

	"pricesnap/config"
)

// URL-path fragments that pass the include check even without a keyword
// match; they mark accessory and peripheral catalog sections.
var accessoryPathFragments = []string{
	"/accessor", "/accessories", "/controllers", "/controller", "/keyboards",
	"/keyboard", "/mouse", "/mice", "/headset", "/headphone", "/audio",
	"/webcam", "/monitor", "/stands", "/mount", "/case", "/cooler", "/fans",
	"/cables", "/adapter", "/gaming-gear", "/gaming-accessories", "/peripherals",
}

// Allowed decides whether a candidate record passes the configured keyword
// and price rules. It is a pure function of its arguments.
//
// Exclusion keywords reject unconditionally. A known price outside the
// configured window rejects; an unknown price with a configured minimum
// rejects because the bound cannot be verified. When include keywords are
// configured, the record must match one or hit the accessory allow-list.
func Allowed(name, rawURL string, price *float64, filters config.Filters, priceFilter config.PriceFilter) bool {
	nameLower := strings.ToLower(name)
	urlLower := strings.ToLower(rawURL)

	for _, kw := range filters.ExcludeKeywords {
		kw = strings.ToLower(kw)
		if kw == "" {
			continue
		}
		if strings.Contains(nameLower, kw) || strings.Contains(urlLower, kw) {
			return false
		}
	}

	if price == nil {
		if priceFilter.Min != nil {
			return false
		}
	} else {
		if priceFilter.Min != nil && *price < *priceFilter.Min {
			return false
		}
		if priceFilter.Max != nil && *price > *priceFilter.Max {
			return false
		}
	}

	if len(filters.IncludeKeywords) == 0 {
		return true
	}
	for _, kw := range filters.IncludeKeywords {
		kw = strings.ToLower(kw)
		if kw == "" {
			continue
		}
		if strings.Contains(nameLower, kw) || strings.Contains(urlLower, kw) {
			return true
		}
	}
	for _, frag := range accessoryPathFragments {
		if strings.Contains(urlLower, frag) {
			return true
		}
	}
	return false
}
