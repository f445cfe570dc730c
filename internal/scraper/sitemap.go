package scraper

import (
	"context"
	"encoding/xml"
	"strings"
)

// Conventional sitemap locations probed during seeding.
var sitemapPaths = []string{
	"/sitemap.xml",
	"/sitemap_index.xml",
	"/sitemap-index.xml",
	"/sitemap/sitemap.xml",
	"/wp-sitemap.xml",
	"/sitemap_products_1.xml",
}

// Path hints that mark a sitemap entry as a catalog page worth seeding.
var sitemapHints = []string{
	"product", "item", "shop", "collection", "category", "catalog",
}

const maxSitemapCandidates = 50

// sitemapDoc covers both urlset and sitemapindex documents; only the <loc>
// entries matter.
type sitemapDoc struct {
	URLs     []sitemapLoc `xml:"url"`
	Sitemaps []sitemapLoc `xml:"sitemap"`
}

type sitemapLoc struct {
	Loc string `xml:"loc"`
}

// probeSitemaps fetches the conventional sitemap paths of a site and returns
// up to maxSitemapSeeds same-domain URLs whose path carries a catalog hint.
// Malformed XML and fetch failures contribute nothing.
func probeSitemaps(ctx context.Context, prober Strategy, siteURL string) []string {
	var candidates []string
	for _, p := range sitemapPaths {
		if len(candidates) >= maxSitemapCandidates {
			break
		}
		body, err := prober.Fetch(ctx, Absolutize(siteURL, p))
		if err != nil || body == "" {
			continue
		}
		for _, loc := range parseSitemapLocs(body) {
			if len(candidates) >= maxSitemapCandidates {
				break
			}
			if !SameDomain(loc, siteURL) {
				continue
			}
			if !hasCatalogHint(loc) {
				continue
			}
			candidates = append(candidates, loc)
		}
	}
	if len(candidates) > maxSitemapSeeds {
		candidates = candidates[:maxSitemapSeeds]
	}
	return candidates
}

// parseSitemapLocs extracts every <loc> entry from a sitemap document.
func parseSitemapLocs(body string) []string {
	var doc sitemapDoc
	if err := xml.Unmarshal([]byte(body), &doc); err != nil {
		return nil
	}
	var locs []string
	for _, u := range doc.URLs {
		if l := strings.TrimSpace(u.Loc); l != "" {
			locs = append(locs, l)
		}
	}
	for _, sm := range doc.Sitemaps {
		if l := strings.TrimSpace(sm.Loc); l != "" {
			locs = append(locs, l)
		}
	}
	return locs
}

func hasCatalogHint(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, hint := range sitemapHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}
