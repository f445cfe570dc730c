package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	categoryDiscoveryPages    = 3
	maxCategoryLinksPerPage   = 12
	maxPaginationLinksPerPage = 20
)

// Fixed ordered list of pagination selectors; rel=next forms first, then
// common class names, then URL-pattern matches.
var paginationSelectors = []string{
	"a[rel='next']",
	"link[rel='next']",
	"a.next",
	"a.pagination__next",
	"a.page-link[rel='next']",
	"a[aria-label*='Next' i]",
	"a[href*='?page=']",
	"a[href*='/page/']",
	"li.pagination-next a",
	".pagination a.next",
}

// Built-in accessory and peripheral keywords used for category discovery
// when a site configures no include keywords of its own.
var accessoryKeywords = []string{
	"keyboard", "mouse", "mice", "headset", "headphone", "controller",
	"gamepad", "webcam", "monitor", "stand", "mount", "cable", "adapter",
	"charger", "cooler", "speaker", "accessor", "peripheral",
}

// DiscoverCategoryLinks scans anchors for probable category pages: the
// anchor text or href must contain a configured include keyword or one of
// the built-in accessory keywords, and the target must stay on the same
// domain. At most maxCategoryLinksPerPage links are returned.
func DiscoverCategoryLinks(doc *goquery.Document, pageURL string, includeKeywords []string) []string {
	keywords := make([]string, 0, len(includeKeywords)+len(accessoryKeywords))
	for _, k := range includeKeywords {
		keywords = append(keywords, strings.ToLower(k))
	}
	keywords = append(keywords, accessoryKeywords...)

	var links []string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		text := strings.ToLower(strings.TrimSpace(s.Text()))
		hrefLower := strings.ToLower(href)

		matched := false
		for _, k := range keywords {
			if strings.Contains(text, k) || strings.Contains(hrefLower, k) {
				matched = true
				break
			}
		}
		if !matched {
			return true
		}

		u := Absolutize(pageURL, href)
		if !strings.HasPrefix(u, "http") || !SameDomain(u, pageURL) {
			return true
		}
		links = append(links, u)
		return len(links) < maxCategoryLinksPerPage
	})
	return links
}

// DiscoverPaginationLinks matches the fixed pagination selector list against
// the page and returns absolute same-domain targets, capped per page.
func DiscoverPaginationLinks(doc *goquery.Document, pageURL string) []string {
	var links []string
	for _, sel := range paginationSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if len(links) >= maxPaginationLinksPerPage {
				return
			}
			href, ok := s.Attr("href")
			if !ok || href == "" {
				// link elements sometimes carry the target in content
				href, _ = s.Attr("content")
			}
			if href == "" {
				return
			}
			u := Absolutize(pageURL, href)
			if !strings.HasPrefix(u, "http") || !SameDomain(u, pageURL) {
				return
			}
			links = append(links, u)
		})
		if len(links) >= maxPaginationLinksPerPage {
			break
		}
	}
	return links
}
