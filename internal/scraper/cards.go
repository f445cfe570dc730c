package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	maxCardsPerPage = 300
	minCardMatches  = 3
)

// Generic "product card" selectors tried in order when no override matches.
var genericCardSelectors = []string{
	"[itemtype*='schema.org/Product']",
	".product-card",
	".product-item",
	".product-grid-item",
	"li.product",
	".card-wrapper",
	".product-tile",
	".grid__item",
	".item.product",
	".product",
}

// Href markers that identify product detail links for the anchor-parent
// fallback.
var productPathMarkers = []string{"/product", "/products/", "/item/", "/p/"}

// LocateCards finds the repeated DOM nodes believed to represent product
// listings. The cascade is: override selectors (first with at least
// minCardMatches matches), then the generic selector list, then the parents
// of anchors whose href contains a product-path marker. The result is
// always capped at maxCardsPerPage.
func LocateCards(doc *goquery.Document, overrideSelectors []string) ([]*goquery.Selection, string) {
	for _, sel := range overrideSelectors {
		if cards := matchCards(doc, sel); cards != nil {
			return cards, MethodOverride
		}
	}

	for _, sel := range genericCardSelectors {
		if cards := matchCards(doc, sel); cards != nil {
			return cards, MethodHeuristic
		}
	}

	return anchorParentCards(doc), MethodHeuristic
}

// matchCards returns the individual matches of a selector when it hits at
// least minCardMatches elements, nil otherwise.
func matchCards(doc *goquery.Document, sel string) []*goquery.Selection {
	found := doc.Find(sel)
	if found.Length() < minCardMatches {
		return nil
	}
	var cards []*goquery.Selection
	found.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		cards = append(cards, s)
		return len(cards) < maxCardsPerPage
	})
	return cards
}

// anchorParentCards treats the parent of every product-looking anchor as a
// card, deduplicated by DOM node.
func anchorParentCards(doc *goquery.Document) []*goquery.Selection {
	seen := make(map[*html.Node]bool)
	var cards []*goquery.Selection
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if !hasProductMarker(href) {
			return true
		}
		parent := s.Parent()
		if parent.Length() == 0 {
			return true
		}
		node := parent.Get(0)
		if seen[node] {
			return true
		}
		seen[node] = true
		cards = append(cards, parent)
		return len(cards) < maxCardsPerPage
	})
	return cards
}

func hasProductMarker(href string) bool {
	lower := strings.ToLower(href)
	for _, m := range productPathMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
