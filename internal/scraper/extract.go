package scraper

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pricesnap/config"
)

// Currency-aware price pattern: a recognized token (Latin or Arabic) next to
// the first numeric group, in either order.
var (
	priceRegex         = regexp.MustCompile(`(?i)(?:EGP|ج\.م|جنيه مصري|جنيه|LE|E£|£E|L\.E\.?)\s*([\d.,]+)|([\d.,]+)\s*(?:EGP|ج\.م|جنيه مصري|جنيه|LE|E£|£E|L\.E\.?)`)
	currencyNearNumber = regexp.MustCompile(`(?i)(?:EGP|LE|E£|£E|L\.E\.?|ج\.م|جنيه)\s*[\d.,]+|[\d.,]+\s*(?:EGP|LE|E£|£E|L\.E\.?|ج\.م|جنيه)`)
	priceLineRegex     = regexp.MustCompile(`(?i)^(regular|sale)\s+price`)
	lineSplitRegex     = regexp.MustCompile(`\s{2,}|\n`)
)

var currencyMarkers = []string{"EGP", "LE", "E£", "£E", "L.E", "ج.م", "جنيه"}

// Bilingual markers that flag a listing as out of stock.
var oosMarkers = []string{
	"out of stock", "sold out", "out-of-stock", "unavailable",
	"غير متوفر", "غير متاح", "نفدت الكمية",
}

// Ordered price-ish selectors searched before falling back to the whole
// card text.
var priceSelectors = []string{
	".price",
	".price .amount",
	".price .money",
	".price-wrapper .price",
	".Price .money",
	".current-price",
	"[itemprop='price']",
	".woocommerce-Price-amount bdi",
	".woocommerce-Price-amount",
}

// Nested nodes stripped from a heading before reading its text, so prices
// do not pollute product names.
var priceNodeSelectors = []string{
	".price",
	".money",
	".woocommerce-Price-amount",
	".current-price",
	".Price",
	"[aria-hidden='true']",
}

// Generic heading and link selectors tried for the product name.
var genericNameSelectors = []string{
	"[itemprop='name']",
	".product-title a",
	".product-title",
	".product-name a",
	".product-name",
	"h3 a",
	"h2 a",
	"h3",
	"h2",
	"a",
}

// ParsePrice extracts the first currency-adjacent numeric group from text.
// Thousands separators are stripped and repeated decimal points collapsed
// before parsing. A parse failure yields a nil price while the raw matched
// text is kept verbatim.
func ParsePrice(text string) (*float64, string) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return nil, ""
	}
	m := priceRegex.FindStringSubmatch(raw)
	if m == nil {
		return nil, raw
	}
	num := m[1]
	if num == "" {
		num = m[2]
	}
	if num == "" {
		return nil, raw
	}

	clean := strings.ReplaceAll(num, ",", "")
	clean = strings.ReplaceAll(clean, " ", "")
	if strings.Count(clean, ".") > 1 {
		last := strings.LastIndex(clean, ".")
		clean = strings.ReplaceAll(clean[:last], ".", "") + clean[last:]
	}

	val, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return nil, raw
	}
	return &val, raw
}

// DetectCurrency maps any recognized currency marker in the text to the
// default currency code; absence yields an empty code.
func DetectCurrency(text string) string {
	if text == "" {
		return ""
	}
	for _, marker := range currencyMarkers {
		if strings.Contains(text, marker) {
			return DefaultCurrency
		}
	}
	return ""
}

// InferAvailability returns Out of Stock when any bilingual marker occurs in
// the card text, Available otherwise.
func InferAvailability(text string) Availability {
	lower := strings.ToLower(text)
	for _, marker := range oosMarkers {
		if strings.Contains(lower, marker) {
			return OutOfStock
		}
	}
	return Available
}

// ExtractFields pulls name, url, price, currency and availability from one
// card. nameIndex is the structured-data lookup keyed by canonical URL.
func ExtractFields(card *goquery.Selection, pageURL string, override config.Override, nameIndex map[string]string) ExtractedFields {
	rawHref := ""
	if len(override.URL) > 0 {
		rawHref = bestHref(card, override.URL)
	}
	if rawHref == "" {
		rawHref = bestHref(card, []string{"a[href]"})
	}
	cardURL := Absolutize(pageURL, rawHref)

	name := ""
	if len(override.Name) > 0 {
		name = headingText(card, override.Name)
	}
	if name == "" {
		name = headingText(card, genericNameSelectors)
	}
	if name == "" && cardURL != "" {
		name = nameIndex[CanonicalURL(cardURL)]
	}
	if name == "" {
		name = cleanupNameText(normalizeSpace(card.Text()))
	}
	if name == "" {
		name = nameFromAttributes(card)
	}

	priceText := bestText(card, priceSelectors)
	searchText := priceText
	if searchText == "" {
		searchText = normalizeSpace(card.Text())
	}
	price, rawPrice := ParsePrice(searchText)

	return ExtractedFields{
		Name:     name,
		URL:      cardURL,
		RawPrice: rawPrice,
		Price:    price,
		Currency: DetectCurrency(priceText),
		Status:   InferAvailability(card.Text()),
	}
}

// headingText returns heading or link text with price fragments stripped,
// trying selectors in order.
func headingText(card *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		el := card.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		if txt := cleanupNameText(strippedText(el)); txt != "" {
			return txt
		}
	}
	return ""
}

// strippedText clones the element, removes nested price-looking nodes and
// returns the remaining text.
func strippedText(el *goquery.Selection) string {
	clone := el.Clone()
	for _, sel := range priceNodeSelectors {
		clone.Find(sel).Remove()
	}
	return normalizeSpace(clone.Text())
}

// cleanupNameText drops "Regular/Sale price ..." lines, removes
// currency-adjacent numeric fragments and collapses whitespace.
func cleanupNameText(txt string) string {
	if txt == "" {
		return ""
	}
	parts := lineSplitRegex.Split(txt, -1)
	kept := parts[:0]
	for _, p := range parts {
		if p == "" || priceLineRegex.MatchString(p) {
			continue
		}
		kept = append(kept, p)
	}
	txt = strings.Join(kept, " ")
	txt = currencyNearNumber.ReplaceAllString(txt, "")
	return strings.Trim(normalizeSpace(txt), " -–—\t")
}

// nameFromAttributes is the last-resort name source: product-title, title
// and aria-label attributes, then image alt text.
func nameFromAttributes(card *goquery.Selection) string {
	name := ""
	card.Find("a, [data-product-title], [title], [aria-label]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, attr := range []string{"data-product-title", "title", "aria-label"} {
			if val, ok := s.Attr(attr); ok && strings.TrimSpace(val) != "" {
				name = strings.TrimSpace(val)
				return false
			}
		}
		return true
	})
	if name != "" {
		return name
	}
	if alt, ok := card.Find("img[alt]").First().Attr("alt"); ok {
		return strings.TrimSpace(alt)
	}
	return ""
}

// bestText returns the first non-empty normalized text among the selectors.
func bestText(card *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		el := card.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		if txt := normalizeSpace(el.Text()); txt != "" {
			return txt
		}
	}
	return ""
}

// bestHref returns the first href among the selectors, or the card's own
// href when the card itself is the anchor.
func bestHref(card *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		el := card.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		if href, ok := el.Attr("href"); ok && href != "" {
			return href
		}
	}
	if goquery.NodeName(card) == "a" {
		if href, ok := card.Attr("href"); ok {
			return href
		}
	}
	return ""
}

// normalizeSpace collapses all runs of whitespace to single spaces.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
