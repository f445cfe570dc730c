package scraper

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// BuildNameIndex collects product names from embedded JSON-LD blocks, keyed
// by canonical URL. It is used as a name-resolution fallback for cards with
// no usable heading. Malformed blocks contribute nothing.
func BuildNameIndex(doc *goquery.Document) map[string]string {
	index := make(map[string]string)
	doc.Find("script[type='application/ld+json']").Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}
		var data interface{}
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return
		}
		walkStructuredData(data, index)
	})
	return index
}

// walkStructuredData recursively visits a decoded JSON-LD value and records
// every Product or ListItem that carries both a URL and a name.
func walkStructuredData(v interface{}, index map[string]string) {
	switch node := v.(type) {
	case map[string]interface{}:
		typ, _ := node["@type"].(string)
		if typ == "" {
			typ, _ = node["type"].(string)
		}
		if typ == "Product" || typ == "ListItem" {
			url := stringField(node, "url")
			name := stringField(node, "name")
			if item, ok := node["item"].(map[string]interface{}); ok {
				if url == "" {
					url = stringField(item, "@id")
				}
				if url == "" {
					url = stringField(item, "url")
				}
				if name == "" {
					name = stringField(item, "name")
				}
			}
			if url != "" && name != "" {
				index[CanonicalURL(url)] = name
			}
		}
		for _, child := range node {
			walkStructuredData(child, index)
		}
	case []interface{}:
		for _, child := range node {
			walkStructuredData(child, index)
		}
	}
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}
