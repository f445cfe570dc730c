package scraper

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiscoverCategoryLinksKeywordMatch(t *testing.T) {
	doc := docFromHTML(t, `
		<nav>
			<a href="/shop/keyboards">Keyboards</a>
			<a href="/shop/chairs">Office Chairs</a>
			<a href="/collections/gaming-mouse">Pointing devices</a>
			<a href="https://other.example.org/shop/keyboards">Keyboards elsewhere</a>
		</nav>`)

	links := DiscoverCategoryLinks(doc, "https://example.com/", nil)
	assert.Equal(t, []string{
		"https://example.com/shop/keyboards",
		"https://example.com/collections/gaming-mouse",
	}, links)
}

func TestDiscoverCategoryLinksIncludeKeywords(t *testing.T) {
	doc := docFromHTML(t, `
		<a href="/shop/laptops">Laptops</a>
		<a href="/shop/chairs">Chairs</a>`)

	links := DiscoverCategoryLinks(doc, "https://example.com/", []string{"laptop"})
	assert.Equal(t, []string{"https://example.com/shop/laptops"}, links)
}

func TestDiscoverCategoryLinksCap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < maxCategoryLinksPerPage*2; i++ {
		fmt.Fprintf(&b, `<a href="/shop/keyboards-%d">Keyboards %d</a>`, i, i)
	}
	doc := docFromHTML(t, b.String())

	links := DiscoverCategoryLinks(doc, "https://example.com/", nil)
	assert.Len(t, links, maxCategoryLinksPerPage)
}

func TestDiscoverPaginationLinks(t *testing.T) {
	doc := docFromHTML(t, `
		<a rel="next" href="/shop?page=2">Next</a>
		<a class="next" href="/shop?page=3">3</a>
		<a href="https://other.example.org/shop?page=4">off-site</a>`)

	links := DiscoverPaginationLinks(doc, "https://example.com/shop")
	assert.Contains(t, links, "https://example.com/shop?page=2")
	assert.Contains(t, links, "https://example.com/shop?page=3")
	assert.NotContains(t, links, "https://other.example.org/shop?page=4")
}

func TestDiscoverPaginationLinksLinkElementContent(t *testing.T) {
	doc := docFromHTML(t, `<link rel="next" content="/shop?page=2">`)

	links := DiscoverPaginationLinks(doc, "https://example.com/shop")
	assert.Equal(t, []string{"https://example.com/shop?page=2"}, links)
}

func TestDiscoverPaginationLinksCap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < maxPaginationLinksPerPage*2; i++ {
		fmt.Fprintf(&b, `<a rel="next" href="/shop?page=%d">%d</a>`, i, i)
	}
	doc := docFromHTML(t, b.String())

	links := DiscoverPaginationLinks(doc, "https://example.com/shop")
	assert.Len(t, links, maxPaginationLinksPerPage)
}
