package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricesnap/config"
	"pricesnap/logger"
)

const catalogPage = `<html><body>
	<div class="product"><h2>Widget</h2><span class="price">EGP 250</span></div>
	<div class="product"><h2>Widget</h2><span class="price">EGP 250</span></div>
	<div class="product"><h2>Widget</h2><span class="price">EGP 250</span></div>
</body></html>`

func newTestSite(static, rendered Strategy, snk Sink) *Site {
	return &Site{
		task:       SiteTask{URL: "https://example.com/", Domain: "example.com"},
		pageBudget: 2,
		static:     static,
		rendered:   rendered,
		sink:       snk,
		log:        logger.ForSite("example.com"),
		now:        func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func TestSiteCrawlEmitsRecords(t *testing.T) {
	static := &stubStrategy{name: "static", pages: map[string]string{
		"https://example.com/": catalogPage,
	}}
	rendered := &stubStrategy{name: "rendered", pages: map[string]string{}}
	snk := &memorySink{}

	site := newTestSite(static, rendered, snk)
	require.NoError(t, site.Crawl(context.Background()))

	require.Len(t, snk.records, 3)
	for _, rec := range snk.records {
		assert.Equal(t, "Widget", rec.ProductName)
		assert.Equal(t, "example.com", rec.SiteName)
		require.NotNil(t, rec.PriceValue)
		assert.Equal(t, 250.0, *rec.PriceValue)
		assert.Equal(t, "EGP", rec.Currency)
		assert.Equal(t, Available, rec.Status)
		assert.Equal(t, "https://example.com/", rec.SourceURL)
		assert.Equal(t, "2026-03-01T12:00:00Z", rec.TimestampISO)
	}
}

func TestSiteCrawlRenderedRecoveryPass(t *testing.T) {
	shell := `<html><body><div id="app"></div></body></html>`
	static := &stubStrategy{name: "static", pages: map[string]string{
		"https://example.com/": shell,
	}}
	rendered := &stubStrategy{name: "rendered", pages: map[string]string{
		"https://example.com/": catalogPage,
	}}
	snk := &memorySink{}

	site := newTestSite(static, rendered, snk)
	require.NoError(t, site.Crawl(context.Background()))

	// The static shell yields nothing, so the page is refetched rendered.
	assert.Contains(t, rendered.fetched, "https://example.com/")
	assert.Len(t, snk.records, 3)
}

func TestSiteCrawlRenderFirstOrder(t *testing.T) {
	static := &stubStrategy{name: "static", pages: map[string]string{}}
	rendered := &stubStrategy{name: "rendered", pages: map[string]string{
		"https://example.com/": catalogPage,
	}}
	snk := &memorySink{}

	site := newTestSite(static, rendered, snk)
	site.renderFirst = true
	require.NoError(t, site.Crawl(context.Background()))

	assert.Len(t, snk.records, 3)
	// The static strategy is only consulted for sitemap probes, never for
	// the page itself.
	assert.NotContains(t, static.fetched, "https://example.com/")
}

func TestSiteCrawlRecordLimitTrimsBatch(t *testing.T) {
	static := &stubStrategy{name: "static", pages: map[string]string{
		"https://example.com/": catalogPage,
	}}
	rendered := &stubStrategy{name: "rendered", pages: map[string]string{}}
	snk := &memorySink{}

	site := newTestSite(static, rendered, snk)
	site.recordLimit = 2
	require.NoError(t, site.Crawl(context.Background()))

	assert.Len(t, snk.records, 2)
}

func TestSiteCrawlSinkFailureIsFatal(t *testing.T) {
	static := &stubStrategy{name: "static", pages: map[string]string{
		"https://example.com/": catalogPage,
	}}
	rendered := &stubStrategy{name: "rendered", pages: map[string]string{}}
	snk := &memorySink{err: errors.New("disk full")}

	site := newTestSite(static, rendered, snk)
	err := site.Crawl(context.Background())
	require.Error(t, err)

	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, KindSink, serr.Kind)
	assert.True(t, serr.Fatal())
}

// shutdownSink simulates a sink whose connection dies because the run was
// cancelled mid-append, without preserving context.Canceled in its error.
type shutdownSink struct {
	cancel context.CancelFunc
}

func (s *shutdownSink) Append([]ProductRecord) error {
	s.cancel()
	return errors.New("connection closed")
}

func TestSiteCrawlShutdownDuringAppendIsNotSinkFatal(t *testing.T) {
	static := &stubStrategy{name: "static", pages: map[string]string{
		"https://example.com/": catalogPage,
	}}
	rendered := &stubStrategy{name: "rendered", pages: map[string]string{}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	site := newTestSite(static, rendered, &shutdownSink{cancel: cancel})
	err := site.Crawl(ctx)
	require.ErrorIs(t, err, context.Canceled)

	var serr *Error
	assert.False(t, errors.As(err, &serr))
}

func TestSiteCrawlFetchFailureSkipsPage(t *testing.T) {
	static := &stubStrategy{name: "static", pages: map[string]string{}}
	rendered := &stubStrategy{name: "rendered", pages: map[string]string{}}
	snk := &memorySink{}

	site := newTestSite(static, rendered, snk)
	require.NoError(t, site.Crawl(context.Background()))
	assert.Empty(t, snk.records)
}

func TestSiteCrawlContextCancelled(t *testing.T) {
	static := &stubStrategy{name: "static", pages: map[string]string{
		"https://example.com/": catalogPage,
	}}
	snk := &memorySink{}

	site := newTestSite(static, &stubStrategy{name: "rendered"}, snk)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, site.Crawl(ctx), context.Canceled)
}

func TestSiteCrawlFollowsPagination(t *testing.T) {
	page1 := catalogPage[:len(catalogPage)-len("</body></html>")] +
		`<a rel="next" href="/?page=2">Next</a></body></html>`
	static := &stubStrategy{name: "static", pages: map[string]string{
		"https://example.com/":        page1,
		"https://example.com/?page=2": catalogPage,
	}}
	rendered := &stubStrategy{name: "rendered", pages: map[string]string{}}
	snk := &memorySink{}

	site := newTestSite(static, rendered, snk)
	require.NoError(t, site.Crawl(context.Background()))

	assert.Contains(t, static.fetched, "https://example.com/?page=2")
	assert.Len(t, snk.records, 6)
}

func TestSiteCrawlFiltersApply(t *testing.T) {
	static := &stubStrategy{name: "static", pages: map[string]string{
		"https://example.com/": catalogPage,
	}}
	rendered := &stubStrategy{name: "rendered", pages: map[string]string{}}
	snk := &memorySink{}

	site := newTestSite(static, rendered, snk)
	site.filters = config.Filters{ExcludeKeywords: []string{"widget"}}
	require.NoError(t, site.Crawl(context.Background()))

	assert.Empty(t, snk.records)
}
