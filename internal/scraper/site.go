package scraper

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"pricesnap/config"
	"pricesnap/internal/monitoring"
	"pricesnap/logger"
	"pricesnap/services/cache"
)

// Sink receives whole-page batches of accepted records. Implementations
// must serialize appends themselves.
type Sink interface {
	Append(records []ProductRecord) error
}

// Site crawls one storefront to completion. Each Site owns its CrawlState
// and shares nothing mutable with other sites.
type Site struct {
	task        SiteTask
	filters     config.Filters
	priceFilter config.PriceFilter
	recordLimit int
	pageBudget  int
	renderFirst bool

	static   Strategy
	rendered Strategy

	sink    Sink
	metrics *monitoring.Metrics
	log     *logger.Logger
	now     func() time.Time
}

// NewSite wires a site crawl from the run configuration. cacheSvc may be
// nil; metrics may be nil.
func NewSite(task SiteTask, cfg *config.Config, cacheSvc cache.CacheService, snk Sink, metrics *monitoring.Metrics) *Site {
	o := task.Override
	return &Site{
		task:        task,
		filters:     cfg.Filters,
		priceFilter: cfg.PriceFilter,
		recordLimit: cfg.RecordLimit,
		pageBudget:  o.PageBudget(cfg.Limits.PerSitePages),
		renderFirst: o.RenderFirst(),
		static:      NewStaticStrategy(o.StaticTimeout(), cacheSvc),
		rendered:    NewRenderedStrategy(o.DynamicTimeout(cfg.Timeout())),
		sink:        snk,
		metrics:     metrics,
		log:         logger.ForSite(task.Domain),
		now:         time.Now,
	}
}

// Domain returns the site's registrable domain.
func (s *Site) Domain() string { return s.task.Domain }

// Crawl runs the site to a terminal state: queue drained, record budget
// reached or visited ceiling hit. Page-level failures are logged and
// skipped. The returned error is nil except for sink failures and context
// cancellation, which must stop the run.
func (s *Site) Crawl(ctx context.Context) error {
	state := NewCrawlState(s.pageBudget)
	state.Seed(ctx, s.task, s.static)

	unlimited := s.recordLimit == 0

	for state.Pending() && (unlimited || state.Emitted() < s.recordLimit) && state.VisitedCount() < maxVisitedPerSite {
		if err := ctx.Err(); err != nil {
			return err
		}

		pageURL, ok := state.Next()
		if !ok {
			break
		}

		html := s.fetchPage(ctx, pageURL)
		if html == "" {
			s.metrics.IncFetchFailures(s.task.Domain)
			continue
		}
		s.metrics.IncPagesFetched(s.task.Domain)

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			s.log.Warn().Str("url", pageURL).Err(err).Msg("HTML parse failed, skipping page")
			continue
		}

		records := s.extractPage(doc, pageURL)

		// Static-first sites get one rendered recovery pass when the
		// static HTML yielded nothing.
		if !s.renderFirst && len(records) == 0 {
			if html2, err := s.rendered.Fetch(ctx, pageURL); err == nil && html2 != "" && html2 != html {
				if doc2, err := goquery.NewDocumentFromReader(strings.NewReader(html2)); err == nil {
					doc = doc2
					records = s.extractPage(doc, pageURL)
				}
			}
		}

		if len(records) > 0 {
			if !unlimited {
				need := s.recordLimit - state.Emitted()
				if need <= 0 {
					break
				}
				if len(records) > need {
					records = records[:need]
				}
			}
			if err := s.sink.Append(records); err != nil {
				// An append that failed because the run is shutting down
				// is a cancellation, not a sink fault.
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				return newError(KindSink, s.task.Domain, err)
			}
			state.MarkEmitted(len(records))
			s.metrics.AddRecordsEmitted(s.task.Domain, len(records))
			s.log.Debug().
				Str("url", pageURL).
				Int("records", len(records)).
				Msg("Page extracted")
		}

		s.expandLinks(doc, pageURL, state)
	}

	s.log.Info().
		Int("pages", state.VisitedCount()).
		Int("records", state.Emitted()).
		Msg("Site finished")
	s.metrics.IncSitesCompleted()
	return nil
}

// fetchPage acquires HTML for one URL following the site's strategy order.
// An empty result is a soft skip.
func (s *Site) fetchPage(ctx context.Context, pageURL string) string {
	var chain *Chain
	if s.renderFirst {
		chain = NewChain(s.rendered, s.static)
	} else {
		chain = NewChain(s.static, s.rendered)
	}

	html, err := chain.Fetch(ctx, pageURL)
	if err != nil {
		s.log.Warn().Str("url", pageURL).Err(err).Msg("All fetch strategies failed, skipping page")
		return ""
	}
	return html
}

// extractPage locates cards, extracts fields, filters candidates and
// assembles the surviving records.
func (s *Site) extractPage(doc *goquery.Document, pageURL string) []ProductRecord {
	cards, method := LocateCards(doc, s.task.Override.ProductCard)
	if len(cards) == 0 {
		return nil
	}
	nameIndex := BuildNameIndex(doc)

	var records []ProductRecord
	for _, card := range cards {
		fields := ExtractFields(card, pageURL, s.task.Override, nameIndex)
		fields.Method = method

		if !Allowed(fields.Name, fields.URL, fields.Price, s.filters, s.priceFilter) {
			continue
		}
		if rec, ok := AssembleRecord(fields, s.task, pageURL, s.now()); ok {
			records = append(records, rec)
		}
	}
	return records
}

// expandLinks feeds category and pagination links back into the frontier.
// Category discovery only runs on the first few pages of a site; pagination
// discovery runs while the page budget lasts and consumes it.
func (s *Site) expandLinks(doc *goquery.Document, pageURL string, state *CrawlState) {
	if state.VisitedCount() <= categoryDiscoveryPages {
		for _, u := range DiscoverCategoryLinks(doc, pageURL, s.filters.IncludeKeywords) {
			state.Enqueue(u)
		}
	}

	if state.PageBudget() > 0 {
		for _, u := range DiscoverPaginationLinks(doc, pageURL) {
			state.Enqueue(u)
		}
		state.SpendPageBudget()
	}
}
