package worker

import (
	"context"
	"errors"
	"sync"

	"pricesnap/internal/scraper"
	"pricesnap/logger"
)

// Job is one unit of crawl work, a single storefront.
type Job interface {
	Domain() string
	Crawl(ctx context.Context) error
}

// Pool runs site crawls as independent concurrent jobs. Each site owns its
// own crawl state, so the pool needs no cross-site locking.
type Pool struct {
	ctx     context.Context
	cancel  context.CancelFunc
	sites   []Job
	workers int
	log     *logger.Logger
}

// NewPool creates a worker pool over the given sites.
func NewPool(ctx context.Context, sites []Job, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Pool{
		ctx:     ctx,
		cancel:  cancel,
		sites:   sites,
		workers: workers,
		log:     logger.ForComponent("worker"),
	}
}

// Run crawls every site and blocks until all finish. A failing site is
// logged and the rest proceed; a fatal error (sink failure) cancels the
// remaining work and is returned.
func (p *Pool) Run() error {
	tasks := make(chan Job, len(p.sites))
	for _, s := range p.sites {
		tasks <- s
	}
	close(tasks)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		fatalErr error
	)

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for site := range tasks {
				if p.ctx.Err() != nil {
					return
				}
				if err := p.crawlSite(site); err != nil {
					mu.Lock()
					if fatalErr == nil {
						fatalErr = err
					}
					mu.Unlock()
					p.cancel()
					return
				}
			}
		}()
	}

	wg.Wait()
	p.cancel()
	return fatalErr
}

// crawlSite runs one site crawl, containing panics and non-fatal errors at
// the site boundary.
func (p *Pool) crawlSite(site Job) (fatal error) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().
				Str("site", site.Domain()).
				Interface("panic", r).
				Msg("Site crawl panicked, continuing with remaining sites")
			fatal = nil
		}
	}()

	p.log.Info().Str("site", site.Domain()).Msg("Scraping site")

	err := site.Crawl(p.ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}

	var crawlErr *scraper.Error
	if errors.As(err, &crawlErr) && crawlErr.Fatal() {
		p.log.Error().Str("site", site.Domain()).Err(err).Msg("Sink failure, aborting run")
		return err
	}

	p.log.Error().Str("site", site.Domain()).Err(err).Msg("Site failed, continuing with remaining sites")
	return nil
}
