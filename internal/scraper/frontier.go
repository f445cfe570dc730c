package scraper

import "context"

const (
	maxQueueSize      = 60
	maxVisitedPerSite = 5000
	maxSeedPaths      = 10
	maxSitemapSeeds   = 10
)

// CrawlState is the per-site frontier: FIFO queue of pending URLs, visited
// set, emitted-record count and the remaining pagination budget. It is
// created fresh for each site and never shared. URL identity is the visit
// key: trailing-slash and fragment noise collapses, query strings survive.
type CrawlState struct {
	queue      []string
	queued     map[string]bool // visit key of every queued URL
	visited    map[string]bool // visit key of every dequeued URL
	emitted    int
	pageBudget int
}

// NewCrawlState creates the frontier state for one site.
func NewCrawlState(pageBudget int) *CrawlState {
	return &CrawlState{
		queued:     make(map[string]bool),
		visited:    make(map[string]bool),
		pageBudget: pageBudget,
	}
}

// Enqueue adds a URL to the queue unless its visit key was already queued
// or visited, or the queue is full. It reports whether the URL was
// accepted.
func (s *CrawlState) Enqueue(raw string) bool {
	if raw == "" || len(s.queue) >= maxQueueSize {
		return false
	}
	c := visitKey(raw)
	if c == "" || s.queued[c] || s.visited[c] {
		return false
	}
	s.queue = append(s.queue, raw)
	s.queued[c] = true
	return true
}

// Next pops the oldest pending URL and marks it visited. It returns false
// when the queue is empty.
func (s *CrawlState) Next() (string, bool) {
	for len(s.queue) > 0 {
		raw := s.queue[0]
		s.queue = s.queue[1:]
		c := visitKey(raw)
		delete(s.queued, c)
		if s.visited[c] {
			continue
		}
		s.visited[c] = true
		return raw, true
	}
	return "", false
}

// Pending reports whether any URLs remain queued.
func (s *CrawlState) Pending() bool {
	return len(s.queue) > 0
}

// VisitedCount returns how many URLs have been dequeued so far.
func (s *CrawlState) VisitedCount() int {
	return len(s.visited)
}

// Emitted returns how many records the site has produced so far.
func (s *CrawlState) Emitted() int {
	return s.emitted
}

// MarkEmitted adds to the emitted-record count.
func (s *CrawlState) MarkEmitted(n int) {
	s.emitted += n
}

// PageBudget returns the remaining pagination-expansion budget.
func (s *CrawlState) PageBudget() int {
	return s.pageBudget
}

// SpendPageBudget decrements the pagination budget by one page.
func (s *CrawlState) SpendPageBudget() {
	if s.pageBudget > 0 {
		s.pageBudget--
	}
}

// Seed fills the frontier with the site root, the override-configured seed
// paths and a bounded number of sitemap-derived catalog URLs.
func (s *CrawlState) Seed(ctx context.Context, task SiteTask, prober Strategy) {
	s.Enqueue(task.URL)

	seeds := task.Override.Seeds
	if len(seeds) > maxSeedPaths {
		seeds = seeds[:maxSeedPaths]
	}
	for _, seed := range seeds {
		s.Enqueue(Absolutize(task.URL, seed))
	}

	if prober != nil {
		for _, u := range probeSitemaps(ctx, prober, task.URL) {
			s.Enqueue(u)
		}
	}
}
