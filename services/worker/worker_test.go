package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricesnap/internal/scraper"
)

// fakeJob is a scripted crawl job.
type fakeJob struct {
	domain string
	err    error
	panics bool

	mu      sync.Mutex
	crawled bool
}

func (j *fakeJob) Domain() string { return j.domain }

func (j *fakeJob) Crawl(ctx context.Context) error {
	j.mu.Lock()
	j.crawled = true
	j.mu.Unlock()
	if j.panics {
		panic("scripted panic")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return j.err
}

func (j *fakeJob) wasCrawled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.crawled
}

func TestPoolRunsEverySite(t *testing.T) {
	jobs := []Job{
		&fakeJob{domain: "a.example.com"},
		&fakeJob{domain: "b.example.com"},
		&fakeJob{domain: "c.example.com"},
	}

	pool := NewPool(context.Background(), jobs, 2)
	require.NoError(t, pool.Run())

	for _, j := range jobs {
		assert.True(t, j.(*fakeJob).wasCrawled(), j.(*fakeJob).domain)
	}
}

func TestPoolContainsSiteFailures(t *testing.T) {
	failing := &fakeJob{domain: "a.example.com", err: errors.New("parse broke")}
	healthy := &fakeJob{domain: "b.example.com"}

	pool := NewPool(context.Background(), []Job{failing, healthy}, 1)
	require.NoError(t, pool.Run())
	assert.True(t, healthy.wasCrawled())
}

func TestPoolContainsPanics(t *testing.T) {
	panicking := &fakeJob{domain: "a.example.com", panics: true}
	healthy := &fakeJob{domain: "b.example.com"}

	pool := NewPool(context.Background(), []Job{panicking, healthy}, 1)
	require.NoError(t, pool.Run())
	assert.True(t, healthy.wasCrawled())
}

func TestPoolSinkFailureAbortsRun(t *testing.T) {
	sinkErr := &scraper.Error{Kind: scraper.KindSink, Site: "a.example.com", Err: errors.New("disk full")}
	jobs := []Job{
		&fakeJob{domain: "a.example.com", err: sinkErr},
		&fakeJob{domain: "b.example.com"},
		&fakeJob{domain: "c.example.com"},
	}

	pool := NewPool(context.Background(), jobs, 1)
	err := pool.Run()
	require.Error(t, err)

	var crawlErr *scraper.Error
	require.ErrorAs(t, err, &crawlErr)
	assert.Equal(t, scraper.KindSink, crawlErr.Kind)

	// Remaining queued sites are skipped once the run is cancelled.
	assert.False(t, jobs[2].(*fakeJob).wasCrawled())
}

func TestPoolCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := []Job{&fakeJob{domain: "a.example.com"}}
	pool := NewPool(ctx, jobs, 1)
	require.NoError(t, pool.Run())
}
