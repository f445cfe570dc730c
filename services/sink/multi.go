package sink

import (
	"errors"
	"sync"

	"pricesnap/internal/scraper"
)

// MultiSink fans each batch out to every configured sink. A mutex
// serializes appends, which is the only locking the sinks need: batches
// arrive whole-page at a time from concurrent site crawls.
type MultiSink struct {
	mu    sync.Mutex
	sinks []Sink
}

// NewMultiSink combines sinks into one append target.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Append forwards the batch to every sink and joins their errors.
func (m *MultiSink) Append(records []scraper.ProductRecord) error {
	if len(records) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, s := range m.sinks {
		if err := s.Append(records); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink, keeping the first error.
func (m *MultiSink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
