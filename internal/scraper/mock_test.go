package scraper

import (
	"context"
	"fmt"
)

// stubStrategy serves canned HTML keyed by URL and records every fetch.
type stubStrategy struct {
	name    string
	pages   map[string]string
	fetched []string
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Fetch(_ context.Context, pageURL string) (string, error) {
	s.fetched = append(s.fetched, pageURL)
	body, ok := s.pages[pageURL]
	if !ok {
		return "", fmt.Errorf("%s: no page for %s", s.name, pageURL)
	}
	return body, nil
}

// memorySink collects appended records in memory.
type memorySink struct {
	records []ProductRecord
	err     error
}

func (m *memorySink) Append(records []ProductRecord) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, records...)
	return nil
}
