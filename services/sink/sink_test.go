package sink

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricesnap/internal/scraper"
)

func sampleRecords() []scraper.ProductRecord {
	price := 250.0
	return []scraper.ProductRecord{
		{
			TimestampISO: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).Format(time.RFC3339),
			SiteName:     "example.com",
			ProductName:  "Widget",
			ProductURL:   "https://example.com/p/widget",
			Status:       scraper.Available,
			PriceValue:   &price,
			Currency:     "EGP",
			RawPriceText: "EGP 250",
			SourceURL:    "https://example.com/shop",
			Notes:        scraper.MethodHeuristic,
		},
		{
			TimestampISO: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).Format(time.RFC3339),
			SiteName:     "example.com",
			ProductName:  "Gadget",
			ProductURL:   "https://example.com/p/gadget",
			Status:       scraper.OutOfStock,
			Currency:     "EGP",
			RawPriceText: "call for price",
			SourceURL:    "https://example.com/shop",
			Notes:        scraper.MethodHeuristic,
		},
	}
}

func TestJSONLSinkAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "snapshot.jsonl")
	s, err := NewJSONLSink(path)
	require.NoError(t, err)

	require.NoError(t, s.Append(sampleRecords()))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var rec scraper.ProductRecord
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "Widget", rec.ProductName)
	require.NotNil(t, rec.PriceValue)
	assert.Equal(t, 250.0, *rec.PriceValue)

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &rec))
	assert.Equal(t, "Gadget", rec.ProductName)
	assert.Nil(t, rec.PriceValue)
	assert.Equal(t, scraper.OutOfStock, rec.Status)
}

func TestJSONLSinkTruncatesOnCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("stale\n"), 0o644))

	s, err := NewJSONLSink(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestCSVSinkAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "snapshot.csv")
	s, err := NewCSVSink(path)
	require.NoError(t, err)

	require.NoError(t, s.Append(sampleRecords()))
	require.NoError(t, s.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "Widget", rows[1][2])
	assert.Equal(t, "250", rows[1][6])
	assert.Equal(t, "Gadget", rows[2][2])
	// Unknown price is an empty cell, not a zero.
	assert.Equal(t, "", rows[2][6])
	assert.Equal(t, "Out of Stock", rows[2][5])
}

// recordingSink counts batches for MultiSink tests.
type recordingSink struct {
	appended int
	closed   bool
	err      error
}

func (r *recordingSink) Append(records []scraper.ProductRecord) error {
	if r.err != nil {
		return r.err
	}
	r.appended += len(records)
	return nil
}

func (r *recordingSink) Close() error {
	r.closed = true
	return r.err
}

func TestMultiSinkFansOut(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	m := NewMultiSink(a, b)

	require.NoError(t, m.Append(sampleRecords()))
	assert.Equal(t, 2, a.appended)
	assert.Equal(t, 2, b.appended)

	require.NoError(t, m.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestMultiSinkKeepsAppendingPastFailures(t *testing.T) {
	failing := &recordingSink{err: errors.New("stream down")}
	healthy := &recordingSink{}
	m := NewMultiSink(failing, healthy)

	err := m.Append(sampleRecords())
	assert.Error(t, err)
	assert.Equal(t, 2, healthy.appended)
}

func TestMultiSinkEmptyBatch(t *testing.T) {
	a := &recordingSink{}
	m := NewMultiSink(a)

	require.NoError(t, m.Append(nil))
	assert.Equal(t, 0, a.appended)
}
