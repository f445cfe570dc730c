package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"pricesnap/internal/scraper"
)

// CSVSink appends records to a CSV file with a fixed header. The file is
// truncated when the sink is created.
type CSVSink struct {
	file   *os.File
	writer *csv.Writer
}

// NewCSVSink creates the output file and writes the header row.
func NewCSVSink(path string) (*CSVSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV output: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	w.Flush()
	return &CSVSink{file: f, writer: w}, nil
}

// Append writes one row per record. An unknown price becomes an empty cell.
func (s *CSVSink) Append(records []scraper.ProductRecord) error {
	for _, rec := range records {
		price := ""
		if rec.PriceValue != nil {
			price = strconv.FormatFloat(*rec.PriceValue, 'f', -1, 64)
		}
		row := []string{
			rec.TimestampISO,
			rec.SiteName,
			rec.ProductName,
			rec.SKU,
			rec.ProductURL,
			string(rec.Status),
			price,
			rec.Currency,
			rec.RawPriceText,
			rec.SourceURL,
			rec.Notes,
		}
		if err := s.writer.Write(row); err != nil {
			return fmt.Errorf("failed to append CSV record: %w", err)
		}
	}
	s.writer.Flush()
	return s.writer.Error()
}

// Close flushes and closes the output file.
func (s *CSVSink) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}
