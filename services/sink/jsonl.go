package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"pricesnap/internal/scraper"
)

// JSONLSink appends one JSON object per record to a file. The file is
// truncated when the sink is created: each run produces a fresh snapshot.
type JSONLSink struct {
	file *os.File
}

// NewJSONLSink creates the output file, including parent directories.
func NewJSONLSink(path string) (*JSONLSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open JSONL output: %w", err)
	}
	return &JSONLSink{file: f}, nil
}

// Append writes each record as one JSON line.
func (s *JSONLSink) Append(records []scraper.ProductRecord) error {
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}
		if _, err := s.file.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("failed to append JSONL record: %w", err)
		}
	}
	return nil
}

// Close closes the output file.
func (s *JSONLSink) Close() error {
	return s.file.Close()
}
