package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"jakangroup/catalogworker/internal/catalog"
)

// snapshotHeader mirrors the fixed sheet-tab columns of the snapshot
// pipeline.
var snapshotHeader = []string{
	"ts", "store", "product_url", "title", "price", "stock_status", "ean", "model",
}

const snapshotTimeFormat = "2006-01-02 15:04:05"

// CSVSink appends product snapshots to a CSV file, one row per record under
// a fixed header.
type CSVSink struct {
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
}

// NewCSVSink creates the output file (and its directory) and writes the
// header row.
func NewCSVSink(filename string) (*CSVSink, error) {
	if dir := filepath.Dir(filename); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %q: %w", dir, err)
		}
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(snapshotHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flush csv header: %w", err)
	}

	return &CSVSink{file: f, writer: writer}, nil
}

// Write implements Sink.
func (s *CSVSink) Write(_ context.Context, records []catalog.ProductRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		row := []string{
			rec.ScrapedAt.Format(snapshotTimeFormat),
			rec.Store,
			rec.URL,
			rec.Title,
			rec.Price,
			string(rec.Stock),
			rec.EAN,
			rec.Model,
		}
		if err := s.writer.Write(row); err != nil {
			return &SinkError{Sink: "csv", Err: err}
		}
	}

	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return &SinkError{Sink: "csv", Err: err}
	}
	return nil
}

// Close flushes and closes the file handle.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return &SinkError{Sink: "csv", Err: err}
	}
	return s.file.Close()
}
