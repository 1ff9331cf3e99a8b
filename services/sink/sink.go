// Package sink persists final crawl result sets. Sink failures are fatal to
// the run, unlike per-page crawl failures.
package sink

import (
	"context"
	"fmt"

	"jakangroup/catalogworker/internal/catalog"
)

// Sink writes the deduplicated records of one target crawl.
type Sink interface {
	// Write persists the records in order. Records of one call share a
	// snapshot timestamp.
	Write(ctx context.Context, records []catalog.ProductRecord) error

	// Close releases the underlying resources.
	Close() error
}

// SinkError wraps a destination write failure. It propagates to the caller
// as a hard failure.
type SinkError struct {
	Sink string
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink %s: %v", e.Sink, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}
