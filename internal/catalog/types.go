// Package catalog implements the pagination strategy engine that crawls
// e-commerce catalog targets and merges discoveries into a deduplicated
// product set.
package catalog

import (
	"context"
	"io"
	"time"
)

// StockStatus is the parsed availability of a product tile.
type StockStatus string

const (
	InStock      StockStatus = "InStock"
	OutOfStock   StockStatus = "OutOfStock"
	StockUnknown StockStatus = "Unknown"
)

// ProductSummary is one product tile as extracted from a listing page.
// URLs are absolute (the parser resolves them against its base URL).
type ProductSummary struct {
	URL   string
	Title string
	Price string
	Stock StockStatus
	EAN   string
	Model string
}

// ProductRecord is the immutable snapshot row produced for one product.
type ProductRecord struct {
	Key       string      `json:"key"`
	URL       string      `json:"product_url"`
	Title     string      `json:"title"`
	Price     string      `json:"price,omitempty"`
	Stock     StockStatus `json:"stock_status"`
	EAN       string      `json:"ean,omitempty"`
	Model     string      `json:"model,omitempty"`
	Store     string      `json:"store"`
	Category  string      `json:"category,omitempty"`
	ScrapedAt time.Time   `json:"scraped_at"`
}

// Target describes one store or category page to crawl.
type Target struct {
	Name     string
	BaseURL  string
	Category string
}

// Fetcher issues a single GET for a listing page URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (io.Reader, error)
}

// ListingParser extracts product summaries from one page's markup. The page
// URL anchors relative product links.
type ListingParser interface {
	Parse(body io.Reader, pageURL string) ([]ProductSummary, error)
}

// ResultSet accumulates deduplicated product records in discovery order.
// The first record seen for a key is retained; later duplicates are skipped.
type ResultSet struct {
	order   []string
	records map[string]ProductRecord
}

// NewResultSet creates an empty result set.
func NewResultSet() *ResultSet {
	return &ResultSet{records: make(map[string]ProductRecord)}
}

// Add inserts a record under its key. It reports whether the record was new.
func (rs *ResultSet) Add(rec ProductRecord) bool {
	if _, ok := rs.records[rec.Key]; ok {
		return false
	}
	rs.records[rec.Key] = rec
	rs.order = append(rs.order, rec.Key)
	return true
}

// Has reports whether a key is already present.
func (rs *ResultSet) Has(key string) bool {
	_, ok := rs.records[key]
	return ok
}

// Len returns the number of unique products.
func (rs *ResultSet) Len() int {
	return len(rs.order)
}

// Records returns the records in discovery order.
func (rs *ResultSet) Records() []ProductRecord {
	out := make([]ProductRecord, 0, len(rs.order))
	for _, key := range rs.order {
		out = append(out, rs.records[key])
	}
	return out
}

// StrategyStats holds per-strategy observability counters.
type StrategyStats struct {
	Strategy     string
	PagesFetched int
	NewProducts  int
	State        StrategyState
}

// CrawlStats summarizes one target crawl.
type CrawlStats struct {
	Target       string
	Strategies   []StrategyStats
	PagesFetched int
	Products     int
	Elapsed      time.Duration
}
