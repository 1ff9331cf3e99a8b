package catalog

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// stubFetcher records every fetched URL and hands the URL itself to the
// parser as the page body.
type stubFetcher struct {
	calls []string
	fail  map[string]error
}

var _ Fetcher = (*stubFetcher)(nil)

func (f *stubFetcher) Fetch(_ context.Context, pageURL string) (io.Reader, error) {
	f.calls = append(f.calls, pageURL)
	if err, ok := f.fail[pageURL]; ok {
		return nil, err
	}
	return strings.NewReader(pageURL), nil
}

// stubParser maps a page URL (delivered as the body) to scripted summaries.
// URLs missing from the table parse as empty pages.
type stubParser struct {
	pages map[string][]ProductSummary
}

var _ ListingParser = (*stubParser)(nil)

func (p *stubParser) Parse(body io.Reader, _ string) ([]ProductSummary, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	return p.pages[string(b)], nil
}

func product(id, title string) ProductSummary {
	return ProductSummary{
		URL:   "https://shop.test/listing/" + id,
		Title: title,
	}
}

func mustPageURL(t *testing.T, s Strategy, base, value string) string {
	t.Helper()
	u, err := s.PageURL(base, value)
	assert.NoError(t, err)
	return u
}

func TestCrawlMergesAcrossStrategies(t *testing.T) {
	base := "https://shop.test/catalog"
	pageNo := Strategy{Name: "pageNo", Param: "pageNo", MaxPages: 2, StopThreshold: 1}
	sorted := Strategy{Name: "price_desc", Param: "page", Extra: url.Values{"sort": {"price_desc"}}, MaxPages: 2, StopThreshold: 1}

	parser := &stubParser{pages: map[string][]ProductSummary{
		mustPageURL(t, pageNo, base, "1"): {
			product("a", "Product A"),
			product("b", "Product B"),
		},
		mustPageURL(t, sorted, base, "1"): {
			{URL: "https://shop.test/listing/b?src=sorted", Title: "Product B (duplicate)"},
			product("c", "Product C"),
		},
	}}

	engine := NewEngine(&stubFetcher{}, parser, []Strategy{pageNo, sorted})
	results, stats, err := engine.Crawl(context.Background(), Target{Name: "Shop", BaseURL: base})

	assert.NoError(t, err)
	assert.Equal(t, 3, results.Len())
	assert.Equal(t, 3, stats.Products)
	assert.Len(t, stats.Strategies, 2)
	assert.Equal(t, 4, stats.PagesFetched)

	// Duplicate under a different query keeps the first-seen record.
	records := results.Records()
	assert.Equal(t, "shop.test/listing/b", records[1].Key)
	assert.Equal(t, "Product B", records[1].Title)

	// The second sighting of B is not new, so only C counts for the
	// sorted strategy.
	assert.Equal(t, 2, stats.Strategies[0].NewProducts)
	assert.Equal(t, 1, stats.Strategies[1].NewProducts)
}

func TestCrawlStopsAfterConsecutiveEmptyPages(t *testing.T) {
	base := "https://shop.test/catalog"
	strategy := Strategy{Name: "pageNo", Param: "pageNo", MaxPages: 6, StopThreshold: 2}

	parser := &stubParser{pages: map[string][]ProductSummary{
		mustPageURL(t, strategy, base, "1"): {product("a", "A"), product("b", "B")},
		mustPageURL(t, strategy, base, "2"): {product("c", "C")},
		mustPageURL(t, strategy, base, "3"): {product("d", "D")},
		// Pages 4 and on are empty.
	}}

	fetcher := &stubFetcher{}
	engine := NewEngine(fetcher, parser, []Strategy{strategy})
	results, stats, err := engine.Crawl(context.Background(), Target{Name: "Shop", BaseURL: base})

	assert.NoError(t, err)
	assert.Equal(t, 4, results.Len())

	// Three productive pages plus the two empty probes that trip the
	// threshold: five fetches, never the full six.
	assert.Len(t, fetcher.calls, 5)
	assert.Equal(t, 5, stats.PagesFetched)
	assert.Equal(t, StateStoppedByThreshold, stats.Strategies[0].State)
}

func TestCrawlIdempotentWithFixedClock(t *testing.T) {
	base := "https://shop.test/catalog"
	strategy := Strategy{Name: "pageNo", Param: "pageNo", MaxPages: 3, StopThreshold: 1}
	pages := map[string][]ProductSummary{
		mustPageURL(t, strategy, base, "1"): {product("a", "A"), product("b", "B")},
		mustPageURL(t, strategy, base, "2"): {product("a", "A"), product("c", "C")},
	}
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	target := Target{Name: "Shop", BaseURL: base, Category: "Phones"}

	run := func() []ProductRecord {
		engine := NewEngine(&stubFetcher{}, &stubParser{pages: pages}, []Strategy{strategy})
		engine.Now = func() time.Time { return now }
		results, _, err := engine.Crawl(context.Background(), target)
		assert.NoError(t, err)
		return results.Records()
	}

	assert.Equal(t, run(), run())
}

func TestCrawlEmptyTargetYieldsEmptySet(t *testing.T) {
	engine := NewEngine(&stubFetcher{}, &stubParser{}, []Strategy{
		{Name: "pageNo", Param: "pageNo", MaxPages: 4, StopThreshold: 2},
		{Name: "pageNum", Param: "pageNum", MaxPages: 4, StopThreshold: 1},
	})
	results, stats, err := engine.Crawl(context.Background(), Target{Name: "Empty", BaseURL: "https://empty.test/catalog"})

	assert.NoError(t, err)
	assert.Equal(t, 0, results.Len())
	assert.Empty(t, results.Records())
	assert.Equal(t, 0, stats.Products)

	// Both strategies give up via their thresholds without exhausting the
	// page range.
	assert.Equal(t, 3, stats.PagesFetched)
	for _, s := range stats.Strategies {
		assert.Equal(t, StateStoppedByThreshold, s.State)
	}
}

func TestCrawlPageFailureCountsAsEmpty(t *testing.T) {
	base := "https://shop.test/catalog"
	strategy := Strategy{Name: "pageNo", Param: "pageNo", MaxPages: 3, StopThreshold: 1}
	page1 := mustPageURL(t, strategy, base, "1")

	fetcher := &stubFetcher{fail: map[string]error{
		page1: &FetchError{URL: page1, Status: 500, Err: errors.New("boom")},
	}}
	engine := NewEngine(fetcher, &stubParser{}, []Strategy{strategy})

	results, stats, err := engine.Crawl(context.Background(), Target{Name: "Shop", BaseURL: base})
	assert.NoError(t, err)
	assert.Equal(t, 0, results.Len())
	assert.Equal(t, 1, stats.PagesFetched)
	assert.Equal(t, StateStoppedByThreshold, stats.Strategies[0].State)
}

func TestCrawlPageFailureFatalWhenStrict(t *testing.T) {
	base := "https://shop.test/catalog"
	strategy := Strategy{Name: "pageNo", Param: "pageNo", MaxPages: 3, StopThreshold: 1}
	page1 := mustPageURL(t, strategy, base, "1")

	fetchErr := &FetchError{URL: page1, Status: 500, Err: errors.New("boom")}
	fetcher := &stubFetcher{fail: map[string]error{page1: fetchErr}}
	engine := NewEngine(fetcher, &stubParser{}, []Strategy{strategy})
	engine.FailuresCountAsEmpty = false

	results, _, err := engine.Crawl(context.Background(), Target{Name: "Shop", BaseURL: base})
	assert.Error(t, err)
	assert.ErrorIs(t, err, fetchErr)
	assert.Equal(t, 0, results.Len())
}

func TestCrawlDropsMalformedRecords(t *testing.T) {
	base := "https://shop.test/catalog"
	strategy := Strategy{Name: "pageNo", Param: "pageNo", MaxPages: 1, StopThreshold: 1}

	parser := &stubParser{pages: map[string][]ProductSummary{
		mustPageURL(t, strategy, base, "1"): {
			{URL: "listing/not-absolute", Title: "Broken"},
			product("ok", "Fine Product"),
		},
	}}

	engine := NewEngine(&stubFetcher{}, parser, []Strategy{strategy})
	results, _, err := engine.Crawl(context.Background(), Target{Name: "Shop", BaseURL: base})

	assert.NoError(t, err)
	assert.Equal(t, 1, results.Len())
	assert.Equal(t, "shop.test/listing/ok", results.Records()[0].Key)
}

func TestCrawlRecordsCarryTargetAndTimestamp(t *testing.T) {
	base := "https://shop.test/catalog"
	strategy := Strategy{Name: "pageNo", Param: "pageNo", MaxPages: 2, StopThreshold: 1}
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	parser := &stubParser{pages: map[string][]ProductSummary{
		mustPageURL(t, strategy, base, "1"): {product("a", "A")},
		mustPageURL(t, strategy, base, "2"): {product("b", "B")},
	}}

	engine := NewEngine(&stubFetcher{}, parser, []Strategy{strategy})
	engine.Now = func() time.Time { return now }

	results, _, err := engine.Crawl(context.Background(), Target{Name: "Shop", BaseURL: base, Category: "Phones"})
	assert.NoError(t, err)

	for _, rec := range results.Records() {
		assert.Equal(t, "Shop", rec.Store)
		assert.Equal(t, "Phones", rec.Category)
		assert.Equal(t, StockUnknown, rec.Stock)
		// Records from different pages share the run's snapshot time.
		assert.Equal(t, now, rec.ScrapedAt)
	}
}

func TestCrawlCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &stubFetcher{}
	engine := NewEngine(fetcher, &stubParser{}, []Strategy{
		{Name: "pageNo", Param: "pageNo", MaxPages: 4, StopThreshold: 2},
	})

	results, _, err := engine.Crawl(ctx, Target{Name: "Shop", BaseURL: "https://shop.test/catalog"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, results.Len())
	assert.Empty(t, fetcher.calls)
}
