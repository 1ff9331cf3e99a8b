package catalog

import (
	"context"
	"time"

	"jakangroup/catalogworker/helpers"
	"jakangroup/catalogworker/logger"
)

// Engine crawls one target with every configured pagination strategy in
// order and merges the yields into a single deduplicated result set.
//
// Strategies run sequentially: the first strategy is expected to carry most
// of the yield, later ones only pick up the residual long tail, so their
// stop thresholds trip early and bound the total request count.
type Engine struct {
	Fetcher    Fetcher
	Parser     ListingParser
	Strategies []Strategy

	// DelayMin/DelayMax bound the random politeness delay between requests.
	// Zero disables the delay.
	DelayMin time.Duration
	DelayMax time.Duration

	// FailuresCountAsEmpty absorbs per-page fetch/parse failures into the
	// empty-page signal instead of propagating them. When disabled, the
	// first page failure aborts the crawl.
	FailuresCountAsEmpty bool

	Metrics *Metrics

	// Now is the clock used for the snapshot timestamp.
	Now func() time.Time
}

// NewEngine builds an engine with the default leniency policy.
func NewEngine(fetcher Fetcher, parser ListingParser, strategies []Strategy) *Engine {
	return &Engine{
		Fetcher:              fetcher,
		Parser:               parser,
		Strategies:           strategies,
		FailuresCountAsEmpty: true,
		Now:                  time.Now,
	}
}

// Crawl runs every strategy against the target and returns the merged
// result set with per-strategy statistics. An empty target yields an empty
// result set and no error. All records of one crawl share a single snapshot
// timestamp taken at the start.
func (e *Engine) Crawl(ctx context.Context, target Target) (*ResultSet, *CrawlStats, error) {
	log := logger.ForTarget(target.Name)
	start := e.Now()
	results := NewResultSet()
	stats := &CrawlStats{Target: target.Name}

	for i, strategy := range e.Strategies {
		st := newPaginationState(strategy)

		for {
			if err := ctx.Err(); err != nil {
				e.finalize(stats, results, start)
				return results, stats, err
			}

			value, ok := st.next()
			if !ok {
				break
			}

			pageURL, err := strategy.PageURL(target.BaseURL, value)
			if err != nil {
				// A base URL that cannot be parsed is a configuration
				// problem, not a page failure.
				e.finalize(stats, results, start)
				return results, stats, err
			}

			probeStart := time.Now()
			newCount, err := e.probePage(ctx, pageURL, target, start, results)
			e.Metrics.ObserveDuration(time.Since(probeStart))
			e.Metrics.IncPages(strategy.Name)

			if err != nil {
				e.Metrics.IncError(errorLabel(err))
				if !e.FailuresCountAsEmpty {
					e.finalize(stats, results, start)
					return results, stats, err
				}
				log.Warn().
					Str("strategy", strategy.Name).
					Str("url", pageURL).
					Err(err).
					Msg("Page failure treated as empty")
				newCount = 0
			}

			e.Metrics.AddProducts(strategy.Name, newCount)
			log.Debug().
				Str("strategy", strategy.Name).
				Str("url", pageURL).
				Int("new_products", newCount).
				Msg("Probed listing page")

			st.observe(newCount)
			if st.state == StateActive {
				e.sleep(ctx)
			}
		}

		s := st.stats()
		stats.Strategies = append(stats.Strategies, s)
		log.Info().
			Str("strategy", s.Strategy).
			Int("pages", s.PagesFetched).
			Int("new_products", s.NewProducts).
			Str("state", string(s.State)).
			Msg("Strategy finished")

		if i < len(e.Strategies)-1 {
			e.sleep(ctx)
		}
	}

	e.finalize(stats, results, start)
	log.Info().
		Int("pages", stats.PagesFetched).
		Int("products", stats.Products).
		Dur("elapsed", stats.Elapsed).
		Msg("Crawl finished")

	return results, stats, nil
}

// probePage fetches and parses one candidate page and inserts unseen
// products into the result set. It returns the number of new products.
func (e *Engine) probePage(ctx context.Context, pageURL string, target Target, scrapedAt time.Time, results *ResultSet) (int, error) {
	body, err := e.Fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return 0, err
	}

	summaries, err := e.Parser.Parse(body, pageURL)
	if err != nil {
		return 0, err
	}

	newCount := 0
	for _, summary := range summaries {
		key, err := DeriveKey(summary.URL)
		if err != nil {
			// A single bad record never aborts the page.
			e.Metrics.IncError(errorLabel(err))
			continue
		}
		if results.Has(key) {
			continue
		}

		stock := summary.Stock
		if stock == "" {
			stock = StockUnknown
		}

		results.Add(ProductRecord{
			Key:       key,
			URL:       summary.URL,
			Title:     summary.Title,
			Price:     summary.Price,
			Stock:     stock,
			EAN:       summary.EAN,
			Model:     summary.Model,
			Store:     target.Name,
			Category:  target.Category,
			ScrapedAt: scrapedAt,
		})
		newCount++
	}

	return newCount, nil
}

func (e *Engine) finalize(stats *CrawlStats, results *ResultSet, start time.Time) {
	stats.PagesFetched = 0
	for _, s := range stats.Strategies {
		stats.PagesFetched += s.PagesFetched
	}
	stats.Products = results.Len()
	stats.Elapsed = e.Now().Sub(start)
}

func (e *Engine) sleep(ctx context.Context) {
	delay := helpers.RandomDelay(e.DelayMin, e.DelayMax)
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
