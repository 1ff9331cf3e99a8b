package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"jakangroup/catalogworker/helpers"
	"jakangroup/catalogworker/services/cache"
)

// HTTPFetcher fetches listing pages with randomized browser headers. When a
// host answers with a rate-limit status, further fetches against it are
// blocked for BlockTime via the cache service.
type HTTPFetcher struct {
	// Client overrides the default HTTP client; tests inject a mock
	// transport here.
	Client *http.Client
	// CacheSvc holds rate-limit block entries. Optional.
	CacheSvc cache.CacheService
	// BlockTime is how long a rate-limited host stays blocked.
	BlockTime time.Duration
}

// NewHTTPFetcher builds a fetcher with rate-limit blocking.
func NewHTTPFetcher(cacheSvc cache.CacheService, blockTime time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		CacheSvc:  cacheSvc,
		BlockTime: blockTime,
	}
}

// Fetch implements Fetcher. Failures come back as *FetchError so the engine
// can absorb them into the empty-page signal.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (io.Reader, error) {
	blockKey, err := f.blockKey(pageURL)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}

	if f.CacheSvc != nil {
		if _, err := f.CacheSvc.Get(blockKey); err == nil {
			return nil, &FetchError{
				URL:    pageURL,
				Status: http.StatusTooManyRequests,
				Err:    fmt.Errorf("host blocked for %s after rate limiting", f.BlockTime),
			}
		}
	}

	body, status, err := helpers.FetchWithRandomHeaders(ctx, f.Client, pageURL)
	if err != nil {
		fetchErr := &FetchError{URL: pageURL, Status: status, Err: err}
		if fetchErr.RateLimited() && f.CacheSvc != nil && f.BlockTime > 0 {
			blockValue := []byte(fmt.Sprintf("%d", int(f.BlockTime.Seconds())))
			_ = f.CacheSvc.Set(blockKey, blockValue, f.BlockTime)
		}
		return nil, fetchErr
	}

	return body, nil
}

func (f *HTTPFetcher) blockKey(pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}
	return "ratelimit:" + u.Host, nil
}
