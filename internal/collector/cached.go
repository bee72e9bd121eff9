package collector

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"BreakoutScanner/internal/model"
)

// CachedFetcher memoizes successful responses of another Fetcher.
// Errors and empty results pass through uncached.
type CachedFetcher struct {
	next  Fetcher
	cache *gocache.Cache
}

// NewCachedFetcher wraps next with a TTL cache.
func NewCachedFetcher(next Fetcher, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{
		next:  next,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (c *CachedFetcher) Name() string { return c.next.Name() + "+cache" }

func (c *CachedFetcher) FetchDailyBars(ctx context.Context, symbol, lookback string) ([]model.OHLCV, error) {
	key := symbol + "|" + lookback
	if v, ok := c.cache.Get(key); ok {
		return v.([]model.OHLCV), nil
	}
	bars, err := c.next.FetchDailyBars(ctx, symbol, lookback)
	if err != nil {
		return nil, err
	}
	if len(bars) > 0 {
		c.cache.SetDefault(key, bars)
	}
	return bars, nil
}

// Flush drops every cached entry.
func (c *CachedFetcher) Flush() { c.cache.Flush() }
