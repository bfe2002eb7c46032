// Package datafeed adapts real market-data providers into dispatcher
// Subjects the engine can run against, per SPEC_FULL.md Part C.1: Polygon
// and Alpaca sources feed a pre-fetched, timestamp-sorted bar series
// through the same internal/feed.Feed the kernel already knows how to
// dispatch, with an optional Redis cache in front and a circuit breaker
// wrapping the fetch itself.
package datafeed

import (
	"context"
	"time"

	"github.com/algosenses/xBacktest-sub001/internal/bar"
)

// Source is a market-data adapter ready to be registered on a Dispatcher.
// It is exactly dispatcher.Subject, named locally so call sites in this
// package read as "a data source" rather than "a dispatcher subject".
type Source interface {
	PeekDateTime() (time.Time, bool)
	Dispatch() (bool, error)
	EOF() bool
	Start() error
	Stop() error
	Join() error
	Priority() int
}

// fetchFunc retrieves one instrument's bars for [from, to), ascending or
// not; callers sort before handing them to feed.Feed.
type fetchFunc func(ctx context.Context) ([]bar.Bar, error)

// cacheKey is the key shape both Polygon and Alpaca sources cache under:
// provider-agnostic, since a cached bar series is a cached bar series.
func cacheKey(provider, instrument, timeframe string, from, to time.Time) string {
	return provider + ":" + instrument + ":" + timeframe + ":" + from.Format(time.RFC3339) + ":" + to.Format(time.RFC3339)
}

// fetchWithCache checks cache first, falling back to fetch and populating
// cache on a miss. cache may be nil, in which case fetch always runs.
func fetchWithCache(ctx context.Context, cache *Cache, key string, ttl time.Duration, fetch fetchFunc) ([]bar.Bar, error) {
	if cache != nil {
		if bars, ok, err := cache.GetBars(ctx, key); err != nil {
			return nil, err
		} else if ok {
			return bars, nil
		}
	}

	bars, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	if cache != nil {
		if err := cache.SetBars(ctx, key, bars, ttl); err != nil {
			return nil, err
		}
	}
	return bars, nil
}
