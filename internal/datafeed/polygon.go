package datafeed

import (
	"context"
	"fmt"
	"sort"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"github.com/algosenses/xBacktest-sub001/internal/bar"
	"github.com/algosenses/xBacktest-sub001/internal/feed"
)

// PolygonSource pages through Polygon.io's aggregates endpoint for one
// instrument and date range, converts the result into spec.md §3 Bar
// values, and serves them through the same feed.Feed the dispatcher
// already knows how to run. Grounded on libs/marketdata/provider_polygon.go.
type PolygonSource struct {
	*feed.Feed
}

// NewPolygonSource fetches instrument's aggregate bars for [from, to) at
// the given multiplier/timespan (e.g. 1 + models.Day for daily bars),
// optionally through cache, and wraps them as a dispatcher Subject at
// priority.
func NewPolygonSource(ctx context.Context, client *polygon.Client, cache *Cache, instrument string, from, to time.Time, multiplier int, timespan models.Timespan, priority int) (*PolygonSource, error) {
	bars, err := FetchPolygonBars(ctx, client, cache, instrument, from, to, multiplier, timespan)
	if err != nil {
		return nil, err
	}

	f := feed.New(priority)
	f.AddSeries(instrument, bars)
	return &PolygonSource{Feed: f}, nil
}

// FetchPolygonBars fetches (or serves from cache) instrument's aggregate
// bars for [from, to) as a plain slice, for callers that feed an
// already-running Engine directly (e.g. cmd/backtestd's synchronous run
// handler) rather than going through the dispatcher's Subject interface.
func FetchPolygonBars(ctx context.Context, client *polygon.Client, cache *Cache, instrument string, from, to time.Time, multiplier int, timespan models.Timespan) ([]bar.Bar, error) {
	key := cacheKey("polygon", instrument, string(timespan), from, to)
	ttl := time.Hour
	if timespan == models.Day {
		ttl = 24 * time.Hour
	}

	return fetchWithCache(ctx, cache, key, ttl, func(ctx context.Context) ([]bar.Bar, error) {
		return fetchPolygonAggs(ctx, client, instrument, from, to, multiplier, timespan)
	})
}

func fetchPolygonAggs(ctx context.Context, client *polygon.Client, instrument string, from, to time.Time, multiplier int, timespan models.Timespan) ([]bar.Bar, error) {
	params := models.ListAggsParams{
		Ticker:     instrument,
		Multiplier: multiplier,
		Timespan:   timespan,
		From:       models.Millis(from),
		To:         models.Millis(to),
	}

	iter := client.ListAggs(ctx, params)

	var bars []bar.Bar
	for iter.Next() {
		agg := iter.Item()
		bars = append(bars, bar.Bar{
			Instrument: instrument,
			DateTime:   time.Time(agg.Timestamp),
			Open:       agg.Open,
			High:       agg.High,
			Low:        agg.Low,
			Close:      agg.Close,
			Volume:     uint64(agg.Volume),
			Resolution: resolutionFor(timespan),
		})
	}
	if iter.Err() != nil {
		return nil, fmt.Errorf("datafeed: polygon ListAggs %s: %w", instrument, iter.Err())
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].DateTime.Before(bars[j].DateTime) })
	return bars, nil
}

func resolutionFor(timespan models.Timespan) bar.Resolution {
	if timespan == models.Day || timespan == models.Week {
		return bar.Daily
	}
	return bar.Minute
}
