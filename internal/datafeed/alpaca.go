package datafeed

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"github.com/algosenses/xBacktest-sub001/internal/bar"
	"github.com/algosenses/xBacktest-sub001/internal/feed"
)

// AlpacaSource is PolygonSource's counterpart for Alpaca's bar endpoint,
// used where Polygon coverage is thin (crypto, extended hours). Grounded
// on libs/marketdata/provider_alpaca.go's GetCandles.
type AlpacaSource struct {
	*feed.Feed
}

// NewAlpacaSource fetches instrument's bars at the given timeframe over
// [from, to), optionally through cache, and wraps them as a dispatcher
// Subject at priority.
func NewAlpacaSource(ctx context.Context, client *marketdata.Client, cache *Cache, instrument string, from, to time.Time, tf marketdata.TimeFrame, priority int) (*AlpacaSource, error) {
	bars, err := FetchAlpacaBars(ctx, client, cache, instrument, from, to, tf)
	if err != nil {
		return nil, err
	}

	f := feed.New(priority)
	f.AddSeries(instrument, bars)
	return &AlpacaSource{Feed: f}, nil
}

// FetchAlpacaBars fetches (or serves from cache) instrument's bars as a
// plain slice, for callers that feed an already-running Engine directly
// rather than going through the dispatcher's Subject interface.
func FetchAlpacaBars(ctx context.Context, client *marketdata.Client, cache *Cache, instrument string, from, to time.Time, tf marketdata.TimeFrame) ([]bar.Bar, error) {
	key := cacheKey("alpaca", instrument, fmt.Sprintf("%v", tf), from, to)
	ttl := time.Hour
	if tf.Unit == marketdata.Day {
		ttl = 24 * time.Hour
	}

	return fetchWithCache(ctx, cache, key, ttl, func(ctx context.Context) ([]bar.Bar, error) {
		return fetchAlpacaBars(client, instrument, from, to, tf)
	})
}

func fetchAlpacaBars(client *marketdata.Client, instrument string, from, to time.Time, tf marketdata.TimeFrame) ([]bar.Bar, error) {
	raw, err := client.GetBars(instrument, marketdata.GetBarsRequest{
		TimeFrame: tf,
		Start:     from,
		End:       to,
	})
	if err != nil {
		return nil, fmt.Errorf("datafeed: alpaca GetBars %s: %w", instrument, err)
	}

	bars := make([]bar.Bar, 0, len(raw))
	for _, rb := range raw {
		bars = append(bars, bar.Bar{
			Instrument: instrument,
			DateTime:   rb.Timestamp,
			Open:       rb.Open,
			High:       rb.High,
			Low:        rb.Low,
			Close:      rb.Close,
			Volume:     uint64(rb.Volume),
			Resolution: bar.Minute,
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].DateTime.Before(bars[j].DateTime) })
	return bars, nil
}
