package datafeed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/algosenses/xBacktest-sub001/internal/bar"
)

// Cache is a Redis-backed bar cache sitting in front of Polygon/Alpaca
// fetches, so repeated backtests over the same historical window do not
// re-hit the upstream API. Grounded on libs/marketdata/cache.go; unlike the
// teacher's quote/candle cache it stores bar.Bar slices keyed by the
// (provider, instrument, timeframe, range) tuple a backtest run asks for.
type Cache struct {
	client *redis.Client
}

// NewCache connects to the Redis instance at addr.
func NewCache(ctx context.Context, addr string) (*Cache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("datafeed: connect to redis: %w", err)
	}
	return &Cache{client: client}, nil
}

// GetBars returns the cached bars for key, and whether they were present.
func (c *Cache) GetBars(ctx context.Context, key string) ([]bar.Bar, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("datafeed: cache get %s: %w", key, err)
	}

	var bars []bar.Bar
	if err := json.Unmarshal(data, &bars); err != nil {
		return nil, false, fmt.Errorf("datafeed: cache unmarshal %s: %w", key, err)
	}
	return bars, true, nil
}

// SetBars caches bars under key for ttl. Daily-bar callers pass a longer
// ttl than intraday ones, the same distinction the teacher's cache makes
// between quote and daily-candle TTLs.
func (c *Cache) SetBars(ctx context.Context, key string, bars []bar.Bar, ttl time.Duration) error {
	data, err := json.Marshal(bars)
	if err != nil {
		return fmt.Errorf("datafeed: cache marshal %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("datafeed: cache set %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}
