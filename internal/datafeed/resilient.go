package datafeed

import (
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ResilientSource wraps a Source-producing fetch with a circuit breaker, so
// a Polygon/Alpaca outage or rate limit trips the breaker instead of
// stalling the dispatcher on a hung or repeatedly-failing fetch. Grounded
// on libs/resilience/circuitbreaker.go; uses gobreaker/v2's generic
// Execute directly rather than the teacher's any-typed wrapper, since the
// fetch result here has one concrete type (Source).
type ResilientSource struct {
	cb        *gobreaker.CircuitBreaker[Source]
	name      string
	fetchOnce func() (Source, error)
}

// NewResilientSource builds a breaker named name around fetch, tripping
// after 5 consecutive failures (or a 60% failure ratio once at least 3
// requests have been seen) and resetting after a 30s cooldown, the same
// thresholds libs/resilience.DefaultConfig uses.
func NewResilientSource(name string, fetch func() (Source, error)) *ResilientSource {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && (counts.ConsecutiveFailures >= 5 || failureRatio >= 0.6)
		},
	}

	cb := gobreaker.NewCircuitBreaker[Source](settings)
	return &ResilientSource{cb: cb, name: name, fetchOnce: fetch}
}

// Fetch runs fetch through the breaker, returning an error immediately
// (without calling fetch) while the breaker is open.
func (r *ResilientSource) Fetch() (Source, error) {
	src, err := r.cb.Execute(r.fetchOnce)
	if err != nil {
		return nil, fmt.Errorf("datafeed: resilient source %s: %w", r.name, err)
	}
	return src, nil
}

// State reports the breaker's current state, for health-check endpoints.
func (r *ResilientSource) State() gobreaker.State {
	return r.cb.State()
}
