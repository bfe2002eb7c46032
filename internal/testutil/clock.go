// Package testutil provides the test-support tooling SPEC_FULL.md Part B.4
// calls for, adapted from libs/testing/{clock,golden,fixtures}.go: a manual
// clock for deterministic DateTime sequencing, golden-file comparison for
// the replay-determinism law, and bar-stream fixture loading.
package testutil

import "time"

// ManualClock gives dispatcher and broker tests a fixed, advanceable notion
// of "now" for trading-day-boundary scenarios (spec.md's DateTime model has
// no wall-clock dependency of its own; tests still need to construct a
// sequence of timestamps to feed it).
type ManualClock struct {
	current time.Time
}

// NewManualClock creates a ManualClock starting at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{current: start}
}

// Now returns the clock's current time.
func (c *ManualClock) Now() time.Time { return c.current }

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) time.Time {
	c.current = c.current.Add(d)
	return c.current
}

// Set moves the clock to an arbitrary time (e.g. to cross a trading-day
// boundary without stepping through every intermediate bar).
func (c *ManualClock) Set(t time.Time) {
	c.current = t
}
