package analyzer

import (
	"math"
	"time"

	"github.com/algosenses/xBacktest-sub001/internal/xtime"
)

// CurrentDrawdown is the simpler live-progress companion to Drawdown
// (SPEC_FULL.md Part D, grounded on original_source/source/Analyzer/
// Drawdown.cpp's DrawDownHelper): unlike Drawdown, it only tracks the
// *current* drawdown since the running high-watermark, not the historical
// maximum, so a caller polling mid-run gets "how deep am I under water right
// now" without waiting for the run to finish.
type CurrentDrawdown struct {
	highWatermark float64
	lowWatermark  float64
	highTime      time.Time
	lastTime      time.Time
	started       bool
}

// NewCurrentDrawdown constructs an empty CurrentDrawdown tracker.
func NewCurrentDrawdown() *CurrentDrawdown {
	return &CurrentDrawdown{highWatermark: math.NaN(), lowWatermark: math.NaN()}
}

// Update feeds one new equity observation, mirroring DrawDownHelper::update:
// a new high resets both watermarks to the current equity; otherwise the low
// watermark only ever moves down.
func (c *CurrentDrawdown) Update(t time.Time, equity float64) {
	c.lastTime = t
	if !c.started || equity >= c.highWatermark {
		c.started = true
		c.highWatermark = equity
		c.lowWatermark = equity
		c.highTime = t
		return
	}
	if equity < c.lowWatermark {
		c.lowWatermark = equity
	}
}

// Duration returns the number of calendar days since the current
// high-watermark was set.
func (c *CurrentDrawdown) Duration() int {
	if !c.started {
		return 0
	}
	return xtime.DaySpan(c.highTime, c.lastTime)
}

// CurrentDrawdown returns the drop from the current high-watermark to the
// lowest equity observed since, as an absolute amount or a percentage of the
// high-watermark.
func (c *CurrentDrawdown) CurrentDrawdown(percentage bool) float64 {
	if !c.started || c.highWatermark == 0 {
		return 0
	}
	drop := c.lowWatermark - c.highWatermark
	if percentage {
		return drop / c.highWatermark
	}
	return drop
}
