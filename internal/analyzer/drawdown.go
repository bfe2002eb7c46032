package analyzer

import (
	"time"

	"github.com/algosenses/xBacktest-sub001/internal/xtime"
)

// Drawdown tracks the running high-watermark/low-watermark drawdown
// statistics of spec.md §4.7, including the deliberately preserved quirk
// noted in spec.md §9: both the new-high and new-low branches use >= (not
// >) when updating the longest-duration tracker, so a tie after a recovery
// still extends duration through the recovery bar. This is not a bug to fix
// — the spec explicitly flags it as source behavior to keep.
type Drawdown struct {
	high     float64
	highTime time.Time
	low      float64

	maxDD        float64
	maxDDPeak    float64
	maxDDBegin   time.Time
	maxDDEnd     time.Time

	longestDur      int
	longestBegin    time.Time
	longestEnd      time.Time
	curDrawdownBegin time.Time

	started bool
}

// NewDrawdown constructs a Drawdown tracker.
func NewDrawdown() *Drawdown {
	return &Drawdown{}
}

// Update feeds one new equity observation at time t (spec.md §4.7's
// update(dt, equity) algorithm).
func (d *Drawdown) Update(t time.Time, equity float64) {
	if !d.started {
		d.started = true
		d.high = equity
		d.highTime = t
		d.low = equity
		d.curDrawdownBegin = t
		return
	}

	switch {
	case equity >= d.high:
		// Close out the previous drawdown period.
		if dur := xtime.DaySpan(d.highTime, t); dur >= d.longestDur {
			d.longestDur = dur
			d.longestBegin = d.highTime
			d.longestEnd = t
		}
		d.high = equity
		d.highTime = t
		d.low = equity
		d.curDrawdownBegin = t

	case equity < d.low:
		d.low = equity
		if d.high-d.low > d.maxDD {
			d.maxDD = d.high - d.low
			d.maxDDPeak = d.high
			d.maxDDBegin = d.highTime
			d.maxDDEnd = t
		}
		if dur := xtime.DaySpan(d.highTime, t); dur >= d.longestDur {
			d.longestDur = dur
			d.longestBegin = d.highTime
			d.longestEnd = t
		}
	}
}

// MaxDrawdown returns the largest peak-to-trough equity drop observed.
func (d *Drawdown) MaxDrawdown() float64 { return d.maxDD }

// MaxDrawdownPct returns MaxDrawdown as a fraction of the peak it fell from.
func (d *Drawdown) MaxDrawdownPct() float64 {
	if d.maxDDPeak == 0 {
		return 0
	}
	return d.maxDD / d.maxDDPeak
}

// MaxDrawdownRange returns the begin/end timestamps of the maximum drawdown.
func (d *Drawdown) MaxDrawdownRange() (time.Time, time.Time) {
	return d.maxDDBegin, d.maxDDEnd
}

// LongestDrawdownRange returns the begin/end timestamps of the
// longest-duration drawdown period.
func (d *Drawdown) LongestDrawdownRange() (time.Time, time.Time) {
	return d.longestBegin, d.longestEnd
}
