// Package bar defines the single OHLCV observation type the rest of the
// kernel is built around, per spec.md §3.
package bar

import (
	"fmt"
	"time"
)

// Resolution tags the granularity of a Bar's source.
type Resolution int

const (
	Tick Resolution = iota
	Minute
	Daily
)

func (r Resolution) String() string {
	switch r {
	case Tick:
		return "tick"
	case Minute:
		return "minute"
	case Daily:
		return "daily"
	default:
		return "unknown"
	}
}

// Bar is a single observation for one instrument at one timestamp.
//
// A zero field among Open/High/Low/Close means "missing" and bypasses the
// OHLC sanity invariant (spec.md §3).
type Bar struct {
	Instrument string
	DateTime   time.Time

	Open  float64
	High  float64
	Low   float64
	Close float64

	Volume       uint64
	OpenInterest uint64

	Resolution   Resolution
	IntervalSize int // e.g. 5 for a 5-minute bar

	// Tick-only fields, zero when unused.
	Last    float64
	Bid     float64
	Ask     float64
	BidSize uint64
	AskSize uint64
}

// Validate checks the OHLC invariant: low <= open,close <= high and
// low <= high, whenever all four prices are present (non-zero). Missing
// (zero) fields bypass the check entirely, matching spec.md's "zero denotes
// missing field" convention.
func (b Bar) Validate() error {
	if b.Open == 0 || b.High == 0 || b.Low == 0 || b.Close == 0 {
		return nil
	}
	if b.Low > b.High {
		return fmt.Errorf("bar %s@%s: low %.6f > high %.6f", b.Instrument, b.DateTime, b.Low, b.High)
	}
	if b.Low > b.Open || b.Open > b.High {
		return fmt.Errorf("bar %s@%s: open %.6f outside [low %.6f, high %.6f]", b.Instrument, b.DateTime, b.Open, b.Low, b.High)
	}
	if b.Low > b.Close || b.Close > b.High {
		return fmt.Errorf("bar %s@%s: close %.6f outside [low %.6f, high %.6f]", b.Instrument, b.DateTime, b.Close, b.Low, b.High)
	}
	return nil
}

// Price returns the fill-anchor price for this bar's resolution: the last
// tick price for tick bars, the close otherwise. Fill strategies that want
// the open/high/low explicitly read those fields directly.
func (b Bar) Price() float64 {
	if b.Resolution == Tick {
		return b.Last
	}
	return b.Close
}
