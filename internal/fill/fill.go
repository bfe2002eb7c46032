// Package fill implements the pure (order, bar) -> (price, quantity)
// matching functions from spec.md §4.4: a bar-resolution DefaultStrategy
// with a per-bar volume ledger, and a tick-resolution TickStrategy.
package fill

import (
	"fmt"

	"github.com/algosenses/xBacktest-sub001/internal/bar"
	"github.com/algosenses/xBacktest-sub001/internal/order"
)

// tolerance is the floating-point slack used when comparing a bar's
// open/high/low against an order's stop/limit price, per spec.md §4.4.1.
const tolerance = 1e-7

// Result is the outcome of attempting to match one order against one bar.
// A zero Quantity means "no fill this bar."
type Result struct {
	Price    float64
	Quantity float64
}

// noFill is the zero-quantity "nothing happened" result.
var noFill = Result{}

// Strategy is the common interface behind both fill algorithms. Each method
// returns the fill (possibly zero-quantity) for one order against one bar;
// apart from latching StopHit on stop and stop-limit orders, neither
// implementation mutates the order — that is the broker's job.
type Strategy interface {
	FillMarket(o *order.Order, b bar.Bar, available float64) (Result, error)
	FillLimit(o *order.Order, b bar.Bar, available float64) (Result, error)
	FillStop(o *order.Order, b bar.Bar, available float64) (Result, error)
	FillStopLimit(o *order.Order, b bar.Bar, available float64) (Result, error)

	// OnOrderFilled notifies the strategy that a fill was committed, so a
	// volume-ledger implementation can decrement its remaining allowance.
	OnOrderFilled(o *order.Order, b bar.Bar, filledQty float64)

	// OnBar resets any per-bar state (the volume ledger) ahead of matching
	// orders against a new bar for this instrument.
	OnBar(instrument string, b bar.Bar)
}

// stopPriceTrigger returns the price at which a stop order becomes active,
// or 0 if it has not yet triggered (spec.md §4.4.1).
func stopPriceTrigger(action order.Action, stopPrice float64, b bar.Bar) float64 {
	if action.IsBuy() {
		if b.Low > stopPrice {
			return b.Open
		}
		if stopPrice <= b.High+tolerance {
			if b.Open > stopPrice {
				return b.Open
			}
			return stopPrice
		}
		return 0
	}
	// Sell / SellShort: mirror image of the buy case.
	if b.High < stopPrice {
		return b.Open
	}
	if stopPrice >= b.Low-tolerance {
		if b.Open < stopPrice {
			return b.Open
		}
		return stopPrice
	}
	return 0
}

// limitPriceTrigger returns the price at which a limit order becomes
// active, or 0 if it has not yet triggered (spec.md §4.4.1).
func limitPriceTrigger(action order.Action, limitPrice float64, b bar.Bar) float64 {
	if action.IsBuy() {
		if b.High < limitPrice {
			return b.Open
		}
		if limitPrice >= b.Low-tolerance {
			if b.Open < limitPrice {
				return b.Open
			}
			return limitPrice
		}
		return 0
	}
	// Sell / SellShort: mirror image.
	if b.Low > limitPrice {
		return b.Open
	}
	if limitPrice <= b.High+tolerance {
		if b.Open > limitPrice {
			return b.Open
		}
		return limitPrice
	}
	return 0
}

// errNonPositivePrice is returned when a market fill would execute at a
// non-positive price, which spec.md §4.4.1 treats as a fatal data problem
// (adjusted-price data gone wrong), not a recoverable fill issue.
func errNonPositivePrice(o *order.Order, price float64) error {
	return fmt.Errorf("fill: order %d market price %.6f is not positive; check for adjusted-price data", o.ID, price)
}
