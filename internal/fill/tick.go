package fill

import (
	"fmt"

	"github.com/algosenses/xBacktest-sub001/internal/bar"
	"github.com/algosenses/xBacktest-sub001/internal/order"
)

// TickStrategy is the tick-resolution fill algorithm of spec.md §4.4.2:
// market and stop orders fill in full at the last tick price; limit and
// stop-limit orders are not supported on tick data.
type TickStrategy struct{}

func NewTickStrategy() *TickStrategy { return &TickStrategy{} }

func (TickStrategy) OnBar(string, bar.Bar)                               {}
func (TickStrategy) OnOrderFilled(*order.Order, bar.Bar, float64)         {}

func (TickStrategy) FillMarket(o *order.Order, b bar.Bar, _ float64) (Result, error) {
	return Result{Price: b.Close, Quantity: o.Remaining()}, nil
}

func (TickStrategy) FillStop(o *order.Order, b bar.Bar, _ float64) (Result, error) {
	return Result{Price: b.Close, Quantity: o.Remaining()}, nil
}

func (TickStrategy) FillLimit(o *order.Order, _ bar.Bar, _ float64) (Result, error) {
	return noFill, fmt.Errorf("fill: limit order %d is not supported on tick data", o.ID)
}

func (TickStrategy) FillStopLimit(o *order.Order, _ bar.Bar, _ float64) (Result, error) {
	return noFill, fmt.Errorf("fill: stop-limit order %d is not supported on tick data", o.ID)
}
