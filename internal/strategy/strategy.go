// Package strategy defines the external strategy contract (spec.md §6) and
// the broker-backed action set a strategy uses to place orders.
package strategy

import (
	"time"

	"github.com/algosenses/xBacktest-sub001/internal/bar"
	"github.com/algosenses/xBacktest-sub001/internal/order"
)

// Strategy is implemented by user code. Every callback is invoked
// synchronously from the dispatcher's single-threaded run loop (spec.md §5):
// handlers run to completion before the next event is dispatched, so a
// Strategy implementation needs no locking of its own.
type Strategy interface {
	OnStart()
	OnBar(b bar.Bar)
	OnOrderUpdated(evt order.Event)
	OnTimeElapsed(prev, curr time.Time)
	OnStop()
}

// Broker is the subset of broker.Broker a Strategy's Actions needs; kept as
// an interface here so strategy does not import broker (avoiding an import
// cycle with the engine that wires both together).
type Broker interface {
	NextOrderID() uint64
	PlaceOrder(o *order.Order, now time.Time) error
	CancelOrder(id uint64, now time.Time) error
}

// Actions is the engine-provided handle a Strategy uses to act (spec.md §6:
// "buy/sell/sellShort/buyToCover (market by default) or submitOrder(order)
// for typed orders. Each action returns an order id.").
type Actions struct {
	broker Broker
	now    func() time.Time
}

// NewActions constructs an Actions handle bound to broker, using now to
// timestamp submissions (the engine supplies the dispatcher's current tick
// time).
func NewActions(b Broker, now func() time.Time) *Actions {
	return &Actions{broker: b, now: now}
}

func (a *Actions) market(action order.Action, instrument string, quantity float64) (uint64, error) {
	o, err := order.New(a.broker.NextOrderID(), order.Market, action, instrument, quantity)
	if err != nil {
		return 0, err
	}
	if err := a.broker.PlaceOrder(o, a.now()); err != nil {
		return 0, err
	}
	return o.ID, nil
}

// Buy submits a market buy order for quantity shares of instrument.
func (a *Actions) Buy(instrument string, quantity float64) (uint64, error) {
	return a.market(order.Buy, instrument, quantity)
}

// Sell submits a market sell order.
func (a *Actions) Sell(instrument string, quantity float64) (uint64, error) {
	return a.market(order.Sell, instrument, quantity)
}

// SellShort submits a market sell-short order.
func (a *Actions) SellShort(instrument string, quantity float64) (uint64, error) {
	return a.market(order.SellShort, instrument, quantity)
}

// BuyToCover submits a market buy-to-cover order.
func (a *Actions) BuyToCover(instrument string, quantity float64) (uint64, error) {
	return a.market(order.BuyToCover, instrument, quantity)
}

// SubmitOrder places a fully-constructed typed order (limit, stop, or
// stop-limit), returning its id.
func (a *Actions) SubmitOrder(o *order.Order) (uint64, error) {
	if err := a.broker.PlaceOrder(o, a.now()); err != nil {
		return 0, err
	}
	return o.ID, nil
}

// CancelOrder cancels a previously submitted order.
func (a *Actions) CancelOrder(id uint64) error {
	return a.broker.CancelOrder(id, a.now())
}
