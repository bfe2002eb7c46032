package broker

import (
	"testing"
	"time"

	"github.com/algosenses/xBacktest-sub001/internal/bar"
	"github.com/algosenses/xBacktest-sub001/internal/contract"
	"github.com/algosenses/xBacktest-sub001/internal/order"
)

func newTestBroker(t *testing.T, cash float64) *Broker {
	t.Helper()
	reg := contract.NewRegistry()
	reg.Register(contract.Contract{Instrument: "XYZ", Multiplier: 1})
	return New(Config{InitialCash: cash, AllowFractions: true}, reg)
}

// S1: Market buy and sell, flat profit.
func TestScenarioS1MarketBuySellFlatProfit(t *testing.T) {
	b := newTestBroker(t, 100000)
	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	buy, err := order.New(b.NextOrderID(), order.Market, order.Buy, "XYZ", 10)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.PlaceOrder(buy, d1); err != nil {
		t.Fatal(err)
	}

	bar1 := bar.Bar{Instrument: "XYZ", DateTime: d1, Open: 10, High: 10, Low: 10, Close: 10, Volume: 1000}
	if err := b.OnBar("XYZ", d1, bar1); err != nil {
		t.Fatal(err)
	}
	if !buy.IsFilled() {
		t.Fatalf("expected buy filled on D1, state=%s", buy.State)
	}
	if got := b.Shares("XYZ"); got != 10 {
		t.Fatalf("shares = %v, want 10", got)
	}

	sell, err := order.New(b.NextOrderID(), order.Market, order.Sell, "XYZ", 10)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.PlaceOrder(sell, d2); err != nil {
		t.Fatal(err)
	}

	bar2 := bar.Bar{Instrument: "XYZ", DateTime: d2, Open: 12, High: 12, Low: 12, Close: 12, Volume: 1000}
	if err := b.OnBar("XYZ", d2, bar2); err != nil {
		t.Fatal(err)
	}
	if !sell.IsFilled() {
		t.Fatalf("expected sell filled on D2, state=%s", sell.State)
	}
	if got := b.Shares("XYZ"); got != 0 {
		t.Fatalf("shares after close = %v, want 0", got)
	}
	if got := b.Equity(); got != 100020 {
		t.Fatalf("equity = %v, want 100020", got)
	}
	if got := b.posProfit; got != 20 {
		t.Fatalf("realized profit = %v, want 20", got)
	}
}

func TestDuplicateOrderIDRejected(t *testing.T) {
	b := newTestBroker(t, 100000)
	o1, _ := order.New(5, order.Market, order.Buy, "XYZ", 1)
	o2, _ := order.New(5, order.Market, order.Buy, "XYZ", 1)
	if err := b.PlaceOrder(o1, time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := b.PlaceOrder(o2, time.Now()); err == nil {
		t.Fatal("expected duplicate id rejection")
	}
}

func TestCancelOrder(t *testing.T) {
	b := newTestBroker(t, 100000)
	o, _ := order.New(1, order.Limit, order.Buy, "XYZ", 10)
	o.LimitPrice = 1
	if err := b.PlaceOrder(o, time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := b.CancelOrder(o.ID, time.Now()); err != nil {
		t.Fatal(err)
	}
	if !o.IsCanceled() {
		t.Fatal("expected canceled")
	}
	if err := b.CancelOrder(o.ID, time.Now()); err == nil {
		t.Fatal("expected error canceling an already-terminal order")
	}
}

func TestInsufficientCashRejectsFill(t *testing.T) {
	b := newTestBroker(t, 50) // not enough to buy 10 @ 10 = 100
	o, _ := order.New(1, order.Market, order.Buy, "XYZ", 10)
	if err := b.PlaceOrder(o, time.Now()); err != nil {
		t.Fatal(err)
	}
	bc := bar.Bar{Instrument: "XYZ", Open: 10, High: 10, Low: 10, Close: 10, Volume: 1000}
	if err := b.OnBar("XYZ", time.Now(), bc); err != nil {
		t.Fatal(err)
	}
	if o.IsFilled() {
		t.Fatal("expected fill to be rejected for insufficient cash")
	}
	if !o.IsActive() {
		t.Fatal("rejected-for-cash order should remain active for retry, per spec Open Question")
	}
}
