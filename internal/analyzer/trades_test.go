package analyzer

import (
	"testing"

	"github.com/algosenses/xBacktest-sub001/internal/order"
)

func fillEvent(instrument string, action order.Action, qty, price, commission float64) order.Event {
	return order.Event{
		Instrument: instrument,
		Action:     action,
		State:      order.Filled,
		LastExecution: order.Execution{
			DateTime:   day(0),
			Price:      price,
			Quantity:   qty,
			Commission: commission,
		},
		FilledQuantity: qty,
		Quantity:       qty,
	}
}

// A full buy->sell round trip should roll up into exactly one ClosePosTrade,
// partitioned by sign of realized P&L, with entry/exit volumes matching.
func TestTradesRoundTripProducesClosePosTrade(t *testing.T) {
	tr := NewTrades(func(string) float64 { return 1 }, func() float64 { return 0 })

	tr.OnOrderUpdate(fillEvent("AAA", order.Buy, 100, 10, 1))
	if len(tr.Profits())+len(tr.Losses())+len(tr.EvenTrades()) != 0 {
		t.Fatalf("no round trip should have closed yet after a single buy")
	}

	tr.OnOrderUpdate(fillEvent("AAA", order.Sell, 100, 12, 1))

	profits := tr.Profits()
	if len(profits) != 1 {
		t.Fatalf("expected 1 profitable round trip, got %d profits, %d losses, %d even",
			len(profits), len(tr.Losses()), len(tr.EvenTrades()))
	}

	cpt := profits[0]
	wantProfit := (12 - 10) * 100.0
	if diff(cpt.RealizedProfit, wantProfit) > 1e-9 {
		t.Fatalf("realizedProfit = %v, want %v", cpt.RealizedProfit, wantProfit)
	}
	if cpt.TradedVolume != 200 {
		t.Fatalf("tradedVolume = %v, want 200 (100 entry + 100 exit)", cpt.TradedVolume)
	}
	if tr.TotalTradeNum() != 1 {
		t.Fatalf("totalTradeNum = %d, want 1", tr.TotalTradeNum())
	}
	if diff(tr.TotalNetProfits(), wantProfit) > 1e-9 {
		t.Fatalf("totalNetProfits = %v, want %v", tr.TotalNetProfits(), wantProfit)
	}
}

// A losing short round trip lands in Losses, and a breakeven one in
// EvenTrades, keeping the three buckets mutually exclusive.
func TestTradesPartitionsBySign(t *testing.T) {
	tr := NewTrades(func(string) float64 { return 1 }, func() float64 { return 0 })

	tr.OnOrderUpdate(fillEvent("BBB", order.SellShort, 50, 20, 0))
	tr.OnOrderUpdate(fillEvent("BBB", order.BuyToCover, 50, 22, 0)) // short loses when price rises

	if len(tr.Losses()) != 1 {
		t.Fatalf("expected 1 losing round trip, got %d", len(tr.Losses()))
	}
	if len(tr.Profits()) != 0 || len(tr.EvenTrades()) != 0 {
		t.Fatalf("losing round trip leaked into profits/even buckets")
	}

	tr.OnOrderUpdate(fillEvent("CCC", order.Buy, 10, 5, 0))
	tr.OnOrderUpdate(fillEvent("CCC", order.Sell, 10, 5, 0)) // flat P&L

	if len(tr.EvenTrades()) != 1 {
		t.Fatalf("expected 1 even round trip, got %d", len(tr.EvenTrades()))
	}
}

// Partial fills that don't flatten the position must not emit a
// ClosePosTrade; only a return to zero net shares does.
func TestTradesPartialFillsDoNotCloseEarly(t *testing.T) {
	tr := NewTrades(func(string) float64 { return 1 }, func() float64 { return 0 })

	tr.OnOrderUpdate(fillEvent("AAA", order.Buy, 100, 10, 0))
	tr.OnOrderUpdate(fillEvent("AAA", order.Sell, 40, 11, 0))
	if tr.TotalTradeNum() != 0 {
		t.Fatalf("partial exit should not close the round trip yet, totalTradeNum = %d", tr.TotalTradeNum())
	}

	tr.OnOrderUpdate(fillEvent("AAA", order.Sell, 60, 12, 0))
	if tr.TotalTradeNum() != 1 {
		t.Fatalf("expected round trip to close once net shares return to zero, got %d", tr.TotalTradeNum())
	}
}

func TestTradesDailyMetricsSnapshot(t *testing.T) {
	equity := 100000.0
	tr := NewTrades(func(string) float64 { return 1 }, func() float64 { return equity })

	tr.OnOrderUpdate(fillEvent("AAA", order.Buy, 10, 100, 0))
	tr.OnOrderUpdate(fillEvent("AAA", order.Sell, 10, 105, 0))
	tr.OnNewTradingDay(day(0))

	metrics := tr.DailyMetrics()
	if len(metrics) != 1 {
		t.Fatalf("expected 1 daily snapshot, got %d", len(metrics))
	}
	if metrics[0].TradeCount != 1 {
		t.Fatalf("dailyMetrics[0].TradeCount = %d, want 1", metrics[0].TradeCount)
	}
	wantPnL := (105 - 100) * 10.0
	if diff(metrics[0].RealizedPnL, wantPnL) > 1e-9 {
		t.Fatalf("dailyMetrics[0].RealizedPnL = %v, want %v", metrics[0].RealizedPnL, wantPnL)
	}

	// Counters reset after the snapshot is taken.
	tr.OnNewTradingDay(day(1))
	if tr.DailyMetrics()[1].TradeCount != 0 {
		t.Fatalf("expected reset TradeCount on the following day, got %d", tr.DailyMetrics()[1].TradeCount)
	}
}
