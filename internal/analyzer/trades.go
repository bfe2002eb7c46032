package analyzer

import (
	"time"

	"github.com/algosenses/xBacktest-sub001/internal/order"
)

// DailyMetrics is a single day's snapshot taken on a NewTradingDay boundary
// (spec.md §4.7 "Trades ... also subscribes to NewTradingDay").
type DailyMetrics struct {
	Date          time.Time
	Equity        float64
	RealizedPnL   float64
	TradeCount    int
}

// Trades is the C7 "Trades" analyzer: it consumes OrderUpdate events,
// drives one PositionTracker per instrument, and rolls up closed
// round-trips into profit/loss/even buckets plus running totals (spec.md
// §4.7).
type Trades struct {
	multiplier func(instrument string) float64

	trackers map[string]*PositionTracker

	profits     []ClosePosTrade
	losses      []ClosePosTrade
	evenTrades  []ClosePosTrade

	totalNetProfits    float64
	totalTradedVolume  float64
	totalTradeNum      int
	totalTradeCost     float64 // commissions + slippages

	dailyMetrics []DailyMetrics

	equityFn func() float64

	pendingDailyPnL  float64
	pendingDailyNum  int
}

// NewTrades constructs a Trades analyzer. multiplier resolves an
// instrument's contract multiplier (for P&L scaling); equityFn returns the
// broker's current equity, used to populate DailyMetrics.
func NewTrades(multiplier func(string) float64, equityFn func() float64) *Trades {
	return &Trades{
		multiplier: multiplier,
		trackers:   make(map[string]*PositionTracker),
		equityFn:   equityFn,
	}
}

func (t *Trades) trackerFor(instrument string) *PositionTracker {
	tr, ok := t.trackers[instrument]
	if !ok {
		mult := 1.0
		if t.multiplier != nil {
			mult = t.multiplier(instrument)
		}
		tr = NewPositionTracker(instrument, mult)
		t.trackers[instrument] = tr
	}
	return tr
}

// OnOrderUpdate handles a single OrderUpdate event. Only PartiallyFilled
// and Filled transitions carry a fill to apply to the tracker (spec.md
// §4.7).
func (t *Trades) OnOrderUpdate(evt order.Event) {
	if evt.State != order.PartiallyFilled && evt.State != order.Filled {
		return
	}
	exec := evt.LastExecution
	if exec.Quantity <= 0 {
		return
	}

	tr := t.trackerFor(evt.Instrument)
	switch evt.Action {
	case order.Buy:
		tr.Buy(exec.DateTime, exec.Quantity, exec.Price, exec.Commission, exec.Slippage)
	case order.Sell:
		tr.Sell(exec.DateTime, exec.Quantity, exec.Price, exec.Commission, exec.Slippage)
	case order.SellShort:
		tr.SellShort(exec.DateTime, exec.Quantity, exec.Price, exec.Commission, exec.Slippage)
	case order.BuyToCover:
		tr.Cover(exec.DateTime, exec.Quantity, exec.Price, exec.Commission, exec.Slippage)
	}

	if tr.IsFlat() {
		cpt := tr.TakeClosePosTrade()
		t.roll(cpt)
	}
}

func (t *Trades) roll(cpt ClosePosTrade) {
	t.totalNetProfits += cpt.RealizedProfit
	t.totalTradedVolume += cpt.TradedVolume
	t.totalTradeNum++
	t.totalTradeCost += cpt.Commissions + cpt.Slippages

	switch {
	case cpt.RealizedProfit > 0:
		t.profits = append(t.profits, cpt)
	case cpt.RealizedProfit < 0:
		t.losses = append(t.losses, cpt)
	default:
		t.evenTrades = append(t.evenTrades, cpt)
	}

	t.pendingDailyPnL += cpt.RealizedProfit
	t.pendingDailyNum++
}

// OnNewTradingDay snapshots the day's metrics and resets the
// since-last-snapshot counters.
func (t *Trades) OnNewTradingDay(prev time.Time) {
	equity := 0.0
	if t.equityFn != nil {
		equity = t.equityFn()
	}
	t.dailyMetrics = append(t.dailyMetrics, DailyMetrics{
		Date:        prev,
		Equity:      equity,
		RealizedPnL: t.pendingDailyPnL,
		TradeCount:  t.pendingDailyNum,
	})
	t.pendingDailyPnL = 0
	t.pendingDailyNum = 0
}

// Profits, Losses and Even return the closed round-trips partitioned by
// sign of realized P&L (spec.md §4.7).
func (t *Trades) Profits() []ClosePosTrade    { return t.profits }
func (t *Trades) Losses() []ClosePosTrade     { return t.losses }
func (t *Trades) EvenTrades() []ClosePosTrade { return t.evenTrades }

// TotalNetProfits, TotalTradedVolume, TotalTradeNum, TotalTradeCost expose
// the running rollups (spec.md §4.7).
func (t *Trades) TotalNetProfits() float64   { return t.totalNetProfits }
func (t *Trades) TotalTradedVolume() float64 { return t.totalTradedVolume }
func (t *Trades) TotalTradeNum() int         { return t.totalTradeNum }
func (t *Trades) TotalTradeCost() float64    { return t.totalTradeCost }

// DailyMetrics returns the accumulated per-day snapshots.
func (t *Trades) DailyMetrics() []DailyMetrics { return t.dailyMetrics }
