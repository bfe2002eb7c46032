package analyzer

import "time"

// TradeAction tags what a single entry/exit record represents (spec.md §3
// "PositionTracker (analyzer-side)").
type TradeAction int

const (
	EntryLong TradeAction = iota
	IncreaseLong
	ReduceLong
	ExitLong
	EntryShort
	IncreaseShort
	ReduceShort
	ExitShort
)

// TradeRecord is one buy/sell/sellShort/cover call recorded by
// PositionTracker.
type TradeRecord struct {
	DateTime time.Time
	Action   TradeAction
	Price    float64
	Quantity float64
}

// ClosePosTrade is emitted whenever a tracked position's net shares return
// to zero: a full open->close round-trip (spec.md §3).
type ClosePosTrade struct {
	Instrument     string
	RealizedProfit float64
	TradedVolume   float64
	Commissions    float64
	Slippages      float64
	Trades         []TradeRecord
}

// PositionTracker records every entry/exit for one instrument independent
// of the broker's own position bookkeeping (spec.md §4.8), tracking long
// and short side averages independently.
type PositionTracker struct {
	Instrument string
	Multiplier float64

	longPos      float64
	longAvgPrice float64

	shortPos      float64
	shortAvgPrice float64

	commissions float64
	slippages   float64

	lastNetProfit float64
	lastReturn    float64

	currTradedVolume float64
	currTrades       []TradeRecord
	allTrades        []TradeRecord
}

// NewPositionTracker constructs a tracker for one instrument. multiplier
// must be > 0.
func NewPositionTracker(instrument string, multiplier float64) *PositionTracker {
	if multiplier <= 0 {
		multiplier = 1
	}
	return &PositionTracker{Instrument: instrument, Multiplier: multiplier}
}

// Shares returns the tracker's net position (long minus short).
func (p *PositionTracker) Shares() float64 { return p.longPos - p.shortPos }

func (p *PositionTracker) record(t TradeRecord) {
	p.allTrades = append(p.allTrades, t)
	p.currTrades = append(p.currTrades, t)
	p.currTradedVolume += t.Quantity
}

// Buy increases (or opens) the long side.
func (p *PositionTracker) Buy(dt time.Time, quantity, price, commission, slippage float64) {
	action := IncreaseLong
	if p.longPos == 0 {
		action = EntryLong
	}
	cost := p.longAvgPrice*p.longPos + price*quantity
	p.longPos += quantity
	p.longAvgPrice = cost / p.longPos

	p.commissions += commission
	p.slippages += slippage
	p.record(TradeRecord{DateTime: dt, Action: action, Price: price, Quantity: quantity})
}

// Sell closes some or all of the long side, computing realized P&L and
// return on the closed quantity.
func (p *PositionTracker) Sell(dt time.Time, quantity, price, commission, slippage float64) {
	action := ReduceLong
	if quantity == p.longPos {
		action = ExitLong
	}

	p.lastNetProfit = (price - p.longAvgPrice) * quantity * p.Multiplier
	p.lastReturn = p.lastNetProfit / (p.longAvgPrice * quantity * p.Multiplier)

	p.longPos -= quantity
	if p.longPos == 0 {
		p.longAvgPrice = 0
	}

	p.commissions += commission
	p.slippages += slippage
	p.record(TradeRecord{DateTime: dt, Action: action, Price: price, Quantity: quantity})
}

// SellShort increases (or opens) the short side.
func (p *PositionTracker) SellShort(dt time.Time, quantity, price, commission, slippage float64) {
	action := IncreaseShort
	if p.shortPos == 0 {
		action = EntryShort
	}
	cost := p.shortAvgPrice*p.shortPos + price*quantity
	p.shortPos += quantity
	p.shortAvgPrice = cost / p.shortPos

	p.commissions += commission
	p.slippages += slippage
	p.record(TradeRecord{DateTime: dt, Action: action, Price: price, Quantity: quantity})
}

// Cover closes some or all of the short side.
func (p *PositionTracker) Cover(dt time.Time, quantity, price, commission, slippage float64) {
	action := ReduceShort
	if quantity == p.shortPos {
		action = ExitShort
	}

	p.lastNetProfit = (p.shortAvgPrice - price) * quantity * p.Multiplier
	p.lastReturn = p.lastNetProfit / (p.shortAvgPrice * quantity * p.Multiplier)

	p.shortPos -= quantity
	if p.shortPos == 0 {
		p.shortAvgPrice = 0
	}

	p.commissions += commission
	p.slippages += slippage
	p.record(TradeRecord{DateTime: dt, Action: action, Price: price, Quantity: quantity})
}

// LastNetProfit returns the realized P&L from the most recent Sell/Cover.
func (p *PositionTracker) LastNetProfit() float64 { return p.lastNetProfit }

// LastReturn returns the realized return from the most recent Sell/Cover.
func (p *PositionTracker) LastReturn() float64 { return p.lastReturn }

// IsFlat reports whether net shares have returned to zero, i.e. a
// round-trip has just closed.
func (p *PositionTracker) IsFlat() bool { return p.Shares() == 0 }

// TakeClosePosTrade snapshots the accumulated trade set since the last
// zero-crossing into a ClosePosTrade and resets the per-cycle counters.
// Call only when IsFlat() is true.
// RealizedProfit covers every exit of the cycle, not only the last one: with
// the position flat, it is the cycle's sell-side proceeds minus its buy-side
// cost.
func (p *PositionTracker) TakeClosePosTrade() ClosePosTrade {
	var realized float64
	for _, t := range p.currTrades {
		switch t.Action {
		case EntryLong, IncreaseLong, ReduceShort, ExitShort:
			realized -= t.Price * t.Quantity
		default:
			realized += t.Price * t.Quantity
		}
	}
	out := ClosePosTrade{
		Instrument:     p.Instrument,
		RealizedProfit: realized * p.Multiplier,
		TradedVolume:   p.currTradedVolume,
		Commissions:    p.commissions,
		Slippages:      p.slippages,
		Trades:         append([]TradeRecord(nil), p.currTrades...),
	}
	p.currTrades = nil
	p.currTradedVolume = 0
	p.commissions = 0
	p.slippages = 0
	return out
}
