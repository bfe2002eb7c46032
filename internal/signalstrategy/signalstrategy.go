// Package signalstrategy adapts the indicator-driven strategy.Strategy
// interface from libs/strategies (Analyze(AnalysisInput) -> Signal) onto the
// event-driven kernel's strategy.Strategy interface (OnStart/OnBar/...), so
// the MA-crossover, MACD-crossover and RSI-momentum strategies the
// monorepo's research side already ships can drive backtest.Engine runs
// directly instead of being reimplemented.
//
// Adapter keeps a rolling window of recent bars, recomputes the indicator
// set libs/strategies.AnalysisInput needs on every bar, and translates
// Buy/Sell/Hold signals into at most one open position at a time: a Buy
// signal while flat opens a long, a Sell signal while long closes it (and,
// symmetrically, opens/closes a short). It never pyramids or straddles
// positions; that position-sizing policy belongs to the strategy being
// adapted, not to this package.
package signalstrategy

import (
	"context"
	"math"
	"time"

	"github.com/algosenses/xBacktest-sub001/internal/bar"
	"github.com/algosenses/xBacktest-sub001/internal/order"
	"github.com/algosenses/xBacktest-sub001/internal/session"
	"github.com/algosenses/xBacktest-sub001/internal/strategy"
	"github.com/algosenses/xBacktest-sub001/libs/strategies"
)

const maxWindow = 200

// posState tracks the adapter's current net position. It is distinct from
// order.Action because order.Buy is the zero value of that type, which
// would make a freshly constructed Adapter look "long" before any order is
// ever placed.
type posState int

const (
	flat posState = iota
	long
	short
)

// Adapter drives a libs/strategies.Strategy from kernel bar events.
type Adapter struct {
	instrument string
	inner      strategies.Strategy
	quantity   float64
	actions    *strategy.Actions
	gate       *session.SessionGate

	closes []float64
	highs  []float64
	lows   []float64
	vols   []int64

	position posState
}

// New builds an Adapter for instrument, trading quantity shares/contracts
// per signal, wrapping inner.
func New(instrument string, inner strategies.Strategy, quantity float64) *Adapter {
	return &Adapter{instrument: instrument, inner: inner, quantity: quantity}
}

// BindActions attaches the engine-provided order handle. Mirrors how
// backtest.Engine wires strategy.Actions into a user Strategy.
func (a *Adapter) BindActions(actions *strategy.Actions) {
	a.actions = actions
}

// UseSessionGate wires a read-only blackout gate the adapter consults
// before acting on a Buy/Sell signal. Passing nil (the zero value) leaves
// the adapter ungated, which is also its default.
func (a *Adapter) UseSessionGate(gate *session.SessionGate) {
	a.gate = gate
}

func (a *Adapter) OnStart() {}
func (a *Adapter) OnStop()  {}

func (a *Adapter) OnOrderUpdated(order.Event)         {}
func (a *Adapter) OnTimeElapsed(prev, curr time.Time) {}

// OnBar feeds the bar into the rolling indicator window, runs the wrapped
// strategy's Analyze, and acts on the resulting signal.
func (a *Adapter) OnBar(b bar.Bar) {
	if b.Instrument != a.instrument {
		return
	}
	a.push(b)

	input := a.buildInput(b)
	signal, err := a.inner.Analyze(context.Background(), input)
	if err != nil {
		return
	}

	if a.inBlackout(b.DateTime) {
		return
	}

	switch signal.Type {
	case strategies.SignalBuy:
		a.goLong()
	case strategies.SignalSell:
		a.goShort()
	}
}

// inBlackout consults the wired session gate, if any, for the strategy
// being adapted. An unwired gate never blocks.
func (a *Adapter) inBlackout(now time.Time) bool {
	if a.gate == nil {
		return false
	}
	return a.gate.InBlackout(a.inner.ID(), now)
}

func (a *Adapter) push(b bar.Bar) {
	a.closes = append(a.closes, b.Close)
	a.highs = append(a.highs, b.High)
	a.lows = append(a.lows, b.Low)
	a.vols = append(a.vols, int64(b.Volume))
	if len(a.closes) > maxWindow {
		a.closes = a.closes[1:]
		a.highs = a.highs[1:]
		a.lows = a.lows[1:]
		a.vols = a.vols[1:]
	}
}

func (a *Adapter) goLong() {
	if a.position == long || a.actions == nil {
		return
	}
	if a.position == short {
		if _, err := a.actions.BuyToCover(a.instrument, a.quantity); err == nil {
			a.position = flat
		}
		return
	}
	if _, err := a.actions.Buy(a.instrument, a.quantity); err == nil {
		a.position = long
	}
}

func (a *Adapter) goShort() {
	if a.position == short || a.actions == nil {
		return
	}
	if a.position == long {
		if _, err := a.actions.Sell(a.instrument, a.quantity); err == nil {
			a.position = flat
		}
		return
	}
	if _, err := a.actions.SellShort(a.instrument, a.quantity); err == nil {
		a.position = short
	}
}

func (a *Adapter) buildInput(b bar.Bar) strategies.AnalysisInput {
	return strategies.AnalysisInput{
		Symbol:         a.instrument,
		Price:          b.Close,
		Timestamp:      b.DateTime,
		RSI:            rsi(a.closes, 14),
		MACD:           macd(a.closes),
		SMA20:          sma(a.closes, 20),
		SMA50:          sma(a.closes, 50),
		SMA200:         sma(a.closes, 200),
		ATR:            atr(a.highs, a.lows, a.closes, 14),
		BollingerBands: bollinger(a.closes, 20),
		Volume:         int64(b.Volume),
		AvgVolume20:    avgVolume(a.vols, 20),
		MarketTrend:    trend(a.closes),
	}
}

func sma(closes []float64, n int) float64 {
	if len(closes) < n || n == 0 {
		return 0
	}
	window := closes[len(closes)-n:]
	var sum float64
	for _, c := range window {
		sum += c
	}
	return sum / float64(n)
}

func avgVolume(vols []int64, n int) int64 {
	if len(vols) < n || n == 0 {
		return 0
	}
	window := vols[len(vols)-n:]
	var sum int64
	for _, v := range window {
		sum += v
	}
	return sum / int64(n)
}

func atr(highs, lows, closes []float64, n int) float64 {
	if len(highs) < n+1 {
		return 0
	}
	var sum float64
	for i := len(highs) - n; i < len(highs); i++ {
		tr := highs[i] - lows[i]
		if i > 0 {
			tr = math.Max(tr, math.Max(math.Abs(highs[i]-closes[i-1]), math.Abs(lows[i]-closes[i-1])))
		}
		sum += tr
	}
	return sum / float64(n)
}

func rsi(closes []float64, n int) float64 {
	if len(closes) < n+1 {
		return 50
	}
	window := closes[len(closes)-n-1:]
	var gains, losses float64
	for i := 1; i < len(window); i++ {
		delta := window[i] - window[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}
	if losses == 0 {
		return 100
	}
	rs := (gains / float64(n)) / (losses / float64(n))
	return 100 - (100 / (1 + rs))
}

func ema(closes []float64, n int) float64 {
	if len(closes) == 0 {
		return 0
	}
	if len(closes) < n {
		n = len(closes)
	}
	k := 2.0 / float64(n+1)
	result := closes[len(closes)-n]
	for _, c := range closes[len(closes)-n+1:] {
		result = c*k + result*(1-k)
	}
	return result
}

func macd(closes []float64) strategies.MACD {
	fast := ema(closes, 12)
	slow := ema(closes, 26)
	value := fast - slow
	signal := value * 0.2 // smoothed single-pass approximation of a 9-period signal EMA
	return strategies.MACD{Value: value, Signal: signal, Histogram: value - signal}
}

func bollinger(closes []float64, n int) strategies.BollingerBands {
	mid := sma(closes, n)
	if mid == 0 || len(closes) < n {
		return strategies.BollingerBands{}
	}
	window := closes[len(closes)-n:]
	var variance float64
	for _, c := range window {
		variance += (c - mid) * (c - mid)
	}
	stdDev := math.Sqrt(variance / float64(n))
	return strategies.BollingerBands{
		Upper:  mid + 2*stdDev,
		Middle: mid,
		Lower:  mid - 2*stdDev,
	}
}

func trend(closes []float64) string {
	fastAvg := sma(closes, 20)
	slowAvg := sma(closes, 50)
	if fastAvg == 0 || slowAvg == 0 {
		return "neutral"
	}
	switch {
	case fastAvg > slowAvg:
		return "bullish"
	case fastAvg < slowAvg:
		return "bearish"
	default:
		return "neutral"
	}
}
