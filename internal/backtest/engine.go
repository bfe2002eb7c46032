// Package backtest wires the dispatcher, broker, fill strategies, returns
// base and downstream analyzers into a single runnable Engine (spec.md §2's
// "system overview" component graph).
package backtest

import (
	"time"

	"github.com/google/uuid"

	"github.com/algosenses/xBacktest-sub001/internal/analyzer"
	"github.com/algosenses/xBacktest-sub001/internal/bar"
	"github.com/algosenses/xBacktest-sub001/internal/broker"
	"github.com/algosenses/xBacktest-sub001/internal/contract"
	"github.com/algosenses/xBacktest-sub001/internal/dispatcher"
	"github.com/algosenses/xBacktest-sub001/internal/event"
	"github.com/algosenses/xBacktest-sub001/internal/feed"
	"github.com/algosenses/xBacktest-sub001/internal/order"
	"github.com/algosenses/xBacktest-sub001/internal/strategy"
)

// feedPriority and brokerPriority fix the dispatch tie-break order within a
// tick (spec.md §4.2): feeds must dispatch, emitting NewBar, before the
// broker processes orders against those same bars.
const (
	feedPriority   = 0
	brokerPriority = 1
)

// Config is the engine's startup configuration.
type Config struct {
	InitialCash        float64
	AllowFractions     bool
	AllowNegativeCash  bool
	VolumeLimit        float64
	TradingDayEndOfDay bool
	TradingDayEndHour  int

	// DailySharpe selects the Sharpe analyzer's aggregation mode (spec.md
	// §4.7): true chains intraday returns into daily returns, false treats
	// every bar as its own observation.
	DailySharpe bool
	// RiskFreeRate feeds SharpeRatio's annualization formula.
	RiskFreeRate float64

	// RunID identifies this run in stored/reported output (SPEC_FULL.md
	// Part C.3). Left empty, New generates one.
	RunID string
}

// Result is the post-run reporting surface (spec.md §6, "BacktestingMetrics
// (aggregate), DailyMetrics list, returns/equity series, closed-trades list").
type Result struct {
	RunID          string
	FinalEquity    float64
	FinalCash      float64
	MaxDrawdown    float64
	MaxDrawdownPct float64
	SharpeRatio    float64

	Profits    []analyzer.ClosePosTrade
	Losses     []analyzer.ClosePosTrade
	EvenTrades []analyzer.ClosePosTrade

	TotalTradeNum     int
	TotalNetProfits   float64
	TotalTradedVolume float64
	TotalTradeCost    float64

	DailyMetrics []analyzer.DailyMetrics
	Returns      []analyzer.Returns
}

// Engine ties the dispatcher, feed(s), broker, returns base and analyzer
// chain together, and drives a Strategy through its callbacks.
type Engine struct {
	cfg Config

	contracts *contract.Registry
	feed      *feed.Feed
	broker    *broker.Broker
	dsp       *dispatcher.Dispatcher

	returnsBase *analyzer.ReturnsBase
	drawdown    *analyzer.Drawdown
	sharpe      *analyzer.SharpeRatio
	trades      *analyzer.Trades

	returnsSeries []analyzer.Returns

	strat   strategy.Strategy
	actions *strategy.Actions

	warn func(format string, args ...any)
}

// New constructs an Engine. contracts must already be populated (spec.md §6:
// "loaded once before run()").
func New(cfg Config, contracts *contract.Registry, strat strategy.Strategy) *Engine {
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	b := broker.New(broker.Config{
		InitialCash:        cfg.InitialCash,
		AllowFractions:     cfg.AllowFractions,
		AllowNegativeCash:  cfg.AllowNegativeCash,
		VolumeLimit:        cfg.VolumeLimit,
		TradingDayEndOfDay: cfg.TradingDayEndOfDay,
		TradingDayEndHour:  cfg.TradingDayEndHour,
	}, contracts)

	e := &Engine{
		cfg:         cfg,
		contracts:   contracts,
		feed:        feed.New(feedPriority),
		broker:      b,
		dsp:         dispatcher.New(),
		returnsBase: analyzer.NewReturnsBase(),
		drawdown:    analyzer.NewDrawdown(),
		sharpe:      analyzer.NewSharpeRatio(cfg.DailySharpe),
		trades: analyzer.NewTrades(
			func(instrument string) float64 {
				c, err := contracts.Lookup(instrument)
				if err != nil {
					return 1
				}
				return c.Multiplier
			},
			b.Equity,
		),
		strat: strat,
		warn:  func(string, ...any) {},
	}

	e.actions = strategy.NewActions(b, func() time.Time { return e.dsp.CurrentTime() })

	brokerSubject := broker.NewSubject(b, brokerPriority)
	e.feed.NewBar.Subscribe(func(now time.Time, bc bar.Bar) {
		brokerSubject.QueueBar(bc.Instrument, now, bc)
	})

	e.dsp.AddSubject(e.feed)
	e.dsp.AddSubject(brokerSubject)

	e.wireStrategyAndAnalyzers()
	return e
}

// SetWarnLogger installs a logging hook forwarded to the broker for
// recoverable-issue warnings (spec.md §7).
func (e *Engine) SetWarnLogger(fn func(format string, args ...any)) {
	if fn == nil {
		return
	}
	e.warn = fn
	e.broker.SetWarnLogger(fn)
}

func (e *Engine) wireStrategyAndAnalyzers() {
	e.returnsBase.Attach(e.broker)

	// TickComplete fires once per tick, after every feed and the broker
	// subject have both dispatched, so ReturnsBase sees equity with this
	// tick's fills already applied regardless of how many instruments
	// shared the tick (spec.md §4.6: "observes equity after broker
	// processing").
	e.dsp.TickComplete.Subscribe(func(now time.Time, _ struct{}) {
		e.returnsBase.OnBar(now, e.broker.Equity())
	})

	e.returnsBase.NewReturns.Subscribe(func(now time.Time, r analyzer.Returns) {
		e.returnsSeries = append(e.returnsSeries, r)
		e.drawdown.Update(now, r.Equity)
		e.sharpe.OnReturns(now, r.NetReturn)
	})

	e.broker.OrderUpdates.Subscribe(func(now time.Time, evt order.Event) {
		e.trades.OnOrderUpdate(evt)
		if e.strat != nil {
			e.strat.OnOrderUpdated(evt)
		}
	})

	e.broker.TradingDays.Subscribe(func(_ time.Time, td event.TradingDay) {
		e.trades.OnNewTradingDay(td.Prev)
	})

	if e.strat != nil {
		e.feed.NewBar.Subscribe(func(_ time.Time, bc bar.Bar) {
			e.strat.OnBar(bc)
		})
		e.dsp.TimeElapsed.Subscribe(func(_ time.Time, te event.TimeElapsed) {
			e.strat.OnTimeElapsed(te.Prev, te.Curr)
		})
	}
}

// AddSeries registers one instrument's historical bars with the engine's
// feed.
func (e *Engine) AddSeries(instrument string, bars []bar.Bar) {
	e.feed.AddSeries(instrument, bars)
}

// Actions returns the engine-provided order-placement handle a Strategy uses
// from its callbacks (spec.md §6).
func (e *Engine) Actions() *strategy.Actions { return e.actions }

// Broker exposes the underlying broker for read-only reporting.
func (e *Engine) Broker() *broker.Broker { return e.broker }

// Run drives the dispatcher's full run loop (spec.md §4.2), invoking the
// strategy's OnStart/OnStop around it, and returns the aggregated Result.
func (e *Engine) Run() (Result, error) {
	if e.strat != nil {
		e.strat.OnStart()
	}
	if err := e.dsp.Run(); err != nil {
		return Result{}, err
	}
	if e.strat != nil {
		e.strat.OnStop()
	}
	return e.buildResult(), nil
}

func (e *Engine) buildResult() Result {
	return Result{
		RunID:             e.cfg.RunID,
		FinalEquity:       e.broker.Equity(),
		FinalCash:         e.broker.Cash(),
		MaxDrawdown:       e.drawdown.MaxDrawdown(),
		MaxDrawdownPct:    e.drawdown.MaxDrawdownPct(),
		SharpeRatio:       e.sharpe.SharpeRatio(e.cfg.RiskFreeRate, true),
		Profits:           e.trades.Profits(),
		Losses:            e.trades.Losses(),
		EvenTrades:        e.trades.EvenTrades(),
		TotalTradeNum:     e.trades.TotalTradeNum(),
		TotalNetProfits:   e.trades.TotalNetProfits(),
		TotalTradedVolume: e.trades.TotalTradedVolume(),
		TotalTradeCost:    e.trades.TotalTradeCost(),
		DailyMetrics:      e.trades.DailyMetrics(),
		Returns:           append([]analyzer.Returns(nil), e.returnsSeries...),
	}
}
