// Package broker implements the backtesting broker (C5, spec.md §4.5):
// cash/equity/margin bookkeeping, order acceptance and cancellation, and
// per-bar order matching against the configured fill strategy.
package broker

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/algosenses/xBacktest-sub001/internal/bar"
	"github.com/algosenses/xBacktest-sub001/internal/contract"
	"github.com/algosenses/xBacktest-sub001/internal/event"
	"github.com/algosenses/xBacktest-sub001/internal/fill"
	"github.com/algosenses/xBacktest-sub001/internal/order"
)

// Config is the broker's startup configuration (spec.md §4.5).
type Config struct {
	InitialCash        float64
	AllowFractions      bool
	AllowNegativeCash   bool
	VolumeLimit         float64 // fraction in [0,1], forwarded to the bar fill strategy
	TradingDayEndOfDay  bool    // whether to emit NewTradingDay on session-end crossings
	TradingDayEndHour   int     // hour-of-day (0-23) marking session end, used when TradingDayEndOfDay is true
}

// Broker holds positions and cash, accepts orders, applies fills against
// incoming bars, and emits OrderUpdate / NewTradingDay events.
type Broker struct {
	cfg Config

	cash               float64
	portfolioValue     float64
	margin             float64
	posProfit          float64
	totalCommissions   float64
	totalSlippages     float64
	maxMarginRequired  float64

	positions map[string]*Position
	contracts *contract.Registry

	activeOrderIDs []uint64 // insertion order, processed FIFO
	activeOrders   map[uint64]*order.Order
	orderHistory   map[uint64]*order.Order
	nextOrderID    uint64

	lastBars map[string]bar.Bar

	barStrategy  fill.Strategy
	tickStrategy fill.Strategy

	firstBarTime time.Time
	lastBarTime  time.Time

	OrderUpdates event.Channel[order.Event]
	TradingDays  event.Channel[event.TradingDay]

	warn func(format string, args ...any)
}

// New constructs a Broker. contracts must already be populated (spec.md §6:
// "loaded once before run()").
func New(cfg Config, contracts *contract.Registry) *Broker {
	b := &Broker{
		cfg:          cfg,
		cash:         cfg.InitialCash,
		positions:    make(map[string]*Position),
		contracts:    contracts,
		activeOrders: make(map[uint64]*order.Order),
		orderHistory: make(map[uint64]*order.Order),
		lastBars:     make(map[string]bar.Bar),
		barStrategy:  fill.NewDefaultStrategy(cfg.VolumeLimit, cfg.AllowFractions),
		tickStrategy: fill.NewTickStrategy(),
		warn:         func(string, ...any) {},
	}
	return b
}

// SetWarnLogger installs a logging hook used for recoverable-issue warnings
// (insufficient volume, negative-cash rejection) per spec.md §7.
func (b *Broker) SetWarnLogger(fn func(format string, args ...any)) {
	if fn != nil {
		b.warn = fn
	}
}

// Cash returns current cash.
func (b *Broker) Cash() float64 { return b.cash }

// Equity returns cash + mark-to-market value of all open positions.
func (b *Broker) Equity() float64 { return b.cash + b.portfolioValue }

// Margin returns the current margin figure.
func (b *Broker) Margin() float64 { return b.margin }

// AvailableCash returns equity - margin.
func (b *Broker) AvailableCash() float64 { return b.Equity() - b.margin }

// TotalCommissions returns the running total of commissions paid.
func (b *Broker) TotalCommissions() float64 { return b.totalCommissions }

// TotalSlippages returns the running total of slippage cost.
func (b *Broker) TotalSlippages() float64 { return b.totalSlippages }

// Shares returns the net position size for an instrument (positive long,
// negative short, 0 if flat or unknown).
func (b *Broker) Shares(instrument string) float64 {
	if p, ok := b.positions[instrument]; ok {
		return p.Shares
	}
	return 0
}

// NextOrderID allocates a monotonically increasing order id scoped to this
// broker instance (spec.md §9: "owned by the engine instance, never
// process-global").
func (b *Broker) NextOrderID() uint64 {
	b.nextOrderID++
	return b.nextOrderID
}

// PlaceOrder accepts a newly constructed order: assigns its submission
// timestamp, transitions Initial -> Submitted -> Accepted, and inserts it
// into the active-orders queue. Duplicate ids are a hard error.
func (b *Broker) PlaceOrder(o *order.Order, now time.Time) error {
	if _, exists := b.activeOrders[o.ID]; exists {
		return fmt.Errorf("broker: duplicate order id %d", o.ID)
	}
	if _, exists := b.orderHistory[o.ID]; exists {
		return fmt.Errorf("broker: duplicate order id %d", o.ID)
	}
	o.SubmittedAt = now
	o.SwitchState(order.Submitted)
	o.AcceptedAt = now
	o.SwitchState(order.Accepted)

	b.activeOrders[o.ID] = o
	b.activeOrderIDs = append(b.activeOrderIDs, o.ID)
	b.OrderUpdates.Emit(now, o.Snapshot(order.Execution{}))
	return nil
}

// CancelOrder cancels an active order and emits OrderUpdate(Canceled). It
// is an error to cancel an order that has already reached a terminal state.
func (b *Broker) CancelOrder(id uint64, now time.Time) error {
	o, ok := b.activeOrders[id]
	if !ok {
		return fmt.Errorf("broker: order %d is not active", id)
	}
	o.SwitchState(order.Canceled)
	b.retireOrder(o, now)
	return nil
}

func (b *Broker) retireOrder(o *order.Order, now time.Time) {
	delete(b.activeOrders, o.ID)
	for i, id := range b.activeOrderIDs {
		if id == o.ID {
			b.activeOrderIDs = append(b.activeOrderIDs[:i], b.activeOrderIDs[i+1:]...)
			break
		}
	}
	b.orderHistory[o.ID] = o
	b.OrderUpdates.Emit(now, o.Snapshot(order.Execution{}))
}

// strategyFor returns the fill strategy appropriate to a bar's resolution.
func (b *Broker) strategyFor(res bar.Resolution) fill.Strategy {
	if res == bar.Tick {
		return b.tickStrategy
	}
	return b.barStrategy
}

// OnBar is the broker's Subject-dispatch entry point for a single
// instrument's new bar (spec.md §4.5): it marks the position, revalues
// equity, checks the trading-day boundary, then matches pending orders.
func (b *Broker) OnBar(instrument string, now time.Time, bc bar.Bar) error {
	if !b.firstBarTime.IsZero() && b.lastBarTime.After(now) {
		return fmt.Errorf("broker: timeline regression on %s: %s after %s", instrument, b.lastBarTime, now)
	}
	if b.firstBarTime.IsZero() {
		b.firstBarTime = now
	}

	if b.cfg.TradingDayEndOfDay && !b.lastBarTime.IsZero() && b.crossedTradingDayEnd(b.lastBarTime, now) {
		b.cancelExpiredGTCFalse(now)
		b.TradingDays.Emit(now, event.TradingDay{Prev: b.lastBarTime, Curr: now})
	}
	b.lastBarTime = now

	b.lastBars[instrument] = bc
	b.markPosition(instrument, bc.Close)
	b.recomputeEquity()

	b.strategyFor(bc.Resolution).OnBar(instrument, bc)

	if err := b.processOrders(instrument, now, bc); err != nil {
		return err
	}

	b.recomputeEquity()
	return nil
}

// crossedTradingDayEnd reports whether (prev, curr] straddles the
// configured TradingDayEndHour boundary: it finds the first end-of-day
// instant strictly after prev and reports whether curr has reached it.
// A multi-day gap between prev and curr always crosses at least one
// boundary.
func (b *Broker) crossedTradingDayEnd(prev, curr time.Time) bool {
	loc := prev.Location()
	boundary := time.Date(prev.Year(), prev.Month(), prev.Day(), b.cfg.TradingDayEndHour, 0, 0, 0, loc)
	if !boundary.After(prev) {
		boundary = boundary.AddDate(0, 0, 1)
	}
	return !curr.Before(boundary)
}

func (b *Broker) cancelExpiredGTCFalse(now time.Time) {
	for _, id := range append([]uint64(nil), b.activeOrderIDs...) {
		o := b.activeOrders[id]
		if !o.GoodTillCanceled {
			o.SwitchState(order.Canceled)
			b.retireOrder(o, now)
		}
	}
}

func (b *Broker) markPosition(instrument string, lastClose float64) {
	p, ok := b.positions[instrument]
	if !ok {
		p = &Position{Instrument: instrument}
		b.positions[instrument] = p
	}
	p.LastMark = lastClose
}

func (b *Broker) recomputeEquity() {
	var total float64
	for instrument, p := range b.positions {
		c, err := b.contracts.Lookup(instrument)
		mult := 1.0
		if err == nil {
			mult = c.Multiplier
		}
		total += p.MarketValue(mult)
	}
	b.portfolioValue = total
}

// processOrders matches every active order against bc, in FIFO insertion
// order, per spec.md §4.5.
func (b *Broker) processOrders(instrument string, now time.Time, bc bar.Bar) error {
	ids := make([]uint64, 0, len(b.activeOrderIDs))
	for _, id := range b.activeOrderIDs {
		if o := b.activeOrders[id]; o != nil && o.Instrument == instrument {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	strategy := b.strategyFor(bc.Resolution)

	for _, id := range ids {
		o, ok := b.activeOrders[id]
		if !ok {
			continue // canceled by a trading-day boundary check earlier this tick
		}
		if !o.IsActive() {
			continue
		}

		res, err := b.dispatchFill(strategy, o, bc)
		if err != nil {
			return err
		}
		if res.Quantity <= 0 {
			if o.StopHit && (o.Type == order.Stop || o.Type == order.StopLimit) {
				log.Printf("[broker] order=%d instrument=%s type=%s stop hit but insufficient volume to fill at %s",
					o.ID, instrument, o.Type, bc.DateTime)
			}
			continue
		}

		c, err := b.contracts.Lookup(instrument)
		if err != nil {
			return err
		}
		commission := c.Commission.Commission(res.Price, res.Quantity)
		slippage := c.Slippage.Slippage(res.Price, res.Quantity, bc.Volume)

		committed, err := b.commit(o, bc, res, commission, slippage, c.Multiplier, now)
		if err != nil {
			return err
		}
		if committed {
			strategy.OnOrderFilled(o, bc, res.Quantity)
			if o.State.IsTerminal() {
				b.retireOrder(o, now)
			}
		}
	}
	return nil
}

func (b *Broker) dispatchFill(strategy fill.Strategy, o *order.Order, bc bar.Bar) (fill.Result, error) {
	switch o.Type {
	case order.Market:
		return strategy.FillMarket(o, bc, 0)
	case order.Limit:
		return strategy.FillLimit(o, bc, 0)
	case order.Stop:
		return strategy.FillStop(o, bc, 0)
	case order.StopLimit:
		return strategy.FillStopLimit(o, bc, 0)
	default:
		return fill.Result{}, fmt.Errorf("broker: unknown order type %s", o.Type)
	}
}

// commit applies the commit rule from spec.md §4.5: a fill is committed iff
// AllowNegativeCash is set, or post-fill cash remains >= 0.
func (b *Broker) commit(o *order.Order, bc bar.Bar, res fill.Result, commission, slippage, multiplier float64, now time.Time) (bool, error) {
	sign := 1.0
	if o.Action.IsSell() {
		sign = -1.0
	}
	cashDelta := -sign*res.Price*res.Quantity*multiplier - commission - slippage

	if !b.cfg.AllowNegativeCash && b.cash+cashDelta < 0 {
		b.warn("broker: order %d rejected, insufficient cash (would go to %.2f)", o.ID, b.cash+cashDelta)
		return false, nil
	}

	p, ok := b.positions[o.Instrument]
	if !ok {
		p = &Position{Instrument: o.Instrument}
		b.positions[o.Instrument] = p
	}
	realized := p.applyFill(o.Action, res.Price, res.Quantity, multiplier, now)
	p.LastMark = bc.Close
	b.posProfit += realized

	b.cash += cashDelta
	b.totalCommissions += commission
	b.totalSlippages += slippage

	if err := o.AddExecutionInfo(order.Execution{
		DateTime:   now,
		Price:      res.Price,
		Quantity:   res.Quantity,
		Commission: commission,
		Slippage:   slippage,
	}); err != nil {
		return false, err
	}

	b.recomputeEquity()
	b.OrderUpdates.Emit(now, o.Snapshot(order.Execution{
		DateTime: now, Price: res.Price, Quantity: res.Quantity, Commission: commission, Slippage: slippage,
	}))
	return true, nil
}
