package fill

import (
	"github.com/algosenses/xBacktest-sub001/internal/bar"
	"github.com/algosenses/xBacktest-sub001/internal/order"
)

// DefaultStrategy is the bar-resolution fill algorithm of spec.md §4.4.1: a
// per-instrument, per-bar volume ledger caps how much of an order can fill
// against any single bar.
type DefaultStrategy struct {
	volumeLimit float64 // fraction of bar volume fillable per bar; 0 = unlimited
	volumeLeft  map[string]float64
	allowFrac   bool
}

// NewDefaultStrategy constructs a DefaultStrategy. volumeLimit must be in
// [0, 1]; 0 means unlimited (every order can fill its full remaining
// quantity in one bar, bar volume permitting). allowFractions controls
// whether fill sizes are truncated to whole units, mirroring the broker's
// own allowFractions setting.
func NewDefaultStrategy(volumeLimit float64, allowFractions bool) *DefaultStrategy {
	if volumeLimit < 0 || volumeLimit > 1 {
		panic("fill: volumeLimit must be in [0, 1]")
	}
	return &DefaultStrategy{
		volumeLimit: volumeLimit,
		volumeLeft:  make(map[string]float64),
		allowFrac:   allowFractions,
	}
}

// OnBar refreshes the per-instrument volume ledger for the bar about to be
// matched against.
func (s *DefaultStrategy) OnBar(instrument string, b bar.Bar) {
	if s.volumeLimit == 0 {
		return
	}
	s.volumeLeft[instrument] = float64(b.Volume) * s.volumeLimit
}

// OnOrderFilled decrements the ledger by the quantity just committed.
func (s *DefaultStrategy) OnOrderFilled(o *order.Order, _ bar.Bar, filledQty float64) {
	if s.volumeLimit != 0 {
		s.volumeLeft[o.Instrument] -= filledQty
	}
}

// calculateFillSize is the min(remaining, ledger) rule from spec.md
// §4.4.1, with allOrNone short-circuiting to all-or-zero.
func (s *DefaultStrategy) calculateFillSize(o *order.Order) float64 {
	var volumeLeft float64
	if s.volumeLimit > 0 {
		v, ok := s.volumeLeft[o.Instrument]
		if !ok {
			return 0
		}
		volumeLeft = v
	} else {
		volumeLeft = o.Remaining()
	}

	if !s.allowFrac {
		volumeLeft = float64(int64(volumeLeft))
	}

	if !o.AllOrNone {
		if volumeLeft < o.Remaining() {
			return volumeLeft
		}
		return o.Remaining()
	}
	if o.Remaining() <= volumeLeft {
		return o.Remaining()
	}
	return 0
}

// FillMarket implements spec.md §4.4.1's market-order rule: price is close
// if fillOnClose else open, for whatever size the volume ledger allows.
func (s *DefaultStrategy) FillMarket(o *order.Order, b bar.Bar, _ float64) (Result, error) {
	size := s.calculateFillSize(o)
	if size == 0 {
		return noFill, nil
	}
	price := b.Open
	if o.FillOnClose {
		price = b.Close
	}
	if price <= 0 {
		return noFill, errNonPositivePrice(o, price)
	}
	return Result{Price: price, Quantity: size}, nil
}

// FillLimit implements the limit-order rule: no fill unless the limit
// trigger penetrates this bar.
func (s *DefaultStrategy) FillLimit(o *order.Order, b bar.Bar, _ float64) (Result, error) {
	size := s.calculateFillSize(o)
	if size == 0 {
		return noFill, nil
	}
	price := limitPriceTrigger(o.Action, o.LimitPrice, b)
	if price <= 0 {
		return noFill, nil
	}
	return Result{Price: price, Quantity: size}, nil
}

// FillStop implements the stop-order rule: latches StopHit on first
// penetration, then fills at the trigger price on the triggering bar or at
// the open on any subsequent bar.
func (s *DefaultStrategy) FillStop(o *order.Order, b bar.Bar, _ float64) (Result, error) {
	var stopTrigger float64
	if !o.StopHit {
		stopTrigger = stopPriceTrigger(o.Action, o.StopPrice, b)
		o.StopHit = stopTrigger != 0
	}
	if !o.StopHit {
		return noFill, nil
	}

	size := s.calculateFillSize(o)
	if size == 0 {
		return noFill, nil // caller logs the "insufficient volume" warning
	}

	price := stopTrigger
	if price == 0 {
		price = b.Open
	}
	return Result{Price: price, Quantity: size}, nil
}

// FillStopLimit implements the stop-limit rule: once the stop latches, the
// limit trigger governs the fill price; if both trigger on the same bar,
// the stop-favorable bound wins (min for buys, max for sells).
func (s *DefaultStrategy) FillStopLimit(o *order.Order, b bar.Bar, _ float64) (Result, error) {
	var stopTrigger float64
	if !o.StopHit {
		stopTrigger = stopPriceTrigger(o.Action, o.StopPrice, b)
		o.StopHit = stopTrigger != 0
	}
	if !o.StopHit {
		return noFill, nil
	}

	size := s.calculateFillSize(o)
	if size == 0 {
		return noFill, nil
	}

	price := limitPriceTrigger(o.Action, o.LimitPrice, b)
	if price == 0 {
		return noFill, nil
	}
	if stopTrigger != 0 {
		if o.Action.IsBuy() {
			price = min(stopTrigger, o.LimitPrice)
		} else {
			price = max(stopTrigger, o.LimitPrice)
		}
	}
	return Result{Price: price, Quantity: size}, nil
}
