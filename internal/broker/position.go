package broker

import (
	"time"

	"github.com/algosenses/xBacktest-sub001/internal/order"
)

// lot is a single open sub-position, FIFO-ordered within Position.Lots, used
// to close out shares in acquisition order (spec.md §3 "Position (broker-side)").
type lot struct {
	Quantity float64
	Price    float64
	OpenedAt time.Time
}

// Position is the broker's per-instrument bookkeeping: net shares, average
// cost basis, and the FIFO lot list backing it. Long and short shares are
// mutually exclusive — a position is either net long, net short, or flat.
type Position struct {
	Instrument string
	Shares     float64 // positive = long, negative = short, 0 = flat
	Lots       []lot
	LastMark   float64
}

// MarketValue is the position's mark-to-market value at the last seen price.
func (p *Position) MarketValue(multiplier float64) float64 {
	return p.Shares * p.LastMark * multiplier
}

// applyFill mutates the position for one committed fill and returns the
// realized P&L of any lots closed by this fill (spec.md §4.5 "Position
// update semantics"). Buy/SellShort add a new lot. Sell/BuyToCover close
// existing lots FIFO; realized P&L = (exitPrice - entryPrice) * qty *
// multiplier, sign-flipped for the short side. A fill quantity larger than
// the open lots flips the position: the remainder opens a new lot on the
// opposite side.
func (p *Position) applyFill(action order.Action, price, qty float64, multiplier float64, at time.Time) (realized float64) {
	if action.IsOpen() {
		p.Lots = append(p.Lots, lot{Quantity: qty, Price: price, OpenedAt: at})
		if action == order.SellShort {
			p.Shares -= qty
		} else {
			p.Shares += qty
		}
		return 0
	}

	// Closing side (Sell closes long lots, BuyToCover closes short lots):
	// consume existing lots FIFO.
	remaining := qty
	for remaining > 1e-9 && len(p.Lots) > 0 {
		l := &p.Lots[0]
		closeQty := l.Quantity
		if closeQty > remaining {
			closeQty = remaining
		}
		if action == order.BuyToCover {
			realized += (l.Price - price) * closeQty * multiplier
		} else {
			realized += (price - l.Price) * closeQty * multiplier
		}
		l.Quantity -= closeQty
		remaining -= closeQty
		if l.Quantity <= 1e-9 {
			p.Lots = p.Lots[1:]
		}
	}

	if action == order.BuyToCover {
		p.Shares += qty - remaining
	} else {
		p.Shares -= qty - remaining
	}

	// Any quantity beyond the open lots flips the position: open a new lot
	// on the opposite side for the excess.
	if remaining > 1e-9 {
		p.Lots = append(p.Lots, lot{Quantity: remaining, Price: price, OpenedAt: at})
		if action == order.BuyToCover {
			p.Shares += remaining
		} else {
			p.Shares -= remaining
		}
	}

	if len(p.Lots) == 0 {
		p.Shares = 0
	}
	return realized
}

// AvgCost returns the share-weighted average price of the open lots on the
// position's current side, or 0 if flat.
func (p *Position) AvgCost() float64 {
	if len(p.Lots) == 0 {
		return 0
	}
	var totalQty, totalCost float64
	for _, l := range p.Lots {
		totalQty += l.Quantity
		totalCost += l.Quantity * l.Price
	}
	if totalQty == 0 {
		return 0
	}
	return totalCost / totalQty
}
