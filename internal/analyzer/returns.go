// Package analyzer implements the downstream statistics chain (C6-C8,
// spec.md §4.6-4.8): returns, drawdown, Sharpe, trades and the position
// tracker that backs trade reporting.
package analyzer

import (
	"time"

	"github.com/algosenses/xBacktest-sub001/internal/broker"
	"github.com/algosenses/xBacktest-sub001/internal/event"
)

// Returns is the payload of a NewReturns emission: the net and cumulative
// return as of one bar, plus the equity value that produced them.
type Returns struct {
	DateTime   time.Time
	NetReturn  float64
	CumReturn  float64
	Equity     float64
}

// ReturnsBase is the broker-scoped returns computation of spec.md §4.6. The
// spec's source models it as a name-keyed singleton
// ("ReturnsAnalyzerBase") fetched via getOrCreateShared; spec.md §9
// explicitly asks for this to become an explicit optional slot on the
// broker instead of a string-keyed lookup, so ReturnsBase is wired
// directly by backtest.Engine rather than looked up through a registry.
type ReturnsBase struct {
	lastEquity float64
	cumReturn  float64
	attached   bool

	NewReturns event.Channel[Returns]
}

// NewReturnsBase constructs an unattached ReturnsBase; call Attach once the
// broker exists.
func NewReturnsBase() *ReturnsBase {
	return &ReturnsBase{}
}

// Attach initializes lastEquity from the broker's current equity, per
// spec.md §4.6 ("initialize equityPrev = broker.equity in attached(),
// before any bars arrive").
func (r *ReturnsBase) Attach(b *broker.Broker) {
	r.lastEquity = b.Equity()
	r.attached = true
}

// OnBar computes this bar's net and cumulative return from equityNow and
// emits NewReturns. If equityPrev is zero the net return is undefined; per
// spec.md §4.6 it is recorded as zero (boundary condition, not an error).
func (r *ReturnsBase) OnBar(now time.Time, equityNow float64) {
	var netReturn float64
	if r.lastEquity != 0 {
		netReturn = (equityNow - r.lastEquity) / r.lastEquity
	}
	r.lastEquity = equityNow
	r.cumReturn = (1+r.cumReturn)*(1+netReturn) - 1

	r.NewReturns.Emit(now, Returns{
		DateTime:  now,
		NetReturn: netReturn,
		CumReturn: r.cumReturn,
		Equity:    equityNow,
	})
}
