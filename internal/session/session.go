// Package session provides read-only enrichment a strategy may consult
// during onBar: a calendar of scheduled high-impact events and a gate that
// answers whether the current bar falls inside a pre-event blackout window.
//
// Neither type places, cancels, or gates an order itself. Acting on the
// answer (holding back a signal, skipping an entry) is the strategy's own
// decision; baking that decision into the kernel would change dispatch
// semantics, which the simulation core does not allow.
package session

import (
	"time"

	"github.com/algosenses/xBacktest-sub001/libs/calendar"
	"github.com/algosenses/xBacktest-sub001/libs/eventtrader"
)

// EventCalendar is a thin, read-only view over a calendar.Store for use by
// strategies during a backtest run. It never mutates the underlying store.
type EventCalendar struct {
	store *calendar.Store
}

// NewEventCalendar wraps an already-populated calendar.Store opened via
// calendar.OpenStore.
func NewEventCalendar(store *calendar.Store) *EventCalendar {
	return &EventCalendar{store: store}
}

// Upcoming returns scheduled events for currency within window of now, at or
// above minImpact. An empty currency matches all currencies.
func (c *EventCalendar) Upcoming(now time.Time, window time.Duration, currency string, minImpact calendar.Impact) []calendar.EconEvent {
	return c.store.Query(now, now.Add(window), "", currency, minImpact)
}

// NearestHighImpact returns the high-impact events within window of now,
// in either direction, used to answer "is something about to happen".
func (c *EventCalendar) NearestHighImpact(now time.Time, window time.Duration) []calendar.EconEvent {
	from := now.Add(-window)
	to := now.Add(window)
	return c.store.Query(from, to, "", "", calendar.ImpactHigh)
}

// SessionGate wraps an eventtrader.EventGate to answer, for a given bar
// time and instrument currency, whether a strategy is currently inside a
// pre-event hold or blackout window.
type SessionGate struct {
	gate *eventtrader.EventGate
}

// NewSessionGate builds a SessionGate over the given calendar store and
// phase/gate configuration. Pass eventtrader.DefaultPhaseDetectorConfig and
// eventtrader.DefaultEventGateConfig for conservative defaults.
func NewSessionGate(store *calendar.Store, phaseCfg eventtrader.PhaseDetectorConfig, gateCfg eventtrader.EventGateConfig) *SessionGate {
	detector := eventtrader.NewPhaseDetector(store, phaseCfg)
	return &SessionGate{gate: eventtrader.NewEventGate(detector, gateCfg)}
}

// Check returns the gate's verdict for strategyID at time now for the given
// currencies. The strategy decides what to do with GateHold/GateBlock; the
// gate itself never touches an order.
func (g *SessionGate) Check(strategyID string, now time.Time, currencies ...string) eventtrader.GateResult {
	return g.gate.Check(strategyID, now, currencies...)
}

// InBlackout is a convenience predicate for the common case of "should I
// skip this bar entirely".
func (g *SessionGate) InBlackout(strategyID string, now time.Time, currencies ...string) bool {
	return g.Check(strategyID, now, currencies...).Decision == eventtrader.GateBlock
}
