// Package dispatcher implements the time-ordered event dispatcher (C2,
// spec.md §4.2): it merges N Subject collaborators by timestamp and drives
// the simulated clock one tick at a time.
package dispatcher

import (
	"fmt"
	"sort"
	"time"

	"github.com/algosenses/xBacktest-sub001/internal/event"
)

// Subject is anything the dispatcher can drive: a market data feed or the
// broker (spec.md §4.2). Priority is a static dispatch-order tiebreak; lower
// values dispatch earlier within the same tick. The broker is registered at
// a higher priority number than data feeds so bars are delivered before it
// processes its pending-order queue for that timestamp.
type Subject interface {
	PeekDateTime() (time.Time, bool) // ok=false means exhausted
	Dispatch() (bool, error)         // returns whether anything was emitted
	EOF() bool
	Start() error
	Stop() error
	Join() error
	Priority() int
}

// Dispatcher owns the registered subjects and the global TimeElapsed
// channel; it does not itself know about bars, orders, or strategies.
type Dispatcher struct {
	subjects []Subject

	prevDateTime time.Time
	currDateTime time.Time
	started      bool
	stopRequest  bool

	TimeElapsed  event.Channel[event.TimeElapsed]
	Start_       event.Channel[struct{}]
	Idle         event.Channel[struct{}]
	TickComplete event.Channel[struct{}]
}

// New returns an empty Dispatcher.
func New() *Dispatcher {
	return &Dispatcher{}
}

// AddSubject registers a subject, de-duplicated by identity and kept sorted
// by ascending priority (spec.md §4.2's "addSubject() dedup+sort-by-priority").
func (d *Dispatcher) AddSubject(s Subject) {
	for _, existing := range d.subjects {
		if existing == s {
			return
		}
	}
	d.subjects = append(d.subjects, s)
	sort.SliceStable(d.subjects, func(i, j int) bool {
		return d.subjects[i].Priority() < d.subjects[j].Priority()
	})
}

// CurrentTime returns the timestamp of the tick currently being (or most
// recently) dispatched, for callers that need to timestamp side effects
// triggered from within a handler (e.g. a strategy placing an order).
func (d *Dispatcher) CurrentTime() time.Time {
	return d.currDateTime
}

// Stop requests termination; the current tick always completes first
// (spec.md §5's cancellation rule).
func (d *Dispatcher) Stop() {
	d.stopRequest = true
}

// Run executes the full run loop: start all subjects, emit Start, loop
// ticks until eof or Stop(), then stop+join all subjects (spec.md §4.2).
func (d *Dispatcher) Run() error {
	for _, s := range d.subjects {
		if err := s.Start(); err != nil {
			return fmt.Errorf("dispatcher: subject start failed: %w", err)
		}
	}
	d.started = true
	d.Start_.Emit(time.Time{}, struct{}{})

	for {
		if d.stopRequest {
			break
		}
		dispatched, eof, err := d.Tick()
		if err != nil {
			return err
		}
		if eof {
			break
		}
		if !dispatched {
			d.Idle.Emit(d.currDateTime, struct{}{})
		}
	}

	for _, s := range d.subjects {
		if err := s.Stop(); err != nil {
			return fmt.Errorf("dispatcher: subject stop failed: %w", err)
		}
	}
	for _, s := range d.subjects {
		if err := s.Join(); err != nil {
			return fmt.Errorf("dispatcher: subject join failed: %w", err)
		}
	}
	return nil
}

// Tick executes one dispatcher step (spec.md §4.2's "Tick algorithm"):
// find the minimum pending timestamp across non-eof subjects, collect every
// subject at that minimum, fatal-error on timeline regression, emit
// TimeElapsed, then dispatch the collected subjects in ascending priority
// order. Returns (dispatched, eof, error).
func (d *Dispatcher) Tick() (bool, bool, error) {
	var (
		haveMin bool
		min     time.Time
	)
	for _, s := range d.subjects {
		if s.EOF() {
			continue
		}
		t, ok := s.PeekDateTime()
		if !ok {
			continue
		}
		if !haveMin || t.Before(min) {
			min = t
			haveMin = true
		}
	}
	if !haveMin {
		return false, true, nil
	}

	last := d.prevDateTime
	if d.currDateTime.After(last) {
		last = d.currDateTime
	}
	if !last.IsZero() && min.Before(last) {
		panic(fmt.Sprintf("dispatcher: timeline regression: %s is before previously dispatched %s", min, last))
	}

	prev := d.currDateTime
	d.prevDateTime = d.currDateTime
	d.currDateTime = min

	d.TimeElapsed.Emit(min, event.TimeElapsed{Prev: prev, Curr: min})

	dispatchedAny := false
	for _, s := range d.subjects {
		if s.EOF() {
			continue
		}
		t, ok := s.PeekDateTime()
		if !ok || !t.Equal(min) {
			continue
		}
		emitted, err := s.Dispatch()
		if err != nil {
			return dispatchedAny, false, err
		}
		if emitted {
			dispatchedAny = true
		}
	}
	if dispatchedAny {
		// Fires after every subject (feeds, then the broker) has finished
		// this tick, so listeners that need a post-fill snapshot (the
		// returns base) have a clean hook that isn't tied to any one
		// subject's own event.
		d.TickComplete.Emit(min, struct{}{})
	}
	return dispatchedAny, false, nil
}
