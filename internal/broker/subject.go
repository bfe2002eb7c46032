package broker

import (
	"time"

	"github.com/algosenses/xBacktest-sub001/internal/bar"
)

// queuedBar is one instrument's bar waiting to be processed on the broker's
// Dispatch call this tick.
type queuedBar struct {
	instrument string
	datetime   time.Time
	bar        bar.Bar
}

// Subject adapts a Broker into a dispatcher.Subject at a priority number
// higher than the data feeds (spec.md §4.2: "the broker is registered as a
// subject with priority higher than data feeds so that bars are delivered
// before the broker processes its pending-order queue for that timestamp").
// QueueBar is meant to be wired as a feed's NewBar subscriber: since feeds
// dispatch first within a tick, every QueueBar call for this timestamp has
// already happened by the time the dispatcher reaches this Subject's turn.
type Subject struct {
	b        *Broker
	priority int

	pending     []queuedBar
	pendingTime time.Time
	havePending bool
}

// NewSubject wraps b as a dispatcher.Subject at the given priority.
func NewSubject(b *Broker, priority int) *Subject {
	return &Subject{b: b, priority: priority}
}

// QueueBar stages a bar for processing on this tick's Dispatch call. Intended
// to be called synchronously from a feed's NewBar handler.
func (s *Subject) QueueBar(instrument string, now time.Time, bc bar.Bar) {
	s.pending = append(s.pending, queuedBar{instrument: instrument, datetime: now, bar: bc})
	s.pendingTime = now
	s.havePending = true
}

// PeekDateTime reports the timestamp of any bars queued this tick, or false
// once they have been processed.
func (s *Subject) PeekDateTime() (time.Time, bool) {
	if !s.havePending {
		return time.Time{}, false
	}
	return s.pendingTime, true
}

// Dispatch processes every bar queued this tick against the wrapped Broker,
// in the order they were queued, then clears the queue.
func (s *Subject) Dispatch() (bool, error) {
	if !s.havePending {
		return false, nil
	}
	pending := s.pending
	s.pending = nil
	s.havePending = false

	for _, q := range pending {
		if err := s.b.OnBar(q.instrument, q.datetime, q.bar); err != nil {
			return false, err
		}
	}
	return true, nil
}

// EOF always reports false: the broker never ends the run on its own: the
// dispatcher reaches eof once every feed is exhausted, regardless of the
// broker's queue state.
func (s *Subject) EOF() bool { return false }

func (s *Subject) Start() error  { return nil }
func (s *Subject) Stop() error   { return nil }
func (s *Subject) Join() error   { return nil }
func (s *Subject) Priority() int { return s.priority }
