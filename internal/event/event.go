// Package event implements the typed, ordered-fan-out event bus the kernel
// runs on (spec.md §4.1). Each event kind gets its own typed channel rather
// than a single bus with type-erased payloads, per the source's
// re-architecture guidance (spec.md §9).
package event

import "time"

// Handler receives a notification. datetime is the simulated timestamp at
// which the event occurred; payload carries the event-specific data (a Bar,
// an OrderUpdate, a Returns snapshot, or nil for timestamp-only events).
type Handler[T any] func(datetime time.Time, payload T)

// Channel is a single typed event kind: an ordered list of subscribed
// handlers plus the reentrancy-safe subscribe/emit contract from spec.md
// §4.1.
//
// Reentrancy contract: a handler that calls Subscribe while Emit is
// iterating does not see its new handler invoked during the current Emit;
// the new subscriber is staged and spliced in once Emit returns. Duplicate
// subscriptions are not detected (Go function values are not comparable):
// subscribing the same handler twice registers it twice, and each
// registration gets its own Token.
type Channel[T any] struct {
	handlers  []subscriber[T]
	pending   []subscriber[T]
	emitting  bool
	nextToken int
}

type subscriber[T any] struct {
	token   int
	handler Handler[T]
}

// Token identifies a subscription for later unsubscribe. Subscribe always
// mints a fresh token; calling it twice with the same handler registers it
// twice, there is no de-duplication by handler identity.
type Token int

// Subscribe registers a handler, returning a Token for Unsubscribe. If
// called during Emit, the handler is staged and takes effect starting with
// the next Emit call.
func (c *Channel[T]) Subscribe(h Handler[T]) Token {
	c.nextToken++
	tok := Token(c.nextToken)
	sub := subscriber[T]{token: int(tok), handler: h}
	if c.emitting {
		c.pending = append(c.pending, sub)
	} else {
		c.handlers = append(c.handlers, sub)
	}
	return tok
}

// Unsubscribe removes a previously subscribed handler. Safe to call during
// Emit; the removal is applied immediately to the live list (a handler
// unsubscribing itself or a sibling mid-emit will not be invoked again this
// Emit if it hasn't run yet, matching ordinary slice-iteration semantics).
func (c *Channel[T]) Unsubscribe(tok Token) {
	for i, s := range c.handlers {
		if s.token == int(tok) {
			c.handlers = append(c.handlers[:i], c.handlers[i+1:]...)
			return
		}
	}
	for i, s := range c.pending {
		if s.token == int(tok) {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return
		}
	}
}

// Emit invokes every currently-subscribed handler, in subscription order,
// with the given datetime and payload. Handlers subscribed during this call
// are deferred to the next Emit.
func (c *Channel[T]) Emit(datetime time.Time, payload T) {
	c.emitting = true
	for _, s := range c.handlers {
		s.handler(datetime, payload)
	}
	c.emitting = false
	if len(c.pending) > 0 {
		c.handlers = append(c.handlers, c.pending...)
		c.pending = nil
	}
}

// Len reports the number of live (non-pending) subscribers, mainly for
// tests asserting the deferred-subscribe contract.
func (c *Channel[T]) Len() int {
	return len(c.handlers)
}
