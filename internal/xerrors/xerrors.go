// Package xerrors implements the error-handling taxonomy SPEC_FULL.md Part
// B.2 maps onto spec.md §7: fatal invariant violations and user-input
// errors are wrapped as Fatal; a small fixed set of named conditions are
// sentinel errors checked with errors.Is.
//
// No engine package imports xerrors: the broker reports a duplicate order
// id, an inactive order on cancel and a bar-time regression with plain
// fmt.Errorf errors that do not wrap these sentinels, and the dispatcher
// panics on a timeline regression. The descriptions below name the
// condition each value stands for.
package xerrors

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateOrderID is returned when an order id collides with an
	// active or historical order (spec.md §4.5: "Duplicate id is a hard
	// error").
	ErrDuplicateOrderID = errors.New("xerrors: duplicate order id")
	// ErrUnknownInstrument is returned when an order or bar references an
	// instrument with no registered contract (spec.md §7's user-input error
	// kind).
	ErrUnknownInstrument = errors.New("xerrors: unknown instrument")
	// ErrOrderNotActive is returned when an operation expects an order in an
	// active state but finds one already terminal.
	ErrOrderNotActive = errors.New("xerrors: order is not active")
	// ErrTimelineRegression is returned when a data source delivers a bar
	// earlier than one already dispatched (spec.md §4.2's fatal invariant).
	ErrTimelineRegression = errors.New("xerrors: timeline regression")
)

// Fatal wraps an error that indicates an engine bug or a malformed request:
// spec.md §7's "invariant violation" and "user-input error" kinds, which
// never propagate silently. Engine.Run does not construct Fatal values; it
// returns the errors of the dispatcher and its subjects as they are.
type Fatal struct {
	err error
}

// NewFatal wraps err as a Fatal error.
func NewFatal(err error) *Fatal {
	return &Fatal{err: err}
}

// Fatalf formats a message and wraps it as a Fatal error.
func Fatalf(format string, args ...any) *Fatal {
	return &Fatal{err: fmt.Errorf(format, args...)}
}

func (f *Fatal) Error() string { return f.err.Error() }
func (f *Fatal) Unwrap() error { return f.err }

// IsFatal reports whether err (or anything it wraps) is a Fatal error.
func IsFatal(err error) bool {
	var f *Fatal
	return errors.As(err, &f)
}
