// Package observability implements the structured JSON event logging
// SPEC_FULL.md Part B.1 calls for, adapted from the team's
// libs/observability/log.go: one JSON line per event, written to an
// io.Writer, carrying run-scoped identifiers pulled from context.
package observability

import (
	"context"
	"encoding/json"
	"log"
	"io"
	"time"
)

type contextKey string

const runInfoKey contextKey = "backtest_run_info"

// RunInfo carries the identifiers a backtest run's log lines should be
// tagged with.
type RunInfo struct {
	RunID      string
	Instrument string
	OrderID    uint64
}

// WithRunInfo attaches info to ctx for later retrieval by LogEvent.
func WithRunInfo(ctx context.Context, info RunInfo) context.Context {
	return context.WithValue(ctx, runInfoKey, info)
}

func runInfoFromContext(ctx context.Context) RunInfo {
	if v, ok := ctx.Value(runInfoKey).(RunInfo); ok {
		return v
	}
	return RunInfo{}
}

// Level names the three severities spec.md §7 maps its error taxonomy onto:
// boundary conditions log at Info, recoverable fill issues at Warn, and
// invariant violations at Error immediately before the process aborts.
type Level string

const (
	Info  Level = "info"
	Warn  Level = "warn"
	Error Level = "error"
)

// Logger writes structured JSON event lines to an underlying io.Writer.
type Logger struct {
	out *log.Logger
}

// New constructs a Logger writing to w (os.Stdout in production, a
// bytes.Buffer in tests).
func New(w io.Writer) *Logger {
	return &Logger{out: log.New(w, "", 0)}
}

// LogEvent writes one JSON line: a timestamp, level, event name, the
// context's RunInfo (if any), and the supplied fields. A backtest run never
// logs full bar streams (too noisy) and has no user secrets to redact,
// unlike the rest of the monorepo's logging surface.
func (l *Logger) LogEvent(ctx context.Context, level Level, event string, fields map[string]any) {
	payload := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339),
		"level": string(level),
		"event": event,
	}

	info := runInfoFromContext(ctx)
	if info.RunID != "" {
		payload["run_id"] = info.RunID
	}
	if info.Instrument != "" {
		payload["instrument"] = info.Instrument
	}
	if info.OrderID != 0 {
		payload["order_id"] = info.OrderID
	}
	for k, v := range fields {
		if err, ok := v.(error); ok {
			payload[k] = err.Error()
			continue
		}
		payload[k] = v
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		l.out.Printf(`{"level":"error","event":"log_marshal_failed","error":%q}`, err.Error())
		return
	}
	l.out.Print(string(raw))
}

// RunStart logs the run_start lifecycle event.
func (l *Logger) RunStart(ctx context.Context, initialCash float64) {
	l.LogEvent(ctx, Info, "run_start", map[string]any{"initial_cash": initialCash})
}

// RunComplete logs the run_complete lifecycle event.
func (l *Logger) RunComplete(ctx context.Context, finalEquity float64, tradeCount int) {
	l.LogEvent(ctx, Info, "run_complete", map[string]any{
		"final_equity": finalEquity,
		"trade_count":  tradeCount,
	})
}

// OrderRejected logs a recoverable fill issue (spec.md §7: order stays
// active for retry next bar).
func (l *Logger) OrderRejected(ctx context.Context, orderID uint64, reason string) {
	l.LogEvent(ctx, Warn, "order_rejected", map[string]any{
		"order_id": orderID,
		"reason":   reason,
	})
}

// FatalInvariant logs an invariant violation immediately before the caller
// aborts (spec.md §7's fatal taxonomy entry).
func (l *Logger) FatalInvariant(ctx context.Context, message string) {
	l.LogEvent(ctx, Error, "fatal_invariant", map[string]any{"message": message})
}
