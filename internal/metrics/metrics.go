// Package metrics exposes backtest-run counters and gauges through
// prometheus/client_golang (SPEC_FULL.md Part C.4). The teacher's own
// libs/observability/prometheus.go is a hand-rolled, zero-dependency
// Prometheus-text-format registry; we deliberately do not carry that
// pattern forward here (see DESIGN.md) in favor of the real
// client_golang registry.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// OrderOutcome labels the orders_total counter.
type OrderOutcome string

const (
	OrderPlaced  OrderOutcome = "placed"
	OrderFilled  OrderOutcome = "filled"
	OrderRejected OrderOutcome = "rejected"
	OrderCanceled OrderOutcome = "canceled"
)

// Registry bundles the metrics one running backtestd process exposes.
type Registry struct {
	OrdersTotal    *prometheus.CounterVec
	RunDuration    prometheus.Histogram
	LastSharpe     prometheus.Gauge
}

// NewRegistry builds and registers every metric on reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	m := &Registry{
		OrdersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "backtest",
			Name:      "orders_total",
			Help:      "Orders processed by the broker, partitioned by outcome and order type.",
		}, []string{"outcome", "order_type"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "backtest",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of a completed backtest run.",
			Buckets:   prometheus.DefBuckets,
		}),
		LastSharpe: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "backtest",
			Name:      "last_sharpe_ratio",
			Help:      "Sharpe ratio of the most recently completed run.",
		}),
	}

	reg.MustRegister(m.OrdersTotal, m.RunDuration, m.LastSharpe)
	return m
}

// ObserveOrder records one order outcome for orderType (e.g. "market", "limit").
func (m *Registry) ObserveOrder(outcome OrderOutcome, orderType string) {
	m.OrdersTotal.WithLabelValues(string(outcome), orderType).Inc()
}

// ObserveRun records a completed run's wall-clock duration in seconds and
// its Sharpe ratio.
func (m *Registry) ObserveRun(durationSeconds, sharpeRatio float64) {
	m.RunDuration.Observe(durationSeconds)
	m.LastSharpe.Set(sharpeRatio)
}
