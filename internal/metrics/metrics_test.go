package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestObserveOrderIncrementsLabeledCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRegistry(reg)

	m.ObserveOrder(OrderFilled, "market")
	m.ObserveOrder(OrderFilled, "market")
	m.ObserveOrder(OrderRejected, "limit")

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}

	var filledCount, rejectedCount float64
	for _, fam := range families {
		if fam.GetName() != "backtest_orders_total" {
			continue
		}
		for _, metric := range fam.GetMetric() {
			switch labelValue(metric, "outcome") {
			case "filled":
				filledCount = metric.GetCounter().GetValue()
			case "rejected":
				rejectedCount = metric.GetCounter().GetValue()
			}
		}
	}

	if filledCount != 2 {
		t.Fatalf("filled count = %v, want 2", filledCount)
	}
	if rejectedCount != 1 {
		t.Fatalf("rejected count = %v, want 1", rejectedCount)
	}
}

func TestObserveRunSetsLastSharpeGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRegistry(reg)

	m.ObserveRun(1.5, 0.87)

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, fam := range families {
		if fam.GetName() != "backtest_last_sharpe_ratio" {
			continue
		}
		if got := fam.GetMetric()[0].GetGauge().GetValue(); got != 0.87 {
			t.Fatalf("last_sharpe_ratio = %v, want 0.87", got)
		}
	}
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
