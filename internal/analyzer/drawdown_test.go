package analyzer

import (
	"testing"
	"time"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1+n, 0, 0, 0, 0, time.UTC)
}

// S5: Drawdown measurement.
func TestScenarioS5Drawdown(t *testing.T) {
	d := NewDrawdown()
	equities := []float64{100, 120, 90, 110, 80, 130}
	for i, e := range equities {
		d.Update(day(i), e)
	}

	if got := d.MaxDrawdown(); got != 40 {
		t.Fatalf("maxDD = %v, want 40", got)
	}
	wantPct := 40.0 / 120.0
	if got := d.MaxDrawdownPct(); diff(got, wantPct) > 1e-9 {
		t.Fatalf("maxDD%% = %v, want %v", got, wantPct)
	}
	begin, end := d.MaxDrawdownRange()
	if !begin.Equal(day(1)) || !end.Equal(day(4)) {
		t.Fatalf("maxDD range = [%v, %v], want [t1, t4]", begin, end)
	}
}

func diff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}

func TestDrawdownNeverNegative(t *testing.T) {
	d := NewDrawdown()
	series := []float64{100, 105, 95, 102, 90, 140, 60}
	for i, e := range series {
		d.Update(day(i), e)
		if d.MaxDrawdown() < 0 {
			t.Fatalf("maxDD went negative: %v", d.MaxDrawdown())
		}
	}
}
