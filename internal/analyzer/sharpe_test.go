package analyzer

import (
	"math"
	"testing"
	"time"
)

func TestSharpeZeroVolatilityReturnsZero(t *testing.T) {
	s := NewSharpeRatio(true)
	s.OnReturns(day(0), 0.01)
	s.OnReturns(day(1), 0.01)
	if got := s.SharpeRatio(0, true); got != 0 {
		t.Fatalf("sharpe = %v, want 0 for zero-volatility series", got)
	}
}

func TestSharpeDailyChainsSameDayReturns(t *testing.T) {
	s := NewSharpeRatio(true)
	d0 := day(0)
	intraday1 := d0.Add(time.Hour) // same calendar day
	s.OnReturns(d0, 0.01)
	s.OnReturns(intraday1, 0.02)
	s.OnReturns(day(1), -0.01)

	returns := s.Returns()
	if len(returns) != 2 {
		t.Fatalf("expected 2 daily returns (chained same-day + next day), got %d: %v", len(returns), returns)
	}
	want0 := (1+0.01)*(1+0.02) - 1
	if math.Abs(returns[0]-want0) > 1e-12 {
		t.Fatalf("chained day-0 return = %v, want %v", returns[0], want0)
	}
}

func TestSharpePerBarModeAnnualizesByElapsedYears(t *testing.T) {
	s := NewSharpeRatio(false)
	for i := 0; i < 10; i++ {
		v := 0.01
		if i%2 == 0 {
			v = -0.005
		}
		s.OnReturns(day(i), v)
	}
	got := s.SharpeRatio(0, true)
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("sharpe = %v, want finite", got)
	}
}
