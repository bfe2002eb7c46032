package bar

import (
	"testing"
	"time"
)

func TestValidateOK(t *testing.T) {
	b := Bar{Instrument: "AAPL", DateTime: time.Now(), Open: 10, High: 12, Low: 9, Close: 11}
	if err := b.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateMissingFieldsBypass(t *testing.T) {
	b := Bar{Instrument: "AAPL", Open: 0, High: 0, Low: 0, Close: 0}
	if err := b.Validate(); err != nil {
		t.Fatalf("all-zero bar should bypass check: %v", err)
	}
}

func TestValidateLowAboveHigh(t *testing.T) {
	b := Bar{Instrument: "AAPL", Open: 10, High: 9, Low: 10, Close: 9}
	if err := b.Validate(); err == nil {
		t.Fatal("expected error for low > high")
	}
}

func TestPriceBySelectsResolution(t *testing.T) {
	tickBar := Bar{Resolution: Tick, Last: 101.5, Close: 100}
	if got := tickBar.Price(); got != 101.5 {
		t.Fatalf("tick bar price = %v, want 101.5", got)
	}
	dailyBar := Bar{Resolution: Daily, Close: 100}
	if got := dailyBar.Price(); got != 100 {
		t.Fatalf("daily bar price = %v, want 100", got)
	}
}
