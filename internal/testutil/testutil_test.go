package testutil

import (
	"testing"
	"time"
)

func TestManualClockAdvanceAndSet(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
	c := NewManualClock(start)

	if got := c.Now(); !got.Equal(start) {
		t.Fatalf("Now() = %v, want %v", got, start)
	}

	c.Advance(time.Hour)
	want := start.Add(time.Hour)
	if got := c.Now(); !got.Equal(want) {
		t.Fatalf("after Advance, Now() = %v, want %v", got, want)
	}

	later := time.Date(2024, 1, 2, 16, 0, 0, 0, time.UTC)
	c.Set(later)
	if got := c.Now(); !got.Equal(later) {
		t.Fatalf("after Set, Now() = %v, want %v", got, later)
	}
}

func TestAssertDeterministicPassesForStableFunc(t *testing.T) {
	AssertDeterministic(t, func() any {
		return struct{ A, B int }{A: 1, B: 2}
	})
}

func TestGoldenRoundTripsWithUpdateFlag(t *testing.T) {
	*updateGolden = true
	defer func() { *updateGolden = false }()

	Golden(t, "roundtrip_sample", map[string]int{"x": 1})

	*updateGolden = false
	Golden(t, "roundtrip_sample", map[string]int{"x": 1})
}

func TestLoadFixtureReadsSiblingFile(t *testing.T) {
	b := LoadFixture(t, "sample.json")
	if len(b) == 0 {
		t.Fatal("expected non-empty fixture content")
	}
}
