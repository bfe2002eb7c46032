package analyzer

import "testing"

func TestCurrentDrawdownTracksSinceLastHigh(t *testing.T) {
	c := NewCurrentDrawdown()
	c.Update(day(0), 100)
	c.Update(day(1), 120) // new high, resets watermarks
	c.Update(day(2), 90)  // 30 under the new high
	c.Update(day(3), 110) // still below high, but lowWatermark stays at 90

	if got := c.CurrentDrawdown(false); diff(got, -30) > 1e-9 {
		t.Fatalf("currentDrawdown = %v, want -30", got)
	}
	wantPct := -30.0 / 120.0
	if got := c.CurrentDrawdown(true); diff(got, wantPct) > 1e-9 {
		t.Fatalf("currentDrawdown%% = %v, want %v", got, wantPct)
	}
}

func TestCurrentDrawdownResetsOnNewHigh(t *testing.T) {
	c := NewCurrentDrawdown()
	c.Update(day(0), 100)
	c.Update(day(1), 80)
	c.Update(day(2), 150) // new high: drawdown clears
	if got := c.CurrentDrawdown(false); got != 0 {
		t.Fatalf("currentDrawdown after new high = %v, want 0", got)
	}
}
