package datafeed

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

func TestResilientSourceReturnsFetchResultOnSuccess(t *testing.T) {
	want := Source(nil)
	r := NewResilientSource("test", func() (Source, error) { return want, nil })

	got, err := r.Fetch()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Fatalf("Fetch() = %v, want %v", got, want)
	}
}

func TestResilientSourceTripsAfterConsecutiveFailures(t *testing.T) {
	boom := errors.New("upstream unavailable")
	r := NewResilientSource("test", func() (Source, error) { return nil, boom })

	var lastErr error
	for i := 0; i < 10; i++ {
		_, lastErr = r.Fetch()
	}
	if lastErr == nil {
		t.Fatal("expected repeated failures to eventually surface an error")
	}
}

func TestCacheKeyIncludesProviderInstrumentAndRange(t *testing.T) {
	from := mustParse(t, "2024-01-01T00:00:00Z")
	to := mustParse(t, "2024-01-02T00:00:00Z")

	k := cacheKey("polygon", "AAPL", "day", from, to)
	for _, want := range []string{"polygon", "AAPL", "day"} {
		if !strings.Contains(k, want) {
			t.Fatalf("cacheKey() = %q, expected it to contain %q", k, want)
		}
	}
}
