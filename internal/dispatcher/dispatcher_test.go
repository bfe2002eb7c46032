package dispatcher

import (
	"testing"
	"time"

	"github.com/algosenses/xBacktest-sub001/internal/event"
)

// fakeSubject emits one event per timestamp in its schedule, in order, and
// reports EOF once exhausted.
type fakeSubject struct {
	schedule []time.Time
	idx      int
	priority int
	log      *[]string
	name     string
}

func (f *fakeSubject) PeekDateTime() (time.Time, bool) {
	if f.idx >= len(f.schedule) {
		return time.Time{}, false
	}
	return f.schedule[f.idx], true
}

func (f *fakeSubject) Dispatch() (bool, error) {
	if f.idx >= len(f.schedule) {
		return false, nil
	}
	*f.log = append(*f.log, f.name)
	f.idx++
	return true, nil
}

func (f *fakeSubject) EOF() bool        { return f.idx >= len(f.schedule) }
func (f *fakeSubject) Start() error     { return nil }
func (f *fakeSubject) Stop() error      { return nil }
func (f *fakeSubject) Join() error      { return nil }
func (f *fakeSubject) Priority() int    { return f.priority }

func TestDispatcherOrdersByTimestampThenPriority(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Minute)

	var log []string
	feed := &fakeSubject{schedule: []time.Time{t0, t1}, priority: 0, log: &log, name: "feed"}
	broker := &fakeSubject{schedule: []time.Time{t0, t1}, priority: 1, log: &log, name: "broker"}

	d := New()
	d.AddSubject(broker)
	d.AddSubject(feed)

	if err := d.Run(); err != nil {
		t.Fatal(err)
	}

	want := []string{"feed", "broker", "feed", "broker"}
	if len(log) != len(want) {
		t.Fatalf("log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("log[%d] = %s, want %s (feed must dispatch before broker at same timestamp)", i, log[i], want[i])
		}
	}
}

func TestDispatcherStopsAtEOF(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var log []string
	feed := &fakeSubject{schedule: []time.Time{t0}, priority: 0, log: &log, name: "feed"}
	d := New()
	d.AddSubject(feed)
	if err := d.Run(); err != nil {
		t.Fatal(err)
	}
	if len(log) != 1 {
		t.Fatalf("expected exactly one dispatch, got %v", log)
	}
}

func TestDispatcherEmitsTimeElapsedFirst(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var log []string
	feed := &fakeSubject{schedule: []time.Time{t0}, priority: 0, log: &log, name: "feed"}
	d := New()
	d.AddSubject(feed)

	var timeElapsedFired bool
	d.TimeElapsed.Subscribe(func(_ time.Time, _ event.TimeElapsed) {
		timeElapsedFired = true
		if len(log) != 0 {
			t.Fatal("TimeElapsed must fire before any subject dispatch")
		}
	})

	if err := d.Run(); err != nil {
		t.Fatal(err)
	}
	if !timeElapsedFired {
		t.Fatal("expected TimeElapsed to fire")
	}
}

func TestDispatcherTimelineRegressionPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on timeline regression")
		}
	}()
	d := New()
	d.prevDateTime = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	var log []string
	feed := &fakeSubject{schedule: []time.Time{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}, priority: 0, log: &log, name: "feed"}
	d.AddSubject(feed)
	_, _, _ = d.Tick()
}
