// Package feed implements the data-source side of the Subject contract
// (spec.md §4.2/§6): an in-memory, time-ordered multi-instrument bar series
// that the dispatcher drives at the lowest priority number, so its bars land
// before the broker processes orders against them in the same tick.
package feed

import (
	"sort"
	"time"

	"github.com/algosenses/xBacktest-sub001/internal/bar"
	"github.com/algosenses/xBacktest-sub001/internal/event"
)

// series is one instrument's bars, already sorted ascending by DateTime, plus
// a read cursor.
type series struct {
	instrument string
	bars       []bar.Bar
	cursor     int
}

func (s *series) peek() (bar.Bar, bool) {
	if s.cursor >= len(s.bars) {
		return bar.Bar{}, false
	}
	return s.bars[s.cursor], true
}

// Feed aggregates one or more instruments' bar series and implements
// dispatcher.Subject. Bars must arrive in non-decreasing timestamp order per
// source (spec.md §6); Feed does not itself merge out-of-order input, only
// the per-source cursors.
type Feed struct {
	all      []*series
	priority int

	NewBar event.Channel[bar.Bar]
}

// New returns an empty Feed dispatched at the given priority (spec.md §4.2:
// "lower = earlier tie-break"; feeds use a low number so the broker, at a
// higher priority, sees bars before it processes orders).
func New(priority int) *Feed {
	return &Feed{priority: priority}
}

// AddSeries registers one instrument's bars. The feed keeps its own copy
// sorted by DateTime; the caller's slice is left unchanged.
func (f *Feed) AddSeries(instrument string, bars []bar.Bar) {
	sorted := append([]bar.Bar(nil), bars...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].DateTime.Before(sorted[j].DateTime) })
	f.all = append(f.all, &series{instrument: instrument, bars: sorted})
}

// PeekDateTime returns the minimum pending timestamp across all non-exhausted
// series, or false if every series is exhausted.
func (f *Feed) PeekDateTime() (time.Time, bool) {
	var (
		min     time.Time
		haveMin bool
	)
	for _, s := range f.all {
		b, ok := s.peek()
		if !ok {
			continue
		}
		if !haveMin || b.DateTime.Before(min) {
			min = b.DateTime
			haveMin = true
		}
	}
	return min, haveMin
}

// Dispatch emits NewBar for every series whose next bar is at the current
// minimum timestamp, advancing each such series' cursor.
func (f *Feed) Dispatch() (bool, error) {
	min, ok := f.PeekDateTime()
	if !ok {
		return false, nil
	}
	emitted := false
	for _, s := range f.all {
		b, ok := s.peek()
		if !ok || !b.DateTime.Equal(min) {
			continue
		}
		s.cursor++
		f.NewBar.Emit(b.DateTime, b)
		emitted = true
	}
	return emitted, nil
}

// EOF reports whether every series has been fully consumed.
func (f *Feed) EOF() bool {
	_, ok := f.PeekDateTime()
	return !ok
}

func (f *Feed) Start() error  { return nil }
func (f *Feed) Stop() error   { return nil }
func (f *Feed) Join() error   { return nil }
func (f *Feed) Priority() int { return f.priority }
