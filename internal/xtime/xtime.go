// Package xtime supplies the handful of date/time helpers the simulation
// kernel needs on top of the standard library's time.Time: day-granularity
// subtraction, calendar-date truncation, and an explicit invalid sentinel.
//
// The kernel deliberately does not define its own DateTime type. time.Time
// already gives compare, subtract, and calendar-date extraction; wrapping it
// would only hide those behind a thinner, less capable API.
package xtime

import "time"

// Invalid is the sentinel "no observation yet" DateTime, matching spec.md's
// DateTime sentinel. A zero time.Time is never a legitimate bar timestamp.
var Invalid time.Time

// IsValid reports whether t is a real, previously observed timestamp.
func IsValid(t time.Time) bool {
	return !t.IsZero()
}

// DaySpan returns the signed number of whole days between from and to,
// truncating any sub-day remainder, i.e. (to - from) measured in days.
func DaySpan(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// CalendarDate truncates t to midnight UTC-of-its-own-location, i.e. the
// calendar date component used to detect "still the same day" when chaining
// intraday returns into a daily return (spec.md §4.7).
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameCalendarDay reports whether a and b fall on the same calendar date.
func SameCalendarDay(a, b time.Time) bool {
	return CalendarDate(a).Equal(CalendarDate(b))
}
