/*
Package calendar provides wall-clock calendar helpers and holiday lookup.

PURPOSE:
  Everything in the allowance engine is evaluated against local calendar
  dates, not instants. A shift from 22:15 to 08:30 touches two dates; a
  holiday is a date, whatever the time of day. This package owns the
  conversion from an instant (time.Time with its Location) to a Date key.

KEY CONCEPTS:
  - Date: a calendar date key (year, month, day) in the instant's location
  - HolidayCalendar: "is this date a holiday, and what is it called"
  - StaticHolidayCalendar: pre-loaded, date-indexed holiday table

LOCATIONS:
  Dates are always taken in the location carried by the time.Time. Callers
  that want Hong Kong dates must convert instants with t.In(loc) first.
  The api package does this once at the edge.

SEE ALSO:
  - holiday.go: HolidayCalendar and StaticHolidayCalendar
  - allowance/engine.go: the main consumer
*/
package calendar

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar date key, independent of time-of-day
// =============================================================================

// Date is a calendar date. It is comparable and usable as a map key.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// NewDate builds a normalized Date (e.g. Jan 32 becomes Feb 1).
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// ParseDate parses a YYYY-MM-DD key.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// DateLayout is the canonical textual form of a Date.
const DateLayout = "2006-01-02"

func (d Date) String() string { return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day) }

// At returns the instant at the given time-of-day on d in loc.
// Hour 24 is allowed and means midnight at the start of the next day.
func (d Date) At(hour, min, sec int, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, min, sec, 0, loc)
}

// Midnight returns 00:00 of d in loc.
func (d Date) Midnight(loc *time.Location) time.Time { return d.At(0, 0, 0, loc) }

func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

func (d Date) Weekday() time.Weekday { return d.Midnight(time.UTC).Weekday() }
func (d Date) AddDays(n int) Date    { return NewDate(d.Year, d.Month, d.Day+n) }

// =============================================================================
// TIME UTILITIES
// =============================================================================

// SameDate reports whether a and b fall on the same calendar date.
// Each instant is read in its own location.
func SameDate(a, b time.Time) bool { return DateOf(a) == DateOf(b) }

// SameMonth reports whether a and b fall in the same calendar month of the same year.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// NextMidnight returns 00:00 of the day after t, in t's location.
// This is the "24:00" end-of-day marker of t's date.
func NextMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}

// MonthKey formats t's month as YYYY-MM.
func MonthKey(t time.Time) string { return t.Format("2006-01") }
