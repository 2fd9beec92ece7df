/*
Package allowance computes shift-duty allowance entitlement from duty events.

PURPOSE:
  Given a worker's duty events (shift start/end plus a duty type), the
  engine determines how many hours of each duty fall inside the
  allowance-eligible windows of a rate schedule, totals them per calendar
  month, and counts the compensation-leave (CO) days earned by working on
  public holidays.

PIPELINE:
  raw events
    -> SplitCrossDay      (no event crosses a calendar date)
    -> PartitionByMonth   (sorted, grouped by calendar month)
    -> per month group:
         Engine.ComputeDaily  -> []Detail (one per event)
         AggregateMonth       -> Detail   (month total)
         Engine.CountCompLeave -> int     (distinct holiday dates)

  The three per-month outputs are index-aligned in ComputeResult.

KEY CONCEPTS IN THIS FILE (types.go):
  - DutyEvent: one scheduled shift (value type, never mutated)
  - Detail: hours eligible for allowance over a time span
  - ComputeResult: month totals, per-day breakdowns, CO counts
  - WeekdayClass: Sunday..Saturday, or Holiday

DESIGN PRINCIPLES:
  1. Immutability: inputs are never modified; every stage returns new slices
  2. Precision: hours are decimal.Decimal so month totals add up exactly
  3. Explicit context: holiday table and rate schedule live on Engine,
     never in package state

SEE ALSO:
  - schedule.go: RateSchedule and its slots
  - engine.go: Engine and Compute
  - tier.go: allowance tier assessment of a month total
*/
package allowance

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DUTY EVENT - One scheduled shift
// =============================================================================

// NewEventID marks an event that has not been assigned an id yet.
const NewEventID = -1

// DutyEvent is one scheduled shift. Start == End is a tombstone meaning
// "no duty" (deleted or empty placeholder).
type DutyEvent struct {
	ID         int       `json:"id"`
	Title      string    `json:"title"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	DutyTypeID int       `json:"duty_type_id"`
}

// IsTombstone reports whether the event carries no duty.
func (e DutyEvent) IsTombstone() bool { return e.Start.Equal(e.End) }

// Duration is the length of the event.
func (e DutyEvent) Duration() time.Duration { return e.End.Sub(e.Start) }

// withSpan returns a copy of e spanning [start, end].
func (e DutyEvent) withSpan(start, end time.Time) DutyEvent {
	e.Start = start
	e.End = end
	return e
}

// =============================================================================
// ALLOWANCE DETAIL - Eligible hours over a span
// =============================================================================

// Detail is a computed fact about a time span. Per-event details carry the
// event title (with HolidaySuffix on Sundays and holidays); month aggregates
// carry an empty description.
type Detail struct {
	Start       time.Time       `json:"start"`
	End         time.Time       `json:"end"`
	Hours       decimal.Decimal `json:"hours"`
	Description string          `json:"description"`
}

// HolidaySuffix is appended to the description of duties on Sundays and
// public holidays.
const HolidaySuffix = " - Public Holiday"

// ComputeResult holds three sequences aligned by month-group position:
// Month[i] is the total of Day[i], and EarnedCO[i] the CO days of that month.
type ComputeResult struct {
	Month    []Detail   `json:"month"`
	Day      [][]Detail `json:"day"`
	EarnedCO []int      `json:"earned_co"`
}

// Months returns the number of month groups.
func (r ComputeResult) Months() int { return len(r.Month) }

// TotalHours sums every month total.
func (r ComputeResult) TotalHours() decimal.Decimal {
	total := decimal.Zero
	for _, m := range r.Month {
		total = total.Add(m.Hours)
	}
	return total
}

// =============================================================================
// WEEKDAY CLASS
// =============================================================================

// WeekdayClass selects a rate schedule entry. 0..6 follow time.Weekday
// (Sunday = 0); Holiday marks a public holiday and takes precedence over the
// natural weekday.
type WeekdayClass int

const (
	Sunday WeekdayClass = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	_
	Holiday
)

// ClassOf maps a weekday to its class.
func ClassOf(wd time.Weekday) WeekdayClass { return WeekdayClass(wd) }

// Valid reports whether c is one of 0..6 or Holiday.
func (c WeekdayClass) Valid() bool {
	return (c >= Sunday && c <= Saturday) || c == Holiday
}

func (c WeekdayClass) String() string {
	if c == Holiday {
		return "Holiday"
	}
	if c >= Sunday && c <= Saturday {
		return time.Weekday(c).String()
	}
	return "WeekdayClass(?)"
}

// hoursBetween converts [from, to] into decimal hours.
func hoursBetween(from, to time.Time) decimal.Decimal {
	return decimal.NewFromInt(to.Sub(from).Milliseconds()).Div(msPerHour)
}

var msPerHour = decimal.NewFromInt(int64(time.Hour / time.Millisecond))
