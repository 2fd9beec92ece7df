package allowance

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/shift-allowance/calendar"
)

// =============================================================================
// ENGINE - Holiday table and rate schedule bound together
// =============================================================================

// Engine holds the read-only context of a computation. It never mutates
// either table, so one Engine serves any number of concurrent Compute calls.
type Engine struct {
	holidays calendar.HolidayCalendar
	rates    *RateSchedule
}

// NewEngine binds a holiday calendar and a rate schedule. A nil calendar
// means no holidays; a nil schedule means no eligible windows.
func NewEngine(holidays calendar.HolidayCalendar, rates *RateSchedule) *Engine {
	if holidays == nil {
		holidays = calendar.NoHolidays{}
	}
	if rates == nil {
		rates = &RateSchedule{byClass: map[WeekdayClass]int{}}
	}
	return &Engine{holidays: holidays, rates: rates}
}

func (e *Engine) Holidays() calendar.HolidayCalendar { return e.holidays }
func (e *Engine) Rates() *RateSchedule              { return e.rates }

// Compute runs the full pipeline: split, partition, then per month group the
// daily details, their aggregate and the comp-leave count. The caller's
// slice and events are left untouched.
func (e *Engine) Compute(events []DutyEvent) (ComputeResult, error) {
	if len(events) == 0 {
		return ComputeResult{}, ErrNoDuty
	}
	for i, ev := range events {
		if ev.End.Before(ev.Start) {
			return ComputeResult{}, &EventError{Index: i, ID: ev.ID, Reason: "end before start"}
		}
	}

	groups := PartitionByMonth(SplitCrossDay(events))
	result := ComputeResult{
		Month:    make([]Detail, 0, len(groups)),
		Day:      make([][]Detail, 0, len(groups)),
		EarnedCO: make([]int, 0, len(groups)),
	}
	for _, group := range groups {
		daily := e.ComputeDaily(group)
		result.Day = append(result.Day, daily)
		result.Month = append(result.Month, AggregateMonth(daily))
		result.EarnedCO = append(result.EarnedCO, e.CountCompLeave(group))
	}
	return result, nil
}

// =============================================================================
// DAILY CALCULATION
// =============================================================================

// ClassOfDate returns the weekday class of t's date, Holiday when the date is
// in the holiday calendar.
func (e *Engine) ClassOfDate(t time.Time) WeekdayClass {
	if _, ok := e.holidays.IsHoliday(t); ok {
		return Holiday
	}
	return ClassOf(t.Weekday())
}

// ComputeDaily returns one Detail per day-bounded event, in input order.
func (e *Engine) ComputeDaily(events []DutyEvent) []Detail {
	out := make([]Detail, len(events))
	for i, ev := range events {
		out[i] = e.detailFor(ev)
	}
	return out
}

func (e *Engine) detailFor(ev DutyEvent) Detail {
	class := e.ClassOfDate(ev.Start)
	hours := decimal.Zero

	if entry, ok := e.rates.EntryFor(class); ok {
		date := calendar.DateOf(ev.Start)
		for _, slot := range entry.Slots {
			slotStart, slotEnd := slot.Bounds(date, ev.Start.Location())
			if !within(ev.Start, slotStart, slotEnd) && !within(ev.End, slotStart, slotEnd) {
				continue
			}
			// Last applicable slot wins: hours are overwritten, never summed.
			hours = hoursBetween(later(slotStart, ev.Start), earlier(slotEnd, ev.End))
		}
	}

	desc := ev.Title
	if class == Sunday || class == Holiday {
		desc += HolidaySuffix
	}
	return Detail{Start: ev.Start, End: ev.End, Hours: hours, Description: desc}
}

// within reports lo <= t <= hi.
func within(t, lo, hi time.Time) bool { return !t.Before(lo) && !t.After(hi) }

func later(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlier(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

// =============================================================================
// MONTH AGGREGATE
// =============================================================================

// AggregateMonth reduces a month's details to one Detail spanning the first
// start to the last end, with summed hours and an empty description.
// Empty input yields the zero Detail.
func AggregateMonth(details []Detail) Detail {
	if len(details) == 0 {
		return Detail{Hours: decimal.Zero}
	}
	total := decimal.Zero
	for _, d := range details {
		total = total.Add(d.Hours)
	}
	return Detail{
		Start: details[0].Start,
		End:   details[len(details)-1].End,
		Hours: total,
	}
}

// =============================================================================
// COMP LEAVE
// =============================================================================

// CountCompLeave counts the distinct holiday dates on which events start.
// Several shifts on one holiday earn a single day.
func (e *Engine) CountCompLeave(events []DutyEvent) int {
	seen := make(map[calendar.Date]struct{})
	for _, ev := range events {
		if _, ok := e.holidays.IsHoliday(ev.Start); !ok {
			continue
		}
		seen[calendar.DateOf(ev.Start)] = struct{}{}
	}
	return len(seen)
}
