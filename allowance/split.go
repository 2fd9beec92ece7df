package allowance

import (
	"sort"

	"github.com/warp/shift-allowance/calendar"
)

// =============================================================================
// EVENT SPLITTING
// =============================================================================

// SplitCrossDay returns events such that no event's start and end fall on
// different calendar dates. Events already within one date are copied
// unchanged. Pieces keep the id, title and duty type of their source.
//
// The walk stops on date equality, not on the end instant: an event ending
// exactly at midnight yields a piece ending at 24:00 plus a zero-length
// piece at 00:00 of the end date.
func SplitCrossDay(events []DutyEvent) []DutyEvent {
	out := make([]DutyEvent, 0, len(events))
	for _, ev := range events {
		out = append(out, splitEvent(ev)...)
	}
	return out
}

// splitEvent walks forward one date at a time, clamping each piece at the
// next midnight, until the cursor reaches the end's date.
func splitEvent(ev DutyEvent) []DutyEvent {
	end := ev.End.In(ev.Start.Location())
	if calendar.SameDate(ev.Start, end) {
		return []DutyEvent{ev}
	}

	var pieces []DutyEvent
	cursor := ev.Start
	for !calendar.SameDate(cursor, end) && cursor.Before(end) {
		eod := calendar.NextMidnight(cursor)
		pieces = append(pieces, ev.withSpan(cursor, eod))
		cursor = eod
	}
	return append(pieces, ev.withSpan(cursor, ev.End))
}

// =============================================================================
// MONTH PARTITIONING
// =============================================================================

// PartitionByMonth sorts day-bounded events by start and groups consecutive
// events sharing a calendar month. Months without events produce no group.
// Empty input yields nil.
func PartitionByMonth(events []DutyEvent) [][]DutyEvent {
	if len(events) == 0 {
		return nil
	}
	sorted := make([]DutyEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	var groups [][]DutyEvent
	current := []DutyEvent{sorted[0]}
	for _, ev := range sorted[1:] {
		if !calendar.SameMonth(ev.Start, current[0].Start) {
			groups = append(groups, current)
			current = []DutyEvent{ev}
			continue
		}
		current = append(current, ev)
	}
	return append(groups, current)
}
