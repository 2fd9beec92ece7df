package roster

import (
	"context"
	"fmt"
	"time"

	"github.com/warp/shift-allowance/allowance"
	"github.com/warp/shift-allowance/calendar"
)

// =============================================================================
// DUTY LOOP GENERATION
// =============================================================================

// Generate lays pattern out day by day from start, cycles times. Each pattern
// element is a duty type id; NoDutyID marks a rest day and yields no event.
// Event ids are assigned from 1 in chronological order.
func Generate(start calendar.Date, pattern []int, cycles int, types DutyTypes, loc *time.Location) ([]allowance.DutyEvent, error) {
	if len(pattern) == 0 {
		return nil, fmt.Errorf("%w: empty pattern", ErrInvalidPattern)
	}
	if cycles < 1 {
		return nil, fmt.Errorf("%w: cycles must be at least 1, got %d", ErrInvalidPattern, cycles)
	}
	for i, id := range pattern {
		if _, ok := types.Get(id); !ok {
			return nil, fmt.Errorf("%w: pattern[%d] = %d", ErrUnknownDutyType, i, id)
		}
	}

	var events []allowance.DutyEvent
	day := start
	for c := 0; c < cycles; c++ {
		for _, id := range pattern {
			dt, _ := types.Get(id)
			if !dt.IsNone() {
				events = append(events, newEvent(len(events)+1, dt, day, loc))
			}
			day = day.AddDays(1)
		}
	}
	return events, nil
}

func newEvent(id int, dt DutyType, date calendar.Date, loc *time.Location) allowance.DutyEvent {
	start, end := dt.Span(date, loc)
	return allowance.DutyEvent{ID: id, Title: dt.Title, Start: start, End: end, DutyTypeID: dt.ID}
}

// =============================================================================
// EVENT MODIFICATION
// =============================================================================

// Modify applies one edit and returns a new slice; events is never changed.
//
//   - eventID == allowance.NewEventID adds a dutyTypeID event on date with the
//     next free id (max + 1). Adding the None duty is a no-op.
//   - any other eventID replaces that event with a dutyTypeID event on date.
//     The None duty turns it into a tombstone.
func Modify(events []allowance.DutyEvent, date calendar.Date, dutyTypeID, eventID int, types DutyTypes, loc *time.Location) ([]allowance.DutyEvent, error) {
	dt, ok := types.Get(dutyTypeID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDutyType, dutyTypeID)
	}

	out := make([]allowance.DutyEvent, len(events), len(events)+1)
	copy(out, events)

	if eventID == allowance.NewEventID {
		if dt.IsNone() {
			return out, nil
		}
		return append(out, newEvent(NextID(events), dt, date, loc)), nil
	}

	for i, ev := range out {
		if ev.ID == eventID {
			out[i] = newEvent(eventID, dt, date, loc)
			return out, nil
		}
	}
	return nil, fmt.Errorf("%w: id %d", ErrEventNotFound, eventID)
}

// NextID returns one past the highest id in events, or 1.
func NextID(events []allowance.DutyEvent) int {
	max := 0
	for _, ev := range events {
		if ev.ID > max {
			max = ev.ID
		}
	}
	return max + 1
}

// Prune returns events without tombstones.
func Prune(events []allowance.DutyEvent) []allowance.DutyEvent {
	out := make([]allowance.DutyEvent, 0, len(events))
	for _, ev := range events {
		if !ev.IsTombstone() {
			out = append(out, ev)
		}
	}
	return out
}

// =============================================================================
// STORE - Roster persistence
// =============================================================================

// Store persists each worker's working set of duty events, tombstones included.
type Store interface {
	// SaveRoster replaces the worker's events atomically. Returns
	// ErrDuplicateEvent if two events share an id.
	SaveRoster(ctx context.Context, workerID string, events []allowance.DutyEvent) error

	// LoadRoster returns the worker's events ordered by start.
	// Returns ErrWorkerNotFound if the worker has never been saved.
	LoadRoster(ctx context.Context, workerID string) ([]allowance.DutyEvent, error)

	// ListWorkers returns the ids of every saved worker, sorted.
	ListWorkers(ctx context.Context) ([]string, error)
}
