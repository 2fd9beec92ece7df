/*
errors.go - Error types for the allowance engine

PURPOSE:
  The computation itself is total: a missing rate entry or an inapplicable
  slot yields zero hours, never an error. Errors exist only at the edges:
  an empty duty list, malformed input events, and malformed static
  configuration (which is fatal at load time).

USAGE:
  result, err := engine.Compute(events)
  if errors.Is(err, allowance.ErrNoDuty) {
      // surface "no duty configured" to the user
  }

SEE ALSO:
  - engine.go: returns ErrNoDuty and EventError
  - schedule.go: returns ScheduleError
*/
package allowance

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNoDuty is returned by Compute when there is no event at all.
	ErrNoDuty = errors.New("no duty configured")

	// ErrInvalidEvent is returned when an event ends before it starts.
	ErrInvalidEvent = errors.New("invalid duty event")

	// ErrInvalidSchedule is returned when a rate schedule is malformed.
	ErrInvalidSchedule = errors.New("invalid rate schedule")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// EventError points at the offending input event.
type EventError struct {
	Index  int
	ID     int
	Reason string
}

func (e *EventError) Error() string {
	return fmt.Sprintf("event %d (id %d): %s", e.Index, e.ID, e.Reason)
}

func (e *EventError) Unwrap() error { return ErrInvalidEvent }

// ScheduleError points at the offending rate schedule entry and slot.
// Slot is -1 when the problem concerns the entry itself.
type ScheduleError struct {
	Entry  int
	Slot   int
	Reason string
}

func (e *ScheduleError) Error() string {
	if e.Slot < 0 {
		return fmt.Sprintf("rate entry %d: %s", e.Entry, e.Reason)
	}
	return fmt.Sprintf("rate entry %d slot %d: %s", e.Entry, e.Slot, e.Reason)
}

func (e *ScheduleError) Unwrap() error { return ErrInvalidSchedule }

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNoDuty) || errors.Is(err, ErrInvalidEvent)
}
