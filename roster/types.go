/*
Package roster builds and edits the duty events a worker's allowance is
computed from.

PURPOSE:
  The allowance engine only sees a flat list of DutyEvents. Workers do not
  type timestamps; they pick a duty type (a named shift with a start time
  and a length) for each day, or start a repeating duty loop from a date.
  This package turns those choices into events and keeps edits immutable.

KEY CONCEPTS:
  - DutyType: named shift template, id 0 is the reserved "None" duty
  - DutyTypes: read-only id-keyed table loaded from configuration
  - Generate: duty loop (pattern of duty ids repeated N times) into events
  - Modify: add / change / delete one event, returning a new slice
  - Prune: drop tombstones before computing

TOMBSTONES:
  Deleting a duty never removes the event from the working set; it becomes
  a zero-length event (start == end) with duty type 0. Prune removes them
  before the list reaches allowance.Engine.Compute.

SEE ALSO:
  - allowance/types.go: DutyEvent
  - factory/tables.go: loading DutyTypes from JSON/YAML
*/
package roster

import (
	"fmt"
	"sort"
	"time"

	"github.com/warp/shift-allowance/calendar"
)

// =============================================================================
// DUTY TYPE - Named shift template
// =============================================================================

// NoDutyID is the reserved "None" duty type.
const NoDutyID = 0

// DutyType is a shift template: it starts at StartHour:StartMinute on a date
// and lasts DurationMinutes, possibly past midnight.
type DutyType struct {
	ID              int    `json:"id"`
	Title           string `json:"title"`
	StartHour       int    `json:"start_hour"`
	StartMinute     int    `json:"start_minute"`
	DurationMinutes int    `json:"duration_minutes"`
}

// IsNone reports whether d is the "None" duty.
func (d DutyType) IsNone() bool { return d.ID == NoDutyID }

// Span returns the shift's start and end on date in loc.
// The None duty yields a zero-length span at midnight.
func (d DutyType) Span(date calendar.Date, loc *time.Location) (time.Time, time.Time) {
	if d.IsNone() {
		m := date.Midnight(loc)
		return m, m
	}
	start := date.At(d.StartHour, d.StartMinute, 0, loc)
	return start, start.Add(time.Duration(d.DurationMinutes) * time.Minute)
}

// =============================================================================
// DUTY TYPE TABLE
// =============================================================================

// DutyTypes is an immutable id-keyed table of duty types.
type DutyTypes struct {
	byID    map[int]DutyType
	ordered []DutyType
}

var noneDuty = DutyType{ID: NoDutyID, Title: "None"}

// NewDutyTypes validates and indexes types. The None duty is added when the
// table does not define id 0.
func NewDutyTypes(types []DutyType) (DutyTypes, error) {
	dt := DutyTypes{byID: make(map[int]DutyType, len(types)+1)}
	for i, t := range types {
		if _, dup := dt.byID[t.ID]; dup {
			return DutyTypes{}, &DutyTypeError{Index: i, ID: t.ID, Reason: "duplicate id"}
		}
		if t.ID < 0 {
			return DutyTypes{}, &DutyTypeError{Index: i, ID: t.ID, Reason: "negative id"}
		}
		if !t.IsNone() {
			if t.StartHour < 0 || t.StartHour > 23 || t.StartMinute < 0 || t.StartMinute > 59 {
				return DutyTypes{}, &DutyTypeError{Index: i, ID: t.ID,
					Reason: fmt.Sprintf("start %02d:%02d out of range", t.StartHour, t.StartMinute)}
			}
			if t.DurationMinutes <= 0 {
				return DutyTypes{}, &DutyTypeError{Index: i, ID: t.ID, Reason: "duration must be positive"}
			}
		}
		dt.byID[t.ID] = t
	}
	if _, ok := dt.byID[NoDutyID]; !ok {
		dt.byID[NoDutyID] = noneDuty
	}
	for _, t := range dt.byID {
		dt.ordered = append(dt.ordered, t)
	}
	sort.Slice(dt.ordered, func(i, j int) bool { return dt.ordered[i].ID < dt.ordered[j].ID })
	return dt, nil
}

// Get returns the duty type with id.
func (dt DutyTypes) Get(id int) (DutyType, bool) {
	t, ok := dt.byID[id]
	return t, ok
}

// All returns every duty type ordered by id. The slice is a copy.
func (dt DutyTypes) All() []DutyType {
	out := make([]DutyType, len(dt.ordered))
	copy(out, dt.ordered)
	return out
}

func (dt DutyTypes) Len() int { return len(dt.ordered) }
