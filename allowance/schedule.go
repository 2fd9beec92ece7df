package allowance

import (
	"fmt"
	"time"

	"github.com/warp/shift-allowance/calendar"
)

// =============================================================================
// RATE SCHEDULE - Allowance-eligible windows per weekday class
// =============================================================================

// Slot is a time-of-day window. End may be 24:00:00, meaning the end of the day.
type Slot struct {
	StartHour   int `json:"startHour"`
	StartMinute int `json:"startMinute"`
	StartSecond int `json:"startSecond"`
	EndHour     int `json:"endHour"`
	EndMinute   int `json:"endMinute"`
	EndSecond   int `json:"endSecond"`
}

// Bounds returns the slot as absolute instants on date d in loc.
func (s Slot) Bounds(d calendar.Date, loc *time.Location) (time.Time, time.Time) {
	return d.At(s.StartHour, s.StartMinute, s.StartSecond, loc),
		d.At(s.EndHour, s.EndMinute, s.EndSecond, loc)
}

func (s Slot) startSeconds() int { return s.StartHour*3600 + s.StartMinute*60 + s.StartSecond }
func (s Slot) endSeconds() int   { return s.EndHour*3600 + s.EndMinute*60 + s.EndSecond }

func (s Slot) String() string {
	return fmt.Sprintf("%02d:%02d:%02d-%02d:%02d:%02d",
		s.StartHour, s.StartMinute, s.StartSecond, s.EndHour, s.EndMinute, s.EndSecond)
}

// RateEntry governs the weekday classes listed in Applicable. Slots are
// evaluated in order.
type RateEntry struct {
	Applicable []WeekdayClass `json:"applicable"`
	Slots      []Slot         `json:"slots"`
}

// RateSchedule is the read-only rate table, indexed by weekday class.
type RateSchedule struct {
	entries []RateEntry
	byClass map[WeekdayClass]int
}

// NewRateSchedule validates entries and indexes them by weekday class.
// Every class may be governed by at most one entry.
func NewRateSchedule(entries []RateEntry) (*RateSchedule, error) {
	rs := &RateSchedule{
		entries: make([]RateEntry, len(entries)),
		byClass: make(map[WeekdayClass]int),
	}
	for i, e := range entries {
		if len(e.Applicable) == 0 {
			return nil, &ScheduleError{Entry: i, Slot: -1, Reason: "no applicable weekday class"}
		}
		for _, c := range e.Applicable {
			if !c.Valid() {
				return nil, &ScheduleError{Entry: i, Slot: -1, Reason: fmt.Sprintf("unknown weekday class %d", c)}
			}
			if prev, dup := rs.byClass[c]; dup {
				return nil, &ScheduleError{Entry: i, Slot: -1, Reason: fmt.Sprintf("%s already governed by entry %d", c, prev)}
			}
			rs.byClass[c] = i
		}
		for j, s := range e.Slots {
			if err := validateSlot(s); err != "" {
				return nil, &ScheduleError{Entry: i, Slot: j, Reason: err}
			}
		}
		rs.entries[i] = RateEntry{
			Applicable: append([]WeekdayClass(nil), e.Applicable...),
			Slots:      append([]Slot(nil), e.Slots...),
		}
	}
	return rs, nil
}

func validateSlot(s Slot) string {
	for _, v := range []struct {
		name     string
		val, max int
	}{
		{"start hour", s.StartHour, 24}, {"start minute", s.StartMinute, 59}, {"start second", s.StartSecond, 59},
		{"end hour", s.EndHour, 24}, {"end minute", s.EndMinute, 59}, {"end second", s.EndSecond, 59},
	} {
		if v.val < 0 || v.val > v.max {
			return fmt.Sprintf("%s %d out of range", v.name, v.val)
		}
	}
	if s.startSeconds() > 24*3600 || s.endSeconds() > 24*3600 {
		return "time past 24:00:00"
	}
	if s.startSeconds() > s.endSeconds() {
		return fmt.Sprintf("start after end (%s)", s)
	}
	return ""
}

// EntryFor returns the entry governing class c.
func (rs *RateSchedule) EntryFor(c WeekdayClass) (RateEntry, bool) {
	i, ok := rs.byClass[c]
	if !ok {
		return RateEntry{}, false
	}
	return rs.entries[i], true
}

// Entries returns a copy of the schedule entries.
func (rs *RateSchedule) Entries() []RateEntry {
	out := make([]RateEntry, len(rs.entries))
	copy(out, rs.entries)
	return out
}
