package factory

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/warp/shift-allowance/calendar"
)

// =============================================================================
// ICS IMPORT - Public holiday calendar to holiday table
// =============================================================================

const icsDateLayout = "20060102"

// ParseICSHolidays reads the VEVENTs of an iCalendar file (such as the
// government public holiday feed) into holiday table rows sorted by date.
// All-day DTSTART values are taken as-is; timed ones are converted into loc
// before the time-of-day is dropped. Rows on an already-seen date are skipped.
func ParseICSHolidays(r io.Reader, loc *time.Location) ([]HolidayJSON, error) {
	if loc == nil {
		loc = time.UTC
	}
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ics: %w", err)
	}

	seen := make(map[calendar.Date]bool)
	var holidays []calendar.Holiday
	for i, ev := range cal.Events() {
		date, err := eventDate(ev, loc)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		if seen[date] {
			continue
		}
		seen[date] = true

		name := ""
		if p := ev.GetProperty(ics.ComponentPropertySummary); p != nil {
			name = strings.TrimSpace(p.Value)
		}
		holidays = append(holidays, calendar.Holiday{Date: date, Name: name})
	}

	sort.Slice(holidays, func(i, j int) bool { return holidays[i].Date.Before(holidays[j].Date) })
	return HolidaysToJSON(holidays), nil
}

func eventDate(ev *ics.VEvent, loc *time.Location) (calendar.Date, error) {
	p := ev.GetProperty(ics.ComponentPropertyDtStart)
	if p == nil {
		return calendar.Date{}, fmt.Errorf("missing DTSTART")
	}
	if v := strings.TrimSpace(p.Value); len(v) == len(icsDateLayout) {
		t, err := time.ParseInLocation(icsDateLayout, v, loc)
		if err != nil {
			return calendar.Date{}, fmt.Errorf("invalid DTSTART %q: %w", v, err)
		}
		return calendar.DateOf(t), nil
	}
	t, err := ev.GetStartAt()
	if err != nil {
		return calendar.Date{}, fmt.Errorf("invalid DTSTART %q: %w", p.Value, err)
	}
	return calendar.DateOf(t.In(loc)), nil
}
