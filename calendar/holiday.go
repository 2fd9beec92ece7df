package calendar

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// =============================================================================
// HOLIDAY CALENDAR - Public holiday lookup
// =============================================================================

// Holiday is a public holiday on a calendar date.
type Holiday struct {
	Date Date
	Name string
}

// HolidayCalendar answers whether the date of an instant is a holiday.
// Only the calendar date of t matters, never its time-of-day.
type HolidayCalendar interface {
	// IsHoliday returns the holiday label and true when t's date is a holiday.
	IsHoliday(t time.Time) (string, bool)
}

// NoHolidays is a calendar without holidays.
type NoHolidays struct{}

func (NoHolidays) IsHoliday(time.Time) (string, bool) { return "", false }

// StaticHolidayCalendar is a read-only, date-keyed holiday table.
// It is built once and safe for concurrent use.
type StaticHolidayCalendar struct {
	byDate map[Date]string
	sorted []Holiday
}

// NewStaticHolidayCalendar indexes holidays by date. When two entries share a
// date the first label wins.
func NewStaticHolidayCalendar(holidays []Holiday) *StaticHolidayCalendar {
	c := &StaticHolidayCalendar{byDate: make(map[Date]string, len(holidays))}
	for _, h := range holidays {
		if _, dup := c.byDate[h.Date]; dup {
			continue
		}
		c.byDate[h.Date] = h.Name
		c.sorted = append(c.sorted, h)
	}
	sort.Slice(c.sorted, func(i, j int) bool { return c.sorted[i].Date.Before(c.sorted[j].Date) })
	return c
}

func (c *StaticHolidayCalendar) IsHoliday(t time.Time) (string, bool) {
	name, ok := c.byDate[DateOf(t)]
	return name, ok
}

// Holidays returns the table in date order. The slice is a copy.
func (c *StaticHolidayCalendar) Holidays() []Holiday {
	out := make([]Holiday, len(c.sorted))
	copy(out, c.sorted)
	return out
}

// InYear returns the holidays falling in year.
func (c *StaticHolidayCalendar) InYear(year int) []Holiday {
	var out []Holiday
	for _, h := range c.sorted {
		if h.Date.Year == year {
			out = append(out, h)
		}
	}
	return out
}

func (c *StaticHolidayCalendar) Len() int { return len(c.sorted) }

// =============================================================================
// HOLIDAY TABLE PARSING
// =============================================================================

// ErrInvalidHolidayDate is returned when a holiday table entry has a date
// that cannot be parsed.
var ErrInvalidHolidayDate = errors.New("invalid holiday date")

// HolidayDateError reports which table entry failed to parse.
type HolidayDateError struct {
	Index int
	Value string
	Err   error
}

func (e *HolidayDateError) Error() string {
	return fmt.Sprintf("holiday %d: cannot parse date %q: %v", e.Index, e.Value, e.Err)
}

func (e *HolidayDateError) Unwrap() error { return ErrInvalidHolidayDate }

// holidayLayouts are tried in order. Full timestamps are converted into the
// table location before the time-of-day is dropped.
var holidayLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"Mon Jan 02 2006 15:04:05 GMT-0700",
}

// ParseHolidayDate reads a holiday date in any supported layout and returns
// its calendar date in loc.
func ParseHolidayDate(s string, loc *time.Location) (Date, error) {
	s = strings.TrimSpace(s)
	// Dates exported by browsers carry a trailing zone name: "... GMT+0800 (Hong Kong Standard Time)".
	if i := strings.Index(s, " ("); i > 0 {
		s = s[:i]
	}
	var lastErr error
	for _, layout := range holidayLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return DateOf(t.In(loc)), nil
		}
		lastErr = err
	}
	return Date{}, lastErr
}
