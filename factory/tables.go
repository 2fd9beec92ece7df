/*
Package factory provides JSON/YAML to Go conversion of the static tables.

PURPOSE:
  Converts the three configuration tables the engine needs into validated,
  read-only Go structures:
    - rate schedule -> allowance.RateSchedule
    - holiday table -> calendar.StaticHolidayCalendar
    - duty types    -> roster.DutyTypes
  Tables are loaded once at startup. Any malformed table is a fatal
  startup error; nothing here is consulted per compute call.

FORMATS:
  JSON or YAML, chosen by file extension (.json, .yaml, .yml). Unknown
  fields are rejected so a typo never silently becomes a zero value.
  An empty path selects the built-in default embedded in the binary.

JSON SCHEMA:
  Rate schedule:
    [
      {
        "applicableWeekdays": [0, 8],
        "slots": [
          {"startHour": 0, "startMinute": 0, "startSecond": 0,
           "endHour": 24, "endMinute": 0, "endSecond": 0}
        ]
      }
    ]

  Holidays (the output format of cmd/icsimport):
    [{"date": "2020-06-25", "description": "Tuen Ng Festival"}]

  Duty types:
    [{"id": 3, "title": "N", "start_hour": 22, "start_minute": 15, "duration_minutes": 615}]

USAGE:
  f := factory.NewTableFactory(loc)
  rates, err := f.LoadRateSchedule(cfg.RateScheduleFile)
  holidays, err := f.LoadHolidays(cfg.HolidayFile)
  engine := allowance.NewEngine(holidays, rates)

SEE ALSO:
  - ics.go: holiday table from an iCalendar file
  - allowance/schedule.go: RateSchedule validation
*/
package factory

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/warp/shift-allowance/allowance"
	"github.com/warp/shift-allowance/calendar"
	"github.com/warp/shift-allowance/roster"
)

//go:embed defaults/*
var defaults embed.FS

const (
	DefaultRateScheduleFile = "rate_schedule.yaml"
	DefaultHolidayFile      = "holidays.json"
	DefaultDutyTypesFile    = "duty_types.json"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// RateEntryJSON is the JSON representation of a rate schedule entry.
type RateEntryJSON struct {
	ApplicableWeekdays []int      `json:"applicableWeekdays" yaml:"applicableWeekdays"`
	Slots              []SlotJSON `json:"slots" yaml:"slots"`
}

// SlotJSON is one eligible time-of-day window.
type SlotJSON struct {
	StartHour   int `json:"startHour" yaml:"startHour"`
	StartMinute int `json:"startMinute" yaml:"startMinute"`
	StartSecond int `json:"startSecond" yaml:"startSecond"`
	EndHour     int `json:"endHour" yaml:"endHour"`
	EndMinute   int `json:"endMinute" yaml:"endMinute"`
	EndSecond   int `json:"endSecond" yaml:"endSecond"`
}

// HolidayJSON is one holiday table row. Date accepts YYYY-MM-DD or a full
// timestamp; see calendar.ParseHolidayDate.
type HolidayJSON struct {
	Date        string `json:"date" yaml:"date"`
	Description string `json:"description" yaml:"description"`
}

// DutyTypeJSON is one duty type table row.
type DutyTypeJSON struct {
	ID              int    `json:"id" yaml:"id"`
	Title           string `json:"title" yaml:"title"`
	StartHour       int    `json:"start_hour" yaml:"start_hour"`
	StartMinute     int    `json:"start_minute" yaml:"start_minute"`
	DurationMinutes int    `json:"duration_minutes" yaml:"duration_minutes"`
}

// =============================================================================
// FORMAT
// =============================================================================

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf picks the table format from a file extension.
func FormatOf(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported table format %q (want .json, .yaml or .yml)", name)
	}
}

func decode(data []byte, format Format, v any) error {
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		return dec.Decode(v)
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(v)
	}
}

// =============================================================================
// TABLE FACTORY
// =============================================================================

// TableFactory converts table files to Go structs. Holiday dates given as
// full timestamps are read in loc.
type TableFactory struct {
	loc *time.Location
}

// NewTableFactory creates a factory reading dates in loc (UTC when nil).
func NewTableFactory(loc *time.Location) *TableFactory {
	if loc == nil {
		loc = time.UTC
	}
	return &TableFactory{loc: loc}
}

func (f *TableFactory) Location() *time.Location { return f.loc }

// ParseRateSchedule parses and validates a rate schedule table.
func (f *TableFactory) ParseRateSchedule(data []byte, format Format) (*allowance.RateSchedule, error) {
	var rows []RateEntryJSON
	if err := decode(data, format, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse rate schedule: %w", err)
	}
	return RateScheduleFromJSON(rows)
}

// RateScheduleFromJSON converts rows into a validated RateSchedule.
func RateScheduleFromJSON(rows []RateEntryJSON) (*allowance.RateSchedule, error) {
	entries := make([]allowance.RateEntry, len(rows))
	for i, r := range rows {
		for _, c := range r.ApplicableWeekdays {
			entries[i].Applicable = append(entries[i].Applicable, allowance.WeekdayClass(c))
		}
		for _, s := range r.Slots {
			entries[i].Slots = append(entries[i].Slots, allowance.Slot(s))
		}
	}
	return allowance.NewRateSchedule(entries)
}

// ParseHolidays parses a holiday table into a calendar.
func (f *TableFactory) ParseHolidays(data []byte, format Format) (*calendar.StaticHolidayCalendar, error) {
	var rows []HolidayJSON
	if err := decode(data, format, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse holiday table: %w", err)
	}
	holidays, err := f.HolidaysFromJSON(rows)
	if err != nil {
		return nil, err
	}
	return calendar.NewStaticHolidayCalendar(holidays), nil
}

// HolidaysFromJSON converts rows, failing on the first unparseable date.
func (f *TableFactory) HolidaysFromJSON(rows []HolidayJSON) ([]calendar.Holiday, error) {
	out := make([]calendar.Holiday, 0, len(rows))
	for i, r := range rows {
		d, err := calendar.ParseHolidayDate(r.Date, f.loc)
		if err != nil {
			return nil, &calendar.HolidayDateError{Index: i, Value: r.Date, Err: err}
		}
		out = append(out, calendar.Holiday{Date: d, Name: r.Description})
	}
	return out, nil
}

// ParseDutyTypes parses and validates a duty type table.
func (f *TableFactory) ParseDutyTypes(data []byte, format Format) (roster.DutyTypes, error) {
	var rows []DutyTypeJSON
	if err := decode(data, format, &rows); err != nil {
		return roster.DutyTypes{}, fmt.Errorf("failed to parse duty types: %w", err)
	}
	types := make([]roster.DutyType, len(rows))
	for i, r := range rows {
		types[i] = roster.DutyType(r)
	}
	return roster.NewDutyTypes(types)
}

// =============================================================================
// LOADING - File or embedded default
// =============================================================================

// LoadRateSchedule reads the rate schedule at path, or the built-in one.
func (f *TableFactory) LoadRateSchedule(file string) (*allowance.RateSchedule, error) {
	data, format, err := readTable(file, DefaultRateScheduleFile)
	if err != nil {
		return nil, err
	}
	rs, err := f.ParseRateSchedule(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tableName(file, DefaultRateScheduleFile), err)
	}
	return rs, nil
}

// LoadHolidays reads the holiday table at path, or the built-in one.
func (f *TableFactory) LoadHolidays(file string) (*calendar.StaticHolidayCalendar, error) {
	data, format, err := readTable(file, DefaultHolidayFile)
	if err != nil {
		return nil, err
	}
	cal, err := f.ParseHolidays(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tableName(file, DefaultHolidayFile), err)
	}
	return cal, nil
}

// LoadDutyTypes reads the duty type table at path, or the built-in one.
func (f *TableFactory) LoadDutyTypes(file string) (roster.DutyTypes, error) {
	data, format, err := readTable(file, DefaultDutyTypesFile)
	if err != nil {
		return roster.DutyTypes{}, err
	}
	types, err := f.ParseDutyTypes(data, format)
	if err != nil {
		return roster.DutyTypes{}, fmt.Errorf("%s: %w", tableName(file, DefaultDutyTypesFile), err)
	}
	return types, nil
}

func readTable(file, defaultName string) ([]byte, Format, error) {
	name := tableName(file, defaultName)
	format, err := FormatOf(name)
	if err != nil {
		return nil, "", err
	}
	var data []byte
	if file == "" {
		data, err = defaults.ReadFile(path.Join("defaults", defaultName))
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, format, nil
}

func tableName(file, defaultName string) string {
	if file == "" {
		return "default " + defaultName
	}
	return file
}

// =============================================================================
// TO JSON - For the API
// =============================================================================

// RateScheduleToJSON converts a schedule back to its table form.
func RateScheduleToJSON(rs *allowance.RateSchedule) []RateEntryJSON {
	entries := rs.Entries()
	out := make([]RateEntryJSON, len(entries))
	for i, e := range entries {
		out[i].ApplicableWeekdays = make([]int, len(e.Applicable))
		for j, c := range e.Applicable {
			out[i].ApplicableWeekdays[j] = int(c)
		}
		out[i].Slots = make([]SlotJSON, len(e.Slots))
		for j, s := range e.Slots {
			out[i].Slots[j] = SlotJSON(s)
		}
	}
	return out
}

// HolidaysToJSON converts holidays to table rows with YYYY-MM-DD dates.
func HolidaysToJSON(holidays []calendar.Holiday) []HolidayJSON {
	out := make([]HolidayJSON, len(holidays))
	for i, h := range holidays {
		out[i] = HolidayJSON{Date: h.Date.String(), Description: h.Name}
	}
	return out
}

// DutyTypesToJSON converts a duty type table to rows ordered by id.
func DutyTypesToJSON(types roster.DutyTypes) []DutyTypeJSON {
	all := types.All()
	out := make([]DutyTypeJSON, len(all))
	for i, t := range all {
		out[i] = DutyTypeJSON(t)
	}
	return out
}
