package allowance_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shift-allowance/allowance"
)

func monthOf(hours string) allowance.Detail {
	return allowance.Detail{
		Start: at(2020, time.June, 1, 0, 0),
		End:   at(2020, time.June, 30, 0, 0),
		Hours: decimal.RequireFromString(hours),
	}
}

func TestAssess_Tiers(t *testing.T) {
	th := allowance.DefaultThresholds()

	tests := []struct {
		hours    string
		tier     allowance.Tier
		progress string
		toHalf   string
		toFull   string
	}{
		{"0", allowance.TierNone, "0", "25", "50"},
		{"24.5", allowance.TierNone, "49", "0.5", "25.5"},
		{"25", allowance.TierHalf, "50", "0", "25"},
		{"44.55", allowance.TierHalf, "89.1", "0", "5.45"},
		{"50", allowance.TierFull, "100", "0", "0"},
		{"72.25", allowance.TierFull, "100", "0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.hours, func(t *testing.T) {
			a := allowance.Assess(monthOf(tt.hours), 1, th)

			assert.Equal(t, "2020-06", a.Month)
			assert.Equal(t, tt.tier, a.Tier)
			assertHours(t, tt.progress, a.Progress, "progress")
			assertHours(t, tt.toHalf, a.HoursToHalf, "to half")
			assertHours(t, tt.toFull, a.HoursToFull, "to full")
			assert.Equal(t, 1, a.EarnedCO)
		})
	}
}

func TestAssessAll_AlignedWithResult(t *testing.T) {
	engine := allowance.NewEngine(nil, rosterSchedule(t))
	result, err := engine.Compute(juneRoster())
	require.NoError(t, err)

	assessments := allowance.AssessAll(result, allowance.DefaultThresholds())

	require.Len(t, assessments, 2)
	assert.Equal(t, "2020-05", assessments[0].Month)
	assert.Equal(t, allowance.TierNone, assessments[0].Tier)
	assert.Equal(t, "2020-06", assessments[1].Month)
	assert.Equal(t, allowance.TierHalf, assessments[1].Tier)
}

// =============================================================================
// RATE SCHEDULE VALIDATION
// =============================================================================

func TestNewRateSchedule_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		entries []allowance.RateEntry
		entry   int
		slot    int
	}{
		{"no classes", []allowance.RateEntry{{}}, 0, -1},
		{"unknown class", []allowance.RateEntry{{Applicable: []allowance.WeekdayClass{7}}}, 0, -1},
		{"duplicate class", []allowance.RateEntry{
			{Applicable: []allowance.WeekdayClass{allowance.Monday}},
			{Applicable: []allowance.WeekdayClass{allowance.Tuesday, allowance.Monday}},
		}, 1, -1},
		{"minute out of range", []allowance.RateEntry{
			{Applicable: []allowance.WeekdayClass{allowance.Monday}, Slots: []allowance.Slot{{StartMinute: 60, EndHour: 2}}},
		}, 0, 0},
		{"past midnight", []allowance.RateEntry{
			{Applicable: []allowance.WeekdayClass{allowance.Monday}, Slots: []allowance.Slot{allDay(), {EndHour: 24, EndMinute: 30}}},
		}, 0, 1},
		{"start after end", []allowance.RateEntry{
			{Applicable: []allowance.WeekdayClass{allowance.Monday}, Slots: []allowance.Slot{slot(19, 0, 7, 0)}},
		}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := allowance.NewRateSchedule(tt.entries)

			var se *allowance.ScheduleError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Equal(t, tt.entry, se.Entry)
			assert.Equal(t, tt.slot, se.Slot)
			assert.ErrorIs(t, err, allowance.ErrInvalidSchedule)
			assert.False(t, allowance.IsClientError(err))
		})
	}
}

func TestRateSchedule_EntryFor(t *testing.T) {
	rs := rosterSchedule(t)

	entry, ok := rs.EntryFor(allowance.Holiday)
	require.True(t, ok)
	assert.Equal(t, []allowance.Slot{allDay()}, entry.Slots)

	entry, ok = rs.EntryFor(allowance.Wednesday)
	require.True(t, ok)
	assert.Len(t, entry.Slots, 2)

	assert.Len(t, rs.Entries(), 2)
}
