package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shift-allowance/allowance"
	"github.com/warp/shift-allowance/calendar"
	"github.com/warp/shift-allowance/roster"
	"github.com/warp/shift-allowance/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var hk = time.FixedZone("HKT", 8*3600)

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:", sqlite.WithLocation(hk))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func duty(id, day, startHour, hours int) allowance.DutyEvent {
	start := time.Date(2020, time.June, day, startHour, 0, 0, 0, hk)
	return allowance.DutyEvent{ID: id, Title: "D", Start: start, End: start.Add(time.Duration(hours) * time.Hour), DutyTypeID: 1}
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func TestHolidays_SaveListDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	tuenNg := calendar.NewDate(2020, time.June, 25)

	require.NoError(t, store.SaveHoliday(ctx, calendar.Holiday{Date: tuenNg, Name: "Dragon Boat"}))
	require.NoError(t, store.SaveHoliday(ctx, calendar.Holiday{Date: tuenNg, Name: "Tuen Ng Festival"}))
	require.NoError(t, store.SaveHoliday(ctx, calendar.Holiday{Date: calendar.NewDate(2020, time.January, 1), Name: "New Year"}))

	holidays, err := store.ListHolidays(ctx)
	require.NoError(t, err)
	require.Len(t, holidays, 2)
	assert.Equal(t, "New Year", holidays[0].Name)
	assert.Equal(t, "Tuen Ng Festival", holidays[1].Name, "same date renames")

	cal, err := store.LoadCalendar(ctx)
	require.NoError(t, err)
	_, ok := cal.IsHoliday(time.Date(2020, time.June, 25, 23, 0, 0, 0, hk))
	assert.True(t, ok)

	require.NoError(t, store.DeleteHoliday(ctx, tuenNg))
	assert.ErrorIs(t, store.DeleteHoliday(ctx, tuenNg), sqlite.ErrHolidayNotFound)
}

func TestSeedHolidays_OnlyWhenEmpty(t *testing.T) {
	// GIVEN: An empty holiday table
	// WHEN: Seeding twice, with an API edit in between
	// THEN: The second seed leaves the table alone

	store := newTestStore(t)
	ctx := context.Background()
	seed := []calendar.Holiday{
		{Date: calendar.NewDate(2020, time.January, 1), Name: "New Year"},
		{Date: calendar.NewDate(2020, time.October, 1), Name: "National Day"},
	}

	n, err := store.SeedHolidays(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, store.DeleteHoliday(ctx, seed[0].Date))

	n, err = store.SeedHolidays(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	holidays, _ := store.ListHolidays(ctx)
	assert.Len(t, holidays, 1)
}

// =============================================================================
// ROSTERS
// =============================================================================

func TestRoster_SaveReplacesAndLoadsSorted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRoster(ctx, "w-1", []allowance.DutyEvent{duty(1, 3, 8, 8), duty(2, 1, 22, 10)}))
	require.NoError(t, store.SaveRoster(ctx, "w-1", []allowance.DutyEvent{duty(2, 1, 22, 10), duty(3, 5, 8, 8), duty(1, 3, 8, 8)}))

	events, err := store.LoadRoster(ctx, "w-1")
	require.NoError(t, err)

	require.Len(t, events, 3)
	assert.Equal(t, []int{2, 1, 3}, []int{events[0].ID, events[1].ID, events[2].ID})
	assert.True(t, duty(2, 1, 22, 10).Start.Equal(events[0].Start))
	assert.Equal(t, hk, events[0].Start.Location())
	assert.Equal(t, calendar.NewDate(2020, time.June, 2), calendar.DateOf(events[0].End))
}

func TestRoster_KeepsTombstones(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	tomb := duty(4, 2, 0, 0)

	require.NoError(t, store.SaveRoster(ctx, "w-1", []allowance.DutyEvent{tomb}))

	events, err := store.LoadRoster(ctx, "w-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].IsTombstone())
}

func TestRoster_EmptyVersusUnknown(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRoster(ctx, "w-empty", nil))

	events, err := store.LoadRoster(ctx, "w-empty")
	require.NoError(t, err)
	assert.Empty(t, events)

	_, err = store.LoadRoster(ctx, "w-unknown")
	assert.ErrorIs(t, err, sqlite.ErrWorkerNotFound)

	workers, err := store.ListWorkers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"w-empty"}, workers)
}

func TestRoster_DuplicateIDRollsBack(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveRoster(ctx, "w-1", []allowance.DutyEvent{duty(1, 1, 8, 8)}))

	err := store.SaveRoster(ctx, "w-1", []allowance.DutyEvent{duty(5, 2, 8, 8), duty(5, 3, 8, 8)})
	assert.ErrorIs(t, err, roster.ErrDuplicateEvent)
	assert.True(t, roster.IsClientError(err))

	events, err := store.LoadRoster(ctx, "w-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 1, events[0].ID)
}

// =============================================================================
// COMPUTE RUNS
// =============================================================================

func TestRuns_SaveGetList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	result := allowance.ComputeResult{
		Month: []allowance.Detail{{
			Start: time.Date(2020, time.June, 1, 0, 0, 0, 0, hk),
			End:   time.Date(2020, time.June, 1, 1, 30, 0, 0, hk),
			Hours: decimal.RequireFromString("44.55"),
		}},
		Day: [][]allowance.Detail{{{
			Start:       time.Date(2020, time.June, 1, 0, 0, 0, 0, hk),
			End:         time.Date(2020, time.June, 1, 1, 30, 0, 0, hk),
			Hours:       decimal.RequireFromString("44.55"),
			Description: "N",
		}}},
		EarnedCO: []int{1},
	}

	first, err := store.SaveRun(ctx, sqlite.Run{WorkerID: "w-1", Result: result, CreatedAt: time.Now().Add(-time.Hour)})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, 1, first.Months)
	assert.True(t, decimal.RequireFromString("44.55").Equal(first.TotalHours))

	second, err := store.SaveRun(ctx, sqlite.Run{WorkerID: "w-1", Result: result})
	require.NoError(t, err)

	got, err := store.GetRun(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "w-1", got.WorkerID)
	assert.True(t, decimal.RequireFromString("44.55").Equal(got.Result.Month[0].Hours))
	assert.Equal(t, "N", got.Result.Day[0][0].Description)
	assert.Equal(t, []int{1}, got.Result.EarnedCO)
	assert.True(t, result.Month[0].Start.Equal(got.Result.Month[0].Start))

	runs, err := store.ListRuns(ctx, "w-1")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID, "newest first")

	_, err = store.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, sqlite.ErrRunNotFound)
}
