package allowance_test

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shift-allowance/allowance"
	"github.com/warp/shift-allowance/calendar"
)

// =============================================================================
// SPLIT TESTS
// =============================================================================

func TestSplitCrossDay_SameDayUnchanged(t *testing.T) {
	ev := event(5, "Day", at(2020, time.June, 2, 9, 0), at(2020, time.June, 2, 17, 0))

	pieces := allowance.SplitCrossDay([]allowance.DutyEvent{ev})

	assert.Equal(t, []allowance.DutyEvent{ev}, pieces)
}

func TestSplitCrossDay_IdempotentOnSameDateEvents(t *testing.T) {
	// GIVEN: Events that each start and end on one calendar date
	// WHEN: Splitting twice
	// THEN: The second pass changes nothing

	var sameDate []allowance.DutyEvent
	for _, p := range allowance.SplitCrossDay(juneRoster()) {
		if calendar.SameDate(p.Start, p.End) {
			sameDate = append(sameDate, p)
		}
	}
	require.NotEmpty(t, sameDate)

	once := allowance.SplitCrossDay(sameDate)
	twice := allowance.SplitCrossDay(once)

	assert.Equal(t, sameDate, once)
	assert.Equal(t, once, twice)
}

func TestSplitCrossDay_CoversSourceSpan(t *testing.T) {
	// GIVEN: A shift running from Friday evening to Monday morning
	// WHEN: Splitting
	// THEN: Pieces are contiguous, day-bounded and rebuild the original span

	src := event(9, "Weekend", at(2020, time.June, 5, 20, 0), at(2020, time.June, 8, 6, 30))

	pieces := allowance.SplitCrossDay([]allowance.DutyEvent{src})

	require.Len(t, pieces, 4)
	assert.Equal(t, src.Start, pieces[0].Start)
	assert.True(t, src.End.Equal(pieces[len(pieces)-1].End))
	var total time.Duration
	for i, p := range pieces {
		assert.True(t, calendar.SameDate(p.Start, p.End) || p.End.Equal(calendar.NextMidnight(p.Start)),
			"piece %d crosses a date", i)
		assert.Equal(t, src.ID, p.ID)
		assert.Equal(t, src.Title, p.Title)
		assert.Equal(t, src.DutyTypeID, p.DutyTypeID)
		if i > 0 {
			assert.True(t, pieces[i-1].End.Equal(p.Start), "gap before piece %d", i)
		}
		total += p.Duration()
	}
	assert.Equal(t, src.Duration(), total)
}

func TestSplitCrossDay_EndingAtMidnight(t *testing.T) {
	// GIVEN: A shift from 16:00 to exactly midnight
	// WHEN: Splitting
	// THEN: A piece ends at 24:00 and a zero-length piece opens the next date

	src := event(1, "Evening", at(2020, time.June, 2, 16, 0), at(2020, time.June, 3, 0, 0))

	pieces := allowance.SplitCrossDay([]allowance.DutyEvent{src})

	require.Len(t, pieces, 2)
	assert.Equal(t, src.Start, pieces[0].Start)
	assert.True(t, pieces[0].End.Equal(src.End))
	assert.Equal(t, 8*time.Hour, pieces[0].Duration())

	assert.True(t, pieces[1].IsTombstone())
	assert.True(t, pieces[1].Start.Equal(src.End))
	assert.Equal(t, calendar.NewDate(2020, time.June, 3), calendar.DateOf(pieces[1].Start))
	assert.Equal(t, src.ID, pieces[1].ID)
}

func TestSplitCrossDay_MultiDayEndingAtMidnight(t *testing.T) {
	src := event(1, "Weekend", at(2020, time.June, 5, 20, 0), at(2020, time.June, 7, 0, 0))

	pieces := allowance.SplitCrossDay([]allowance.DutyEvent{src})

	require.Len(t, pieces, 3)
	assert.Equal(t, 4*time.Hour, pieces[0].Duration())
	assert.Equal(t, 24*time.Hour, pieces[1].Duration())
	assert.False(t, pieces[0].IsTombstone())
	assert.False(t, pieces[1].IsTombstone())
	assert.True(t, pieces[2].IsTombstone())
	assert.Equal(t, calendar.NewDate(2020, time.June, 7), calendar.DateOf(pieces[2].Start))
}

func TestSplitCrossDay_Tombstone(t *testing.T) {
	ts := at(2020, time.June, 2, 16, 0)

	pieces := allowance.SplitCrossDay([]allowance.DutyEvent{event(1, "Gone", ts, ts)})

	require.Len(t, pieces, 1)
	assert.True(t, pieces[0].IsTombstone())
}

func TestSplitCrossDay_DoesNotMutateInput(t *testing.T) {
	events := juneRoster()
	snapshot := append([]allowance.DutyEvent(nil), events...)

	_ = allowance.SplitCrossDay(events)

	assert.Equal(t, snapshot, events)
}

// =============================================================================
// PARTITION TESTS
// =============================================================================

func TestPartitionByMonth_Completeness(t *testing.T) {
	// GIVEN: Day-bounded pieces in reverse order
	// WHEN: Partitioning
	// THEN: Concatenated groups equal the sorted input, each group one month

	pieces := allowance.SplitCrossDay(juneRoster())
	reversed := make([]allowance.DutyEvent, len(pieces))
	for i, p := range pieces {
		reversed[len(pieces)-1-i] = p
	}

	groups := allowance.PartitionByMonth(reversed)

	var flat []allowance.DutyEvent
	for _, g := range groups {
		require.NotEmpty(t, g)
		for _, ev := range g {
			assert.True(t, calendar.SameMonth(g[0].Start, ev.Start))
		}
		flat = append(flat, g...)
	}
	sorted := append([]allowance.DutyEvent(nil), pieces...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })
	assert.Equal(t, sorted, flat)
}

func TestPartitionByMonth_SkipsEmptyMonthsAndCrossesYear(t *testing.T) {
	events := []allowance.DutyEvent{
		event(3, "C", at(2021, time.March, 1, 8, 0), at(2021, time.March, 1, 9, 0)),
		event(1, "A", at(2020, time.December, 31, 8, 0), at(2020, time.December, 31, 9, 0)),
		event(2, "B", at(2021, time.January, 1, 8, 0), at(2021, time.January, 1, 9, 0)),
	}

	groups := allowance.PartitionByMonth(events)

	require.Len(t, groups, 3)
	assert.Equal(t, 1, groups[0][0].ID)
	assert.Equal(t, 2, groups[1][0].ID)
	assert.Equal(t, 3, groups[2][0].ID)
}

func TestPartitionByMonth_SameMonthDifferentYear(t *testing.T) {
	events := []allowance.DutyEvent{
		event(1, "A", at(2020, time.June, 1, 8, 0), at(2020, time.June, 1, 9, 0)),
		event(2, "B", at(2021, time.June, 1, 8, 0), at(2021, time.June, 1, 9, 0)),
	}

	assert.Len(t, allowance.PartitionByMonth(events), 2)
}

func TestPartitionByMonth_Empty(t *testing.T) {
	assert.Nil(t, allowance.PartitionByMonth(nil))
}
