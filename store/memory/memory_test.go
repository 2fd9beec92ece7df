package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shift-allowance/allowance"
	"github.com/warp/shift-allowance/roster"
	"github.com/warp/shift-allowance/store/memory"
)

func ev(id int, day int) allowance.DutyEvent {
	start := time.Date(2020, time.June, day, 8, 0, 0, 0, time.UTC)
	return allowance.DutyEvent{ID: id, Title: "A", Start: start, End: start.Add(8 * time.Hour), DutyTypeID: 1}
}

func TestMemory_RoundTripSorted(t *testing.T) {
	m := memory.New()
	ctx := context.Background()

	require.NoError(t, m.SaveRoster(ctx, "w-1", []allowance.DutyEvent{ev(2, 5), ev(1, 3), ev(3, 4)}))

	got, err := m.LoadRoster(ctx, "w-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int{1, 3, 2}, []int{got[0].ID, got[1].ID, got[2].ID})

	// Returned slice is a copy.
	got[0].Title = "changed"
	again, _ := m.LoadRoster(ctx, "w-1")
	assert.Equal(t, "A", again[0].Title)

	workers, err := m.ListWorkers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"w-1"}, workers)
}

func TestMemory_DuplicateIDKeepsPrevious(t *testing.T) {
	m := memory.New()
	ctx := context.Background()
	require.NoError(t, m.SaveRoster(ctx, "w-1", []allowance.DutyEvent{ev(1, 3)}))

	err := m.SaveRoster(ctx, "w-1", []allowance.DutyEvent{ev(5, 4), ev(5, 5)})
	assert.ErrorIs(t, err, roster.ErrDuplicateEvent)

	got, err := m.LoadRoster(ctx, "w-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].ID)
}

func TestMemory_UnknownWorker(t *testing.T) {
	_, err := memory.New().LoadRoster(context.Background(), "nobody")
	assert.ErrorIs(t, err, roster.ErrWorkerNotFound)
}
