// Package memory provides an in-memory roster.Store (for testing/dev).
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/warp/shift-allowance/allowance"
	"github.com/warp/shift-allowance/roster"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	rosters map[string][]allowance.DutyEvent
}

func New() *Memory {
	return &Memory{rosters: make(map[string][]allowance.DutyEvent)}
}

// SaveRoster replaces the worker's events. Events are kept sorted by start.
func (m *Memory) SaveRoster(_ context.Context, workerID string, events []allowance.DutyEvent) error {
	seen := make(map[int]struct{}, len(events))
	for _, ev := range events {
		if _, dup := seen[ev.ID]; dup {
			return fmt.Errorf("%w: %d for worker %s", roster.ErrDuplicateEvent, ev.ID, workerID)
		}
		seen[ev.ID] = struct{}{}
	}

	sorted := make([]allowance.DutyEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	m.mu.Lock()
	defer m.mu.Unlock()
	m.rosters[workerID] = sorted
	return nil
}

func (m *Memory) LoadRoster(_ context.Context, workerID string) ([]allowance.DutyEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events, ok := m.rosters[workerID]
	if !ok {
		return nil, roster.ErrWorkerNotFound
	}
	result := make([]allowance.DutyEvent, len(events))
	copy(result, events)
	return result, nil
}

// ListWorkers returns the ids of every stored worker, sorted.
func (m *Memory) ListWorkers(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.rosters))
	for id := range m.rosters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

var _ roster.Store = (*Memory)(nil)
