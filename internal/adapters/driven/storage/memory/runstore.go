package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/domain"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/ports/driven"
)

// Ensure RunStore implements the interface.
var _ driven.RunStore = (*RunStore)(nil)

// RunStore is an in-memory implementation of driven.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	runs []domain.RunSummary
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{}
}

// SaveRun stores a completed run summary.
func (s *RunStore) SaveRun(_ context.Context, run *domain.RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, *run)
	return nil
}

// ListRuns returns summaries newest-first, up to limit (0 for all).
func (s *RunStore) ListRuns(_ context.Context, limit int) ([]domain.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]domain.RunSummary, len(s.runs))
	copy(runs, s.runs)
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
