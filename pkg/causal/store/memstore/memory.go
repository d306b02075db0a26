// Package memstore is an in-memory implementation of store.Store,
// used in tests and by callers that want run history without a
// database file.
package memstore

import (
	"context"
	"sync"

	"github.com/tailrisk/causal/pkg/causal/store"
)

// Store keeps runs in memory. Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	runs  map[string]store.Run
	order []string
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{runs: make(map[string]store.Run)}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveRun records a run, replacing any run with the same ID.
func (s *Store) SaveRun(ctx context.Context, r store.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[r.ID]; !ok {
		s.order = append(s.order, r.ID)
	}
	s.runs[r.ID] = copyRun(r)
	return nil
}

// GetRun returns the run with the given ID.
func (s *Store) GetRun(ctx context.Context, id string) (store.Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[id]
	if !ok {
		return store.Run{}, false, nil
	}
	return copyRun(r), true, nil
}

// ListRuns returns up to limit runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.order) {
		limit = len(s.order)
	}
	out := make([]store.Run, 0, limit)
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, copyRun(s.runs[s.order[i]]))
	}
	return out, nil
}

func copyRun(r store.Run) store.Run {
	out := r
	out.Targets = append([]string(nil), r.Targets...)
	if r.Evidence != nil {
		out.Evidence = make(map[string]string, len(r.Evidence))
		for k, v := range r.Evidence {
			out.Evidence[k] = v
		}
	}
	out.Cells = make([]store.Cell, len(r.Cells))
	for i, c := range r.Cells {
		out.Cells[i] = store.Cell{States: append([]string(nil), c.States...), P: c.P}
	}
	return out
}
