// Package store defines persistence for query runs: every exact or
// sampled query answered through the facade can be recorded with its
// evidence and resulting distribution for later reporting. Networks
// themselves are never persisted; construction is programmatic.
package store

import (
	"context"
	"time"
)

// Kind distinguishes which engine produced a run.
type Kind string

const (
	KindExact  Kind = "exact"
	KindSample Kind = "sample"
)

// Cell is one joint target state with its (exact or empirical)
// probability.
type Cell struct {
	States []string `json:"states"`
	P      float64  `json:"p"`
}

// Run is a recorded query: the question, its conditioning evidence,
// and the answer.
type Run struct {
	ID        string
	Kind      Kind
	CreatedAt time.Time
	// Scenario is an optional caller-supplied label for the network
	// the run was answered against.
	Scenario string

	Targets  []string
	Evidence map[string]string
	Cells    []Cell

	// Sampling metadata; zero for exact runs.
	Accepted  int
	Attempted int
	Seed      uint64
}

// Store persists query runs.
type Store interface {
	Close() error

	SaveRun(ctx context.Context, r Run) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}
