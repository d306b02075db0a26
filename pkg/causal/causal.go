// Package causal is a discrete causal probability engine: it holds a
// validated Bayesian network and answers conditional probability
// queries either exactly (variable elimination) or approximately
// (forward sampling with rejection).
//
// The facade wires the two engines to one immutable Network and,
// when a Store is configured, records every answered query as a Run.
package causal

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tailrisk/causal/pkg/causal/exact"
	"github.com/tailrisk/causal/pkg/causal/network"
	"github.com/tailrisk/causal/pkg/causal/query"
	"github.com/tailrisk/causal/pkg/causal/sample"
	"github.com/tailrisk/causal/pkg/causal/store"
)

// Causal is the engine facade. The wrapped Network is immutable, so
// one Causal may serve queries from many goroutines concurrently.
type Causal struct {
	net     *network.Network
	exact   *exact.Engine
	sampler *sample.Sampler

	st       store.Store
	scenario string

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Options configures a Causal instance.
type Options struct {
	// Network is the validated model both engines answer against.
	Network *network.Network

	// Store, when set, records every answered query.
	Store store.Store

	// Scenario is an optional label attached to recorded runs.
	Scenario string
}

// New creates a Causal instance with the given dependencies.
func New(opts Options) *Causal {
	return &Causal{
		net:      opts.Network,
		exact:    exact.New(opts.Network),
		sampler:  sample.New(opts.Network),
		st:       opts.Store,
		scenario: opts.Scenario,
		entropy:  ulid.Monotonic(rand.Reader, 0),
	}
}

// Network returns the wrapped network.
func (c *Causal) Network() *network.Network {
	return c.net
}

// Close cleanly shuts down the instance.
func (c *Causal) Close() error {
	if c.st == nil {
		return nil
	}
	return c.st.Close()
}

// Infer answers the request exactly by variable elimination.
func (c *Causal) Infer(ctx context.Context, req query.Request) (query.Distribution, error) {
	dist, err := c.exact.Query(req)
	if err != nil {
		return query.Distribution{}, err
	}

	if c.st != nil {
		run := store.Run{
			ID:        c.newID(),
			Kind:      store.KindExact,
			CreatedAt: time.Now(),
			Scenario:  c.scenario,
			Targets:   append([]string(nil), req.Targets...),
			Evidence:  req.Evidence.Clone(),
			Cells:     toStoreCells(dist.Cells),
		}
		if err := c.st.SaveRun(ctx, run); err != nil {
			return query.Distribution{}, fmt.Errorf("record run: %w", err)
		}
	}
	return dist, nil
}

// Simulate answers the request approximately by forward sampling.
// Callers must check Result.Accepted before trusting the empirical
// distribution; zero acceptance under rare evidence is a valid
// outcome, not an error.
func (c *Causal) Simulate(ctx context.Context, req sample.Request) (sample.Result, error) {
	res, err := c.sampler.Run(ctx, req)
	if err != nil {
		return sample.Result{}, err
	}

	if c.st != nil {
		run := store.Run{
			ID:        c.newID(),
			Kind:      store.KindSample,
			CreatedAt: time.Now(),
			Scenario:  c.scenario,
			Targets:   append([]string(nil), req.Targets...),
			Evidence:  req.Evidence.Clone(),
			Cells:     toStoreCells(res.Dist.Cells),
			Accepted:  res.Accepted,
			Attempted: res.Attempted,
			Seed:      req.Seed,
		}
		if err := c.st.SaveRun(ctx, run); err != nil {
			return sample.Result{}, fmt.Errorf("record run: %w", err)
		}
	}
	return res, nil
}

func (c *Causal) newID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ulid.MustNew(ulid.Now(), c.entropy).String()
}

func toStoreCells(cells []query.Cell) []store.Cell {
	out := make([]store.Cell, len(cells))
	for i, c := range cells {
		out[i] = store.Cell{States: append([]string(nil), c.States...), P: c.P}
	}
	return out
}
