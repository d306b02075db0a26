// Package sample implements approximate conditional queries by
// ancestral (forward) sampling with rejection under evidence.
//
// Trials are independent and only read the immutable Network, so the
// sampler shards them across goroutines, each with its own PCG random
// stream derived from the request seed. Results are deterministic for
// identical (network, N, evidence, seed, shards); the shard count is
// part of the reproducibility contract.
package sample

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/tailrisk/causal/pkg/causal/internalerr"
	"github.com/tailrisk/causal/pkg/causal/network"
	"github.com/tailrisk/causal/pkg/causal/query"
)

// DefaultShards is the shard count used when a request leaves Shards
// unset. It is a fixed constant, not tied to GOMAXPROCS, so the same
// request reproduces on any machine.
const DefaultShards = 8

// confidenceZ is the two-sided 95% normal quantile used for the
// empirical confidence intervals.
var confidenceZ = distuv.UnitNormal.Quantile(0.975)

// Request describes one sampling run.
type Request struct {
	// N is the number of attempted trials. Trials inconsistent with
	// the evidence are rejected, not retried, so work is bounded
	// even under rare evidence.
	N int

	Targets  []string
	Evidence query.Evidence

	// Seed drives every random draw. Sampling always requires an
	// explicit seed; identical requests against the same network
	// produce identical results.
	Seed uint64

	// Shards overrides DefaultShards when positive.
	Shards int

	// RecordTrials keeps the retained joint assignments, in shard
	// order, on the result. Off by default: it costs memory linear
	// in the accepted count.
	RecordTrials bool
}

// Interval is a 95% confidence interval for one empirical cell
// probability (normal approximation, clamped to [0,1]).
type Interval struct {
	Lower, Upper float64
}

// Result is the outcome of a sampling run. When Accepted is zero the
// evidence was never hit: Dist has no cells and callers must not read
// a distribution out of it — rare evidence is data, not an error.
type Result struct {
	Accepted  int
	Attempted int

	// Dist is the empirical conditional distribution over the
	// requested targets, with one cell per joint state (including
	// never-observed states at probability 0).
	Dist query.Distribution

	// Intervals is aligned with Dist.Cells.
	Intervals []Interval

	// Trials holds the retained assignments when RecordTrials was
	// set: one variable-name to state map per accepted trial.
	Trials []map[string]string
}

// AcceptanceRate reports the fraction of attempted trials consistent
// with the evidence. Values near zero mean the evidence is rare and
// the empirical distribution is built on few trials.
func (r Result) AcceptanceRate() float64 {
	if r.Attempted == 0 {
		return 0
	}
	return float64(r.Accepted) / float64(r.Attempted)
}

// Sampler draws from one validated Network. It holds no per-run
// state; concurrent Run calls are independent.
type Sampler struct {
	net *network.Network
}

// New returns a sampler bound to the given network.
func New(net *network.Network) *Sampler {
	return &Sampler{net: net}
}

type shardResult struct {
	counts   []int64
	accepted int
	trials   []map[string]string
}

// Run executes the request and returns the empirical distribution
// over its targets. Trials walk the network's topological order,
// drawing each variable from the CPD row selected by its already
// drawn parents; a trial is rejected as soon as a drawn state
// contradicts the evidence (equivalent in distribution to sampling
// the full joint and discarding, but cheaper).
func (s *Sampler) Run(ctx context.Context, req Request) (Result, error) {
	if req.N <= 0 {
		return Result{}, fmt.Errorf("sample count must be positive, got %d", req.N)
	}
	targets, evidence, err := s.resolve(req)
	if err != nil {
		return Result{}, err
	}

	card := make([]int, len(targets))
	cells := 1
	for i, t := range targets {
		card[i] = s.net.Cardinality(t)
		cells *= card[i]
	}

	shards := req.Shards
	if shards <= 0 {
		shards = DefaultShards
	}
	if shards > req.N {
		shards = req.N
	}

	order := s.net.VarOrder()
	results := make([]shardResult, shards)
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < shards; i++ {
		shard := i
		n := req.N / shards
		if shard < req.N%shards {
			n++
		}
		g.Go(func() error {
			res, err := s.runShard(ctx, req, order, targets, evidence, card, cells, shard, n)
			if err != nil {
				return err
			}
			results[shard] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	// Merge is a sum of counts, so the outcome is independent of
	// shard completion order.
	counts := make([]int64, cells)
	out := Result{Attempted: req.N}
	for _, res := range results {
		for i, c := range res.counts {
			counts[i] += c
		}
		out.Accepted += res.accepted
		if req.RecordTrials {
			out.Trials = append(out.Trials, res.trials...)
		}
	}

	out.Dist = query.Distribution{Targets: append([]string(nil), req.Targets...)}
	if out.Accepted == 0 {
		return out, nil
	}

	out.Dist.Cells = make([]query.Cell, 0, cells)
	out.Intervals = make([]Interval, 0, cells)
	assign := make([]int, len(targets))
	for i := 0; ; i++ {
		states := make([]string, len(targets))
		for j, t := range targets {
			states[j] = s.net.States(t)[assign[j]]
		}
		p := float64(counts[i]) / float64(out.Accepted)
		out.Dist.Cells = append(out.Dist.Cells, query.Cell{States: states, P: p})
		out.Intervals = append(out.Intervals, interval(p, out.Accepted))
		if !advance(assign, card) {
			break
		}
	}
	return out, nil
}

func (s *Sampler) runShard(ctx context.Context, req Request, order, targets []int, evidence map[int]int, card []int, cells, shard, n int) (shardResult, error) {
	// Per-shard stream: the shard index is the PCG stream selector,
	// so shards are decorrelated but reproducible from one seed.
	rng := rand.New(rand.NewPCG(req.Seed, uint64(shard)))

	res := shardResult{counts: make([]int64, cells)}
	assign := make([]int, s.net.Len())
	parentAssign := make([]int, 0, 8)
	for trial := 0; trial < n; trial++ {
		if err := ctx.Err(); err != nil {
			return shardResult{}, err
		}

		ok := true
		for _, v := range order {
			parents := s.net.Parents(v)
			parentAssign = parentAssign[:0]
			for _, p := range parents {
				parentAssign = append(parentAssign, assign[p])
			}
			si := draw(rng, s.net.Row(v, parentAssign))
			if want, observed := evidence[v]; observed && si != want {
				ok = false
				break
			}
			assign[v] = si
		}
		if !ok {
			continue
		}

		res.accepted++
		cell := 0
		for i, t := range targets {
			cell = cell*card[i] + assign[t]
		}
		res.counts[cell]++
		if req.RecordTrials {
			res.trials = append(res.trials, s.record(assign))
		}
	}
	return res, nil
}

// draw samples a state index from a normalized distribution.
func draw(rng *rand.Rand, dist []float64) int {
	r := rng.Float64()
	acc := 0.0
	for i, p := range dist {
		acc += p
		if r < acc {
			return i
		}
	}
	// Rounding can leave r just above the accumulated mass.
	return len(dist) - 1
}

func (s *Sampler) record(assign []int) map[string]string {
	out := make(map[string]string, len(assign))
	for v, si := range assign {
		out[s.net.Name(v)] = s.net.States(v)[si]
	}
	return out
}

func (s *Sampler) resolve(req Request) ([]int, map[int]int, error) {
	if len(req.Targets) == 0 {
		return nil, nil, fmt.Errorf("no targets requested: %w", internalerr.ErrUnknownTarget)
	}
	targets := make([]int, len(req.Targets))
	seen := make(map[int]struct{}, len(req.Targets))
	for i, name := range req.Targets {
		v, ok := s.net.Index(name)
		if !ok {
			return nil, nil, fmt.Errorf("target %q: %w", name, internalerr.ErrUnknownTarget)
		}
		if _, dup := seen[v]; dup {
			return nil, nil, fmt.Errorf("target %q listed twice: %w", name, internalerr.ErrUnknownTarget)
		}
		seen[v] = struct{}{}
		targets[i] = v
	}

	evidence := make(map[int]int, len(req.Evidence))
	for name, state := range req.Evidence {
		v, ok := s.net.Index(name)
		if !ok {
			return nil, nil, fmt.Errorf("evidence variable %q: %w", name, internalerr.ErrInvalidEvidence)
		}
		si := s.net.StateIndex(v, state)
		if si < 0 {
			return nil, nil, fmt.Errorf("evidence %s=%q: no such state: %w",
				name, state, internalerr.ErrInvalidEvidence)
		}
		if _, isTarget := seen[v]; isTarget {
			return nil, nil, fmt.Errorf("variable %q is both target and evidence: %w",
				name, internalerr.ErrInvalidEvidence)
		}
		evidence[v] = si
	}
	return targets, evidence, nil
}

func interval(p float64, n int) Interval {
	se := math.Sqrt(p * (1 - p) / float64(n))
	return Interval{
		Lower: math.Max(0, p-confidenceZ*se),
		Upper: math.Min(1, p+confidenceZ*se),
	}
}

func advance(assign, card []int) bool {
	for i := len(assign) - 1; i >= 0; i-- {
		assign[i]++
		if assign[i] < card[i] {
			return true
		}
		assign[i] = 0
	}
	return false
}
