// Package exact implements exact conditional probability queries over
// a Network by variable elimination. Results carry no approximation
// error; cost is exponential in the width induced by the elimination
// order, which makes the engine suitable for networks of a few dozen
// small-cardinality variables.
package exact

import (
	"fmt"

	"github.com/tailrisk/causal/pkg/causal/factor"
	"github.com/tailrisk/causal/pkg/causal/internalerr"
	"github.com/tailrisk/causal/pkg/causal/network"
	"github.com/tailrisk/causal/pkg/causal/query"
)

// Engine answers exact queries against one validated Network. It is
// stateless between queries; independent queries may run concurrently.
type Engine struct {
	net *network.Network
}

// New returns an engine bound to the given network.
func New(net *network.Network) *Engine {
	return &Engine{net: net}
}

// Query returns the normalized distribution over the joint states of
// the request's targets, conditioned on its evidence.
//
// Non-target, non-evidence variables are eliminated in a min-degree
// greedy order (ties broken by registration index), which is
// deterministic and affects cost only, never the result.
func (e *Engine) Query(req query.Request) (query.Distribution, error) {
	targets, evidence, err := e.resolve(req)
	if err != nil {
		return query.Distribution{}, err
	}

	factors := e.initialFactors(evidence)

	for _, v := range eliminationOrder(e.net.Len(), factors, targets, evidence) {
		factors = eliminate(factors, v)
	}

	result := factor.Scalar(1)
	for _, f := range factors {
		result = factor.Product(result, f)
	}
	if !result.Normalize() {
		return query.Distribution{}, fmt.Errorf("evidence %v has zero probability under the model: %w",
			req.Evidence, internalerr.ErrZeroProbabilityEvidence)
	}

	return e.expand(req.Targets, targets, result), nil
}

// resolve validates names and states, returning target indices and
// evidence as a variable-index to state-index map.
func (e *Engine) resolve(req query.Request) ([]int, map[int]int, error) {
	if len(req.Targets) == 0 {
		return nil, nil, fmt.Errorf("no targets requested: %w", internalerr.ErrUnknownTarget)
	}
	targets := make([]int, len(req.Targets))
	seen := make(map[int]struct{}, len(req.Targets))
	for i, name := range req.Targets {
		v, ok := e.net.Index(name)
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
		v, ok := e.net.Index(name)
		if !ok {
			return nil, nil, fmt.Errorf("evidence variable %q: %w", name, internalerr.ErrInvalidEvidence)
		}
		si := e.net.StateIndex(v, state)
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

// initialFactors builds one factor per node from its CPD (scope
// {node} union parents) and reduces each against the evidence.
func (e *Engine) initialFactors(evidence map[int]int) []factor.Factor {
	factors := make([]factor.Factor, 0, e.net.Len())
	for v := 0; v < e.net.Len(); v++ {
		f := e.nodeFactor(v)
		for ev, si := range evidence {
			f = factor.Reduce(f, ev, si)
		}
		factors = append(factors, f)
	}
	return factors
}

// nodeFactor materializes P(v | parents) as a factor over the sorted
// scope {v} union parents.
func (e *Engine) nodeFactor(v int) factor.Factor {
	parents := e.net.Parents(v)
	scope := append([]int{v}, parents...)
	card := make([]int, len(scope))
	for i, sv := range scope {
		card[i] = e.net.Cardinality(sv)
	}
	f := factor.New(scope, card)

	// Positions of v and each parent within the sorted factor scope.
	vpos := f.Pos(v)
	ppos := make([]int, len(parents))
	for i, p := range parents {
		ppos[i] = f.Pos(p)
	}

	assign := make([]int, len(f.Vars))
	parentAssign := make([]int, len(parents))
	for i := 0; ; i++ {
		for j, p := range ppos {
			parentAssign[j] = assign[p]
		}
		f.Values[i] = e.net.Row(v, parentAssign)[assign[vpos]]
		if !advance(assign, f.Card) {
			break
		}
	}
	return f
}

// eliminate multiplies every factor mentioning v into one product,
// sums v out of it, and returns the updated factor set.
func eliminate(factors []factor.Factor, v int) []factor.Factor {
	rest := make([]factor.Factor, 0, len(factors))
	combined := factor.Scalar(1)
	touched := false
	for _, f := range factors {
		if f.Pos(v) >= 0 {
			combined = factor.Product(combined, f)
			touched = true
		} else {
			rest = append(rest, f)
		}
	}
	if !touched {
		return rest
	}
	return append(rest, factor.SumOut(combined, v))
}

// eliminationOrder picks a min-degree greedy order over all variables
// that are neither targets nor evidence, using the interaction graph
// induced by the current factor scopes. Ties go to the smallest
// variable index.
func eliminationOrder(n int, factors []factor.Factor, targets []int, evidence map[int]int) []int {
	adj := make([]map[int]struct{}, n)
	for i := range adj {
		adj[i] = make(map[int]struct{})
	}
	for _, f := range factors {
		for _, a := range f.Vars {
			for _, b := range f.Vars {
				if a != b {
					adj[a][b] = struct{}{}
				}
			}
		}
	}

	keep := make([]bool, n)
	for _, t := range targets {
		keep[t] = true
	}
	remaining := make(map[int]struct{})
	for v := 0; v < n; v++ {
		if _, isEv := evidence[v]; !isEv && !keep[v] {
			remaining[v] = struct{}{}
		}
	}

	order := make([]int, 0, len(remaining))
	for len(remaining) > 0 {
		best, bestDeg := -1, -1
		for v := 0; v < n; v++ {
			if _, ok := remaining[v]; !ok {
				continue
			}
			if best == -1 || len(adj[v]) < bestDeg {
				best, bestDeg = v, len(adj[v])
			}
		}

		// Connect the neighbors of the eliminated variable, as the
		// product-then-marginalize step will.
		for a := range adj[best] {
			for b := range adj[best] {
				if a != b {
					adj[a][b] = struct{}{}
				}
			}
			delete(adj[a], best)
		}
		delete(remaining, best)
		order = append(order, best)
	}
	return order
}

// expand renders the final factor as a Distribution in the caller's
// target order, row-major with the last target varying fastest.
func (e *Engine) expand(names []string, targets []int, f factor.Factor) query.Distribution {
	card := make([]int, len(targets))
	for i, t := range targets {
		card[i] = e.net.Cardinality(t)
	}
	fpos := make([]int, len(targets))
	for i, t := range targets {
		fpos[i] = f.Pos(t)
	}

	size := 1
	for _, c := range card {
		size *= c
	}
	dist := query.Distribution{
		Targets: append([]string(nil), names...),
		Cells:   make([]query.Cell, 0, size),
	}

	assign := make([]int, len(targets))
	fAssign := make([]int, len(f.Vars))
	for {
		states := make([]string, len(targets))
		for i, t := range targets {
			states[i] = e.net.States(t)[assign[i]]
			fAssign[fpos[i]] = assign[i]
		}
		dist.Cells = append(dist.Cells, query.Cell{States: states, P: f.At(fAssign)})
		if !advance(assign, card) {
			break
		}
	}
	return dist
}

// advance steps assign through the joint state space in row-major
// order, returning false after the last assignment.
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
