// Package query holds the request and result types shared by the
// exact and sampling engines. Variables and states cross this
// boundary as stable string identifiers only; internal indices never
// leak to callers.
package query

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Evidence is a partial assignment: observed state per variable name.
type Evidence map[string]string

// Clone returns an independent copy of the evidence.
func (e Evidence) Clone() Evidence {
	out := make(Evidence, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Request asks for the distribution over the joint states of Targets
// conditioned on Evidence.
type Request struct {
	Targets  []string
	Evidence Evidence
}

// Cell is one joint state of the targets with its probability.
type Cell struct {
	// States holds one state label per target, aligned with the
	// distribution's Targets.
	States []string
	P      float64
}

// Distribution is a probability distribution over the joint states of
// one or more target variables, normalized to sum to 1. Cells are in
// row-major order of the targets' declared state orders, with the
// last target varying fastest.
type Distribution struct {
	Targets []string
	Cells   []Cell
}

// Prob returns the probability of the given joint state, one label
// per target in target order. It returns 0 for states not present.
func (d Distribution) Prob(states ...string) float64 {
	for _, c := range d.Cells {
		if equalStates(c.States, states) {
			return c.P
		}
	}
	return 0
}

// Marginal sums the distribution down to a single target variable.
func (d Distribution) Marginal(target string) (map[string]float64, error) {
	pos := -1
	for i, t := range d.Targets {
		if t == target {
			pos = i
			break
		}
	}
	if pos == -1 {
		return nil, fmt.Errorf("variable %q is not a target of this distribution", target)
	}
	out := make(map[string]float64)
	for _, c := range d.Cells {
		out[c.States[pos]] += c.P
	}
	return out, nil
}

// TotalVariation returns the total variation distance between two
// distributions over the same targets: half the L1 distance between
// their cell probabilities. Used to compare the sampling engine's
// empirical output against the exact engine.
func (d Distribution) TotalVariation(other Distribution) float64 {
	sum := 0.0
	for _, c := range d.Cells {
		sum += math.Abs(c.P - other.Prob(c.States...))
	}
	for _, c := range other.Cells {
		if !d.contains(c.States) {
			sum += math.Abs(c.P)
		}
	}
	return sum / 2
}

// String renders the distribution one joint state per line, sorted by
// descending probability, for reports and debugging.
func (d Distribution) String() string {
	cells := append([]Cell(nil), d.Cells...)
	sort.SliceStable(cells, func(i, j int) bool { return cells[i].P > cells[j].P })

	var b strings.Builder
	fmt.Fprintf(&b, "P(%s)\n", strings.Join(d.Targets, ", "))
	for _, c := range cells {
		fmt.Fprintf(&b, "  %-40s %.4f\n", strings.Join(c.States, ", "), c.P)
	}
	return b.String()
}

func (d Distribution) contains(states []string) bool {
	for _, c := range d.Cells {
		if equalStates(c.States, states) {
			return true
		}
	}
	return false
}

func equalStates(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
