// Package network defines discrete random variables, their causal
// structure, and the conditional probability tables attached to each
// node. A Network is validated fail-fast during construction and is
// immutable afterwards, so it can be shared across concurrent readers
// without locking.
package network

import (
	"fmt"
	"math"

	"github.com/tailrisk/causal/pkg/causal/internalerr"
)

// NormTolerance is the tolerance applied when checking that each CPD
// row sums to 1.
const NormTolerance = 1e-6

// Variable is a random variable: a stable name and an ordered set of
// mutually exclusive state labels.
type Variable struct {
	Name   string
	States []string
}

// Row is one conditional distribution of a CPD: the probabilities of
// a variable's own states given one combination of parent states.
// Given lists parent states in the node's declared parent order; it
// is empty for root nodes.
type Row struct {
	Given []string
	Probs map[string]float64
}

// CPD is a full conditional probability table: one Row per element of
// the Cartesian product of the parents' state sets (a single row with
// empty Given for a root node).
type CPD []Row

// Builder assembles a Network incrementally. A failed Add leaves the
// builder in its previous valid state, so callers can recover from
// construction errors without starting over.
type Builder struct {
	vars    []Variable
	byName  map[string]int
	parents [][]int
	// rows[v][combo] is the distribution over v's states for the
	// parent combination with mixed-radix index combo (last parent
	// varies fastest). nil until AddNode attaches a CPD.
	rows [][][]float64
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{byName: make(map[string]int)}
}

// AddVariable registers a variable with its ordered state labels.
func (b *Builder) AddVariable(name string, states []string) error {
	if _, ok := b.byName[name]; ok {
		return fmt.Errorf("variable %q: %w", name, internalerr.ErrDuplicateVariable)
	}
	if len(states) == 0 {
		return fmt.Errorf("variable %q: %w", name, internalerr.ErrEmptyStateSet)
	}
	seen := make(map[string]struct{}, len(states))
	for _, s := range states {
		if _, ok := seen[s]; ok {
			return fmt.Errorf("variable %q state %q: %w", name, s, internalerr.ErrDuplicateState)
		}
		seen[s] = struct{}{}
	}
	b.byName[name] = len(b.vars)
	b.vars = append(b.vars, Variable{Name: name, States: append([]string(nil), states...)})
	b.parents = append(b.parents, nil)
	b.rows = append(b.rows, nil)
	return nil
}

// AddNode attaches parents and a CPD to a registered variable. Every
// parent must already be registered, the edges must not close a
// directed cycle, and the CPD rows must cover the Cartesian product
// of the parents' states exactly once with each row summing to 1
// within NormTolerance.
func (b *Builder) AddNode(variable string, parents []string, cpd CPD) error {
	v, ok := b.byName[variable]
	if !ok {
		return fmt.Errorf("node %q: %w", variable, internalerr.ErrUnknownVariable)
	}
	if b.rows[v] != nil {
		return fmt.Errorf("node %q already has a cpd: %w", variable, internalerr.ErrDuplicateVariable)
	}

	pidx := make([]int, len(parents))
	for i, p := range parents {
		pi, ok := b.byName[p]
		if !ok {
			return fmt.Errorf("node %q parent %q: %w", variable, p, internalerr.ErrUnknownParent)
		}
		pidx[i] = pi
	}

	// Cycle check: tentatively install the edges and attempt a
	// topological sort over the whole graph.
	b.parents[v] = pidx
	if _, err := topoSort(b.vars, b.parents); err != nil {
		b.parents[v] = nil
		return fmt.Errorf("node %q: %w", variable, err)
	}

	rows, err := b.compile(v, pidx, cpd)
	if err != nil {
		b.parents[v] = nil
		return fmt.Errorf("node %q: %w", variable, err)
	}
	b.rows[v] = rows
	return nil
}

// compile turns a label-keyed CPD into a flat index-based table.
func (b *Builder) compile(v int, parents []int, cpd CPD) ([][]float64, error) {
	combos := 1
	for _, p := range parents {
		combos *= len(b.vars[p].States)
	}
	if len(cpd) != combos {
		return nil, fmt.Errorf("%d rows for %d parent combinations: %w",
			len(cpd), combos, internalerr.ErrCPDShapeMismatch)
	}

	states := b.vars[v].States
	rows := make([][]float64, combos)
	for _, row := range cpd {
		if len(row.Given) != len(parents) {
			return nil, fmt.Errorf("row conditions on %d parents, node has %d: %w",
				len(row.Given), len(parents), internalerr.ErrCPDShapeMismatch)
		}
		combo := 0
		for i, p := range parents {
			si := stateIndex(b.vars[p].States, row.Given[i])
			if si < 0 {
				return nil, fmt.Errorf("parent %q has no state %q: %w",
					b.vars[p].Name, row.Given[i], internalerr.ErrCPDShapeMismatch)
			}
			combo = combo*len(b.vars[p].States) + si
		}
		if rows[combo] != nil {
			return nil, fmt.Errorf("duplicate row for %v: %w", row.Given, internalerr.ErrCPDShapeMismatch)
		}
		if len(row.Probs) != len(states) {
			return nil, fmt.Errorf("row %v has %d entries for %d states: %w",
				row.Given, len(row.Probs), len(states), internalerr.ErrCPDShapeMismatch)
		}

		dist := make([]float64, len(states))
		sum := 0.0
		for i, s := range states {
			p, ok := row.Probs[s]
			if !ok {
				return nil, fmt.Errorf("row %v missing state %q: %w",
					row.Given, s, internalerr.ErrCPDShapeMismatch)
			}
			if p < 0 {
				return nil, fmt.Errorf("row %v state %q has probability %v: %w",
					row.Given, s, p, internalerr.ErrCPDNotNormalized)
			}
			dist[i] = p
			sum += p
		}
		if math.Abs(sum-1) > NormTolerance {
			return nil, fmt.Errorf("row %v sums to %v: %w", row.Given, sum, internalerr.ErrCPDNotNormalized)
		}
		rows[combo] = dist
	}
	return rows, nil
}

// Build validates that every registered variable has a CPD and
// returns the immutable Network.
func (b *Builder) Build() (*Network, error) {
	for i, rows := range b.rows {
		if rows == nil {
			return nil, fmt.Errorf("variable %q: %w", b.vars[i].Name, internalerr.ErrMissingCPD)
		}
	}
	order, err := topoSort(b.vars, b.parents)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]int, len(b.byName))
	for k, v := range b.byName {
		byName[k] = v
	}
	return &Network{
		vars:    append([]Variable(nil), b.vars...),
		byName:  byName,
		parents: append([][]int(nil), b.parents...),
		rows:    append([][][]float64(nil), b.rows...),
		order:   order,
	}, nil
}

// Network is the validated, immutable DAG of variables and CPDs
// shared read-only by the inference engines. Variables and nodes are
// stored in flat arrays and referenced by integer index internally;
// all external lookups go through stable string names.
type Network struct {
	vars    []Variable
	byName  map[string]int
	parents [][]int
	rows    [][][]float64
	order   []int
}

// Len returns the number of variables.
func (n *Network) Len() int { return len(n.vars) }

// Index returns the internal index of the named variable.
func (n *Network) Index(name string) (int, bool) {
	i, ok := n.byName[name]
	return i, ok
}

// Name returns the name of the variable at index v.
func (n *Network) Name(v int) string { return n.vars[v].Name }

// States returns the ordered state labels of the variable at index v.
// Callers must not modify the returned slice.
func (n *Network) States(v int) []string { return n.vars[v].States }

// Cardinality returns the number of states of the variable at index v.
func (n *Network) Cardinality(v int) int { return len(n.vars[v].States) }

// Parents returns the parent indices of the variable at index v, in
// declared order. Callers must not modify the returned slice.
func (n *Network) Parents(v int) []int { return n.parents[v] }

// StateIndex resolves a state label for the variable at index v,
// returning -1 if the label is not one of the variable's states.
func (n *Network) StateIndex(v int, state string) int {
	return stateIndex(n.vars[v].States, state)
}

// Row returns the conditional distribution over v's states given the
// parent state indices in parentAssign (declared parent order).
// Callers must not modify the returned slice.
func (n *Network) Row(v int, parentAssign []int) []float64 {
	combo := 0
	for i, p := range n.parents[v] {
		combo = combo*len(n.vars[p].States) + parentAssign[i]
	}
	return n.rows[v][combo]
}

// TopologicalOrder returns every variable name in an order consistent
// with the parent relation. The order is deterministic: ties are
// broken by registration order, which keeps sampling reproducible.
func (n *Network) TopologicalOrder() []string {
	out := make([]string, len(n.order))
	for i, v := range n.order {
		out[i] = n.vars[v].Name
	}
	return out
}

// VarOrder is TopologicalOrder expressed as internal indices.
func (n *Network) VarOrder() []int {
	return append([]int(nil), n.order...)
}

// Variable returns the named variable's definition.
func (n *Network) Variable(name string) (Variable, bool) {
	i, ok := n.byName[name]
	if !ok {
		return Variable{}, false
	}
	return n.vars[i], true
}

func stateIndex(states []string, state string) int {
	for i, s := range states {
		if s == state {
			return i
		}
	}
	return -1
}

// topoSort runs Kahn's algorithm, always picking the lowest-index
// ready variable so the order is deterministic for a fixed
// registration order. Variables without an attached node yet are
// treated as roots.
func topoSort(vars []Variable, parents [][]int) ([]int, error) {
	n := len(vars)
	indeg := make([]int, n)
	children := make([][]int, n)
	for v, ps := range parents {
		indeg[v] = len(ps)
		for _, p := range ps {
			children[p] = append(children[p], v)
		}
	}

	order := make([]int, 0, n)
	done := make([]bool, n)
	for len(order) < n {
		next := -1
		for v := 0; v < n; v++ {
			if !done[v] && indeg[v] == 0 {
				next = v
				break
			}
		}
		if next == -1 {
			return nil, internalerr.ErrCycleDetected
		}
		done[next] = true
		order = append(order, next)
		for _, c := range children[next] {
			indeg[c]--
		}
	}
	return order, nil
}
