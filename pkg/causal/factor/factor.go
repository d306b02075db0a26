// Package factor implements the table arithmetic underneath exact
// inference: multiplying, summing out, and evidence-reducing
// unnormalized probability tables over subsets of variables.
//
// A Factor's scope is a sorted slice of variable indices; values are
// stored row-major over the scope, with the last variable varying
// fastest. Factors are query-internal scratch objects and are never
// shared between queries.
package factor

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Factor is an unnormalized numeric table over the joint states of
// its scope.
type Factor struct {
	// Vars is the scope, sorted ascending by variable index.
	Vars []int
	// Card holds the state count of each scope variable, aligned
	// with Vars.
	Card []int
	// Values holds one entry per joint assignment, row-major with
	// the last scope variable varying fastest.
	Values []float64
}

// New returns a zero-valued factor over the given scope. vars need
// not be sorted; card must be aligned with vars.
func New(vars, card []int) Factor {
	idx := make([]int, len(vars))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return vars[idx[a]] < vars[idx[b]] })

	f := Factor{
		Vars: make([]int, len(vars)),
		Card: make([]int, len(vars)),
	}
	size := 1
	for i, j := range idx {
		f.Vars[i] = vars[j]
		f.Card[i] = card[j]
		size *= card[j]
	}
	f.Values = make([]float64, size)
	return f
}

// Scalar returns a factor with empty scope holding a single value.
func Scalar(v float64) Factor {
	return Factor{Values: []float64{v}}
}

// Pos returns the position of variable v in the scope, or -1.
func (f Factor) Pos(v int) int {
	for i, fv := range f.Vars {
		if fv == v {
			return i
		}
	}
	return -1
}

// index converts a per-variable assignment (aligned with f.Vars) to
// the flat offset into Values.
func (f Factor) index(assign []int) int {
	idx := 0
	for i, c := range f.Card {
		idx = idx*c + assign[i]
	}
	return idx
}

// At returns the value at the given assignment (aligned with f.Vars).
func (f Factor) At(assign []int) float64 {
	return f.Values[f.index(assign)]
}

// Set stores a value at the given assignment (aligned with f.Vars).
func (f Factor) Set(assign []int, v float64) {
	f.Values[f.index(assign)] = v
}

// next advances assign through the joint state space in row-major
// order, returning false after the last assignment.
func next(assign, card []int) bool {
	for i := len(assign) - 1; i >= 0; i-- {
		assign[i]++
		if assign[i] < card[i] {
			return true
		}
		assign[i] = 0
	}
	return false
}

// Product multiplies two factors into a factor over the union of
// their scopes. It is commutative and associative.
func Product(a, b Factor) Factor {
	vars, card := unionScope(a, b)
	out := Factor{Vars: vars, Card: card}
	size := 1
	for _, c := range card {
		size *= c
	}
	out.Values = make([]float64, size)

	apos := scopePositions(vars, a.Vars)
	bpos := scopePositions(vars, b.Vars)
	assign := make([]int, len(vars))
	aAssign := make([]int, len(a.Vars))
	bAssign := make([]int, len(b.Vars))
	for i := 0; ; i++ {
		for j, p := range apos {
			aAssign[j] = assign[p]
		}
		for j, p := range bpos {
			bAssign[j] = assign[p]
		}
		out.Values[i] = a.At(aAssign) * b.At(bAssign)
		if !next(assign, card) {
			break
		}
	}
	return out
}

// SumOut marginalizes variable v out of the factor, producing a
// factor over the remaining scope. It panics if v is not in scope;
// the elimination engine only sums out scope variables.
func SumOut(f Factor, v int) Factor {
	pos := f.Pos(v)
	if pos < 0 {
		panic("factor: sum out of non-scope variable")
	}
	out := New(dropAt(f.Vars, pos), dropAt(f.Card, pos))

	assign := make([]int, len(f.Vars))
	rest := make([]int, len(out.Vars))
	for i := 0; ; i++ {
		copy(rest, assign[:pos])
		copy(rest[pos:], assign[pos+1:])
		out.Values[out.index(rest)] += f.Values[i]
		if !next(assign, f.Card) {
			break
		}
	}
	return out
}

// Reduce keeps only the slice of the factor consistent with variable
// v observed in state si, dropping v from the scope.
func Reduce(f Factor, v, si int) Factor {
	pos := f.Pos(v)
	if pos < 0 {
		return f
	}
	out := New(dropAt(f.Vars, pos), dropAt(f.Card, pos))

	assign := make([]int, len(f.Vars))
	rest := make([]int, len(out.Vars))
	for i := 0; ; i++ {
		if assign[pos] == si {
			copy(rest, assign[:pos])
			copy(rest[pos:], assign[pos+1:])
			out.Values[out.index(rest)] = f.Values[i]
		}
		if !next(assign, f.Card) {
			break
		}
	}
	return out
}

// Sum returns the total mass of the factor.
func (f Factor) Sum() float64 {
	return floats.Sum(f.Values)
}

// Normalize scales the factor so its values sum to 1. It reports
// false when the total mass is zero, leaving the values untouched;
// the caller decides how to surface that.
func (f Factor) Normalize() bool {
	total := floats.Sum(f.Values)
	if total <= 0 {
		return false
	}
	floats.Scale(1/total, f.Values)
	return true
}

func unionScope(a, b Factor) (vars, card []int) {
	i, j := 0, 0
	for i < len(a.Vars) && j < len(b.Vars) {
		switch {
		case a.Vars[i] < b.Vars[j]:
			vars = append(vars, a.Vars[i])
			card = append(card, a.Card[i])
			i++
		case a.Vars[i] > b.Vars[j]:
			vars = append(vars, b.Vars[j])
			card = append(card, b.Card[j])
			j++
		default:
			vars = append(vars, a.Vars[i])
			card = append(card, a.Card[i])
			i++
			j++
		}
	}
	for ; i < len(a.Vars); i++ {
		vars = append(vars, a.Vars[i])
		card = append(card, a.Card[i])
	}
	for ; j < len(b.Vars); j++ {
		vars = append(vars, b.Vars[j])
		card = append(card, b.Card[j])
	}
	return vars, card
}

// scopePositions maps each variable of sub into its position within
// the (sorted) union scope.
func scopePositions(union, sub []int) []int {
	pos := make([]int, len(sub))
	for i, v := range sub {
		for j, u := range union {
			if u == v {
				pos[i] = j
				break
			}
		}
	}
	return pos
}

func dropAt(s []int, i int) []int {
	out := make([]int, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}
