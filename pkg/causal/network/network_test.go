package network

import (
	"errors"
	"math"
	"testing"

	"github.com/tailrisk/causal/pkg/causal/internalerr"
)

func chainBuilder(t *testing.T) *Builder {
	t.Helper()
	b := NewBuilder()
	if err := b.AddVariable("A", []string{"Low", "High"}); err != nil {
		t.Fatal(err)
	}
	if err := b.AddVariable("B", []string{"No", "Yes"}); err != nil {
		t.Fatal(err)
	}
	return b
}

func aCPD() CPD {
	return CPD{{Probs: map[string]float64{"Low": 0.7, "High": 0.3}}}
}

func bCPD() CPD {
	return CPD{
		{Given: []string{"Low"}, Probs: map[string]float64{"No": 0.9, "Yes": 0.1}},
		{Given: []string{"High"}, Probs: map[string]float64{"No": 0.3, "Yes": 0.7}},
	}
}

func TestBuildChain(t *testing.T) {
	b := chainBuilder(t)
	if err := b.AddNode("A", nil, aCPD()); err != nil {
		t.Fatal(err)
	}
	if err := b.AddNode("B", []string{"A"}, bCPD()); err != nil {
		t.Fatal(err)
	}
	net, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}

	if net.Len() != 2 {
		t.Errorf("Len = %d, want 2", net.Len())
	}
	a, _ := net.Index("A")
	bIdx, _ := net.Index("B")
	if got := net.Row(bIdx, []int{1}); math.Abs(got[1]-0.7) > 1e-12 {
		t.Errorf("P(B=Yes|A=High) = %f, want 0.7", got[1])
	}
	if got := net.Row(a, nil); math.Abs(got[0]-0.7) > 1e-12 {
		t.Errorf("P(A=Low) = %f, want 0.7", got[0])
	}
}

func TestAddVariableDuplicate(t *testing.T) {
	b := chainBuilder(t)
	err := b.AddVariable("A", []string{"x"})
	if !errors.Is(err, internalerr.ErrDuplicateVariable) {
		t.Errorf("err = %v, want ErrDuplicateVariable", err)
	}
}

func TestAddVariableEmptyStates(t *testing.T) {
	b := NewBuilder()
	err := b.AddVariable("A", nil)
	if !errors.Is(err, internalerr.ErrEmptyStateSet) {
		t.Errorf("err = %v, want ErrEmptyStateSet", err)
	}
}

func TestAddVariableDuplicateState(t *testing.T) {
	b := NewBuilder()
	err := b.AddVariable("A", []string{"x", "x"})
	if !errors.Is(err, internalerr.ErrDuplicateState) {
		t.Errorf("err = %v, want ErrDuplicateState", err)
	}
}

func TestAddNodeUnknownVariable(t *testing.T) {
	b := chainBuilder(t)
	err := b.AddNode("C", nil, aCPD())
	if !errors.Is(err, internalerr.ErrUnknownVariable) {
		t.Errorf("err = %v, want ErrUnknownVariable", err)
	}
}

func TestAddNodeUnknownParent(t *testing.T) {
	b := chainBuilder(t)
	err := b.AddNode("B", []string{"C"}, bCPD())
	if !errors.Is(err, internalerr.ErrUnknownParent) {
		t.Errorf("err = %v, want ErrUnknownParent", err)
	}
}

func TestAddNodeTwice(t *testing.T) {
	b := chainBuilder(t)
	if err := b.AddNode("A", nil, aCPD()); err != nil {
		t.Fatal(err)
	}
	err := b.AddNode("A", nil, aCPD())
	if !errors.Is(err, internalerr.ErrDuplicateVariable) {
		t.Errorf("err = %v, want ErrDuplicateVariable", err)
	}
}

func TestCycleRejectedAndBuilderUsable(t *testing.T) {
	b := chainBuilder(t)
	if err := b.AddNode("B", []string{"A"}, bCPD()); err != nil {
		t.Fatal(err)
	}

	// A <- B would close A -> B -> A.
	cpd := CPD{
		{Given: []string{"No"}, Probs: map[string]float64{"Low": 0.5, "High": 0.5}},
		{Given: []string{"Yes"}, Probs: map[string]float64{"Low": 0.5, "High": 0.5}},
	}
	err := b.AddNode("A", []string{"B"}, cpd)
	if !errors.Is(err, internalerr.ErrCycleDetected) {
		t.Fatalf("err = %v, want ErrCycleDetected", err)
	}

	// The failed add must leave no trace: A can still become a root.
	if err := b.AddNode("A", nil, aCPD()); err != nil {
		t.Fatalf("builder unusable after rejected cycle: %v", err)
	}
	if _, err := b.Build(); err != nil {
		t.Fatalf("Build after rejected cycle: %v", err)
	}
}

func TestSelfLoopRejected(t *testing.T) {
	b := chainBuilder(t)
	cpd := CPD{
		{Given: []string{"Low"}, Probs: map[string]float64{"Low": 1, "High": 0}},
		{Given: []string{"High"}, Probs: map[string]float64{"Low": 0, "High": 1}},
	}
	err := b.AddNode("A", []string{"A"}, cpd)
	if !errors.Is(err, internalerr.ErrCycleDetected) {
		t.Errorf("err = %v, want ErrCycleDetected", err)
	}
}

func TestCPDShapeMismatch(t *testing.T) {
	cases := []struct {
		name string
		cpd  CPD
	}{
		{"missing combination", CPD{
			{Given: []string{"Low"}, Probs: map[string]float64{"No": 0.9, "Yes": 0.1}},
		}},
		{"unknown parent state", CPD{
			{Given: []string{"Low"}, Probs: map[string]float64{"No": 0.9, "Yes": 0.1}},
			{Given: []string{"Medium"}, Probs: map[string]float64{"No": 0.3, "Yes": 0.7}},
		}},
		{"duplicate combination", CPD{
			{Given: []string{"Low"}, Probs: map[string]float64{"No": 0.9, "Yes": 0.1}},
			{Given: []string{"Low"}, Probs: map[string]float64{"No": 0.3, "Yes": 0.7}},
		}},
		{"missing own state", CPD{
			{Given: []string{"Low"}, Probs: map[string]float64{"No": 1}},
			{Given: []string{"High"}, Probs: map[string]float64{"No": 0.3, "Yes": 0.7}},
		}},
		{"extra own state", CPD{
			{Given: []string{"Low"}, Probs: map[string]float64{"No": 0.9, "Yes": 0.1, "Maybe": 0}},
			{Given: []string{"High"}, Probs: map[string]float64{"No": 0.3, "Yes": 0.7}},
		}},
		{"wrong given arity", CPD{
			{Given: nil, Probs: map[string]float64{"No": 0.9, "Yes": 0.1}},
			{Given: []string{"High"}, Probs: map[string]float64{"No": 0.3, "Yes": 0.7}},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := chainBuilder(t)
			err := b.AddNode("B", []string{"A"}, tc.cpd)
			if !errors.Is(err, internalerr.ErrCPDShapeMismatch) {
				t.Errorf("err = %v, want ErrCPDShapeMismatch", err)
			}
		})
	}
}

func TestCPDNotNormalized(t *testing.T) {
	cases := []struct {
		name string
		cpd  CPD
	}{
		{"sums above one", CPD{
			{Given: []string{"Low"}, Probs: map[string]float64{"No": 0.9, "Yes": 0.2}},
			{Given: []string{"High"}, Probs: map[string]float64{"No": 0.3, "Yes": 0.7}},
		}},
		{"sums below one", CPD{
			{Given: []string{"Low"}, Probs: map[string]float64{"No": 0.5, "Yes": 0.1}},
			{Given: []string{"High"}, Probs: map[string]float64{"No": 0.3, "Yes": 0.7}},
		}},
		{"negative probability", CPD{
			{Given: []string{"Low"}, Probs: map[string]float64{"No": 1.1, "Yes": -0.1}},
			{Given: []string{"High"}, Probs: map[string]float64{"No": 0.3, "Yes": 0.7}},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := chainBuilder(t)
			err := b.AddNode("B", []string{"A"}, tc.cpd)
			if !errors.Is(err, internalerr.ErrCPDNotNormalized) {
				t.Errorf("err = %v, want ErrCPDNotNormalized", err)
			}
		})
	}
}

func TestNormalizationTolerance(t *testing.T) {
	b := chainBuilder(t)
	// Off by less than NormTolerance: accepted.
	cpd := CPD{
		{Given: []string{"Low"}, Probs: map[string]float64{"No": 0.9, "Yes": 0.1 + 5e-7}},
		{Given: []string{"High"}, Probs: map[string]float64{"No": 0.3, "Yes": 0.7}},
	}
	if err := b.AddNode("B", []string{"A"}, cpd); err != nil {
		t.Errorf("row within tolerance rejected: %v", err)
	}
}

func TestBuildMissingCPD(t *testing.T) {
	b := chainBuilder(t)
	if err := b.AddNode("A", nil, aCPD()); err != nil {
		t.Fatal(err)
	}
	_, err := b.Build()
	if !errors.Is(err, internalerr.ErrMissingCPD) {
		t.Errorf("err = %v, want ErrMissingCPD", err)
	}
}

func TestTopologicalOrder(t *testing.T) {
	// Diamond: D depends on B and C, both depending on A. Registration
	// order breaks the B/C tie deterministically.
	b := NewBuilder()
	for _, name := range []string{"D", "C", "B", "A"} {
		if err := b.AddVariable(name, []string{"0", "1"}); err != nil {
			t.Fatal(err)
		}
	}
	uniform := CPD{{Probs: map[string]float64{"0": 0.5, "1": 0.5}}}
	cond := func(parents int) CPD {
		var cpd CPD
		combos := 1 << parents
		for i := 0; i < combos; i++ {
			given := make([]string, parents)
			for j := 0; j < parents; j++ {
				given[j] = string(rune('0' + (i>>j)&1))
			}
			cpd = append(cpd, Row{Given: given, Probs: map[string]float64{"0": 0.5, "1": 0.5}})
		}
		return cpd
	}

	if err := b.AddNode("A", nil, uniform); err != nil {
		t.Fatal(err)
	}
	if err := b.AddNode("B", []string{"A"}, cond(1)); err != nil {
		t.Fatal(err)
	}
	if err := b.AddNode("C", []string{"A"}, cond(1)); err != nil {
		t.Fatal(err)
	}
	if err := b.AddNode("D", []string{"B", "C"}, cond(2)); err != nil {
		t.Fatal(err)
	}
	net, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}

	order := net.TopologicalOrder()
	want := []string{"A", "C", "B", "D"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}

	// Stable across calls.
	again := net.TopologicalOrder()
	for i := range order {
		if order[i] != again[i] {
			t.Errorf("order not deterministic: %v vs %v", order, again)
		}
	}
}
