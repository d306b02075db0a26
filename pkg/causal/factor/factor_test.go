package factor

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-12
}

func TestNewSortsScope(t *testing.T) {
	f := New([]int{3, 1}, []int{2, 4})
	if f.Vars[0] != 1 || f.Vars[1] != 3 {
		t.Errorf("Vars = %v, want [1 3]", f.Vars)
	}
	if f.Card[0] != 4 || f.Card[1] != 2 {
		t.Errorf("Card = %v, want [4 2]", f.Card)
	}
	if len(f.Values) != 8 {
		t.Errorf("len(Values) = %d, want 8", len(f.Values))
	}
}

func TestProduct(t *testing.T) {
	// phi1 over {0}, phi2 over {0,1}.
	phi1 := New([]int{0}, []int{2})
	phi1.Set([]int{0}, 0.7)
	phi1.Set([]int{1}, 0.3)

	phi2 := New([]int{0, 1}, []int{2, 2})
	phi2.Set([]int{0, 0}, 0.9)
	phi2.Set([]int{0, 1}, 0.1)
	phi2.Set([]int{1, 0}, 0.3)
	phi2.Set([]int{1, 1}, 0.7)

	p := Product(phi1, phi2)
	if len(p.Vars) != 2 {
		t.Fatalf("scope = %v, want {0,1}", p.Vars)
	}
	got := p.At([]int{1, 1})
	if !almostEqual(got, 0.3*0.7) {
		t.Errorf("product at (1,1) = %f, want %f", got, 0.3*0.7)
	}
	got = p.At([]int{0, 1})
	if !almostEqual(got, 0.7*0.1) {
		t.Errorf("product at (0,1) = %f, want %f", got, 0.7*0.1)
	}
}

func TestProductCommutative(t *testing.T) {
	a := New([]int{0, 2}, []int{2, 3})
	b := New([]int{1, 2}, []int{2, 3})
	for i := range a.Values {
		a.Values[i] = float64(i + 1)
	}
	for i := range b.Values {
		b.Values[i] = float64(2*i + 1)
	}

	ab := Product(a, b)
	ba := Product(b, a)
	for i := range ab.Values {
		if !almostEqual(ab.Values[i], ba.Values[i]) {
			t.Fatalf("product not commutative at %d: %f vs %f", i, ab.Values[i], ba.Values[i])
		}
	}
}

func TestProductWithScalar(t *testing.T) {
	f := New([]int{4}, []int{2})
	f.Set([]int{0}, 0.2)
	f.Set([]int{1}, 0.8)

	p := Product(Scalar(1), f)
	if !almostEqual(p.At([]int{0}), 0.2) || !almostEqual(p.At([]int{1}), 0.8) {
		t.Errorf("scalar identity product = %v", p.Values)
	}
}

func TestSumOut(t *testing.T) {
	f := New([]int{0, 1}, []int{2, 2})
	f.Set([]int{0, 0}, 0.63) // joint of the 0.7/0.3 chain
	f.Set([]int{0, 1}, 0.07)
	f.Set([]int{1, 0}, 0.09)
	f.Set([]int{1, 1}, 0.21)

	m := SumOut(f, 0)
	if len(m.Vars) != 1 || m.Vars[0] != 1 {
		t.Fatalf("scope after sum out = %v, want {1}", m.Vars)
	}
	if !almostEqual(m.At([]int{0}), 0.72) {
		t.Errorf("sum at state 0 = %f, want 0.72", m.At([]int{0}))
	}
	if !almostEqual(m.At([]int{1}), 0.28) {
		t.Errorf("sum at state 1 = %f, want 0.28", m.At([]int{1}))
	}

	// Summing out the last variable yields a scalar.
	s := SumOut(m, 1)
	if len(s.Vars) != 0 || !almostEqual(s.Values[0], 1.0) {
		t.Errorf("total mass = %v, want [1]", s.Values)
	}
}

func TestReduce(t *testing.T) {
	f := New([]int{0, 1}, []int{2, 2})
	f.Set([]int{0, 0}, 0.63)
	f.Set([]int{0, 1}, 0.07)
	f.Set([]int{1, 0}, 0.09)
	f.Set([]int{1, 1}, 0.21)

	r := Reduce(f, 1, 1)
	if len(r.Vars) != 1 || r.Vars[0] != 0 {
		t.Fatalf("scope after reduce = %v, want {0}", r.Vars)
	}
	if !almostEqual(r.At([]int{0}), 0.07) || !almostEqual(r.At([]int{1}), 0.21) {
		t.Errorf("reduced values = %v, want [0.07 0.21]", r.Values)
	}

	// Reducing on a variable outside the scope is a no-op.
	same := Reduce(f, 9, 0)
	if len(same.Vars) != 2 {
		t.Errorf("reduce on non-scope variable changed scope: %v", same.Vars)
	}
}

func TestNormalize(t *testing.T) {
	f := New([]int{0}, []int{2})
	f.Set([]int{0}, 3)
	f.Set([]int{1}, 1)

	if !f.Normalize() {
		t.Fatal("Normalize reported zero mass")
	}
	if !almostEqual(f.At([]int{0}), 0.75) || !almostEqual(f.At([]int{1}), 0.25) {
		t.Errorf("normalized = %v", f.Values)
	}
}

func TestNormalizeZeroMass(t *testing.T) {
	f := New([]int{0}, []int{2})
	if f.Normalize() {
		t.Error("Normalize of zero factor should report false")
	}
	if f.Values[0] != 0 || f.Values[1] != 0 {
		t.Errorf("zero factor mutated: %v", f.Values)
	}
}

func TestSum(t *testing.T) {
	f := New([]int{0, 1}, []int{2, 3})
	for i := range f.Values {
		f.Values[i] = 0.5
	}
	if !almostEqual(f.Sum(), 3) {
		t.Errorf("Sum = %f, want 3", f.Sum())
	}
}
