package gbtree

import "testing"

func TestGPairArithmetic(t *testing.T) {
	a := GPair{G: 1, H: 2}
	b := GPair{G: 3, H: -1}

	if sum := a.Add(b); sum != (GPair{G: 4, H: 1}) {
		t.Errorf("Add = %+v", sum)
	}
	if diff := a.Sub(b); diff != (GPair{G: -2, H: 3}) {
		t.Errorf("Sub = %+v", diff)
	}

	c := a
	c.AddFrom(b)
	if c != (GPair{G: 4, H: 1}) {
		t.Errorf("AddFrom = %+v", c)
	}

	var zero GPair
	if zero.Add(a) != a {
		t.Error("zero value is not the additive identity")
	}
}

func TestFlattenRoundTrip(t *testing.T) {
	pairs := []GPair{{1, 2}, {3, 4}, {5, 6}}
	flat := FlattenGPairs(pairs)
	if len(flat) != 2*len(pairs) {
		t.Fatalf("flat has %d elements, want %d", len(flat), 2*len(pairs))
	}
	want := []float64{1, 2, 3, 4, 5, 6}
	for i, x := range want {
		if flat[i] != x {
			t.Errorf("flat[%d] = %v, want %v", i, flat[i], x)
		}
	}

	back := make([]GPair, len(pairs))
	UnflattenGPairs(flat, back)
	for i := range pairs {
		if back[i] != pairs[i] {
			t.Errorf("back[%d] = %+v, want %+v", i, back[i], pairs[i])
		}
	}
}
