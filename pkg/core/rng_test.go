package core

import "testing"

func TestRNGDeterministic(t *testing.T) {
	a, b := NewRNG(77), NewRNG(77)
	for i := 0; i < 100; i++ {
		if a.IntN(1000) != b.IntN(1000) {
			t.Fatalf("draw %d differs for the same seed", i)
		}
	}
}

func TestRNGEdges(t *testing.T) {
	r := NewRNG(1)
	if r.IntN(0) != 0 || r.IntN(-3) != 0 {
		t.Fatal("non-positive bounds should yield 0")
	}
	for i := 0; i < 50; i++ {
		if r.Chance(0) || !r.Chance(1) {
			t.Fatal("Chance ignored a certain outcome")
		}
	}
}
