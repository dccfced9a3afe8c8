package testutil

import (
	"math"
	"testing"
)

func TestLinearLags(t *testing.T) {
	got := LinearLags(1, 1, 10)
	if len(got) != 10 {
		t.Fatalf("len = %d, want 10", len(got))
	}
	if got[0] != 1 || got[9] != 10 {
		t.Fatalf("endpoints = %v, %v, want 1, 10", got[0], got[9])
	}
}

func TestLogSpacedLags(t *testing.T) {
	got := LogSpacedLags(0.5, 5e5, 61)
	if math.Abs(got[0]-0.5) > 1e-12 || math.Abs(got[60]-5e5)/5e5 > 1e-12 {
		t.Fatalf("endpoints = %v, %v", got[0], got[60])
	}
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("not increasing at %d", i)
		}
	}
	ratio := got[1] / got[0]
	if math.Abs(got[31]/got[30]-ratio) > 1e-9 {
		t.Fatalf("not evenly spaced in log")
	}
}

func TestStretchedExp(t *testing.T) {
	got := StretchedExp([]float64{0, 1, 100}, 0.9, 0.01, 1)
	want := []float64{0.9, 0.9 * math.Exp(-0.01), 0.9 * math.Exp(-1)}
	RequireSliceNearlyEqual(t, got, want, 1e-15)
}

func TestDiffusiveCorrelation(t *testing.T) {
	got := DiffusiveCorrelation([]float64{0, 10}, 0.8, 2, 0.1)
	if got[0] != 0.8 {
		t.Fatalf("got[0] = %v, want 0.8", got[0])
	}
	if math.Abs(got[1]-0.8*math.Exp(-0.4)) > 1e-15 {
		t.Fatalf("got[1] = %v", got[1])
	}
}

func TestDeterministicNoise(t *testing.T) {
	a := DeterministicNoise(42, 1.0, 64)
	b := DeterministicNoise(42, 1.0, 64)
	if len(a) != 64 {
		t.Fatalf("len = %d, want 64", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("non-deterministic at index %d", i)
		}
		if a[i] < -1 || a[i] > 1 {
			t.Fatalf("a[%d] = %v out of range", i, a[i])
		}
	}
}

func TestAddNoise(t *testing.T) {
	s := []float64{1, 2, 3}
	got := AddNoise(s, []float64{0.5, -0.5})
	RequireSliceNearlyEqual(t, got, []float64{1.5, 1.5, 3}, 0)
	if s[0] != 1 {
		t.Fatal("input modified")
	}
}
