package testutil

import (
	"math"
	"testing"
)

func TestMaxAbsDiff(t *testing.T) {
	a := []float64{1.0, 2.0, 3.0}
	b := []float64{1.0, 2.1, 3.0}

	d, err := MaxAbsDiff(a, b)
	if err != nil {
		t.Fatalf("MaxAbsDiff error: %v", err)
	}

	if math.Abs(d-0.1) > 1e-15 {
		t.Fatalf("MaxAbsDiff = %v, want 0.1", d)
	}
}

func TestMaxAbsDiffLengthMismatch(t *testing.T) {
	_, err := MaxAbsDiff([]float64{1}, []float64{1, 2})
	if err == nil {
		t.Fatal("expected error for length mismatch")
	}
}

func TestRelativelyEqual(t *testing.T) {
	tests := []struct {
		a, b, eps float64
		want      bool
	}{
		{0, 0, 1e-9, true},
		{1e10, 1e10 + 1, 1e-9, true},
		{1e-10, 2e-10, 1e-3, false},
		{-5, -5.0000001, 1e-6, true},
	}
	for _, tt := range tests {
		if got := RelativelyEqual(tt.a, tt.b, tt.eps); got != tt.want {
			t.Errorf("RelativelyEqual(%v, %v, %v) = %v, want %v", tt.a, tt.b, tt.eps, got, tt.want)
		}
	}
}

func TestRequireFinite(t *testing.T) {
	RequireFinite(t, []float64{0, 1, -1, 1e300})
}
