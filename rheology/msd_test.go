package rheology

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-dls/internal/testutil"
)

func TestRepairMSDInterpolatesSingleNegative(t *testing.T) {
	lags := []float64{1, 2, 3, 4, 5}
	msd := []float64{1, 2, -0.5, 6, 7}

	got, repaired, err := RepairMSD(lags, msd)
	if err != nil {
		t.Fatal(err)
	}
	if repaired != 1 {
		t.Fatalf("repaired = %d, want 1", repaired)
	}
	if !(got[2] > msd[1] && got[2] < msd[3]) {
		t.Fatalf("repaired value %v not strictly between %v and %v", got[2], msd[1], msd[3])
	}
	if math.Abs(got[2]-4) > 1e-12 {
		t.Fatalf("repaired value = %v, want 4", got[2])
	}
	if msd[2] != -0.5 {
		t.Fatal("input modified")
	}
}

func TestRepairMSDEdges(t *testing.T) {
	tests := []struct {
		name     string
		msd      []float64
		want     []float64
		repaired int
	}{
		{"leading", []float64{-1, 0, 3, 4}, []float64{3, 3, 3, 4}, 2},
		{"trailing", []float64{1, 2, -3, math.NaN()}, []float64{1, 2, 2, 2}, 2},
		{"single anchor", []float64{-1, 5, math.Inf(1), -2}, []float64{5, 5, 5, 5}, 3},
		{"all valid", []float64{1, 2, 3, 4}, []float64{1, 2, 3, 4}, 0},
	}
	lags := []float64{1, 2, 3, 4}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, repaired, err := RepairMSD(lags, tt.msd)
			if err != nil {
				t.Fatal(err)
			}
			if repaired != tt.repaired {
				t.Fatalf("repaired = %d, want %d", repaired, tt.repaired)
			}
			testutil.RequireSliceNearlyEqual(t, got, tt.want, 1e-12)
		})
	}
}

func TestRepairMSDNoAnchor(t *testing.T) {
	_, _, err := RepairMSD([]float64{1, 2, 3}, []float64{-1, 0, -3})
	if !errors.Is(err, ErrNoPositiveMSD) {
		t.Fatalf("err = %v, want ErrNoPositiveMSD", err)
	}
}

func TestRawMSD(t *testing.T) {
	const q = 0.02
	lags := []float64{1, 2, 3, 4}
	// g1 above one yields a negative MSD at lag 2.
	g1 := []float64{math.Exp(-0.1), 1.01, math.Exp(-0.3), math.Exp(-0.4)}

	got, repaired, err := RawMSD(lags, g1, q)
	if err != nil {
		t.Fatal(err)
	}
	if repaired != 1 {
		t.Fatalf("repaired = %d, want 1", repaired)
	}

	want := []float64{0.6 / (q * q), 1.2 / (q * q), 1.8 / (q * q), 2.4 / (q * q)}
	testutil.RequireSliceRelativelyEqual(t, got, want, 1e-9)

	if _, _, err := RawMSD(lags, g1, 0); !errors.Is(err, ErrInvalidOptics) {
		t.Fatalf("err = %v, want ErrInvalidOptics", err)
	}
}

func TestLocalPowerLawRecoversExponent(t *testing.T) {
	lags := testutil.LogSpacedLags(0.5, 1e5, 80)
	for _, alpha := range []float64{0.3, 0.8, 1, 1.6} {
		msd := make([]float64, len(lags))
		for i, tau := range lags {
			msd[i] = 12 * math.Pow(tau, alpha)
		}

		pl, err := LocalPowerLaw(lags, msd, 0.1)
		if err != nil {
			t.Fatalf("alpha=%v: %v", alpha, err)
		}

		testutil.RequireSliceRelativelyEqual(t, pl.MSD, msd, 1e-8)
		for i, a := range pl.Alpha {
			if math.Abs(a-alpha) > 1e-8 {
				t.Fatalf("alpha=%v: Alpha[%d] = %v", alpha, i, a)
			}
		}
	}
}

func TestLocalPowerLawRejectsNonPositive(t *testing.T) {
	_, err := LocalPowerLaw([]float64{1, 2, 3}, []float64{1, 0, 3}, 0.1)
	if !errors.Is(err, ErrNonFinite) {
		t.Fatalf("err = %v, want ErrNonFinite", err)
	}
}
