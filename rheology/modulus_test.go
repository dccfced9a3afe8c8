package rheology

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-dls/internal/testutil"
)

func TestShearModulusLimits(t *testing.T) {
	const (
		radius = 250.0
		temp   = 300.0
	)
	lags := []float64{1, 10, 100}
	msd := []float64{10, 100, 1000}
	scale := Boltzmann * temp * 1e27 / (math.Pi * radius)

	// alpha = 0 is a purely elastic response.
	elastic, err := ShearModulus(lags, msd, []float64{0, 0, 0}, radius, temp)
	if err != nil {
		t.Fatal(err)
	}
	for i := range lags {
		if !testutil.RelativelyEqual(elastic.Storage[i], scale/msd[i], 1e-12) {
			t.Fatalf("G'[%d] = %v, want %v", i, elastic.Storage[i], scale/msd[i])
		}
		if math.Abs(elastic.Loss[i]) > 1e-30 {
			t.Fatalf("G''[%d] = %v, want 0", i, elastic.Loss[i])
		}
	}

	// alpha = 1 is a purely viscous response, Gamma(2) = 1.
	viscous, err := ShearModulus(lags, msd, []float64{1, 1, 1}, radius, temp)
	if err != nil {
		t.Fatal(err)
	}
	for i := range lags {
		if !testutil.RelativelyEqual(viscous.Loss[i], scale/msd[i], 1e-12) {
			t.Fatalf("G''[%d] = %v, want %v", i, viscous.Loss[i], scale/msd[i])
		}
		if math.Abs(viscous.Storage[i]) > 1e-12*viscous.Loss[i] {
			t.Fatalf("G'[%d] = %v, want about 0", i, viscous.Storage[i])
		}
	}

	testutil.RequireSliceNearlyEqual(t, viscous.Omega, []float64{1e6, 1e5, 1e4}, 1e-6)
}

func TestShearModulusLaplaceDiffusive(t *testing.T) {
	lags := testutil.LogSpacedLags(1, 1e4, 60)
	msd := make([]float64, len(lags))
	for i, tau := range lags {
		msd[i] = 6 * 0.2 * tau
	}

	mod, err := ShearModulusLaplace(lags, msd, 250, 300, 0.01)
	if err != nil {
		t.Fatal(err)
	}

	testutil.RequireFinite(t, mod.Storage)
	testutil.RequireFinite(t, mod.Loss)

	// Away from both ends of the sweep the transform sees a Newtonian fluid.
	for i := 15; i <= 35; i++ {
		if math.Abs(mod.Alpha[i]-1) > 0.05 {
			t.Fatalf("Alpha[%d] = %v, want about 1", i, mod.Alpha[i])
		}
		if !(mod.Loss[i] > 0) {
			t.Fatalf("G''[%d] = %v, want > 0", i, mod.Loss[i])
		}
	}

	// The power-law route agrees on G'' in the same band.
	alpha := make([]float64, len(lags))
	for i := range alpha {
		alpha[i] = 1
	}
	pl, err := ShearModulus(lags, msd, alpha, 250, 300)
	if err != nil {
		t.Fatal(err)
	}
	for i := 15; i <= 35; i++ {
		if !testutil.RelativelyEqual(mod.Loss[i], pl.Loss[i], 0.05) {
			t.Fatalf("G''[%d]: laplace %v, power law %v", i, mod.Loss[i], pl.Loss[i])
		}
	}
}

func TestShearModulusLengthMismatch(t *testing.T) {
	if _, err := ShearModulus([]float64{1, 2}, []float64{1}, []float64{1, 1}, 1, 1); err == nil {
		t.Fatal("expected error")
	}
	if _, err := ShearModulusLaplace([]float64{1, 2}, []float64{1}, 1, 1, 0.01); err == nil {
		t.Fatal("expected error")
	}
}
