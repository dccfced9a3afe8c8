package rheology

import (
	"errors"
	"math"
	"testing"
)

func TestNewCorrelationValidation(t *testing.T) {
	tests := []struct {
		name   string
		lags   []float64
		coeffs []float64
		want   error
	}{
		{"empty", nil, nil, ErrEmptySeries},
		{"length mismatch", []float64{1, 2}, []float64{0.9}, ErrLengthMismatch},
		{"duplicate lag", []float64{1, 1}, []float64{0.9, 0.8}, ErrNonMonotonic},
		{"decreasing lag", []float64{2, 1}, []float64{0.9, 0.8}, ErrNonMonotonic},
		{"zero lag", []float64{0, 1}, []float64{0.9, 0.8}, ErrNonMonotonic},
		{"nan coefficient", []float64{1, 2}, []float64{0.9, math.NaN()}, ErrNonFinite},
		{"inf lag", []float64{1, math.Inf(1)}, []float64{0.9, 0.8}, ErrNonFinite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCorrelation(tt.lags, tt.coeffs); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCorrelationDoesNotAlias(t *testing.T) {
	lags := []float64{1, 2, 3}
	coeffs := []float64{0.9, 0.8, 0.7}
	c, err := NewCorrelation(lags, coeffs)
	if err != nil {
		t.Fatal(err)
	}

	lags[0], coeffs[0] = 100, 100
	if got := c.Lags()[0]; got != 1 {
		t.Fatalf("lag changed through input slice: %v", got)
	}

	out := c.Coefficients()
	out[1] = -1
	if got := c.Coefficients()[1]; got != 0.8 {
		t.Fatalf("coefficient changed through accessor: %v", got)
	}
}

func TestTruncate(t *testing.T) {
	lags := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	tests := []struct {
		name     string
		coeffs   []float64
		wantLags []float64
		wantErr  error
	}{
		{
			name:     "cut at threshold",
			coeffs:   []float64{0.95, 0.93, 0.9, 0.8, 0.5, 0.2, 0.04, 0.1},
			wantLags: []float64{4, 5, 6},
		},
		{
			name:     "no sample below threshold",
			coeffs:   []float64{0.95, 0.93, 0.9, 0.8, 0.5, 0.2, 0.1, 0.06},
			wantLags: []float64{4, 5, 6, 7, 8},
		},
		{
			name:    "threshold before start",
			coeffs:  []float64{0.95, 0.01, 0.9, 0.8, 0.5, 0.2, 0.1, 0.06},
			wantErr: ErrEmptySeries,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCorrelation(lags, tt.coeffs)
			if err != nil {
				t.Fatal(err)
			}

			got, err := Truncate(c, DefaultTruncateStart, DefaultTruncateThreshold)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}

			gotLags := got.Lags()
			if len(gotLags) != len(tt.wantLags) {
				t.Fatalf("lags = %v, want %v", gotLags, tt.wantLags)
			}
			for i := range gotLags {
				if gotLags[i] != tt.wantLags[i] {
					t.Fatalf("lags = %v, want %v", gotLags, tt.wantLags)
				}
			}
		})
	}
}

func TestIntensityRatio(t *testing.T) {
	in := Intensity{Point: 200, Ensemble: []float64{100, 300, 200, 400}}
	y, err := in.Ratio()
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(y-1.25) > 1e-12 {
		t.Fatalf("Ratio = %v, want 1.25", y)
	}

	for _, bad := range []Intensity{
		{Point: 100},
		{Point: 0, Ensemble: []float64{1}},
		{Point: 1, Ensemble: []float64{-1, 0}},
	} {
		if _, err := bad.Ratio(); !errors.Is(err, ErrInvalidIntensity) {
			t.Errorf("Ratio(%+v) err = %v, want ErrInvalidIntensity", bad, err)
		}
	}
}

func TestNewMeasurementValidatesPositions(t *testing.T) {
	c, err := NewCorrelation([]float64{1, 2}, []float64{0.9, 0.8})
	if err != nil {
		t.Fatal(err)
	}

	_, err = NewMeasurement(c, Intensity{
		Point:             10,
		Ensemble:          []float64{1, 2, 3},
		EnsemblePositions: []float64{0.1, 0.2},
	})
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("err = %v, want ErrLengthMismatch", err)
	}

	if _, err := NewMeasurement(Correlation{}, Intensity{}); !errors.Is(err, ErrEmptySeries) {
		t.Fatalf("err = %v, want ErrEmptySeries", err)
	}
}

func TestScatteringVector(t *testing.T) {
	q, err := DefaultOptics().Q()
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(q-0.0264135) > 1e-6 {
		t.Fatalf("q = %v, want about 0.0264135 1/nm", q)
	}

	// Forward scattering carries no momentum transfer.
	if got := ScatteringVector(1.333, 0, 633); got != 0 {
		t.Fatalf("q(0) = %v, want 0", got)
	}

	if _, err := (Optics{RefractiveIndex: 1.333, AngleDegrees: 190, WavelengthNM: 633}).Q(); !errors.Is(err, ErrInvalidOptics) {
		t.Fatalf("err = %v, want ErrInvalidOptics", err)
	}
}
