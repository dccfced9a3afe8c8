package rheology

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Errors describing malformed input series.
var (
	ErrEmptySeries      = errors.New("rheology: series is empty")
	ErrLengthMismatch   = errors.New("rheology: series lengths differ")
	ErrNonMonotonic     = errors.New("rheology: lag times must be strictly increasing and positive")
	ErrNonFinite        = errors.New("rheology: series contains NaN or Inf")
	ErrInvalidIntensity = errors.New("rheology: invalid scattering intensity")
)

// Defaults for Truncate.
const (
	// DefaultTruncateStart drops the first lags, which carry afterpulsing
	// artifacts in instrument correlators.
	DefaultTruncateStart = 3
	// DefaultTruncateThreshold is the coefficient below which the tail of
	// the correlation function is no longer trusted.
	DefaultTruncateThreshold = 0.05
)

// Correlation is a measured correlation function: lag times and the matching
// coefficients g2-1. Values are validated on construction and never shared
// with the caller.
type Correlation struct {
	lags   []float64
	coeffs []float64
}

// NewCorrelation copies and validates a lag/coefficient pair. Lags must be
// positive and strictly increasing; all values must be finite.
func NewCorrelation(lags, coeffs []float64) (Correlation, error) {
	if len(lags) != len(coeffs) {
		return Correlation{}, fmt.Errorf("%w: %d lags, %d coefficients", ErrLengthMismatch, len(lags), len(coeffs))
	}

	if len(lags) == 0 {
		return Correlation{}, ErrEmptySeries
	}

	for i := range lags {
		if !isFinite(lags[i]) || !isFinite(coeffs[i]) {
			return Correlation{}, fmt.Errorf("%w: index %d", ErrNonFinite, i)
		}

		if lags[i] <= 0 || (i > 0 && lags[i] <= lags[i-1]) {
			return Correlation{}, fmt.Errorf("%w: index %d (%v)", ErrNonMonotonic, i, lags[i])
		}
	}

	return Correlation{lags: slices.Clone(lags), coeffs: slices.Clone(coeffs)}, nil
}

// Len returns the number of samples.
func (c Correlation) Len() int { return len(c.lags) }

// Lags returns a copy of the lag times.
func (c Correlation) Lags() []float64 { return slices.Clone(c.lags) }

// Coefficients returns a copy of the correlation coefficients.
func (c Correlation) Coefficients() []float64 { return slices.Clone(c.coeffs) }

// Slice returns the samples in [lo, hi).
func (c Correlation) Slice(lo, hi int) Correlation {
	return Correlation{lags: slices.Clone(c.lags[lo:hi]), coeffs: slices.Clone(c.coeffs[lo:hi])}
}

// withCoefficients returns c with its coefficients replaced. The caller
// guarantees len(coeffs) == c.Len().
func (c Correlation) withCoefficients(coeffs []float64) Correlation {
	return Correlation{lags: c.lags, coeffs: coeffs}
}

// Truncate keeps the samples from index start up to (excluding) the first
// coefficient below threshold, or to the end when none is. It fails with
// ErrEmptySeries when nothing remains.
func Truncate(c Correlation, start int, threshold float64) (Correlation, error) {
	end := c.Len()
	for i, v := range c.coeffs {
		if v < threshold {
			end = i
			break
		}
	}

	start = max(start, 0)
	if end <= start {
		return Correlation{}, fmt.Errorf("%w: truncation keeps [%d, %d)", ErrEmptySeries, start, end)
	}

	return c.Slice(start, end), nil
}

// Intensity holds the count rates recorded alongside a correlation
// function. Point is the intensity at the position the correlation was
// measured at; Ensemble holds intensities scanned across the cuvette.
// Positions are informational and may be omitted.
type Intensity struct {
	Point             float64
	PointPosition     float64
	Ensemble          []float64
	EnsemblePositions []float64
}

// Validate checks that positions, when given, align with the ensemble
// intensities and that all values are finite.
func (in Intensity) Validate() error {
	if len(in.EnsemblePositions) > 0 && len(in.EnsemblePositions) != len(in.Ensemble) {
		return fmt.Errorf("%w: %d ensemble intensities, %d positions",
			ErrLengthMismatch, len(in.Ensemble), len(in.EnsemblePositions))
	}

	if !isFinite(in.Point) || !isFinite(in.PointPosition) {
		return fmt.Errorf("%w: point intensity or position", ErrNonFinite)
	}

	for i, v := range in.Ensemble {
		if !isFinite(v) {
			return fmt.Errorf("%w: ensemble intensity %d", ErrNonFinite, i)
		}
	}

	return nil
}

// Ratio returns Y = mean(Ensemble) / Point, the ensemble to time-averaged
// intensity ratio used by the non-ergodic corrections.
func (in Intensity) Ratio() (float64, error) {
	if len(in.Ensemble) == 0 {
		return 0, fmt.Errorf("%w: no ensemble intensities", ErrInvalidIntensity)
	}

	if !(in.Point > 0) {
		return 0, fmt.Errorf("%w: point intensity %v", ErrInvalidIntensity, in.Point)
	}

	y := stat.Mean(in.Ensemble, nil) / in.Point
	if !(y > 0) || math.IsInf(y, 0) {
		return 0, fmt.Errorf("%w: intensity ratio %v", ErrInvalidIntensity, y)
	}

	return y, nil
}

// Measurement aggregates everything recorded for one replicate.
type Measurement struct {
	Correlation Correlation
	Intensity   Intensity
}

// NewMeasurement validates and bundles a correlation function with its
// intensities.
func NewMeasurement(c Correlation, in Intensity) (Measurement, error) {
	if c.Len() == 0 {
		return Measurement{}, ErrEmptySeries
	}

	if err := in.Validate(); err != nil {
		return Measurement{}, err
	}

	return Measurement{
		Correlation: c,
		Intensity: Intensity{
			Point:             in.Point,
			PointPosition:     in.PointPosition,
			Ensemble:          slices.Clone(in.Ensemble),
			EnsemblePositions: slices.Clone(in.EnsemblePositions),
		},
	}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
