package rheology

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/cwbudde/algo-dls/regress"
	"gonum.org/v1/gonum/interp"
)

// ErrNoPositiveMSD is returned when no MSD sample is positive, leaving
// nothing to interpolate invalid samples from.
var ErrNoPositiveMSD = errors.New("rheology: no positive MSD values to interpolate from")

// PowerLaw is the smoothed MSD and its local power-law exponent.
type PowerLaw struct {
	MSD   []float64 // nm^2
	Alpha []float64
}

// RawMSD returns msd = -6*ln(g1)/q^2 at every lag, with non-positive values
// repaired by RepairMSD. It also reports how many samples were repaired.
func RawMSD(lags, g1 []float64, q float64) ([]float64, int, error) {
	if len(lags) != len(g1) {
		return nil, 0, fmt.Errorf("%w: %d lags, %d g1 values", ErrLengthMismatch, len(lags), len(g1))
	}

	if len(lags) == 0 {
		return nil, 0, ErrEmptySeries
	}

	if !(q > 0) || math.IsInf(q, 0) {
		return nil, 0, fmt.Errorf("%w: q=%v", ErrInvalidOptics, q)
	}

	msd := make([]float64, len(g1))
	for i, v := range g1 {
		msd[i] = -6 * math.Log(v) / (q * q)
	}

	return RepairMSD(lags, msd)
}

// RepairMSD replaces every sample that is not a positive finite number by
// linear interpolation in lag between the valid samples. Samples outside
// the valid range take the value of the nearest valid end. With a single
// valid sample every invalid one takes its value.
func RepairMSD(lags, msd []float64) ([]float64, int, error) {
	if len(lags) != len(msd) {
		return nil, 0, fmt.Errorf("%w: %d lags, %d MSD values", ErrLengthMismatch, len(lags), len(msd))
	}

	out := slices.Clone(msd)

	var xs, ys []float64
	bad := 0
	for i, v := range msd {
		if validMSD(v) {
			xs = append(xs, lags[i])
			ys = append(ys, v)
			continue
		}
		bad++
	}

	if bad == 0 {
		return out, 0, nil
	}

	switch len(xs) {
	case 0:
		return nil, 0, ErrNoPositiveMSD
	case 1:
		for i, v := range out {
			if !validMSD(v) {
				out[i] = ys[0]
			}
		}
		return out, bad, nil
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return nil, 0, fmt.Errorf("rheology: msd interpolation: %w", err)
	}

	for i, v := range out {
		if !validMSD(v) {
			out[i] = pl.Predict(lags[i])
		}
	}

	return out, bad, nil
}

// LocalPowerLaw smooths ln(msd) against ln(t) with a degree-1 Gaussian
// kernel regression and returns exp of the fit as the smoothed MSD and the
// local slope as the power-law exponent. msd must be positive.
func LocalPowerLaw(lags, msd []float64, bandwidth float64) (PowerLaw, error) {
	if len(lags) != len(msd) {
		return PowerLaw{}, fmt.Errorf("%w: %d lags, %d MSD values", ErrLengthMismatch, len(lags), len(msd))
	}

	logT := make([]float64, len(lags))
	logMSD := make([]float64, len(msd))
	for i := range lags {
		if !validMSD(msd[i]) {
			return PowerLaw{}, fmt.Errorf("%w: msd[%d]=%v", ErrNonFinite, i, msd[i])
		}
		logT[i] = math.Log(lags[i])
		logMSD[i] = math.Log(msd[i])
	}

	res, err := regress.Kernel(logT, logMSD, 1, bandwidth)
	if err != nil {
		return PowerLaw{}, fmt.Errorf("rheology: msd power law: %w", err)
	}

	smooth := make([]float64, len(res.Fitted))
	for i, v := range res.Fitted {
		smooth[i] = math.Exp(v)
	}

	return PowerLaw{MSD: smooth, Alpha: res.Slope()}, nil
}

// MSD computes the raw MSD from g1, repairs it and returns the local power
// law together with the repaired sample count.
func MSD(lags, g1 []float64, q, bandwidth float64) (PowerLaw, int, error) {
	raw, repaired, err := RawMSD(lags, g1, q)
	if err != nil {
		return PowerLaw{}, 0, err
	}

	pl, err := LocalPowerLaw(lags, raw, bandwidth)
	if err != nil {
		return PowerLaw{}, repaired, err
	}

	return pl, repaired, nil
}

func validMSD(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
