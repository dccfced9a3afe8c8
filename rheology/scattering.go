package rheology

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidScattering is returned when g1 cannot be computed as a positive
// real number at some lag.
var ErrInvalidScattering = errors.New("rheology: invalid intermediate scattering function")

// ScatteringFunction converts coefficients g2-1 into the intermediate
// scattering function g1 given the intercept g0.
//
//	ergodic:              g1 = sqrt((g2-1)/g0)
//	non-ergodic:          g1 = (Y-1)/Y + sqrt(g2-g0)/Y
//	non-ergodic, leakage: g1 = 1 - (1-eps)/Y + (1-eps)*sqrt(1 + (g2-g0-1)/(1-eps)^2)/Y
//
// where Y is the ensemble to point intensity ratio. A negative square-root
// argument or a non-positive g1 fails with ErrInvalidScattering.
func ScatteringFunction(coeffs []float64, g0 float64, c Correction, in Intensity) ([]float64, error) {
	if !(g0 > 0) || math.IsInf(g0, 0) {
		return nil, fmt.Errorf("%w: intercept %v", ErrInvalidScattering, g0)
	}

	var (
		y   float64
		err error
	)
	if !c.Ergodic() {
		y, err = in.Ratio()
		if err != nil {
			return nil, err
		}
	}

	eps, _ := c.Leakage()
	if c.Mode() == ModeNonErgodicLeakage && !(eps >= 0 && eps < 1) {
		return nil, fmt.Errorf("%w: leakage %v outside [0, 1)", ErrInvalidScattering, eps)
	}

	g1 := make([]float64, len(coeffs))
	for i, v := range coeffs {
		g2 := v + 1

		var arg float64
		switch c.Mode() {
		case ModeNonErgodic:
			arg = g2 - g0
		case ModeNonErgodicLeakage:
			arg = 1 + (g2-g0-1)/((1-eps)*(1-eps))
		default:
			arg = v / g0
		}

		if arg < 0 || math.IsNaN(arg) {
			return nil, fmt.Errorf("%w: negative square-root argument %v at index %d (%s)",
				ErrInvalidScattering, arg, i, c)
		}

		root := math.Sqrt(arg)
		switch c.Mode() {
		case ModeNonErgodic:
			g1[i] = (y-1)/y + root/y
		case ModeNonErgodicLeakage:
			g1[i] = 1 - (1-eps)/y + (1-eps)*root/y
		default:
			g1[i] = root
		}

		if !(g1[i] > 0) || math.IsInf(g1[i], 0) {
			return nil, fmt.Errorf("%w: g1=%v at index %d (%s)", ErrInvalidScattering, g1[i], i, c)
		}
	}

	return g1, nil
}

// CorrelationFromScattering is the ergodic inverse of ScatteringFunction:
// g2-1 = g0*g1^2.
func CorrelationFromScattering(g1 []float64, g0 float64) []float64 {
	out := make([]float64, len(g1))
	for i, v := range g1 {
		out[i] = g0 * v * v
	}
	return out
}
