// Package laplace computes discrete Laplace transforms of sampled functions
// by trapezoidal quadrature over the (possibly non-uniform) sample grid.
package laplace

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/integrate"
)

// Errors returned by Transform.
var (
	ErrTooFewSamples  = errors.New("laplace: at least two samples are required")
	ErrLengthMismatch = errors.New("laplace: t and f lengths differ")
	ErrUnsortedGrid   = errors.New("laplace: t must be strictly increasing")
)

// Transform returns F(s_k) = integral of f(t)*exp(-s_k*t) dt for every query
// point in s. The integral runs over [t[0], t[n-1]] only; no tail
// extrapolation or adaptive refinement is done, so accuracy is bounded by
// the sampling of f.
func Transform(t, f, s []float64) ([]float64, error) {
	if len(t) != len(f) {
		return nil, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(t), len(f))
	}

	if len(t) < 2 {
		return nil, ErrTooFewSamples
	}

	for i := 1; i < len(t); i++ {
		if !(t[i] > t[i-1]) {
			return nil, fmt.Errorf("%w: t[%d]=%v, t[%d]=%v", ErrUnsortedGrid, i-1, t[i-1], i, t[i])
		}
	}

	out := make([]float64, len(s))
	kernel := make([]float64, len(t))
	integrand := make([]float64, len(t))

	for k, sk := range s {
		for i, ti := range t {
			kernel[i] = math.Exp(-sk * ti)
		}
		vecmath.MulBlock(integrand, f, kernel)
		out[k] = integrate.Trapezoidal(t, integrand)
	}

	return out, nil
}

// Reciprocal returns 1/t element-wise: the Laplace variable paired with each
// lag time.
func Reciprocal(t []float64) []float64 {
	out := make([]float64, len(t))
	for i, v := range t {
		out[i] = 1 / v
	}
	return out
}
