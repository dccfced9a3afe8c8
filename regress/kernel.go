package regress

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Errors returned by Kernel.
var (
	ErrEmptyInput       = errors.New("regress: input is empty")
	ErrLengthMismatch   = errors.New("regress: x and y lengths differ")
	ErrInvalidDegree    = errors.New("regress: degree must be 1 or 2")
	ErrInvalidBandwidth = errors.New("regress: bandwidth must be positive and finite")
	ErrNonFinite        = errors.New("regress: input contains NaN or Inf")
	ErrDegenerateWindow = errors.New("regress: weighted normal equations are singular")
)

// maxCondition bounds the condition number of X^T W X accepted at any
// evaluation point. Beyond it the local solve carries no significant digits.
const maxCondition = 1e14

// Result holds the output of a kernel regression.
type Result struct {
	// Coefficients has Degree+1 rows and len(x) columns. Column i is the
	// local polynomial fitted around x[i], lowest power first.
	Coefficients *mat.Dense
	// Fitted holds the local prediction at every x[i].
	Fitted []float64
}

// Degree returns the polynomial degree of the local fits.
func (r Result) Degree() int {
	rows, _ := r.Coefficients.Dims()
	return rows - 1
}

// Coefficient returns row k of the coefficient matrix (the x^k term at every
// evaluation point).
func (r Result) Coefficient(k int) []float64 {
	return mat.Row(nil, k, r.Coefficients)
}

// Slope returns the local linear coefficient at every point. For degree 1
// this is the local derivative dy/dx.
func (r Result) Slope() []float64 {
	return r.Coefficient(1)
}

// Kernel performs a Gaussian-kernel locally weighted polynomial regression of
// y on x with the given degree (1 or 2) and bandwidth fraction.
func Kernel(x, y []float64, degree int, bandwidth float64) (Result, error) {
	n := len(x)
	if n == 0 {
		return Result{}, ErrEmptyInput
	}

	if len(y) != n {
		return Result{}, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, n, len(y))
	}

	if degree != 1 && degree != 2 {
		return Result{}, fmt.Errorf("%w: got %d", ErrInvalidDegree, degree)
	}

	if !(bandwidth > 0) || math.IsInf(bandwidth, 0) {
		return Result{}, fmt.Errorf("%w: got %v", ErrInvalidBandwidth, bandwidth)
	}

	for i := range x {
		if !isFinite(x[i]) || !isFinite(y[i]) {
			return Result{}, fmt.Errorf("%w: index %d", ErrNonFinite, i)
		}
	}

	tau := bandwidth * math.Abs(x[0]-x[n-1])
	if tau <= 0 {
		return Result{}, fmt.Errorf("%w: zero kernel width (span of x is zero)", ErrDegenerateWindow)
	}

	p := degree + 1
	coeffs := mat.NewDense(p, n, nil)
	fitted := make([]float64, n)

	// Powers of x are reused by every local system.
	powers := make([][]float64, n)
	for j, xj := range x {
		powers[j] = make([]float64, 2*p-1)
		powers[j][0] = 1
		for k := 1; k < len(powers[j]); k++ {
			powers[j][k] = powers[j][k-1] * xj
		}
	}

	normal := mat.NewSymDense(p, nil)
	rhs := mat.NewVecDense(p, nil)
	var (
		chol  mat.Cholesky
		theta mat.VecDense
	)

	for i := range n {
		normal.Zero()
		rhs.Zero()

		for j := range n {
			d := x[j] - x[i]
			w := math.Exp(-(d * d) / tau)
			if w == 0 {
				continue
			}
			for a := range p {
				rhs.SetVec(a, rhs.AtVec(a)+w*powers[j][a]*y[j])
				for b := a; b < p; b++ {
					normal.SetSym(a, b, normal.At(a, b)+w*powers[j][a+b])
				}
			}
		}

		if ok := chol.Factorize(normal); !ok {
			return Result{}, fmt.Errorf("%w: at index %d (x=%v)", ErrDegenerateWindow, i, x[i])
		}

		if cond := chol.Cond(); math.IsInf(cond, 0) || math.IsNaN(cond) || cond > maxCondition {
			return Result{}, fmt.Errorf("%w: at index %d (condition %.3g)", ErrDegenerateWindow, i, cond)
		}

		if err := chol.SolveVecTo(&theta, rhs); err != nil {
			return Result{}, fmt.Errorf("%w: at index %d: %v", ErrDegenerateWindow, i, err)
		}

		var yp float64
		for a := range p {
			c := theta.AtVec(a)
			coeffs.Set(a, i, c)
			yp += c * powers[i][a]
		}
		fitted[i] = yp
	}

	return Result{Coefficients: coeffs, Fitted: fitted}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
