package fit

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Errors returned by Fit.
var (
	ErrFitDivergence   = errors.New("fit: optimizer did not converge")
	ErrUnderdetermined = errors.New("fit: fewer data points than parameters")
	ErrLengthMismatch  = errors.New("fit: x and y lengths differ")
	ErrParamCount      = errors.New("fit: initial parameter count does not match model")
)

const (
	defaultMaxIterations = 200
	defaultTolerance     = 1.49012e-8 // sqrt of machine epsilon

	lambdaInit = 1e-3
	lambdaMax  = 1e16
	lambdaMin  = 1e-16
)

// Settings controls the Levenberg-Marquardt iteration.
type Settings struct {
	// MaxIterations bounds the number of accepted-or-rejected outer steps.
	MaxIterations int
	// Tolerance is the relative cost reduction and relative step size below
	// which the fit is considered converged.
	Tolerance float64
}

// Option mutates Settings.
type Option func(*Settings)

// DefaultSettings returns the settings used when no options are given.
func DefaultSettings() Settings {
	return Settings{
		MaxIterations: defaultMaxIterations,
		Tolerance:     defaultTolerance,
	}
}

// WithMaxIterations sets the iteration budget of a single fit.
func WithMaxIterations(n int) Option {
	return func(s *Settings) {
		if n > 0 {
			s.MaxIterations = n
		}
	}
}

// WithTolerance sets the convergence tolerance.
func WithTolerance(tol float64) Option {
	return func(s *Settings) {
		if tol > 0 {
			s.Tolerance = tol
		}
	}
}

func applyOptions(opts []Option) Settings {
	s := DefaultSettings()
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}

// Fit returns the parameters minimising the sum of squared residuals of
// m against (x, y), starting from p0. p0 is not modified.
func Fit(x, y []float64, m Model, p0 []float64, opts ...Option) ([]float64, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(x), len(y))
	}

	if len(p0) != m.NumParams {
		return nil, fmt.Errorf("%w: model %q takes %d, got %d", ErrParamCount, m.Name, m.NumParams, len(p0))
	}

	if len(x) < m.NumParams {
		return nil, fmt.Errorf("%w: %d points, %d parameters", ErrUnderdetermined, len(x), m.NumParams)
	}

	pr := problem{x: x, y: y, m: m, s: applyOptions(opts)}
	return pr.solve(p0)
}

type problem struct {
	x, y []float64
	m    Model
	s    Settings
}

// residuals writes y - f(x; p) into r and returns the squared norm. ok is
// false if any residual is not finite.
func (pr *problem) residuals(r, p []float64) (cost float64, ok bool) {
	for i, xi := range pr.x {
		ri := pr.y[i] - pr.m.Eval(xi, p)
		if math.IsNaN(ri) || math.IsInf(ri, 0) {
			return math.Inf(1), false
		}
		r[i] = ri
		cost += ri * ri
	}
	return cost, true
}

// jacobian fills jac with df/dp. r holds the residuals at p so forward
// differences can reuse f(x; p) = y - r.
func (pr *problem) jacobian(jac *mat.Dense, p, r []float64) bool {
	k := pr.m.NumParams
	row := make([]float64, k)

	if pr.m.Grad != nil {
		for i, xi := range pr.x {
			pr.m.Grad(row, xi, p)
			for j, v := range row {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return false
				}
				jac.Set(i, j, v)
			}
		}
		return true
	}

	const eps = 1.4901161193847656e-08
	pp := make([]float64, k)
	copy(pp, p)
	for j := range k {
		h := eps * math.Abs(p[j])
		if h == 0 {
			h = eps
		}
		pp[j] = p[j] + h
		for i, xi := range pr.x {
			f0 := pr.y[i] - r[i]
			d := (pr.m.Eval(xi, pp) - f0) / h
			if math.IsNaN(d) || math.IsInf(d, 0) {
				return false
			}
			jac.Set(i, j, d)
		}
		pp[j] = p[j]
	}
	return true
}

func (pr *problem) solve(p0 []float64) ([]float64, error) {
	n, k := len(pr.x), pr.m.NumParams

	p := make([]float64, k)
	copy(p, p0)
	r := make([]float64, n)
	cost, ok := pr.residuals(r, p)
	if !ok {
		return nil, fmt.Errorf("%w: non-finite residuals at initial parameters %v", ErrFitDivergence, p0)
	}

	var (
		jac    = mat.NewDense(n, k, nil)
		jtj    = mat.NewSymDense(k, nil)
		damped = mat.NewSymDense(k, nil)
		grad   mat.VecDense
		delta  mat.VecDense
		chol   mat.Cholesky
		pNew   = make([]float64, k)
		rNew   = make([]float64, n)
		lambda = lambdaInit
	)

	for range pr.s.MaxIterations {
		if cost == 0 {
			return p, nil
		}

		if !pr.jacobian(jac, p, r) {
			return nil, fmt.Errorf("%w: non-finite Jacobian at %v", ErrFitDivergence, p)
		}

		jtj.SymOuterK(1, jac.T())
		grad.MulVec(jac.T(), mat.NewVecDense(n, r))

		improved := false
		for lambda <= lambdaMax {
			damped.CopySym(jtj)
			for d := range k {
				dd := jtj.At(d, d)
				if dd == 0 {
					dd = 1
				}
				damped.SetSym(d, d, jtj.At(d, d)+lambda*dd)
			}

			if !chol.Factorize(damped) {
				lambda *= 10
				continue
			}

			if err := chol.SolveVecTo(&delta, &grad); err != nil {
				var cond mat.Condition
				if !errors.As(err, &cond) {
					lambda *= 10
					continue
				}
			}

			for j := range k {
				pNew[j] = p[j] + delta.AtVec(j)
			}

			costNew, ok := pr.residuals(rNew, pNew)
			if !ok || costNew >= cost {
				lambda *= 10
				continue
			}

			reduction := cost - costNew
			step := floats.Norm(delta.RawVector().Data, 2)
			size := floats.Norm(p, 2)

			copy(p, pNew)
			copy(r, rNew)
			cost = costNew
			lambda = math.Max(lambda/10, lambdaMin)
			improved = true

			if reduction <= pr.s.Tolerance*(cost+reduction) || step <= pr.s.Tolerance*(size+pr.s.Tolerance) {
				return p, nil
			}
			break
		}

		// No damping up to lambdaMax reduced the cost, so p is stationary to
		// working precision. Stagnation counts as convergence and p is
		// returned without error, even when the cost is far from zero.
		if !improved {
			return p, nil
		}
	}

	return nil, fmt.Errorf("%w: %d iterations exhausted (cost %.6g)", ErrFitDivergence, pr.s.MaxIterations, cost)
}
