package fit

import "math"

// Model is a parametric function family f(x; p) with a fixed parameter count.
type Model struct {
	Name      string
	NumParams int
	// Eval returns f(x; p).
	Eval func(x float64, p []float64) float64
	// Grad writes df/dp at x into dst. Optional; forward differences are
	// used when nil.
	Grad func(dst []float64, x float64, p []float64)
}

// Curve evaluates the model at every x.
func (m Model) Curve(x, p []float64) []float64 {
	out := make([]float64, len(x))
	for i, xi := range x {
		out[i] = m.Eval(xi, p)
	}
	return out
}

// StretchedExp is x0*exp(-a*x^beta) with p = [x0, a, beta].
var StretchedExp = Model{
	Name:      "stretched-exp",
	NumParams: 3,
	Eval: func(x float64, p []float64) float64 {
		return p[0] * math.Exp(-p[1]*math.Pow(x, p[2]))
	},
	Grad: func(dst []float64, x float64, p []float64) {
		xb := math.Pow(x, p[2])
		e := math.Exp(-p[1] * xb)
		dst[0] = e
		dst[1] = -p[0] * xb * e
		if x > 0 {
			dst[2] = -p[0] * p[1] * xb * math.Log(x) * e
		} else {
			dst[2] = 0
		}
	},
}

// ExpExp is a0*exp(-a1*(1-exp(-lambda*x^beta))) with
// p = [a0, a1, lambda, beta]. It describes a decay to a non-zero plateau.
var ExpExp = Model{
	Name:      "exp-exp",
	NumParams: 4,
	Eval: func(x float64, p []float64) float64 {
		return p[0] * math.Exp(-p[1]*(1-math.Exp(-p[2]*math.Pow(x, p[3]))))
	},
}
