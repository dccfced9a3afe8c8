package rheology

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/cwbudde/algo-dls/fit"
)

// ErrInvalidIntercept is returned when the estimated intercept is not a
// positive finite number.
var ErrInvalidIntercept = errors.New("rheology: intercept estimate is not positive")

// InterceptEstimate is the outcome of EstimateIntercept.
type InterceptEstimate struct {
	// G0 is the fitted model evaluated at zero lag.
	G0 float64
	// Model is the model that was fitted.
	Model fit.Model
	// Selection describes the winning window and its final fit.
	Selection fit.Selection
}

// Fitted evaluates the winning fit at lag t.
func (e InterceptEstimate) Fitted(t float64) float64 {
	return e.Model.Eval(t, e.Selection.Params)
}

// EstimateIntercept fits m to c over every candidate window, keeps the window
// with the lowest leave-one-out score and extrapolates its final fit to zero
// lag. A failed final fit is returned wrapping fit.ErrFitDivergence.
func EstimateIntercept(ctx context.Context, c Correlation, m fit.Model, p0 []float64, windows []fit.Window, opts ...fit.Option) (InterceptEstimate, error) {
	sel, err := fit.SelectBestWindow(ctx, c.lags, c.coeffs, windows, m, p0, opts...)
	if err != nil {
		return InterceptEstimate{}, fmt.Errorf("rheology: intercept estimation: %w", err)
	}

	g0 := m.Eval(0, sel.Params)
	if !(g0 > 0) || math.IsInf(g0, 0) {
		return InterceptEstimate{}, fmt.Errorf("%w: g0=%v on window [%v, %v]",
			ErrInvalidIntercept, g0, sel.Window.Start, sel.Window.End)
	}

	return InterceptEstimate{G0: g0, Model: m, Selection: sel}, nil
}

// RepairCorrelation replaces coefficients that exceed the intercept with the
// fitted model, only inside the sample range of the winning window. It
// returns the repaired series and the number of replaced samples.
func RepairCorrelation(c Correlation, est InterceptEstimate) (Correlation, int) {
	coeffs := slices.Clone(c.coeffs)
	lo := max(est.Selection.Lo, 0)
	hi := min(est.Selection.Hi, len(coeffs)-1)

	replaced := 0
	for i := lo; i <= hi; i++ {
		if coeffs[i] > est.G0 {
			coeffs[i] = est.Fitted(c.lags[i])
			replaced++
		}
	}

	return c.withCoefficients(coeffs), replaced
}
