package fit

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Penalties substituted for failed fits during cross-validation.
const (
	// FoldPenalty is the squared error charged to a left-out point whose
	// reduced fit failed.
	FoldPenalty = 1e3
	// WindowPenalty replaces the score of a window whose full fit failed.
	WindowPenalty = 1e6
)

// ErrNoWindows is returned by SelectBestWindow when no candidate is given.
var ErrNoWindows = errors.New("fit: no candidate windows")

// CVScore returns the leave-one-out cross-validation score of m on (x, y):
// the mean squared prediction error at each point when the model is fitted
// to all other points. Folds whose fit fails contribute FoldPenalty. If the
// fit to all points fails the score is WindowPenalty.
func CVScore(x, y []float64, m Model, p0 []float64, opts ...Option) (float64, error) {
	return cvScore(context.Background(), x, y, m, p0, opts)
}

func cvScore(ctx context.Context, x, y []float64, m Model, p0 []float64, opts []Option) (float64, error) {
	if len(x) != len(y) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(x), len(y))
	}

	if len(p0) != m.NumParams {
		return 0, fmt.Errorf("%w: model %q takes %d, got %d", ErrParamCount, m.Name, m.NumParams, len(p0))
	}

	n := len(x)
	if n == 0 {
		return WindowPenalty, nil
	}

	xs := make([]float64, 0, n-1)
	ys := make([]float64, 0, n-1)

	var sum float64
	for i := range n {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		xs = append(append(xs[:0], x[:i]...), x[i+1:]...)
		ys = append(append(ys[:0], y[:i]...), y[i+1:]...)

		p, err := Fit(xs, ys, m, p0, opts...)
		if err != nil {
			sum += FoldPenalty
			continue
		}

		d := y[i] - m.Eval(x[i], p)
		if math.IsNaN(d) || math.IsInf(d, 0) {
			sum += FoldPenalty
			continue
		}
		sum += d * d
	}

	score := sum / float64(n)

	if _, err := Fit(x, y, m, p0, opts...); err != nil {
		score = WindowPenalty
	}

	return score, nil
}

// Window is a closed interval [Start, End] of the independent variable.
type Window struct {
	Start float64
	End   float64
}

// Windows builds candidate windows sharing a left edge.
func Windows(start float64, ends []float64) []Window {
	out := make([]Window, len(ends))
	for i, e := range ends {
		out[i] = Window{Start: start, End: e}
	}
	return out
}

// Selection is the outcome of SelectBestWindow.
type Selection struct {
	// Window is the winning candidate as requested.
	Window Window
	// Lo and Hi are the inclusive sample indices the window resolved to.
	Lo, Hi int
	// Params are fitted on all samples of the winning window.
	Params []float64
	// Score is the cross-validation score of the winning window.
	Score float64
	// Scores holds the score of every candidate, in input order.
	Scores []float64
}

// SelectBestWindow scores every candidate window by leave-one-out
// cross-validation and returns the one with the lowest score (the first on
// ties), together with parameters from a final fit on that window. Window
// bounds resolve to the nearest sample indices. A failure of the final fit
// is returned wrapped in ErrFitDivergence.
func SelectBestWindow(ctx context.Context, x, y []float64, windows []Window, m Model, p0 []float64, opts ...Option) (Selection, error) {
	if len(windows) == 0 {
		return Selection{}, ErrNoWindows
	}

	if len(x) != len(y) {
		return Selection{}, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(x), len(y))
	}

	if len(x) == 0 {
		return Selection{}, fmt.Errorf("%w: no samples", ErrUnderdetermined)
	}

	scores := make([]float64, len(windows))
	best := -1
	for k, w := range windows {
		lo, hi := NearestIndex(x, w.Start), NearestIndex(x, w.End)

		var (
			score float64
			err   error
		)
		if hi < lo {
			score = WindowPenalty
		} else {
			score, err = cvScore(ctx, x[lo:hi+1], y[lo:hi+1], m, p0, opts)
			if err != nil {
				return Selection{}, err
			}
		}

		scores[k] = score
		if best < 0 || score < scores[best] {
			best = k
		}
	}

	w := windows[best]
	lo, hi := NearestIndex(x, w.Start), NearestIndex(x, w.End)
	if hi < lo {
		return Selection{}, fmt.Errorf("%w: window [%v, %v] is empty", ErrFitDivergence, w.Start, w.End)
	}

	params, err := Fit(x[lo:hi+1], y[lo:hi+1], m, p0, opts...)
	if err != nil {
		return Selection{}, fmt.Errorf("fit: final fit on window [%v, %v]: %w", w.Start, w.End, err)
	}

	return Selection{
		Window: w,
		Lo:     lo,
		Hi:     hi,
		Params: params,
		Score:  scores[best],
		Scores: scores,
	}, nil
}

// NearestIndex returns the index of the element of x closest to v (the
// lowest such index on ties). It returns -1 for empty x.
func NearestIndex(x []float64, v float64) int {
	best := -1
	bestDist := math.Inf(1)
	for i, xi := range x {
		d := math.Abs(xi - v)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Arange returns start, start+step, ... up to but excluding stop, with
// ceil((stop-start)/step) elements. It returns nil for a zero or non-finite
// step or an empty range.
func Arange(start, stop, step float64) []float64 {
	if step == 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		return nil
	}

	count := math.Ceil((stop - start) / step)
	if !(count > 0) {
		return nil
	}

	out := make([]float64, int(count))
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}
