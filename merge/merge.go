// Package merge stitches two estimates of the same frequency sweep.
//
// The primary series (power-law modulus) is trusted near both ends of the
// sweep and the secondary series (direct Laplace modulus) in the middle band
// bounded by the first sign change of primary-secondary scanned from each
// end.
package merge

import (
	"errors"
	"fmt"
)

// Errors returned by Bounds and Merge.
var (
	ErrEmptyInput     = errors.New("merge: input is empty")
	ErrLengthMismatch = errors.New("merge: series lengths differ")
)

// Band is the half-open index range [Lower, Upper) taken from the secondary
// series.
type Band struct {
	Lower int
	Upper int
}

// Sign returns -1, 0 or +1 for v. NaN has no sign and yields 0.
func Sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// FirstFlip scans the signs of diff starting at index 0 (forward) or at the
// last index (backward) and reports the position of the first sign change.
// A zero difference takes the sign last seen in the scan, so it never
// creates a change on its own; leading zeros carry no sign at all.
//
// Scanning forward, the change between diff[n] and diff[n+1] reports n.
// Scanning backward, the change between diff[k] and diff[k-1] reports k.
func FirstFlip(diff []float64, forward bool) (int, bool) {
	n := len(diff)
	if n < 2 {
		return 0, false
	}

	at := func(step int) int {
		if forward {
			return step
		}
		return n - 1 - step
	}

	last := Sign(diff[at(0)])
	for step := 1; step < n; step++ {
		cur := Sign(diff[at(step)])
		if cur == 0 {
			continue
		}
		if last != 0 && cur != last {
			return at(step - 1), true
		}
		last = cur
	}

	return 0, false
}

// Bounds returns the band over which secondary replaces primary. Without a
// sign change from the front Lower is 0; without one from the back Upper is
// the last index.
func Bounds(primary, secondary []float64) (Band, error) {
	if len(primary) == 0 {
		return Band{}, ErrEmptyInput
	}

	if len(primary) != len(secondary) {
		return Band{}, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(primary), len(secondary))
	}

	diff := make([]float64, len(primary))
	for i := range diff {
		diff[i] = primary[i] - secondary[i]
	}

	band := Band{Lower: 0, Upper: len(diff) - 1}
	if lo, ok := FirstFlip(diff, true); ok {
		band.Lower = lo
	}
	if hi, ok := FirstFlip(diff, false); ok {
		band.Upper = hi
	}

	return band, nil
}

// Splice returns a new series equal to secondary on [band.Lower, band.Upper)
// and to primary elsewhere. Band limits are clamped to the series length.
func Splice(primary, secondary []float64, band Band) []float64 {
	n := len(primary)
	lo := min(max(band.Lower, 0), n)
	hi := min(max(band.Upper, lo), n)

	out := make([]float64, n)
	copy(out, primary)
	copy(out[lo:hi], secondary[lo:hi])
	return out
}

// Merge combines Bounds and Splice.
func Merge(primary, secondary []float64) ([]float64, Band, error) {
	band, err := Bounds(primary, secondary)
	if err != nil {
		return nil, Band{}, err
	}
	return Splice(primary, secondary, band), band, nil
}
