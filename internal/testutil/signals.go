package testutil

import (
	"math"
	"math/rand"
)

// LinearLags returns n lag times start, start+step, ...
func LinearLags(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

// LogSpacedLags returns n lag times spaced evenly in log10 between lo and hi
// (inclusive). Instrument correlators export lags on a quasi-logarithmic grid.
func LogSpacedLags(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = lo
		return out
	}
	a, b := math.Log10(lo), math.Log10(hi)
	for i := range out {
		out[i] = math.Pow(10, a+(b-a)*float64(i)/float64(n-1))
	}
	return out
}

// StretchedExp evaluates x0*exp(-a*t^beta) on every lag.
func StretchedExp(lags []float64, x0, a, beta float64) []float64 {
	out := make([]float64, len(lags))
	for i, t := range lags {
		out[i] = x0 * math.Exp(-a*math.Pow(t, beta))
	}
	return out
}

// DiffusiveCorrelation returns g2-1 = g0*exp(-2*D*q^2*t) for a purely
// diffusive probe. D is in nm^2/us and q in 1/nm, so that the resulting MSD
// is 6*D*t.
func DiffusiveCorrelation(lags []float64, g0, diffusivity, q float64) []float64 {
	out := make([]float64, len(lags))
	for i, t := range lags {
		out[i] = g0 * math.Exp(-2*diffusivity*q*q*t)
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// AddNoise returns signal + noise element-wise without modifying either input.
func AddNoise(signal, noise []float64) []float64 {
	out := make([]float64, len(signal))
	for i := range out {
		out[i] = signal[i]
		if i < len(noise) {
			out[i] += noise[i]
		}
	}
	return out
}
