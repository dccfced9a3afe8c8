// Package trace computes statistics of photon-count traces: moments, the
// extremes, and the Fano factor and Mandel Q parameter that indicate
// departures from Poisson counting noise.
package trace

import "math"

// Stats holds count-trace statistics.
type Stats struct {
	Length   int
	Mean     float64 // counts per bin
	Variance float64 // population variance
	Max      float64
	MaxPos   int
	Min      float64
	MinPos   int
	Skewness float64
	Kurtosis float64 // excess
	Fano     float64 // variance / mean
	MandelQ  float64 // (variance - mean) / mean
	Zeros    int     // empty bins
}

// CountRate converts a mean count per bin of intervalUS microseconds to
// kilocounts per second. Non-positive intervals give 0.
func (s Stats) CountRate(intervalUS float64) float64 {
	if !(intervalUS > 0) {
		return 0
	}
	return s.Mean / intervalUS * 1e3
}

// Calculate computes all statistics in a single pass using Welford's
// online algorithm for the higher-order moments.
func Calculate(counts []float64) Stats {
	s := NewStreamingStats()
	s.Update(counts)
	return s.Result()
}

// Moments returns the mean, population variance, skewness, and excess
// kurtosis of counts.
func Moments(counts []float64) (mean, variance, skewness, kurtosis float64) {
	s := Calculate(counts)
	return s.Mean, s.Variance, s.Skewness, s.Kurtosis
}

// StreamingStats accumulates statistics across blocks of a trace, as
// delivered by a counting board.
type StreamingStats struct {
	n      int
	mean   float64
	m2     float64
	m3     float64
	m4     float64
	maxVal float64
	maxPos int
	minVal float64
	minPos int
	zeros  int
}

// NewStreamingStats creates an empty accumulator.
func NewStreamingStats() *StreamingStats {
	return &StreamingStats{}
}

// Reset discards all accumulated data.
func (s *StreamingStats) Reset() {
	*s = StreamingStats{}
}

// Update adds a block of bins.
func (s *StreamingStats) Update(counts []float64) {
	for _, x := range counts {
		s.n++
		ni := float64(s.n)

		delta := x - s.mean
		deltaN := delta / ni
		deltaN2 := deltaN * deltaN
		term1 := delta * deltaN * float64(s.n-1)

		// M4 before M3 before M2.
		s.m4 += term1*deltaN2*(ni*ni-3*ni+3) + 6*deltaN2*s.m2 - 4*deltaN*s.m3
		s.m3 += term1*deltaN*(float64(s.n-1)-1) - 3*deltaN*s.m2
		s.m2 += term1
		s.mean += deltaN

		if s.n == 1 || x > s.maxVal {
			s.maxVal = x
			s.maxPos = s.n - 1
		}
		if s.n == 1 || x < s.minVal {
			s.minVal = x
			s.minPos = s.n - 1
		}
		if x == 0 {
			s.zeros++
		}
	}
}

// Result returns the statistics of everything added so far. Ratios to the
// mean are zero for a zero-mean trace.
func (s *StreamingStats) Result() Stats {
	if s.n == 0 {
		return Stats{}
	}

	nf := float64(s.n)
	variance := s.m2 / nf

	out := Stats{
		Length:   s.n,
		Mean:     s.mean,
		Variance: variance,
		Max:      s.maxVal,
		MaxPos:   s.maxPos,
		Min:      s.minVal,
		MinPos:   s.minPos,
		Zeros:    s.zeros,
	}

	if variance > 0 {
		out.Skewness = (s.m3 / nf) / (variance * math.Sqrt(variance))
		out.Kurtosis = (s.m4/nf)/(variance*variance) - 3
	}
	if s.mean != 0 {
		out.Fano = variance / s.mean
		out.MandelQ = out.Fano - 1
	}
	return out
}
