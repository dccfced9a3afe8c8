// Package correlator computes the normalized intensity autocorrelation g2-1
// of a photon-count trace, the quantity a DLS instrument exports.
//
// The linear autocorrelation is evaluated through the FFT (Wiener-Khinchin)
// and sampled on a quasi-logarithmic lag grid like a hardware multi-tau
// correlator.
//
// # Usage
//
//	c := correlator.New(correlator.WithSampleInterval(0.5)) // us per bin
//	corr, err := c.Correlate(counts)
//	m, err := rheology.NewMeasurement(corr, rheology.Intensity{})
//
// Measure additionally derives count rates for the non-ergodic corrections:
//
//	m, st, err := c.Measure(counts, scanTraces)
//	fmt.Println(st.MandelQ, m.Intensity.Point)
package correlator
