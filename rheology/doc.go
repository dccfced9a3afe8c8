// Package rheology converts dynamic light scattering correlation data into
// microrheological properties of the medium around the probe particles.
//
// The pipeline estimates the zero-lag intercept of the correlation function
// by cross-validated stretched-exponential fits, converts g2-1 into the
// intermediate scattering function g1 (optionally correcting for broken
// ergodicity), derives the mean-squared displacement and its local power-law
// exponent, and applies the generalized Stokes-Einstein relation to obtain
// the storage and loss moduli. An alternative modulus can be computed by a
// direct Laplace transform of the MSD and merged with the power-law estimate.
//
// Units: lag times in microseconds, q in 1/nm, radius in nm, MSD in nm^2,
// temperature in K, angular frequency in rad/s and moduli in Pa.
//
// # Usage
//
//	corr, err := rheology.NewCorrelation(lags, coeffs)
//	corr, err = rheology.Truncate(corr, rheology.DefaultTruncateStart, rheology.DefaultTruncateThreshold)
//	m, err := rheology.NewMeasurement(corr, rheology.Intensity{})
//
//	a := rheology.NewAnalyzer(
//	    rheology.WithTemperature(310.15),
//	    rheology.WithRadius(250),
//	    rheology.WithLaplace(true),
//	)
//	table, err := a.Analyze(ctx, m)
package rheology
