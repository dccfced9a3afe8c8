// Package regress implements locally weighted (Gaussian kernel) polynomial
// regression over a one-dimensional independent variable.
//
// For every evaluation point x[i] a separate weighted least-squares problem
// is solved with weights
//
//	w_j = exp(-(x_j - x_i)^2 / tau),  tau = bandwidth * |x[0] - x[n-1]|
//
// so the kernel width scales with the total span of x, not with a local
// neighbourhood. Both the smoothed values and the local polynomial
// coefficients are returned; for degree 1 on log-log data the second
// coefficient row is the local power-law exponent.
//
// # Usage
//
//	res, err := regress.Kernel(logT, logMSD, 1, 0.1)
//	if err != nil {
//	    return err // errors.Is(err, regress.ErrDegenerateWindow) for singular systems
//	}
//	smooth := res.Fitted
//	alpha := res.Slope()
package regress
