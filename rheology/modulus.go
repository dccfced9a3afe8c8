package rheology

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dls/laplace"
	"github.com/cwbudde/algo-dls/regress"
)

// Boltzmann is the Boltzmann constant in J/K.
const Boltzmann = 1.38e-23

// stokesEinsteinScale converts kB*T/(nm * nm^2) into Pa.
const stokesEinsteinScale = 1e27

// Modulus is a frequency sweep of the complex shear modulus.
type Modulus struct {
	Omega   []float64 // rad/s
	Storage []float64 // G', Pa
	Loss    []float64 // G'', Pa
	Alpha   []float64 // local exponent used for the phase split
}

// AngularFrequency returns omega = 1e6/t for lags in microseconds.
func AngularFrequency(lags []float64) []float64 {
	out := make([]float64, len(lags))
	for i, t := range lags {
		out[i] = 1e6 / t
	}
	return out
}

// ShearModulus applies the generalized Stokes-Einstein relation in its
// local power-law form:
//
//	|G*| = kB*T / (pi*r*Gamma(1+alpha)*msd)
//	G'   = |G*|*cos(pi*alpha/2)
//	G''  = |G*|*sin(pi*alpha/2)
func ShearModulus(lags, msd, alpha []float64, radius, temperature float64) (Modulus, error) {
	if len(lags) != len(msd) || len(lags) != len(alpha) {
		return Modulus{}, fmt.Errorf("%w: %d lags, %d msd, %d alpha", ErrLengthMismatch, len(lags), len(msd), len(alpha))
	}

	m := Modulus{
		Omega:   AngularFrequency(lags),
		Storage: make([]float64, len(lags)),
		Loss:    make([]float64, len(lags)),
		Alpha:   append([]float64(nil), alpha...),
	}

	scale := Boltzmann * temperature * stokesEinsteinScale / (math.Pi * radius)
	for i := range lags {
		g := scale / (math.Gamma(1+alpha[i]) * msd[i])
		sin, cos := math.Sincos(math.Pi * alpha[i] / 2)
		m.Storage[i] = g * cos
		m.Loss[i] = g * sin
	}

	return m, nil
}

// ShearModulusLaplace computes the modulus from the direct Laplace transform
// of the MSD evaluated at s = 1/t:
//
//	G(s) = kB*T / (pi*r*s*L[msd](s))
//
// ln G(s) is then smoothed against ln s by kernel regression; the local
// slope plays the role of the exponent in the storage/loss split.
func ShearModulusLaplace(lags, msd []float64, radius, temperature, bandwidth float64) (Modulus, error) {
	if len(lags) != len(msd) {
		return Modulus{}, fmt.Errorf("%w: %d lags, %d msd", ErrLengthMismatch, len(lags), len(msd))
	}

	s := laplace.Reciprocal(lags)
	transformed, err := laplace.Transform(lags, msd, s)
	if err != nil {
		return Modulus{}, fmt.Errorf("rheology: laplace modulus: %w", err)
	}

	logS := make([]float64, len(s))
	logG := make([]float64, len(s))
	for i := range s {
		gs := 1 / (math.Pi * radius * s[i] * transformed[i])
		logS[i] = math.Log(s[i])
		logG[i] = math.Log(gs)
	}

	res, err := regress.Kernel(logS, logG, 1, bandwidth)
	if err != nil {
		return Modulus{}, fmt.Errorf("rheology: laplace modulus: %w", err)
	}

	alpha := res.Slope()
	m := Modulus{
		Omega:   AngularFrequency(lags),
		Storage: make([]float64, len(lags)),
		Loss:    make([]float64, len(lags)),
		Alpha:   alpha,
	}

	kt := Boltzmann * temperature * stokesEinsteinScale
	for i, v := range res.Fitted {
		g := kt * math.Exp(v)
		sin, cos := math.Sincos(math.Pi * alpha[i] / 2)
		m.Storage[i] = g * cos
		m.Loss[i] = g * sin
	}

	return m, nil
}
