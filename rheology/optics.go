package rheology

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidOptics is returned for non-physical scattering geometries.
var ErrInvalidOptics = errors.New("rheology: invalid scattering geometry")

// Optics describes the scattering geometry of the instrument.
type Optics struct {
	RefractiveIndex float64 // of the solvent
	AngleDegrees    float64 // scattering angle
	WavelengthNM    float64 // laser wavelength in vacuum
}

// DefaultOptics is water at 173 degree backscatter with a 633 nm HeNe laser.
func DefaultOptics() Optics {
	return Optics{
		RefractiveIndex: 1.333,
		AngleDegrees:    173,
		WavelengthNM:    633,
	}
}

// Q returns the scattering vector magnitude in 1/nm.
func (o Optics) Q() (float64, error) {
	if !(o.RefractiveIndex > 0) || !(o.WavelengthNM > 0) || !(o.AngleDegrees > 0 && o.AngleDegrees <= 180) {
		return 0, fmt.Errorf("%w: %+v", ErrInvalidOptics, o)
	}

	return ScatteringVector(o.RefractiveIndex, o.AngleDegrees*math.Pi/180, o.WavelengthNM), nil
}

// ScatteringVector returns q = 4*pi*n*sin(theta/2)/lambda. theta is in
// radians; q has the inverse unit of lambda.
func ScatteringVector(n, theta, lambda float64) float64 {
	return 4 * math.Pi * n * math.Sin(theta/2) / lambda
}
