package emline

import "math"

// Physical constants shared by all kernels. Immutable process-wide
// configuration, never mutated at runtime.
const (
	// CLight is the speed of light in km/s, the velocity unit of line
	// shifts and widths.
	CLight = 299792.458

	// MaxSDev is the support-window cutoff: a line contributes exactly
	// zero beyond this many standard deviations from its center.
	MaxSDev = 5.0
)

var sqrtTwoPi = math.Sqrt(2 * math.Pi)

// SplitParams splits a concatenated parameter vector of length 3N into
// its amplitude, velocity-shift, and sigma sections. The fixed
// amplitude/vshift/sigma concatenation order is relied on by every
// routine in this package and by the parameter-mapping doublet
// constraints; the returned slices alias p.
//
// Panics if len(p) is not a multiple of three.
func SplitParams(p []float64) (amplitudes, vshifts, sigmas []float64) {
	if len(p)%3 != 0 {
		panic("emline: parameter vector length must be a multiple of 3")
	}
	n := len(p) / 3
	return p[:n], p[n : 2*n], p[2*n:]
}

// LineArea returns the total integrated flux of a single line with the
// given peak amplitude, velocity shift and sigma (both in km/s), rest
// wavelength, and redshift: the closed-form integral of the model's
// Gaussian profile over all wavelengths.
func LineArea(amplitude, vshift, sigma, restWavelength, redshift float64) float64 {
	s := sigma / CLight
	shifted := restWavelength * (1 + redshift + vshift/CLight)
	return sqrtTwoPi * s * math.Exp(0.5*s*s) * amplitude * shifted
}
