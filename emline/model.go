package emline

import (
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-specfit/normdist"
)

// BuildModel computes the expected average flux per observation bin for a
// superposition of Gaussian emission lines, writing one value per bin
// into dst.
//
// params is the concatenated 3N amplitude/vshift/sigma vector (see
// SplitParams). edges are one camera's bin edges in ascending order,
// logEdges their natural logs, and lineWavelengths the rest wavelengths
// of the N lines. dst must have len(edges)-1 entries.
//
// For each line the closed-form Gaussian integral is evaluated at every
// edge inside the line's support window, differenced between adjacent
// edges, and divided by the bin width. The two edges just outside the
// window take the limiting values 0 and the full line area, so the CDF is
// never evaluated where it is numerically indistinguishable from its
// limit. Bins not touched by any line stay exactly zero; overlapping
// lines accumulate additively.
//
// The amplitude scaling sqrt(2*pi)*sigma*exp(sigma^2/2) compensates for
// integrating in log-wavelength space: a line with peak amplitude a and
// shifted center wavelength mu carries total flux
// sqrt(2*pi)*sigma*exp(sigma^2/2)*a*mu.
//
// Lines with a non-positive sigma or an empty support window contribute
// nothing.
func BuildModel(dst, params, edges, logEdges []float64, redshift float64, lineWavelengths []float64) {
	if len(edges) != len(logEdges) {
		panic("emline: edges and logEdges length mismatch")
	}
	if len(dst) != len(edges)-1 {
		panic("emline: dst length must be len(edges)-1")
	}
	amplitudes, vshifts, sigmas := SplitParams(params)
	if len(amplitudes) != len(lineWavelengths) {
		panic("emline: parameter count does not match line count")
	}

	nbins := len(edges) - 1

	// ibinWidth[i] is 1/width of bin i-1, with zero dummy slots at both
	// ends for windows that touch the spectrum bounds.
	ibinWidth := make([]float64, nbins+2)
	for i := 1; i <= nbins; i++ {
		ibinWidth[i] = 1 / (edges[i] - edges[i-1])
	}

	// Accumulator with one dummy slot on each side so windows touching
	// the array bounds need no special casing.
	work := make([]float64, nbins+2)
	edgeVals := make([]float64, scratchWidth(sigmas, logEdges))

	for j := range lineWavelengths {
		if sigmas[j] <= 0 {
			continue
		}
		sigma := sigmas[j] / CLight
		c := sqrtTwoPi * sigma * math.Exp(0.5*sigma*sigma)

		shifted, logShifted := lineCenter(lineWavelengths[j], redshift, vshifts[j])

		lo, hi := supportWindow(logEdges, logShifted, sigma)
		if hi == lo {
			continue
		}

		// Values at edges [lo-1 .. hi]; index i maps to edge i+lo-1.
		nedges := hi - lo + 2
		if nedges > len(edgeVals) {
			edgeVals = make([]float64, nedges)
		}

		amp := c * amplitudes[j] * shifted
		offset := logShifted/sigma + sigma

		edgeVals[0] = 0 // edge lo-1, far below the window
		for i := 1; i < nedges-1; i++ {
			x := logEdges[i+lo-1]/sigma - offset
			edgeVals[i] = amp * normdist.CDF(x)
		}
		edgeVals[nedges-1] = amp // edge hi, full line area

		// Difference adjacent edge integrals into bin averages; the last
		// slot becomes garbage and is excluded below.
		for i := 0; i < nedges-1; i++ {
			edgeVals[i] = (edgeVals[i+1] - edgeVals[i]) * ibinWidth[i+lo]
		}

		vecmath.AddBlockInPlace(work[lo:hi+1], edgeVals[:nedges-1])
	}

	copy(dst, work[1:nbins+1])
}
