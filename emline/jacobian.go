package emline

import (
	"math"

	"github.com/cwbudde/algo-specfit/normdist"
	"github.com/cwbudde/algo-specfit/sparse"
)

// BuildJacobian computes the analytic Jacobian of BuildModel with respect
// to the 3N concatenated parameters, as a run-length sparse fragment with
// one contiguous column run per parameter. Column j holds the amplitude
// partial of line j, column N+j the velocity-shift partial, and column
// 2N+j the sigma partial; the three columns of a line share the same
// support window, located with the identical search used by BuildModel.
//
// weights are per-bin observational weights folded into the inverse bin
// widths so they never have to be applied in a separate dense pass. Pass
// nil for unit weights to obtain the ideal (pre-instrument) Jacobian;
// when a resolution matrix is folded in afterwards, weights must be
// applied after that step (Fragment.ScaleRows), not here, to keep the
// W*M*J order.
//
// The derivative of each bin is the difference of a closed-form edge
// expression combining the normal PDF and CDF at that edge, scaled by the
// weighted inverse bin width. Lines with a non-positive sigma or an empty
// window produce empty columns.
func BuildJacobian(params, weights, edges, logEdges []float64, redshift float64, lineWavelengths []float64) *sparse.Fragment {
	if len(edges) != len(logEdges) {
		panic("emline: edges and logEdges length mismatch")
	}
	amplitudes, vshifts, sigmas := SplitParams(params)
	n := len(lineWavelengths)
	if len(amplitudes) != n {
		panic("emline: parameter count does not match line count")
	}

	nbins := len(edges) - 1
	if weights != nil && len(weights) != nbins {
		panic("emline: weights length must equal bin count")
	}

	// w[i] is weight/width of bin i-1, with zero dummy slots at both
	// ends for window edges that fall outside the bin range.
	w := make([]float64, nbins+2)
	for i := 1; i <= nbins; i++ {
		w[i] = 1 / (edges[i] - edges[i-1])
		if weights != nil {
			w[i] *= weights[i-1]
		}
	}

	frag := &sparse.Fragment{
		NRows:  nbins,
		Starts: make([]int, 3*n),
		Ends:   make([]int, 3*n),
		Values: make([][]float64, 3*n),
	}

	width := scratchWidth(sigmas, logEdges)
	ddaVals := make([]float64, width)
	ddvVals := make([]float64, width)
	ddsVals := make([]float64, width)

	for j := 0; j < n; j++ {
		if sigmas[j] <= 0 {
			continue
		}
		sigma := sigmas[j] / CLight
		c0 := sqrtTwoPi * math.Exp(0.5*sigma*sigma)

		lineShift := 1 + redshift + vshifts[j]/CLight
		shifted := lineWavelengths[j] * lineShift
		logShifted := math.Log(shifted)

		lo, hi := supportWindow(logEdges, logShifted, sigma)
		if hi == lo {
			continue
		}

		// Values at edges [lo-1 .. hi]; index i maps to edge i+lo-1.
		nedges := hi - lo + 2
		if nedges > len(ddaVals) {
			ddaVals = make([]float64, nedges)
			ddvVals = make([]float64, nedges)
			ddsVals = make([]float64, nedges)
		}

		offset := logShifted/sigma + sigma
		c := c0 * lineWavelengths[j]
		amp := c / CLight * amplitudes[j]

		ddaVals[0] = 0 // edge lo-1, far below the window
		ddvVals[0] = 0
		ddsVals[0] = 0

		for i := 1; i < nedges-1; i++ {
			x := logEdges[i+lo-1]/sigma - offset
			pdf := normdist.PDF(x)
			cdf := normdist.CDF(x)

			ddaVals[i] = c * lineShift * sigma * cdf
			ddvVals[i] = amp * (sigma*cdf - pdf)
			ddsVals[i] = amp * lineShift * ((1+sigma*sigma)*cdf - (x+2*sigma)*pdf)
		}

		// Edge hi takes the asymptotic values (CDF -> 1, PDF -> 0).
		ddaVals[nedges-1] = c * lineShift * sigma
		ddvVals[nedges-1] = amp * sigma
		ddsVals[nedges-1] = amp * lineShift * (1 + sigma*sigma)

		// Difference into per-bin partials; index i now maps to bin
		// i+lo-1, and the slots for the out-of-range bins below and
		// above pick up the zero dummy weights.
		for i := 0; i < nedges-1; i++ {
			ddaVals[i] = (ddaVals[i+1] - ddaVals[i]) * w[i+lo]
			ddvVals[i] = (ddvVals[i+1] - ddvVals[i]) * w[i+lo]
			ddsVals[i] = (ddsVals[i+1] - ddsVals[i]) * w[i+lo]
		}

		// Clamp the run to real bins. When lo == 0 the leading slot is
		// the dummy bin below the spectrum and is elided, shifting the
		// valid-data offset by one; when hi == nbins+1 the trailing
		// garbage slot is dropped.
		start := lo - 1
		off := 0
		if lo == 0 {
			start = 0
			off = 1
		}
		end := min(hi, nbins)

		frag.Starts[j] = start
		frag.Ends[j] = end
		frag.Starts[n+j] = start
		frag.Ends[n+j] = end
		frag.Starts[2*n+j] = start
		frag.Ends[2*n+j] = end

		runLen := end - start
		frag.Values[j] = append([]float64(nil), ddaVals[off:off+runLen]...)
		frag.Values[n+j] = append([]float64(nil), ddvVals[off:off+runLen]...)
		frag.Values[2*n+j] = append([]float64(nil), ddsVals[off:off+runLen]...)
	}

	return frag
}
