package emline

import (
	"math"
	"sort"
)

// searchLeft returns the smallest index i with a[i] >= v (insertion point
// keeping equal values to the right of i).
func searchLeft(a []float64, v float64) int {
	return sort.SearchFloat64s(a, v)
}

// searchRight returns the smallest index i with a[i] > v (insertion point
// keeping equal values to the left of i).
func searchRight(a []float64, v float64) int {
	return sort.Search(len(a), func(i int) bool { return a[i] > v })
}

// supportWindow returns the half-open range [lo, hi) of edge indices
// whose log position lies within MaxSDev sigmas of logCenter. lo is the
// leftmost edge that needs a value for the line; hi is the leftmost edge
// that does not (the integral there is already the full line area).
//
// An empty window (lo == hi) means the line falls entirely outside the
// edges and contributes nothing; callers skip it silently.
//
// This is the single window routine shared by the model and Jacobian
// builders.
func supportWindow(logEdges []float64, logCenter, sigma float64) (lo, hi int) {
	lo = searchLeft(logEdges, logCenter-MaxSDev*sigma)
	hi = searchRight(logEdges, logCenter+MaxSDev*sigma)
	return lo, hi
}

// lineCenter returns the Doppler/redshift-shifted center wavelength of a
// line and its natural log.
func lineCenter(restWavelength, redshift, vshift float64) (shifted, logShifted float64) {
	shift := 1 + redshift + vshift/CLight
	shifted = restWavelength * shift
	return shifted, math.Log(shifted)
}

// scratchWidth bounds the number of edges any single line's window can
// span: twice the cutoff times the widest line in log-wavelength units,
// divided by the narrowest log bin, plus slack for the two dummy edges.
func scratchWidth(sigmas, logEdges []float64) int {
	maxSigma := 0.0
	for _, s := range sigmas {
		if s > maxSigma {
			maxSigma = s
		}
	}

	minDiff := math.Inf(1)
	for i := 1; i < len(logEdges); i++ {
		if d := logEdges[i] - logEdges[i-1]; d < minDiff {
			minDiff = d
		}
	}

	return int(2*MaxSDev*(maxSigma/CLight)/minDiff) + 4
}
