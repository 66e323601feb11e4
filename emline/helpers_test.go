package emline

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-specfit/bins"
	"github.com/cwbudde/algo-specfit/sparse"
)

// testEdges builds a single-camera edge set with nbins evenly spaced bins
// spanning [loWave, hiWave].
func testEdges(t *testing.T, loWave, hiWave float64, nbins int) *bins.Edges {
	t.Helper()

	centers := make([]float64, nbins)
	step := (hiWave - loWave) / float64(nbins)
	for i := range centers {
		centers[i] = loWave + (float64(i)+0.5)*step
	}

	e, err := bins.NewEdges(centers, []bins.Segment{{Start: 0, End: nbins}})
	if err != nil {
		t.Fatalf("NewEdges: %v", err)
	}
	return e
}

// column expands fragment column k into a dense vector of length NRows.
func column(f *sparse.Fragment, k int) []float64 {
	out := make([]float64, f.NRows)
	for j := 0; j < f.Ends[k]-f.Starts[k]; j++ {
		out[f.Starts[k]+j] = f.Values[k][j]
	}
	return out
}

func maxAbs(v []float64) float64 {
	m := 0.0
	for _, x := range v {
		if a := math.Abs(x); a > m {
			m = a
		}
	}
	return m
}
