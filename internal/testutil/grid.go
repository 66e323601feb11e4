// Package testutil provides shared helpers for spectral fitting tests:
// deterministic bin grids and slice comparison with tolerances.
package testutil

import (
	"math/rand"
	"testing"

	"github.com/cwbudde/algo-specfit/bins"
)

// UniformGrid builds single-camera bin edges for nbins uniform bins
// covering [loWave, hiWave].
func UniformGrid(tb testing.TB, nbins int, loWave, hiWave float64) *bins.Edges {
	tb.Helper()

	centers := make([]float64, nbins)
	dw := (hiWave - loWave) / float64(nbins)
	for i := range centers {
		centers[i] = loWave + dw*(float64(i)+0.5)
	}

	edges, err := bins.NewEdges(centers, []bins.Segment{{Start: 0, End: nbins}})
	if err != nil {
		tb.Fatalf("NewEdges failed: %v", err)
	}
	return edges
}

// Ones returns a slice of length n filled with 1.0, the unit inverse
// variance of a noiseless spectrum.
func Ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

// GaussianNoise generates reproducible zero-mean Gaussian noise.
func GaussianNoise(seed int64, sigma float64, n int) []float64 {
	out := make([]float64, n)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = sigma * rng.NormFloat64()
	}
	return out
}
