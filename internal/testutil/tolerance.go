package testutil

import (
	"fmt"
	"math"
	"testing"
)

// RequireSliceNear fails tb if got and want differ in length or if any
// element pair differs by more than abs plus rel times the magnitude of
// the wanted value.
func RequireSliceNear(tb testing.TB, got, want []float64, rel, abs float64) {
	tb.Helper()
	if len(got) != len(want) {
		tb.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		tol := abs + rel*math.Abs(want[i])
		if diff := math.Abs(got[i] - want[i]); diff > tol {
			tb.Fatalf("index %d: got %v, want %v (diff %v > tol %v)", i, got[i], want[i], diff, tol)
		}
	}
}

// MaxAbsDiff returns the maximum absolute difference between two slices.
// Returns an error if the slices differ in length.
func MaxAbsDiff(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("length mismatch: %d vs %d", len(a), len(b))
	}
	maxDiff := 0.0
	for i := range a {
		if d := math.Abs(a[i] - b[i]); d > maxDiff {
			maxDiff = d
		}
	}
	return maxDiff, nil
}
