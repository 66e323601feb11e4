package fit

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-specfit/emline"
	"github.com/cwbudde/algo-specfit/internal/testutil"
)

func TestEstimateVShiftZero(t *testing.T) {
	edges := testutil.UniformGrid(t, 256, 4950, 5050)
	wave, logw := edges.Camera(0)

	spec := make([]float64, 256)
	emline.BuildModel(spec, []float64{10, 0, 75}, wave, logw, 0, []float64{5000})

	v, err := EstimateVShift(spec, spec, logw)
	if err != nil {
		t.Fatalf("EstimateVShift failed: %v", err)
	}
	if v != 0 {
		t.Errorf("self correlation vshift = %v, want 0", v)
	}
}

func TestEstimateVShiftInjected(t *testing.T) {
	edges := testutil.UniformGrid(t, 256, 4950, 5050)
	wave, logw := edges.Camera(0)

	const injected = 90.0
	nbins := 256

	template := make([]float64, nbins)
	observed := make([]float64, nbins)
	lines := []float64{4980, 5020}
	emline.BuildModel(template, []float64{10, 6, 0, 0, 60, 60}, wave, logw, 0, lines)
	emline.BuildModel(observed, []float64{10, 6, injected, injected, 60, 60}, wave, logw, 0, lines)

	v, err := EstimateVShift(observed, template, logw)
	if err != nil {
		t.Fatalf("EstimateVShift failed: %v", err)
	}

	// Resolution is one pixel of lag.
	pixel := emline.CLight * (logw[nbins] - logw[0]) / float64(nbins)
	if math.Abs(v-injected) > pixel {
		t.Errorf("estimated vshift = %v, want %v within %v", v, injected, pixel)
	}
	if v <= 0 {
		t.Errorf("estimated vshift = %v, want positive for a redward shift", v)
	}
}

func TestEstimateVShiftErrors(t *testing.T) {
	edges := testutil.UniformGrid(t, 16, 4950, 5050)
	_, logw := edges.Camera(0)

	_, err := EstimateVShift(make([]float64, 16), make([]float64, 8), logw)
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("mismatched lengths: error = %v, want %v", err, ErrLengthMismatch)
	}

	_, err = EstimateVShift([]float64{1}, []float64{1}, []float64{0, 1})
	if !errors.Is(err, ErrTooShort) {
		t.Errorf("single bin: error = %v, want %v", err, ErrTooShort)
	}
}
