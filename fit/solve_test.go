package fit

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-specfit/internal/testutil"
)

func TestSolveRecoversSingleLine(t *testing.T) {
	truth := []float64{10, 0, 75}
	p, _ := testProblem(t, 200, 4950, 5050, []float64{5000}, truth)

	init := []float64{7, 20, 60}
	res, err := Solve(p, init)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if !res.Converged {
		t.Errorf("solver did not converge in %d iterations", res.Iterations)
	}
	if res.Cost > 1e-10 {
		t.Errorf("final cost = %v, want near zero", res.Cost)
	}

	names := []string{"amplitude", "vshift", "sigma"}
	scales := []float64{10, 75, 75}
	for i, want := range truth {
		if math.Abs(res.Params[i]-want) > 0.01*scales[i] {
			t.Errorf("%s = %v, want %v within 1%%", names[i], res.Params[i], want)
		}
	}
}

func TestSolveTwoLinesWithBounds(t *testing.T) {
	truth := []float64{12, 8, 0, 0, 80, 80}
	lines := []float64{4990, 5010}
	p, _ := testProblem(t, 200, 4950, 5050, lines, truth)

	lower, upper := DefaultBounds(2)
	init := []float64{5, 5, 30, -30, 120, 50}
	res, err := Solve(p, init, WithBounds(lower, upper))
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if !res.Converged {
		t.Errorf("solver did not converge in %d iterations", res.Iterations)
	}

	scales := []float64{12, 8, 80, 80, 80, 80}
	for i, want := range truth {
		if math.Abs(res.Params[i]-want) > 0.01*scales[i] {
			t.Errorf("parameter %d = %v, want %v within 1%%", i, res.Params[i], want)
		}
	}
	for i := range res.Params {
		if res.Params[i] < lower[i] || res.Params[i] > upper[i] {
			t.Errorf("parameter %d = %v outside [%v, %v]",
				i, res.Params[i], lower[i], upper[i])
		}
	}
}

func TestSolveTiedDoublet(t *testing.T) {
	// Two lines sharing vshift and sigma through ties, with the second
	// amplitude expressed as a fitted ratio of the first.
	lines := []float64{4990, 5010}
	fullTruth := []float64{10, 3, 5, 5, 70, 70}

	nbins := 200
	p, _ := testProblem(t, nbins, 4950, 5050, lines, fullTruth)

	baseline := make([]float64, 6)
	free := []int{0, 1, 2, 4}
	ties := []Tie{
		{Index: 3, Source: 2, Factor: 1}, // shared vshift
		{Index: 5, Source: 4, Factor: 1}, // shared sigma
	}
	doublets := []Doublet{{Index: 1, Source: 0}}
	mapping, err := NewMapping(baseline, free, ties, doublets)
	if err != nil {
		t.Fatalf("NewMapping failed: %v", err)
	}
	p.Mapping = mapping

	// Truth in free space: amp0=10, ratio=0.3, vshift=5, sigma=70.
	freeTruth := []float64{10, 0.3, 5, 70}
	full := make([]float64, 6)
	mapping.Expand(full, freeTruth)
	for i, want := range fullTruth {
		if math.Abs(full[i]-want) > 1e-12 {
			t.Fatalf("expanded truth[%d] = %v, want %v", i, full[i], want)
		}
	}

	res, err := Solve(p, []float64{6, 0.5, -10, 90})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if !res.Converged {
		t.Errorf("solver did not converge in %d iterations", res.Iterations)
	}

	scales := []float64{10, 0.3, 70, 70}
	for i, want := range freeTruth {
		if math.Abs(res.Params[i]-want) > 0.01*scales[i] {
			t.Errorf("free parameter %d = %v, want %v within 1%%",
				i, res.Params[i], want)
		}
	}
}

func TestSolveWithNoise(t *testing.T) {
	truth := []float64{10, 0, 75}
	p, _ := testProblem(t, 200, 4950, 5050, []float64{5000}, truth)

	const sigma = 0.01
	noise := testutil.GaussianNoise(11, sigma, p.NumBins())
	for i := range p.ObsFlux {
		p.ObsFlux[i] += noise[i]
		p.ObsWeights[i] = 1 / sigma
	}

	res, err := Solve(p, []float64{7, 20, 60})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if !res.Converged {
		t.Errorf("solver did not converge in %d iterations", res.Iterations)
	}

	scales := []float64{10, 75, 75}
	for i, want := range truth {
		if math.Abs(res.Params[i]-want) > 0.05*scales[i] {
			t.Errorf("parameter %d = %v, want %v within 5%%", i, res.Params[i], want)
		}
	}
}

func TestSolveNelderMead(t *testing.T) {
	truth := []float64{10, 0, 75}
	p, _ := testProblem(t, 200, 4950, 5050, []float64{5000}, truth)

	init := []float64{8, 10, 65}
	res, err := Solve(p, init,
		WithMethod(MethodNelderMead),
		WithMaxIterations(2000))
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	scales := []float64{10, 75, 75}
	for i, want := range truth {
		if math.Abs(res.Params[i]-want) > 0.05*scales[i] {
			t.Errorf("parameter %d = %v, want %v within 5%%", i, res.Params[i], want)
		}
	}
}

func TestSolveInputErrors(t *testing.T) {
	truth := []float64{10, 0, 75}
	p, _ := testProblem(t, 50, 4950, 5050, []float64{5000}, truth)

	if _, err := Solve(p, []float64{1, 2}); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("short init: error = %v, want %v", err, ErrLengthMismatch)
	}

	_, err := Solve(p, []float64{1, 2, 3}, WithBounds([]float64{0}, []float64{1}))
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("short bounds: error = %v, want %v", err, ErrLengthMismatch)
	}

	_, err = Solve(p, []float64{1, 2, 3},
		WithBounds([]float64{5, 0, 0}, []float64{1, 100, 100}))
	if !errors.Is(err, ErrBadBounds) {
		t.Errorf("inverted bounds: error = %v, want %v", err, ErrBadBounds)
	}

	_, err = Solve(p, []float64{1, 2, 3}, WithMethod(Method(42)))
	if !errors.Is(err, ErrUnknownMethod) {
		t.Errorf("unknown method: error = %v, want %v", err, ErrUnknownMethod)
	}
}

func TestSolveStartingAtTruth(t *testing.T) {
	truth := []float64{10, 0, 75}
	p, _ := testProblem(t, 100, 4950, 5050, []float64{5000}, truth)

	res, err := Solve(p, truth)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if !res.Converged {
		t.Errorf("solver did not converge starting at the truth")
	}
	if res.Cost > 1e-20 {
		t.Errorf("cost at truth = %v, want 0", res.Cost)
	}
}
