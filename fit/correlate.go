package fit

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-specfit/emline"
)

// EstimateVShift estimates the velocity offset in km/s between an
// observed spectrum and a model template sampled on the same
// log-wavelength bin grid, by FFT cross-correlation. logEdges must hold
// len(observed)+1 log bin edges; near-uniform log spacing is assumed, so
// one sample of lag corresponds to a constant velocity step.
//
// A positive return value means the observed spectrum is shifted
// redward of the template.
func EstimateVShift(observed, template, logEdges []float64) (float64, error) {
	n := len(observed)
	if len(template) != n || len(logEdges) != n+1 {
		return 0, fmt.Errorf("fit: %d observed, %d template, %d edges: %w",
			n, len(template), len(logEdges), ErrLengthMismatch)
	}
	if n < 2 {
		return 0, ErrTooShort
	}

	obsMean := mean(observed)
	tmplMean := mean(template)

	// Pad to twice the length so the circular correlation is linear over
	// the lag range searched below.
	fftSize := nextPowerOf2(2 * n)
	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return 0, fmt.Errorf("fit: failed to create FFT plan: %w", err)
	}

	obsPadded := make([]complex128, fftSize)
	tmplPadded := make([]complex128, fftSize)
	for i := 0; i < n; i++ {
		obsPadded[i] = complex(observed[i]-obsMean, 0)
		tmplPadded[i] = complex(template[i]-tmplMean, 0)
	}

	obsFreq := make([]complex128, fftSize)
	tmplFreq := make([]complex128, fftSize)
	if err := plan.Forward(obsFreq, obsPadded); err != nil {
		return 0, fmt.Errorf("fit: forward FFT failed: %w", err)
	}
	if err := plan.Forward(tmplFreq, tmplPadded); err != nil {
		return 0, fmt.Errorf("fit: forward FFT failed: %w", err)
	}

	corrFreq := make([]complex128, fftSize)
	for i := range corrFreq {
		tmplConj := complex(real(tmplFreq[i]), -imag(tmplFreq[i]))
		corrFreq[i] = obsFreq[i] * tmplConj
	}

	corr := make([]complex128, fftSize)
	if err := plan.Inverse(corr, corrFreq); err != nil {
		return 0, fmt.Errorf("fit: inverse FFT failed: %w", err)
	}

	// corr[lag mod fftSize] holds the correlation at that lag; scan the
	// symmetric half-width window for the peak.
	bestLag := 0
	bestVal := math.Inf(-1)
	for lag := -n / 2; lag <= n/2; lag++ {
		idx := lag
		if idx < 0 {
			idx += fftSize
		}
		if v := real(corr[idx]); v > bestVal {
			bestVal = v
			bestLag = lag
		}
	}

	meanDLog := (logEdges[n] - logEdges[0]) / float64(n)
	return emline.CLight * float64(bestLag) * meanDLog, nil
}

func mean(a []float64) float64 {
	acc := 0.0
	for _, x := range a {
		acc += x
	}
	return acc / float64(len(a))
}

func nextPowerOf2(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}
