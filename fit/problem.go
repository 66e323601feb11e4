package fit

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-specfit/bins"
	"github.com/cwbudde/algo-specfit/emline"
	"github.com/cwbudde/algo-specfit/sparse"
)

// Problem is one emission-line fitting problem: observed fluxes on a
// multi-camera bin grid, the line list, per-camera resolution matrices,
// and the free-to-full parameter mapping.
//
// All evaluation methods are pure: they retain no state between calls
// and allocate their scratch per call, so independent fits may share a
// Problem across goroutines.
type Problem struct {
	Edges           *bins.Edges
	ObsFlux         []float64
	ObsWeights      []float64
	Redshift        float64
	LineWavelengths []float64
	Resolution      []*sparse.ResMatrix
	Mapping         *Mapping
}

// Validate checks the structural consistency of the problem.
func (p *Problem) Validate() error {
	nbins := p.Edges.NumBins()
	if len(p.ObsFlux) != nbins || len(p.ObsWeights) != nbins {
		return fmt.Errorf("fit: %d bins, %d fluxes, %d weights: %w",
			nbins, len(p.ObsFlux), len(p.ObsWeights), ErrLengthMismatch)
	}
	if len(p.Resolution) != p.Edges.NumCameras() {
		return fmt.Errorf("fit: %d resolution matrices for %d cameras: %w",
			len(p.Resolution), p.Edges.NumCameras(), ErrMissingResolution)
	}
	for i, seg := range p.Edges.Segments {
		nrow, _ := p.Resolution[i].Dims()
		if nrow != seg.Len() {
			return fmt.Errorf("fit: camera %d resolution is %dx%d for %d bins: %w",
				i, nrow, nrow, seg.Len(), ErrLengthMismatch)
		}
	}
	if p.Mapping.NumFull() != 3*len(p.LineWavelengths) {
		return fmt.Errorf("fit: mapping has %d full parameters for %d lines: %w",
			p.Mapping.NumFull(), len(p.LineWavelengths), ErrLengthMismatch)
	}
	return nil
}

// NumBins returns the total observation bin count.
func (p *Problem) NumBins() int { return p.Edges.NumBins() }

// NumFree returns the free parameter count.
func (p *Problem) NumFree() int { return p.Mapping.NumFree() }

// Residuals writes weights*(observed - modeled) for the given free
// parameters into dst: the full parameters are expanded, the line model
// built per camera, blurred by that camera's resolution matrix, and
// differenced against the observations.
func (p *Problem) Residuals(dst, free []float64) {
	if len(dst) != p.NumBins() {
		panic("fit: dimension mismatch")
	}

	full := make([]float64, p.Mapping.NumFull())
	p.Mapping.Expand(full, free)

	for i, seg := range p.Edges.Segments {
		wave, logw := p.Edges.Camera(i)

		model := make([]float64, seg.Len())
		emline.BuildModel(model, full, wave, logw, p.Redshift, p.LineWavelengths)

		p.Resolution[i].MulVec(dst[seg.Start:seg.End], model)
	}

	for i := range dst {
		dst[i] = p.ObsFlux[i] - dst[i]
	}
	vecmath.MulBlockInPlace(dst, p.ObsWeights)
}

// Cost returns half the squared residual norm at the given free
// parameters.
func (p *Problem) Cost(free []float64) float64 {
	r := make([]float64, p.NumBins())
	p.Residuals(r, free)

	acc := 0.0
	for _, x := range r {
		acc += x * x
	}
	return 0.5 * acc
}

// Jacobian assembles the composite sparse operator W*M*J_ideal*J_map for
// the modeled flux at the given free parameters. The residual Jacobian
// is its negation; the solver accounts for the sign.
//
// Per camera, the ideal Jacobian fragment is built sparsely, the
// resolution matrix folded into its column runs, and the observation
// weights scaled in, all without materializing a dense matrix.
func (p *Problem) Jacobian(free []float64) (*sparse.Jacobian, error) {
	full := make([]float64, p.Mapping.NumFull())
	p.Mapping.Expand(full, free)

	frags := make([]*sparse.Fragment, len(p.Edges.Segments))
	for i, seg := range p.Edges.Segments {
		wave, logw := p.Edges.Camera(i)

		frag := emline.BuildJacobian(full, nil, wave, logw, p.Redshift, p.LineWavelengths)
		frag = frag.FoldResolution(p.Resolution[i])
		frag.ScaleRows(p.ObsWeights[seg.Start:seg.End])
		frags[i] = frag
	}

	return sparse.NewJacobian(p.Edges.Segments, frags, p.Mapping.Jacobian(free))
}
