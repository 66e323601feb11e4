package sparse

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-specfit/bins"
)

var (
	ErrCameraCount = errors.New("sparse: one fragment required per camera segment")
	ErrColumnCount = errors.New("sparse: fragments disagree on parameter count")
	ErrRowCount    = errors.New("sparse: fragment row count does not match its segment")
)

// Expander is the free-to-full parameter expansion Jacobian contract
// supplied by the parameter-mapping collaborator. The composite operator
// never inspects how ties or doublets are represented, only the two
// multiplies.
type Expander interface {
	// Dims returns the full and free parameter counts.
	Dims() (full, free int)
	// MulVec writes the expansion Jacobian times v (free-length) to dst
	// (full-length).
	MulVec(dst, v []float64)
	// MulTransVec writes the transpose times v (full-length) to dst
	// (free-length).
	MulTransVec(dst, v []float64)
}

// Jacobian is the composite linear operator W*M*J_ideal*J_map across all
// camera segments. Fragments are expected to already carry the weights
// and resolution matrix of their camera (see Fragment.FoldResolution and
// Fragment.ScaleRows); Jacobian chains them with the parameter expansion.
//
// Forward multiplies write each camera's rows into its own disjoint bin
// range; transpose multiplies accumulate across cameras, since a shared
// free parameter may affect several cameras.
//
// The operator owns two scratch slices and must not be used from more
// than one goroutine at a time. It never materializes a dense matrix.
type Jacobian struct {
	segments []bins.Segment
	frags    []*Fragment
	expand   Expander

	nBins int
	nFree int

	scratchFull []float64
	scratchFree []float64
}

// NewJacobian assembles the composite operator from one weighted,
// resolution-folded fragment per camera segment and the parameter
// expansion Jacobian.
func NewJacobian(segments []bins.Segment, frags []*Fragment, expand Expander) (*Jacobian, error) {
	if len(frags) != len(segments) {
		return nil, fmt.Errorf("sparse: %d fragments for %d segments: %w", len(frags), len(segments), ErrCameraCount)
	}

	full, free := expand.Dims()
	nBins := 0
	for i, seg := range segments {
		r, c := frags[i].Dims()
		if r != seg.Len() {
			return nil, fmt.Errorf("sparse: fragment %d has %d rows, segment has %d bins: %w", i, r, seg.Len(), ErrRowCount)
		}
		if c != full {
			return nil, fmt.Errorf("sparse: fragment %d has %d columns, expansion yields %d: %w", i, c, full, ErrColumnCount)
		}
		nBins = seg.End
	}

	return &Jacobian{
		segments:    segments,
		frags:       frags,
		expand:      expand,
		nBins:       nBins,
		nFree:       free,
		scratchFull: make([]float64, full),
		scratchFree: make([]float64, free),
	}, nil
}

// Dims returns the operator shape: observation bins by free parameters.
func (j *Jacobian) Dims() (rows, cols int) { return j.nBins, j.nFree }

// MulVec computes dst = J * v for a free-parameter perturbation v,
// writing one value per observation bin.
func (j *Jacobian) MulVec(dst, v []float64) {
	if len(v) != j.nFree || len(dst) != j.nBins {
		panic("sparse: dimension mismatch")
	}

	j.expand.MulVec(j.scratchFull, v)

	for i, seg := range j.segments {
		j.frags[i].MulVec(dst[seg.Start:seg.End], j.scratchFull)
	}
}

// MulTransVec computes dst = J^T * v for a vector over all observation
// bins, accumulating per-camera contributions into the free parameters.
func (j *Jacobian) MulTransVec(dst, v []float64) {
	if len(v) != j.nBins || len(dst) != j.nFree {
		panic("sparse: dimension mismatch")
	}

	for i := range dst {
		dst[i] = 0
	}

	for i, seg := range j.segments {
		j.frags[i].MulTransVec(j.scratchFull, v[seg.Start:seg.End])
		j.expand.MulTransVec(j.scratchFree, j.scratchFull)
		for k, x := range j.scratchFree {
			dst[k] += x
		}
	}
}

// Dense materializes the operator column by column via MulVec. For tests
// and diagnostics only; the fitting path never calls it.
func (j *Jacobian) Dense() *mat.Dense {
	d := mat.NewDense(j.nBins, j.nFree, nil)
	v := make([]float64, j.nFree)
	col := make([]float64, j.nBins)
	for k := 0; k < j.nFree; k++ {
		v[k] = 1
		j.MulVec(col, v)
		v[k] = 0
		d.SetCol(k, col)
	}
	return d
}
