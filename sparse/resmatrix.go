package sparse

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrEvenDiagonals = errors.New("sparse: number of diagonals must be odd")
	ErrEmptyMatrix   = errors.New("sparse: matrix has no rows")
	ErrRaggedInput   = errors.New("sparse: stacked diagonals must all have the same length")
)

// ResMatrix is an instrument resolution matrix in row-banded form. A
// resolution matrix M of size nrow x nrow with ndiag nonzero diagonals
// (ndiag odd) stores row i as the ndiag entries M[i, i-hdiag .. i+hdiag]
// with hdiag = ndiag/2, so
//
//	M[i,j] = data[i*ndiag + j - i + hdiag]
//
// Entries that would fall outside the matrix are never read or written.
type ResMatrix struct {
	data  []float64
	nrow  int
	ndiag int
}

// NewResMatrix builds a ResMatrix from stacked-diagonal input: diags has
// ndiag rows of length nrow, where diags[d][j] holds M[i,j] for
// d = hdiag + i - j. This is the layout resolution data is delivered in.
// Entries of diags outside the true matrix bounds are ignored.
func NewResMatrix(diags [][]float64) (*ResMatrix, error) {
	ndiag := len(diags)
	if ndiag == 0 || len(diags[0]) == 0 {
		return nil, ErrEmptyMatrix
	}
	if ndiag%2 == 0 {
		return nil, fmt.Errorf("sparse: got %d diagonals: %w", ndiag, ErrEvenDiagonals)
	}

	nrow := len(diags[0])
	for d, row := range diags {
		if len(row) != nrow {
			return nil, fmt.Errorf("sparse: diagonal %d has length %d, want %d: %w", d, len(row), nrow, ErrRaggedInput)
		}
	}

	hdiag := ndiag / 2
	m := &ResMatrix{
		data:  make([]float64, nrow*ndiag),
		nrow:  nrow,
		ndiag: ndiag,
	}

	for i := 0; i < nrow; i++ {
		jmin := max(i-hdiag, 0)
		jmax := min(i+hdiag, nrow-1)
		for j := jmin; j <= jmax; j++ {
			m.data[i*ndiag+j-i+hdiag] = diags[hdiag+i-j][j]
		}
	}

	return m, nil
}

// Identity returns an nrow x nrow identity resolution matrix with ndiag
// stored diagonals.
func Identity(nrow, ndiag int) *ResMatrix {
	m := &ResMatrix{
		data:  make([]float64, nrow*ndiag),
		nrow:  nrow,
		ndiag: ndiag,
	}
	hdiag := ndiag / 2
	for i := 0; i < nrow; i++ {
		m.data[i*ndiag+hdiag] = 1
	}
	return m
}

// Dims returns the dimensions of the full matrix.
func (m *ResMatrix) Dims() (rows, cols int) { return m.nrow, m.nrow }

// Bandwidth returns the number of stored diagonals.
func (m *ResMatrix) Bandwidth() int { return m.ndiag }

// At returns M[i,j], which is zero outside the band.
func (m *ResMatrix) At(i, j int) float64 {
	if i < 0 || m.nrow <= i || j < 0 || m.nrow <= j {
		panic("sparse: index out of range")
	}
	hdiag := m.ndiag / 2
	if j < i-hdiag || j > i+hdiag {
		return 0
	}
	return m.data[i*m.ndiag+j-i+hdiag]
}

// MulVec computes dst = M * v in O(nrow * ndiag).
func (m *ResMatrix) MulVec(dst, v []float64) {
	if len(v) != m.nrow {
		panic("sparse: dimension mismatch")
	}
	if len(dst) != m.nrow {
		panic("sparse: dimension mismatch")
	}

	hdiag := m.ndiag / 2
	for i := 0; i < m.nrow; i++ {
		jmin := max(i-hdiag, 0)
		jmax := min(i+hdiag, m.nrow-1)

		row := m.data[i*m.ndiag:]
		acc := 0.0
		for j := jmin; j <= jmax; j++ {
			acc += row[j-i+hdiag] * v[j]
		}
		dst[i] = acc
	}
}

// Dense expands the banded form into a gonum dense matrix. Intended for
// verification and diagnostics, not for the fitting path.
func (m *ResMatrix) Dense() *mat.Dense {
	d := mat.NewDense(m.nrow, m.nrow, nil)
	hdiag := m.ndiag / 2
	for i := 0; i < m.nrow; i++ {
		jmin := max(i-hdiag, 0)
		jmax := min(i+hdiag, m.nrow-1)
		for j := jmin; j <= jmax; j++ {
			d.Set(i, j, m.data[i*m.ndiag+j-i+hdiag])
		}
	}
	return d
}
