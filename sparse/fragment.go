package sparse

import (
	"gonum.org/v1/gonum/mat"
)

// Fragment is a run-length sparse matrix with one contiguous run of
// nonzero rows per column: column k is zero outside rows
// [Starts[k], Ends[k]), and Values[k][i] holds the entry at row
// Starts[k]+i. Columns with Starts[k] == Ends[k] are entirely zero.
//
// The emission-line Jacobian builder produces one Fragment per camera and
// per evaluation; each is consumed once by the composite operator.
// Values slices may be longer than their run; entries past the run length
// are garbage and never read.
type Fragment struct {
	NRows  int
	Starts []int
	Ends   []int
	Values [][]float64
}

// Dims returns the dimensions of the represented matrix.
func (f *Fragment) Dims() (rows, cols int) { return f.NRows, len(f.Starts) }

// MulVec computes dst = F * v. dst is zeroed first; column runs
// accumulate additively where they overlap.
func (f *Fragment) MulVec(dst, v []float64) {
	if len(v) != len(f.Starts) {
		panic("sparse: dimension mismatch")
	}
	if len(dst) != f.NRows {
		panic("sparse: dimension mismatch")
	}

	for i := range dst {
		dst[i] = 0
	}

	for k, s := range f.Starts {
		vals := f.Values[k]
		vk := v[k]
		for j := 0; j < f.Ends[k]-s; j++ {
			dst[j+s] += vals[j] * vk
		}
	}
}

// MulTransVec computes dst = F^T * v as one dot product per column,
// restricted to the column's run.
func (f *Fragment) MulTransVec(dst, v []float64) {
	if len(v) != f.NRows {
		panic("sparse: dimension mismatch")
	}
	if len(dst) != len(f.Starts) {
		panic("sparse: dimension mismatch")
	}

	for k, s := range f.Starts {
		vals := f.Values[k]
		acc := 0.0
		for j := 0; j < f.Ends[k]-s; j++ {
			acc += vals[j] * v[j+s]
		}
		dst[k] = acc
	}
}

// FoldResolution returns a new Fragment holding M * F, applying the
// banded resolution matrix to every column run. Each run grows by the
// matrix half-bandwidth on both sides, clipped at the matrix bounds.
func (f *Fragment) FoldResolution(m *ResMatrix) *Fragment {
	nrow, _ := m.Dims()
	if nrow != f.NRows {
		panic("sparse: dimension mismatch")
	}

	ncols := len(f.Starts)
	hdiag := m.Bandwidth() / 2

	out := &Fragment{
		NRows:  f.NRows,
		Starts: make([]int, ncols),
		Ends:   make([]int, ncols),
		Values: make([][]float64, ncols),
	}

	for k := 0; k < ncols; k++ {
		s, e := f.Starts[k], f.Ends[k]
		if s == e {
			continue
		}

		ns := max(s-hdiag, 0)
		ne := min(e+hdiag, nrow)
		vals := make([]float64, ne-ns)

		for i := ns; i < ne; i++ {
			jmin := max(max(i-hdiag, 0), s)
			jmax := min(min(i+hdiag, nrow-1), e-1)

			row := m.data[i*m.ndiag:]
			acc := 0.0
			for j := jmin; j <= jmax; j++ {
				acc += row[j-i+hdiag] * f.Values[k][j-s]
			}
			vals[i-ns] = acc
		}

		out.Starts[k] = ns
		out.Ends[k] = ne
		out.Values[k] = vals
	}

	return out
}

// ScaleRows multiplies every stored entry by the weight of its row,
// folding a diagonal weight matrix into the fragment in place.
func (f *Fragment) ScaleRows(weights []float64) {
	if len(weights) != f.NRows {
		panic("sparse: dimension mismatch")
	}

	for k, s := range f.Starts {
		vals := f.Values[k]
		for j := 0; j < f.Ends[k]-s; j++ {
			vals[j] *= weights[j+s]
		}
	}
}

// Dense expands the fragment into a gonum dense matrix for verification.
func (f *Fragment) Dense() *mat.Dense {
	d := mat.NewDense(f.NRows, len(f.Starts), nil)
	for k, s := range f.Starts {
		for j := 0; j < f.Ends[k]-s; j++ {
			d.Set(j+s, k, f.Values[k][j])
		}
	}
	return d
}
