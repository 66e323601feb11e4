package fit

import "fmt"

// Tie constrains full parameter Index to equal the free parameter at full
// index Source scaled by Factor.
type Tie struct {
	Index  int
	Source int
	Factor float64
}

// Doublet constrains the full parameter at Index to the product of its
// own free value and the current expanded value of the parameter at
// Source. It models amplitude doublets whose ratio is itself a fitted
// quantity: the free value at Index acts as the ratio.
type Doublet struct {
	Index  int
	Source int
}

// Mapping expands a reduced free-parameter vector into the full physical
// parameter vector. Expansion order is a fixed contract: free values are
// written first, then ties, then doublet multiplications, so a doublet
// always sees the post-tie value of its source. Parameters that are
// neither free nor constrained keep their baseline value.
//
// The fitting core only ever calls Expand and the two multiplies of the
// Jacobian returned by Jacobian; how constraints are represented stays
// private to this type.
type Mapping struct {
	baseline []float64
	free     []int
	ties     []Tie
	doublets []Doublet

	freePos []int // full index -> position in free, or -1
}

// NewMapping validates and builds a Mapping. baseline supplies the full
// parameter count and the values of parameters that are neither free nor
// constrained. free lists the full indices exposed to the optimizer in
// strictly ascending order.
func NewMapping(baseline []float64, free []int, ties []Tie, doublets []Doublet) (*Mapping, error) {
	n := len(baseline)

	freePos := make([]int, n)
	for i := range freePos {
		freePos[i] = -1
	}
	prev := -1
	for k, idx := range free {
		if idx < 0 || idx >= n {
			return nil, fmt.Errorf("fit: free index %d: %w", idx, ErrIndexOutOfRange)
		}
		if idx <= prev {
			return nil, ErrFreeNotAscending
		}
		freePos[idx] = k
		prev = idx
	}

	targeted := make([]bool, n)
	for _, tie := range ties {
		if tie.Index < 0 || tie.Index >= n || tie.Source < 0 || tie.Source >= n {
			return nil, fmt.Errorf("fit: tie %v: %w", tie, ErrIndexOutOfRange)
		}
		if freePos[tie.Index] >= 0 {
			return nil, fmt.Errorf("fit: tie target %d: %w", tie.Index, ErrConstraintOnFree)
		}
		if freePos[tie.Source] < 0 {
			return nil, fmt.Errorf("fit: tie source %d: %w", tie.Source, ErrSourceNotFree)
		}
		if targeted[tie.Index] {
			return nil, fmt.Errorf("fit: tie target %d: %w", tie.Index, ErrConstraintClash)
		}
		targeted[tie.Index] = true
	}

	doubletTarget := make([]bool, n)
	for _, d := range doublets {
		if d.Index < 0 || d.Index >= n || d.Source < 0 || d.Source >= n || d.Index == d.Source {
			return nil, fmt.Errorf("fit: doublet %v: %w", d, ErrIndexOutOfRange)
		}
		if freePos[d.Index] < 0 {
			return nil, fmt.Errorf("fit: doublet target %d must be free: %w", d.Index, ErrSourceNotFree)
		}
		if targeted[d.Index] || doubletTarget[d.Index] {
			return nil, fmt.Errorf("fit: doublet target %d: %w", d.Index, ErrConstraintClash)
		}
		doubletTarget[d.Index] = true
	}
	for _, d := range doublets {
		if doubletTarget[d.Source] {
			return nil, fmt.Errorf("fit: doublet source %d: %w", d.Source, ErrDoubletChained)
		}
	}

	return &Mapping{
		baseline: append([]float64(nil), baseline...),
		free:     append([]int(nil), free...),
		ties:     append([]Tie(nil), ties...),
		doublets: append([]Doublet(nil), doublets...),
		freePos:  freePos,
	}, nil
}

// NumFull returns the full parameter count.
func (m *Mapping) NumFull() int { return len(m.baseline) }

// NumFree returns the free parameter count.
func (m *Mapping) NumFree() int { return len(m.free) }

// FreeIndices returns the full indices of the free parameters.
func (m *Mapping) FreeIndices() []int { return append([]int(nil), m.free...) }

// Expand writes the full parameter vector for the given free values into
// the caller-owned dst. Free values first, then ties, then doublets.
func (m *Mapping) Expand(dst, free []float64) {
	if len(dst) != len(m.baseline) || len(free) != len(m.free) {
		panic("fit: dimension mismatch")
	}

	copy(dst, m.baseline)
	for k, idx := range m.free {
		dst[idx] = free[k]
	}
	for _, tie := range m.ties {
		dst[tie.Index] = dst[tie.Source] * tie.Factor
	}
	for _, d := range m.doublets {
		dst[d.Index] *= dst[d.Source]
	}
}

// expandNoDoublets is the post-tie, pre-doublet expansion used when
// linearizing the doublet product.
func (m *Mapping) expandNoDoublets(dst, free []float64) {
	copy(dst, m.baseline)
	for k, idx := range m.free {
		dst[idx] = free[k]
	}
	for _, tie := range m.ties {
		dst[tie.Index] = dst[tie.Source] * tie.Factor
	}
}

// jacRow is one row of the expansion Jacobian; at most two entries since
// every full parameter depends on at most a free value and one source.
type jacRow struct {
	n    int
	col  [2]int
	coef [2]float64
}

// MappingJacobian is the Jacobian of Expand at a given free-parameter
// point. Rows correspond to full parameters, columns to free ones; the
// doublet rows depend on the linearization point.
type MappingJacobian struct {
	nFree int
	rows  []jacRow
}

// Jacobian linearizes the expansion at the given free values.
func (m *Mapping) Jacobian(free []float64) *MappingJacobian {
	if len(free) != len(m.free) {
		panic("fit: dimension mismatch")
	}

	rows := make([]jacRow, len(m.baseline))
	for i := range rows {
		if k := m.freePos[i]; k >= 0 {
			rows[i] = jacRow{n: 1, col: [2]int{k}, coef: [2]float64{1}}
		}
	}
	for _, tie := range m.ties {
		rows[tie.Index] = jacRow{
			n:    1,
			col:  [2]int{m.freePos[tie.Source]},
			coef: [2]float64{tie.Factor},
		}
	}

	if len(m.doublets) > 0 {
		pre := make([]float64, len(m.baseline))
		m.expandNoDoublets(pre, free)

		for _, d := range m.doublets {
			// p_I = f_I * p_S, so row_I = p_S*row_I + f_I*row_S.
			rowI := rows[d.Index]
			rowS := rows[d.Source]

			var merged jacRow
			for e := 0; e < rowI.n; e++ {
				merged.col[merged.n] = rowI.col[e]
				merged.coef[merged.n] = pre[d.Source] * rowI.coef[e]
				merged.n++
			}
			for e := 0; e < rowS.n; e++ {
				merged.col[merged.n] = rowS.col[e]
				merged.coef[merged.n] = pre[d.Index] * rowS.coef[e]
				merged.n++
			}
			rows[d.Index] = merged
		}
	}

	return &MappingJacobian{nFree: len(m.free), rows: rows}
}

// Dims returns the full and free parameter counts.
func (j *MappingJacobian) Dims() (full, free int) { return len(j.rows), j.nFree }

// MulVec writes the expansion Jacobian times a free-parameter vector
// into the full-length dst.
func (j *MappingJacobian) MulVec(dst, v []float64) {
	if len(dst) != len(j.rows) || len(v) != j.nFree {
		panic("fit: dimension mismatch")
	}

	for i, row := range j.rows {
		acc := 0.0
		for e := 0; e < row.n; e++ {
			acc += row.coef[e] * v[row.col[e]]
		}
		dst[i] = acc
	}
}

// MulTransVec writes the transpose times a full-length vector into the
// free-length dst.
func (j *MappingJacobian) MulTransVec(dst, v []float64) {
	if len(dst) != j.nFree || len(v) != len(j.rows) {
		panic("fit: dimension mismatch")
	}

	for i := range dst {
		dst[i] = 0
	}
	for i, row := range j.rows {
		for e := 0; e < row.n; e++ {
			dst[row.col[e]] += row.coef[e] * v[i]
		}
	}
}
