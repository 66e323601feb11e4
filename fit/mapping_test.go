package fit

import (
	"errors"
	"math"
	"testing"
)

func TestMappingExpandFreeOnly(t *testing.T) {
	baseline := []float64{1, 2, 3, 4}
	m, err := NewMapping(baseline, []int{1, 3}, nil, nil)
	if err != nil {
		t.Fatalf("NewMapping failed: %v", err)
	}

	full := make([]float64, 4)
	m.Expand(full, []float64{20, 40})

	want := []float64{1, 20, 3, 40}
	for i := range want {
		if full[i] != want[i] {
			t.Errorf("full[%d] = %v, want %v", i, full[i], want[i])
		}
	}
}

func TestMappingExpandTies(t *testing.T) {
	baseline := make([]float64, 6)
	ties := []Tie{
		{Index: 1, Source: 0, Factor: 0.5},
		{Index: 4, Source: 3, Factor: 2.0},
	}
	m, err := NewMapping(baseline, []int{0, 3, 5}, ties, nil)
	if err != nil {
		t.Fatalf("NewMapping failed: %v", err)
	}

	full := make([]float64, 6)
	m.Expand(full, []float64{10, 7, 3})

	want := []float64{10, 5, 0, 7, 14, 3}
	for i := range want {
		if full[i] != want[i] {
			t.Errorf("full[%d] = %v, want %v", i, full[i], want[i])
		}
	}
}

func TestMappingExpandDoubletSeesTiedSource(t *testing.T) {
	// Parameter 2 is tied to 0, and the free doublet ratio at 1 is
	// multiplied by the expanded value of 2. Ties run before doublets,
	// so the product must use the tied value.
	baseline := make([]float64, 3)
	ties := []Tie{{Index: 2, Source: 0, Factor: 3}}
	doublets := []Doublet{{Index: 1, Source: 2}}
	m, err := NewMapping(baseline, []int{0, 1}, ties, doublets)
	if err != nil {
		t.Fatalf("NewMapping failed: %v", err)
	}

	full := make([]float64, 3)
	m.Expand(full, []float64{5, 0.4})

	if full[2] != 15 {
		t.Errorf("tied value = %v, want 15", full[2])
	}
	if full[1] != 0.4*15 {
		t.Errorf("doublet value = %v, want %v", full[1], 0.4*15)
	}
}

func TestMappingValidation(t *testing.T) {
	baseline := make([]float64, 4)

	tests := []struct {
		name     string
		free     []int
		ties     []Tie
		doublets []Doublet
		wantErr  error
	}{
		{
			name:    "free index out of range",
			free:    []int{0, 4},
			wantErr: ErrIndexOutOfRange,
		},
		{
			name:    "free not ascending",
			free:    []int{2, 1},
			wantErr: ErrFreeNotAscending,
		},
		{
			name:    "tie target is free",
			free:    []int{0, 1},
			ties:    []Tie{{Index: 1, Source: 0, Factor: 2}},
			wantErr: ErrConstraintOnFree,
		},
		{
			name:    "tie source not free",
			free:    []int{0},
			ties:    []Tie{{Index: 1, Source: 2, Factor: 2}},
			wantErr: ErrSourceNotFree,
		},
		{
			name: "double tie target",
			free: []int{0, 1},
			ties: []Tie{
				{Index: 2, Source: 0, Factor: 1},
				{Index: 2, Source: 1, Factor: 2},
			},
			wantErr: ErrConstraintClash,
		},
		{
			name:     "doublet target not free",
			free:     []int{0},
			doublets: []Doublet{{Index: 1, Source: 0}},
			wantErr:  ErrSourceNotFree,
		},
		{
			name:     "doublet self reference",
			free:     []int{0},
			doublets: []Doublet{{Index: 0, Source: 0}},
			wantErr:  ErrIndexOutOfRange,
		},
		{
			name: "doublet chained",
			free: []int{0, 1},
			doublets: []Doublet{
				{Index: 0, Source: 2},
				{Index: 1, Source: 0},
			},
			wantErr: ErrDoubletChained,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMapping(baseline, tt.free, tt.ties, tt.doublets)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewMapping error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// expandFD approximates one column of the expansion Jacobian by central
// differences. The expansion is multilinear in the free values, so the
// approximation is exact up to rounding.
func expandFD(m *Mapping, free []float64, k int) []float64 {
	const eps = 1e-4

	hi := append([]float64(nil), free...)
	lo := append([]float64(nil), free...)
	hi[k] += eps
	lo[k] -= eps

	fullHi := make([]float64, m.NumFull())
	fullLo := make([]float64, m.NumFull())
	m.Expand(fullHi, hi)
	m.Expand(fullLo, lo)

	col := make([]float64, m.NumFull())
	for i := range col {
		col[i] = (fullHi[i] - fullLo[i]) / (2 * eps)
	}
	return col
}

func TestMappingJacobianMatchesExpand(t *testing.T) {
	baseline := []float64{0, 0, 9, 0, 0, 0}
	ties := []Tie{{Index: 3, Source: 0, Factor: 0.7}}
	doublets := []Doublet{{Index: 4, Source: 3}}
	m, err := NewMapping(baseline, []int{0, 1, 4, 5}, ties, doublets)
	if err != nil {
		t.Fatalf("NewMapping failed: %v", err)
	}

	free := []float64{3.5, -1.2, 0.8, 4.4}
	jac := m.Jacobian(free)

	nfull, nfree := jac.Dims()
	if nfull != 6 || nfree != 4 {
		t.Fatalf("Dims() = %d, %d, want 6, 4", nfull, nfree)
	}

	unit := make([]float64, nfree)
	col := make([]float64, nfull)
	for k := 0; k < nfree; k++ {
		unit[k] = 1
		jac.MulVec(col, unit)
		unit[k] = 0

		want := expandFD(m, free, k)
		for i := range col {
			if math.Abs(col[i]-want[i]) > 1e-9 {
				t.Errorf("column %d row %d: analytic %v, finite difference %v",
					k, i, col[i], want[i])
			}
		}
	}
}

func TestMappingJacobianTranspose(t *testing.T) {
	baseline := make([]float64, 6)
	ties := []Tie{{Index: 3, Source: 0, Factor: 0.7}}
	doublets := []Doublet{{Index: 4, Source: 3}}
	m, err := NewMapping(baseline, []int{0, 1, 4, 5}, ties, doublets)
	if err != nil {
		t.Fatalf("NewMapping failed: %v", err)
	}

	jac := m.Jacobian([]float64{3.5, -1.2, 0.8, 4.4})
	nfull, nfree := jac.Dims()

	// <J*u, v> must equal <u, J^T*v>.
	u := []float64{1.5, -2, 0.5, 3}
	v := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}

	ju := make([]float64, nfull)
	jtv := make([]float64, nfree)
	jac.MulVec(ju, u)
	jac.MulTransVec(jtv, v)

	lhs := dot(ju, v)
	rhs := dot(u, jtv)
	if math.Abs(lhs-rhs) > 1e-12*math.Abs(lhs) {
		t.Errorf("adjoint mismatch: %v vs %v", lhs, rhs)
	}
}

func TestMappingBaselinePreserved(t *testing.T) {
	baseline := []float64{1, 2, 3}
	m, err := NewMapping(baseline, []int{1}, nil, nil)
	if err != nil {
		t.Fatalf("NewMapping failed: %v", err)
	}

	baseline[0] = 99

	full := make([]float64, 3)
	m.Expand(full, []float64{5})
	if full[0] != 1 {
		t.Errorf("baseline not copied: full[0] = %v, want 1", full[0])
	}
}
