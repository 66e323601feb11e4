// Package sparse implements the sparse linear-algebra layer of the
// emission-line fitter: a row-banded resolution matrix, run-length sparse
// Jacobian fragments, and a composite Jacobian operator.
//
// The composite operator represents, per camera, the matrix product
//
//	W * M * J_ideal * J_map
//
// where J_map is the free-to-full parameter expansion Jacobian, J_ideal
// the ideal (pre-instrument) Jacobian of the binned line model, M the
// camera's resolution matrix, and W the diagonal of observation weights.
// No dense matrix is ever materialized; the optimizer only sees forward
// and transpose multiplies. Memory stays O(lines * bandwidth) rather than
// O(bins * parameters).
//
// MulVec-style methods follow the convention of writing into a
// caller-supplied destination slice and panic on dimension mismatch.
package sparse
