package fit

import "errors"

var (
	ErrIndexOutOfRange   = errors.New("fit: parameter index out of range")
	ErrFreeNotAscending  = errors.New("fit: free parameter indices must be strictly ascending")
	ErrConstraintOnFree  = errors.New("fit: tied parameter must not itself be free")
	ErrSourceNotFree     = errors.New("fit: tie source must be a free parameter")
	ErrDoubletChained    = errors.New("fit: doublet source must not be another doublet target")
	ErrConstraintClash   = errors.New("fit: parameter targeted by more than one constraint")
	ErrLengthMismatch    = errors.New("fit: input lengths do not match")
	ErrTooShort          = errors.New("fit: need at least two bins")
	ErrBadBounds         = errors.New("fit: lower bound exceeds upper bound")
	ErrUnknownMethod     = errors.New("fit: unknown solve method")
	ErrMissingResolution = errors.New("fit: one resolution matrix required per camera")
)
