package bins

import "errors"

var (
	ErrNoSegments      = errors.New("bins: no segments")
	ErrBadSegment      = errors.New("bins: segments must be contiguous, ascending, and cover all centers")
	ErrSegmentTooShort = errors.New("bins: segment needs at least 2 centers")
	ErrNotIncreasing   = errors.New("bins: centers must be strictly increasing within a segment")
	ErrNotPositive     = errors.New("bins: edges must be positive")
)
