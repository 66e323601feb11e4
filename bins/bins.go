// Package bins derives and validates wavelength bin edges for binned
// spectra split across camera segments.
//
// Each camera contributes an independent run of bin centers. Converting N
// centers to N+1 edges places interior edges halfway between adjacent
// centers and extrapolates the outermost edges linearly, so every camera
// gains one extra edge and segments never blend across camera boundaries.
package bins

import (
	"fmt"
	"math"
)

// Segment is a half-open bin index range [Start, End) identifying one
// camera's bins within the shared center and flux arrays.
type Segment struct {
	Start int
	End   int
}

// Len returns the number of bins in the segment.
func (s Segment) Len() int { return s.End - s.Start }

// validateSegments checks that segments are contiguous, ascending, and
// cover [0, n) exactly.
func validateSegments(segments []Segment, n int) error {
	if len(segments) == 0 {
		return ErrNoSegments
	}

	next := 0
	for i, seg := range segments {
		if seg.Start != next {
			return fmt.Errorf("bins: segment %d starts at %d, want %d: %w", i, seg.Start, next, ErrBadSegment)
		}
		if seg.End <= seg.Start {
			return fmt.Errorf("bins: segment %d is empty: %w", i, ErrBadSegment)
		}
		next = seg.End
	}
	if next != n {
		return fmt.Errorf("bins: segments cover %d centers, want %d: %w", next, n, ErrBadSegment)
	}

	return nil
}

// CentersToEdges converts per-segment bin centers into bin edges. The
// result holds one more edge than centers for every segment: the edge run
// for segment i occupies out[seg.Start+i : seg.End+i+1].
//
// Interior edges are midpoints of adjacent centers. The outermost edges
// extrapolate the first and last interior bin sizes. Each segment needs at
// least two strictly increasing centers.
func CentersToEdges(centers []float64, segments []Segment) ([]float64, error) {
	if err := validateSegments(segments, len(centers)); err != nil {
		return nil, err
	}

	out := make([]float64, len(centers)+len(segments))

	for i, seg := range segments {
		c := centers[seg.Start:seg.End]
		if len(c) < 2 {
			return nil, fmt.Errorf("bins: segment %d has %d centers: %w", i, len(c), ErrSegmentTooShort)
		}

		edges := out[seg.Start+i : seg.End+i+1]
		for k := 1; k < len(c); k++ {
			if c[k] <= c[k-1] {
				return nil, fmt.Errorf("bins: segment %d centers not increasing at %d: %w", i, k, ErrNotIncreasing)
			}
			edges[k] = 0.5 * (c[k-1] + c[k])
		}

		edges[0] = c[0] - (c[1] - edges[1])
		edges[len(c)] = c[len(c)-1] + (c[len(c)-1] - edges[len(c)-1])
	}

	return out, nil
}

// Edges holds the concatenated per-camera bin edges of one spectrum along
// with their natural logs, which the Gaussian integration kernels consume
// directly. Construct it once per fit via NewEdges.
type Edges struct {
	Wave     []float64 // concatenated edges, one extra per segment
	Log      []float64 // natural log of Wave
	Segments []Segment // bin index ranges, one per camera
}

// NewEdges derives edges from bin centers and caches their logs.
// All edge values must be positive so that logs are defined; spectra are
// given in wavelength units where this always holds.
func NewEdges(centers []float64, segments []Segment) (*Edges, error) {
	wave, err := CentersToEdges(centers, segments)
	if err != nil {
		return nil, err
	}

	logw := make([]float64, len(wave))
	for i, v := range wave {
		if v <= 0 {
			return nil, fmt.Errorf("bins: edge %d is %v: %w", i, v, ErrNotPositive)
		}
		logw[i] = math.Log(v)
	}

	return &Edges{Wave: wave, Log: logw, Segments: segments}, nil
}

// NumBins returns the total number of bins across all cameras.
func (e *Edges) NumBins() int {
	return e.Segments[len(e.Segments)-1].End
}

// NumCameras returns the number of camera segments.
func (e *Edges) NumCameras() int { return len(e.Segments) }

// Camera returns the edge run and its log counterpart for camera i.
// Both slices have Segments[i].Len()+1 entries and alias the shared
// arrays.
func (e *Edges) Camera(i int) (wave, logw []float64) {
	seg := e.Segments[i]
	return e.Wave[seg.Start+i : seg.End+i+1], e.Log[seg.Start+i : seg.End+i+1]
}
