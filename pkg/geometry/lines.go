package geometry

import (
	"fmt"

	"github.com/df07/go-curve-kernels/pkg/core"
)

// SegmentFlags records which ends of a segment continue into a neighbour
type SegmentFlags uint8

const (
	NeighborLeft SegmentFlags = 1 << iota
	NeighborRight
)

// Lines is a set of linear segments with per-vertex radii
type Lines struct {
	base
	Vertices [][]ControlPoint // Vertex buffer per time step
	Segments []uint32         // Index of each segment's first vertex
	Flags    []SegmentFlags   // Optional, derived from index adjacency when nil
}

// NewLines creates line segments of a linear type. Each entry of vertices is one time step.
func NewLines(t Type, vertices [][]ControlPoint, segments []uint32) (*Lines, error) {
	if !t.IsLinear() {
		return nil, fmt.Errorf("lines: %s is not a linear type", t)
	}
	if len(vertices) == 0 {
		return nil, fmt.Errorf("lines: at least one time step is required")
	}

	lines := &Lines{
		base:     newBase(t, len(vertices)),
		Vertices: vertices,
		Segments: segments,
	}
	if err := lines.Validate(); err != nil {
		return nil, err
	}
	return lines, nil
}

// NumPrimitives returns the number of segments
func (l *Lines) NumPrimitives() int {
	return len(l.Segments)
}

// Validate checks buffer sizes and indices
func (l *Lines) Validate() error {
	n := len(l.Vertices[0])
	if err := checkTimeSteps("lines vertices", l.Vertices, l.timeSteps, n); err != nil {
		return err
	}
	for i, first := range l.Segments {
		if int(first)+1 >= n {
			return fmt.Errorf("lines: segment %d references vertex %d of %d", i, first+1, n)
		}
	}
	if l.Flags != nil && len(l.Flags) != len(l.Segments) {
		return fmt.Errorf("lines: %d flags for %d segments", len(l.Flags), len(l.Segments))
	}
	return nil
}

// Segment returns the end points of a segment at the first time step
func (l *Lines) Segment(primID int) (ControlPoint, ControlPoint) {
	first := l.Segments[primID]
	return l.Vertices[0][first], l.Vertices[0][first+1]
}

// SegmentAt returns the end points of a segment interpolated at time
func (l *Lines) SegmentAt(primID int, time float64) (ControlPoint, ControlPoint, bool) {
	itime, ftime, ok := l.TimeSegment(time)
	if !ok {
		return ControlPoint{}, ControlPoint{}, false
	}
	if l.timeSteps == 1 {
		v0, v1 := l.Segment(primID)
		return v0, v1, true
	}
	first := l.Segments[primID]
	a, b := l.Vertices[itime], l.Vertices[itime+1]
	return a[first].Lerp(b[first], ftime), a[first+1].Lerp(b[first+1], ftime), true
}

// SegmentFlags reports which ends of a segment connect to a neighbour
func (l *Lines) SegmentFlags(primID int) SegmentFlags {
	if l.Flags != nil {
		return l.Flags[primID]
	}
	var flags SegmentFlags
	first := l.Segments[primID]
	if primID > 0 && l.Segments[primID-1]+1 == first {
		flags |= NeighborLeft
	}
	if primID+1 < len(l.Segments) && l.Segments[primID+1] == first+1 {
		flags |= NeighborRight
	}
	return flags
}

// Bounds covers the segment and its radii over all time steps
func (l *Lines) Bounds(primID int) core.AABB {
	first := l.Segments[primID]
	box := core.EmptyAABB()
	for _, step := range l.Vertices {
		v0, v1 := step[first], step[first+1]
		box = box.Union(core.NewAABBFromPoints(v0.P, v1.P).Expand(max(v0.R, v1.R)))
	}
	return box
}
