package geometry

import (
	"fmt"

	"github.com/df07/go-curve-kernels/pkg/core"
)

// Points is a set of spheres or discs with per-vertex radii
type Points struct {
	base
	Vertices [][]ControlPoint // Centers and radii per time step
	Normals  [][]core.Vec3    // Disc normals per time step, oriented discs only
}

// NewPoints creates point primitives. Oriented discs require normals.
func NewPoints(t Type, vertices [][]ControlPoint, normals [][]core.Vec3) (*Points, error) {
	if !t.IsPoint() {
		return nil, fmt.Errorf("points: %s is not a point type", t)
	}
	if len(vertices) == 0 {
		return nil, fmt.Errorf("points: at least one time step is required")
	}

	points := &Points{
		base:     newBase(t, len(vertices)),
		Vertices: vertices,
		Normals:  normals,
	}
	if err := points.Validate(); err != nil {
		return nil, err
	}
	return points, nil
}

// NumPrimitives returns the number of points
func (p *Points) NumPrimitives() int {
	return len(p.Vertices[0])
}

// Validate checks buffer sizes
func (p *Points) Validate() error {
	n := len(p.Vertices[0])
	if err := checkTimeSteps("points vertices", p.Vertices, p.timeSteps, n); err != nil {
		return err
	}
	if p.baseType == TypeOrientedDiscPoint {
		if err := checkTimeSteps("points normals", p.Normals, p.timeSteps, n); err != nil {
			return err
		}
	}
	return nil
}

// Point returns a point and its normal at the first time step
func (p *Points) Point(primID int) (ControlPoint, core.Vec3) {
	var n core.Vec3
	if p.Normals != nil {
		n = p.Normals[0][primID]
	}
	return p.Vertices[0][primID], n
}

// PointAt returns a point and its normal interpolated at time
func (p *Points) PointAt(primID int, time float64) (ControlPoint, core.Vec3, bool) {
	itime, ftime, ok := p.TimeSegment(time)
	if !ok {
		return ControlPoint{}, core.Vec3{}, false
	}
	if p.timeSteps == 1 {
		v, n := p.Point(primID)
		return v, n, true
	}

	v := p.Vertices[itime][primID].Lerp(p.Vertices[itime+1][primID], ftime)
	var n core.Vec3
	if p.Normals != nil {
		n = p.Normals[itime][primID].Lerp(p.Normals[itime+1][primID], ftime)
	}
	return v, n, true
}

// Bounds covers the point's radius over all time steps
func (p *Points) Bounds(primID int) core.AABB {
	box := core.EmptyAABB()
	for _, step := range p.Vertices {
		v := step[primID]
		box = box.Union(core.NewAABB(v.P, v.P).Expand(v.R))
	}
	return box
}
