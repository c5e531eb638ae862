package geometry

import (
	"fmt"

	"github.com/df07/go-curve-kernels/pkg/core"
)

// Curves is a set of cubic curve segments in one basis
type Curves struct {
	base
	Vertices          [][]ControlPoint // Control points per time step
	Normals           [][]core.Vec3    // Oriented curves only
	Tangents          [][]ControlPoint // Hermite curves only
	NormalDerivatives [][]core.Vec3    // Oriented Hermite curves only
	Curves            []uint32         // Index of each curve's first control point
}

// NewCurves creates cubic curves. Each entry of vertices is one time step.
// Normals and tangents required by the type are attached with SetNormals,
// SetTangents and SetNormalDerivatives before the geometry is used.
func NewCurves(t Type, vertices [][]ControlPoint, curves []uint32) (*Curves, error) {
	if !t.IsCurve() {
		return nil, fmt.Errorf("curves: %s is not a cubic curve type", t)
	}
	if len(vertices) == 0 {
		return nil, fmt.Errorf("curves: at least one time step is required")
	}
	c := &Curves{
		base:     newBase(t, len(vertices)),
		Vertices: vertices,
		Curves:   curves,
	}
	if err := checkTimeSteps("curves vertices", vertices, c.timeSteps, len(vertices[0])); err != nil {
		return nil, err
	}
	return c, nil
}

// SetNormals attaches per-vertex normals for oriented curves
func (c *Curves) SetNormals(normals [][]core.Vec3) error {
	if err := checkTimeSteps("curves normals", normals, c.timeSteps, len(c.Vertices[0])); err != nil {
		return err
	}
	c.Normals = normals
	return nil
}

// SetTangents attaches per-vertex tangents for Hermite curves
func (c *Curves) SetTangents(tangents [][]ControlPoint) error {
	if err := checkTimeSteps("curves tangents", tangents, c.timeSteps, len(c.Vertices[0])); err != nil {
		return err
	}
	c.Tangents = tangents
	return nil
}

// SetNormalDerivatives attaches per-vertex normal derivatives for oriented Hermite curves
func (c *Curves) SetNormalDerivatives(derivatives [][]core.Vec3) error {
	if err := checkTimeSteps("curves normal derivatives", derivatives, c.timeSteps, len(c.Vertices[0])); err != nil {
		return err
	}
	c.NormalDerivatives = derivatives
	return nil
}

// Basis returns the control point basis
func (c *Curves) Basis() Basis {
	return c.baseType.Basis()
}

// NumPrimitives returns the number of curve segments
func (c *Curves) NumPrimitives() int {
	return len(c.Curves)
}

// controlCount is the number of consecutive vertices a segment reads
func (c *Curves) controlCount() int {
	if c.Basis() == BasisHermite {
		return 2
	}
	return 4
}

// Validate checks that every buffer the type needs is present and indexed correctly
func (c *Curves) Validate() error {
	n := len(c.Vertices[0])
	oriented := c.baseType.Subtype() == SubtypeOriented
	hermite := c.Basis() == BasisHermite

	if oriented && c.Normals == nil {
		return fmt.Errorf("curves: %s requires normals", c.baseType)
	}
	if hermite && c.Tangents == nil {
		return fmt.Errorf("curves: %s requires tangents", c.baseType)
	}
	if oriented && hermite && c.NormalDerivatives == nil {
		return fmt.Errorf("curves: %s requires normal derivatives", c.baseType)
	}
	for i, first := range c.Curves {
		if int(first)+c.controlCount() > n {
			return fmt.Errorf("curves: curve %d reads past vertex %d", i, n)
		}
	}
	return nil
}

// gatherRaw reads a segment's control data at one time step
func (c *Curves) gatherRaw(primID, step int) rawCurve {
	first := int(c.Curves[primID])
	var raw rawCurve
	if c.Basis() == BasisHermite {
		raw.v = [4]ControlPoint{c.Vertices[step][first], c.Vertices[step][first+1], c.Tangents[step][first], c.Tangents[step][first+1]}
		if c.Normals != nil {
			raw.n[0], raw.n[1] = c.Normals[step][first], c.Normals[step][first+1]
		}
		if c.NormalDerivatives != nil {
			raw.n[2], raw.n[3] = c.NormalDerivatives[step][first], c.NormalDerivatives[step][first+1]
		}
		return raw
	}
	copy(raw.v[:], c.Vertices[step][first:first+4])
	if c.Normals != nil {
		copy(raw.n[:], c.Normals[step][first:first+4])
	}
	return raw
}

// Bezier returns a segment in Bezier form at the first time step
func (c *Curves) Bezier(primID int) BezierCurve {
	return c.gatherRaw(primID, 0).toBezier(c.Basis())
}

// BezierAt returns a segment in Bezier form at time. Control data is
// interpolated between time steps before the basis conversion.
func (c *Curves) BezierAt(primID int, time float64) (BezierCurve, bool) {
	itime, ftime, ok := c.TimeSegment(time)
	if !ok {
		return BezierCurve{}, false
	}
	if c.timeSteps == 1 {
		return c.Bezier(primID), true
	}
	raw := c.gatherRaw(primID, itime).lerp(c.gatherRaw(primID, itime+1), ftime)
	return raw.toBezier(c.Basis()), true
}

// Bounds covers the segment over all time steps
func (c *Curves) Bounds(primID int) core.AABB {
	box := core.EmptyAABB()
	for step := range c.Vertices {
		box = box.Union(c.gatherRaw(primID, step).toBezier(c.Basis()).Bounds())
	}
	return box
}
