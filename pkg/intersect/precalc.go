package intersect

import (
	"math"

	"github.com/df07/go-curve-kernels/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
)

// Precalculations caches per-ray data shared by every primitive a query visits
type Precalculations struct {
	// RaySpace maps world offsets from the ray origin into a frame whose Z
	// axis is the normalized ray direction
	RaySpace mgl64.Mat3
	// DepthScale converts ray-space Z back into the ray parameter t
	DepthScale float64
	Degenerate bool
}

// NewPrecalculations builds the ray-space frame for ray. A zero or
// non-finite direction yields a degenerate frame that no kernel hits.
func NewPrecalculations(ray *core.Ray) Precalculations {
	length := ray.Direction.Length()
	if !(length > 0) || !core.Finite(length) || !ray.Origin.IsFinite() {
		return Precalculations{RaySpace: mgl64.Ident3(), Degenerate: true}
	}

	depthScale := 1.0 / length
	dir := ray.Direction.Multiply(depthScale)

	// Pick the more stable of two perpendicular candidates
	dx0 := dir.Cross(core.NewVec3(1, 0, 0))
	dx1 := dir.Cross(core.NewVec3(0, 1, 0))
	dx := dx0
	if dx1.LengthSquared() > dx0.LengthSquared() {
		dx = dx1
	}
	dx = dx.Normalize()
	dy := dir.Cross(dx).Normalize()

	return Precalculations{
		RaySpace:   mgl64.Mat3FromRows(dx.Mgl(), dy.Mgl(), dir.Mgl()),
		DepthScale: depthScale,
	}
}

// ToRaySpace transforms a world point into ray space relative to origin
func (p *Precalculations) ToRaySpace(origin, point core.Vec3) core.Vec3 {
	return core.FromMgl(p.RaySpace.Mul3x1(point.Subtract(origin).Mgl()))
}

// PrecalculationsK holds one Precalculations per packet lane
type PrecalculationsK[W core.Width] struct {
	lanes [core.MaxLanes]Precalculations
}

// NewPrecalculationsK builds precalculations for the active lanes of a packet
func NewPrecalculationsK[W core.Width](ray *core.RayK[W], valid core.LaneMask) *PrecalculationsK[W] {
	pre := &PrecalculationsK[W]{}
	for m := valid; m != 0; {
		var k int
		k, m = m.Next()
		lane := ray.Lane(k)
		pre.lanes[k] = NewPrecalculations(&lane)
	}
	return pre
}

// Lane returns the precalculations of lane k
func (p *PrecalculationsK[W]) Lane(k int) *Precalculations {
	return &p.lanes[k]
}

// depthToT converts a ray-space depth into a ray parameter
func (p *Precalculations) depthToT(z float64) float64 {
	if p.DepthScale == 0 {
		return math.NaN()
	}
	return z * p.DepthScale
}
