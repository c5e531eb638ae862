package intersect

import (
	"github.com/df07/go-curve-kernels/pkg/core"
	"github.com/df07/go-curve-kernels/pkg/geometry"
)

// kernel tests one ray against every valid primitive of a block and hands
// each root to the epilog
type kernel func(pre *Precalculations, ray *core.Ray, ctx *Context, block *geometry.Block, ep Epilog)

// segmentRootsFunc adds the roots of one linear segment
type segmentRootsFunc func(pre *Precalculations, ray *core.Ray, lines *geometry.Lines, primID uint32, v0, v1 geometry.ControlPoint, geomID uint32, list *candidateList)

// gatherSegment reads a segment either at the first time step or interpolated at ray time
func gatherSegment(lines *geometry.Lines, primID int, time float64, mb bool) (geometry.ControlPoint, geometry.ControlPoint, bool) {
	if mb {
		return lines.SegmentAt(primID, time)
	}
	v0, v1 := lines.Segment(primID)
	return v0, v1, true
}

func lineKernel(mb bool, roots segmentRootsFunc) kernel {
	return func(pre *Precalculations, ray *core.Ray, ctx *Context, block *geometry.Block, ep Epilog) {
		if pre.Degenerate {
			return
		}
		var list candidateList
		for i := 0; i < geometry.BlockSize; i++ {
			if !block.IsValid(i) {
				continue
			}
			geomID, primID := block.GeomID[i], block.PrimID[i]
			lines := ctx.Scene.Lines(geomID)
			v0, v1, ok := gatherSegment(lines, int(primID), ray.Time, mb)
			if !ok {
				continue
			}

			list.n = 0
			roots(pre, ray, lines, primID, v0, v1, geomID, &list)
			if list.commit(ep) {
				return
			}
		}
	}
}

// flatLinearRoots treats the segment as a ribbon that always faces the ray
func flatLinearRoots(pre *Precalculations, ray *core.Ray, _ *geometry.Lines, primID uint32, v0, v1 geometry.ControlPoint, geomID uint32, list *candidateList) {
	tangent := v1.P.Subtract(v0.P)
	if tangent.LengthSquared() < epsilon*epsilon {
		return
	}
	p0 := pre.ToRaySpace(ray.Origin, v0.P)
	p1 := pre.ToRaySpace(ray.Origin, v1.P)
	z, s, v, ok := flatSegmentRoot(p0, p1, v0.R, v1.R, false, false)
	if !ok {
		return
	}
	list.add(Candidate{
		T:      pre.depthToT(z),
		U:      s,
		V:      v,
		Ng:     facingNormal(ray.Direction, tangent),
		GeomID: geomID,
		PrimID: primID,
	})
}

// roundLinearRoots sweeps a sphere along the segment
func roundLinearRoots(_ *Precalculations, ray *core.Ray, _ *geometry.Lines, primID uint32, v0, v1 geometry.ControlPoint, geomID uint32, list *candidateList) {
	if seg, ok := newRoundSegment(v0, v1); ok {
		seg.roots(ray, geomID, primID, list, 0, 1)
	}
}

// coneLinearRoots closes the cone frustum with flat discs where no neighbour continues it
func coneLinearRoots(_ *Precalculations, ray *core.Ray, lines *geometry.Lines, primID uint32, v0, v1 geometry.ControlPoint, geomID uint32, list *candidateList) {
	coneSegmentRoots(ray, v0, v1, lines.SegmentFlags(int(primID)), geomID, primID, list)
}

// facingNormal returns the direction against the ray, perpendicular to tangent
func facingNormal(dir, tangent core.Vec3) core.Vec3 {
	back := dir.Negate()
	t2 := tangent.LengthSquared()
	if t2 > 0 {
		n := back.Subtract(tangent.Multiply(back.Dot(tangent) / t2))
		if n.LengthSquared() > epsilon {
			return n.Normalize()
		}
	}
	return back.Normalize()
}
