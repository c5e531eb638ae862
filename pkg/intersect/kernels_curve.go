package intersect

import (
	"github.com/df07/go-curve-kernels/pkg/core"
	"github.com/df07/go-curve-kernels/pkg/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

type curveRootsFunc func(pre *Precalculations, ray *core.Ray, curve geometry.BezierCurve, geomID, primID uint32, list *candidateList)

// gatherCurve returns a segment in Bezier form, converting from the geometry's basis
func gatherCurve(curves *geometry.Curves, primID int, time float64, mb bool) (geometry.BezierCurve, bool) {
	if mb {
		return curves.BezierAt(primID, time)
	}
	return curves.Bezier(primID), true
}

func curveKernel(mb bool, roots curveRootsFunc) kernel {
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
			curve, ok := gatherCurve(ctx.Scene.Curves(geomID), int(primID), ray.Time, mb)
			if !ok || curve.Length() < epsilon {
				continue
			}

			list.n = 0
			roots(pre, ray, curve, geomID, primID, &list)
			if list.commit(ep) {
				return
			}
		}
	}
}

// ribbonRoots tessellates the curve in ray space into flat ray-facing segments
func ribbonRoots(segments int) curveRootsFunc {
	return func(pre *Precalculations, ray *core.Ray, curve geometry.BezierCurve, geomID, primID uint32, list *candidateList) {
		prev := curve.Eval(0)
		prevRS := pre.ToRaySpace(ray.Origin, prev.P)
		for j := 1; j <= segments; j++ {
			cur := curve.Eval(float64(j) / float64(segments))
			curRS := pre.ToRaySpace(ray.Origin, cur.P)

			if z, s, v, ok := flatSegmentRoot(prevRS, curRS, prev.R, cur.R, j > 1, j < segments); ok {
				u := (float64(j-1) + s) / float64(segments)
				list.add(Candidate{
					T:      pre.depthToT(z),
					U:      u,
					V:      v,
					Ng:     facingNormal(ray.Direction, curve.Derivative(u)),
					GeomID: geomID,
					PrimID: primID,
				})
			}
			prev, prevRS = cur, curRS
		}
	}
}

// sweepRoots tessellates the curve into round linear segments joined by spheres
func sweepRoots(segments int) curveRootsFunc {
	return func(_ *Precalculations, ray *core.Ray, curve geometry.BezierCurve, geomID, primID uint32, list *candidateList) {
		scale := 1 / float64(segments)
		prev := curve.Eval(0)
		for j := 1; j <= segments; j++ {
			cur := curve.Eval(float64(j) * scale)
			if seg, ok := newRoundSegment(prev, cur); ok {
				seg.roots(ray, geomID, primID, list, float64(j-1)*scale, scale)
			}
			prev = cur
		}
	}
}

// orientedRoots tessellates a ribbon spanned along cross(normal, tangent)
// into quads and tests each as two triangles
func orientedRoots(segments int) curveRootsFunc {
	return func(_ *Precalculations, ray *core.Ray, curve geometry.BezierCurve, geomID, primID uint32, list *candidateList) {
		origin := ray.Origin.Mgl()
		dir := ray.Direction.Mgl()

		edges := func(u float64) (mgl64.Vec3, mgl64.Vec3) {
			left, right := orientedEdges(curve, u)
			return left.Mgl(), right.Mgl()
		}

		left0, right0 := edges(0)
		for j := 0; j < segments; j++ {
			left1, right1 := edges(float64(j+1) / float64(segments))

			// First triangle spans (left0, right0, left1)
			if t, b1, b2, ok := triangleRoot(origin, dir, left0, right0, left1); ok {
				ng := core.FromMgl(right0.Sub(left0).Cross(left1.Sub(left0)))
				list.add(orientedCandidate(t, j, b2, b1, segments, ng, geomID, primID))
			}
			// Second triangle spans (right1, left1, right0)
			if t, b1, b2, ok := triangleRoot(origin, dir, right1, left1, right0); ok {
				ng := core.FromMgl(left1.Sub(right1).Cross(right0.Sub(right1)))
				list.add(orientedCandidate(t, j, 1-b2, 1-b1, segments, ng, geomID, primID))
			}
			left0, right0 = left1, right1
		}
	}
}

// orientedEdges returns the two ribbon edges at u, offset by the radius along
// cross(normal, tangent)
func orientedEdges(curve geometry.BezierCurve, u float64) (core.Vec3, core.Vec3) {
	p := curve.Eval(u)
	side := curve.Normal(u).Cross(curve.Derivative(u)).Normalize().Multiply(p.R)
	return p.P.Subtract(side), p.P.Add(side)
}

// orientedCandidate maps quad coordinates (s along the curve, w across it) to hit coordinates
func orientedCandidate(t float64, j int, s, w float64, segments int, ng core.Vec3, geomID, primID uint32) Candidate {
	return Candidate{
		T:      t,
		U:      (float64(j) + s) / float64(segments),
		V:      2*w - 1,
		Ng:     ng.Normalize(),
		GeomID: geomID,
		PrimID: primID,
	}
}
