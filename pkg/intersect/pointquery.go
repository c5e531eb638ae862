package intersect

import (
	"math"

	"github.com/df07/go-curve-kernels/pkg/core"
	"github.com/df07/go-curve-kernels/pkg/geometry"
)

// segmentClosestFunc returns the closest surface point of one linear segment
// to p, its distance and the segment parameter
type segmentClosestFunc func(p core.Vec3, lines *geometry.Lines, primID int, v0, v1 geometry.ControlPoint) (core.Vec3, float64, float64, bool)

func closestOnRoundSegment(p core.Vec3, _ *geometry.Lines, _ int, v0, v1 geometry.ControlPoint) (core.Vec3, float64, float64, bool) {
	seg, ok := newRoundSegment(v0, v1)
	if !ok {
		return core.Vec3{}, 0, 0, false
	}
	point, dist, u := seg.closest(p)
	return point, dist, u, true
}

func closestOnConeSegment(p core.Vec3, lines *geometry.Lines, primID int, v0, v1 geometry.ControlPoint) (core.Vec3, float64, float64, bool) {
	return closestOnCone(p, v0, v1, lines.SegmentFlags(primID))
}

// closestOnCone measures against a cone frustum closed by flat discs at the
// ends without a neighbour. Ends with a neighbour stay open. Points inside the
// frustum are their own closest point.
func closestOnCone(p core.Vec3, v0, v1 geometry.ControlPoint, flags geometry.SegmentFlags) (core.Vec3, float64, float64, bool) {
	if v0.R < 0 || v1.R < 0 || (v0.R == 0 && v1.R == 0) {
		return core.Vec3{}, 0, 0, false
	}
	axisVec := v1.P.Subtract(v0.P)
	length := axisVec.Length()
	if length < epsilon {
		return core.Vec3{}, 0, 0, false
	}
	axis := axisVec.Multiply(1 / length)

	rel := p.Subtract(v0.P)
	h := rel.Dot(axis)
	radialVec := rel.Subtract(axis.Multiply(h))
	rho := radialVec.Length()
	if h >= 0 && h <= length && rho <= v0.R+(v1.R-v0.R)*h/length {
		return p, 0, h / length, true
	}

	// Closest point in the (h, rho) half plane: the side edge, plus the cap
	// edges running from the axis to the rim
	bestH, bestRho := closestOnEdge(h, rho, 0, v0.R, length, v1.R)
	best := math.Hypot(h-bestH, rho-bestRho)
	caps := [2]struct {
		open   bool
		h, rim float64
	}{
		{flags&geometry.NeighborLeft != 0, 0, v0.R},
		{flags&geometry.NeighborRight != 0, length, v1.R},
	}
	for _, c := range caps {
		if c.open {
			continue
		}
		r := math.Max(0, math.Min(c.rim, rho))
		if d := math.Hypot(h-c.h, rho-r); d < best {
			bestH, bestRho, best = c.h, r, d
		}
	}

	radial := perpendicular(axis)
	if rho > epsilon {
		radial = radialVec.Multiply(1 / rho)
	}
	point := v0.P.Add(axis.Multiply(bestH)).Add(radial.Multiply(bestRho))
	return point, best, bestH / length, true
}

// closestOnEdge returns the closest point to (x,y) on the 2D edge (x0,y0)-(x1,y1)
func closestOnEdge(x, y, x0, y0, x1, y1 float64) (float64, float64) {
	dx, dy := x1-x0, y1-y0
	len2 := dx*dx + dy*dy
	if len2 < epsilon*epsilon {
		return x0, y0
	}
	s := math.Max(0, math.Min(1, ((x-x0)*dx+(y-y0)*dy)/len2))
	return x0 + s*dx, y0 + s*dy
}

// perpendicular returns some unit vector perpendicular to unit vector v
func perpendicular(v core.Vec3) core.Vec3 {
	if math.Abs(v.X) < 0.9 {
		return v.Cross(core.NewVec3(1, 0, 0)).Normalize()
	}
	return v.Cross(core.NewVec3(0, 1, 0)).Normalize()
}

// record updates the result if distance is within the query radius and closer than before
func record(q *PointQuery, res *PointQueryResult, point core.Vec3, distance, u float64, geomID, primID uint32) bool {
	if !(distance <= q.Radius) {
		return false
	}
	if res.GeomID != core.InvalidID && distance >= res.Distance {
		return false
	}
	*res = PointQueryResult{Point: point, Distance: distance, U: u, GeomID: geomID, PrimID: primID}
	q.Radius = distance
	return true
}

func linePointQuery(mb bool, closest segmentClosestFunc) PointQueryFunc {
	return func(q *PointQuery, res *PointQueryResult, ctx *Context, block *geometry.Block) bool {
		found := false
		for i := 0; i < geometry.BlockSize; i++ {
			if !block.IsValid(i) {
				continue
			}
			geomID, primID := block.GeomID[i], block.PrimID[i]
			lines := ctx.Scene.Lines(geomID)
			v0, v1, ok := gatherSegment(lines, int(primID), q.Time, mb)
			if !ok {
				continue
			}
			if point, dist, s, ok := closest(q.Point, lines, int(primID), v0, v1); ok {
				found = record(q, res, point, dist, s, geomID, primID) || found
			}
		}
		return found
	}
}

func pointPointQuery(mb bool, oriented bool) PointQueryFunc {
	return func(q *PointQuery, res *PointQueryResult, ctx *Context, block *geometry.Block) bool {
		found := false
		for i := 0; i < geometry.BlockSize; i++ {
			if !block.IsValid(i) {
				continue
			}
			geomID, primID := block.GeomID[i], block.PrimID[i]
			v, normal, ok := gatherPoint(ctx.Scene.Points(geomID), int(primID), q.Time, mb)
			if !ok || v.R <= 0 {
				continue
			}

			var point core.Vec3
			var dist float64
			switch {
			case oriented:
				point, dist = closestOnDisc(q.Point, v, normal)
			case ctx.Scene.Get(geomID).Type().Base() == geometry.TypeDiscPoint:
				// A disc facing the query point is closest at its center
				point, dist = v.P, q.Point.Subtract(v.P).Length()
			default:
				offset := q.Point.Subtract(v.P)
				dist = offset.Length()
				if dist <= v.R {
					point, dist = q.Point, 0
				} else {
					point, dist = v.P.Add(offset.Multiply(v.R/dist)), dist-v.R
				}
			}
			found = record(q, res, point, dist, 0, geomID, primID) || found
		}
		return found
	}
}

func closestOnDisc(p core.Vec3, v geometry.ControlPoint, normal core.Vec3) (core.Vec3, float64) {
	n := normal.Normalize()
	offset := p.Subtract(v.P)
	inPlane := offset.Subtract(n.Multiply(offset.Dot(n)))
	if l := inPlane.Length(); l > v.R {
		inPlane = inPlane.Multiply(v.R / l)
	}
	point := v.P.Add(inPlane)
	return point, p.Subtract(point).Length()
}

// curvePointQuery measures against the same swept sphere tessellation the sweep kernel uses
func curvePointQuery(mb bool, segments int) PointQueryFunc {
	return func(q *PointQuery, res *PointQueryResult, ctx *Context, block *geometry.Block) bool {
		found := false
		for i := 0; i < geometry.BlockSize; i++ {
			if !block.IsValid(i) {
				continue
			}
			geomID, primID := block.GeomID[i], block.PrimID[i]
			curve, ok := gatherCurve(ctx.Scene.Curves(geomID), int(primID), q.Time, mb)
			if !ok {
				continue
			}

			prev := curve.Eval(0)
			for j := 1; j <= segments; j++ {
				cur := curve.Eval(float64(j) / float64(segments))
				if point, dist, s, ok := closestOnRoundSegment(q.Point, nil, 0, prev, cur); ok {
					u := (float64(j-1) + s) / float64(segments)
					found = record(q, res, point, dist, u, geomID, primID) || found
				}
				prev = cur
			}
		}
		return found
	}
}

// orientedPointQuery measures against the quads the oriented kernel intersects
func orientedPointQuery(mb bool, segments int) PointQueryFunc {
	return func(q *PointQuery, res *PointQueryResult, ctx *Context, block *geometry.Block) bool {
		found := false
		for i := 0; i < geometry.BlockSize; i++ {
			if !block.IsValid(i) {
				continue
			}
			geomID, primID := block.GeomID[i], block.PrimID[i]
			curve, ok := gatherCurve(ctx.Scene.Curves(geomID), int(primID), q.Time, mb)
			if !ok || curve.Length() < epsilon {
				continue
			}

			left0, right0 := orientedEdges(curve, 0)
			for j := 0; j < segments; j++ {
				left1, right1 := orientedEdges(curve, float64(j+1)/float64(segments))
				// Same triangle split as the ray kernel; s runs along the curve
				if point, _, w, ok := closestOnTriangle(q.Point, left0, right0, left1); ok {
					u := (float64(j) + w) / float64(segments)
					found = record(q, res, point, q.Point.Subtract(point).Length(), u, geomID, primID) || found
				}
				if point, _, w, ok := closestOnTriangle(q.Point, right1, left1, right0); ok {
					u := (float64(j) + 1 - w) / float64(segments)
					found = record(q, res, point, q.Point.Subtract(point).Length(), u, geomID, primID) || found
				}
				left0, right0 = left1, right1
			}
		}
		return found
	}
}

// closestOnTriangle returns the closest point to p on triangle abc and the
// barycentric weights of b and c, following Ericson's region tests
func closestOnTriangle(p, a, b, c core.Vec3) (core.Vec3, float64, float64, bool) {
	ab := b.Subtract(a)
	ac := c.Subtract(a)
	ap := p.Subtract(a)
	d1, d2 := ab.Dot(ap), ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a, 0, 0, true
	}

	bp := p.Subtract(b)
	d3, d4 := ab.Dot(bp), ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b, 1, 0, true
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return a.Add(ab.Multiply(v)), v, 0, true
	}

	cp := p.Subtract(c)
	d5, d6 := ab.Dot(cp), ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c, 0, 1, true
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return a.Add(ac.Multiply(w)), 0, w, true
	}

	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Subtract(b).Multiply(w)), 1 - w, w, true
	}

	sum := va + vb + vc
	if !(sum > 0) {
		// Degenerate triangle
		return core.Vec3{}, 0, 0, false
	}
	v, w := vb/sum, vc/sum
	return a.Add(ab.Multiply(v)).Add(ac.Multiply(w)), v, w, true
}
