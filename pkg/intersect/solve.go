package intersect

import (
	"math"

	"github.com/df07/go-curve-kernels/pkg/core"
	"github.com/df07/go-curve-kernels/pkg/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	epsilon       = 1e-12
	maxCandidates = 128
)

// candidateList collects the roots of one primitive before they reach the epilog
type candidateList struct {
	n int
	c [maxCandidates]Candidate
}

func (l *candidateList) add(c Candidate) {
	if l.n < len(l.c) {
		l.c[l.n] = c
		l.n++
	}
}

// commit offers candidates nearest first and reports whether the query is done
func (l *candidateList) commit(ep Epilog) bool {
	c := l.c[:l.n]
	for i := 1; i < len(c); i++ {
		for j := i; j > 0 && c[j].T < c[j-1].T; j-- {
			c[j], c[j-1] = c[j-1], c[j]
		}
	}
	for i := range c {
		if ep.Commit(&c[i]) && ep.Done() {
			return true
		}
	}
	l.n = 0
	return ep.Done()
}

// solveQuadratic returns the real roots of a*t^2 + b*t + c in ascending order
func solveQuadratic(a, b, c float64) (float64, float64, int) {
	if math.Abs(a) < epsilon {
		if math.Abs(b) < epsilon {
			return 0, 0, 0
		}
		t := -c / b
		return t, t, 1
	}

	discriminant := b*b - 4*a*c
	if discriminant < 0 {
		return 0, 0, 0
	}
	sq := math.Sqrt(discriminant)
	q := -0.5 * (b + math.Copysign(sq, b))
	if q == 0 {
		return 0, 0, 2
	}
	t0, t1 := q/a, c/q
	if t0 > t1 {
		t0, t1 = t1, t0
	}
	return t0, t1, 2
}

// sphereRoots intersects a ray with a sphere
func sphereRoots(ray *core.Ray, center core.Vec3, radius float64) (float64, float64, bool) {
	oc := ray.Origin.Subtract(center)
	a := ray.Direction.LengthSquared()
	halfB := oc.Dot(ray.Direction)
	c := oc.LengthSquared() - radius*radius

	discriminant := halfB*halfB - a*c
	if discriminant < 0 || a == 0 {
		return 0, 0, false
	}
	sq := math.Sqrt(discriminant)
	return (-halfB - sq) / a, (-halfB + sq) / a, true
}

// discRoot intersects a ray with a disc of the given normal
func discRoot(ray *core.Ray, center, normal core.Vec3, radius float64) (float64, bool) {
	denom := ray.Direction.Dot(normal)
	if math.Abs(denom) < epsilon {
		return 0, false
	}
	t := center.Subtract(ray.Origin).Dot(normal) / denom
	p := ray.At(t)
	if p.Subtract(center).LengthSquared() > radius*radius {
		return 0, false
	}
	return t, true
}

// coneBody is the lateral surface of a cone around axis with radius
// base+slope*h at height h, clipped to h in [h0,h1]
type coneBody struct {
	origin      core.Vec3
	axis        core.Vec3
	base, slope float64
	h0, h1      float64
}

func (c coneBody) radius(h float64) float64 {
	return c.base + c.slope*h
}

// roots returns the ray parameters where the ray crosses the clipped body
func (c coneBody) roots(ray *core.Ray) ([2]float64, int) {
	w := ray.Origin.Subtract(c.origin)
	d := ray.Direction
	hw := w.Dot(c.axis)
	hd := d.Dot(c.axis)
	rw := c.radius(hw)

	a := d.LengthSquared() - (1+c.slope*c.slope)*hd*hd
	b := 2 * (w.Dot(d) - hw*hd - c.slope*hd*rw)
	cc := w.LengthSquared() - hw*hw - rw*rw

	var out [2]float64
	m := 0
	t0, t1, n := solveQuadratic(a, b, cc)
	for i, t := range [2]float64{t0, t1} {
		if i >= n {
			break
		}
		h := hw + t*hd
		if h < c.h0 || h > c.h1 || c.radius(h) < 0 {
			continue
		}
		out[m] = t
		m++
	}
	return out, m
}

// normal is the outward normal at a surface point p
func (c coneBody) normal(p core.Vec3) core.Vec3 {
	rel := p.Subtract(c.origin)
	h := rel.Dot(c.axis)
	radial := rel.Subtract(c.axis.Multiply(h))
	return radial.Subtract(c.axis.Multiply(c.radius(h) * c.slope)).Normalize()
}

// coneSegmentRoots adds the roots of a cone frustum segment, closed by flat
// discs at the ends no neighbour continues
func coneSegmentRoots(ray *core.Ray, v0, v1 geometry.ControlPoint, flags geometry.SegmentFlags, geomID, primID uint32, list *candidateList) {
	if v0.R < 0 || v1.R < 0 || (v0.R == 0 && v1.R == 0) {
		return
	}
	axisVec := v1.P.Subtract(v0.P)
	length := axisVec.Length()
	if length < epsilon {
		return
	}
	axis := axisVec.Multiply(1 / length)
	body := coneBody{origin: v0.P, axis: axis, base: v0.R, slope: (v1.R - v0.R) / length, h0: 0, h1: length}

	ts, n := body.roots(ray)
	for _, t := range ts[:n] {
		p := ray.At(t)
		h := p.Subtract(v0.P).Dot(axis)
		list.add(Candidate{T: t, U: h / length, Ng: body.normal(p), GeomID: geomID, PrimID: primID})
	}

	if flags&geometry.NeighborLeft == 0 && v0.R > 0 {
		if t, ok := discRoot(ray, v0.P, axis.Negate(), v0.R); ok {
			list.add(Candidate{T: t, U: 0, Ng: axis.Negate(), GeomID: geomID, PrimID: primID})
		}
	}
	if flags&geometry.NeighborRight == 0 && v1.R > 0 {
		if t, ok := discRoot(ray, v1.P, axis, v1.R); ok {
			list.add(Candidate{T: t, U: 1, Ng: axis, GeomID: geomID, PrimID: primID})
		}
	}
}

// roundSegment is the union of spheres swept along a segment with linearly
// interpolated radius: both end spheres joined by the cone tangent to them.
// The cone is absent when one end sphere contains the other.
type roundSegment struct {
	v0, v1  geometry.ControlPoint
	length  float64
	body    coneBody
	hasBody bool
}

func newRoundSegment(v0, v1 geometry.ControlPoint) (roundSegment, bool) {
	if v0.R < 0 || v1.R < 0 || (v0.R == 0 && v1.R == 0) {
		return roundSegment{}, false
	}

	s := roundSegment{v0: v0, v1: v1}
	axisVec := v1.P.Subtract(v0.P)
	s.length = axisVec.Length()
	dr := v1.R - v0.R
	if s.length < epsilon || math.Abs(dr) >= s.length {
		return s, true
	}

	// The tangent line meets each sphere r*sin(a) behind its center
	sinA := dr / s.length
	cosA := math.Sqrt(1 - sinA*sinA)
	s.body = coneBody{
		origin: v0.P,
		axis:   axisVec.Multiply(1 / s.length),
		base:   v0.R / cosA,
		slope:  sinA / cosA,
		h0:     -v0.R * sinA,
		h1:     s.length - v1.R*sinA,
	}
	s.hasBody = true
	return s, true
}

// tolerance keeps points on a shared boundary from counting as interior
func (s *roundSegment) tolerance() float64 {
	return 1e-9 * (1 + math.Max(s.v0.R, s.v1.R))
}

func (s *roundSegment) u(p core.Vec3) float64 {
	if s.length < epsilon {
		return 0
	}
	h := p.Subtract(s.v0.P).Dot(s.v1.P.Subtract(s.v0.P)) / (s.length * s.length)
	return math.Max(0, math.Min(1, h))
}

func (s *roundSegment) insideBody(p core.Vec3, tol float64) bool {
	if !s.hasBody {
		return false
	}
	rel := p.Subtract(s.body.origin)
	h := rel.Dot(s.body.axis)
	if h <= s.body.h0 || h >= s.body.h1 {
		return false
	}
	return rel.Subtract(s.body.axis.Multiply(h)).Length() < s.body.radius(h)-tol
}

func insideSphere(p core.Vec3, v geometry.ControlPoint, tol float64) bool {
	return v.R > 0 && p.Subtract(v.P).Length() < v.R-tol
}

// roots adds every crossing of the swept surface. Roots of one part that lie
// inside another part are dropped, so only the outer surface is reported.
func (s *roundSegment) roots(ray *core.Ray, geomID, primID uint32, list *candidateList, uOffset, uScale float64) {
	tol := s.tolerance()
	if s.hasBody {
		ts, n := s.body.roots(ray)
		for _, t := range ts[:n] {
			p := ray.At(t)
			if insideSphere(p, s.v0, tol) || insideSphere(p, s.v1, tol) {
				continue
			}
			list.add(Candidate{T: t, U: uOffset + uScale*s.u(p), Ng: s.body.normal(p), GeomID: geomID, PrimID: primID})
		}
	}

	ends := [2]geometry.ControlPoint{s.v0, s.v1}
	for end, v := range ends {
		if v.R <= 0 {
			continue
		}
		t0, t1, ok := sphereRoots(ray, v.P, v.R)
		if !ok {
			continue
		}
		other := ends[1-end]
		for _, t := range [2]float64{t0, t1} {
			p := ray.At(t)
			if s.insideBody(p, tol) || insideSphere(p, other, tol) {
				continue
			}
			list.add(Candidate{T: t, U: uOffset + uScale*float64(end), Ng: p.Subtract(v.P).Normalize(), GeomID: geomID, PrimID: primID})
		}
	}
}

// closest returns the surface point nearest to p, its distance and the
// segment parameter. Points inside the solid are their own closest point.
func (s *roundSegment) closest(p core.Vec3) (core.Vec3, float64, float64) {
	point, dist, u := p, math.Inf(1), 0.0
	for end, v := range [2]geometry.ControlPoint{s.v0, s.v1} {
		offset := p.Subtract(v.P)
		l := offset.Length()
		if l <= v.R {
			return p, 0, s.u(p)
		}
		if l-v.R < dist {
			point, dist, u = v.P.Add(offset.Multiply(v.R/l)), l-v.R, float64(end)
		}
	}
	if !s.hasBody {
		return point, dist, u
	}

	// In the plane through p and the axis the cone is a line tangent to both
	// end circles. Its normal is (cos a) radial - (sin a) axis.
	b := s.body
	rel := p.Subtract(b.origin)
	h := rel.Dot(b.axis)
	radialVec := rel.Subtract(b.axis.Multiply(h))
	rho := radialVec.Length()
	if rho < epsilon {
		return point, dist, u
	}
	cosA := 1 / math.Sqrt(1+b.slope*b.slope)
	sinA := b.slope * cosA

	signed := (rho - b.radius(h)) * cosA
	foot := (h-b.h0)*cosA + (rho-b.radius(b.h0))*sinA
	if foot < 0 || foot > (b.h1-b.h0)/cosA {
		return point, dist, u
	}
	if signed <= 0 {
		return p, 0, s.u(p)
	}
	if signed < dist {
		normal := radialVec.Multiply(cosA / rho).Subtract(b.axis.Multiply(sinA))
		point, dist = p.Subtract(normal.Multiply(signed)), signed
		u = s.u(point)
	}
	return point, dist, u
}

// flatSegmentRoot tests a ray-facing ribbon segment given in ray space. It
// returns the ray-space depth, the segment parameter and the signed distance
// from the ray relative to the interpolated radius. An open end rejects
// closest points beyond it instead of clamping, so chained segments do not
// report the same joint twice.
func flatSegmentRoot(p0, p1 core.Vec3, r0, r1 float64, openStart, openEnd bool) (z, s, v float64, ok bool) {
	dx, dy := p1.X-p0.X, p1.Y-p0.Y
	len2 := dx*dx + dy*dy
	if len2 > epsilon {
		s = -(p0.X*dx + p0.Y*dy) / len2
		if (openStart && s < 0) || (openEnd && s >= 1) {
			return 0, 0, 0, false
		}
		s = math.Max(0, math.Min(1, s))
	}

	qx := p0.X + dx*s
	qy := p0.Y + dy*s
	radius := r0 + (r1-r0)*s
	dist2 := qx*qx + qy*qy
	if radius <= 0 || dist2 > radius*radius {
		return 0, 0, 0, false
	}

	v = math.Sqrt(dist2) / radius
	if dx*qy-dy*qx < 0 {
		v = -v
	}
	return p0.Z + (p1.Z-p0.Z)*s, s, v, true
}

// triangleRoot is the Moller-Trumbore test. It returns t and the barycentric
// weights of v1 and v2.
func triangleRoot(origin, dir, v0, v1, v2 mgl64.Vec3) (t, b1, b2 float64, ok bool) {
	edge1 := v1.Sub(v0)
	edge2 := v2.Sub(v0)

	h := dir.Cross(edge2)
	a := edge1.Dot(h)
	if math.Abs(a) < epsilon {
		return 0, 0, 0, false
	}

	f := 1.0 / a
	s := origin.Sub(v0)
	b1 = f * s.Dot(h)
	if b1 < 0 || b1 > 1 {
		return 0, 0, 0, false
	}

	q := s.Cross(edge1)
	b2 = f * dir.Dot(q)
	if b2 < 0 || b1+b2 > 1 {
		return 0, 0, 0, false
	}

	return f * edge2.Dot(q), b1, b2, true
}
