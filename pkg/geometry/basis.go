package geometry

import (
	"math"

	"github.com/df07/go-curve-kernels/pkg/core"
)

// ControlPoint is a curve vertex with its radius
type ControlPoint struct {
	P core.Vec3
	R float64
}

// NewControlPoint creates a control point
func NewControlPoint(x, y, z, r float64) ControlPoint {
	return ControlPoint{P: core.NewVec3(x, y, z), R: r}
}

// Lerp linearly interpolates two control points
func (c ControlPoint) Lerp(other ControlPoint, f float64) ControlPoint {
	return ControlPoint{P: c.P.Lerp(other.P, f), R: c.R + (other.R-c.R)*f}
}

func (c ControlPoint) add(other ControlPoint) ControlPoint {
	return ControlPoint{P: c.P.Add(other.P), R: c.R + other.R}
}

func (c ControlPoint) scale(s float64) ControlPoint {
	return ControlPoint{P: c.P.Multiply(s), R: c.R * s}
}

// combine returns the weighted sum of four points
func combine(v [4]ControlPoint, w0, w1, w2, w3 float64) ControlPoint {
	return v[0].scale(w0).add(v[1].scale(w1)).add(v[2].scale(w2)).add(v[3].scale(w3))
}

func combineVec(v [4]core.Vec3, w0, w1, w2, w3 float64) core.Vec3 {
	return v[0].Multiply(w0).Add(v[1].Multiply(w1)).Add(v[2].Multiply(w2)).Add(v[3].Multiply(w3))
}

// BezierCurve is a cubic curve segment in Bezier form together with an
// optional normal curve used by oriented ribbons
type BezierCurve struct {
	P [4]ControlPoint
	N [4]core.Vec3
}

// rawCurve holds control data in the geometry's own basis. Hermite curves
// store {p0, p1, t0, t1} and {n0, n1, dn0, dn1}.
type rawCurve struct {
	v [4]ControlPoint
	n [4]core.Vec3
}

func (r rawCurve) lerp(other rawCurve, f float64) rawCurve {
	var out rawCurve
	for i := range out.v {
		out.v[i] = r.v[i].Lerp(other.v[i], f)
		out.n[i] = r.n[i].Lerp(other.n[i], f)
	}
	return out
}

// toBezier converts raw control data into Bezier form
func (r rawCurve) toBezier(basis Basis) BezierCurve {
	v, n := r.v, r.n
	switch basis {
	case BasisBSpline:
		return BezierCurve{
			P: [4]ControlPoint{
				combine(v, 1.0/6, 4.0/6, 1.0/6, 0),
				combine(v, 0, 4.0/6, 2.0/6, 0),
				combine(v, 0, 2.0/6, 4.0/6, 0),
				combine(v, 0, 1.0/6, 4.0/6, 1.0/6),
			},
			N: [4]core.Vec3{
				combineVec(n, 1.0/6, 4.0/6, 1.0/6, 0),
				combineVec(n, 0, 4.0/6, 2.0/6, 0),
				combineVec(n, 0, 2.0/6, 4.0/6, 0),
				combineVec(n, 0, 1.0/6, 4.0/6, 1.0/6),
			},
		}
	case BasisCatmullRom:
		return BezierCurve{
			P: [4]ControlPoint{
				v[1],
				combine(v, -1.0/6, 1, 1.0/6, 0),
				combine(v, 0, 1.0/6, 1, -1.0/6),
				v[2],
			},
			N: [4]core.Vec3{
				n[1],
				combineVec(n, -1.0/6, 1, 1.0/6, 0),
				combineVec(n, 0, 1.0/6, 1, -1.0/6),
				n[2],
			},
		}
	case BasisHermite:
		return BezierCurve{
			P: [4]ControlPoint{
				v[0],
				v[0].add(v[2].scale(1.0 / 3)),
				v[1].add(v[3].scale(-1.0 / 3)),
				v[1],
			},
			N: [4]core.Vec3{
				n[0],
				n[0].Add(n[2].Multiply(1.0 / 3)),
				n[1].Add(n[3].Multiply(-1.0 / 3)),
				n[1],
			},
		}
	default:
		return BezierCurve{P: v, N: n}
	}
}

func bernstein(u float64) (float64, float64, float64, float64) {
	s := 1 - u
	return s * s * s, 3 * u * s * s, 3 * u * u * s, u * u * u
}

// Eval returns the position and radius at u in [0,1]. Negative radii clamp to zero.
func (b BezierCurve) Eval(u float64) ControlPoint {
	w0, w1, w2, w3 := bernstein(u)
	c := combine(b.P, w0, w1, w2, w3)
	c.R = math.Max(c.R, 0)
	return c
}

// Derivative returns the tangent dP/du at u
func (b BezierCurve) Derivative(u float64) core.Vec3 {
	s := 1 - u
	d0 := b.P[1].P.Subtract(b.P[0].P)
	d1 := b.P[2].P.Subtract(b.P[1].P)
	d2 := b.P[3].P.Subtract(b.P[2].P)
	return d0.Multiply(3 * s * s).Add(d1.Multiply(6 * u * s)).Add(d2.Multiply(3 * u * u))
}

// Normal evaluates the normal curve at u
func (b BezierCurve) Normal(u float64) core.Vec3 {
	w0, w1, w2, w3 := bernstein(u)
	return combineVec(b.N, w0, w1, w2, w3)
}

// Bounds returns a box containing the curve's control hull expanded by its largest radius
func (b BezierCurve) Bounds() core.AABB {
	box := core.EmptyAABB()
	maxRadius := 0.0
	for _, p := range b.P {
		box = box.Extend(p.P)
		maxRadius = math.Max(maxRadius, math.Abs(p.R))
	}
	return box.Expand(maxRadius)
}

// Length returns the length of the control polygon
func (b BezierCurve) Length() float64 {
	l := 0.0
	for i := 0; i < 3; i++ {
		l += b.P[i+1].P.Subtract(b.P[i].P).Length()
	}
	return l
}
