package geometry

import (
	"math"
	"testing"

	"github.com/df07/go-curve-kernels/pkg/core"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func straightRaw(r float64) rawCurve {
	return rawCurve{v: [4]ControlPoint{
		NewControlPoint(0, 0, 0, r),
		NewControlPoint(1, 0, 0, r),
		NewControlPoint(2, 0, 0, r),
		NewControlPoint(3, 0, 0, r),
	}}
}

func TestBezierCurve_EvalEndpoints(t *testing.T) {
	curve := straightRaw(0.1).toBezier(BasisBezier)

	if got := curve.Eval(0); !cmp.Equal(got, curve.P[0], approx) {
		t.Errorf("Expected %v at u=0, got %v", curve.P[0], got)
	}
	if got := curve.Eval(1); !cmp.Equal(got, curve.P[3], approx) {
		t.Errorf("Expected %v at u=1, got %v", curve.P[3], got)
	}
	if got := curve.Eval(0.5); !cmp.Equal(got, NewControlPoint(1.5, 0, 0, 0.1), approx) {
		t.Errorf("Expected midpoint (1.5,0,0), got %v", got)
	}

	d := curve.Derivative(0.5)
	if !cmp.Equal(d, core.NewVec3(3, 0, 0), approx) {
		t.Errorf("Expected derivative (3,0,0), got %v", d)
	}
}

func TestToBezier_Hermite(t *testing.T) {
	raw := rawCurve{
		v: [4]ControlPoint{
			NewControlPoint(0, 0, 0, 0.2),
			NewControlPoint(3, 0, 0, 0.2),
			NewControlPoint(3, 0, 0, 0),
			NewControlPoint(3, 0, 0, 0),
		},
		n: [4]core.Vec3{core.NewVec3(0, 1, 0), core.NewVec3(0, 1, 0)},
	}
	curve := raw.toBezier(BasisHermite)

	expected := [4]ControlPoint{
		NewControlPoint(0, 0, 0, 0.2),
		NewControlPoint(1, 0, 0, 0.2),
		NewControlPoint(2, 0, 0, 0.2),
		NewControlPoint(3, 0, 0, 0.2),
	}
	if diff := cmp.Diff(expected, curve.P, approx); diff != "" {
		t.Errorf("Hermite conversion mismatch (-want +got):\n%s", diff)
	}
	if n := curve.Normal(0.5); !cmp.Equal(n, core.NewVec3(0, 1, 0), approx) {
		t.Errorf("Expected constant normal, got %v", n)
	}
}

func TestToBezier_UniformBasesOnStraightLine(t *testing.T) {
	// Evenly spaced collinear control points stay on the line in every basis
	for _, basis := range []Basis{BasisBezier, BasisBSpline, BasisCatmullRom} {
		curve := straightRaw(0.5).toBezier(basis)
		for _, u := range []float64{0, 0.25, 0.5, 1} {
			p := curve.Eval(u)
			if math.Abs(p.P.Y) > 1e-12 || math.Abs(p.P.Z) > 1e-12 {
				t.Errorf("basis %d: point %v left the line at u=%f", basis, p.P, u)
			}
			if math.Abs(p.R-0.5) > 1e-12 {
				t.Errorf("basis %d: expected radius 0.5, got %f", basis, p.R)
			}
		}
	}

	// Catmull-Rom interpolates the inner control points
	cr := straightRaw(0.5).toBezier(BasisCatmullRom)
	if !cmp.Equal(cr.Eval(0).P, core.NewVec3(1, 0, 0), approx) || !cmp.Equal(cr.Eval(1).P, core.NewVec3(2, 0, 0), approx) {
		t.Errorf("Expected Catmull-Rom segment from (1,0,0) to (2,0,0), got %v to %v", cr.Eval(0).P, cr.Eval(1).P)
	}
}

func TestBezierCurve_BoundsContainCurve(t *testing.T) {
	curve := BezierCurve{P: [4]ControlPoint{
		NewControlPoint(0, 0, 0, 0.1),
		NewControlPoint(1, 2, 0, 0.2),
		NewControlPoint(2, -2, 1, 0.1),
		NewControlPoint(3, 0, 0, 0.3),
	}}
	box := curve.Bounds()
	for i := 0; i <= 20; i++ {
		p := curve.Eval(float64(i) / 20)
		if box.DistanceSquared(p.P) > 0 {
			t.Errorf("Point %v outside bounds %v", p.P, box)
		}
	}
}
