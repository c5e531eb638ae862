package geometry

import (
	"math"
	"testing"

	"github.com/df07/go-curve-kernels/pkg/core"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestTimeSegment(t *testing.T) {
	vertices := [][]ControlPoint{
		{NewControlPoint(0, 0, 0, 1)},
		{NewControlPoint(1, 0, 0, 1)},
		{NewControlPoint(2, 0, 0, 1)},
	}
	points, err := NewPoints(TypeSpherePoint, vertices, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	tests := []struct {
		time  float64
		itime int
		ftime float64
		ok    bool
	}{
		{0, 0, 0, true},
		{0.25, 0, 0.5, true},
		{0.5, 1, 0, true},
		{1, 1, 1, true},
		{-0.1, 0, 0, false},
		{1.5, 0, 0, false},
		{math.NaN(), 0, 0, false},
	}

	for _, tt := range tests {
		itime, ftime, ok := points.TimeSegment(tt.time)
		if ok != tt.ok {
			t.Errorf("time %f: expected ok=%v, got %v", tt.time, tt.ok, ok)
			continue
		}
		if ok && (itime != tt.itime || !approxEqual(ftime, tt.ftime)) {
			t.Errorf("time %f: expected (%d, %f), got (%d, %f)", tt.time, tt.itime, tt.ftime, itime, ftime)
		}
	}

	if points.Type() != TypeSpherePoint|MotionBlur {
		t.Errorf("Expected motion blur tag, got %s", points.Type())
	}
	p, _, ok := points.PointAt(0, 0.75)
	if !ok || !approxEqual(p.P.X, 1.5) {
		t.Errorf("Expected interpolated x=1.5, got %v (ok=%v)", p.P, ok)
	}
}

func TestTimeSegment_CustomRange(t *testing.T) {
	lines, err := NewLines(TypeRoundLinearCurve, [][]ControlPoint{
		{NewControlPoint(0, 0, 0, 1), NewControlPoint(1, 0, 0, 1)},
		{NewControlPoint(0, 2, 0, 1), NewControlPoint(1, 2, 0, 1)},
	}, []uint32{0})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := lines.SetTimeRange(0.2, 0.6); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, _, ok := lines.SegmentAt(0, 0.1); ok {
		t.Error("Expected no segment outside the time range")
	}
	v0, v1, ok := lines.SegmentAt(0, 0.4)
	if !ok || !approxEqual(v0.P.Y, 1) || !approxEqual(v1.P.Y, 1) {
		t.Errorf("Expected y=1 halfway through the range, got %v %v", v0.P, v1.P)
	}

	if err := lines.SetTimeRange(0.8, 0.2); err == nil {
		t.Error("Expected error for inverted time range")
	}
}

func TestLines_SegmentFlags(t *testing.T) {
	vertices := [][]ControlPoint{{
		NewControlPoint(0, 0, 0, 0.1),
		NewControlPoint(1, 0, 0, 0.1),
		NewControlPoint(2, 0, 0, 0.1),
		NewControlPoint(5, 0, 0, 0.1),
		NewControlPoint(6, 0, 0, 0.1),
	}}
	lines, err := NewLines(TypeConeLinearCurve, vertices, []uint32{0, 1, 3})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expected := []SegmentFlags{NeighborRight, NeighborLeft, 0}
	for i, want := range expected {
		if got := lines.SegmentFlags(i); got != want {
			t.Errorf("segment %d: expected flags %b, got %b", i, want, got)
		}
	}

	box := lines.Bounds(2)
	if !approxEqual(box.Min.X, 4.9) || !approxEqual(box.Max.X, 6.1) {
		t.Errorf("Expected bounds x in [4.9, 6.1], got %v", box)
	}
}

func TestNewLines_Errors(t *testing.T) {
	one := [][]ControlPoint{{NewControlPoint(0, 0, 0, 1), NewControlPoint(1, 0, 0, 1)}}

	if _, err := NewLines(TypeSpherePoint, one, []uint32{0}); err == nil {
		t.Error("Expected error for point type")
	}
	if _, err := NewLines(TypeFlatLinearCurve, one, []uint32{1}); err == nil {
		t.Error("Expected error for out-of-range segment")
	}
	uneven := [][]ControlPoint{one[0], one[0][:1]}
	if _, err := NewLines(TypeFlatLinearCurve, uneven, []uint32{0}); err == nil {
		t.Error("Expected error for mismatched time steps")
	}
}

func TestCurves_ValidateRequiresBuffers(t *testing.T) {
	vertices := [][]ControlPoint{{
		NewControlPoint(0, 0, 0, 0.1),
		NewControlPoint(1, 0, 0, 0.1),
		NewControlPoint(2, 0, 0, 0.1),
		NewControlPoint(3, 0, 0, 0.1),
	}}

	oriented, err := NewCurves(TypeOrientedBezierCurve, vertices, []uint32{0})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := oriented.Validate(); err == nil {
		t.Error("Expected error without normals")
	}
	normals := [][]core.Vec3{{core.NewVec3(0, 0, 1), core.NewVec3(0, 0, 1), core.NewVec3(0, 0, 1), core.NewVec3(0, 0, 1)}}
	if err := oriented.SetNormals(normals); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := oriented.Validate(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	hermite, err := NewCurves(TypeRoundHermiteCurve, vertices, []uint32{2})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := hermite.Validate(); err == nil {
		t.Error("Expected error without tangents")
	}

	scene := NewScene()
	scene.Attach(oriented)
	scene.Attach(hermite)
	if err := scene.Commit(); err == nil {
		t.Error("Expected commit to report the Hermite geometry")
	}
}

func TestCurves_BezierAtInterpolatesBeforeConversion(t *testing.T) {
	step0 := []ControlPoint{
		NewControlPoint(0, 0, 0, 0.1),
		NewControlPoint(1, 0, 0, 0.1),
		NewControlPoint(2, 0, 0, 0.1),
		NewControlPoint(3, 0, 0, 0.1),
	}
	step1 := make([]ControlPoint, len(step0))
	for i, p := range step0 {
		step1[i] = ControlPoint{P: p.P.Add(core.NewVec3(0, 4, 0)), R: 0.3}
	}

	curves, err := NewCurves(TypeRoundBSplineCurve, [][]ControlPoint{step0, step1}, []uint32{0})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	curve, ok := curves.BezierAt(0, 0.5)
	if !ok {
		t.Fatal("Expected curve at time 0.5")
	}
	p := curve.Eval(0.5)
	if !approxEqual(p.P.Y, 2) || !approxEqual(p.R, 0.2) {
		t.Errorf("Expected y=2 r=0.2 at mid time, got %v", p)
	}

	box := curves.Bounds(0)
	if box.Max.Y < 4 {
		t.Errorf("Expected bounds to cover the last time step, got %v", box)
	}
}

func TestBlock_Add(t *testing.T) {
	block := NewBlock(TypeSpherePoint)
	for i := 0; i < BlockSize; i++ {
		if !block.Add(7, uint32(i)) {
			t.Fatalf("Expected slot %d to be free", i)
		}
	}
	if block.Add(7, 99) {
		t.Error("Expected full block to reject primitive")
	}
	if block.Len() != BlockSize {
		t.Errorf("Expected %d primitives, got %d", BlockSize, block.Len())
	}
	if !block.IsValid(BlockSize-1) || block.PrimID[2] != 2 {
		t.Errorf("Unexpected block contents %+v", block)
	}
}
