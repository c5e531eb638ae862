package core

import (
	"math"
	"testing"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestVec3_Lerp(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Vec3
		f        float64
		expected Vec3
	}{
		{"start", NewVec3(0, 0, 0), NewVec3(2, 4, 6), 0, NewVec3(0, 0, 0)},
		{"end", NewVec3(0, 0, 0), NewVec3(2, 4, 6), 1, NewVec3(2, 4, 6)},
		{"middle", NewVec3(-1, 0, 1), NewVec3(1, 2, 3), 0.5, NewVec3(0, 1, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.a.Lerp(tt.b, tt.f)
			if !approxEqual(result.X, tt.expected.X) || !approxEqual(result.Y, tt.expected.Y) || !approxEqual(result.Z, tt.expected.Z) {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestVec3_CrossAndNormalize(t *testing.T) {
	x := NewVec3(1, 0, 0)
	y := NewVec3(0, 1, 0)
	z := x.Cross(y)
	if z != NewVec3(0, 0, 1) {
		t.Errorf("Expected +Z, got %v", z)
	}

	n := NewVec3(3, 0, 4).Normalize()
	if !approxEqual(n.Length(), 1) {
		t.Errorf("Expected unit length, got %f", n.Length())
	}

	if zero := (Vec3{}).Normalize(); zero != (Vec3{}) {
		t.Errorf("Expected zero vector to stay zero, got %v", zero)
	}
}

func TestVec3_IsFinite(t *testing.T) {
	if !NewVec3(1, 2, 3).IsFinite() {
		t.Error("Expected finite vector")
	}
	if NewVec3(math.NaN(), 0, 0).IsFinite() {
		t.Error("Expected NaN component to be reported")
	}
	if NewVec3(0, math.Inf(-1), 0).IsFinite() {
		t.Error("Expected infinite component to be reported")
	}
}

func TestVec3_MglRoundTrip(t *testing.T) {
	v := NewVec3(1.5, -2, 7)
	if back := FromMgl(v.Mgl()); back != v {
		t.Errorf("Expected %v, got %v", v, back)
	}
}
