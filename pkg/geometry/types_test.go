package geometry

import "testing"

func TestCurveType(t *testing.T) {
	tests := []struct {
		basis    Basis
		subtype  Subtype
		expected Type
	}{
		{BasisBezier, SubtypeFlat, TypeFlatBezierCurve},
		{BasisBezier, SubtypeOriented, TypeOrientedBezierCurve},
		{BasisBSpline, SubtypeRound, TypeRoundBSplineCurve},
		{BasisHermite, SubtypeFlat, TypeFlatHermiteCurve},
		{BasisCatmullRom, SubtypeOriented, TypeOrientedCatmullRomCurve},
	}

	for _, tt := range tests {
		t.Run(tt.expected.String(), func(t *testing.T) {
			got, err := CurveType(tt.basis, tt.subtype)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
			if got.Basis() != tt.basis {
				t.Errorf("Expected basis %d, got %d", tt.basis, got.Basis())
			}
			if got.Subtype() != tt.subtype {
				t.Errorf("Expected subtype %d, got %d", tt.subtype, got.Subtype())
			}
		})
	}

	if _, err := CurveType(BasisLinear, SubtypeFlat); err == nil {
		t.Error("Expected error for linear basis")
	}
}

func TestType_Classification(t *testing.T) {
	for _, base := range BaseTypes() {
		kinds := 0
		for _, is := range []bool{base.IsLinear(), base.IsCurve(), base.IsPoint()} {
			if is {
				kinds++
			}
		}
		if kinds != 1 {
			t.Errorf("%s: expected exactly one kind, got %d", base, kinds)
		}

		mb := base | MotionBlur
		if !mb.IsMotionBlur() || base.IsMotionBlur() {
			t.Errorf("%s: motion blur bit not reported correctly", base)
		}
		if mb.Base() != base {
			t.Errorf("%s: expected base %s, got %s", mb, base, mb.Base())
		}
		if int(mb) >= TypeCount {
			t.Errorf("%s: tag %d exceeds table size", mb, mb)
		}
	}
}
