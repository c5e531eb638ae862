package geometry

import "fmt"

// Type tags a primitive representation. The low bits select the base
// representation and MotionBlur marks time-interpolated geometry.
type Type uint8

// MotionBlur is or-ed into a base type for geometry with several time steps
const MotionBlur Type = 1 << 5

// TypeCount bounds every tag, motion blur included
const TypeCount = 64

const (
	TypeFlatLinearCurve Type = iota
	TypeRoundLinearCurve
	TypeConeLinearCurve

	TypeFlatBezierCurve
	TypeRoundBezierCurve
	TypeOrientedBezierCurve

	TypeFlatBSplineCurve
	TypeRoundBSplineCurve
	TypeOrientedBSplineCurve

	TypeFlatHermiteCurve
	TypeRoundHermiteCurve
	TypeOrientedHermiteCurve

	TypeFlatCatmullRomCurve
	TypeRoundCatmullRomCurve
	TypeOrientedCatmullRomCurve

	TypeSpherePoint
	TypeDiscPoint
	TypeOrientedDiscPoint

	numBaseTypes
)

// Basis is the polynomial basis of a curve's control points
type Basis uint8

const (
	BasisLinear Basis = iota
	BasisBezier
	BasisBSpline
	BasisHermite
	BasisCatmullRom
)

// Subtype is the surface swept by a curve
type Subtype uint8

const (
	SubtypeFlat     Subtype = iota // Ray-facing ribbon
	SubtypeRound                   // Swept circle
	SubtypeOriented                // Ribbon oriented by per-vertex normals
)

var typeNames = [numBaseTypes]string{
	"flat-linear", "round-linear", "cone-linear",
	"flat-bezier", "round-bezier", "oriented-bezier",
	"flat-bspline", "round-bspline", "oriented-bspline",
	"flat-hermite", "round-hermite", "oriented-hermite",
	"flat-catmullrom", "round-catmullrom", "oriented-catmullrom",
	"sphere", "disc", "oriented-disc",
}

// BaseTypes returns every base representation without the motion blur bit
func BaseTypes() []Type {
	types := make([]Type, numBaseTypes)
	for i := range types {
		types[i] = Type(i)
	}
	return types
}

// CurveType returns the tag for a cubic curve basis and subtype
func CurveType(basis Basis, subtype Subtype) (Type, error) {
	var first Type
	switch basis {
	case BasisBezier:
		first = TypeFlatBezierCurve
	case BasisBSpline:
		first = TypeFlatBSplineCurve
	case BasisHermite:
		first = TypeFlatHermiteCurve
	case BasisCatmullRom:
		first = TypeFlatCatmullRomCurve
	default:
		return 0, fmt.Errorf("basis %d is not a cubic curve basis", basis)
	}
	if subtype > SubtypeOriented {
		return 0, fmt.Errorf("unknown curve subtype %d", subtype)
	}
	return first + Type(subtype), nil
}

// Base strips the motion blur bit
func (t Type) Base() Type {
	return t &^ MotionBlur
}

// IsMotionBlur reports whether the tag carries the motion blur bit
func (t Type) IsMotionBlur() bool {
	return t&MotionBlur != 0
}

// IsLinear reports whether the tag is a linear segment representation
func (t Type) IsLinear() bool {
	return t.Base() <= TypeConeLinearCurve
}

// IsPoint reports whether the tag is a point representation
func (t Type) IsPoint() bool {
	b := t.Base()
	return b >= TypeSpherePoint && b < numBaseTypes
}

// IsCurve reports whether the tag is a cubic curve representation
func (t Type) IsCurve() bool {
	b := t.Base()
	return b >= TypeFlatBezierCurve && b <= TypeOrientedCatmullRomCurve
}

// Basis returns the curve basis of the tag
func (t Type) Basis() Basis {
	if !t.IsCurve() {
		return BasisLinear
	}
	return Basis(1 + (t.Base()-TypeFlatBezierCurve)/3)
}

// Subtype returns the surface kind of a curve tag
func (t Type) Subtype() Subtype {
	switch b := t.Base(); {
	case b == TypeFlatLinearCurve:
		return SubtypeFlat
	case b == TypeRoundLinearCurve, b == TypeConeLinearCurve:
		return SubtypeRound
	case t.IsCurve():
		return Subtype((b - TypeFlatBezierCurve) % 3)
	default:
		return SubtypeRound
	}
}

func (t Type) String() string {
	b := t.Base()
	if b >= numBaseTypes {
		return fmt.Sprintf("type(%d)", uint8(t))
	}
	if t.IsMotionBlur() {
		return typeNames[b] + "-mb"
	}
	return typeNames[b]
}
