package scene

import (
	"math"

	"github.com/df07/go-curve-kernels/pkg/core"
	"github.com/df07/go-curve-kernels/pkg/geometry"
)

// NewRibbonScene creates a twisting oriented ribbon in every cubic basis,
// stacked vertically
func NewRibbonScene() (*Scene, error) {
	s := newScene(core.NewVec3(0, 0, 8), core.NewVec3(0, 0, 0), 45, 640, 640)

	bases := []geometry.Basis{
		geometry.BasisBezier,
		geometry.BasisBSpline,
		geometry.BasisCatmullRom,
		geometry.BasisHermite,
	}
	const n = 13 // 3*4+1 so the Bezier chain has four segments

	for row, basis := range bases {
		t, err := geometry.CurveType(basis, geometry.SubtypeOriented)
		if err != nil {
			return nil, err
		}

		y := 2.4 - 1.6*float64(row)
		vertices := make([]geometry.ControlPoint, n)
		normals := make([]core.Vec3, n)
		tangents := make([]geometry.ControlPoint, n)
		for i := 0; i < n; i++ {
			f := float64(i) / float64(n-1)
			x := 5 * (f - 0.5)
			vertices[i] = geometry.ControlPoint{P: core.NewVec3(x, y+0.3*math.Sin(2*math.Pi*f), 0), R: 0.3}
			twist := math.Pi * f
			normals[i] = core.NewVec3(0, math.Sin(twist), math.Cos(twist))
			tangents[i] = geometry.ControlPoint{P: core.NewVec3(5.0/float64(n-1), 0.6*math.Pi/float64(n-1)*math.Cos(2*math.Pi*f), 0)}
		}

		var curves []uint32
		switch basis {
		case geometry.BasisBezier:
			for i := 0; i+3 < n; i += 3 {
				curves = append(curves, uint32(i))
			}
		case geometry.BasisHermite:
			for i := 0; i+1 < n; i++ {
				curves = append(curves, uint32(i))
			}
		default:
			for i := 0; i+3 < n; i++ {
				curves = append(curves, uint32(i))
			}
		}

		ribbon, err := geometry.NewCurves(t, [][]geometry.ControlPoint{vertices}, curves)
		if err != nil {
			return nil, err
		}
		if err := ribbon.SetNormals([][]core.Vec3{normals}); err != nil {
			return nil, err
		}
		if basis == geometry.BasisHermite {
			derivatives := make([]core.Vec3, n)
			for i := range derivatives {
				twist := math.Pi * float64(i) / float64(n-1)
				derivatives[i] = core.NewVec3(0, math.Cos(twist), -math.Sin(twist)).Multiply(math.Pi / float64(n-1))
			}
			if err := ribbon.SetTangents([][]geometry.ControlPoint{tangents}); err != nil {
				return nil, err
			}
			if err := ribbon.SetNormalDerivatives([][]core.Vec3{derivatives}); err != nil {
				return nil, err
			}
		}
		if err := ribbon.Validate(); err != nil {
			return nil, err
		}
		s.Geometry.Attach(ribbon)
	}
	return s, nil
}
