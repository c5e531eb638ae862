package scene

import (
	"math"

	"github.com/df07/go-curve-kernels/pkg/core"
	"github.com/df07/go-curve-kernels/pkg/geometry"
)

// helix returns n points on a helix around the y axis through center
func helix(center core.Vec3, radius, height float64, n int, radiusAt func(f float64) float64) []geometry.ControlPoint {
	points := make([]geometry.ControlPoint, n)
	for i := range points {
		f := float64(i) / float64(n-1)
		angle := 4 * math.Pi * f
		p := center.Add(core.NewVec3(radius*math.Cos(angle), height*(f-0.5), radius*math.Sin(angle)))
		points[i] = geometry.ControlPoint{P: p, R: radiusAt(f)}
	}
	return points
}

// NewLinesScene creates one helix per linear curve type: flat, round with
// sphere joints and a tapering cone chain
func NewLinesScene() (*Scene, error) {
	s := newScene(core.NewVec3(0, 0.5, 7), core.NewVec3(0, 0, 0), 40, 640, 360)

	types := []geometry.Type{
		geometry.TypeFlatLinearCurve,
		geometry.TypeRoundLinearCurve,
		geometry.TypeConeLinearCurve,
	}
	const n = 48
	segments := make([]uint32, n-1)
	for i := range segments {
		segments[i] = uint32(i)
	}

	for i, t := range types {
		center := core.NewVec3(float64(i-1)*2.2, 0, 0)
		vertices := helix(center, 0.7, 2.5, n, func(f float64) float64 { return 0.06 + 0.06*f })
		lines, err := geometry.NewLines(t, [][]geometry.ControlPoint{vertices}, segments)
		if err != nil {
			return nil, err
		}
		s.Geometry.Attach(lines)
	}
	return s, nil
}
