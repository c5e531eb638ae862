package scene

import (
	"math"

	"github.com/df07/go-curve-kernels/pkg/core"
	"github.com/df07/go-curve-kernels/pkg/geometry"
)

// newGroundDisc creates a disc in the y = 0 plane facing up
func newGroundDisc(radius float64) (*geometry.Points, error) {
	return geometry.NewPoints(geometry.TypeOrientedDiscPoint,
		[][]geometry.ControlPoint{{{P: core.NewVec3(0, 0, 0), R: radius}}},
		[][]core.Vec3{{core.NewVec3(0, 1, 0)}})
}

// NewHairScene creates a patch of wavy round Bezier strands standing on a ground disc
func NewHairScene() (*Scene, error) {
	s := newScene(core.NewVec3(0, 1.6, 5), core.NewVec3(0, 0.8, 0), 40, 640, 480)

	const (
		gridSize        = 12
		segmentsPerHair = 2
		height          = 1.6
		rootWidth       = 0.05
		tipWidth        = 0.01
	)
	spacing := 2.0 / float64(gridSize-1)
	pointsPerHair := 3*segmentsPerHair + 1

	var vertices []geometry.ControlPoint
	var curves []uint32
	for i := 0; i < gridSize; i++ {
		for j := 0; j < gridSize; j++ {
			root := core.NewVec3(float64(i)*spacing-1, 0, float64(j)*spacing-1)
			phase := float64(i*gridSize+j) * 0.7

			first := uint32(len(vertices))
			for k := 0; k < pointsPerHair; k++ {
				f := float64(k) / float64(pointsPerHair-1)
				sway := 0.15 * f * math.Sin(phase+3*f)
				p := root.Add(core.NewVec3(sway, height*f, 0.5*sway))
				vertices = append(vertices, geometry.ControlPoint{P: p, R: 0.5 * ((1-f)*rootWidth + f*tipWidth)})
			}
			for seg := 0; seg < segmentsPerHair; seg++ {
				curves = append(curves, first+uint32(3*seg))
			}
		}
	}

	hair, err := geometry.NewCurves(geometry.TypeRoundBezierCurve, [][]geometry.ControlPoint{vertices}, curves)
	if err != nil {
		return nil, err
	}
	ground, err := newGroundDisc(3)
	if err != nil {
		return nil, err
	}

	s.Geometry.Attach(ground)
	s.Geometry.Attach(hair)
	return s, nil
}
