package scene

import (
	"github.com/df07/go-curve-kernels/pkg/core"
	"github.com/df07/go-curve-kernels/pkg/geometry"
)

// NewMotionScene creates moving primitives with two time steps each: a sphere
// sliding sideways, a rising cylinder chain and a flat Bezier curve that bends
// over the shutter interval
func NewMotionScene() (*Scene, error) {
	s := newScene(core.NewVec3(0, 0, 6), core.NewVec3(0, 0, 0), 45, 480, 360)

	sphere, err := geometry.NewPoints(geometry.TypeSpherePoint, [][]geometry.ControlPoint{
		{{P: core.NewVec3(-1.5, 0.8, 0), R: 0.5}},
		{{P: core.NewVec3(-0.5, 0.8, 0), R: 0.5}},
	}, nil)
	if err != nil {
		return nil, err
	}

	chain := func(dy float64) []geometry.ControlPoint {
		return []geometry.ControlPoint{
			geometry.NewControlPoint(0.5, -1.2+dy, 0, 0.1),
			geometry.NewControlPoint(1.2, -0.6+dy, 0, 0.15),
			geometry.NewControlPoint(1.9, -1.2+dy, 0, 0.1),
		}
	}
	lines, err := geometry.NewLines(geometry.TypeRoundLinearCurve,
		[][]geometry.ControlPoint{chain(0), chain(0.8)}, []uint32{0, 1})
	if err != nil {
		return nil, err
	}

	bend := func(h float64) []geometry.ControlPoint {
		return []geometry.ControlPoint{
			geometry.NewControlPoint(-2, -1.5, 0, 0.08),
			geometry.NewControlPoint(-1.5, -1.5+h, 0, 0.08),
			geometry.NewControlPoint(-0.5, -1.5+h, 0, 0.08),
			geometry.NewControlPoint(0, -1.5, 0, 0.08),
		}
	}
	curve, err := geometry.NewCurves(geometry.TypeFlatBezierCurve,
		[][]geometry.ControlPoint{bend(0), bend(1.2)}, []uint32{0})
	if err != nil {
		return nil, err
	}

	s.Geometry.Attach(sphere)
	s.Geometry.Attach(lines)
	s.Geometry.Attach(curve)
	return s, nil
}
