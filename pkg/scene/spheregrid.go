package scene

import (
	"github.com/df07/go-curve-kernels/pkg/core"
	"github.com/df07/go-curve-kernels/pkg/geometry"
)

// NewSphereGridScene creates a grid of point primitives above a ground disc.
// Rows alternate between spheres, ray-facing discs and oriented discs.
func NewSphereGridScene() (*Scene, error) {
	s := newScene(core.NewVec3(4.5, 6, 18), core.NewVec3(4.5, 0.8, 4.5), 40, 800, 450)

	const gridSize = 20
	targetArea := 9.0
	spacing := targetArea / float64(gridSize-1)
	radius := spacing * 0.35

	var spheres, discs, oriented []geometry.ControlPoint
	var normals []core.Vec3
	for i := 0; i < gridSize; i++ {
		for j := 0; j < gridSize; j++ {
			p := geometry.ControlPoint{P: core.NewVec3(float64(i)*spacing, radius, float64(j)*spacing), R: radius}
			switch j % 3 {
			case 0:
				spheres = append(spheres, p)
			case 1:
				discs = append(discs, p)
			default:
				oriented = append(oriented, p)
				normals = append(normals, core.NewVec3(float64(i-gridSize/2), float64(gridSize), 0).Normalize())
			}
		}
	}

	geoms := []struct {
		t        geometry.Type
		vertices []geometry.ControlPoint
		normals  [][]core.Vec3
	}{
		{geometry.TypeSpherePoint, spheres, nil},
		{geometry.TypeDiscPoint, discs, nil},
		{geometry.TypeOrientedDiscPoint, oriented, [][]core.Vec3{normals}},
	}
	for _, g := range geoms {
		points, err := geometry.NewPoints(g.t, [][]geometry.ControlPoint{g.vertices}, g.normals)
		if err != nil {
			return nil, err
		}
		s.Geometry.Attach(points)
	}

	ground, err := geometry.NewPoints(geometry.TypeOrientedDiscPoint,
		[][]geometry.ControlPoint{{{P: core.NewVec3(4.5, 0, 4.5), R: 12}}},
		[][]core.Vec3{{core.NewVec3(0, 1, 0)}})
	if err != nil {
		return nil, err
	}
	s.Geometry.Attach(ground)
	return s, nil
}
