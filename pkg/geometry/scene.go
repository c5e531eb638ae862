package geometry

import (
	"fmt"
	"sort"
)

// Scene is the registry of geometries addressed by geometry ID
type Scene struct {
	geometries []Geometry
}

// NewScene creates an empty scene
func NewScene() *Scene {
	return &Scene{}
}

// Attach adds a geometry and returns its geometry ID
func (s *Scene) Attach(g Geometry) uint32 {
	s.geometries = append(s.geometries, g)
	return uint32(len(s.geometries) - 1)
}

// Get returns the geometry with the given ID, or nil
func (s *Scene) Get(geomID uint32) Geometry {
	if int(geomID) >= len(s.geometries) {
		return nil
	}
	return s.geometries[geomID]
}

// Lines returns the geometry with the given ID as line segments
func (s *Scene) Lines(geomID uint32) *Lines {
	return s.geometries[geomID].(*Lines)
}

// Points returns the geometry with the given ID as points
func (s *Scene) Points(geomID uint32) *Points {
	return s.geometries[geomID].(*Points)
}

// Curves returns the geometry with the given ID as cubic curves
func (s *Scene) Curves(geomID uint32) *Curves {
	return s.geometries[geomID].(*Curves)
}

// Geometries returns every attached geometry in ID order
func (s *Scene) Geometries() []Geometry {
	return s.geometries
}

// NumPrimitives returns the primitive count over all geometries
func (s *Scene) NumPrimitives() int {
	n := 0
	for _, g := range s.geometries {
		n += g.NumPrimitives()
	}
	return n
}

// Types returns the distinct tags present in the scene in ascending order
func (s *Scene) Types() []Type {
	seen := make(map[Type]bool)
	var types []Type
	for _, g := range s.geometries {
		if t := g.Type(); !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Commit validates every geometry. Geometry must not change after a successful commit.
func (s *Scene) Commit() error {
	for id, g := range s.geometries {
		if err := g.Validate(); err != nil {
			return fmt.Errorf("geometry %d: %w", id, err)
		}
	}
	return nil
}
