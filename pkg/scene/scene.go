package scene

import (
	"fmt"
	"sort"
	"strings"

	"github.com/df07/go-curve-kernels/pkg/core"
	"github.com/df07/go-curve-kernels/pkg/geometry"
	"github.com/df07/go-curve-kernels/pkg/renderer"
)

// Scene contains the geometry and view needed for rendering
type Scene struct {
	Geometry     *geometry.Scene
	CameraConfig renderer.CameraConfig
	Width        int
	Height       int
}

// GetPrimitiveCount returns the total number of primitives in the scene
func (s *Scene) GetPrimitiveCount() int {
	return s.Geometry.NumPrimitives()
}

// builtins maps scene names to their constructors
var builtins = map[string]func() (*Scene, error){
	"hair":       NewHairScene,
	"lines":      NewLinesScene,
	"spheregrid": NewSphereGridScene,
	"ribbons":    NewRibbonScene,
	"motion":     NewMotionScene,
}

// BuiltinNames returns the names accepted by NewBuiltinScene, sorted
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewBuiltinScene creates a scene by name
func NewBuiltinScene(name string) (*Scene, error) {
	create, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown scene %q (available: %s)", name, strings.Join(BuiltinNames(), ", "))
	}
	return create()
}

// Load creates a built-in scene by name or loads a .pbrt file
func Load(nameOrPath string) (*Scene, error) {
	if strings.HasSuffix(strings.ToLower(nameOrPath), ".pbrt") {
		return NewPBRTScene(nameOrPath)
	}
	return NewBuiltinScene(nameOrPath)
}

// newScene returns an empty scene with a camera looking from center at lookAt
func newScene(center, lookAt core.Vec3, vfov float64, width, height int) *Scene {
	cam := renderer.DefaultCameraConfig()
	cam.Center = center
	cam.LookAt = lookAt
	cam.VFov = vfov
	cam.Width = width
	cam.AspectRatio = float64(width) / float64(height)

	return &Scene{
		Geometry:     geometry.NewScene(),
		CameraConfig: cam,
		Width:        width,
		Height:       height,
	}
}
