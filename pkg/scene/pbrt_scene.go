package scene

import (
	"fmt"
	"math"

	"github.com/df07/go-curve-kernels/pkg/core"
	"github.com/df07/go-curve-kernels/pkg/geometry"
	"github.com/df07/go-curve-kernels/pkg/loaders"
	"github.com/df07/go-curve-kernels/pkg/renderer"
)

// PBRT defaults
const (
	defaultXResolution = 1280
	defaultYResolution = 720
	defaultFov         = 90.0
)

// NewPBRTScene loads a PBRT file and builds its geometry
func NewPBRTScene(filename string) (*Scene, error) {
	ps, err := loaders.LoadPBRT(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to load PBRT file: %w", err)
	}
	scene, err := FromPBRT(ps)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return scene, nil
}

// FromPBRT converts parsed PBRT statements into geometry and camera settings
func FromPBRT(ps *loaders.PBRTScene) (*Scene, error) {
	width, height := defaultXResolution, defaultYResolution
	if ps.Film != nil {
		if x, ok := ps.Film.GetIntParam("xresolution"); ok {
			width = x
		}
		if y, ok := ps.Film.GetIntParam("yresolution"); ok {
			height = y
		}
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid film resolution %dx%d", width, height)
	}

	scene := &Scene{
		Geometry:     geometry.NewScene(),
		CameraConfig: cameraConfig(ps, width, height),
		Width:        width,
		Height:       height,
	}

	for i := range ps.Shapes {
		g, err := buildShape(&ps.Shapes[i])
		if err != nil {
			return nil, fmt.Errorf("shape %d (%s): %w", i, ps.Shapes[i].Subtype, err)
		}
		scene.Geometry.Attach(g)
	}
	return scene, nil
}

// cameraConfig converts LookAt and the perspective fov, which PBRT applies to
// the shorter image axis, into a vertical-fov camera
func cameraConfig(ps *loaders.PBRTScene, width, height int) renderer.CameraConfig {
	config := renderer.DefaultCameraConfig()
	config.Width = width
	config.AspectRatio = float64(width) / float64(height)
	if ps.LookAt != nil {
		config.Center, config.LookAt, config.Up = *ps.LookAt, *ps.LookAtTo, *ps.LookAtUp
	}

	fov := defaultFov
	if ps.Camera != nil {
		if f, ok := ps.Camera.GetFloatParam("fov"); ok {
			fov = f
		}
	}
	if width < height {
		halfTan := math.Tan(fov*math.Pi/360) / config.AspectRatio
		fov = 2 * math.Atan(halfTan) * 180 / math.Pi
	}
	config.VFov = fov
	return config
}

// buildShape creates the geometry for one Shape statement
func buildShape(stmt *loaders.PBRTStatement) (geometry.Geometry, error) {
	switch stmt.Subtype {
	case "curve":
		return buildCurve(stmt)
	case "linesegments":
		return buildLineSegments(stmt)
	case "sphere":
		return buildPoint(stmt, geometry.TypeSpherePoint)
	case "disk":
		return buildPoint(stmt, geometry.TypeOrientedDiscPoint)
	case "points":
		return buildPoints(stmt)
	}
	return nil, fmt.Errorf("%w: %q", loaders.ErrUnsupportedShape, stmt.Subtype)
}

// positions returns a point list translated by the shape's graphics state
func positions(stmt *loaders.PBRTStatement, name string) ([]core.Vec3, error) {
	points, err := stmt.GetPoint3sParam(name)
	if err != nil {
		return nil, err
	}
	for i := range points {
		points[i] = points[i].Add(stmt.Translation)
	}
	return points, nil
}

// widths returns the start and end width of a curve or polyline
func widths(stmt *loaders.PBRTStatement) (float64, float64) {
	w0, w1 := 1.0, 1.0
	if w, ok := stmt.GetFloatParam("width"); ok {
		w0, w1 = w, w
	}
	if w, ok := stmt.GetFloatParam("width0"); ok {
		w0 = w
	}
	if w, ok := stmt.GetFloatParam("width1"); ok {
		w1 = w
	}
	return w0, w1
}

// controlPoints pairs points with radii interpolated linearly along the list
func controlPoints(points []core.Vec3, w0, w1 float64) []geometry.ControlPoint {
	cps := make([]geometry.ControlPoint, len(points))
	for i, p := range points {
		f := 0.0
		if len(points) > 1 {
			f = float64(i) / float64(len(points)-1)
		}
		cps[i] = geometry.ControlPoint{P: p, R: 0.5 * ((1-f)*w0 + f*w1)}
	}
	return cps
}

// timeSteps returns the control points for the static shape, or for the
// start and end of the shutter when Pend is given
func timeSteps(stmt *loaders.PBRTStatement, points []core.Vec3, w0, w1 float64) ([][]geometry.ControlPoint, error) {
	steps := [][]geometry.ControlPoint{controlPoints(points, w0, w1)}
	if _, ok := stmt.Parameters["Pend"]; !ok {
		return steps, nil
	}

	end, err := positions(stmt, "Pend")
	if err != nil {
		return nil, err
	}
	if len(end) != len(points) {
		return nil, fmt.Errorf("Pend has %d points, P has %d", len(end), len(points))
	}
	return append(steps, controlPoints(end, w0, w1)), nil
}

var curveBases = map[string]geometry.Basis{
	"bezier":     geometry.BasisBezier,
	"bspline":    geometry.BasisBSpline,
	"catmullrom": geometry.BasisCatmullRom,
	"hermite":    geometry.BasisHermite,
}

var curveSubtypes = map[string]geometry.Subtype{
	"flat":     geometry.SubtypeFlat,
	"cylinder": geometry.SubtypeRound,
	"ribbon":   geometry.SubtypeOriented,
}

// buildCurve creates cubic curves. Bezier control points are shared between
// consecutive segments (3n+1 points), B-spline and Catmull-Rom segments use a
// sliding window of 4 and Hermite segments take a point and tangent per vertex.
func buildCurve(stmt *loaders.PBRTStatement) (geometry.Geometry, error) {
	basisName, _ := stmt.GetStringParam("basis")
	if basisName == "" {
		basisName = "bezier"
	}
	basis, ok := curveBases[basisName]
	if !ok {
		return nil, fmt.Errorf("%w: curve basis %q", loaders.ErrUnsupportedShape, basisName)
	}
	typeName, _ := stmt.GetStringParam("type")
	if typeName == "" {
		typeName = "flat"
	}
	subtype, ok := curveSubtypes[typeName]
	if !ok {
		return nil, fmt.Errorf("%w: curve type %q", loaders.ErrUnsupportedShape, typeName)
	}
	t, err := geometry.CurveType(basis, subtype)
	if err != nil {
		return nil, err
	}

	points, err := positions(stmt, "P")
	if err != nil {
		return nil, err
	}
	indices, err := curveIndices(basis, len(points))
	if err != nil {
		return nil, err
	}
	w0, w1 := widths(stmt)
	steps, err := timeSteps(stmt, points, w0, w1)
	if err != nil {
		return nil, err
	}

	curves, err := geometry.NewCurves(t, steps, indices)
	if err != nil {
		return nil, err
	}

	if basis == geometry.BasisHermite {
		tangents, err := stmt.GetPoint3sParam("tangent")
		if err != nil {
			return nil, err
		}
		if len(tangents) != len(points) {
			return nil, fmt.Errorf("hermite curve needs %d tangents, got %d", len(points), len(tangents))
		}
		cps := make([]geometry.ControlPoint, len(tangents))
		for i, d := range tangents {
			cps[i] = geometry.ControlPoint{P: d}
		}
		if err := curves.SetTangents(repeat(cps, len(steps))); err != nil {
			return nil, err
		}
	}

	if subtype == geometry.SubtypeOriented {
		normals, err := curveNormals(stmt, len(points))
		if err != nil {
			return nil, err
		}
		if err := curves.SetNormals(repeat(normals, len(steps))); err != nil {
			return nil, err
		}
		if basis == geometry.BasisHermite {
			if err := curves.SetNormalDerivatives(repeat(make([]core.Vec3, len(points)), len(steps))); err != nil {
				return nil, err
			}
		}
	}

	return curves, curves.Validate()
}

// curveIndices returns the first control point of every segment
func curveIndices(basis geometry.Basis, n int) ([]uint32, error) {
	var indices []uint32
	switch basis {
	case geometry.BasisBezier:
		if n < 4 || (n-1)%3 != 0 {
			return nil, fmt.Errorf("bezier curve needs 3n+1 control points, got %d", n)
		}
		for i := 0; i+3 < n; i += 3 {
			indices = append(indices, uint32(i))
		}
	case geometry.BasisHermite:
		if n < 2 {
			return nil, fmt.Errorf("hermite curve needs at least 2 control points, got %d", n)
		}
		for i := 0; i+1 < n; i++ {
			indices = append(indices, uint32(i))
		}
	default:
		if n < 4 {
			return nil, fmt.Errorf("curve needs at least 4 control points, got %d", n)
		}
		for i := 0; i+3 < n; i++ {
			indices = append(indices, uint32(i))
		}
	}
	return indices, nil
}

// curveNormals returns per-vertex ribbon normals. PBRT gives one normal at
// each end of the curve; they are blended along the control points.
func curveNormals(stmt *loaders.PBRTStatement, n int) ([]core.Vec3, error) {
	given, err := stmt.GetPoint3sParam("N")
	if err != nil {
		return nil, err
	}
	switch len(given) {
	case n:
		return given, nil
	case 2:
		normals := make([]core.Vec3, n)
		for i := range normals {
			normals[i] = given[0].Lerp(given[1], float64(i)/float64(max(n-1, 1))).Normalize()
		}
		return normals, nil
	}
	return nil, fmt.Errorf("ribbon curve needs 2 or %d normals, got %d", n, len(given))
}

func repeat[T any](s []T, n int) [][]T {
	out := make([][]T, n)
	for i := range out {
		out[i] = s
	}
	return out
}

var lineTypes = map[string]geometry.Type{
	"flat":     geometry.TypeFlatLinearCurve,
	"cylinder": geometry.TypeRoundLinearCurve,
	"cone":     geometry.TypeConeLinearCurve,
}

// buildLineSegments creates a polyline through P
func buildLineSegments(stmt *loaders.PBRTStatement) (geometry.Geometry, error) {
	typeName, _ := stmt.GetStringParam("type")
	if typeName == "" {
		typeName = "cylinder"
	}
	t, ok := lineTypes[typeName]
	if !ok {
		return nil, fmt.Errorf("%w: line type %q", loaders.ErrUnsupportedShape, typeName)
	}

	points, err := positions(stmt, "P")
	if err != nil {
		return nil, err
	}
	if len(points) < 2 {
		return nil, fmt.Errorf("linesegments needs at least 2 points, got %d", len(points))
	}
	w0, w1 := widths(stmt)
	steps, err := timeSteps(stmt, points, w0, w1)
	if err != nil {
		return nil, err
	}

	segments := make([]uint32, len(points)-1)
	for i := range segments {
		segments[i] = uint32(i)
	}
	return geometry.NewLines(t, steps, segments)
}

// buildPoint creates a single sphere or disk at the shape's translation
func buildPoint(stmt *loaders.PBRTStatement, t geometry.Type) (geometry.Geometry, error) {
	radius := 1.0
	if r, ok := stmt.GetFloatParam("radius"); ok {
		radius = r
	}
	if radius <= 0 {
		return nil, fmt.Errorf("radius must be positive, got %f", radius)
	}

	center := stmt.Translation
	var normals [][]core.Vec3
	if t == geometry.TypeOrientedDiscPoint {
		// PBRT disks lie in the z = height plane facing +z
		if h, ok := stmt.GetFloatParam("height"); ok {
			center = center.Add(core.NewVec3(0, 0, h))
		}
		n := core.NewVec3(0, 0, 1)
		if given, ok := stmt.GetPoint3Param("N"); ok {
			n = given.Normalize()
		}
		normals = [][]core.Vec3{{n}}
	}
	return geometry.NewPoints(t, [][]geometry.ControlPoint{{{P: center, R: radius}}}, normals)
}

var pointTypes = map[string]geometry.Type{
	"sphere": geometry.TypeSpherePoint,
	"disc":   geometry.TypeDiscPoint,
}

// buildPoints creates a cloud of ray-facing discs or spheres of one radius
func buildPoints(stmt *loaders.PBRTStatement) (geometry.Geometry, error) {
	typeName, _ := stmt.GetStringParam("type")
	if typeName == "" {
		typeName = "sphere"
	}
	t, ok := pointTypes[typeName]
	if !ok {
		return nil, fmt.Errorf("%w: point type %q", loaders.ErrUnsupportedShape, typeName)
	}

	points, err := positions(stmt, "P")
	if err != nil {
		return nil, err
	}
	w0, _ := widths(stmt)
	steps, err := timeSteps(stmt, points, w0, w0)
	if err != nil {
		return nil, err
	}
	return geometry.NewPoints(t, steps, nil)
}
