package bvh

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-curve-kernels/pkg/core"
	"github.com/df07/go-curve-kernels/pkg/geometry"
	"github.com/df07/go-curve-kernels/pkg/intersect"
	"github.com/google/go-cmp/cmp"
)

func newIntersector() *intersect.VirtualIntersector {
	return intersect.NewVirtualIntersector(intersect.Config{Widths: intersect.AllWidths, CurveSegments: 8}, core.NopLogger{})
}

// sphereRow creates n unit-spaced spheres along x
func sphereRow(t *testing.T, n int) *geometry.Scene {
	t.Helper()
	vertices := make([]geometry.ControlPoint, n)
	for i := range vertices {
		vertices[i] = geometry.NewControlPoint(float64(i)+0.5, 0.5, 0.5, 0.4)
	}
	points, err := geometry.NewPoints(geometry.TypeSpherePoint, [][]geometry.ControlPoint{vertices}, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	scene := geometry.NewScene()
	scene.Attach(points)
	return scene
}

// mixedScene scatters spheres, capsules and bezier curves in a box
func mixedScene(t *testing.T, seed int64) *geometry.Scene {
	t.Helper()
	random := rand.New(rand.NewSource(seed))
	point := func() core.Vec3 {
		return core.NewVec3(random.Float64()*10-5, random.Float64()*10-5, random.Float64()*10-5)
	}

	scene := geometry.NewScene()

	var spheres []geometry.ControlPoint
	for i := 0; i < 30; i++ {
		spheres = append(spheres, geometry.ControlPoint{P: point(), R: 0.2 + random.Float64()*0.5})
	}
	points, err := geometry.NewPoints(geometry.TypeSpherePoint, [][]geometry.ControlPoint{spheres}, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	scene.Attach(points)

	var lineVertices []geometry.ControlPoint
	var segments []uint32
	for i := 0; i < 20; i++ {
		p := point()
		lineVertices = append(lineVertices,
			geometry.ControlPoint{P: p, R: 0.1},
			geometry.ControlPoint{P: p.Add(core.NewVec3(random.Float64(), random.Float64(), random.Float64())), R: 0.15})
		segments = append(segments, uint32(2*i))
	}
	lines, err := geometry.NewLines(geometry.TypeRoundLinearCurve, [][]geometry.ControlPoint{lineVertices}, segments)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	scene.Attach(lines)

	var curveVertices []geometry.ControlPoint
	var curveIndices []uint32
	for i := 0; i < 10; i++ {
		p := point()
		for j := 0; j < 4; j++ {
			curveVertices = append(curveVertices, geometry.ControlPoint{P: p.Add(core.NewVec3(float64(j)*0.5, random.Float64(), 0)), R: 0.1})
		}
		curveIndices = append(curveIndices, uint32(4*i))
	}
	curves, err := geometry.NewCurves(geometry.TypeRoundBezierCurve, [][]geometry.ControlPoint{curveVertices}, curveIndices)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	scene.Attach(curves)
	return scene
}

// bruteForce intersects ray against every primitive one block at a time
func bruteForce(scene *geometry.Scene, vi *intersect.VirtualIntersector, ray core.Ray) core.RayHit {
	rh := core.NewRayHit(ray)
	pre := intersect.NewPrecalculations(&rh.Ray)
	ctx := intersect.NewContext(scene)
	for id, g := range scene.Geometries() {
		for prim := 0; prim < g.NumPrimitives(); prim++ {
			block := geometry.NewBlock(g.Type())
			block.Add(uint32(id), uint32(prim))
			vi.Intersect1(&pre, &rh, ctx, &block)
		}
	}
	return rh
}

func randomRays(seed int64, n int) []core.Ray {
	random := rand.New(rand.NewSource(seed))
	rays := make([]core.Ray, n)
	for i := range rays {
		origin := core.NewVec3(random.Float64()*20-10, random.Float64()*20-10, 12)
		target := core.NewVec3(random.Float64()*10-5, random.Float64()*10-5, random.Float64()*10-5)
		rays[i] = core.NewRay(origin, target.Subtract(origin))
	}
	return rays
}

func TestBVH_LeafThresholdBoundary(t *testing.T) {
	vi := newIntersector()

	// Exactly leafThreshold primitives form a single leaf of two blocks
	b, err := Build(sphereRow(t, 8), vi, core.NopLogger{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	stats := b.getStats()
	if stats.totalNodes != 1 || stats.leafNodes != 1 {
		t.Errorf("Expected a single leaf for 8 primitives, got %d nodes and %d leaves", stats.totalNodes, stats.leafNodes)
	}
	if stats.totalBlocks != 2 {
		t.Errorf("Expected 2 blocks, got %d", stats.totalBlocks)
	}

	b, err = Build(sphereRow(t, 9), vi, core.NopLogger{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	stats = b.getStats()
	if stats.totalNodes == 1 {
		t.Errorf("Expected split for 9 primitives, but got single node")
	}
	if stats.leafNodes < 2 {
		t.Errorf("Expected at least 2 leaf nodes after split, got %d", stats.leafNodes)
	}
}

func TestBVH_Empty(t *testing.T) {
	b, err := Build(geometry.NewScene(), newIntersector(), core.NopLogger{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if b.Root != nil {
		t.Error("Expected nil root for empty BVH")
	}

	ctx := intersect.NewContext(geometry.NewScene())
	rh := core.NewRayHit(core.NewRay(core.Vec3{}, core.NewVec3(1, 0, 0)))
	if b.Intersect(ctx, &rh) {
		t.Error("Expected no hit for empty BVH")
	}
	ray := core.NewRay(core.Vec3{}, core.NewVec3(1, 0, 0))
	if b.Occluded(ctx, &ray) {
		t.Error("Expected no occlusion for empty BVH")
	}
}

func TestBVH_StatsCollection(t *testing.T) {
	b, err := Build(sphereRow(t, 20), newIntersector(), core.NopLogger{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	stats := b.getStats()

	if stats.totalPrims != 20 || b.NumPrimitives() != 20 {
		t.Errorf("Expected 20 total primitives, got %d", stats.totalPrims)
	}
	if stats.leafNodes == 0 {
		t.Error("Expected at least one leaf node")
	}
	if stats.totalNodes < stats.leafNodes {
		t.Error("Total nodes should be >= leaf nodes")
	}
	if stats.avgDepth > float64(stats.maxDepth) {
		t.Errorf("Average depth %f exceeds max depth %d", stats.avgDepth, stats.maxDepth)
	}
}

func TestBVH_BlocksGroupByType(t *testing.T) {
	blocks := makeBlocks([]primRef{
		{typ: geometry.TypeSpherePoint, geomID: 0, primID: 0},
		{typ: geometry.TypeRoundLinearCurve, geomID: 1, primID: 0},
		{typ: geometry.TypeSpherePoint, geomID: 0, primID: 1},
		{typ: geometry.TypeSpherePoint, geomID: 0, primID: 2},
		{typ: geometry.TypeSpherePoint, geomID: 0, primID: 3},
		{typ: geometry.TypeSpherePoint, geomID: 0, primID: 4},
	})

	got := make([][2]int, len(blocks))
	for i := range blocks {
		got[i] = [2]int{int(blocks[i].Type), blocks[i].Len()}
	}
	expected := [][2]int{
		{int(geometry.TypeSpherePoint), 4},
		{int(geometry.TypeRoundLinearCurve), 1},
		{int(geometry.TypeSpherePoint), 1},
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("blocks mismatch (-want +got):\n%s", diff)
	}
}

func TestBVH_MatchesBruteForce(t *testing.T) {
	scene := mixedScene(t, 42)
	vi := newIntersector()
	b, err := Build(scene, vi, core.NopLogger{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	hits := 0
	for i, ray := range randomRays(7, 200) {
		expected := bruteForce(scene, vi, ray)
		rh := core.NewRayHit(ray)
		b.Intersect(intersect.NewContext(scene), &rh)

		if expected.Hit.Valid() != rh.Hit.Valid() {
			t.Errorf("ray %d: expected hit=%v, got %v", i, expected.Hit.Valid(), rh.Hit.Valid())
			continue
		}
		if !expected.Hit.Valid() {
			continue
		}
		hits++
		if math.Abs(expected.Ray.TFar-rh.Ray.TFar) > 1e-9 {
			t.Errorf("ray %d: expected t=%f, got %f", i, expected.Ray.TFar, rh.Ray.TFar)
		}

		occ := ray
		if !b.Occluded(intersect.NewContext(scene), &occ) || !occ.Occluded() {
			t.Errorf("ray %d: expected occlusion for a ray with a hit", i)
		}
	}
	if hits == 0 {
		t.Fatalf("Expected some rays to hit the scene")
	}
}

func checkPackets[W core.Width](t *testing.T, b *BVH, scene *geometry.Scene, rays []core.Ray) {
	t.Helper()
	n := core.LanesOf[W]()
	for start := 0; start+n <= len(rays); start += n {
		batch := rays[start : start+n]
		rh, valid := core.NewRayHitK[W](batch)
		IntersectPacket(b, intersect.NewContext(scene), rh, valid)

		shadow, _ := core.NewRayHitK[W](batch)
		occluded := OccludedPacket(b, intersect.NewContext(scene), &shadow.Ray, valid)

		for k, ray := range batch {
			single := core.NewRayHit(ray)
			b.Intersect(intersect.NewContext(scene), &single)
			lane := rh.Hit.Lane(k)
			if lane.Valid() != single.Hit.Valid() || lane.PrimID != single.Hit.PrimID || rh.Ray.TFar[k] != single.Ray.TFar {
				t.Errorf("width %d lane %d: packet (%d, %f) differs from single (%d, %f)", n, k, lane.PrimID, rh.Ray.TFar[k], single.Hit.PrimID, single.Ray.TFar)
			}
			if occluded.Has(k) != single.Hit.Valid() {
				t.Errorf("width %d lane %d: expected occluded=%v", n, k, single.Hit.Valid())
			}
		}
	}
}

func TestBVH_PacketsMatchSingleRays(t *testing.T) {
	scene := mixedScene(t, 3)
	b, err := Build(scene, newIntersector(), core.NopLogger{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	rays := randomRays(11, 64)
	checkPackets[core.W4](t, b, scene, rays)
	checkPackets[core.W8](t, b, scene, rays)
	checkPackets[core.W16](t, b, scene, rays)
}

func TestBVH_AcceptFirstHit(t *testing.T) {
	scene := sphereRow(t, 20)
	b, err := Build(scene, newIntersector(), core.NopLogger{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	commits := 0
	ctx := intersect.NewContext(scene)
	ctx.Filter = func(*core.FilterArgs) bool { commits++; return true }

	// Looking down the row from the far end sees every sphere
	rh := core.NewRayHit(core.NewRay(core.NewVec3(30, 0.5, 0.5), core.NewVec3(-1, 0, 0)))
	rh.Ray.Flags = core.RayFlagAcceptFirstHit
	if !b.Intersect(ctx, &rh) {
		t.Fatalf("Expected a hit")
	}
	if commits != 1 {
		t.Errorf("Expected traversal to stop after the first commit, got %d", commits)
	}
}

func TestBVH_AcceptFirstHit_IgnoresHeldHit(t *testing.T) {
	scene := sphereRow(t, 20)
	far, err := geometry.NewPoints(geometry.TypeSpherePoint, [][]geometry.ControlPoint{{
		geometry.NewControlPoint(-5, 0.88, 0.88, 1),
	}}, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	scene.Attach(far)

	b, err := Build(scene, newIntersector(), core.NopLogger{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	commits := 0
	ctx := intersect.NewContext(scene)
	ctx.Filter = func(*core.FilterArgs) bool { commits++; return true }

	// The ray crosses every box of the row but misses its spheres, and the
	// record already holds a hit from an earlier query
	rh := core.NewRayHit(core.NewRay(core.NewVec3(30, 0.88, 0.88), core.NewVec3(-1, 0, 0)))
	rh.Ray.Flags = core.RayFlagAcceptFirstHit
	rh.Ray.TFar = 100
	rh.Hit.GeomID, rh.Hit.PrimID = 7, 7

	if !b.Intersect(ctx, &rh) {
		t.Fatalf("Expected a hit")
	}
	if commits != 1 {
		t.Errorf("Expected exactly one commit, got %d", commits)
	}
	if rh.Hit.GeomID != 1 || math.Abs(rh.Ray.TFar-34) > 1e-9 {
		t.Errorf("Expected the far sphere at t=34, got geom %d at t=%f", rh.Hit.GeomID, rh.Ray.TFar)
	}
}

func TestBVH_PointQuery(t *testing.T) {
	scene := mixedScene(t, 5)
	vi := newIntersector()
	b, err := Build(scene, vi, core.NopLogger{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	random := rand.New(rand.NewSource(9))
	for i := 0; i < 50; i++ {
		p := core.NewVec3(random.Float64()*12-6, random.Float64()*12-6, random.Float64()*12-6)

		expected := intersect.NewPointQueryResult()
		bq := intersect.PointQuery{Point: p, Radius: math.Inf(1)}
		for id, g := range scene.Geometries() {
			for prim := 0; prim < g.NumPrimitives(); prim++ {
				block := geometry.NewBlock(g.Type())
				block.Add(uint32(id), uint32(prim))
				vi.PointQuery(&bq, &expected, intersect.NewContext(scene), &block)
			}
		}

		res := intersect.NewPointQueryResult()
		q := intersect.PointQuery{Point: p, Radius: math.Inf(1)}
		if !b.PointQuery(intersect.NewContext(scene), &q, &res) {
			t.Fatalf("point %d: expected a result", i)
		}
		if math.Abs(res.Distance-expected.Distance) > 1e-9 {
			t.Errorf("point %d: expected distance %f, got %f", i, expected.Distance, res.Distance)
		}
	}
}

func TestBuild_Errors(t *testing.T) {
	scene := geometry.NewScene()
	curves, err := geometry.NewCurves(geometry.TypeOrientedBezierCurve, [][]geometry.ControlPoint{{
		geometry.NewControlPoint(0, 0, 0, 1), geometry.NewControlPoint(1, 0, 0, 1),
		geometry.NewControlPoint(2, 0, 0, 1), geometry.NewControlPoint(3, 0, 0, 1),
	}}, []uint32{0})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	scene.Attach(curves)
	if _, err := Build(scene, newIntersector(), core.NopLogger{}); err == nil {
		t.Errorf("Expected error for oriented curves without normals")
	}

	vi := newIntersector()
	vi.Register(geometry.TypeSpherePoint, intersect.Intersectors{})
	if _, err := Build(sphereRow(t, 3), vi, core.NopLogger{}); !errors.Is(err, intersect.ErrMissingIntersector) {
		t.Errorf("Expected ErrMissingIntersector, got %v", err)
	}
}
