package bvh

import (
	"fmt"
	"sort"

	"github.com/df07/go-curve-kernels/pkg/core"
	"github.com/df07/go-curve-kernels/pkg/geometry"
	"github.com/df07/go-curve-kernels/pkg/intersect"
)

// Node represents a node in the Bounding Volume Hierarchy
type Node struct {
	BoundingBox core.AABB
	Left        *Node
	Right       *Node
	Blocks      []geometry.Block // Primitives grouped by type for leaf nodes (nil for internal nodes)
}

// BVH is a Bounding Volume Hierarchy over every primitive of a scene.
// Leaves hand their blocks to the intersector's dispatch table.
type BVH struct {
	Root *Node

	vi    *intersect.VirtualIntersector
	count int
}

// primRef is one primitive as seen by the builder
type primRef struct {
	bounds core.AABB
	center core.Vec3
	typ    geometry.Type
	geomID uint32
	primID uint32
}

// Leaf threshold: if we have this many or fewer primitives, store them in a leaf node
const leafThreshold = 8

// Build commits the scene, checks that vi can intersect every type in it and
// builds the hierarchy
func Build(scene *geometry.Scene, vi *intersect.VirtualIntersector, logger core.Logger) (*BVH, error) {
	if err := scene.Commit(); err != nil {
		return nil, fmt.Errorf("bvh: %w", err)
	}
	if err := vi.Validate(scene); err != nil {
		return nil, fmt.Errorf("bvh: %w", err)
	}

	var refs []primRef
	for id, g := range scene.Geometries() {
		for prim := 0; prim < g.NumPrimitives(); prim++ {
			bounds := g.Bounds(prim)
			refs = append(refs, primRef{
				bounds: bounds,
				center: bounds.Center(),
				typ:    g.Type(),
				geomID: uint32(id),
				primID: uint32(prim),
			})
		}
	}

	b := &BVH{vi: vi, count: len(refs)}
	if len(refs) > 0 {
		b.Root = buildNode(refs, 0)
	}

	stats := b.getStats()
	logger.Debugf("bvh: %d primitives, %d nodes, %d leaves, max depth %d", stats.totalPrims, stats.totalNodes, stats.leafNodes, stats.maxDepth)
	return b, nil
}

// buildNode recursively builds the hierarchy with a median split along the longest axis
func buildNode(refs []primRef, depth int) *Node {
	box := refs[0].bounds
	for i := 1; i < len(refs); i++ {
		box = box.Union(refs[i].bounds)
	}

	if len(refs) <= leafThreshold {
		return &Node{BoundingBox: box, Blocks: makeBlocks(refs)}
	}

	axis := box.LongestAxis()
	sort.Slice(refs, func(i, j int) bool {
		return refs[i].center.Axis(axis) < refs[j].center.Axis(axis)
	})

	mid := len(refs) / 2
	return &Node{
		BoundingBox: box,
		Left:        buildNode(refs[:mid], depth+1),
		Right:       buildNode(refs[mid:], depth+1),
	}
}

// makeBlocks groups leaf primitives by type into blocks of geometry.BlockSize
func makeBlocks(refs []primRef) []geometry.Block {
	var blocks []geometry.Block
	open := make(map[geometry.Type]int)
	for _, ref := range refs {
		i, ok := open[ref.typ]
		if !ok || !blocks[i].Add(ref.geomID, ref.primID) {
			blocks = append(blocks, geometry.NewBlock(ref.typ))
			i = len(blocks) - 1
			open[ref.typ] = i
			blocks[i].Add(ref.geomID, ref.primID)
		}
	}
	return blocks
}

// NumPrimitives returns the number of primitives the hierarchy was built over
func (b *BVH) NumPrimitives() int {
	return b.count
}

// Intersect finds the closest hit along rh.Ray, updating rh in place
func (b *BVH) Intersect(ctx *intersect.Context, rh *core.RayHit) bool {
	if b.Root == nil {
		return false
	}
	pre := intersect.NewPrecalculations(&rh.Ray)
	b.intersectNode(b.Root, &pre, ctx, rh, rh.Ray.TFar)
	return rh.Hit.Valid()
}

// intersectNode visits the nearer child first and reports whether traversal
// can stop. tfar is the ray's extent when the query started, so a hit already
// held in rh does not count as accepted.
func (b *BVH) intersectNode(node *Node, pre *intersect.Precalculations, ctx *intersect.Context, rh *core.RayHit, tfar float64) bool {
	if !node.BoundingBox.Hit(rh.Ray, rh.Ray.TNear, rh.Ray.TFar) {
		return false
	}

	if node.Blocks != nil {
		for i := range node.Blocks {
			b.vi.Intersect1(pre, rh, ctx, &node.Blocks[i])
			if acceptedFirst(&rh.Ray, tfar) {
				return true
			}
		}
		return false
	}

	first, second := orderChildren(node, rh.Ray)
	if b.intersectNode(first, pre, ctx, rh, tfar) {
		return true
	}
	return b.intersectNode(second, pre, ctx, rh, tfar)
}

// acceptedFirst reports whether an accept-first-hit ray committed a hit during this query
func acceptedFirst(ray *core.Ray, tfar float64) bool {
	return ray.Flags&core.RayFlagAcceptFirstHit != 0 && ray.TFar < tfar
}

// orderChildren returns the child whose box the ray enters first
func orderChildren(node *Node, ray core.Ray) (*Node, *Node) {
	tl, okl := node.Left.BoundingBox.Entry(ray, ray.TNear, ray.TFar)
	tr, okr := node.Right.BoundingBox.Entry(ray, ray.TNear, ray.TFar)
	if okr && (!okl || tr < tl) {
		return node.Right, node.Left
	}
	return node.Left, node.Right
}

// Occluded reports whether anything blocks ray. An occluded ray has TFar set to -Inf.
func (b *BVH) Occluded(ctx *intersect.Context, ray *core.Ray) bool {
	if b.Root == nil {
		return false
	}
	pre := intersect.NewPrecalculations(ray)
	return b.occludedNode(b.Root, &pre, ctx, ray)
}

func (b *BVH) occludedNode(node *Node, pre *intersect.Precalculations, ctx *intersect.Context, ray *core.Ray) bool {
	if !node.BoundingBox.Hit(*ray, ray.TNear, ray.TFar) {
		return false
	}
	if node.Blocks != nil {
		for i := range node.Blocks {
			if b.vi.Occluded1(pre, ray, ctx, &node.Blocks[i]) {
				return true
			}
		}
		return false
	}
	return b.occludedNode(node.Left, pre, ctx, ray) || b.occludedNode(node.Right, pre, ctx, ray)
}

// PointQuery finds the closest surface point to q within q.Radius
func (b *BVH) PointQuery(ctx *intersect.Context, q *intersect.PointQuery, res *intersect.PointQueryResult) bool {
	if b.Root == nil {
		return false
	}
	return b.pointQueryNode(b.Root, ctx, q, res)
}

func (b *BVH) pointQueryNode(node *Node, ctx *intersect.Context, q *intersect.PointQuery, res *intersect.PointQueryResult) bool {
	if node.BoundingBox.DistanceSquared(q.Point) > q.Radius*q.Radius {
		return false
	}
	if node.Blocks != nil {
		found := false
		for i := range node.Blocks {
			found = b.vi.PointQuery(q, res, ctx, &node.Blocks[i]) || found
		}
		return found
	}

	first, second := node.Left, node.Right
	if second.BoundingBox.DistanceSquared(q.Point) < first.BoundingBox.DistanceSquared(q.Point) {
		first, second = second, first
	}
	found := b.pointQueryNode(first, ctx, q, res)
	return b.pointQueryNode(second, ctx, q, res) || found
}

// getStats returns statistics about the BVH structure
func (b *BVH) getStats() bvhStats {
	if b.Root == nil {
		return bvhStats{}
	}

	stats := bvhStats{}
	b.collectStats(b.Root, 0, &stats)

	if stats.leafNodes > 0 {
		stats.avgDepth = stats.avgDepth / float64(stats.leafNodes)
	}
	return stats
}

// bvhStats contains statistics about the BVH structure
type bvhStats struct {
	totalNodes  int
	leafNodes   int
	maxDepth    int
	avgDepth    float64
	totalPrims  int
	totalBlocks int
}

// collectStats recursively collects statistics about the BVH
func (b *BVH) collectStats(node *Node, depth int, stats *bvhStats) {
	stats.totalNodes++
	if depth > stats.maxDepth {
		stats.maxDepth = depth
	}

	if node.Blocks != nil {
		stats.leafNodes++
		stats.totalBlocks += len(node.Blocks)
		for i := range node.Blocks {
			stats.totalPrims += node.Blocks[i].Len()
		}
		stats.avgDepth += float64(depth)
		return
	}
	b.collectStats(node.Left, depth+1, stats)
	b.collectStats(node.Right, depth+1, stats)
}
