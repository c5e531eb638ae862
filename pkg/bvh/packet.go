package bvh

import (
	"github.com/df07/go-curve-kernels/pkg/core"
	"github.com/df07/go-curve-kernels/pkg/intersect"
)

// activeLanes returns the lanes of mask whose ray overlaps box
func activeLanes[W core.Width](box core.AABB, ray *core.RayK[W], mask core.LaneMask) core.LaneMask {
	var hit core.LaneMask
	for m := mask; m != 0; {
		var k int
		k, m = m.Next()
		if box.Hit(ray.Lane(k), ray.TNear[k], ray.TFar[k]) {
			hit = hit.Set(k)
		}
	}
	return hit
}

// IntersectPacket finds the closest hit for every valid lane of rh
func IntersectPacket[W core.Width](b *BVH, ctx *intersect.Context, rh *core.RayHitK[W], valid core.LaneMask) {
	if b.Root == nil {
		return
	}
	pre := intersect.NewPrecalculationsK(&rh.Ray, valid)
	intersectPacketNode(b, b.Root, pre, ctx, rh, valid)
}

func intersectPacketNode[W core.Width](b *BVH, node *Node, pre *intersect.PrecalculationsK[W], ctx *intersect.Context, rh *core.RayHitK[W], valid core.LaneMask) {
	active := activeLanes(node.BoundingBox, &rh.Ray, valid)
	if active == 0 {
		return
	}
	if node.Blocks != nil {
		for i := range node.Blocks {
			intersect.IntersectK(b.vi, active, pre, rh, ctx, &node.Blocks[i])
		}
		return
	}
	intersectPacketNode(b, node.Left, pre, ctx, rh, active)
	intersectPacketNode(b, node.Right, pre, ctx, rh, active)
}

// OccludedPacket tests every valid lane of ray and returns the occluded lanes
func OccludedPacket[W core.Width](b *BVH, ctx *intersect.Context, ray *core.RayK[W], valid core.LaneMask) core.LaneMask {
	if b.Root == nil {
		return 0
	}
	pre := intersect.NewPrecalculationsK(ray, valid)
	occludedPacketNode(b, b.Root, pre, ctx, ray, valid)

	var occluded core.LaneMask
	for m := valid; m != 0; {
		var k int
		k, m = m.Next()
		if ray.Lane(k).Occluded() {
			occluded = occluded.Set(k)
		}
	}
	return occluded
}

// occludedPacketNode returns the lanes of valid that are still unoccluded
func occludedPacketNode[W core.Width](b *BVH, node *Node, pre *intersect.PrecalculationsK[W], ctx *intersect.Context, ray *core.RayK[W], valid core.LaneMask) core.LaneMask {
	active := activeLanes(node.BoundingBox, ray, valid)
	if active == 0 {
		return valid
	}
	untouched := valid &^ active
	if node.Blocks != nil {
		for i := range node.Blocks {
			active = intersect.OccludedK(b.vi, active, pre, ray, ctx, &node.Blocks[i])
			if active == 0 {
				break
			}
		}
		return untouched | active
	}
	active = occludedPacketNode(b, node.Left, pre, ctx, ray, active)
	if active != 0 {
		active = occludedPacketNode(b, node.Right, pre, ctx, ray, active)
	}
	return untouched | active
}
