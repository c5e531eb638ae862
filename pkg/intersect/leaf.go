package intersect

import (
	"fmt"

	"github.com/df07/go-curve-kernels/pkg/core"
	"github.com/df07/go-curve-kernels/pkg/geometry"
)

// Intersect1 runs a closest-hit query for one ray against a leaf block
func (v *VirtualIntersector) Intersect1(pre *Precalculations, rh *core.RayHit, ctx *Context, block *geometry.Block) {
	v.Slot(block.Type).Intersect1(pre, rh, ctx, block)
}

// Occluded1 runs an any-hit query for one ray against a leaf block
func (v *VirtualIntersector) Occluded1(pre *Precalculations, ray *core.Ray, ctx *Context, block *geometry.Block) bool {
	return v.Slot(block.Type).Occluded1(pre, ray, ctx, block)
}

// PointQuery finds the closest point of a leaf block to q. Types without a
// point query entry report no result.
func (v *VirtualIntersector) PointQuery(q *PointQuery, res *PointQueryResult, ctx *Context, block *geometry.Block) bool {
	s := v.Slot(block.Type)
	if s.PointQuery == nil {
		return false
	}
	return s.PointQuery(q, res, ctx, block)
}

// intersectKOf picks the width-W closest-hit entry of a slot
func intersectKOf[W core.Width](s *Intersectors) IntersectKFunc[W] {
	var f any
	switch any(*new(W)).(type) {
	case core.W4:
		f = s.Intersect4
	case core.W8:
		f = s.Intersect8
	case core.W16:
		f = s.Intersect16
	}
	fn := f.(IntersectKFunc[W])
	if fn == nil {
		panic(fmt.Sprintf("intersect: %s has no %d-wide entry", s.Name, core.LanesOf[W]()))
	}
	return fn
}

// occludedKOf picks the width-W any-hit entry of a slot
func occludedKOf[W core.Width](s *Intersectors) OccludedKFunc[W] {
	var f any
	switch any(*new(W)).(type) {
	case core.W4:
		f = s.Occluded4
	case core.W8:
		f = s.Occluded8
	case core.W16:
		f = s.Occluded16
	}
	fn := f.(OccludedKFunc[W])
	if fn == nil {
		panic(fmt.Sprintf("intersect: %s has no %d-wide entry", s.Name, core.LanesOf[W]()))
	}
	return fn
}

// IntersectLane runs a closest-hit query for lane k of a packet
func IntersectLane[W core.Width](v *VirtualIntersector, pre *PrecalculationsK[W], rh *core.RayHitK[W], k int, ctx *Context, block *geometry.Block) {
	intersectKOf[W](v.Slot(block.Type))(pre, rh, k, ctx, block)
}

// OccludedLane runs an any-hit query for lane k of a packet
func OccludedLane[W core.Width](v *VirtualIntersector, pre *PrecalculationsK[W], ray *core.RayK[W], k int, ctx *Context, block *geometry.Block) bool {
	return occludedKOf[W](v.Slot(block.Type))(pre, ray, k, ctx, block)
}

// IntersectK runs a closest-hit query for every active lane of a packet.
// Lanes with an empty interval are skipped.
func IntersectK[W core.Width](v *VirtualIntersector, valid core.LaneMask, pre *PrecalculationsK[W], rh *core.RayHitK[W], ctx *Context, block *geometry.Block) {
	fn := intersectKOf[W](v.Slot(block.Type))
	for m := valid & core.FullMask(core.LanesOf[W]()); m != 0; {
		var k int
		k, m = m.Next()
		if !(rh.Ray.TNear[k] <= rh.Ray.TFar[k]) {
			continue
		}
		fn(pre, rh, k, ctx, block)
	}
}

// OccludedK runs an any-hit query for every active lane and returns the
// lanes that are still unoccluded
func OccludedK[W core.Width](v *VirtualIntersector, valid core.LaneMask, pre *PrecalculationsK[W], ray *core.RayK[W], ctx *Context, block *geometry.Block) core.LaneMask {
	fn := occludedKOf[W](v.Slot(block.Type))
	active := valid & core.FullMask(core.LanesOf[W]())
	for m := active; m != 0; {
		var k int
		k, m = m.Next()
		if !(ray.TNear[k] <= ray.TFar[k]) {
			active = active.Clear(k)
			continue
		}
		if fn(pre, ray, k, ctx, block) {
			active = active.Clear(k)
		}
	}
	return active
}
