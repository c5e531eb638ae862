package intersect

import (
	"github.com/df07/go-curve-kernels/pkg/core"
	"github.com/df07/go-curve-kernels/pkg/geometry"
)

type pointRootsFunc func(ray *core.Ray, v geometry.ControlPoint, normal core.Vec3, geomID, primID uint32, list *candidateList)

func gatherPoint(points *geometry.Points, primID int, time float64, mb bool) (geometry.ControlPoint, core.Vec3, bool) {
	if mb {
		return points.PointAt(primID, time)
	}
	v, n := points.Point(primID)
	return v, n, true
}

func pointKernel(mb bool, roots pointRootsFunc) kernel {
	return func(pre *Precalculations, ray *core.Ray, ctx *Context, block *geometry.Block, ep Epilog) {
		if pre.Degenerate {
			return
		}
		var list candidateList
		for i := 0; i < geometry.BlockSize; i++ {
			if !block.IsValid(i) {
				continue
			}
			geomID, primID := block.GeomID[i], block.PrimID[i]
			v, normal, ok := gatherPoint(ctx.Scene.Points(geomID), int(primID), ray.Time, mb)
			if !ok || v.R <= 0 {
				continue
			}

			list.n = 0
			roots(ray, v, normal, geomID, primID, &list)
			if list.commit(ep) {
				return
			}
		}
	}
}

// sphereRootsFor offers both sphere roots; the epilog keeps the nearest one in range
func sphereRootsFor(ray *core.Ray, v geometry.ControlPoint, _ core.Vec3, geomID, primID uint32, list *candidateList) {
	t0, t1, ok := sphereRoots(ray, v.P, v.R)
	if !ok {
		return
	}
	for _, t := range [2]float64{t0, t1} {
		n := ray.At(t).Subtract(v.P).Normalize()
		list.add(Candidate{T: t, Ng: n, GeomID: geomID, PrimID: primID})
	}
}

// discRootsFor intersects a disc that always faces the ray
func discRootsFor(ray *core.Ray, v geometry.ControlPoint, _ core.Vec3, geomID, primID uint32, list *candidateList) {
	normal := ray.Direction.Negate().Normalize()
	if t, ok := discRoot(ray, v.P, normal, v.R); ok {
		list.add(Candidate{T: t, Ng: normal, GeomID: geomID, PrimID: primID})
	}
}

// orientedDiscRootsFor intersects a disc with a stored normal
func orientedDiscRootsFor(ray *core.Ray, v geometry.ControlPoint, normal core.Vec3, geomID, primID uint32, list *candidateList) {
	if normal.LengthSquared() < epsilon {
		return
	}
	normal = normal.Normalize()
	if t, ok := discRoot(ray, v.P, normal, v.R); ok {
		list.add(Candidate{T: t, Ng: normal, GeomID: geomID, PrimID: primID})
	}
}
