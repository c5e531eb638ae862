package intersect

import (
	"math"

	"github.com/df07/go-curve-kernels/pkg/core"
)

// Candidate is a root found by a kernel, not yet committed
type Candidate struct {
	T      float64
	U, V   float64
	Ng     core.Vec3
	GeomID uint32
	PrimID uint32
}

// Epilog decides what happens to each candidate a kernel finds
type Epilog interface {
	// Commit runs the mask and filter tests and commits an accepted candidate
	Commit(c *Candidate) bool
	// Done reports that the query needs no further candidates
	Done() bool
}

// closestEpilog keeps the nearest accepted candidate
type closestEpilog struct {
	ctx      *Context
	ray      *core.Ray
	hit      *core.Hit
	lane     int
	accepted bool
}

func (e *closestEpilog) Commit(c *Candidate) bool {
	if !(c.T < e.ray.TFar) {
		return false
	}
	hit, ok := e.ctx.accept(e.ray, c, e.lane)
	if !ok {
		return false
	}
	e.ray.TFar = c.T
	*e.hit = hit
	e.accepted = true
	return true
}

func (e *closestEpilog) Done() bool {
	return e.accepted && e.ray.Flags&core.RayFlagAcceptFirstHit != 0
}

// occludedEpilog stops at the first accepted candidate
type occludedEpilog struct {
	ctx      *Context
	ray      *core.Ray
	lane     int
	occluded bool
}

func (e *occludedEpilog) Commit(c *Candidate) bool {
	if e.occluded {
		return false
	}
	if _, ok := e.ctx.accept(e.ray, c, e.lane); !ok {
		return false
	}
	e.ray.TFar = math.Inf(-1)
	e.occluded = true
	return true
}

func (e *occludedEpilog) Done() bool {
	return e.occluded
}

// accept applies the interval, NaN, mask and filter tests shared by both epilogs
func (c *Context) accept(ray *core.Ray, cand *Candidate, lane int) (core.Hit, bool) {
	if !core.Finite(cand.T) || !(cand.T >= ray.TNear && cand.T <= ray.TFar) {
		return core.Hit{}, false
	}
	if !core.Finite(cand.U) || !core.Finite(cand.V) || !cand.Ng.IsFinite() {
		return core.Hit{}, false
	}

	geom := c.Scene.Get(cand.GeomID)
	if geom == nil || ray.Mask&geom.Mask() == 0 {
		return core.Hit{}, false
	}

	hit := core.Hit{
		U:      cand.U,
		V:      cand.V,
		Ng:     cand.Ng,
		GeomID: cand.GeomID,
		PrimID: cand.PrimID,
		InstID: c.instID,
	}
	args := core.FilterArgs{Ray: ray, Hit: &hit, T: cand.T, Lane: lane}
	if filter := geom.Filter(); filter != nil && !filter(&args) {
		return core.Hit{}, false
	}
	if c.Filter != nil && !c.Filter(&args) {
		return core.Hit{}, false
	}
	return hit, true
}

// CommitExternal runs a hit found outside the software kernels through the
// same mask, filter and commit sequence as a closest-hit query
func CommitExternal(ctx *Context, rh *core.RayHit, cand Candidate) bool {
	ep := closestEpilog{ctx: ctx, ray: &rh.Ray, hit: &rh.Hit, lane: -1}
	return ep.Commit(&cand)
}

// OccludeExternal is CommitExternal for any-hit queries
func OccludeExternal(ctx *Context, ray *core.Ray, cand Candidate) bool {
	ep := occludedEpilog{ctx: ctx, ray: ray, lane: -1}
	return ep.Commit(&cand)
}
