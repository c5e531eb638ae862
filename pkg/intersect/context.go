package intersect

import (
	"fmt"
	"math"

	"github.com/df07/go-curve-kernels/pkg/core"
	"github.com/df07/go-curve-kernels/pkg/geometry"
)

// Context carries per-query state shared by every kernel a query reaches
type Context struct {
	Scene  *geometry.Scene
	Filter core.FilterFunc // Optional filter run after the geometry's own filter

	instID [core.MaxInstanceLevels]uint32
	depth  int
}

// NewContext creates a query context over scene
func NewContext(scene *geometry.Scene) *Context {
	ctx := &Context{Scene: scene}
	for i := range ctx.instID {
		ctx.instID[i] = core.InvalidID
	}
	return ctx
}

// PushInstance enters an instance; committed hits record the chain
func (c *Context) PushInstance(instID uint32) error {
	if c.depth == core.MaxInstanceLevels {
		return fmt.Errorf("instance nesting exceeds %d levels", core.MaxInstanceLevels)
	}
	c.instID[c.depth] = instID
	c.depth++
	return nil
}

// PopInstance leaves the innermost instance
func (c *Context) PopInstance() {
	if c.depth == 0 {
		return
	}
	c.depth--
	c.instID[c.depth] = core.InvalidID
}

// InstanceID returns the current instance chain
func (c *Context) InstanceID() [core.MaxInstanceLevels]uint32 {
	return c.instID
}

// PointQuery asks for the closest surface point within Radius of Point.
// Radius shrinks as closer points are found.
type PointQuery struct {
	Point  core.Vec3
	Radius float64
	Time   float64
}

// PointQueryResult is the closest point found so far
type PointQueryResult struct {
	Point    core.Vec3
	Distance float64
	U        float64
	GeomID   uint32
	PrimID   uint32
}

// NewPointQueryResult returns an empty result
func NewPointQueryResult() PointQueryResult {
	return PointQueryResult{Distance: math.Inf(1), GeomID: core.InvalidID, PrimID: core.InvalidID}
}

// Found reports whether any point was recorded
func (r PointQueryResult) Found() bool {
	return r.GeomID != core.InvalidID
}
