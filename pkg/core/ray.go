package core

import "math"

// MaxInstanceLevels is the depth of the instance ID chain carried by a hit
const MaxInstanceLevels = 2

// InvalidID marks an unset geometry, primitive or instance ID
const InvalidID = ^uint32(0)

// RayFlags modify how a query treats candidate hits
type RayFlags uint32

const (
	// RayFlagAcceptFirstHit ends a closest-hit search at the first accepted candidate
	RayFlagAcceptFirstHit RayFlags = 1 << iota
)

// Ray represents a ray with an origin, direction and valid parameter interval
type Ray struct {
	Origin    Vec3
	Direction Vec3
	TNear     float64 // Lower bound of the valid interval
	TFar      float64 // Upper bound, shrinks as closer hits are committed
	Time      float64 // Motion blur time in [0,1]
	Mask      uint32  // Visibility mask tested against the geometry mask
	ID        uint32
	Flags     RayFlags
}

// NewRay creates a new ray covering [0, +inf) that sees every geometry
func NewRay(origin, direction Vec3) Ray {
	return Ray{
		Origin:    origin,
		Direction: direction,
		TNear:     0,
		TFar:      math.Inf(1),
		Mask:      ^uint32(0),
	}
}

// At returns the point at parameter t along the ray
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Direction.Multiply(t))
}

// Occluded reports whether an any-hit query marked this ray as blocked
func (r Ray) Occluded() bool {
	return math.IsInf(r.TFar, -1)
}

// Hit holds the committed intersection for a ray
type Hit struct {
	U, V   float64 // Primitive-local parametric coordinates
	Ng     Vec3    // Geometric normal, not necessarily normalized
	GeomID uint32
	PrimID uint32
	InstID [MaxInstanceLevels]uint32
}

// NewHit returns an empty hit with all IDs invalid
func NewHit() Hit {
	h := Hit{GeomID: InvalidID, PrimID: InvalidID}
	for i := range h.InstID {
		h.InstID[i] = InvalidID
	}
	return h
}

// Valid reports whether a primitive has been committed
func (h Hit) Valid() bool {
	return h.GeomID != InvalidID
}

// RayHit pairs a ray with its hit record for closest-hit queries
type RayHit struct {
	Ray Ray
	Hit Hit
}

// NewRayHit creates a ray/hit pair with an empty hit
func NewRayHit(ray Ray) RayHit {
	return RayHit{Ray: ray, Hit: NewHit()}
}
