package core

import "math/bits"

// MaxLanes is the widest supported packet
const MaxLanes = 16

// Width selects a packet width at compile time
type Width interface {
	W4 | W8 | W16
	Lanes() int
}

// W4 is a 4-lane packet width
type W4 struct{}

// W8 is an 8-lane packet width
type W8 struct{}

// W16 is a 16-lane packet width
type W16 struct{}

func (W4) Lanes() int  { return 4 }
func (W8) Lanes() int  { return 8 }
func (W16) Lanes() int { return 16 }

// LanesOf returns the lane count of width W
func LanesOf[W Width]() int {
	var w W
	return w.Lanes()
}

// LaneMask marks the active lanes of a packet, bit k for lane k
type LaneMask uint16

// FullMask returns a mask with the first n lanes set
func FullMask(n int) LaneMask {
	return LaneMask(uint32(1)<<uint(n) - 1)
}

// Has reports whether lane k is set
func (m LaneMask) Has(k int) bool {
	return m&(1<<uint(k)) != 0
}

// Set returns the mask with lane k set
func (m LaneMask) Set(k int) LaneMask {
	return m | 1<<uint(k)
}

// Clear returns the mask with lane k cleared
func (m LaneMask) Clear(k int) LaneMask {
	return m &^ (1 << uint(k))
}

// Count returns the number of active lanes
func (m LaneMask) Count() int {
	return bits.OnesCount16(uint16(m))
}

// Next returns the lowest active lane and the mask without it
func (m LaneMask) Next() (int, LaneMask) {
	k := bits.TrailingZeros16(uint16(m))
	return k, m & (m - 1)
}

// RayK is a packet of rays stored lane-wise
type RayK[W Width] struct {
	Origin    [MaxLanes]Vec3
	Direction [MaxLanes]Vec3
	TNear     [MaxLanes]float64
	TFar      [MaxLanes]float64
	Time      [MaxLanes]float64
	Mask      [MaxLanes]uint32
	ID        [MaxLanes]uint32
	Flags     [MaxLanes]RayFlags
}

// Lanes returns the packet width
func (r *RayK[W]) Lanes() int {
	return LanesOf[W]()
}

// Lane extracts lane k as a single ray
func (r *RayK[W]) Lane(k int) Ray {
	return Ray{
		Origin:    r.Origin[k],
		Direction: r.Direction[k],
		TNear:     r.TNear[k],
		TFar:      r.TFar[k],
		Time:      r.Time[k],
		Mask:      r.Mask[k],
		ID:        r.ID[k],
		Flags:     r.Flags[k],
	}
}

// SetLane stores ray into lane k
func (r *RayK[W]) SetLane(k int, ray Ray) {
	r.Origin[k] = ray.Origin
	r.Direction[k] = ray.Direction
	r.TNear[k] = ray.TNear
	r.TFar[k] = ray.TFar
	r.Time[k] = ray.Time
	r.Mask[k] = ray.Mask
	r.ID[k] = ray.ID
	r.Flags[k] = ray.Flags
}

// HitK is a packet of hit records stored lane-wise
type HitK[W Width] struct {
	U      [MaxLanes]float64
	V      [MaxLanes]float64
	Ng     [MaxLanes]Vec3
	GeomID [MaxLanes]uint32
	PrimID [MaxLanes]uint32
	InstID [MaxLanes][MaxInstanceLevels]uint32
}

// Lane extracts lane k as a single hit
func (h *HitK[W]) Lane(k int) Hit {
	return Hit{
		U:      h.U[k],
		V:      h.V[k],
		Ng:     h.Ng[k],
		GeomID: h.GeomID[k],
		PrimID: h.PrimID[k],
		InstID: h.InstID[k],
	}
}

// SetLane stores hit into lane k
func (h *HitK[W]) SetLane(k int, hit Hit) {
	h.U[k] = hit.U
	h.V[k] = hit.V
	h.Ng[k] = hit.Ng
	h.GeomID[k] = hit.GeomID
	h.PrimID[k] = hit.PrimID
	h.InstID[k] = hit.InstID
}

// RayHitK pairs a ray packet with its hit packet
type RayHitK[W Width] struct {
	Ray RayK[W]
	Hit HitK[W]
}

// NewRayHitK packs rays into a packet with empty hits. Lanes beyond
// len(rays) stay inactive and the returned mask covers only filled lanes.
func NewRayHitK[W Width](rays []Ray) (*RayHitK[W], LaneMask) {
	rh := &RayHitK[W]{}
	n := min(len(rays), LanesOf[W]())
	empty := NewHit()
	for k := 0; k < n; k++ {
		rh.Ray.SetLane(k, rays[k])
		rh.Hit.SetLane(k, empty)
	}
	return rh, FullMask(n)
}
