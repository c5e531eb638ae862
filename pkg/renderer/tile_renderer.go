package renderer

import (
	"image"
	"image/color"
	"math"

	"github.com/df07/go-curve-kernels/pkg/bvh"
	"github.com/df07/go-curve-kernels/pkg/core"
	"github.com/df07/go-curve-kernels/pkg/intersect"
)

// shadowOffset pushes shadow ray origins off the surface they start on
const shadowOffset = 1e-4

// palette colors hits by geometry ID
var palette = []core.Vec3{
	{X: 0.8, Y: 0.3, Z: 0.3},
	{X: 0.3, Y: 0.7, Z: 0.3},
	{X: 0.3, Y: 0.4, Z: 0.8},
	{X: 0.8, Y: 0.7, Z: 0.3},
	{X: 0.6, Y: 0.3, Z: 0.7},
	{X: 0.3, Y: 0.7, Z: 0.7},
}

// TileRenderer traces the pixels of a tile. Each worker owns one because the
// query context is not safe for concurrent use.
type TileRenderer struct {
	rt  *Raytracer
	ctx *intersect.Context
}

// NewTileRenderer creates a tile renderer for rt
func NewTileRenderer(rt *Raytracer) *TileRenderer {
	return &TileRenderer{
		rt:  rt,
		ctx: intersect.NewContext(rt.scene),
	}
}

// pixel is one traced sample: the pixel position plus what its primary and shadow rays found
type pixel struct {
	x, y   int
	rh     core.RayHit
	lit    bool      // Surface faces the light
	shadow core.Ray  // Ray toward the light when lit
	normal core.Vec3 // Unit normal facing the viewer
}

// RenderTile renders bounds into img and returns its statistics
func (tr *TileRenderer) RenderTile(bounds image.Rectangle, img *image.RGBA) RenderStats {
	pixels := make([]pixel, 0, bounds.Dx()*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			pixels = append(pixels, pixel{x: x, y: y, rh: core.NewRayHit(tr.primaryRay(x, y))})
		}
	}

	stats := RenderStats{TotalPixels: len(pixels), PacketWidth: tr.rt.config.PacketWidth}
	switch tr.rt.config.PacketWidth {
	case 4:
		renderPackets[core.W4](tr, pixels, &stats)
	case 8:
		renderPackets[core.W8](tr, pixels, &stats)
	case 16:
		renderPackets[core.W16](tr, pixels, &stats)
	default:
		tr.renderSingle(pixels, &stats)
	}

	for i := range pixels {
		img.SetRGBA(pixels[i].x, pixels[i].y, vec3ToColor(tr.shade(&pixels[i])))
	}
	return stats
}

func (tr *TileRenderer) primaryRay(x, y int) core.Ray {
	ray := tr.rt.camera.GetPixelRay(x, y, tr.rt.config.Width, tr.rt.config.Height)
	ray.Time = tr.rt.config.Time
	return ray
}

// renderSingle traces one ray at a time
func (tr *TileRenderer) renderSingle(pixels []pixel, stats *RenderStats) {
	for i := range pixels {
		p := &pixels[i]
		stats.PrimaryRays++
		if !tr.rt.bvh.Intersect(tr.ctx, &p.rh) {
			continue
		}
		stats.Hits++
		if !tr.prepareShadow(p) {
			continue
		}
		stats.ShadowRays++
		if tr.rt.bvh.Occluded(tr.ctx, &p.shadow) {
			stats.OccludedRays++
		}
	}
}

// renderPackets traces primary and shadow rays in packets of W lanes
func renderPackets[W core.Width](tr *TileRenderer, pixels []pixel, stats *RenderStats) {
	lanes := core.LanesOf[W]()
	rays := make([]core.Ray, 0, lanes)

	for start := 0; start < len(pixels); start += lanes {
		batch := pixels[start:min(start+lanes, len(pixels))]

		rays = rays[:0]
		for i := range batch {
			rays = append(rays, batch[i].rh.Ray)
		}
		rh, valid := core.NewRayHitK[W](rays)
		bvh.IntersectPacket(tr.rt.bvh, tr.ctx, rh, valid)
		stats.PrimaryRays += len(batch)

		var shadow core.RayK[W]
		var lit core.LaneMask
		for k := range batch {
			p := &batch[k]
			p.rh = core.RayHit{Ray: rh.Ray.Lane(k), Hit: rh.Hit.Lane(k)}
			if !p.rh.Hit.Valid() {
				continue
			}
			stats.Hits++
			if tr.prepareShadow(p) {
				shadow.SetLane(k, p.shadow)
				lit = lit.Set(k)
			}
		}
		if lit == 0 {
			continue
		}

		stats.ShadowRays += lit.Count()
		occluded := bvh.OccludedPacket(tr.rt.bvh, tr.ctx, &shadow, lit)
		stats.OccludedRays += occluded.Count()
		for m := lit; m != 0; {
			var k int
			k, m = m.Next()
			batch[k].shadow = shadow.Lane(k)
		}
	}
}

// prepareShadow computes the viewer-facing normal of a hit pixel and, when the
// surface faces the light, the shadow ray toward it
func (tr *TileRenderer) prepareShadow(p *pixel) bool {
	n := p.rh.Hit.Ng.Normalize()
	if n.Dot(p.rh.Ray.Direction) > 0 {
		n = n.Negate()
	}
	p.normal = n

	light := tr.rt.config.LightDirection
	if n.Dot(light) <= 0 {
		return false
	}
	p.lit = true

	origin := p.rh.Ray.At(p.rh.Ray.TFar).Add(n.Multiply(shadowOffset))
	p.shadow = core.NewRay(origin, light)
	p.shadow.Time = p.rh.Ray.Time
	return true
}

// shade returns the color of a traced pixel
func (tr *TileRenderer) shade(p *pixel) core.Vec3 {
	if !p.rh.Hit.Valid() {
		return tr.backgroundGradient(p.rh.Ray)
	}

	base := palette[int(p.rh.Hit.GeomID)%len(palette)]
	intensity := tr.rt.config.Ambient
	if p.lit && !p.shadow.Occluded() {
		intensity += (1 - tr.rt.config.Ambient) * p.normal.Dot(tr.rt.config.LightDirection)
	}
	return base.Multiply(intensity)
}

// backgroundGradient returns a gradient color based on ray direction
func (tr *TileRenderer) backgroundGradient(r core.Ray) core.Vec3 {
	unitDirection := r.Direction.Normalize()

	// Use the y-component to create a gradient (map from -1,1 to 0,1)
	t := 0.5 * (unitDirection.Y + 1.0)

	// Linear interpolation: (1-t)*bottom + t*top
	return tr.rt.config.BottomColor.Multiply(1.0 - t).Add(tr.rt.config.TopColor.Multiply(t))
}

// vec3ToColor converts a Vec3 color to RGBA with proper clamping and gamma correction
func vec3ToColor(c core.Vec3) color.RGBA {
	channel := func(v float64) uint8 {
		// Apply gamma correction (gamma = 2.0) then clamp
		v = math.Sqrt(math.Max(v, 0))
		return uint8(255 * math.Min(v, 1))
	}
	return color.RGBA{R: channel(c.X), G: channel(c.Y), B: channel(c.Z), A: 255}
}
