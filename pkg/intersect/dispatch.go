package intersect

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-curve-kernels/pkg/core"
	"github.com/df07/go-curve-kernels/pkg/geometry"
)

// ErrMissingIntersector is returned when a scene uses a type with no populated slot
var ErrMissingIntersector = errors.New("no intersector registered")

// maxCurveSegments keeps a tessellated curve's roots within one candidate list
const maxCurveSegments = maxCandidates / 6

type (
	Intersect1Func func(pre *Precalculations, rh *core.RayHit, ctx *Context, block *geometry.Block)
	Occluded1Func  func(pre *Precalculations, ray *core.Ray, ctx *Context, block *geometry.Block) bool

	IntersectKFunc[W core.Width] func(pre *PrecalculationsK[W], rh *core.RayHitK[W], k int, ctx *Context, block *geometry.Block)
	OccludedKFunc[W core.Width]  func(pre *PrecalculationsK[W], ray *core.RayK[W], k int, ctx *Context, block *geometry.Block) bool

	PointQueryFunc func(q *PointQuery, res *PointQueryResult, ctx *Context, block *geometry.Block) bool
)

// Intersectors is one dispatch slot: the entry points of a representation at every width
type Intersectors struct {
	Name string

	Intersect1  Intersect1Func
	Occluded1   Occluded1Func
	Intersect4  IntersectKFunc[core.W4]
	Occluded4   OccludedKFunc[core.W4]
	Intersect8  IntersectKFunc[core.W8]
	Occluded8   OccludedKFunc[core.W8]
	Intersect16 IntersectKFunc[core.W16]
	Occluded16  OccludedKFunc[core.W16]

	PointQuery PointQueryFunc
}

// populated reports whether the slot serves every enabled width
func (s *Intersectors) populated(widths Widths) bool {
	if s.Intersect1 == nil || s.Occluded1 == nil {
		return false
	}
	if widths.Has(4) && (s.Intersect4 == nil || s.Occluded4 == nil) {
		return false
	}
	if widths.Has(8) && (s.Intersect8 == nil || s.Occluded8 == nil) {
		return false
	}
	if widths.Has(16) && (s.Intersect16 == nil || s.Occluded16 == nil) {
		return false
	}
	return true
}

func intersect1(kern kernel) Intersect1Func {
	return func(pre *Precalculations, rh *core.RayHit, ctx *Context, block *geometry.Block) {
		ep := closestEpilog{ctx: ctx, ray: &rh.Ray, hit: &rh.Hit, lane: -1}
		kern(pre, &rh.Ray, ctx, block, &ep)
	}
}

func occluded1(kern kernel) Occluded1Func {
	return func(pre *Precalculations, ray *core.Ray, ctx *Context, block *geometry.Block) bool {
		ep := occludedEpilog{ctx: ctx, ray: ray, lane: -1}
		kern(pre, ray, ctx, block, &ep)
		return ep.occluded
	}
}

// intersectK runs lane k through the single-ray kernel and writes the
// lane back only when a candidate was committed
func intersectK[W core.Width](kern kernel) IntersectKFunc[W] {
	return func(pre *PrecalculationsK[W], rh *core.RayHitK[W], k int, ctx *Context, block *geometry.Block) {
		lane := core.RayHit{Ray: rh.Ray.Lane(k), Hit: rh.Hit.Lane(k)}
		ep := closestEpilog{ctx: ctx, ray: &lane.Ray, hit: &lane.Hit, lane: k}
		kern(pre.Lane(k), &lane.Ray, ctx, block, &ep)
		if ep.accepted {
			rh.Ray.TFar[k] = lane.Ray.TFar
			rh.Hit.SetLane(k, lane.Hit)
		}
	}
}

func occludedK[W core.Width](kern kernel) OccludedKFunc[W] {
	return func(pre *PrecalculationsK[W], ray *core.RayK[W], k int, ctx *Context, block *geometry.Block) bool {
		lane := ray.Lane(k)
		ep := occludedEpilog{ctx: ctx, ray: &lane, lane: k}
		kern(pre.Lane(k), &lane, ctx, block, &ep)
		if ep.occluded {
			ray.TFar[k] = math.Inf(-1)
		}
		return ep.occluded
	}
}

// makeIntersectors instantiates a kernel at width 1 and every enabled packet width
func makeIntersectors(name string, kern kernel, pq PointQueryFunc, widths Widths) Intersectors {
	s := Intersectors{
		Name:       name,
		Intersect1: intersect1(kern),
		Occluded1:  occluded1(kern),
		PointQuery: pq,
	}
	if widths.Has(4) {
		s.Intersect4 = intersectK[core.W4](kern)
		s.Occluded4 = occludedK[core.W4](kern)
	}
	if widths.Has(8) {
		s.Intersect8 = intersectK[core.W8](kern)
		s.Occluded8 = occludedK[core.W8](kern)
	}
	if widths.Has(16) {
		s.Intersect16 = intersectK[core.W16](kern)
		s.Occluded16 = occludedK[core.W16](kern)
	}
	return s
}

func familyName(name string, mb bool) string {
	if mb {
		return name + "-mb"
	}
	return name
}

func flatLinearIntersectors(mb bool, cfg Config) Intersectors {
	return makeIntersectors(familyName("flat-linear", mb), lineKernel(mb, flatLinearRoots), linePointQuery(mb, closestOnRoundSegment), cfg.Widths)
}

func roundLinearIntersectors(mb bool, cfg Config) Intersectors {
	return makeIntersectors(familyName("round-linear", mb), lineKernel(mb, roundLinearRoots), linePointQuery(mb, closestOnRoundSegment), cfg.Widths)
}

func coneLinearIntersectors(mb bool, cfg Config) Intersectors {
	return makeIntersectors(familyName("cone-linear", mb), lineKernel(mb, coneLinearRoots), linePointQuery(mb, closestOnConeSegment), cfg.Widths)
}

func sphereIntersectors(mb bool, cfg Config) Intersectors {
	return makeIntersectors(familyName("sphere", mb), pointKernel(mb, sphereRootsFor), pointPointQuery(mb, false), cfg.Widths)
}

func discIntersectors(mb bool, cfg Config) Intersectors {
	return makeIntersectors(familyName("disc", mb), pointKernel(mb, discRootsFor), pointPointQuery(mb, false), cfg.Widths)
}

func orientedDiscIntersectors(mb bool, cfg Config) Intersectors {
	return makeIntersectors(familyName("oriented-disc", mb), pointKernel(mb, orientedDiscRootsFor), pointPointQuery(mb, true), cfg.Widths)
}

func ribbonIntersectors(mb bool, cfg Config) Intersectors {
	return makeIntersectors(familyName("ribbon", mb), curveKernel(mb, ribbonRoots(cfg.CurveSegments)), curvePointQuery(mb, cfg.CurveSegments), cfg.Widths)
}

func sweepIntersectors(mb bool, cfg Config) Intersectors {
	return makeIntersectors(familyName("sweep", mb), curveKernel(mb, sweepRoots(cfg.CurveSegments)), curvePointQuery(mb, cfg.CurveSegments), cfg.Widths)
}

func orientedCurveIntersectors(mb bool, cfg Config) Intersectors {
	return makeIntersectors(familyName("oriented", mb), curveKernel(mb, orientedRoots(cfg.CurveSegments)), orientedPointQuery(mb, cfg.CurveSegments), cfg.Widths)
}

// Hermite curves reach the same surfaces after the geometry converts their
// position/tangent pairs to Bezier form

func hermiteRibbonIntersectors(mb bool, cfg Config) Intersectors {
	s := ribbonIntersectors(mb, cfg)
	s.Name = familyName("hermite-ribbon", mb)
	return s
}

func hermiteSweepIntersectors(mb bool, cfg Config) Intersectors {
	s := sweepIntersectors(mb, cfg)
	s.Name = familyName("hermite-sweep", mb)
	return s
}

func hermiteOrientedIntersectors(mb bool, cfg Config) Intersectors {
	s := orientedCurveIntersectors(mb, cfg)
	s.Name = familyName("hermite-oriented", mb)
	return s
}

// VirtualIntersector is the dispatch table from geometry type to intersectors.
// It is populated once and read-only afterwards.
type VirtualIntersector struct {
	vtbl   [geometry.TypeCount]Intersectors
	widths Widths
}

// NewVirtualIntersector populates a slot for every representation, with and without motion blur
func NewVirtualIntersector(cfg Config, logger core.Logger) *VirtualIntersector {
	cfg.Widths |= Width4
	cfg.CurveSegments = max(1, min(cfg.CurveSegments, maxCurveSegments))
	v := &VirtualIntersector{widths: cfg.Widths}

	curveFamilies := map[geometry.Subtype]func(bool, Config) Intersectors{
		geometry.SubtypeFlat:     ribbonIntersectors,
		geometry.SubtypeRound:    sweepIntersectors,
		geometry.SubtypeOriented: orientedCurveIntersectors,
	}
	hermiteFamilies := map[geometry.Subtype]func(bool, Config) Intersectors{
		geometry.SubtypeFlat:     hermiteRibbonIntersectors,
		geometry.SubtypeRound:    hermiteSweepIntersectors,
		geometry.SubtypeOriented: hermiteOrientedIntersectors,
	}

	for _, mb := range []bool{false, true} {
		tag := func(t geometry.Type) geometry.Type {
			if mb {
				return t | geometry.MotionBlur
			}
			return t
		}

		v.vtbl[tag(geometry.TypeFlatLinearCurve)] = flatLinearIntersectors(mb, cfg)
		v.vtbl[tag(geometry.TypeRoundLinearCurve)] = roundLinearIntersectors(mb, cfg)
		v.vtbl[tag(geometry.TypeConeLinearCurve)] = coneLinearIntersectors(mb, cfg)
		v.vtbl[tag(geometry.TypeSpherePoint)] = sphereIntersectors(mb, cfg)
		v.vtbl[tag(geometry.TypeDiscPoint)] = discIntersectors(mb, cfg)
		v.vtbl[tag(geometry.TypeOrientedDiscPoint)] = orientedDiscIntersectors(mb, cfg)

		for _, basis := range []geometry.Basis{geometry.BasisBezier, geometry.BasisBSpline, geometry.BasisCatmullRom, geometry.BasisHermite} {
			families := curveFamilies
			if basis == geometry.BasisHermite {
				families = hermiteFamilies
			}
			for subtype, family := range families {
				t, _ := geometry.CurveType(basis, subtype)
				v.vtbl[tag(t)] = family(mb, cfg)
			}
		}
	}

	logger.Debugf("intersector table populated for widths %s, %d curve segments", cfg.Widths, cfg.CurveSegments)
	return v
}

// Widths returns the packet widths the table serves
func (v *VirtualIntersector) Widths() Widths {
	return v.widths
}

// Register replaces the slot for t. It must not be called once queries have started.
func (v *VirtualIntersector) Register(t geometry.Type, s Intersectors) {
	v.vtbl[t] = s
}

// Slot returns the intersectors for t, panicking when the slot is empty
func (v *VirtualIntersector) Slot(t geometry.Type) *Intersectors {
	s := &v.vtbl[t]
	if s.Intersect1 == nil {
		panic(fmt.Sprintf("intersect: %v for geometry type %s", ErrMissingIntersector, t))
	}
	return s
}

// Validate checks that every type in the scene has a fully populated slot
func (v *VirtualIntersector) Validate(scene *geometry.Scene) error {
	for _, t := range scene.Types() {
		if int(t) >= len(v.vtbl) || !v.vtbl[t].populated(v.widths) {
			return fmt.Errorf("geometry type %s (widths %s): %w", t, v.widths, ErrMissingIntersector)
		}
	}
	return nil
}
