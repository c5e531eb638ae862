package renderer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/df07/go-curve-kernels/pkg/bvh"
	"github.com/df07/go-curve-kernels/pkg/core"
	"github.com/df07/go-curve-kernels/pkg/geometry"
	"github.com/df07/go-curve-kernels/pkg/intersect"
)

// ErrInvalidConfig is returned for a render configuration that cannot be used
var ErrInvalidConfig = errors.New("invalid render config")

// traceChunk is the number of rays one TraceRays goroutine handles
const traceChunk = 256

// Config contains rendering configuration
type Config struct {
	Width          int
	Height         int
	TileSize       int
	NumWorkers     int       // 0 uses runtime.NumCPU()
	PacketWidth    int       // 1, 4, 8 or 16 lanes per traced packet
	LightDirection core.Vec3 // Direction toward the light
	Ambient        float64   // Light reaching shadowed surfaces, in [0,1]
	Time           float64   // Motion blur time of every primary ray
	TopColor       core.Vec3 // Background gradient at the top
	BottomColor    core.Vec3 // Background gradient at the bottom
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		Width:          400,
		Height:         300,
		TileSize:       32,
		PacketWidth:    4,
		LightDirection: core.NewVec3(1, 1, 1).Normalize(),
		Ambient:        0.15,
		TopColor:       core.NewVec3(0.5, 0.7, 1.0),
		BottomColor:    core.NewVec3(1.0, 1.0, 1.0),
	}
}

// Raytracer renders a scene through the curve intersection kernels
type Raytracer struct {
	scene  *geometry.Scene
	camera *Camera
	bvh    *bvh.BVH
	config Config
	logger core.Logger
}

// NewRaytracer validates config and builds the acceleration structure for scene
func NewRaytracer(scene *geometry.Scene, camera *Camera, vi *intersect.VirtualIntersector, config Config, logger core.Logger) (*Raytracer, error) {
	if config.Width <= 0 || config.Height <= 0 {
		return nil, fmt.Errorf("%w: image size %dx%d", ErrInvalidConfig, config.Width, config.Height)
	}
	if config.PacketWidth != 1 && !vi.Widths().Has(config.PacketWidth) {
		return nil, fmt.Errorf("%w: packet width %d not enabled (have %s)", ErrInvalidConfig, config.PacketWidth, vi.Widths())
	}
	if config.NumWorkers <= 0 {
		config.NumWorkers = runtime.NumCPU()
	}
	config.LightDirection = config.LightDirection.Normalize()

	accel, err := bvh.Build(scene, vi, logger)
	if err != nil {
		return nil, fmt.Errorf("renderer: %w", err)
	}

	return &Raytracer{
		scene:  scene,
		camera: camera,
		bvh:    accel,
		config: config,
		logger: logger,
	}, nil
}

// Render renders the full image with a pool of tile workers
func (rt *Raytracer) Render(ctx context.Context) (*image.RGBA, RenderStats, error) {
	return rt.RenderTiles(ctx, nil)
}

// TileCallback is called once per finished tile, in completion order, from the
// goroutine that called RenderTiles. The tile's pixels in img are final.
type TileCallback func(tile *Tile, img *image.RGBA, stats RenderStats)

// RenderTiles renders the full image like Render and reports every tile as
// soon as it is done
func (rt *Raytracer) RenderTiles(ctx context.Context, onTile TileCallback) (*image.RGBA, RenderStats, error) {
	start := time.Now()
	img := image.NewRGBA(image.Rect(0, 0, rt.config.Width, rt.config.Height))
	tiles := NewTileGrid(rt.config.Width, rt.config.Height, rt.config.TileSize)

	pool := NewWorkerPool(rt, img, rt.config.NumWorkers, len(tiles))
	pool.Start(ctx)
	for i, tile := range tiles {
		pool.SubmitTask(TileTask{Tile: tile, TaskID: i})
	}

	stats := RenderStats{PacketWidth: rt.config.PacketWidth}
	var errs []error
	for range tiles {
		result, _ := pool.GetResult()
		if result.Error != nil {
			errs = append(errs, fmt.Errorf("tile %d: %w", result.TaskID, result.Error))
			continue
		}
		stats.add(result.Stats)
		if onTile != nil {
			onTile(tiles[result.TaskID], img, result.Stats)
		}
	}
	pool.Stop()
	stats.finalize(time.Since(start))

	if len(errs) > 0 {
		return img, stats, errors.Join(errs...)
	}

	rt.logger.Infof("rendered %dx%d in %d tiles on %d workers, %d-wide packets: %.1f%% hits, %.0f rays/s",
		rt.config.Width, rt.config.Height, stats.Tiles, pool.GetNumWorkers(), rt.config.PacketWidth,
		100*stats.HitRatio(), stats.RaysPerSecond)
	return img, stats, nil
}

// TraceRays finds the closest hit of every ray, spreading the work over
// NumWorkers goroutines
func (rt *Raytracer) TraceRays(ctx context.Context, rays []core.Ray) ([]core.RayHit, error) {
	results := make([]core.RayHit, len(rays))
	for i, ray := range rays {
		results[i] = core.NewRayHit(ray)
	}

	err := rt.forEachChunk(ctx, len(rays), func(qctx *intersect.Context, lo, hi int) {
		for i := lo; i < hi; i++ {
			rt.bvh.Intersect(qctx, &results[i])
		}
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// OccludedRays reports for every ray whether anything blocks it
func (rt *Raytracer) OccludedRays(ctx context.Context, rays []core.Ray) ([]bool, error) {
	occluded := make([]bool, len(rays))

	err := rt.forEachChunk(ctx, len(rays), func(qctx *intersect.Context, lo, hi int) {
		for i := lo; i < hi; i++ {
			ray := rays[i]
			occluded[i] = rt.bvh.Occluded(qctx, &ray)
		}
	})
	if err != nil {
		return nil, err
	}
	return occluded, nil
}

// forEachChunk runs fn over [0,n) in chunks, one query context per chunk
func (rt *Raytracer) forEachChunk(ctx context.Context, n int, fn func(qctx *intersect.Context, lo, hi int)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rt.config.NumWorkers)

	for lo := 0; lo < n; lo += traceChunk {
		lo := lo
		hi := min(lo+traceChunk, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(intersect.NewContext(rt.scene), lo, hi)
			return nil
		})
	}
	return g.Wait()
}

// Config returns the effective configuration
func (rt *Raytracer) Config() Config {
	return rt.config
}

// NumPrimitives returns the number of primitives in the acceleration structure
func (rt *Raytracer) NumPrimitives() int {
	return rt.bvh.NumPrimitives()
}
