package renderer

import (
	"context"
	"image"
	"testing"

	"github.com/df07/go-curve-kernels/pkg/core"
)

func TestNewTileGrid(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		tileSize      int
		expectedTiles int
		lastBounds    image.Rectangle
	}{
		{"exact fit", 64, 32, 32, 2, image.Rect(32, 0, 64, 32)},
		{"partial edge tiles", 100, 70, 32, 12, image.Rect(96, 64, 100, 70)},
		{"tile larger than image", 10, 10, 64, 1, image.Rect(0, 0, 10, 10)},
		{"zero tile size", 30, 20, 0, 1, image.Rect(0, 0, 30, 20)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tiles := NewTileGrid(tt.width, tt.height, tt.tileSize)
			if len(tiles) != tt.expectedTiles {
				t.Fatalf("Expected %d tiles, got %d", tt.expectedTiles, len(tiles))
			}

			covered := 0
			for i, tile := range tiles {
				if tile.ID != i {
					t.Errorf("Expected tile ID %d, got %d", i, tile.ID)
				}
				covered += tile.Bounds.Dx() * tile.Bounds.Dy()
			}
			if covered != tt.width*tt.height {
				t.Errorf("Expected tiles to cover %d pixels, got %d", tt.width*tt.height, covered)
			}
			if last := tiles[len(tiles)-1].Bounds; last != tt.lastBounds {
				t.Errorf("Expected last tile %v, got %v", tt.lastBounds, last)
			}
		})
	}
}

func TestTileRenderer_BoundsClipping(t *testing.T) {
	rt := newTestRaytracer(t, sceneOf(t, sphere{core.NewVec3(0, 0, 0), 1}), smallConfig(4))
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	bounds := image.Rect(8, 8, 13, 11)

	stats := NewTileRenderer(rt).RenderTile(bounds, img)
	if stats.TotalPixels != 15 || stats.PrimaryRays != 15 {
		t.Errorf("Expected 15 pixels and rays, got %d and %d", stats.TotalPixels, stats.PrimaryRays)
	}

	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			written := img.RGBAAt(x, y).A != 0
			if inside := image.Pt(x, y).In(bounds); written != inside {
				t.Fatalf("Pixel (%d,%d): expected written=%v, got %v", x, y, inside, written)
			}
		}
	}
}

func TestWorkerPool_RendersEveryTask(t *testing.T) {
	rt := newTestRaytracer(t, sceneOf(t, sphere{core.NewVec3(0, 0, 0), 1}), smallConfig(1))
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	tiles := NewTileGrid(40, 30, 16)

	pool := NewWorkerPool(rt, img, 2, len(tiles))
	if pool.GetNumWorkers() != 2 {
		t.Errorf("Expected 2 workers, got %d", pool.GetNumWorkers())
	}
	pool.Start(context.Background())
	for i, tile := range tiles {
		pool.SubmitTask(TileTask{Tile: tile, TaskID: i})
	}
	pool.Stop()

	seen := make(map[int]bool)
	pixels := 0
	for {
		result, ok := pool.GetResult()
		if !ok {
			break
		}
		if result.Error != nil {
			t.Errorf("Task %d: unexpected error: %v", result.TaskID, result.Error)
		}
		seen[result.TaskID] = true
		pixels += result.Stats.TotalPixels
	}

	if len(seen) != len(tiles) || pixels != 40*30 {
		t.Errorf("Expected %d tasks covering %d pixels, got %d tasks and %d pixels", len(tiles), 40*30, len(seen), pixels)
	}
}
