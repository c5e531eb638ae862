package renderer

import (
	"image"
	"time"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	TotalPixels   int           // Total number of pixels rendered
	PrimaryRays   int           // Camera rays traced
	ShadowRays    int           // Occlusion rays traced toward the light
	Hits          int           // Primary rays that hit geometry
	OccludedRays  int           // Shadow rays that were blocked
	PacketWidth   int           // Lanes per traced packet, 1 for single rays
	Tiles         int           // Tiles rendered
	Duration      time.Duration // Wall time of the render
	RaysPerSecond float64       // Primary and shadow rays per second
}

// add merges the counters of a tile into s
func (s *RenderStats) add(other RenderStats) {
	s.TotalPixels += other.TotalPixels
	s.PrimaryRays += other.PrimaryRays
	s.ShadowRays += other.ShadowRays
	s.Hits += other.Hits
	s.OccludedRays += other.OccludedRays
	s.Tiles++
}

// finalize computes the derived rates
func (s *RenderStats) finalize(elapsed time.Duration) {
	s.Duration = elapsed
	if seconds := elapsed.Seconds(); seconds > 0 {
		s.RaysPerSecond = float64(s.PrimaryRays+s.ShadowRays) / seconds
	}
}

// HitRatio returns the fraction of primary rays that hit geometry
func (s RenderStats) HitRatio() float64 {
	if s.PrimaryRays == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.PrimaryRays)
}

// CalculateAverageLuminance returns the mean Rec. 709 luminance of img in [0,1]
func CalculateAverageLuminance(img *image.RGBA) float64 {
	bounds := img.Bounds()
	pixels := bounds.Dx() * bounds.Dy()
	if pixels == 0 {
		return 0
	}

	total := 0.0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.RGBAAt(x, y)
			total += 0.2126*float64(c.R)/255 + 0.7152*float64(c.G)/255 + 0.0722*float64(c.B)/255
		}
	}
	return total / float64(pixels)
}
