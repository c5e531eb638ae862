package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/df07/go-curve-kernels/pkg/intersect"
	"github.com/df07/go-curve-kernels/pkg/renderer"
	"github.com/df07/go-curve-kernels/pkg/scene"
)

// Render a still frame.
func RenderFrame(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing scene name or .pbrt file argument")
	}
	sceneName := ctx.Args().First()

	sc, err := scene.Load(sceneName)
	if err != nil {
		return err
	}

	config := renderConfig(ctx, sc)
	cam := sc.CameraConfig
	cam.Width = config.Width
	cam.AspectRatio = float64(config.Width) / float64(config.Height)

	vi := intersect.NewVirtualIntersector(intersectConfig(ctx), logger)

	start := time.Now()
	rt, err := renderer.NewRaytracer(sc.Geometry, renderer.NewCamera(cam), vi, config, logger)
	if err != nil {
		return err
	}
	logger.Infof("built acceleration structure over %d primitives in %s", rt.NumPrimitives(), time.Since(start))

	renderCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Noticef("rendering %q at %dx%d", sceneName, config.Width, config.Height)
	frame, stats, err := rt.Render(renderCtx)
	if err != nil {
		return err
	}

	imgFile := ctx.String("out")
	if imgFile == "" {
		imgFile = filepath.Join(createOutputDir(sceneName), fmt.Sprintf("render_%s.png", time.Now().Format("20060102_150405")))
	}
	if err := os.MkdirAll(filepath.Dir(imgFile), 0o755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}

	f, err := os.Create(imgFile)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := png.Encode(f, frame); err != nil {
		return fmt.Errorf("error encoding png file: %w", err)
	}
	logger.Noticef("wrote frame to %s", imgFile)

	displayRenderStats(stats, renderer.CalculateAverageLuminance(frame))
	return nil
}

// renderConfig merges the command flags over the renderer defaults. A zero
// width or height falls back to the scene's own image size.
func renderConfig(ctx *cli.Context, sc *scene.Scene) renderer.Config {
	config := renderer.DefaultConfig()
	config.Width = sc.Width
	config.Height = sc.Height
	if w := ctx.Int("width"); w > 0 {
		config.Width = w
	}
	if h := ctx.Int("height"); h > 0 {
		config.Height = h
	}
	config.TileSize = ctx.Int("tile-size")
	config.NumWorkers = ctx.Int("workers")
	config.PacketWidth = ctx.Int("packet-width")
	config.Time = ctx.Float64("time")
	config.Ambient = ctx.Float64("ambient")
	return config
}

// intersectConfig caps the detected packet widths with the max-width flag
func intersectConfig(ctx *cli.Context) intersect.Config {
	config := intersect.DefaultConfig()
	if limit := ctx.Int("max-width"); limit > 0 {
		config.Widths = config.Widths.Cap(limit)
	}
	if segments := ctx.Int("curve-segments"); segments > 0 {
		config.CurveSegments = segments
	}
	return config
}

// createOutputDir returns output/<scene> where scene is a built-in name or the
// base name of a .pbrt file
func createOutputDir(sceneName string) string {
	base := sceneName
	if strings.HasSuffix(strings.ToLower(sceneName), ".pbrt") {
		base = strings.TrimSuffix(filepath.Base(sceneName), filepath.Ext(sceneName))
	}
	if base == "" {
		base = "scene"
	}
	return filepath.Join("output", base)
}

func displayRenderStats(stats renderer.RenderStats, luminance float64) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Pixels", "Tiles", "Packet", "Primary", "Hits", "Shadow", "Occluded", "Luminance"})
	table.Append([]string{
		fmt.Sprintf("%d", stats.TotalPixels),
		fmt.Sprintf("%d", stats.Tiles),
		fmt.Sprintf("%d", stats.PacketWidth),
		fmt.Sprintf("%d", stats.PrimaryRays),
		fmt.Sprintf("%02.1f %%", 100*stats.HitRatio()),
		fmt.Sprintf("%d", stats.ShadowRays),
		fmt.Sprintf("%d", stats.OccludedRays),
		fmt.Sprintf("%.3f", luminance),
	})
	table.SetFooter([]string{"", "", "", "", "", "", fmt.Sprintf("%.0f rays/s", stats.RaysPerSecond), stats.Duration.String()})

	table.Render()
	logger.Noticef("frame statistics\n%s", buf.String())
}
