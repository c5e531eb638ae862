package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/df07/go-curve-kernels/pkg/bvh"
	"github.com/df07/go-curve-kernels/pkg/core"
	"github.com/df07/go-curve-kernels/pkg/intersect"
	"github.com/df07/go-curve-kernels/pkg/scene"
)

// Trace a single ray through a scene and report the closest hit, whether the
// ray is occluded and the surface point closest to the ray origin.
func Probe(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing scene name or .pbrt file argument")
	}

	sc, err := scene.Load(ctx.Args().First())
	if err != nil {
		return err
	}

	origin, err := parseVec3(ctx.String("origin"))
	if err != nil {
		return fmt.Errorf("invalid origin: %w", err)
	}
	direction, err := parseVec3(ctx.String("dir"))
	if err != nil {
		return fmt.Errorf("invalid direction: %w", err)
	}
	if direction.Length() == 0 {
		return errors.New("invalid direction: zero length")
	}

	accel, err := bvh.Build(sc.Geometry, intersect.NewVirtualIntersector(intersectConfig(ctx), logger), logger)
	if err != nil {
		return err
	}
	qctx := intersect.NewContext(sc.Geometry)

	ray := core.NewRay(origin, direction)
	ray.Time = ctx.Float64("time")
	rh := core.NewRayHit(ray)
	accel.Intersect(qctx, &rh)

	shadow := ray
	occluded := accel.Occluded(qctx, &shadow)

	query := intersect.PointQuery{Point: origin, Radius: ctx.Float64("radius"), Time: ray.Time}
	closest := intersect.NewPointQueryResult()
	accel.PointQuery(qctx, &query, &closest)

	displayProbe(rh, occluded, closest)
	return nil
}

// parseVec3 parses "x,y,z"
func parseVec3(s string) (core.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return core.Vec3{}, fmt.Errorf("expected x,y,z, got %q", s)
	}

	var v [3]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return core.Vec3{}, err
		}
		v[i] = f
	}
	return core.NewVec3(v[0], v[1], v[2]), nil
}

func displayProbe(rh core.RayHit, occluded bool, closest intersect.PointQueryResult) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Query", "Geom", "Prim", "Distance", "U", "V", "Point", "Normal"})

	if rh.Hit.Valid() {
		table.Append([]string{
			"intersect",
			fmt.Sprintf("%d", rh.Hit.GeomID),
			fmt.Sprintf("%d", rh.Hit.PrimID),
			fmt.Sprintf("%.6f", rh.Ray.TFar),
			fmt.Sprintf("%.4f", rh.Hit.U),
			fmt.Sprintf("%.4f", rh.Hit.V),
			formatVec3(rh.Ray.At(rh.Ray.TFar)),
			formatVec3(rh.Hit.Ng.Normalize()),
		})
	} else {
		table.Append([]string{"intersect", "-", "-", formatFloat(math.Inf(1)), "-", "-", "-", "-"})
	}

	if closest.Found() {
		table.Append([]string{
			"closest point",
			fmt.Sprintf("%d", closest.GeomID),
			fmt.Sprintf("%d", closest.PrimID),
			fmt.Sprintf("%.6f", closest.Distance),
			fmt.Sprintf("%.4f", closest.U),
			"-",
			formatVec3(closest.Point),
			"-",
		})
	} else {
		table.Append([]string{"closest point", "-", "-", "-", "-", "-", "-", "-"})
	}
	table.SetFooter([]string{"", "", "", "", "", "", "OCCLUDED", fmt.Sprintf("%t", occluded)})

	table.Render()
	logger.Noticef("probe results\n%s", buf.String())
}

func formatVec3(v core.Vec3) string {
	return fmt.Sprintf("(%.4f, %.4f, %.4f)", v.X, v.Y, v.Z)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', 6, 64)
}
