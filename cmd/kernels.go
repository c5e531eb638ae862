package cmd

import (
	"bytes"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/df07/go-curve-kernels/pkg/geometry"
	"github.com/df07/go-curve-kernels/pkg/intersect"
)

// List the packet widths enabled on this machine and the intersector family
// serving every geometry type.
func ListKernels(ctx *cli.Context) error {
	setupLogging(ctx)

	config := intersectConfig(ctx)
	vi := intersect.NewVirtualIntersector(config, logger)
	widths := vi.Widths()

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Type", "Static", "Motion blur"})
	for _, t := range geometry.BaseTypes() {
		table.Append([]string{
			t.String(),
			vi.Slot(t).Name,
			vi.Slot(t | geometry.MotionBlur).Name,
		})
	}
	table.SetFooter([]string{"", "WIDTHS", widths.String()})

	table.Render()
	logger.Noticef("intersector table (%s=%q, widest packet %d, %d curve segments)\n%s",
		intersect.MaxWidthEnv, os.Getenv(intersect.MaxWidthEnv), widths.Max(), config.CurveSegments, buf.String())
	return nil
}
