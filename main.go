package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli"

	"github.com/df07/go-curve-kernels/cmd"
	"github.com/df07/go-curve-kernels/pkg/scene"
)

// intersectFlags configure the intersector dispatch table
var intersectFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "max-width",
		Value: 0,
		Usage: "widest ray packet to enable (4, 8 or 16); 0 uses every width the CPU supports",
	},
	cli.IntFlag{
		Name:  "curve-segments",
		Value: 0,
		Usage: "linear segments per cubic curve; 0 uses the default",
	},
}

func newApp() *cli.App {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "curvetrace"
	app.Usage = "trace rays against curves, lines and points"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render a still frame",
			Description: `
Render a built-in scene or a .pbrt file with diffuse shading and hard shadows
from a directional light. Built-in scenes: ` + strings.Join(scene.BuiltinNames(), ", ") + `.`,
			ArgsUsage: "scene_name_or_file.pbrt",
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "width",
					Usage: "frame width; 0 uses the scene's width",
				},
				cli.IntFlag{
					Name:  "height",
					Usage: "frame height; 0 uses the scene's height",
				},
				cli.IntFlag{
					Name:  "tile-size",
					Value: 32,
					Usage: "tile edge in pixels",
				},
				cli.IntFlag{
					Name:  "workers",
					Value: 0,
					Usage: "number of render workers; 0 uses every CPU",
				},
				cli.IntFlag{
					Name:  "packet-width",
					Value: 4,
					Usage: "rays traced together (1, 4, 8 or 16)",
				},
				cli.Float64Flag{
					Name:  "time",
					Value: 0,
					Usage: "motion blur time of every ray in [0,1]",
				},
				cli.Float64Flag{
					Name:  "ambient",
					Value: 0.15,
					Usage: "light reaching shadowed surfaces",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: "",
					Usage: "image filename for the rendered frame; defaults to output/<scene>/render_<timestamp>.png",
				},
			}, intersectFlags...),
			Action: cmd.RenderFrame,
		},
		{
			Name:        "probe",
			Usage:       "trace a single ray",
			Description: `Report the closest hit of one ray, whether it is occluded and the closest surface point to its origin.`,
			ArgsUsage:   "scene_name_or_file.pbrt",
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "origin",
					Value: "0,0,5",
					Usage: "ray origin as x,y,z",
				},
				cli.StringFlag{
					Name:  "dir",
					Value: "0,0,-1",
					Usage: "ray direction as x,y,z",
				},
				cli.Float64Flag{
					Name:  "time",
					Value: 0,
					Usage: "motion blur time of the ray in [0,1]",
				},
				cli.Float64Flag{
					Name:  "radius",
					Value: 10,
					Usage: "search radius of the closest point query",
				},
			}, intersectFlags...),
			Action: cmd.Probe,
		},
		{
			Name:  "serve",
			Usage: "serve the render and inspect API over HTTP",
			Description: `
Start a web server with /api/render streaming finished tiles as server-sent
events, /api/inspect reporting the primitive under a pixel and /api/scenes
listing the built-in scenes.`,
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "port, p",
					Value: 8080,
					Usage: "port to serve on",
				},
				cli.StringFlag{
					Name:  "static",
					Value: "static/",
					Usage: "directory of static files served at /; empty disables it",
				},
			}, intersectFlags...),
			Action: cmd.Serve,
		},
		{
			Name:   "kernels",
			Usage:  "list enabled packet widths and the intersector serving each geometry type",
			Flags:  intersectFlags,
			Action: cmd.ListKernels,
		},
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
