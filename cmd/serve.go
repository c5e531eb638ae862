package cmd

import (
	"github.com/urfave/cli"

	"github.com/df07/go-curve-kernels/web/server"
)

// Serve the render and inspect API over HTTP.
func Serve(ctx *cli.Context) error {
	setupLogging(ctx)

	webServer := server.NewServer(ctx.Int("port"), ctx.String("static"), intersectConfig(ctx))
	logger.Noticef("visit http://localhost:%d to start rendering", ctx.Int("port"))
	return webServer.Start()
}
