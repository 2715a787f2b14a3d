// Command flowplane is the control plane binary: an ADS gRPC server, an
// admin REST API, and the one-shot bootstrap generator, split into kingpin
// subcommands the way contour splits serve/bootstrap/cli off one
// Application.
package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kingpin/v2"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	app := kingpin.New("flowplane", "Envoy control plane: OpenAPI-to-xDS compiler and delivery engine.")
	app.HelpFlag.Short('h')

	serveCmd, serveCtx := registerServe(app)
	bootstrapCmd, bootstrapCtx := registerBootstrap(app)

	cmd, err := app.Parse(os.Args[1:])
	if err != nil {
		app.Errorf("%v", err)
		os.Exit(1)
	}

	switch cmd {
	case serveCmd.FullCommand():
		os.Exit(doServe(log, serveCtx))
	case bootstrapCmd.FullCommand():
		os.Exit(doBootstrap(log, bootstrapCtx))
	default:
		app.Usage(os.Args[1:])
		os.Exit(2)
	}
}
