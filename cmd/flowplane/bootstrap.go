package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kingpin/v2"

	"github.com/flowplane/flowplane/internal/bootstrap"
	"github.com/flowplane/flowplane/internal/config"
)

// bootstrapContext holds the flags registerBootstrap binds, the same shape
// as contour's registerBootstrap/envoy.BootstrapConfig pair, trimmed to
// what flowplane's Bootstrap Generator actually takes: a team,
// an output format, and optional mTLS material paths.
type bootstrapContext struct {
	Path       string
	Team       string
	Format     string
	ClientCert string
	ClientKey  string
	CABundle   string
}

func registerBootstrap(app *kingpin.Application) (*kingpin.CmdClause, *bootstrapContext) {
	var ctx bootstrapContext
	cmd := app.Command("bootstrap", "Generate an Envoy bootstrap configuration for a team.")
	cmd.Arg("path", "Output file path ('-' for standard output).").Required().StringVar(&ctx.Path)
	cmd.Flag("team", "Team the bootstrap's ADS node will identify as.").Required().StringVar(&ctx.Team)
	cmd.Flag("format", "Output format: yaml or json.").Default("yaml").EnumVar(&ctx.Format, "yaml", "json")
	cmd.Flag("client-cert", "Client certificate file for Envoy's upstream mTLS to the ADS endpoint.").StringVar(&ctx.ClientCert)
	cmd.Flag("client-key", "Client key file for Envoy's upstream mTLS to the ADS endpoint.").StringVar(&ctx.ClientKey)
	cmd.Flag("ca-bundle", "CA bundle file validating flowplane's ADS server certificate.").StringVar(&ctx.CABundle)
	return cmd, &ctx
}

// doBootstrap runs the Bootstrap Generator standalone and writes the result
// to bootstrapCtx.Path (or stdout for "-"), for operators who want a
// bootstrap file without hitting the admin REST endpoint.
func doBootstrap(log *slog.Logger, bootstrapCtx *bootstrapContext) int {
	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load config", "error", err)
		return 1
	}

	mtls := bootstrap.MTLS{
		ClientCertPath: bootstrapCtx.ClientCert,
		ClientKeyPath:  bootstrapCtx.ClientKey,
		CABundlePath:   bootstrapCtx.CABundle,
	}

	out, err := bootstrap.Generate(cfg, bootstrapCtx.Team, bootstrap.Format(bootstrapCtx.Format), mtls)
	if err != nil {
		log.Error("failed to generate bootstrap", "error", err)
		return 1
	}

	if bootstrapCtx.Path == "-" {
		if _, err := os.Stdout.Write(out); err != nil {
			log.Error("failed to write bootstrap to stdout", "error", err)
			return 2
		}
		return 0
	}

	if err := os.WriteFile(bootstrapCtx.Path, out, 0o644); err != nil {
		log.Error("failed to write bootstrap file", "path", bootstrapCtx.Path, "error", err)
		return 2
	}
	return 0
}
