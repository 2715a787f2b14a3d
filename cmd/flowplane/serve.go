package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/alecthomas/kingpin/v2"

	"github.com/flowplane/flowplane/internal/api"
	"github.com/flowplane/flowplane/internal/config"
	"github.com/flowplane/flowplane/internal/repository"
	"github.com/flowplane/flowplane/internal/xds"
)

// httpAdminServer runs the admin API's http.Server with graceful shutdown
// on context cancellation, the same pattern server.go's gRPC side gets from
// grpcServer.GracefulStop(), applied to net/http.
type httpAdminServer struct {
	addr    string
	handler http.Handler
	log     *slog.Logger
}

func (h *httpAdminServer) run(ctx context.Context) error {
	srv := &http.Server{Addr: h.addr, Handler: h.handler}

	go func() {
		<-ctx.Done()
		h.log.Info("shutting down admin API")
		_ = srv.Shutdown(context.Background())
	}()

	h.log.Info("admin API listening", "addr", h.addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// serveContext holds the flags registerServe binds, mirroring the shape of
// contour's serveContext: a small set of overrides layered on top of the
// env-var-sourced config.Config.
type serveContext struct {
	Token string
	Debug bool
}

func registerServe(app *kingpin.Application) (*kingpin.CmdClause, *serveContext) {
	var ctx serveContext
	serve := app.Command("serve", "Run the admin API and xDS server.")
	serve.Flag("admin-token", "Bearer token required on the admin REST API. Empty disables the check.").
		Envar("FLOWPLANE_ADMIN_TOKEN").StringVar(&ctx.Token)
	serve.Flag("debug", "Enable debug-level logging.").BoolVar(&ctx.Debug)
	return serve, &ctx
}

// doServe runs the admin API and the ADS server until a shutdown signal
// arrives. Exit codes: 1 for a configuration error, 2 for a startup I/O or
// bind error.
func doServe(log *slog.Logger, serveCtx *serveContext) int {
	if serveCtx.Debug {
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load config", "error", err)
		return 1
	}
	log.Info("config loaded", "xds_addr", cfg.XDSAddr, "api_addr", cfg.APIAddr,
		"default_team", cfg.DefaultTeam, "shared_team", cfg.SharedTeam)

	repo := repository.New(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info("received shutdown signal")
		cancel()
	}()

	xdsServer := xds.NewServer(ctx, repo, cfg, log)
	adminServer := api.NewServer(repo, cfg, log, serveCtx.Token)

	httpServer := &httpAdminServer{addr: cfg.APIAddr, handler: adminServer.Router(), log: log}

	var wg sync.WaitGroup
	wg.Add(1)
	var httpErr error
	go func() {
		defer wg.Done()
		httpErr = httpServer.run(ctx)
	}()

	xdsErr := xdsServer.Serve(ctx, cfg.XDSAddr)
	wg.Wait()

	if xdsErr != nil {
		log.Error("ADS server failed", "error", xdsErr)
		return 2
	}
	if httpErr != nil {
		log.Error("admin API failed", "error", httpErr)
		return 2
	}
	return 0
}
