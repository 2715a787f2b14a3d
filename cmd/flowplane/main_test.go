package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kingpin/v2"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegisterServeBindsAdminTokenFlag(t *testing.T) {
	app := kingpin.New("flowplane", "")
	cmd, ctx := registerServe(app)
	_, err := app.Parse([]string{"serve", "--admin-token=secret"})
	require.NoError(t, err)
	require.Equal(t, "serve", cmd.FullCommand())
	require.Equal(t, "secret", ctx.Token)
}

func TestRegisterBootstrapRequiresTeamAndPath(t *testing.T) {
	app := kingpin.New("flowplane", "")
	registerBootstrap(app)
	_, err := app.Parse([]string{"bootstrap", "-"})
	require.Error(t, err)

	app = kingpin.New("flowplane", "")
	registerBootstrap(app)
	_, err = app.Parse([]string{"bootstrap", "--team=checkout"})
	require.Error(t, err)
}

func TestRegisterBootstrapRejectsUnknownFormat(t *testing.T) {
	app := kingpin.New("flowplane", "")
	registerBootstrap(app)
	_, err := app.Parse([]string{"bootstrap", "--team=checkout", "--format=xml", "-"})
	require.Error(t, err)
}

func TestDoBootstrapWritesFile(t *testing.T) {
	app := kingpin.New("flowplane", "")
	cmd, ctx := registerBootstrap(app)
	path := filepath.Join(t.TempDir(), "bootstrap.yaml")
	_, err := app.Parse([]string{"bootstrap", "--team=checkout", path})
	require.NoError(t, err)
	require.Equal(t, "bootstrap", cmd.FullCommand())

	code := doBootstrap(testLogger(), ctx)
	require.Equal(t, 0, code)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, data)
}

func TestDoBootstrapMissingTeamFailsGeneration(t *testing.T) {
	ctx := &bootstrapContext{Path: "-", Team: "", Format: "yaml"}
	code := doBootstrap(testLogger(), ctx)
	require.Equal(t, 1, code)
}
