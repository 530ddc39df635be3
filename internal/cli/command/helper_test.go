package command

import (
	"bytes"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/snapback/internal/core/service"
	"github.com/yndnr/snapback/internal/server/httpserver"
	"github.com/yndnr/snapback/internal/storage"
	"github.com/yndnr/snapback/internal/storage/memory"
)

// newTestServer starts a snapback HTTP server backed by a memory store.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store := memory.New()
	cfg := httpserver.DefaultRouterConfig()
	cfg.Users = service.NewUserService(store)
	cfg.Engine = storage.EngineMemory
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg.RateLimitRPS = 0

	srv := httptest.NewServer(httpserver.NewRouter(cfg))
	t.Cleanup(srv.Close)
	return srv
}

// run executes the CLI against server and returns stdout and stderr.
func run(t *testing.T, server string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	app := App()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.ExitErrHandler = func(*cli.Context, error) {}

	argv := append([]string{"snapback-cli", "--server", server}, args...)
	err := app.Run(argv)
	return stdout.String(), stderr.String(), err
}
