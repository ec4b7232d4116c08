package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/vrnd369/theubc-admin-api/config"
	httpx "github.com/vrnd369/theubc-admin-api/internal/http"
	"github.com/vrnd369/theubc-admin-api/internal/ports"
	"github.com/vrnd369/theubc-admin-api/internal/service"
)

// HTTPServerDeps contains dependencies for the HTTP server.
type HTTPServerDeps struct {
	Config   *config.AppConfig
	Auth     *service.AuthService
	Identity ports.IdentitySource
	Logger   *slog.Logger
}

// RunHTTPServer starts the HTTP server and blocks until ctx is cancelled or
// a shutdown signal arrives, then drains gracefully within the configured
// shutdown timeout.
func RunHTTPServer(ctx context.Context, deps HTTPServerDeps) error {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	handler := httpx.NewRouter(httpx.RouterServices{
		Auth:     deps.Auth,
		Identity: deps.Identity,
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:              deps.Config.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: deps.Config.HTTP.ReadHeaderTimeout,
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(sigCtx)

	g.Go(func() error {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), deps.Config.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
