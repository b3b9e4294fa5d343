package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/TWRT/board-sync/internal/api"
	"github.com/TWRT/board-sync/internal/api/handlers"
	"github.com/TWRT/board-sync/internal/config"
)

// ListenAndServe runs the API until ctx is done or the process gets SIGINT or
// SIGTERM, then shuts down within the configured timeout.
func (a *App) ListenAndServe(ctx context.Context) error {
	httpCfg := a.Config.HTTP
	if a.Config.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := handlers.NewHandler(a.Logger, a.Tasks, a.Contacts, a.Auth, a.RateLimit, a.Requests)
	server := &http.Server{
		Addr:    net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler: api.SetupRouter(handler, a.Logger),
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			a.Logger.Error().Err(err).Msg("failed to listen and serve http")
			return err
		}
	case <-ctx.Done():
	}

	a.Logger.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error().Err(err).Msg("failed to shutdown http server")
		return err
	}
	a.Logger.Info().Msg("shut down http server")
	return nil
}
