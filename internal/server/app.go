package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/sofianehd/linkup/internal/config"
	"github.com/sofianehd/linkup/internal/storage"
)

// App coordinates the HTTP listener, request routing, and storage lifecycle.
type App struct {
	cfg     config.ServerConfig
	store   storage.Store
	handler http.Handler
}

// NewApp constructs a server instance using the provided dependencies.
func NewApp(cfg config.ServerConfig, store storage.Store) *App {
	a := &App{cfg: cfg, store: store}
	a.handler = withAccessLog(a.routes())
	return a
}

// Handler exposes the routed handler, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run serves HTTP until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	if err := a.store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := os.MkdirAll(a.cfg.Uploads.Dir, 0o755); err != nil {
		return fmt.Errorf("uploads dir: %w", err)
	}

	srv := &http.Server{
		Addr:         a.cfg.ListenAddr,
		Handler:      a.handler,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}
