package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/vk/closegraph/internal/ctxlog"
)

// shutdownGrace bounds how long in-flight requests may run after a stop
// signal before the server is torn down.
const shutdownGrace = 5 * time.Second

// Run starts the HTTP server and blocks until the context is cancelled or
// the listener fails.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	server := &http.Server{
		Addr:    a.cfg.Server.ListenAddr,
		Handler: a.handler.Router(),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting.", "address", a.cfg.Server.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("Shutdown signal received, draining requests.")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	a.logger.Info("HTTP server stopped.")
	return nil
}
