// Package server runs a Start/Shutdown service under a context with
// graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Service is anything with a blocking Start and a context-bounded
// Shutdown. internal/http.Server satisfies it.
type Service interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// Run starts the service and blocks until the context is cancelled or
// the service fails.
//
// On cancellation it performs graceful shutdown bounded by
// shutdownTimeout and returns http.ErrServerClosed. Any other returned
// error is a startup or shutdown failure.
//
// Example:
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//
//	if err := server.Run(ctx, srv, 10*time.Second); err != nil && err != http.ErrServerClosed {
//	    log.Fatalf("server error: %v", err)
//	}
func Run(ctx context.Context, svc Service, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)

	go func() {
		if err := svc.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server start: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := svc.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}

		return http.ErrServerClosed
	}
}
