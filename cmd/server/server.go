package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// shutdownTimeout bounds graceful shutdown of in-flight requests.
const shutdownTimeout = 10 * time.Second

// startHTTPServer starts the HTTP server and shuts it down gracefully when
// ctx is cancelled. Returns an error if the server fails to start or stop.
func (app *application) startHTTPServer(ctx context.Context, router http.Handler) error {
	// Configure and create HTTP server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine to allow for graceful shutdown
	serverErr := make(chan error, 1)
	go func() {
		app.logger.Info("Starting server", "port", app.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for shutdown signal or a failed listener
	select {
	case err := <-serverErr:
		if err != nil {
			app.cleanup()
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		app.logger.Info("Shutting down server...")
	}

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("Server shutdown failed", "error", err)
		app.cleanup()
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Run application cleanup
	app.cleanup()

	app.logger.Info("Server shutdown completed")
	return nil
}
