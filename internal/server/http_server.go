// Package server constructs and starts the chat relay HTTP service
// with helpers that apply sensible production defaults.
package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"chat-relay/internal/logger"
)

// CreateServer creates an HTTP server with the specified port and
// handler and reasonable timeouts. The WebSocket handler hijacks the
// connection on upgrade, so these timeouts only bound the HTTP phase.
func CreateServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// StartHub starts the global hub loop. Call before starting the HTTP
// server.
func StartHub() {
	go hub.Run()
	logger.Log.Info("hub started")
}

// StartServer starts the HTTP server and blocks until it exits.
func StartServer(server *http.Server) error {
	logger.Log.Info("server listening", zap.String("addr", server.Addr))
	return server.ListenAndServe()
}

// ShutdownServer gracefully shuts down the HTTP server, waiting for
// active connections up to the timeout.
func ShutdownServer(server *http.Server, timeout time.Duration) error {
	logger.Log.Info("shutting down HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Log.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}

	logger.Log.Info("HTTP server shutdown completed")
	return nil
}
