// Package server wires HTTP handlers into a ServeMux for the chat
// relay.
package server

import "net/http"

// SetupRoutes configures and returns an HTTP ServeMux with the health
// check and WebSocket endpoints.
func SetupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", HealthHandler)
	mux.HandleFunc("/ws", WebSocketHandler)
	return mux
}
