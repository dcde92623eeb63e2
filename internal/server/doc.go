// Package server implements the chat relay core: the connection
// gateway, session and room registries, message and conversation
// stores, and the broadcast engine.
//
// The implementation is organized into specialized files for the hub,
// gateway dispatch, registries, stores, clients, configuration, and
// HTTP wiring to keep the codebase maintainable and testable.
package server
