// Package server holds small utility helpers shared across client and
// hub logic.
package server

import "strings"

// isExpectedCloseError checks whether an error is routine during
// connection closure and not worth logging at warn level.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
