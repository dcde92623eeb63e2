package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	HealthHandler(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "running")
}

func TestWebSocketHandlerRejectsNonGet(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/ws", nil)
	w := httptest.NewRecorder()

	WebSocketHandler(w, r)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestSetupRoutes(t *testing.T) {
	mux := SetupRoutes()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)

	r = httptest.NewRequest(http.MethodPost, "/ws", nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

// TestNewClient verifies the client picks up the configured read limit
// and exposes a buffered send channel.
func TestNewClient(t *testing.T) {
	defer SetConfig(nil)
	SetConfig(&Config{MaxMessageSize: 2048})

	h := NewHub()
	c := NewClient(nil, h, "127.0.0.1:12345")

	require.NotNil(t, c)
	assert.NotNil(t, c.GetSendChan())
	assert.Equal(t, int64(2048), c.maxMessageSize)
}

func TestCreateServer(t *testing.T) {
	mux := SetupRoutes()
	srv := CreateServer(":0", mux)

	require.NotNil(t, srv)
	assert.Equal(t, ":0", srv.Addr)
	assert.NotNil(t, srv.Handler)
}
