package server

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeOrigin(t *testing.T) {
	tests := []struct {
		name   string
		origin string
		want   string
		ok     bool
	}{
		{"lowercase passthrough", "http://localhost:8080", "http://localhost:8080", true},
		{"mixed case lowered", "HTTPS://Chat.Example.COM", "https://chat.example.com", true},
		{"path stripped", "https://chat.example.com/app", "https://chat.example.com", true},
		{"missing scheme", "chat.example.com", "", false},
		{"garbage", "://nope", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := normalizeOrigin(tt.origin)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeOrigins(t *testing.T) {
	normalized, allowAll := normalizeOrigins([]string{
		"  http://localhost:3000 ",
		"",
		"invalid origin",
		"HTTP://App.Example.com",
	})

	assert.False(t, allowAll)
	assert.Equal(t, []string{"http://localhost:3000", "http://app.example.com"}, normalized)

	_, allowAll = normalizeOrigins([]string{"*"})
	assert.True(t, allowAll)

	normalized, allowAll = normalizeOrigins(nil)
	assert.False(t, allowAll)
	assert.Nil(t, normalized)
}

func TestCheckOriginAllowList(t *testing.T) {
	defer SetConfig(nil)
	SetConfig(&Config{AllowedOrigins: []string{"https://chat.example.com"}})

	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Origin", "HTTPS://CHAT.EXAMPLE.COM")
	assert.True(t, checkOrigin(r), "allow-list match is case insensitive")

	r = httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, checkOrigin(r))

	r = httptest.NewRequest("GET", "/ws", nil)
	assert.False(t, checkOrigin(r), "missing Origin header is rejected")

	r = httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Origin", "not a url")
	assert.False(t, checkOrigin(r))
}

func TestCheckOriginWildcard(t *testing.T) {
	defer SetConfig(nil)
	SetConfig(&Config{AllowedOrigins: []string{"*"}})

	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Origin", "https://anywhere.example.com")
	require.True(t, checkOrigin(r))

	r = httptest.NewRequest("GET", "/ws", nil)
	assert.False(t, checkOrigin(r), "wildcard still requires an Origin header")
}
