// Shared helpers for the server package tests. Gateway tests drive the
// hub through handleFrame with in-memory clients, reading the frames
// queued on each client's send channel.
package server

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestClient attaches a client to the hub without a real connection
// or pump goroutines; outbound frames accumulate on the buffered send
// channel.
func newTestClient(t *testing.T, h *Hub) *Client {
	t.Helper()
	c := &Client{
		send:           make(chan []byte, 256),
		hub:            h,
		addr:           "test",
		maxMessageSize: 4096,
	}
	h.addClient(c)
	return c
}

// drainFrames decodes every frame currently buffered for the client.
func drainFrames(t *testing.T, c *Client) []map[string]any {
	t.Helper()
	var frames []map[string]any
	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				return frames
			}
			var frame map[string]any
			require.NoError(t, json.Unmarshal(payload, &frame))
			frames = append(frames, frame)
		default:
			return frames
		}
	}
}

// framesOfType filters frames by their type discriminator.
func framesOfType(frames []map[string]any, frameType string) []map[string]any {
	var matched []map[string]any
	for _, frame := range frames {
		if frame["type"] == frameType {
			matched = append(matched, frame)
		}
	}
	return matched
}

// requireFrame asserts exactly one frame of the given type is present
// and returns it.
func requireFrame(t *testing.T, frames []map[string]any, frameType string) map[string]any {
	t.Helper()
	matched := framesOfType(frames, frameType)
	require.Len(t, matched, 1, "expected exactly one %q frame", frameType)
	return matched[0]
}

// sendFrame marshals the given fields into an inbound frame and
// dispatches it as the client.
func sendFrame(t *testing.T, h *Hub, c *Client, fields map[string]any) {
	t.Helper()
	raw, err := json.Marshal(fields)
	require.NoError(t, err)
	h.handleFrame(c, raw)
}

// joinAs runs the join handshake for the client and returns the
// assigned user id. The initial burst (connection_established,
// room_list, message_history, pinned_messages, user_list) is consumed
// and verified on the way.
func joinAs(t *testing.T, h *Hub, c *Client, username, roomID string) string {
	t.Helper()
	fields := map[string]any{"type": "join", "username": username}
	if roomID != "" {
		fields["roomId"] = roomID
	}
	sendFrame(t, h, c, fields)

	frames := drainFrames(t, c)
	established := requireFrame(t, frames, "connection_established")
	requireFrame(t, frames, "room_list")
	requireFrame(t, frames, "message_history")
	requireFrame(t, frames, "pinned_messages")

	userID, ok := established["userId"].(string)
	require.True(t, ok, "connection_established carries the user id")
	require.NotEmpty(t, userID)
	return userID
}

// mustString pulls a string field out of a decoded frame.
func mustString(t *testing.T, frame map[string]any, key string) string {
	t.Helper()
	value, ok := frame[key].(string)
	require.True(t, ok, fmt.Sprintf("field %q is not a string", key))
	return value
}
