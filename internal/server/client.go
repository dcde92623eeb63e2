// Package server manages individual WebSocket clients, handling the
// read/write pumps and lifecycle control for each connection.
package server

import (
	"errors"
	"io"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chat-relay/internal/logger"
)

const (
	pongWait      = 60 * time.Second
	pingInterval  = 54 * time.Second
	writeDeadline = 10 * time.Second
)

// Client is one WebSocket connection. The gateway owns the connection
// for I/O; the hub references the client for registration and fan-out.
type Client struct {
	conn           *websocket.Conn
	send           chan []byte
	hub            *Hub
	addr           string
	closed         bool
	maxMessageSize int64
}

// NewClient creates a Client for the given connection. The send channel
// is buffered so broadcast fan-out never blocks on a slow peer.
func NewClient(conn *websocket.Conn, hub *Hub, addr string) *Client {
	cfg := currentConfig()
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}

	return &Client{
		conn:           conn,
		send:           make(chan []byte, 256),
		hub:            hub,
		addr:           addr,
		maxMessageSize: cfg.MaxMessageSize,
	}
}

// GetSendChan returns the client's outbound frame channel.
func (c *Client) GetSendChan() <-chan []byte {
	return c.send
}

func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logger.Log.Warn("error setting read deadline",
			zap.String("addr", c.addr), zap.Error(err))
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			logger.Log.Warn("error setting read deadline in pong handler",
				zap.String("addr", c.addr), zap.Error(err))
		}
		return nil
	})
}

// handleReadError logs the read failure and reports whether the read
// loop should stop. Any error ends the connection; the distinction is
// only in how it is logged.
func (c *Client) handleReadError(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		logger.Log.Warn("frame exceeded maximum size",
			zap.String("addr", c.addr), zap.Int64("max_bytes", c.maxMessageSize))
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		logger.Log.Info("client disconnected",
			zap.String("addr", c.addr), zap.Error(err))
	case errors.Is(err, io.EOF), isExpectedCloseError(err):
		logger.Log.Info("client connection closed",
			zap.String("addr", c.addr), zap.Error(err))
	default:
		logger.Log.Warn("websocket read error",
			zap.String("addr", c.addr), zap.Error(err))
	}
	return true
}

// readPump reads inbound frames and hands them to the hub's gateway
// dispatch. When the transport closes the connection transitions to
// terminated: the pump unregisters the client, which runs the full
// membership and presence cascade.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			logger.Log.Warn("error closing connection in readPump",
				zap.String("addr", c.addr), zap.Error(err))
		}
	}()

	c.setupReadConnection()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if c.handleReadError(err) {
				break
			}
			continue
		}
		c.hub.handleFrame(c, raw)
	}
}

// writePump drains the send channel to the connection, one frame per
// WebSocket message, and keeps the connection alive with periodic
// pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			logger.Log.Warn("error closing connection in writePump",
				zap.String("addr", c.addr), zap.Error(err))
		}
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if !c.writeFrame(payload, ok) {
				return
			}
		case <-ticker.C:
			if !c.writePing() {
				return
			}
		}
	}
}

// writeFrame writes one outbound frame, or the close message when the
// send channel has been closed. Returns false when the pump should
// stop.
func (c *Client) writeFrame(payload []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
		logger.Log.Warn("error setting write deadline",
			zap.String("addr", c.addr), zap.Error(err))
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil && !isExpectedCloseError(err) {
			logger.Log.Warn("error writing close message",
				zap.String("addr", c.addr), zap.Error(err))
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		logger.Log.Warn("error writing frame",
			zap.String("addr", c.addr), zap.Error(err))
		return false
	}
	return true
}

func (c *Client) writePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
		logger.Log.Warn("error setting write deadline for ping",
			zap.String("addr", c.addr), zap.Error(err))
		return false
	}
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		logger.Log.Warn("error writing ping",
			zap.String("addr", c.addr), zap.Error(err))
		return false
	}
	return true
}
