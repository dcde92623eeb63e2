// Package server coordinates sessions, rooms, message state, and event
// fan-out for the chat relay via the Hub type.
package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"chat-relay/internal/logger"
)

// Hub owns every piece of shared chat state: the client set, the
// session and room registries, the message store, and the private
// conversation logs. One RWMutex serializes all mutations, which gives
// each room's message sequence and member set a total order; fan-out
// happens after the lock is released so a slow peer never stalls
// unrelated rooms.
type Hub struct {
	mu sync.RWMutex

	clients       map[*Client]bool
	sessions      *SessionRegistry
	rooms         *RoomRegistry
	store         *MessageStore
	conversations *ConversationStore

	register   chan *Client
	unregister chan *Client
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub creates a Hub with the bootstrap rooms in place and no
// connected clients.
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:       make(map[*Client]bool),
		sessions:      NewSessionRegistry(),
		rooms:         NewRoomRegistry(),
		store:         NewMessageStore(),
		conversations: NewConversationStore(),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
	}
}

// GetRegisterChan returns the channel used for registering new clients.
func (h *Hub) GetRegisterChan() chan<- *Client {
	return h.register
}

// GetUnregisterChan returns the channel used for unregistering clients.
func (h *Hub) GetUnregisterChan() chan<- *Client {
	return h.unregister
}

// Run starts the hub's lifecycle loop, handling client registration and
// the disconnect cascade. Call it in its own goroutine; it runs until
// Shutdown cancels the hub context.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				logger.Log.Warn("nil client registration skipped")
				continue
			}
			h.addClient(client)

			h.wg.Add(2)
			go func() {
				defer h.wg.Done()
				client.writePump()
			}()
			go func() {
				defer h.wg.Done()
				client.readPump()
			}()

		case client := <-h.unregister:
			h.dropClient(client)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	client.closed = false
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()
	logger.Log.Info("client connected",
		zap.String("addr", client.addr),
		zap.Int("total_clients", total))
}

// dropClient runs the terminated-state cascade: the client leaves every
// room it belonged to (one user_list rebroadcast per room), the user
// goes offline with a fresh last-seen, one global user_left fires, and
// the session is removed. Safe to call for clients that never joined.
func (h *Hub) dropClient(client *Client) {
	h.mu.Lock()

	var closeSend bool
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.closed = true
		closeSend = true
	}

	var fanout []delivery
	sess := h.sessions.ByClient(client)
	if sess != nil {
		user := sess.User
		for _, roomID := range h.rooms.RoomsOf(user.ID) {
			h.rooms.Leave(roomID, user.ID)
			fanout = append(fanout, h.userListDeliveryLocked(roomID))
		}

		user.Status = StatusOffline
		user.LastSeen = time.Now().UTC()
		h.sessions.Remove(user.ID)

		fanout = append(fanout, delivery{
			targets: h.allRecipientsLocked(""),
			payload: marshalFrame(userLeftFrame{
				Type:      frameUserLeft,
				User:      summaryOf(user),
				Timestamp: time.Now().UTC(),
			}),
		})
		logger.Log.Info("user disconnected",
			zap.String("user_id", user.ID),
			zap.String("username", user.Username))
	}
	total := len(h.clients)
	h.mu.Unlock()

	if closeSend {
		close(client.send)
		logger.Log.Info("client unregistered",
			zap.String("addr", client.addr),
			zap.Int("total_clients", total))
	}
	h.fanout(fanout)
}

// delivery pairs one marshaled frame with its recipients.
type delivery struct {
	targets []*Client
	payload []byte
}

func (h *Hub) fanout(deliveries []delivery) {
	for _, d := range deliveries {
		h.deliver(d.targets, d.payload)
	}
}

// deliver sends one payload to each target best-effort. A recipient
// whose buffer is full or whose channel is gone is logged and dropped
// from the client set; delivery to the rest continues and no error
// reaches the originating requester.
func (h *Hub) deliver(targets []*Client, payload []byte) {
	if payload == nil {
		return
	}
	var failed []*Client
	for _, client := range targets {
		if !h.safeSend(client, payload) {
			failed = append(failed, client)
		}
	}
	h.removeFailedClients(failed)
}

func (h *Hub) safeSend(client *Client, payload []byte) bool {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Warn("recovered from panic in safeSend", zap.Any("panic", r))
		}
	}()

	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, exists := h.clients[client]; !exists || client.closed {
		return false
	}

	select {
	case client.send <- payload:
		return true
	default:
		return false
	}
}

func (h *Hub) removeFailedClients(failed []*Client) {
	if len(failed) == 0 {
		return
	}

	h.mu.Lock()
	var channelsToClose []chan []byte
	for _, client := range failed {
		if _, exists := h.clients[client]; exists {
			delete(h.clients, client)
			client.closed = true
			channelsToClose = append(channelsToClose, client.send)
			logger.Log.Warn("client dropped, send buffer full",
				zap.String("addr", client.addr))
		}
	}
	h.mu.Unlock()

	for _, ch := range channelsToClose {
		close(ch)
	}
}

// roomRecipientsLocked resolves the room's member set to live clients,
// skipping excludeUserID when given. Caller holds the hub lock.
func (h *Hub) roomRecipientsLocked(roomID, excludeUserID string) []*Client {
	members := h.rooms.Members(roomID)
	targets := make([]*Client, 0, len(members))
	for _, userID := range members {
		if userID == excludeUserID {
			continue
		}
		if sess := h.sessions.ByUser(userID); sess != nil {
			targets = append(targets, sess.Client)
		}
	}
	return targets
}

// allRecipientsLocked resolves every live session to its client,
// skipping excludeUserID when given. Caller holds the hub lock.
func (h *Hub) allRecipientsLocked(excludeUserID string) []*Client {
	targets := make([]*Client, 0, h.sessions.Len())
	for _, sess := range h.sessions.byUser {
		if sess.User.ID == excludeUserID {
			continue
		}
		targets = append(targets, sess.Client)
	}
	return targets
}

// userListDeliveryLocked builds the user_list broadcast for a room from
// current membership and presence. Caller holds the hub lock.
func (h *Hub) userListDeliveryLocked(roomID string) delivery {
	members := h.rooms.Members(roomID)
	users := make([]userPresence, 0, len(members))
	for _, userID := range members {
		if sess := h.sessions.ByUser(userID); sess != nil {
			users = append(users, presenceOf(sess.User))
		}
	}
	return delivery{
		targets: h.roomRecipientsLocked(roomID, ""),
		payload: marshalFrame(userListFrame{Type: frameUserList, Users: users, RoomID: roomID}),
	}
}

// marshalFrame serializes an outbound frame. Frames are plain structs
// of marshal-safe fields; a failure indicates a programming error and
// yields a nil payload that deliver skips.
func marshalFrame(frame any) []byte {
	payload, err := json.Marshal(frame)
	if err != nil {
		logger.Log.Error("frame marshal failed", zap.Error(err))
		return nil
	}
	return payload
}

// shutdownClients closes every active connection during hub shutdown.
func (h *Hub) shutdownClients() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	for _, client := range clients {
		if client.conn != nil {
			if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
				logger.Log.Warn("error closing client connection",
					zap.String("addr", client.addr), zap.Error(err))
			}
		}
	}

	logger.Log.Info("closed client connections", zap.Int("count", len(clients)))
}

// Shutdown stops the hub and waits for the pump goroutines to finish,
// up to the given timeout.
func (h *Hub) Shutdown(timeout time.Duration) error {
	logger.Log.Info("initiating hub shutdown")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Log.Info("hub shutdown completed")
		return nil
	case <-time.After(timeout):
		logger.Log.Warn("hub shutdown timeout reached")
		return context.DeadlineExceeded
	}
}

var hub = NewHub()

// GetHub returns the process-wide hub instance for shutdown
// coordination.
func GetHub() *Hub {
	return hub
}
