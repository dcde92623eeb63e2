// Package server dispatches inbound frames to the registries and
// stores, implementing the per-connection state machine: a connection
// is unauthenticated until a well-formed join binds a session, active
// until the transport closes, and terminated after the disconnect
// cascade runs.
package server

import (
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"chat-relay/internal/logger"
)

// handleFrame parses one inbound frame and routes it. Malformed JSON
// gets an error frame and the connection stays open; commands sent
// before join are rejected with an error frame; unknown types are
// rejected explicitly and logged.
func (h *Hub) handleFrame(c *Client, raw []byte) {
	var f inboundFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		logger.Log.Warn("malformed frame",
			zap.String("addr", c.addr), zap.Error(err))
		h.sendError(c, "failed to process message")
		return
	}

	if f.Type == frameJoin {
		h.handleJoin(c, &f)
		return
	}

	h.mu.RLock()
	sess := h.sessions.ByClient(c)
	h.mu.RUnlock()
	if sess == nil {
		h.sendError(c, "join required")
		return
	}

	switch f.Type {
	case frameMessage:
		h.handleMessage(sess, &f)
	case framePrivateMessage:
		h.handlePrivateMessage(c, sess, &f)
	case frameTyping:
		h.handleTyping(sess, &f)
	case frameSwitchRoom:
		h.handleSwitchRoom(c, sess, &f)
	case frameCreateRoom:
		h.handleCreateRoom(c, sess, &f)
	case frameReact:
		h.handleReact(sess, &f)
	case framePinMessage:
		h.handlePin(sess, &f)
	case frameDeleteMessage:
		h.handleDelete(c, sess, &f)
	case frameEditMessage:
		h.handleEdit(c, sess, &f)
	case frameUpdateStatus:
		h.handleUpdateStatus(c, sess, &f)
	case frameGetOnlineUsers:
		h.handleGetOnlineUsers(c)
	default:
		logger.Log.Warn("unknown frame type",
			zap.String("addr", c.addr), zap.String("type", f.Type))
		h.sendError(c, "unknown message type: "+f.Type)
	}
}

func (h *Hub) sendError(c *Client, message string) {
	h.deliver([]*Client{c}, marshalFrame(errorFrame{Type: frameError, Message: message}))
}

// handleJoin binds a session to the connection and delivers the initial
// burst: connection_established, the room list, the target room's
// history tail and pinned messages, then a user_joined broadcast and a
// membership refresh for the room. An unknown or missing room id lands
// the user in the default room.
func (h *Hub) handleJoin(c *Client, f *inboundFrame) {
	if f.Username == "" {
		h.sendError(c, "username required")
		return
	}

	h.mu.Lock()
	if h.sessions.ByClient(c) != nil {
		h.mu.Unlock()
		h.sendError(c, "already joined")
		return
	}
	if f.UserID != "" && h.sessions.ByUser(f.UserID) != nil {
		h.mu.Unlock()
		h.sendError(c, "user id already connected")
		return
	}

	roomID := f.RoomID
	if roomID == "" || h.rooms.Get(roomID) == nil {
		roomID = DefaultRoomID
	}

	sess := h.sessions.Register(c, f.UserID, f.Username, f.Avatar, roomID)
	user := sess.User
	h.rooms.Join(roomID, user.ID)

	selfFrames := [][]byte{
		marshalFrame(connectionEstablishedFrame{
			Type:   frameConnectionEstablished,
			UserID: user.ID,
			User:   summaryOf(user),
		}),
		marshalFrame(roomListFrame{Type: frameRoomList, Rooms: h.rooms.List()}),
		marshalFrame(messageHistoryFrame{
			Type:     frameMessageHistory,
			Messages: h.store.HistoryTail(roomID, HistoryLimit),
			RoomID:   roomID,
		}),
		marshalFrame(pinnedMessagesFrame{
			Type:     framePinnedMessages,
			Messages: h.store.Pinned(roomID),
			RoomID:   roomID,
		}),
	}
	fanout := []delivery{
		{
			targets: h.roomRecipientsLocked(roomID, user.ID),
			payload: marshalFrame(userJoinedFrame{
				Type:      frameUserJoined,
				User:      summaryOf(user),
				RoomID:    roomID,
				Timestamp: time.Now().UTC(),
			}),
		},
		h.userListDeliveryLocked(roomID),
	}
	h.mu.Unlock()

	for _, payload := range selfFrames {
		h.deliver([]*Client{c}, payload)
	}
	h.fanout(fanout)

	logger.Log.Info("user joined",
		zap.String("user_id", user.ID),
		zap.String("username", user.Username),
		zap.String("room_id", roomID))
}

// handleMessage appends a chat message and broadcasts the stored record
// to the room. Messages to nonexistent rooms are ignored.
func (h *Hub) handleMessage(sess *Session, f *inboundFrame) {
	h.mu.Lock()
	if h.rooms.Get(f.RoomID) == nil {
		h.mu.Unlock()
		return
	}
	msg := h.store.Append(f.RoomID, sess.User, f.Content, f.ReplyTo)
	d := delivery{
		targets: h.roomRecipientsLocked(f.RoomID, ""),
		payload: marshalFrame(msg),
	}
	h.mu.Unlock()

	h.fanout([]delivery{d})
}

// handlePrivateMessage records the message in the pair's conversation
// log and pushes it to both participants. An offline recipient still
// gets the message recorded; only delivery is skipped.
func (h *Hub) handlePrivateMessage(c *Client, sess *Session, f *inboundFrame) {
	if f.ToUserID == "" {
		h.sendError(c, "recipient required")
		return
	}

	h.mu.Lock()
	var toUsername string
	targets := []*Client{c}
	if to := h.sessions.ByUser(f.ToUserID); to != nil {
		toUsername = to.User.Username
		if to.Client != c {
			targets = append(targets, to.Client)
		}
	}
	pm := h.conversations.Append(sess.User, f.ToUserID, toUsername, f.Content)
	payload := marshalFrame(pm)
	h.mu.Unlock()

	h.deliver(targets, payload)
}

// handleTyping relays a typing indicator to the room, excluding the
// typist.
func (h *Hub) handleTyping(sess *Session, f *inboundFrame) {
	h.mu.RLock()
	d := delivery{
		targets: h.roomRecipientsLocked(f.RoomID, sess.User.ID),
		payload: marshalFrame(typingFrame{
			Type:     frameTyping,
			UserID:   sess.User.ID,
			Username: sess.User.Username,
			IsTyping: f.IsTyping,
			RoomID:   f.RoomID,
		}),
	}
	h.mu.RUnlock()

	h.fanout([]delivery{d})
}

// handleSwitchRoom moves the user between rooms: membership leaves the
// old room (with a user_list refresh there), joins the new one, and the
// mover receives the new room's history and pinned messages. Switching
// to a nonexistent room is ignored.
func (h *Hub) handleSwitchRoom(c *Client, sess *Session, f *inboundFrame) {
	h.mu.Lock()
	if h.rooms.Get(f.RoomID) == nil {
		h.mu.Unlock()
		return
	}
	user := sess.User

	var fanout []delivery
	if user.CurrentRoom != "" && user.CurrentRoom != f.RoomID {
		h.rooms.Leave(user.CurrentRoom, user.ID)
		fanout = append(fanout, h.userListDeliveryLocked(user.CurrentRoom))
	}

	user.CurrentRoom = f.RoomID
	h.rooms.Join(f.RoomID, user.ID)

	selfFrames := [][]byte{
		marshalFrame(messageHistoryFrame{
			Type:     frameMessageHistory,
			Messages: h.store.HistoryTail(f.RoomID, HistoryLimit),
			RoomID:   f.RoomID,
		}),
		marshalFrame(pinnedMessagesFrame{
			Type:     framePinnedMessages,
			Messages: h.store.Pinned(f.RoomID),
			RoomID:   f.RoomID,
		}),
	}
	fanout = append(fanout, h.userListDeliveryLocked(f.RoomID))
	h.mu.Unlock()

	for _, payload := range selfFrames {
		h.deliver([]*Client{c}, payload)
	}
	h.fanout(fanout)
}

// handleCreateRoom registers the room and announces it to every
// connected session. The announcement is deliberately global even for
// private rooms; the flag only drives client-side filtering.
func (h *Hub) handleCreateRoom(c *Client, sess *Session, f *inboundFrame) {
	if f.RoomName == "" {
		h.sendError(c, "room name required")
		return
	}

	h.mu.Lock()
	room := h.rooms.Create(f.RoomName, f.Description, f.IsPrivate, sess.User.ID)
	d := delivery{
		targets: h.allRecipientsLocked(""),
		payload: marshalFrame(roomCreatedFrame{
			Type:    frameRoomCreated,
			Room:    room.Info(),
			Creator: sess.User.Username,
		}),
	}
	h.mu.Unlock()

	h.fanout([]delivery{d})

	logger.Log.Info("room created",
		zap.String("room_id", room.ID),
		zap.String("creator_id", sess.User.ID),
		zap.Bool("private", room.IsPrivate))
}

// handleReact toggles the user's reaction and broadcasts the updated
// reaction map. Unknown message ids are ignored.
func (h *Hub) handleReact(sess *Session, f *inboundFrame) {
	h.mu.Lock()
	reactions, err := h.store.React(f.RoomID, f.MessageID, sess.User.ID, f.Emoji)
	if err != nil {
		h.mu.Unlock()
		return
	}
	d := delivery{
		targets: h.roomRecipientsLocked(f.RoomID, ""),
		payload: marshalFrame(messageReactionFrame{
			Type:      frameMessageReaction,
			MessageID: f.MessageID,
			Reactions: reactions,
			RoomID:    f.RoomID,
		}),
	}
	h.mu.Unlock()

	h.fanout([]delivery{d})
}

// handlePin pins the message once per message id. A duplicate pin and
// an unknown message id are both silent no-ops.
func (h *Hub) handlePin(sess *Session, f *inboundFrame) {
	h.mu.Lock()
	msg, err := h.store.Pin(f.RoomID, f.MessageID, sess.User.Username)
	if err != nil {
		h.mu.Unlock()
		return
	}
	d := delivery{
		targets: h.roomRecipientsLocked(f.RoomID, ""),
		payload: marshalFrame(messagePinnedFrame{
			Type:     frameMessagePinned,
			Message:  msg,
			PinnedBy: sess.User.Username,
			RoomID:   f.RoomID,
		}),
	}
	h.mu.Unlock()

	h.fanout([]delivery{d})
}

// handleDelete soft-deletes the user's own message. Author mismatch is
// rejected with an error frame; unknown ids are ignored.
func (h *Hub) handleDelete(c *Client, sess *Session, f *inboundFrame) {
	h.mu.Lock()
	_, err := h.store.SoftDelete(f.RoomID, f.MessageID, sess.User.ID)
	if err != nil {
		h.mu.Unlock()
		if errors.Is(err, ErrNotAuthor) {
			h.sendError(c, "only the author can delete a message")
		}
		return
	}
	d := delivery{
		targets: h.roomRecipientsLocked(f.RoomID, ""),
		payload: marshalFrame(messageDeletedFrame{
			Type:      frameMessageDeleted,
			MessageID: f.MessageID,
			RoomID:    f.RoomID,
		}),
	}
	h.mu.Unlock()

	h.fanout([]delivery{d})
}

// handleEdit rewrites the user's own message in place. Author mismatch
// is rejected with an error frame; unknown ids are ignored.
func (h *Hub) handleEdit(c *Client, sess *Session, f *inboundFrame) {
	h.mu.Lock()
	_, err := h.store.Edit(f.RoomID, f.MessageID, sess.User.ID, f.NewContent)
	if err != nil {
		h.mu.Unlock()
		if errors.Is(err, ErrNotAuthor) {
			h.sendError(c, "only the author can edit a message")
		}
		return
	}
	d := delivery{
		targets: h.roomRecipientsLocked(f.RoomID, ""),
		payload: marshalFrame(messageEditedFrame{
			Type:       frameMessageEdited,
			MessageID:  f.MessageID,
			NewContent: f.NewContent,
			RoomID:     f.RoomID,
		}),
	}
	h.mu.Unlock()

	h.fanout([]delivery{d})
}

// handleUpdateStatus records the new presence state and refreshes the
// user_list of every room the user belongs to.
func (h *Hub) handleUpdateStatus(c *Client, sess *Session, f *inboundFrame) {
	if !ValidStatus(f.Status) {
		h.sendError(c, "invalid status")
		return
	}

	h.mu.Lock()
	h.sessions.UpdateStatus(sess.User.ID, f.Status)
	var fanout []delivery
	for _, roomID := range h.rooms.RoomsOf(sess.User.ID) {
		fanout = append(fanout, h.userListDeliveryLocked(roomID))
	}
	h.mu.Unlock()

	h.fanout(fanout)
}

// handleGetOnlineUsers replies to the requester with a point-in-time
// snapshot of every live session's presence.
func (h *Hub) handleGetOnlineUsers(c *Client) {
	h.mu.RLock()
	payload := marshalFrame(onlineUsersFrame{
		Type:  frameOnlineUsers,
		Users: h.sessions.Snapshot(),
	})
	h.mu.RUnlock()

	h.deliver([]*Client{c}, payload)
}
