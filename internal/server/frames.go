// Package server defines the wire frames exchanged with clients. Every
// frame is a single JSON document with a mandatory "type" discriminator;
// the inbound and outbound sets are both closed.
package server

import "time"

// Inbound frame types. The gateway switch over these is exhaustive;
// anything else is rejected with an error frame.
const (
	frameJoin           = "join"
	frameMessage        = "message"
	framePrivateMessage = "private_message"
	frameTyping         = "typing"
	frameSwitchRoom     = "switch_room"
	frameCreateRoom     = "create_room"
	frameReact          = "react_to_message"
	framePinMessage     = "pin_message"
	frameDeleteMessage  = "delete_message"
	frameEditMessage    = "edit_message"
	frameUpdateStatus   = "update_status"
	frameGetOnlineUsers = "get_online_users"
)

// Outbound frame types not covered by a record's own Type field.
const (
	frameConnectionEstablished = "connection_established"
	frameRoomList              = "room_list"
	frameMessageHistory        = "message_history"
	framePinnedMessages        = "pinned_messages"
	frameUserJoined            = "user_joined"
	frameUserList              = "user_list"
	frameMessageReaction       = "message_reaction"
	frameMessagePinned         = "message_pinned"
	frameMessageDeleted        = "message_deleted"
	frameMessageEdited         = "message_edited"
	frameRoomCreated           = "room_created"
	frameOnlineUsers           = "online_users"
	frameUserLeft              = "user_left"
	frameError                 = "error"
)

// inboundFrame is the union of all client command fields. Which fields
// are meaningful depends on Type.
type inboundFrame struct {
	Type string `json:"type"`

	// join
	UserID   string `json:"userId,omitempty"`
	Username string `json:"username,omitempty"`
	Avatar   string `json:"avatar,omitempty"`

	// message / typing / switch_room / react / pin / delete / edit
	RoomID     string `json:"roomId,omitempty"`
	Content    string `json:"content,omitempty"`
	ReplyTo    string `json:"replyTo,omitempty"`
	IsTyping   bool   `json:"isTyping,omitempty"`
	MessageID  string `json:"messageId,omitempty"`
	Emoji      string `json:"emoji,omitempty"`
	NewContent string `json:"newContent,omitempty"`

	// private_message
	ToUserID string `json:"toUserId,omitempty"`

	// create_room
	RoomName    string `json:"roomName,omitempty"`
	Description string `json:"description,omitempty"`
	IsPrivate   bool   `json:"isPrivate,omitempty"`

	// update_status
	Status Status `json:"status,omitempty"`
}

// userSummary is the compact user shape carried by join/leave events.
type userSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// userPresence is the user shape carried by user_list and online_users.
type userPresence struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Status   Status    `json:"status"`
	Avatar   string    `json:"avatar"`
	LastSeen time.Time `json:"lastSeen"`
}

func summaryOf(u *User) userSummary {
	return userSummary{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}

func presenceOf(u *User) userPresence {
	return userPresence{
		ID:       u.ID,
		Username: u.Username,
		Status:   u.Status,
		Avatar:   u.Avatar,
		LastSeen: u.LastSeen,
	}
}

type connectionEstablishedFrame struct {
	Type   string      `json:"type"`
	UserID string      `json:"userId"`
	User   userSummary `json:"user"`
}

type roomListFrame struct {
	Type  string     `json:"type"`
	Rooms []RoomInfo `json:"rooms"`
}

type messageHistoryFrame struct {
	Type     string     `json:"type"`
	Messages []*Message `json:"messages"`
	RoomID   string     `json:"roomId"`
}

type pinnedMessagesFrame struct {
	Type     string          `json:"type"`
	Messages []PinnedMessage `json:"messages"`
	RoomID   string          `json:"roomId"`
}

type userJoinedFrame struct {
	Type      string      `json:"type"`
	User      userSummary `json:"user"`
	RoomID    string      `json:"roomId"`
	Timestamp time.Time   `json:"timestamp"`
}

type userListFrame struct {
	Type   string         `json:"type"`
	Users  []userPresence `json:"users"`
	RoomID string         `json:"roomId"`
}

type typingFrame struct {
	Type     string `json:"type"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
	RoomID   string `json:"roomId"`
}

type messageReactionFrame struct {
	Type      string              `json:"type"`
	MessageID string              `json:"messageId"`
	Reactions map[string][]string `json:"reactions"`
	RoomID    string              `json:"roomId"`
}

type messagePinnedFrame struct {
	Type     string   `json:"type"`
	Message  *Message `json:"message"`
	PinnedBy string   `json:"pinnedBy"`
	RoomID   string   `json:"roomId"`
}

type messageDeletedFrame struct {
	Type      string `json:"type"`
	MessageID string `json:"messageId"`
	RoomID    string `json:"roomId"`
}

type messageEditedFrame struct {
	Type       string `json:"type"`
	MessageID  string `json:"messageId"`
	NewContent string `json:"newContent"`
	RoomID     string `json:"roomId"`
}

type roomCreatedFrame struct {
	Type    string   `json:"type"`
	Room    RoomInfo `json:"room"`
	Creator string   `json:"creator"`
}

type onlineUsersFrame struct {
	Type  string         `json:"type"`
	Users []userPresence `json:"users"`
}

type userLeftFrame struct {
	Type      string      `json:"type"`
	User      userSummary `json:"user"`
	Timestamp time.Time   `json:"timestamp"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
