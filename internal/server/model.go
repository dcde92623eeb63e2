// Package server defines the shared chat records exchanged between the
// registries, the stores, and the wire protocol.
package server

import "time"

// Status is a user's presence state.
type Status string

// The four presence states a user can report.
const (
	StatusOnline  Status = "online"
	StatusAway    Status = "away"
	StatusBusy    Status = "busy"
	StatusOffline Status = "offline"
)

// ValidStatus reports whether s is one of the recognized presence states.
func ValidStatus(s Status) bool {
	switch s {
	case StatusOnline, StatusAway, StatusBusy, StatusOffline:
		return true
	}
	return false
}

// User is the identity bound to a live session. Avatar is an opaque
// reference; the server never touches its bytes.
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Status      Status    `json:"status"`
	Avatar      string    `json:"avatar"`
	CurrentRoom string    `json:"currentRoom"`
	JoinedAt    time.Time `json:"joinedAt"`
	LastSeen    time.Time `json:"lastSeen"`
}

// Room is a named channel. The member set holds user ids with a live
// session only; disconnects and room switches prune it synchronously.
type Room struct {
	ID          string
	Name        string
	Description string
	IsPrivate   bool
	CreatedBy   string
	CreatedAt   time.Time

	members map[string]struct{}
}

// RoomInfo is the room metadata shape sent in room_list and
// room_created frames.
type RoomInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	UserCount   int    `json:"userCount"`
	IsPrivate   bool   `json:"isPrivate"`
}

// Info snapshots the room's broadcastable metadata.
func (r *Room) Info() RoomInfo {
	return RoomInfo{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		UserCount:   len(r.members),
		IsPrivate:   r.IsPrivate,
	}
}

// Message is a chat message record. The id is stable for the record's
// lifetime; edits and deletes mutate the record in place. Author name
// and avatar are snapshots taken at send time. The Type field makes the
// stored record double as its own broadcast frame.
type Message struct {
	ID        string              `json:"id"`
	Type      string              `json:"type"`
	UserID    string              `json:"userId"`
	Username  string              `json:"username"`
	Avatar    string              `json:"avatar"`
	Content   string              `json:"content"`
	RoomID    string              `json:"roomId"`
	Timestamp time.Time           `json:"timestamp"`
	Reactions map[string][]string `json:"reactions"`
	ReplyTo   string              `json:"replyTo,omitempty"`
	IsEdited  bool                `json:"isEdited"`
	EditedAt  *time.Time          `json:"editedAt,omitempty"`
	IsDeleted bool                `json:"isDeleted,omitempty"`
	DeletedAt *time.Time          `json:"deletedAt,omitempty"`
}

// PinnedEntry references a pinned message within a room. The message
// record itself stays in the room history; the entry only records who
// pinned it and when.
type PinnedEntry struct {
	MessageID string
	PinnedBy  string
	PinnedAt  time.Time
}

// PinnedMessage is the resolved wire shape of a pinned entry: the live
// message record plus the pin metadata.
type PinnedMessage struct {
	*Message
	PinnedBy string    `json:"pinnedBy"`
	PinnedAt time.Time `json:"pinnedAt"`
}

// PrivateMessage is one entry in a pair conversation log. Like Message,
// the record doubles as the delivered frame.
type PrivateMessage struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	FromUserID   string    `json:"fromUserId"`
	ToUserID     string    `json:"toUserId"`
	FromUsername string    `json:"fromUsername"`
	ToUsername   string    `json:"toUsername,omitempty"`
	Content      string    `json:"content"`
	Timestamp    time.Time `json:"timestamp"`
	IsRead       bool      `json:"isRead"`
}
