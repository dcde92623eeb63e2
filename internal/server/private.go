// Package server keeps per-pair private conversation logs, independent
// of rooms.
package server

import (
	"time"

	"github.com/google/uuid"
)

// ConversationStore maps a symmetric pair key to an ordered private
// message log. Access is serialized by the hub lock.
type ConversationStore struct {
	conversations map[string][]*PrivateMessage
}

// NewConversationStore returns an empty store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{conversations: make(map[string][]*PrivateMessage)}
}

// ConversationKey derives the canonical key for a pair of user ids.
// The ids are sorted before joining, so Key(a, b) == Key(b, a).
func ConversationKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "-" + b
}

// Append records a private message in the pair's conversation log and
// returns it for delivery. The log is written regardless of whether the
// recipient currently has a live session; liveness only gates delivery.
func (s *ConversationStore) Append(from *User, toUserID, toUsername, content string) *PrivateMessage {
	msg := &PrivateMessage{
		ID:           uuid.NewString(),
		Type:         framePrivateMessage,
		FromUserID:   from.ID,
		ToUserID:     toUserID,
		FromUsername: from.Username,
		ToUsername:   toUsername,
		Content:      content,
		Timestamp:    time.Now().UTC(),
	}
	key := ConversationKey(from.ID, toUserID)
	s.conversations[key] = append(s.conversations[key], msg)
	return msg
}

// History returns the ordered conversation log for the pair (a, b),
// regardless of which participant asks.
func (s *ConversationStore) History(a, b string) []*PrivateMessage {
	return s.conversations[ConversationKey(a, b)]
}
