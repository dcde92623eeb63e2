// Package server implements the per-room message store: ordered
// history, the reaction ledger embedded in each record, and the pinned
// subset.
package server

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// DeletedPlaceholder replaces the content of soft-deleted messages. The
// record itself stays in the history so ordering and indices hold.
const DeletedPlaceholder = "[Message deleted]"

// HistoryLimit is the number of messages delivered on room entry.
const HistoryLimit = 100

// Store operation failures. Callers translate these into the wire
// behavior the protocol calls for (error frame or silent no-op).
var (
	ErrNotFound      = errors.New("message not found")
	ErrNotAuthor     = errors.New("requester is not the author")
	ErrAlreadyPinned = errors.New("message already pinned")
)

// MessageStore keeps an append-only message sequence and a pinned list
// per room. Message records are mutable in place (edit, soft delete,
// reactions) but never removed or reordered. Access is serialized by
// the hub lock.
type MessageStore struct {
	history map[string][]*Message
	pins    map[string][]PinnedEntry
}

// NewMessageStore returns an empty store. Room sequences are created
// lazily on first append.
func NewMessageStore() *MessageStore {
	return &MessageStore{
		history: make(map[string][]*Message),
		pins:    make(map[string][]PinnedEntry),
	}
}

// Append creates a message with a globally unique id and a snapshot of
// the author's display name and avatar, appends it to the room's
// sequence, and returns it for broadcast.
func (s *MessageStore) Append(roomID string, author *User, content, replyTo string) *Message {
	msg := &Message{
		ID:        uuid.NewString(),
		Type:      frameMessage,
		UserID:    author.ID,
		Username:  author.Username,
		Avatar:    author.Avatar,
		Content:   content,
		RoomID:    roomID,
		Timestamp: time.Now().UTC(),
		Reactions: make(map[string][]string),
		ReplyTo:   replyTo,
	}
	s.history[roomID] = append(s.history[roomID], msg)
	return msg
}

// HistoryTail returns the last limit messages of the room in append
// order. The returned slice aliases the live records; callers serialize
// before releasing the hub lock.
func (s *MessageStore) HistoryTail(roomID string, limit int) []*Message {
	msgs := s.history[roomID]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs
}

func (s *MessageStore) find(roomID, messageID string) *Message {
	for _, msg := range s.history[roomID] {
		if msg.ID == messageID {
			return msg
		}
	}
	return nil
}

// React toggles userID's membership in the emoji's reactor set and
// returns the updated reaction map. The emoji key is removed once its
// set empties, so an even number of toggles restores the map exactly.
func (s *MessageStore) React(roomID, messageID, userID, emoji string) (map[string][]string, error) {
	msg := s.find(roomID, messageID)
	if msg == nil {
		return nil, ErrNotFound
	}
	reactors := msg.Reactions[emoji]
	for i, id := range reactors {
		if id == userID {
			reactors = append(reactors[:i], reactors[i+1:]...)
			if len(reactors) == 0 {
				delete(msg.Reactions, emoji)
			} else {
				msg.Reactions[emoji] = reactors
			}
			return msg.Reactions, nil
		}
	}
	msg.Reactions[emoji] = append(reactors, userID)
	return msg.Reactions, nil
}

// Edit replaces the message content. Only the stored author may edit.
func (s *MessageStore) Edit(roomID, messageID, authorID, newContent string) (*Message, error) {
	msg := s.find(roomID, messageID)
	if msg == nil {
		return nil, ErrNotFound
	}
	if msg.UserID != authorID {
		return nil, ErrNotAuthor
	}
	now := time.Now().UTC()
	msg.Content = newContent
	msg.IsEdited = true
	msg.EditedAt = &now
	return msg, nil
}

// SoftDelete blanks the message content with the fixed placeholder and
// marks it deleted. Only the stored author may delete; the record is
// never physically removed.
func (s *MessageStore) SoftDelete(roomID, messageID, authorID string) (*Message, error) {
	msg := s.find(roomID, messageID)
	if msg == nil {
		return nil, ErrNotFound
	}
	if msg.UserID != authorID {
		return nil, ErrNotAuthor
	}
	now := time.Now().UTC()
	msg.Content = DeletedPlaceholder
	msg.IsDeleted = true
	msg.DeletedAt = &now
	return msg, nil
}

// Pin records a pinned entry for the message unless one already exists
// for that message id in the room, and returns the message for
// broadcast.
func (s *MessageStore) Pin(roomID, messageID, pinnedBy string) (*Message, error) {
	msg := s.find(roomID, messageID)
	if msg == nil {
		return nil, ErrNotFound
	}
	for _, entry := range s.pins[roomID] {
		if entry.MessageID == messageID {
			return nil, ErrAlreadyPinned
		}
	}
	s.pins[roomID] = append(s.pins[roomID], PinnedEntry{
		MessageID: messageID,
		PinnedBy:  pinnedBy,
		PinnedAt:  time.Now().UTC(),
	})
	return msg, nil
}

// Pinned resolves the room's pinned entries against the live message
// records, in pin order.
func (s *MessageStore) Pinned(roomID string) []PinnedMessage {
	entries := s.pins[roomID]
	pinned := make([]PinnedMessage, 0, len(entries))
	for _, entry := range entries {
		if msg := s.find(roomID, entry.MessageID); msg != nil {
			pinned = append(pinned, PinnedMessage{
				Message:  msg,
				PinnedBy: entry.PinnedBy,
				PinnedAt: entry.PinnedAt,
			})
		}
	}
	return pinned
}
