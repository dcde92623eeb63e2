// Package server tracks live sessions: the binding between a WebSocket
// client and the user identity it claimed at join time.
package server

import (
	"time"

	"github.com/google/uuid"
)

const defaultAvatarBase = "https://api.dicebear.com/7.x/avataaars/svg?seed="

// Session binds a connection to a user. The client handle is owned by
// the gateway for I/O; the registry only references it for lookup and
// fan-out.
type Session struct {
	Client *Client
	User   *User
}

// SessionRegistry holds every live session, indexed by user id and by
// client handle. It carries no lock of its own: the hub serializes all
// access under its registry lock.
type SessionRegistry struct {
	byUser   map[string]*Session
	byClient map[*Client]*Session
}

// NewSessionRegistry returns an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		byUser:   make(map[string]*Session),
		byClient: make(map[*Client]*Session),
	}
}

// Register creates a session for the given join request. A missing user
// id is generated, a missing avatar reference gets the seeded default,
// and join/last-seen timestamps are set to now.
func (r *SessionRegistry) Register(c *Client, userID, username, avatar, roomID string) *Session {
	if userID == "" {
		userID = uuid.NewString()
	}
	if avatar == "" {
		avatar = defaultAvatarBase + username
	}
	now := time.Now().UTC()
	sess := &Session{
		Client: c,
		User: &User{
			ID:          userID,
			Username:    username,
			Status:      StatusOnline,
			Avatar:      avatar,
			CurrentRoom: roomID,
			JoinedAt:    now,
			LastSeen:    now,
		},
	}
	r.byUser[userID] = sess
	r.byClient[c] = sess
	return sess
}

// ByClient resolves the session bound to a client handle, or nil.
func (r *SessionRegistry) ByClient(c *Client) *Session {
	return r.byClient[c]
}

// ByUser resolves the session for a user id, or nil.
func (r *SessionRegistry) ByUser(userID string) *Session {
	return r.byUser[userID]
}

// UpdateStatus sets the user's presence state and refreshes last-seen.
// Unknown user ids are ignored.
func (r *SessionRegistry) UpdateStatus(userID string, status Status) {
	sess, ok := r.byUser[userID]
	if !ok {
		return
	}
	sess.User.Status = status
	sess.User.LastSeen = time.Now().UTC()
}

// Remove deletes the session for userID. Idempotent: removing an
// already-removed session is a no-op. Room membership cleanup is the
// caller's responsibility.
func (r *SessionRegistry) Remove(userID string) {
	sess, ok := r.byUser[userID]
	if !ok {
		return
	}
	delete(r.byUser, userID)
	delete(r.byClient, sess.Client)
}

// Snapshot returns a point-in-time presence view of every live user.
func (r *SessionRegistry) Snapshot() []userPresence {
	users := make([]userPresence, 0, len(r.byUser))
	for _, sess := range r.byUser {
		users = append(users, presenceOf(sess.User))
	}
	return users
}

// Len reports the number of live sessions.
func (r *SessionRegistry) Len() int {
	return len(r.byUser)
}
