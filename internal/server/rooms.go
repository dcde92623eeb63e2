// Package server maintains the room registry: named channels, their
// membership sets, and their metadata.
package server

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultRoomID is the room new sessions land in when the join request
// names no room (or names one that does not exist).
const DefaultRoomID = "general"

type bootstrapRoom struct {
	id, name, description string
}

// The four rooms created at startup. They have fixed ids, no creator,
// and are never deleted.
var bootstrapRooms = []bootstrapRoom{
	{"general", "General", "General discussion for everyone"},
	{"random", "Random", "Random thoughts and conversations"},
	{"tech-talk", "Tech Talk", "Technology discussions and help"},
	{"announcements", "Announcements", "Important announcements"},
}

var slugPattern = regexp.MustCompile(`\s+`)

// RoomRegistry maps room ids to rooms, preserving creation order for
// room_list. Like the session registry it holds plain maps and relies
// on the hub lock for serialization.
type RoomRegistry struct {
	rooms map[string]*Room
	order []string
}

// NewRoomRegistry returns a registry pre-populated with the bootstrap
// rooms.
func NewRoomRegistry() *RoomRegistry {
	r := &RoomRegistry{rooms: make(map[string]*Room)}
	now := time.Now().UTC()
	for _, b := range bootstrapRooms {
		r.insert(&Room{
			ID:          b.id,
			Name:        b.name,
			Description: b.description,
			CreatedAt:   now,
			members:     make(map[string]struct{}),
		})
	}
	return r
}

func (r *RoomRegistry) insert(room *Room) {
	r.rooms[room.ID] = room
	r.order = append(r.order, room.ID)
}

// Create adds a room with an id derived from the slugified name plus
// the creation timestamp, which keeps ids collision-free across rooms
// sharing a name.
func (r *RoomRegistry) Create(name, description string, isPrivate bool, creatorID string) *Room {
	if description == "" {
		description = "Custom room"
	}
	now := time.Now().UTC()
	slug := slugPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	id := slug + "-" + strconv.FormatInt(now.UnixMilli(), 10)
	for n := 2; ; n++ {
		if _, taken := r.rooms[id]; !taken {
			break
		}
		id = slug + "-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + strconv.Itoa(n)
	}
	room := &Room{
		ID:          id,
		Name:        name,
		Description: description,
		IsPrivate:   isPrivate,
		CreatedBy:   creatorID,
		CreatedAt:   now,
		members:     make(map[string]struct{}),
	}
	r.insert(room)
	return room
}

// Get returns the room for id, or nil.
func (r *RoomRegistry) Get(id string) *Room {
	return r.rooms[id]
}

// Join adds userID to the room's member set. Unknown rooms are a no-op;
// callers that care check existence first.
func (r *RoomRegistry) Join(roomID, userID string) {
	if room, ok := r.rooms[roomID]; ok {
		room.members[userID] = struct{}{}
	}
}

// Leave removes userID from the room's member set.
func (r *RoomRegistry) Leave(roomID, userID string) {
	if room, ok := r.rooms[roomID]; ok {
		delete(room.members, userID)
	}
}

// Members returns the user ids currently subscribed to the room.
func (r *RoomRegistry) Members(roomID string) []string {
	room, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(room.members))
	for id := range room.members {
		ids = append(ids, id)
	}
	return ids
}

// RoomsOf returns the ids of every room whose member set contains
// userID, in registry order. Used by the disconnect and status cascades.
func (r *RoomRegistry) RoomsOf(userID string) []string {
	var ids []string
	for _, id := range r.order {
		if _, ok := r.rooms[id].members[userID]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// List returns metadata for every room in creation order.
func (r *RoomRegistry) List() []RoomInfo {
	infos := make([]RoomInfo, 0, len(r.order))
	for _, id := range r.order {
		infos = append(infos, r.rooms[id].Info())
	}
	return infos
}
