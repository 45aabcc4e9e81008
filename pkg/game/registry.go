package game

import (
	"time"

	"github.com/cbodonnell/slipstream/pkg/game/types"
)

// RoomRegistry owns all rooms. It is owned by the GameManager and only
// mutated from the game loop.
type RoomRegistry struct {
	rooms map[string]*types.Room
}

// NewRoomRegistry creates an empty RoomRegistry.
func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms: make(map[string]*types.Room),
	}
}

// Create allocates a new room in the waiting state.
func (r *RoomRegistry) Create(id, name string, now time.Time) *types.Room {
	room := types.NewRoom(id, name, now)
	r.rooms[id] = room
	return room
}

// Get returns a room by id.
func (r *RoomRegistry) Get(id string) (*types.Room, bool) {
	room, ok := r.rooms[id]
	return room, ok
}

// Delete removes a room.
func (r *RoomRegistry) Delete(id string) {
	delete(r.rooms, id)
}

// Count returns the number of rooms.
func (r *RoomRegistry) Count() int {
	return len(r.rooms)
}

// All returns every room.
func (r *RoomRegistry) All() []*types.Room {
	rooms := make([]*types.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// Waiting returns rooms that are accepting players, in no particular
// order. Rooms with a race underway are never included.
func (r *RoomRegistry) Waiting() []*types.Room {
	var rooms []*types.Room
	for _, room := range r.rooms {
		if room.Status == types.RoomStatusWaiting {
			rooms = append(rooms, room)
		}
	}
	return rooms
}
