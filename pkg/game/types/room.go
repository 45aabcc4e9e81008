package types

import "time"

// RoomStatus is the lifecycle state of a room.
type RoomStatus string

const (
	// RoomStatusWaiting is the lobby state, accepting joins and ready toggles.
	RoomStatusWaiting RoomStatus = "waiting"
	// RoomStatusStarting means start preconditions were verified and the
	// start announcement has been broadcast.
	RoomStatusStarting RoomStatus = "starting"
	// RoomStatusCountingDown means the countdown event has been broadcast.
	RoomStatusCountingDown RoomStatus = "counting_down"
	// RoomStatusRacing means telemetry is accepted.
	RoomStatusRacing RoomStatus = "racing"
)

// MaxRoomMembers bounds room membership for 1v1 races.
const MaxRoomMembers = 2

// Room is one matchmaking/race unit.
type Room struct {
	ID     string
	Name   string
	HostID uint32
	Status RoomStatus
	Map    string

	CreatedAt     time.Time
	LastActivity  time.Time
	RaceStartedAt time.Time

	// Direct marks a room created by a join_race direct-start request.
	// Direct rooms run the start sequence without the two-member gate.
	Direct bool

	// StageDeadline is when the pending start-sequence stage fires. It is
	// only meaningful while Status is starting or counting_down.
	StageDeadline time.Time

	// Identity of the member that requested the start, captured when the
	// start was accepted.
	StarterID   uint32
	StarterName string

	Members map[uint32]*Member
	// order tracks member insertion order for deterministic host transfer
	// and snapshot assembly.
	order []uint32

	// Archive holds recently-disconnected members keyed by display name.
	Archive map[string]*ArchivedMember

	// FinishOrder tracks the order members reported a finish, so that
	// tied finish times keep report order in the results.
	FinishOrder []uint32
}

// NewRoom creates a room in the waiting state.
func NewRoom(id, name string, now time.Time) *Room {
	return &Room{
		ID:           id,
		Name:         name,
		Status:       RoomStatusWaiting,
		Map:          "map1",
		CreatedAt:    now,
		LastActivity: now,
		Members:      make(map[uint32]*Member),
		Archive:      make(map[string]*ArchivedMember),
	}
}

// AddMember adds a member, preserving insertion order.
func (r *Room) AddMember(clientID uint32, member *Member) {
	r.Members[clientID] = member
	r.order = append(r.order, clientID)
}

// RemoveMember removes a member and its ordering entry.
func (r *Room) RemoveMember(clientID uint32) {
	delete(r.Members, clientID)
	for i, id := range r.order {
		if id == clientID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// MemberIDs returns the member ids in insertion order.
func (r *Room) MemberIDs() []uint32 {
	ids := make([]uint32, 0, len(r.Members))
	for _, id := range r.order {
		if _, ok := r.Members[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// NextHost returns the first remaining connected member other than the
// departing one, or 0 if there is none.
func (r *Room) NextHost(departing uint32) uint32 {
	for _, id := range r.MemberIDs() {
		if id == departing {
			continue
		}
		if member := r.Members[id]; member != nil && !member.Disconnected {
			return id
		}
	}
	return 0
}

// InRace reports whether a race sequence is underway or running. Rooms
// in this state reject joins and retain mid-race disconnects.
func (r *Room) InRace() bool {
	return r.Status != RoomStatusWaiting
}

// Touch refreshes the room's last-activity timestamp.
func (r *Room) Touch(now time.Time) {
	r.LastActivity = now
}

// ResetRace returns the room to the waiting state and clears all
// per-race member fields.
func (r *Room) ResetRace() {
	r.Status = RoomStatusWaiting
	r.RaceStartedAt = time.Time{}
	r.StageDeadline = time.Time{}
	r.StarterID = 0
	r.StarterName = ""
	r.FinishOrder = nil
	for _, member := range r.Members {
		member.ResetRace()
	}
}
