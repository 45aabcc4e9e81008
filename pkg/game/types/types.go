package types

import "time"

// Participant is the identity of one connected client, independent of
// room membership.
type Participant struct {
	ClientID uint32
	Name     string
	// RoomID is empty while the participant is not in a room.
	RoomID string
}

// CarSelection is a member's chosen car.
type CarSelection struct {
	Name  string
	Index int
}

// Member is a participant's state within one room.
type Member struct {
	Name string

	// Car is nil until the member selects one. CarData carries the raw
	// car payload from a direct join_race request.
	Car     *CarSelection
	CarData map[string]interface{}

	IsHost    bool
	Ready     bool
	RaceReady bool

	Finished   bool
	FinishTime float64

	// Telemetry validation baseline.
	LastPosition    float64
	HasLastPosition bool
	LastUpdateTime  time.Time

	Disconnected   bool
	DisconnectTime time.Time
}

// CarName returns the member's selected car name, or nil if none is set.
func (m *Member) CarName() *string {
	if m.Car == nil {
		return nil
	}
	return &m.Car.Name
}

// ResetRace clears all per-race fields after results are broadcast.
// Ready flags are intentionally left untouched so a rematch can start
// without re-confirming readiness.
func (m *Member) ResetRace() {
	m.Finished = false
	m.FinishTime = 0
	m.RaceReady = false
	m.LastPosition = 0
	m.HasLastPosition = false
	m.LastUpdateTime = time.Time{}
}

// ArchivedMember is a snapshot of a member that disconnected mid-race,
// retained for a grace window to allow reconnection.
type ArchivedMember struct {
	ClientID       uint32
	Member         Member
	DisconnectTime time.Time
	Timeout        time.Duration
}
