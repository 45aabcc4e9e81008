package messages

// RoomInfo describes one waiting room in a rooms_list event.
type RoomInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PlayerCount int    `json:"player_count"`
	Status      string `json:"status"`
	MaxPlayers  int    `json:"max_players"`
}

// ServerRoomsList lists the rooms currently accepting players.
type ServerRoomsList struct {
	Rooms []RoomInfo `json:"rooms"`
}

// RoomPlayer describes one member of a room.
type RoomPlayer struct {
	ID      uint32  `json:"id"`
	Name    string  `json:"name"`
	IsHost  bool    `json:"is_host"`
	CarName *string `json:"car_name"`
}

// ServerRoomJoined acknowledges a create_room or join_room request.
type ServerRoomJoined struct {
	RoomID   string       `json:"room_id"`
	RoomName string       `json:"room_name"`
	Players  []RoomPlayer `json:"players"`
	IsHost   bool         `json:"is_host"`
}

// ServerPlayerJoined notifies existing members about a new arrival.
type ServerPlayerJoined struct {
	Player RoomPlayer `json:"player"`
}

// ServerPlayerLeft notifies remaining members about a departure.
type ServerPlayerLeft struct {
	PlayerID uint32 `json:"player_id"`
}

// ServerPlayerDisconnected notifies remaining members about a mid-race
// disconnect that is eligible for reconnection within Timeout seconds.
type ServerPlayerDisconnected struct {
	PlayerID     uint32 `json:"player_id"`
	PlayerName   string `json:"player_name"`
	CanReconnect bool   `json:"can_reconnect"`
	Timeout      int    `json:"timeout"`
}

// ServerHostTransferred notifies a member that it is now the room host.
type ServerHostTransferred struct{}

// ServerPlayerCarSelected notifies members about another member's car choice.
type ServerPlayerCarSelected struct {
	PlayerID uint32 `json:"player_id"`
	CarName  string `json:"car_name"`
}

// ServerPlayerReadyChanged notifies members about a ready-flag change.
type ServerPlayerReadyChanged struct {
	PlayerID uint32 `json:"player_id"`
	Ready    bool   `json:"ready"`
}

// ServerChatMessage relays a chat message to all members of a room.
type ServerChatMessage struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

// ServerError carries a human-readable failure message for the
// triggering client. None of these are fatal to the connection.
type ServerError struct {
	Message string `json:"message"`
}

// RaceStartingPlayer is the per-member snapshot in a race_starting event.
type RaceStartingPlayer struct {
	Name    string  `json:"name"`
	Ready   bool    `json:"ready"`
	CarName *string `json:"car_name"`
	IsHost  bool    `json:"is_host"`
}

// ServerRaceStarting announces an imminent race start.
type ServerRaceStarting struct {
	Map         string                        `json:"map"`
	StarterID   uint32                        `json:"starter_sid"`
	StarterName string                        `json:"starter_name"`
	Players     map[uint32]RaceStartingPlayer `json:"players"`
}

// ServerRaceCountdown begins the pre-race countdown.
type ServerRaceCountdown struct {
	Duration int `json:"duration"`
}

// RaceStartPlayer is the per-member snapshot in a race_start event.
type RaceStartPlayer struct {
	PlayerName string                 `json:"player_name"`
	CarData    map[string]interface{} `json:"car_data"`
	CarName    *string                `json:"car_name"`
	Ready      bool                   `json:"ready,omitempty"`
	IsHost     bool                   `json:"is_host,omitempty"`
}

// ServerRaceStart activates the race. PlayerID is the recipient's own id.
// Timestamp is the wall-clock start time used for latency accounting.
type ServerRaceStart struct {
	PlayerID    uint32                     `json:"player_id"`
	Players     map[uint32]RaceStartPlayer `json:"players"`
	StarterID   uint32                     `json:"starter_sid,omitempty"`
	StarterName string                     `json:"starter_name,omitempty"`
	Timestamp   float64                    `json:"timestamp,omitempty"`
}

// ServerPlayerUpdate relays validated telemetry to the other member.
type ServerPlayerUpdate struct {
	PlayerID uint32  `json:"player_id"`
	Position float64 `json:"position"`
	Speed    float64 `json:"speed"`
}

// ServerPlayerFinished notifies all members that a player finished.
type ServerPlayerFinished struct {
	PlayerID   uint32  `json:"player_id"`
	FinishTime float64 `json:"finish_time"`
}

// RaceResult is one entry in a race_results event, sorted ascending
// by finish time.
type RaceResult struct {
	PlayerName string  `json:"player_name"`
	FinishTime float64 `json:"finish_time"`
}

// ServerRaceResults carries the final standings of a race.
type ServerRaceResults struct {
	Results []RaceResult `json:"results"`
}

// ServerRaceJoined acknowledges a direct join_race request.
type ServerRaceJoined struct {
	Status   string `json:"status"`
	RoomID   string `json:"room_id"`
	PlayerID uint32 `json:"player_id"`
}
