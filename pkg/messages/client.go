package messages

// ClientCreateRoom is sent by a client to create a new room.
type ClientCreateRoom struct {
	RoomName string `json:"room_name"`
}

// ClientJoinRoom is sent by a client to join an existing room.
type ClientJoinRoom struct {
	RoomID string `json:"room_id"`
}

// ClientSelectCar is sent by a client to select a car for multiplayer.
type ClientSelectCar struct {
	CarName  string `json:"car_name"`
	CarIndex int    `json:"car_index"`
}

// ClientPlayerReady is sent by a client to toggle its pre-race ready flag.
type ClientPlayerReady struct {
	Ready bool `json:"ready"`
}

// ClientChatMessage is sent by a client to chat with its room.
type ClientChatMessage struct {
	Message string `json:"message"`
}

// ClientPlayerUpdate carries in-race telemetry. Position and Speed are
// untyped so that malformed (non-numeric) values can be coerced instead
// of failing the whole unmarshal.
type ClientPlayerUpdate struct {
	Position interface{} `json:"position"`
	Speed    interface{} `json:"speed"`
}

// ClientJoinRace is a host-initiated direct-start variant that bypasses
// explicit room browsing.
type ClientJoinRace struct {
	PlayerName string                 `json:"player_name"`
	CarData    map[string]interface{} `json:"car_data"`
	CarName    string                 `json:"car_name"`
	IsHost     bool                   `json:"is_host"`
}

// ClientPlayerFinish reports a race finish time. FinishTime is untyped
// so that malformed values can be coerced to a sentinel.
type ClientPlayerFinish struct {
	FinishTime interface{} `json:"finish_time"`
}
