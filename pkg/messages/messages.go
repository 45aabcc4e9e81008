package messages

import "encoding/json"

// Client message types. These are the named events a connected client
// may send to the server.
const (
	MessageTypeClientGetRooms     = "get_rooms"
	MessageTypeClientCreateRoom   = "create_room"
	MessageTypeClientJoinRoom     = "join_room"
	MessageTypeClientLeaveRoom    = "leave_room"
	MessageTypeClientSelectCar    = "select_car"
	MessageTypeClientPlayerReady  = "player_ready"
	MessageTypeClientChatMessage  = "chat_message"
	MessageTypeClientStartRace    = "start_race"
	MessageTypeClientPlayerUpdate = "player_update"
	MessageTypeClientJoinRace     = "join_race"
	MessageTypeClientReadyToRace  = "player_ready_to_race"
	MessageTypeClientPlayerFinish = "player_finish"
)

// Server message types. These are the named events the server emits
// to connected clients.
const (
	MessageTypeServerRoomsList          = "rooms_list"
	MessageTypeServerRoomJoined         = "room_joined"
	MessageTypeServerPlayerJoined       = "player_joined"
	MessageTypeServerPlayerLeft         = "player_left"
	MessageTypeServerPlayerDisconnected = "player_disconnected"
	MessageTypeServerHostTransferred    = "host_transferred"
	MessageTypeServerPlayerCarSelected  = "player_car_selected"
	MessageTypeServerPlayerReadyChanged = "player_ready_changed"
	MessageTypeServerChatMessage        = "chat_message"
	MessageTypeServerError              = "error"
	MessageTypeServerRaceStarting       = "race_starting"
	MessageTypeServerRaceCountdown      = "race_countdown"
	MessageTypeServerRaceStart          = "race_start"
	MessageTypeServerPlayerUpdate       = "player_update"
	MessageTypeServerPlayerFinished     = "player_finished"
	MessageTypeServerRaceResults        = "race_results"
	MessageTypeServerRaceJoined         = "race_joined"
)

// Message represents a generic message for serialization/deserialization.
// ClientID 0 means the message is from the server.
type Message struct {
	ClientID uint32          `json:"clientID"`
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
}
