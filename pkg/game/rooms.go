package game

import (
	"fmt"

	"github.com/cbodonnell/slipstream/pkg/game/types"
	"github.com/cbodonnell/slipstream/pkg/log"
	"github.com/cbodonnell/slipstream/pkg/messages"
	"github.com/google/uuid"
)

// broadcastToRoom sends an event to every member of a room except the
// excluded clients.
func (gm *GameManager) broadcastToRoom(room *types.Room, eventType string, payload interface{}, exclude ...uint32) {
	for _, memberID := range room.MemberIDs() {
		excluded := false
		for _, id := range exclude {
			if memberID == id {
				excluded = true
				break
			}
		}
		if excluded {
			continue
		}
		gm.sendEvent(memberID, eventType, payload)
	}
}

// roomForClient resolves the sender's current room. It returns nil if
// the sender is unknown, has no room, or the room is gone; callers
// treat that as a no-op.
func (gm *GameManager) roomForClient(clientID uint32) *types.Room {
	p := gm.presence.Get(clientID)
	if p == nil || p.RoomID == "" {
		return nil
	}
	room, ok := gm.rooms.Get(p.RoomID)
	if !ok {
		return nil
	}
	return room
}

func (gm *GameManager) handleGetRooms(clientID uint32) {
	roomList := make([]messages.RoomInfo, 0)
	for _, room := range gm.rooms.Waiting() {
		roomList = append(roomList, messages.RoomInfo{
			ID:          room.ID,
			Name:        room.Name,
			PlayerCount: len(room.Members),
			Status:      string(room.Status),
			MaxPlayers:  types.MaxRoomMembers,
		})
	}
	gm.sendEvent(clientID, messages.MessageTypeServerRoomsList, &messages.ServerRoomsList{
		Rooms: roomList,
	})
}

func (gm *GameManager) handleCreateRoom(clientID uint32, payload *messages.ClientCreateRoom) {
	p := gm.presence.Get(clientID)
	if p == nil {
		log.Warn("Client %d tried to create a room before connecting", clientID)
		return
	}

	roomName := payload.RoomName
	if roomName == "" {
		roomName = fmt.Sprintf("Room %d", gm.rooms.Count()+1)
	}

	room := gm.rooms.Create(uuid.New().String(), roomName, gm.now())
	room.HostID = clientID
	room.AddMember(clientID, &types.Member{
		Name:   p.Name,
		IsHost: true,
	})
	p.RoomID = room.ID

	gm.sendEvent(clientID, messages.MessageTypeServerRoomJoined, &messages.ServerRoomJoined{
		RoomID:   room.ID,
		RoomName: room.Name,
		Players:  gm.roomPlayerList(room),
		IsHost:   true,
	})
}

func (gm *GameManager) handleJoinRoom(clientID uint32, payload *messages.ClientJoinRoom) {
	p := gm.presence.Get(clientID)
	if p == nil {
		log.Warn("Client %d tried to join a room before connecting", clientID)
		return
	}

	room, ok := gm.rooms.Get(payload.RoomID)
	if !ok {
		gm.sendError(clientID, ErrRoomNotFound)
		return
	}
	if len(room.Members) >= types.MaxRoomMembers {
		gm.sendError(clientID, ErrRoomFull)
		return
	}
	if room.InRace() {
		gm.sendError(clientID, ErrRaceInProgress)
		return
	}

	room.AddMember(clientID, &types.Member{
		Name: p.Name,
	})
	p.RoomID = room.ID

	gm.sendEvent(clientID, messages.MessageTypeServerRoomJoined, &messages.ServerRoomJoined{
		RoomID:   room.ID,
		RoomName: room.Name,
		Players:  gm.roomPlayerList(room),
		IsHost:   false,
	})

	gm.broadcastToRoom(room, messages.MessageTypeServerPlayerJoined, &messages.ServerPlayerJoined{
		Player: messages.RoomPlayer{
			ID:   clientID,
			Name: p.Name,
		},
	}, clientID)
}

func (gm *GameManager) handleLeaveRoom(clientID uint32) {
	room := gm.roomForClient(clientID)
	if room == nil {
		return
	}

	if _, ok := room.Members[clientID]; ok {
		room.RemoveMember(clientID)
		gm.broadcastToRoom(room, messages.MessageTypeServerPlayerLeft, &messages.ServerPlayerLeft{
			PlayerID: clientID,
		})
		gm.handleHostDeparture(room, clientID)
	}

	gm.presence.Get(clientID).RoomID = ""
}

// handleDisconnect handles a dropped connection. Mid-race members are
// retained for a grace window instead of being removed; everything else
// follows the normal departure path. The participant record itself is
// always removed.
func (gm *GameManager) handleDisconnect(clientID uint32) {
	defer gm.presence.Remove(clientID)

	room := gm.roomForClient(clientID)
	if room == nil {
		log.Debug("Client %d disconnected", clientID)
		return
	}

	member, ok := room.Members[clientID]
	if ok {
		if room.InRace() {
			log.Info("Player %s disconnected during race in room %s", member.Name, room.ID)
			now := gm.now()
			member.Disconnected = true
			member.DisconnectTime = now
			room.Archive[member.Name] = &types.ArchivedMember{
				ClientID:       clientID,
				Member:         *member,
				DisconnectTime: now,
				Timeout:        ReconnectGracePeriod,
			}
			gm.broadcastToRoom(room, messages.MessageTypeServerPlayerDisconnected, &messages.ServerPlayerDisconnected{
				PlayerID:     clientID,
				PlayerName:   member.Name,
				CanReconnect: true,
				Timeout:      int(ReconnectGracePeriod.Seconds()),
			}, clientID)
		} else {
			room.RemoveMember(clientID)
			gm.broadcastToRoom(room, messages.MessageTypeServerPlayerLeft, &messages.ServerPlayerLeft{
				PlayerID: clientID,
			})
		}
		gm.handleHostDeparture(room, clientID)
	}
}

// handleHostDeparture promotes a new host or deletes the room after the
// given client left it. Rooms holding only mid-race disconnected
// members are left for the reaper.
func (gm *GameManager) handleHostDeparture(room *types.Room, departed uint32) {
	if len(room.Members) == 0 {
		gm.rooms.Delete(room.ID)
		return
	}
	if room.HostID != departed {
		return
	}

	newHostID := room.NextHost(departed)
	if newHostID == 0 {
		return
	}
	if old, ok := room.Members[departed]; ok {
		old.IsHost = false
	}
	room.HostID = newHostID
	room.Members[newHostID].IsHost = true
	gm.sendEvent(newHostID, messages.MessageTypeServerHostTransferred, &messages.ServerHostTransferred{})
}

func (gm *GameManager) handleSelectCar(clientID uint32, payload *messages.ClientSelectCar) {
	room := gm.roomForClient(clientID)
	if room == nil {
		return
	}
	member, ok := room.Members[clientID]
	if !ok {
		return
	}

	carName := payload.CarName
	if carName == "" {
		carName = "Unknown Car"
	}
	member.Car = &types.CarSelection{
		Name:  carName,
		Index: payload.CarIndex,
	}
	room.Touch(gm.now())
	log.Debug("Player %s selected car: %s (index: %d)", member.Name, carName, payload.CarIndex)

	gm.broadcastToRoom(room, messages.MessageTypeServerPlayerCarSelected, &messages.ServerPlayerCarSelected{
		PlayerID: clientID,
		CarName:  carName,
	}, clientID)
}

func (gm *GameManager) handlePlayerReady(clientID uint32, payload *messages.ClientPlayerReady) {
	room := gm.roomForClient(clientID)
	if room == nil {
		return
	}
	member, ok := room.Members[clientID]
	if !ok {
		return
	}

	member.Ready = payload.Ready
	room.Touch(gm.now())

	gm.broadcastToRoom(room, messages.MessageTypeServerPlayerReadyChanged, &messages.ServerPlayerReadyChanged{
		PlayerID: clientID,
		Ready:    payload.Ready,
	}, clientID)
}

func (gm *GameManager) handleChatMessage(clientID uint32, payload *messages.ClientChatMessage) {
	room := gm.roomForClient(clientID)
	if room == nil {
		return
	}
	member, ok := room.Members[clientID]
	if !ok {
		return
	}

	room.Touch(gm.now())

	gm.broadcastToRoom(room, messages.MessageTypeServerChatMessage, &messages.ServerChatMessage{
		Sender:  member.Name,
		Message: payload.Message,
	})
}

// roomPlayerList assembles the member list for a room_joined event, in
// join order.
func (gm *GameManager) roomPlayerList(room *types.Room) []messages.RoomPlayer {
	players := make([]messages.RoomPlayer, 0, len(room.Members))
	for _, memberID := range room.MemberIDs() {
		member := room.Members[memberID]
		players = append(players, messages.RoomPlayer{
			ID:      memberID,
			Name:    member.Name,
			IsHost:  member.IsHost,
			CarName: member.CarName(),
		})
	}
	return players
}
