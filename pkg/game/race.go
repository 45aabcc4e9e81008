package game

import (
	"fmt"
	"sort"
	"time"

	"github.com/cbodonnell/slipstream/pkg/game/types"
	"github.com/cbodonnell/slipstream/pkg/log"
	"github.com/cbodonnell/slipstream/pkg/messages"
	"github.com/google/uuid"
)

const (
	// raceStartDelay is the pause between the start announcement and the
	// countdown broadcast.
	raceStartDelay = 1 * time.Second
	// raceCountdownSeconds is the fixed countdown duration sent to clients.
	raceCountdownSeconds  = 3
	raceCountdownDuration = raceCountdownSeconds * time.Second
)

// handleStartRace verifies the start preconditions and begins the
// staged start sequence. Any member can start if the conditions are met.
func (gm *GameManager) handleStartRace(clientID uint32) {
	room := gm.roomForClient(clientID)
	if room == nil {
		return
	}
	if room.InRace() {
		log.Warn("Client %d requested a race start in room %s, but one is already underway", clientID, room.ID)
		return
	}
	member, ok := room.Members[clientID]
	if !ok {
		return
	}

	if len(room.Members) != types.MaxRoomMembers {
		gm.sendError(clientID, ErrWrongPlayerCount)
		return
	}
	if room.HostID != clientID && !member.Ready {
		gm.sendError(clientID, ErrNotReady)
		return
	}
	for memberID, other := range room.Members {
		if memberID != clientID && !other.Ready {
			gm.sendError(clientID, ErrNotAllReady)
			return
		}
	}

	// Car selection is advisory: clients substitute a default for
	// members that never picked one.
	for _, other := range room.Members {
		if other.Car == nil && other.CarData == nil {
			log.Warn("Player %s has not selected a car", other.Name)
		}
	}

	log.Info("Race being started by %s (client %d) in room %s", member.Name, clientID, room.ID)

	room.StarterID = clientID
	room.StarterName = member.Name
	room.Status = types.RoomStatusStarting
	room.StageDeadline = gm.now().Add(raceStartDelay)

	starting := &messages.ServerRaceStarting{
		Map:         room.Map,
		StarterID:   clientID,
		StarterName: member.Name,
		Players:     make(map[uint32]messages.RaceStartingPlayer, len(room.Members)),
	}
	for memberID, m := range room.Members {
		starting.Players[memberID] = messages.RaceStartingPlayer{
			Name:    m.Name,
			Ready:   m.Ready,
			CarName: m.CarName(),
			IsHost:  memberID == room.HostID,
		}
	}
	gm.broadcastToRoom(room, messages.MessageTypeServerRaceStarting, starting)
}

// advanceRaceSequences steps every pending start sequence whose stage
// deadline has passed. Membership may have changed while a stage was
// pending, so each step re-reads current member state instead of
// trusting anything captured at the previous stage.
func (gm *GameManager) advanceRaceSequences(now time.Time) {
	for _, room := range gm.rooms.All() {
		switch room.Status {
		case types.RoomStatusStarting:
			if now.Before(room.StageDeadline) {
				continue
			}
			if !gm.revalidateStart(room) {
				continue
			}
			gm.broadcastToRoom(room, messages.MessageTypeServerRaceCountdown, &messages.ServerRaceCountdown{
				Duration: raceCountdownSeconds,
			})
			room.Status = types.RoomStatusCountingDown
			room.StageDeadline = now.Add(raceCountdownDuration)
		case types.RoomStatusCountingDown:
			if now.Before(room.StageDeadline) {
				continue
			}
			if !gm.revalidateStart(room) {
				continue
			}
			gm.startRace(room, now)
		}
	}
}

// revalidateStart re-checks membership before a stage broadcast. A
// non-direct room that lost a member mid-sequence is returned to the
// lobby; an emptied room is simply left for the reaper.
func (gm *GameManager) revalidateStart(room *types.Room) bool {
	if room.Direct {
		return len(room.Members) > 0
	}
	if len(room.Members) != types.MaxRoomMembers {
		log.Warn("Aborting race start in room %s: membership changed to %d", room.ID, len(room.Members))
		room.ResetRace()
		return false
	}
	return true
}

// startRace activates a race: records the start time for anti-cheat
// and broadcasts a full per-member snapshot to each current member.
func (gm *GameManager) startRace(room *types.Room, now time.Time) {
	room.RaceStartedAt = now
	room.Status = types.RoomStatusRacing

	players := make(map[uint32]messages.RaceStartPlayer, len(room.Members))
	for memberID, member := range room.Members {
		carData := member.CarData
		if carData == nil {
			carData = map[string]interface{}{}
			if member.Car != nil {
				carData["name"] = member.Car.Name
				carData["index"] = member.Car.Index
			}
		}
		players[memberID] = messages.RaceStartPlayer{
			PlayerName: member.Name,
			CarData:    carData,
			CarName:    member.CarName(),
			Ready:      member.Ready,
			IsHost:     memberID == room.HostID,
		}
	}

	for _, memberID := range room.MemberIDs() {
		start := &messages.ServerRaceStart{
			PlayerID: memberID,
			Players:  players,
		}
		if !room.Direct {
			start.StarterID = room.StarterID
			start.StarterName = room.StarterName
			start.Timestamp = float64(now.UnixNano()) / float64(time.Second)
		}
		gm.sendEvent(memberID, messages.MessageTypeServerRaceStart, start)
	}

	log.Info("Race started in room %s", room.ID)
}

// handleJoinRace handles a host-initiated direct-start request that
// bypasses explicit room browsing.
func (gm *GameManager) handleJoinRace(clientID uint32, payload *messages.ClientJoinRace) {
	name := payload.PlayerName
	if name == "" {
		if p := gm.presence.Get(clientID); p != nil {
			name = p.Name
		} else {
			name = fmt.Sprintf("Player_%d", clientID)
		}
	}
	carName := payload.CarName
	if carName == "" {
		carName = "Default"
	}

	log.Info("Player %s joining race with car: %s, is_host: %v", name, carName, payload.IsHost)

	roomName := fmt.Sprintf("Race %d", gm.rooms.Count()+1)
	roomID := "race_" + uuid.New().String()[:8]
	room := gm.rooms.Create(roomID, roomName, gm.now())
	room.Direct = true
	if payload.IsHost {
		room.HostID = clientID
	}

	room.AddMember(clientID, &types.Member{
		Name:    name,
		Car:     &types.CarSelection{Name: carName},
		CarData: payload.CarData,
		IsHost:  payload.IsHost,
		Ready:   true, // auto-ready in direct race join
	})

	p := gm.presence.Connect(clientID, name)
	p.RoomID = roomID

	gm.sendEvent(clientID, messages.MessageTypeServerRaceJoined, &messages.ServerRaceJoined{
		Status:   "success",
		RoomID:   roomID,
		PlayerID: clientID,
	})

	if payload.IsHost {
		log.Debug("Host player joined, starting countdown in room %s", roomID)
		room.Status = types.RoomStatusStarting
		room.StageDeadline = gm.now().Add(raceStartDelay)
	}
}

// handleReadyToRace records a post-countdown acknowledgement.
func (gm *GameManager) handleReadyToRace(clientID uint32) {
	room := gm.roomForClient(clientID)
	if room == nil {
		return
	}
	member, ok := room.Members[clientID]
	if !ok {
		return
	}
	member.RaceReady = true

	for _, m := range room.Members {
		if !m.RaceReady {
			return
		}
	}
	log.Debug("All players ready to race in room %s", room.ID)
}

// completeRace assembles and broadcasts the results, then returns the
// room to the lobby. Results are sorted ascending by finish time; ties
// keep the order finishes were reported in.
func (gm *GameManager) completeRace(room *types.Room) {
	results := make([]messages.RaceResult, 0, len(room.Members))
	for _, memberID := range room.FinishOrder {
		member, ok := room.Members[memberID]
		if !ok || !member.Finished {
			continue
		}
		results = append(results, messages.RaceResult{
			PlayerName: member.Name,
			FinishTime: member.FinishTime,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].FinishTime < results[j].FinishTime
	})

	log.Info("Race results for room %s: %v", room.ID, results)

	gm.broadcastToRoom(room, messages.MessageTypeServerRaceResults, &messages.ServerRaceResults{
		Results: results,
	})

	room.ResetRace()
}
