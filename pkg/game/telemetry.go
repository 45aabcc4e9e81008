package game

import (
	"math"

	"github.com/cbodonnell/slipstream/pkg/log"
	"github.com/cbodonnell/slipstream/pkg/messages"
)

// Telemetry bounds. Clients report position and speed; the server only
// enforces plausibility, it does not simulate physics.
const (
	minPosition = -1000.0
	maxPosition = 10000.0
	minSpeed    = 0.0
	maxSpeed    = 500.0

	// maxUnitsPerSecond caps believable movement between two updates.
	maxUnitsPerSecond = 300.0
	// minPlausibilityGap is the smallest update gap, in seconds, the
	// movement check applies to.
	minPlausibilityGap = 0.1

	minFinishTime = 10.0
	maxFinishTime = 999.99
	// invalidFinishTime is the sentinel for malformed finish reports.
	invalidFinishTime = 999.99
	// suspiciousFinishWindow is the race duration, in seconds, under
	// which a sub-10 finish report is considered implausible.
	suspiciousFinishWindow = 10.0
	// flooredFinishTime replaces implausibly quick finishes.
	flooredFinishTime = 30.0
)

// numericValue coerces an untyped JSON value to a float64, falling back
// when the client sent something that is not a number.
func numericValue(v interface{}, fallback float64) float64 {
	if f, ok := v.(float64); ok {
		return f
	}
	return fallback
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// handlePlayerUpdate sanitizes an in-race telemetry update and relays
// it to the other member. Malformed values are coerced and clamped, not
// rejected; the sender is never told its input was altered.
func (gm *GameManager) handlePlayerUpdate(clientID uint32, payload *messages.ClientPlayerUpdate) {
	room := gm.roomForClient(clientID)
	if room == nil || !room.InRace() {
		return
	}
	member, ok := room.Members[clientID]
	if !ok {
		return
	}

	position := numericValue(payload.Position, 0)
	speed := numericValue(payload.Speed, 0)
	if _, isNumber := payload.Position.(float64); payload.Position != nil && !isNumber {
		log.Warn("Invalid position type from client %d: %T", clientID, payload.Position)
	}
	if _, isNumber := payload.Speed.(float64); payload.Speed != nil && !isNumber {
		log.Warn("Invalid speed type from client %d: %T", clientID, payload.Speed)
	}

	position = clampFloat(position, minPosition, maxPosition)
	speed = clampFloat(speed, minSpeed, maxSpeed)

	now := gm.now()
	if member.HasLastPosition {
		elapsed := now.Sub(member.LastUpdateTime).Seconds()
		maxMovement := maxUnitsPerSecond * elapsed
		actualMovement := math.Abs(position - member.LastPosition)
		if actualMovement > maxMovement && elapsed > minPlausibilityGap {
			log.Warn("Possible cheating detected for client %d. Movement: %f, Max allowed: %f", clientID, actualMovement, maxMovement)
			if position > member.LastPosition {
				position = member.LastPosition + maxMovement
			} else {
				position = member.LastPosition - maxMovement
			}
		}
	}

	member.LastPosition = position
	member.HasLastPosition = true
	member.LastUpdateTime = now
	room.Touch(now)

	gm.broadcastToRoom(room, messages.MessageTypeServerPlayerUpdate, &messages.ServerPlayerUpdate{
		PlayerID: clientID,
		Position: position,
		Speed:    speed,
	}, clientID)
}

// handlePlayerFinish sanitizes a reported finish time, broadcasts the
// finish, and completes the race once every current member has one.
func (gm *GameManager) handlePlayerFinish(clientID uint32, payload *messages.ClientPlayerFinish) {
	room := gm.roomForClient(clientID)
	if room == nil || !room.InRace() {
		return
	}
	member, ok := room.Members[clientID]
	if !ok {
		return
	}

	finishTime := numericValue(payload.FinishTime, invalidFinishTime)
	if _, isNumber := payload.FinishTime.(float64); payload.FinishTime != nil && !isNumber {
		log.Warn("Invalid finish time type from %s: %T", member.Name, payload.FinishTime)
	}

	now := gm.now()
	if !room.RaceStartedAt.IsZero() {
		raceDuration := now.Sub(room.RaceStartedAt).Seconds()
		// A finish reported moments after the start is suspicious.
		if raceDuration < suspiciousFinishWindow && finishTime < suspiciousFinishWindow {
			log.Warn("Possible cheating detected for %s. Finished too quickly: %fs", member.Name, finishTime)
			finishTime = math.Max(finishTime, flooredFinishTime)
		}
	}
	finishTime = clampFloat(finishTime, minFinishTime, maxFinishTime)

	log.Info("Player %s finished race with time: %f", member.Name, finishTime)

	if !member.Finished {
		room.FinishOrder = append(room.FinishOrder, clientID)
	}
	member.Finished = true
	member.FinishTime = finishTime
	room.Touch(now)

	gm.broadcastToRoom(room, messages.MessageTypeServerPlayerFinished, &messages.ServerPlayerFinished{
		PlayerID:   clientID,
		FinishTime: finishTime,
	})

	for _, m := range room.Members {
		if !m.Finished {
			return
		}
	}
	gm.completeRace(room)
}
