package game

import (
	"time"

	"github.com/cbodonnell/slipstream/pkg/log"
	"github.com/cbodonnell/slipstream/pkg/messages"
)

const (
	// ReconnectGracePeriod is how long a mid-race disconnected member is
	// retained for potential reconnection.
	ReconnectGracePeriod = 60 * time.Second
	// roomInactivityThreshold is how long a room may go without activity
	// before it is evicted.
	roomInactivityThreshold = 10 * time.Minute
)

// reap evicts stale rooms and expired disconnected-member archive
// entries. It runs on a fixed period inside the game loop and is never
// triggered by client events.
func (gm *GameManager) reap(now time.Time) {
	for _, room := range gm.rooms.All() {
		if len(room.Members) == 0 {
			gm.rooms.Delete(room.ID)
			continue
		}

		lastActivity := room.LastActivity
		if lastActivity.IsZero() {
			lastActivity = room.CreatedAt
		}
		if now.Sub(lastActivity) > roomInactivityThreshold {
			log.Info("Removing inactive room: %s", room.ID)
			gm.rooms.Delete(room.ID)
			continue
		}

		for name, archived := range room.Archive {
			if now.Sub(archived.DisconnectTime) <= archived.Timeout {
				continue
			}
			log.Info("Removing timed out player %s from room %s", name, room.ID)
			delete(room.Archive, name)

			if _, ok := room.Members[archived.ClientID]; ok {
				room.RemoveMember(archived.ClientID)
				gm.broadcastToRoom(room, messages.MessageTypeServerPlayerLeft, &messages.ServerPlayerLeft{
					PlayerID: archived.ClientID,
				})
			}
		}
	}

	log.Debug("Server stats: %d active rooms, %d connected players", gm.rooms.Count(), gm.presence.Count())
}
