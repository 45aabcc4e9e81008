package game

import (
	"fmt"

	"github.com/cbodonnell/slipstream/pkg/game/types"
)

// PresenceStore tracks each connected participant and which room, if
// any, it occupies. It is owned by the GameManager and only mutated
// from the game loop.
type PresenceStore struct {
	participants map[uint32]*types.Participant
}

// NewPresenceStore creates an empty PresenceStore.
func NewPresenceStore() *PresenceStore {
	return &PresenceStore{
		participants: make(map[uint32]*types.Participant),
	}
}

// Connect registers a participant with no room. If the client is
// already registered the existing record is returned unchanged.
func (s *PresenceStore) Connect(clientID uint32, name string) *types.Participant {
	if p, ok := s.participants[clientID]; ok {
		return p
	}
	if name == "" {
		name = fmt.Sprintf("Player_%d", clientID)
	}
	p := &types.Participant{
		ClientID: clientID,
		Name:     name,
	}
	s.participants[clientID] = p
	return p
}

// Get returns the participant for a client, or nil if unknown.
func (s *PresenceStore) Get(clientID uint32) *types.Participant {
	return s.participants[clientID]
}

// Remove deletes a participant record. Unknown clients are a no-op.
func (s *PresenceStore) Remove(clientID uint32) {
	delete(s.participants, clientID)
}

// Count returns the number of connected participants.
func (s *PresenceStore) Count() int {
	return len(s.participants)
}
