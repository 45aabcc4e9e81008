package game

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/cbodonnell/slipstream/pkg/log"
	"github.com/cbodonnell/slipstream/pkg/messages"
	"github.com/cbodonnell/slipstream/pkg/network"
	"github.com/cbodonnell/slipstream/pkg/queue"
)

const (
	// DefaultGameLoopInterval is the fixed tick of the coordinator loop.
	DefaultGameLoopInterval = 100 * time.Millisecond
	// DefaultReapInterval is how often the stale-room sweep runs.
	DefaultReapInterval = 60 * time.Second
)

// MessageSender delivers an outbound message to a single client.
// Implemented by network.ClientManager.
type MessageSender interface {
	SendMessage(clientID uint32, msg *messages.Message) error
}

// GameManager is the session coordinator. All room and participant
// state is owned by its single-goroutine loop: inbound events are
// processed one at a time to completion, and the staged race-start
// sequence and the reaper run as deadline checks inside the same loop.
type GameManager struct {
	presence             *PresenceStore
	rooms                *RoomRegistry
	sender               MessageSender
	clientMessageQueue   queue.Queue
	connectionEventQueue queue.Queue
	gameLoopInterval     time.Duration
	reapInterval         time.Duration
	lastReap             time.Time

	now func() time.Time

	statsRooms   atomic.Int64
	statsPlayers atomic.Int64
}

// NewGameManagerOptions contains options for creating a new GameManager.
type NewGameManagerOptions struct {
	Sender               MessageSender
	ClientMessageQueue   queue.Queue
	ConnectionEventQueue queue.Queue
	GameLoopInterval     time.Duration
	ReapInterval         time.Duration
}

func NewGameManager(opts NewGameManagerOptions) *GameManager {
	if opts.GameLoopInterval == 0 {
		opts.GameLoopInterval = DefaultGameLoopInterval
	}
	if opts.ReapInterval == 0 {
		opts.ReapInterval = DefaultReapInterval
	}
	return &GameManager{
		presence:             NewPresenceStore(),
		rooms:                NewRoomRegistry(),
		sender:               opts.Sender,
		clientMessageQueue:   opts.ClientMessageQueue,
		connectionEventQueue: opts.ConnectionEventQueue,
		gameLoopInterval:     opts.GameLoopInterval,
		reapInterval:         opts.ReapInterval,
		now:                  time.Now,
	}
}

// Start starts the game loop. It blocks until the context is done.
func (gm *GameManager) Start(ctx context.Context) error {
	gm.lastReap = gm.now()

	ticker := time.NewTicker(gm.gameLoopInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			gm.gameTick()
		}
	}
}

// gameTick runs one iteration of the game loop.
func (gm *GameManager) gameTick() {
	now := gm.now()
	gm.processConnectionEvents()
	gm.processClientMessages()
	gm.advanceRaceSequences(now)
	if now.Sub(gm.lastReap) >= gm.reapInterval {
		gm.reap(now)
		gm.lastReap = now
	}
	gm.statsRooms.Store(int64(gm.rooms.Count()))
	gm.statsPlayers.Store(int64(gm.presence.Count()))
}

// Stats returns the current room and participant counts. It is safe to
// call from other goroutines.
func (gm *GameManager) Stats() (rooms int, players int) {
	return int(gm.statsRooms.Load()), int(gm.statsPlayers.Load())
}

// processConnectionEvents processes all pending connection events in
// the queue.
func (gm *GameManager) processConnectionEvents() {
	pendingEvents, err := gm.connectionEventQueue.ReadAllMessages()
	if err != nil {
		log.Error("Failed to read connection events: %v", err)
		return
	}
	for _, item := range pendingEvents {
		event, ok := item.(*network.ConnectionEvent)
		if !ok {
			log.Error("Failed to cast connection event")
			continue
		}
		switch event.Type {
		case network.ConnectionEventTypeConnect:
			p := gm.presence.Connect(event.ClientID, event.Name)
			log.Info("Player %s connected as client %d", p.Name, p.ClientID)
		case network.ConnectionEventTypeDisconnect:
			gm.handleDisconnect(event.ClientID)
		default:
			log.Error("Unhandled connection event type: %v", event.Type)
		}
	}
}

// processClientMessages processes all pending client messages in the
// queue and dispatches them to the component handlers.
func (gm *GameManager) processClientMessages() {
	pendingMessages, err := gm.clientMessageQueue.ReadAllMessages()
	if err != nil {
		log.Error("Failed to read client messages: %v", err)
		return
	}
	for _, item := range pendingMessages {
		message, ok := item.(*messages.Message)
		if !ok {
			log.Error("Failed to cast message to messages.Message")
			continue
		}
		gm.dispatchClientMessage(message)
	}
}

func (gm *GameManager) dispatchClientMessage(message *messages.Message) {
	switch message.Type {
	case messages.MessageTypeClientGetRooms:
		gm.handleGetRooms(message.ClientID)
	case messages.MessageTypeClientCreateRoom:
		payload := &messages.ClientCreateRoom{}
		if !unmarshalPayload(message, payload) {
			return
		}
		gm.handleCreateRoom(message.ClientID, payload)
	case messages.MessageTypeClientJoinRoom:
		payload := &messages.ClientJoinRoom{}
		if !unmarshalPayload(message, payload) {
			return
		}
		gm.handleJoinRoom(message.ClientID, payload)
	case messages.MessageTypeClientLeaveRoom:
		gm.handleLeaveRoom(message.ClientID)
	case messages.MessageTypeClientSelectCar:
		payload := &messages.ClientSelectCar{}
		if !unmarshalPayload(message, payload) {
			return
		}
		gm.handleSelectCar(message.ClientID, payload)
	case messages.MessageTypeClientPlayerReady:
		payload := &messages.ClientPlayerReady{}
		if !unmarshalPayload(message, payload) {
			return
		}
		gm.handlePlayerReady(message.ClientID, payload)
	case messages.MessageTypeClientChatMessage:
		payload := &messages.ClientChatMessage{}
		if !unmarshalPayload(message, payload) {
			return
		}
		gm.handleChatMessage(message.ClientID, payload)
	case messages.MessageTypeClientStartRace:
		gm.handleStartRace(message.ClientID)
	case messages.MessageTypeClientPlayerUpdate:
		payload := &messages.ClientPlayerUpdate{}
		if !unmarshalPayload(message, payload) {
			return
		}
		gm.handlePlayerUpdate(message.ClientID, payload)
	case messages.MessageTypeClientJoinRace:
		payload := &messages.ClientJoinRace{}
		if !unmarshalPayload(message, payload) {
			return
		}
		gm.handleJoinRace(message.ClientID, payload)
	case messages.MessageTypeClientReadyToRace:
		gm.handleReadyToRace(message.ClientID)
	case messages.MessageTypeClientPlayerFinish:
		payload := &messages.ClientPlayerFinish{}
		if !unmarshalPayload(message, payload) {
			return
		}
		gm.handlePlayerFinish(message.ClientID, payload)
	default:
		log.Error("Unhandled message type: %s", message.Type)
	}
}

func unmarshalPayload(message *messages.Message, payload interface{}) bool {
	if len(message.Payload) == 0 {
		return true
	}
	if err := json.Unmarshal(message.Payload, payload); err != nil {
		log.Error("Failed to unmarshal %s payload from client %d: %v", message.Type, message.ClientID, err)
		return false
	}
	return true
}

// sendEvent marshals a payload and sends it to a single client.
func (gm *GameManager) sendEvent(clientID uint32, eventType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error("Failed to marshal %s payload: %v", eventType, err)
		return
	}
	msg := &messages.Message{
		ClientID: 0, // ClientID 0 means the message is from the server
		Type:     eventType,
		Payload:  data,
	}
	if err := gm.sender.SendMessage(clientID, msg); err != nil {
		log.Error("Failed to send %s to client %d: %v", eventType, clientID, err)
	}
}

// sendError surfaces a room or race error to the triggering client.
func (gm *GameManager) sendError(clientID uint32, err error) {
	gm.sendEvent(clientID, messages.MessageTypeServerError, &messages.ServerError{
		Message: err.Error(),
	})
}
