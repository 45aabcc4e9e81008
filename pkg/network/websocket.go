package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/cbodonnell/slipstream/pkg/log"
	"github.com/cbodonnell/slipstream/pkg/messages"
	"github.com/cbodonnell/slipstream/pkg/queue"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// WSServer accepts WebSocket connections and feeds inbound events into
// the coordinator queues.
type WSServer struct {
	port                 int
	clientManager        *ClientManager
	messageQueue         queue.Queue
	connectionEventQueue queue.Queue
	statsFunc            func() (rooms int, players int)
}

type NewWSServerOptions struct {
	Port                 int
	ClientManager        *ClientManager
	MessageQueue         queue.Queue
	ConnectionEventQueue queue.Queue
	// StatsFunc reports room/player counts for the debug endpoint.
	StatsFunc func() (rooms int, players int)
}

// NewWSServer creates a new WebSocket server.
func NewWSServer(opts NewWSServerOptions) *WSServer {
	return &WSServer{
		port:                 opts.Port,
		clientManager:        opts.ClientManager,
		messageQueue:         opts.MessageQueue,
		connectionEventQueue: opts.ConnectionEventQueue,
		statsFunc:            opts.StatsFunc,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Start starts the WebSocket server.
func (s *WSServer) Start(ctx context.Context) {
	router := mux.NewRouter()
	router.HandleFunc("/ws", s.handleWS)
	router.HandleFunc("/debug/stats", s.handleStats).Methods(http.MethodGet)

	addr := fmt.Sprintf(":%d", s.port)
	server := &http.Server{Addr: addr, Handler: router}

	go func() {
		<-ctx.Done()
		server.Shutdown(ctx)
	}()

	log.Info("WebSocket server listening on %s", addr)
	if err := server.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("WebSocket server closed")
			return
		}
		log.Error("WebSocket server error: %v", err)
	}
}

func (s *WSServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket: %v", err)
		return
	}
	log.Debug("New WebSocket connection from %s", conn.RemoteAddr().String())

	clientID, err := s.clientManager.AddClient(conn)
	if err != nil {
		log.Error("Failed to add client: %v", err)
		conn.Close()
		return
	}

	if err := s.connectionEventQueue.Enqueue(&ConnectionEvent{
		Type:     ConnectionEventTypeConnect,
		ClientID: clientID,
		Name:     r.URL.Query().Get("player_name"),
	}); err != nil {
		log.Error("Failed to enqueue connect event for client %d: %v", clientID, err)
	}

	go s.handleWSConnection(conn, clientID)
}

// handleWSConnection reads messages from a WebSocket connection until it
// closes, then emits a disconnect event.
func (s *WSServer) handleWSConnection(conn *websocket.Conn, clientID uint32) {
	defer func() {
		s.clientManager.RemoveClient(clientID)
		if err := s.connectionEventQueue.Enqueue(&ConnectionEvent{
			Type:     ConnectionEventTypeDisconnect,
			ClientID: clientID,
		}); err != nil {
			log.Error("Failed to enqueue disconnect event for client %d: %v", clientID, err)
		}
		conn.Close()
	}()

	for {
		message := &messages.Message{}
		if err := conn.ReadJSON(message); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error("Error reading WebSocket message from client %d: %v", clientID, err)
			}
			log.Trace("Connection closed for client %d", clientID)
			return
		}

		// the server is authoritative for the sender's identity
		message.ClientID = clientID

		if err := s.messageQueue.Enqueue(message); err != nil {
			log.Error("Failed to enqueue message from client %d: %v", clientID, err)
		}
	}
}

func (s *WSServer) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]int{
		"clients": s.clientManager.Count(),
	}
	if s.statsFunc != nil {
		rooms, players := s.statsFunc()
		stats["rooms"] = rooms
		stats["players"] = players
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		log.Error("Failed to encode stats: %v", err)
	}
}
