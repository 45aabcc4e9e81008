package network

import (
	"fmt"
	"sync"

	"github.com/cbodonnell/slipstream/pkg/messages"
	"github.com/gorilla/websocket"
)

const (
	// ClientIDMaxRetries represents the maximum number of retries when generating a unique ID
	ClientIDMaxRetries = 1024
)

// Client represents a connected client.
type Client struct {
	ID     uint32
	WSConn *websocket.Conn

	// writeLock serializes writes to the WebSocket connection.
	writeLock sync.Mutex
}

// ConnectionEventType distinguishes connect and disconnect events.
type ConnectionEventType int

const (
	ConnectionEventTypeConnect ConnectionEventType = iota
	ConnectionEventTypeDisconnect
)

// ConnectionEvent is emitted when a client connects or disconnects.
// Name is only set for connect events.
type ConnectionEvent struct {
	Type     ConnectionEventType
	ClientID uint32
	Name     string
}

// ClientManager manages connected clients.
type ClientManager struct {
	clients     map[uint32]*Client
	clientsLock sync.RWMutex
	nextID      uint32
}

// NewClientManager creates a new ClientManager.
func NewClientManager() *ClientManager {
	return &ClientManager{
		clients: make(map[uint32]*Client),
		nextID:  1,
	}
}

// AddClient adds a new client to the manager and returns its ID.
func (cm *ClientManager) AddClient(wsConn *websocket.Conn) (uint32, error) {
	cm.clientsLock.Lock()
	defer cm.clientsLock.Unlock()
	clientID, err := cm.generateUniqueID(ClientIDMaxRetries)
	if err != nil {
		return 0, fmt.Errorf("failed to generate a unique ID: %v", err)
	}
	cm.clients[clientID] = &Client{
		ID:     clientID,
		WSConn: wsConn,
	}
	return clientID, nil
}

// RemoveClient removes a client from the manager.
func (cm *ClientManager) RemoveClient(clientID uint32) {
	cm.clientsLock.Lock()
	defer cm.clientsLock.Unlock()
	delete(cm.clients, clientID)
}

// GetClient retrieves a client by its ID.
func (cm *ClientManager) GetClient(clientID uint32) (*Client, error) {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	client, ok := cm.clients[clientID]
	if !ok {
		return nil, fmt.Errorf("client %d is not connected", clientID)
	}
	return client, nil
}

// Exists reports whether a client is connected.
func (cm *ClientManager) Exists(clientID uint32) bool {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	_, ok := cm.clients[clientID]
	return ok
}

// Count returns the number of connected clients.
func (cm *ClientManager) Count() int {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	return len(cm.clients)
}

// SendMessage writes a message to a client's WebSocket connection.
func (cm *ClientManager) SendMessage(clientID uint32, msg *messages.Message) error {
	client, err := cm.GetClient(clientID)
	if err != nil {
		return err
	}

	client.writeLock.Lock()
	defer client.writeLock.Unlock()
	if err := client.WSConn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write message to WebSocket connection for client %d: %v", clientID, err)
	}

	return nil
}

// generateUniqueID generates a unique client ID with a maximum number of
// retries. The caller must hold the clients lock.
func (cm *ClientManager) generateUniqueID(maxRetries int) (uint32, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		id := cm.nextID
		cm.nextID++
		if id == 0 {
			// 0 identifies server-originated messages
			continue
		}
		if _, ok := cm.clients[id]; !ok {
			return id, nil
		}
	}

	return 0, fmt.Errorf("failed to generate a unique ID after %d attempts", maxRetries)
}
