package websocket

import (
	"sync"
	"time"

	"github.com/dropmind/backend/internal/domain"
	"github.com/gorilla/websocket"
)

// ConnectionManager handles active WebSocket connections thread-safely
type ConnectionManager struct {
	connections map[string]*websocket.Conn

	// writeMu ensures only one goroutine writes to a specific socket at a
	// time. conn.WriteJSON is not safe for concurrent use and the engine
	// reply goroutine races the read loop's error replies without it.
	writeMu map[string]*sync.Mutex

	mu sync.RWMutex // Protects the maps themselves
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*websocket.Conn),
		writeMu:     make(map[string]*sync.Mutex),
	}
}

// AddConnection registers a new connection and initializes its write lock
func (cm *ConnectionManager) AddConnection(clientID string, conn *websocket.Conn) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	// Close the old connection if it exists (single session per client)
	if oldConn, exists := cm.connections[clientID]; exists {
		oldConn.Close()
	}

	cm.connections[clientID] = conn
	cm.writeMu[clientID] = &sync.Mutex{}
}

// RemoveConnectionIfMatching avoids the race where cleanup of an old
// connection would close a newly established one for the same client. It
// reports whether conn was still the client's active connection, so the
// caller knows if it owned the client's session or was already replaced
// by a reconnect.
func (cm *ConnectionManager) RemoveConnectionIfMatching(clientID string, conn *websocket.Conn) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if currentConn, exists := cm.connections[clientID]; exists && currentConn == conn {
		currentConn.Close()
		delete(cm.connections, clientID)
		delete(cm.writeMu, clientID)
		return true
	}
	return false
}

// SendMessage sends a JSON message to a specific client
func (cm *ConnectionManager) SendMessage(clientID string, message domain.ServerMessage) error {
	cm.mu.RLock()
	conn, exists := cm.connections[clientID]
	mu, muExists := cm.writeMu[clientID]
	cm.mu.RUnlock()

	if !exists || !muExists {
		return nil // Client disconnected, ignore
	}

	mu.Lock()
	defer mu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(message)
}
