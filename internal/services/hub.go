package services

import (
	"encoding/json"
	"fmt"
	"sync"

	"aphro-backend/internal/metrics"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Conn is the subset of a websocket connection the hub needs. Satisfied
// by *websocket.Conn.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Presence tracks which users currently hold a live connection. The hub
// below is the per-process implementation; a broker-backed one can
// replace it without touching call sites.
type Presence interface {
	Register(userID string, conn Conn)
	Unregister(userID string, conn Conn)
	SendToUser(userID string, message interface{}) error
	IsOnline(userID string) bool
}

// hubConn pairs a connection with a write mutex. gorilla/websocket
// permits only one concurrent writer per connection, and a user's
// connection can be written by many senders plus their own handler.
type hubConn struct {
	mu   sync.Mutex
	conn Conn
}

func (c *hubConn) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub manages live websocket connections, one per user. The most recent
// registration for a user wins.
type Hub struct {
	mu            sync.RWMutex
	connections   map[string]*hubConn
	closeReplaced bool
}

// NewHub creates a new connection hub. When closeReplaced is set, a
// connection displaced by a reconnect is closed instead of left dangling.
func NewHub(closeReplaced bool) *Hub {
	return &Hub{
		connections:   make(map[string]*hubConn),
		closeReplaced: closeReplaced,
	}
}

// Register registers a live connection for a user, replacing any
// previous mapping entry
func (h *Hub) Register(userID string, conn Conn) {
	h.mu.Lock()
	prev, had := h.connections[userID]
	h.connections[userID] = &hubConn{conn: conn}
	h.mu.Unlock()

	if had && h.closeReplaced && prev.conn != conn {
		prev.conn.Close()
	}
	if !had {
		metrics.WsConnections.Inc()
	}
	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
}

// Unregister removes a user's connection. The conn argument guards
// against a stale handler removing a newer connection.
func (h *Hub) Unregister(userID string, conn Conn) {
	h.mu.Lock()
	current, exists := h.connections[userID]
	if exists && current.conn == conn {
		delete(h.connections, userID)
	} else {
		exists = false
	}
	h.mu.Unlock()

	if exists {
		metrics.WsConnections.Dec()
		log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
	}
}

// SendToUser sends a JSON message to a specific user. Writes to one
// connection are serialized on its write mutex.
func (h *Hub) SendToUser(userID string, message interface{}) error {
	h.mu.RLock()
	entry, exists := h.connections[userID]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := entry.write(data); err != nil {
		h.Unregister(userID, entry.conn)
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// IsOnline checks if a user holds a live connection
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.connections[userID]
	return exists
}
