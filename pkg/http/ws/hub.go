package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Hub manages WebSocket connections and broadcasts messages to room members.
// Connections are keyed by a per-connection id rather than a user id because
// anonymous connections are allowed to join rooms.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]*Connection // conn_id -> connection
	rooms       map[string][]string    // room_code -> []conn_id
	logger      zerolog.Logger
}

// NewHub creates a new WebSocket hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[string]*Connection),
		rooms:       make(map[string][]string),
		logger:      logger,
	}
}

// Register adds a connection to the hub.
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[conn.ID] = conn
	h.logger.Info().Str("conn_id", conn.ID).Msg("connection registered")
}

// Unregister removes a connection and its room memberships.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn, exists := h.connections[connID]; exists {
		conn.Close()
		delete(h.connections, connID)
		h.logger.Info().Str("conn_id", connID).Msg("connection unregistered")
	}

	for code, members := range h.rooms {
		for i, id := range members {
			if id == connID {
				h.rooms[code] = append(members[:i], members[i+1:]...)
				break
			}
		}
	}
}

// JoinRoom associates a connection with a room code for targeted broadcasts.
func (h *Hub) JoinRoom(roomCode, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members := h.rooms[roomCode]
	for _, id := range members {
		if id == connID {
			return // already joined
		}
	}
	h.rooms[roomCode] = append(members, connID)
}

// LeaveRoom removes a connection from a room.
func (h *Hub) LeaveRoom(roomCode, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members := h.rooms[roomCode]
	for i, id := range members {
		if id == connID {
			h.rooms[roomCode] = append(members[:i], members[i+1:]...)
			break
		}
	}
}

// DropRoom removes every membership for a room code.
func (h *Hub) DropRoom(roomCode string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.rooms, roomCode)
}

// BroadcastToRoom sends a message to every connection in a room.
func (h *Hub) BroadcastToRoom(roomCode string, msg Message) error {
	h.mu.RLock()
	members := append([]string(nil), h.rooms[roomCode]...)
	h.mu.RUnlock()

	var firstErr error
	for _, connID := range members {
		if err := h.SendToConn(connID, msg); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// BroadcastAll sends a message to every connected client.
func (h *Hub) BroadcastAll(msg Message) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var firstErr error
	for connID, conn := range h.connections {
		if err := conn.Send(msg); err != nil && firstErr == nil {
			firstErr = err
			h.logger.Warn().Err(err).Str("conn_id", connID).Msg("broadcast_all_send_failed")
		}
	}
	return firstErr
}

// SendToConn delivers a message to a specific connection.
func (h *Hub) SendToConn(connID string, msg Message) error {
	h.mu.RLock()
	conn, exists := h.connections[connID]
	h.mu.RUnlock()

	if !exists {
		return ErrConnectionNotFound
	}

	return conn.Send(msg)
}

// Connection returns the connection for an id.
func (h *Hub) Connection(connID string) (*Connection, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conn, exists := h.connections[connID]
	return conn, exists
}

// Connection represents a WebSocket connection with a send queue.
type Connection struct {
	ID     string
	conn   *websocket.Conn
	sendCh chan Message
	mu     sync.Mutex
	closed bool
	logger zerolog.Logger
}

// NewConnection wraps a WebSocket connection and assigns it an id.
func NewConnection(conn *websocket.Conn, logger zerolog.Logger) *Connection {
	return &Connection{
		ID:     uuid.NewString(),
		conn:   conn,
		sendCh: make(chan Message, 256),
		logger: logger,
	}
}

// Send queues a message for delivery.
func (c *Connection) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}

	select {
	case c.sendCh <- msg:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close shuts down the connection.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.sendCh)
	c.conn.Close()
}

// WritePump sends messages from the send queue.
func (c *Connection) WritePump() {
	defer c.conn.Close()

	for msg := range c.sendCh {
		if err := c.conn.WriteJSON(msg); err != nil {
			c.logger.Warn().Err(err).Msg("write error")
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// ReadPump receives messages and calls the handler.
func (c *Connection) ReadPump(handler func(Message) error) {
	defer c.conn.Close()

	// Read deadline of 60 seconds, extended on pong
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("read error")
			}
			break
		}

		if err := handler(msg); err != nil {
			c.logger.Warn().Err(err).Msg("message handler error")
		}
	}
}

var (
	ErrConnectionNotFound = &Error{Code: "connection_not_found", Message: "Connection not found"}
	ErrConnectionClosed   = &Error{Code: "connection_closed", Message: "Connection is closed"}
	ErrSendQueueFull      = &Error{Code: "send_queue_full", Message: "Send queue is full"}
)

type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
