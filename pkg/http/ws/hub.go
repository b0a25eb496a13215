package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Hub manages WebSocket connections and broadcasts messages to game participants.
// Players are keyed by their opaque studentID; games group players by join code.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]*Connection // studentID -> connection
	games       map[string][]string    // join code -> []studentID
	logger      zerolog.Logger
}

// NewHub creates a new WebSocket hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[string]*Connection),
		games:       make(map[string][]string),
		logger:      logger,
	}
}

// RegisterConnection adds a connection for a player.
func (h *Hub) RegisterConnection(studentID string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Close existing connection if any
	if old, exists := h.connections[studentID]; exists {
		old.Close()
	}

	h.connections[studentID] = conn
	h.logger.Info().Str("student_id", studentID).Msg("connection registered")
}

// UnregisterConnection removes a connection.
func (h *Hub) UnregisterConnection(studentID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn, exists := h.connections[studentID]; exists {
		conn.Close()
		delete(h.connections, studentID)
		h.logger.Info().Str("student_id", studentID).Msg("connection unregistered")
	}

	for code, players := range h.games {
		for i, id := range players {
			if id == studentID {
				h.games[code] = append(players[:i], players[i+1:]...)
				break
			}
		}
	}
}

// JoinGame associates a player with a join code for targeted broadcasts.
func (h *Hub) JoinGame(code, studentID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	players := h.games[code]
	for _, id := range players {
		if id == studentID {
			return // already joined
		}
	}
	h.games[code] = append(players, studentID)
}

// LeaveGame removes a player from a game.
func (h *Hub) LeaveGame(code, studentID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	players := h.games[code]
	for i, id := range players {
		if id == studentID {
			h.games[code] = append(players[:i], players[i+1:]...)
			break
		}
	}
}

// GamePlayers returns the ids currently attached to a join code.
func (h *Hub) GamePlayers(code string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	players := h.games[code]
	out := make([]string, len(players))
	copy(out, players)
	return out
}

// PlayerCount reports the number of live connections.
func (h *Hub) PlayerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// BroadcastToGame sends a message to all players attached to a join code.
func (h *Hub) BroadcastToGame(code string, msg Message) error {
	h.mu.RLock()
	players := h.games[code]
	h.mu.RUnlock()

	var firstErr error
	for _, studentID := range players {
		if err := h.SendToPlayer(studentID, msg); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// BroadcastAll sends a message to every connected player.
func (h *Hub) BroadcastAll(msg Message) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var firstErr error
	for studentID, conn := range h.connections {
		if err := conn.Send(msg); err != nil && firstErr == nil {
			firstErr = err
			h.logger.Warn().Err(err).Str("student_id", studentID).Msg("broadcast_all_send_failed")
		}
	}
	return firstErr
}

// SendToPlayer delivers a message to a specific player.
func (h *Hub) SendToPlayer(studentID string, msg Message) error {
	h.mu.RLock()
	conn, exists := h.connections[studentID]
	h.mu.RUnlock()

	if !exists {
		return ErrConnectionNotFound
	}

	return conn.Send(msg)
}

// Connection represents a WebSocket connection with send queue.
type Connection struct {
	conn   *websocket.Conn
	sendCh chan Message
	mu     sync.Mutex
	closed bool
	logger zerolog.Logger
}

// NewConnection wraps a WebSocket connection.
func NewConnection(conn *websocket.Conn, logger zerolog.Logger) *Connection {
	return &Connection{
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

	// Set read deadline to 60 seconds, extend on pong
	readDeadline := time.Now().Add(60 * time.Second)
	c.conn.SetReadDeadline(readDeadline)
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
	ErrConnectionNotFound = &Error{Code: "connection_not_found", Message: "Player connection not found"}
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
