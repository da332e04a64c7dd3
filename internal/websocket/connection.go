package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Connection wraps one gorilla WebSocket connection. Writes must be
// serialized, so all outbound traffic funnels through a single writer
// goroutine over a buffered channel; the buffer absorbs classroom
// fan-out bursts. Identity fields are client-supplied at join time and
// mutex-guarded; they are claims, not credentials.
type Connection struct {
	id           string
	conn         *websocket.Conn
	writeCh      chan []byte
	writeTimeout time.Duration
	connectedAt  time.Time

	username string // set on join_room
	role     string // set on join_room

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	mu        sync.RWMutex // protects identity fields
}

// NewConnection creates a connection wrapper and starts its writer
// goroutine. The connection id is server-assigned and unique.
// Non-positive bufferSize or writeTimeout fall back to the defaults.
func NewConnection(conn *websocket.Conn, bufferSize int, writeTimeout time.Duration) *Connection {
	if bufferSize <= 0 {
		bufferSize = DefaultSettings().BufferSize
	}
	if writeTimeout <= 0 {
		writeTimeout = DefaultSettings().WriteTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		id:           uuid.New().String(),
		conn:         conn,
		writeCh:      make(chan []byte, bufferSize),
		writeTimeout: writeTimeout,
		connectedAt:  time.Now(),
		ctx:          ctx,
		cancel:       cancel,
	}

	go c.writeLoop()

	return c
}

// writeLoop is the single writer for the underlying socket. Any exit
// cancels the connection context so queued and future writers fail fast
// instead of filling the buffer against a dead socket.
func (c *Connection) writeLoop() {
	defer c.cancel()

	for {
		select {
		case data := <-c.writeCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// WriteJSON sends a JSON message to the client. Thread-safe. Returns
// ErrWriteTimeout when the client cannot drain its buffer in time; the
// relay treats that as a slow consumer and moves on.
func (c *Connection) WriteJSON(v interface{}) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	data, err := json.Marshal(v)
	if err != nil {
		return ErrInvalidJSON
	}

	select {
	case c.writeCh <- data:
		return nil
	case <-time.After(c.writeTimeout):
		return ErrWriteTimeout
	case <-c.ctx.Done():
		return ErrConnectionClosed
	}
}

// Close shuts down the writer goroutine and the underlying socket.
// Idempotent.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		if c.conn != nil {
			err = c.conn.Close()
		}
	})
	return err
}

// SetIdentity records the client-claimed username and role at join time.
func (c *Connection) SetIdentity(username, role string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.username = username
	c.role = role
}

// ID returns the server-assigned connection id.
func (c *Connection) ID() string {
	return c.id
}

// Username returns the client-supplied display name, or "" before join.
func (c *Connection) Username() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.username
}

// Role returns the client-claimed role.
func (c *Connection) Role() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.role
}

// ConnectedAt returns the transport connect time.
func (c *Connection) ConnectedAt() time.Time {
	return c.connectedAt
}
