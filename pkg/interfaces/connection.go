package interfaces

import "time"

// Connection represents one live client transport session.
// Implementations must make WriteJSON safe for concurrent use; the relay
// fans out to many connections from many reader goroutines.
type Connection interface {
	// ID returns the server-assigned unique connection id.
	ID() string

	// WriteJSON sends a JSON message to the client (thread-safe).
	WriteJSON(v interface{}) error

	// Close closes the connection and cleans up resources. Idempotent.
	Close() error

	// Username returns the client-supplied display name, or "" before
	// the connection has joined a room.
	Username() string

	// Role returns the client-claimed role ("student" or "teacher").
	Role() string

	// ConnectedAt returns the transport connect time.
	ConnectedAt() time.Time
}
