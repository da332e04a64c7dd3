package interfaces

import (
	"context"
	"time"

	"liveboard/pkg/types"
)

// AttendanceTracker records connect/join/disconnect timestamps per
// connection. Write operations are fire-and-forget from the transport's
// point of view: a persistence failure must never tear down a connection.
type AttendanceTracker interface {
	// RecordConnect records a new transport connection.
	RecordConnect(connectionID string, at time.Time) error

	// RecordJoin fills in room and claimed identity once the connection
	// joins a room.
	RecordJoin(connectionID, room, username, role string) error

	// RecordDisconnect closes the presence interval.
	RecordDisconnect(connectionID string, at time.Time) error

	// RoomAttendance returns all presence records for a room, most
	// recent first.
	RoomAttendance(ctx context.Context, room string) ([]*types.AttendanceRecord, error)

	// HealthCheck verifies the backing store is reachable.
	HealthCheck(ctx context.Context) error

	// Close flushes pending writes and releases the store.
	Close() error
}
