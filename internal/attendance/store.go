package attendance

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"liveboard/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS attendance (
	connection_id   TEXT PRIMARY KEY,
	room            TEXT NOT NULL DEFAULT '',
	username        TEXT NOT NULL DEFAULT '',
	role            TEXT NOT NULL DEFAULT '',
	connected_at    DATETIME NOT NULL,
	disconnected_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_attendance_room ON attendance(room);
`

// Store persists connect/join/disconnect timestamps per connection in
// SQLite. All writes funnel through a single goroutine: SQLite allows one
// writer, and serializing here beats busy-timeout contention under
// classroom load. Reads go straight to the pool.
type Store struct {
	db           *sql.DB
	writeChannel chan writeOperation
	shutdown     chan struct{}
	wg           sync.WaitGroup
	closed       bool
	mu           sync.RWMutex // protects closed status
}

// writeOperation represents a queued database write.
type writeOperation struct {
	operation func(*sql.DB) error
	result    chan error
}

// NewStore opens (creating if needed) the attendance database and starts
// the writer goroutine.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open attendance database: %w", err)
	}

	db.SetMaxOpenConns(10)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply attendance schema: %w", err)
	}

	store := &Store{
		db:           db,
		writeChannel: make(chan writeOperation, 100),
		shutdown:     make(chan struct{}),
	}

	store.wg.Add(1)
	go store.writeLoop()

	return store, nil
}

// writeLoop processes all writes in a single goroutine with one retry.
func (s *Store) writeLoop() {
	defer s.wg.Done()

	for {
		select {
		case op := <-s.writeChannel:
			err := op.operation(s.db)
			if err != nil {
				log.Printf("Attendance write failed, retrying: %v", err)
				err = op.operation(s.db)
				if err != nil {
					log.Printf("Attendance write failed after retry: %v", err)
				}
			}
			op.result <- err

		case <-s.shutdown:
			return
		}
	}
}

// executeWrite queues a write operation and waits for completion.
func (s *Store) executeWrite(operation func(*sql.DB) error) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrStoreClosed
	}
	s.mu.RUnlock()

	result := make(chan error, 1)

	select {
	case s.writeChannel <- writeOperation{operation: operation, result: result}:
		return <-result
	case <-time.After(30 * time.Second):
		return ErrWriteTimeout
	case <-s.shutdown:
		return ErrStoreClosed
	}
}

// RecordConnect records a new transport connection.
func (s *Store) RecordConnect(connectionID string, at time.Time) error {
	return s.executeWrite(func(db *sql.DB) error {
		_, err := db.Exec(
			`INSERT OR REPLACE INTO attendance (connection_id, connected_at) VALUES (?, ?)`,
			connectionID, at)
		return err
	})
}

// RecordJoin fills in the room and claimed identity once the connection
// joins a room.
func (s *Store) RecordJoin(connectionID, room, username, role string) error {
	return s.executeWrite(func(db *sql.DB) error {
		_, err := db.Exec(
			`UPDATE attendance SET room = ?, username = ?, role = ? WHERE connection_id = ?`,
			room, username, role, connectionID)
		return err
	})
}

// RecordDisconnect closes the presence interval.
func (s *Store) RecordDisconnect(connectionID string, at time.Time) error {
	return s.executeWrite(func(db *sql.DB) error {
		_, err := db.Exec(
			`UPDATE attendance SET disconnected_at = ? WHERE connection_id = ?`,
			at, connectionID)
		return err
	})
}

// RoomAttendance returns all presence records for a room, most recent
// first.
func (s *Store) RoomAttendance(ctx context.Context, room string) ([]*types.AttendanceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT connection_id, room, username, role, connected_at, disconnected_at
		 FROM attendance WHERE room = ? ORDER BY connected_at DESC`, room)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer rows.Close()

	var records []*types.AttendanceRecord
	for rows.Next() {
		record := &types.AttendanceRecord{}
		var leftAt sql.NullTime
		if err := rows.Scan(&record.ConnectionID, &record.Room, &record.Username,
			&record.Role, &record.ConnectedAt, &leftAt); err != nil {
			return nil, fmt.Errorf("failed to scan attendance row: %w", err)
		}
		if leftAt.Valid {
			record.LeftAt = &leftAt.Time
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// HealthCheck verifies database connectivity.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close drains pending writes and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.shutdown)
	s.wg.Wait()

	return s.db.Close()
}
