package recording

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"liveboard/internal/storage"
)

// Manager owns the per-room recording state machine: Idle -> Recording ->
// Idle. At most one active session exists per room at any instant; the
// check-and-set for start/stop happens under a single mutex so concurrent
// start requests from multiple clients collapse into one session.
//
// The manager never returns errors to the transport layer. Sink failures
// are logged per event and the session carries on; a recording with holes
// beats a torn-down classroom connection.
type Manager struct {
	store  *storage.Store
	mu     sync.Mutex
	active map[string]*Session // room -> active session
}

// NewManager creates a recording manager backed by the given artifact
// store.
func NewManager(store *storage.Store) *Manager {
	return &Manager{
		store:  store,
		active: make(map[string]*Session),
	}
}

// Start begins a recording session for the room. Idempotent: if a session
// is already active the call is a no-op and started is false. A sink-open
// failure leaves the room idle and is reported the same way.
func (m *Manager) Start(room string) (sessionID string, started bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.active[room]; exists {
		return "", false
	}

	now := time.Now()
	// Wall-clock millis keep ids sortable by creation time; the uuid
	// suffix keeps them unique under clock skew or rapid start/stop.
	id := fmt.Sprintf("%s_%d_%s", room, now.UnixMilli(), uuid.New().String()[:8])

	session, err := newSession(id, room, now, m.store)
	if err != nil {
		log.Printf("Failed to open recording sinks: room=%s session=%s err=%v", room, id, err)
		return "", false
	}

	m.active[room] = session
	log.Printf("Recording started: room=%s session=%s", room, id)
	return id, true
}

// Stop finalizes the room's active session: both sinks are flushed and
// closed, and the session id is returned so the caller can hand it to the
// processing pipeline. Stop with no active session is a no-op.
func (m *Manager) Stop(room string) (sessionID string, stopped bool) {
	m.mu.Lock()
	session, exists := m.active[room]
	if exists {
		delete(m.active, room)
	}
	m.mu.Unlock()

	if !exists {
		return "", false
	}

	session.close()
	log.Printf("Recording stopped: room=%s session=%s duration=%s",
		room, session.ID, time.Since(session.StartedAt).Round(time.Millisecond))
	return session.ID, true
}

// IsRecording reports whether the room has an active session. Used to
// tell late joiners that a recording is in progress.
func (m *Manager) IsRecording(room string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, exists := m.active[room]
	return exists
}

// CaptureEvent appends one structured record to the room's event sink.
// Silently does nothing when the room is not recording.
func (m *Manager) CaptureEvent(room, kind string, payload map[string]interface{}) {
	m.mu.Lock()
	session, exists := m.active[room]
	m.mu.Unlock()

	if !exists {
		return
	}
	session.appendEvent(kind, payload)
}

// CaptureAudio appends raw audio bytes to the room's audio sink. Audio is
// never duplicated into the structured sink.
func (m *Manager) CaptureAudio(room string, chunk []byte) {
	m.mu.Lock()
	session, exists := m.active[room]
	m.mu.Unlock()

	if !exists || len(chunk) == 0 {
		return
	}
	session.appendAudio(chunk)
}

// StopAll finalizes every active session. Called on shutdown; the stopped
// sessions are not handed to the pipeline.
func (m *Manager) StopAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.active))
	for room, session := range m.active {
		sessions = append(sessions, session)
		delete(m.active, room)
	}
	m.mu.Unlock()

	for _, session := range sessions {
		session.close()
		log.Printf("Recording finalized on shutdown: room=%s session=%s", session.Room, session.ID)
	}
}

// GetStats returns recording statistics for the health endpoint.
func (m *Manager) GetStats() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return map[string]int{
		"active_recordings": len(m.active),
	}
}
