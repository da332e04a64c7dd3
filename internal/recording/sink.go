package recording

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"

	"liveboard/internal/storage"
	"liveboard/pkg/types"
)

// Session is one start-to-stop capture interval for a room. It owns two
// append-only sinks: a line-delimited JSON event log and a raw audio file.
// Both are exclusively written through this struct for the lifetime of
// the recording; relay events arrive from many connection goroutines, so
// sink writes are serialized by the session mutex.
type Session struct {
	ID        string
	Room      string
	StartedAt time.Time

	mu     sync.Mutex
	events *os.File
	audio  *os.File
	closed bool
}

func newSession(id, room string, startedAt time.Time, store *storage.Store) (*Session, error) {
	events, err := os.OpenFile(store.EventLogPath(id), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	audio, err := os.OpenFile(store.AudioPath(id), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		_ = events.Close()
		return nil, err
	}

	return &Session{
		ID:        id,
		Room:      room,
		StartedAt: startedAt,
		events:    events,
		audio:     audio,
	}, nil
}

// appendEvent writes one structured record with a timestamp relative to
// session start. Write failures are logged per event; the session keeps
// accepting subsequent events.
func (s *Session) appendEvent(kind string, payload map[string]interface{}) {
	relative := time.Since(s.StartedAt).Milliseconds()
	if relative < 0 {
		relative = 0 // clock adjustment during capture
	}

	record := types.CapturedEvent{
		Type:       kind,
		RelativeMs: relative,
		Payload:    payload,
	}

	line, err := json.Marshal(record)
	if err != nil {
		log.Printf("Failed to encode recorded event: session=%s type=%s err=%v", s.ID, kind, err)
		return
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if _, err := s.events.Write(line); err != nil {
		log.Printf("Failed to write event sink: session=%s type=%s err=%v", s.ID, kind, err)
	}
}

// appendAudio writes raw audio bytes to the audio sink.
func (s *Session) appendAudio(chunk []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if _, err := s.audio.Write(chunk); err != nil {
		log.Printf("Failed to write audio sink: session=%s err=%v", s.ID, err)
	}
}

// close flushes and closes both sinks. Close failures are logged; by this
// point the data that made it to disk is all there is.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true

	if err := s.events.Close(); err != nil {
		log.Printf("Failed to close event sink: session=%s err=%v", s.ID, err)
	}
	if err := s.audio.Close(); err != nil {
		log.Printf("Failed to close audio sink: session=%s err=%v", s.ID, err)
	}
}
