package recording

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"
	"sync"
	"testing"

	"liveboard/internal/storage"
	"liveboard/pkg/types"
)

func newTestManager(t *testing.T) (*Manager, *storage.Store) {
	t.Helper()
	store, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return NewManager(store), store
}

func readCapturedEvents(t *testing.T, path string) []types.CapturedEvent {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open event log: %v", err)
	}
	defer func() { _ = f.Close() }()

	var events []types.CapturedEvent
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var evt types.CapturedEvent
		if err := json.Unmarshal(scanner.Bytes(), &evt); err != nil {
			t.Fatalf("Event log line is not valid JSON: %v", err)
		}
		events = append(events, evt)
	}
	return events
}

func TestManager_StartIsIdempotent(t *testing.T) {
	manager, _ := newTestManager(t)
	defer manager.StopAll()

	first, started := manager.Start("r1")
	if !started || first == "" {
		t.Fatalf("Expected first start to create a session, got (%q, %v)", first, started)
	}
	if !strings.HasPrefix(first, "r1_") {
		t.Errorf("Expected session id prefixed by room, got %s", first)
	}
	if !types.IsValidSessionID(first) {
		t.Errorf("Expected generated session id to be valid, got %s", first)
	}

	second, started := manager.Start("r1")
	if started || second != "" {
		t.Errorf("Expected second start to be a no-op, got (%q, %v)", second, started)
	}

	if stats := manager.GetStats(); stats["active_recordings"] != 1 {
		t.Errorf("Expected 1 active recording, stats: %v", stats)
	}
}

func TestManager_ConcurrentStart(t *testing.T) {
	manager, _ := newTestManager(t)
	defer manager.StopAll()

	const racers = 8
	gate := make(chan struct{})
	results := make(chan bool, racers)

	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-gate
			_, started := manager.Start("r1")
			results <- started
		}()
	}
	close(gate)
	wg.Wait()
	close(results)

	winners := 0
	for started := range results {
		if started {
			winners++
		}
	}
	if winners != 1 {
		t.Errorf("Expected exactly one start to win, got %d", winners)
	}
	if stats := manager.GetStats(); stats["active_recordings"] != 1 {
		t.Errorf("Expected 1 active recording, stats: %v", stats)
	}
}

func TestManager_StopLifecycle(t *testing.T) {
	manager, _ := newTestManager(t)

	// Stop with nothing active is a silent no-op.
	if id, stopped := manager.Stop("r1"); stopped || id != "" {
		t.Errorf("Expected stop on idle room to be a no-op, got (%q, %v)", id, stopped)
	}

	started, _ := manager.Start("r1")
	if !manager.IsRecording("r1") {
		t.Error("Expected room to be recording after start")
	}

	stoppedID, stopped := manager.Stop("r1")
	if !stopped || stoppedID != started {
		t.Errorf("Expected stop to return session %s, got (%q, %v)", started, stoppedID, stopped)
	}
	if manager.IsRecording("r1") {
		t.Error("Expected room to be idle after stop")
	}

	// The room can immediately record again under a fresh session id.
	next, started2 := manager.Start("r1")
	if !started2 {
		t.Fatal("Expected restart after stop to succeed")
	}
	if next == stoppedID {
		t.Errorf("Expected a fresh session id, got %s twice", next)
	}
	manager.StopAll()
}

func TestManager_RoomsAreIndependent(t *testing.T) {
	manager, _ := newTestManager(t)
	defer manager.StopAll()

	idA, _ := manager.Start("room-a")
	idB, _ := manager.Start("room-b")
	if idA == idB {
		t.Fatalf("Expected distinct sessions per room, got %s twice", idA)
	}

	if _, stopped := manager.Stop("room-a"); !stopped {
		t.Fatal("Expected stop on room-a to succeed")
	}
	if !manager.IsRecording("room-b") {
		t.Error("Expected room-b to keep recording after room-a stopped")
	}
}

func TestManager_CaptureEvent(t *testing.T) {
	manager, store := newTestManager(t)

	// Captures before start must go nowhere.
	manager.CaptureEvent("r1", types.RecordKindDraw, map[string]interface{}{"stroke": "lost"})

	sessionID, _ := manager.Start("r1")
	manager.CaptureEvent("r1", types.RecordKindDraw, map[string]interface{}{"stroke": "a"})
	manager.CaptureEvent("r1", types.RecordKindBackground, map[string]interface{}{"url": "slide-2.png"})
	manager.Stop("r1")

	// Captures after stop must go nowhere either.
	manager.CaptureEvent("r1", types.RecordKindDraw, map[string]interface{}{"stroke": "late"})

	events := readCapturedEvents(t, store.EventLogPath(sessionID))
	if len(events) != 2 {
		t.Fatalf("Expected 2 captured events, got %d", len(events))
	}

	if events[0].Type != types.RecordKindDraw || events[1].Type != types.RecordKindBackground {
		t.Errorf("Unexpected event kinds: %s, %s", events[0].Type, events[1].Type)
	}
	if events[0].Payload["stroke"] != "a" {
		t.Errorf("Unexpected first payload: %v", events[0].Payload)
	}

	// Timestamps are relative to session start, non-negative, and ordered.
	if events[0].RelativeMs < 0 {
		t.Errorf("Expected non-negative relative timestamp, got %d", events[0].RelativeMs)
	}
	if events[1].RelativeMs < events[0].RelativeMs {
		t.Errorf("Expected monotonic timestamps, got %d then %d", events[0].RelativeMs, events[1].RelativeMs)
	}
}

func TestManager_CaptureAudio(t *testing.T) {
	manager, store := newTestManager(t)

	sessionID, _ := manager.Start("r1")
	manager.CaptureAudio("r1", []byte{0x1a, 0x45})
	manager.CaptureAudio("r1", nil) // empty chunks are dropped
	manager.CaptureAudio("r1", []byte{0xdf, 0xa3})
	manager.Stop("r1")

	data, err := os.ReadFile(store.AudioPath(sessionID))
	if err != nil {
		t.Fatalf("Failed to read audio sink: %v", err)
	}
	want := []byte{0x1a, 0x45, 0xdf, 0xa3}
	if string(data) != string(want) {
		t.Errorf("Expected audio chunks appended in order, got %v", data)
	}

	// Audio never leaks into the structured event sink.
	if events := readCapturedEvents(t, store.EventLogPath(sessionID)); len(events) != 0 {
		t.Errorf("Expected empty event log, got %d entries", len(events))
	}
}

func TestManager_StopAll(t *testing.T) {
	manager, _ := newTestManager(t)

	manager.Start("r1")
	manager.Start("r2")
	manager.StopAll()

	if manager.IsRecording("r1") || manager.IsRecording("r2") {
		t.Error("Expected all rooms idle after StopAll")
	}
	if stats := manager.GetStats(); stats["active_recordings"] != 0 {
		t.Errorf("Expected 0 active recordings, stats: %v", stats)
	}
}
