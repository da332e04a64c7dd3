package websocket

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestRegistry_JoinAndMembership(t *testing.T) {
	registry := NewRegistry()
	conn, _ := createTestConnection(t)

	registry.Join(conn, "r1")

	if !registry.IsMember("r1", conn.ID()) {
		t.Error("Expected connection to be a member after Join")
	}

	stats := registry.GetStats()
	if stats["total_connections"] != 1 || stats["active_rooms"] != 1 {
		t.Errorf("Unexpected stats after join: %v", stats)
	}

	// Joining the same room twice must not duplicate membership.
	registry.Join(conn, "r1")
	if got := len(registry.RoomMembers("r1")); got != 1 {
		t.Errorf("Expected 1 member after double join, got %d", got)
	}
}

func TestRegistry_LeaveRemovesEmptyRoom(t *testing.T) {
	registry := NewRegistry()
	conn, _ := createTestConnection(t)

	registry.Join(conn, "r1")
	registry.Leave(conn, "r1")

	if registry.IsMember("r1", conn.ID()) {
		t.Error("Expected connection to be removed after Leave")
	}
	if stats := registry.GetStats(); stats["active_rooms"] != 0 {
		t.Errorf("Expected empty room to be deleted, stats: %v", stats)
	}

	// Leaving a room we never joined is a no-op.
	registry.Leave(conn, "never-joined")
}

func TestRegistry_RemoveConnection(t *testing.T) {
	registry := NewRegistry()
	conn, _ := createTestConnection(t)

	registry.Join(conn, "r1")
	registry.Join(conn, "r2")

	left := registry.RemoveConnection(conn)
	if len(left) != 2 {
		t.Fatalf("Expected 2 rooms left, got %v", left)
	}

	rooms := map[string]bool{left[0]: true, left[1]: true}
	if !rooms["r1"] || !rooms["r2"] {
		t.Errorf("Expected rooms r1 and r2, got %v", left)
	}

	if stats := registry.GetStats(); stats["total_connections"] != 0 || stats["active_rooms"] != 0 {
		t.Errorf("Expected empty registry after removal, stats: %v", stats)
	}
}

func TestRegistry_RoomMembersExcept(t *testing.T) {
	registry := NewRegistry()
	sender, _ := createTestConnection(t)
	other, _ := createTestConnection(t)

	registry.Join(sender, "r1")
	registry.Join(other, "r1")

	members := registry.RoomMembersExcept("r1", sender.ID())
	if len(members) != 1 {
		t.Fatalf("Expected 1 recipient, got %d", len(members))
	}
	if members[0].ID() != other.ID() {
		t.Errorf("Expected recipient %s, got %s", other.ID(), members[0].ID())
	}
}

func TestRegistry_BroadcastToRoom(t *testing.T) {
	registry := NewRegistry()

	received := make([]chan []byte, 3)
	for i := range received {
		conn, ch := createTestConnection(t)
		received[i] = ch
		registry.Join(conn, "r1")
	}

	delivered := registry.BroadcastToRoom("r1", map[string]string{"event": "recording_status"})
	if delivered != 3 {
		t.Errorf("Expected 3 deliveries, got %d", delivered)
	}

	for i, ch := range received {
		select {
		case data := <-ch:
			var got map[string]interface{}
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("Member %d received invalid JSON: %v", i, err)
			}
			if got["event"] != "recording_status" {
				t.Errorf("Member %d received unexpected event: %v", i, got)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("Member %d never received the broadcast", i)
		}
	}

	if delivered := registry.BroadcastToRoom("empty-room", map[string]string{"event": "x"}); delivered != 0 {
		t.Errorf("Expected 0 deliveries to empty room, got %d", delivered)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	registry := NewRegistry()

	conns := make([]*Connection, 10)
	for i := range conns {
		conns[i], _ = createTestConnection(t)
	}

	var wg sync.WaitGroup
	for i, conn := range conns {
		wg.Add(1)
		go func(i int, conn *Connection) {
			defer wg.Done()
			room := fmt.Sprintf("room-%d", i%3)
			for j := 0; j < 50; j++ {
				registry.Join(conn, room)
				registry.RoomMembers(room)
				registry.IsMember(room, conn.ID())
				registry.Leave(conn, room)
			}
		}(i, conn)
	}
	wg.Wait()

	if stats := registry.GetStats(); stats["active_rooms"] != 0 {
		t.Errorf("Expected no active rooms after churn, stats: %v", stats)
	}
}
