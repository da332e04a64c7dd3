package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"liveboard/pkg/interfaces"
)

// Test WebSocket upgrader for creating test connections
var testUpgrader = gorillaws.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// createTestConnection dials a throwaway httptest server and wraps the
// client side in a Connection. Frames written through the Connection are
// delivered on the returned channel.
func createTestConnection(t *testing.T) (*Connection, chan []byte) {
	t.Helper()

	received := make(chan []byte, 16)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Failed to upgrade connection: %v", err)
			return
		}
		defer func() { _ = conn.Close() }()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			received <- data
		}
	}))
	t.Cleanup(func() { server.Close() })

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	wsConn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to create test WebSocket connection: %v", err)
	}

	conn := NewConnection(wsConn, 16, 2*time.Second)
	t.Cleanup(func() { _ = conn.Close() })

	return conn, received
}

func TestConnection_InterfaceCompliance(t *testing.T) {
	var _ interfaces.Connection = &Connection{}
}

func TestConnection_UniqueIDs(t *testing.T) {
	first, _ := createTestConnection(t)
	second, _ := createTestConnection(t)

	if first.ID() == "" {
		t.Fatal("Expected non-empty connection id")
	}
	if first.ID() == second.ID() {
		t.Errorf("Expected unique connection ids, both were %s", first.ID())
	}
}

func TestConnection_Identity(t *testing.T) {
	conn, _ := createTestConnection(t)

	if conn.Username() != "" || conn.Role() != "" {
		t.Errorf("Expected empty identity before join, got %q/%q", conn.Username(), conn.Role())
	}

	conn.SetIdentity("alice", "teacher")

	if conn.Username() != "alice" {
		t.Errorf("Expected username alice, got %q", conn.Username())
	}
	if conn.Role() != "teacher" {
		t.Errorf("Expected role teacher, got %q", conn.Role())
	}
}

func TestConnection_WriteJSON(t *testing.T) {
	conn, received := createTestConnection(t)

	payload := map[string]interface{}{"event": "receive_message", "room": "r1"}
	if err := conn.WriteJSON(payload); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	select {
	case data := <-received:
		var got map[string]interface{}
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Delivered frame is not JSON: %v", err)
		}
		if got["event"] != "receive_message" || got["room"] != "r1" {
			t.Errorf("Unexpected payload delivered: %v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for frame delivery")
	}
}

func TestConnection_WriteJSONUnmarshalable(t *testing.T) {
	conn, _ := createTestConnection(t)

	if err := conn.WriteJSON(make(chan int)); err != ErrInvalidJSON {
		t.Errorf("Expected ErrInvalidJSON, got %v", err)
	}
}

func TestConnection_DefaultSettings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := testUpgrader.Upgrade(w, r, nil); err != nil {
			t.Errorf("Failed to upgrade connection: %v", err)
		}
	}))
	t.Cleanup(func() { server.Close() })

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	wsConn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to create test WebSocket connection: %v", err)
	}

	// Non-positive tuning values fall back rather than producing an
	// unbuffered channel or a zero write deadline.
	conn := NewConnection(wsConn, 0, 0)
	t.Cleanup(func() { _ = conn.Close() })

	if got := cap(conn.writeCh); got != DefaultSettings().BufferSize {
		t.Errorf("Expected default buffer size %d, got %d", DefaultSettings().BufferSize, got)
	}
	if conn.writeTimeout != DefaultSettings().WriteTimeout {
		t.Errorf("Expected default write timeout %s, got %s", DefaultSettings().WriteTimeout, conn.writeTimeout)
	}
}

func TestConnection_WriterFailureFailsFast(t *testing.T) {
	conn, _ := createTestConnection(t)

	// Kill the transport out from under the writer goroutine. Once the
	// writer hits the dead socket it must cancel the connection so later
	// writes fail immediately instead of queueing against it.
	_ = conn.conn.Close()

	deadline := time.Now().Add(3 * time.Second)
	for {
		err := conn.WriteJSON(map[string]string{"event": "receive_message"})
		if err == ErrConnectionClosed {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("Expected ErrConnectionClosed after transport failure")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestConnection_CloseIdempotent(t *testing.T) {
	conn, _ := createTestConnection(t)

	if err := conn.Close(); err != nil {
		t.Fatalf("First Close failed: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Errorf("Second Close should be a no-op, got %v", err)
	}

	if err := conn.WriteJSON(map[string]string{"event": "x"}); err != ErrConnectionClosed {
		t.Errorf("Expected ErrConnectionClosed after Close, got %v", err)
	}
}
