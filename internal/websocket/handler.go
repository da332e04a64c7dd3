package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"liveboard/pkg/interfaces"
	"liveboard/pkg/types"
)

// WebSocket upgrader with production-ready settings. Origins are open
// because the classroom clients are served from arbitrary school hosts.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	HandshakeTimeout: 10 * time.Second,
}

// Recorder is the subset of the recording manager the handler drives.
type Recorder interface {
	Start(room string) (sessionID string, started bool)
	Stop(room string) (sessionID string, stopped bool)
	IsRecording(room string) bool
}

// EventRelay fans a client event out to the other members of its room.
type EventRelay interface {
	Relay(sender *Connection, evt *types.Event) error
}

// PipelineQueue accepts finished session ids for asynchronous processing.
type PipelineQueue interface {
	Enqueue(sessionID, room string) error
}

// Handler owns the WebSocket endpoint: upgrade, per-connection read pump,
// and dispatch of the event envelope to the registry, recorder, and relay.
type Handler struct {
	registry   *Registry
	recorder   Recorder
	relay      EventRelay
	notifier   interfaces.SessionNotifier
	attendance interfaces.AttendanceTracker
	jobs       PipelineQueue
	settings   Settings
}

// NewHandler creates a WebSocket handler with its collaborators injected.
// Non-positive settings fields fall back to DefaultSettings.
func NewHandler(registry *Registry, recorder Recorder, relay EventRelay,
	notifier interfaces.SessionNotifier, attendance interfaces.AttendanceTracker,
	jobs PipelineQueue, settings Settings) *Handler {
	return &Handler{
		registry:   registry,
		recorder:   recorder,
		relay:      relay,
		notifier:   notifier,
		attendance: attendance,
		jobs:       jobs,
		settings:   settings.withDefaults(),
	}
}

// HandleWebSocket upgrades the request and starts the connection
// lifecycle. No credentials are required at upgrade time: identity is a
// client-supplied claim carried by the join_room event, and authorization
// is the responsibility of the platform sitting in front of this service.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	wsConn := NewConnection(conn, h.settings.BufferSize, h.settings.WriteTimeout)

	if err := h.attendance.RecordConnect(wsConn.ID(), wsConn.ConnectedAt()); err != nil {
		log.Printf("Failed to record connect: conn=%s err=%v", wsConn.ID(), err)
	}

	go h.handleConnection(wsConn)
}

// handleConnection runs the read pump with heartbeat monitoring and tears
// the connection down on exit: membership removed from every joined room,
// departure announced, attendance interval closed.
func (h *Handler) handleConnection(conn *Connection) {
	defer func() {
		rooms := h.registry.RemoveConnection(conn)
		for _, room := range rooms {
			h.registry.BroadcastToRoom(room, &types.Event{
				Name: types.EventUserLeft,
				Room: room,
				Data: map[string]interface{}{"username": conn.Username()},
			})
		}
		if err := h.attendance.RecordDisconnect(conn.ID(), time.Now()); err != nil {
			log.Printf("Failed to record disconnect: conn=%s err=%v", conn.ID(), err)
		}
		_ = conn.Close()
	}()

	// The read deadline, refreshed on each pong, keeps half-dead
	// classroom connections from lingering in room membership.
	if err := conn.conn.SetReadDeadline(time.Now().Add(h.settings.ReadTimeout)); err != nil {
		log.Printf("Failed to set read deadline: %v", err)
		return
	}
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(h.settings.ReadTimeout))
	})

	ticker := time.NewTicker(h.settings.PingInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := conn.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(h.settings.WriteTimeout)); err != nil {
					return
				}
			case <-conn.ctx.Done():
				return
			}
		}
	}()

	for {
		messageType, data, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: conn=%s err=%v", conn.ID(), err)
			}
			break
		}

		if messageType != websocket.TextMessage {
			continue // audio arrives base64-encoded inside the JSON envelope
		}

		var evt types.Event
		if err := json.Unmarshal(data, &evt); err != nil {
			h.sendError(conn, "malformed event envelope")
			continue
		}

		h.dispatch(conn, &evt)
	}
}

// dispatch routes one inbound event. Input errors are answered with a
// system error event and cause no side effects; state no-ops (start while
// recording, stop while idle) are absorbed silently.
func (h *Handler) dispatch(conn *Connection, evt *types.Event) {
	if err := evt.Validate(); err != nil {
		h.sendError(conn, err.Error())
		return
	}

	switch evt.Name {
	case types.EventJoinRoom:
		h.handleJoin(conn, evt)

	case types.EventStartRecording:
		if !h.registry.IsMember(evt.Room, conn.ID()) {
			h.sendError(conn, "must join room before recording")
			return
		}
		if _, started := h.recorder.Start(evt.Room); started {
			h.notifier.RecordingStarted(evt.Room)
		}

	case types.EventStopRecording:
		if !h.registry.IsMember(evt.Room, conn.ID()) {
			h.sendError(conn, "must join room before recording")
			return
		}
		sessionID, stopped := h.recorder.Stop(evt.Room)
		if !stopped {
			return
		}
		h.notifier.RecordingStopped(evt.Room, sessionID)
		// The stop acknowledgment must not wait on transcription; the
		// queue runs the pipeline on its own goroutine.
		if err := h.jobs.Enqueue(sessionID, evt.Room); err != nil {
			log.Printf("Failed to enqueue pipeline job: session=%s err=%v", sessionID, err)
			h.notifier.PipelineFailed(evt.Room, sessionID, err)
		}

	default:
		if !h.registry.IsMember(evt.Room, conn.ID()) {
			h.sendError(conn, "must join room before sending events")
			return
		}
		if err := h.relay.Relay(conn, evt); err != nil {
			h.sendError(conn, err.Error())
		}
	}
}

// handleJoin registers room membership and tells a late joiner about any
// recording already in progress.
func (h *Handler) handleJoin(conn *Connection, evt *types.Event) {
	username, _ := evt.Data["username"].(string)
	role, _ := evt.Data["role"].(string)

	if !types.IsValidUsername(username) {
		h.sendError(conn, types.ErrInvalidUsername.Error())
		return
	}
	if !types.IsValidRole(role) {
		h.sendError(conn, types.ErrInvalidRole.Error())
		return
	}

	conn.SetIdentity(username, role)
	h.registry.Join(conn, evt.Room)

	if err := h.attendance.RecordJoin(conn.ID(), evt.Room, username, role); err != nil {
		log.Printf("Failed to record join: conn=%s room=%s err=%v", conn.ID(), evt.Room, err)
	}

	for _, member := range h.registry.RoomMembersExcept(evt.Room, conn.ID()) {
		if err := member.WriteJSON(&types.Event{
			Name: types.EventUserJoined,
			Room: evt.Room,
			Data: map[string]interface{}{"username": username, "role": role},
		}); err != nil {
			log.Printf("Failed to announce join: room=%s conn=%s err=%v", evt.Room, member.ID(), err)
		}
	}

	log.Printf("Joined room: room=%s user=%s role=%s conn=%s", evt.Room, username, role, conn.ID())

	if h.recorder.IsRecording(evt.Room) {
		if err := conn.WriteJSON(&types.Event{
			Name: types.EventRecordingStatus,
			Room: evt.Room,
			Data: map[string]interface{}{"isRecording": true},
		}); err != nil {
			log.Printf("Failed to send recording status: conn=%s err=%v", conn.ID(), err)
		}
	}
}

// sendError reports an input error back to the sender only.
func (h *Handler) sendError(conn *Connection, message string) {
	if err := conn.WriteJSON(&types.Event{
		Name: types.EventSystemError,
		Data: map[string]interface{}{"message": message},
	}); err != nil {
		log.Printf("Failed to send error event: conn=%s err=%v", conn.ID(), err)
	}
}
