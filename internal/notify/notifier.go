package notify

import (
	"log"

	"liveboard/pkg/types"
)

// RoomBroadcaster delivers a message to every current member of a room.
// Narrow interface keeps this package decoupled from the websocket
// registry implementation.
type RoomBroadcaster interface {
	BroadcastToRoom(room string, v interface{}) int
}

// Notifier builds the recording and pipeline lifecycle events and pushes
// them to the room that originated the recording. Clients not present at
// the time of a notification simply miss it: finished results stay
// retrievable through the HTTP interface, so there is no replay.
type Notifier struct {
	broadcaster RoomBroadcaster
}

// NewNotifier creates a notifier over the given broadcaster.
func NewNotifier(broadcaster RoomBroadcaster) *Notifier {
	return &Notifier{broadcaster: broadcaster}
}

// RecordingStarted flips the room's recording status on.
func (n *Notifier) RecordingStarted(room string) {
	n.broadcast(room, &types.Event{
		Name: types.EventRecordingStatus,
		Room: room,
		Data: map[string]interface{}{"isRecording": true},
	})
}

// RecordingStopped flips the status off and announces the finished
// session id, the clients' handle for retrieving results later.
func (n *Notifier) RecordingStopped(room, sessionID string) {
	n.broadcast(room, &types.Event{
		Name: types.EventRecordingStatus,
		Room: room,
		Data: map[string]interface{}{"isRecording": false},
	})
	n.broadcast(room, &types.Event{
		Name: types.EventSessionEnded,
		Room: room,
		Data: map[string]interface{}{
			"sessionId": sessionID,
			"room":      room,
			"message":   "Recording ended. Transcription will be available shortly.",
		},
	})
}

// PipelineStarted announces that processing has begun for a session.
func (n *Notifier) PipelineStarted(room, sessionID string) {
	n.broadcast(room, &types.Event{
		Name: types.EventTranscriptionStatus,
		Room: room,
		Data: map[string]interface{}{
			"status":    "processing",
			"sessionId": sessionID,
			"message":   "Transcription in progress",
		},
	})
}

// PipelineCompleted delivers the finished artifacts to the room.
func (n *Notifier) PipelineCompleted(room string, result *types.ProcessedSession) {
	n.broadcast(room, &types.Event{
		Name: types.EventTranscriptionComplete,
		Room: room,
		Data: map[string]interface{}{
			"sessionId":     result.SessionID,
			"transcription": result.Transcription,
			"summary":       result.Summary,
			"mock":          result.Mock,
		},
	})
}

// PipelineFailed reports a processing error to the room.
func (n *Notifier) PipelineFailed(room, sessionID string, err error) {
	n.broadcast(room, &types.Event{
		Name: types.EventTranscriptionError,
		Room: room,
		Data: map[string]interface{}{
			"sessionId": sessionID,
			"error":     err.Error(),
		},
	})
}

func (n *Notifier) broadcast(room string, evt *types.Event) {
	delivered := n.broadcaster.BroadcastToRoom(room, evt)
	log.Printf("Notification sent: event=%s room=%s delivered=%d", evt.Name, room, delivered)
}
