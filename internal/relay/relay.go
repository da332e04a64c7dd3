package relay

import (
	"encoding/base64"
	"log"

	"liveboard/internal/websocket"
	"liveboard/pkg/types"
)

// Recorder is the capture surface the relay mirrors events into.
type Recorder interface {
	CaptureEvent(room, kind string, payload map[string]interface{})
	CaptureAudio(room string, chunk []byte)
}

// route maps an inbound relay event to its outbound name and, for the
// recordable subset, the kind written to the structured-event sink.
type route struct {
	outbound   string
	recordKind string // "" when the event is never recorded
	audio      bool   // raw audio goes to the audio sink, never the event log
}

// Video frames are relayed but never recorded or persisted.
var routes = map[string]route{
	types.EventDrawData:          {outbound: types.EventReceiveDrawData, recordKind: types.RecordKindDraw},
	types.EventBackgroundImage:   {outbound: types.EventBackgroundChanged, recordKind: types.RecordKindBackground},
	types.EventVideoFrame:        {outbound: types.EventReceiveVideoFrame},
	types.EventAudioStream:       {outbound: types.EventReceiveAudioStream, audio: true},
	types.EventSendMessage:       {outbound: types.EventReceiveMessage},
	types.EventToggleBoardAccess: {outbound: types.EventBoardAccessChanged},
	types.EventSendQuiz:          {outbound: types.EventReceiveQuiz},
	types.EventSubmitAnswer:      {outbound: types.EventReceiveAnswer},
}

// Relay forwards ephemeral events verbatim to every other member of the
// sender's room and mirrors the recordable subset into the room's active
// recording. No buffering or retry: a saturated recipient is the
// transport's problem, not the relay's.
type Relay struct {
	registry *websocket.Registry
	recorder Recorder
}

// NewRelay creates a relay over the given registry and recorder.
func NewRelay(registry *websocket.Registry, recorder Recorder) *Relay {
	return &Relay{
		registry: registry,
		recorder: recorder,
	}
}

// Relay fans one event out to the other room members, in the order events
// arrive on the sender's connection. Per-recipient delivery failures are
// logged and skipped so one slow consumer cannot stall the room.
func (r *Relay) Relay(sender *websocket.Connection, evt *types.Event) error {
	rt, ok := routes[evt.Name]
	if !ok {
		return ErrUnknownEventType
	}

	outbound := &types.Event{
		Name: rt.outbound,
		Room: evt.Room,
		From: sender.Username(),
		Data: evt.Data,
	}

	for _, member := range r.registry.RoomMembersExcept(evt.Room, sender.ID()) {
		if err := member.WriteJSON(outbound); err != nil {
			log.Printf("Failed to relay event: type=%s room=%s conn=%s err=%v",
				evt.Name, evt.Room, member.ID(), err)
		}
	}

	if rt.audio {
		return r.captureAudio(evt)
	}
	if rt.recordKind != "" {
		r.recorder.CaptureEvent(evt.Room, rt.recordKind, evt.Data)
	}
	return nil
}

// captureAudio decodes the base64 audio chunk from the envelope and
// appends the raw bytes to the room's audio sink if one is recording.
func (r *Relay) captureAudio(evt *types.Event) error {
	encoded, ok := evt.Data["audio"].(string)
	if !ok || encoded == "" {
		return ErrMissingAudioPayload
	}

	chunk, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return ErrInvalidAudioPayload
	}

	r.recorder.CaptureAudio(evt.Room, chunk)
	return nil
}
