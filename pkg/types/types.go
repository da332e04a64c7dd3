package types

import (
	"time"
)

// Client-to-server event names. These are the only events the read pump
// dispatches; anything else is answered with a system error event.
const (
	EventJoinRoom          = "join_room"
	EventStartRecording    = "start_recording"
	EventStopRecording     = "stop_recording"
	EventDrawData          = "draw_data"
	EventBackgroundImage   = "background_image"
	EventVideoFrame        = "video_frame"
	EventAudioStream       = "audio_stream"
	EventSendMessage       = "send_message"
	EventToggleBoardAccess = "toggle_board_access"
	EventSendQuiz          = "send_quiz"
	EventSubmitAnswer      = "submit_answer"
)

// Server-to-client event names mirroring the relay inputs.
const (
	EventReceiveDrawData       = "receive_draw_data"
	EventBackgroundChanged     = "background_image_changed"
	EventReceiveVideoFrame     = "receive_video_frame"
	EventReceiveAudioStream    = "receive_audio_stream"
	EventReceiveMessage        = "receive_message"
	EventBoardAccessChanged    = "board_access_changed"
	EventReceiveQuiz           = "receive_quiz"
	EventReceiveAnswer         = "receive_answer"
	EventUserJoined            = "user_joined"
	EventUserLeft              = "user_left"
	EventRecordingStatus       = "recording_status"
	EventSessionEnded          = "session_ended"
	EventTranscriptionStatus   = "transcription_status"
	EventTranscriptionComplete = "transcription_complete"
	EventTranscriptionError    = "transcription_error"
	EventSystemError           = "error"
)

// Recordable event kinds written to a session's structured-event sink.
// Audio goes to the raw sink and is never duplicated here; video frames
// are never recorded at all.
const (
	RecordKindDraw       = "draw"
	RecordKindBackground = "background"
)

// Event is the JSON envelope exchanged over the WebSocket transport.
// Room is the grouping key for relay fan-out; Data is the opaque payload
// forwarded verbatim to the other room members.
type Event struct {
	Name string                 `json:"event"`
	Room string                 `json:"room,omitempty"`
	From string                 `json:"from,omitempty"`
	Data map[string]interface{} `json:"data,omitempty"`
}

// CapturedEvent is one line of a recording's structured-event sink.
// RelativeMs is milliseconds since the recording session started and is
// non-negative and non-decreasing within a session.
type CapturedEvent struct {
	Type       string                 `json:"type"`
	RelativeMs int64                  `json:"relative_timestamp_ms"`
	Payload    map[string]interface{} `json:"payload"`
}

// ProcessedSession is the durable result of running the pipeline once for
// a finished recording session. Mock is true when either stage used the
// deterministic fallback backend instead of a live external call.
type ProcessedSession struct {
	SessionID     string `json:"session_id"`
	Transcription string `json:"transcription"`
	Summary       string `json:"summary"`
	Mock          bool   `json:"mock"`
}

// TranscribeRequest describes the raw-audio artifact handed to a
// transcription backend.
type TranscribeRequest struct {
	SessionID string
	AudioPath string
	MIMEType  string
	SizeBytes int64
}

// AttendanceRecord is one connection's presence interval as persisted by
// the attendance tracker. LeftAt is nil while the connection is live.
type AttendanceRecord struct {
	ConnectionID string     `json:"connection_id"`
	Room         string     `json:"room"`
	Username     string     `json:"username"`
	Role         string     `json:"role"`
	ConnectedAt  time.Time  `json:"connected_at"`
	LeftAt       *time.Time `json:"left_at,omitempty"`
}

// RecordingInfo describes one raw recording artifact on disk for the
// HTTP listing endpoint.
type RecordingInfo struct {
	Name      string    `json:"name"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}
