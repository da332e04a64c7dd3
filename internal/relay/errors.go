package relay

import "errors"

// Relay-specific error types
var (
	ErrUnknownEventType    = errors.New("unknown event type")
	ErrMissingAudioPayload = errors.New("audio_stream event missing audio payload")
	ErrInvalidAudioPayload = errors.New("audio payload is not valid base64")
)
