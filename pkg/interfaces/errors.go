package interfaces

import "errors"

// Cross-component errors shared by the pipeline and the HTTP API.
var (
	ErrAudioArtifactNotFound = errors.New("audio artifact not found for session")
	ErrAudioArtifactTooSmall = errors.New("audio artifact below minimum size, capture is empty or corrupt")
	ErrSessionNotProcessed   = errors.New("session has not been processed")
)
