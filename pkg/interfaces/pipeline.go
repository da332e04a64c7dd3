package interfaces

import (
	"context"

	"liveboard/pkg/types"
)

// Transcriber turns a raw-audio artifact into text. Selected once at
// startup: a live external backend when a credential is configured, a
// deterministic fallback otherwise.
type Transcriber interface {
	// Transcribe returns the verbatim transcription text for the audio
	// artifact described by req.
	Transcribe(ctx context.Context, req *types.TranscribeRequest) (string, error)

	// Live reports whether this backend performs a real external call.
	// The pipeline marks results from non-live backends as mock.
	Live() bool
}

// Summarizer turns a transcription into a structured summary.
type Summarizer interface {
	// Summarize returns the verbatim summary text for the transcription.
	Summarize(ctx context.Context, sessionID, transcription string) (string, error)

	// Live reports whether this backend performs a real external call.
	Live() bool
}

// SessionProcessor runs the two-stage transcribe-then-summarize batch job
// for a finished recording session. Re-running for the same session id is
// safe and overwrites prior artifacts.
type SessionProcessor interface {
	Process(ctx context.Context, sessionID string) (*types.ProcessedSession, error)
}

// SessionNotifier pushes recording and pipeline lifecycle events to every
// current member of the originating room. Clients absent at notification
// time simply miss it; there is no replay.
type SessionNotifier interface {
	RecordingStarted(room string)
	RecordingStopped(room, sessionID string)
	PipelineStarted(room, sessionID string)
	PipelineCompleted(room string, result *types.ProcessedSession)
	PipelineFailed(room, sessionID string, err error)
}
