package pipeline

import (
	"context"
	"fmt"

	"liveboard/pkg/types"
)

// FallbackTranscriber is the deterministic placeholder used when no
// speech-to-text credential is configured. Output is clearly labeled and
// contains the session id, so the system stays testable and demoable
// without network access.
type FallbackTranscriber struct{}

// Live reports that this backend does not call any external service.
func (FallbackTranscriber) Live() bool {
	return false
}

// Transcribe produces a labeled placeholder transcription.
func (FallbackTranscriber) Transcribe(_ context.Context, req *types.TranscribeRequest) (string, error) {
	return fmt.Sprintf(
		"[mock transcription]\nNo speech-to-text backend is configured. "+
			"Audio for session %s (%d bytes, %s) was captured but not transcribed.\n",
		req.SessionID, req.SizeBytes, req.MIMEType), nil
}

// FallbackSummarizer is the deterministic placeholder used when no
// text-generation credential is configured.
type FallbackSummarizer struct{}

// Live reports that this backend does not call any external service.
func (FallbackSummarizer) Live() bool {
	return false
}

// Summarize produces a labeled placeholder summary.
func (FallbackSummarizer) Summarize(_ context.Context, sessionID, transcription string) (string, error) {
	return fmt.Sprintf(
		"[mock summary]\nNo summarization backend is configured. "+
			"Session %s has a stored transcription of %d characters.\n",
		sessionID, len(transcription)), nil
}
