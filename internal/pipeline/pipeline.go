package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"liveboard/internal/storage"
	"liveboard/pkg/interfaces"
	"liveboard/pkg/types"
)

// DefaultMinAudioBytes guards against an empty or corrupt capture
// producing a misleading "transcription".
const DefaultMinAudioBytes = 1024

// DefaultStageTimeout bounds each external call.
const DefaultStageTimeout = 2 * time.Minute

// Pipeline is the two-stage transcribe-then-summarize batch job run once
// per finished recording session. Both stages persist their artifact the
// moment they succeed, so a summarization failure never discards a valid
// transcription. Re-running for the same session id overwrites.
type Pipeline struct {
	store         *storage.Store
	transcriber   interfaces.Transcriber
	summarizer    interfaces.Summarizer
	minAudioBytes int64
	stageTimeout  time.Duration
}

// NewPipeline creates a pipeline over the given store and backends.
// Non-positive minAudioBytes or stageTimeout fall back to the defaults.
func NewPipeline(store *storage.Store, transcriber interfaces.Transcriber,
	summarizer interfaces.Summarizer, minAudioBytes int64, stageTimeout time.Duration) *Pipeline {
	if minAudioBytes <= 0 {
		minAudioBytes = DefaultMinAudioBytes
	}
	if stageTimeout <= 0 {
		stageTimeout = DefaultStageTimeout
	}
	return &Pipeline{
		store:         store,
		transcriber:   transcriber,
		summarizer:    summarizer,
		minAudioBytes: minAudioBytes,
		stageTimeout:  stageTimeout,
	}
}

// Process runs both stages for a finished session and persists the
// results. It fails fast before any external call when the audio artifact
// is missing or below the minimum size, and a transcription failure
// aborts the run entirely: no summary is attempted on failed input.
func (p *Pipeline) Process(ctx context.Context, sessionID string) (*types.ProcessedSession, error) {
	if !types.IsValidSessionID(sessionID) {
		return nil, types.ErrInvalidSessionID
	}

	req, err := p.store.AudioArtifact(sessionID)
	if err != nil {
		return nil, err
	}
	if req.SizeBytes < p.minAudioBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes, minimum %d",
			interfaces.ErrAudioArtifactTooSmall, sessionID, req.SizeBytes, p.minAudioBytes)
	}

	log.Printf("Pipeline started: session=%s audio=%s size=%d live=%v",
		sessionID, req.AudioPath, req.SizeBytes, p.transcriber.Live())

	transcribeCtx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()

	transcription, err := p.transcriber.Transcribe(transcribeCtx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to transcribe session %s: %w", sessionID, err)
	}

	// Persist before attempting stage 2: the transcription is valid on
	// its own and callers re-derive partial results from this artifact.
	if err := p.store.WriteTranscription(sessionID, transcription); err != nil {
		return nil, fmt.Errorf("failed to persist transcription for session %s: %w", sessionID, err)
	}

	summarizeCtx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()

	summary, err := p.summarizer.Summarize(summarizeCtx, sessionID, transcription)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize session %s: %w", sessionID, err)
	}

	if err := p.store.WriteSummary(sessionID, summary); err != nil {
		return nil, fmt.Errorf("failed to persist summary for session %s: %w", sessionID, err)
	}

	result := &types.ProcessedSession{
		SessionID:     sessionID,
		Transcription: transcription,
		Summary:       summary,
		Mock:          !p.transcriber.Live() || !p.summarizer.Live(),
	}

	log.Printf("Pipeline completed: session=%s mock=%v", sessionID, result.Mock)
	return result, nil
}
