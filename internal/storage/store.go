package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"liveboard/pkg/interfaces"
	"liveboard/pkg/types"
)

// Filename suffixes for per-session artifacts. One structured-event file
// and one raw-audio file per session live in the root directory; the
// pipeline outputs live under processed/.
const (
	eventLogSuffix      = ".events.jsonl"
	audioSuffix         = ".audio"
	transcriptionSuffix = ".transcription.txt"
	summarySuffix       = ".summary.txt"
	processedDirName    = "processed"

	// DefaultAudioExt is the container recordings are captured in.
	DefaultAudioExt = ".webm"
)

// audioMIMETypes maps stored audio extensions to the MIME type submitted
// to the transcription backend.
var audioMIMETypes = map[string]string{
	".webm": "audio/webm",
	".ogg":  "audio/ogg",
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
}

// Store owns the on-disk layout of recording artifacts. All paths are
// keyed by session id; ids are validated by callers before reaching here,
// but Store re-checks to keep path traversal out of the filesystem layer.
type Store struct {
	root string
}

// NewStore creates the root and processed directories if absent.
func NewStore(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root cannot be empty")
	}
	if err := os.MkdirAll(filepath.Join(root, processedDirName), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directories: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the recordings directory.
func (s *Store) Root() string {
	return s.root
}

// EventLogPath returns the structured-event sink path for a session.
func (s *Store) EventLogPath(sessionID string) string {
	return filepath.Join(s.root, sessionID+eventLogSuffix)
}

// AudioPath returns the raw-audio sink path for a new recording session.
func (s *Store) AudioPath(sessionID string) string {
	return filepath.Join(s.root, sessionID+audioSuffix+DefaultAudioExt)
}

// AudioArtifact locates the stored raw-audio file for a session and
// returns its path, MIME type inferred from the container extension, and
// size. Returns ErrAudioArtifactNotFound when no audio file exists.
func (s *Store) AudioArtifact(sessionID string) (*types.TranscribeRequest, error) {
	if !types.IsValidSessionID(sessionID) {
		return nil, types.ErrInvalidSessionID
	}

	for ext, mime := range audioMIMETypes {
		path := filepath.Join(s.root, sessionID+audioSuffix+ext)
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		return &types.TranscribeRequest{
			SessionID: sessionID,
			AudioPath: path,
			MIMEType:  mime,
			SizeBytes: info.Size(),
		}, nil
	}

	return nil, fmt.Errorf("%w: %s", interfaces.ErrAudioArtifactNotFound, sessionID)
}

// WriteTranscription persists the transcription artifact, overwriting any
// prior run for the same session.
func (s *Store) WriteTranscription(sessionID, text string) error {
	return s.writeProcessed(sessionID+transcriptionSuffix, text)
}

// WriteSummary persists the summary artifact.
func (s *Store) WriteSummary(sessionID, text string) error {
	return s.writeProcessed(sessionID+summarySuffix, text)
}

func (s *Store) writeProcessed(name, text string) error {
	if err := os.MkdirAll(filepath.Join(s.root, processedDirName), 0o755); err != nil {
		return fmt.Errorf("failed to create processed directory: %w", err)
	}
	path := filepath.Join(s.root, processedDirName, name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// TranscriptionPath returns the persisted transcription artifact path.
func (s *Store) TranscriptionPath(sessionID string) string {
	return filepath.Join(s.root, processedDirName, sessionID+transcriptionSuffix)
}

// SummaryPath returns the persisted summary artifact path.
func (s *Store) SummaryPath(sessionID string) string {
	return filepath.Join(s.root, processedDirName, sessionID+summarySuffix)
}

// ReadProcessed returns the persisted transcription and summary for a
// session, or ErrSessionNotProcessed when either artifact is missing.
func (s *Store) ReadProcessed(sessionID string) (transcription, summary string, err error) {
	if !types.IsValidSessionID(sessionID) {
		return "", "", types.ErrInvalidSessionID
	}

	tBytes, err := os.ReadFile(s.TranscriptionPath(sessionID))
	if err != nil {
		return "", "", fmt.Errorf("%w: %s", interfaces.ErrSessionNotProcessed, sessionID)
	}
	sBytes, err := os.ReadFile(s.SummaryPath(sessionID))
	if err != nil {
		return "", "", fmt.Errorf("%w: %s", interfaces.ErrSessionNotProcessed, sessionID)
	}
	return string(tBytes), string(sBytes), nil
}

// ListRecordings returns the raw recording artifacts in storage, newest
// first. Processed outputs are excluded; this lists capture output only.
func (s *Store) ListRecordings() ([]*types.RecordingInfo, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage root: %w", err)
	}

	var recordings []*types.RecordingInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.Contains(name, audioSuffix+".") && !strings.HasSuffix(name, eventLogSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		recordings = append(recordings, &types.RecordingInfo{
			Name:      name,
			SizeBytes: info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(recordings, func(i, j int) bool {
		return recordings[i].CreatedAt.After(recordings[j].CreatedAt)
	})
	return recordings, nil
}
