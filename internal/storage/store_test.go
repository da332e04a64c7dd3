package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"liveboard/pkg/interfaces"
	"liveboard/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func TestNewStore_CreatesLayout(t *testing.T) {
	root := filepath.Join(t.TempDir(), "recordings")
	store, err := NewStore(root)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	if store.Root() != root {
		t.Errorf("Expected root %s, got %s", root, store.Root())
	}
	if _, err := os.Stat(filepath.Join(root, "processed")); err != nil {
		t.Errorf("Expected processed directory to exist: %v", err)
	}

	if _, err := NewStore(""); err == nil {
		t.Error("Expected error for empty storage root")
	}
}

func TestStore_ArtifactPaths(t *testing.T) {
	store := newTestStore(t)
	const id = "r1_1714000000000_a1b2c3d4"

	if got := store.EventLogPath(id); got != filepath.Join(store.Root(), id+".events.jsonl") {
		t.Errorf("Unexpected event log path: %s", got)
	}
	if got := store.AudioPath(id); got != filepath.Join(store.Root(), id+".audio.webm") {
		t.Errorf("Unexpected audio path: %s", got)
	}
	if got := store.TranscriptionPath(id); got != filepath.Join(store.Root(), "processed", id+".transcription.txt") {
		t.Errorf("Unexpected transcription path: %s", got)
	}
	if got := store.SummaryPath(id); got != filepath.Join(store.Root(), "processed", id+".summary.txt") {
		t.Errorf("Unexpected summary path: %s", got)
	}
}

func TestStore_AudioArtifact(t *testing.T) {
	store := newTestStore(t)
	const id = "r1_1714000000000_a1b2c3d4"

	if _, err := store.AudioArtifact(id); !errors.Is(err, interfaces.ErrAudioArtifactNotFound) {
		t.Errorf("Expected ErrAudioArtifactNotFound, got %v", err)
	}

	payload := []byte("not-really-audio")
	if err := os.WriteFile(store.AudioPath(id), payload, 0o644); err != nil {
		t.Fatalf("Failed to write audio fixture: %v", err)
	}

	req, err := store.AudioArtifact(id)
	if err != nil {
		t.Fatalf("AudioArtifact failed: %v", err)
	}
	if req.SessionID != id {
		t.Errorf("Expected session id %s, got %s", id, req.SessionID)
	}
	if req.MIMEType != "audio/webm" {
		t.Errorf("Expected audio/webm, got %s", req.MIMEType)
	}
	if req.SizeBytes != int64(len(payload)) {
		t.Errorf("Expected size %d, got %d", len(payload), req.SizeBytes)
	}

	if _, err := store.AudioArtifact("../escape"); err != types.ErrInvalidSessionID {
		t.Errorf("Expected ErrInvalidSessionID for traversal attempt, got %v", err)
	}
}

func TestStore_ProcessedRoundTrip(t *testing.T) {
	store := newTestStore(t)
	const id = "r1_1714000000000_a1b2c3d4"

	if _, _, err := store.ReadProcessed(id); !errors.Is(err, interfaces.ErrSessionNotProcessed) {
		t.Errorf("Expected ErrSessionNotProcessed, got %v", err)
	}

	if err := store.WriteTranscription(id, "hello class"); err != nil {
		t.Fatalf("WriteTranscription failed: %v", err)
	}

	// Summary still missing, so the session is not yet processed.
	if _, _, err := store.ReadProcessed(id); !errors.Is(err, interfaces.ErrSessionNotProcessed) {
		t.Errorf("Expected ErrSessionNotProcessed with summary missing, got %v", err)
	}

	if err := store.WriteSummary(id, "## Overview\nshort"); err != nil {
		t.Fatalf("WriteSummary failed: %v", err)
	}

	transcription, summary, err := store.ReadProcessed(id)
	if err != nil {
		t.Fatalf("ReadProcessed failed: %v", err)
	}
	if transcription != "hello class" || summary != "## Overview\nshort" {
		t.Errorf("Round trip mismatch: %q / %q", transcription, summary)
	}

	// A re-run overwrites prior artifacts.
	if err := store.WriteTranscription(id, "second run"); err != nil {
		t.Fatalf("WriteTranscription rewrite failed: %v", err)
	}
	transcription, _, err = store.ReadProcessed(id)
	if err != nil {
		t.Fatalf("ReadProcessed after rewrite failed: %v", err)
	}
	if transcription != "second run" {
		t.Errorf("Expected overwrite, got %q", transcription)
	}
}

func TestStore_ListRecordings(t *testing.T) {
	store := newTestStore(t)

	fixtures := map[string]string{
		"a_1.audio.webm":   "xxxx",
		"a_1.events.jsonl": "{}\n",
		"notes.txt":        "ignore me",
		"b_2.audio.ogg":    "yyyy",
	}
	for name, content := range fixtures {
		if err := os.WriteFile(filepath.Join(store.Root(), name), []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write fixture %s: %v", name, err)
		}
	}
	// Processed outputs must not show up in the listing.
	if err := store.WriteTranscription("a_1", "t"); err != nil {
		t.Fatalf("WriteTranscription failed: %v", err)
	}

	recordings, err := store.ListRecordings()
	if err != nil {
		t.Fatalf("ListRecordings failed: %v", err)
	}
	if len(recordings) != 3 {
		t.Fatalf("Expected 3 recordings, got %d: %v", len(recordings), recordings)
	}

	seen := make(map[string]bool)
	for _, rec := range recordings {
		seen[rec.Name] = true
		if rec.SizeBytes <= 0 {
			t.Errorf("Expected positive size for %s", rec.Name)
		}
	}
	for _, want := range []string{"a_1.audio.webm", "a_1.events.jsonl", "b_2.audio.ogg"} {
		if !seen[want] {
			t.Errorf("Expected %s in listing, got %v", want, recordings)
		}
	}
}
