package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"liveboard/pkg/interfaces"
	"liveboard/pkg/types"
)

// Registry is the subset of the connection registry the API reads.
// Interface avoids tight coupling to the websocket implementation.
type Registry interface {
	GetStats() map[string]int
}

// RecorderStats is the recording manager's monitoring surface.
type RecorderStats interface {
	GetStats() map[string]int
}

// Storage is the artifact-store surface the retrieval endpoints use.
type Storage interface {
	ReadProcessed(sessionID string) (transcription, summary string, err error)
	TranscriptionPath(sessionID string) string
	SummaryPath(sessionID string) string
	ListRecordings() ([]*types.RecordingInfo, error)
}

// Server is the post-processing retrieval interface: trigger or re-run
// the pipeline for a stopped session, fetch or download its artifacts,
// and list raw recordings. No business logic lives here, only HTTP
// handling and JSON serialization.
type Server struct {
	processor  interfaces.SessionProcessor
	store      Storage
	attendance interfaces.AttendanceTracker
	registry   Registry
	recorder   RecorderStats
	apiToken   string // empty disables the bearer check
	router     *http.ServeMux
}

// NewServer wires the API routes. An empty apiToken disables
// authentication; callers fronted by the platform's own auth layer run it
// that way.
func NewServer(processor interfaces.SessionProcessor, store Storage,
	attendance interfaces.AttendanceTracker, registry Registry, recorder RecorderStats, apiToken string) *Server {
	s := &Server{
		processor:  processor,
		store:      store,
		attendance: attendance,
		registry:   registry,
		recorder:   recorder,
		apiToken:   apiToken,
		router:     http.NewServeMux(),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Handle("/api/process/", s.corsMiddleware(s.authMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleProcess)))))
	s.router.Handle("/api/session/", s.corsMiddleware(s.authMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleSession)))))
	s.router.Handle("/api/download/", s.corsMiddleware(s.authMiddleware(http.HandlerFunc(s.handleDownload))))
	s.router.Handle("/api/recordings", s.corsMiddleware(s.authMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleRecordings)))))
	s.router.Handle("/api/attendance/", s.corsMiddleware(s.authMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleAttendance)))))
	s.router.Handle("/health", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.healthCheck))))
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type ProcessResponse struct {
	SessionID     string `json:"session_id"`
	Transcription string `json:"transcription"`
	Summary       string `json:"summary"`
	Mock          bool   `json:"mock"`
}

type SessionDataResponse struct {
	SessionID     string `json:"session_id"`
	Transcription string `json:"transcription"`
	Summary       string `json:"summary"`
}

type RecordingsResponse struct {
	Recordings []*types.RecordingInfo `json:"recordings"`
}

type AttendanceResponse struct {
	Room    string                    `json:"room"`
	Records []*types.AttendanceRecord `json:"records"`
}

type HealthResponse struct {
	Status      string         `json:"status"`
	Timestamp   time.Time      `json:"timestamp"`
	Database    string         `json:"database"`
	Connections map[string]int `json:"connections"`
	Recordings  map[string]int `json:"recordings"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// handleProcess runs the pipeline synchronously for an already-stopped
// session: POST /api/process/{sessionId}. Re-running overwrites prior
// artifacts for the same id.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID, ok := s.pathSessionID(w, r, "/api/process/")
	if !ok {
		return
	}

	result, err := s.processor.Process(r.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, interfaces.ErrAudioArtifactNotFound):
			s.sendError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, interfaces.ErrAudioArtifactTooSmall):
			s.sendError(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			s.sendError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	json.NewEncoder(w).Encode(ProcessResponse{
		SessionID:     result.SessionID,
		Transcription: result.Transcription,
		Summary:       result.Summary,
		Mock:          result.Mock,
	})
}

// handleSession returns persisted artifacts: GET /api/session/{sessionId}.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID, ok := s.pathSessionID(w, r, "/api/session/")
	if !ok {
		return
	}

	transcription, summary, err := s.store.ReadProcessed(sessionID)
	if err != nil {
		s.sendError(w, "Session not processed", http.StatusNotFound)
		return
	}

	json.NewEncoder(w).Encode(SessionDataResponse{
		SessionID:     sessionID,
		Transcription: transcription,
		Summary:       summary,
	})
}

// handleDownload streams a persisted artifact as an attachment:
// GET /api/download/{sessionId}/transcription or /summary.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/download/"), "/")
	if len(parts) != 2 {
		s.sendError(w, "Expected /api/download/{sessionId}/{transcription|summary}", http.StatusBadRequest)
		return
	}
	sessionID, kind := parts[0], parts[1]
	if !types.IsValidSessionID(sessionID) {
		s.sendError(w, types.ErrInvalidSessionID.Error(), http.StatusBadRequest)
		return
	}

	var path string
	switch kind {
	case "transcription":
		path = s.store.TranscriptionPath(sessionID)
	case "summary":
		path = s.store.SummaryPath(sessionID)
	default:
		s.sendError(w, "Unknown artifact kind", http.StatusBadRequest)
		return
	}

	if _, err := os.Stat(path); err != nil {
		s.sendError(w, "Artifact not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s_%s.txt"`, sessionID, kind))
	http.ServeFile(w, r, path)
}

// handleRecordings lists raw recording artifacts: GET /api/recordings.
func (s *Server) handleRecordings(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	recordings, err := s.store.ListRecordings()
	if err != nil {
		s.sendError(w, "Failed to list recordings", http.StatusInternalServerError)
		return
	}
	if recordings == nil {
		recordings = []*types.RecordingInfo{}
	}

	json.NewEncoder(w).Encode(RecordingsResponse{Recordings: recordings})
}

// handleAttendance returns presence records: GET /api/attendance/{room}.
func (s *Server) handleAttendance(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	room := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/attendance/"), "/")[0]
	if !types.IsValidRoomID(room) {
		s.sendError(w, types.ErrInvalidRoomID.Error(), http.StatusBadRequest)
		return
	}

	records, err := s.attendance.RoomAttendance(r.Context(), room)
	if err != nil {
		s.sendError(w, "Failed to query attendance", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []*types.AttendanceRecord{}
	}

	json.NewEncoder(w).Encode(AttendanceResponse{Room: room, Records: records})
}

// healthCheck reports component status: GET /health.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	dbStatus := "healthy"

	if err := s.attendance.HealthCheck(ctx); err != nil {
		status = "unhealthy"
		dbStatus = fmt.Sprintf("error: %v", err)
	}

	response := HealthResponse{
		Status:      status,
		Timestamp:   time.Now(),
		Database:    dbStatus,
		Connections: s.registry.GetStats(),
		Recordings:  s.recorder.GetStats(),
	}

	if status == "unhealthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(response)
}

// pathSessionID extracts and validates the session id path segment.
func (s *Server) pathSessionID(w http.ResponseWriter, r *http.Request, prefix string) (string, bool) {
	sessionID := strings.Split(strings.TrimPrefix(r.URL.Path, prefix), "/")[0]
	if sessionID == "" {
		s.sendError(w, "Session ID required", http.StatusBadRequest)
		return "", false
	}
	if !types.IsValidSessionID(sessionID) {
		s.sendError(w, types.ErrInvalidSessionID.Error(), http.StatusBadRequest)
		return "", false
	}
	return sessionID, true
}

// sendError writes the consistent error response shape.
func (s *Server) sendError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(code),
		Code:    code,
		Message: message,
	})
}

// corsMiddleware enables web client access.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authMiddleware enforces the optional static bearer token.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiToken != "" {
			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if token != s.apiToken {
				s.sendError(w, "Invalid or missing API token", http.StatusUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// jsonMiddleware sets the JSON content type for API responses.
func (s *Server) jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
