package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"liveboard/internal/api"
	"liveboard/internal/attendance"
	"liveboard/internal/config"
	"liveboard/internal/notify"
	"liveboard/internal/pipeline"
	"liveboard/internal/recording"
	"liveboard/internal/relay"
	"liveboard/internal/storage"
	"liveboard/internal/websocket"
	"liveboard/pkg/interfaces"
)

// Application coordinates all system components with a clean dependency
// injection pattern.
type Application struct {
	config     *config.Config
	attendance *attendance.Store
	store      *storage.Store
	registry   *websocket.Registry
	recorder   *recording.Manager
	runner     *pipeline.Runner
	httpServer *http.Server
}

// NewApplication initializes components in strict dependency order:
// Attendance DB -> Storage -> Registry -> Recorder -> Notifier ->
// Backends -> Pipeline -> Runner -> Relay -> API -> WebSocket -> HTTP.
func NewApplication(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	attendanceStore, err := attendance.NewStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize attendance store: %w", err)
	}

	store, err := storage.NewStore(cfg.Storage.RecordingsDir)
	if err != nil {
		_ = attendanceStore.Close()
		return nil, fmt.Errorf("failed to initialize artifact storage: %w", err)
	}

	registry := websocket.NewRegistry()
	recorder := recording.NewManager(store)
	notifier := notify.NewNotifier(registry)

	// Backend selection happens once at startup: a configured credential
	// selects the live external backend, otherwise the deterministic
	// fallback keeps the system demoable without network access.
	httpClient := &http.Client{Timeout: cfg.Pipeline.StageTimeout}

	var transcriber interfaces.Transcriber = pipeline.FallbackTranscriber{}
	if cfg.Pipeline.SpeechAPIKey != "" {
		transcriber = pipeline.NewSpeechTranscriber(
			cfg.Pipeline.SpeechAPIKey, cfg.Pipeline.SpeechURL, cfg.Pipeline.SpeechModel, httpClient)
	}

	var summarizer interfaces.Summarizer = pipeline.FallbackSummarizer{}
	if cfg.Pipeline.SummaryAPIKey != "" {
		summarizer = pipeline.NewTextSummarizer(
			cfg.Pipeline.SummaryAPIKey, cfg.Pipeline.SummaryURL, cfg.Pipeline.SummaryModel, httpClient)
	}

	processor := pipeline.NewPipeline(store, transcriber, summarizer,
		cfg.Pipeline.MinAudioBytes, cfg.Pipeline.StageTimeout)
	runner := pipeline.NewRunner(processor, notifier)

	eventRelay := relay.NewRelay(registry, recorder)

	apiServer := api.NewServer(processor, store, attendanceStore, registry, recorder, cfg.HTTP.APIToken)
	wsHandler := websocket.NewHandler(registry, recorder, eventRelay, notifier, attendanceStore, runner,
		websocket.Settings{
			PingInterval: cfg.WebSocket.PingInterval,
			ReadTimeout:  cfg.WebSocket.ReadTimeout,
			WriteTimeout: cfg.WebSocket.WriteTimeout,
			BufferSize:   cfg.WebSocket.BufferSize,
		})

	mux := http.NewServeMux()
	mux.Handle("/api/", apiServer)
	mux.Handle("/health", apiServer)
	mux.HandleFunc("/ws", wsHandler.HandleWebSocket)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      mux,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &Application{
		config:     cfg,
		attendance: attendanceStore,
		store:      store,
		registry:   registry,
		recorder:   recorder,
		runner:     runner,
		httpServer: httpServer,
	}, nil
}

// Start begins application execution: the pipeline runner first so stop
// commands can enqueue work, then the HTTP server.
func (app *Application) Start(ctx context.Context) error {
	log.Printf("Starting liveboard on %s", app.httpServer.Addr)

	if err := app.runner.Start(ctx); err != nil {
		return fmt.Errorf("failed to start pipeline runner: %w", err)
	}

	serverErrCh := make(chan error, 1)
	go func() {
		if err := app.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case err := <-serverErrCh:
		_ = app.runner.Stop()
		return err
	case <-time.After(100 * time.Millisecond):
		log.Printf("liveboard started successfully")
		return nil
	case <-ctx.Done():
		_ = app.runner.Stop()
		return ctx.Err()
	}
}

// Stop shuts the application down in reverse dependency order:
// HTTP -> Runner -> Recorder -> Attendance.
func (app *Application) Stop(ctx context.Context) error {
	log.Printf("Shutting down liveboard")

	if err := app.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	if err := app.runner.Stop(); err != nil {
		log.Printf("Pipeline runner shutdown error: %v", err)
	}

	// Finalize any in-flight recordings so their sinks land on disk.
	app.recorder.StopAll()

	if err := app.attendance.Close(); err != nil {
		log.Printf("Attendance store shutdown error: %v", err)
	}

	log.Printf("liveboard shutdown complete")
	return nil
}

// GetAddr returns the server address for external connections.
func (app *Application) GetAddr() string {
	return app.httpServer.Addr
}
