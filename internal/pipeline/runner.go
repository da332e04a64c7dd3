package pipeline

import (
	"context"
	"log"
	"sync"

	"liveboard/pkg/interfaces"
)

// job is one finished recording session awaiting processing.
type job struct {
	sessionID string
	room      string
}

// Runner decouples pipeline execution from the recording-stop dispatch: a
// stop command enqueues the session id and acknowledges immediately while
// the runner's single goroutine works through jobs and reports progress
// through the notifier. A failed job is reported to the room and dropped;
// it never propagates as an unhandled fault.
type Runner struct {
	jobs     chan job // 100 buffer absorbs bursts of near-simultaneous stops
	shutdown chan struct{}

	pipeline interfaces.SessionProcessor
	notifier interfaces.SessionNotifier

	running bool
	mu      sync.RWMutex
}

// NewRunner creates a runner over the pipeline and notifier.
func NewRunner(pipeline interfaces.SessionProcessor, notifier interfaces.SessionNotifier) *Runner {
	return &Runner{
		jobs:     make(chan job, 100),
		shutdown: make(chan struct{}),
		pipeline: pipeline,
		notifier: notifier,
	}
}

// Start begins job processing.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrRunnerAlreadyRunning
	}
	r.running = true
	r.mu.Unlock()

	log.Println("Starting pipeline runner...")
	go r.run(ctx)
	return nil
}

// Stop shuts down the runner. Queued jobs are abandoned; their sessions
// remain processable through the HTTP process endpoint.
func (r *Runner) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return ErrRunnerNotRunning
	}
	r.running = false

	select {
	case <-r.shutdown:
	default:
		close(r.shutdown)
	}
	return nil
}

// Enqueue queues a finished session for processing without blocking the
// caller's dispatch turn.
func (r *Runner) Enqueue(sessionID, room string) error {
	r.mu.RLock()
	if !r.running {
		r.mu.RUnlock()
		return ErrRunnerNotRunning
	}
	r.mu.RUnlock()

	select {
	case r.jobs <- job{sessionID: sessionID, room: room}:
		return nil
	default:
		return ErrJobQueueFull
	}
}

// run is the single processing loop. One job at a time puts a natural cap
// on concurrent external calls from stop-triggered runs.
func (r *Runner) run(ctx context.Context) {
	defer log.Println("Pipeline runner stopped")

	for {
		select {
		case j := <-r.jobs:
			r.process(ctx, j)

		case <-r.shutdown:
			return

		case <-ctx.Done():
			return
		}
	}
}

// process runs one job and reports its lifecycle to the originating room.
func (r *Runner) process(ctx context.Context, j job) {
	r.notifier.PipelineStarted(j.room, j.sessionID)

	result, err := r.pipeline.Process(ctx, j.sessionID)
	if err != nil {
		log.Printf("Pipeline job failed: session=%s room=%s err=%v", j.sessionID, j.room, err)
		r.notifier.PipelineFailed(j.room, j.sessionID, err)
		return
	}

	r.notifier.PipelineCompleted(j.room, result)
}
