package pipeline

import "errors"

// Runner-specific error types
var (
	ErrRunnerAlreadyRunning = errors.New("pipeline runner is already running")
	ErrRunnerNotRunning     = errors.New("pipeline runner is not running")
	ErrJobQueueFull         = errors.New("pipeline job queue is full")
)
