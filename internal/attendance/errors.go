package attendance

import "errors"

// Store-specific error types
var (
	ErrStoreClosed  = errors.New("attendance store is closed")
	ErrWriteTimeout = errors.New("attendance write operation timeout")
)
