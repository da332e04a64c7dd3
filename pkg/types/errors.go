package types

import "errors"

// Validation errors surfaced to clients as system error events or 4xx
// responses; none of them carries side effects.
var (
	ErrMissingEventName = errors.New("event name is required")
	ErrMissingRoom      = errors.New("room is required")
	ErrInvalidRoomID    = errors.New("room id must be 1-64 characters, alphanumeric + underscore/hyphen only")
	ErrInvalidSessionID = errors.New("session id must be 1-128 characters, alphanumeric + underscore/hyphen only")
	ErrInvalidUsername  = errors.New("username must be 1-50 characters")
	ErrInvalidRole      = errors.New("role must be 'student' or 'teacher'")
)
