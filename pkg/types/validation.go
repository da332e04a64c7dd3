package types

import (
	"regexp"
)

// Compiled once at package initialization; these run on every inbound
// event so they must stay allocation-free.
var (
	roomIDRegex    = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	sessionIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// IsValidRoomID checks if a room id meets format requirements. Room ids
// are caller-supplied grouping keys and double as file-name components of
// recording session ids, so the charset is restricted accordingly.
func IsValidRoomID(room string) bool {
	if len(room) < 1 || len(room) > 64 {
		return false
	}
	return roomIDRegex.MatchString(room)
}

// IsValidSessionID checks if a recording session id is safe to use as a
// storage key. Session ids are server-generated but also arrive from HTTP
// callers, so they are re-validated before touching the filesystem.
func IsValidSessionID(sessionID string) bool {
	if len(sessionID) < 1 || len(sessionID) > 128 {
		return false
	}
	return sessionIDRegex.MatchString(sessionID)
}

// IsValidUsername checks the client-supplied display name. Usernames are
// not authenticated; this only bounds them for logs and relay envelopes.
func IsValidUsername(username string) bool {
	return len(username) >= 1 && len(username) <= 50
}

// IsValidRole checks the client-claimed role.
func IsValidRole(role string) bool {
	return role == "student" || role == "teacher"
}

// Validate ensures an inbound event envelope is routable.
func (e *Event) Validate() error {
	if e.Name == "" {
		return ErrMissingEventName
	}
	if e.Room == "" {
		return ErrMissingRoom
	}
	if !IsValidRoomID(e.Room) {
		return ErrInvalidRoomID
	}
	return nil
}
