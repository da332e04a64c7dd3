package websocket

import "time"

// Settings tunes the transport heartbeat and per-connection buffering.
// Values come from the websocket section of the configuration.
type Settings struct {
	PingInterval time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BufferSize   int
}

// DefaultSettings returns the production defaults: a read deadline twice
// the ping interval keeps half-dead classroom connections from lingering
// in room membership.
func DefaultSettings() Settings {
	return Settings{
		PingInterval: 30 * time.Second,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Second,
		BufferSize:   100,
	}
}

// withDefaults fills non-positive fields from DefaultSettings.
func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.PingInterval <= 0 {
		s.PingInterval = d.PingInterval
	}
	if s.ReadTimeout <= 0 {
		s.ReadTimeout = d.ReadTimeout
	}
	if s.WriteTimeout <= 0 {
		s.WriteTimeout = d.WriteTimeout
	}
	if s.BufferSize <= 0 {
		s.BufferSize = d.BufferSize
	}
	return s
}
