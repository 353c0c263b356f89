package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCassetteDir is returned when the cassette storage directory has
	// not been configured before a session or store operation needs it.
	ErrNoCassetteDir = errors.New("cassette directory is not configured")

	// ErrNoStubs is returned when a session is entered with no client stubs
	// registered for interception.
	ErrNoStubs = errors.New("no client stubs are configured for interception")

	// ErrCassetteNotFound is returned by the store when the named cassette
	// file does not exist.
	ErrCassetteNotFound = errors.New("cassette not found")

	// ErrVersionMismatch is returned when a cassette file's schema version
	// differs from SchemaVersion. The cassette is not partially loaded.
	ErrVersionMismatch = errors.New("cassette schema version mismatch")

	// ErrNoActiveCassette is returned when a call is intercepted in
	// recording mode but no cassette is bound to the session.
	ErrNoActiveCassette = errors.New("no active cassette bound to the session")

	// ErrSessionRunning is returned when a session is entered, or the engine
	// is reconfigured, while another session is still bound.
	ErrSessionRunning = errors.New("a record or replay session is already running")
)

// NoRecordingFoundError is returned in playing mode when no recorded request
// matches the intercepted call. It carries the unmatched request's identity
// and, when a near-miss exists, a structural diff against it.
type NoRecordingFoundError struct {
	Req  Request
	Diff string
}

func (e *NoRecordingFoundError) Error() string {
	if e.Diff == "" {
		return fmt.Sprintf("no recording found for call %q with args %v", e.Req.Method, e.Req.Args)
	}
	return fmt.Sprintf("no recording found for call %q with args %v, closest recorded request differs: %s", e.Req.Method, e.Req.Args, e.Diff)
}
