package main

import (
	"time"

	"github.com/google/uuid"
)

// Session is one start-to-finish capture attempt. Created when a
// trigger-down is accepted in idle, finalized when its result is logged,
// discarded when the hold was too short or cancelled. At most one exists
// at a time.
type Session struct {
	ID      string
	Started time.Time
	Ended   time.Time

	// Duration is derived from the captured frame count at freeze,
	// not from wall clock.
	Duration time.Duration

	// Dropped counts samples discarded once the buffer hit the
	// configured maximum capture duration.
	Dropped uint64
}

func newSession() *Session {
	return &Session{
		ID:      uuid.NewString()[:8],
		Started: time.Now(),
	}
}

// TranscriptResult is the outcome of one dispatched session. The worker
// goroutine produces exactly one per session, success or not.
type TranscriptResult struct {
	SessionID string
	Text      string
	Succeeded bool
	Detail    string // error detail when Succeeded is false
}
