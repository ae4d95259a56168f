package session

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies an entry in the session event log.
type EventType string

const (
	EventStart  EventType = "session_start"
	EventPause  EventType = "session_pause"
	EventResume EventType = "session_resume"
	EventEnd    EventType = "session_end"
)

// Event is an immutable entry in the append-only session event log.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Type      EventType `json:"type"`
	// Reason is the effective pause reason (session_pause only).
	Reason string `json:"reason,omitempty"`
	// PauseDuration is the length of the closed pause in seconds
	// (session_resume only).
	PauseDuration int64 `json:"pause_duration,omitempty"`
}

// NewEvent creates an event of the given type for s stamped at ts.
func NewEvent(s *Session, typ EventType, ts time.Time) Event {
	return Event{
		ID:        uuid.NewString(),
		SessionID: s.ID,
		UserID:    s.UserID,
		Type:      typ,
		Timestamp: ts,
	}
}

// New creates an active session for userID starting at start.
func New(userID string, start time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		StartTime: start,
	}
}
