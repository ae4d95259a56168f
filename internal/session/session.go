// Package session defines steadfast sessions, their audit events, and the
// pure functions that derive effective time from a session snapshot
package session

import (
	"slices"
	"strings"
	"time"
)

// State is the life-cycle state of a session.
type State string

const (
	Active State = "active"
	Paused State = "paused"
	Ended  State = "ended"
)

// Session represents a continuous tracked session.
type Session struct {
	StartTime time.Time `json:"start_time"`
	// EndTime is set once the session is over. An ended session is
	// immutable.
	EndTime *time.Time `json:"end_time,omitempty"`
	// PauseStartTime is non-nil iff IsPaused is true.
	PauseStartTime *time.Time `json:"pause_start_time,omitempty"`
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	// AccumulatedPauseTime is the sum of all completed pause intervals in
	// seconds. It only ever grows.
	AccumulatedPauseTime int64 `json:"accumulated_pause_time"`
	// Version is bumped by the store on every write.
	Version                   int64 `json:"version"`
	IsPaused                  bool  `json:"is_paused"`
	IsHardcoreMode            bool  `json:"is_hardcore_mode"`
	KeyholderApprovalRequired bool  `json:"keyholder_approval_required"`
}

// State derives the life-cycle state of the session.
func (s *Session) State() State {
	switch {
	case s.EndTime != nil:
		return Ended
	case s.IsPaused:
		return Paused
	default:
		return Active
	}
}

// Ended reports whether the session has been ended.
func (s *Session) Ended() bool {
	return s.EndTime != nil
}

// Consistent reports whether the pause flag and pause start time agree.
func (s *Session) Consistent() bool {
	return s.IsPaused == (s.PauseStartTime != nil) && s.AccumulatedPauseTime >= 0
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}

	c := *s

	if s.EndTime != nil {
		t := *s.EndTime
		c.EndTime = &t
	}

	if s.PauseStartTime != nil {
		t := *s.PauseStartTime
		c.PauseStartTime = &t
	}

	return &c
}

// PauseReason is one of the fixed reasons a user may give for a pause.
type PauseReason string

const (
	ReasonBathroom  PauseReason = "Bathroom Break"
	ReasonEmergency PauseReason = "Emergency"
	ReasonMedical   PauseReason = "Medical"
	ReasonWork      PauseReason = "Work/Social"
	ReasonOther     PauseReason = "Other"
)

// Reasons lists the accepted pause reasons in display order.
func Reasons() []PauseReason {
	return []PauseReason{
		ReasonBathroom,
		ReasonEmergency,
		ReasonMedical,
		ReasonWork,
		ReasonOther,
	}
}

// Valid reports whether r is one of the accepted pause reasons.
func (r PauseReason) Valid() bool {
	return slices.Contains(Reasons(), r)
}

// ParseReason matches s against the accepted reasons, ignoring case and
// surrounding whitespace.
func ParseReason(s string) (PauseReason, bool) {
	s = strings.TrimSpace(s)

	for _, r := range Reasons() {
		if strings.EqualFold(string(r), s) {
			return r, true
		}
	}

	return PauseReason(s), false
}

// PauseState describes whether a pause is currently permitted. It is always
// derived from the event log and never persisted.
type PauseState struct {
	LastPauseTime      *time.Time `json:"last_pause_time,omitempty"`
	NextPauseAvailable *time.Time `json:"next_pause_available,omitempty"`
	// CooldownRemaining is in seconds, rounded up.
	CooldownRemaining int64 `json:"cooldown_remaining,omitempty"`
	CanPause          bool  `json:"can_pause"`
}

// Goal is a target amount of effective time.
type Goal struct {
	TargetValue  int64 `json:"target_value"`
	CurrentValue int64 `json:"current_value"`
	IsCompleted  bool  `json:"is_completed"`
}
