package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/ayoisaiah/steadfast/internal/apperr"
	"github.com/ayoisaiah/steadfast/internal/session"
)

var (
	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = &apperr.Error{Message: "session not found"}

	// ErrConflict is returned when a session changed between being read and
	// being written.
	ErrConflict = &apperr.Error{
		Message: "session was modified concurrently",
	}

	// ErrActiveExists is returned when a user already has an active session.
	ErrActiveExists = &apperr.Error{
		Message: "user already has an active session",
	}

	// ErrInvariant is returned when a write would corrupt a session.
	ErrInvariant = &apperr.Error{Message: "session invariant violated: %s"}
)

// Mutation modifies a session in place and returns the events to append to
// the log alongside the write. Returning an error aborts the write.
type Mutation func(sess *session.Session) ([]session.Event, error)

// DB is the session storage interface.
type DB interface {
	// CreateSession stores a new session together with its initial events.
	// It fails with ErrActiveExists if the owner already has a session that
	// has not ended.
	CreateSession(
		ctx context.Context,
		sess *session.Session,
		events ...session.Event,
	) error
	// GetSession returns the session with the given id or ErrNotFound.
	GetSession(ctx context.Context, id string) (*session.Session, error)
	// GetActiveSession returns the user's session that has not ended, or
	// ErrNotFound.
	GetActiveSession(
		ctx context.Context,
		userID string,
	) (*session.Session, error)
	// ListSessions returns the user's sessions, newest first
	ListSessions(ctx context.Context, userID string) ([]*session.Session, error)
	// UpdateSession applies fn to the stored session, increments its version
	// and appends the returned events. The session write and the event
	// appends commit or fail together.
	UpdateSession(
		ctx context.Context,
		id string,
		fn Mutation,
	) (*session.Session, error)
	// QueryEvents returns the events for a session in ascending timestamp
	// order, optionally restricted to the given types.
	QueryEvents(
		ctx context.Context,
		sessionID string,
		types ...session.EventType,
	) ([]session.Event, error)
	// LastEvent returns the most recent event of type typ for a session, or
	// nil if there is none.
	LastEvent(
		ctx context.Context,
		sessionID string,
		typ session.EventType,
	) (*session.Event, error)
	// AppendEvent adds a single event to the log. It is a write like any
	// other: the session version is bumped, and ended sessions reject it.
	AppendEvent(ctx context.Context, event session.Event) error
	// Close ends the database connection
	Close() error
}

// checkTransition rejects writes that would break session invariants.
func checkTransition(prev, next *session.Session) error {
	switch {
	case prev.Ended():
		return ErrInvariant.Fmt("session has ended")
	case next.ID != prev.ID, next.UserID != prev.UserID:
		return ErrInvariant.Fmt("identity is immutable")
	case !next.StartTime.Equal(prev.StartTime):
		return ErrInvariant.Fmt("start time is immutable")
	case next.AccumulatedPauseTime < prev.AccumulatedPauseTime:
		return ErrInvariant.Fmt("accumulated pause time decreased")
	case !next.Consistent():
		return ErrInvariant.Fmt("pause state is inconsistent")
	}

	return nil
}

// checkNew validates a session that is about to be created.
func checkNew(sess *session.Session) error {
	switch {
	case sess.ID == "":
		return ErrInvariant.Fmt("missing session id")
	case sess.UserID == "":
		return ErrInvariant.Fmt("missing user id")
	case sess.StartTime.IsZero():
		return ErrInvariant.Fmt("missing start time")
	case !sess.Consistent():
		return ErrInvariant.Fmt("pause state is inconsistent")
	}

	return nil
}

// checkEvent validates an event before it is appended.
func checkEvent(e *session.Event) error {
	if e.ID == "" || e.SessionID == "" || e.Type == "" || e.Timestamp.IsZero() {
		return ErrInvariant.Fmt("incomplete " + string(e.Type) + " event")
	}

	return nil
}

// appendOnly is the mutation behind AppendEvent. It leaves the session as is
// so the store only bumps its version alongside the event.
func appendOnly(event session.Event) Mutation {
	return func(*session.Session) ([]session.Event, error) {
		return []session.Event{event}, nil
	}
}

// sortEvents orders events by timestamp. Events with equal timestamps keep
// their append order.
func sortEvents(events []session.Event) {
	slices.SortStableFunc(events, func(a, b session.Event) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
}

// sortSessions orders sessions newest first.
func sortSessions(sessions []*session.Session) {
	slices.SortStableFunc(sessions, func(a, b *session.Session) int {
		return b.StartTime.Compare(a.StartTime)
	})
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}
