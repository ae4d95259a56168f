// Package pause drives the session state machine. Every transition re-checks
// its preconditions inside a single store transaction, so a session write and
// its audit event are never applied separately.
package pause

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ayoisaiah/steadfast/cooldown"
	"github.com/ayoisaiah/steadfast/internal/session"
	"github.com/ayoisaiah/steadfast/internal/timeutil"
	"github.com/ayoisaiah/steadfast/store"
)

// Orchestrator starts, pauses, resumes and ends sessions.
type Orchestrator struct {
	db     store.DB
	guard  *cooldown.Guard
	logger *slog.Logger
	now    func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock overrides the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithLogger sets the logger used for storage failures and transitions.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// New returns an orchestrator writing to db and consulting guard before each
// pause.
func New(db store.DB, guard *cooldown.Guard, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		db:     db,
		guard:  guard,
		now:    time.Now,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// StartOptions describes a new session.
type StartOptions struct {
	// StartTime defaults to the current time. It may not be in the future.
	StartTime                 time.Time
	UserID                    string
	IsHardcoreMode            bool
	KeyholderApprovalRequired bool
}

// Status is a read-only projection of a session's pause state.
type Status struct {
	Session *session.Session   `json:"session"`
	Pause   session.PauseState `json:"pause"`
	State   session.State      `json:"state"`
	// CurrentPauseDuration is the length of the open pause in seconds.
	CurrentPauseDuration int64 `json:"current_pause_duration"`
	AccumulatedPauseTime int64 `json:"accumulated_pause_time"`
	EffectiveTime        int64 `json:"effective_time"`
}

// EffectiveReason validates a pause reason. ReasonOther requires a non-blank
// custom reason which replaces it.
func EffectiveReason(
	reason session.PauseReason,
	customReason string,
) (string, error) {
	if !reason.Valid() {
		return "", ErrValidation.Fmt("unknown pause reason " + string(reason))
	}

	if reason != session.ReasonOther {
		return string(reason), nil
	}

	custom := strings.TrimSpace(customReason)
	if custom == "" {
		return "", ErrValidation.Fmt("a custom reason is required for Other")
	}

	return custom, nil
}

func checkPausable(s *session.Session) error {
	switch {
	case s.Ended():
		return ErrSessionEnded.Fmt(s.ID)
	case s.IsPaused:
		return ErrAlreadyPaused.Fmt(s.ID)
	}

	return nil
}

func checkResumable(s *session.Session) error {
	switch {
	case s.Ended():
		return ErrSessionEnded.Fmt(s.ID)
	case !s.IsPaused, s.PauseStartTime == nil:
		return ErrNotPaused.Fmt(s.ID)
	}

	return nil
}

// closePause folds the open pause into the accumulated total and returns the
// matching resume event.
func closePause(s *session.Session, now time.Time) session.Event {
	secs := max(0, timeutil.FloorSeconds(now.Sub(*s.PauseStartTime)))

	s.AccumulatedPauseTime += secs
	s.IsPaused = false
	s.PauseStartTime = nil

	e := session.NewEvent(s, session.EventResume, now)
	e.PauseDuration = secs

	return e
}

// versioned guards fn so that it only runs against the session version the
// caller decided on.
func versioned(seen int64, fn store.Mutation) store.Mutation {
	return func(s *session.Session) ([]session.Event, error) {
		if s.Version != seen {
			return nil, ErrConflict
		}

		return fn(s)
	}
}

// fail counts a failed op and logs storage failures with context. The error
// is returned unchanged.
func (o *Orchestrator) fail(
	ctx context.Context,
	op, sessionID string,
	err error,
) error {
	actions.WithLabelValues(op, outcome(err)).Inc()

	if err != nil && !isRejection(err) {
		o.logger.ErrorContext(ctx, "storage failure",
			slog.String("session_id", sessionID),
			slog.String("op", op),
			slog.Any("error", err),
		)
	}

	return err
}

// Pause pauses a session. It fails with ErrValidation for a bad reason,
// ErrNotFound, ErrSessionEnded, ErrAlreadyPaused, or a *CooldownError.
func (o *Orchestrator) Pause(
	ctx context.Context,
	sessionID string,
	reason session.PauseReason,
	customReason string,
) (*session.Session, error) {
	effective, err := EffectiveReason(reason, customReason)
	if err != nil {
		return nil, o.fail(ctx, "pause", sessionID, err)
	}

	sess, err := o.db.GetSession(ctx, sessionID)
	if err != nil {
		return nil, o.fail(ctx, "pause", sessionID, err)
	}

	if err = checkPausable(sess); err != nil {
		return nil, o.fail(ctx, "pause", sessionID, err)
	}

	state, err := o.guard.CanPauseSession(ctx, sess)
	if err != nil {
		return nil, o.fail(ctx, "pause", sessionID, err)
	}

	if !state.CanPause {
		cerr := &CooldownError{CooldownRemaining: state.CooldownRemaining}
		if state.NextPauseAvailable != nil {
			cerr.NextPauseAvailable = *state.NextPauseAvailable
		}

		return nil, o.fail(ctx, "pause", sessionID, cerr)
	}

	now := o.now()

	updated, err := o.db.UpdateSession(ctx, sessionID, versioned(sess.Version,
		func(s *session.Session) ([]session.Event, error) {
			if err := checkPausable(s); err != nil {
				return nil, err
			}

			s.IsPaused = true
			s.PauseStartTime = &now

			e := session.NewEvent(s, session.EventPause, now)
			e.Reason = effective

			return []session.Event{e}, nil
		}))
	if err != nil {
		return nil, o.fail(ctx, "pause", sessionID, err)
	}

	o.logger.InfoContext(ctx, "session paused",
		slog.String("session_id", sessionID),
		slog.String("reason", effective),
	)

	actions.WithLabelValues("pause", "ok").Inc()

	return updated, nil
}

// Resume closes the open pause of a session. It fails with ErrNotFound,
// ErrSessionEnded or ErrNotPaused.
func (o *Orchestrator) Resume(
	ctx context.Context,
	sessionID string,
) (*session.Session, error) {
	sess, err := o.db.GetSession(ctx, sessionID)
	if err != nil {
		return nil, o.fail(ctx, "resume", sessionID, err)
	}

	if err = checkResumable(sess); err != nil {
		return nil, o.fail(ctx, "resume", sessionID, err)
	}

	now := o.now()

	updated, err := o.db.UpdateSession(ctx, sessionID, versioned(sess.Version,
		func(s *session.Session) ([]session.Event, error) {
			if err := checkResumable(s); err != nil {
				return nil, err
			}

			return []session.Event{closePause(s, now)}, nil
		}))
	if err != nil {
		return nil, o.fail(ctx, "resume", sessionID, err)
	}

	pauseLength.Observe(
		float64(updated.AccumulatedPauseTime - sess.AccumulatedPauseTime),
	)

	o.logger.InfoContext(ctx, "session resumed",
		slog.String("session_id", sessionID),
		slog.Int64("accumulated_pause_time", updated.AccumulatedPauseTime),
	)

	actions.WithLabelValues("resume", "ok").Inc()

	return updated, nil
}

// Start creates a new active session for the user.
func (o *Orchestrator) Start(
	ctx context.Context,
	opts StartOptions,
) (*session.Session, error) {
	now := o.now()

	if strings.TrimSpace(opts.UserID) == "" {
		return nil, o.fail(ctx, "start", "", ErrValidation.Fmt("missing user id"))
	}

	start := opts.StartTime
	if start.IsZero() {
		start = now
	}

	if start.After(now) {
		return nil, o.fail(
			ctx,
			"start",
			"",
			ErrValidation.Fmt("start time is in the future"),
		)
	}

	sess := session.New(opts.UserID, start)
	sess.IsHardcoreMode = opts.IsHardcoreMode
	sess.KeyholderApprovalRequired = opts.KeyholderApprovalRequired

	err := o.db.CreateSession(
		ctx,
		sess,
		session.NewEvent(sess, session.EventStart, start),
	)
	if errors.Is(err, store.ErrActiveExists) {
		err = ErrSessionActive.Fmt(opts.UserID)
	}

	if err != nil {
		return nil, o.fail(ctx, "start", sess.ID, err)
	}

	o.logger.InfoContext(ctx, "session started",
		slog.String("session_id", sess.ID),
		slog.String("user_id", sess.UserID),
	)

	actions.WithLabelValues("start", "ok").Inc()

	return sess, nil
}

// End terminates a session. An open pause is closed first so that it counts
// toward the accumulated pause time.
func (o *Orchestrator) End(
	ctx context.Context,
	sessionID string,
) (*session.Session, error) {
	sess, err := o.db.GetSession(ctx, sessionID)
	if err != nil {
		return nil, o.fail(ctx, "end", sessionID, err)
	}

	if sess.Ended() {
		return nil, o.fail(ctx, "end", sessionID, ErrSessionEnded.Fmt(sessionID))
	}

	now := o.now()

	updated, err := o.db.UpdateSession(ctx, sessionID, versioned(sess.Version,
		func(s *session.Session) ([]session.Event, error) {
			if s.Ended() {
				return nil, ErrSessionEnded.Fmt(s.ID)
			}

			var events []session.Event

			if s.IsPaused && s.PauseStartTime != nil {
				events = append(events, closePause(s, now))
			}

			s.EndTime = &now

			return append(events, session.NewEvent(s, session.EventEnd, now)), nil
		}))
	if err != nil {
		return nil, o.fail(ctx, "end", sessionID, err)
	}

	if sess.IsPaused {
		pauseLength.Observe(
			float64(updated.AccumulatedPauseTime - sess.AccumulatedPauseTime),
		)
	}

	o.logger.InfoContext(ctx, "session ended",
		slog.String("session_id", sessionID),
		slog.Int64("effective_time", session.EffectiveTime(updated, now)),
	)

	actions.WithLabelValues("end", "ok").Inc()

	return updated, nil
}

// PauseStatus reports the state of a session and whether it may be paused.
func (o *Orchestrator) PauseStatus(
	ctx context.Context,
	sessionID string,
) (*Status, error) {
	sess, err := o.db.GetSession(ctx, sessionID)
	if err != nil {
		return nil, o.logged(ctx, "status", sessionID, err)
	}

	state, err := o.guard.CanPauseSession(ctx, sess)
	if err != nil {
		return nil, o.logged(ctx, "status", sessionID, err)
	}

	now := o.now()

	return &Status{
		Session:              sess,
		State:                sess.State(),
		Pause:                state,
		CurrentPauseDuration: session.CurrentPauseDuration(sess, now),
		AccumulatedPauseTime: sess.AccumulatedPauseTime,
		EffectiveTime:        session.EffectiveTime(sess, now),
	}, nil
}

// PauseHistory returns the pause and resume events of a session in
// ascending timestamp order.
func (o *Orchestrator) PauseHistory(
	ctx context.Context,
	sessionID string,
) ([]session.Event, error) {
	if _, err := o.db.GetSession(ctx, sessionID); err != nil {
		return nil, o.logged(ctx, "history", sessionID, err)
	}

	events, err := o.db.QueryEvents(
		ctx,
		sessionID,
		session.EventPause,
		session.EventResume,
	)
	if err != nil {
		return nil, o.logged(ctx, "history", sessionID, err)
	}

	return events, nil
}

// CanUserPause reports whether the user may pause their active session.
func (o *Orchestrator) CanUserPause(
	ctx context.Context,
	userID string,
) (session.PauseState, error) {
	return o.guard.CanUserPause(ctx, userID)
}

// ActiveSession returns the user's session that has not ended.
func (o *Orchestrator) ActiveSession(
	ctx context.Context,
	userID string,
) (*session.Session, error) {
	sess, err := o.db.GetActiveSession(ctx, userID)
	if err != nil {
		return nil, o.logged(ctx, "active_session", "", err)
	}

	return sess, nil
}

// Sessions lists the user's sessions, newest first.
func (o *Orchestrator) Sessions(
	ctx context.Context,
	userID string,
) ([]*session.Session, error) {
	sessions, err := o.db.ListSessions(ctx, userID)
	if err != nil {
		return nil, o.logged(ctx, "list_sessions", "", err)
	}

	return sessions, nil
}

// Events returns the full event log of a session.
func (o *Orchestrator) Events(
	ctx context.Context,
	sessionID string,
) ([]session.Event, error) {
	events, err := o.db.QueryEvents(ctx, sessionID)
	if err != nil {
		return nil, o.logged(ctx, "events", sessionID, err)
	}

	return events, nil
}

// logged is fail for read-only operations, which are not counted.
func (o *Orchestrator) logged(
	ctx context.Context,
	op, sessionID string,
	err error,
) error {
	if !isRejection(err) {
		o.logger.ErrorContext(ctx, "storage failure",
			slog.String("session_id", sessionID),
			slog.String("op", op),
			slog.Any("error", err),
		)
	}

	return err
}
