// Package cooldown decides whether a user may pause their active session. The
// decision is derived from the session event log alone, so a stale copy of a
// session can never grant an extra pause.
package cooldown

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ayoisaiah/steadfast/internal/session"
	"github.com/ayoisaiah/steadfast/internal/timeutil"
	"github.com/ayoisaiah/steadfast/store"
)

// DefaultCooldown is the minimum interval between two pauses of the same
// session.
const DefaultCooldown = 4 * time.Hour

// EventLog is the part of the store the guard reads from.
type EventLog interface {
	GetActiveSession(ctx context.Context, userID string) (*session.Session, error)
	LastEvent(
		ctx context.Context,
		sessionID string,
		typ session.EventType,
	) (*session.Event, error)
}

// Guard enforces a fixed cooldown between pause actions.
type Guard struct {
	log      EventLog
	logger   *slog.Logger
	now      func() time.Time
	cooldown time.Duration
}

// Option configures a Guard.
type Option func(*Guard)

// WithClock overrides the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		g.now = now
	}
}

// WithLogger sets the logger used to report storage failures.
func WithLogger(l *slog.Logger) Option {
	return func(g *Guard) {
		g.logger = l
	}
}

// New returns a guard reading from log. A non-positive cooldown selects
// DefaultCooldown.
func New(log EventLog, cooldown time.Duration, opts ...Option) *Guard {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}

	g := &Guard{
		log:      log,
		cooldown: cooldown,
		now:      time.Now,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Cooldown returns the configured cooldown window.
func (g *Guard) Cooldown() time.Duration {
	return g.cooldown
}

// CanUserPause reports whether userID may pause their active session now.
// A user without an active session can never pause.
func (g *Guard) CanUserPause(
	ctx context.Context,
	userID string,
) (session.PauseState, error) {
	sess, err := g.log.GetActiveSession(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return session.PauseState{CanPause: false}, nil
	}

	if err != nil {
		g.logger.ErrorContext(ctx, "looking up active session failed",
			slog.String("user_id", userID),
			slog.String("op", "can_user_pause"),
			slog.Any("error", err),
		)

		return session.PauseState{}, err
	}

	return g.CanPauseSession(ctx, sess)
}

// CanPauseSession evaluates the cooldown for an already loaded session.
func (g *Guard) CanPauseSession(
	ctx context.Context,
	sess *session.Session,
) (session.PauseState, error) {
	if sess == nil || sess.Ended() {
		return session.PauseState{CanPause: false}, nil
	}

	last, err := g.log.LastEvent(ctx, sess.ID, session.EventPause)
	if err != nil {
		g.logger.ErrorContext(ctx, "reading last pause event failed",
			slog.String("session_id", sess.ID),
			slog.String("op", "can_pause_session"),
			slog.Any("error", err),
		)

		return session.PauseState{}, err
	}

	// the first pause is always free
	if last == nil {
		return session.PauseState{CanPause: true}, nil
	}

	return Evaluate(last.Timestamp, g.cooldown, g.now()), nil
}

// Evaluate applies the cooldown rule to the time of the last pause. While
// blocked, the remaining time is rounded up so that a caller never shows
// "0s remaining" for a pause that is still refused.
func Evaluate(
	lastPause time.Time,
	cooldown time.Duration,
	now time.Time,
) session.PauseState {
	last := lastPause
	elapsed := now.Sub(lastPause)

	if elapsed >= cooldown {
		return session.PauseState{
			CanPause:      true,
			LastPauseTime: &last,
		}
	}

	next := lastPause.Add(cooldown)

	return session.PauseState{
		CanPause:           false,
		LastPauseTime:      &last,
		NextPauseAvailable: &next,
		CooldownRemaining:  timeutil.CeilSeconds(cooldown - elapsed),
	}
}
