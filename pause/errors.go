package pause

import (
	"fmt"
	"time"

	"github.com/ayoisaiah/steadfast/internal/apperr"
	"github.com/ayoisaiah/steadfast/internal/timeutil"
	"github.com/ayoisaiah/steadfast/store"
)

var (
	// ErrNotFound is returned when a session or active session does not exist.
	ErrNotFound = store.ErrNotFound

	// ErrConflict is returned when another writer changed the session first.
	ErrConflict = store.ErrConflict

	ErrAlreadyPaused = &apperr.Error{
		Message: "session %s is already paused",
	}

	ErrNotPaused = &apperr.Error{
		Message: "session %s is not paused",
	}

	ErrSessionEnded = &apperr.Error{
		Message: "session %s has already ended",
	}

	ErrSessionActive = &apperr.Error{
		Message: "user %s already has an active session",
	}

	ErrValidation = &apperr.Error{
		Message: "invalid request: %s",
	}

	// ErrCooldownActive matches every *CooldownError.
	ErrCooldownActive = &apperr.Error{
		Message: "pause cooldown is active",
	}
)

// CooldownError is returned when a pause is attempted before the cooldown
// since the previous pause has elapsed.
type CooldownError struct {
	NextPauseAvailable time.Time
	// CooldownRemaining is in seconds.
	CooldownRemaining int64
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf(
		"%s: next pause available at %s (%s remaining)",
		ErrCooldownActive.Message,
		e.NextPauseAvailable.Local().Format(time.DateTime),
		timeutil.FormatSeconds(e.CooldownRemaining),
	)
}

// Is makes errors.Is(err, ErrCooldownActive) report true.
func (e *CooldownError) Is(target error) bool {
	return target == ErrCooldownActive
}
