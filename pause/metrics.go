package pause

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	actions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steadfast_session_actions_total",
			Help: "Session state transitions by outcome",
		},
		[]string{"action", "result"}, // result=ok/rejected/error
	)
	pauseLength = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "steadfast_pause_duration_seconds",
			Help:    "Length of completed pauses",
			Buckets: prometheus.ExponentialBuckets(60, 2, 10),
		},
	)
)

// outcome classifies err for the actions counter.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case isRejection(err):
		return "rejected"
	default:
		return "error"
	}
}

// isRejection reports whether err is a precondition failure rather than a
// storage failure.
func isRejection(err error) bool {
	for _, target := range []error{
		ErrNotFound,
		ErrConflict,
		ErrAlreadyPaused,
		ErrNotPaused,
		ErrSessionEnded,
		ErrSessionActive,
		ErrValidation,
		ErrCooldownActive,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}
