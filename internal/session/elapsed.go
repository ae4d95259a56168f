package session

import (
	"time"

	"github.com/ayoisaiah/steadfast/internal/timeutil"
)

const percent = 100

// Stats summarises the timing of a session at a reference instant. All
// durations are in whole seconds.
type Stats struct {
	TotalElapsed         int64   `json:"total_elapsed"`
	EffectiveTime        int64   `json:"effective_time"`
	TotalPauseTime       int64   `json:"total_pause_time"`
	CurrentPauseDuration int64   `json:"current_pause_duration"`
	PausePercentage      float64 `json:"pause_percentage"`
	IsPaused             bool    `json:"is_paused"`
}

// reference caps now at the end time of an ended session so that a finished
// session stops accruing time.
func reference(s *Session, now time.Time) time.Time {
	if s.EndTime != nil && now.After(*s.EndTime) {
		return *s.EndTime
	}

	return now
}

// TotalElapsed returns the whole seconds between the session start and now.
// A malformed session or a clock that runs behind the start yields 0.
func TotalElapsed(s *Session, now time.Time) int64 {
	if s == nil {
		return 0
	}

	return max(0, timeutil.SecondsBetween(s.StartTime, reference(s, now)))
}

// CurrentPauseDuration returns the length of the in-progress pause, or 0 if
// the session is not paused.
func CurrentPauseDuration(s *Session, now time.Time) int64 {
	if s == nil || !s.IsPaused || s.PauseStartTime == nil {
		return 0
	}

	return max(0, timeutil.SecondsBetween(*s.PauseStartTime, reference(s, now)))
}

// EffectiveTime returns the elapsed time of the session excluding all paused
// intervals, including one that is still in progress. The result is clamped
// to zero: pause bookkeeping drift or clock anomalies never surface as a
// negative duration.
func EffectiveTime(s *Session, now time.Time) int64 {
	if s == nil {
		return 0
	}

	paused := max(0, s.AccumulatedPauseTime) + CurrentPauseDuration(s, now)

	return timeutil.SaturatingSub(TotalElapsed(s, now), paused)
}

// RemainingGoalTime returns how much effective time is still needed to reach
// target seconds.
func RemainingGoalTime(s *Session, target int64, now time.Time) int64 {
	return timeutil.SaturatingSub(target, EffectiveTime(s, now))
}

// GoalProgressPercent returns progress towards target seconds in the range
// [0, 100]. A non-positive target has no progress.
func GoalProgressPercent(s *Session, target int64, now time.Time) float64 {
	if target <= 0 {
		return 0
	}

	progress := float64(EffectiveTime(s, now)) / float64(target) * percent

	return min(percent, progress)
}

// IsGoalMet reports whether the effective time has reached target seconds.
func IsGoalMet(s *Session, target int64, now time.Time) bool {
	return EffectiveTime(s, now) >= target
}

// GoalFor projects the progress of s against target seconds as a Goal.
func GoalFor(s *Session, target int64, now time.Time) Goal {
	return Goal{
		TargetValue:  target,
		CurrentValue: EffectiveTime(s, now),
		IsCompleted:  target > 0 && IsGoalMet(s, target, now),
	}
}

// SessionStats computes the timing summary of s at now.
func SessionStats(s *Session, now time.Time) Stats {
	if s == nil {
		return Stats{}
	}

	elapsed := TotalElapsed(s, now)
	current := CurrentPauseDuration(s, now)
	totalPause := max(0, s.AccumulatedPauseTime) + current

	stats := Stats{
		TotalElapsed:         elapsed,
		EffectiveTime:        timeutil.SaturatingSub(elapsed, totalPause),
		TotalPauseTime:       totalPause,
		CurrentPauseDuration: current,
		IsPaused:             s.IsPaused,
	}

	if elapsed > 0 {
		stats.PausePercentage = min(
			percent,
			float64(totalPause)/float64(elapsed)*percent,
		)
	}

	return stats
}
