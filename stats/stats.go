// Package stats reports steadfast pause analytics
package stats

import (
	"slices"
	"time"

	"github.com/ayoisaiah/steadfast/cooldown"
	"github.com/ayoisaiah/steadfast/internal/session"
)

const dayLayout = time.DateOnly

const (
	// window is the look-back period for the cooldown suggestion.
	window = 7 * 24 * time.Hour
	// maxScale bounds how far the suggestion may stretch the base cooldown.
	maxScale = 2.0
	// minScale bounds how far the suggestion may shrink the base cooldown.
	minScale = 0.75
)

// Report summarises a user's sessions and pauses. All durations are in
// seconds.
type Report struct {
	PausesByReason map[string]int `json:"pauses_by_reason"`
	PausesByDay    map[string]int `json:"pauses_by_day"`
	// SuggestedCooldown is advisory only. It never gates a pause.
	SuggestedCooldown  int64 `json:"suggested_cooldown"`
	Sessions           int   `json:"sessions"`
	ActiveSessions     int   `json:"active_sessions"`
	PauseCount         int   `json:"pause_count"`
	TotalElapsed       int64 `json:"total_elapsed"`
	TotalEffectiveTime int64 `json:"total_effective_time"`
	TotalPauseTime     int64 `json:"total_pause_time"`
	AveragePause       int64 `json:"average_pause"`
	LongestPause       int64 `json:"longest_pause"`
}

type options struct {
	loc  *time.Location
	base time.Duration
}

// Option configures Compute.
type Option func(*options)

// WithBaseCooldown sets the cooldown the suggestion is scaled from.
func WithBaseCooldown(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.base = d
		}
	}
}

// WithLocation sets the time zone used to bucket pauses by day.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

// Compute builds a report from the given sessions and their events.
func Compute(
	sessions []*session.Session,
	events []session.Event,
	now time.Time,
	opts ...Option,
) Report {
	o := options{base: cooldown.DefaultCooldown, loc: time.Local}
	for _, opt := range opts {
		opt(&o)
	}

	r := Report{
		Sessions:       len(sessions),
		PausesByReason: make(map[string]int),
		PausesByDay:    make(map[string]int),
	}

	for _, sess := range sessions {
		st := session.SessionStats(sess, now)

		r.TotalElapsed += st.TotalElapsed
		r.TotalEffectiveTime += st.EffectiveTime
		r.TotalPauseTime += st.TotalPauseTime

		if !sess.Ended() {
			r.ActiveSessions++
		}

		// an open pause is the longest pause so far if nothing closed beats it
		r.LongestPause = max(r.LongestPause, st.CurrentPauseDuration)
	}

	var closed, closedTotal int64

	for i := range events {
		e := &events[i]

		switch e.Type {
		case session.EventPause:
			r.PauseCount++
			r.PausesByReason[e.Reason]++
			r.PausesByDay[e.Timestamp.In(o.loc).Format(dayLayout)]++
		case session.EventResume:
			closed++
			closedTotal += e.PauseDuration
			r.LongestPause = max(r.LongestPause, e.PauseDuration)
		}
	}

	if closed > 0 {
		r.AveragePause = closedTotal / closed
	}

	r.SuggestedCooldown = int64(SuggestCooldown(events, o.base, now).Seconds())

	return r
}

// SuggestCooldown scales base by how often the user paused during the last
// week. One pause a day or fewer leaves room to relax the cooldown; more
// frequent pausing stretches it, up to twice the base.
func SuggestCooldown(
	events []session.Event,
	base time.Duration,
	now time.Time,
) time.Duration {
	since := now.Add(-window)

	var recent int

	for i := range events {
		e := &events[i]
		if e.Type == session.EventPause && !e.Timestamp.Before(since) &&
			!e.Timestamp.After(now) {
			recent++
		}
	}

	perDay := float64(recent) / (window.Hours() / 24)

	scale := 1.0

	switch {
	case recent == 0:
		scale = minScale
	case perDay > 1:
		scale = min(maxScale, 1+(perDay-1)/4)
	}

	return time.Duration(float64(base) * scale).Round(time.Minute)
}

// Days returns the keys of PausesByDay in chronological order.
func (r *Report) Days() []string {
	days := make([]string, 0, len(r.PausesByDay))
	for d := range r.PausesByDay {
		days = append(days, d)
	}

	slices.Sort(days)

	return days
}
