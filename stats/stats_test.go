package stats

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayoisaiah/steadfast/internal/session"
)

var t0 = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

func pauseAt(ts time.Time, reason string) session.Event {
	return session.Event{
		ID:        ts.String(),
		SessionID: "s1",
		Type:      session.EventPause,
		Timestamp: ts,
		Reason:    reason,
	}
}

func resumeAt(ts time.Time, secs int64) session.Event {
	return session.Event{
		ID:            ts.String(),
		SessionID:     "s1",
		Type:          session.EventResume,
		Timestamp:     ts,
		PauseDuration: secs,
	}
}

func TestCompute(t *testing.T) {
	end := t0.Add(2 * time.Hour)
	pauseStart := t0.Add(26 * time.Hour)

	sessions := []*session.Session{
		{
			ID:                   "s1",
			UserID:               "u1",
			StartTime:            t0,
			EndTime:              &end,
			AccumulatedPauseTime: 900,
		},
		{
			ID:             "s2",
			UserID:         "u1",
			StartTime:      t0.Add(24 * time.Hour),
			IsPaused:       true,
			PauseStartTime: &pauseStart,
		},
	}

	events := []session.Event{
		{ID: "e0", SessionID: "s1", Type: session.EventStart, Timestamp: t0},
		pauseAt(t0.Add(10*time.Minute), "Bathroom Break"),
		resumeAt(t0.Add(15*time.Minute), 300),
		pauseAt(t0.Add(80*time.Minute), "Medical"),
		resumeAt(t0.Add(90*time.Minute), 600),
		pauseAt(pauseStart, "Medical"),
	}

	now := t0.Add(26*time.Hour + 20*time.Minute)

	got := Compute(sessions, events, now, WithLocation(time.UTC))

	want := Report{
		Sessions:           2,
		ActiveSessions:     1,
		PauseCount:         3,
		TotalElapsed:       7200 + 2*3600 + 1200,
		TotalEffectiveTime: 6300 + 7200,
		TotalPauseTime:     900 + 1200,
		AveragePause:       450,
		LongestPause:       1200,
		PausesByReason:     map[string]int{"Bathroom Break": 1, "Medical": 2},
		PausesByDay:        map[string]int{"2025-03-14": 2, "2025-03-15": 1},
		SuggestedCooldown:  int64((4 * time.Hour).Seconds()),
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Compute() mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []string{"2025-03-14", "2025-03-15"}, got.Days())
}

func TestComputeEmpty(t *testing.T) {
	got := Compute(nil, nil, t0)

	assert.Zero(t, got.Sessions)
	assert.Zero(t, got.AveragePause)
	assert.Empty(t, got.PausesByDay)
	assert.Equal(t, int64((3 * time.Hour).Seconds()), got.SuggestedCooldown)
}

func TestSuggestCooldown(t *testing.T) {
	base := 4 * time.Hour

	daily := func(perDay, days int) []session.Event {
		var events []session.Event

		for d := range days {
			for p := range perDay {
				ts := t0.Add(-time.Duration(d)*24*time.Hour - time.Duration(p)*time.Hour)
				events = append(events, pauseAt(ts, "Other"))
			}
		}

		return events
	}

	cases := []struct {
		name   string
		events []session.Event
		want   time.Duration
	}{
		{name: "no recent pauses", events: nil, want: 3 * time.Hour},
		{
			name:   "only old pauses",
			events: []session.Event{pauseAt(t0.Add(-30*24*time.Hour), "Other")},
			want:   3 * time.Hour,
		},
		{name: "one pause a day", events: daily(1, 7), want: base},
		{name: "three pauses a day", events: daily(3, 7), want: 6 * time.Hour},
		{name: "capped at twice the base", events: daily(12, 7), want: 8 * time.Hour},
		{
			name:   "resume events are ignored",
			events: []session.Event{resumeAt(t0.Add(-time.Hour), 60)},
			want:   3 * time.Hour,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SuggestCooldown(tc.events, base, t0))
		})
	}
}

func TestRender(t *testing.T) {
	r := Compute(nil, []session.Event{
		pauseAt(t0, "Emergency"),
		resumeAt(t0.Add(time.Minute), 60),
	}, t0.Add(time.Hour), WithLocation(time.UTC))

	var buf bytes.Buffer

	require.NoError(t, Render(&buf, &r))

	out := buf.String()
	assert.Contains(t, out, "Summary")
	assert.Contains(t, out, "Emergency")
	assert.Contains(t, out, "Pauses per day")
}
