package app

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayoisaiah/steadfast/internal/config"
	"github.com/ayoisaiah/steadfast/internal/session"
	"github.com/ayoisaiah/steadfast/pause"
	"github.com/ayoisaiah/steadfast/stats"
)

var t0 = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

type harness struct {
	t       *testing.T
	cfgPath string
	dbPath  string
	user    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	dir := t.TempDir()

	h := &harness{
		t:       t,
		cfgPath: filepath.Join(dir, "config.yml"),
		dbPath:  filepath.Join(dir, "steadfast.db"),
		user:    "alice",
	}

	// an existing config file keeps the first-run prompt from showing
	err := os.WriteFile(h.cfgPath, []byte("store:\n  backend: bolt\n"), 0o600)
	require.NoError(t, err)

	t.Setenv("STEADFAST_LOG_PATH", filepath.Join(dir, "log", "steadfast.log"))

	origNow, origStdout := now, config.Stdout

	t.Cleanup(func() {
		now = origNow
		config.Stdout = origStdout
	})

	disableStyling()

	return h
}

func (h *harness) at(ts time.Time) {
	now = func() time.Time { return ts }
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()

	var buf bytes.Buffer

	config.Stdout = &buf

	argv := append([]string{
		"steadfast",
		"--config", h.cfgPath,
		"--db", h.dbPath,
		"--user", h.user,
	}, args...)

	err := Get().Run(argv)

	return buf.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()

	out, err := h.run(args...)
	require.NoError(h.t, err, "steadfast %v", args)

	return out
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()

	var v T

	require.NoError(t, json.Unmarshal([]byte(out), &v), out)

	return v
}

func TestSessionLifecycle(t *testing.T) {
	h := newHarness(t)

	h.at(t0)
	h.mustRun("start", "--hardcore")

	h.at(t0.Add(time.Hour))
	h.mustRun("pause", "--reason", "Emergency")

	h.at(t0.Add(70 * time.Minute))
	out := h.mustRun("resume")
	assert.Contains(t, out, "10m00s")

	h.at(t0.Add(2 * time.Hour))
	st := decode[statusOutput](t, h.mustRun("status", "--json"))

	assert.Equal(t, session.Active, st.State)
	assert.Equal(t, int64(600), st.AccumulatedPauseTime)
	assert.Equal(t, int64(6600), st.EffectiveTime)
	assert.True(t, st.Session.IsHardcoreMode)
	assert.False(t, st.Pause.CanPause)
	assert.Equal(t, int64(3*3600), st.Pause.CooldownRemaining)
	assert.Nil(t, st.Goal)

	_, err := h.run("pause", "--reason", "Medical")
	require.ErrorIs(t, err, pause.ErrCooldownActive)

	history := decode[[]session.Event](t, h.mustRun("history", "--json"))
	require.Len(t, history, 2)
	assert.Equal(t, session.EventPause, history[0].Type)
	assert.Equal(t, "Emergency", history[0].Reason)
	assert.Equal(t, session.EventResume, history[1].Type)
	assert.Equal(t, int64(600), history[1].PauseDuration)

	h.at(t0.Add(3 * time.Hour))
	h.mustRun("end")

	_, err = h.run("status")
	require.ErrorIs(t, err, errNoActiveSession)

	sessions := decode[[]*session.Session](t, h.mustRun("list", "--json"))
	require.Len(t, sessions, 1)
	require.NotNil(t, sessions[0].EndTime)
	assert.True(t, sessions[0].EndTime.Equal(t0.Add(3*time.Hour)))
}

func TestStatusGoal(t *testing.T) {
	h := newHarness(t)

	h.at(t0)
	h.mustRun("start")

	h.at(t0.Add(90 * time.Minute))
	st := decode[statusOutput](t, h.mustRun("status", "--json", "--goal", "--target", "3h"))

	require.NotNil(t, st.Goal)
	assert.Equal(t, int64(3*3600), st.Goal.TargetValue)
	assert.Equal(t, int64(5400), st.Goal.CurrentValue)
	assert.InDelta(t, 50.0, st.Goal.Progress, 0.001)
	assert.Equal(t, int64(5400), st.Goal.Remaining)
	assert.False(t, st.Goal.IsCompleted)
}

func TestStatusTargetImpliesGoal(t *testing.T) {
	h := newHarness(t)

	h.at(t0)
	h.mustRun("start")

	h.at(t0.Add(time.Hour))
	st := decode[statusOutput](t, h.mustRun("status", "--json", "--target", "2h"))

	require.NotNil(t, st.Goal)
	assert.Equal(t, int64(2*3600), st.Goal.TargetValue)
	assert.InDelta(t, 50.0, st.Goal.Progress, 0.001)
}

func TestCooldownCannotBeShortened(t *testing.T) {
	h := newHarness(t)

	h.at(t0)
	h.mustRun("start")

	h.at(t0.Add(time.Hour))
	h.mustRun("pause", "--reason", "Emergency")

	h.at(t0.Add(time.Hour + time.Minute))
	h.mustRun("resume")

	h.at(t0.Add(time.Hour + 2*time.Minute))

	_, err := h.run("--cooldown", "1m", "pause", "--reason", "Emergency")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cooldown")

	t.Setenv("STEADFAST_PAUSE_COOLDOWN", "1m")

	_, err = h.run("pause", "--reason", "Emergency")
	require.ErrorIs(t, err, pause.ErrCooldownActive)

	var cooldownErr *pause.CooldownError

	require.ErrorAs(t, err, &cooldownErr)
	assert.Equal(t, int64(4*3600-2*60), cooldownErr.CooldownRemaining)
}

func TestStartSince(t *testing.T) {
	h := newHarness(t)

	h.at(t0)
	h.mustRun("start", "--since", "2 hours ago")

	st := decode[statusOutput](t, h.mustRun("status", "--json"))
	assert.InDelta(t, 7200, st.EffectiveTime, 60)
}

func TestStartTwice(t *testing.T) {
	h := newHarness(t)

	h.at(t0)
	h.mustRun("start")

	_, err := h.run("start")
	require.ErrorIs(t, err, pause.ErrSessionActive)
}

func TestPauseOtherNeedsNote(t *testing.T) {
	h := newHarness(t)

	h.at(t0)
	h.mustRun("start")

	h.at(t0.Add(time.Hour))

	_, err := h.run("pause", "--reason", "Other")
	require.ErrorIs(t, err, pause.ErrValidation)

	h.mustRun("pause", "--reason", "Other", "--note", "fire drill")

	history := decode[[]session.Event](t, h.mustRun("history", "--json"))
	require.Len(t, history, 1)
	assert.Equal(t, "fire drill", history[0].Reason)
}

func TestResumeWhenNotPaused(t *testing.T) {
	h := newHarness(t)

	h.at(t0)
	h.mustRun("start")

	_, err := h.run("resume")
	require.ErrorIs(t, err, pause.ErrNotPaused)
}

func TestUsersAreIsolated(t *testing.T) {
	h := newHarness(t)

	h.at(t0)
	h.mustRun("start")

	h.user = "bob"

	_, err := h.run("pause", "--reason", "Emergency")
	require.ErrorIs(t, err, errNoActiveSession)

	sessions := decode[[]*session.Session](t, h.mustRun("list", "--json"))
	assert.Empty(t, sessions)
}

func TestStatsCommand(t *testing.T) {
	h := newHarness(t)

	h.at(t0)
	h.mustRun("start")

	h.at(t0.Add(time.Hour))
	h.mustRun("pause", "--reason", "Bathroom Break")

	h.at(t0.Add(time.Hour + 5*time.Minute))
	h.mustRun("resume")

	report := decode[stats.Report](t, h.mustRun("stats", "--json"))

	assert.Equal(t, 1, report.Sessions)
	assert.Equal(t, 1, report.ActiveSessions)
	assert.Equal(t, 1, report.PauseCount)
	assert.Equal(t, int64(300), report.TotalPauseTime)
	assert.Equal(t, 1, report.PausesByReason["Bathroom Break"])

	out := h.mustRun("stats")
	assert.Contains(t, out, "Bathroom Break")
}

func TestListEmpty(t *testing.T) {
	h := newHarness(t)

	h.at(t0)

	out := h.mustRun("list")
	assert.Contains(t, out, noSessionsMsg)
}

func TestPauseReason(t *testing.T) {
	_, err := pauseReason("", "", false)
	require.ErrorIs(t, err, errReasonRequired)

	choice, err := pauseReason("medical", "", false)
	require.NoError(t, err)
	assert.Equal(t, session.ReasonMedical, choice.reason)

	choice, err = pauseReason("Nap", "", false)
	require.NoError(t, err)
	assert.Equal(t, session.PauseReason("Nap"), choice.reason)
}

func TestFirstNonEmptyString(t *testing.T) {
	assert.Equal(t, "vim", firstNonEmptyString("", "vim", "nano"))
	assert.Equal(t, "", firstNonEmptyString("", ""))
}
