package pause

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayoisaiah/steadfast/cooldown"
	"github.com/ayoisaiah/steadfast/internal/session"
	"github.com/ayoisaiah/steadfast/internal/testutil"
	"github.com/ayoisaiah/steadfast/store"
)

var t0 = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

type fixture struct {
	db    store.DB
	clock *testutil.Clock
	orch  *Orchestrator
}

func newFixture(t *testing.T, db store.DB) *fixture {
	t.Helper()

	if db == nil {
		db = store.NewMemoryStore()
	}

	c := testutil.NewClock(t0)
	logger := testutil.DiscardLogger()

	guard := cooldown.New(
		db,
		cooldown.DefaultCooldown,
		cooldown.WithClock(c.Now),
		cooldown.WithLogger(logger),
	)

	return &fixture{
		db:    db,
		clock: c,
		orch:  New(db, guard, WithClock(c.Now), WithLogger(logger)),
	}
}

func (f *fixture) start(t *testing.T) *session.Session {
	t.Helper()

	sess, err := f.orch.Start(context.Background(), StartOptions{UserID: "u1"})
	require.NoError(t, err)

	return sess
}

func TestEffectiveReason(t *testing.T) {
	cases := []struct {
		name    string
		reason  session.PauseReason
		custom  string
		want    string
		wantErr bool
	}{
		{name: "fixed reason", reason: session.ReasonMedical, want: "Medical"},
		{
			name:   "fixed reason ignores custom text",
			reason: session.ReasonWork,
			custom: "meeting",
			want:   "Work/Social",
		},
		{
			name:   "other with custom text",
			reason: session.ReasonOther,
			custom: "  fire drill ",
			want:   "fire drill",
		},
		{name: "other without custom text", reason: session.ReasonOther, wantErr: true},
		{
			name:    "other with blank custom text",
			reason:  session.ReasonOther,
			custom:  "   ",
			wantErr: true,
		},
		{name: "unknown reason", reason: "Nap", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := EffectiveReason(tc.reason, tc.custom)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestStart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	sess, err := f.orch.Start(ctx, StartOptions{
		UserID:         "u1",
		StartTime:      t0.Add(-time.Hour),
		IsHardcoreMode: true,
	})
	require.NoError(t, err)
	assert.Equal(t, session.Active, sess.State())
	assert.True(t, sess.StartTime.Equal(t0.Add(-time.Hour)))
	assert.True(t, sess.IsHardcoreMode)

	active, err := f.orch.ActiveSession(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, sess.ID, active.ID)

	events, err := f.orch.Events(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, session.EventStart, events[0].Type)

	_, err = f.orch.Start(ctx, StartOptions{UserID: "u1"})
	assert.ErrorIs(t, err, ErrSessionActive)

	_, err = f.orch.Start(ctx, StartOptions{UserID: " "})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.orch.Start(ctx, StartOptions{
		UserID:    "u2",
		StartTime: t0.Add(time.Minute),
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPauseResumeRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	sess := f.start(t)

	f.clock.Advance(30 * time.Minute)

	paused, err := f.orch.Pause(ctx, sess.ID, session.ReasonBathroom, "")
	require.NoError(t, err)
	assert.True(t, paused.IsPaused)
	require.NotNil(t, paused.PauseStartTime)
	assert.True(t, paused.PauseStartTime.Equal(t0.Add(30*time.Minute)))

	f.clock.Advance(10*time.Minute + 900*time.Millisecond)

	resumed, err := f.orch.Resume(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, resumed.IsPaused)
	assert.Nil(t, resumed.PauseStartTime)
	assert.Equal(t, int64(600), resumed.AccumulatedPauseTime)

	f.clock.Set(t0.Add(time.Hour))

	status, err := f.orch.PauseStatus(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, session.Active, status.State)
	assert.Equal(t, int64(600), status.AccumulatedPauseTime)
	assert.Equal(t, int64(3000), status.EffectiveTime)
	assert.Zero(t, status.CurrentPauseDuration)

	history, err := f.orch.PauseHistory(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, session.EventPause, history[0].Type)
	assert.Equal(t, "Bathroom Break", history[0].Reason)
	assert.Equal(t, session.EventResume, history[1].Type)
	assert.Equal(t, int64(600), history[1].PauseDuration)
}

func TestPauseOtherWithoutCustomReason(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	sess := f.start(t)

	_, err := f.orch.Pause(ctx, sess.ID, session.ReasonOther, "")
	assert.ErrorIs(t, err, ErrValidation)

	got, err := f.db.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPaused)

	events, err := f.orch.PauseHistory(ctx, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestPauseCustomReasonRecorded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	sess := f.start(t)

	_, err := f.orch.Pause(ctx, sess.ID, session.ReasonOther, "fire drill")
	require.NoError(t, err)

	history, err := f.orch.PauseHistory(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "fire drill", history[0].Reason)
}

func TestResumeNotPaused(t *testing.T) {
	f := newFixture(t, nil)
	sess := f.start(t)

	_, err := f.orch.Resume(context.Background(), sess.ID)
	assert.ErrorIs(t, err, ErrNotPaused)
}

func TestPreconditions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	sess := f.start(t)

	_, err := f.orch.Pause(ctx, "missing", session.ReasonBathroom, "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.orch.Resume(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.orch.PauseStatus(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.orch.PauseHistory(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.orch.Pause(ctx, sess.ID, session.ReasonBathroom, "")
	require.NoError(t, err)

	_, err = f.orch.Pause(ctx, sess.ID, session.ReasonBathroom, "")
	assert.ErrorIs(t, err, ErrAlreadyPaused)

	_, err = f.orch.End(ctx, sess.ID)
	require.NoError(t, err)

	_, err = f.orch.Pause(ctx, sess.ID, session.ReasonBathroom, "")
	assert.ErrorIs(t, err, ErrSessionEnded)

	_, err = f.orch.Resume(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionEnded)

	_, err = f.orch.End(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionEnded)
}

func TestPauseCooldown(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	sess := f.start(t)

	_, err := f.orch.Pause(ctx, sess.ID, session.ReasonEmergency, "")
	require.NoError(t, err)

	f.clock.Advance(5 * time.Minute)

	_, err = f.orch.Resume(ctx, sess.ID)
	require.NoError(t, err)

	f.clock.Set(t0.Add(time.Hour))

	_, err = f.orch.Pause(ctx, sess.ID, session.ReasonEmergency, "")
	require.ErrorIs(t, err, ErrCooldownActive)

	var cerr *CooldownError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, int64(10800), cerr.CooldownRemaining)
	assert.True(t, cerr.NextPauseAvailable.Equal(t0.Add(4*time.Hour)))

	status, err := f.orch.PauseStatus(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, status.Pause.CanPause)

	state, err := f.orch.CanUserPause(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, state.CanPause)

	f.clock.Set(t0.Add(4 * time.Hour))

	_, err = f.orch.Pause(ctx, sess.ID, session.ReasonEmergency, "")
	assert.NoError(t, err)
}

func TestEndClosesOpenPause(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	sess := f.start(t)

	f.clock.Advance(time.Hour)

	_, err := f.orch.Pause(ctx, sess.ID, session.ReasonMedical, "")
	require.NoError(t, err)

	f.clock.Advance(20 * time.Minute)

	ended, err := f.orch.End(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, session.Ended, ended.State())
	assert.False(t, ended.IsPaused)
	assert.Equal(t, int64(1200), ended.AccumulatedPauseTime)

	f.clock.Advance(10 * time.Hour)

	// effective time is frozen at the end of the session
	assert.Equal(t, int64(3600), session.EffectiveTime(ended, f.clock.Now()))

	events, err := f.orch.Events(ctx, sess.ID)
	require.NoError(t, err)

	var types []session.EventType
	for _, e := range events {
		types = append(types, e.Type)
	}

	assert.Equal(t, []session.EventType{
		session.EventStart,
		session.EventPause,
		session.EventResume,
		session.EventEnd,
	}, types)

	_, err = f.orch.ActiveSession(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	// a new session may start once the old one has ended
	_, err = f.orch.Start(ctx, StartOptions{UserID: "u1"})
	assert.NoError(t, err)

	sessions, err := f.orch.Sessions(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestAccumulatedPauseTimeNeverDecreases(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	sess := f.start(t)

	var last int64

	for i := range 5 {
		f.clock.Advance(4 * time.Hour)

		_, err := f.orch.Pause(ctx, sess.ID, session.ReasonWork, "")
		require.NoError(t, err)

		f.clock.Advance(time.Duration(i) * 90 * time.Second)

		resumed, err := f.orch.Resume(ctx, sess.ID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, resumed.AccumulatedPauseTime, last)
		assert.Equal(t, last+int64(i*90), resumed.AccumulatedPauseTime)

		last = resumed.AccumulatedPauseTime
	}
}

func TestResumeClockSkew(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	sess := f.start(t)

	f.clock.Advance(time.Hour)

	_, err := f.orch.Pause(ctx, sess.ID, session.ReasonBathroom, "")
	require.NoError(t, err)

	f.clock.Advance(-time.Minute)

	resumed, err := f.orch.Resume(ctx, sess.ID)
	require.NoError(t, err)
	assert.Zero(t, resumed.AccumulatedPauseTime)
}

// racingStore lets another writer update the session between the
// orchestrator's read and its write.
type racingStore struct {
	store.DB
	race func(ctx context.Context, id string)
}

func (r *racingStore) UpdateSession(
	ctx context.Context,
	id string,
	fn store.Mutation,
) (*session.Session, error) {
	if r.race != nil {
		race := r.race
		r.race = nil
		race(ctx, id)
	}

	return r.DB.UpdateSession(ctx, id, fn)
}

func TestConcurrentWriterRejected(t *testing.T) {
	ctx := context.Background()
	db := &racingStore{DB: store.NewMemoryStore()}
	f := newFixture(t, db)
	sess := f.start(t)

	other := newFixture(t, db.DB)
	other.clock.Set(f.clock.Now())

	db.race = func(ctx context.Context, id string) {
		_, err := other.orch.Pause(ctx, id, session.ReasonMedical, "")
		require.NoError(t, err)
	}

	_, err := f.orch.Pause(ctx, sess.ID, session.ReasonBathroom, "")
	assert.ErrorIs(t, err, ErrConflict)

	history, err := f.orch.PauseHistory(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Medical", history[0].Reason)
}

type brokenStore struct {
	store.DB
}

var errDisk = errors.New("disk on fire")

func (brokenStore) GetSession(context.Context, string) (*session.Session, error) {
	return nil, errDisk
}

func TestStorageErrorReturnedUnchanged(t *testing.T) {
	f := newFixture(t, brokenStore{DB: store.NewMemoryStore()})

	_, err := f.orch.Pause(context.Background(), "s1", session.ReasonBathroom, "")
	assert.Equal(t, errDisk, err)

	_, err = f.orch.Resume(context.Background(), "s1")
	assert.Equal(t, errDisk, err)
}
