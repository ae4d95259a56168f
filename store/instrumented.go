package store

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ayoisaiah/steadfast/internal/session"
)

var (
	storeOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steadfast_store_ops_total",
			Help: "Total store operations",
		},
		[]string{"backend", "op", "result"}, // result=success/error
	)
	storeLat = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "steadfast_store_op_seconds",
			Help:    "Store operation latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "op"},
	)
)

// instrumentedStore wraps any DB to capture metrics.
type instrumentedStore struct {
	inner   DB
	backend string
}

// NewInstrumented wraps inner so that every call is counted and timed under
// the given backend label.
func NewInstrumented(inner DB, backend string) DB {
	return &instrumentedStore{inner: inner, backend: backend}
}

func (i *instrumentedStore) observe(op string, start time.Time, err error) {
	dur := time.Since(start).Seconds()

	res := "success"
	if err != nil {
		res = "error"
	}

	storeOps.WithLabelValues(i.backend, op, res).Inc()
	storeLat.WithLabelValues(i.backend, op).Observe(dur)
}

func (i *instrumentedStore) CreateSession(
	ctx context.Context,
	sess *session.Session,
	events ...session.Event,
) (err error) {
	start := time.Now()
	defer func() { i.observe("create_session", start, err) }()

	return i.inner.CreateSession(ctx, sess, events...)
}

func (i *instrumentedStore) GetSession(
	ctx context.Context,
	id string,
) (sess *session.Session, err error) {
	start := time.Now()
	defer func() { i.observe("get_session", start, err) }()

	return i.inner.GetSession(ctx, id)
}

func (i *instrumentedStore) GetActiveSession(
	ctx context.Context,
	userID string,
) (sess *session.Session, err error) {
	start := time.Now()
	defer func() { i.observe("get_active_session", start, err) }()

	return i.inner.GetActiveSession(ctx, userID)
}

func (i *instrumentedStore) ListSessions(
	ctx context.Context,
	userID string,
) (list []*session.Session, err error) {
	start := time.Now()
	defer func() { i.observe("list_sessions", start, err) }()

	return i.inner.ListSessions(ctx, userID)
}

func (i *instrumentedStore) UpdateSession(
	ctx context.Context,
	id string,
	fn Mutation,
) (sess *session.Session, err error) {
	start := time.Now()
	defer func() { i.observe("update_session", start, err) }()

	return i.inner.UpdateSession(ctx, id, fn)
}

func (i *instrumentedStore) QueryEvents(
	ctx context.Context,
	sessionID string,
	types ...session.EventType,
) (events []session.Event, err error) {
	start := time.Now()
	defer func() { i.observe("query_events", start, err) }()

	return i.inner.QueryEvents(ctx, sessionID, types...)
}

func (i *instrumentedStore) LastEvent(
	ctx context.Context,
	sessionID string,
	typ session.EventType,
) (event *session.Event, err error) {
	start := time.Now()
	defer func() { i.observe("last_event", start, err) }()

	return i.inner.LastEvent(ctx, sessionID, typ)
}

func (i *instrumentedStore) AppendEvent(
	ctx context.Context,
	event session.Event,
) (err error) {
	start := time.Now()
	defer func() { i.observe("append_event", start, err) }()

	return i.inner.AppendEvent(ctx, event)
}

func (i *instrumentedStore) Close() error {
	return i.inner.Close()
}
