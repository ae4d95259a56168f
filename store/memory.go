package store

import (
	"context"
	"slices"
	"sync"

	"github.com/ayoisaiah/steadfast/internal/session"
)

// MemoryStore keeps sessions and events in process memory. It is used in
// tests and for throwaway runs.
type MemoryStore struct {
	sessions map[string]*session.Session
	active   map[string]string
	events   map[string][]session.Event
	mu       sync.RWMutex
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*session.Session),
		active:   make(map[string]string),
		events:   make(map[string][]session.Event),
	}
}

func (m *MemoryStore) CreateSession(
	ctx context.Context,
	sess *session.Session,
	events ...session.Event,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := checkNew(sess); err != nil {
		return err
	}

	for i := range events {
		if err := checkEvent(&events[i]); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sess.ID]; ok {
		return ErrInvariant.Fmt("duplicate session id " + sess.ID)
	}

	if id, ok := m.active[sess.UserID]; ok && !sess.Ended() {
		if active := m.sessions[id]; active != nil && !active.Ended() {
			return ErrActiveExists
		}
	}

	sess.Version = 1

	m.sessions[sess.ID] = sess.Clone()
	if !sess.Ended() {
		m.active[sess.UserID] = sess.ID
	}

	m.events[sess.ID] = append(m.events[sess.ID], events...)

	return nil
}

func (m *MemoryStore) GetSession(
	ctx context.Context,
	id string,
) (*session.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, notFound(id)
	}

	return sess.Clone(), nil
}

func (m *MemoryStore) GetActiveSession(
	ctx context.Context,
	userID string,
) (*session.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.active[userID]
	if !ok {
		return nil, notFound("active session for " + userID)
	}

	sess := m.sessions[id]
	if sess == nil || sess.Ended() {
		return nil, notFound("active session for " + userID)
	}

	return sess.Clone(), nil
}

func (m *MemoryStore) ListSessions(
	ctx context.Context,
	userID string,
) ([]*session.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var sessions []*session.Session

	for _, sess := range m.sessions {
		if sess.UserID == userID {
			sessions = append(sessions, sess.Clone())
		}
	}

	sortSessions(sessions)

	return sessions, nil
}

func (m *MemoryStore) UpdateSession(
	ctx context.Context,
	id string,
	fn Mutation,
) (*session.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	prev, ok := m.sessions[id]
	if !ok {
		return nil, notFound(id)
	}

	next := prev.Clone()

	events, err := fn(next)
	if err != nil {
		return nil, err
	}

	err = checkTransition(prev, next)
	if err != nil {
		return nil, err
	}

	for i := range events {
		if err := checkEvent(&events[i]); err != nil {
			return nil, err
		}
	}

	next.Version = prev.Version + 1

	m.sessions[id] = next.Clone()

	if next.Ended() && m.active[next.UserID] == next.ID {
		delete(m.active, next.UserID)
	}

	m.events[id] = append(m.events[id], events...)

	return next, nil
}

func (m *MemoryStore) QueryEvents(
	ctx context.Context,
	sessionID string,
	types ...session.EventType,
) ([]session.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var events []session.Event

	for _, e := range m.events[sessionID] {
		if len(types) == 0 || slices.Contains(types, e.Type) {
			events = append(events, e)
		}
	}

	sortEvents(events)

	return events, nil
}

func (m *MemoryStore) LastEvent(
	ctx context.Context,
	sessionID string,
	typ session.EventType,
) (*session.Event, error) {
	events, err := m.QueryEvents(ctx, sessionID, typ)
	if err != nil {
		return nil, err
	}

	if len(events) == 0 {
		return nil, nil
	}

	last := events[len(events)-1]

	return &last, nil
}

func (m *MemoryStore) AppendEvent(
	ctx context.Context,
	event session.Event,
) error {
	_, err := m.UpdateSession(ctx, event.SessionID, appendOnly(event))

	return err
}

func (m *MemoryStore) Close() error {
	return nil
}
