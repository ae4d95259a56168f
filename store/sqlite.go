package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go driver

	"github.com/ayoisaiah/steadfast/internal/session"
)

const sqliteSchemaVersion = 1

const sessionColumns = `id, user_id, start_time_ns, end_time_ns, is_paused,
	pause_start_ns, accumulated_pause, is_hardcore, keyholder_required, version`

const eventColumns = `id, session_id, user_id, type, ts_ns, reason,
	pause_duration`

// SqliteStore implements DB using SQLite.
type SqliteStore struct {
	DB *sql.DB
}

// openSQLite initializes a SQLite connection pool. Write transactions take
// the database lock up front so that a read-then-write never fails halfway
// with SQLITE_BUSY.
func openSQLite(dbPath string) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_txlock=immediate",
		dbPath,
		(5 * time.Second).Milliseconds(),
	)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open failed: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping failed: %w", err)
	}

	return db, nil
}

// NewSqliteStore initializes a new SQLite session store.
func NewSqliteStore(dbPath string) (*SqliteStore, error) {
	db, err := openSQLite(dbPath)
	if err != nil {
		return nil, err
	}

	s := &SqliteStore{DB: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("session store: migration failed: %w", err)
	}

	return s, nil
}

func (s *SqliteStore) Close() error {
	return s.DB.Close()
}

func (s *SqliteStore) migrate() error {
	var currentVersion int

	err := s.DB.QueryRow("PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return err
	}

	if currentVersion >= sqliteSchemaVersion {
		return nil
	}

	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		start_time_ns INTEGER NOT NULL,
		end_time_ns INTEGER,
		is_paused INTEGER NOT NULL,
		pause_start_ns INTEGER,
		accumulated_pause INTEGER NOT NULL CHECK (accumulated_pause >= 0),
		is_hardcore INTEGER NOT NULL,
		keyholder_required INTEGER NOT NULL,
		version INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id, start_time_ns);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_active ON sessions(user_id) WHERE end_time_ns IS NULL;

	CREATE TABLE IF NOT EXISTS events (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		session_id TEXT NOT NULL REFERENCES sessions(id),
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		ts_ns INTEGER NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		pause_duration INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_events_session_type_ts ON events(session_id, type, ts_ns, seq);
	CREATE INDEX IF NOT EXISTS idx_events_session_ts ON events(session_id, ts_ns, seq);
	`

	if _, err := tx.Exec(schema); err != nil {
		return err
	}

	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", sqliteSchemaVersion)); err != nil {
		return err
	}

	return tx.Commit()
}

// --- Session CRUD ---

func (s *SqliteStore) CreateSession(
	ctx context.Context,
	sess *session.Session,
	events ...session.Event,
) error {
	if err := checkNew(sess); err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if !sess.Ended() {
		var activeID string

		err = tx.QueryRowContext(ctx,
			"SELECT id FROM sessions WHERE user_id = ? AND end_time_ns IS NULL",
			sess.UserID,
		).Scan(&activeID)

		switch {
		case err == nil:
			return ErrActiveExists
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}
	}

	sess.Version = 1

	_, err = tx.ExecContext(ctx,
		"INSERT INTO sessions ("+sessionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		sess.ID, sess.UserID, sess.StartTime.UnixNano(), nullTime(sess.EndTime),
		sess.IsPaused, nullTime(sess.PauseStartTime), sess.AccumulatedPauseTime,
		sess.IsHardcoreMode, sess.KeyholderApprovalRequired, sess.Version,
	)
	if err != nil {
		return err
	}

	for i := range events {
		if err := insertEvent(ctx, tx, &events[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SqliteStore) GetSession(
	ctx context.Context,
	id string,
) (*session.Session, error) {
	return scanSession(s.DB.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE id = ?", id,
	), id)
}

func (s *SqliteStore) GetActiveSession(
	ctx context.Context,
	userID string,
) (*session.Session, error) {
	return scanSession(s.DB.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE user_id = ? AND end_time_ns IS NULL",
		userID,
	), "active session for "+userID)
}

func (s *SqliteStore) ListSessions(
	ctx context.Context,
	userID string,
) ([]*session.Session, error) {
	rows, err := s.DB.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE user_id = ? ORDER BY start_time_ns DESC",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*session.Session

	for rows.Next() {
		sess, err := scanSession(rows, "")
		if err != nil {
			return nil, err
		}

		sessions = append(sessions, sess)
	}

	return sessions, rows.Err()
}

func (s *SqliteStore) UpdateSession(
	ctx context.Context,
	id string,
	fn Mutation,
) (*session.Session, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	prev, err := scanSession(tx.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE id = ?", id,
	), id)
	if err != nil {
		return nil, err
	}

	next := prev.Clone()

	events, err := fn(next)
	if err != nil {
		return nil, err
	}

	if err := checkTransition(prev, next); err != nil {
		return nil, err
	}

	next.Version = prev.Version + 1

	res, err := tx.ExecContext(ctx, `
		UPDATE sessions SET
			end_time_ns = ?, is_paused = ?, pause_start_ns = ?,
			accumulated_pause = ?, is_hardcore = ?, keyholder_required = ?,
			version = ?
		WHERE id = ? AND version = ?
		`,
		nullTime(next.EndTime), next.IsPaused, nullTime(next.PauseStartTime),
		next.AccumulatedPauseTime, next.IsHardcoreMode,
		next.KeyholderApprovalRequired, next.Version,
		id, prev.Version,
	)
	if err != nil {
		return nil, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}

	if n == 0 {
		return nil, ErrConflict
	}

	for i := range events {
		if err := insertEvent(ctx, tx, &events[i]); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return next, nil
}

// --- Event log ---

func (s *SqliteStore) QueryEvents(
	ctx context.Context,
	sessionID string,
	types ...session.EventType,
) ([]session.Event, error) {
	query := "SELECT " + eventColumns + " FROM events WHERE session_id = ?"
	args := []any{sessionID}

	if len(types) > 0 {
		query += " AND type IN (?" + strings.Repeat(", ?", len(types)-1) + ")"

		for _, t := range types {
			args = append(args, string(t))
		}
	}

	query += " ORDER BY ts_ns, seq"

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []session.Event

	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}

		events = append(events, *e)
	}

	return events, rows.Err()
}

func (s *SqliteStore) LastEvent(
	ctx context.Context,
	sessionID string,
	typ session.EventType,
) (*session.Event, error) {
	e, err := scanEvent(s.DB.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE session_id = ? AND type = ? ORDER BY ts_ns DESC, seq DESC LIMIT 1",
		sessionID, string(typ),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	return e, err
}

func (s *SqliteStore) AppendEvent(
	ctx context.Context,
	event session.Event,
) error {
	_, err := s.UpdateSession(ctx, event.SessionID, appendOnly(event))

	return err
}

func insertEvent(ctx context.Context, tx *sql.Tx, e *session.Event) error {
	if err := checkEvent(e); err != nil {
		return err
	}

	_, err := tx.ExecContext(ctx,
		"INSERT INTO events ("+eventColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		e.ID, e.SessionID, e.UserID, string(e.Type), e.Timestamp.UnixNano(),
		e.Reason, e.PauseDuration,
	)

	return err
}

// --- Helpers ---

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner, id string) (*session.Session, error) {
	var (
		sess       session.Session
		startNs    int64
		endNs      sql.NullInt64
		pauseNs    sql.NullInt64
		isPaused   bool
		isHardcore bool
		keyholder  bool
	)

	err := row.Scan(
		&sess.ID, &sess.UserID, &startNs, &endNs, &isPaused, &pauseNs,
		&sess.AccumulatedPauseTime, &isHardcore, &keyholder, &sess.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}

	if err != nil {
		return nil, err
	}

	sess.StartTime = time.Unix(0, startNs).UTC()
	sess.EndTime = fromNull(endNs)
	sess.PauseStartTime = fromNull(pauseNs)
	sess.IsPaused = isPaused
	sess.IsHardcoreMode = isHardcore
	sess.KeyholderApprovalRequired = keyholder

	return &sess, nil
}

func scanEvent(row scanner) (*session.Event, error) {
	var (
		e    session.Event
		typ  string
		tsNs int64
	)

	err := row.Scan(
		&e.ID, &e.SessionID, &e.UserID, &typ, &tsNs, &e.Reason,
		&e.PauseDuration,
	)
	if err != nil {
		return nil, err
	}

	e.Type = session.EventType(typ)
	e.Timestamp = time.Unix(0, tsNs).UTC()

	return &e, nil
}

func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}

	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func fromNull(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}

	t := time.Unix(0, n.Int64).UTC()

	return &t
}
