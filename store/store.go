// Package store connects to the data store and manages sessions and their
// event log
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/ayoisaiah/steadfast/internal/apperr"
	"github.com/ayoisaiah/steadfast/internal/session"
	"github.com/ayoisaiah/steadfast/internal/timeutil"
)

var (
	sessionBucket = []byte("sessions")
	// activeBucket maps a user id to the id of their session that has not
	// ended.
	activeBucket = []byte("active")
	// eventBucket holds one nested bucket per session keyed by timestamp and
	// sequence number.
	eventBucket = []byte("events")
	// latestBucket holds, per session, the key of the most recent event of
	// each type.
	latestBucket = []byte("latest")
	metaBucket   = []byte("meta")
)

var errStoreLocked = &apperr.Error{
	Message: "is steadfast already running? Only one instance can use the database at a time",
}

// Client is a BoltDB database client.
type Client struct {
	*bolt.DB
}

func (c *Client) CreateSession(
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

	return c.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(sessionBucket).Get([]byte(sess.ID)) != nil {
			return ErrInvariant.Fmt("duplicate session id " + sess.ID)
		}

		if !sess.Ended() {
			activeID := tx.Bucket(activeBucket).Get([]byte(sess.UserID))
			if activeID != nil {
				active, err := getSession(tx, string(activeID))
				if err == nil && !active.Ended() {
					return ErrActiveExists
				}
			}
		}

		sess.Version = 1

		err := putSession(tx, sess)
		if err != nil {
			return err
		}

		for i := range events {
			err = appendEvent(tx, &events[i])
			if err != nil {
				return err
			}
		}

		return nil
	})
}

func (c *Client) GetSession(
	ctx context.Context,
	id string,
) (*session.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var sess *session.Session

	err := c.View(func(tx *bolt.Tx) error {
		var err error

		sess, err = getSession(tx, id)

		return err
	})

	return sess, err
}

func (c *Client) GetActiveSession(
	ctx context.Context,
	userID string,
) (*session.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var sess *session.Session

	err := c.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(activeBucket).Get([]byte(userID))
		if id == nil {
			return notFound("active session for " + userID)
		}

		var err error

		sess, err = getSession(tx, string(id))
		if err != nil {
			return err
		}

		if sess.Ended() {
			return notFound("active session for " + userID)
		}

		return nil
	})

	return sess, err
}

func (c *Client) ListSessions(
	ctx context.Context,
	userID string,
) ([]*session.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var sessions []*session.Session

	err := c.View(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).ForEach(func(_, v []byte) error {
			var sess session.Session

			err := json.Unmarshal(v, &sess)
			if err != nil {
				return err
			}

			if sess.UserID == userID {
				sessions = append(sessions, &sess)
			}

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sortSessions(sessions)

	return sessions, nil
}

func (c *Client) UpdateSession(
	ctx context.Context,
	id string,
	fn Mutation,
) (*session.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var next *session.Session

	err := c.Update(func(tx *bolt.Tx) error {
		prev, err := getSession(tx, id)
		if err != nil {
			return err
		}

		next = prev.Clone()

		events, err := fn(next)
		if err != nil {
			return err
		}

		err = checkTransition(prev, next)
		if err != nil {
			return err
		}

		next.Version = prev.Version + 1

		err = putSession(tx, next)
		if err != nil {
			return err
		}

		if next.Ended() {
			active := tx.Bucket(activeBucket)
			if bytes.Equal(active.Get([]byte(next.UserID)), []byte(next.ID)) {
				err = active.Delete([]byte(next.UserID))
				if err != nil {
					return err
				}
			}
		}

		for i := range events {
			err = appendEvent(tx, &events[i])
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return next, nil
}

func (c *Client) QueryEvents(
	ctx context.Context,
	sessionID string,
	types ...session.EventType,
) ([]session.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var events []session.Event

	err := c.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(eventBucket).Bucket([]byte(sessionID))
		if b == nil {
			return nil
		}

		// keys are ordered by timestamp, then by append sequence
		return b.ForEach(func(_, v []byte) error {
			var e session.Event

			err := json.Unmarshal(v, &e)
			if err != nil {
				return err
			}

			if len(types) == 0 || slices.Contains(types, e.Type) {
				events = append(events, e)
			}

			return nil
		})
	})

	return events, err
}

func (c *Client) LastEvent(
	ctx context.Context,
	sessionID string,
	typ session.EventType,
) (*session.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var event *session.Event

	err := c.View(func(tx *bolt.Tx) error {
		latest := tx.Bucket(latestBucket).Bucket([]byte(sessionID))
		if latest == nil {
			return nil
		}

		key := latest.Get([]byte(typ))
		if key == nil {
			return nil
		}

		v := tx.Bucket(eventBucket).Bucket([]byte(sessionID)).Get(key)
		if v == nil {
			return ErrInvariant.Fmt("dangling latest " + string(typ) + " pointer")
		}

		event = &session.Event{}

		return json.Unmarshal(v, event)
	})
	if err != nil {
		return nil, err
	}

	return event, nil
}

func (c *Client) AppendEvent(ctx context.Context, event session.Event) error {
	_, err := c.UpdateSession(ctx, event.SessionID, appendOnly(event))

	return err
}

func getSession(tx *bolt.Tx, id string) (*session.Session, error) {
	v := tx.Bucket(sessionBucket).Get([]byte(id))
	if v == nil {
		return nil, notFound(id)
	}

	var sess session.Session

	err := json.Unmarshal(v, &sess)
	if err != nil {
		return nil, err
	}

	return &sess, nil
}

func putSession(tx *bolt.Tx, sess *session.Session) error {
	value, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	err = tx.Bucket(sessionBucket).Put([]byte(sess.ID), value)
	if err != nil {
		return err
	}

	if sess.Ended() {
		return nil
	}

	return tx.Bucket(activeBucket).Put([]byte(sess.UserID), []byte(sess.ID))
}

// eventKey orders events by timestamp and breaks ties with the bucket
// sequence so that events written in the same instant keep their order.
func eventKey(ts time.Time, seq uint64) []byte {
	return fmt.Appendf(timeutil.ToKey(ts), "-%020d", seq)
}

func appendEvent(tx *bolt.Tx, e *session.Event) error {
	err := checkEvent(e)
	if err != nil {
		return err
	}

	b, err := tx.Bucket(eventBucket).CreateBucketIfNotExists([]byte(e.SessionID))
	if err != nil {
		return err
	}

	seq, err := b.NextSequence()
	if err != nil {
		return err
	}

	key := eventKey(e.Timestamp, seq)

	value, err := json.Marshal(e)
	if err != nil {
		return err
	}

	err = b.Put(key, value)
	if err != nil {
		return err
	}

	return updateLatest(tx, e.SessionID, e.Type, key)
}

// updateLatest moves the latest pointer for typ forward if key sorts after
// the current one. An event with a skewed older timestamp never becomes the
// latest.
func updateLatest(
	tx *bolt.Tx,
	sessionID string,
	typ session.EventType,
	key []byte,
) error {
	latest, err := tx.Bucket(latestBucket).
		CreateBucketIfNotExists([]byte(sessionID))
	if err != nil {
		return err
	}

	current := latest.Get([]byte(typ))
	if current != nil && bytes.Compare(key, current) <= 0 {
		return nil
	}

	return latest.Put([]byte(typ), key)
}

// openDB creates or opens a database and locks it.
func openDB(pathToDB string) (*bolt.DB, error) {
	var fileMode fs.FileMode = 0o600

	db, err := bolt.Open(
		pathToDB,
		fileMode,
		&bolt.Options{Timeout: 1 * time.Second},
	)
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, errStoreLocked
		}

		return nil, err
	}

	return db, nil
}

// NewClient returns a wrapper to a BoltDB connection.
func NewClient(dbPath string) (*Client, error) {
	db, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}

	// Create the necessary buckets for storing data if they do not exist
	// already, then bring older databases up to date
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{
			sessionBucket,
			activeBucket,
			eventBucket,
			latestBucket,
			metaBucket,
		} {
			_, err = tx.CreateBucketIfNotExists(name)
			if err != nil {
				return err
			}
		}

		return migrate(tx)
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Client{
		db,
	}, nil
}
