package store

import (
	"bytes"
	"encoding/binary"
	"encoding/json"

	bolt "go.etcd.io/bbolt"

	"github.com/ayoisaiah/steadfast/internal/session"
)

const schemaVersion uint64 = 2

var schemaKey = []byte("schema_version")

// rebuildActive recreates the user -> active session index from the stored
// sessions.
func rebuildActive(tx *bolt.Tx) error {
	err := tx.DeleteBucket(activeBucket)
	if err != nil {
		return err
	}

	active, err := tx.CreateBucket(activeBucket)
	if err != nil {
		return err
	}

	return tx.Bucket(sessionBucket).ForEach(func(k, v []byte) error {
		var sess session.Session

		err := json.Unmarshal(v, &sess)
		if err != nil {
			return err
		}

		if sess.Ended() {
			return nil
		}

		return active.Put([]byte(sess.UserID), k)
	})
}

// rebuildLatest recreates the latest event pointers from the event log.
func rebuildLatest(tx *bolt.Tx) error {
	err := tx.DeleteBucket(latestBucket)
	if err != nil {
		return err
	}

	_, err = tx.CreateBucket(latestBucket)
	if err != nil {
		return err
	}

	events := tx.Bucket(eventBucket)

	return events.ForEachBucket(func(sessionID []byte) error {
		cur := events.Bucket(sessionID).Cursor()

		for k, v := cur.First(); k != nil; k, v = cur.Next() {
			var e session.Event

			err := json.Unmarshal(v, &e)
			if err != nil {
				return err
			}

			err = updateLatest(tx, string(sessionID), e.Type, bytes.Clone(k))
			if err != nil {
				return err
			}
		}

		return nil
	})
}

// migrate brings the indexes of an older database up to the current schema.
// Version 1 databases had no latest event pointers.
func migrate(tx *bolt.Tx) error {
	meta := tx.Bucket(metaBucket)

	var current uint64
	if v := meta.Get(schemaKey); len(v) == 8 {
		current = binary.BigEndian.Uint64(v)
	}

	if current >= schemaVersion {
		return nil
	}

	err := rebuildActive(tx)
	if err != nil {
		return err
	}

	err = rebuildLatest(tx)
	if err != nil {
		return err
	}

	v := make([]byte, 8)
	binary.BigEndian.PutUint64(v, schemaVersion)

	return meta.Put(schemaKey, v)
}
