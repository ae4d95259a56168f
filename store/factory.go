package store

import (
	"github.com/ayoisaiah/steadfast/internal/apperr"
)

// Supported storage backends.
const (
	BackendBolt   = "bolt"
	BackendSqlite = "sqlite"
	BackendMemory = "memory"
)

var errUnknownBackend = &apperr.Error{
	Message: "unknown store backend: %s",
}

// Open creates a DB for the configured backend. An empty backend selects
// bolt. The returned store is instrumented.
func Open(backend, path string) (DB, error) {
	if backend == "" {
		backend = BackendBolt
	}

	var (
		db  DB
		err error
	)

	switch backend {
	case BackendMemory:
		db = NewMemoryStore()
	case BackendBolt:
		db, err = NewClient(path)
	case BackendSqlite:
		db, err = NewSqliteStore(path)
	default:
		return nil, errUnknownBackend.Fmt(backend)
	}

	if err != nil {
		return nil, err
	}

	return NewInstrumented(db, backend), nil
}
