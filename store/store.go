// Package store keeps email templates and recipients in SQLite database.
package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// ErrNotFound is returned when requested template or recipient does not
// exist.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS templates (
	id      TEXT PRIMARY KEY,
	slug    TEXT NOT NULL UNIQUE,
	name    TEXT NOT NULL,
	subject TEXT NOT NULL DEFAULT '',
	html    TEXT NOT NULL DEFAULT '',
	css     TEXT NOT NULL DEFAULT '',
	created INTEGER NOT NULL,
	updated INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS recipients (
	email       TEXT PRIMARY KEY,
	name        TEXT NOT NULL DEFAULT '',
	site_url    TEXT NOT NULL DEFAULT '',
	unsubscribe TEXT NOT NULL DEFAULT '',
	added       INTEGER NOT NULL
);
`

// Store is a single database connection guarded by mutex, it is safe for
// concurrent use.
type Store struct {
	mu   sync.Mutex
	conn *sqlite.Conn
	log  *zap.Logger
	now  func() time.Time
}

// Open opens (creating if necessary) database at path. Use ":memory:" for
// transient database.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}

	flags := []sqlite.OpenFlags{sqlite.OpenReadWrite, sqlite.OpenCreate, sqlite.OpenWAL}
	if path == ":memory:" {
		flags = []sqlite.OpenFlags{sqlite.OpenReadWrite, sqlite.OpenMemory}
	}
	conn, err := sqlite.OpenConn(path, flags...)
	if err != nil {
		return nil, fmt.Errorf("unable to open database (%s): %w", path, err)
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to prepare database schema: %w", err)
	}

	s := &Store{conn: conn, log: log.Named("store"), now: time.Now}
	s.log.Debug("Database opened", zap.String("path", path))
	return s, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	if err != nil {
		return fmt.Errorf("unable to close database: %w", err)
	}
	return nil
}

func toTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
