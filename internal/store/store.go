// Package store is the single authoritative data layer. Every exported
// operation takes one store-wide mutex, so compound read-then-write
// operations (rate-limit checks, vote toggles, starboard recomputes
// after a toggle) are atomic with respect to each other.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrEditDeleted   = errors.New("message already deleted")
	ErrRateLimited   = errors.New("rate limit exceeded")
	ErrUsernameTaken = errors.New("username taken")
	// ErrConfigMissing means no privilege row matches a gated action.
	// It is an operational defect, never shown to clients.
	ErrConfigMissing = errors.New("no privilege configured for action")
)

type Store struct {
	mu  sync.Mutex
	db  *sql.DB
	now func() time.Time
}

func Open(path string) (*Store, error) {
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps the in-memory DSN usable in tests and makes
	// the session-level pragmas below stick. The store mutex serializes
	// access anyway.
	sqldb.SetMaxOpenConns(1)

	for _, pragma := range []string{
		`PRAGMA journal_mode = WAL`,
		`PRAGMA foreign_keys = ON`,
		`PRAGMA busy_timeout = 5000`,
	} {
		if _, err := sqldb.Exec(pragma); err != nil {
			sqldb.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	s := &Store{db: sqldb, now: time.Now}
	if err := s.migrate(); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
CREATE TABLE IF NOT EXISTS users (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	username   TEXT UNIQUE NOT NULL,
	salt       BLOB NOT NULL,
	hash       BLOB NOT NULL,
	theme      TEXT NOT NULL DEFAULT 'dark',
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tokens (
	userid INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
	token  TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS rooms (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT ''
);

-- userid -1 marks system messages, so no foreign key on it.
CREATE TABLE IF NOT EXISTS messages (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	roomid  INTEGER NOT NULL REFERENCES rooms(id),
	userid  INTEGER NOT NULL,
	replyid INTEGER,
	text    TEXT NOT NULL,
	tstamp  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS history (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	messageid INTEGER NOT NULL REFERENCES messages(id),
	replyid   INTEGER,
	text      TEXT NOT NULL,
	tstamp    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS votes (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	messageid INTEGER NOT NULL REFERENCES messages(id),
	userid    INTEGER NOT NULL REFERENCES users(id),
	votetype  INTEGER NOT NULL,
	tstamp    INTEGER NOT NULL,
	UNIQUE (messageid, userid, votetype)
);

CREATE TABLE IF NOT EXISTS privileges (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	roomid    INTEGER NOT NULL REFERENCES rooms(id),
	userid    INTEGER,
	privtype  INTEGER NOT NULL,
	threshold INTEGER NOT NULL,
	period    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_room ON messages(roomid, tstamp);
CREATE INDEX IF NOT EXISTS idx_history_message ON history(messageid);
CREATE INDEX IF NOT EXISTS idx_votes_message ON votes(messageid);
CREATE INDEX IF NOT EXISTS idx_votes_user ON votes(userid, votetype, tstamp);
CREATE INDEX IF NOT EXISTS idx_privileges_room ON privileges(roomid, privtype);
`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// Provision the default room on first start.
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM rooms`).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		if _, err := s.createRoom("lobby", "the default room"); err != nil {
			return err
		}
	}
	return nil
}
