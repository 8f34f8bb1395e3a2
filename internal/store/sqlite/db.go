// Package sqlite is the persistence collaborator of the engine: users, posts,
// engagements and spirits in a SQLite database.
//
// Every read-modify-write happens inside Update. The pool is limited to a
// single connection, so transactions are serialized: concurrent debits for a
// user and concurrent engagements on a post always observe each other's
// committed state.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrConflict reports a uniqueness violation, e.g. a taken username.
var ErrConflict = errors.New("conflict")

// DB wraps the SQLite handle.
type DB struct{ sql *sql.DB }

func Open(path string) (*DB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	d.SetMaxOpenConns(1)
	if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL; PRAGMA foreign_keys=ON; PRAGMA busy_timeout=5000;`); err != nil {
		_ = d.Close()
		return nil, err
	}
	db := &DB{sql: d}
	if err := db.migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) migrate() error {
	_, err := d.sql.Exec(`
	CREATE TABLE IF NOT EXISTS users (
	  id TEXT PRIMARY KEY,
	  email TEXT NOT NULL UNIQUE,
	  username TEXT NOT NULL UNIQUE,
	  aura INTEGER NOT NULL DEFAULT 0,
	  energy INTEGER NOT NULL DEFAULT 0 CHECK (energy >= 0),
	  energy_last_reset INTEGER NOT NULL DEFAULT 0,
	  is_premium INTEGER NOT NULL DEFAULT 0,
	  status TEXT NOT NULL DEFAULT 'active',
	  created_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS posts (
	  id TEXT PRIMARY KEY,
	  author_id TEXT NOT NULL REFERENCES users(id),
	  chakra TEXT NOT NULL CHECK (chakra IN ('root','sacral','solar','heart','throat','third_eye','crown')),
	  type TEXT NOT NULL,
	  content TEXT NOT NULL,
	  frequency INTEGER NOT NULL DEFAULT 0,
	  created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_posts_chakra_freq ON posts(chakra, frequency DESC);
	CREATE TABLE IF NOT EXISTS engagements (
	  post_id TEXT NOT NULL REFERENCES posts(id),
	  user_id TEXT NOT NULL REFERENCES users(id),
	  type TEXT NOT NULL CHECK (type IN ('upvote','downvote','like','energy')),
	  created_at INTEGER NOT NULL,
	  PRIMARY KEY (post_id, user_id, type)
	);
	CREATE INDEX IF NOT EXISTS idx_engagements_ts ON engagements(created_at);
	CREATE TABLE IF NOT EXISTS spirits (
	  user_id TEXT PRIMARY KEY REFERENCES users(id),
	  element TEXT NOT NULL,
	  experience INTEGER NOT NULL DEFAULT 0 CHECK (experience >= 0),
	  level INTEGER NOT NULL DEFAULT 1,
	  created_at INTEGER NOT NULL,
	  CHECK (level = experience / 100 + 1)
	);
	CREATE TABLE IF NOT EXISTS spirit_evolution (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  user_id TEXT NOT NULL REFERENCES spirits(user_id),
	  action TEXT NOT NULL,
	  experience_gain INTEGER NOT NULL CHECK (experience_gain >= 0),
	  leveled_up INTEGER NOT NULL,
	  new_level INTEGER NOT NULL,
	  ts INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_evolution_user ON spirit_evolution(user_id, id);
	`)
	return err
}

// Tx is a read-write transaction handed to Update and View callbacks.
type Tx struct{ tx *sql.Tx }

// Update runs fn in a transaction and commits if fn returns nil.
func (d *DB) Update(ctx context.Context, fn func(*Tx) error) error {
	return d.run(ctx, true, fn)
}

// View runs fn in a transaction that is always rolled back.
func (d *DB) View(ctx context.Context, fn func(*Tx) error) error {
	return d.run(ctx, false, fn)
}

func (d *DB) run(ctx context.Context, commit bool, fn func(*Tx) error) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&Tx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if !commit {
		return tx.Rollback()
	}
	return tx.Commit()
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUnique(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func conflict(err error, what string) error {
	if isUnique(err) {
		return fmt.Errorf("%w: %s", ErrConflict, what)
	}
	return err
}
