// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package histcache mirrors server-side chat history into a local SQLite
// database for offline reading.
package histcache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/documind-tui/internal/api"
)

// =============================================================================
// SCHEMA
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id        INTEGER PRIMARY KEY,
	title     TEXT NOT NULL DEFAULT '',
	synced_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	session_id INTEGER NOT NULL,
	seq        INTEGER NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	PRIMARY KEY (session_id, seq),
	FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);
`

// =============================================================================
// CACHE
// =============================================================================

// Cache is a read-through mirror of the backend's sessions and history.
// The server is always authoritative; the cache only answers when the
// server cannot.
type Cache struct {
	db *sql.DB
}

// DefaultPath returns the default cache database location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".documind", "history.db"), nil
}

// Open opens (and if needed creates) the cache database at path.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// =============================================================================
// WRITE OPERATIONS
// =============================================================================

// StoreSessions replaces the cached session list. Sessions that disappeared
// server-side are removed, along with their cached messages.
func (c *Cache) StoreSessions(ctx context.Context, sessions []api.Session) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	keep := make(map[int64]bool, len(sessions))
	for _, s := range sessions {
		keep[s.ID] = true
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (id, title, synced_at) VALUES (?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET title = excluded.title, synced_at = excluded.synced_at`,
			s.ID, s.Title, now); err != nil {
			return err
		}
	}

	rows, err := tx.QueryContext(ctx, "SELECT id FROM sessions")
	if err != nil {
		return err
	}
	var stale []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		if !keep[id] {
			stale = append(stale, id)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, id := range stale {
		if _, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// StoreHistory replaces the cached messages of one session.
func (c *Cache) StoreHistory(ctx context.Context, sessionID int64, msgs []api.HistoryMessage) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// The session row may not exist yet when history is fetched before the
	// session list refreshes.
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (id, title, synced_at) VALUES (?, '', ?)
		 ON CONFLICT(id) DO NOTHING`,
		sessionID, time.Now().Unix()); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE session_id = ?", sessionID); err != nil {
		return err
	}
	for i, msg := range msgs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO messages (session_id, seq, role, content) VALUES (?, ?, ?, ?)",
			sessionID, i, msg.Role, msg.Content); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Clear empties the cache. Used on logout: cached history belongs to the
// account that fetched it.
func (c *Cache) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM messages"); err != nil {
		return err
	}
	_, err := c.db.ExecContext(ctx, "DELETE FROM sessions")
	return err
}

// =============================================================================
// READ OPERATIONS
// =============================================================================

// Sessions returns the cached session list, most recently synced first.
func (c *Cache) Sessions(ctx context.Context) ([]api.Session, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT id, title FROM sessions ORDER BY synced_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []api.Session
	for rows.Next() {
		var s api.Session
		if err := rows.Scan(&s.ID, &s.Title); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// History returns the cached messages of a session in order.
func (c *Cache) History(ctx context.Context, sessionID int64) ([]api.HistoryMessage, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT role, content FROM messages WHERE session_id = ? ORDER BY seq",
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []api.HistoryMessage
	for rows.Next() {
		var m api.HistoryMessage
		if err := rows.Scan(&m.Role, &m.Content); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
