// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// TAB STORE
// =============================================================================

// TabStore is a KV persisted in SQLite and scoped to a single tab id.
type TabStore struct {
	db    *sql.DB
	tabID string
	path  string

	mu     sync.Mutex
	closed bool
}

// DefaultPath returns ~/.smartfix/session.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".smartfix", "session.db"), nil
}

// OpenTabStore opens (creating if needed) the database at path and scopes
// all operations to tabID.
func OpenTabStore(path, tabID string) (*TabStore, error) {
	if tabID == "" {
		return nil, ErrEmptyTabID
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metadata: %w", err)
	}

	// The file may hold a session token
	_ = os.Chmod(path, 0600)

	return &TabStore{db: db, tabID: tabID, path: path}, nil
}

// TabID returns the tab this store is scoped to.
func (s *TabStore) TabID() string {
	return s.tabID
}

// Path returns the database file path.
func (s *TabStore) Path() string {
	return s.path
}

// Get implements KV.
func (s *TabStore) Get(key string) (string, bool, error) {
	if err := s.check(); err != nil {
		return "", false, err
	}

	var value string
	err := s.db.QueryRow(
		"SELECT value FROM tab_values WHERE tab_id = ? AND key = ?",
		s.tabID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

// Set implements KV.
func (s *TabStore) Set(key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := s.check(); err != nil {
		return err
	}

	_, err := s.db.Exec(`
		INSERT INTO tab_values (tab_id, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(tab_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.tabID, key, value, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Delete implements KV.
func (s *TabStore) Delete(keys ...string) error {
	if err := s.check(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	for _, k := range keys {
		if _, err := tx.Exec("DELETE FROM tab_values WHERE tab_id = ? AND key = ?", s.tabID, k); err != nil {
			return fmt.Errorf("delete %q: %w", k, err)
		}
	}
	return tx.Commit()
}

// Clear implements KV by removing every key of this tab.
func (s *TabStore) Clear() error {
	if err := s.check(); err != nil {
		return err
	}
	if _, err := s.db.Exec("DELETE FROM tab_values WHERE tab_id = ?", s.tabID); err != nil {
		return fmt.Errorf("clear tab: %w", err)
	}
	return nil
}

// Purge is Clear under the name used at exit: the tab is gone for good.
func (s *TabStore) Purge() error {
	return s.Clear()
}

// PruneStale removes values of any tab untouched for longer than maxAge.
// It returns the number of rows removed.
func (s *TabStore) PruneStale(maxAge time.Duration) (int64, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-maxAge).Unix()
	res, err := s.db.Exec(
		"DELETE FROM tab_values WHERE updated_at < ? AND tab_id <> ?",
		cutoff, s.tabID,
	)
	if err != nil {
		return 0, fmt.Errorf("prune stale tabs: %w", err)
	}
	return res.RowsAffected()
}

// TabInfo summarises one tab's stored values.
type TabInfo struct {
	TabID     string
	Keys      int
	UpdatedAt time.Time
}

// Tabs lists every tab with stored values, most recently updated first.
func (s *TabStore) Tabs() ([]TabInfo, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT tab_id, COUNT(*), MAX(updated_at) FROM tab_values
		GROUP BY tab_id ORDER BY MAX(updated_at) DESC`)
	if err != nil {
		return nil, fmt.Errorf("list tabs: %w", err)
	}
	defer rows.Close()

	var tabs []TabInfo
	for rows.Next() {
		var info TabInfo
		var updated int64
		if err := rows.Scan(&info.TabID, &info.Keys, &updated); err != nil {
			return nil, fmt.Errorf("scan tab: %w", err)
		}
		info.UpdatedAt = time.Unix(updated, 0)
		tabs = append(tabs, info)
	}
	return tabs, rows.Err()
}

// Close releases the database handle. Further calls return ErrClosed.
func (s *TabStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *TabStore) check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}
