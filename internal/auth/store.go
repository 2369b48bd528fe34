// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/yairb30/smartfix.samana.front2/internal/storage"
)

// Keys under which the session is persisted in the tab store.
const (
	KeyToken    = "token"
	KeyUsername = "username"
	KeyIsAdmin  = "isAdmin"
)

// ErrNoToken is returned by SetSession when the session carries no token.
var ErrNoToken = errors.New("session has no token")

// Session is the signed-in identity of a tab.
type Session struct {
	Token    string
	Username string
	IsAdmin  bool
}

// LoggedIn reports whether the session carries a token.
func (s Session) LoggedIn() bool {
	return s.Token != ""
}

// =============================================================================
// SESSION STORE
// =============================================================================

// Store owns the tab's Session. Writes replace the whole value and go through
// to the backing KV; reads are served from memory.
type Store struct {
	mu  sync.RWMutex
	kv  storage.KV
	cur Session
}

// NewStore loads any session already persisted for the tab (a reload).
func NewStore(kv storage.KV) (*Store, error) {
	s := &Store{kv: kv}

	token, ok, err := kv.Get(KeyToken)
	if err != nil {
		return nil, fmt.Errorf("load session token: %w", err)
	}
	if !ok || token == "" {
		return s, nil
	}

	username, _, err := kv.Get(KeyUsername)
	if err != nil {
		return nil, fmt.Errorf("load session username: %w", err)
	}
	admin, _, err := kv.Get(KeyIsAdmin)
	if err != nil {
		return nil, fmt.Errorf("load session admin flag: %w", err)
	}
	isAdmin, _ := strconv.ParseBool(admin)

	s.cur = Session{Token: token, Username: username, IsAdmin: isAdmin}
	return s, nil
}

// IsLoggedIn reports whether a token is present.
func (s *Store) IsLoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.Token != ""
}

// Token returns the auth token, or "" when signed out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.Token
}

// Username returns the signed-in username.
func (s *Store) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.Username
}

// IsAdmin returns the admin flag of the signed-in user.
func (s *Store) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.IsAdmin
}

// Session returns a copy of the current session.
func (s *Store) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// SetSession replaces the stored identity after a successful login.
func (s *Store) SetSession(sess Session) error {
	if sess.Token == "" {
		return ErrNoToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Set(KeyUsername, sess.Username); err != nil {
		return fmt.Errorf("persist username: %w", err)
	}
	if err := s.kv.Set(KeyIsAdmin, strconv.FormatBool(sess.IsAdmin)); err != nil {
		return fmt.Errorf("persist admin flag: %w", err)
	}
	// Token last: a partial write never looks like a valid session on reload.
	if err := s.kv.Set(KeyToken, sess.Token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}

	s.cur = sess
	return nil
}

// Logout clears the identity. The in-memory session is cleared even when the
// persistent delete fails, so the tab is signed out either way.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cur = Session{}
	if err := s.kv.Delete(KeyToken, KeyUsername, KeyIsAdmin); err != nil {
		return fmt.Errorf("clear persisted session: %w", err)
	}
	return nil
}
