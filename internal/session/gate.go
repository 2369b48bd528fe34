// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "strings"

// PublicPrefixes are the URL prefixes reachable without a session.
var PublicPrefixes = []string{"/login", "/register", "/forbidden", "/not-found"}

// IsPublic reports whether url starts with a public prefix.
func IsPublic(url string) bool {
	for _, p := range PublicPrefixes {
		if strings.HasPrefix(url, p) {
			return true
		}
	}
	return false
}

// Authenticator reports the session state.
type Authenticator interface {
	IsLoggedIn() bool
}

// Watcher is the part of the monitor the gate drives.
type Watcher interface {
	StartWatching()
	StopWatching()
}

// NavigationSource publishes the URL of every completed navigation.
type NavigationSource interface {
	CurrentURL() string
	Subscribe(fn func(url string)) (cancel func())
}

// =============================================================================
// ROUTE GATE
// =============================================================================

// Gate runs the monitor only on protected routes of an authenticated tab.
type Gate struct {
	auth    Authenticator
	watcher Watcher
}

// NewGate creates a gate.
func NewGate(auth Authenticator, watcher Watcher) *Gate {
	return &Gate{auth: auth, watcher: watcher}
}

// Evaluate applies the policy for the resolved url and reports whether the
// monitor should now be watching.
func (g *Gate) Evaluate(url string) bool {
	if g.auth.IsLoggedIn() && !IsPublic(url) {
		g.watcher.StartWatching()
		return true
	}
	g.watcher.StopWatching()
	return false
}

// Attach evaluates the current URL at once, then after every navigation.
func (g *Gate) Attach(src NavigationSource) (cancel func()) {
	cancel = src.Subscribe(func(url string) { g.Evaluate(url) })
	g.Evaluate(src.CurrentURL())
	return cancel
}
