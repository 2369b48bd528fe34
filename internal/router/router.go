// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"net/url"
	"path"
	"strings"
	"sync"
)

// Authenticator reports whether the tab has a session.
type Authenticator interface {
	IsLoggedIn() bool
}

// Navigation is a completed navigation.
type Navigation struct {
	// URL is the final path plus encoded query.
	URL   string
	Route Route
	Query url.Values
	// Redirected is true when the requested path was not the final one.
	Redirected bool
}

// =============================================================================
// ROUTER
// =============================================================================

// Router resolves paths against the route table and publishes every
// completed navigation. Subscribers run outside the router lock.
type Router struct {
	auth Authenticator

	mu      sync.Mutex
	current Navigation
	history []Navigation
	nextID  uint64
	subs    []subscriber
}

type subscriber struct {
	id uint64
	fn func(url string)
}

// New creates a router with no current page.
func New(auth Authenticator) *Router {
	return &Router{auth: auth}
}

// Navigate resolves target (which may carry its own query string), merges
// query into it, and makes the result current.
func (r *Router) Navigate(target string, query url.Values) Navigation {
	return r.navigate(r.Resolve(target, query), true)
}

// Back returns to the previous page, re-checking access. It reports false
// when there is no history.
func (r *Router) Back() (Navigation, bool) {
	r.mu.Lock()
	if len(r.history) == 0 {
		cur := r.current
		r.mu.Unlock()
		return cur, false
	}
	prev := r.history[len(r.history)-1]
	r.history = r.history[:len(r.history)-1]
	r.mu.Unlock()

	return r.navigate(r.Resolve(prev.Route.Path, prev.Query), false), true
}

// Current returns the current navigation.
func (r *Router) Current() Navigation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// CurrentURL returns the current URL, or "" before the first navigation.
func (r *Router) CurrentURL() string {
	return r.Current().URL
}

// Subscribe registers fn for every completed navigation.
func (r *Router) Subscribe(fn func(url string)) (cancel func()) {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.subs = append(r.subs, subscriber{id: id, fn: fn})
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, s := range r.subs {
			if s.id == id {
				r.subs = append(r.subs[:i], r.subs[i+1:]...)
				return
			}
		}
	}
}

func (r *Router) navigate(nav Navigation, push bool) Navigation {
	r.mu.Lock()
	if push && r.current.URL != "" && r.current.URL != nav.URL {
		r.history = append(r.history, r.current)
	}
	r.current = nav
	subs := make([]subscriber, len(r.subs))
	copy(subs, r.subs)
	r.mu.Unlock()

	for _, s := range subs {
		s.fn(nav.URL)
	}
	return nav
}

// Resolve applies redirects without navigating:
// "" and "/" go to /login, unknown paths to /not-found, and protected
// paths without a session to /login.
func (r *Router) Resolve(target string, query url.Values) Navigation {
	p, q := splitTarget(target)
	for k, vs := range query {
		q[k] = append([]string(nil), vs...)
	}

	if p == "/" {
		return r.redirect(LoginPath, q)
	}

	route, ok := match(p)
	switch {
	case !ok:
		return r.redirect(NotFoundPath, nil)
	case route.Access == Protected && (r.auth == nil || !r.auth.IsLoggedIn()):
		return r.redirect(LoginPath, nil)
	}

	return Navigation{URL: buildURL(route.Path, q), Route: route, Query: q}
}

func (r *Router) redirect(p string, q url.Values) Navigation {
	route, _ := match(p)
	if q == nil {
		q = url.Values{}
	}
	return Navigation{URL: buildURL(p, q), Route: route, Query: q, Redirected: true}
}

func splitTarget(target string) (string, url.Values) {
	raw, rawQuery, _ := strings.Cut(target, "?")
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		q = url.Values{}
	}

	p := path.Clean("/" + strings.TrimSpace(raw))
	return p, q
}

func buildURL(p string, q url.Values) string {
	if len(q) == 0 {
		return p
	}
	return p + "?" + q.Encode()
}
