// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package router maps smartfix paths to pages.
//
// Public pages are /login, /register, /forbidden and /not-found. Everything
// under /dashboard needs a session: the home page, and for each of customers,
// phones, repairs and parts a list, a "new" form and an "edit/<id>" form.
//
// Redirects:
//
//	"", "/"                -> /login
//	unknown path           -> /not-found
//	protected, signed out  -> /login
//
// Every completed navigation is published to subscribers with its final URL,
// which is what the session gate listens to.
package router
