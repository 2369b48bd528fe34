// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session implements the inactivity timeout of a signed-in tab.
//
// # Key Types
//
//   - Monitor: watches user activity and fires a warning, then a timeout
//   - Gate: starts the monitor on protected routes of a signed-in tab
//   - Controller: shows the warning dialog and runs the Timeout Sequence
//   - ActivityBus: fan-out of input events from the UI to the monitor
//
// # Usage
//
//	bus := session.NewActivityBus()
//	mon, err := session.NewMonitor(session.DefaultConfig(),
//	    session.WithActivitySource(bus))
//
//	gate := session.NewGate(store, mon)
//	defer gate.Attach(router)()
//
//	ctrl, err := session.NewController(session.ControllerDeps{
//	    Monitor: mon, Store: store, Dialog: ui, Navigator: router, Notifier: ui,
//	})
//	ctrl.Bind()
//	defer ctrl.Close()
//
// # Timing
//
// With the default 15 minute timeout and 2 minute warning, the warning fires
// 13 minutes after the last reset and the timeout 2 minutes later. Bursts of
// activity reset the cycle at most once per 500ms, and not at all once the
// warning has fired; only an explicit "keep session" does.
package session
