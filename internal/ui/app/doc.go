// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the root Bubble Tea model of the smartfix client.
//
// It renders the login form and the dashboard pages, forwards every key and
// mouse event to the session activity bus, and shows the dialogs requested
// by the session controller. Those requests arrive on timer goroutines, so
// they travel through a Mailbox that the model drains from its own loop:
//
//	box := app.NewMailbox()
//	bridge := app.NewBridge(box)          // session.Dialog and session.Notifier
//	nav := app.RouterNavigator{Router: r} // session.Navigator
//	ctrl, _ := session.NewController(session.ControllerDeps{...})
//	model := app.New(app.Deps{Mailbox: box, Controller: ctrl, ...})
//
// When the user accepts an update, the model quits and ReloadRequested
// reports the binary to exec.
package app
