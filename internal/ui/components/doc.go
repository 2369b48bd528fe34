// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the reusable TUI pieces of the smartfix
// client: the page header and status bar, the inactivity warning dialog
// with its live countdown, the one-time acknowledgement notice, and the
// yes/no confirmation used before reloading into a new build.
//
// Dialogs are value types in the Bubble Tea style. Each has Show, Hide,
// IsVisible, Update and View; Update reports the user's choice as a
// message returned from the command:
//
//	d := components.NewWarningDialog(theme, time.Now)
//	cmd := d.Show(warning)
//	...
//	d, cmd = d.Update(msg) // may yield KeepSessionMsg or EndSessionMsg
package components
