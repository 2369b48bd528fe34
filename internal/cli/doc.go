// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and execution for smartfix.
//
// # Usage
//
//	cmd, args := cli.Parse()
//	if err := cli.Run(cmd, args); err != nil {
//	    fmt.Fprintf(os.Stderr, "Error: %v\n", err)
//	    os.Exit(1)
//	}
//
// # Commands
//
//   - tui: the interactive client (default)
//   - config: show, path, init, validate, get and set configuration values
//   - session: list stored tabs, clear or prune them, show recent audit events
//   - version, help
//
// # Tabs
//
// Each launch of the client is a tab with its own stored session. The tab id
// comes from --tab or SMARTFIX_TAB_ID, or is generated, and is exported in
// SMARTFIX_TAB_ID so an in-place reload into a new build keeps the session.
// A normal quit closes the tab and drops its stored values.
package cli
