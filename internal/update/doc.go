// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package update notices when a new smartfix build is installed over the
// running one and reloads into it on request.
//
//	w, err := update.NewWatcher(update.Config{})
//	if err == nil && w.Watch() == nil {
//	    defer w.Close()
//	    ev := <-w.Events()
//	    // ask the user, then:
//	    err = update.Reload(ev.Path)
//	}
package update
