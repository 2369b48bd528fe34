// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides per-tab key-value persistence for smartfix.
//
// A tab is one launch of the terminal client. Values written by a tab survive
// an in-place reload of the binary (the tab id is inherited through the
// environment) and are purged when the tab exits normally.
//
// # Key Types
//
//   - KV: Minimal key-value contract used by the session store
//   - Memory: In-process implementation (tests, --ephemeral runs)
//   - TabStore: SQLite-backed implementation scoped to one tab id
//
// # Usage
//
//	store, err := storage.OpenTabStore(path, tabID)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//	_ = store.Set("token", token)
//
// # Storage Location
//
// The database lives at ~/.smartfix/session.db unless session.store_path is set.
package storage
