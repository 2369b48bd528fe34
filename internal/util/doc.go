// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared by the config writer and the
// terminal UI.
//
//   - AtomicWriteFile: crash-safe file writes with fsync and rename
//   - TruncateWidth, PadRight, StringWidth: cell-width aware text layout
//
// Usage:
//
//	err := util.AtomicWriteFile(path, data, 0o600)
//	title := util.TruncateWidth(route.Title(), width-4)
package util
