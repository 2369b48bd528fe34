// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !unix

package update

// Reload is not available on this platform; restart smartfix by hand.
func Reload(exe string) error {
	return ErrReloadUnsupported
}
