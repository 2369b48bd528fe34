// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build unix

package update

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Reload replaces the running process with a fresh start of exe, keeping
// the arguments and environment (and with it the tab id). It only returns
// on failure.
func Reload(exe string) error {
	if exe == "" {
		var err error
		if exe, err = os.Executable(); err != nil {
			return fmt.Errorf("%w: %v", ErrNoPath, err)
		}
	}
	if err := unix.Exec(exe, os.Args, os.Environ()); err != nil {
		return fmt.Errorf("exec %s: %w", exe, err)
	}
	return nil
}
