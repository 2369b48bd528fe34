// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// helpers.go - Shared helpers for smartfix CLI commands.

package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/yairb30/smartfix.samana.front2/internal/config"
)

// EnvTabID carries the tab id across an in-place reload.
const EnvTabID = "SMARTFIX_TAB_ID"

// loadConfig loads the configuration named by --config (or the default
// location), applies the --api and --no-update-watch flags, and installs
// the result as the global configuration.
func loadConfig(args Args) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if args.APIURL != "" {
		cfg.API.BaseURL = args.APIURL
	}
	if args.NoUpdateWatch {
		cfg.Update.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// resolveTabID returns the tab id from --tab, then $SMARTFIX_TAB_ID. When
// neither is set and create is true a new id is generated.
func resolveTabID(args Args, create bool) string {
	if args.TabID != "" {
		return args.TabID
	}
	if id := os.Getenv(EnvTabID); id != "" {
		return id
	}
	if create {
		return uuid.NewString()
	}
	return ""
}

// formatAge renders how long ago t was, e.g. "3h ago".
func formatAge(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
