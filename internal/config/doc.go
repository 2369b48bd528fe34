// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads, validates and saves the smartfix configuration.
//
// Configuration is read from ~/.smartfix/config.toml (or config.json when
// no TOML file exists) over the built-in defaults, then SMARTFIX_*
// environment variables are applied. Invalid values are rejected, never
// clamped.
//
// Example config.toml:
//
//	[api]
//	base_url = "https://shop.example.com"
//
//	[session]
//	timeout_minutes = 15
//	warning_minutes = 2
//
//	[update]
//	enabled = true
//
// Keys can be read and written in dot notation:
//
//	cfg.Set("session.timeout_minutes", "30")
//	v, _ := cfg.Get("session.warning_minutes")
package config
