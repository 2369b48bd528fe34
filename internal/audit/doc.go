// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package audit keeps an append-only record of session events.
//
// Each event is one JSON line in ~/.smartfix/audit.log. Bearer tokens, JWTs
// and password assignments are redacted before writing, and the file rotates
// to audit.log.1 once it reaches its size limit.
//
//	logger, err := audit.Open(audit.Config{Tab: tabID})
//	defer logger.Close()
//	logger.LogLogin("ana", nil)
//
// A nil *Logger is valid and discards everything, so callers do not need to
// check whether auditing is enabled.
package audit
