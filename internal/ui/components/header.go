// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/yairb30/smartfix.samana.front2/internal/ui/styles"
	"github.com/yairb30/smartfix.samana.front2/internal/util"
)

// Brand is the product name shown in the header.
const Brand = "SmartFix"

// =============================================================================
// HEADER
// =============================================================================

// Header is the one-line bar at the top of every page.
type Header struct {
	Route string
	User  string
	Admin bool
	Width int

	theme *styles.Theme
}

// NewHeader creates an empty header.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{theme: theme}
}

// userLabel is the right-hand text, empty when nobody is signed in.
func (h *Header) userLabel() string {
	if h.User == "" {
		return ""
	}
	if h.Admin {
		return h.User + " [admin]"
	}
	return h.User
}

// View renders "SmartFix │ <route> ... <user>" in exactly Width cells. The
// route title is truncated first, then the user.
func (h *Header) View() string {
	width := h.Width
	if width <= 0 {
		width = 80
	}
	inner := width - 2 // header padding

	brand := Brand
	sep := " │ "
	user := h.userLabel()

	room := inner - util.StringWidth(brand) - util.StringWidth(sep)
	if user != "" {
		room -= util.StringWidth(user) + 1
	}
	if room < 4 && user != "" {
		user = util.TruncateWidth(user, inner/3)
		room = inner - util.StringWidth(brand) - util.StringWidth(sep) - util.StringWidth(user) - 1
	}
	route := util.TruncateWidth(h.Route, room)

	left := h.theme.HeaderBrand.Render(brand) + h.theme.HeaderRoute.Render(sep+route)
	gap := inner - util.StringWidth(brand+sep+route) - util.StringWidth(user)
	if gap < 1 {
		gap = 1
	}
	line := left + strings.Repeat(" ", gap) + h.theme.HeaderUser.Render(user)
	return h.theme.Header.Width(width).Render(line)
}

// =============================================================================
// STATUS BAR
// =============================================================================

// StatusBar renders the bottom line: key help on the left, status on the
// right.
func StatusBar(theme *styles.Theme, width int, help, status string) string {
	if width <= 0 {
		width = 80
	}
	inner := width - 2
	status = util.TruncateWidth(status, inner/2)
	help = util.TruncateWidth(help, inner-util.StringWidth(status)-1)
	line := util.PadRight(help, inner-util.StringWidth(status)) + status
	return theme.StatusBar.Width(width).Render(line)
}
