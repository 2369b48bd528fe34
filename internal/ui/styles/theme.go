// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Header
	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	HeaderRoute lipgloss.Style
	HeaderUser  lipgloss.Style

	// Page body
	PageTitle lipgloss.Style
	Body      lipgloss.Style
	Muted     lipgloss.Style
	Selected  lipgloss.Style

	// Login form
	FormBox    lipgloss.Style
	FieldLabel lipgloss.Style
	FormError  lipgloss.Style

	// Dialogs
	WarningBox   lipgloss.Style
	ExpiredBox   lipgloss.Style
	UpdateBox    lipgloss.Style
	DialogTitle  lipgloss.Style
	ButtonActive lipgloss.Style
	Button       lipgloss.Style

	// Footer
	StatusBar lipgloss.Style
	KeyHelp   lipgloss.Style
}

// NewTheme creates a theme for the current terminal.
func NewTheme() *Theme {
	colorProfile := termenv.ColorProfile()
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)
	t.HeaderRoute = lipgloss.NewStyle().
		Foreground(TextSecondary)
	t.HeaderUser = lipgloss.NewStyle().
		Foreground(Emerald)

	t.PageTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple).
		MarginBottom(1)
	t.Body = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Padding(1, 2)
	t.Muted = lipgloss.NewStyle().
		Foreground(TextMuted)
	t.Selected = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true)

	t.FormBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(1, 3)
	t.FieldLabel = lipgloss.NewStyle().
		Foreground(TextSecondary)
	t.FormError = lipgloss.NewStyle().
		Foreground(Rose)

	t.WarningBox = dialogBox(Amber)
	t.ExpiredBox = dialogBox(Rose)
	t.UpdateBox = dialogBox(Cyan)
	t.DialogTitle = lipgloss.NewStyle().
		Bold(true)
	t.ButtonActive = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Purple).
		Bold(true).
		Padding(0, 2)
	t.Button = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(Overlay).
		Padding(0, 2)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)
	t.KeyHelp = lipgloss.NewStyle().
		Foreground(TextMuted)
}

func dialogBox(border lipgloss.AdaptiveColor) lipgloss.Style {
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(border).
		Padding(1, 3).
		Align(lipgloss.Center)
}
