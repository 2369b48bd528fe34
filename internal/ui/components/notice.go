// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yairb30/smartfix.samana.front2/internal/ui/styles"
)

// NoticeDismissedMsg reports that the user acknowledged a notice.
type NoticeDismissedMsg struct{}

// Notice is a modal acknowledgement with a single OK action.
type Notice struct {
	visible bool
	title   string
	message string

	keys   DialogKeyMap
	theme  *styles.Theme
	width  int
	height int
}

// NewNotice creates a hidden notice.
func NewNotice(theme *styles.Theme) Notice {
	return Notice{keys: DefaultDialogKeyMap(), theme: theme}
}

// SetSize sets the area the notice is centered in.
func (n *Notice) SetSize(width, height int) {
	n.width = width
	n.height = height
}

// Show opens the notice, replacing any notice already shown.
func (n *Notice) Show(title, message string) {
	n.visible = true
	n.title = title
	n.message = message
}

// Hide closes the notice.
func (n *Notice) Hide() {
	n.visible = false
}

// IsVisible reports whether the notice is open.
func (n Notice) IsVisible() bool {
	return n.visible
}

// Title returns the current title.
func (n Notice) Title() string {
	return n.title
}

// Update closes the notice on enter.
func (n Notice) Update(msg tea.Msg) (Notice, tea.Cmd) {
	if !n.visible {
		return n, nil
	}
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		n.SetSize(msg.Width, msg.Height)
	case tea.KeyMsg:
		if key.Matches(msg, n.keys.Accept) {
			n.Hide()
			return n, emit(NoticeDismissedMsg{})
		}
	}
	return n, nil
}

// View renders the notice.
func (n Notice) View() string {
	if !n.visible {
		return ""
	}
	t := n.theme
	width := dialogWidth(n.width)

	title := t.DialogTitle.Foreground(styles.Rose).
		Render(styles.StatusIndicators.Info + " " + n.title)
	body := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Width(width - dialogPadding).
		Align(lipgloss.Center).
		Render(n.message)
	ok := t.ButtonActive.Render("OK")

	content := lipgloss.JoinVertical(lipgloss.Center, title, "", body, "", ok)
	return center(n.width, n.height, t.ExpiredBox.Width(width).Render(content))
}
