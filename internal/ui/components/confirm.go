// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yairb30/smartfix.samana.front2/internal/ui/styles"
)

// ConfirmResultMsg carries the answer to the confirmation identified by ID.
type ConfirmResultMsg struct {
	ID        string
	Confirmed bool
}

// ConfirmDialog asks a yes/no question.
type ConfirmDialog struct {
	visible  bool
	id       string
	title    string
	question string
	yes      bool

	keys   DialogKeyMap
	theme  *styles.Theme
	width  int
	height int
}

// NewConfirmDialog creates a hidden dialog.
func NewConfirmDialog(theme *styles.Theme) ConfirmDialog {
	return ConfirmDialog{keys: DefaultDialogKeyMap(), theme: theme}
}

// SetSize sets the area the dialog is centered in.
func (c *ConfirmDialog) SetSize(width, height int) {
	c.width = width
	c.height = height
}

// Show opens the dialog with "Yes" selected.
func (c *ConfirmDialog) Show(id, title, question string) {
	c.visible = true
	c.id = id
	c.title = title
	c.question = question
	c.yes = true
}

// Hide closes the dialog without answering.
func (c *ConfirmDialog) Hide() {
	c.visible = false
}

// IsVisible reports whether the dialog is open.
func (c ConfirmDialog) IsVisible() bool {
	return c.visible
}

// ID returns the identifier passed to Show.
func (c ConfirmDialog) ID() string {
	return c.id
}

// Update answers on y, n, esc or enter.
func (c ConfirmDialog) Update(msg tea.Msg) (ConfirmDialog, tea.Cmd) {
	if !c.visible {
		return c, nil
	}
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		c.SetSize(msg.Width, msg.Height)
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, c.keys.Confirm):
			return c.answer(true)
		case key.Matches(msg, c.keys.Cancel):
			return c.answer(false)
		case key.Matches(msg, c.keys.Next), key.Matches(msg, c.keys.Prev):
			c.yes = !c.yes
		case key.Matches(msg, c.keys.Accept):
			return c.answer(c.yes)
		}
	}
	return c, nil
}

func (c ConfirmDialog) answer(yes bool) (ConfirmDialog, tea.Cmd) {
	c.visible = false
	return c, emit(ConfirmResultMsg{ID: c.id, Confirmed: yes})
}

// View renders the dialog.
func (c ConfirmDialog) View() string {
	if !c.visible {
		return ""
	}
	t := c.theme
	width := dialogWidth(c.width)

	title := t.DialogTitle.Foreground(styles.Cyan).
		Render(styles.StatusIndicators.Info + " " + c.title)
	body := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Width(width - dialogPadding).
		Align(lipgloss.Center).
		Render(c.question)

	yes, no := t.Button, t.Button
	if c.yes {
		yes = t.ButtonActive
	} else {
		no = t.ButtonActive
	}
	buttons := lipgloss.JoinHorizontal(lipgloss.Center, yes.Render("Yes"), "  ", no.Render("No"))

	content := lipgloss.JoinVertical(lipgloss.Center, title, "", body, "", buttons)
	return center(c.width, c.height, t.UpdateBox.Width(width).Render(content))
}
