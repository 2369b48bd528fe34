// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yairb30/smartfix.samana.front2/internal/session"
	"github.com/yairb30/smartfix.samana.front2/internal/ui/styles"
)

// =============================================================================
// INACTIVITY WARNING DIALOG
// =============================================================================

// CountdownInterval is how often the warning countdown redraws.
const CountdownInterval = time.Second

const (
	buttonKeep = iota
	buttonEnd
)

// WarningTickMsg redraws the countdown. Ticks from an earlier Show are
// ignored.
type WarningTickMsg struct {
	ID   int
	Time time.Time
}

// KeepSessionMsg reports that the user chose to keep the session.
type KeepSessionMsg struct{}

// EndSessionMsg reports that the user chose to end the session now.
type EndSessionMsg struct{}

// CountdownExpiredMsg reports that the dialog closed itself at 0:00.
type CountdownExpiredMsg struct{}

// WarningDialog is the modal shown before an inactivity logout. It cannot be
// dismissed: only its two actions or the end of the countdown close it.
type WarningDialog struct {
	visible  bool
	warning  session.Warning
	selected int
	id       int

	now    func() time.Time
	keys   DialogKeyMap
	theme  *styles.Theme
	width  int
	height int
}

// NewWarningDialog creates a hidden dialog. now is the time source for the
// countdown.
func NewWarningDialog(theme *styles.Theme, now func() time.Time) WarningDialog {
	if now == nil {
		now = time.Now
	}
	return WarningDialog{
		now:   now,
		keys:  DefaultDialogKeyMap(),
		theme: theme,
	}
}

// SetSize sets the area the dialog is centered in.
func (d *WarningDialog) SetSize(width, height int) {
	d.width = width
	d.height = height
}

// Show opens the dialog for w and returns the first countdown tick.
func (d *WarningDialog) Show(w session.Warning) tea.Cmd {
	d.visible = true
	d.warning = w
	d.selected = buttonKeep
	d.id++
	return d.tick()
}

// Hide closes the dialog and stops its countdown.
func (d *WarningDialog) Hide() {
	d.visible = false
	d.id++
}

// IsVisible reports whether the dialog is open.
func (d WarningDialog) IsVisible() bool {
	return d.visible
}

// Remaining returns the countdown value now.
func (d WarningDialog) Remaining() time.Duration {
	return d.warning.Remaining(d.now())
}

func (d WarningDialog) tick() tea.Cmd {
	id := d.id
	return tea.Tick(CountdownInterval, func(t time.Time) tea.Msg {
		return WarningTickMsg{ID: id, Time: t}
	})
}

// Update handles keys and countdown ticks while the dialog is open.
func (d WarningDialog) Update(msg tea.Msg) (WarningDialog, tea.Cmd) {
	if !d.visible {
		return d, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		d.SetSize(msg.Width, msg.Height)

	case WarningTickMsg:
		if msg.ID != d.id {
			return d, nil
		}
		if d.Remaining() <= 0 {
			d.Hide()
			return d, emit(CountdownExpiredMsg{})
		}
		return d, d.tick()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, d.keys.Keep):
			return d.choose(buttonKeep)
		case key.Matches(msg, d.keys.End):
			return d.choose(buttonEnd)
		case key.Matches(msg, d.keys.Next), key.Matches(msg, d.keys.Prev):
			d.selected = 1 - d.selected
		case key.Matches(msg, d.keys.Accept):
			return d.choose(d.selected)
		}
	}
	return d, nil
}

func (d WarningDialog) choose(button int) (WarningDialog, tea.Cmd) {
	d.Hide()
	if button == buttonEnd {
		return d, emit(EndSessionMsg{})
	}
	return d, emit(KeepSessionMsg{})
}

// View renders the dialog centered in the last known size.
func (d WarningDialog) View() string {
	if !d.visible {
		return ""
	}
	t := d.theme

	keep, end := t.Button, t.Button
	if d.selected == buttonKeep {
		keep = t.ButtonActive
	} else {
		end = t.ButtonActive
	}
	keepBtn := keep.Render(d.warning.KeepLabel)
	endBtn := end.Render(d.warning.EndLabel)
	buttons := lipgloss.JoinHorizontal(lipgloss.Center, keepBtn, "  ", endBtn)

	width := dialogWidth(d.width)
	if need := lipgloss.Width(buttons) + dialogPadding; need > width {
		if d.width == 0 || need+2 <= d.width {
			width = need
		} else {
			buttons = lipgloss.JoinVertical(lipgloss.Center, keepBtn, "", endBtn)
		}
	}

	title := t.DialogTitle.Foreground(styles.Amber).
		Render(styles.StatusIndicators.Warning + " " + d.warning.Title)
	body := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Width(width - dialogPadding).
		Align(lipgloss.Center).
		Render(d.warning.Text(d.now()))

	hint := t.KeyHelp.Render("k keep · e end · enter select")

	content := lipgloss.JoinVertical(lipgloss.Center, title, "", body, "", buttons, "", hint)
	return center(d.width, d.height, t.WarningBox.Width(width).Render(content))
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// dialogPadding is the horizontal room the box padding and a margin take
// from the dialog width.
const dialogPadding = 8

// dialogWidth clamps the dialog between 40 and 60 cells.
func dialogWidth(total int) int {
	w := total - 8
	if w < 40 {
		w = 40
	}
	if w > 60 {
		w = 60
	}
	return w
}

func center(width, height int, box string) string {
	if width == 0 || height == 0 {
		return box
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceBackground(styles.SurfaceDim))
}
