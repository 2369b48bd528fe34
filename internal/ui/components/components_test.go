// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yairb30/smartfix.samana.front2/internal/session"
	"github.com/yairb30/smartfix.samana.front2/internal/ui/styles"
	"github.com/yairb30/smartfix.samana.front2/internal/util"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	right = tea.KeyMsg{Type: tea.KeyRight}
)

// result runs cmd and returns its message, or nil.
func result(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func testWarning(deadline time.Time) session.Warning {
	return session.Warning{
		Title:     "Session about to expire",
		Body:      "Your session will end in %s because of inactivity.",
		Deadline:  deadline,
		Window:    2 * time.Minute,
		KeepLabel: "Keep session",
		EndLabel:  "End session now",
	}
}

func openWarning(t *testing.T) (WarningDialog, *testClock) {
	t.Helper()
	clk := &testClock{now: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)}
	d := NewWarningDialog(styles.NewTheme(), clk.Now)
	if cmd := d.Show(testWarning(clk.now.Add(2 * time.Minute))); cmd == nil {
		t.Fatal("Show returned no tick")
	}
	return d, clk
}

// =============================================================================
// WARNING DIALOG TESTS
// =============================================================================

func TestWarningDialog_ShowsCountdown(t *testing.T) {
	d, clk := openWarning(t)

	if !d.IsVisible() {
		t.Fatal("dialog not visible after Show")
	}
	if !strings.Contains(d.View(), "2:00") {
		t.Errorf("view missing 2:00 countdown:\n%s", d.View())
	}

	clk.now = clk.now.Add(61 * time.Second)
	if !strings.Contains(d.View(), "0:59") {
		t.Errorf("view missing 0:59 countdown:\n%s", d.View())
	}
	for _, label := range []string{"Keep session", "End session now", "Session about to expire"} {
		if !strings.Contains(d.View(), label) {
			t.Errorf("view missing %q", label)
		}
	}
}

func TestWarningDialog_ButtonsStayOnOneLine(t *testing.T) {
	for _, size := range []struct{ w, h int }{{0, 0}, {50, 20}, {68, 24}, {120, 40}} {
		d, _ := openWarning(t)
		d.SetSize(size.w, size.h)
		view := d.View()
		for _, label := range []string{"Keep session", "End session now"} {
			if !strings.Contains(view, label) {
				t.Errorf("size %dx%d: view missing %q:\n%s", size.w, size.h, label, view)
			}
		}
	}
}

func TestWarningDialog_NarrowTerminalStacksButtons(t *testing.T) {
	d, _ := openWarning(t)
	d.SetSize(30, 30)
	view := d.View()
	keepLine, endLine := -1, -1
	for i, line := range strings.Split(view, "\n") {
		if strings.Contains(line, "Keep session") {
			keepLine = i
		}
		if strings.Contains(line, "End session now") {
			endLine = i
		}
	}
	if keepLine < 0 || endLine < 0 {
		t.Fatalf("view missing a button label:\n%s", view)
	}
	if endLine <= keepLine {
		t.Errorf("end button on line %d, want below keep button on line %d", endLine, keepLine)
	}
}

func TestWarningDialog_Actions(t *testing.T) {
	tests := []struct {
		name string
		keys []tea.KeyMsg
		want tea.Msg
	}{
		{"k keeps", []tea.KeyMsg{runes("k")}, KeepSessionMsg{}},
		{"enter keeps by default", []tea.KeyMsg{enter}, KeepSessionMsg{}},
		{"e ends", []tea.KeyMsg{runes("e")}, EndSessionMsg{}},
		{"move then enter ends", []tea.KeyMsg{right, enter}, EndSessionMsg{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _ := openWarning(t)
			var cmd tea.Cmd
			for _, k := range tt.keys {
				d, cmd = d.Update(k)
			}
			if got := result(cmd); got != tt.want {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
			if d.IsVisible() {
				t.Error("dialog still visible after action")
			}
		})
	}
}

func TestWarningDialog_NotDismissable(t *testing.T) {
	d, _ := openWarning(t)

	for _, k := range []tea.KeyMsg{esc, runes("q"), runes("x")} {
		var cmd tea.Cmd
		d, cmd = d.Update(k)
		if cmd != nil {
			t.Errorf("key %q produced a command", k.String())
		}
		if !d.IsVisible() {
			t.Fatalf("key %q dismissed the dialog", k.String())
		}
	}
}

func TestWarningDialog_TickRearmsUntilZero(t *testing.T) {
	d, clk := openWarning(t)
	id := d.id

	d, cmd := d.Update(WarningTickMsg{ID: id})
	if cmd == nil || !d.IsVisible() {
		t.Fatal("tick before deadline should re-arm and stay visible")
	}

	clk.now = clk.now.Add(2 * time.Minute)
	d, cmd = d.Update(WarningTickMsg{ID: id})
	if d.IsVisible() {
		t.Error("dialog visible at 0:00")
	}
	if _, ok := result(cmd).(CountdownExpiredMsg); !ok {
		t.Errorf("expected CountdownExpiredMsg, got %#v", result(cmd))
	}
}

func TestWarningDialog_StaleTickIgnored(t *testing.T) {
	d, clk := openWarning(t)
	stale := d.id
	d.Hide()
	d.Show(testWarning(clk.now.Add(time.Minute)))

	clk.now = clk.now.Add(5 * time.Minute)
	d, cmd := d.Update(WarningTickMsg{ID: stale})
	if cmd != nil || !d.IsVisible() {
		t.Error("tick from an earlier Show must be ignored")
	}
}

func TestWarningDialog_HiddenIgnoresInput(t *testing.T) {
	d := NewWarningDialog(styles.NewTheme(), nil)
	d, cmd := d.Update(runes("k"))
	if cmd != nil || d.IsVisible() || d.View() != "" {
		t.Error("hidden dialog reacted to input")
	}
}

// =============================================================================
// NOTICE TESTS
// =============================================================================

func TestNotice_EnterDismisses(t *testing.T) {
	n := NewNotice(styles.NewTheme())
	n.Show("Session expired", "Your session was closed after 15 minutes of inactivity.")

	if !strings.Contains(n.View(), "inactivity.") {
		t.Errorf("view missing message:\n%s", n.View())
	}

	n, cmd := n.Update(esc)
	if cmd != nil || !n.IsVisible() {
		t.Fatal("esc must not dismiss the notice")
	}

	n, cmd = n.Update(enter)
	if n.IsVisible() {
		t.Error("notice still visible after enter")
	}
	if _, ok := result(cmd).(NoticeDismissedMsg); !ok {
		t.Errorf("expected NoticeDismissedMsg, got %#v", result(cmd))
	}
}

// =============================================================================
// CONFIRM DIALOG TESTS
// =============================================================================

func TestConfirmDialog(t *testing.T) {
	tests := []struct {
		name string
		keys []tea.KeyMsg
		want bool
	}{
		{"y", []tea.KeyMsg{runes("y")}, true},
		{"enter defaults to yes", []tea.KeyMsg{enter}, true},
		{"n", []tea.KeyMsg{runes("n")}, false},
		{"esc", []tea.KeyMsg{esc}, false},
		{"move then enter", []tea.KeyMsg{right, enter}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConfirmDialog(styles.NewTheme())
			c.Show("update", "Update available", "Reload now?")
			var cmd tea.Cmd
			for _, k := range tt.keys {
				c, cmd = c.Update(k)
			}
			got, ok := result(cmd).(ConfirmResultMsg)
			if !ok {
				t.Fatalf("expected ConfirmResultMsg, got %#v", result(cmd))
			}
			if got.ID != "update" || got.Confirmed != tt.want {
				t.Errorf("got %+v, want confirmed=%v", got, tt.want)
			}
			if c.IsVisible() {
				t.Error("dialog still visible")
			}
		})
	}
}

// =============================================================================
// HEADER TESTS
// =============================================================================

func TestHeader_View(t *testing.T) {
	h := NewHeader(styles.NewTheme())
	h.Width = 60
	h.Route = "Customers"
	h.User = "ana"
	h.Admin = true

	out := h.View()
	for _, want := range []string{Brand, "Customers", "ana [admin]"} {
		if !strings.Contains(out, want) {
			t.Errorf("header missing %q: %q", want, out)
		}
	}
}

func TestHeader_TruncatesLongRoute(t *testing.T) {
	h := NewHeader(styles.NewTheme())
	h.Width = 30
	h.Route = strings.Repeat("Repairs ", 10)
	h.User = "ana"

	out := h.View()
	if !strings.Contains(out, util.Ellipsis) {
		t.Errorf("long route not truncated: %q", out)
	}
	if !strings.Contains(out, "ana") {
		t.Errorf("user dropped: %q", out)
	}
}

func TestStatusBar(t *testing.T) {
	out := StatusBar(styles.NewTheme(), 50, "q quit", "watching")
	if !strings.Contains(out, "q quit") || !strings.Contains(out, "watching") {
		t.Errorf("status bar = %q", out)
	}
}
