// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/yairb30/smartfix.samana.front2/internal/router"
	"github.com/yairb30/smartfix.samana.front2/internal/session"
	"github.com/yairb30/smartfix.samana.front2/internal/ui/components"
	"github.com/yairb30/smartfix.samana.front2/internal/ui/styles"
)

// View renders the header, the page or the topmost dialog, and the status
// bar.
func (m Model) View() string {
	header := m.header.View()
	footer := m.statusBar()

	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if bodyHeight < 0 {
		bodyHeight = 0
	}

	var body string
	switch {
	case m.warning.IsVisible():
		body = m.warning.View()
	case m.notice.IsVisible():
		body = m.notice.View()
	case m.confirm.IsVisible():
		body = m.confirm.View()
	default:
		body = m.pageView()
		if m.height > 0 {
			body = lipgloss.NewStyle().Height(bodyHeight).Render(body)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m Model) pageView() string {
	t := m.theme
	route := m.nav.Route

	switch {
	case route.Path == router.LoginPath:
		return m.loginView()
	case route.Path == router.RegisterPath:
		return t.Body.Render(t.PageTitle.Render("Register") + "\n" +
			"Accounts are created by a shop administrator.")
	case route.Path == router.ForbiddenPath:
		return t.Body.Render(styles.RenderError("You do not have access to this page."))
	case route.Path == router.NotFoundPath:
		return t.Body.Render(styles.RenderWarning("Page not found."))
	case route.Section == "dashboard-home":
		return m.homeView()
	case route.Path == "":
		return ""
	}
	return m.sectionView()
}

func (m Model) loginView() string {
	t := m.theme
	var b strings.Builder

	b.WriteString(t.PageTitle.Render("Sign in"))
	b.WriteString("\n")
	if m.nav.Query.Get(session.ReasonParam) == session.ReasonInactivity {
		b.WriteString(styles.RenderInfo("You were signed out after a period of inactivity."))
		b.WriteString("\n\n")
	}
	b.WriteString(t.FieldLabel.Render("Username"))
	b.WriteString("\n")
	b.WriteString(m.username.View())
	b.WriteString("\n\n")
	b.WriteString(t.FieldLabel.Render("Password"))
	b.WriteString("\n")
	b.WriteString(m.password.View())
	b.WriteString("\n")

	switch {
	case m.loggingIn:
		b.WriteString("\n" + t.Muted.Render("Signing in..."))
	case m.loginErr != "":
		b.WriteString("\n" + t.FormError.Render(styles.StatusIndicators.Error+" "+m.loginErr))
	}

	return t.Body.Render(t.FormBox.Render(b.String()))
}

func (m Model) homeView() string {
	t := m.theme
	var b strings.Builder

	b.WriteString(t.PageTitle.Render("Dashboard"))
	b.WriteString("\n")
	for i, sec := range router.Sections {
		label := router.Route{Section: sec, Action: router.ActionList}.Title()
		if i == m.selected {
			b.WriteString(t.Selected.Render("› " + label))
		} else {
			b.WriteString("  " + label)
		}
		b.WriteString("\n")
	}
	return t.Body.Render(b.String())
}

func (m Model) sectionView() string {
	t := m.theme
	route := m.nav.Route

	var text string
	switch route.Action {
	case router.ActionNew:
		text = "The form for a new record opens here."
	case router.ActionEdit:
		text = "Record " + route.ID + " opens here for editing."
	default:
		text = "Records of this section are listed here."
	}
	return t.Body.Render(t.PageTitle.Render(route.Title()) + "\n" + t.Muted.Render(text))
}

func (m Model) statusBar() string {
	k := m.keys
	route := m.nav.Route

	var help string
	switch {
	case m.warning.IsVisible(), m.notice.IsVisible(), m.confirm.IsVisible():
		help = ""
	case route.Path == router.LoginPath:
		help = helpLine(k.NextField, k.Submit, k.ForceQuit)
	case route.Access == router.Public:
		help = helpLine(k.Login, k.Back, k.Quit)
	case route.Section == "dashboard-home":
		help = helpLine(k.Up, k.Down, k.Open, k.Logout, k.Quit)
	case route.Action == router.ActionList:
		help = helpLine(k.New, k.Edit, k.Home, k.Back, k.Logout, k.Quit)
	default:
		help = helpLine(k.Home, k.Back, k.Logout, k.Quit)
	}

	status := m.status
	if status == "" && m.deps.Monitor != nil && m.deps.Monitor.IsCurrentlyWatching() {
		status = "idle timeout " + session.FormatCountdown(m.deps.Monitor.Config().Timeout())
	}
	return components.StatusBar(m.theme, m.width, help, status)
}
