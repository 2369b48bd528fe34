// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"log"
	"net/url"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/yairb30/smartfix.samana.front2/internal/audit"
	"github.com/yairb30/smartfix.samana.front2/internal/auth"
	"github.com/yairb30/smartfix.samana.front2/internal/router"
	"github.com/yairb30/smartfix.samana.front2/internal/session"
	"github.com/yairb30/smartfix.samana.front2/internal/ui/components"
	"github.com/yairb30/smartfix.samana.front2/internal/ui/styles"
	"github.com/yairb30/smartfix.samana.front2/internal/update"
)

// updateConfirmID identifies the reload confirmation.
const updateConfirmID = "update"

// =============================================================================
// DEPENDENCIES
// =============================================================================

// LoginFunc authenticates against the backend.
type LoginFunc func(ctx context.Context, creds auth.Credentials) (auth.Session, error)

// SessionActions is the part of the session controller the UI drives.
type SessionActions interface {
	KeepSession()
	EndSession()
	CountdownExpired()
}

// Deps are the collaborators of the root model.
type Deps struct {
	Store        *auth.Store
	Login        LoginFunc
	LoginTimeout time.Duration
	Router       *router.Router
	Monitor      *session.Monitor
	Activity     *session.ActivityBus
	Controller   SessionActions
	Mailbox      *Mailbox
	// Audit may be nil.
	Audit *audit.Logger
	// Updates may be nil when update watching is off.
	Updates <-chan update.Event
	// Now defaults to time.Now.
	Now func() time.Time
	// Theme defaults to styles.NewTheme().
	Theme *styles.Theme
}

// =============================================================================
// MESSAGES
// =============================================================================

type loginResultMsg struct {
	username string
	session  auth.Session
	err      error
}

type updateReadyMsg struct {
	event update.Event
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the root Bubble Tea model.
type Model struct {
	deps  Deps
	keys  KeyMap
	theme *styles.Theme

	width  int
	height int

	nav    router.Navigation
	header *components.Header

	warning components.WarningDialog
	notice  components.Notice
	confirm components.ConfirmDialog

	username  textinput.Model
	password  textinput.Model
	loginErr  string
	loggingIn bool

	selected int
	status   string

	pendingUpdate *update.Event
	reloadPath    string

	unsubscribe func()
}

// New builds the root model and subscribes it to the router.
func New(deps Deps) Model {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Theme == nil {
		deps.Theme = styles.NewTheme()
	}
	if deps.LoginTimeout <= 0 {
		deps.LoginTimeout = 15 * time.Second
	}

	user := textinput.New()
	user.Placeholder = "username"
	user.CharLimit = 64
	user.Prompt = "› "

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.CharLimit = 128
	pass.Prompt = "› "
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'

	m := Model{
		deps:     deps,
		keys:     DefaultKeyMap(),
		theme:    deps.Theme,
		header:   components.NewHeader(deps.Theme),
		warning:  components.NewWarningDialog(deps.Theme, deps.Now),
		notice:   components.NewNotice(deps.Theme),
		confirm:  components.NewConfirmDialog(deps.Theme),
		username: user,
		password: pass,
		nav:      deps.Router.Current(),
	}
	m.username.Focus()

	box := deps.Mailbox
	m.unsubscribe = deps.Router.Subscribe(func(u string) {
		box.Post(navigatedMsg{url: u})
	})
	m.syncHeader()
	return m
}

// ReloadRequested returns the binary to re-exec after the program exits.
func (m Model) ReloadRequested() (string, bool) {
	return m.reloadPath, m.reloadPath != ""
}

// Close detaches the router subscription and releases the mailbox.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.deps.Mailbox.Close()
}

// Init starts the mailbox and update listeners.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.deps.Mailbox.Wait(), m.waitForUpdate())
}

func (m Model) waitForUpdate() tea.Cmd {
	ch := m.deps.Updates
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return updateReadyMsg{event: ev}
	}
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles all messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.deps.Activity.Emit(session.KeyPress)
		return m.handleKey(msg)

	case tea.MouseMsg:
		if kind, ok := activityForMouse(msg); ok {
			m.deps.Activity.Emit(kind)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		// Dialogs fill the area between the one-line header and footer.
		body := msg.Height - 2
		if body < 0 {
			body = 0
		}
		m.warning.SetSize(msg.Width, body)
		m.notice.SetSize(msg.Width, body)
		m.confirm.SetSize(msg.Width, body)
		m.header.Width = msg.Width
		return m, nil

	case mailMsg:
		cmds := make([]tea.Cmd, 0, len(msg.msgs)+1)
		var model tea.Model = m
		for _, inner := range msg.msgs {
			var cmd tea.Cmd
			model, cmd = model.Update(inner)
			cmds = append(cmds, cmd)
		}
		cmds = append(cmds, m.deps.Mailbox.Wait())
		return model, tea.Batch(cmds...)

	case openWarningMsg:
		return m, m.warning.Show(msg.warning)

	case closeWarningMsg:
		m.warning.Hide()
		return m, nil

	case acknowledgeMsg:
		m.notice.Show(msg.title, msg.message)
		return m, nil

	case navigatedMsg:
		return m.handleNavigated(), nil

	case components.WarningTickMsg:
		var cmd tea.Cmd
		m.warning, cmd = m.warning.Update(msg)
		return m, cmd

	case components.KeepSessionMsg:
		m.deps.Controller.KeepSession()
		return m, nil

	case components.EndSessionMsg:
		m.deps.Controller.EndSession()
		return m, nil

	case components.CountdownExpiredMsg:
		m.deps.Controller.CountdownExpired()
		return m, nil

	case components.NoticeDismissedMsg:
		return m, nil

	case components.ConfirmResultMsg:
		return m.handleConfirm(msg)

	case loginResultMsg:
		return m.handleLoginResult(msg)

	case updateReadyMsg:
		return m.handleUpdateReady(msg)
	}

	return m.updateInputs(msg)
}

func activityForMouse(msg tea.MouseMsg) (session.ActivityKind, bool) {
	switch msg.Type {
	case tea.MouseWheelUp, tea.MouseWheelDown:
		return session.Scroll, true
	case tea.MouseMotion:
		return session.PointerMove, true
	case tea.MouseRelease, tea.MouseUnknown:
		return 0, false
	default:
		return session.PointerPress, true
	}
}

// handleKey routes a key to the topmost modal, else to the page.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, tea.Quit
	}

	var cmd tea.Cmd
	switch {
	case m.warning.IsVisible():
		m.warning, cmd = m.warning.Update(msg)
		return m, cmd
	case m.notice.IsVisible():
		m.notice, cmd = m.notice.Update(msg)
		return m, cmd
	case m.confirm.IsVisible():
		m.confirm, cmd = m.confirm.Update(msg)
		return m, cmd
	}

	m.status = ""
	if m.nav.Route.Path == router.LoginPath {
		return m.handleLoginKey(msg)
	}
	return m.handlePageKey(msg)
}

func (m Model) handleNavigated() Model {
	prev := m.nav.Route.Path
	m.nav = m.deps.Router.Current()
	if m.nav.Route.Path == router.LoginPath && prev != router.LoginPath {
		m.resetLoginForm()
	}
	if m.nav.Route.Section == "dashboard-home" && prev != m.nav.Route.Path {
		m.selected = 0
	}
	m.syncHeader()
	return m
}

func (m *Model) syncHeader() {
	m.header.Route = m.nav.Route.Title()
	m.header.User = m.deps.Store.Username()
	m.header.Admin = m.deps.Store.IsAdmin()
	if !m.deps.Store.IsLoggedIn() {
		m.header.User = ""
	}
}

func (m Model) navigate(path string, query url.Values) Model {
	m.deps.Router.Navigate(path, query)
	return m.handleNavigated()
}

// =============================================================================
// LOGIN PAGE
// =============================================================================

func (m *Model) resetLoginForm() {
	m.password.Reset()
	m.loginErr = ""
	m.loggingIn = false
	m.password.Blur()
	m.username.Focus()
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		if m.username.Focused() {
			m.username.Blur()
			return m, m.password.Focus()
		}
		return m.submitLogin()

	case key.Matches(msg, m.keys.NextField), key.Matches(msg, m.keys.PrevField):
		if m.username.Focused() {
			m.username.Blur()
			return m, m.password.Focus()
		}
		m.password.Blur()
		return m, m.username.Focus()
	}
	return m.updateInputs(msg)
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var c1, c2 tea.Cmd
	m.username, c1 = m.username.Update(msg)
	m.password, c2 = m.password.Update(msg)
	return m, tea.Batch(c1, c2)
}

func (m Model) submitLogin() (tea.Model, tea.Cmd) {
	if m.loggingIn {
		return m, nil
	}
	creds := auth.Credentials{Username: m.username.Value(), Password: m.password.Value()}
	if creds.Username == "" || creds.Password == "" {
		m.loginErr = "Enter your username and password."
		return m, nil
	}

	m.loggingIn = true
	m.loginErr = ""
	login, timeout := m.deps.Login, m.deps.LoginTimeout
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		sess, err := login(ctx, creds)
		return loginResultMsg{username: creds.Username, session: sess, err: err}
	}
}

func (m Model) handleLoginResult(msg loginResultMsg) (tea.Model, tea.Cmd) {
	m.loggingIn = false
	if msg.err == nil {
		msg.err = m.deps.Store.SetSession(msg.session)
	}
	if err := m.deps.Audit.LogLogin(msg.username, msg.err); err != nil {
		log.Printf("AUDIT_WRITE_FAILED | event=%s err=%v", audit.EventLogin, err)
	}
	if msg.err != nil {
		m.loginErr = loginErrorText(msg.err)
		m.password.Reset()
		return m, nil
	}

	log.Printf("LOGIN_OK | user=%s admin=%t", msg.session.Username, msg.session.IsAdmin)
	m.password.Reset()
	return m.navigate(router.HomePath, nil), nil
}

func loginErrorText(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid username or password."
	case errors.Is(err, auth.ErrRateLimited):
		return "Too many attempts. Wait a moment and try again."
	case errors.Is(err, context.DeadlineExceeded):
		return "The server did not answer in time."
	default:
		return "Sign-in failed: " + err.Error()
	}
}

// =============================================================================
// OTHER PAGES
// =============================================================================

func (m Model) handlePageKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	route := m.nav.Route

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Back):
		if _, ok := m.deps.Router.Back(); ok {
			return m.handleNavigated(), nil
		}
		return m, nil
	}

	if route.Access == router.Public {
		if key.Matches(msg, m.keys.Login) {
			return m.navigate(router.LoginPath, nil), nil
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Logout):
		return m.logout(), nil
	case key.Matches(msg, m.keys.Home):
		return m.navigate(router.HomePath, nil), nil
	}

	if route.Section == "dashboard-home" {
		switch {
		case key.Matches(msg, m.keys.Up):
			m.selected = (m.selected + len(router.Sections) - 1) % len(router.Sections)
		case key.Matches(msg, m.keys.Down):
			m.selected = (m.selected + 1) % len(router.Sections)
		case key.Matches(msg, m.keys.Open):
			return m.navigate(router.DashboardPath+"/"+router.Sections[m.selected], nil), nil
		}
		return m, nil
	}

	if route.Action == router.ActionList {
		base := router.DashboardPath + "/" + route.Section
		switch {
		case key.Matches(msg, m.keys.New):
			return m.navigate(base+"/"+router.ActionNew, nil), nil
		case key.Matches(msg, m.keys.Edit):
			return m.navigate(base+"/"+router.ActionEdit+"/1", nil), nil
		}
	}
	return m, nil
}

func (m Model) logout() Model {
	user := m.deps.Store.Username()
	if err := m.deps.Store.Logout(); err != nil {
		log.Printf("SESSION_LOGOUT_FAILED | err=%v", err)
	}
	if err := m.deps.Audit.LogLogout(user); err != nil {
		log.Printf("AUDIT_WRITE_FAILED | event=%s err=%v", audit.EventLogout, err)
	}
	return m.navigate(router.LoginPath, nil)
}

// =============================================================================
// UPDATE NOTIFICATION
// =============================================================================

func (m Model) handleUpdateReady(msg updateReadyMsg) (tea.Model, tea.Cmd) {
	ev := msg.event
	m.pendingUpdate = &ev
	if err := m.deps.Audit.LogUpdateReady(ev.Path, ev.ModTime); err != nil {
		log.Printf("AUDIT_WRITE_FAILED | event=%s err=%v", audit.EventUpdateReady, err)
	}
	m.confirm.Show(updateConfirmID, "Update available",
		"A new version of SmartFix is installed. Reload now? Unsaved input on this page will be lost.")
	return m, m.waitForUpdate()
}

func (m Model) handleConfirm(msg components.ConfirmResultMsg) (tea.Model, tea.Cmd) {
	if msg.ID != updateConfirmID || m.pendingUpdate == nil {
		return m, nil
	}
	if !msg.Confirmed {
		m.status = "Update postponed until next start"
		return m, nil
	}
	m.reloadPath = m.pendingUpdate.Path
	return m, tea.Quit
}
