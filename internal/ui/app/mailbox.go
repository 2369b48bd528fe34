// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"net/url"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yairb30/smartfix.samana.front2/internal/router"
	"github.com/yairb30/smartfix.samana.front2/internal/session"
)

// =============================================================================
// MAILBOX
// =============================================================================

// mailMsg carries every message posted since the last delivery, in order.
type mailMsg struct {
	msgs []tea.Msg
}

// Mailbox moves messages from timer and watcher goroutines into the Bubble
// Tea loop. Post never blocks; Wait delivers the backlog as one message so
// that ordering is kept.
type Mailbox struct {
	mu     sync.Mutex
	queue  []tea.Msg
	closed bool

	notify    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Post queues msg. Posts after Close are dropped.
func (m *Mailbox) Post(msg tea.Msg) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.queue = append(m.queue, msg)
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// Drain removes and returns everything queued.
func (m *Mailbox) Drain() []tea.Msg {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.queue
	m.queue = nil
	return msgs
}

// Len returns the number of queued messages.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Wait returns a command that blocks until something is queued. Only one
// Wait may be outstanding; the model re-arms it after each delivery.
func (m *Mailbox) Wait() tea.Cmd {
	return func() tea.Msg {
		for {
			if msgs := m.Drain(); len(msgs) > 0 {
				return mailMsg{msgs: msgs}
			}
			select {
			case <-m.notify:
			case <-m.done:
				return nil
			}
		}
	}
}

// Close releases a pending Wait.
func (m *Mailbox) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		m.mu.Unlock()
		close(m.done)
	})
}

// =============================================================================
// SESSION CONTROLLER ADAPTERS
// =============================================================================

type openWarningMsg struct{ warning session.Warning }

type closeWarningMsg struct{}

type acknowledgeMsg struct{ title, message string }

type navigatedMsg struct{ url string }

// Bridge implements the controller's Dialog and Notifier by posting to the
// mailbox.
type Bridge struct {
	box *Mailbox
}

// NewBridge creates a bridge posting to box.
func NewBridge(box *Mailbox) Bridge {
	return Bridge{box: box}
}

// OpenWarning queues the warning dialog.
func (b Bridge) OpenWarning(w session.Warning) {
	b.box.Post(openWarningMsg{warning: w})
}

// CloseWarning queues closing the warning dialog.
func (b Bridge) CloseWarning() {
	b.box.Post(closeWarningMsg{})
}

// Acknowledge queues a notice.
func (b Bridge) Acknowledge(title, message string) {
	b.box.Post(acknowledgeMsg{title: title, message: message})
}

// RouterNavigator adapts a Router to the controller's Navigator.
type RouterNavigator struct {
	Router *router.Router
}

// Navigate navigates and discards the result; the router's subscribers
// see it.
func (n RouterNavigator) Navigate(path string, query url.Values) {
	n.Router.Navigate(path, query)
}
