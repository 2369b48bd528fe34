// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// Where the Timeout Sequence sends the user.
const (
	LoginPath        = "/login"
	ReasonParam      = "reason"
	ReasonInactivity = "inactivity"
)

// Event kinds passed to a Recorder.
const (
	EventWatchStart = "SESSION_WATCH_START"
	EventWatchStop  = "SESSION_WATCH_STOP"
	EventWarning    = "SESSION_WARNING"
	EventExtended   = "SESSION_EXTENDED"
	EventEnded      = "SESSION_ENDED"
	EventTimeout    = "SESSION_TIMEOUT"
)

// Warning describes the dialog the controller asks for.
type Warning struct {
	Title string
	// Body holds one %s verb for the live countdown.
	Body      string
	Deadline  time.Time
	Window    time.Duration
	KeepLabel string
	EndLabel  string
	// Dismissable is always false: only the two actions or the countdown
	// reaching zero close the dialog.
	Dismissable bool
}

// Remaining returns the countdown value at now.
func (w Warning) Remaining(now time.Time) time.Duration {
	if rem := w.Deadline.Sub(now); rem > 0 {
		return rem
	}
	return 0
}

// Text renders Body with the countdown at now.
func (w Warning) Text(now time.Time) string {
	return fmt.Sprintf(w.Body, FormatCountdown(w.Remaining(now)))
}

// FormatCountdown formats d as M:SS, rounding partial seconds up so the
// display reaches 0:00 exactly at the deadline.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// =============================================================================
// COLLABORATORS
// =============================================================================

// Dialog shows and hides the warning.
type Dialog interface {
	OpenWarning(w Warning)
	CloseWarning()
}

// Navigator moves the UI to another route.
type Navigator interface {
	Navigate(path string, query url.Values)
}

// Notifier shows a one-time acknowledgement.
type Notifier interface {
	Acknowledge(title, message string)
}

// SessionStore is the part of the session store the controller uses.
type SessionStore interface {
	IsLoggedIn() bool
	Username() string
	Logout() error
}

// Timers is the part of the monitor the controller uses.
type Timers interface {
	Config() Config
	OnWarning(fn func(deadline time.Time)) (cancel func())
	OnTimeout(fn func()) (cancel func())
	OnStateChange(fn func(State)) (cancel func())
	ResetTimers()
	StopWatching()
}

// Recorder receives session events for the audit trail.
type Recorder interface {
	Record(event, username string, fields map[string]string)
}

// ControllerDeps are the collaborators of a Controller. Recorder is optional.
type ControllerDeps struct {
	Monitor   Timers
	Store     SessionStore
	Dialog    Dialog
	Navigator Navigator
	Notifier  Notifier
	Recorder  Recorder
}

// ErrMissingDependency is returned by NewController.
var ErrMissingDependency = errors.New("session controller: missing dependency")

// =============================================================================
// SESSION CONTROLLER
// =============================================================================

// Controller turns monitor notifications into the warning dialog and the
// Timeout Sequence.
type Controller struct {
	deps ControllerDeps

	mu         sync.Mutex
	dialogOpen bool
	bindings   []func()

	// serialises the Timeout Sequence
	seqMu sync.Mutex
}

// NewController checks deps and returns an unbound controller.
func NewController(deps ControllerDeps) (*Controller, error) {
	switch {
	case deps.Monitor == nil:
		return nil, fmt.Errorf("%w: monitor", ErrMissingDependency)
	case deps.Store == nil:
		return nil, fmt.Errorf("%w: store", ErrMissingDependency)
	case deps.Dialog == nil:
		return nil, fmt.Errorf("%w: dialog", ErrMissingDependency)
	case deps.Navigator == nil:
		return nil, fmt.Errorf("%w: navigator", ErrMissingDependency)
	case deps.Notifier == nil:
		return nil, fmt.Errorf("%w: notifier", ErrMissingDependency)
	}
	return &Controller{deps: deps}, nil
}

// Bind subscribes to the monitor. Calling Bind twice is a no-op.
func (c *Controller) Bind() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bindings != nil {
		return
	}
	c.bindings = []func(){
		c.deps.Monitor.OnWarning(c.handleWarning),
		c.deps.Monitor.OnTimeout(c.handleTimeout),
		c.deps.Monitor.OnStateChange(c.handleStateChange),
	}
}

// Close detaches every monitor subscription made by Bind.
func (c *Controller) Close() {
	c.mu.Lock()
	bindings := c.bindings
	c.bindings = nil
	c.mu.Unlock()

	for _, cancel := range bindings {
		cancel()
	}
}

// DialogOpen reports whether the warning dialog is open.
func (c *Controller) DialogOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dialogOpen
}

// KeepSession handles the "keep session" action.
func (c *Controller) KeepSession() {
	c.mu.Lock()
	if !c.dialogOpen {
		c.mu.Unlock()
		return
	}
	c.dialogOpen = false
	c.mu.Unlock()

	c.deps.Monitor.ResetTimers()
	c.deps.Dialog.CloseWarning()
	c.record(EventExtended, nil)
}

// EndSession handles the "end session now" action.
func (c *Controller) EndSession() {
	c.closeDialog()
	c.record(EventEnded, nil)
	c.runTimeoutSequence()
}

// CountdownExpired is called when the dialog closed itself at zero. The
// monitor's own timeout drives the Timeout Sequence.
func (c *Controller) CountdownExpired() {
	c.mu.Lock()
	c.dialogOpen = false
	c.mu.Unlock()
}

func (c *Controller) handleWarning(deadline time.Time) {
	c.mu.Lock()
	if c.dialogOpen {
		c.mu.Unlock()
		return
	}
	c.dialogOpen = true
	c.mu.Unlock()

	cfg := c.deps.Monitor.Config()
	c.record(EventWarning, map[string]string{"deadline": deadline.Format(time.RFC3339)})
	c.deps.Dialog.OpenWarning(Warning{
		Title:       "Session about to expire",
		Body:        "Your session will end in %s because of inactivity.",
		Deadline:    deadline,
		Window:      cfg.Warning(),
		KeepLabel:   "Keep session",
		EndLabel:    "End session now",
		Dismissable: false,
	})
}

func (c *Controller) handleTimeout() {
	c.record(EventTimeout, nil)
	c.runTimeoutSequence()
}

func (c *Controller) handleStateChange(s State) {
	if s == Watching {
		c.record(EventWatchStart, nil)
		return
	}
	c.record(EventWatchStop, nil)
}

// runTimeoutSequence ends the session. A second run finds no session and
// only makes sure the dialog is closed and the monitor stopped.
func (c *Controller) runTimeoutSequence() {
	c.seqMu.Lock()
	defer c.seqMu.Unlock()

	c.closeDialog()
	c.deps.Monitor.StopWatching()

	wasLoggedIn := c.deps.Store.IsLoggedIn()
	if err := c.deps.Store.Logout(); err != nil {
		log.Printf("SESSION_LOGOUT_FAILED | err=%v", err)
	}
	if !wasLoggedIn {
		return
	}

	c.deps.Navigator.Navigate(LoginPath, url.Values{ReasonParam: {ReasonInactivity}})
	c.deps.Notifier.Acknowledge("Session expired",
		fmt.Sprintf("Your session was closed after %s minutes of inactivity.",
			strconv.FormatFloat(c.deps.Monitor.Config().TimeoutMinutes, 'f', -1, 64)))
}

func (c *Controller) closeDialog() {
	c.mu.Lock()
	open := c.dialogOpen
	c.dialogOpen = false
	c.mu.Unlock()

	if open {
		c.deps.Dialog.CloseWarning()
	}
}

func (c *Controller) record(event string, fields map[string]string) {
	if c.deps.Recorder == nil {
		return
	}
	c.deps.Recorder.Record(event, c.deps.Store.Username(), fields)
}
