// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"
)

type fakeDialog struct {
	opens  []Warning
	closes int
}

func (d *fakeDialog) OpenWarning(w Warning) { d.opens = append(d.opens, w) }
func (d *fakeDialog) CloseWarning() { d.closes++ }

type navCall struct {
	path  string
	query url.Values
}

type fakeNavigator struct{ calls []navCall }

func (n *fakeNavigator) Navigate(path string, query url.Values) {
	n.calls = append(n.calls, navCall{path: path, query: query})
}

type fakeNotifier struct{ titles []string }

func (n *fakeNotifier) Acknowledge(title, message string) { n.titles = append(n.titles, title) }

type recordedEvent struct {
	event    string
	username string
}

type fakeRecorder struct{ events []recordedEvent }

func (r *fakeRecorder) Record(event, username string, fields map[string]string) {
	r.events = append(r.events, recordedEvent{event: event, username: username})
}

func (r *fakeRecorder) kinds() []string {
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.event
	}
	return out
}

// brokenStore fails to clear persisted state but still forgets the token.
type brokenStore struct{ loggedIn bool }

func (s *brokenStore) IsLoggedIn() bool { return s.loggedIn }
func (s *brokenStore) Username() string { return "ana" }
func (s *brokenStore) Logout() error { s.loggedIn = false; return errors.New("disk full") }

type controllerFixture struct {
	*monitorFixture
	dialog   *fakeDialog
	nav      *fakeNavigator
	notifier *fakeNotifier
	recorder *fakeRecorder
	ctrl     *Controller
}

func newControllerFixture(t *testing.T, store SessionStore) *controllerFixture {
	t.Helper()
	f := &controllerFixture{
		monitorFixture: newMonitorFixture(t, DefaultConfig()),
		dialog:         &fakeDialog{},
		nav:            &fakeNavigator{},
		notifier:       &fakeNotifier{},
		recorder:       &fakeRecorder{},
	}
	ctrl, err := NewController(ControllerDeps{
		Monitor:   f.mon,
		Store:     store,
		Dialog:    f.dialog,
		Navigator: f.nav,
		Notifier:  f.notifier,
		Recorder:  f.recorder,
	})
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	ctrl.Bind()
	f.ctrl = ctrl
	return f
}

func (f *controllerFixture) assertTimedOut(t *testing.T) {
	t.Helper()
	if len(f.nav.calls) != 1 {
		t.Fatalf("navigations = %d, want 1", len(f.nav.calls))
	}
	call := f.nav.calls[0]
	if call.path != LoginPath {
		t.Errorf("navigated to %q, want %q", call.path, LoginPath)
	}
	if got := call.query.Get(ReasonParam); got != ReasonInactivity {
		t.Errorf("reason = %q, want %q", got, ReasonInactivity)
	}
	if len(f.notifier.titles) != 1 {
		t.Errorf("acknowledgements = %d, want 1", len(f.notifier.titles))
	}
	if f.mon.IsCurrentlyWatching() {
		t.Error("monitor still watching after the Timeout Sequence")
	}
	if f.clk.Pending() != 0 {
		t.Errorf("%d timers still pending", f.clk.Pending())
	}
}

// =============================================================================
// CONSTRUCTION TESTS
// =============================================================================

func TestNewController_MissingDependency(t *testing.T) {
	_, err := NewController(ControllerDeps{})
	if !errors.Is(err, ErrMissingDependency) {
		t.Errorf("error = %v, want ErrMissingDependency", err)
	}
}

func TestController_BindAndClose(t *testing.T) {
	f := newControllerFixture(t, newStore(t, true))
	base := f.mon.observerCount()

	f.ctrl.Bind()
	if f.mon.observerCount() != base {
		t.Errorf("second Bind added observers: %d -> %d", base, f.mon.observerCount())
	}

	f.ctrl.Close()
	if got := f.mon.observerCount(); got != base-3 {
		t.Errorf("observers after Close = %d, want %d", got, base-3)
	}

	f.mon.StartWatching()
	f.clk.Advance(15 * time.Minute)
	if len(f.dialog.opens) != 0 || len(f.nav.calls) != 0 {
		t.Error("closed controller still reacted to the monitor")
	}
}

// =============================================================================
// WARNING TESTS
// =============================================================================

func TestController_WarningOpensDialog(t *testing.T) {
	f := newControllerFixture(t, newStore(t, true))
	f.mon.StartWatching()
	f.clk.Advance(13 * time.Minute)

	if len(f.dialog.opens) != 1 {
		t.Fatalf("dialog opens = %d, want 1", len(f.dialog.opens))
	}
	w := f.dialog.opens[0]
	if w.Dismissable {
		t.Error("warning dialog is dismissable")
	}
	if w.KeepLabel != "Keep session" || w.EndLabel != "End session now" {
		t.Errorf("labels = %q / %q", w.KeepLabel, w.EndLabel)
	}
	if !w.Deadline.Equal(testStart.Add(15 * time.Minute)) {
		t.Errorf("Deadline = %v, want the monitor's timeout", w.Deadline)
	}
	if w.Window != 2*time.Minute {
		t.Errorf("Window = %v, want 2m", w.Window)
	}
	if text := w.Text(f.clk.Now()); !strings.Contains(text, "2:00") {
		t.Errorf("Text() = %q, want countdown 2:00", text)
	}
	if text := w.Text(f.clk.Now().Add(90 * time.Second)); !strings.Contains(text, "0:30") {
		t.Errorf("Text() = %q, want countdown 0:30", text)
	}
	if !f.ctrl.DialogOpen() {
		t.Error("DialogOpen() = false")
	}
}

func TestController_AtMostOneDialog(t *testing.T) {
	f := newControllerFixture(t, newStore(t, true))
	deadline := testStart.Add(15 * time.Minute)

	f.ctrl.handleWarning(deadline)
	f.ctrl.handleWarning(deadline)

	if len(f.dialog.opens) != 1 {
		t.Errorf("dialog opens = %d, want 1", len(f.dialog.opens))
	}
}

func TestController_KeepSession(t *testing.T) {
	f := newControllerFixture(t, newStore(t, true))
	f.mon.StartWatching()
	f.clk.Advance(13 * time.Minute)
	before := f.resets()

	f.ctrl.KeepSession()

	if f.resets() != before+1 {
		t.Errorf("ResetTimers calls = %d, want 1", f.resets()-before)
	}
	if f.dialog.closes != 1 {
		t.Errorf("dialog closes = %d, want 1", f.dialog.closes)
	}
	if f.ctrl.DialogOpen() {
		t.Error("dialog still open")
	}
	st := f.mon.Status()
	if st.State != Watching {
		t.Error("monitor not watching after keep session")
	}
	if st.WarningShown {
		t.Error("warning flag still set after keep session")
	}

	// The old deadline passes without a timeout.
	f.clk.Advance(2 * time.Minute)
	if len(f.nav.calls) != 0 {
		t.Error("session ended at the pre-extension deadline")
	}

	// A second keep without a dialog is ignored.
	f.ctrl.KeepSession()
	if f.resets() != before+1 {
		t.Error("KeepSession without an open dialog reset the timers")
	}
}

func TestController_EndSessionNow(t *testing.T) {
	store := newStore(t, true)
	f := newControllerFixture(t, store)
	f.mon.StartWatching()
	f.clk.Advance(13 * time.Minute)

	f.ctrl.EndSession()

	if store.IsLoggedIn() {
		t.Error("store not cleared")
	}
	if f.dialog.closes != 1 {
		t.Errorf("dialog closes = %d, want 1", f.dialog.closes)
	}
	f.assertTimedOut(t)

	// The monitor's own timeout never arrives.
	f.clk.Advance(time.Hour)
	if len(f.notifier.titles) != 1 {
		t.Errorf("acknowledgements = %d after the original deadline, want 1", len(f.notifier.titles))
	}
}

func TestController_CountdownExpired(t *testing.T) {
	store := newStore(t, true)
	f := newControllerFixture(t, store)
	f.mon.StartWatching()
	f.clk.Advance(13 * time.Minute)

	f.ctrl.CountdownExpired()
	if f.ctrl.DialogOpen() {
		t.Error("dialog flag still set")
	}
	if !store.IsLoggedIn() || len(f.nav.calls) != 0 {
		t.Fatal("countdown expiry ended the session by itself")
	}

	f.clk.Advance(2 * time.Minute)
	if store.IsLoggedIn() {
		t.Error("monitor timeout did not clear the store")
	}
	if f.dialog.closes != 0 {
		t.Errorf("dialog closed %d times after it closed itself", f.dialog.closes)
	}
	f.assertTimedOut(t)
}

// =============================================================================
// TIMEOUT SEQUENCE TESTS
// =============================================================================

func TestController_EndToEndTimeout(t *testing.T) {
	store := newStore(t, true)
	f := newControllerFixture(t, store)
	nav := &fakeNav{url: "/dashboard"}
	NewGate(store, f.mon).Attach(nav)

	f.clk.Advance(15 * time.Minute)

	if store.IsLoggedIn() {
		t.Error("store not cleared after timeout")
	}
	if f.dialog.closes != 1 {
		t.Errorf("warning dialog closes = %d, want 1", f.dialog.closes)
	}
	f.assertTimedOut(t)

	f.clk.Advance(time.Hour)
	if len(f.dialog.opens) != 1 {
		t.Errorf("dialog opens = %d, want 1", len(f.dialog.opens))
	}
}

func TestController_TimeoutSequenceIdempotent(t *testing.T) {
	f := newControllerFixture(t, newStore(t, true))
	f.mon.StartWatching()

	f.ctrl.runTimeoutSequence()
	f.ctrl.runTimeoutSequence()

	f.assertTimedOut(t)
}

func TestController_TimeoutWhenAlreadySignedOut(t *testing.T) {
	f := newControllerFixture(t, newStore(t, false))
	f.mon.StartWatching()

	f.ctrl.EndSession()

	if len(f.nav.calls) != 0 || len(f.notifier.titles) != 0 {
		t.Error("signed-out tab was redirected or notified")
	}
	if f.mon.IsCurrentlyWatching() {
		t.Error("monitor not stopped")
	}
}

func TestController_LogoutFailureIsBestEffort(t *testing.T) {
	f := newControllerFixture(t, &brokenStore{loggedIn: true})
	f.mon.StartWatching()

	f.clk.Advance(15 * time.Minute)

	f.assertTimedOut(t)
}

func TestController_RecordsEvents(t *testing.T) {
	f := newControllerFixture(t, newStore(t, true))
	f.mon.StartWatching()
	f.clk.Advance(13 * time.Minute)
	f.ctrl.KeepSession()
	f.clk.Advance(15 * time.Minute)

	want := []string{
		EventWatchStart,
		EventWarning,
		EventExtended,
		EventWarning,
		EventWatchStop,
		EventTimeout,
	}
	got := f.recorder.kinds()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", got, want)
	}
	for _, e := range f.recorder.events {
		if e.username != "ana" {
			t.Errorf("%s recorded for %q, want ana", e.event, e.username)
		}
	}
}
