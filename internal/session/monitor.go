// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sync"
	"time"

	"github.com/yairb30/smartfix.samana.front2/internal/clock"
)

// State is the monitor state.
type State int

const (
	Idle State = iota
	Watching
)

func (s State) String() string {
	if s == Watching {
		return "watching"
	}
	return "idle"
}

// Status is a point-in-time view of the monitor.
type Status struct {
	State        State
	WarningShown bool
	LastReset    time.Time
	// Deadline and Remaining are zero while Idle.
	Deadline  time.Time
	Remaining time.Duration
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock sets the time source. The default is clock.Real().
func WithClock(c clock.Clock) Option {
	return func(m *Monitor) { m.clock = c }
}

// WithActivitySource sets where user input comes from.
func WithActivitySource(src ActivitySource) Option {
	return func(m *Monitor) { m.source = src }
}

// WithDebounce overrides the activity debounce window.
func WithDebounce(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.debounceWindow = d
		}
	}
}

// =============================================================================
// INACTIVITY MONITOR
// =============================================================================

// Monitor detects idle periods while Watching and fires a warning and then a
// timeout. Every scheduled callback carries the cycle it was scheduled in and
// is dropped if the cycle has since moved on. Observers are always invoked
// without the monitor lock held.
type Monitor struct {
	mu sync.Mutex

	cfg            Config
	clock          clock.Clock
	source         ActivitySource
	debounceWindow time.Duration

	state        State
	warningShown bool
	cycle        uint64
	lastReset    time.Time
	warnTimer    clock.Timer
	timeoutTimer clock.Timer
	detach       func()

	// single pending debounce handle
	debounce    clock.Timer
	debounceSeq uint64

	warningObs observers[func(deadline time.Time)]
	timeoutObs observers[func()]
	stateObs   observers[func(State)]
}

// NewMonitor validates cfg and returns an Idle monitor.
func NewMonitor(cfg Config, opts ...Option) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Monitor{
		cfg:            cfg,
		clock:          clock.Real(),
		debounceWindow: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Config returns the configuration.
func (m *Monitor) Config() Config {
	return m.cfg
}

// IsCurrentlyWatching reports whether the monitor is Watching.
func (m *Monitor) IsCurrentlyWatching() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == Watching
}

// Status returns a snapshot of the monitor.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Status{State: m.state, WarningShown: m.warningShown, LastReset: m.lastReset}
	if m.state == Watching {
		st.Deadline = m.lastReset.Add(m.cfg.Timeout())
		if rem := st.Deadline.Sub(m.clock.Now()); rem > 0 {
			st.Remaining = rem
		}
	}
	return st
}

// Deadline returns when the current cycle times out, or zero while Idle.
func (m *Monitor) Deadline() time.Time {
	return m.Status().Deadline
}

// OnWarning registers fn to run once per cycle when the warning falls due.
// fn receives the timeout deadline of that cycle.
func (m *Monitor) OnWarning(fn func(deadline time.Time)) (cancel func()) {
	return m.warningObs.add(&m.mu, fn)
}

// OnTimeout registers fn to run when the timeout falls due. The monitor is
// already Idle when fn runs.
func (m *Monitor) OnTimeout(fn func()) (cancel func()) {
	return m.timeoutObs.add(&m.mu, fn)
}

// OnStateChange registers fn to run after every Idle/Watching transition.
func (m *Monitor) OnStateChange(fn func(State)) (cancel func()) {
	return m.stateObs.add(&m.mu, fn)
}

func (m *Monitor) observerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.warningObs.len() + m.timeoutObs.len() + m.stateObs.len()
}

// StartWatching moves to Watching and schedules both timers. No-op when
// already Watching.
func (m *Monitor) StartWatching() {
	m.mu.Lock()
	if m.state == Watching {
		m.mu.Unlock()
		return
	}
	m.state = Watching
	m.warningShown = false
	m.scheduleLocked()
	if m.source != nil {
		m.detach = m.source.Listen(m.handleActivity)
	}
	notify := m.stateObs.snapshot()
	m.mu.Unlock()

	for _, fn := range notify {
		fn(Watching)
	}
}

// StopWatching moves to Idle, cancels the timers and detaches from the
// activity source. No-op when already Idle; safe to call from an observer.
func (m *Monitor) StopWatching() {
	m.mu.Lock()
	if m.state == Idle {
		m.mu.Unlock()
		return
	}
	m.stopLocked()
	notify := m.stateObs.snapshot()
	m.mu.Unlock()

	for _, fn := range notify {
		fn(Idle)
	}
}

// ResetTimers restarts the cycle from now and clears the warning flag.
// No-op while Idle.
func (m *Monitor) ResetTimers() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Idle {
		return
	}
	m.warningShown = false
	m.scheduleLocked()
}

// scheduleLocked cancels everything pending and starts a new cycle.
func (m *Monitor) scheduleLocked() {
	m.cancelTimersLocked()
	m.cycle++
	cycle := m.cycle
	m.lastReset = m.clock.Now()
	m.warnTimer = m.clock.AfterFunc(m.cfg.WarnAfter(), func() { m.fireWarning(cycle) })
	m.timeoutTimer = m.clock.AfterFunc(m.cfg.Timeout(), func() { m.fireTimeout(cycle) })
}

func (m *Monitor) cancelTimersLocked() {
	if m.warnTimer != nil {
		m.warnTimer.Stop()
		m.warnTimer = nil
	}
	if m.timeoutTimer != nil {
		m.timeoutTimer.Stop()
		m.timeoutTimer = nil
	}
	if m.debounce != nil {
		m.debounce.Stop()
		m.debounce = nil
	}
	m.debounceSeq++
}

func (m *Monitor) stopLocked() {
	m.state = Idle
	m.cancelTimersLocked()
	m.cycle++
	if m.detach != nil {
		m.detach()
		m.detach = nil
	}
}

func (m *Monitor) fireWarning(cycle uint64) {
	m.mu.Lock()
	if m.state != Watching || cycle != m.cycle || m.warningShown {
		m.mu.Unlock()
		return
	}
	m.warningShown = true
	m.warnTimer = nil
	deadline := m.lastReset.Add(m.cfg.Timeout())
	notify := m.warningObs.snapshot()
	m.mu.Unlock()

	for _, fn := range notify {
		fn(deadline)
	}
}

func (m *Monitor) fireTimeout(cycle uint64) {
	m.mu.Lock()
	if m.state != Watching || cycle != m.cycle {
		m.mu.Unlock()
		return
	}
	m.timeoutTimer = nil
	m.stopLocked()
	states := m.stateObs.snapshot()
	timeouts := m.timeoutObs.snapshot()
	m.mu.Unlock()

	for _, fn := range states {
		fn(Idle)
	}
	for _, fn := range timeouts {
		fn()
	}
}

// handleActivity restarts the trailing debounce window. Once the warning
// has fired, activity is ignored until ResetTimers.
func (m *Monitor) handleActivity(ActivityKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Watching || m.warningShown {
		return
	}
	if m.debounce != nil {
		m.debounce.Stop()
	}
	m.debounceSeq++
	seq := m.debounceSeq
	m.debounce = m.clock.AfterFunc(m.debounceWindow, func() { m.flushActivity(seq) })
}

func (m *Monitor) flushActivity(seq uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Watching || seq != m.debounceSeq || m.warningShown {
		return
	}
	m.debounce = nil
	m.scheduleLocked()
}

// =============================================================================
// OBSERVERS
// =============================================================================

// observers is a registration list guarded by the owner's mutex.
type observers[F any] struct {
	nextID uint64
	list   []observer[F]
}

type observer[F any] struct {
	id uint64
	fn F
}

func (o *observers[F]) add(mu *sync.Mutex, fn F) func() {
	mu.Lock()
	o.nextID++
	id := o.nextID
	o.list = append(o.list, observer[F]{id: id, fn: fn})
	mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			mu.Lock()
			defer mu.Unlock()
			for i, ob := range o.list {
				if ob.id == id {
					o.list = append(o.list[:i], o.list[i+1:]...)
					return
				}
			}
		})
	}
}

func (o *observers[F]) snapshot() []F {
	out := make([]F, len(o.list))
	for i, ob := range o.list {
		out[i] = ob.fn
	}
	return out
}

func (o *observers[F]) len() int {
	return len(o.list)
}
