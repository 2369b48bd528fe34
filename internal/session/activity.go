// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "sync"

// ActivityKind is a kind of user input that counts as activity.
type ActivityKind int

const (
	PointerMove ActivityKind = iota
	PointerPress
	KeyPress
	TouchStart
	Scroll
)

func (k ActivityKind) String() string {
	switch k {
	case PointerMove:
		return "pointer-move"
	case PointerPress:
		return "pointer-press"
	case KeyPress:
		return "key-press"
	case TouchStart:
		return "touch-start"
	case Scroll:
		return "scroll"
	default:
		return "unknown"
	}
}

// ActivitySource delivers user input events. Listen must not invoke fn
// before returning; the returned func detaches fn.
type ActivitySource interface {
	Listen(fn func(ActivityKind)) (cancel func())
}

// =============================================================================
// ACTIVITY BUS
// =============================================================================

// ActivityBus is an ActivitySource fed by the UI. Listeners run on the
// goroutine calling Emit, outside the bus lock.
type ActivityBus struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners []activityListener
}

type activityListener struct {
	id uint64
	fn func(ActivityKind)
}

// NewActivityBus creates an empty bus.
func NewActivityBus() *ActivityBus {
	return &ActivityBus{}
}

// Listen implements ActivitySource. Calling the cancel func twice is harmless.
func (b *ActivityBus) Listen(fn func(ActivityKind)) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, activityListener{id: id, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, l := range b.listeners {
			if l.id == id {
				b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
				return
			}
		}
	}
}

// Emit delivers one event to every listener.
func (b *ActivityBus) Emit(kind ActivityKind) {
	b.mu.RLock()
	snapshot := make([]activityListener, len(b.listeners))
	copy(snapshot, b.listeners)
	b.mu.RUnlock()

	for _, l := range snapshot {
		l.fn(kind)
	}
}

// Listeners returns the number of attached listeners.
func (b *ActivityBus) Listeners() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}
