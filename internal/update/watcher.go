// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package update

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the binary must stay quiet before a change
// is reported. Installers write the file in several steps.
const DefaultDebounce = time.Second

var (
	// ErrNoPath is returned when the executable path cannot be determined.
	ErrNoPath = errors.New("update: no executable path")

	// ErrReloadUnsupported is returned by Reload where exec is unavailable.
	ErrReloadUnsupported = errors.New("update: in-place reload not supported on this platform")
)

// Event announces that a new build is in place.
type Event struct {
	Path    string
	ModTime time.Time
	Size    int64
}

// Config configures a Watcher.
type Config struct {
	// Path of the binary to watch. Empty selects os.Executable().
	Path string
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration
}

// =============================================================================
// UPDATE WATCHER
// =============================================================================

// Watcher reports replacements of the running binary. It watches the
// containing directory so that rename-over installs are seen too.
type Watcher struct {
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	events   chan Event

	mu        sync.Mutex
	baseline  time.Time
	changedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher records the binary's current modification time as the
// baseline. Only later modification times produce events.
func NewWatcher(cfg Config) (*Watcher, error) {
	p := cfg.Path
	if p == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoPath, err)
		}
		p = exe
	}
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		p = resolved
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", p, err)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		path:     p,
		debounce: debounce,
		watcher:  fw,
		events:   make(chan Event, 1),
		baseline: info.ModTime(),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Path returns the watched binary.
func (w *Watcher) Path() string {
	return w.path
}

// Events delivers at most one pending Event; later builds are reported
// again after the pending one is received.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Watch starts watching.
func (w *Watcher) Watch() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	w.wg.Add(2)
	go w.processEvents()
	go w.processPending()
	return nil
}

// Close stops watching and waits for the goroutines to exit.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()
	name := filepath.Base(w.path)

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.mu.Lock()
				w.changedAt = time.Now()
				w.mu.Unlock()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("UPDATE_WATCH_ERROR | path=%s err=%v", w.path, err)
		}
	}
}

// processPending reports a change once the binary has been quiet for the
// debounce window and its modification time moved.
func (w *Watcher) processPending() {
	defer w.wg.Done()

	interval := w.debounce / 4
	if interval > 100*time.Millisecond {
		interval = 100 * time.Millisecond
	}
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case now := <-ticker.C:
			w.mu.Lock()
			due := !w.changedAt.IsZero() && now.Sub(w.changedAt) >= w.debounce
			if due {
				w.changedAt = time.Time{}
			}
			w.mu.Unlock()

			if due {
				w.check()
			}
		}
	}
}

func (w *Watcher) check() {
	info, err := os.Stat(w.path)
	if err != nil {
		// Mid-install; a later event will follow.
		return
	}

	w.mu.Lock()
	changed := !info.ModTime().Equal(w.baseline)
	if changed {
		w.baseline = info.ModTime()
	}
	w.mu.Unlock()
	if !changed {
		return
	}

	ev := Event{Path: w.path, ModTime: info.ModTime(), Size: info.Size()}
	select {
	case w.events <- ev:
		log.Printf("UPDATE_READY | path=%s modtime=%s", ev.Path, ev.ModTime.Format(time.RFC3339))
	default:
	}
}
