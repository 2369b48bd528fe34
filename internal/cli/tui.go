// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tui.go - Wiring and lifecycle of the interactive client.

package cli

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yairb30/smartfix.samana.front2/internal/audit"
	"github.com/yairb30/smartfix.samana.front2/internal/auth"
	"github.com/yairb30/smartfix.samana.front2/internal/config"
	"github.com/yairb30/smartfix.samana.front2/internal/router"
	"github.com/yairb30/smartfix.samana.front2/internal/session"
	"github.com/yairb30/smartfix.samana.front2/internal/storage"
	"github.com/yairb30/smartfix.samana.front2/internal/ui/app"
	"github.com/yairb30/smartfix.samana.front2/internal/update"
)

// lastURLKey keeps the current page in the tab store so a reload resumes it.
const lastURLKey = "last_url"

// HandleTUI runs the interactive client until the user quits or accepts an
// update. On an accepted update the process is replaced by the new build
// with the same tab id, so the session survives.
func HandleTUI(args Args) error {
	if err := RequiresTTY("start the interactive client"); err != nil {
		return err
	}
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	closeLog, err := setupDiagnostics(args.Verbose)
	if err != nil {
		return err
	}
	defer closeLog()

	tabID := resolveTabID(args, true)
	if err := os.Setenv(EnvTabID, tabID); err != nil {
		return fmt.Errorf("set %s: %w", EnvTabID, err)
	}

	reloadPath, err := runTUI(cfg, tabID)
	if err != nil || reloadPath == "" {
		return err
	}

	log.Printf("UPDATE_RELOAD | tab=%s path=%s", tabID, reloadPath)
	reloadErr := update.Reload(reloadPath)

	// Reload only returns on failure.
	logger := openAudit(cfg, tabID)
	defer logger.Close()
	recordReload(logger, reloadPath, reloadErr)
	return fmt.Errorf("reload into new version: %w", reloadErr)
}

// setupDiagnostics sends the standard logger to ~/.smartfix/debug.log in
// verbose mode and discards it otherwise; the TUI owns the terminal.
func setupDiagnostics(verbose bool) (func(), error) {
	if !verbose {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	f, err := tea.LogToFile(filepath.Join(dir, "debug.log"), "smartfix")
	if err != nil {
		return nil, fmt.Errorf("open debug log: %w", err)
	}
	return func() { f.Close() }, nil
}

// runTUI builds the object graph, runs the program, and returns the binary
// to reload into, or "" after a normal quit. A normal quit closes the tab
// and drops its stored values.
func runTUI(cfg *config.Config, tabID string) (string, error) {
	ts, err := storage.OpenTabStore(cfg.Session.StorePath, tabID)
	if err != nil {
		return "", fmt.Errorf("open session store: %w", err)
	}
	defer ts.Close()

	if n, err := ts.PruneStale(cfg.StaleTabAge()); err != nil {
		log.Printf("STORE_PRUNE_FAILED | err=%v", err)
	} else if n > 0 {
		log.Printf("STORE_PRUNED | rows=%d", n)
	}

	store, err := auth.NewStore(ts)
	if err != nil {
		return "", err
	}

	logger := openAudit(cfg, tabID)
	defer logger.Close()

	inactivity, err := cfg.Inactivity()
	if err != nil {
		return "", err
	}
	bus := session.NewActivityBus()
	monitor, err := session.NewMonitor(inactivity, session.WithActivitySource(bus))
	if err != nil {
		return "", err
	}
	defer monitor.StopWatching()

	rt := router.New(store)
	box := app.NewMailbox()
	bridge := app.NewBridge(box)

	ctrl, err := session.NewController(session.ControllerDeps{
		Monitor:   monitor,
		Store:     store,
		Dialog:    bridge,
		Navigator: app.RouterNavigator{Router: rt},
		Notifier:  bridge,
		Recorder:  logger,
	})
	if err != nil {
		return "", err
	}
	ctrl.Bind()
	defer ctrl.Close()

	rt.Navigate(resumeURL(ts, store), nil)
	defer session.NewGate(store, monitor).Attach(rt)()
	defer rt.Subscribe(func(u string) {
		if err := ts.Set(lastURLKey, u); err != nil {
			log.Printf("STORE_WRITE_FAILED | key=%s err=%v", lastURLKey, err)
		}
	})()

	var updates <-chan update.Event
	if cfg.Update.Enabled {
		w, err := update.NewWatcher(update.Config{Path: cfg.Update.WatchPath, Debounce: cfg.UpdateDebounce()})
		if err == nil {
			err = w.Watch()
		}
		if err != nil {
			log.Printf("UPDATE_WATCH_DISABLED | err=%v", err)
		} else {
			defer w.Close()
			updates = w.Events()
		}
	}

	client := auth.NewClient(auth.ClientConfig{
		BaseURL:   cfg.API.BaseURL,
		LoginPath: cfg.API.LoginPath,
		Timeout:   cfg.APITimeout(),
	})

	model := app.New(app.Deps{
		Store:        store,
		Login:        client.Login,
		LoginTimeout: cfg.APITimeout(),
		Router:       rt,
		Monitor:      monitor,
		Activity:     bus,
		Controller:   ctrl,
		Mailbox:      box,
		Audit:        logger,
		Updates:      updates,
	})

	var opts []tea.ProgramOption
	if cfg.UI.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if cfg.UI.Mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}

	log.Printf("TUI_START | tab=%s user=%s url=%s", tabID, store.Username(), rt.CurrentURL())
	final, err := tea.NewProgram(model, opts...).Run()
	model.Close()
	if err != nil {
		return "", fmt.Errorf("run interface: %w", err)
	}

	if m, ok := final.(app.Model); ok {
		if path, reload := m.ReloadRequested(); reload {
			recordReload(logger, path, nil)
			return path, nil
		}
	}

	log.Printf("TUI_EXIT | tab=%s", tabID)
	if err := ts.Purge(); err != nil {
		log.Printf("STORE_PURGE_FAILED | err=%v", err)
	}
	return "", nil
}

// resumeURL is the page to open at start: the last page of this tab, else
// the dashboard for a live session, else the root (which resolves to login).
func resumeURL(ts *storage.TabStore, store *auth.Store) string {
	if u, ok, err := ts.Get(lastURLKey); err == nil && ok && u != "" {
		return u
	}
	if store.IsLoggedIn() {
		return router.HomePath
	}
	return "/"
}

// recordReload audits a reload. A failed write goes to the diagnostic log.
func recordReload(logger *audit.Logger, path string, reloadErr error) {
	if err := logger.LogReload(path, reloadErr); err != nil {
		log.Printf("AUDIT_WRITE_FAILED | event=%s err=%v", audit.EventReload, err)
	}
}
