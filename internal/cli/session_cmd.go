// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// session_cmd.go - The "session" command: inspect and clean stored tabs.

package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/yairb30/smartfix.samana.front2/internal/audit"
	"github.com/yairb30/smartfix.samana.front2/internal/auth"
	"github.com/yairb30/smartfix.samana.front2/internal/config"
	"github.com/yairb30/smartfix.samana.front2/internal/storage"
	"github.com/yairb30/smartfix.samana.front2/internal/ui/styles"
	"github.com/yairb30/smartfix.samana.front2/internal/util"
)

// inspectTabID scopes the store when a command only reads other tabs.
const inspectTabID = "smartfix-cli"

// DefaultRecentLines is how many audit events "session recent" shows.
const DefaultRecentLines = 20

// ErrNoTab is returned by commands that act on one tab when none is given.
var ErrNoTab = errors.New("no tab selected: pass --tab ID or set " + EnvTabID)

// HandleSession handles "smartfix session [status|clear|prune|recent]".
func HandleSession(args Args) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	p := NewArgParser(args.Raw)

	switch args.Subcommand {
	case "", "status", "list":
		return handleSessionStatus(cfg, resolveTabID(args, false))

	case "clear", "logout":
		return handleSessionClear(cfg, resolveTabID(args, false))

	case "prune":
		maxAge, err := p.FlagDuration("older-than", cfg.StaleTabAge())
		if err != nil {
			return err
		}
		return handleSessionPrune(cfg, maxAge)

	case "recent", "audit":
		n, err := p.FlagInt("lines", DefaultRecentLines)
		if err != nil {
			return err
		}
		return handleSessionRecent(cfg, n)

	default:
		return fmt.Errorf("unknown session subcommand: %s", args.Subcommand)
	}
}

func openTabStore(cfg *config.Config, tabID string) (*storage.TabStore, error) {
	if tabID == "" {
		tabID = inspectTabID
	}
	ts, err := storage.OpenTabStore(cfg.Session.StorePath, tabID)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return ts, nil
}

func handleSessionStatus(cfg *config.Config, tabID string) error {
	ts, err := openTabStore(cfg, tabID)
	if err != nil {
		return err
	}
	defer ts.Close()

	tabs, err := ts.Tabs()
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, TitleStyle.Render("SmartFix Sessions"))
	fmt.Fprintln(stdout, RenderField("Store:", ts.Path()))
	fmt.Fprintln(stdout, RenderSeparator(ruleWidth()))

	if tabID != "" {
		store, err := auth.NewStore(ts)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, RenderField("Tab:", tabID))
		if store.IsLoggedIn() {
			role := "staff"
			if store.IsAdmin() {
				role = "admin"
			}
			fmt.Fprintln(stdout, RenderField("Signed in as:", store.Username()+" ("+role+")"))
		} else {
			fmt.Fprintln(stdout, RenderField("Signed in as:", DimStyle.Render("nobody")))
		}
	}

	fmt.Fprintln(stdout)
	if len(tabs) == 0 {
		fmt.Fprintln(stdout, DimStyle.Render("No stored tabs."))
		return nil
	}

	fmt.Fprintln(stdout, SectionStyle.Render(fmt.Sprintf("%d stored tab(s)", len(tabs))))
	now := time.Now()
	for _, info := range tabs {
		marker := "  "
		if info.TabID == tabID {
			marker = "* "
		}
		fmt.Fprintf(stdout, "%s%s  %s  %s\n",
			marker,
			util.PadRight(util.TruncateWidth(info.TabID, 36), 36),
			util.PadRight(strconv.Itoa(info.Keys)+" keys", 8),
			DimStyle.Render(formatAge(info.UpdatedAt, now)))
	}
	return nil
}

func handleSessionClear(cfg *config.Config, tabID string) error {
	if tabID == "" {
		return ErrNoTab
	}
	ts, err := openTabStore(cfg, tabID)
	if err != nil {
		return err
	}
	defer ts.Close()

	store, err := auth.NewStore(ts)
	if err != nil {
		return err
	}
	user := store.Username()
	wasLoggedIn := store.IsLoggedIn()

	if err := store.Logout(); err != nil {
		return err
	}
	if err := ts.Purge(); err != nil {
		return err
	}

	if wasLoggedIn {
		logger := openAudit(cfg, tabID)
		defer logger.Close()
		if err := logger.LogLogout(user); err != nil {
			return fmt.Errorf("audit: %w", err)
		}
		fmt.Fprintln(stdout, styles.RenderSuccess(fmt.Sprintf("Signed out %s and cleared tab %s", user, tabID)))
		return nil
	}
	fmt.Fprintln(stdout, styles.RenderSuccess("Cleared tab "+tabID))
	return nil
}

func handleSessionPrune(cfg *config.Config, maxAge time.Duration) error {
	ts, err := openTabStore(cfg, "")
	if err != nil {
		return err
	}
	defer ts.Close()

	n, err := ts.PruneStale(maxAge)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, styles.RenderSuccess(fmt.Sprintf("Removed %d stored value(s) older than %s", n, maxAge)))
	return nil
}

func handleSessionRecent(cfg *config.Config, n int) error {
	if !cfg.Audit.Enabled {
		fmt.Fprintln(stdout, DimStyle.Render("Audit logging is disabled."))
		return nil
	}
	events, err := audit.ReadRecent(cfg.Audit.Path, n)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(stdout, DimStyle.Render("No audit events."))
		return nil
	}

	for _, ev := range events {
		outcome := "ok"
		if !ev.Success {
			outcome = "failed: " + ev.Error
		}
		fmt.Fprintf(stdout, "%s  %s  %s  %s  %s\n",
			ev.Timestamp.Local().Format("2006-01-02 15:04:05"),
			util.PadRight(ev.EventType, 20),
			util.PadRight(util.TruncateWidth(ev.Tab, 8), 8),
			util.PadRight(util.TruncateWidth(ev.User, 16), 16),
			outcome)
	}
	return nil
}

// openAudit opens the audit log, or a disabled logger when auditing is off
// or the file cannot be opened.
func openAudit(cfg *config.Config, tabID string) *audit.Logger {
	if !cfg.Audit.Enabled {
		return audit.Disabled()
	}
	logger, err := audit.Open(audit.Config{
		Path:    cfg.Audit.Path,
		MaxSize: cfg.AuditMaxBytes(),
		Tab:     tabID,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Warning: audit log unavailable: %v\n", err)
		return audit.Disabled()
	}
	return logger
}
