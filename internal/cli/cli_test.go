// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yairb30/smartfix.samana.front2/internal/audit"
	"github.com/yairb30/smartfix.samana.front2/internal/auth"
	"github.com/yairb30/smartfix.samana.front2/internal/config"
	"github.com/yairb30/smartfix.samana.front2/internal/router"
	"github.com/yairb30/smartfix.samana.front2/internal/storage"
	"github.com/yairb30/smartfix.samana.front2/internal/ui/styles"
)

// isolate points HOME at a temp dir, clears SMARTFIX_* variables, and
// captures command output.
func isolate(t *testing.T) (home string, out *bytes.Buffer) {
	t.Helper()
	home = t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	for _, k := range []string{
		config.EnvAPIURL, config.EnvTimeoutMinutes, config.EnvWarningMinutes,
		config.EnvStorePath, config.EnvNoUpdateWatch, config.EnvAuditPath, EnvTabID,
	} {
		t.Setenv(k, "")
	}

	out = &bytes.Buffer{}
	oldOut, oldErr := stdout, stderr
	stdout, stderr = out, out
	t.Cleanup(func() {
		stdout, stderr = oldOut, oldErr
	})
	return home, out
}

func run(t *testing.T, argv ...string) error {
	t.Helper()
	cmd, args := ParseArgs(argv)
	return Run(cmd, args)
}

// =============================================================================
// ARG PARSER TESTS
// =============================================================================

func TestArgParser_BasicParsing(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantSub  string
		validate func(*testing.T, *ArgParser)
	}{
		{
			name:    "simple subcommand",
			args:    []string{"status"},
			wantSub: "status",
		},
		{
			name:    "subcommand with flag",
			args:    []string{"recent", "--lines", "50"},
			wantSub: "recent",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("lines") != "50" {
					t.Errorf("Flag(lines) = %q, want %q", p.Flag("lines"), "50")
				}
			},
		},
		{
			name:    "flag with equals",
			args:    []string{"prune", "--older-than=48h"},
			wantSub: "prune",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("older-than") != "48h" {
					t.Errorf("Flag(older-than) = %q, want %q", p.Flag("older-than"), "48h")
				}
			},
		},
		{
			name:    "boolean flag",
			args:    []string{"init", "--force"},
			wantSub: "init",
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("force") {
					t.Error("BoolFlag(force) should be true")
				}
			},
		},
		{
			name:    "explicit false",
			args:    []string{"init", "--force=false"},
			wantSub: "init",
			validate: func(t *testing.T, p *ArgParser) {
				if p.BoolFlag("force") {
					t.Error("BoolFlag(force) should be false")
				}
			},
		},
		{
			name:    "positional args",
			args:    []string{"set", "session.timeout_minutes", "30"},
			wantSub: "set",
			validate: func(t *testing.T, p *ArgParser) {
				if p.PositionalCount() != 3 {
					t.Errorf("PositionalCount() = %d, want 3", p.PositionalCount())
				}
				if p.Positional(2) != "30" {
					t.Errorf("Positional(2) = %q, want %q", p.Positional(2), "30")
				}
				if p.Positional(5) != "" {
					t.Errorf("Positional(5) = %q, want empty", p.Positional(5))
				}
			},
		},
		{
			name:    "no args",
			args:    nil,
			wantSub: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewArgParser(tt.args)
			if p.Subcommand() != tt.wantSub {
				t.Errorf("Subcommand() = %q, want %q", p.Subcommand(), tt.wantSub)
			}
			if tt.validate != nil {
				tt.validate(t, p)
			}
		})
	}
}

func TestArgParser_FlagInt(t *testing.T) {
	p := NewArgParser([]string{"recent", "--lines", "5", "--bad", "x", "--neg", "-3"})

	n, err := p.FlagInt("lines", 20)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = p.FlagInt("missing", 20)
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	_, err = p.FlagInt("bad", 20)
	assert.Error(t, err)

	// "-3" looks like a flag, so --neg is boolean and has no value.
	n, err = p.FlagInt("neg", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestArgParser_FlagDuration(t *testing.T) {
	p := NewArgParser([]string{"prune", "--older-than", "90m", "--zero", "0s", "--junk", "soon"})

	d, err := p.FlagDuration("older-than", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, d)

	d, err = p.FlagDuration("missing", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, d)

	_, err = p.FlagDuration("zero", time.Hour)
	assert.Error(t, err)
	_, err = p.FlagDuration("junk", time.Hour)
	assert.Error(t, err)
}

func TestParseIntWithValidation(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"1", 1, false},
		{"250", 250, false},
		{"0", 0, true},
		{"-4", 0, true},
		{"ten", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseIntWithValidation(tt.input, "lines")
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseIntWithValidation(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseIntWithValidation(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

// =============================================================================
// COMMAND PARSING TESTS
// =============================================================================

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantCommand Command
		validate    func(*testing.T, Args)
	}{
		{
			name:        "no args starts the client",
			args:        nil,
			wantCommand: CmdTUI,
		},
		{
			name:        "explicit tui with global flags",
			args:        []string{"--api", "http://shop:8080", "tui", "--no-update-watch"},
			wantCommand: CmdTUI,
			validate: func(t *testing.T, a Args) {
				if a.APIURL != "http://shop:8080" {
					t.Errorf("APIURL = %q", a.APIURL)
				}
				if !a.NoUpdateWatch {
					t.Error("NoUpdateWatch should be true")
				}
			},
		},
		{
			name:        "equals form and tab",
			args:        []string{"--config=/tmp/sf.toml", "--tab", "abc", "-v"},
			wantCommand: CmdTUI,
			validate: func(t *testing.T, a Args) {
				if a.ConfigPath != "/tmp/sf.toml" {
					t.Errorf("ConfigPath = %q", a.ConfigPath)
				}
				if a.TabID != "abc" {
					t.Errorf("TabID = %q", a.TabID)
				}
				if !a.Verbose {
					t.Error("Verbose should be true")
				}
			},
		},
		{
			name:        "config set",
			args:        []string{"config", "set", "session.timeout_minutes", "30"},
			wantCommand: CmdConfig,
			validate: func(t *testing.T, a Args) {
				if a.Subcommand != "set" || a.ConfigKey != "session.timeout_minutes" || a.ConfigVal != "30" {
					t.Errorf("got %q %q %q", a.Subcommand, a.ConfigKey, a.ConfigVal)
				}
			},
		},
		{
			name:        "session prune keeps raw flags",
			args:        []string{"sessions", "prune", "--older-than", "2h"},
			wantCommand: CmdSession,
			validate: func(t *testing.T, a Args) {
				if a.Subcommand != "prune" {
					t.Errorf("Subcommand = %q", a.Subcommand)
				}
				if len(a.Raw) != 3 {
					t.Errorf("Raw = %v", a.Raw)
				}
			},
		},
		{
			name:        "version",
			args:        []string{"version"},
			wantCommand: CmdVersion,
		},
		{
			name:        "help flag",
			args:        []string{"--help"},
			wantCommand: CmdHelp,
		},
		{
			name:        "unknown command shows help",
			args:        []string{"frobnicate"},
			wantCommand: CmdHelp,
			validate: func(t *testing.T, a Args) {
				if a.Subcommand != "frobnicate" {
					t.Errorf("Subcommand = %q", a.Subcommand)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := ParseArgs(tt.args)
			if cmd != tt.wantCommand {
				t.Errorf("command = %v, want %v", cmd, tt.wantCommand)
			}
			if tt.validate != nil {
				tt.validate(t, args)
			}
		})
	}
}

func TestParse_ReadsOSArgs(t *testing.T) {
	originalArgs := os.Args
	defer func() { os.Args = originalArgs }()

	os.Args = []string{"smartfix", "session", "status"}
	cmd, args := Parse()
	assert.Equal(t, CmdSession, cmd)
	assert.Equal(t, "status", args.Subcommand)
}

func TestHelpAndVersion(t *testing.T) {
	_, out := isolate(t)

	require.NoError(t, run(t, "version"))
	assert.Contains(t, out.String(), "smartfix version "+Version)

	out.Reset()
	require.NoError(t, run(t, "help"))
	assert.Contains(t, out.String(), "session prune")

	out.Reset()
	err := run(t, "frobnicate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frobnicate")
	assert.Contains(t, out.String(), "USAGE")
}

// =============================================================================
// CONFIG COMMAND TESTS
// =============================================================================

func TestConfigInitAndPath(t *testing.T) {
	home, out := isolate(t)
	want := filepath.Join(home, ".smartfix", "config.toml")

	require.NoError(t, run(t, "config", "path"))
	assert.Contains(t, out.String(), want)
	assert.Contains(t, out.String(), "(not created)")

	out.Reset()
	require.NoError(t, run(t, "config", "init"))
	assert.FileExists(t, want)

	err := run(t, "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	require.NoError(t, run(t, "config", "init", "--force"))

	out.Reset()
	require.NoError(t, run(t, "config", "path"))
	assert.NotContains(t, out.String(), "(not created)")
}

func TestConfigSetThenGet(t *testing.T) {
	home, out := isolate(t)

	require.NoError(t, run(t, "config", "set", "session.timeout_minutes", "30"))
	assert.FileExists(t, filepath.Join(home, ".smartfix", "config.toml"))

	out.Reset()
	require.NoError(t, run(t, "config", "get", "session.timeout_minutes"))
	assert.Equal(t, "30", strings.TrimSpace(out.String()))

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 30.0, cfg.Session.TimeoutMinutes)
	assert.Equal(t, 2.0, cfg.Session.WarningMinutes)
}

func TestConfigSet_DoesNotBakeInEnvironment(t *testing.T) {
	_, _ = isolate(t)
	t.Setenv(config.EnvAPIURL, "http://from-env:1")

	require.NoError(t, run(t, "config", "set", "session.warning_minutes", "3"))

	t.Setenv(config.EnvAPIURL, "")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.Default().API.BaseURL, cfg.API.BaseURL)
	assert.Equal(t, 3.0, cfg.Session.WarningMinutes)
}

func TestConfigSet_Rejected(t *testing.T) {
	home, _ := isolate(t)
	path := filepath.Join(home, ".smartfix", "config.toml")

	err := run(t, "config", "set", "session.warning_minutes", "20")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.warning_minutes")
	assert.NoFileExists(t, path)

	assert.Error(t, run(t, "config", "set", "session.nope", "1"))
	assert.Error(t, run(t, "config", "set", "session.timeout_minutes", "soon"))
	assert.Error(t, run(t, "config", "set", "session.timeout_minutes"))
}

func TestConfigGet_ListsKeys(t *testing.T) {
	_, out := isolate(t)

	require.NoError(t, run(t, "config", "get"))
	assert.Contains(t, out.String(), "session.timeout_minutes")
	assert.Contains(t, out.String(), "update.debounce_ms")

	assert.Error(t, run(t, "config", "get", "api.nope"))
}

func TestConfigValidate(t *testing.T) {
	home, out := isolate(t)

	require.NoError(t, run(t, "config", "validate"))
	assert.Contains(t, out.String(), styles.StatusIndicators.Success+" Configuration OK")

	bad := filepath.Join(home, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[session]\ntimeout_minutes = 1.0\nwarning_minutes = 5.0\n"), 0o600))

	out.Reset()
	err := run(t, "--config", bad, "config", "validate")
	require.Error(t, err)
	var verrs config.ValidateErrors
	assert.True(t, errors.As(err, &verrs))
	assert.Contains(t, out.String(), "session.warning_minutes")
}

func TestConfigValidate_RejectsNonFiniteEnvironment(t *testing.T) {
	for _, v := range []string{"NaN", "+Inf", "1e12"} {
		t.Run(v, func(t *testing.T) {
			_, out := isolate(t)
			t.Setenv(config.EnvTimeoutMinutes, v)

			require.Error(t, run(t, "config", "validate"))
			assert.NotContains(t, out.String(), "Configuration OK")
		})
	}
}

func TestConfigShow(t *testing.T) {
	_, out := isolate(t)

	require.NoError(t, run(t, "--api", "http://shop:9000", "config", "show"))
	assert.Contains(t, out.String(), "(defaults)")
	assert.Contains(t, out.String(), "http://shop:9000")
	assert.Contains(t, out.String(), "timeout_minutes")

	assert.Error(t, run(t, "config", "bogus"))
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	_, _ = isolate(t)

	cfg, err := loadConfig(Args{APIURL: "https://api.example.com", NoUpdateWatch: true})
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.API.BaseURL)
	assert.False(t, cfg.Update.Enabled)

	_, err = loadConfig(Args{APIURL: "not a url"})
	assert.Error(t, err)
}

// =============================================================================
// SESSION COMMAND TESTS
// =============================================================================

func seedTab(t *testing.T, home, tabID string, sess auth.Session) {
	t.Helper()
	ts, err := storage.OpenTabStore(filepath.Join(home, ".smartfix", "session.db"), tabID)
	require.NoError(t, err)
	defer ts.Close()
	store, err := auth.NewStore(ts)
	require.NoError(t, err)
	require.NoError(t, store.SetSession(sess))
}

func TestSessionStatus(t *testing.T) {
	home, out := isolate(t)

	require.NoError(t, run(t, "session", "status"))
	assert.Contains(t, out.String(), "No stored tabs.")

	seedTab(t, home, "tab-one", auth.Session{Token: "tok", Username: "ana", IsAdmin: true})
	seedTab(t, home, "tab-two", auth.Session{Token: "tok2", Username: "luis"})

	out.Reset()
	require.NoError(t, run(t, "--tab", "tab-one", "session", "status"))
	text := out.String()
	assert.Contains(t, text, "ana (admin)")
	assert.Contains(t, text, "2 stored tab(s)")
	assert.Contains(t, text, "* tab-one")
	assert.Contains(t, text, "tab-two")
}

func TestSessionClear(t *testing.T) {
	home, out := isolate(t)
	seedTab(t, home, "tab-one", auth.Session{Token: "tok", Username: "ana"})

	assert.ErrorIs(t, run(t, "session", "clear"), ErrNoTab)

	require.NoError(t, run(t, "--tab", "tab-one", "session", "clear"))
	assert.Contains(t, out.String(), "Signed out ana")

	ts, err := storage.OpenTabStore(filepath.Join(home, ".smartfix", "session.db"), "tab-one")
	require.NoError(t, err)
	defer ts.Close()
	store, err := auth.NewStore(ts)
	require.NoError(t, err)
	assert.False(t, store.IsLoggedIn())

	events, err := audit.ReadRecent(filepath.Join(home, ".smartfix", "audit.log"), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventLogout, events[0].EventType)
	assert.Equal(t, "tab-one", events[0].Tab)
	assert.Equal(t, "ana", events[0].User)
}

func TestSessionClear_FromEnvironment(t *testing.T) {
	home, out := isolate(t)
	ts, err := storage.OpenTabStore(filepath.Join(home, ".smartfix", "session.db"), "env-tab")
	require.NoError(t, err)
	require.NoError(t, ts.Set(lastURLKey, router.LoginPath))
	require.NoError(t, ts.Close())
	t.Setenv(EnvTabID, "env-tab")

	require.NoError(t, run(t, "session", "clear"))
	assert.Contains(t, out.String(), "Cleared tab env-tab")
}

func TestSessionPrune(t *testing.T) {
	home, out := isolate(t)
	seedTab(t, home, "fresh", auth.Session{Token: "tok", Username: "ana"})

	require.NoError(t, run(t, "session", "prune", "--older-than", "1h"))
	assert.Contains(t, out.String(), "Removed 0 stored value(s)")

	assert.Error(t, run(t, "session", "prune", "--older-than", "whenever"))
}

func TestSessionRecent(t *testing.T) {
	home, out := isolate(t)

	require.NoError(t, run(t, "session", "recent"))
	assert.Contains(t, out.String(), "No audit events.")

	logger, err := audit.Open(audit.Config{Path: filepath.Join(home, ".smartfix", "audit.log"), Tab: "tab-one"})
	require.NoError(t, err)
	require.NoError(t, logger.LogLogin("ana", nil))
	require.NoError(t, logger.LogLogin("ana", auth.ErrInvalidCredentials))
	require.NoError(t, logger.Close())

	out.Reset()
	require.NoError(t, run(t, "session", "recent", "--lines", "1"))
	text := out.String()
	assert.Contains(t, text, audit.EventLogin)
	assert.Contains(t, text, "failed:")
	assert.Equal(t, 1, strings.Count(text, audit.EventLogin))

	assert.Error(t, run(t, "session", "recent", "--lines", "0"))
	assert.Error(t, run(t, "session", "nope"))
}

// =============================================================================
// HELPER TESTS
// =============================================================================

func TestResolveTabID(t *testing.T) {
	_, _ = isolate(t)

	assert.Equal(t, "", resolveTabID(Args{}, false))

	generated := resolveTabID(Args{}, true)
	_, err := uuid.Parse(generated)
	assert.NoError(t, err, "generated id should be a UUID")

	t.Setenv(EnvTabID, "from-env")
	assert.Equal(t, "from-env", resolveTabID(Args{}, true))
	assert.Equal(t, "from-flag", resolveTabID(Args{TabID: "from-flag"}, true))
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{72 * time.Hour, "3d ago"},
	}
	for _, tt := range tests {
		if got := formatAge(now.Add(-tt.ago), now); got != tt.want {
			t.Errorf("formatAge(-%v) = %q, want %q", tt.ago, got, tt.want)
		}
	}
}

func TestResumeURL(t *testing.T) {
	ts, err := storage.OpenTabStore(filepath.Join(t.TempDir(), "session.db"), "tab")
	require.NoError(t, err)
	defer ts.Close()
	store, err := auth.NewStore(ts)
	require.NoError(t, err)

	assert.Equal(t, "/", resumeURL(ts, store))

	require.NoError(t, store.SetSession(auth.Session{Token: "tok", Username: "ana"}))
	assert.Equal(t, router.HomePath, resumeURL(ts, store))

	require.NoError(t, ts.Set(lastURLKey, "/dashboard/repairs"))
	assert.Equal(t, "/dashboard/repairs", resumeURL(ts, store))
}

func TestRequiresTTY_Error(t *testing.T) {
	err := (&TTYRequiredError{Operation: "start the interactive client"}).Error()
	assert.Contains(t, err, "start the interactive client")
	assert.Equal(t, "not running in a terminal", (&TTYRequiredError{}).Error())
}

func TestRecordReload_LogsAuditFailure(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	logger, err := audit.Open(audit.Config{Path: filepath.Join(t.TempDir(), "audit.log"), Tab: "t1"})
	require.NoError(t, err)

	recordReload(logger, "/opt/smartfix/smartfix", nil)
	assert.Empty(t, buf.String())

	require.NoError(t, logger.Close())
	recordReload(logger, "/opt/smartfix/smartfix", errors.New("exec format error"))
	assert.Contains(t, buf.String(), "AUDIT_WRITE_FAILED | event="+audit.EventReload)
	assert.Contains(t, buf.String(), audit.ErrClosed.Error())
}

func TestRuleWidth(t *testing.T) {
	w := ruleWidth()
	assert.GreaterOrEqual(t, w, MinTerminalWidth-2)
	assert.LessOrEqual(t, w, maxRuleWidth)

	_, out := isolate(t)
	require.NoError(t, run(t, "config", "show"))
	assert.Contains(t, out.String(), strings.Repeat("─", w))
}

func TestForceColorsEnabled(t *testing.T) {
	ForceColorsEnabled(false)
	assert.False(t, ColorsEnabled())
	ForceColorsEnabled(true)
	assert.True(t, ColorsEnabled())
	ForceColorsEnabled(false)
}

// =============================================================================
// BENCHMARKS
// =============================================================================

func BenchmarkArgParser(b *testing.B) {
	args := []string{"prune", "--older-than", "48h", "--dry-run", "extra"}
	for i := 0; i < b.N; i++ {
		NewArgParser(args)
	}
}
