// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and top-level command handlers for smartfix.
package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command output goes to stdout, warnings to stderr; tests replace both.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdConfig
	CmdSession
	CmdVersion
	CmdHelp
)

// String returns the command name as typed on the command line.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdConfig:
		return "config"
	case CmdSession:
		return "session"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	}
	return "unknown"
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	ConfigPath    string
	APIURL        string
	TabID         string
	NoUpdateWatch bool
	Verbose       bool

	// Command-specific
	Subcommand string
	ConfigKey  string
	ConfigVal  string

	// Raw holds everything after the command name.
	Raw []string
}

// =============================================================================
// USAGE
// =============================================================================

const usageText = `smartfix - SmartFix repair shop admin client

USAGE:
  smartfix [global flags] [command] [arguments]

COMMANDS:
  tui                      Start the interactive client (default)
  config show              Print the effective configuration
  config path              Print the configuration file location
  config init [--force]    Write a configuration file with defaults
  config validate          Load and check the configuration
  config get KEY           Print one value (e.g. session.timeout_minutes)
  config set KEY VALUE     Change one value in the configuration file
  session status           List stored tabs and the signed-in user
  session clear            Sign the tab out and drop its stored values
  session prune [--older-than 24h]
                           Drop tabs not used for the given time
  session recent [--lines 20]
                           Show the newest audit events
  version                  Print version information
  help                     Show this help

GLOBAL FLAGS:
  --config PATH            Use a specific configuration file
  --api URL                Override the API base URL
  --tab ID                 Use a specific tab id (default: $SMARTFIX_TAB_ID or new)
  --no-update-watch        Do not watch the executable for updates
  -v, --verbose            Write diagnostics to ~/.smartfix/debug.log

EXAMPLES:
  smartfix                               Start the client
  smartfix --api http://shop:8080        Start against another server
  smartfix config set session.timeout_minutes 30
  smartfix session prune --older-than 48h

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Fprintf(stdout, usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Fprintf(stdout, "smartfix version %s\n", Version)
	fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(stdout, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(stdout, "  Go:         %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// =============================================================================
// PARSING
// =============================================================================

// Parse parses os.Args and returns the command and args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses an argument list without the program name.
func ParseArgs(args []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(args)

	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs

	case "config", "cfg":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "session", "sessions":
		if len(remaining) > 0 {
			parsedArgs.Subcommand = remaining[0]
		}
		return CmdSession, parsedArgs

	case "version", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		parsedArgs.Subcommand = cmd
		return CmdHelp, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	value := func(i *int) string {
		if *i+1 < len(args) {
			*i++
			return args[*i]
		}
		return ""
	}

	i := 0
	for i < len(args) {
		arg := args[i]
		name, inline, hasInline := strings.Cut(arg, "=")

		switch name {
		case "--config", "--api", "--tab":
			v := inline
			if !hasInline {
				v = value(&i)
			}
			switch name {
			case "--config":
				parsedArgs.ConfigPath = v
			case "--api":
				parsedArgs.APIURL = v
			case "--tab":
				parsedArgs.TabID = v
			}
		case "--no-update-watch":
			parsedArgs.NoUpdateWatch = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		default:
			remaining = append(remaining, arg)
		}
		i++
	}

	return remaining, parsedArgs
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	p := NewArgParser(remaining)
	args.Subcommand = p.Subcommand()
	args.ConfigKey = p.Positional(1)
	args.ConfigVal = p.Positional(2)
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

// HandleVersion handles the "version" command.
func HandleVersion() {
	PrintVersion()
}

// HandleHelp handles the "help" command. An unknown command name is
// reported as an error after the usage text.
func HandleHelp(args Args) error {
	PrintUsage()
	if args.Subcommand != "" {
		return fmt.Errorf("unknown command: %s", args.Subcommand)
	}
	return nil
}

// Run dispatches a parsed command.
func Run(cmd Command, args Args) error {
	switch cmd {
	case CmdConfig:
		return HandleConfig(args)
	case CmdSession:
		return HandleSession(args)
	case CmdVersion:
		HandleVersion()
		return nil
	case CmdHelp:
		return HandleHelp(args)
	default:
		return HandleTUI(args)
	}
}
