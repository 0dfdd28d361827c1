// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command parsing and the small commands (version, help).
package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdAsk
	CmdLogin
	CmdLogout
	CmdStatus
	CmdDataset
	CmdModels
	CmdConfig
	CmdVersion
	CmdHelp
	CmdUnknown
)

// String returns the command name as typed.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdChat:
		return "chat"
	case CmdAsk:
		return "ask"
	case CmdLogin:
		return "login"
	case CmdLogout:
		return "logout"
	case CmdStatus:
		return "status"
	case CmdDataset:
		return "dataset"
	case CmdModels:
		return "models"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Verbose   bool
	Quiet     bool
	JSON      bool   // Output in JSON format
	Ephemeral bool   // Keep the session in memory only
	Model     string // Overrides cloud.model
	Config    string // Alternate config file

	// Command-specific
	Query      string
	Subcommand string
	ConfigKey  string
	ConfigVal  string

	// Raw args (remaining after global flag parsing)
	Raw []string
}

const usageText = `analyst - chat with an AI analyst about your company's projects

Usage:
  analyst                       Start the TUI (default; line chat when not a terminal)
  analyst chat                  Interactive line-mode chat
  analyst ask "question"        Ask a single question and print the reply
  analyst login                 Store your name, API key and endpoint
  analyst logout                Forget the stored credentials
  analyst status, s             Show session, config and fixture status
  analyst dataset [--json]      Show the loaded company data
  analyst dataset <id>          Show one project
  analyst dataset --summary     Totals and at-risk projects only
  analyst models                List models offered by the endpoint
  analyst config [subcommand]   Configuration
      show                      Print the effective configuration (default)
      path                      Print the config file path
      init                      Write a config file with defaults
      get <key>                 Print one value (e.g. cloud.model)
      set <key> <value>         Change one value and save
      keys                      List every key
  analyst version               Show version information
  analyst help                  Show this help

Global flags:
  -v, --verbose                 Log to stderr as well as the log file
  -q, --quiet                   Minimal output
  --json                        JSON output (status, dataset, models, version)
  --model NAME                  Model for this run (alias or provider/model)
  --ephemeral                   Keep the session in memory only
  --config PATH                 Use an alternate config file

Chat view keys:
  Enter send   Ctrl+L clear   Ctrl+O sign out   Esc/Ctrl+C quit

Environment:
  ANALYST_HOME                  Config directory (default ~/.analyst)
  ANALYST_NAME, ANALYST_API_KEY, ANALYST_ENDPOINT_URL
                                Credentials for 'ask' when not signed in
  ANALYST_MODEL, ANALYST_LOG_LEVEL, ...
                                Override config values

Version: %s
`

// PrintUsage writes the help text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "analyst version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go version: %s\n", runtime.Version())
}

// =============================================================================
// PARSING
// =============================================================================

// Parse parses command-line arguments (without the program name) and
// returns the command and args.
func Parse(osArgs []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(osArgs)

	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	cmd := remaining[0]
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch strings.ToLower(cmd) {
	case "tui":
		return CmdTUI, parsedArgs

	case "chat", "repl":
		return CmdChat, parsedArgs

	case "ask", "a":
		parsedArgs.Query = strings.TrimSpace(strings.Join(remaining, " "))
		return CmdAsk, parsedArgs

	case "login", "signin":
		return CmdLogin, parsedArgs

	case "logout", "signout":
		return CmdLogout, parsedArgs

	case "status", "s":
		return CmdStatus, parsedArgs

	case "dataset", "data", "projects":
		parsedArgs.Subcommand = NewArgParser(remaining).Subcommand()
		return CmdDataset, parsedArgs

	case "models":
		return CmdModels, parsedArgs

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "version", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		parsedArgs.Subcommand = cmd
		return CmdUnknown, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
// Everything after "--" is left untouched.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "--":
			return append(remaining, args[i+1:]...), parsedArgs
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "--json":
			parsedArgs.JSON = true
		case "--ephemeral":
			parsedArgs.Ephemeral = true
		case "--model", "-m":
			if i+1 < len(args) {
				i++
				parsedArgs.Model = args[i]
			}
		case "--config":
			if i+1 < len(args) {
				i++
				parsedArgs.Config = args[i]
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--model="):
				parsedArgs.Model = strings.TrimPrefix(arg, "--model=")
			case strings.HasPrefix(arg, "--config="):
				parsedArgs.Config = strings.TrimPrefix(arg, "--config=")
			default:
				remaining = append(remaining, arg)
			}
		}
	}

	return remaining, parsedArgs
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	p := NewArgParser(remaining)
	args.Subcommand = p.Subcommand()
	args.ConfigKey = p.Positional(1)
	args.ConfigVal = JoinPositionalArgs(p, 2)
}

// =============================================================================
// SMALL COMMANDS
// =============================================================================

// HandleVersion prints version information, as JSON with --json.
func HandleVersion(args Args, w io.Writer) error {
	if args.JSON {
		return NewJSONResponse("version", VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}).Write(w)
	}
	PrintVersion(w)
	return nil
}

// HandleHelp prints usage.
func HandleHelp(w io.Writer) {
	PrintUsage(w)
}

// UnknownCommandError reports an unrecognized command, with a suggestion
// when one is close.
func UnknownCommandError(name string) error {
	err := &ValidationError{Field: "command", Value: name, Reason: "unknown command"}
	if s := SuggestCommand(name); s != "" {
		err.Example = "analyst " + s
	}
	return err
}
