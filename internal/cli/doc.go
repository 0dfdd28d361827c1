// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the line-mode commands of
// analyst.
//
// The TUI is started from main; every other command runs here against a
// Runtime, which bundles the configured session manager, conversation engine
// and usage tracker.
//
// # Key Types
//
//   - Command: enumeration of the available commands
//   - Args: parsed global flags plus the command's remaining arguments
//   - ArgParser: flag and positional parsing for subcommands
//   - Runtime: services built from config for one process
//
// # Usage
//
//	cmd, args := cli.Parse(os.Args[1:])
//	rt, err := cli.NewRuntime(cmd, args)
//	if err != nil { ... }
//	defer rt.Close()
//	if err := cli.HandleAsk(args, rt); err != nil {
//		cli.DisplayError(os.Stderr, err, args.JSON)
//		os.Exit(cli.GetExitCode(err))
//	}
//
// # Commands
//
//   - chat: interactive REPL with /clear, /export, /logout, /help and /quit
//   - ask: one question, reply on stdout, exit 1 on failure
//   - login, logout, status: session management
//   - dataset: the loaded company data as a table or JSON
//   - models: models offered by the endpoint
//   - config: show, get, set, init, path and keys
//   - version, help
package cli
