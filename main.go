// analyst - A terminal chat client for asking questions about project data.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/projectanalyst/internal/cli"
	"github.com/jeranaias/projectanalyst/internal/ui/app"
	"github.com/jeranaias/projectanalyst/internal/ui/render"
	"github.com/jeranaias/projectanalyst/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse(os.Args[1:])
	if err := run(cmd, args); err != nil {
		cli.DisplayError(os.Stderr, err, args.JSON)
		os.Exit(cli.GetExitCode(err))
	}
}

func run(cmd cli.Command, args cli.Args) error {
	// Commands that need no services.
	switch cmd {
	case cli.CmdHelp:
		cli.HandleHelp(os.Stdout)
		return nil
	case cli.CmdVersion:
		return cli.HandleVersion(args, os.Stdout)
	case cli.CmdUnknown:
		return cli.UnknownCommandError(args.Subcommand)
	}

	rt, err := cli.NewRuntime(cmd, args)
	if err != nil {
		return err
	}
	defer rt.Close()

	switch cmd {
	case cli.CmdAsk:
		return cli.HandleAsk(args, rt)
	case cli.CmdChat:
		return cli.HandleChat(args, rt)
	case cli.CmdLogin:
		return cli.HandleLogin(args, rt)
	case cli.CmdLogout:
		return cli.HandleLogout(args, rt)
	case cli.CmdStatus:
		return cli.HandleStatus(args, rt)
	case cli.CmdDataset:
		return cli.HandleDataset(args, rt)
	case cli.CmdModels:
		return cli.HandleModels(args, rt)
	case cli.CmdConfig:
		return cli.HandleConfig(args, rt)
	default:
		if !cli.IsInteractive() {
			// No terminal for the full-screen UI; fall back to line mode.
			return cli.HandleChat(args, rt)
		}
		return runTUI(rt)
	}
}

// runTUI starts the full-screen interface.
func runTUI(rt *cli.Runtime) error {
	cfg := rt.Config

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	theme := styles.NewTheme(cfg.UI.Theme)
	m := app.New(app.Options{
		Theme:    theme,
		Sessions: rt.Sessions,
		Engine:   rt.Engine,
		Markdown: render.NewMarkdown(cfg.UI.Markdown, theme.IsDark),
		Usage:    rt.Usage,
		WordWrap: cfg.UI.WordWrap,
		Context:  ctx,
		Logger:   rt.Logger,
	})

	rt.Logger.Info().Str("screen", m.Screen().String()).Msg("starting interface")

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("error running program: %w", err)
	}

	if sum := rt.Usage.Summary(); sum.Requests > 0 {
		rt.Logger.Info().
			Int("requests", sum.Requests).
			Int("failures", sum.Failures).
			Int("tokens", sum.Tokens.TotalTokens).
			Msg("interface closed")
	}
	return nil
}
