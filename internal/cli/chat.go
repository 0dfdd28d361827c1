// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive line-mode chat.
//
// Command: chat
//
// Interactive commands:
//
//	/help, /h      Show available commands
//	/clear, /c     Clear the conversation
//	/history       Show the conversation so far
//	/status, /s    Show usage for this run
//	/export [md|json] [dir]  Save the transcript to a file
//	/logout        Sign out and leave
//	/quit, /q      Leave
//	Ctrl+C, Ctrl+D Leave
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/projectanalyst/internal/config"
	"github.com/jeranaias/projectanalyst/internal/conversation"
	"github.com/jeranaias/projectanalyst/internal/export"
	"github.com/jeranaias/projectanalyst/internal/session"
	"github.com/jeranaias/projectanalyst/internal/util"
)

// HistoryFileName is the REPL input history file in the config directory.
const HistoryFileName = "chat_history"

// =============================================================================
// INPUT HISTORY
// =============================================================================

// LineReader reads prompted lines.
type LineReader interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// ChatCLI provides line editing and persistent input history.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI and loads its history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, HistoryFileName),
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
}

// Prompt reads a line; non-empty lines are added to history.
func (c *ChatCLI) Prompt(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory writes input history with 0600 permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() error {
	c.SaveHistory()
	return c.line.Close()
}

// =============================================================================
// SESSION STATE
// =============================================================================

// ChatSession is one REPL run.
type ChatSession struct {
	rt      *Runtime
	creds   session.Credentials
	state   conversation.State
	input   LineReader
	out     io.Writer
	quiet   bool
	started time.Time
}

// NewChatSession starts a conversation for creds reading from input.
func NewChatSession(rt *Runtime, creds session.Credentials, input LineReader, quiet bool) *ChatSession {
	return &ChatSession{
		rt:      rt,
		creds:   creds,
		state:   rt.Engine.Initialize(creds),
		input:   input,
		out:     rt.Stdout,
		quiet:   quiet,
		started: time.Now(),
	}
}

// State returns the conversation state.
func (s *ChatSession) State() conversation.State {
	return s.state
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChat runs the REPL. Without a session it offers the login prompts
// first when stdin is a terminal.
func HandleChat(args Args, rt *Runtime) error {
	creds, err := rt.Credentials(true)
	if errors.Is(err, ErrNotSignedIn) && IsTTY() {
		if err = HandleLogin(args, rt); err == nil {
			creds, err = rt.Credentials(false)
		}
	}
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reader := NewChatCLI()
	defer reader.Close()

	return NewChatSession(rt, creds, reader, args.Quiet).Run(ctx)
}

// Run reads and answers lines until the user leaves, input ends or ctx is
// done.
func (s *ChatSession) Run(ctx context.Context) error {
	s.printWelcome()

	for {
		if ctx.Err() != nil {
			s.printExitSummary()
			return nil
		}

		line, err := s.input.Prompt(PromptStyle.Render("you> "))
		if err != nil {
			// Ctrl+C (liner.ErrPromptAborted), Ctrl+D (io.EOF) or a closed
			// terminal all end the session.
			fmt.Fprintln(s.out)
			s.printExitSummary()
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			keepGoing, err := s.handleSlashCommand(line)
			if err != nil {
				fmt.Fprintf(s.out, "%s %v\n", ErrorStyle.Render("[Error]"), err)
			}
			if !keepGoing {
				s.printExitSummary()
				return nil
			}
			continue
		}

		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			s.printExitSummary()
			return nil
		}

		s.send(ctx, line)
	}
}

// =============================================================================
// MESSAGE PROCESSING
// =============================================================================

func (s *ChatSession) send(ctx context.Context, text string) {
	if !s.quiet {
		fmt.Fprintln(s.rt.Stderr, DimStyle.Render("Analyst is thinking..."))
	}

	start := time.Now()
	s.state = s.rt.Engine.Send(ctx, s.state, text, s.creds)
	elapsed := time.Since(start)

	if s.state.LastError != "" {
		fmt.Fprintf(s.out, "%s %s\n\n", ErrorStyle.Render("[X]"), s.state.LastError)
		return
	}

	reply, _ := s.state.Last()
	s.printEntry(reply)
	if !s.quiet {
		fmt.Fprintln(s.out, DimStyle.Render(replyFooter(reply, elapsed)))
	}
	fmt.Fprintln(s.out)
}

func (s *ChatSession) handleSlashCommand(cmd string) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true, nil
	}

	switch strings.ToLower(parts[0]) {
	case "/help", "/h", "/?", "/":
		s.printHelp()
		return true, nil

	case "/clear", "/c":
		s.state = conversation.Clear(s.state)
		fmt.Fprintln(s.out, SuccessStyle.Render("[Conversation cleared]"))
		return true, nil

	case "/history":
		s.printHistory()
		return true, nil

	case "/status", "/s":
		s.printStatus()
		return true, nil

	case "/export":
		return true, s.exportTranscript(parts[1:])

	case "/logout":
		if err := s.rt.Sessions.Logout(); err != nil {
			return false, fmt.Errorf("failed to sign out: %w", err)
		}
		fmt.Fprintln(s.out, SuccessStyle.Render("[Signed out]"))
		return false, nil

	case "/quit", "/q", "/exit":
		return false, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", parts[0])
	}
}

// exportTranscript writes the conversation to a file. Arguments are an
// optional format and an optional output directory.
func (s *ChatSession) exportTranscript(args []string) error {
	format, dir := "md", "."
	if len(args) > 0 {
		format = args[0]
	}
	if len(args) > 1 {
		dir = args[1]
	}

	opts := export.DefaultOptions()
	opts.OutputDir = dir
	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return err
	}

	t := export.NewTranscript(s.state, s.rt.Dataset.CompanyName, s.creds.DisplayName, s.rt.Client.Model())
	path, err := export.ExportToFile(t, exporter, opts)
	if err != nil {
		return err
	}
	s.rt.Logger.Info().Str("path", path).Int("entries", len(t.Entries)).Msg("transcript exported")
	fmt.Fprintf(s.out, "%s Saved %s\n", RenderStatus("ok"), path)
	return nil
}

// =============================================================================
// DISPLAY
// =============================================================================

func (s *ChatSession) printWelcome() {
	ds := s.rt.Dataset
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, TitleStyle.Render("Project Analyst AI"))
	fmt.Fprintln(s.out, DimStyle.Render(fmt.Sprintf("Connected to %s DB", ds.CompanyName)))
	fmt.Fprintln(s.out, DimStyle.Render(fmt.Sprintf("Context: %d Projects Loaded • Powered by OpenRouter", len(ds.Projects))))
	fmt.Fprintln(s.out, RenderSeparator(50))
	for _, e := range s.state.Entries {
		s.printEntry(e)
	}
	if !s.quiet {
		fmt.Fprintln(s.out, DimStyle.Render("Type your question and press Enter. Commands: /help, /quit"))
	}
	fmt.Fprintln(s.out)
}

func (s *ChatSession) printEntry(e conversation.Entry) {
	if e.IsUser() {
		fmt.Fprintf(s.out, "%s %s\n", PromptStyle.Render(e.Role.DisplayName()+":"), e.Content)
		return
	}
	fmt.Fprintln(s.out, AssistantStyle.Render(e.Role.DisplayName()+":"))
	fmt.Fprintln(s.out, s.rt.renderReply(e.Content))
}

func (s *ChatSession) printHelp() {
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, SectionStyle.Render("Available Commands"))
	cmds := [][2]string{
		{"/help, /h", "Show this help"},
		{"/clear, /c", "Clear the conversation"},
		{"/history", "Show the conversation"},
		{"/status, /s", "Show usage for this run"},
		{"/export", "Save the transcript (md or json)"},
		{"/logout", "Sign out and leave"},
		{"/quit, /q", "Leave"},
	}
	for _, c := range cmds {
		fmt.Fprintf(s.out, "  %s %s\n", RenderLabel(c[0], 14), DimStyle.Render(c[1]))
	}
	fmt.Fprintln(s.out)
}

func (s *ChatSession) printHistory() {
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, SectionStyle.Render("Conversation History"))
	if s.state.Len() == 0 {
		fmt.Fprintln(s.out, DimStyle.Render("  (empty)"))
	}
	for i, e := range s.state.Entries {
		fmt.Fprintf(s.out, "  %2d. %s %s\n", i+1,
			RenderLabel(e.Role.DisplayName(), 8),
			util.Truncate(strings.ReplaceAll(e.Content, "\n", " "), 70))
	}
	fmt.Fprintln(s.out)
}

func (s *ChatSession) printStatus() {
	sum := s.rt.Usage.Summary()
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, SectionStyle.Render("Session Status"))
	fmt.Fprintf(s.out, "  %s %s\n", RenderLabel("Signed in as:"), s.creds.DisplayName)
	fmt.Fprintf(s.out, "  %s %s\n", RenderLabel("Model:"), s.rt.Client.Model())
	fmt.Fprintf(s.out, "  %s %d\n", RenderLabel("Entries:"), s.state.Len())
	fmt.Fprintf(s.out, "  %s %d (%d failed)\n", RenderLabel("Requests:"), sum.Requests, sum.Failures)
	fmt.Fprintf(s.out, "  %s %d\n", RenderLabel("Tokens:"), sum.Tokens.TotalTokens)
	fmt.Fprintln(s.out)
}

// printExitSummary prints usage totals for the run.
func (s *ChatSession) printExitSummary() {
	sum := s.rt.Usage.Summary()
	if sum.Requests == 0 || s.quiet {
		fmt.Fprintln(s.out, DimStyle.Render("Goodbye!"))
		return
	}

	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, SectionStyle.Render("Session Summary"))
	fmt.Fprintf(s.out, "  %s %d (%d failed)\n", RenderLabel("Questions:"), sum.Requests, sum.Failures)
	fmt.Fprintf(s.out, "  %s %d (%d prompt, %d completion)\n", RenderLabel("Tokens:"),
		sum.Tokens.TotalTokens, sum.Tokens.PromptTokens, sum.Tokens.CompletionTokens)
	fmt.Fprintf(s.out, "  %s %s\n", RenderLabel("Avg latency:"), formatLatency(sum.AverageLatency()))
	fmt.Fprintf(s.out, "  %s %s\n", RenderLabel("Duration:"), formatDuration(time.Since(s.started)))
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, DimStyle.Render("Goodbye!"))
}
