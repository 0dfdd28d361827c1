// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single question command.
//
// Command: ask [question]
//
// Examples:
//
//	analyst ask "Which projects are over budget?"
//	echo "Who has the largest team?" | analyst ask
//	analyst ask --json "Total budget?"
//
// Without a stored session the ANALYST_NAME and ANALYST_API_KEY variables
// are used, so scripts need not run 'analyst login'.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/jeranaias/projectanalyst/internal/conversation"
	"github.com/jeranaias/projectanalyst/internal/ui/render"
)

// MaxStdinQuestion bounds a question read from stdin.
const MaxStdinQuestion = 64 * 1024

// HandleAsk sends one question and prints the reply. A gateway failure is
// returned as an error so the process exits 1.
func HandleAsk(args Args, rt *Runtime) error {
	question := strings.TrimSpace(args.Query)
	if question == "" && !isTerminal(rt.Stdin) {
		data, err := io.ReadAll(io.LimitReader(rt.Stdin, MaxStdinQuestion))
		if err != nil {
			return fmt.Errorf("failed to read question: %w", err)
		}
		question = strings.TrimSpace(string(data))
	}
	if question == "" {
		return ErrMissingArgument("question", `analyst ask "Which projects are over budget?"`)
	}

	creds, err := rt.Credentials(true)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	state := rt.Engine.Initialize(creds)
	state = rt.Engine.Send(ctx, state, question, creds)
	elapsed := time.Since(start)

	if state.LastError != "" {
		return errors.New(state.LastError)
	}

	reply, _ := state.Last()

	if args.JSON {
		return NewJSONResponse("ask", AskData{
			Question: question,
			Response: reply.Content,
			Model:    rt.Client.Model(),
			Usage:    reply.Usage,
			Duration: formatLatency(elapsed),
		}).Write(rt.Stdout)
	}

	fmt.Fprintln(rt.Stdout, rt.renderReply(reply.Content))
	if !args.Quiet {
		fmt.Fprintln(rt.Stderr, DimStyle.Render(replyFooter(reply, elapsed)))
	}
	return nil
}

// replyFooter is the "<n> tokens · <latency>" line under a reply.
func replyFooter(reply conversation.Entry, elapsed time.Duration) string {
	if !reply.Usage.HasTotal() {
		return formatLatency(elapsed)
	}
	return fmt.Sprintf("%d tokens · %s", reply.Usage.TotalTokens, formatLatency(elapsed))
}

// markdown returns the reply renderer; it is disabled when stdout is not a
// terminal so piped output stays plain.
func (rt *Runtime) markdown() *render.Markdown {
	if rt.md == nil {
		enabled := rt.Config.UI.Markdown && rt.Stdout == os.Stdout && IsStdoutTTY()
		rt.md = render.NewMarkdown(enabled, HasDarkBackground())
	}
	return rt.md
}

// renderReply renders content for line-mode output.
func (rt *Runtime) renderReply(content string) string {
	md := rt.markdown()
	if !md.Enabled() {
		return content
	}
	width := GetTerminalWidth()
	if w := rt.Config.UI.WordWrap; w > 0 && w < width {
		width = w
	}
	return md.Render(content, width)
}

// isTerminal reports whether r is a terminal file.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return f == os.Stdin && IsTTY()
}
