// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the conversation view of the analyst TUI.

The view owns one conversation.State. Every transition goes through a
conversation.Engine: Enter calls Begin, the gateway round trip runs in a
tea.Cmd, and its ResponseMsg is applied with Finish back on the update loop.
The pending flag in the state keeps at most one request in flight; while it
is set the composer ignores typing.

# Layout

  - Header: "Project Analyst AI", "Connected to <company> DB", user and token total
  - Transcript: user and assistant bubbles, "<n> tokens" under replies, a
    spinner while pending and the last error, or "Analyzing database..." when
    empty
  - Composer: single-line input
  - Footer: "Context: N Projects Loaded • Powered by OpenRouter" and shortcuts

# Keys

Enter sends, Ctrl+L clears the transcript, Ctrl+O logs out (the parent model
receives LogoutMsg), Esc or Ctrl+C quits, PgUp/PgDn scroll.
*/
package chat
