// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation holds the chat transcript and builds the payload sent
// to the completion gateway.
//
// State is a plain value. Every transition returns a new State and never
// writes through the slice of the State it was given, so a renderer may hold
// on to an old State safely.
//
// A send is split in two so that callers can run the network call wherever
// they like (a Bubble Tea command, a goroutine, or inline):
//
//	next, req, ok := engine.Begin(state, text, creds) // append user entry, mark pending
//	if ok {
//		result := engine.Do(ctx, req)                  // the only side effect
//		next = engine.Finish(next, result)            // append reply or record error
//	}
//
// Engine.Send runs all three steps inline.
//
// # Key Types
//
//   - Entry: one transcript line (user or assistant)
//   - State: entries, pending flag and last error
//   - Message: a {role, content} pair on the wire
//   - Assembler: builds the system context and trailing window
//   - Gateway: the completion service contract
//   - Result: success reply or failure, never both
package conversation
