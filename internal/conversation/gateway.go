// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"

	"github.com/jeranaias/projectanalyst/internal/session"
)

// Gateway performs one completion round trip.
//
// The payload is non-empty and ends with a user message. Implementations
// report every failure through Result; they do not panic and do not retry.
type Gateway interface {
	Complete(ctx context.Context, creds session.Credentials, payload []Message) Result
}

// GatewayFunc adapts a function to Gateway.
type GatewayFunc func(ctx context.Context, creds session.Credentials, payload []Message) Result

// Complete implements Gateway.
func (f GatewayFunc) Complete(ctx context.Context, creds session.Credentials, payload []Message) Result {
	return f(ctx, creds, payload)
}

// Reply is a successful completion.
type Reply struct {
	Content string
	Usage   *TokenUsage
}

// Result is either a Reply or an error. Exactly one of the two is set.
type Result struct {
	reply *Reply
	err   error
}

// Success returns a successful Result. usage is kept as reported, including a
// zero total; renderers decide whether to show it.
func Success(content string, usage *TokenUsage) Result {
	return Result{reply: &Reply{Content: content, Usage: usage}}
}

// Failed returns a failed Result. The error's message is what the user sees.
func Failed(err error) Result {
	if err == nil {
		err = errUnknown
	}
	return Result{err: err}
}

// Reply returns the reply and true for a successful Result.
func (r Result) Reply() (Reply, bool) {
	if r.reply == nil {
		return Reply{}, false
	}
	return *r.reply, true
}

// Err returns the failure, or nil for a successful Result.
func (r Result) Err() error {
	if r.reply == nil && r.err == nil {
		return errUnknown
	}
	return r.err
}

// OK reports whether the Result is a success.
func (r Result) OK() bool {
	return r.reply != nil
}
