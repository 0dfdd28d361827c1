// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/projectanalyst/internal/session"
)

// WelcomeID is the ID of the greeting entry created by Initialize.
const WelcomeID = "welcome"

// FallbackErrorMessage is shown when a failure carries no message.
const FallbackErrorMessage = "Something went wrong."

var errUnknown = errors.New(FallbackErrorMessage)

// State is the transcript plus the in-flight flag and last error.
type State struct {
	Entries   []Entry
	Pending   bool
	LastError string
}

// Len returns the number of entries.
func (s State) Len() int {
	return len(s.Entries)
}

// Last returns the newest entry.
func (s State) Last() (Entry, bool) {
	if len(s.Entries) == 0 {
		return Entry{}, false
	}
	return s.Entries[len(s.Entries)-1], true
}

// Usage sums the token usage of all entries.
func (s State) Usage() TokenUsage {
	var total TokenUsage
	for _, e := range s.Entries {
		if e.Usage != nil {
			total = total.Add(*e.Usage)
		}
	}
	return total
}

// withEntry returns a copy of s with e appended. The copy never shares a
// backing array with s.
func (s State) withEntry(e Entry) State {
	entries := make([]Entry, len(s.Entries), len(s.Entries)+1)
	copy(entries, s.Entries)
	s.Entries = append(entries, e)
	return s
}

// WelcomeText is the greeting shown when a conversation starts.
func WelcomeText(name, identity string) string {
	return fmt.Sprintf("Hello %s! I am %s. I have access to the company database. "+
		"Ask me about project statistics, budgets, or deadlines.", name, identity)
}

// Clear empties the transcript and clears the last error. A pending request
// is not cancelled; its reply still lands in the emptied transcript.
func Clear(s State) State {
	return State{Pending: s.Pending}
}

// Request is the side effect Begin asks the caller to perform.
type Request struct {
	Credentials session.Credentials
	Payload     []Message
	UserEntry   Entry
	StartedAt   time.Time
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine applies conversation transitions for one profile and dataset.
type Engine struct {
	assembler *Assembler
	gateway   Gateway

	now   func() time.Time
	newID func() string
}

// NewEngine returns an Engine that builds payloads with a and sends them
// through gw.
func NewEngine(a *Assembler, gw Gateway) *Engine {
	return &Engine{
		assembler: a,
		gateway:   gw,
		now:       time.Now,
		newID:     newID,
	}
}

// Assembler returns the payload assembler.
func (e *Engine) Assembler() *Assembler {
	return e.assembler
}

// Initialize returns a transcript holding only the welcome entry.
func (e *Engine) Initialize(creds session.Credentials) State {
	welcome := Entry{
		ID:        WelcomeID,
		Role:      RoleAssistant,
		Content:   WelcomeText(creds.DisplayName, e.assembler.Profile().Identity),
		CreatedAt: e.now(),
	}
	return State{Entries: []Entry{welcome}}
}

// Begin appends the trimmed user text, clears the last error, marks the
// state pending and returns the request to send. It reports false, and
// returns s unchanged, when the text is blank or a request is already in
// flight.
func (e *Engine) Begin(s State, text string, creds session.Credentials) (State, *Request, bool) {
	text = strings.TrimSpace(text)
	if text == "" || s.Pending {
		return s, nil, false
	}

	user := Entry{
		ID:        e.newID(),
		Role:      RoleUser,
		Content:   text,
		CreatedAt: e.now(),
	}
	req := &Request{
		Credentials: creds,
		Payload:     e.assembler.Build(s.Entries, text),
		UserEntry:   user,
		StartedAt:   user.CreatedAt,
	}

	next := s.withEntry(user)
	next.LastError = ""
	next.Pending = true
	return next, req, true
}

// Do sends req through the gateway.
func (e *Engine) Do(ctx context.Context, req *Request) Result {
	return e.gateway.Complete(ctx, req.Credentials, req.Payload)
}

// Finish applies a gateway result. Success appends an assistant entry;
// failure records the error message and leaves the user entry in place.
// Either way the state is no longer pending. A result arriving when nothing
// is pending is ignored.
func (e *Engine) Finish(s State, r Result) State {
	if !s.Pending {
		return s
	}

	reply, ok := r.Reply()
	if !ok {
		s.Pending = false
		s.LastError = errorMessage(r.Err())
		return s
	}

	next := s.withEntry(Entry{
		ID:        e.newID(),
		Role:      RoleAssistant,
		Content:   reply.Content,
		CreatedAt: e.now(),
		Usage:     reply.Usage,
	})
	next.Pending = false
	return next
}

// Send runs Begin, Do and Finish inline. It is a no-op for blank text or
// while a request is pending.
func (e *Engine) Send(ctx context.Context, s State, text string, creds session.Credentials) State {
	next, req, ok := e.Begin(s, text, creds)
	if !ok {
		return s
	}
	return e.Finish(next, e.Do(ctx, req))
}

func errorMessage(err error) string {
	if err == nil {
		return FallbackErrorMessage
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return FallbackErrorMessage
}
