// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"fmt"
	"strings"

	"github.com/jeranaias/projectanalyst/internal/fixture"
)

// DefaultHistoryWindow is how many prior entries accompany each request.
const DefaultHistoryWindow = 10

// GroundingDirective closes the system context.
const GroundingDirective = "IMPORTANT: Only answer questions based on the data above. " +
	"If asked about something not in the database, say you don't have that information."

// Assembler turns transcript history into a request payload.
//
// The system context is rendered once at construction; fixtures do not
// change for the life of the process.
type Assembler struct {
	profile fixture.Profile
	dataset fixture.Dataset
	window  int
	system  string
}

// NewAssembler renders the system context for profile and dataset. A window
// below 1 means DefaultHistoryWindow.
func NewAssembler(profile fixture.Profile, dataset fixture.Dataset, window int) (*Assembler, error) {
	if window < 1 {
		window = DefaultHistoryWindow
	}
	system, err := SystemContext(profile, dataset)
	if err != nil {
		return nil, err
	}
	return &Assembler{
		profile: profile,
		dataset: dataset,
		window:  window,
		system:  system,
	}, nil
}

// SystemContext renders the system message: identity, tone, instructions,
// the dataset as compact JSON and the grounding directive.
func SystemContext(profile fixture.Profile, dataset fixture.Dataset) (string, error) {
	data, err := dataset.JSON()
	if err != nil {
		return "", fmt.Errorf("failed to render system context: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are acting as: %s.\n", profile.Identity)
	fmt.Fprintf(&b, "Tone: %s\n", profile.Tone)
	fmt.Fprintf(&b, "Instructions: %s\n", profile.Instructions)
	b.WriteString("\nDATA SOURCE (Database JSON):\n")
	b.WriteString(data)
	b.WriteString("\n\n")
	b.WriteString(GroundingDirective)
	return b.String(), nil
}

// Build returns [system] + last Window() non-system entries of history +
// [user text]. history must not include the new user entry.
func (a *Assembler) Build(history []Entry, userText string) []Message {
	recent := make([]Message, 0, a.window)
	for i := len(history) - 1; i >= 0 && len(recent) < a.window; i-- {
		if history[i].Role == RoleSystem {
			continue
		}
		recent = append(recent, history[i].Message())
	}

	payload := make([]Message, 0, len(recent)+2)
	payload = append(payload, Message{Role: RoleSystem, Content: a.system})
	for i := len(recent) - 1; i >= 0; i-- {
		payload = append(payload, recent[i])
	}
	payload = append(payload, Message{Role: RoleUser, Content: userText})
	return payload
}

// SystemContext returns the rendered system message.
func (a *Assembler) SystemContext() string {
	return a.system
}

// Window returns the trailing history window size.
func (a *Assembler) Window() int {
	return a.window
}

// Profile returns the assistant profile.
func (a *Assembler) Profile() fixture.Profile {
	return a.profile
}

// Dataset returns the project dataset.
func (a *Assembler) Dataset() fixture.Dataset {
	return a.dataset
}
