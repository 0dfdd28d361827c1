// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role is the author of an entry or payload message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the wire name of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Analyst"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// ENTRY TYPE
// =============================================================================

// TokenUsage is the provider-reported token accounting for one reply.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add returns the element-wise sum of u and o.
func (u TokenUsage) Add(o TokenUsage) TokenUsage {
	return TokenUsage{
		PromptTokens:     u.PromptTokens + o.PromptTokens,
		CompletionTokens: u.CompletionTokens + o.CompletionTokens,
		TotalTokens:      u.TotalTokens + o.TotalTokens,
	}
}

// HasTotal reports whether u carries a total worth displaying.
func (u *TokenUsage) HasTotal() bool {
	return u != nil && u.TotalTokens > 0
}

// Entry is one line of the transcript.
type Entry struct {
	ID        string      `json:"id"`
	Role      Role        `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
	Usage     *TokenUsage `json:"usage,omitempty"`
}

// IsUser reports whether the entry was written by the user.
func (e Entry) IsUser() bool {
	return e.Role == RoleUser
}

// IsAssistant reports whether the entry was written by the assistant.
func (e Entry) IsAssistant() bool {
	return e.Role == RoleAssistant
}

// Message is the {role, content} pair sent to the gateway.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Message reduces the entry to its wire form.
func (e Entry) Message() Message {
	return Message{Role: e.Role, Content: e.Content}
}

func newID() string {
	return uuid.NewString()
}
