// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "github.com/jeranaias/projectanalyst/internal/conversation"

// ResponseMsg delivers the gateway result for one request. RequestID is the
// ID of the user entry that started it.
type ResponseMsg struct {
	RequestID string
	Result    conversation.Result
}

// LogoutMsg asks the parent model to end the session.
type LogoutMsg struct{}
