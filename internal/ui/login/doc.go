// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package login provides the sign-in form shown when no session exists.
//
// The form collects a display name, an API key (masked) and an optional
// endpoint URL. It does not talk to the session manager itself: submitting
// emits a SubmitMsg for the parent model, which reports failures back with
// SetError.
package login
