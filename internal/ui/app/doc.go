// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the root Bubble Tea model of the analyst TUI.
//
// It shows the login form while the session manager is anonymous and the chat
// view while it is authenticated. Submitting the form calls Manager.Login;
// the chat view's LogoutMsg calls Manager.Logout and brings the form back
// with every field cleared.
package app
