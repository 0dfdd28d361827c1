// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns assistant replies and dataset dumps into terminal
// text: markdown through glamour, source through chroma. Both fall back to
// the input unchanged when rendering fails.
package render
