// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes a conversation transcript to a file.
//
// # Key Types
//
//   - Transcript: a snapshot of a conversation with its metadata
//   - Exporter: converts a Transcript to one format
//   - Options: output directory and metadata switches
//
// # Supported Formats
//
//   - Markdown: human-readable, with YAML frontmatter
//   - JSON: machine-readable, every entry with its usage
//
// # Usage
//
//	t := export.NewTranscript(state, "TechFlow Solutions", "Alice", model)
//	path, err := export.ExportMarkdown(t, export.DefaultOptions())
package export
