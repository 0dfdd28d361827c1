// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared by the analyst packages.
//
// # Key Functions
//
//   - AtomicWriteFile: crash-safe file writes (temp file, fsync, rename)
//   - Truncate: display-width aware truncation with an ellipsis
//   - PadRight: pads a string to a display width
//
// # Usage
//
//	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
//		return err
//	}
//	title := util.Truncate(companyName, 24)
package util
