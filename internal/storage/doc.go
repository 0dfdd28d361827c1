// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the durable local key/value store for analyst.
//
// It plays the role a browser's localStorage plays for a web client: a flat
// map of string keys to string values that survives process restarts. The
// session package keeps the signed-in credentials under a single key.
//
// # Key Types
//
//   - KV: the key/value interface (Get, Set, Remove, Close)
//   - FileKV: a JSON object file written atomically with 0600 permissions
//   - SQLiteKV: a local_storage table in a SQLite database (modernc.org/sqlite)
//   - MemoryKV: process-local map, used by tests and --ephemeral runs
//
// # Usage
//
//	kv, err := storage.Open(storage.Options{Backend: storage.BackendFile, Path: path})
//	if err != nil {
//		return err
//	}
//	defer kv.Close()
//
//	if err := kv.Set("analyst_session", raw); err != nil {
//		return err
//	}
//	value, ok, err := kv.Get("analyst_session")
package storage
