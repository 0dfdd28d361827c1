// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"fmt"
	"strings"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

var (
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("storage closed")

	// ErrUnknownBackend is returned by Open for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown storage backend")

	// ErrEmptyKey is returned when a key is blank.
	ErrEmptyKey = errors.New("storage key is empty")

	// ErrCorrupt is returned by Get when the backing file cannot be parsed.
	// Writes replace a corrupt file instead of failing.
	ErrCorrupt = errors.New("storage file is corrupt")
)

// KV is a flat string key/value store.
//
// Get reports ok=false for a missing key; that is not an error.
// Remove of a missing key is a no-op.
type KV interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	// Backend is one of BackendFile, BackendSQLite or BackendMemory.
	Backend string

	// Path is the JSON file or database file. Ignored for memory.
	Path string
}

// Open returns the store described by opts.
func Open(opts Options) (KV, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case BackendFile, "":
		return NewFileKV(opts.Path)
	case BackendSQLite:
		return NewSQLiteKV(opts.Path)
	case BackendMemory:
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	return nil
}
