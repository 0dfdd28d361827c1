// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jeranaias/projectanalyst/internal/storage"
)

// StorageKey is the single storage key holding the serialized credentials.
const StorageKey = "analyst_session"

var (
	// ErrNoSession is returned by Load when nothing is stored.
	ErrNoSession = errors.New("no stored session")

	// ErrMalformed is returned by Load when the stored value cannot be used.
	ErrMalformed = errors.New("malformed stored session")
)

// Repository persists the credentials of the current session.
type Repository interface {
	Load() (Credentials, error)
	Save(Credentials) error
	Clear() error
}

// KVRepository stores credentials as JSON under StorageKey.
type KVRepository struct {
	kv  storage.KV
	key string
}

// NewKVRepository returns a Repository backed by kv.
func NewKVRepository(kv storage.KV) *KVRepository {
	return &KVRepository{kv: kv, key: StorageKey}
}

// Load implements Repository. A value that does not parse, or that lacks a
// name or key, yields ErrMalformed; the stored value is left as is.
func (r *KVRepository) Load() (Credentials, error) {
	raw, ok, err := r.kv.Get(r.key)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read session: %w", err)
	}
	if !ok {
		return Credentials{}, ErrNoSession
	}

	var c Credentials
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	c = c.Normalize()
	if err := c.Validate(); err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return c, nil
}

// Save implements Repository.
func (r *KVRepository) Save(c Credentials) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := r.kv.Set(r.key, string(data)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear implements Repository.
func (r *KVRepository) Clear() error {
	if err := r.kv.Remove(r.key); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
