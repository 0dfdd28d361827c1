// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jeranaias/projectanalyst/internal/util"
)

// FilePerm is the mode of the storage file. It holds an API key.
const FilePerm os.FileMode = 0600

// FileKV stores all keys in one JSON object file.
//
// Every Set and Remove rewrites the whole file atomically. The file is read
// on each Get so that two analyst processes sharing a config dir observe each
// other's logins and logouts.
type FileKV struct {
	path   string
	mu     sync.Mutex
	closed bool
}

// NewFileKV returns a store backed by path. The file is created lazily on the
// first write; its parent directory is created now.
func NewFileKV(path string) (*FileKV, error) {
	if path == "" {
		return nil, errors.New("storage file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileKV{path: path}, nil
}

// Path returns the backing file path.
func (f *FileKV) Path() string {
	return f.path
}

// Get implements KV.
func (f *FileKV) Get(key string) (string, bool, error) {
	if err := checkKey(key); err != nil {
		return "", false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return "", false, ErrClosed
	}

	values, err := f.read()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// Set implements KV.
func (f *FileKV) Set(key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}

	values, _, err := f.readForWrite()
	if err != nil {
		return err
	}
	values[key] = value
	return f.write(values)
}

// Remove implements KV.
func (f *FileKV) Remove(key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}

	values, reset, err := f.readForWrite()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok && !reset {
		return nil
	}
	delete(values, key)
	return f.write(values)
}

// Close implements KV.
func (f *FileKV) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// read loads the file. A missing or empty file is an empty store.
func (f *FileKV) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("failed to read storage file: %w", err)
	}
	values := make(map[string]string)
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, f.path, err)
	}
	return values, nil
}

// readForWrite is read for Set and Remove. A corrupt file is discarded and
// the store starts over empty; reset reports that this happened.
func (f *FileKV) readForWrite() (values map[string]string, reset bool, err error) {
	values, err = f.read()
	if errors.Is(err, ErrCorrupt) {
		return make(map[string]string), true, nil
	}
	return values, false, err
}

func (f *FileKV) write(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode storage file: %w", err)
	}
	if err := util.AtomicWriteFile(f.path, data, FilePerm); err != nil {
		return fmt.Errorf("failed to write storage file: %w", err)
	}
	return nil
}
