// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends returns a fresh store of every kind.
func backends(t *testing.T) map[string]KV {
	t.Helper()
	dir := t.TempDir()

	fileKV, err := NewFileKV(filepath.Join(dir, "storage.json"))
	require.NoError(t, err)

	sqliteKV, err := NewSQLiteKV(filepath.Join(dir, "storage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqliteKV.Close() })

	return map[string]KV{
		"memory": NewMemoryKV(),
		"file":   fileKV,
		"sqlite": sqliteKV,
	}
}

func TestKV_Contract(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := kv.Get("analyst_session")
			require.NoError(t, err)
			assert.False(t, ok, "fresh store should be empty")

			require.NoError(t, kv.Set("analyst_session", `{"name":"Ada"}`))
			v, ok, err := kv.Get("analyst_session")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `{"name":"Ada"}`, v)

			require.NoError(t, kv.Set("analyst_session", `{"name":"Grace"}`))
			v, _, _ = kv.Get("analyst_session")
			assert.Equal(t, `{"name":"Grace"}`, v, "Set should overwrite")

			require.NoError(t, kv.Set("other", "x"))
			require.NoError(t, kv.Remove("analyst_session"))
			_, ok, err = kv.Get("analyst_session")
			require.NoError(t, err)
			assert.False(t, ok)

			v, ok, _ = kv.Get("other")
			assert.True(t, ok, "Remove must not touch other keys")
			assert.Equal(t, "x", v)

			assert.NoError(t, kv.Remove("never-set"))
			assert.True(t, errors.Is(kv.Set("  ", "x"), ErrEmptyKey))
		})
	}
}

func TestFileKV_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")

	first, err := NewFileKV(path)
	require.NoError(t, err)
	require.NoError(t, first.Set("k", "v"))
	require.NoError(t, first.Close())

	second, err := NewFileKV(path)
	require.NoError(t, err)
	v, ok, err := second.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, FilePerm, info.Mode().Perm())
	}
}

func TestFileKV_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	kv, err := NewFileKV(path)
	require.NoError(t, err)

	_, _, err = kv.Get("k")
	assert.True(t, errors.Is(err, ErrCorrupt))
}

func TestFileKV_CorruptFileReplacedOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	kv, err := NewFileKV(path)
	require.NoError(t, err)

	require.NoError(t, kv.Set("k", "v"))
	v, ok, err := kv.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestFileKV_CorruptFileClearedOnRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	kv, err := NewFileKV(path)
	require.NoError(t, err)

	require.NoError(t, kv.Remove("k"))
	_, ok, err := kv.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileKV_Closed(t *testing.T) {
	kv, err := NewFileKV(filepath.Join(t.TempDir(), "storage.json"))
	require.NoError(t, err)
	require.NoError(t, kv.Close())

	_, _, err = kv.Get("k")
	assert.True(t, errors.Is(err, ErrClosed))
	assert.True(t, errors.Is(kv.Set("k", "v"), ErrClosed))
}

func TestSQLiteKV_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.db")

	first, err := NewSQLiteKV(path)
	require.NoError(t, err)
	require.NoError(t, first.Set("k", "v"))
	require.NoError(t, first.Close())

	second, err := NewSQLiteKV(path)
	require.NoError(t, err)
	defer second.Close()

	v, ok, err := second.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		backend string
		path    string
		wantErr bool
	}{
		{BackendFile, filepath.Join(dir, "a.json"), false},
		{"", filepath.Join(dir, "b.json"), false},
		{BackendSQLite, filepath.Join(dir, "c.db"), false},
		{BackendMemory, "", false},
		{"redis", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			kv, err := Open(Options{Backend: tt.backend, Path: tt.path})
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrUnknownBackend))
				return
			}
			require.NoError(t, err)
			defer kv.Close()
			assert.NoError(t, kv.Set("k", "v"))
		})
	}
}
