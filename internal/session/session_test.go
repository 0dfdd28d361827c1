// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/projectanalyst/internal/storage"
)

func newTestManager(t *testing.T) (*Manager, *storage.MemoryKV, *bytes.Buffer) {
	t.Helper()
	kv := storage.NewMemoryKV()
	var logs bytes.Buffer
	return NewManager(NewKVRepository(kv), zerolog.New(&logs)), kv, &logs
}

// failingRepo fails every write.
type failingRepo struct{ err error }

func (r failingRepo) Load() (Credentials, error) { return Credentials{}, ErrNoSession }
func (r failingRepo) Save(Credentials) error     { return r.err }
func (r failingRepo) Clear() error               { return r.err }

func TestNewCredentials(t *testing.T) {
	tests := []struct {
		name    string
		in      [3]string
		want    Credentials
		wantErr error
	}{
		{
			name: "trims and defaults endpoint",
			in:   [3]string{"  Ada ", " sk-or-1 ", "   "},
			want: Credentials{DisplayName: "Ada", APIKey: "sk-or-1", EndpointURL: DefaultEndpointURL},
		},
		{
			name: "custom endpoint keeps value without trailing slash",
			in:   [3]string{"Ada", "k", "http://localhost:8080/v1/"},
			want: Credentials{DisplayName: "Ada", APIKey: "k", EndpointURL: "http://localhost:8080/v1"},
		},
		{name: "blank name", in: [3]string{" ", "k", ""}, wantErr: ErrMissingName},
		{name: "blank key", in: [3]string{"Ada", "\t", ""}, wantErr: ErrMissingAPIKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewCredentials(tt.in[0], tt.in[1], tt.in[2])
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCredentials_StoredShape(t *testing.T) {
	c := Credentials{DisplayName: "Ada", APIKey: "sk-or-1", EndpointURL: DefaultEndpointURL}
	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Ada","apiKey":"sk-or-1","baseURL":"https://openrouter.ai/api/v1"}`, string(data))
}

func TestCredentials_StringHidesKey(t *testing.T) {
	c := Credentials{DisplayName: "Ada", APIKey: "sk-or-secret", EndpointURL: DefaultEndpointURL}
	assert.NotContains(t, c.String(), "secret")
	assert.Len(t, c.KeyFingerprint(), 8)
	assert.Equal(t, "none", Credentials{}.KeyFingerprint())
}

func TestFromEnv(t *testing.T) {
	env := map[string]string{EnvName: "Ada", EnvAPIKey: "k"}
	c, ok := FromEnv(func(k string) string { return env[k] })
	require.True(t, ok)
	assert.Equal(t, DefaultEndpointURL, c.EndpointURL)

	_, ok = FromEnv(func(string) string { return "" })
	assert.False(t, ok)
}

func TestManager_LoginPersistsAndLogoutClears(t *testing.T) {
	mgr, kv, _ := newTestManager(t)
	assert.Equal(t, StateAnonymous, mgr.State())

	require.NoError(t, mgr.Login(" Ada ", " sk-or-1 ", ""))
	assert.True(t, mgr.IsAuthenticated())

	creds, ok := mgr.Current()
	require.True(t, ok)
	assert.Equal(t, "Ada", creds.DisplayName)
	assert.Equal(t, "sk-or-1", creds.APIKey)
	assert.Equal(t, DefaultEndpointURL, creds.EndpointURL)

	raw, ok, err := kv.Get(StorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"name":"Ada","apiKey":"sk-or-1","baseURL":"https://openrouter.ai/api/v1"}`, raw)

	require.NoError(t, mgr.Logout())
	assert.Equal(t, StateAnonymous, mgr.State())
	_, ok = mgr.Current()
	assert.False(t, ok)
	_, ok, _ = kv.Get(StorageKey)
	assert.False(t, ok, "logout must remove the stored session")
}

func TestManager_LoginValidation(t *testing.T) {
	mgr, kv, _ := newTestManager(t)

	assert.True(t, errors.Is(mgr.Login("Ada", "  ", ""), ErrMissingAPIKey))
	assert.True(t, errors.Is(mgr.Login("", "k", ""), ErrMissingName))
	assert.Equal(t, StateAnonymous, mgr.State())

	_, ok, _ := kv.Get(StorageKey)
	assert.False(t, ok)
}

func TestManager_LoginTwice(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	require.NoError(t, mgr.Login("Ada", "k1", ""))

	err := mgr.Login("Grace", "k2", "")
	assert.True(t, errors.Is(err, ErrAlreadyAuthenticated))

	creds, _ := mgr.Current()
	assert.Equal(t, "Ada", creds.DisplayName)
}

func TestManager_LoginStorageFailureStaysAnonymous(t *testing.T) {
	mgr := NewManager(failingRepo{err: errors.New("disk full")}, zerolog.Nop())

	err := mgr.Login("Ada", "k", "")
	assert.Error(t, err)
	assert.Equal(t, StateAnonymous, mgr.State())
}

func TestManager_Restore(t *testing.T) {
	kv := storage.NewMemoryKV()
	require.NoError(t, kv.Set(StorageKey, `{"name":"Ada","apiKey":"k","baseURL":""}`))

	mgr := NewManager(NewKVRepository(kv), zerolog.Nop())
	assert.Equal(t, StateAuthenticated, mgr.Restore())

	creds, ok := mgr.Current()
	require.True(t, ok)
	assert.Equal(t, "Ada", creds.DisplayName)
	assert.Equal(t, DefaultEndpointURL, creds.EndpointURL)
}

func TestManager_RestoreEmpty(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	assert.Equal(t, StateAnonymous, mgr.Restore())
}

func TestManager_RestoreMalformedIsLoggedAndKept(t *testing.T) {
	for _, raw := range []string{`{"name":`, `{"name":"Ada"}`, `[]`} {
		t.Run(raw, func(t *testing.T) {
			mgr, kv, logs := newTestManager(t)
			require.NoError(t, kv.Set(StorageKey, raw))

			assert.Equal(t, StateAnonymous, mgr.Restore())
			assert.True(t, strings.Contains(logs.String(), "malformed"), "expected a warning, got %q", logs.String())

			stored, ok, err := kv.Get(StorageKey)
			require.NoError(t, err)
			assert.True(t, ok, "malformed value must not be deleted")
			assert.Equal(t, raw, stored)
		})
	}
}

func TestManager_CorruptStorageFileRecoversOnLogin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))
	kv, err := storage.NewFileKV(path)
	require.NoError(t, err)
	var logs bytes.Buffer
	mgr := NewManager(NewKVRepository(kv), zerolog.New(&logs))

	assert.Equal(t, StateAnonymous, mgr.Restore())
	assert.Contains(t, logs.String(), "corrupt")

	require.NoError(t, mgr.Login("Ada", "k", ""))
	require.NoError(t, mgr.Logout())

	again := NewManager(NewKVRepository(kv), zerolog.Nop())
	assert.Equal(t, StateAnonymous, again.Restore())
}

func TestManager_RestoreAfterLoginInNewProcess(t *testing.T) {
	kv := storage.NewMemoryKV()
	first := NewManager(NewKVRepository(kv), zerolog.Nop())
	require.NoError(t, first.Login("Ada", "k", "http://localhost:1234/v1"))

	second := NewManager(NewKVRepository(kv), zerolog.Nop())
	require.Equal(t, StateAuthenticated, second.Restore())

	a, _ := first.Current()
	b, _ := second.Current()
	assert.Equal(t, a, b)
}

func TestManager_LogoutStorageFailureStillAnonymous(t *testing.T) {
	repo := &toggleRepo{}
	mgr := NewManager(repo, zerolog.Nop())
	require.NoError(t, mgr.Login("Ada", "k", ""))

	repo.failClear = true
	assert.Error(t, mgr.Logout())
	assert.Equal(t, StateAnonymous, mgr.State())
}

func TestManager_GetStatus(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	assert.Equal(t, StateAnonymous, mgr.GetStatus().State)

	require.NoError(t, mgr.Login("Ada", "sk-or-1", ""))
	s := mgr.GetStatus()
	assert.Equal(t, StateAuthenticated, s.State)
	assert.Equal(t, "Ada", s.DisplayName)
	assert.Equal(t, DefaultEndpointURL, s.EndpointURL)
	assert.Len(t, s.KeyFingerprint, 8)
	assert.False(t, s.Since.IsZero())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "anonymous", StateAnonymous.String())
	assert.Equal(t, "authenticated", StateAuthenticated.String())
	assert.Equal(t, "State(9)", State(9).String())
}

type toggleRepo struct {
	saved     *Credentials
	failClear bool
}

func (r *toggleRepo) Load() (Credentials, error) {
	if r.saved == nil {
		return Credentials{}, ErrNoSession
	}
	return *r.saved, nil
}

func (r *toggleRepo) Save(c Credentials) error {
	r.saved = &c
	return nil
}

func (r *toggleRepo) Clear() error {
	if r.failClear {
		return errors.New("locked")
	}
	r.saved = nil
	return nil
}
