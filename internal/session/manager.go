// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/projectanalyst/internal/storage"
)

// ErrAlreadyAuthenticated is returned by Login while a session is active.
var ErrAlreadyAuthenticated = errors.New("already signed in")

// State is the lifecycle state of a Manager.
type State int

const (
	// StateAnonymous means no credentials are held.
	StateAnonymous State = iota

	// StateAuthenticated means credentials are held in memory and storage.
	StateAuthenticated
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// =============================================================================
// SESSION MANAGER
// =============================================================================

// Manager owns the current credentials and keeps them mirrored in a
// Repository.
type Manager struct {
	mu sync.Mutex

	repo   Repository
	logger zerolog.Logger
	now    func() time.Time

	state State
	creds Credentials
	since time.Time
}

// NewManager returns an Anonymous manager. Call Restore to pick up a stored
// session.
func NewManager(repo Repository, logger zerolog.Logger) *Manager {
	return &Manager{
		repo:   repo,
		logger: logger.With().Str("component", "session").Logger(),
		now:    time.Now,
		state:  StateAnonymous,
	}
}

// Restore loads stored credentials and becomes Authenticated when they parse.
// A malformed stored value is logged and otherwise ignored; it stays in
// storage until the next Login overwrites it or Logout removes it.
func (m *Manager) Restore() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	creds, err := m.repo.Load()
	switch {
	case err == nil:
		m.state = StateAuthenticated
		m.creds = creds
		m.since = m.now()
		m.logger.Info().
			Str("endpoint", creds.EndpointURL).
			Str("key", creds.KeyFingerprint()).
			Msg("restored session")
	case errors.Is(err, ErrNoSession):
		m.logger.Debug().Msg("no stored session")
	case errors.Is(err, ErrMalformed):
		m.logger.Warn().Err(err).Msg("ignoring malformed stored session")
	case errors.Is(err, storage.ErrCorrupt):
		m.logger.Warn().Err(err).Msg("storage file is corrupt, next login replaces it")
	default:
		m.logger.Error().Err(err).Msg("failed to load stored session")
	}
	return m.state
}

// Login validates and stores new credentials. Blank endpoint means
// DefaultEndpointURL. On any error the manager stays Anonymous.
func (m *Manager) Login(name, apiKey, endpoint string) error {
	creds, err := NewCredentials(name, apiKey, endpoint)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateAuthenticated {
		return ErrAlreadyAuthenticated
	}
	if err := m.repo.Save(creds); err != nil {
		return err
	}

	m.state = StateAuthenticated
	m.creds = creds
	m.since = m.now()
	m.logger.Info().
		Str("endpoint", creds.EndpointURL).
		Str("key", creds.KeyFingerprint()).
		Msg("signed in")
	return nil
}

// Logout forgets the credentials in memory and in storage. The manager is
// Anonymous afterwards even if clearing storage fails; that error is
// returned.
func (m *Manager) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	wasAuthenticated := m.state == StateAuthenticated
	m.state = StateAnonymous
	m.creds = Credentials{}
	m.since = time.Time{}

	if err := m.repo.Clear(); err != nil {
		m.logger.Error().Err(err).Msg("failed to clear stored session")
		return err
	}
	if wasAuthenticated {
		m.logger.Info().Msg("signed out")
	}
	return nil
}

// Current returns the credentials and whether a session is active.
func (m *Manager) Current() (Credentials, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creds, m.state == StateAuthenticated
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsAuthenticated reports whether credentials are held.
func (m *Manager) IsAuthenticated() bool {
	return m.State() == StateAuthenticated
}

// =============================================================================
// STATUS
// =============================================================================

// Status is a printable snapshot of the session.
type Status struct {
	State          State
	DisplayName    string
	EndpointURL    string
	KeyFingerprint string
	Since          time.Time
	Duration       time.Duration
}

// GetStatus returns a snapshot of the session.
func (m *Manager) GetStatus() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Status{State: m.state}
	if m.state == StateAuthenticated {
		s.DisplayName = m.creds.DisplayName
		s.EndpointURL = m.creds.EndpointURL
		s.KeyFingerprint = m.creds.KeyFingerprint()
		s.Since = m.since
		s.Duration = m.now().Sub(m.since)
	}
	return s
}
