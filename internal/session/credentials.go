// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// DefaultEndpointURL is used whenever the endpoint is left blank.
const DefaultEndpointURL = "https://openrouter.ai/api/v1"

// Environment variables read by FromEnv.
const (
	EnvName     = "ANALYST_NAME"
	EnvAPIKey   = "ANALYST_API_KEY"
	EnvEndpoint = "ANALYST_ENDPOINT_URL"
)

var (
	// ErrMissingName is returned when the display name is blank.
	ErrMissingName = errors.New("display name is required")

	// ErrMissingAPIKey is returned when the API key is blank.
	ErrMissingAPIKey = errors.New("API key is required")
)

// Credentials identify the user to the completion endpoint.
//
// The JSON field names are the stored format and must not change.
type Credentials struct {
	DisplayName string `json:"name"`
	APIKey      string `json:"apiKey"`
	EndpointURL string `json:"baseURL"`
}

// NewCredentials trims every field, substitutes DefaultEndpointURL for a
// blank endpoint and validates the result.
func NewCredentials(name, apiKey, endpoint string) (Credentials, error) {
	c := Credentials{
		DisplayName: name,
		APIKey:      apiKey,
		EndpointURL: endpoint,
	}.Normalize()
	if err := c.Validate(); err != nil {
		return Credentials{}, err
	}
	return c, nil
}

// Normalize returns a copy with trimmed fields, the default endpoint when
// blank, and no trailing slash on the endpoint.
func (c Credentials) Normalize() Credentials {
	c.DisplayName = strings.TrimSpace(c.DisplayName)
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.EndpointURL = strings.TrimRight(strings.TrimSpace(c.EndpointURL), "/")
	if c.EndpointURL == "" {
		c.EndpointURL = DefaultEndpointURL
	}
	return c
}

// Validate checks that the display name and API key are present.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.DisplayName) == "" {
		return ErrMissingName
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// KeyFingerprint returns the first 8 hex chars of the key's SHA-256, for logs
// and status output. The key itself is never printed.
func (c Credentials) KeyFingerprint() string {
	if c.APIKey == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(c.APIKey))
	return hex.EncodeToString(h[:4])
}

// String implements fmt.Stringer without exposing the key.
func (c Credentials) String() string {
	return fmt.Sprintf("%s @ %s (key %s)", c.DisplayName, c.EndpointURL, c.KeyFingerprint())
}

// FromEnv builds credentials from ANALYST_NAME, ANALYST_API_KEY and
// ANALYST_ENDPOINT_URL. It reports false when the name or key is unset.
func FromEnv(getenv func(string) string) (Credentials, bool) {
	c, err := NewCredentials(getenv(EnvName), getenv(EnvAPIKey), getenv(EnvEndpoint))
	if err != nil {
		return Credentials{}, false
	}
	return c, true
}
