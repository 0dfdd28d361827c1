// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - JSON output for scripting.
package cli

import (
	"encoding/json"
	"io"
	"time"

	"github.com/jeranaias/projectanalyst/internal/conversation"
)

// JSONResponse is the envelope every --json command prints.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data interface{} `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is when the response was generated (RFC 3339, UTC)
	Timestamp string `json:"timestamp"`

	// Command is the command that was executed
	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a successful response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Write encodes the response to w with two-space indentation.
func (r *JSONResponse) Write(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// =============================================================================
// RESPONSE DATA TYPES
// =============================================================================

// VersionData is returned by the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version,omitempty"`
}

// AskData is returned by the ask command.
type AskData struct {
	Question string                   `json:"question"`
	Response string                   `json:"response"`
	Model    string                   `json:"model"`
	Usage    *conversation.TokenUsage `json:"usage,omitempty"`
	Duration string                   `json:"duration"`
}

// StatusData is returned by the status command.
type StatusData struct {
	SignedIn       bool      `json:"signed_in"`
	Name           string    `json:"name,omitempty"`
	EndpointURL    string    `json:"endpoint_url,omitempty"`
	KeyFingerprint string    `json:"key_fingerprint,omitempty"`
	Since          time.Time `json:"since,omitempty"`
	Model          string    `json:"model"`
	Storage        string    `json:"storage"`
	ConfigPath     string    `json:"config_path"`
	Company        string    `json:"company"`
	Projects       int       `json:"projects"`
	ContextTokens  int       `json:"context_tokens"`
}

// DatasetData is returned by dataset --summary --json.
type DatasetData struct {
	CompanyName string   `json:"company_name"`
	FiscalYear  int      `json:"fiscal_year"`
	Projects    int      `json:"projects"`
	TeamMembers int      `json:"team_members"`
	TotalBudget float64  `json:"total_budget"`
	TotalSpent  float64  `json:"total_spent"`
	AtRisk      []string `json:"at_risk"`
}
