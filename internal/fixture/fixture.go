// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package fixture

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed data/profile.json data/database.json
var embedded embed.FS

// DateLayout is the wire format of project deadlines.
const DateLayout = "2006-01-02"

var (
	// ErrInvalidProfile is returned when a profile has no identity.
	ErrInvalidProfile = errors.New("invalid profile")

	// ErrInvalidDataset is returned for a dataset without a company name or
	// with duplicate project IDs.
	ErrInvalidDataset = errors.New("invalid dataset")
)

// =============================================================================
// TYPES
// =============================================================================

// Profile describes who the assistant claims to be and how it should answer.
type Profile struct {
	Identity     string `json:"identity" toml:"identity"`
	Tone         string `json:"tone" toml:"tone"`
	Instructions string `json:"instructions" toml:"instructions"`
}

// Dataset is the company "database" embedded into the system context.
// Field order matters: it is the order of the serialized JSON.
type Dataset struct {
	CompanyName string    `json:"company_name" toml:"company_name"`
	FiscalYear  int       `json:"fiscal_year" toml:"fiscal_year"`
	Projects    []Project `json:"projects" toml:"projects"`
}

// Project is a single record in the dataset. Budget and Spent are whole
// currency units; Spent is allowed to exceed Budget.
type Project struct {
	ID         string  `json:"id" toml:"id"`
	Name       string  `json:"name" toml:"name"`
	Department string  `json:"department" toml:"department"`
	Status     string  `json:"status" toml:"status"`
	Budget     float64 `json:"budget" toml:"budget"`
	Spent      float64 `json:"spent" toml:"spent"`
	TeamSize   int     `json:"team_size" toml:"team_size"`
	Deadline   Date    `json:"deadline" toml:"deadline"`
}

// Date is a calendar date without time of day.
type Date struct {
	time.Time
}

// NewDate returns the Date for year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "2006-01-02" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

// String formats the date as "2006-01-02".
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// MarshalJSON shadows time.Time's RFC 3339 encoding.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts a "2006-01-02" string.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("invalid date: %w", err)
	}
	return d.UnmarshalText([]byte(s))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// LOADING
// =============================================================================

// Default returns the embedded profile and dataset.
func Default() (Profile, Dataset) {
	var p Profile
	var d Dataset
	// The embedded files are part of the build; a decode failure is a
	// programming error.
	if err := decodeEmbedded("data/profile.json", &p); err != nil {
		panic(err)
	}
	if err := decodeEmbedded("data/database.json", &d); err != nil {
		panic(err)
	}
	return p, d
}

// Load returns the profile and dataset, reading each from its path when the
// path is non-empty and falling back to the embedded copy otherwise.
func Load(profilePath, datasetPath string) (Profile, Dataset, error) {
	profile, dataset := Default()

	if profilePath != "" {
		var p Profile
		if err := decodeFile(profilePath, &p); err != nil {
			return Profile{}, Dataset{}, fmt.Errorf("failed to load profile: %w", err)
		}
		profile = p
	}
	if datasetPath != "" {
		var d Dataset
		if err := decodeFile(datasetPath, &d); err != nil {
			return Profile{}, Dataset{}, fmt.Errorf("failed to load dataset: %w", err)
		}
		dataset = d
	}

	if err := profile.Validate(); err != nil {
		return Profile{}, Dataset{}, err
	}
	if err := dataset.Validate(); err != nil {
		return Profile{}, Dataset{}, err
	}
	return profile, dataset, nil
}

// Validate checks the profile has an identity.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Identity) == "" {
		return fmt.Errorf("%w: identity is required", ErrInvalidProfile)
	}
	return nil
}

// Validate checks the dataset has a company name and unique project IDs.
func (d Dataset) Validate() error {
	if strings.TrimSpace(d.CompanyName) == "" {
		return fmt.Errorf("%w: company_name is required", ErrInvalidDataset)
	}
	seen := make(map[string]bool, len(d.Projects))
	for i, p := range d.Projects {
		if p.ID == "" {
			return fmt.Errorf("%w: project %d has no id", ErrInvalidDataset, i)
		}
		if seen[p.ID] {
			return fmt.Errorf("%w: duplicate project id %s", ErrInvalidDataset, p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}

// JSON returns the compact JSON encoding of the dataset. &, < and > are
// written as is.
func (d Dataset) JSON() (string, error) {
	return d.encode("")
}

// IndentedJSON returns the dataset as two-space indented JSON.
func (d Dataset) IndentedJSON() (string, error) {
	return d.encode("  ")
}

func (d Dataset) encode(indent string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(d); err != nil {
		return "", fmt.Errorf("failed to encode dataset: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Project returns the project with the given ID.
func (d Dataset) Project(id string) (Project, bool) {
	for _, p := range d.Projects {
		if strings.EqualFold(p.ID, id) {
			return p, true
		}
	}
	return Project{}, false
}

func decodeEmbedded(name string, v interface{}) error {
	data, err := embedded.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read embedded %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse embedded %s: %w", name, err)
	}
	return nil
}

func decodeFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), v); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	return nil
}
