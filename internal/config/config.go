// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/projectanalyst/internal/util"
)

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = "1"

// EnvHome overrides the configuration directory.
const EnvHome = "ANALYST_HOME"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete analyst configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	App          AppConfig          `toml:"app" json:"app"`
	Cloud        CloudConfig        `toml:"cloud" json:"cloud"`
	Conversation ConversationConfig `toml:"conversation" json:"conversation"`
	Fixtures     FixturesConfig     `toml:"fixtures" json:"fixtures"`
	Storage      StorageConfig      `toml:"storage" json:"storage"`
	Logging      LoggingConfig      `toml:"logging" json:"logging"`
	Telemetry    TelemetryConfig    `toml:"telemetry" json:"telemetry"`
	UI           UIConfig           `toml:"ui" json:"ui"`
}

// AppConfig identifies the application to the completion endpoint.
type AppConfig struct {
	// Name is sent as X-Title when the user has no display name.
	Name string `toml:"name" json:"name"`
	// SiteURL is sent as HTTP-Referer.
	SiteURL string `toml:"site_url" json:"site_url"`
}

// CloudConfig contains completion endpoint settings. The endpoint URL and
// API key belong to the session, not the config file.
type CloudConfig struct {
	Model              string `toml:"model" json:"model"`
	MaxTokens          int    `toml:"max_tokens" json:"max_tokens"`
	RequestTimeoutSecs int    `toml:"request_timeout_secs" json:"request_timeout_secs"`
}

// ConversationConfig controls payload assembly.
type ConversationConfig struct {
	// HistoryWindow is how many prior entries are sent with each question.
	HistoryWindow int `toml:"history_window" json:"history_window"`
}

// FixturesConfig points at replacement profile and dataset files.
// Empty paths use the built-in fixtures.
type FixturesConfig struct {
	ProfilePath string `toml:"profile_path" json:"profile_path"`
	DatasetPath string `toml:"dataset_path" json:"dataset_path"`
}

// StorageConfig selects the session store.
type StorageConfig struct {
	// Backend is "file", "sqlite" or "memory".
	Backend string `toml:"backend" json:"backend"`
	// Path overrides the default location under the config directory.
	Path string `toml:"path" json:"path"`
}

// LoggingConfig controls the rotated log files.
type LoggingConfig struct {
	Level      string `toml:"level" json:"level"`
	Dir        string `toml:"dir" json:"dir"`
	MaxAgeDays int    `toml:"max_age_days" json:"max_age_days"`
}

// TelemetryConfig controls span export.
type TelemetryConfig struct {
	Tracing   bool   `toml:"tracing" json:"tracing"`
	TraceFile string `toml:"trace_file" json:"trace_file"`
}

// UIConfig contains terminal rendering preferences.
type UIConfig struct {
	// Markdown renders assistant replies with glamour.
	Markdown bool `toml:"markdown" json:"markdown"`
	// WordWrap is the reply wrap width; 0 follows the terminal.
	WordWrap int `toml:"word_wrap" json:"word_wrap"`
	// Theme is "auto", "dark" or "light".
	Theme string `toml:"theme" json:"theme"`
}

// =============================================================================
// DEFAULT CONFIG
// =============================================================================

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		App: AppConfig{
			Name:    "Project Analyst AI",
			SiteURL: "https://github.com/jeranaias/projectanalyst",
		},
		Cloud: CloudConfig{
			Model:              "openrouter/auto",
			MaxTokens:          1000,
			RequestTimeoutSecs: 120,
		},
		Conversation: ConversationConfig{
			HistoryWindow: 10,
		},
		Storage: StorageConfig{
			Backend: "file",
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxAgeDays: 7,
		},
		UI: UIConfig{
			Markdown: true,
			Theme:    "auto",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the analyst configuration directory path, honoring
// ANALYST_HOME.
func ConfigDir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".analyst"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// StoragePath returns the session store location for the configured backend.
func (c *Config) StoragePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if strings.EqualFold(c.Storage.Backend, "sqlite") {
		return filepath.Join(dir, "session.db"), nil
	}
	return filepath.Join(dir, "session.json"), nil
}

// LogDir returns the directory for rotated logs.
func (c *Config) LogDir() (string, error) {
	if c.Logging.Dir != "" {
		return c.Logging.Dir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs"), nil
}

// TraceFilePath returns the span output file.
func (c *Config) TraceFilePath() (string, error) {
	if c.Telemetry.TraceFile != "" {
		return c.Telemetry.TraceFile, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "traces.json"), nil
}

// RequestTimeout returns the per-request timeout; zero means none.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Cloud.RequestTimeoutSecs) * time.Second
}

// LogMaxAge returns how long rotated logs are kept.
func (c *Config) LogMaxAge() time.Duration {
	return time.Duration(c.Logging.MaxAgeDays) * 24 * time.Hour
}

// ensureSecurePermissions tightens a config file to 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// LoadDotEnv loads .env from the working directory and the config directory
// into the process environment. Variables already set are left alone.
func LoadDotEnv() {
	_ = godotenv.Load()
	if dir, err := ConfigDir(); err == nil {
		_ = godotenv.Load(filepath.Join(dir, ".env"))
	}
}

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	var loadErr error

	if tomlPath, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			cfg, err := LoadFromPath(tomlPath)
			if err == nil {
				return cfg, nil
			}
			loadErr = err
		}
	}

	if loadErr == nil {
		if jsonPath, err := ConfigPathJSON(); err == nil {
			if _, statErr := os.Stat(jsonPath); statErr == nil {
				cfg, err := LoadFromPath(jsonPath)
				if err == nil {
					return cfg, nil
				}
				loadErr = err
			}
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Defaults, with any load error for informational purposes.
	return cfg, loadErr
}

// LoadTOML decodes a TOML file onto cfg. Keys absent from the file keep
// their current values.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		fmt.Fprintf(os.Stderr, "Warning: unknown config keys in %s: %v\n", path, undecoded)
	}
	return nil
}

// LoadJSON decodes a JSON file onto cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(strings.ToLower(path), ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SetDefaults fills blank values that have a default. Zero-valued numbers
// that are meaningful (request timeout) are left alone.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Version == "" {
		c.Version = d.Version
	}
	if strings.TrimSpace(c.App.Name) == "" {
		c.App.Name = d.App.Name
	}
	if c.App.SiteURL == "" {
		c.App.SiteURL = d.App.SiteURL
	}
	if strings.TrimSpace(c.Cloud.Model) == "" {
		c.Cloud.Model = d.Cloud.Model
	}
	if c.Cloud.MaxTokens == 0 {
		c.Cloud.MaxTokens = d.Cloud.MaxTokens
	}
	if c.Conversation.HistoryWindow == 0 {
		c.Conversation.HistoryWindow = d.Conversation.HistoryWindow
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = d.Storage.Backend
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.MaxAgeDays == 0 {
		c.Logging.MaxAgeDays = d.Logging.MaxAgeDays
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg atomically with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# analyst configuration file")
	fmt.Fprintln(&buf, "#")
	fmt.Fprintln(&buf, "# Credentials are not stored here; use `analyst login`.")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Limits enforced by Validate.
const (
	MaxHistoryWindow = 100
	MaxReplyTokens   = 32000
)

var (
	validBackends  = map[string]bool{"file": true, "sqlite": true, "memory": true}
	validLogLevels = map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true, "disabled": true}
	validThemes    = map[string]bool{"auto": true, "dark": true, "light": true}
)

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.App.SiteURL != "" {
		if u, err := url.Parse(c.App.SiteURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "app.site_url",
				Message: fmt.Sprintf("invalid URL '%s'", c.App.SiteURL),
			})
		}
	}

	if c.Cloud.MaxTokens < 1 || c.Cloud.MaxTokens > MaxReplyTokens {
		errs = append(errs, ValidationError{
			Field:   "cloud.max_tokens",
			Message: fmt.Sprintf("must be between 1 and %d, got %d", MaxReplyTokens, c.Cloud.MaxTokens),
		})
	}
	if c.Cloud.RequestTimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "cloud.request_timeout_secs",
			Message: "must not be negative",
		})
	}

	if c.Conversation.HistoryWindow < 1 || c.Conversation.HistoryWindow > MaxHistoryWindow {
		errs = append(errs, ValidationError{
			Field:   "conversation.history_window",
			Message: fmt.Sprintf("must be between 1 and %d, got %d", MaxHistoryWindow, c.Conversation.HistoryWindow),
		})
	}

	if !validBackends[strings.ToLower(c.Storage.Backend)] {
		errs = append(errs, ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: file, sqlite, memory", c.Storage.Backend),
		})
	}

	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: trace, debug, info, warn, error, disabled", c.Logging.Level),
		})
	}
	if c.Logging.MaxAgeDays < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_age_days",
			Message: "must not be negative",
		})
	}

	if c.UI.WordWrap < 0 {
		errs = append(errs, ValidationError{
			Field:   "ui.word_wrap",
			Message: "must not be negative",
		})
	}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - ANALYST_MODEL: overrides cloud.model
//   - ANALYST_MAX_TOKENS: overrides cloud.max_tokens
//   - ANALYST_HISTORY_WINDOW: overrides conversation.history_window
//   - ANALYST_PROFILE: overrides fixtures.profile_path
//   - ANALYST_DATASET: overrides fixtures.dataset_path
//   - ANALYST_STORAGE: overrides storage.backend
//   - ANALYST_LOG_LEVEL: overrides logging.level
//   - ANALYST_TRACING: "1" or "true" enables tracing
//
// Malformed numbers are ignored.
func (c *Config) ApplyEnvOverrides() {
	if model := os.Getenv("ANALYST_MODEL"); model != "" {
		c.Cloud.Model = model
	}
	if v := os.Getenv("ANALYST_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Cloud.MaxTokens = n
		}
	}
	if v := os.Getenv("ANALYST_HISTORY_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Conversation.HistoryWindow = n
		}
	}
	if p := os.Getenv("ANALYST_PROFILE"); p != "" {
		c.Fixtures.ProfilePath = p
	}
	if p := os.Getenv("ANALYST_DATASET"); p != "" {
		c.Fixtures.DatasetPath = p
	}
	if backend := os.Getenv("ANALYST_STORAGE"); backend != "" {
		c.Storage.Backend = backend
	}
	if level := os.Getenv("ANALYST_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if tracing := os.Getenv("ANALYST_TRACING"); tracing != "" {
		c.Telemetry.Tracing = tracing == "1" || strings.ToLower(tracing) == "true"
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "cloud.model").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "cloud.model").
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("'%s' is a section, not a value", key)
			}
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field
// equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type
// conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			lower := strings.ToLower(strVal)
			field.SetBool(lower == "1" || lower == "true" || lower == "yes")
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return errors.New("cannot assign nil")
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"app.name",
		"app.site_url",
		"cloud.model",
		"cloud.max_tokens",
		"cloud.request_timeout_secs",
		"conversation.history_window",
		"fixtures.profile_path",
		"fixtures.dataset_path",
		"storage.backend",
		"storage.path",
		"logging.level",
		"logging.dir",
		"logging.max_age_days",
		"telemetry.tracing",
		"telemetry.trace_file",
		"ui.markdown",
		"ui.word_wrap",
		"ui.theme",
	}
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the config as indented JSON for debugging.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
			cfg = Default()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
