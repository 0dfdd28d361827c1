// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for analyst.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation. Credentials are never part
// of the config; they live in the session store.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - CloudConfig: Model, reply cap and request timeout
//   - ConversationConfig: History window for payload assembly
//   - StorageConfig: Session store backend and location
//   - ValidateErrors: All validation failures at once
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (ANALYST_*), including those from .env files
//   - ~/.analyst/config.toml
//   - ~/.analyst/config.json
//   - Built-in defaults
//
// ANALYST_HOME replaces ~/.analyst.
//
// # Usage
//
//	config.LoadDotEnv()
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	window := cfg.Conversation.HistoryWindow
//	_ = cfg.Set("cloud.model", "gpt-4o")
package config
