// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - View and modify the config file.
//
// Command: config [subcommand]
//
// Subcommands:
//
//	show (default)      Display current configuration
//	get <key>           Print one value
//	set <key> <value>   Set a value and save
//	init [--force]      Write a default config file
//	path                Show the config file path
//	keys                List every key
//
// Examples:
//
//	analyst config set cloud.model anthropic/claude-3-haiku
//	analyst config set conversation.history_window 20
//	analyst config get ui.theme
package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/projectanalyst/internal/config"
	"github.com/jeranaias/projectanalyst/internal/ui/render"
)

// HandleConfig dispatches the config subcommands.
func HandleConfig(args Args, rt *Runtime) error {
	switch strings.ToLower(args.Subcommand) {
	case "", "show":
		return configShow(args, rt)
	case "get":
		return configGet(args, rt)
	case "set":
		return configSet(args, rt)
	case "init":
		return configInit(args, rt)
	case "path":
		path, err := configPath(args)
		if err != nil {
			return err
		}
		if args.JSON {
			return NewJSONResponse("config", map[string]string{"path": path}).Write(rt.Stdout)
		}
		fmt.Fprintln(rt.Stdout, path)
		return nil
	case "keys":
		keys := config.GetAllKeys()
		if args.JSON {
			return NewJSONResponse("config", keys).Write(rt.Stdout)
		}
		for _, k := range keys {
			fmt.Fprintln(rt.Stdout, k)
		}
		return nil
	default:
		return &ValidationError{
			Field:   "subcommand",
			Value:   args.Subcommand,
			Reason:  "unknown config subcommand",
			Example: "analyst config [show|get|set|init|path|keys]",
		}
	}
}

func configPath(args Args) (string, error) {
	if args.Config != "" {
		return args.Config, nil
	}
	return config.ConfigPathTOML()
}

func configShow(args Args, rt *Runtime) error {
	if args.JSON {
		return NewJSONResponse("config", rt.Config).Write(rt.Stdout)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(rt.Config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	out := buf.String()
	if rt.Stdout == os.Stdout && ColorsEnabled() {
		out = render.Highlight(out, "toml")
	}
	if path, err := configPath(args); err == nil && !args.Quiet {
		fmt.Fprintln(rt.Stdout, DimStyle.Render("# "+path))
	}
	fmt.Fprintln(rt.Stdout, strings.TrimRight(out, "\n"))
	if rt.ConfigErr != nil {
		fmt.Fprintf(rt.Stderr, "%s %v\n", RenderStatus("warn"), rt.ConfigErr)
	}
	return nil
}

func configGet(args Args, rt *Runtime) error {
	if args.ConfigKey == "" {
		return ErrMissingArgument("key", "analyst config get cloud.model")
	}
	val, err := rt.Config.Get(args.ConfigKey)
	if err != nil {
		return &ValidationError{Field: "key", Value: args.ConfigKey, Reason: err.Error()}
	}
	if args.JSON {
		return NewJSONResponse("config", map[string]interface{}{args.ConfigKey: val}).Write(rt.Stdout)
	}
	fmt.Fprintln(rt.Stdout, val)
	return nil
}

func configSet(args Args, rt *Runtime) error {
	if args.ConfigKey == "" || args.ConfigVal == "" {
		return ErrMissingArgument("key and value", "analyst config set cloud.model openai/gpt-4o-mini")
	}

	// Work on a copy so a rejected value leaves the loaded config intact.
	cfg := rt.Config.Clone()
	if err := cfg.Set(args.ConfigKey, args.ConfigVal); err != nil {
		return &ValidationError{Field: args.ConfigKey, Value: args.ConfigVal, Reason: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return &ValidationError{Field: args.ConfigKey, Value: args.ConfigVal, Reason: err.Error()}
	}

	path, err := configPath(args)
	if err != nil {
		return err
	}
	if args.Config == "" {
		if err := config.EnsureConfigDir(); err != nil {
			return err
		}
	}
	if err := config.SaveTOML(cfg, path); err != nil {
		return err
	}
	*rt.Config = *cfg
	rt.Logger.Info().Str("key", args.ConfigKey).Msg("config updated")

	if args.JSON {
		return NewJSONResponse("config", map[string]string{args.ConfigKey: args.ConfigVal}).Write(rt.Stdout)
	}
	if !args.Quiet {
		fmt.Fprintf(rt.Stdout, "%s %s = %s\n", RenderStatus("ok"), args.ConfigKey, args.ConfigVal)
	}
	return nil
}

func configInit(args Args, rt *Runtime) error {
	force := NewArgParser(args.Raw).BoolFlag("force")

	path, err := configPath(args)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !force {
		return NewCommandError("config", "init", "config file already exists (use --force to overwrite)", os.ErrExist)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if args.Config == "" {
		if err := config.EnsureConfigDir(); err != nil {
			return err
		}
	}
	if err := config.SaveTOML(config.Default(), path); err != nil {
		return err
	}
	if !args.Quiet {
		fmt.Fprintf(rt.Stdout, "%s wrote %s\n", RenderStatus("ok"), path)
	}
	return nil
}
