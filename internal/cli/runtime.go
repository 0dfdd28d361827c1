// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// runtime.go - Wiring of config, logging, storage, session and gateway.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/projectanalyst/internal/cloud"
	"github.com/jeranaias/projectanalyst/internal/config"
	"github.com/jeranaias/projectanalyst/internal/conversation"
	"github.com/jeranaias/projectanalyst/internal/fixture"
	"github.com/jeranaias/projectanalyst/internal/session"
	"github.com/jeranaias/projectanalyst/internal/storage"
	"github.com/jeranaias/projectanalyst/internal/telemetry"
	"github.com/jeranaias/projectanalyst/internal/tokens"
	"github.com/jeranaias/projectanalyst/internal/ui/render"
)

// ServiceName identifies this program in logs and spans.
const ServiceName = "analyst"

// =============================================================================
// RUNTIME
// =============================================================================

// Runtime holds the services one process works with.
type Runtime struct {
	Config *config.Config

	// ConfigErr is a non-fatal problem reading the config file; defaults
	// are in use when it is set.
	ConfigErr error

	Logger    zerolog.Logger
	Store     storage.KV
	Sessions  *session.Manager
	Profile   fixture.Profile
	Dataset   fixture.Dataset
	Assembler *conversation.Assembler
	Client    *cloud.Client
	Engine    *conversation.Engine
	Usage     *telemetry.UsageTracker
	Counter   *tokens.Counter

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	md      *render.Markdown
	closers []func() error
}

// RuntimeOptions overrides parts of the wiring, mostly for tests.
type RuntimeOptions struct {
	// Logger replaces the file logger built from config.
	Logger *zerolog.Logger

	// Store replaces the configured session store.
	Store storage.KV

	// HTTPClient replaces the gateway's HTTP client.
	HTTPClient *http.Client

	// Console receives human-readable log lines in addition to the file.
	Console io.Writer

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// LoadConfig reads .env files and the config file, honoring --config and
// --model. A broken config file is reported through the second result while
// defaults are returned.
func LoadConfig(args Args) (*config.Config, error) {
	config.LoadDotEnv()

	var (
		cfg     *config.Config
		loadErr error
	)
	if args.Config != "" {
		c, err := config.LoadFromPath(args.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", args.Config, err)
		}
		cfg = c
	} else {
		c, err := config.Load()
		if c == nil {
			return nil, err
		}
		cfg, loadErr = c, err
	}

	if args.Model != "" {
		cfg.Cloud.Model = args.Model
	}
	if args.Ephemeral {
		cfg.Storage.Backend = storage.BackendMemory
	}
	config.SetGlobal(cfg)
	return cfg, loadErr
}

// NewRuntime loads config and builds every service. Verbose line-mode
// commands also log to stderr; the TUI never does.
func NewRuntime(cmd Command, args Args) (*Runtime, error) {
	cfg, loadErr := LoadConfig(args)
	if cfg == nil {
		return nil, loadErr
	}

	opts := RuntimeOptions{}
	if args.Verbose && cmd != CmdTUI {
		opts.Console = os.Stderr
	}
	rt, err := NewRuntimeWithConfig(cfg, opts)
	if err != nil {
		return nil, err
	}
	rt.ConfigErr = loadErr
	if loadErr != nil {
		rt.Logger.Warn().Err(loadErr).Msg("config file ignored, using defaults")
	}
	return rt, nil
}

// NewRuntimeWithConfig builds every service from cfg.
func NewRuntimeWithConfig(cfg *config.Config, opts RuntimeOptions) (*Runtime, error) {
	rt := &Runtime{
		Config:  cfg,
		Usage:   telemetry.NewUsageTracker(),
		Counter: tokens.NewCounter(),
		Stdin:   opts.Stdin,
		Stdout:  opts.Stdout,
		Stderr:  opts.Stderr,
	}
	if rt.Stdin == nil {
		rt.Stdin = os.Stdin
	}
	if rt.Stdout == nil {
		rt.Stdout = os.Stdout
	}
	if rt.Stderr == nil {
		rt.Stderr = os.Stderr
	}

	if err := rt.initLogger(opts); err != nil {
		return nil, err
	}
	if err := rt.initStore(opts); err != nil {
		rt.Close()
		return nil, err
	}

	rt.Sessions = session.NewManager(session.NewKVRepository(rt.Store), rt.Logger)
	rt.Sessions.Restore()

	if err := rt.initConversation(opts); err != nil {
		rt.Close()
		return nil, err
	}

	rt.Logger.Debug().
		Str("model", rt.Client.Model()).
		Str("storage", cfg.Storage.Backend).
		Int("projects", len(rt.Dataset.Projects)).
		Msg("runtime ready")
	return rt, nil
}

func (rt *Runtime) initLogger(opts RuntimeOptions) error {
	if opts.Logger != nil {
		rt.Logger = *opts.Logger
		return nil
	}
	dir, err := rt.Config.LogDir()
	if err != nil {
		return err
	}
	logger, closer, err := telemetry.NewLogger(telemetry.LogOptions{
		Dir:     dir,
		Level:   rt.Config.Logging.Level,
		MaxAge:  rt.Config.LogMaxAge(),
		Console: opts.Console,
	})
	if err != nil {
		return err
	}
	rt.Logger = logger
	rt.closers = append(rt.closers, closer.Close)
	return nil
}

func (rt *Runtime) initStore(opts RuntimeOptions) error {
	if opts.Store != nil {
		rt.Store = opts.Store
		return nil
	}
	path, err := rt.Config.StoragePath()
	if err != nil {
		return err
	}
	if rt.Config.Storage.Backend != storage.BackendMemory {
		if err := config.EnsureConfigDir(); err != nil {
			return err
		}
	}
	kv, err := storage.Open(storage.Options{Backend: rt.Config.Storage.Backend, Path: path})
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	rt.Store = kv
	rt.closers = append(rt.closers, kv.Close)
	return nil
}

func (rt *Runtime) initConversation(opts RuntimeOptions) error {
	cfg := rt.Config

	profile, dataset, err := fixture.Load(cfg.Fixtures.ProfilePath, cfg.Fixtures.DatasetPath)
	if err != nil {
		return err
	}
	rt.Profile, rt.Dataset = profile, dataset

	assembler, err := conversation.NewAssembler(profile, dataset, cfg.Conversation.HistoryWindow)
	if err != nil {
		return err
	}
	rt.Assembler = assembler

	rt.Client = cloud.NewClient().
		WithHTTPClient(opts.HTTPClient).
		WithTimeout(cfg.RequestTimeout()).
		WithModel(cfg.Cloud.Model).
		WithMaxTokens(cfg.Cloud.MaxTokens).
		WithSite(cfg.App.SiteURL, cfg.App.Name).
		WithLogger(rt.Logger)

	if cfg.Telemetry.Tracing {
		path, err := cfg.TraceFilePath()
		if err != nil {
			return err
		}
		tp, shutdown, err := telemetry.InitFileTracer(ServiceName, Version, path, rt.Logger)
		if err != nil {
			// Tracing is optional; keep going without it.
			rt.Logger.Warn().Err(err).Msg("tracing disabled")
		} else {
			rt.Client.WithTracerProvider(tp)
			rt.closers = append(rt.closers, func() error {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return shutdown(ctx)
			})
		}
	}

	gateway := telemetry.InstrumentGateway(rt.Client, rt.Usage, rt.Logger)
	rt.Engine = conversation.NewEngine(assembler, gateway)
	return nil
}

// Close releases resources in reverse order of acquisition.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

// Credentials returns the signed-in credentials, falling back to the
// ANALYST_* environment variables when allowEnv is set.
func (rt *Runtime) Credentials(allowEnv bool) (session.Credentials, error) {
	if creds, ok := rt.Sessions.Current(); ok {
		return creds, nil
	}
	if allowEnv {
		if creds, ok := session.FromEnv(os.Getenv); ok {
			return creds, nil
		}
	}
	return session.Credentials{}, ErrNotSignedIn
}
