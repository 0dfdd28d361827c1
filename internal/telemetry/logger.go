// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rs/zerolog"
)

// LogFilePattern is the strftime pattern of log file names.
const LogFilePattern = "analyst.%Y%m%d.log"

// LogOptions configures NewLogger.
type LogOptions struct {
	// Dir receives the rotated log files. Empty disables file logging.
	Dir string

	// Level is a zerolog level name ("debug", "info", ...). Empty means info.
	Level string

	// MaxAge is how long rotated files are kept. Zero keeps 7 days.
	MaxAge time.Duration

	// Console also writes human-readable lines to this writer (usually
	// stderr). Leave nil in the TUI.
	Console io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewLogger returns a logger writing to rotated files in opts.Dir and, when
// set, to opts.Console. The closer releases the file handle.
func NewLogger(opts LogOptions) (zerolog.Logger, io.Closer, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	var (
		writers []io.Writer
		closer  io.Closer = nopCloser{}
	)

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0700); err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("failed to create log directory: %w", err)
		}
		maxAge := opts.MaxAge
		if maxAge <= 0 {
			maxAge = 7 * 24 * time.Hour
		}
		rl, err := rotatelogs.New(
			filepath.Join(opts.Dir, LogFilePattern),
			rotatelogs.WithMaxAge(maxAge),
			rotatelogs.WithRotationTime(24*time.Hour),
		)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, rl)
		closer = rl
	}

	if opts.Console != nil {
		writers = append(writers, zerolog.ConsoleWriter{Out: opts.Console, TimeFormat: time.Kitchen})
	}

	if len(writers) == 0 {
		return zerolog.Nop(), closer, nil
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Str("app", "analyst").
		Logger()
	return logger, closer, nil
}
