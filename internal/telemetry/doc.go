// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry provides logging, tracing and token usage accounting for
// analyst.
//
// The TUI owns the terminal, so logs go to daily-rotated files under the
// config directory. Tracing is off unless enabled in config; when on, spans
// are written as JSON to a trace file. Usage accounting is in memory only and
// covers the current process.
//
// # Key Types
//
//   - LogOptions / NewLogger: zerolog logger over rotatelogs files
//   - InitTracer: installs an OpenTelemetry tracer provider
//   - UsageTracker: per-run and per-sign-in request, failure and token totals
//   - InstrumentGateway: conversation.Gateway decorator feeding a UsageTracker
//
// # Usage
//
//	logger, closer, err := telemetry.NewLogger(telemetry.LogOptions{Dir: dir, Level: "info"})
//	if err != nil {
//		return err
//	}
//	defer closer.Close()
//
//	usage := telemetry.NewUsageTracker()
//	gw := telemetry.InstrumentGateway(client, usage, logger)
//
// # Privacy
//
// Prompts, replies and API keys are never logged or traced; only counts,
// durations, status codes and key fingerprints.
package telemetry
