// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/projectanalyst/internal/cloud"
	"github.com/jeranaias/projectanalyst/internal/conversation"
	"github.com/jeranaias/projectanalyst/internal/session"
)

func TestNewLogger_WritesToDir(t *testing.T) {
	dir := t.TempDir()
	logger, closer, err := NewLogger(LogOptions{Dir: dir, Level: "debug"})
	require.NoError(t, err)

	logger.Info().Str("k", "v").Msg("hello")
	require.NoError(t, closer.Close())

	matches, err := filepath.Glob(filepath.Join(dir, "analyst.*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"hello"`)
	assert.Contains(t, string(data), `"k":"v"`)
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := NewLogger(LogOptions{Level: "warn", Console: &buf})
	require.NoError(t, err)

	logger.Info().Msg("quiet")
	logger.Warn().Msg("loud")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, _, err := NewLogger(LogOptions{Level: "chatty"})
	assert.Error(t, err)
}

func TestNewLogger_NoSinks(t *testing.T) {
	logger, closer, err := NewLogger(LogOptions{})
	require.NoError(t, err)
	assert.Equal(t, zerolog.Disabled, logger.GetLevel())
	assert.NoError(t, closer.Close())
}

func TestInitFileTracer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace", "spans.json")
	tp, shutdown, err := InitFileTracer("analyst-test", "0.0.0", path, zerolog.Nop())
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(context.Background(), "unit")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Name":"unit"`)
	assert.Contains(t, string(data), "analyst-test")
}

func TestUsageTracker_Summary(t *testing.T) {
	tracker := NewUsageTracker()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	tracker.Record(Exchange{Timestamp: base, Duration: 2 * time.Second, OK: true,
		Usage: conversation.TokenUsage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120}})
	tracker.Record(Exchange{Timestamp: base.Add(time.Minute), Duration: 4 * time.Second, OK: false, Failure: "authentication"})

	s := tracker.Summary()
	assert.Equal(t, 2, s.Requests)
	assert.Equal(t, 1, s.Failures)
	assert.Equal(t, 120, s.Tokens.TotalTokens)
	assert.Equal(t, 3*time.Second, s.AverageLatency())
	assert.Equal(t, base.Add(time.Minute), s.LastRequest)
	assert.Len(t, tracker.Exchanges(), 2)
}

func TestUsageTracker_Sessions(t *testing.T) {
	tracker := NewUsageTracker()
	first := tracker.CurrentSession()
	assert.NotEmpty(t, first.ID)
	assert.True(t, first.EndTime.IsZero())

	tracker.Record(Exchange{Duration: time.Second, OK: true,
		Usage: conversation.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}})
	tracker.Record(Exchange{Duration: 3 * time.Second, OK: false, Failure: "timeout"})

	ended := tracker.EndSession()
	assert.Equal(t, first.ID, ended.ID)
	assert.False(t, ended.EndTime.IsZero())
	assert.Equal(t, 2, ended.Requests)
	assert.Equal(t, 1, ended.Failures)
	assert.Equal(t, 15, ended.Tokens.TotalTokens)
	assert.Equal(t, 4*time.Second, ended.TotalTime)

	next := tracker.CurrentSession()
	assert.NotEqual(t, first.ID, next.ID)
	assert.Zero(t, next.Requests)
	assert.Zero(t, next.Tokens.TotalTokens)

	tracker.Record(Exchange{Duration: time.Second, OK: true,
		Usage: conversation.TokenUsage{TotalTokens: 7}})
	assert.Equal(t, 7, tracker.CurrentSession().Tokens.TotalTokens)
	assert.Equal(t, 22, tracker.Summary().Tokens.TotalTokens)

	history := tracker.History()
	require.Len(t, history, 1)
	assert.Equal(t, first.ID, history[0].ID)
}

func TestUsageTracker_SlowestKept(t *testing.T) {
	tracker := NewUsageTracker()
	for i := 1; i <= SlowestKept+3; i++ {
		tracker.Record(Exchange{Duration: time.Duration(i) * time.Second, OK: true})
	}

	slowest := tracker.CurrentSession().Slowest
	require.Len(t, slowest, SlowestKept)
	assert.Equal(t, time.Duration(SlowestKept+3)*time.Second, slowest[0].Duration)
	assert.Equal(t, 4*time.Second, slowest[SlowestKept-1].Duration)

	slowest[0].Duration = 0
	assert.NotZero(t, tracker.CurrentSession().Slowest[0].Duration)
}

func TestUsageSummary_AverageLatencyEmpty(t *testing.T) {
	assert.Zero(t, UsageSummary{}.AverageLatency())
}

func TestInstrumentGateway(t *testing.T) {
	creds, err := session.NewCredentials("Alice", "sk-test", "")
	require.NoError(t, err)

	tests := []struct {
		name        string
		result      conversation.Result
		wantOK      bool
		wantFailure string
		wantTokens  int
	}{
		{
			name:       "success",
			result:     conversation.Success("hi", &conversation.TokenUsage{PromptTokens: 5, CompletionTokens: 2, TotalTokens: 7}),
			wantOK:     true,
			wantTokens: 7,
		},
		{
			name:        "auth failure",
			result:      conversation.Failed(&cloud.Failure{Kind: cloud.KindAuthentication, Message: cloud.MsgAuthFailed, Status: 401}),
			wantFailure: cloud.KindAuthentication.String(),
		},
		{
			name:        "plain error",
			result:      conversation.Failed(errors.New("boom")),
			wantFailure: cloud.KindProvider.String(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := zerolog.New(&buf)
			tracker := NewUsageTracker()

			var gotPayload []conversation.Message
			inner := conversation.GatewayFunc(func(ctx context.Context, c session.Credentials, payload []conversation.Message) conversation.Result {
				gotPayload = payload
				return tt.result
			})

			gw := InstrumentGateway(inner, tracker, logger)
			payload := []conversation.Message{{Role: conversation.RoleUser, Content: "secret question"}}
			got := gw.Complete(context.Background(), creds, payload)

			assert.Equal(t, tt.result, got)
			assert.Equal(t, payload, gotPayload)

			ex := tracker.Exchanges()
			require.Len(t, ex, 1)
			assert.Equal(t, tt.wantOK, ex[0].OK)
			assert.Equal(t, tt.wantFailure, ex[0].Failure)
			assert.Equal(t, tt.wantTokens, ex[0].Usage.TotalTokens)

			assert.NotContains(t, buf.String(), "secret question")
			assert.NotContains(t, buf.String(), "sk-test")
		})
	}
}

func TestInstrumentGateway_NilTracker(t *testing.T) {
	inner := conversation.GatewayFunc(func(ctx context.Context, c session.Credentials, payload []conversation.Message) conversation.Result {
		return conversation.Success("ok", nil)
	})
	gw := InstrumentGateway(inner, nil, zerolog.Nop())
	assert.True(t, gw.Complete(context.Background(), session.Credentials{}, nil).OK())
}
