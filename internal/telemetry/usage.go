// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/projectanalyst/internal/cloud"
	"github.com/jeranaias/projectanalyst/internal/conversation"
	"github.com/jeranaias/projectanalyst/internal/session"
)

// =============================================================================
// USAGE TRACKER
// =============================================================================

// sessionIDCounter keeps session IDs unique when created in the same second.
var sessionIDCounter uint64

// SlowestKept is how many of the slowest exchanges a session keeps.
const SlowestKept = 5

// Exchange is one recorded gateway round trip.
type Exchange struct {
	Timestamp time.Time
	Duration  time.Duration
	OK        bool
	Failure   string // failure kind, empty on success
	Usage     conversation.TokenUsage
}

// SessionUsage is the usage of one sign-in, from login to logout.
type SessionUsage struct {
	ID        string
	StartTime time.Time
	EndTime   time.Time // zero while the session is current

	Requests  int
	Failures  int
	Tokens    conversation.TokenUsage
	TotalTime time.Duration

	// Slowest holds up to SlowestKept exchanges, slowest first.
	Slowest []Exchange
}

// UsageSummary aggregates the exchanges of a run.
type UsageSummary struct {
	Started     time.Time
	Requests    int
	Failures    int
	Tokens      conversation.TokenUsage
	TotalTime   time.Duration
	LastRequest time.Time
}

// AverageLatency returns the mean round-trip duration.
func (s UsageSummary) AverageLatency() time.Duration {
	if s.Requests == 0 {
		return 0
	}
	return s.TotalTime / time.Duration(s.Requests)
}

// UsageTracker accumulates exchanges for the current process, split into
// sessions by EndSession.
type UsageTracker struct {
	mu        sync.RWMutex
	started   time.Time
	exchanges []Exchange
	current   *SessionUsage
	ended     []*SessionUsage
	now       func() time.Time
}

// NewUsageTracker returns an empty tracker with a fresh current session.
func NewUsageTracker() *UsageTracker {
	t := &UsageTracker{now: time.Now}
	t.started = t.now()
	t.current = t.newSession()
	return t
}

// Record adds an exchange to the run and to the current session.
func (t *UsageTracker) Record(e Exchange) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.exchanges = append(t.exchanges, e)

	s := t.current
	s.Requests++
	if !e.OK {
		s.Failures++
	}
	s.Tokens = s.Tokens.Add(e.Usage)
	s.TotalTime += e.Duration
	s.Slowest = append(s.Slowest, e)
	sort.SliceStable(s.Slowest, func(i, j int) bool {
		return s.Slowest[i].Duration > s.Slowest[j].Duration
	})
	if len(s.Slowest) > SlowestKept {
		s.Slowest = s.Slowest[:SlowestKept]
	}
}

// Summary returns totals over all recorded exchanges.
func (t *UsageTracker) Summary() UsageSummary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := UsageSummary{Started: t.started}
	for _, e := range t.exchanges {
		s.Requests++
		if !e.OK {
			s.Failures++
		}
		s.Tokens = s.Tokens.Add(e.Usage)
		s.TotalTime += e.Duration
		if e.Timestamp.After(s.LastRequest) {
			s.LastRequest = e.Timestamp
		}
	}
	return s
}

// Exchanges returns a copy of the recorded exchanges, oldest first.
func (t *UsageTracker) Exchanges() []Exchange {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Exchange, len(t.exchanges))
	copy(out, t.exchanges)
	return out
}

// CurrentSession returns a copy of the session in progress.
func (t *UsageTracker) CurrentSession() SessionUsage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return copySession(t.current)
}

// EndSession closes the current session, starts a new one and returns the
// closed session.
func (t *UsageTracker) EndSession() SessionUsage {
	t.mu.Lock()
	defer t.mu.Unlock()

	closed := t.current
	closed.EndTime = t.now()
	t.ended = append(t.ended, closed)
	t.current = t.newSession()
	return copySession(closed)
}

// History returns copies of the ended sessions, oldest first.
func (t *UsageTracker) History() []SessionUsage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]SessionUsage, 0, len(t.ended))
	for _, s := range t.ended {
		out = append(out, copySession(s))
	}
	return out
}

func (t *UsageTracker) newSession() *SessionUsage {
	now := t.now()
	return &SessionUsage{ID: generateSessionID(now), StartTime: now}
}

func copySession(src *SessionUsage) SessionUsage {
	dst := *src
	dst.Slowest = make([]Exchange, len(src.Slowest))
	copy(dst.Slowest, src.Slowest)
	return dst
}

// generateSessionID returns a timestamp plus a process-wide counter.
func generateSessionID(now time.Time) string {
	n := atomic.AddUint64(&sessionIDCounter, 1)
	return fmt.Sprintf("%s-%d", now.Format("20060102-150405"), n)
}

// =============================================================================
// GATEWAY INSTRUMENTATION
// =============================================================================

type instrumentedGateway struct {
	next    conversation.Gateway
	tracker *UsageTracker
	logger  zerolog.Logger
	now     func() time.Time
}

// InstrumentGateway wraps next so that every call is logged and recorded in
// tracker. tracker may be nil.
func InstrumentGateway(next conversation.Gateway, tracker *UsageTracker, logger zerolog.Logger) conversation.Gateway {
	return &instrumentedGateway{
		next:    next,
		tracker: tracker,
		logger:  logger.With().Str("component", "gateway").Logger(),
		now:     time.Now,
	}
}

// Complete implements conversation.Gateway.
func (g *instrumentedGateway) Complete(ctx context.Context, creds session.Credentials, payload []conversation.Message) conversation.Result {
	start := g.now()
	result := g.next.Complete(ctx, creds, payload)
	elapsed := g.now().Sub(start)

	ex := Exchange{Timestamp: start, Duration: elapsed, OK: result.OK()}
	if reply, ok := result.Reply(); ok {
		if reply.Usage != nil {
			ex.Usage = *reply.Usage
		}
		g.logger.Info().
			Int("messages", len(payload)).
			Int("total_tokens", ex.Usage.TotalTokens).
			Dur("duration", elapsed).
			Msg("completion succeeded")
	} else {
		ex.Failure = cloud.KindOf(result.Err()).String()
		g.logger.Warn().
			Str("failure", ex.Failure).
			Str("message", result.Err().Error()).
			Dur("duration", elapsed).
			Msg("completion failed")
	}

	if g.tracker != nil {
		g.tracker.Record(ex)
	}
	return result
}
