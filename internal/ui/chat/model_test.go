// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/projectanalyst/internal/conversation"
	"github.com/jeranaias/projectanalyst/internal/fixture"
	"github.com/jeranaias/projectanalyst/internal/session"
	"github.com/jeranaias/projectanalyst/internal/ui/styles"
)

func newTestModel(t *testing.T, gw conversation.Gateway) Model {
	t.Helper()
	profile, dataset := fixture.Default()
	a, err := conversation.NewAssembler(profile, dataset, conversation.DefaultHistoryWindow)
	require.NoError(t, err)
	creds, err := session.NewCredentials("Alice", "sk-or-test", "")
	require.NoError(t, err)

	m := New(Options{
		Theme:       styles.NewTheme(styles.ModeDark),
		Engine:      conversation.NewEngine(a, gw),
		Credentials: creds,
	})
	m, _ = m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func typeText(m Model, text string) Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

func pressEnter(m Model) (Model, tea.Cmd) {
	return m.Update(tea.KeyMsg{Type: tea.KeyEnter})
}

// responseFrom runs a batched command and returns its ResponseMsg.
func responseFrom(t *testing.T, cmd tea.Cmd) ResponseMsg {
	t.Helper()
	require.NotNil(t, cmd)
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok, "expected a batch")
	for _, c := range batch {
		if c == nil {
			continue
		}
		if resp, ok := c().(ResponseMsg); ok {
			return resp
		}
	}
	t.Fatal("no ResponseMsg in batch")
	return ResponseMsg{}
}

func okGateway(content string, usage *conversation.TokenUsage) conversation.Gateway {
	return conversation.GatewayFunc(func(context.Context, session.Credentials, []conversation.Message) conversation.Result {
		return conversation.Success(content, usage)
	})
}

func TestNew_Welcome(t *testing.T) {
	m := newTestModel(t, okGateway("", nil))

	s := m.State()
	require.Equal(t, 1, s.Len())
	assert.Equal(t, conversation.WelcomeID, s.Entries[0].ID)
	assert.Contains(t, s.Entries[0].Content, "Hello Alice!")
	assert.False(t, s.Pending)
	assert.Equal(t, "Alice", m.Credentials().DisplayName)
}

func TestSend_Success(t *testing.T) {
	usage := &conversation.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}
	var payloadLen int
	gw := conversation.GatewayFunc(func(_ context.Context, _ session.Credentials, p []conversation.Message) conversation.Result {
		payloadLen = len(p)
		return conversation.Success("Two projects are over budget.", usage)
	})
	m := newTestModel(t, gw)

	m = typeText(m, "Which projects are over budget?")
	m, cmd := pressEnter(m)

	assert.True(t, m.State().Pending)
	assert.Equal(t, "", m.InputValue())
	require.Equal(t, 2, m.State().Len())
	assert.Contains(t, m.View(), ThinkingMsg)

	resp := responseFrom(t, cmd)
	m, _ = m.Update(resp)

	s := m.State()
	assert.False(t, s.Pending)
	require.Equal(t, 3, s.Len())
	last, _ := s.Last()
	assert.Equal(t, conversation.RoleAssistant, last.Role)
	assert.Equal(t, "Two projects are over budget.", last.Content)
	// system + welcome + user
	assert.Equal(t, 3, payloadLen)

	view := m.View()
	assert.Contains(t, view, "15 tokens")
	assert.NotContains(t, view, ThinkingMsg)
}

func TestSend_ZeroTotalUsageKeptButHidden(t *testing.T) {
	m := newTestModel(t, okGateway("No totals reported.", &conversation.TokenUsage{PromptTokens: 9, CompletionTokens: 2}))

	m = typeText(m, "anything")
	m, cmd := pressEnter(m)
	m, _ = m.Update(responseFrom(t, cmd))

	last, _ := m.State().Last()
	require.NotNil(t, last.Usage)
	assert.Equal(t, 9, last.Usage.PromptTokens)
	assert.NotContains(t, m.View(), "0 tokens")
}

func TestSend_BlankIgnored(t *testing.T) {
	m := newTestModel(t, okGateway("x", nil))

	m = typeText(m, "   ")
	m, cmd := pressEnter(m)

	assert.Nil(t, cmd)
	assert.False(t, m.State().Pending)
	assert.Equal(t, 1, m.State().Len())
}

func TestSend_PendingBlocksInput(t *testing.T) {
	m := newTestModel(t, okGateway("ok", nil))

	m = typeText(m, "first")
	m, _ = pressEnter(m)
	require.True(t, m.State().Pending)

	m = typeText(m, "second")
	assert.Equal(t, "", m.InputValue())

	m, cmd := pressEnter(m)
	assert.Nil(t, cmd)
	assert.Equal(t, 2, m.State().Len())
}

func TestSend_Failure(t *testing.T) {
	gw := conversation.GatewayFunc(func(context.Context, session.Credentials, []conversation.Message) conversation.Result {
		return conversation.Failed(errors.New("Invalid API key"))
	})
	m := newTestModel(t, gw)

	m = typeText(m, "hello")
	m, cmd := pressEnter(m)
	m, _ = m.Update(responseFrom(t, cmd))

	s := m.State()
	assert.False(t, s.Pending)
	assert.Equal(t, "Invalid API key", s.LastError)
	assert.Equal(t, 2, s.Len())
	assert.Contains(t, m.View(), "Invalid API key")
}

func TestClear(t *testing.T) {
	m := newTestModel(t, okGateway("ok", nil))

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})

	assert.Equal(t, 0, m.State().Len())
	assert.Empty(t, m.State().LastError)
	assert.Contains(t, m.View(), EmptyText)
}

func TestClear_KeepsPending(t *testing.T) {
	m := newTestModel(t, okGateway("late reply", nil))

	m = typeText(m, "question")
	m, cmd := pressEnter(m)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	require.True(t, m.State().Pending)
	require.Equal(t, 0, m.State().Len())

	m, _ = m.Update(responseFrom(t, cmd))
	require.Equal(t, 1, m.State().Len())
	assert.Equal(t, "late reply", m.State().Entries[0].Content)
}

func TestLogoutKey(t *testing.T) {
	m := newTestModel(t, okGateway("", nil))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	require.NotNil(t, cmd)
	assert.IsType(t, LogoutMsg{}, cmd())
}

func TestQuitKey(t *testing.T) {
	m := newTestModel(t, okGateway("", nil))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestStaleResponseIgnored(t *testing.T) {
	m := newTestModel(t, okGateway("", nil))

	m, _ = m.Update(ResponseMsg{Result: conversation.Success("stray", nil)})
	assert.Equal(t, 1, m.State().Len())
}

func TestResponse_OtherRequestIgnored(t *testing.T) {
	m := newTestModel(t, okGateway("current", nil))

	m = typeText(m, "current question")
	m, cmd := pressEnter(m)
	require.True(t, m.State().Pending)

	m, _ = m.Update(ResponseMsg{RequestID: "earlier-request", Result: conversation.Success("old", nil)})
	assert.True(t, m.State().Pending)
	assert.Equal(t, 2, m.State().Len())

	m, _ = m.Update(responseFrom(t, cmd))
	assert.False(t, m.State().Pending)
	require.Equal(t, 3, m.State().Len())
	assert.Equal(t, "current", m.State().Entries[2].Content)
}

func TestView_HeaderAndFooter(t *testing.T) {
	m := newTestModel(t, okGateway("", nil))
	_, dataset := fixture.Default()

	view := m.View()
	assert.Contains(t, view, Title)
	assert.Contains(t, view, "Connected to "+dataset.CompanyName+" DB")
	assert.Contains(t, view, "Alice")
	assert.Contains(t, view, PoweredBy)
	assert.True(t, strings.Contains(view, "Projects Loaded"))
}

func TestView_NarrowStillRenders(t *testing.T) {
	m := newTestModel(t, okGateway("", nil))
	m, _ = m.Update(tea.WindowSizeMsg{Width: 40, Height: 12})

	view := m.View()
	assert.NotEmpty(t, view)
	assert.Contains(t, view, "Loaded")
}
