// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/jeranaias/projectanalyst/internal/conversation"
	"github.com/jeranaias/projectanalyst/internal/session"
	"github.com/jeranaias/projectanalyst/internal/telemetry"
	"github.com/jeranaias/projectanalyst/internal/ui/chat"
	"github.com/jeranaias/projectanalyst/internal/ui/login"
	"github.com/jeranaias/projectanalyst/internal/ui/render"
	"github.com/jeranaias/projectanalyst/internal/ui/styles"
)

// Screen is the view currently shown.
type Screen int

const (
	ScreenLogin Screen = iota // Credential form
	ScreenChat                // Conversation
)

// String returns the screen name.
func (s Screen) String() string {
	switch s {
	case ScreenLogin:
		return "login"
	case ScreenChat:
		return "chat"
	default:
		return "unknown"
	}
}

// Options configures New.
type Options struct {
	Theme    *styles.Theme
	Sessions *session.Manager
	Engine   *conversation.Engine
	Markdown *render.Markdown
	Usage    *telemetry.UsageTracker
	WordWrap int
	Context  context.Context
	Logger   zerolog.Logger
}

// =============================================================================
// APPLICATION MODEL
// =============================================================================

// Model switches between the login form and the chat view.
type Model struct {
	opts   Options
	screen Screen
	login  login.Model
	chat   chat.Model

	width  int
	height int
}

// New returns the root model. A manager that already holds a session starts
// on the chat view.
func New(opts Options) *Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	m := &Model{
		opts:   opts,
		screen: ScreenLogin,
		login:  login.New(opts.Theme),
	}
	if creds, ok := opts.Sessions.Current(); ok {
		m.openChat(creds)
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.screen == ScreenChat {
		return m.chat.Init()
	}
	return m.login.Init()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		var loginCmd, chatCmd tea.Cmd
		m.login, loginCmd = m.login.Update(msg)
		if m.screen == ScreenChat {
			m.chat, chatCmd = m.chat.Update(msg)
		}
		return m, tea.Batch(loginCmd, chatCmd)

	case login.SubmitMsg:
		return m.handleSubmit(msg)

	case chat.LogoutMsg:
		return m.handleLogout()
	}

	var cmd tea.Cmd
	switch m.screen {
	case ScreenChat:
		m.chat, cmd = m.chat.Update(msg)
	default:
		m.login, cmd = m.login.Update(msg)
	}
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.screen == ScreenChat {
		return m.chat.View()
	}
	return m.login.View()
}

// Screen returns the view currently shown.
func (m *Model) Screen() Screen {
	return m.screen
}

// Chat returns the chat view. It is only meaningful on ScreenChat.
func (m *Model) Chat() chat.Model {
	return m.chat
}

// Login returns the login form.
func (m *Model) Login() login.Model {
	return m.login
}

// =============================================================================
// TRANSITIONS
// =============================================================================

func (m *Model) handleSubmit(msg login.SubmitMsg) (tea.Model, tea.Cmd) {
	if err := m.opts.Sessions.Login(msg.Name, msg.APIKey, msg.Endpoint); err != nil {
		m.opts.Logger.Warn().Err(err).Msg("sign in rejected")
		m.login.SetError(err.Error())
		return m, nil
	}
	creds, _ := m.opts.Sessions.Current()
	m.openChat(creds)
	return m, m.chat.Init()
}

func (m *Model) handleLogout() (tea.Model, tea.Cmd) {
	if err := m.opts.Sessions.Logout(); err != nil {
		m.opts.Logger.Error().Err(err).Msg("sign out failed")
	}
	if m.opts.Usage != nil {
		ended := m.opts.Usage.EndSession()
		m.opts.Logger.Info().
			Str("usage_session", ended.ID).
			Int("requests", ended.Requests).
			Int("failures", ended.Failures).
			Int("tokens", ended.Tokens.TotalTokens).
			Msg("usage session ended")
	}
	m.screen = ScreenLogin
	m.chat = chat.Model{}
	return m, m.login.Reset()
}

// openChat starts a fresh conversation for creds.
func (m *Model) openChat(creds session.Credentials) {
	m.chat = chat.New(chat.Options{
		Theme:       m.opts.Theme,
		Engine:      m.opts.Engine,
		Credentials: creds,
		Markdown:    m.opts.Markdown,
		Usage:       m.opts.Usage,
		WordWrap:    m.opts.WordWrap,
		Context:     m.opts.Context,
	})
	if m.width > 0 && m.height > 0 {
		m.chat, _ = m.chat.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
	}
	m.screen = ScreenChat
}
