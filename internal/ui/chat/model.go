// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/projectanalyst/internal/conversation"
	"github.com/jeranaias/projectanalyst/internal/session"
	"github.com/jeranaias/projectanalyst/internal/telemetry"
	"github.com/jeranaias/projectanalyst/internal/ui/render"
	"github.com/jeranaias/projectanalyst/internal/ui/styles"
)

// Placeholder is the composer hint.
const Placeholder = "Ask about project statuses, budget vs spent, etc..."

// Options configures New.
type Options struct {
	Theme       *styles.Theme
	Engine      *conversation.Engine
	Credentials session.Credentials

	// Markdown renders assistant replies. Nil shows them as plain text.
	Markdown *render.Markdown

	// Usage, when set, supplies the header's token total for the current
	// usage session.
	Usage *telemetry.UsageTracker

	// WordWrap caps the reply width; 0 follows the window.
	WordWrap int

	// Context bounds gateway calls. Nil means context.Background.
	Context context.Context
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	theme    *styles.Theme
	keyMap   KeyMap
	engine   *conversation.Engine
	creds    session.Credentials
	markdown *render.Markdown
	usage    *telemetry.UsageTracker
	wordWrap int
	ctx      context.Context

	state conversation.State

	// pendingID is the user entry ID of the request in flight. Results for
	// any other request belong to an earlier conversation and are dropped.
	pendingID string

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// rendered caches entry bodies by ID for the current width.
	rendered map[string]string

	width  int
	height int
}

// New returns a chat view holding the welcome entry for opts.Credentials.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	input := textinput.New()
	input.Placeholder = Placeholder
	input.Prompt = "> "
	input.PromptStyle = opts.Theme.InputPrompt
	input.CharLimit = 4000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = opts.Theme.Spinner

	m := Model{
		theme:    opts.Theme,
		keyMap:   DefaultKeyMap(),
		engine:   opts.Engine,
		creds:    opts.Credentials,
		markdown: opts.Markdown,
		usage:    opts.Usage,
		wordWrap: opts.WordWrap,
		ctx:      ctx,
		state:    opts.Engine.Initialize(opts.Credentials),
		viewport: viewport.New(80, 20),
		input:    input,
		spinner:  sp,
		rendered: make(map[string]string),
		width:    80,
		height:   24,
	}
	m.layout()
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.rendered = make(map[string]string)
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ResponseMsg:
		if msg.RequestID == "" || msg.RequestID != m.pendingID {
			return m, nil
		}
		m.pendingID = ""
		m.state = m.engine.Finish(m.state, msg.Result)
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.state.Pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Logout):
		return m, func() tea.Msg { return LogoutMsg{} }

	case key.Matches(msg, m.keyMap.Clear):
		m.state = conversation.Clear(m.state)
		m.rendered = make(map[string]string)
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keyMap.PageUp), key.Matches(msg, m.keyMap.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case key.Matches(msg, m.keyMap.Send):
		return m.send()
	}

	// The composer is disabled while a request is in flight.
	if m.state.Pending {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) send() (Model, tea.Cmd) {
	next, req, ok := m.engine.Begin(m.state, m.input.Value(), m.creds)
	if !ok {
		return m, nil
	}
	m.state = next
	m.pendingID = req.UserEntry.ID
	m.input.Reset()
	m.refresh()

	engine, ctx := m.engine, m.ctx
	complete := func() tea.Msg {
		return ResponseMsg{RequestID: req.UserEntry.ID, Result: engine.Do(ctx, req)}
	}
	return m, tea.Batch(complete, m.spinner.Tick)
}

// =============================================================================
// LAYOUT
// =============================================================================

// layout sizes the viewport to whatever the header, composer and footer
// leave, then re-renders the transcript.
func (m *Model) layout() {
	m.theme.SetSize(m.width, m.height)

	inputWidth := m.width - 4 - lipgloss.Width(m.input.Prompt)
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth

	reserved := lipgloss.Height(m.renderHeader()) +
		lipgloss.Height(m.renderInput()) +
		lipgloss.Height(m.renderFooter())
	vpHeight := m.height - reserved
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = m.width
	m.viewport.Height = vpHeight
	m.refresh()
}

// refresh re-renders the transcript and scrolls to the newest line.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// =============================================================================
// ACCESSORS
// =============================================================================

// State returns the conversation state.
func (m Model) State() conversation.State {
	return m.state
}

// Credentials returns the session the view was opened with.
func (m Model) Credentials() session.Credentials {
	return m.creds
}

// InputValue returns the composer text.
func (m Model) InputValue() string {
	return m.input.Value()
}
