// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package login

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/projectanalyst/internal/session"
	"github.com/jeranaias/projectanalyst/internal/ui/styles"
)

// Field indexes.
const (
	FieldName = iota
	FieldAPIKey
	FieldEndpoint
	fieldCount
)

// MissingFieldsMessage is shown when name or key is blank on submit.
const MissingFieldsMessage = "Please enter your name and API key."

// SubmitMsg carries the form values to the parent model.
type SubmitMsg struct {
	Name     string
	APIKey   string
	Endpoint string
}

// KeyMap defines the form's key bindings.
type KeyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Submit key.Binding
	Quit   key.Binding
}

// DefaultKeyMap returns the default form bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("Tab", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("S-Tab", "previous field"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "sign in"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("Esc", "quit"),
		),
	}
}

// Model is the Bubble Tea model for the login form.
type Model struct {
	theme  *styles.Theme
	keyMap KeyMap

	inputs [fieldCount]textinput.Model
	focus  int
	err    string

	width  int
	height int
}

// New returns a form with the name field focused.
func New(theme *styles.Theme) Model {
	m := Model{theme: theme, keyMap: DefaultKeyMap()}

	name := textinput.New()
	name.Placeholder = "e.g. Alice"
	name.CharLimit = 64
	name.Prompt = ""

	apiKey := textinput.New()
	apiKey.Placeholder = "sk-or-..."
	apiKey.EchoMode = textinput.EchoPassword
	apiKey.EchoCharacter = '•'
	apiKey.CharLimit = 256
	apiKey.Prompt = ""

	endpoint := textinput.New()
	endpoint.Placeholder = session.DefaultEndpointURL
	endpoint.CharLimit = 256
	endpoint.Prompt = ""

	m.inputs = [fieldCount]textinput.Model{name, apiKey, endpoint}
	m.inputs[FieldName].Focus()
	return m
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles key presses and forwards everything else to the focused
// input.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keyMap.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keyMap.Next):
			return m, m.setFocus((m.focus + 1) % fieldCount)
		case key.Matches(msg, m.keyMap.Prev):
			return m, m.setFocus((m.focus + fieldCount - 1) % fieldCount)
		case key.Matches(msg, m.keyMap.Submit):
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) setFocus(i int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = i
	return m.inputs[m.focus].Focus()
}

func (m Model) submit() (Model, tea.Cmd) {
	values := m.Values()
	if strings.TrimSpace(values.Name) == "" || strings.TrimSpace(values.APIKey) == "" {
		m.err = MissingFieldsMessage
		if strings.TrimSpace(values.Name) == "" {
			return m, m.setFocus(FieldName)
		}
		return m, m.setFocus(FieldAPIKey)
	}
	m.err = ""
	return m, func() tea.Msg { return values }
}

// Values returns the current field contents.
func (m Model) Values() SubmitMsg {
	return SubmitMsg{
		Name:     m.inputs[FieldName].Value(),
		APIKey:   m.inputs[FieldAPIKey].Value(),
		Endpoint: m.inputs[FieldEndpoint].Value(),
	}
}

// Focused returns the index of the focused field.
func (m Model) Focused() int {
	return m.focus
}

// Err returns the message shown under the form.
func (m Model) Err() string {
	return m.err
}

// SetError shows msg under the form.
func (m *Model) SetError(msg string) {
	m.err = msg
}

// Reset clears all fields and the error and focuses the name field.
func (m *Model) Reset() tea.Cmd {
	for i := range m.inputs {
		m.inputs[i].Reset()
	}
	m.err = ""
	return m.setFocus(FieldName)
}

// View renders the form centered in the window.
func (m Model) View() string {
	t := m.theme

	labels := [fieldCount]string{"Your Name", "API Key", "Base URL (Optional)"}
	var b strings.Builder
	b.WriteString(t.LoginTitle.Render("Welcome"))
	b.WriteString("\n")
	b.WriteString(t.LoginSubtitle.Render("Configure your AI assistant credentials to begin."))
	b.WriteString("\n\n")

	for i := 0; i < fieldCount; i++ {
		label := t.FieldLabel
		if i == m.focus {
			label = t.FieldLabelFocus
		}
		b.WriteString(label.Render(labels[i]))
		b.WriteString("\n")
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
		if i == FieldEndpoint {
			b.WriteString(t.FieldHint.Render("Leave blank for " + session.DefaultEndpointURL))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(t.ButtonActive.Render("Connect & Continue"))
	b.WriteString("  ")
	b.WriteString(t.ShortcutDesc.Render("Enter to submit • Tab to switch fields • Esc to quit"))
	b.WriteString("\n\n")
	b.WriteString(t.FieldHint.Render("Your credentials are stored locally and used directly with the API."))

	if m.err != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.RenderError(m.err))
	}

	box := t.LoginBox.Render(b.String())
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
