// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// MinWrapWidth is the narrowest width markdown is wrapped to.
const MinWrapWidth = 20

// Markdown renders markdown for a given wrap width. Renderers are cached per
// width because building one parses the whole style sheet.
type Markdown struct {
	mu        sync.Mutex
	enabled   bool
	style     string
	renderers map[int]*glamour.TermRenderer
}

// NewMarkdown returns a renderer using glamour's dark or light style. When
// enabled is false Render returns its input unchanged.
func NewMarkdown(enabled, dark bool) *Markdown {
	style := "light"
	if dark {
		style = "dark"
	}
	return &Markdown{
		enabled:   enabled,
		style:     style,
		renderers: make(map[int]*glamour.TermRenderer),
	}
}

// Enabled reports whether markdown rendering is on.
func (m *Markdown) Enabled() bool {
	return m != nil && m.enabled
}

// Render renders content wrapped to width. Surrounding blank lines added by
// glamour are trimmed.
func (m *Markdown) Render(content string, width int) string {
	if !m.Enabled() || strings.TrimSpace(content) == "" {
		return content
	}
	if width < MinWrapWidth {
		width = MinWrapWidth
	}

	r, err := m.renderer(width)
	if err != nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}

func (m *Markdown) renderer(width int) (*glamour.TermRenderer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.renderers[width]; ok {
		return r, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	m.renderers[width] = r
	return r, nil
}
