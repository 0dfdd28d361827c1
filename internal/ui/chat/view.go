// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/projectanalyst/internal/conversation"
	"github.com/jeranaias/projectanalyst/internal/ui/styles"
	"github.com/jeranaias/projectanalyst/internal/util"
)

// Fixed text of the chat view.
const (
	Title       = "Project Analyst AI"
	EmptyText   = "Analyzing database..."
	ThinkingMsg = "Analyst is thinking..."
	PoweredBy   = "Powered by OpenRouter"
)

// View renders the chat view.
func (m Model) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderInput(),
		m.renderFooter(),
	)
}

// =============================================================================
// HEADER AND FOOTER
// =============================================================================

func (m Model) renderHeader() string {
	t := m.theme
	inner := m.width - 2
	if inner < 1 {
		inner = 1
	}

	left := t.HeaderTitle.Render(Title)
	right := t.HeaderSubtitle.Render(util.Truncate(m.headerStatus(), inner/2))
	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	top := left + strings.Repeat(" ", gap) + right

	connected := fmt.Sprintf("Connected to %s DB", m.engine.Assembler().Dataset().CompanyName)
	sub := t.HeaderStatus.Render("●") + " " + t.HeaderSubtitle.Render(util.Truncate(connected, inner-2))

	return t.Header.Width(m.width).Render(top + "\n" + sub)
}

// headerStatus is the user name and the token total for this sign-in.
func (m Model) headerStatus() string {
	total := m.state.Usage().TotalTokens
	if m.usage != nil {
		total = m.usage.CurrentSession().Tokens.TotalTokens
	}
	if total == 0 {
		return m.creds.DisplayName
	}
	return fmt.Sprintf("%s • %d tokens", m.creds.DisplayName, total)
}

func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(m.width).Render(m.input.View())
}

func (m Model) renderFooter() string {
	t := m.theme
	line := fmt.Sprintf("Context: %d Projects Loaded • %s",
		len(m.engine.Assembler().Dataset().Projects), PoweredBy)
	if t.GetLayoutMode() != styles.LayoutNarrow {
		line += "   " + renderShortcuts(t, m.keyMap.ShortHelp())
	}
	return t.Footer.Width(m.width).Render(line)
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

func (m Model) renderTranscript() string {
	t := m.theme
	s := m.state

	if len(s.Entries) == 0 && s.LastError == "" && !s.Pending {
		return t.EmptyState.Width(m.width).Render("\n" + EmptyText)
	}

	blocks := make([]string, 0, len(s.Entries)+2)
	for _, e := range s.Entries {
		blocks = append(blocks, m.renderEntry(e))
	}
	if s.Pending {
		blocks = append(blocks, " "+m.spinner.View()+" "+t.ThinkingText.Render(ThinkingMsg))
	}
	if s.LastError != "" {
		line := t.ErrorLine.Render(styles.StatusIndicators.Error + " " + s.LastError)
		blocks = append(blocks, lipgloss.PlaceHorizontal(m.width, lipgloss.Center, line))
	}
	return strings.Join(blocks, "\n\n")
}

// bubbleWidth is the widest a message bubble may be.
func (m Model) bubbleWidth() int {
	w := m.width * 4 / 5
	if m.wordWrap > 0 && m.wordWrap+4 < w {
		w = m.wordWrap + 4
	}
	if w < 24 {
		w = 24
	}
	return w
}

func (m Model) renderEntry(e conversation.Entry) string {
	if cached, ok := m.rendered[e.ID]; ok && e.ID != "" {
		return cached
	}

	t := m.theme
	maxWidth := m.bubbleWidth()

	var out string
	if e.IsUser() {
		label := t.UserLabel.Render(e.Role.DisplayName())
		body := t.UserBubble.Width(min(maxWidth, lipgloss.Width(e.Content)+2)).Render(e.Content)
		out = alignRight(label+"\n"+body, m.width)
	} else {
		label := t.AssistantLabel.Render(e.Role.DisplayName())
		var body string
		if m.markdown.Enabled() {
			body = t.AssistantBubble.Render(m.markdown.Render(e.Content, maxWidth-4))
		} else {
			body = t.AssistantBubble.Width(maxWidth - 2).Render(e.Content)
		}
		out = label + "\n" + body
		if e.Usage.HasTotal() {
			out += "\n" + t.TokenFooter.Render(fmt.Sprintf("%d tokens", e.Usage.TotalTokens))
		}
	}

	if e.ID != "" {
		m.rendered[e.ID] = out
	}
	return out
}

// alignRight right-aligns every line of a block within width.
func alignRight(block string, width int) string {
	lines := strings.Split(block, "\n")
	for i, line := range lines {
		if pad := width - lipgloss.Width(line); pad > 0 {
			lines[i] = strings.Repeat(" ", pad) + strings.TrimLeft(line, " ")
		}
	}
	return strings.Join(lines, "\n")
}
