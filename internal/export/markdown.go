// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/projectanalyst/internal/conversation"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports transcripts to Markdown.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a transcript to Markdown.
func (e *MarkdownExporter) Export(t *Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	var sb strings.Builder
	exported := e.options.now()

	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		fmt.Fprintf(&sb, "title: %s\n", escapeYAML(t.Title()))
		fmt.Fprintf(&sb, "user: %s\n", escapeYAML(t.User))
		fmt.Fprintf(&sb, "model: %s\n", t.Model)
		fmt.Fprintf(&sb, "date: %s\n", t.CreatedAt.Format(time.RFC3339))
		fmt.Fprintf(&sb, "messages: %d\n", len(t.Entries))
		if t.TokensUsed.TotalTokens > 0 {
			fmt.Fprintf(&sb, "tokens: %d\n", t.TokensUsed.TotalTokens)
		}
		fmt.Fprintf(&sb, "exported: %s\n", exported.Format(time.RFC3339))
		sb.WriteString("generator: analyst\n")
		sb.WriteString("---\n\n")
	}

	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(t.Title()))

	if e.options.IncludeMetadata {
		sb.WriteString("## Session Information\n\n")
		fmt.Fprintf(&sb, "- **User**: %s\n", escapeMarkdown(t.User))
		fmt.Fprintf(&sb, "- **Model**: %s\n", t.Model)
		fmt.Fprintf(&sb, "- **Started**: %s\n", formatTimestamp(t.CreatedAt))
		fmt.Fprintf(&sb, "- **Messages**: %d\n", len(t.Entries))
		if u := t.TokensUsed; u.TotalTokens > 0 {
			fmt.Fprintf(&sb, "- **Tokens Used**: %d (%d prompt, %d completion)\n",
				u.TotalTokens, u.PromptTokens, u.CompletionTokens)
		}
		sb.WriteString("\n---\n\n")
	}

	sb.WriteString("## Conversation\n\n")
	for i, entry := range t.Entries {
		if e.options.IncludeTimestamps {
			fmt.Fprintf(&sb, "### %s <sub>%s</sub>\n\n", entry.Role.DisplayName(), formatShortTimestamp(entry.CreatedAt))
		} else {
			fmt.Fprintf(&sb, "### %s\n\n", entry.Role.DisplayName())
		}

		sb.WriteString(strings.TrimSpace(entry.Content))
		sb.WriteString("\n\n")

		if stats := e.formatEntryStats(entry); stats != "" {
			sb.WriteString(stats)
			sb.WriteString("\n\n")
		}

		if i < len(t.Entries)-1 {
			sb.WriteString("---\n\n")
		}
	}

	sb.WriteString("\n---\n\n")
	fmt.Fprintf(&sb, "*Exported from analyst on %s*\n", exported.Format("January 2, 2006 at 3:04 PM"))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

func (e *MarkdownExporter) formatEntryStats(entry conversation.Entry) string {
	if !e.options.IncludeMetadata || !entry.Usage.HasTotal() || !entry.IsAssistant() {
		return ""
	}
	return fmt.Sprintf("<sub>%d tokens</sub>", entry.Usage.TotalTokens)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Format("January 2, 2006 at 3:04 PM")
}

func formatShortTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("15:04:05")
}

// escapeMarkdown escapes characters that would start markup in a heading.
func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		"*", `\*`,
		"_", `\_`,
		"`", "\\`",
		"#", `\#`,
		"[", `\[`,
		"]", `\]`,
	)
	return replacer.Replace(s)
}

// escapeYAML quotes s when it holds YAML-significant characters.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#{}[]&*!|>'\"%@`\n") {
		return `"` + strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), `"`, `\"`) + `"`
	}
	return s
}
