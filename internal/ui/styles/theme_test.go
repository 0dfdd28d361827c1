// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestNewTheme_Modes(t *testing.T) {
	if theme := NewTheme(ModeDark); !theme.IsDark {
		t.Error("dark mode should set IsDark")
	}
	if theme := NewTheme(ModeLight); theme.IsDark {
		t.Error("light mode should clear IsDark")
	}
	if theme := NewTheme("AUTO"); theme == nil {
		t.Fatal("NewTheme() returned nil")
	}
}

func TestThemeInitStyles(t *testing.T) {
	theme := NewTheme(ModeDark)

	styles := []struct {
		name  string
		style lipgloss.Style
	}{
		{"Header", theme.Header},
		{"HeaderTitle", theme.HeaderTitle},
		{"UserBubble", theme.UserBubble},
		{"AssistantBubble", theme.AssistantBubble},
		{"TokenFooter", theme.TokenFooter},
		{"ErrorLine", theme.ErrorLine},
		{"InputContainer", theme.InputContainer},
		{"Footer", theme.Footer},
		{"LoginBox", theme.LoginBox},
		{"ButtonActive", theme.ButtonActive},
	}

	for _, s := range styles {
		if rendered := s.style.Render("test"); !strings.Contains(rendered, "test") {
			t.Errorf("%s style should render its content, got %q", s.name, rendered)
		}
	}
}

func TestThemeGetLayoutMode(t *testing.T) {
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{0, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
	}

	theme := NewTheme(ModeDark)
	for _, tt := range tests {
		theme.SetSize(tt.width, 24)
		if got := theme.GetLayoutMode(); got != tt.want {
			t.Errorf("width %d: GetLayoutMode() = %v, want %v", tt.width, got, tt.want)
		}
	}
}

func TestRenderHelpers(t *testing.T) {
	tests := []struct {
		name      string
		render    func(string) string
		indicator string
	}{
		{"success", RenderSuccess, StatusIndicators.Success},
		{"error", RenderError, StatusIndicators.Error},
		{"warning", RenderWarning, StatusIndicators.Warning},
		{"info", RenderInfo, StatusIndicators.Info},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.render("saved")
			if !strings.Contains(out, tt.indicator) {
				t.Errorf("missing indicator %q in %q", tt.indicator, out)
			}
			if !strings.Contains(out, "saved") {
				t.Errorf("missing message in %q", out)
			}
		})
	}
}
