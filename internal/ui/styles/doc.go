// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the analyst TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. The palette is small: indigo for brand and focus, slate for
assistant replies, rose for errors.

# Theme

	theme := styles.NewTheme(cfg.UI.Theme)
	header := theme.HeaderTitle.Render("Project Analyst AI")

NewTheme("dark") and NewTheme("light") force the background; "auto" asks the
terminal.

# Status helpers

RenderSuccess, RenderError, RenderWarning and RenderInfo prefix messages with
ASCII indicators ([OK], [X], [!], [i]) so meaning is not carried by color
alone.
*/
package styles
