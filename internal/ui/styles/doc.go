// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the gemmabots TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection.

# Color System (colors.go)

  - Purple - Primary accent for assistant messages and selections
  - Cyan - Brand color for commands and user highlights
  - Emerald - Active capability badges
  - Amber - Notices and persona switches
  - Rose - Diagnostic replies and errors

Reasoning text uses the muted ThinkFg/ThinkBorder pair so that answers,
rendered bold, stand out from it.

# Theme (theme.go)

NewTheme detects the terminal profile with termenv and builds every
lipgloss.Style the chat view uses: header, bubbles, think boxes, sidebar,
completion popup and status bar. SetSize and GetLayoutMode drive the
responsive layout; SidebarWidth is zero on narrow terminals.

# Status Indicators

Each Status pairs its color with an ASCII marker ([OK], [!!], [FAIL], [i])
so that meaning never depends on color alone:

	fmt.Println(styles.RenderStatus(styles.StatusSuccess, "Exported to chat.md"))
	fmt.Println(styles.RenderBadge("PDF", true)) // ✓ PDF
*/
package styles
