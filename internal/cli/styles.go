// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/gemmabots/internal/ui/styles"
)

func init() {
	lipgloss.SetColorProfile(stdio.ColorProfile())
}

// =============================================================================
// LINE OUTPUT STYLES
// =============================================================================

var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(styles.Purple)
	SectionStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.Cyan)
	ValueStyle   = lipgloss.NewStyle().Foreground(styles.TextPrimary)
	DimStyle     = lipgloss.NewStyle().Foreground(styles.TextMuted)

	// PersonaStyle marks persona switch notices.
	PersonaStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.Amber)

	// Jargon turns: the reasoning streams dim, the four words stand out.
	ThinkStyle  = DimStyle.Italic(true)
	AnswerStyle = lipgloss.NewStyle().Bold(true)

	SuccessStyle = styles.StatusSuccess.Style()
	WarningStyle = styles.StatusWarning.Style()
	ErrorStyle   = styles.StatusError.Style()
)

const separatorWidth = 60

// RenderSeparator renders a horizontal rule.
func RenderSeparator() string {
	return lipgloss.NewStyle().Foreground(styles.Overlay).Render(strings.Repeat("─", separatorWidth))
}
