// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the gemmabots TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Layout breakpoints, in columns.
const (
	narrowBelow = 60
	mediumBelow = 100
)

// LayoutMode is the responsive layout picked from the terminal width.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota
	LayoutMedium
	LayoutWide
)

// Theme holds every style the chat view draws with, plus the current
// terminal size.
type Theme struct {
	IsDark bool

	Width  int
	Height int

	// Header line
	Header         lipgloss.Style
	HeaderTitle    lipgloss.Style
	HeaderSubtitle lipgloss.Style
	HeaderPersona  lipgloss.Style

	// Transcript
	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	Answer          lipgloss.Style
	Notice          lipgloss.Style
	Diagnostic      lipgloss.Style

	// Reasoning. ThinkLive marks a turn that is still streaming.
	ThinkBox   lipgloss.Style
	ThinkLive  lipgloss.Style
	ThinkLabel lipgloss.Style

	InputContainer lipgloss.Style

	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	Sidebar      lipgloss.Style
	SidebarTitle lipgloss.Style
	SidebarLabel lipgloss.Style
	SidebarValue lipgloss.Style

	CompletionPopup    lipgloss.Style
	CompletionItem     lipgloss.Style
	CompletionSelected lipgloss.Style
	CompletionDesc     lipgloss.Style

	Spinner     lipgloss.Style
	SpinnerText lipgloss.Style
}

// =============================================================================
// CONSTRUCTION
// =============================================================================

func fg(c lipgloss.TerminalColor) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

// boxed draws a rounded border in border around text colored text.
func boxed(text, border lipgloss.TerminalColor) lipgloss.Style {
	return fg(text).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border)
}

// ruled draws a single rule on the left, used for notices.
func ruled(text, rule lipgloss.TerminalColor) lipgloss.Style {
	return fg(text).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(rule).
		PaddingLeft(1)
}

// NewTheme builds the theme for the current terminal.
func NewTheme() *Theme {
	think := boxed(ThinkFg, ThinkBorder).Padding(0, 1)

	return &Theme{
		IsDark: termenv.HasDarkBackground(),

		Header:         fg(Cyan).Bold(true).Background(SurfaceDim).Padding(0, 1),
		HeaderTitle:    fg(Purple).Bold(true),
		HeaderSubtitle: fg(TextSecondary).Italic(true),
		HeaderPersona:  fg(Amber).Bold(true),

		UserBubble:      boxed(UserBubbleFg, UserBubbleBorder).Background(UserBubbleBg).Padding(0, 2),
		AssistantBubble: boxed(AssistantBubbleFg, AssistantBubbleBorder).Padding(0, 2),
		Answer:          fg(TextPrimary).Bold(true),
		Notice:          ruled(NoticeFg, NoticeBorder),
		Diagnostic:      ruled(Rose, Rose),

		ThinkBox:   think,
		ThinkLive:  think.BorderForeground(Purple).Italic(true),
		ThinkLabel: fg(TextMuted).Bold(true),

		InputContainer: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(Overlay),

		StatusBar:    fg(TextSecondary).Background(SurfaceDim).Padding(0, 1),
		ShortcutKey:  fg(Cyan).Bold(true),
		ShortcutDesc: fg(TextMuted),

		Sidebar: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(Overlay).
			Padding(0, 1),
		SidebarTitle: fg(Purple).Bold(true).MarginTop(1),
		SidebarLabel: fg(TextMuted),
		SidebarValue: fg(TextPrimary),

		CompletionPopup:    boxed(TextPrimary, Overlay).Padding(0, 1),
		CompletionItem:     fg(TextPrimary),
		CompletionSelected: fg(TextInverse).Background(Purple).Bold(true),
		CompletionDesc:     fg(TextMuted),

		Spinner:     fg(Purple),
		SpinnerText: fg(TextSecondary),
	}
}

// =============================================================================
// LAYOUT
// =============================================================================

// SetSize records the terminal size.
func (t *Theme) SetSize(width, height int) {
	t.Width, t.Height = width, height
}

// GetLayoutMode returns the layout for the current width.
func (t *Theme) GetLayoutMode() LayoutMode {
	switch {
	case t.Width < narrowBelow:
		return LayoutNarrow
	case t.Width < mediumBelow:
		return LayoutMedium
	default:
		return LayoutWide
	}
}

// SidebarWidth is zero when the sidebar does not fit.
func (t *Theme) SidebarWidth() int {
	return [...]int{LayoutNarrow: 0, LayoutMedium: 28, LayoutWide: 34}[t.GetLayoutMode()]
}
