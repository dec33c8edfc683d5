// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the gemmabots TUI.
// All colors use Lip Gloss AdaptiveColor for automatic light/dark detection.
package styles

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// PRIMARY ACCENT COLORS
// =============================================================================

// Purple - Primary accent, assistant messages, selections
var Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// Cyan - Brand color, commands, user highlights
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

// Emerald - Success states, active capability badges
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// =============================================================================
// SEMANTIC COLORS
// =============================================================================

// Rose - Errors and diagnostic replies
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Amber - Notices, persona switches, warnings
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// =============================================================================
// SURFACE COLORS
// =============================================================================

// Surface - Main background
var Surface = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}

// SurfaceDim - Headers, footers, code and think boxes
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#181825"}

// Overlay - Borders, separators
var Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}

// OverlayDim - Dimmer overlay for badges
var OverlayDim = lipgloss.AdaptiveColor{Light: "#D4D4D4", Dark: "#45475A"}

// =============================================================================
// TEXT COLORS
// =============================================================================

// TextPrimary - Main body text
var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}

// TextSecondary - Labels, less prominent text
var TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}

// TextMuted - Hints, timestamps, reasoning text
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}

// TextInverse - Text on colored backgrounds
var TextInverse = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}

// =============================================================================
// MESSAGE BUBBLE COLORS
// =============================================================================

// User message bubble - Blue tones
var UserBubbleBg = lipgloss.AdaptiveColor{Light: "#DBEAFE", Dark: "#1D4ED8"}
var UserBubbleFg = lipgloss.AdaptiveColor{Light: "#1E40AF", Dark: "#E0F2FE"}
var UserBubbleBorder = lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#3B82F6"}

// Assistant message bubble - Soft purple/violet tones
var AssistantBubbleFg = lipgloss.AdaptiveColor{Light: "#5B4B8A", Dark: "#E9E4F5"}
var AssistantBubbleBorder = lipgloss.AdaptiveColor{Light: "#C4B5FD", Dark: "#A78BFA"}

// Notice bubble - Amber/yellow tones
var NoticeFg = lipgloss.AdaptiveColor{Light: "#92400E", Dark: "#FEF3C7"}
var NoticeBorder = lipgloss.AdaptiveColor{Light: "#F59E0B", Dark: "#F59E0B"}

// Think box - muted slate
var ThinkFg = lipgloss.AdaptiveColor{Light: "#64748B", Dark: "#94A3B8"}
var ThinkBorder = lipgloss.AdaptiveColor{Light: "#CBD5E1", Dark: "#475569"}

// =============================================================================
// STATUS INDICATORS
// =============================================================================

// Status is the outcome shown next to a check or command result. Each one
// has a text indicator so meaning never depends on color alone.
type Status int

const (
	StatusSuccess Status = iota
	StatusWarning
	StatusError
	StatusInfo
)

var statusColors = [...]lipgloss.AdaptiveColor{
	StatusSuccess: {Light: "#15803D", Dark: "#22C55E"},
	StatusWarning: {Light: "#D97706", Dark: "#F59E0B"},
	StatusError:   {Light: "#DC2626", Dark: "#EF4444"},
	StatusInfo:    {Light: "#2563EB", Dark: "#3B82F6"},
}

var statusIndicators = [...]string{
	StatusSuccess: "[OK]",
	StatusWarning: "[!!]",
	StatusError:   "[FAIL]",
	StatusInfo:    "[i]",
}

// Style is the high-contrast style for s.
func (s Status) Style() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(statusColors[s]).Bold(true)
}

// Indicator is the ASCII marker for s.
func (s Status) Indicator() string {
	return statusIndicators[s]
}

// RenderStatus renders the indicator padded to a fixed column followed by
// message.
func RenderStatus(s Status, message string) string {
	return s.Style().Render(fmt.Sprintf("%-6s", s.Indicator())) + " " + message
}

// RenderBadge renders a capability badge: a check mark when active, a cross
// otherwise.
func RenderBadge(name string, active bool) string {
	if active {
		return lipgloss.NewStyle().Foreground(Emerald).Render("✓ " + name)
	}
	return lipgloss.NewStyle().Foreground(TextMuted).Render("✗ " + name)
}
