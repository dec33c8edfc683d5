// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/gemmabots/internal/capability"
	"github.com/jeranaias/gemmabots/internal/session"
	"github.com/jeranaias/gemmabots/internal/ui/styles"
	"github.com/jeranaias/gemmabots/internal/util"
)

// =============================================================================
// SIDEBAR
// =============================================================================

// Sidebar is the session panel beside the conversation. Sections without
// data are omitted, so a character session shows only its persona and
// message count.
type Sidebar struct {
	// Settings
	Model           string
	Language        string
	ThinkingVisible bool
	SpeakAnswers    bool
	ShowSettings    bool

	// Persona is the active character persona, if any.
	Persona string

	Document *session.DocumentSummary

	// Statistics
	Messages  int
	StartedAt string

	Badges       []capability.Badge
	QuickPrompts []string
}

// View renders the sidebar into exactly width columns and at most height
// rows.
func (s Sidebar) View(theme *styles.Theme, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	inner := width - 3 // border and padding

	var sb strings.Builder
	section := func(title string) {
		sb.WriteString(theme.SidebarTitle.Render(title))
		sb.WriteString("\n")
	}
	row := func(label, value string) {
		sb.WriteString(theme.SidebarLabel.Render(label+" ") + theme.SidebarValue.Render(value))
		sb.WriteString("\n")
	}

	if s.ShowSettings {
		section("Settings")
		row("Model:", util.TruncateWidth(s.Model, inner-7))
		row("Lang: ", capability.LanguageName(s.Language))
		row("Think:", onOff(s.ThinkingVisible))
		row("TTS:  ", onOff(s.SpeakAnswers))
	}

	if s.Persona != "" {
		section("Persona")
		sb.WriteString(theme.HeaderPersona.Render(s.Persona) + "\n")
	}

	if s.Document != nil {
		section("Document")
		sb.WriteString(theme.SidebarValue.Render(util.TruncateWidth(s.Document.Name, inner)) + "\n")
		sb.WriteString(theme.SidebarLabel.Render(s.Document.Loaded()) + "\n")
	}

	section("Session")
	row("Messages:", strconv.Itoa(s.Messages))
	if s.StartedAt != "" {
		row("Started: ", s.StartedAt)
	}

	if len(s.Badges) > 0 {
		section("Capabilities")
		for _, b := range s.Badges {
			sb.WriteString(styles.RenderBadge(b.Name, b.Active) + "\n")
		}
	}

	if len(s.QuickPrompts) > 0 {
		section("Quick prompts")
		for i, p := range s.QuickPrompts {
			line := strconv.Itoa(i+1) + ". " + p
			sb.WriteString(theme.SidebarLabel.Render(util.TruncateWidth(line, inner)) + "\n")
		}
	}

	content := strings.TrimRight(sb.String(), "\n")
	return theme.Sidebar.
		Width(width - 1).
		Height(height).
		MaxHeight(height).
		Render(lipgloss.NewStyle().MaxWidth(inner).Render(content))
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
