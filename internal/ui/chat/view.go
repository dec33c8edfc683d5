// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/gemmabots/internal/capability"
	"github.com/jeranaias/gemmabots/internal/commands"
	"github.com/jeranaias/gemmabots/internal/prompt"
	"github.com/jeranaias/gemmabots/internal/session"
	"github.com/jeranaias/gemmabots/internal/ui/components"
)

const (
	headerHeight    = 1
	statusBarHeight = 1
	minViewport     = 1
	popupMaxWidth   = 60
)

// =============================================================================
// LAYOUT
// =============================================================================

// layout sizes the components for the current window and popup state and
// re-renders the conversation when it changed.
func (m *Model) layout() {
	if !m.ready {
		return
	}

	popupHeight := 0
	if m.completion.Visible {
		m.popup.SetCompletions(m.completion.Completions)
		m.popup.SetSelected(m.completion.Selected)
		m.popup.SetWidth(min(popupMaxWidth, m.width-4))
		popupHeight = lipgloss.Height(m.popup.View())
	} else {
		m.popup.SetCompletions(nil)
	}

	inputArea := inputHeight + m.theme.InputContainer.GetVerticalFrameSize()
	m.input.SetWidth(max(m.width-m.theme.InputContainer.GetHorizontalFrameSize(), 10))

	width := max(m.width-m.sidebarWidth(), 10)
	height := max(m.height-headerHeight-statusBarHeight-inputArea-popupHeight, minViewport)
	if width != m.viewport.Width {
		m.dirty = true
	}
	m.viewport.Width = width
	m.viewport.Height = height

	if m.dirty {
		m.refreshViewport()
		m.dirty = false
	}
}

func (m Model) sidebarWidth() int {
	if !m.showSidebar {
		return 0
	}
	return m.theme.SidebarWidth()
}

// refreshViewport re-renders the conversation, following the bottom unless
// the user scrolled up.
func (m *Model) refreshViewport() {
	follow := m.viewport.AtBottom() || m.busy
	m.viewport.SetContent(m.renderConversation(m.viewport.Width))
	if follow {
		m.viewport.GotoBottom()
	}
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat screen.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	body := m.viewport.View()
	if sw := m.sidebarWidth(); sw > 0 {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, m.sidebar().View(m.theme, sw, m.viewport.Height))
	}

	parts := []string{m.renderHeader(), body}
	if popup := m.popup.View(); popup != "" {
		parts = append(parts, popup)
	}
	parts = append(parts,
		m.theme.InputContainer.Width(m.width).Render(m.input.View()),
		m.renderStatusBar(),
	)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	var b strings.Builder
	if m.mode == commands.ModeCharacter {
		b.WriteString(m.theme.HeaderTitle.Render("🎭 CharacterBot"))
		b.WriteString("  ")
		if p, ok := m.characterPersona(); ok {
			b.WriteString(m.theme.HeaderPersona.Render(p))
		} else {
			b.WriteString(m.theme.HeaderSubtitle.Render("no persona"))
		}
		if m.env.CharacterModel != "" {
			b.WriteString(m.theme.HeaderSubtitle.Render("  " + m.env.CharacterModel))
		}
	} else {
		b.WriteString(m.theme.HeaderTitle.Render("🧠 JargonBot"))
		if m.jargonSess != nil {
			set := m.jargonSess.Settings()
			b.WriteString(m.theme.HeaderSubtitle.Render("  " + set.Model + " · " + capability.LanguageName(set.Language)))
		}
	}
	return m.theme.Header.Width(m.width).MaxHeight(headerHeight).Render(b.String())
}

func (m Model) characterPersona() (string, bool) {
	if m.characterSess == nil {
		return "", false
	}
	p, ok := m.characterSess.ActivePersona()
	if !ok {
		return "", false
	}
	return p.Title(), true
}

// =============================================================================
// SIDEBAR
// =============================================================================

func (m Model) sidebar() components.Sidebar {
	if m.mode == commands.ModeCharacter {
		sb := components.Sidebar{Model: m.env.CharacterModel}
		if m.characterSess == nil {
			return sb
		}
		sb.Persona, _ = m.characterPersona()
		sb.Messages = m.characterSess.History.Len()
		sb.StartedAt = m.characterSess.StartedAt.Format(session.StartedAtLayout)
		return sb
	}

	sb := components.Sidebar{ShowSettings: true, QuickPrompts: prompt.Quick}
	if m.jargonSess == nil {
		return sb
	}
	set := m.jargonSess.Settings()
	stats := m.jargonSess.Stats()
	sb.Model = set.Model
	sb.Language = set.Language
	sb.ThinkingVisible = set.ThinkingVisible
	sb.SpeakAnswers = set.SpeakAnswers
	sb.Messages = stats.Messages
	sb.StartedAt = stats.StartedAt
	if doc, ok := m.jargonSess.DocumentSummary(); ok {
		sb.Document = &doc
	}
	if m.jargon != nil {
		sb.Badges = m.jargon.Capabilities.Status()
	}
	return sb
}

// =============================================================================
// STATUS BAR
// =============================================================================

func (m Model) renderStatusBar() string {
	left := m.status
	if m.busy {
		left = m.spinner.View() + " " + m.theme.SpinnerText.Render(m.busyLabel)
	} else if compact := m.popup.ViewCompact(); compact != "" {
		left = compact
	}

	var hints []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		hints = append(hints, m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
	}
	right := strings.Join(hints, "  ")

	inner := m.width - m.theme.StatusBar.GetHorizontalFrameSize()
	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		right = ""
		gap = max(inner-lipgloss.Width(left), 0)
		left = lipgloss.NewStyle().MaxWidth(inner).Render(left)
	}
	return m.theme.StatusBar.Width(m.width).MaxHeight(statusBarHeight).
		Render(left + strings.Repeat(" ", gap) + right)
}
