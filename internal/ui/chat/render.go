// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/gemmabots/internal/commands"
	"github.com/jeranaias/gemmabots/internal/model"
	"github.com/jeranaias/gemmabots/internal/thinking"
	"github.com/jeranaias/gemmabots/internal/ui/components"
)

const (
	liveLabel   = "⚡ PROCESSING…"
	storedLabel = "🧠 Reasoning"
	cursorGlyph = "▌"
)

// =============================================================================
// CONVERSATION
// =============================================================================

// renderConversation renders the history with notes interleaved, then the
// pending user text and the live reply of a running turn.
func (m *Model) renderConversation(width int) string {
	msgs := m.history().Messages()
	var blocks []string

	ni := 0
	for i, msg := range msgs {
		for ni < len(m.notes) && m.notes[ni].at <= i {
			blocks = append(blocks, m.renderNote(m.notes[ni], width))
			ni++
		}
		blocks = append(blocks, m.renderMessage(msg, width))
	}
	for ; ni < len(m.notes); ni++ {
		blocks = append(blocks, m.renderNote(m.notes[ni], width))
	}

	if m.pending != "" {
		last := len(msgs) - 1
		if last < 0 || !msgs[last].IsUser() || msgs[last].Content != m.pending {
			blocks = append(blocks, m.renderUser(m.pending, width))
		}
	}
	if m.turn != nil {
		blocks = append(blocks, m.renderLive(width))
	}

	if len(blocks) == 0 {
		return m.renderWelcome(width)
	}
	return strings.Join(blocks, "\n\n")
}

func (m *Model) renderMessage(msg *model.Message, width int) string {
	if msg.IsUser() {
		return m.renderUser(msg.Content, width)
	}
	if isDiagnostic(msg.Content) {
		return m.theme.Diagnostic.Width(width - 2).Render(msg.Content)
	}
	if m.mode == commands.ModeCharacter {
		return m.renderCharacter(msg, width)
	}
	return m.renderJargon(msg, width)
}

// isDiagnostic reports whether a reply is a backend diagnostic.
func isDiagnostic(content string) bool {
	return strings.HasPrefix(content, "⚠")
}

func (m *Model) renderUser(text string, width int) string {
	bubble := m.theme.UserBubble.Width(width * 3 / 4).Render(text)
	return lipgloss.PlaceHorizontal(width, lipgloss.Right, bubble)
}

func (m *Model) renderNote(n note, width int) string {
	switch n.kind {
	case noteError:
		return m.theme.Diagnostic.Width(width - 2).Render("✗ " + n.text)
	case noteNotice:
		return m.theme.Notice.Width(width - 2).Render(m.theme.HeaderPersona.Render(n.text))
	default:
		return m.theme.Notice.Width(width - 2).Render(n.text)
	}
}

func (m *Model) renderWelcome(width int) string {
	var lines []string
	if m.mode == commands.ModeCharacter {
		lines = []string{
			m.theme.HeaderTitle.Render("🎭 CharacterBot"),
			"Chat with Gemma. Mention Iron Man, Naruto or Sherlock to switch persona.",
		}
	} else {
		lines = []string{
			m.theme.HeaderTitle.Render("🧠 JargonBot"),
			"Ask anything. Every answer is four words of pure jargon.",
			"Load a PDF with /pdf <path>, try /quick for examples.",
		}
	}
	lines = append(lines, m.theme.ShortcutDesc.Render("Type /help for commands."))
	return m.theme.Notice.Width(width - 2).Render(strings.Join(lines, "\n"))
}

// =============================================================================
// JARGON REPLIES
// =============================================================================

func (m *Model) thinkingVisible() bool {
	return m.jargonSess != nil && m.jargonSess.Settings().ThinkingVisible
}

// renderJargon renders a stored reply: the clipped reasoning, then the bold
// answer.
func (m *Model) renderJargon(msg *model.Message, width int) string {
	var parts []string
	if m.thinkingVisible() && msg.Think != "" {
		think := components.HighlightFences(thinking.Clip(msg.Think, thinking.ClipLimit), width-6)
		parts = append(parts,
			m.theme.ThinkLabel.Render(storedLabel),
			m.theme.ThinkBox.Width(width-2).Render(think),
		)
	}
	parts = append(parts, m.theme.Answer.Width(width-2).Render(msg.Display()))
	return strings.Join(parts, "\n")
}

// renderLive renders the reply of the running turn: the tail of the
// reasoning so far, then the answer with a cursor.
func (m *Model) renderLive(width int) string {
	if m.live.Failed {
		return m.theme.Diagnostic.Width(width - 2).Render(m.live.Cumulative)
	}

	seg := m.live.Segments
	var parts []string
	if m.thinkingVisible() && seg.Think != "" {
		think := components.HighlightFences(thinking.Tail(seg.Think, thinking.LiveTailLimit), width-6)
		parts = append(parts,
			m.theme.ThinkLabel.Render(liveLabel),
			m.theme.ThinkLive.Width(width-2).Render(think),
		)
	}
	parts = append(parts, m.theme.Answer.Width(width-2).Render(seg.Answer+cursorGlyph))
	return strings.Join(parts, "\n")
}

// =============================================================================
// CHARACTER REPLIES
// =============================================================================

func (m *Model) renderCharacter(msg *model.Message, width int) string {
	label := "Gemma"
	if p, ok := m.characterPersona(); ok {
		label = p
	}
	return m.theme.HeaderPersona.Render(label) + "\n" + m.renderMarkdown(msg.Content, width)
}

// renderMarkdown renders text with glamour, rebuilding the renderer when the
// width changed. Plain text is used when glamour fails.
func (m *Model) renderMarkdown(text string, width int) string {
	if m.markdown == nil || m.mdWidth != width {
		style := "light"
		if m.theme.IsDark {
			style = "dark"
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(max(width-4, 20)),
		)
		if err != nil {
			m.log.Debug("markdown renderer unavailable", "error", err)
			return m.theme.AssistantBubble.Width(width - 2).Render(text)
		}
		m.markdown = r
		m.mdWidth = width
	}

	out, err := m.markdown.Render(text)
	if err != nil {
		return m.theme.AssistantBubble.Width(width - 2).Render(text)
	}
	return strings.Trim(out, "\n")
}
