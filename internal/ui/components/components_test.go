// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/gemmabots/internal/capability"
	"github.com/jeranaias/gemmabots/internal/commands"
	"github.com/jeranaias/gemmabots/internal/session"
	"github.com/jeranaias/gemmabots/internal/ui/styles"
)

// =============================================================================
// CODE BLOCK TESTS
// =============================================================================

func TestHighlightFences_NoFence(t *testing.T) {
	text := "plain reasoning\nwith two lines"
	assert.Equal(t, text, HighlightFences(text, 60))
}

func TestHighlightFences_ClosedFence(t *testing.T) {
	text := "before\n```go\nx := 1\n```\nafter"
	out := HighlightFences(text, 60)

	assert.NotContains(t, out, "```")
	assert.True(t, strings.HasPrefix(out, "before\n"))
	assert.True(t, strings.HasSuffix(out, "\nafter"))
	assert.Contains(t, out, "go", "language badge")
}

func TestHighlightFences_OpenFence(t *testing.T) {
	// Reasoning still streaming: the fence has not been closed yet.
	out := HighlightFences("draft:\n```python\nprint(1)", 60)
	assert.NotContains(t, out, "```")
	assert.Contains(t, out, "print")

	// A bare opening marker stays as text.
	assert.Equal(t, "draft:\n```", HighlightFences("draft:\n```", 60))
}

func TestCodeBlockRender(t *testing.T) {
	cb := NewCodeBlock("", "a\nb\nc")
	cb.SetMaxWidth(40)
	out := cb.Render()
	for _, n := range []string{"1", "2", "3"} {
		assert.Contains(t, out, n)
	}
}

// =============================================================================
// COMPLETION POPUP TESTS
// =============================================================================

func TestCompletionPopup_Empty(t *testing.T) {
	p := NewCompletionPopup(nil)
	assert.Empty(t, p.View())
	assert.Empty(t, p.ViewCompact())
}

func TestCompletionPopup_View(t *testing.T) {
	p := NewCompletionPopup(styles.NewTheme())
	p.SetWidth(50)
	p.SetCompletions([]commands.Completion{
		{Value: "/help", Description: "Show commands"},
		{Value: "/lang", Display: "/lang", Description: "Set the answer language"},
	})
	p.SetSelected(1)
	p.SetSelected(7) // ignored

	out := p.View()
	assert.Contains(t, out, "/help")
	assert.Contains(t, out, "> ")
	assert.Contains(t, out, "Set the answer language")
	assert.Contains(t, p.ViewCompact(), "2 completions")
}

func TestCompletionPopup_Window(t *testing.T) {
	var list []commands.Completion
	for _, v := range []string{"/a", "/b", "/c", "/d", "/e"} {
		list = append(list, commands.Completion{Value: v})
	}
	p := NewCompletionPopup(styles.NewTheme())
	p.SetMaxVisible(3)
	p.SetCompletions(list)

	out := p.View()
	assert.Contains(t, out, "/a")
	assert.NotContains(t, out, "/e")
	assert.Contains(t, out, "2 more")

	p.SetSelected(4)
	out = p.View()
	assert.Contains(t, out, "/e")
	assert.NotContains(t, out, "/a")
}

func TestCompletionPopup_Single(t *testing.T) {
	p := NewCompletionPopup(styles.NewTheme())
	p.SetCompletions([]commands.Completion{{Value: "/quit"}})
	assert.Contains(t, p.ViewCompact(), `complete "/quit"`)
}

// =============================================================================
// SIDEBAR TESTS
// =============================================================================

func TestSidebar_Jargon(t *testing.T) {
	theme := styles.NewTheme()
	s := Sidebar{
		ShowSettings:    true,
		Model:           "gemma3:latest",
		Language:        "ta",
		ThinkingVisible: true,
		Document:        &session.DocumentSummary{Name: "paper.pdf", Words: 1204},
		Messages:        4,
		StartedAt:       "2025-01-02 15:04:05",
		Badges:          capability.NoOp().Status(),
		QuickPrompts:    []string{"Explain recursion"},
	}
	out := s.View(theme, 34, 40)

	for _, want := range []string{
		"Settings", "gemma3:latest", "Tamil", "Think: on", "TTS:   off",
		"paper.pdf", "1,204 words loaded",
		"Messages: 4", "✗ PDF", "✓ Streaming",
		"1. Explain recursion",
	} {
		assert.Contains(t, out, want)
	}
	assert.LessOrEqual(t, lipgloss.Height(out), 40)
}

func TestSidebar_Character(t *testing.T) {
	out := Sidebar{Persona: "Sherlock", Messages: 2}.View(styles.NewTheme(), 28, 20)
	assert.Contains(t, out, "Sherlock")
	assert.NotContains(t, out, "Settings")
	assert.NotContains(t, out, "Capabilities")
}

func TestSidebar_NoRoom(t *testing.T) {
	assert.Empty(t, Sidebar{}.View(styles.NewTheme(), 0, 10))
}
