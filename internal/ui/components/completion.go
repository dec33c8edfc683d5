// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/gemmabots/internal/commands"
	"github.com/jeranaias/gemmabots/internal/ui/styles"
	"github.com/jeranaias/gemmabots/internal/util"
)

// =============================================================================
// COMPLETION POPUP
// =============================================================================

const (
	popupValueWidth = 20
	popupMaxVisible = 8
	popupWidth      = 50
)

// CompletionPopup lists slash-command completions above the input.
type CompletionPopup struct {
	theme *styles.Theme

	items      []commands.Completion
	selected   int
	maxVisible int
	width      int
}

// NewCompletionPopup creates an empty popup. A nil theme gets the default.
func NewCompletionPopup(theme *styles.Theme) *CompletionPopup {
	if theme == nil {
		theme = styles.NewTheme()
	}
	return &CompletionPopup{theme: theme, maxVisible: popupMaxVisible, width: popupWidth}
}

// SetCompletions replaces the list and selects the first item.
func (c *CompletionPopup) SetCompletions(completions []commands.Completion) {
	c.items, c.selected = completions, 0
}

// SetSelected moves the selection; indexes outside the list are ignored.
func (c *CompletionPopup) SetSelected(index int) {
	if index >= 0 && index < len(c.items) {
		c.selected = index
	}
}

func (c *CompletionPopup) SetWidth(width int) { c.width = width }

// SetMaxVisible caps how many rows show at once.
func (c *CompletionPopup) SetMaxVisible(n int) {
	if n > 0 {
		c.maxVisible = n
	}
}

// window returns the visible slice bounds, keeping the selection near the
// middle once the list scrolls.
func (c *CompletionPopup) window() (start, end int) {
	n := len(c.items)
	if n <= c.maxVisible {
		return 0, n
	}
	start = min(max(c.selected-c.maxVisible/2, 0), n-c.maxVisible)
	return start, start + c.maxVisible
}

// View renders the popup, or "" when there is nothing to complete.
func (c *CompletionPopup) View() string {
	if len(c.items) == 0 {
		return ""
	}

	start, end := c.window()
	rows := make([]string, 0, end-start+1)
	for i, item := range c.items[start:end] {
		rows = append(rows, c.row(item, start+i == c.selected))
	}
	if hidden := len(c.items) - (end - start); hidden > 0 {
		rows = append(rows, c.theme.CompletionDesc.Render(fmt.Sprintf("  %d more", hidden)))
	}

	return c.theme.CompletionPopup.
		Width(c.width).
		MaxWidth(c.width + 2).
		Render(strings.Join(rows, "\n"))
}

func (c *CompletionPopup) row(item commands.Completion, selected bool) string {
	marker, valueStyle := "  ", c.theme.CompletionItem
	if selected {
		marker, valueStyle = "> ", c.theme.CompletionSelected
	}

	value := util.TruncateWidth(label(item), popupValueWidth)
	desc := util.TruncateWidth(item.Description, c.width-popupValueWidth-4)
	return marker +
		valueStyle.Width(popupValueWidth).Render(value) + " " +
		c.theme.CompletionDesc.Render(desc)
}

// ViewCompact renders a one-line Tab hint for when the popup has no room.
func (c *CompletionPopup) ViewCompact() string {
	hint := lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true)
	switch len(c.items) {
	case 0:
		return ""
	case 1:
		return hint.Render(fmt.Sprintf("Tab: complete %q", label(c.items[0])))
	default:
		return hint.Render(fmt.Sprintf("Tab: %d completions", len(c.items)))
	}
}

func label(item commands.Completion) string {
	if item.Display != "" {
		return item.Display
	}
	return item.Value
}
