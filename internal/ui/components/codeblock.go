// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the reusable pieces of the chat view.
package components

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/gemmabots/internal/ui/styles"
)

const (
	fenceMarker   = "```"
	chromaStyle   = "monokai"
	chromaFormat  = "terminal256"
	minBlockWidth = 20
)

// =============================================================================
// CODE BLOCK
// =============================================================================

// CodeBlock is one fenced snippet from model reasoning.
type CodeBlock struct {
	Language string
	Code     string
	MaxWidth int
}

// NewCodeBlock creates a code block at the default width.
func NewCodeBlock(language, code string) CodeBlock {
	return CodeBlock{Language: language, Code: code, MaxWidth: 80}
}

// SetMaxWidth sets the width the block is clipped to.
func (c *CodeBlock) SetMaxWidth(width int) {
	c.MaxWidth = width
}

// Render highlights the code and frames it with a gutter of line numbers.
// The language badge is shown only when the fence named one.
func (c CodeBlock) Render() string {
	gutter := lipgloss.NewStyle().Foreground(styles.TextMuted)

	var body strings.Builder
	if c.Language != "" {
		body.WriteString(lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.TextMuted).
			Background(styles.OverlayDim).
			Padding(0, 1).
			Render(c.Language))
		body.WriteByte('\n')
	}
	for i, line := range strings.Split(highlight(strings.TrimSpace(c.Code), c.Language), "\n") {
		if i > 0 {
			body.WriteByte('\n')
		}
		body.WriteString(gutter.Render(fmt.Sprintf("%3d ", i+1)))
		body.WriteString(line)
	}

	return lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Overlay).
		Padding(0, 1).
		MaxWidth(max(c.MaxWidth-4, minBlockWidth)).
		Render(body.String())
}

// highlight returns code colored for a 256-color terminal, or code itself
// when chroma cannot handle it. An empty language lets chroma guess.
func highlight(code, language string) string {
	var out strings.Builder
	if err := quick.Highlight(&out, code, language, chromaFormat, chromaStyle); err != nil {
		return code
	}
	return strings.TrimSuffix(out.String(), "\n")
}

// =============================================================================
// FENCES
// =============================================================================

// HighlightFences renders each ``` fenced block of text as a CodeBlock.
// Reasoning is often still streaming, so a fence left open at the end is
// rendered too once it has at least one line of code.
func HighlightFences(text string, maxWidth int) string {
	if !strings.Contains(text, fenceMarker) {
		return text
	}

	var (
		out   []string
		block *CodeBlock
		code  []string
	)
	closeBlock := func() {
		block.Code = strings.Join(code, "\n")
		block.SetMaxWidth(maxWidth)
		out = append(out, block.Render())
		block, code = nil, nil
	}

	for _, line := range strings.Split(text, "\n") {
		marker := strings.TrimSpace(line)
		isFence := strings.HasPrefix(marker, fenceMarker)
		switch {
		case block != nil && isFence:
			closeBlock()
		case block != nil:
			code = append(code, line)
		case isFence:
			b := NewCodeBlock(strings.TrimSpace(marker[len(fenceMarker):]), "")
			block = &b
		default:
			out = append(out, line)
		}
	}

	if block != nil {
		if len(code) == 0 {
			out = append(out, fenceMarker+block.Language)
		} else {
			closeBlock()
		}
	}
	return strings.Join(out, "\n")
}
