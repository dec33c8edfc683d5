// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/gemmabots/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports transcripts to Markdown with YAML frontmatter.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// frontmatter is the metadata block at the top of a Markdown export.
type frontmatter struct {
	Title    string `yaml:"title"`
	Bot      string `yaml:"bot"`
	Model    string `yaml:"model,omitempty"`
	Persona  string `yaml:"persona,omitempty"`
	Language string `yaml:"language,omitempty"`
	Document string `yaml:"document,omitempty"`
	Date     string `yaml:"date"`
	Messages int    `yaml:"messages"`
	Exported string `yaml:"exported"`
}

// Export converts a transcript to Markdown.
func (e *MarkdownExporter) Export(t *Transcript) ([]byte, error) {
	if t == nil {
		return nil, fmt.Errorf("transcript is nil")
	}
	if len(t.Messages) == 0 {
		return nil, fmt.Errorf("transcript has no messages")
	}

	var sb strings.Builder

	// yaml.v3 quotes anything that would break the block.
	meta, err := yaml.Marshal(frontmatter{
		Title:    t.Title,
		Bot:      t.Bot,
		Model:    t.Model,
		Persona:  t.Persona,
		Language: t.Language,
		Document: t.Document,
		Date:     t.StartedAt.Format(time.RFC3339),
		Messages: len(t.Messages),
		Exported: time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("encode frontmatter: %w", err)
	}
	sb.WriteString("---\n")
	sb.Write(meta)
	sb.WriteString("---\n\n")

	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(t.Title)))
	sb.WriteString(fmt.Sprintf("- **Started**: %s\n", formatTimestamp(t.StartedAt)))
	if t.Model != "" {
		sb.WriteString(fmt.Sprintf("- **Model**: %s\n", t.Model))
	}
	if t.Persona != "" {
		sb.WriteString(fmt.Sprintf("- **Persona**: %s\n", t.Persona))
	}
	if t.Document != "" {
		sb.WriteString(fmt.Sprintf("- **Document**: %s\n", t.Document))
	}
	sb.WriteString("\n---\n\n")

	for i, msg := range t.Messages {
		label := msg.Role.DisplayName()
		if e.options.IncludeTimestamps {
			sb.WriteString(fmt.Sprintf("### %s <sub>%s</sub>\n\n", label, formatShortTimestamp(msg.Timestamp)))
		} else {
			sb.WriteString(fmt.Sprintf("### %s\n\n", label))
		}

		sb.WriteString(e.formatMessage(msg))
		sb.WriteString("\n\n")

		if i < len(t.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	sb.WriteString("\n---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported from gemmabots on %s*\n",
		time.Now().Format("January 2, 2006 at 3:04 PM")))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string { return ".md" }

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string { return "text/markdown" }

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

// formatMessage renders the reasoning as a quoted "Thinking" section, then
// the displayed text.
func (e *MarkdownExporter) formatMessage(msg *model.Message) string {
	var sb strings.Builder
	if e.options.IncludeThinking && msg.Think != "" {
		sb.WriteString("#### Thinking\n\n")
		for _, line := range strings.Split(strings.TrimSpace(msg.Think), "\n") {
			sb.WriteString("> ")
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	sb.WriteString(strings.TrimSpace(msg.Display()))
	return sb.String()
}

// escapeMarkdown escapes characters that would break a heading.
func escapeMarkdown(s string) string {
	r := strings.NewReplacer("#", "\\#", "*", "\\*", "_", "\\_", "[", "\\[", "]", "\\]")
	return r.Replace(s)
}
