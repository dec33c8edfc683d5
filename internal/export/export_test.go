// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/gemmabots/internal/model"
	"github.com/jeranaias/gemmabots/internal/persona"
	"github.com/jeranaias/gemmabots/internal/session"
)

func sampleTranscript() *Transcript {
	user := model.NewUserMessage("what is entropy?")
	user.Answer = user.Content
	reply := model.NewAssistantMessage("<think>recall thermo</think>A measure of disorder.",
		"recall thermo", "A measure of disorder.")
	return &Transcript{
		Title:     "JargonBot session",
		Bot:       "jargon",
		Model:     "gemma3:latest",
		Language:  "English",
		StartedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Messages:  []*model.Message{user, reply},
	}
}

func TestMarkdownExport(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(sampleTranscript())
	require.NoError(t, err)
	s := string(out)

	assert.True(t, strings.HasPrefix(s, "---\n"))
	assert.Contains(t, s, "title: JargonBot session")
	assert.Contains(t, s, "#### Thinking")
	assert.Contains(t, s, "> recall thermo")
	assert.Contains(t, s, "A measure of disorder.")
	assert.NotContains(t, s, "<think>")
}

func TestMarkdownExportWithoutThinking(t *testing.T) {
	opts := DefaultOptions()
	opts.IncludeThinking = false
	out, err := NewMarkdownExporter(opts).Export(sampleTranscript())
	require.NoError(t, err)
	assert.NotContains(t, string(out), "Thinking")
	assert.NotContains(t, string(out), "recall thermo")
}

func TestMarkdownExportEmpty(t *testing.T) {
	_, err := NewMarkdownExporter(nil).Export(&Transcript{Title: "x"})
	assert.Error(t, err)
	_, err = NewMarkdownExporter(nil).Export(nil)
	assert.Error(t, err)
}

// A title with newlines must not inject keys into the frontmatter.
func TestMarkdownFrontmatterInjection(t *testing.T) {
	tr := sampleTranscript()
	tr.Title = "evil\nadmin: true\n---\n# owned"
	out, err := NewMarkdownExporter(nil).Export(tr)
	require.NoError(t, err)

	s := string(out)
	rest := strings.TrimPrefix(s, "---\n")
	end := strings.Index(rest, "\n---\n")
	require.Greater(t, end, 0)

	var meta map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(rest[:end]), &meta))
	assert.NotContains(t, meta, "admin")
	assert.Equal(t, tr.Title, meta["title"])
}

func TestJSONExport(t *testing.T) {
	out, err := NewJSONExporter(nil).Export(sampleTranscript())
	require.NoError(t, err)

	var back Transcript
	require.NoError(t, json.Unmarshal(out, &back))
	require.Len(t, back.Messages, 2)
	assert.Equal(t, "recall thermo", back.Messages[1].Think)
	assert.Equal(t, "jargon", back.Bot)
}

func TestYAMLExportWithoutThinking(t *testing.T) {
	tr := sampleTranscript()
	opts := DefaultOptions()
	opts.IncludeThinking = false
	out, err := NewYAMLExporter(opts).Export(tr)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "recall thermo")
	assert.Contains(t, string(out), "A measure of disorder.")

	// The source transcript is untouched.
	assert.Equal(t, "recall thermo", tr.Messages[1].Think)
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		name string
		ext  string
	}{
		{"markdown", ".md"},
		{"md", ".md"},
		{"", ".md"},
		{"JSON", ".json"},
		{"yaml", ".yaml"},
		{".yml", ".yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp, err := ForFormat(tt.name, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.ext, exp.FileExtension())
		})
	}

	_, err := ForFormat("html", nil)
	assert.Error(t, err)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, "json", FormatFromPath("a/b.JSON"))
	assert.Equal(t, "yaml", FormatFromPath("x.yml"))
	assert.Equal(t, "markdown", FormatFromPath("x.txt"))
}

func TestExportToFile(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions()
	opts.OutputDir = dir

	path, err := ExportToFile(sampleTranscript(), NewJSONExporter(opts), "", opts)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "JargonBot_session_"))
	assert.Equal(t, ".json", filepath.Ext(path))

	explicit := filepath.Join(dir, "nested", "chat.md")
	got, err := ExportToFile(sampleTranscript(), NewMarkdownExporter(opts), explicit, opts)
	require.NoError(t, err)
	assert.Equal(t, explicit, got)
	data, err := os.ReadFile(explicit)
	require.NoError(t, err)
	assert.Contains(t, string(data), "A measure of disorder.")
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a-b_c", sanitizeFilename("a/b c"))
	assert.Equal(t, "conversation", sanitizeFilename(""))
	assert.Equal(t, 50, len([]rune(sanitizeFilename(strings.Repeat("x", 80)))))
}

func TestFromSessions(t *testing.T) {
	cs := session.NewCharacterSession()
	p, ok := persona.Lookup("sherlock")
	require.True(t, ok)
	cs.SwitchPersona(p)
	cs.History.Append(model.NewUserMessage("hello"))

	ct := FromCharacter(cs, "gemma:3b")
	assert.Equal(t, "character", ct.Bot)
	assert.Equal(t, p.Title(), ct.Persona)
	assert.Len(t, ct.Messages, 1)

	js := session.NewJargonSession()
	js.SetDocument("paper.pdf", "text")
	jt := FromJargon(js)
	assert.Equal(t, "jargon", jt.Bot)
	assert.Equal(t, "paper.pdf", jt.Document)
	assert.Equal(t, "English", jt.Language)
}
