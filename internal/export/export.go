// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/jeranaias/gemmabots/internal/capability"
	"github.com/jeranaias/gemmabots/internal/model"
	"github.com/jeranaias/gemmabots/internal/session"
	"github.com/jeranaias/gemmabots/internal/util"
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is an exportable snapshot of a session.
type Transcript struct {
	Title     string           `json:"title" yaml:"title"`
	Bot       string           `json:"bot" yaml:"bot"`
	Model     string           `json:"model,omitempty" yaml:"model,omitempty"`
	Persona   string           `json:"persona,omitempty" yaml:"persona,omitempty"`
	Language  string           `json:"language,omitempty" yaml:"language,omitempty"`
	Document  string           `json:"document,omitempty" yaml:"document,omitempty"`
	StartedAt time.Time        `json:"started_at" yaml:"started_at"`
	Messages  []*model.Message `json:"messages" yaml:"messages"`
}

// FromCharacter snapshots a character session.
func FromCharacter(sess *session.CharacterSession, modelName string) *Transcript {
	t := &Transcript{
		Title:     "Character chat",
		Bot:       "character",
		Model:     modelName,
		StartedAt: sess.StartedAt,
		Messages:  sess.History.Messages(),
	}
	if p, ok := sess.ActivePersona(); ok {
		t.Persona = p.Title()
		t.Title = p.Title() + " chat"
	}
	return t
}

// FromJargon snapshots a jargon session.
func FromJargon(sess *session.JargonSession) *Transcript {
	settings := sess.Settings()
	docName, _ := sess.LoadedDocument()
	return &Transcript{
		Title:     "JargonBot session",
		Bot:       "jargon",
		Model:     settings.Model,
		Language:  capability.LanguageName(settings.Language),
		Document:  docName,
		StartedAt: sess.StartedAt,
		Messages:  sess.History.Messages(),
	}
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for transcript exporters.
type Exporter interface {
	// Export converts a transcript to the target format.
	Export(t *Transcript) ([]byte, error)

	// FileExtension returns the file extension (e.g. ".md").
	FileExtension() string

	// MimeType returns the MIME type of the exported format.
	MimeType() string
}

// Options configures export behavior.
type Options struct {
	// OutputDir is where generated file names are placed. Default: "."
	OutputDir string

	// OpenAfterExport opens the file in the default application.
	OpenAfterExport bool

	// IncludeThinking includes reasoning text. Default: true
	IncludeThinking bool

	// IncludeTimestamps includes per-message timestamps.
	IncludeTimestamps bool
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeThinking:   true,
		IncludeTimestamps: true,
	}
}

// Formats lists the accepted format names.
var Formats = []string{"markdown", "json", "yaml"}

// ForFormat returns the exporter for a format name or file extension.
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "", "markdown", "md":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	case "yaml", "yml":
		return NewYAMLExporter(opts), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile renders t and writes it. An empty path generates a file name
// in opts.OutputDir. Returns the written path.
func ExportToFile(t *Transcript, exporter Exporter, path string, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(t)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	if path == "" {
		filename := fmt.Sprintf("%s_%s%s",
			sanitizeFilename(t.Title),
			time.Now().Format("20060102_150405"),
			exporter.FileExtension(),
		)
		path = filepath.Join(opts.OutputDir, filename)
	}

	if err := util.AtomicWriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	if opts.OpenAfterExport {
		// Non-fatal: the file was written.
		_ = openFile(path)
	}
	return path, nil
}

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "markdown"
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	s = util.HeadRunes(s, 50)

	var b strings.Builder
	for _, r := range s {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			b.WriteRune('_')
		case r < 32 || r == 127:
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "conversation"
	}
	return b.String()
}

// openFile opens a file in the default application for the OS.
func openFile(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", `""`, path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// formatShortTimestamp formats a timestamp for inline display.
func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}
