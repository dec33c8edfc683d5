// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"

	"github.com/jeranaias/gemmabots/internal/capability"
	"github.com/jeranaias/gemmabots/internal/commands"
	"github.com/jeranaias/gemmabots/internal/config"
	"github.com/jeranaias/gemmabots/internal/ollama"
	"github.com/jeranaias/gemmabots/internal/ui/chat"
)

// =============================================================================
// BACKEND AND CAPABILITIES
// =============================================================================

// newClient creates the Ollama client for the loaded config.
func newClient(cfg *config.Config) *ollama.Client {
	timeout := cfg.OllamaTimeout()
	return ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:       cfg.Ollama.URL,
		Timeout:       timeout,
		StreamTimeout: timeout,
	})
}

// buildCapabilities wires the enabled capabilities. A command-based
// capability whose program is missing is left out with a warning.
func buildCapabilities(cfg *config.Config, log *slog.Logger) capability.Set {
	caps := capability.NoOp()
	caps.Log = log
	c := cfg.Capabilities

	if c.PDF.Enabled {
		caps.Documents = &capability.PDFExtractor{MaxPages: c.PDF.MaxPages}
	}

	if c.Speech.Enabled {
		record := orDefault(c.Speech.RecordCommand, capability.DefaultRecordCommand)
		transcribe := orDefault(c.Speech.TranscribeCommand, capability.DefaultTranscribeCommand)
		if err := firstErr(capability.Validate(record), capability.Validate(transcribe)); err != nil {
			log.Warn("speech input disabled", "error", err)
		} else {
			rec := capability.NewCommandRecognizer(record, transcribe)
			if c.Speech.ListenSecs > 0 {
				rec.Window = time.Duration(c.Speech.ListenSecs) * time.Second
			}
			caps.Recognizer = rec
		}
	}

	if c.TTS.Enabled {
		command := orDefault(c.TTS.Command, capability.DefaultSpeakCommand)
		if err := capability.Validate(command); err != nil {
			log.Warn("speech output disabled", "error", err)
		} else {
			speaker := capability.NewCommandSpeaker(command)
			if c.TTS.Rate > 0 {
				speaker.Rate = c.TTS.Rate
			}
			caps.Speaker = speaker
		}
	}

	if c.Translate.Enabled {
		caps.Translator = capability.NewHTTPTranslator(capability.TranslatorConfig{
			BaseURL:           c.Translate.URL,
			Timeout:           time.Duration(c.Translate.TimeoutSecs) * time.Second,
			RequestsPerSecond: c.Translate.RequestsPerSecond,
		})
	}
	return caps
}

func orDefault(argv, def []string) []string {
	if len(argv) == 0 {
		return def
	}
	return argv
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// FRONT-ENDS
// =============================================================================

// runTUI runs the full-screen interface until the user quits.
func runTUI(ctx context.Context, opts chat.Options) error {
	p := tea.NewProgram(chat.New(opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run interface: %w", err)
	}
	return nil
}

// runREPL runs the line interface on the terminal.
func runREPL(ctx context.Context, r *REPL) error {
	r.Out = os.Stdout
	r.Markdown = newMarkdownRenderer()

	if r.In == nil {
		editor := NewLineEditor(commands.NewCompleter(r.Registry))
		defer editor.Close()
		r.In = editor
	}
	return r.Run(ctx)
}

// newMarkdownRenderer returns a glamour renderer sized to the terminal, or
// nil when stdout is not a terminal.
func newMarkdownRenderer() *glamour.TermRenderer {
	if !stdio.Styled() {
		return nil
	}
	style := "light"
	if termenv.HasDarkBackground() {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(stdio.Width()-4),
	)
	if err != nil {
		return nil
	}
	return r
}
