// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/peterh/liner"

	"github.com/jeranaias/gemmabots/internal/bot"
	"github.com/jeranaias/gemmabots/internal/capability"
	"github.com/jeranaias/gemmabots/internal/commands"
	"github.com/jeranaias/gemmabots/internal/config"
	"github.com/jeranaias/gemmabots/internal/session"
	"github.com/jeranaias/gemmabots/internal/thinking"
)

// =============================================================================
// LINE EDITING
// =============================================================================

// LineReader reads one line of input. *liner.State implements it.
type LineReader interface {
	Prompt(prompt string) (string, error)
	PromptWithSuggestion(prompt, text string, pos int) (string, error)
	AppendHistory(item string)
}

// LineEditor wraps liner with history persisted in the config directory
// and slash command completion.
type LineEditor struct {
	*liner.State
	historyFile string
}

// NewLineEditor creates a line editor completing with completer.
func NewLineEditor(completer *commands.Completer) *LineEditor {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completer.Lines)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	e := &LineEditor{State: line, historyFile: filepath.Join(configDir, "history")}
	e.LoadHistory()
	return e
}

// LoadHistory loads input history from file.
func (e *LineEditor) LoadHistory() {
	if f, err := os.Open(e.historyFile); err == nil {
		e.ReadHistory(f)
		f.Close()
	}
}

// SaveHistory persists input history with owner-only permissions.
func (e *LineEditor) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(e.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	e.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (e *LineEditor) Close() error {
	e.SaveHistory()
	return e.State.Close()
}

// =============================================================================
// REPL
// =============================================================================

// REPL is the line-oriented front-end for both bots.
type REPL struct {
	In  LineReader
	Out io.Writer

	Mode     commands.Mode
	Registry *commands.Registry
	Env      *commands.Context

	Character        *bot.CharacterBot
	CharacterSession *session.CharacterSession
	Jargon           *bot.JargonBot
	JargonSession    *session.JargonSession

	// Markdown renders character replies; nil prints them as is.
	Markdown *glamour.TermRenderer
	Log      *slog.Logger

	fill string
}

// Run reads lines until /quit, end of input or ctrl+c.
func (r *REPL) Run(ctx context.Context) error {
	r.banner()
	for {
		var (
			line string
			err  error
		)
		if r.fill != "" {
			line, err = r.In.PromptWithSuggestion(r.prompt(), r.fill, -1)
			r.fill = ""
		} else {
			line, err = r.In.Prompt(r.prompt())
		}
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Fprintln(r.Out)
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.In.AppendHistory(line)

		if quit := r.Handle(ctx, line); quit {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// Handle processes one input line. It returns true when the user quit.
func (r *REPL) Handle(ctx context.Context, line string) bool {
	if !commands.IsCommand(line) {
		r.turn(ctx, line)
		return false
	}

	res, err := r.Registry.Execute(ctx, r.Env, line)
	if err != nil {
		fmt.Fprintln(r.Out, ErrorStyle.Render("✗ "+err.Error()))
		return false
	}
	if res.Output != "" {
		fmt.Fprintln(r.Out, res.Output)
	}
	if res.Quit {
		return true
	}
	if res.Fill != "" {
		r.fill = res.Fill
	}
	if res.Submit != "" {
		fmt.Fprintln(r.Out, DimStyle.Render("> "+res.Submit))
		r.turn(ctx, res.Submit)
	}
	return false
}

func (r *REPL) prompt() string {
	if r.Mode == commands.ModeCharacter && r.CharacterSession != nil {
		if p, ok := r.CharacterSession.ActivePersona(); ok {
			return p.Title() + "> "
		}
	}
	return "you> "
}

func (r *REPL) banner() {
	if r.Mode == commands.ModeCharacter {
		fmt.Fprintln(r.Out, TitleStyle.Render("🎭 CharacterBot"))
		fmt.Fprintln(r.Out, DimStyle.Render("Mention Iron Man, Naruto or Sherlock to switch persona. /help for commands."))
	} else {
		fmt.Fprintln(r.Out, TitleStyle.Render("🧠 JargonBot"))
		if r.JargonSession != nil {
			set := r.JargonSession.Settings()
			fmt.Fprintln(r.Out, DimStyle.Render(set.Model+" · "+capability.LanguageName(set.Language)+" · /help for commands"))
		}
	}
	fmt.Fprintln(r.Out, RenderSeparator())
}

// =============================================================================
// TURNS
// =============================================================================

func (r *REPL) turn(ctx context.Context, text string) {
	if r.Mode == commands.ModeCharacter {
		r.characterTurn(ctx, text)
		return
	}
	r.jargonTurn(ctx, text)
}

func (r *REPL) characterTurn(ctx context.Context, text string) {
	if r.Character == nil || r.CharacterSession == nil {
		fmt.Fprintln(r.Out, ErrorStyle.Render("✗ character bot is not configured"))
		return
	}

	reply := r.Character.Turn(ctx, r.CharacterSession, text)
	if reply.Notice != "" {
		fmt.Fprintln(r.Out, PersonaStyle.Render(reply.Notice))
	}
	if reply.Message == nil {
		return
	}
	if reply.Failed {
		fmt.Fprintln(r.Out, ErrorStyle.Render(reply.Message.Content))
		return
	}
	fmt.Fprintln(r.Out, r.render(reply.Message.Content))
}

func (r *REPL) jargonTurn(ctx context.Context, text string) {
	if r.Jargon == nil || r.JargonSession == nil {
		fmt.Fprintln(r.Out, ErrorStyle.Render("✗ jargon bot is not configured"))
		return
	}

	set := r.JargonSession.Settings()
	turn := r.Jargon.Begin(ctx, r.JargonSession, text)
	if turn == nil {
		return
	}

	live := &liveWriter{out: r.Out, showThink: set.ThinkingVisible}
	for {
		d, ok := turn.Next()
		if !ok {
			break
		}
		live.write(d)
	}
	msg := turn.Finish()
	fmt.Fprintln(r.Out)

	if turn.Failed() {
		return
	}
	if set.Language != capability.DefaultLanguage && msg.Answer != "" {
		fmt.Fprintln(r.Out, SectionStyle.Render("🌐 "+capability.LanguageName(set.Language)))
		fmt.Fprintln(r.Out, r.render(msg.Answer))
	}
	fmt.Fprintln(r.Out, DimStyle.Render(turnStats(turn)))
}

// turnStats formats the statistics line of a finished turn.
func turnStats(turn *bot.Turn) string {
	elapsed := turn.Elapsed().Round(100 * time.Millisecond)
	stats := turn.Stats()
	if stats.CompletionTokens == 0 {
		return elapsed.String()
	}
	return fmt.Sprintf("%d tokens · %.1f tok/s · %s", stats.CompletionTokens, stats.TokensPerSecond(), elapsed)
}

func (r *REPL) render(text string) string {
	if r.Markdown == nil {
		return text
	}
	out, err := r.Markdown.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

// =============================================================================
// LIVE OUTPUT
// =============================================================================

// liveWriter prints a streamed reply as it grows: reasoning dimmed while
// inside the markers, then the answer in bold.
type liveWriter struct {
	out       io.Writer
	showThink bool
	think     int
	answer    int
}

func (w *liveWriter) write(d bot.Delta) {
	if d.Failed {
		fmt.Fprint(w.out, ErrorStyle.Render(d.Cumulative))
		return
	}

	text := d.Cumulative
	open := strings.Index(text, thinking.OpenMarker)
	closeAt := strings.Index(text, thinking.CloseMarker)

	switch {
	case open >= 0 && closeAt < 0:
		think := strings.TrimLeft(text[open+len(thinking.OpenMarker):], " \t\r\n")
		if w.showThink && len(think) > w.think {
			fmt.Fprint(w.out, ThinkStyle.Render(think[w.think:]))
			w.think = len(think)
		}

	case open < 0 && closeAt < 0 && strings.HasPrefix(thinking.OpenMarker, strings.TrimSpace(text)):
		// A marker may still be arriving.

	default:
		answer := d.Segments.Answer
		if len(answer) <= w.answer {
			return
		}
		if w.answer == 0 && w.think > 0 {
			fmt.Fprint(w.out, "\n\n")
		}
		fmt.Fprint(w.out, AnswerStyle.Render(answer[w.answer:]))
		w.answer = len(answer)
	}
}
