// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jeranaias/gemmabots/internal/bot"
	"github.com/jeranaias/gemmabots/internal/capability"
	"github.com/jeranaias/gemmabots/internal/export"
	"github.com/jeranaias/gemmabots/internal/ollama"
	"github.com/jeranaias/gemmabots/internal/persona"
	"github.com/jeranaias/gemmabots/internal/prompt"
	"github.com/jeranaias/gemmabots/internal/session"
)

// =============================================================================
// CONTEXT AND RESULT
// =============================================================================

// ModelLister lists installed models. *ollama.Client implements it.
type ModelLister interface {
	ListModels(ctx context.Context) ([]ollama.ModelInfo, error)
}

// Context is what a command acts on. Only the session of the running bot
// is set.
type Context struct {
	Character *session.CharacterSession
	Jargon    *session.JargonSession
	JargonBot *bot.JargonBot

	Models ModelLister

	// CharacterModel is recorded in character transcripts.
	CharacterModel string

	// ExportDir receives exports written without an explicit path.
	ExportDir string

	registry *Registry
}

// Result tells the front-end what to do after a command.
type Result struct {
	// Output is shown to the user as a system notice.
	Output string

	// Fill replaces the input line, e.g. with recognized speech.
	Fill string

	// Submit is sent as a user turn.
	Submit string

	// Quit ends the program.
	Quit bool

	// Cleared is set when the conversation was reset.
	Cleared bool
}

var errNoJargonSession = errors.New("no jargon session")

func (env *Context) jargon() (*session.JargonSession, error) {
	if env.Jargon == nil {
		return nil, errNoJargonSession
	}
	return env.Jargon, nil
}

func (env *Context) capabilities() capability.Set {
	if env.JargonBot == nil {
		return capability.NoOp()
	}
	return env.JargonBot.Capabilities
}

// =============================================================================
// NAVIGATION
// =============================================================================

var categoryOrder = []string{"Navigation", "Conversation", "Model", "Settings", "Capabilities"}

func handleHelp(_ context.Context, env *Context, args []string, _ string) (Result, error) {
	reg := env.registry
	if len(args) > 0 {
		name := strings.ToLower(args[0])
		if !strings.HasPrefix(name, "/") {
			name = "/" + name
		}
		cmd := reg.Get(name)
		if cmd == nil {
			return Result{}, fmt.Errorf("unknown command %s", name)
		}
		usage := cmd.Usage
		if usage == "" {
			usage = cmd.Name
		}
		out := usage + "\n  " + cmd.Description
		if len(cmd.Aliases) > 0 {
			out += "\n  aliases: " + strings.Join(cmd.Aliases, ", ")
		}
		return Result{Output: out}, nil
	}

	groups := reg.ByCategory()
	var sb strings.Builder
	sb.WriteString("Commands:")
	for _, category := range categoryOrder {
		cmds := groups[category]
		if len(cmds) == 0 {
			continue
		}
		sb.WriteString("\n\n" + category)
		for _, cmd := range cmds {
			usage := cmd.Usage
			if usage == "" {
				usage = cmd.Name
			}
			sb.WriteString(fmt.Sprintf("\n  %-26s %s", usage, cmd.Description))
		}
	}
	return Result{Output: sb.String()}, nil
}

func handleQuit(context.Context, *Context, []string, string) (Result, error) {
	return Result{Quit: true}, nil
}

// =============================================================================
// CONVERSATION
// =============================================================================

func handleClear(_ context.Context, env *Context, _ []string, _ string) (Result, error) {
	switch {
	case env.Jargon != nil:
		env.Jargon.Reset()
	case env.Character != nil:
		env.Character.Reset()
	default:
		return Result{}, errors.New("no active session")
	}
	return Result{Output: "Conversation cleared.", Cleared: true}, nil
}

func handleStatus(_ context.Context, env *Context, _ []string, _ string) (Result, error) {
	var sb strings.Builder

	if env.Character != nil {
		p, ok := env.Character.ActivePersona()
		name := "none (default assistant)"
		if ok {
			name = p.Title()
		}
		sb.WriteString(fmt.Sprintf("Persona:  %s\n", name))
		sb.WriteString(fmt.Sprintf("Messages: %d\n", env.Character.History.Len()))
		sb.WriteString(fmt.Sprintf("Started:  %s", env.Character.StartedAt.Format(session.StartedAtLayout)))
		return Result{Output: sb.String()}, nil
	}

	sess, err := env.jargon()
	if err != nil {
		return Result{}, err
	}
	set := sess.Settings()
	stats := sess.Stats()
	sb.WriteString(fmt.Sprintf("Model:    %s\n", set.Model))
	sb.WriteString(fmt.Sprintf("Language: %s\n", capability.LanguageName(set.Language)))
	sb.WriteString(fmt.Sprintf("Thinking: %s\n", onOff(set.ThinkingVisible)))
	sb.WriteString(fmt.Sprintf("TTS:      %s\n", onOff(set.SpeakAnswers)))
	sb.WriteString(fmt.Sprintf("Messages: %d\n", stats.Messages))
	sb.WriteString(fmt.Sprintf("Started:  %s\n", stats.StartedAt))
	if sum, ok := sess.DocumentSummary(); ok {
		sb.WriteString(fmt.Sprintf("Document: %s (%s)\n", sum.Name, sum.Loaded()))
	}
	sb.WriteString("Capabilities:")
	for _, b := range env.capabilities().Status() {
		mark := "✗"
		if b.Active {
			mark = "✓"
		}
		sb.WriteString(fmt.Sprintf(" %s %s", mark, b.Name))
	}
	return Result{Output: sb.String()}, nil
}

func handleExport(_ context.Context, env *Context, args []string, _ string) (Result, error) {
	var t *export.Transcript
	switch {
	case env.Jargon != nil:
		t = export.FromJargon(env.Jargon)
	case env.Character != nil:
		t = export.FromCharacter(env.Character, env.CharacterModel)
	default:
		return Result{}, errors.New("no active session")
	}

	path := ""
	format := "markdown"
	if len(args) > 0 {
		path = args[0]
		format = export.FormatFromPath(path)
	}

	opts := export.DefaultOptions()
	if env.ExportDir != "" {
		opts.OutputDir = env.ExportDir
	}
	exp, err := export.ForFormat(format, opts)
	if err != nil {
		return Result{}, err
	}
	written, err := export.ExportToFile(t, exp, path, opts)
	if err != nil {
		return Result{}, err
	}
	return Result{Output: "Exported to " + written}, nil
}

func handleQuick(_ context.Context, _ *Context, args []string, _ string) (Result, error) {
	if len(args) == 0 {
		var sb strings.Builder
		sb.WriteString("Quick prompts:")
		for i, p := range prompt.Quick {
			sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, p))
		}
		return Result{Output: sb.String()}, nil
	}
	n, _ := strconv.Atoi(args[0])
	p, ok := prompt.QuickPrompt(n)
	if !ok {
		return Result{}, fmt.Errorf("no quick prompt %s", args[0])
	}
	return Result{Submit: p}, nil
}

func handlePersona(_ context.Context, env *Context, _ []string, raw string) (Result, error) {
	if env.Character == nil {
		return Result{}, errors.New("no character session")
	}

	raw = strings.Trim(raw, `"' `)
	if raw == "" {
		active, ok := env.Character.ActivePersona()
		var sb strings.Builder
		sb.WriteString("Personas:")
		for _, p := range persona.All() {
			mark := " "
			if ok && active.Key == p.Key {
				mark = "*"
			}
			sb.WriteString(fmt.Sprintf("\n %s %s", mark, p.Title()))
		}
		sb.WriteString("\n\nMention a persona in a message, or use /persona <name>.")
		return Result{Output: sb.String()}, nil
	}

	p, ok := persona.Lookup(raw)
	if !ok {
		return Result{}, fmt.Errorf("unknown persona %q (one of: %s)", raw, strings.Join(persona.Names(), ", "))
	}
	env.Character.SwitchPersona(p)
	return Result{Output: persona.Confirmation(p), Cleared: true}, nil
}

// =============================================================================
// MODEL
// =============================================================================

func handleModels(ctx context.Context, env *Context, _ []string, _ string) (Result, error) {
	if env.Models == nil {
		return Result{}, errors.New("no model backend configured")
	}
	models, err := env.Models.ListModels(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list models: %w", err)
	}
	if len(models) == 0 {
		return Result{Output: "No models installed. Pull one with: ollama pull " + session.DefaultModel}, nil
	}

	current := ""
	if env.Jargon != nil {
		current = env.Jargon.Settings().Model
	}

	var sb strings.Builder
	sb.WriteString("Installed models:")
	for _, m := range models {
		mark := " "
		if m.ID() == current {
			mark = "*"
		}
		sb.WriteString(fmt.Sprintf("\n %s %-32s %s", mark, m.ID(), m.FormatSize()))
	}
	return Result{Output: sb.String()}, nil
}

func handleModel(_ context.Context, env *Context, args []string, _ string) (Result, error) {
	sess, err := env.jargon()
	if err != nil {
		return Result{}, err
	}
	set := sess.Settings()
	if len(args) == 0 {
		return Result{Output: "Model: " + set.Model}, nil
	}
	set.Model = args[0]
	sess.ApplySettings(set)
	return Result{Output: "Model set to " + set.Model}, nil
}

// =============================================================================
// SETTINGS
// =============================================================================

func handleLang(_ context.Context, env *Context, _ []string, raw string) (Result, error) {
	sess, err := env.jargon()
	if err != nil {
		return Result{}, err
	}
	code, err := capability.ParseLanguage(strings.Trim(raw, `"' `))
	if err != nil {
		return Result{}, err
	}
	set := sess.Settings()
	set.Language = code
	sess.ApplySettings(set)

	out := fmt.Sprintf("Answer language: %s (%s)", capability.LanguageName(code), code)
	if code != capability.DefaultLanguage && !env.capabilities().Has("Translate") {
		out += "\nTranslation is disabled; answers stay in English."
	}
	return Result{Output: out}, nil
}

func handleThink(_ context.Context, env *Context, _ []string, _ string) (Result, error) {
	sess, err := env.jargon()
	if err != nil {
		return Result{}, err
	}
	set := sess.Settings()
	set.ThinkingVisible = !set.ThinkingVisible
	sess.ApplySettings(set)
	return Result{Output: "Thinking display " + onOff(set.ThinkingVisible)}, nil
}

func handleTTS(_ context.Context, env *Context, _ []string, _ string) (Result, error) {
	sess, err := env.jargon()
	if err != nil {
		return Result{}, err
	}
	set := sess.Settings()
	set.SpeakAnswers = !set.SpeakAnswers
	sess.ApplySettings(set)

	out := "Read answers aloud " + onOff(set.SpeakAnswers)
	if set.SpeakAnswers && !env.capabilities().Has("TTS") {
		out += " (no speech engine configured)"
	}
	return Result{Output: out}, nil
}

// =============================================================================
// CAPABILITIES
// =============================================================================

func handlePDF(ctx context.Context, env *Context, args []string, _ string) (Result, error) {
	sess, err := env.jargon()
	if err != nil {
		return Result{}, err
	}
	if env.JargonBot == nil {
		return Result{}, bot.ErrDocumentsDisabled
	}

	f, err := os.Open(args[0])
	if err != nil {
		return Result{}, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return Result{}, fmt.Errorf("stat document: %w", err)
	}

	sum, err := env.JargonBot.LoadDocument(ctx, sess, args[0], f, info.Size())
	if err != nil {
		return Result{}, err
	}
	return Result{Output: fmt.Sprintf("%s: %s\n\n%s", sum.Name, sum.Loaded(), sum.Preview)}, nil
}

func handleClearPDF(_ context.Context, env *Context, _ []string, _ string) (Result, error) {
	sess, err := env.jargon()
	if err != nil {
		return Result{}, err
	}
	sess.ClearDocument()
	return Result{Output: "Document cleared."}, nil
}

func handleVoice(ctx context.Context, env *Context, _ []string, _ string) (Result, error) {
	if env.JargonBot == nil || !env.capabilities().Has("Voice I/O") {
		return Result{}, errors.New("voice input is not configured; enable [capabilities.speech] in the config file")
	}
	text := env.JargonBot.Listen(ctx)
	if text == "" {
		return Result{Output: "No speech recognized."}, nil
	}
	return Result{Fill: text}, nil
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
