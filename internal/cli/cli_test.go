// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/gemmabots/internal/bot"
	"github.com/jeranaias/gemmabots/internal/capability"
	"github.com/jeranaias/gemmabots/internal/commands"
	"github.com/jeranaias/gemmabots/internal/config"
	"github.com/jeranaias/gemmabots/internal/logging"
	"github.com/jeranaias/gemmabots/internal/ollama"
	"github.com/jeranaias/gemmabots/internal/prompt"
	"github.com/jeranaias/gemmabots/internal/session"
	"github.com/jeranaias/gemmabots/internal/thinking"
)

// =============================================================================
// HELPERS
// =============================================================================

// scriptReader feeds fixed lines and then reports end of input.
type scriptReader struct {
	lines       []string
	suggestions []string
	history     []string
}

func (r *scriptReader) Prompt(string) (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *scriptReader) PromptWithSuggestion(p, text string, _ int) (string, error) {
	r.suggestions = append(r.suggestions, text)
	return r.Prompt(p)
}

func (r *scriptReader) AppendHistory(item string) {
	r.history = append(r.history, item)
}

// ndjson renders chat chunks the way /api/chat streams them.
func ndjson(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		line, _ := json.Marshal(map[string]any{
			"model":   "gemma3:latest",
			"message": map[string]string{"role": "assistant", "content": p},
			"done":    false,
		})
		b.Write(line)
		b.WriteByte('\n')
	}
	b.WriteString(`{"model":"gemma3:latest","message":{"role":"assistant","content":""},"done":true,"eval_count":7,"eval_duration":1000000000}` + "\n")
	return b.String()
}

// fakeOllama serves /api/chat, /api/generate and /api/tags.
func fakeOllama(t *testing.T, chat string, generate string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/chat":
			w.Header().Set("Content-Type", "application/x-ndjson")
			io.WriteString(w, chat)
		case "/api/generate":
			json.NewEncoder(w).Encode(map[string]any{"model": "gemma3:latest", "response": generate, "done": true})
		case "/api/tags":
			io.WriteString(w, `{"models":[{"name":"gemma3:latest","size":3338801804},{"name":"qwen3:8b","size":5225388164}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func jargonREPL(t *testing.T, baseURL string, visible bool, lines ...string) (*REPL, *bytes.Buffer, *scriptReader) {
	t.Helper()
	client := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: baseURL})
	jb := bot.NewJargonBot(client, capability.NoOp(), nil)
	sess := session.NewJargonSession()
	sess.ApplySettings(session.Settings{Model: "gemma3:latest", Language: capability.DefaultLanguage, ThinkingVisible: visible})

	out := &bytes.Buffer{}
	in := &scriptReader{lines: lines}
	return &REPL{
		In:       in,
		Out:      out,
		Mode:     commands.ModeJargon,
		Registry: commands.NewRegistry(commands.ModeJargon),
		Env:      &commands.Context{Jargon: sess, JargonBot: jb},

		Jargon:        jb,
		JargonSession: sess,
		Log:           logging.Discard(),
	}, out, in
}

func characterREPL(t *testing.T, baseURL string, lines ...string) (*REPL, *bytes.Buffer) {
	t.Helper()
	client := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: baseURL})
	cb := bot.NewCharacterBot(client, nil)
	sess := session.NewCharacterSession()

	out := &bytes.Buffer{}
	return &REPL{
		In:       &scriptReader{lines: lines},
		Out:      out,
		Mode:     commands.ModeCharacter,
		Registry: commands.NewRegistry(commands.ModeCharacter),
		Env:      &commands.Context{Character: sess},

		Character:        cb,
		CharacterSession: sess,
		Log:              logging.Discard(),
	}, out
}

// execute runs the root command with args against a fresh home directory.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func tempHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	return home
}

// =============================================================================
// LIVE OUTPUT
// =============================================================================

func deltas(parts ...string) []bot.Delta {
	var out []bot.Delta
	var cum string
	for _, p := range parts {
		cum += p
		out = append(out, bot.Delta{Fragment: p, Cumulative: cum, Segments: thinking.Split(cum)})
	}
	return out
}

func TestLiveWriter(t *testing.T) {
	stream := deltas("<th", "ink>\n", "weigh ", "options", "</think>", "\nQuantum ", "Entangled Eigenstate Superposition")

	tests := []struct {
		name      string
		showThink bool
		want      []string
		wantNot   []string
	}{
		{
			name:      "reasoning visible",
			showThink: true,
			want:      []string{"weigh", "options", "Quantum", "Entangled Eigenstate Superposition"},
			wantNot:   []string{"<think>", "</think>", "<th"},
		},
		{
			name:      "reasoning hidden",
			showThink: false,
			want:      []string{"Quantum", "Entangled Eigenstate Superposition"},
			wantNot:   []string{"weigh", "<think>", "</think>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			w := &liveWriter{out: out, showThink: tt.showThink}
			for _, d := range stream {
				w.write(d)
			}
			for _, s := range tt.want {
				assert.Contains(t, out.String(), s)
			}
			for _, s := range tt.wantNot {
				assert.NotContains(t, out.String(), s)
			}
		})
	}
}

func TestLiveWriter_NoMarkers(t *testing.T) {
	out := &bytes.Buffer{}
	w := &liveWriter{out: out, showThink: true}
	for _, d := range deltas("Plain ", "Answer ", "Four Words") {
		w.write(d)
	}
	assert.Contains(t, out.String(), "Plain")
	assert.Contains(t, out.String(), "Four Words")
	assert.Equal(t, len("Plain Answer Four Words"), w.answer)
}

func TestLiveWriter_Failed(t *testing.T) {
	out := &bytes.Buffer{}
	w := &liveWriter{out: out}
	w.write(bot.Delta{Cumulative: "⚠ Ollama error: down", Failed: true})
	assert.Contains(t, out.String(), "Ollama error")
}

// =============================================================================
// REPL
// =============================================================================

func TestREPL_JargonTurn(t *testing.T) {
	srv := fakeOllama(t, ndjson("<think>", "deduce", "</think>", " Bayesian Posterior Inference Converged"), "")
	r, out, in := jargonREPL(t, srv.URL, true, "probability?")

	require.NoError(t, r.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "JargonBot")
	assert.Contains(t, text, "deduce")
	assert.Contains(t, text, "Bayesian Posterior Inference Converged")
	assert.Contains(t, text, "7 tokens")
	assert.Equal(t, []string{"probability?"}, in.history)

	msgs := r.JargonSession.History.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "deduce", msgs[1].Think)
	assert.Equal(t, "Bayesian Posterior Inference Converged", msgs[1].Answer)
}

func TestREPL_JargonTurn_HiddenThinking(t *testing.T) {
	srv := fakeOllama(t, ndjson("<think>", "deduce", "</think>", "Four Jargon Words Here"), "")
	r, out, _ := jargonREPL(t, srv.URL, false, "hi")

	require.NoError(t, r.Run(context.Background()))
	assert.NotContains(t, out.String(), "deduce")
	assert.Contains(t, out.String(), "Four Jargon Words Here")
}

func TestREPL_JargonTurn_BackendDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	r, out, _ := jargonREPL(t, url, true, "hi")
	require.NoError(t, r.Run(context.Background()))

	assert.Contains(t, out.String(), "Ollama error")
	assert.NotContains(t, out.String(), "tokens")
	assert.Equal(t, 2, r.JargonSession.History.Len())
}

func TestREPL_QuickPromptSubmits(t *testing.T) {
	srv := fakeOllama(t, ndjson("Four Jargon Words Here"), "")
	r, out, _ := jargonREPL(t, srv.URL, true, "/quick 1")

	require.NoError(t, r.Run(context.Background()))

	assert.Contains(t, out.String(), "> "+prompt.Quick[0])
	msgs := r.JargonSession.History.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, prompt.Quick[0], msgs[0].Content)
}

func TestREPL_UnknownCommand(t *testing.T) {
	r, out, _ := jargonREPL(t, "http://127.0.0.1:1", true, "/nope")

	require.NoError(t, r.Run(context.Background()))
	assert.Contains(t, out.String(), "unknown command /nope")
	assert.Equal(t, 0, r.JargonSession.History.Len())
}

func TestREPL_QuitStopsReading(t *testing.T) {
	r, _, in := jargonREPL(t, "http://127.0.0.1:1", true, "/quit", "never read")

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, []string{"never read"}, in.lines)
}

func TestREPL_BlankLinesIgnored(t *testing.T) {
	r, _, in := jargonREPL(t, "http://127.0.0.1:1", true, "", "   ")

	require.NoError(t, r.Run(context.Background()))
	assert.Empty(t, in.history)
	assert.Equal(t, 0, r.JargonSession.History.Len())
}

func TestREPL_CharacterPersonaSwitch(t *testing.T) {
	srv := fakeOllama(t, "", "Elementary.")
	r, out := characterREPL(t, srv.URL, "hey sherlock, who did it?")

	require.NoError(t, r.Run(context.Background()))

	assert.Contains(t, out.String(), "Switched to Sherlock mode")
	assert.Contains(t, out.String(), "Elementary.")
	p, ok := r.CharacterSession.ActivePersona()
	require.True(t, ok)
	assert.Equal(t, "Sherlock", p.Title())
	assert.Equal(t, "Sherlock> ", r.prompt())
}

func TestREPL_CharacterBackendDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	r, out := characterREPL(t, url, "hello")
	require.NoError(t, r.Run(context.Background()))
	assert.Contains(t, out.String(), "⚠")
}

func TestREPL_MissingBot(t *testing.T) {
	out := &bytes.Buffer{}
	r := &REPL{Out: out, Mode: commands.ModeJargon, Registry: commands.NewRegistry(commands.ModeJargon)}
	r.turn(context.Background(), "hi")
	assert.Contains(t, out.String(), "not configured")
}

// =============================================================================
// CAPABILITIES
// =============================================================================

func TestBuildCapabilities(t *testing.T) {
	cfg := config.Default()
	caps := buildCapabilities(cfg, logging.Discard())
	assert.False(t, caps.Has("PDF"))
	assert.False(t, caps.Has("Translate"))
	assert.False(t, caps.Has("TTS"))

	cfg.Capabilities.PDF.Enabled = true
	cfg.Capabilities.Translate.Enabled = true
	cfg.Capabilities.TTS.Enabled = true
	cfg.Capabilities.TTS.Command = []string{"gemmabots-no-such-speaker", "{text}"}
	caps = buildCapabilities(cfg, logging.Discard())

	assert.True(t, caps.Has("PDF"))
	assert.True(t, caps.Has("Translate"))
	assert.False(t, caps.Has("TTS"), "missing program leaves speech output off")
}

// =============================================================================
// JARGON SETTINGS
// =============================================================================

func TestJargonSettings(t *testing.T) {
	t.Cleanup(func() {
		jargonModel, jargonLang, jargonNoThink, jargonTTS = "", "", false, false
	})

	cfg := config.Default()
	cfg.Jargon.ThinkingVisible = true

	set, err := jargonSettings(cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.Jargon.Model, set.Model)
	assert.True(t, set.ThinkingVisible)
	assert.False(t, set.SpeakAnswers)

	jargonModel = "qwen3:8b"
	jargonLang = "Spanish"
	jargonNoThink = true
	jargonTTS = true
	set, err = jargonSettings(cfg)
	require.NoError(t, err)
	assert.Equal(t, "qwen3:8b", set.Model)
	assert.Equal(t, "es", set.Language)
	assert.False(t, set.ThinkingVisible)
	assert.True(t, set.SpeakAnswers)

	jargonLang = "???"
	_, err = jargonSettings(cfg)
	assert.Error(t, err)
}

// =============================================================================
// COMMANDS
// =============================================================================

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "gemmabots "+Version)
}

func TestConfigInit(t *testing.T) {
	home := tempHome(t)
	t.Cleanup(func() { configForce = false })

	out, err := execute(t, "config", "init")
	require.NoError(t, err)
	path := filepath.Join(home, ".gemmabots", "config.toml")
	assert.Contains(t, out, path)
	assert.FileExists(t, path)

	_, err = execute(t, "config", "init")
	assert.ErrorContains(t, err, "already exists")

	_, err = execute(t, "config", "init", "--force")
	assert.NoError(t, err)
}

func TestConfigSetAndGet(t *testing.T) {
	home := tempHome(t)

	_, err := execute(t, "config", "set", "jargon.model", "qwen3:8b")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(home, ".gemmabots", "config.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "qwen3:8b")

	out, err := execute(t, "config", "get", "jargon.model")
	require.NoError(t, err)
	assert.Equal(t, "qwen3:8b\n", out)

	_, err = execute(t, "config", "set", "no.such.key", "x")
	assert.Error(t, err)
}

func TestConfigShow(t *testing.T) {
	tempHome(t)
	out, err := execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "[ollama]")
	assert.Contains(t, out, "[jargon]")
}

func TestModelsCommand(t *testing.T) {
	tempHome(t)
	srv := fakeOllama(t, "", "")
	t.Setenv("GEMMABOTS_OLLAMA_URL", srv.URL)

	out, err := execute(t, "models")
	require.NoError(t, err)
	assert.Contains(t, out, "gemma3:latest")
	assert.Contains(t, out, "qwen3:8b")
}

func TestRunChecks(t *testing.T) {
	tempHome(t)
	srv := fakeOllama(t, "", "")
	cfg := config.Default()
	cfg.Ollama.URL = srv.URL
	cfg.Character.Model = "gemma3:latest"
	cfg.Jargon.Model = "llama3:70b"

	results := runChecks(context.Background(), cfg, newClient(cfg))
	byName := map[string]CheckResult{}
	for _, r := range results {
		byName[r.Name] = r
	}

	assert.Equal(t, CheckWarn, byName["Config file"].Status)
	assert.Equal(t, CheckPass, byName["Ollama"].Status)
	assert.Equal(t, CheckPass, byName["Character model"].Status)
	assert.Equal(t, CheckFail, byName["Jargon model"].Status)
	assert.Equal(t, "Run: ollama pull llama3:70b", byName["Jargon model"].Fix)

	out := &bytes.Buffer{}
	printChecks(out, results)
	assert.Contains(t, out.String(), "[FAIL]")
	assert.Contains(t, out.String(), "ollama pull llama3:70b")
}

func TestRunChecks_OllamaDown(t *testing.T) {
	tempHome(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := config.Default()
	cfg.Ollama.URL = url
	results := runChecks(context.Background(), cfg, newClient(cfg))

	last := results[len(results)-1]
	assert.Equal(t, "Ollama", last.Name)
	assert.Equal(t, CheckFail, last.Status)
}

func TestTerminal_NotATerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()

	tt := Terminal{In: f, Out: f}
	assert.False(t, tt.Interactive())
	assert.False(t, tt.Styled())
	assert.Equal(t, DefaultTerminalWidth, tt.Width())

	t.Setenv("NO_COLOR", "")
	t.Setenv("FORCE_COLOR", "")
	assert.Equal(t, termenv.Ascii, tt.ColorProfile())

	t.Setenv("FORCE_COLOR", "1")
	assert.Equal(t, termenv.ANSI256, tt.ColorProfile())

	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, termenv.Ascii, tt.ColorProfile())
}
