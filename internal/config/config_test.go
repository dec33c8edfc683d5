// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withConfigDir points ConfigDir at a temp directory for one test.
func withConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dirOverride = dir
	t.Cleanup(func() { dirOverride = "" })
	return dir
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GEMMABOTS_OLLAMA_URL", "GEMMABOTS_MODEL", "GEMMABOTS_CHARACTER_MODEL",
		"GEMMABOTS_LANG", "GEMMABOTS_LISTEN", "GEMMABOTS_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
}

// =============================================================================
// DEFAULTS
// =============================================================================

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "http://localhost:11434", cfg.Ollama.URL)
	assert.Equal(t, 60*time.Second, cfg.OllamaTimeout())
	assert.Equal(t, "gemma3:latest", cfg.Character.Model)
	assert.Equal(t, "gemma3:latest", cfg.Jargon.Model)
	assert.Equal(t, "en", cfg.Jargon.Language)
	assert.True(t, cfg.Jargon.ThinkingVisible)
	assert.False(t, cfg.Jargon.SpeakAnswers)
	assert.True(t, cfg.Capabilities.PDF.Enabled)
	assert.False(t, cfg.Capabilities.Speech.Enabled)
	assert.False(t, cfg.Capabilities.TTS.Enabled)
	assert.Equal(t, 165, cfg.Capabilities.TTS.Rate)
	assert.Equal(t, 5, cfg.Capabilities.Speech.ListenSecs)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout())
	assert.NoError(t, cfg.Validate())
}

func TestDefault_CommandsAreCopies(t *testing.T) {
	a := Default()
	a.Capabilities.TTS.Command[0] = "say"
	assert.Equal(t, "espeak", Default().Capabilities.TTS.Command[0])
}

// =============================================================================
// LOADING
// =============================================================================

func TestLoad_NoFilesUsesDefaults(t *testing.T) {
	withConfigDir(t)
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().Jargon, cfg.Jargon)
}

func TestLoad_TOMLPartialKeepsDefaults(t *testing.T) {
	dir := withConfigDir(t)
	clearEnv(t)
	writeFile(t, filepath.Join(dir, "config.toml"), `
[jargon]
model = "qwen3:8b"
language = "Tamil"
thinking_visible = true

[server]
listen = "0.0.0.0:9000"
`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "qwen3:8b", cfg.Jargon.Model)
	assert.Equal(t, "ta", cfg.Jargon.Language, "language names are canonicalized")
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Listen)
	assert.Equal(t, DefaultOllamaURL, cfg.Ollama.URL)
	assert.Equal(t, DefaultModel, cfg.Character.Model)
}

func TestLoad_JSONFallback(t *testing.T) {
	dir := withConfigDir(t)
	clearEnv(t)
	writeFile(t, filepath.Join(dir, "config.json"), `{"character":{"model":"llama3.2"}}`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "llama3.2", cfg.Character.Model)
}

func TestLoad_BrokenFileReturnsDefaultsAndError(t *testing.T) {
	dir := withConfigDir(t)
	clearEnv(t)
	writeFile(t, filepath.Join(dir, "config.toml"), "[ollama\nurl=")

	cfg, err := Load()
	require.Error(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, DefaultOllamaURL, cfg.Ollama.URL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	withConfigDir(t)
	clearEnv(t)
	t.Setenv("GEMMABOTS_OLLAMA_URL", "http://gpu-box:11434")
	t.Setenv("GEMMABOTS_MODEL", "gemma3:27b")
	t.Setenv("GEMMABOTS_CHARACTER_MODEL", "gemma3:4b")
	t.Setenv("GEMMABOTS_LANG", "de")
	t.Setenv("GEMMABOTS_LISTEN", ":9090")
	t.Setenv("GEMMABOTS_LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://gpu-box:11434", cfg.Ollama.URL)
	assert.Equal(t, "gemma3:27b", cfg.Jargon.Model)
	assert.Equal(t, "gemma3:4b", cfg.Character.Model)
	assert.Equal(t, "de", cfg.Jargon.Language)
	assert.Equal(t, ":9090", cfg.Server.Listen)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadDotEnv_DoesNotOverrideEnvironment(t *testing.T) {
	dir := withConfigDir(t)
	clearEnv(t)
	writeFile(t, filepath.Join(dir, ".env"), "GEMMABOTS_MODEL=from-dotenv\nGEMMABOTS_LISTEN=:7000\n")
	t.Setenv("GEMMABOTS_MODEL", "from-env")
	os.Unsetenv("GEMMABOTS_LISTEN")

	LoadDotEnv()

	assert.Equal(t, "from-env", os.Getenv("GEMMABOTS_MODEL"))
	assert.Equal(t, ":7000", os.Getenv("GEMMABOTS_LISTEN"))
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad url", func(c *Config) { c.Ollama.URL = "localhost:11434" }, "ollama.url"},
		{"zero timeout", func(c *Config) { c.Ollama.TimeoutSecs = 0 }, "ollama.timeout_secs"},
		{"empty character model", func(c *Config) { c.Character.Model = " " }, "character.model"},
		{"unknown language", func(c *Config) { c.Jargon.Language = "Klingon" }, "jargon.language"},
		{"speech without command", func(c *Config) {
			c.Capabilities.Speech.Enabled = true
			c.Capabilities.Speech.RecordCommand = nil
		}, "capabilities.speech.record_command"},
		{"tts without command", func(c *Config) {
			c.Capabilities.TTS.Enabled = true
			c.Capabilities.TTS.Command = nil
		}, "capabilities.tts.command"},
		{"bad listen", func(c *Config) { c.Server.Listen = "8080" }, "server.listen"},
		{"negative rate limit", func(c *Config) { c.Server.TurnsPerMinute = -1 }, "server.turns_per_minute"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs))
			require.Len(t, verrs, 1)
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

func TestValidateErrors_Error(t *testing.T) {
	errs := ValidateErrors{
		{Field: "a", Message: "bad"},
		{Field: "b", Message: "worse"},
	}
	assert.Equal(t, "a: bad; b: worse", errs.Error())
	assert.Equal(t, "no validation errors", ValidateErrors{}.Error())
}

// =============================================================================
// SAVE / LOG PATH
// =============================================================================

func TestWriteFile_TOMLRoundTrip(t *testing.T) {
	dir := withConfigDir(t)
	clearEnv(t)

	cfg := Default()
	cfg.Jargon.Model = "phi4"
	cfg.Capabilities.TTS.Enabled = true
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, WriteFile(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "phi4", loaded.Jargon.Model)
	assert.True(t, loaded.Capabilities.TTS.Enabled)
	assert.Equal(t, cfg.Capabilities.Speech.RecordCommand, loaded.Capabilities.Speech.RecordCommand)
}

func TestLogPath(t *testing.T) {
	dir := withConfigDir(t)
	cfg := Default()

	p, err := cfg.LogPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "gemmabots.log"), p)

	cfg.Log.File = "-"
	p, err = cfg.LogPath()
	require.NoError(t, err)
	assert.Empty(t, p)

	cfg.Log.File = "/var/log/bots.log"
	p, _ = cfg.LogPath()
	assert.Equal(t, "/var/log/bots.log", p)
}

// =============================================================================
// GET / SET
// =============================================================================

func TestGetSet(t *testing.T) {
	cfg := Default()

	v, err := cfg.Get("jargon.language")
	require.NoError(t, err)
	assert.Equal(t, "en", v)

	require.NoError(t, cfg.Set("jargon.thinking_visible", "false"))
	assert.False(t, cfg.Jargon.ThinkingVisible)

	require.NoError(t, cfg.Set("capabilities.tts.rate", "200"))
	assert.Equal(t, 200, cfg.Capabilities.TTS.Rate)

	require.NoError(t, cfg.Set("capabilities.tts.command", "say -r {rate} {text}"))
	assert.Equal(t, []string{"say", "-r", "{rate}", "{text}"}, cfg.Capabilities.TTS.Command)

	assert.Error(t, cfg.Set("jargon.nope", "x"))
	assert.Error(t, cfg.Set("jargon.model.deeper", "x"))
	assert.Error(t, cfg.Set("server.turns_per_minute", "many"))
	_, err = cfg.Get("")
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	keys := Keys()
	assert.Contains(t, keys, "ollama.url")
	assert.Contains(t, keys, "capabilities.translate.requests_per_second")
	assert.Contains(t, keys, "log.file")
	assert.NotContains(t, keys, "capabilities")

	cfg := Default()
	for _, k := range keys {
		_, err := cfg.Get(k)
		assert.NoError(t, err, k)
	}
}

func TestClone_IsDeep(t *testing.T) {
	cfg := Default()
	clone := cfg.Clone()
	clone.Capabilities.Speech.RecordCommand[0] = "sox"
	assert.Equal(t, "arecord", cfg.Capabilities.Speech.RecordCommand[0])
}

// =============================================================================
// PATH
// =============================================================================

func TestPath(t *testing.T) {
	dir := withConfigDir(t)

	path, err := Path()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), path, "TOML when nothing exists")

	writeFile(t, filepath.Join(dir, "config.json"), `{}`)
	path, err = Path()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.json"), path)

	writeFile(t, filepath.Join(dir, "config.toml"), "")
	path, err = Path()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), path, "TOML wins")
}

func TestWriteFile_JSON(t *testing.T) {
	dir := withConfigDir(t)
	clearEnv(t)

	cfg := Default()
	cfg.Character.Model = "llama3.2"
	path := filepath.Join(dir, "config.json")
	require.NoError(t, WriteFile(cfg, path))

	raw, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "llama3.2", raw.Character.Model)
}

func TestReadFile_IgnoresEnvironment(t *testing.T) {
	dir := withConfigDir(t)
	clearEnv(t)
	t.Setenv("GEMMABOTS_MODEL", "from-env")
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, "[jargon]\nmodel = \"from-file\"\n")

	raw, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", raw.Jargon.Model)

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", loaded.Jargon.Model)
}

// =============================================================================
// WATCH
// =============================================================================

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := withConfigDir(t)
	clearEnv(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, WriteFile(Default(), path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, log, func(c *Config) { changes <- c })
	}()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)

	cfg := Default()
	cfg.Jargon.Model = "reloaded"
	require.NoError(t, WriteFile(cfg, filepath.Join(dir, "ignored.json")))
	require.NoError(t, os.WriteFile(path, []byte("[jargon]\nmodel = \"reloaded\"\n"), 0600))

	select {
	case c := <-changes:
		assert.Equal(t, "reloaded", c.Jargon.Model)
	case <-time.After(3 * time.Second):
		t.Fatal("no reload observed")
	}

	cancel()
	assert.NoError(t, <-done)
}
