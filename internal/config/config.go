// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for gemmabots.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/gemmabots/internal/capability"
	"github.com/jeranaias/gemmabots/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete gemmabots configuration.
type Config struct {
	Ollama       OllamaConfig       `toml:"ollama" json:"ollama"`
	Character    CharacterConfig    `toml:"character" json:"character"`
	Jargon       JargonConfig       `toml:"jargon" json:"jargon"`
	Capabilities CapabilitiesConfig `toml:"capabilities" json:"capabilities"`
	Server       ServerConfig       `toml:"server" json:"server"`
	Log          LogConfig          `toml:"log" json:"log"`
}

// OllamaConfig locates the inference backend.
type OllamaConfig struct {
	URL string `toml:"url" json:"url"`

	// TimeoutSecs bounds blocking requests and the wait for stream headers.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
}

// CharacterConfig configures the character bot.
type CharacterConfig struct {
	Model string `toml:"model" json:"model"`
}

// JargonConfig holds the settings new jargon sessions start with.
type JargonConfig struct {
	Model           string `toml:"model" json:"model"`
	Language        string `toml:"language" json:"language"`
	ThinkingVisible bool   `toml:"thinking_visible" json:"thinking_visible"`
	SpeakAnswers    bool   `toml:"speak_answers" json:"speak_answers"`
}

// CapabilitiesConfig enables the jargon bot's optional enrichments.
type CapabilitiesConfig struct {
	PDF       PDFConfig       `toml:"pdf" json:"pdf"`
	Speech    SpeechConfig    `toml:"speech" json:"speech"`
	TTS       TTSConfig       `toml:"tts" json:"tts"`
	Translate TranslateConfig `toml:"translate" json:"translate"`
}

// PDFConfig configures document extraction.
type PDFConfig struct {
	Enabled bool `toml:"enabled" json:"enabled"`

	// MaxPages stops extraction early; 0 reads every page.
	MaxPages int `toml:"max_pages" json:"max_pages"`
}

// SpeechConfig configures speech-to-text through external programs.
type SpeechConfig struct {
	Enabled           bool     `toml:"enabled" json:"enabled"`
	RecordCommand     []string `toml:"record_command" json:"record_command"`
	TranscribeCommand []string `toml:"transcribe_command" json:"transcribe_command"`
	ListenSecs        int      `toml:"listen_secs" json:"listen_secs"`
}

// TTSConfig configures text-to-speech through an external program.
type TTSConfig struct {
	Enabled bool     `toml:"enabled" json:"enabled"`
	Command []string `toml:"command" json:"command"`
	Rate    int      `toml:"rate" json:"rate"`
}

// TranslateConfig configures the translation endpoint.
type TranslateConfig struct {
	Enabled           bool    `toml:"enabled" json:"enabled"`
	URL               string  `toml:"url" json:"url"`
	TimeoutSecs       int     `toml:"timeout_secs" json:"timeout_secs"`
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second"`
}

// ServerConfig configures the web surface.
type ServerConfig struct {
	Listen          string `toml:"listen" json:"listen"`
	SessionIdleMins int    `toml:"session_idle_mins" json:"session_idle_mins"`

	// TurnsPerMinute limits turns per session; 0 disables the limit.
	TurnsPerMinute int `toml:"turns_per_minute" json:"turns_per_minute"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level" json:"level"`

	// File is the JSON log file; empty uses ~/.gemmabots/gemmabots.log,
	// "-" disables file logging.
	File string `toml:"file" json:"file"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

const (
	DefaultModel          = "gemma3:latest"
	DefaultOllamaURL      = "http://localhost:11434"
	DefaultTimeoutSecs    = 60
	DefaultListen         = "127.0.0.1:8080"
	DefaultIdleMins       = 30
	DefaultTurnsPerMinute = 20
	DefaultLogLevel       = "info"
)

// Default returns a new Config with sensible default values.
func Default() *Config {
	return &Config{
		Ollama: OllamaConfig{
			URL:         DefaultOllamaURL,
			TimeoutSecs: DefaultTimeoutSecs,
		},
		Character: CharacterConfig{
			Model: DefaultModel,
		},
		Jargon: JargonConfig{
			Model:           DefaultModel,
			Language:        capability.DefaultLanguage,
			ThinkingVisible: true,
			SpeakAnswers:    false,
		},
		Capabilities: CapabilitiesConfig{
			PDF: PDFConfig{Enabled: true},
			Speech: SpeechConfig{
				Enabled:           false,
				RecordCommand:     append([]string(nil), capability.DefaultRecordCommand...),
				TranscribeCommand: append([]string(nil), capability.DefaultTranscribeCommand...),
				ListenSecs:        int(capability.DefaultListenWindow / time.Second),
			},
			TTS: TTSConfig{
				Enabled: false,
				Command: append([]string(nil), capability.DefaultSpeakCommand...),
				Rate:    capability.DefaultSpeechRate,
			},
			Translate: TranslateConfig{
				Enabled:           true,
				URL:               capability.DefaultTranslateURL,
				TimeoutSecs:       10,
				RequestsPerSecond: 2,
			},
		},
		Server: ServerConfig{
			Listen:          DefaultListen,
			SessionIdleMins: DefaultIdleMins,
			TurnsPerMinute:  DefaultTurnsPerMinute,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// OllamaTimeout returns the backend timeout as a duration.
func (c *Config) OllamaTimeout() time.Duration {
	return time.Duration(c.Ollama.TimeoutSecs) * time.Second
}

// SessionIdleTimeout returns the web session idle timeout.
func (c *Config) SessionIdleTimeout() time.Duration {
	return time.Duration(c.Server.SessionIdleMins) * time.Minute
}

// =============================================================================
// FILE LOCATIONS
// =============================================================================

// File names inside ConfigDir, in load order.
const (
	fileTOML = "config.toml"
	fileJSON = "config.json"
	fileLog  = "gemmabots.log"
)

// dirOverride redirects ConfigDir, for tests.
var dirOverride string

// ConfigDir returns ~/.gemmabots.
func ConfigDir() (string, error) {
	if dirOverride != "" {
		return dirOverride, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, ".gemmabots"), nil
}

// candidates lists the config files Load considers, TOML first.
func candidates() ([]string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	return []string{filepath.Join(dir, fileTOML), filepath.Join(dir, fileJSON)}, nil
}

// Path returns the config file in effect: the first candidate that exists,
// or the TOML path when there is none yet.
func Path() (string, error) {
	paths, err := candidates()
	if err != nil {
		return "", err
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return paths[0], nil
}

// LogPath returns the resolved log file path, or "" when file logging is off.
func (c *Config) LogPath() (string, error) {
	switch c.Log.File {
	case "-":
		return "", nil
	case "":
		dir, err := ConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, fileLog), nil
	default:
		return c.Log.File, nil
	}
}

// EnsureConfigDir creates ConfigDir if needed.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// =============================================================================
// LOADING
// =============================================================================

// LoadDotEnv loads .env from the working directory and the config
// directory. Variables already set in the environment win.
func LoadDotEnv() {
	files := []string{".env"}
	if dir, err := ConfigDir(); err == nil {
		files = append(files, filepath.Join(dir, ".env"))
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not load %s: %v\n", f, err)
		}
	}
}

// Load builds the effective configuration: defaults, then the first config
// file that parses, then .env and GEMMABOTS_* overrides.
//
// A file that exists but does not parse is skipped. Its error is returned
// alongside a usable config so callers can warn and carry on. A nil config
// means even the defaults failed validation.
func Load() (*Config, error) {
	LoadDotEnv()

	paths, err := candidates()
	if err != nil {
		paths = nil
	}

	var fileErr error
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		cfg, err := LoadFromPath(p)
		if err == nil {
			return cfg, nil
		}
		fileErr = err
	}

	cfg := Default()
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, fileErr
}

// ReadFile decodes one config file over the defaults, without environment
// overrides. The format follows the extension; anything but .json is TOML.
func ReadFile(path string) (*Config, error) {
	cfg := Default()
	if filepath.Ext(path) == ".json" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromPath reads path and applies overrides, defaults and validation.
// Keys missing from the file keep their defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// finish applies the environment, fills gaps and validates.
func (c *Config) finish() error {
	c.ApplyEnvOverrides()
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SetDefaults fills zero values left by a partial file.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Ollama.URL == "" {
		c.Ollama.URL = d.Ollama.URL
	}
	if c.Ollama.TimeoutSecs == 0 {
		c.Ollama.TimeoutSecs = d.Ollama.TimeoutSecs
	}
	if c.Character.Model == "" {
		c.Character.Model = d.Character.Model
	}
	if c.Jargon.Model == "" {
		c.Jargon.Model = d.Jargon.Model
	}
	if c.Jargon.Language == "" {
		c.Jargon.Language = d.Jargon.Language
	}

	speech := &c.Capabilities.Speech
	if len(speech.RecordCommand) == 0 {
		speech.RecordCommand = d.Capabilities.Speech.RecordCommand
	}
	if len(speech.TranscribeCommand) == 0 {
		speech.TranscribeCommand = d.Capabilities.Speech.TranscribeCommand
	}
	if speech.ListenSecs == 0 {
		speech.ListenSecs = d.Capabilities.Speech.ListenSecs
	}
	if len(c.Capabilities.TTS.Command) == 0 {
		c.Capabilities.TTS.Command = d.Capabilities.TTS.Command
	}
	if c.Capabilities.TTS.Rate == 0 {
		c.Capabilities.TTS.Rate = d.Capabilities.TTS.Rate
	}
	tr := &c.Capabilities.Translate
	if tr.URL == "" {
		tr.URL = d.Capabilities.Translate.URL
	}
	if tr.TimeoutSecs == 0 {
		tr.TimeoutSecs = d.Capabilities.Translate.TimeoutSecs
	}
	if tr.RequestsPerSecond == 0 {
		tr.RequestsPerSecond = d.Capabilities.Translate.RequestsPerSecond
	}

	if c.Server.Listen == "" {
		c.Server.Listen = d.Server.Listen
	}
	if c.Server.SessionIdleMins == 0 {
		c.Server.SessionIdleMins = d.Server.SessionIdleMins
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// =============================================================================
// SAVING
// =============================================================================

const fileHeader = `# gemmabots configuration file
#
# Environment overrides: GEMMABOTS_OLLAMA_URL, GEMMABOTS_MODEL,
# GEMMABOTS_CHARACTER_MODEL, GEMMABOTS_LANG, GEMMABOTS_LISTEN, GEMMABOTS_LOG_LEVEL

`

// WriteFile saves cfg to path with 0600 permissions, as JSON when the
// extension is .json and as commented TOML otherwise.
func WriteFile(cfg *Config, path string) error {
	var data []byte
	if filepath.Ext(path) == ".json" {
		b, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		data = append(b, '\n')
	} else {
		var b strings.Builder
		b.WriteString(fileHeader)
		if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		data = []byte(b.String())
	}

	if err := util.AtomicWriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate validates the configuration and returns any errors. A valid
// jargon.language is rewritten to its canonical code.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg})
	}

	if u, err := url.Parse(c.Ollama.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("ollama.url", fmt.Sprintf("must be an http(s) URL, got %q", c.Ollama.URL))
	}
	if c.Ollama.TimeoutSecs < 1 || c.Ollama.TimeoutSecs > 3600 {
		add("ollama.timeout_secs", "must be between 1 and 3600")
	}

	if strings.TrimSpace(c.Character.Model) == "" {
		add("character.model", "must not be empty")
	}
	if strings.TrimSpace(c.Jargon.Model) == "" {
		add("jargon.model", "must not be empty")
	}
	if code, err := capability.ParseLanguage(c.Jargon.Language); err != nil {
		add("jargon.language", err.Error())
	} else {
		c.Jargon.Language = code
	}

	if c.Capabilities.PDF.MaxPages < 0 {
		add("capabilities.pdf.max_pages", "must not be negative")
	}
	if sp := c.Capabilities.Speech; sp.Enabled {
		if len(sp.RecordCommand) == 0 {
			add("capabilities.speech.record_command", "must not be empty when speech is enabled")
		}
		if len(sp.TranscribeCommand) == 0 {
			add("capabilities.speech.transcribe_command", "must not be empty when speech is enabled")
		}
		if sp.ListenSecs < 1 || sp.ListenSecs > 60 {
			add("capabilities.speech.listen_secs", "must be between 1 and 60")
		}
	}
	if tts := c.Capabilities.TTS; tts.Enabled && len(tts.Command) == 0 {
		add("capabilities.tts.command", "must not be empty when tts is enabled")
	}
	if tr := c.Capabilities.Translate; tr.Enabled {
		if u, err := url.Parse(tr.URL); err != nil || u.Host == "" {
			add("capabilities.translate.url", fmt.Sprintf("invalid URL %q", tr.URL))
		}
		if tr.RequestsPerSecond <= 0 {
			add("capabilities.translate.requests_per_second", "must be positive")
		}
	}

	if _, _, err := net.SplitHostPort(c.Server.Listen); err != nil {
		add("server.listen", fmt.Sprintf("must be host:port, got %q", c.Server.Listen))
	}
	if c.Server.SessionIdleMins < 1 {
		add("server.session_idle_mins", "must be at least 1")
	}
	if c.Server.TurnsPerMinute < 0 {
		add("server.turns_per_minute", "must not be negative")
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		add("log.level", fmt.Sprintf("must be one of debug, info, warn, error; got %q", c.Log.Level))
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - GEMMABOTS_OLLAMA_URL: overrides ollama.url
//   - GEMMABOTS_MODEL: overrides jargon.model
//   - GEMMABOTS_CHARACTER_MODEL: overrides character.model
//   - GEMMABOTS_LANG: overrides jargon.language
//   - GEMMABOTS_LISTEN: overrides server.listen
//   - GEMMABOTS_LOG_LEVEL: overrides log.level
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("GEMMABOTS_OLLAMA_URL"); v != "" {
		c.Ollama.URL = v
	}
	if v := os.Getenv("GEMMABOTS_MODEL"); v != "" {
		c.Jargon.Model = v
	}
	if v := os.Getenv("GEMMABOTS_CHARACTER_MODEL"); v != "" {
		c.Character.Model = v
	}
	if v := os.Getenv("GEMMABOTS_LANG"); v != "" {
		c.Jargon.Language = v
	}
	if v := os.Getenv("GEMMABOTS_LISTEN"); v != "" {
		c.Server.Listen = v
	}
	if v := os.Getenv("GEMMABOTS_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a value by its dotted TOML key (e.g. "jargon.language").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set assigns a value by its dotted TOML key. String values are converted
// to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

// lookup walks the struct by toml tag names.
func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		if v.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i], "."))
		}
		field, ok := fieldByTag(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return v, nil
}

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := strings.Split(t.Field(i).Tag.Get("toml"), ",")[0]
		if strings.EqualFold(tag, name) {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			boolVal, err := strconv.ParseBool(strVal)
			if err != nil {
				return fmt.Errorf("invalid boolean value: %v", err)
			}
			field.SetBool(boolVal)
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				field.Set(reflect.ValueOf(strings.Fields(strVal)))
				return nil
			}
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return errors.New("cannot assign nil")
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// Keys returns every settable key in dot notation, in declaration order.
func Keys() []string {
	var keys []string
	var walk func(t reflect.Type, prefix string)
	walk = func(t reflect.Type, prefix string) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			name := prefix + strings.Split(f.Tag.Get("toml"), ",")[0]
			if f.Type.Kind() == reflect.Struct {
				walk(f.Type, name+".")
				continue
			}
			keys = append(keys, name)
		}
	}
	walk(reflect.TypeOf(Config{}), "")
	return keys
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	caps := &clone.Capabilities
	caps.Speech.RecordCommand = append([]string(nil), c.Capabilities.Speech.RecordCommand...)
	caps.Speech.TranscribeCommand = append([]string(nil), c.Capabilities.Speech.TranscribeCommand...)
	caps.TTS.Command = append([]string(nil), c.Capabilities.TTS.Command...)
	return &clone
}

// String returns the configuration as TOML.
func (c *Config) String() string {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return b.String()
}
