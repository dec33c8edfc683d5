// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package capability

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// COMMAND RUNNER
// =============================================================================

// Runner executes an external program and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs programs with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return out, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// expand substitutes {key} placeholders in every argument in a single pass.
// Substituted values are never scanned for further placeholders.
func expand(argv []string, vars map[string]string) []string {
	pairs := make([]string, 0, 2*len(vars))
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	r := strings.NewReplacer(pairs...)

	out := make([]string, len(argv))
	for i, arg := range argv {
		out[i] = r.Replace(arg)
	}
	return out
}

// Validate checks that the program of argv can be found on PATH.
func Validate(argv []string) error {
	if len(argv) == 0 {
		return errors.New("empty command")
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		return fmt.Errorf("command %q not found: %w", argv[0], err)
	}
	return nil
}

// =============================================================================
// SPEECH TO TEXT
// =============================================================================

const (
	// DefaultCalibration is the pause before capture starts.
	DefaultCalibration = 500 * time.Millisecond

	// DefaultListenWindow is the length of one capture.
	DefaultListenWindow = 5 * time.Second
)

// DefaultRecordCommand captures 16 kHz mono audio with ALSA.
var DefaultRecordCommand = []string{"arecord", "-q", "-f", "S16_LE", "-r", "16000", "-c", "1", "-d", "{seconds}", "{out}"}

// DefaultTranscribeCommand transcribes a WAV file with whisper.cpp.
var DefaultTranscribeCommand = []string{"whisper-cli", "-nt", "-np", "-f", "{in}"}

// CommandRecognizer records a fixed window with one program and transcribes
// it with another. Both block until done.
type CommandRecognizer struct {
	Record      []string // placeholders: {out} {seconds}
	Transcribe  []string // placeholders: {in}
	Calibration time.Duration
	Window      time.Duration
	Run         Runner
}

// NewCommandRecognizer creates a recognizer with the default timings.
func NewCommandRecognizer(record, transcribe []string) *CommandRecognizer {
	return &CommandRecognizer{
		Record:      record,
		Transcribe:  transcribe,
		Calibration: DefaultCalibration,
		Window:      DefaultListenWindow,
		Run:         ExecRunner,
	}
}

// Listen pauses for calibration, records one window and returns the
// transcript.
func (c *CommandRecognizer) Listen(ctx context.Context) (string, error) {
	if len(c.Record) == 0 || len(c.Transcribe) == 0 {
		return "", ErrUnavailable
	}
	run := c.Run
	if run == nil {
		run = ExecRunner
	}

	dir, err := os.MkdirTemp("", "gemmabots-voice-")
	if err != nil {
		return "", fmt.Errorf("create capture dir: %w", err)
	}
	defer os.RemoveAll(dir)
	wav := filepath.Join(dir, "capture.wav")

	time.Sleep(c.Calibration)

	seconds := strconv.Itoa(int(c.Window.Round(time.Second) / time.Second))
	record := expand(c.Record, map[string]string{"out": wav, "seconds": seconds})
	if _, err := run(ctx, record[0], record[1:]...); err != nil {
		return "", fmt.Errorf("record: %w", err)
	}

	transcribe := expand(c.Transcribe, map[string]string{"in": wav})
	out, err := run(ctx, transcribe[0], transcribe[1:]...)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// =============================================================================
// TEXT TO SPEECH
// =============================================================================

// DefaultSpeechRate is the speaking rate in words per minute.
const DefaultSpeechRate = 165

// DefaultSpeakCommand speaks with espeak. Text after "--" is never read
// as an option.
var DefaultSpeakCommand = []string{"espeak", "-s", "{rate}", "--", "{text}"}

// CommandSpeaker reads text aloud through an external program.
type CommandSpeaker struct {
	Command []string // placeholders: {text} {rate}
	Rate    int
	Run     Runner
}

// NewCommandSpeaker creates a speaker at DefaultSpeechRate.
func NewCommandSpeaker(command []string) *CommandSpeaker {
	return &CommandSpeaker{Command: command, Rate: DefaultSpeechRate, Run: ExecRunner}
}

// Speak blocks until the program exits.
func (c *CommandSpeaker) Speak(ctx context.Context, text string) error {
	if len(c.Command) == 0 {
		return ErrUnavailable
	}
	run := c.Run
	if run == nil {
		run = ExecRunner
	}
	rate := c.Rate
	if rate <= 0 {
		rate = DefaultSpeechRate
	}
	argv := expand(c.Command, map[string]string{"text": text, "rate": strconv.Itoa(rate)})
	_, err := run(ctx, argv[0], argv[1:]...)
	return err
}
