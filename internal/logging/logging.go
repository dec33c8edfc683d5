// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the process logger: readable text on the console
// and JSON lines in the log file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

// ParseLevel converts debug, info, warn or error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(s)))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

// Setup creates a logger that fans out to console and, when logFile is
// non-empty, to a JSON file. A nil console discards console output, which
// the TUI needs while it owns the screen. The returned cleanup closes the
// file.
func Setup(level slog.Level, logFile string, console io.Writer) (*slog.Logger, func() error) {
	if console == nil {
		console = io.Discard
	}
	consoleHandler := slog.NewTextHandler(console, &slog.HandlerOptions{Level: level})
	noop := func() error { return nil }

	if logFile == "" {
		return slog.New(consoleHandler), noop
	}

	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		logger := slog.New(consoleHandler)
		logger.Error("failed to create log directory, file logging disabled", "error", err, "file", logFile)
		return logger, noop
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		// Fall back to console-only if the file cannot be opened
		logger := slog.New(consoleHandler)
		logger.Error("failed to open log file, file logging disabled", "error", err, "file", logFile)
		return logger, noop
	}

	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	logger := slog.New(slogmulti.Fanout(consoleHandler, fileHandler))
	return logger, file.Close
}

// SetupWithWriters creates the same fan-out over arbitrary writers, for tests.
func SetupWithWriters(console, file io.Writer, level slog.Level) *slog.Logger {
	consoleHandler := slog.NewTextHandler(console, &slog.HandlerOptions{Level: level})
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return slog.New(slogmulti.Fanout(consoleHandler, fileHandler))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
