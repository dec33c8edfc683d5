// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const (
	// DefaultTerminalWidth is the fallback width when detection fails
	DefaultTerminalWidth = 80

	// MinTerminalWidth is the minimum width used for wrapping
	MinTerminalWidth = 40
)

// Terminal is the pair of streams a front-end talks to.
type Terminal struct {
	In  *os.File
	Out *os.File
}

// stdio is the process terminal.
var stdio = Terminal{In: os.Stdin, Out: os.Stdout}

func isTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// Interactive reports whether the full-screen interface can run: both
// streams must be terminals.
func (t Terminal) Interactive() bool {
	return isTerminal(t.In) && isTerminal(t.Out)
}

// Styled reports whether output is a terminal that renders markdown.
func (t Terminal) Styled() bool {
	return isTerminal(t.Out)
}

// Width returns the output width clamped to MinTerminalWidth, or
// DefaultTerminalWidth when it cannot be determined.
func (t Terminal) Width() int {
	if t.Out == nil {
		return DefaultTerminalWidth
	}
	width, _, err := term.GetSize(int(t.Out.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	return max(width, MinTerminalWidth)
}

// ColorProfile returns the profile styled output uses. NO_COLOR disables
// colors and FORCE_COLOR enables them; otherwise the output must be a
// terminal. See https://no-color.org/.
func (t Terminal) ColorProfile() termenv.Profile {
	switch {
	case os.Getenv("NO_COLOR") != "":
		return termenv.Ascii
	case os.Getenv("FORCE_COLOR") != "":
		return termenv.ANSI256
	case !isTerminal(t.Out):
		return termenv.Ascii
	}
	return termenv.NewOutput(t.Out).ColorProfile()
}
