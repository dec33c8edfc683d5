// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package thinking separates a model's reasoning from its final answer.
package thinking

import (
	"strings"

	"github.com/jeranaias/gemmabots/internal/util"
)

// =============================================================================
// MARKERS
// =============================================================================

const (
	// OpenMarker starts the reasoning segment.
	OpenMarker = "<think>"

	// CloseMarker ends the reasoning segment.
	CloseMarker = "</think>"
)

const (
	// ClipLimit bounds the reasoning shown on a stored message.
	ClipLimit = 1200

	// LiveTailLimit bounds the reasoning shown while a response streams.
	LiveTailLimit = 600
)

// =============================================================================
// SPLIT
// =============================================================================

// Segments is the result of splitting a response.
type Segments struct {
	Think  string `json:"think"`
	Answer string `json:"answer"`
}

// HasThink reports whether a non-empty reasoning segment was found.
func (s Segments) HasThink() bool {
	return s.Think != ""
}

// Split divides text into reasoning and answer.
//
// Only the first OpenMarker and the first CloseMarker are considered. When
// both are present, Think is the trimmed text between them and Answer is the
// trimmed text after the close marker. Otherwise Think is empty and Answer is
// text unchanged. Markers that appear inside quoted content are not treated
// specially.
func Split(text string) Segments {
	open := strings.Index(text, OpenMarker)
	closeAt := strings.Index(text, CloseMarker)
	if open < 0 || closeAt < 0 {
		return Segments{Answer: text}
	}

	var think string
	if start := open + len(OpenMarker); start <= closeAt {
		think = strings.TrimSpace(text[start:closeAt])
	}

	return Segments{
		Think:  think,
		Answer: strings.TrimSpace(text[closeAt+len(CloseMarker):]),
	}
}

// =============================================================================
// DISPLAY HELPERS
// =============================================================================

// Clip keeps the first limit runes of think, appending an ellipsis when cut.
func Clip(think string, limit int) string {
	return util.ClipRunes(think, limit)
}

// Tail keeps the most recent limit runes of think.
func Tail(think string, limit int) string {
	return util.TailRunes(think, limit)
}
