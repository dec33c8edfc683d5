// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package persona holds the character bot's persona table and router.
package persona

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// =============================================================================
// PERSONA TABLE
// =============================================================================

// DefaultInstruction conditions the model when no persona is active.
const DefaultInstruction = "You are a helpful AI assistant."

// Persona is a named instruction template.
type Persona struct {
	// Key is the lowercase name matched against user text.
	Key string `json:"key"`

	// Instruction is placed at the top of every prompt.
	Instruction string `json:"instruction"`
}

// table is in definition order. Detect scans it front to back.
var table = []Persona{
	{
		Key: "iron man",
		Instruction: `
You are Iron Man (Tony Stark).
Witty, sarcastic, genius, confident.
Use clever humor and charismatic tone.
`,
	},
	{
		Key: "naruto",
		Instruction: `
You are Naruto Uzumaki.
Energetic, optimistic, loud, determined.
Talk about becoming Hokage!
`,
	},
	{
		Key: "sherlock",
		Instruction: `
You are Sherlock Holmes.
Highly analytical, logical, observant.
Speak intelligently and deduce things.
`,
	},
}

var titleCaser = cases.Title(language.English)

// Title returns the display name, e.g. "Iron Man".
func (p Persona) Title() string {
	return titleCaser.String(p.Key)
}

// All returns the persona table in definition order.
func All() []Persona {
	out := make([]Persona, len(table))
	copy(out, table)
	return out
}

// Lookup finds a persona by key, ignoring case and surrounding space.
func Lookup(key string) (Persona, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, p := range table {
		if p.Key == key {
			return p, true
		}
	}
	return Persona{}, false
}

// Names returns the display names in definition order.
func Names() []string {
	names := make([]string, len(table))
	for i, p := range table {
		names[i] = p.Title()
	}
	return names
}

// =============================================================================
// DETECTION
// =============================================================================

// Detect returns the first persona, in definition order, whose key occurs
// in text (case-insensitive).
func Detect(text string) (Persona, bool) {
	lower := strings.ToLower(text)
	for _, p := range table {
		if strings.Contains(lower, p.Key) {
			return p, true
		}
	}
	return Persona{}, false
}

// Confirmation is the notice shown after a persona switch.
func Confirmation(p Persona) string {
	return "Switched to " + p.Title() + " mode 🎭"
}

// Instruction returns the instruction for an optional persona, falling back
// to DefaultInstruction.
func Instruction(p *Persona) string {
	if p == nil {
		return DefaultInstruction
	}
	return p.Instruction
}

// =============================================================================
// ROUTER
// =============================================================================

// Router decides whether a message switches persona. It holds no state; the
// session applies the switch.
type Router struct {
	detect func(string) (Persona, bool)
}

// NewRouter creates a router over the fixed table.
func NewRouter() *Router {
	return &Router{detect: Detect}
}

// Route reports whether text selects a persona and which one.
func (r *Router) Route(text string) (Persona, bool) {
	return r.detect(text)
}
