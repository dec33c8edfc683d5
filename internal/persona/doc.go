// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package persona holds the character bot's fixed persona table and the
// router that picks a persona from what the user types.
//
// Mentioning a persona name anywhere in a message ("hey sherlock, ...")
// selects it. Matching is a case-insensitive substring scan in table order;
// when a message names several personas the one defined first wins.
//
// # Key Types
//
//   - Persona: a named instruction template
//   - Router: detects persona mentions
//
// # Usage
//
//	if p, ok := persona.Detect(text); ok {
//	    fmt.Println(persona.Confirmation(p)) // Switched to Sherlock mode 🎭
//	}
package persona
