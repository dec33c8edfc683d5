// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prompt assembles what is sent to the model for a turn.
//
// The character bot sends one flattened text prompt over the whole
// conversation. The jargon bot sends a role-tagged message list: a system
// message (optionally carrying document context), a bounded tail of the
// history, then the new user prompt.
//
// # Key Functions
//
//   - Character: flattened "User:"/"Assistant:" transcript with a trailing cue
//   - Jargon: system + last HistoryLimit messages + user prompt
//   - TruncateDocument: caps document context at DocumentLimit characters
package prompt
