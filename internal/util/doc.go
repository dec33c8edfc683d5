// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small text and file helpers shared by the bots and
// their front-ends.
//
// # Key Functions
//
// Text:
//   - ClipRunes: rune-safe head truncation with a trailing ellipsis
//   - TailRunes: keeps the last n runes of a growing buffer
//   - TruncateWidth: display-width aware truncation (CJK, emoji)
//   - WordCount: whitespace separated word count
//
// Files:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	preview := util.ClipRunes(document, 500)
//	live := util.TailRunes(thinking, 600)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
