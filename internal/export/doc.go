// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes conversation transcripts to disk on request.
//
// # Key Types
//
//   - Transcript: a snapshot of one session's history and metadata
//   - Exporter: renders a Transcript (Markdown, JSON, YAML)
//   - Options: output directory and rendering toggles
//
// # Usage
//
//	t := export.FromJargon(sess)
//	exp, err := export.ForFormat("markdown", nil)
//	path, err := export.ExportToFile(t, exp, "", nil)
//
// Nothing is written unless a front-end asks for it.
package export
