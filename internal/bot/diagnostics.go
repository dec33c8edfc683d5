// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bot

import (
	"github.com/jeranaias/gemmabots/internal/ollama"
)

// =============================================================================
// DIAGNOSTICS
// =============================================================================

// Fixed replies shown in place of a character bot answer.
const (
	DiagnosticStatus     = "⚠️ Error: Could not get response from Gemma."
	DiagnosticNotRunning = "⚠️ Ollama server not running. Start it using: ollama run gemma:3b"
	DiagnosticUnexpected = "⚠️ Unexpected error occurred."
)

// CharacterDiagnostic maps a backend error to its fixed reply.
func CharacterDiagnostic(err error) string {
	switch {
	case ollama.IsStatus(err):
		return DiagnosticStatus
	case ollama.IsNotRunning(err):
		return DiagnosticNotRunning
	default:
		return DiagnosticUnexpected
	}
}

// JargonDiagnostic is the reply streamed in place of a jargon bot answer.
func JargonDiagnostic(err error) string {
	return "⚠ Ollama error: " + err.Error() + "\n\nMake sure `ollama serve` is running and model is pulled."
}
