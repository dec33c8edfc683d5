// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package capability provides the jargon bot's optional enrichments:
// document text extraction, speech-to-text, text-to-speech and translation.
//
// Each enrichment is an interface with a real implementation and a no-op
// stand-in. The Set is assembled once at startup from configuration and
// injected into the bot; nothing probes the system at call time.
//
// The interfaces return errors. The Set methods are the boundary: they log
// the error and degrade to a fixed fallback (a diagnostic string, an empty
// string, or the unchanged input). Nothing retries and nothing is cached.
//
// # Key Types
//
//   - Set: the assembled capabilities plus fallback handling
//   - DocumentExtractor, Recognizer, Speaker, Translator: the interfaces
//   - PDFExtractor, CommandRecognizer, CommandSpeaker, HTTPTranslator: real
//     implementations
//   - Language: an output language offered to the user
//
// # Usage
//
//	caps := capability.NoOp()
//	caps.Translator = capability.NewHTTPTranslator(capability.TranslatorConfig{})
//	text := caps.Localize(ctx, answer, "ta")
package capability
