// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system shared by the TUI and
// the line-mode REPL.
//
// Commands act on the session of the running bot and return a Result that
// each front-end presents in its own way.
//
// # Key Types
//
//   - Registry: commands available to one bot
//   - Context: sessions, bots and backend a command acts on
//   - Result: text to show, input to fill, prompt to submit, quit flag
//   - Completer: tab completion for command names and arguments
//
// # Built-in Commands
//
//   - /help, /quit, /clear, /status, /models, /export
//   - jargon: /model, /lang, /think, /tts, /pdf, /clearpdf, /voice, /quick
//   - character: /persona
//
// # Usage
//
//	reg := commands.NewRegistry(commands.ModeJargon)
//	res, err := reg.Execute(ctx, env, "/lang tamil")
package commands
