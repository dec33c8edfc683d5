// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the gemmabots command line.
//
// # Commands
//
//	gemmabots character [--plain] [--model NAME]
//	gemmabots jargon    [--plain] [--model NAME] [--lang LANG] [--pdf FILE] [--no-think] [--tts]
//	gemmabots serve     [--listen ADDR]
//	gemmabots models
//	gemmabots config show|init|path|get|set
//	gemmabots doctor
//	gemmabots version
//
// The bot commands open the full-screen interface when stdin and stdout are
// terminals, and a line-oriented REPL otherwise or with --plain. Both
// front-ends share the slash commands of package commands.
//
// # Configuration
//
// Every command loads ~/.gemmabots/config.toml (or config.json), .env files
// and GEMMABOTS_* variables once, in the root command's PersistentPreRunE.
// Flags override the loaded values for the current run only.
package cli
