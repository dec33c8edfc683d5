// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the full-screen terminal front-end for both bots.
//
// # Layout
//
//	header      bot name, persona or model and language
//	viewport    conversation (+ sidebar on the right, ctrl+b)
//	popup       slash command completions while typing "/..."
//	textarea    input; enter sends, alt+enter inserts a newline
//	status bar  spinner, last turn statistics, key hints
//
// # Turn Lifecycle
//
// Work never runs inside Update. A character turn is one tea.Cmd that
// calls CharacterBot.Turn and returns CharacterReplyMsg. A jargon turn is
// pulled one delta per command:
//
//	submit ──▶ beginTurnCmd ──▶ TurnStartedMsg
//	                                │
//	            ┌───────────────────┘
//	            ▼
//	       nextDeltaCmd ──▶ DeltaMsg ──▶ Update redraws, schedules nextDeltaCmd
//	            │
//	            └─▶ (stream done) Turn.Finish ──▶ TurnDoneMsg
//
// Slash commands run through the shared commands.Registry in a tea.Cmd and
// come back as CommandResultMsg.
//
// # Rendering
//
// Character replies are rendered as markdown with glamour. Jargon answers
// are bold; their reasoning is shown in a think box when thinking is
// visible: the last thinking.LiveTailLimit runes while streaming, the first
// thinking.ClipLimit runes once stored. Code fences in reasoning are
// highlighted with chroma.
package chat
