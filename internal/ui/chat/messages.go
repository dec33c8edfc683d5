// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/jeranaias/gemmabots/internal/bot"
	"github.com/jeranaias/gemmabots/internal/commands"
	"github.com/jeranaias/gemmabots/internal/model"
	"github.com/jeranaias/gemmabots/internal/ollama"
)

// =============================================================================
// TURN MESSAGES
// =============================================================================

// TurnStartedMsg carries an opened jargon turn.
type TurnStartedMsg struct {
	Turn *bot.Turn
}

// DeltaMsg delivers one increment of the running jargon turn.
type DeltaMsg struct {
	Delta bot.Delta
}

// TurnDoneMsg signals that the jargon turn was finished and recorded.
type TurnDoneMsg struct {
	Message *model.Message
	Failed  bool
	Stats   ollama.Chunk
	Elapsed time.Duration
}

// CharacterReplyMsg carries the outcome of a character turn.
type CharacterReplyMsg struct {
	Reply   bot.CharacterReply
	Elapsed time.Duration
}

// =============================================================================
// COMMAND MESSAGES
// =============================================================================

// CommandResultMsg carries the outcome of a slash command.
type CommandResultMsg struct {
	Input  string
	Result commands.Result
	Err    error
}

// ModelsMsg delivers the installed model names for completion.
type ModelsMsg struct {
	Names []string
	Err   error
}
