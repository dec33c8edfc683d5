// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/gemmabots/internal/bot"
	"github.com/jeranaias/gemmabots/internal/commands"
	"github.com/jeranaias/gemmabots/internal/session"
)

// =============================================================================
// TURN COMMANDS
// =============================================================================

// beginTurnCmd records the user message and opens the jargon stream.
func beginTurnCmd(ctx context.Context, b *bot.JargonBot, sess *session.JargonSession, text string) tea.Cmd {
	return func() tea.Msg {
		return TurnStartedMsg{Turn: b.Begin(ctx, sess, text)}
	}
}

// nextDeltaCmd pulls one increment. When the stream is exhausted it
// finishes the turn, which records the reply and speaks the answer.
func nextDeltaCmd(turn *bot.Turn) tea.Cmd {
	return func() tea.Msg {
		if d, ok := turn.Next(); ok {
			return DeltaMsg{Delta: d}
		}
		msg := turn.Finish()
		return TurnDoneMsg{
			Message: msg,
			Failed:  turn.Failed(),
			Stats:   turn.Stats(),
			Elapsed: turn.Elapsed(),
		}
	}
}

// characterTurnCmd runs one blocking character turn.
func characterTurnCmd(ctx context.Context, b *bot.CharacterBot, sess *session.CharacterSession, text string) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		reply := b.Turn(ctx, sess, text)
		return CharacterReplyMsg{Reply: reply, Elapsed: time.Since(start)}
	}
}

// =============================================================================
// COMMAND COMMANDS
// =============================================================================

// runCommandCmd executes a slash command.
func runCommandCmd(ctx context.Context, r *commands.Registry, env *commands.Context, input string) tea.Cmd {
	return func() tea.Msg {
		res, err := r.Execute(ctx, env, input)
		return CommandResultMsg{Input: input, Result: res, Err: err}
	}
}

// listModelsCmd fetches the installed model names.
func listModelsCmd(ctx context.Context, lister commands.ModelLister) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		models, err := lister.ListModels(ctx)
		if err != nil {
			return ModelsMsg{Err: err}
		}
		names := make([]string, 0, len(models))
		for _, m := range models {
			names = append(names, m.ID())
		}
		return ModelsMsg{Names: names}
	}
}
