// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/gemmabots/internal/bot"
	"github.com/jeranaias/gemmabots/internal/commands"
)

// =============================================================================
// MESSAGE DISPATCH
// =============================================================================

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.ready = true
		m.dirty = true
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TurnStartedMsg:
		return m.handleTurnStarted(msg)

	case DeltaMsg:
		return m.handleDelta(msg)

	case TurnDoneMsg:
		return m.handleTurnDone(msg)

	case CharacterReplyMsg:
		return m.handleCharacterReply(msg)

	case CommandResultMsg:
		return m.handleCommandResult(msg)

	case ModelsMsg:
		if msg.Err != nil {
			m.log.Debug("model list unavailable", "error", msg.Err)
			return m, nil
		}
		m.models.set(msg.Names)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Sidebar):
		m.showSidebar = !m.showSidebar
		m.dirty = true
		return m, nil
	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.busy {
		return m, nil
	}

	if m.completion.Visible {
		switch {
		case key.Matches(msg, m.keys.Dismiss):
			m.completion.Clear()
			return m, nil
		case key.Matches(msg, m.keys.Complete):
			m.acceptCompletion()
			return m, nil
		case key.Matches(msg, m.keys.CompletePrev):
			m.completion.Prev()
			return m, nil
		case key.Matches(msg, m.keys.CompleteNext):
			m.completion.Next()
			return m, nil
		case key.Matches(msg, m.keys.Submit):
			if m.acceptCompletion() {
				return m, nil
			}
			return m.submit()
		}
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.Complete):
		m.refreshCompletions()
		if len(m.completion.Completions) == 1 {
			m.acceptCompletion()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.refreshCompletions()
	return m, cmd
}

// refreshCompletions recomputes the popup for the current input.
func (m *Model) refreshCompletions() {
	value := m.input.Value()
	if !commands.IsCommand(value) || strings.Contains(value, "\n") {
		m.completion.Clear()
		return
	}
	m.completion.Update(m.completer.Complete(value))
}

// acceptCompletion replaces the input with the selected candidate. It
// returns false when the input already equals it.
func (m *Model) acceptCompletion() bool {
	value := m.input.Value()
	lines := m.completer.Lines(value)
	sel := m.completion.Selected
	if sel < 0 || sel >= len(lines) {
		m.completion.Clear()
		return false
	}
	line := lines[sel]
	if line == value {
		m.completion.Clear()
		return false
	}
	m.input.SetValue(line)
	m.input.CursorEnd()
	m.refreshCompletions()
	return true
}

// =============================================================================
// SUBMISSION
// =============================================================================

func (m Model) submit() (Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	m.input.Reset()
	m.completion.Clear()

	if commands.IsCommand(text) {
		m.busy = true
		m.busyLabel = "Running " + commands.ExtractCommandName(text) + "..."
		return m, tea.Batch(runCommandCmd(m.ctx, m.registry, m.env, text), m.spinner.Tick)
	}
	return m.startTurn(text)
}

// startTurn sends text to the active bot.
func (m Model) startTurn(text string) (Model, tea.Cmd) {
	m.busy = true
	m.pending = text
	m.status = ""
	m.dirty = true

	if m.mode == commands.ModeCharacter {
		if m.character == nil || m.characterSess == nil {
			return m.failNoBot()
		}
		m.busyLabel = "Generating..."
		return m, tea.Batch(characterTurnCmd(m.ctx, m.character, m.characterSess, text), m.spinner.Tick)
	}

	if m.jargon == nil || m.jargonSess == nil {
		return m.failNoBot()
	}
	m.busyLabel = "Thinking..."
	return m, tea.Batch(beginTurnCmd(m.ctx, m.jargon, m.jargonSess, text), m.spinner.Tick)
}

func (m Model) failNoBot() (Model, tea.Cmd) {
	m.busy = false
	m.pending = ""
	m.addNote(noteError, "No bot is configured for "+string(m.mode)+" mode.")
	return m, nil
}

// =============================================================================
// TURN RESULTS
// =============================================================================

func (m Model) handleTurnStarted(msg TurnStartedMsg) (Model, tea.Cmd) {
	m.pending = ""
	m.dirty = true
	if msg.Turn == nil {
		m.busy = false
		return m, nil
	}
	m.turn = msg.Turn
	m.live = bot.Delta{}
	return m, nextDeltaCmd(msg.Turn)
}

func (m Model) handleDelta(msg DeltaMsg) (Model, tea.Cmd) {
	if m.turn == nil {
		return m, nil
	}
	m.live = msg.Delta
	m.dirty = true
	return m, nextDeltaCmd(m.turn)
}

func (m Model) handleTurnDone(msg TurnDoneMsg) (Model, tea.Cmd) {
	m.turn = nil
	m.live = bot.Delta{}
	m.busy = false
	m.dirty = true

	switch {
	case msg.Failed:
		m.status = "✗ turn failed · " + elapsed(msg.Elapsed)
	case msg.Stats.CompletionTokens > 0:
		m.status = fmt.Sprintf("%d tokens · %.1f tok/s · %s",
			msg.Stats.CompletionTokens, msg.Stats.TokensPerSecond(), elapsed(msg.Elapsed))
	default:
		m.status = "✓ " + elapsed(msg.Elapsed)
	}
	return m, nil
}

func (m Model) handleCharacterReply(msg CharacterReplyMsg) (Model, tea.Cmd) {
	m.busy = false
	m.pending = ""
	m.dirty = true

	if msg.Reply.Notice != "" {
		// History restarts on a persona switch.
		m.notes = []note{{at: 0, text: msg.Reply.Notice, kind: noteNotice}}
	}
	if msg.Reply.Failed {
		m.status = "✗ turn failed · " + elapsed(msg.Elapsed)
	} else if msg.Reply.Message != nil {
		m.status = "✓ " + elapsed(msg.Elapsed)
	}
	return m, nil
}

func (m Model) handleCommandResult(msg CommandResultMsg) (Model, tea.Cmd) {
	m.busy = false
	m.dirty = true

	if msg.Err != nil {
		m.addNote(noteError, msg.Err.Error())
		return m, nil
	}

	res := msg.Result
	if res.Quit {
		return m, tea.Quit
	}
	if res.Cleared {
		m.notes = nil
		m.status = ""
	}
	if res.Output != "" {
		m.addNote(noteInfo, res.Output)
	}
	if res.Fill != "" {
		m.input.SetValue(res.Fill)
		m.input.CursorEnd()
	}
	if res.Submit != "" {
		return m.startTurn(res.Submit)
	}
	return m, nil
}
