// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jeranaias/gemmabots/internal/capability"
	"github.com/jeranaias/gemmabots/internal/model"
	"github.com/jeranaias/gemmabots/internal/ollama"
	"github.com/jeranaias/gemmabots/internal/prompt"
	"github.com/jeranaias/gemmabots/internal/session"
	"github.com/jeranaias/gemmabots/internal/thinking"
)

// =============================================================================
// JARGON BOT
// =============================================================================

// Streamer opens a streaming chat. *ollama.Client implements it.
type Streamer interface {
	ChatStream(ctx context.Context, model string, messages []ollama.Message) (*ollama.Stream, error)
}

// JargonBot answers under the reasoning protocol with optional document
// context, translation and speech.
type JargonBot struct {
	Backend      Streamer
	Capabilities capability.Set
	Instruction  string
	Log          *slog.Logger
}

// NewJargonBot creates a bot with the standard system instruction.
func NewJargonBot(backend Streamer, caps capability.Set, log *slog.Logger) *JargonBot {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if caps.Log == nil {
		caps.Log = log
	}
	return &JargonBot{
		Backend:      backend,
		Capabilities: caps,
		Instruction:  prompt.JargonSystem,
		Log:          log,
	}
}

// Delta is one increment of a streamed reply.
type Delta struct {
	Fragment   string            `json:"fragment"`
	Cumulative string            `json:"cumulative"`
	Segments   thinking.Segments `json:"segments"`

	// Failed marks the single diagnostic delta of a failed turn.
	Failed bool `json:"failed,omitempty"`
}

// Begin records the user message and opens the stream. It returns nil for
// blank text. The returned Turn must be finished.
func (b *JargonBot) Begin(ctx context.Context, sess *session.JargonSession, text string) *Turn {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	settings := sess.Settings()
	modelPrompt := text
	if settings.Language != capability.DefaultLanguage {
		modelPrompt = b.Capabilities.Normalize(ctx, text)
	}

	prior := sess.History.Messages()

	user := model.NewUserMessage(text)
	user.Answer = text
	sess.History.Append(user)
	sess.CountMessage()

	instruction := b.Instruction
	if instruction == "" {
		instruction = prompt.JargonSystem
	}
	_, document := sess.LoadedDocument()
	messages := prompt.Jargon(instruction, document, prior, modelPrompt)

	modelName := settings.Model
	if modelName == "" {
		modelName = session.DefaultModel
	}

	t := &Turn{
		bot:      b,
		ctx:      ctx,
		sess:     sess,
		settings: settings,
		started:  time.Now(),
	}

	b.Log.Debug("jargon turn started",
		"session", sess.ID,
		"model", modelName,
		"history", len(messages)-2,
		"document", document != "")

	t.stream, t.openErr = b.Backend.ChatStream(ctx, modelName, messages)
	return t
}

// Run performs a whole turn, calling onDelta for every increment.
func (b *JargonBot) Run(ctx context.Context, sess *session.JargonSession, text string, onDelta func(Delta)) *model.Message {
	turn := b.Begin(ctx, sess, text)
	if turn == nil {
		return nil
	}
	for {
		d, ok := turn.Next()
		if !ok {
			break
		}
		if onDelta != nil {
			onDelta(d)
		}
	}
	return turn.Finish()
}

// =============================================================================
// TURN
// =============================================================================

// Turn is a pull-based streamed reply. It is consumed by one goroutine.
type Turn struct {
	bot      *JargonBot
	ctx      context.Context
	sess     *session.JargonSession
	settings session.Settings
	started  time.Time

	stream  *ollama.Stream
	openErr error

	content strings.Builder
	failed  bool
	done    bool
	final   ollama.Chunk

	finished *model.Message
}

// Next blocks for the next increment. It returns false once the reply is
// complete. A backend failure produces one last delta carrying the
// diagnostic as both fragment and cumulative text.
func (t *Turn) Next() (Delta, bool) {
	if t.done {
		return Delta{}, false
	}
	if t.openErr != nil {
		return t.fail(t.openErr), true
	}

	for {
		chunk, err := t.stream.Next()
		if errors.Is(err, io.EOF) {
			t.complete()
			return Delta{}, false
		}
		if err != nil {
			return t.fail(err), true
		}
		if chunk.Done {
			t.final = chunk
		}
		if chunk.Content == "" {
			continue
		}

		t.content.WriteString(chunk.Content)
		cumulative := t.content.String()
		return Delta{
			Fragment:   chunk.Content,
			Cumulative: cumulative,
			Segments:   thinking.Split(cumulative),
		}, true
	}
}

func (t *Turn) fail(err error) Delta {
	t.bot.Log.Warn("jargon stream failed", "session", t.sess.ID, "error", err)
	diag := JargonDiagnostic(err)
	t.content.Reset()
	t.content.WriteString(diag)
	t.failed = true
	t.complete()
	return Delta{
		Fragment:   diag,
		Cumulative: diag,
		Segments:   thinking.Split(diag),
		Failed:     true,
	}
}

func (t *Turn) complete() {
	t.done = true
	if t.stream != nil {
		t.stream.Close()
	}
}

// Content returns the reply text received so far.
func (t *Turn) Content() string {
	return t.content.String()
}

// Failed reports whether the backend failed.
func (t *Turn) Failed() bool {
	return t.failed
}

// Stats returns the final backend chunk, which carries token counts and
// durations when the backend reported them.
func (t *Turn) Stats() ollama.Chunk {
	return t.final
}

// Elapsed returns the time since Begin.
func (t *Turn) Elapsed() time.Duration {
	return time.Since(t.started)
}

// Finish drains any remaining increments and records the reply: the final
// split, the localized answer, one assistant message, the counters and the
// spoken answer. Calling it again returns the same message.
func (t *Turn) Finish() *model.Message {
	if t.finished != nil {
		return t.finished
	}
	for !t.done {
		t.Next()
	}

	raw := t.content.String()
	seg := thinking.Split(raw)
	answer := seg.Answer
	if t.settings.Language != capability.DefaultLanguage {
		answer = t.bot.Capabilities.Localize(t.ctx, answer, t.settings.Language)
	}

	msg := model.NewAssistantMessage(raw, seg.Think, answer)
	t.sess.History.Append(msg)
	t.sess.RecordReply(seg.Think, answer)
	t.sess.CountMessage()
	t.finished = msg

	t.bot.Log.Info("jargon turn complete",
		"session", t.sess.ID,
		"failed", t.failed,
		"duration", time.Since(t.started),
		"tokens", t.final.CompletionTokens)

	if t.settings.SpeakAnswers && answer != "" {
		t.bot.Capabilities.Speak(t.ctx, answer)
	}
	return msg
}
