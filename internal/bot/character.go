// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bot

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jeranaias/gemmabots/internal/model"
	"github.com/jeranaias/gemmabots/internal/ollama"
	"github.com/jeranaias/gemmabots/internal/persona"
	"github.com/jeranaias/gemmabots/internal/prompt"
	"github.com/jeranaias/gemmabots/internal/session"
)

// =============================================================================
// CHARACTER BOT
// =============================================================================

const (
	// DefaultCharacterModel is the model the character bot prompts.
	DefaultCharacterModel = "gemma3:latest"

	// DefaultCharacterTimeout bounds one blocking generation.
	DefaultCharacterTimeout = 60 * time.Second
)

// Generator produces a blocking completion. *ollama.Client implements it.
type Generator interface {
	Generate(ctx context.Context, req ollama.GenerateRequest) (*ollama.GenerateResponse, error)
}

// CharacterBot answers in the voice of the session's persona.
type CharacterBot struct {
	Backend Generator
	Model   string
	Timeout time.Duration
	Router  *persona.Router
	Log     *slog.Logger
}

// NewCharacterBot creates a bot with the default model and timeout.
func NewCharacterBot(backend Generator, log *slog.Logger) *CharacterBot {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &CharacterBot{
		Backend: backend,
		Model:   DefaultCharacterModel,
		Timeout: DefaultCharacterTimeout,
		Router:  persona.NewRouter(),
		Log:     log,
	}
}

// CharacterReply is the outcome of one turn.
type CharacterReply struct {
	// Notice is the persona switch confirmation, empty when the persona
	// did not change.
	Notice string

	// Message is the assistant message appended to the history.
	Message *model.Message

	// Failed is set when Message holds a diagnostic.
	Failed bool
}

// Turn runs one blocking turn. Blank text is ignored and yields a zero
// reply.
func (b *CharacterBot) Turn(ctx context.Context, sess *session.CharacterSession, text string) CharacterReply {
	var reply CharacterReply
	if strings.TrimSpace(text) == "" {
		return reply
	}

	router := b.Router
	if router == nil {
		router = persona.NewRouter()
	}
	if p, ok := router.Route(text); ok {
		sess.SwitchPersona(p)
		reply.Notice = persona.Confirmation(p)
		b.Log.Info("persona switched", "session", sess.ID, "persona", p.Key)
	}

	sess.History.Append(model.NewUserMessage(text))
	final := prompt.Character(sess.Instruction(), sess.History.Messages())

	content, err := b.generate(ctx, final)
	if err != nil {
		b.Log.Warn("character generation failed", "session", sess.ID, "error", err)
		content = CharacterDiagnostic(err)
		reply.Failed = true
	}

	reply.Message = model.NewAssistantMessage(content, "", "")
	sess.History.Append(reply.Message)
	return reply
}

func (b *CharacterBot) generate(ctx context.Context, final string) (string, error) {
	timeout := b.Timeout
	if timeout <= 0 {
		timeout = DefaultCharacterTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	modelName := b.Model
	if modelName == "" {
		modelName = DefaultCharacterModel
	}

	start := time.Now()
	resp, err := b.Backend.Generate(ctx, ollama.GenerateRequest{
		Model:  modelName,
		Prompt: final,
	})
	if err != nil {
		return "", err
	}
	b.Log.Debug("character generation complete",
		"model", modelName,
		"duration", time.Since(start),
		"tokens", resp.EvalCount)
	return resp.Response, nil
}
