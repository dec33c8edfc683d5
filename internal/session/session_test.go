// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/gemmabots/internal/model"
	"github.com/jeranaias/gemmabots/internal/persona"
)

// =============================================================================
// CHARACTER SESSION TESTS
// =============================================================================

func TestCharacterSession_Defaults(t *testing.T) {
	s := NewCharacterSession()

	assert.NotEmpty(t, s.ID)
	assert.Nil(t, s.Persona)
	assert.Equal(t, persona.DefaultInstruction, s.Instruction())
	assert.Equal(t, 0, s.History.Len())
}

func TestCharacterSession_SwitchPersonaClearsHistory(t *testing.T) {
	s := NewCharacterSession()
	s.History.Append(model.NewUserMessage("hi"))
	s.History.Append(model.NewAssistantMessage("hello", "", ""))

	p, ok := persona.Lookup("sherlock")
	require.True(t, ok)
	s.SwitchPersona(p)

	assert.Equal(t, 0, s.History.Len())
	assert.Equal(t, p.Instruction, s.Instruction())

	active, ok := s.ActivePersona()
	require.True(t, ok)
	assert.Equal(t, "sherlock", active.Key)
}

func TestCharacterSession_SwitchToSamePersonaClears(t *testing.T) {
	s := NewCharacterSession()
	p, _ := persona.Lookup("naruto")
	s.SwitchPersona(p)
	s.History.Append(model.NewUserMessage("believe it"))

	s.SwitchPersona(p)
	assert.Equal(t, 0, s.History.Len())
}

func TestCharacterSession_Reset(t *testing.T) {
	s := NewCharacterSession()
	p, _ := persona.Lookup("iron man")
	s.SwitchPersona(p)
	s.History.Append(model.NewUserMessage("suit up"))

	s.Reset()
	_, ok := s.ActivePersona()
	assert.False(t, ok)
	assert.Equal(t, 0, s.History.Len())
	assert.Equal(t, persona.DefaultInstruction, s.Instruction())
}

// =============================================================================
// JARGON SESSION TESTS
// =============================================================================

func TestJargonSession_Defaults(t *testing.T) {
	s := NewJargonSession()

	assert.Equal(t, DefaultModel, s.Model)
	assert.Equal(t, "en", s.Language)
	assert.True(t, s.ThinkingVisible)
	assert.False(t, s.SpeakAnswers)
	assert.Equal(t, 0, s.MessageCount)
	assert.Equal(t, DefaultSettings(), s.Settings())
}

func TestJargonSession_ApplySettings(t *testing.T) {
	s := NewJargonSession()
	s.ApplySettings(Settings{Language: "ta", ThinkingVisible: false, SpeakAnswers: true})

	got := s.Settings()
	assert.Equal(t, DefaultModel, got.Model, "empty model keeps the current one")
	assert.Equal(t, "ta", got.Language)
	assert.False(t, got.ThinkingVisible)
	assert.True(t, got.SpeakAnswers)
}

func TestJargonSession_DocumentSummary(t *testing.T) {
	s := NewJargonSession()
	_, ok := s.DocumentSummary()
	assert.False(t, ok)

	text := strings.Repeat("word ", 300)
	s.SetDocument("paper.pdf", text)

	sum, ok := s.DocumentSummary()
	require.True(t, ok)
	assert.Equal(t, "paper.pdf", sum.Name)
	assert.Equal(t, 300, sum.Words)
	assert.Equal(t, text[:PreviewLimit]+"…", sum.Preview)

	s.ClearDocument()
	name, doc := s.LoadedDocument()
	assert.Empty(t, name)
	assert.Empty(t, doc)
}

func TestJargonSession_ShortDocumentPreview(t *testing.T) {
	s := NewJargonSession()
	s.SetDocument("note.pdf", "tiny text")
	sum, _ := s.DocumentSummary()
	assert.Equal(t, "tiny text", sum.Preview)
}

func TestDocumentSummary_Loaded(t *testing.T) {
	assert.Equal(t, "1,204 words loaded", DocumentSummary{Words: 1204}.Loaded())
	assert.Equal(t, "7 words loaded", DocumentSummary{Words: 7}.Loaded())
}

func TestJargonSession_Reset(t *testing.T) {
	s := NewJargonSession()
	s.ApplySettings(Settings{Model: "qwen3:8b", Language: "de", ThinkingVisible: true})
	s.SetDocument("a.pdf", "alpha beta")
	s.History.Append(model.NewUserMessage("q"))
	s.CountMessage()
	s.RecordReply("t", "a")

	s.Reset()

	assert.Equal(t, 0, s.History.Len())
	assert.Equal(t, 0, s.MessageCount)
	_, ok := s.DocumentSummary()
	assert.False(t, ok)
	think, answer := s.LastReply()
	assert.Empty(t, think)
	assert.Empty(t, answer)
	assert.Equal(t, "qwen3:8b", s.Model, "settings survive a reset")
	assert.Equal(t, "de", s.Language)
}

func TestJargonSession_Stats(t *testing.T) {
	s := NewJargonSession()
	s.StartedAt = time.Date(2025, 3, 1, 9, 7, 0, 0, time.Local)
	s.CountMessage()
	s.CountMessage()

	st := s.Stats()
	assert.Equal(t, 2, st.Messages)
	assert.Equal(t, "09:07", st.StartedAt)
}

func TestJargonSession_TurnReservation(t *testing.T) {
	s := NewJargonSession()
	require.True(t, s.TryBeginTurn())
	assert.False(t, s.TryBeginTurn())
	s.EndTurn()
	assert.True(t, s.TryBeginTurn())
	s.EndTurn()
}

func TestCharacterSession_TurnReservation(t *testing.T) {
	s := NewCharacterSession()
	require.True(t, s.TryBeginTurn())
	assert.False(t, s.TryBeginTurn())
	s.EndTurn()
	assert.True(t, s.TryBeginTurn())
	s.EndTurn()
}

func TestJargonSession_ConcurrentCounting(t *testing.T) {
	s := NewJargonSession()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.CountMessage()
			_ = s.Stats()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, s.Stats().Messages)
}

// =============================================================================
// REGISTRY TESTS
// =============================================================================

func TestRegistry_CreateGetDelete(t *testing.T) {
	r := NewRegistry[*JargonSession](time.Minute)

	id, sess := r.Create(NewJargonSessionWithID)
	assert.Equal(t, id, sess.ID)
	assert.Equal(t, 1, r.Len())

	got, ok := r.Get(id)
	require.True(t, ok)
	assert.Same(t, sess, got)

	assert.True(t, r.Delete(id))
	assert.False(t, r.Delete(id))
	_, ok = r.Get(id)
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_DefaultTimeout(t *testing.T) {
	r := NewRegistry[*CharacterSession](0)
	assert.Equal(t, DefaultIdleTimeout, r.Timeout())
}

func TestRegistry_Sweep(t *testing.T) {
	r := NewRegistry[*CharacterSession](time.Minute)

	var expired []string
	r.SetExpireCallback(func(id string, _ *CharacterSession) {
		expired = append(expired, id)
	})

	idle, _ := r.Create(NewCharacterSessionWithID)
	fresh, _ := r.Create(NewCharacterSessionWithID)

	// Backdate the idle session.
	r.mu.Lock()
	r.entries[idle].lastActivity = time.Now().Add(-2 * time.Minute)
	r.mu.Unlock()

	assert.Equal(t, 1, r.Sweep(time.Now()))
	assert.Equal(t, []string{idle}, expired)

	_, ok := r.Get(fresh)
	assert.True(t, ok)
	_, ok = r.Get(idle)
	assert.False(t, ok)
}

func TestRegistry_GetRecordsActivity(t *testing.T) {
	r := NewRegistry[*CharacterSession](time.Minute)
	id, _ := r.Create(NewCharacterSessionWithID)

	r.mu.Lock()
	r.entries[id].lastActivity = time.Now().Add(-59 * time.Second)
	r.mu.Unlock()

	_, ok := r.Get(id)
	require.True(t, ok)
	assert.Equal(t, 0, r.Sweep(time.Now().Add(30*time.Second)))
}

func TestRegistry_RunStops(t *testing.T) {
	r := NewRegistry[*CharacterSession](time.Minute)
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		r.Run(5*time.Millisecond, stop)
		close(done)
	}()
	close(stop)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after stop")
	}
}
