// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/gemmabots/internal/model"
	"github.com/jeranaias/gemmabots/internal/persona"
)

// =============================================================================
// CHARACTER SESSION
// =============================================================================

// CharacterSession is the state of one character bot conversation.
type CharacterSession struct {
	mu   sync.Mutex
	turn sync.Mutex

	ID        string
	Persona   *persona.Persona
	History   *model.History
	StartedAt time.Time
}

// NewCharacterSession creates a session with no persona selected.
func NewCharacterSession() *CharacterSession {
	return NewCharacterSessionWithID(uuid.NewString())
}

// NewCharacterSessionWithID creates a session with the given ID.
func NewCharacterSessionWithID(id string) *CharacterSession {
	return &CharacterSession{
		ID:        id,
		History:   model.NewHistory(),
		StartedAt: time.Now(),
	}
}

// Instruction returns the active persona's instruction, or the default one.
func (s *CharacterSession) Instruction() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return persona.Instruction(s.Persona)
}

// ActivePersona returns a copy of the active persona, if any.
func (s *CharacterSession) ActivePersona() (persona.Persona, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Persona == nil {
		return persona.Persona{}, false
	}
	return *s.Persona, true
}

// SwitchPersona activates p and clears the history. Switching to the
// already active persona clears the history too.
func (s *CharacterSession) SwitchPersona(p persona.Persona) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Persona = &p
	s.History.Clear()
}

// Reset drops the persona and the history.
func (s *CharacterSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Persona = nil
	s.History.Clear()
}

// TryBeginTurn reserves the session for one turn. It returns false while
// another turn is in flight.
func (s *CharacterSession) TryBeginTurn() bool {
	return s.turn.TryLock()
}

// EndTurn releases the reservation taken by TryBeginTurn.
func (s *CharacterSession) EndTurn() {
	s.turn.Unlock()
}
