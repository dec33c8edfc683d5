// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jeranaias/gemmabots/internal/model"
	"github.com/jeranaias/gemmabots/internal/util"
)

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	// DefaultModel is the model used by new jargon sessions.
	DefaultModel = "gemma3:latest"

	// DefaultLanguage is the output language of new jargon sessions.
	DefaultLanguage = "en"

	// PreviewLimit is the length of the document preview.
	PreviewLimit = 500

	// StartedAtLayout formats the session start time.
	StartedAtLayout = "15:04"
)

// =============================================================================
// SETTINGS
// =============================================================================

// Settings are the user-adjustable options of a jargon session.
type Settings struct {
	Model           string `json:"model" yaml:"model"`
	Language        string `json:"language" yaml:"language"`
	ThinkingVisible bool   `json:"thinking_visible" yaml:"thinking_visible"`
	SpeakAnswers    bool   `json:"speak_answers" yaml:"speak_answers"`
}

// DefaultSettings returns the settings of a fresh session.
func DefaultSettings() Settings {
	return Settings{
		Model:           DefaultModel,
		Language:        DefaultLanguage,
		ThinkingVisible: true,
		SpeakAnswers:    false,
	}
}

// =============================================================================
// JARGON SESSION
// =============================================================================

// JargonSession is the state of one jargon bot conversation. Fields may be
// read directly by the goroutine that owns the session; concurrent callers
// use the methods.
type JargonSession struct {
	mu   sync.Mutex
	turn sync.Mutex

	ID string

	Model           string
	Language        string
	ThinkingVisible bool
	SpeakAnswers    bool

	// Document is the full extracted text of the loaded document.
	Document     string
	DocumentName string

	History      *model.History
	MessageCount int
	StartedAt    time.Time

	LastThink  string
	LastAnswer string
}

// NewJargonSession creates a session with DefaultSettings.
func NewJargonSession() *JargonSession {
	return NewJargonSessionWithID(uuid.NewString())
}

// NewJargonSessionWithID creates a session with the given ID.
func NewJargonSessionWithID(id string) *JargonSession {
	s := &JargonSession{
		ID:        id,
		History:   model.NewHistory(),
		StartedAt: time.Now(),
	}
	s.apply(DefaultSettings())
	return s
}

// Settings returns a snapshot of the current settings.
func (s *JargonSession) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Settings{
		Model:           s.Model,
		Language:        s.Language,
		ThinkingVisible: s.ThinkingVisible,
		SpeakAnswers:    s.SpeakAnswers,
	}
}

// ApplySettings replaces the settings. Empty model and language keep their
// current values.
func (s *JargonSession) ApplySettings(set Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(set)
}

func (s *JargonSession) apply(set Settings) {
	if set.Model != "" {
		s.Model = set.Model
	}
	if set.Language != "" {
		s.Language = set.Language
	}
	s.ThinkingVisible = set.ThinkingVisible
	s.SpeakAnswers = set.SpeakAnswers
}

// =============================================================================
// DOCUMENT
// =============================================================================

// SetDocument loads extracted document text.
func (s *JargonSession) SetDocument(name, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DocumentName = name
	s.Document = text
}

// ClearDocument unloads the document.
func (s *JargonSession) ClearDocument() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DocumentName = ""
	s.Document = ""
}

// LoadedDocument returns the document name and text.
func (s *JargonSession) LoadedDocument() (name, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.DocumentName, s.Document
}

// DocumentSummary describes the loaded document.
type DocumentSummary struct {
	Name    string `json:"name"`
	Words   int    `json:"words"`
	Preview string `json:"preview"`
}

var counter = message.NewPrinter(language.English)

// Loaded is the one-line load confirmation, e.g. "1,204 words loaded".
func (d DocumentSummary) Loaded() string {
	return counter.Sprintf("%d words loaded", d.Words)
}

// DocumentSummary returns the word count and a PreviewLimit preview of the
// loaded document. ok is false when nothing is loaded.
func (s *JargonSession) DocumentSummary() (sum DocumentSummary, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Document == "" {
		return DocumentSummary{}, false
	}
	return DocumentSummary{
		Name:    s.DocumentName,
		Words:   util.WordCount(s.Document),
		Preview: util.ClipRunes(s.Document, PreviewLimit),
	}, true
}

// =============================================================================
// TURN BOOKKEEPING
// =============================================================================

// TryBeginTurn reserves the session for one turn. It returns false while
// another turn is in flight.
func (s *JargonSession) TryBeginTurn() bool {
	return s.turn.TryLock()
}

// EndTurn releases the reservation taken by TryBeginTurn.
func (s *JargonSession) EndTurn() {
	s.turn.Unlock()
}

// CountMessage increments the message counter.
func (s *JargonSession) CountMessage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.MessageCount++
}

// RecordReply stores the split of the latest reply.
func (s *JargonSession) RecordReply(think, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastThink = think
	s.LastAnswer = answer
}

// LastReply returns the split of the latest reply.
func (s *JargonSession) LastReply() (think, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.LastThink, s.LastAnswer
}

// Reset clears history, message count, document and the last reply.
// Settings are kept.
func (s *JargonSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.History.Clear()
	s.MessageCount = 0
	s.Document = ""
	s.DocumentName = ""
	s.LastThink = ""
	s.LastAnswer = ""
}

// =============================================================================
// STATS
// =============================================================================

// Stats is the sidebar summary of a session.
type Stats struct {
	Messages  int    `json:"messages"`
	StartedAt string `json:"started_at"`
	Document  string `json:"document,omitempty"`
}

// Stats returns the message count and start time.
func (s *JargonSession) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Messages:  s.MessageCount,
		StartedAt: s.StartedAt.Format(StartedAtLayout),
		Document:  s.DocumentName,
	}
}
