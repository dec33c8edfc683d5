// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jeranaias/gemmabots/internal/bot"
	"github.com/jeranaias/gemmabots/internal/capability"
	"github.com/jeranaias/gemmabots/internal/export"
	"github.com/jeranaias/gemmabots/internal/model"
	"github.com/jeranaias/gemmabots/internal/persona"
	"github.com/jeranaias/gemmabots/internal/prompt"
	"github.com/jeranaias/gemmabots/internal/session"
)

// ============================================================================
// RESPONSE TYPES
// ============================================================================

func errorBody(msg string) gin.H {
	return gin.H{"error": msg}
}

// TurnRequest is the body of a turn.
type TurnRequest struct {
	Text string `json:"text"`
}

// CharacterState describes a character session.
type CharacterState struct {
	ID      string           `json:"id"`
	Persona string           `json:"persona,omitempty"`
	History []*model.Message `json:"history"`
}

// CharacterTurnResponse is the outcome of a character turn.
type CharacterTurnResponse struct {
	Notice  string           `json:"notice,omitempty"`
	Reply   *model.Message   `json:"reply"`
	Failed  bool             `json:"failed,omitempty"`
	Persona string           `json:"persona,omitempty"`
	History []*model.Message `json:"history"`
}

// JargonState describes a jargon session.
type JargonState struct {
	ID       string                   `json:"id"`
	Settings session.Settings         `json:"settings"`
	Stats    session.Stats            `json:"stats"`
	Document *session.DocumentSummary `json:"document,omitempty"`
	History  []*model.Message         `json:"history"`
}

// SettingsPatch updates some jargon settings. Absent fields are kept.
type SettingsPatch struct {
	Model           *string `json:"model"`
	Language        *string `json:"language"`
	ThinkingVisible *bool   `json:"thinking_visible"`
	SpeakAnswers    *bool   `json:"speak_answers"`
}

// DocumentResponse confirms a document upload.
type DocumentResponse struct {
	session.DocumentSummary
	Loaded string `json:"loaded"`
}

// JargonTurnResponse is the outcome of a non-streamed jargon turn.
type JargonTurnResponse struct {
	Message *model.Message `json:"message"`
	Failed  bool           `json:"failed,omitempty"`
}

func characterState(sess *session.CharacterSession) CharacterState {
	state := CharacterState{ID: sess.ID, History: sess.History.Messages()}
	if p, ok := sess.ActivePersona(); ok {
		state.Persona = p.Title()
	}
	return state
}

func jargonState(sess *session.JargonSession) JargonState {
	state := JargonState{
		ID:       sess.ID,
		Settings: sess.Settings(),
		Stats:    sess.Stats(),
		History:  sess.History.Messages(),
	}
	if sum, ok := sess.DocumentSummary(); ok {
		state.Document = &sum
	}
	return state
}

// turnReserver is a session that serializes turns.
type turnReserver interface {
	TryBeginTurn() bool
	EndTurn()
}

// reserve takes the session's turn reservation for a state change. It
// answers 409 and returns false while a turn is streaming.
func reserve(c *gin.Context, sess turnReserver) bool {
	if !sess.TryBeginTurn() {
		c.JSON(http.StatusConflict, errorBody("a turn is already in progress"))
		return false
	}
	return true
}

// readTurn decodes and validates a turn body.
func readTurn(c *gin.Context) (string, bool) {
	var req TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
		return "", false
	}
	text := strings.TrimSpace(req.Text)
	switch {
	case text == "":
		c.JSON(http.StatusBadRequest, errorBody("text is required"))
		return "", false
	case len(text) > MaxPromptLength:
		c.JSON(http.StatusBadRequest, errorBody(fmt.Sprintf("text exceeds %d bytes", MaxPromptLength)))
		return "", false
	}
	return text, true
}

// ============================================================================
// CATALOG HANDLERS
// ============================================================================

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	backend := "up"
	if s.backend == nil {
		backend = "unconfigured"
	} else if _, err := s.backend.ListModels(ctx); err != nil {
		backend = "down"
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"ollama": backend,
		"sessions": gin.H{
			"character": s.characters.Len(),
			"jargon":    s.jargons.Len(),
		},
	})
}

// handleModels handles GET /api/models.
func (s *Server) handleModels(c *gin.Context) {
	if s.backend == nil {
		c.JSON(http.StatusServiceUnavailable, errorBody("no backend configured"))
		return
	}
	models, err := s.backend.ListModels(c.Request.Context())
	if err != nil {
		s.log.Warn("list models failed", "error", err)
		c.JSON(http.StatusBadGateway, errorBody("could not list models: "+err.Error()))
		return
	}

	out := make([]gin.H, 0, len(models))
	for _, m := range models {
		out = append(out, gin.H{"name": m.ID(), "size": m.Size, "size_human": m.FormatSize()})
	}
	c.JSON(http.StatusOK, gin.H{"models": out})
}

// handleCapabilities handles GET /api/capabilities.
func (s *Server) handleCapabilities(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"capabilities": s.caps.Status()})
}

// handleLanguages handles GET /api/languages.
func (s *Server) handleLanguages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"languages": capability.Languages()})
}

// handlePersonas handles GET /api/personas.
func (s *Server) handlePersonas(c *gin.Context) {
	all := persona.All()
	out := make([]gin.H, 0, len(all))
	for _, p := range all {
		out = append(out, gin.H{"key": p.Key, "title": p.Title()})
	}
	c.JSON(http.StatusOK, gin.H{"personas": out})
}

// handlePrompts handles GET /api/prompts.
func (s *Server) handlePrompts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"prompts": prompt.Quick})
}

// ============================================================================
// CHARACTER HANDLERS
// ============================================================================

func (s *Server) characterEntry(c *gin.Context) (*characterEntry, bool) {
	e, ok := s.characters.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, errorBody("session not found"))
	}
	return e, ok
}

// handleCreateCharacter handles POST /api/character/sessions.
func (s *Server) handleCreateCharacter(c *gin.Context) {
	_, e := s.characters.Create(s.newCharacterSession)
	s.log.Info("character session created", "session", e.sess.ID)
	c.JSON(http.StatusCreated, characterState(e.sess))
}

// handleGetCharacter handles GET /api/character/sessions/:id.
func (s *Server) handleGetCharacter(c *gin.Context) {
	e, ok := s.characterEntry(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, characterState(e.sess))
}

// handleDeleteCharacter handles DELETE /api/character/sessions/:id.
func (s *Server) handleDeleteCharacter(c *gin.Context) {
	e, ok := s.characterEntry(c)
	if !ok || !reserve(c, e.sess) {
		return
	}
	defer e.sess.EndTurn()

	s.characters.Delete(c.Param("id"))
	c.Status(http.StatusNoContent)
}

// handleCharacterTurn handles POST /api/character/sessions/:id/turns.
func (s *Server) handleCharacterTurn(c *gin.Context) {
	e, ok := s.characterEntry(c)
	if !ok {
		return
	}
	text, ok := readTurn(c)
	if !ok {
		return
	}
	if e.limiter != nil && !e.limiter.Allow() {
		c.JSON(http.StatusTooManyRequests, errorBody("too many turns, slow down"))
		return
	}
	if !reserve(c, e.sess) {
		return
	}
	defer e.sess.EndTurn()

	character, _ := s.bots()
	reply := character.Turn(c.Request.Context(), e.sess, text)

	state := characterState(e.sess)
	c.JSON(http.StatusOK, CharacterTurnResponse{
		Notice:  reply.Notice,
		Reply:   reply.Message,
		Failed:  reply.Failed,
		Persona: state.Persona,
		History: state.History,
	})
}

// handleExportCharacter handles GET /api/character/sessions/:id/export.
func (s *Server) handleExportCharacter(c *gin.Context) {
	e, ok := s.characterEntry(c)
	if !ok {
		return
	}
	character, _ := s.bots()
	s.writeExport(c, export.FromCharacter(e.sess, character.Model))
}

// ============================================================================
// JARGON HANDLERS
// ============================================================================

func (s *Server) jargonEntry(c *gin.Context) (*jargonEntry, bool) {
	e, ok := s.jargons.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, errorBody("session not found"))
	}
	return e, ok
}

// handleCreateJargon handles POST /api/jargon/sessions.
func (s *Server) handleCreateJargon(c *gin.Context) {
	_, e := s.jargons.Create(s.newJargonSession)
	s.log.Info("jargon session created", "session", e.sess.ID)
	c.JSON(http.StatusCreated, jargonState(e.sess))
}

// handleGetJargon handles GET /api/jargon/sessions/:id.
func (s *Server) handleGetJargon(c *gin.Context) {
	e, ok := s.jargonEntry(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, jargonState(e.sess))
}

// handleUpdateJargon handles PATCH /api/jargon/sessions/:id.
func (s *Server) handleUpdateJargon(c *gin.Context) {
	e, ok := s.jargonEntry(c)
	if !ok {
		return
	}
	var patch SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
		return
	}

	set := e.sess.Settings()
	if patch.Model != nil {
		set.Model = strings.TrimSpace(*patch.Model)
	}
	if patch.Language != nil {
		code, err := capability.ParseLanguage(*patch.Language)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		set.Language = code
	}
	if patch.ThinkingVisible != nil {
		set.ThinkingVisible = *patch.ThinkingVisible
	}
	if patch.SpeakAnswers != nil {
		set.SpeakAnswers = *patch.SpeakAnswers
	}
	e.sess.ApplySettings(set)
	c.JSON(http.StatusOK, jargonState(e.sess))
}

// handleDeleteJargon handles DELETE /api/jargon/sessions/:id.
func (s *Server) handleDeleteJargon(c *gin.Context) {
	e, ok := s.jargonEntry(c)
	if !ok || !reserve(c, e.sess) {
		return
	}
	defer e.sess.EndTurn()

	s.jargons.Delete(c.Param("id"))
	c.Status(http.StatusNoContent)
}

// handleJargonTurn handles POST /api/jargon/sessions/:id/turns, a
// non-streamed turn for clients without WebSocket support.
func (s *Server) handleJargonTurn(c *gin.Context) {
	e, ok := s.jargonEntry(c)
	if !ok {
		return
	}
	text, ok := readTurn(c)
	if !ok {
		return
	}
	if e.limiter != nil && !e.limiter.Allow() {
		c.JSON(http.StatusTooManyRequests, errorBody("too many turns, slow down"))
		return
	}
	if !reserve(c, e.sess) {
		return
	}
	defer e.sess.EndTurn()

	_, jargon := s.bots()
	turn := jargon.Begin(c.Request.Context(), e.sess, text)
	msg := turn.Finish()
	c.JSON(http.StatusOK, JargonTurnResponse{Message: msg, Failed: turn.Failed()})
}

// handleUploadDocument handles POST /api/jargon/sessions/:id/document.
func (s *Server) handleUploadDocument(c *gin.Context) {
	e, ok := s.jargonEntry(c)
	if !ok {
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, errorBody(fmt.Sprintf("document exceeds %d bytes", MaxUploadSize)))
			return
		}
		c.JSON(http.StatusBadRequest, errorBody("multipart field \"file\" is required"))
		return
	}
	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("could not read upload"))
		return
	}
	defer f.Close()

	_, jargon := s.bots()
	sum, err := jargon.LoadDocument(c.Request.Context(), e.sess, header.Filename, f, header.Size)
	if errors.Is(err, bot.ErrDocumentsDisabled) {
		c.JSON(http.StatusNotImplemented, errorBody(err.Error()))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody(err.Error()))
		return
	}
	c.JSON(http.StatusOK, DocumentResponse{DocumentSummary: sum, Loaded: sum.Loaded()})
}

// handleClearDocument handles DELETE /api/jargon/sessions/:id/document.
func (s *Server) handleClearDocument(c *gin.Context) {
	e, ok := s.jargonEntry(c)
	if !ok || !reserve(c, e.sess) {
		return
	}
	defer e.sess.EndTurn()

	e.sess.ClearDocument()
	c.Status(http.StatusNoContent)
}

// handleResetJargon handles POST /api/jargon/sessions/:id/reset.
func (s *Server) handleResetJargon(c *gin.Context) {
	e, ok := s.jargonEntry(c)
	if !ok || !reserve(c, e.sess) {
		return
	}
	defer e.sess.EndTurn()

	e.sess.Reset()
	c.JSON(http.StatusOK, jargonState(e.sess))
}

// handleVoice handles POST /api/jargon/sessions/:id/voice. Capture happens
// on the server's microphone.
func (s *Server) handleVoice(c *gin.Context) {
	if _, ok := s.jargonEntry(c); !ok {
		return
	}
	if !s.caps.Has("Voice I/O") {
		c.JSON(http.StatusNotImplemented, errorBody("voice input is not configured"))
		return
	}
	_, jargon := s.bots()
	c.JSON(http.StatusOK, gin.H{"text": jargon.Listen(c.Request.Context())})
}

// handleExportJargon handles GET /api/jargon/sessions/:id/export.
func (s *Server) handleExportJargon(c *gin.Context) {
	e, ok := s.jargonEntry(c)
	if !ok {
		return
	}
	s.writeExport(c, export.FromJargon(e.sess))
}

// writeExport renders t in the format named by the format query parameter
// and sends it as a download.
func (s *Server) writeExport(c *gin.Context, t *export.Transcript) {
	exp, err := export.ForFormat(c.DefaultQuery("format", "markdown"), nil)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	data, err := exp.Export(t)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	filename := fmt.Sprintf("%s_%s%s", t.Bot, time.Now().Format("20060102_150405"), exp.FileExtension())
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, exp.MimeType()+"; charset=utf-8", data)
}
