// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/jeranaias/gemmabots/internal/model"
)

// ============================================================================
// WEBSOCKET
// ============================================================================

const (
	// pongWait is how long an idle connection may stay silent.
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait.
	pingPeriod = pongWait * 9 / 10

	// writeWait bounds a single frame write.
	writeWait = 10 * time.Second

	// maxFrameSize bounds inbound frames.
	maxFrameSize = MaxPromptLength + 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     sameOrigin,
}

// sameOrigin accepts requests without an Origin header and those whose
// origin host matches the request host.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// Frame is one WebSocket message in either direction.
//
// Client to server: {"type":"prompt","text":"..."}.
// Server to client: "delta" frames while the reply streams, then one
// "done" frame carrying the stored message, or an "error" frame.
type Frame struct {
	Type string `json:"type"`

	// Inbound
	Text string `json:"text,omitempty"`

	// Delta
	Fragment string `json:"fragment,omitempty"`
	Think    string `json:"think,omitempty"`
	Answer   string `json:"answer,omitempty"`
	Failed   bool   `json:"failed,omitempty"`

	// Done
	Message *model.Message `json:"message,omitempty"`
	Stats   *TurnStats     `json:"stats,omitempty"`

	// Error
	Error string `json:"error,omitempty"`
}

// TurnStats summarizes a finished turn.
type TurnStats struct {
	ElapsedMs    int64   `json:"elapsed_ms"`
	Tokens       int     `json:"tokens,omitempty"`
	TokensPerSec float64 `json:"tokens_per_sec,omitempty"`
	Messages     int     `json:"messages"`
}

// handleJargonSocket handles GET /ws/jargon/:id. Turns on one connection
// run one after another.
func (s *Server) handleJargonSocket(c *gin.Context) {
	e, ok := s.jargonEntry(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "session", e.sess.ID, "error", err)
		return
	}
	defer conn.Close()

	log := s.log.With("session", e.sess.ID)
	log.Info("websocket connected", "ip", c.ClientIP())
	defer log.Info("websocket closed")

	conn.SetReadLimit(maxFrameSize)
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}()

	send := func(f Frame) error {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(f)
	}

	for {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		var in Frame
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("websocket read failed", "error", err)
			}
			return
		}

		if in.Type != "prompt" {
			if send(Frame{Type: "error", Error: "unknown frame type " + in.Type}) != nil {
				return
			}
			continue
		}
		if err := s.streamTurn(c, e, strings.TrimSpace(in.Text), send); err != nil {
			log.Debug("websocket write failed", "error", err)
			return
		}
	}
}

// streamTurn runs one jargon turn and forwards every delta. It returns only
// write errors; turn failures travel inside the frames.
func (s *Server) streamTurn(c *gin.Context, e *jargonEntry, text string, send func(Frame) error) error {
	switch {
	case text == "":
		return send(Frame{Type: "error", Error: "text is required"})
	case len(text) > MaxPromptLength:
		return send(Frame{Type: "error", Error: "text too long"})
	}
	// Touch the session so an open socket keeps it alive.
	if _, ok := s.jargons.Get(e.sess.ID); !ok {
		return send(Frame{Type: "error", Error: "session expired"})
	}
	if e.limiter != nil && !e.limiter.Allow() {
		return send(Frame{Type: "error", Error: "too many turns, slow down"})
	}
	if !e.sess.TryBeginTurn() {
		return send(Frame{Type: "error", Error: "a turn is already in progress"})
	}
	defer e.sess.EndTurn()

	showThink := e.sess.Settings().ThinkingVisible

	_, jargon := s.bots()
	turn := jargon.Begin(c.Request.Context(), e.sess, text)
	var writeErr error
	for {
		d, ok := turn.Next()
		if !ok {
			break
		}
		f := Frame{
			Type:     "delta",
			Fragment: d.Fragment,
			Answer:   d.Segments.Answer,
			Failed:   d.Failed,
		}
		if showThink {
			f.Think = d.Segments.Think
		}
		if writeErr = send(f); writeErr != nil {
			break
		}
	}
	// The reply is recorded even when the client went away.
	msg := turn.Finish()
	if writeErr != nil {
		return writeErr
	}

	stats := &TurnStats{
		ElapsedMs: turn.Elapsed().Milliseconds(),
		Messages:  e.sess.Stats().Messages,
	}
	if final := turn.Stats(); final.CompletionTokens > 0 {
		stats.Tokens = final.CompletionTokens
		stats.TokensPerSec = final.TokensPerSecond()
	}
	return send(Frame{Type: "done", Message: msg, Failed: turn.Failed(), Stats: stats})
}
