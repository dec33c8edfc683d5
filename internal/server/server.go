// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jeranaias/gemmabots/internal/bot"
	"github.com/jeranaias/gemmabots/internal/capability"
	"github.com/jeranaias/gemmabots/internal/config"
	"github.com/jeranaias/gemmabots/internal/logging"
	"github.com/jeranaias/gemmabots/internal/ollama"
	"github.com/jeranaias/gemmabots/internal/session"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// MaxRequestBodySize bounds JSON request bodies (1MB).
	MaxRequestBodySize = 1 << 20

	// MaxUploadSize bounds document uploads (32MB).
	MaxUploadSize = 32 << 20

	// MaxPromptLength bounds a single user prompt.
	MaxPromptLength = 100000

	// SweepInterval is how often idle sessions are expired.
	SweepInterval = time.Minute

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout = 10 * time.Second
)

// ============================================================================
// SERVER
// ============================================================================

// Backend is the inference backend. *ollama.Client implements it.
type Backend interface {
	bot.Generator
	bot.Streamer
	ListModels(ctx context.Context) ([]ollama.ModelInfo, error)
}

// Options configures a Server.
type Options struct {
	Config       *config.Config
	Backend      Backend
	Capabilities capability.Set
	Log          *slog.Logger
}

// characterEntry is a live character session and its turn limiter.
type characterEntry struct {
	sess    *session.CharacterSession
	limiter *rate.Limiter
}

// jargonEntry is a live jargon session and its turn limiter.
type jargonEntry struct {
	sess    *session.JargonSession
	limiter *rate.Limiter
}

// Server is the web front-end.
type Server struct {
	backend Backend
	caps    capability.Set
	log     *slog.Logger

	mu        sync.RWMutex
	cfg       *config.Config
	character *bot.CharacterBot
	jargon    *bot.JargonBot

	characters *session.Registry[*characterEntry]
	jargons    *session.Registry[*jargonEntry]

	engine *gin.Engine
}

// New creates a Server and its routes.
func New(opts Options) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	log := opts.Log
	if log == nil {
		log = logging.Discard()
	}

	s := &Server{
		backend:    opts.Backend,
		caps:       opts.Capabilities,
		log:        log.With("component", "server"),
		characters: session.NewRegistry[*characterEntry](cfg.SessionIdleTimeout()),
		jargons:    session.NewRegistry[*jargonEntry](cfg.SessionIdleTimeout()),
	}
	s.applyConfig(cfg)

	s.characters.SetExpireCallback(func(id string, _ *characterEntry) {
		s.log.Info("character session expired", "session", id)
	})
	s.jargons.SetExpireCallback(func(id string, _ *jargonEntry) {
		s.log.Info("jargon session expired", "session", id)
	})

	s.engine = s.setupRoutes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// SetConfig applies a reloaded configuration. Models, timeouts and the
// settings of new jargon sessions follow it; live sessions keep theirs.
func (s *Server) SetConfig(cfg *config.Config) {
	s.applyConfig(cfg)
	s.log.Info("configuration reloaded",
		"character_model", cfg.Character.Model,
		"jargon_model", cfg.Jargon.Model)
}

func (s *Server) applyConfig(cfg *config.Config) {
	character := bot.NewCharacterBot(s.backend, s.log)
	character.Model = cfg.Character.Model
	character.Timeout = cfg.OllamaTimeout()

	jargon := bot.NewJargonBot(s.backend, s.caps, s.log)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	s.character = character
	s.jargon = jargon
}

func (s *Server) config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *Server) bots() (*bot.CharacterBot, *bot.JargonBot) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.character, s.jargon
}

// newLimiter returns the per-session turn limiter, nil when unlimited.
func (s *Server) newLimiter() *rate.Limiter {
	perMinute := s.config().Server.TurnsPerMinute
	if perMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
}

func (s *Server) newJargonSession(id string) *jargonEntry {
	cfg := s.config()
	sess := session.NewJargonSessionWithID(id)
	sess.ApplySettings(session.Settings{
		Model:           cfg.Jargon.Model,
		Language:        cfg.Jargon.Language,
		ThinkingVisible: cfg.Jargon.ThinkingVisible,
		SpeakAnswers:    cfg.Jargon.SpeakAnswers,
	})
	return &jargonEntry{sess: sess, limiter: s.newLimiter()}
}

func (s *Server) newCharacterSession(id string) *characterEntry {
	return &characterEntry{
		sess:    session.NewCharacterSessionWithID(id),
		limiter: s.newLimiter(),
	}
}

// ============================================================================
// LIFECYCLE
// ============================================================================

// Run serves on the configured listen address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	addr := s.config().Server.Listen
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan struct{})
	defer close(stop)
	go s.characters.Run(SweepInterval, stop)
	go s.jargons.Run(SweepInterval, stop)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	s.log.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
