// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed web
var webFS embed.FS

// ============================================================================
// ROUTES
// ============================================================================

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *gin.Engine {
	r := gin.New()
	r.Use(
		RequestIDMiddleware(),
		RecoveryMiddleware(s.log),
		LoggingMiddleware(s.log),
		SecurityHeadersMiddleware(),
	)

	// Page
	index, err := webFS.ReadFile("web/index.html")
	if err != nil {
		panic("server: embedded page missing: " + err.Error())
	}
	static, err := fs.Sub(webFS, "web/static")
	if err != nil {
		panic("server: embedded assets missing: " + err.Error())
	}
	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", index)
	})
	r.StaticFS("/static", http.FS(static))
	r.GET("/healthz", s.handleHealth)

	jsonLimit := BodyLimitMiddleware(MaxRequestBodySize)
	uploadLimit := BodyLimitMiddleware(MaxUploadSize)

	api := r.Group("/api")
	{
		// Catalog
		api.GET("/models", s.handleModels)
		api.GET("/capabilities", s.handleCapabilities)
		api.GET("/languages", s.handleLanguages)
		api.GET("/personas", s.handlePersonas)
		api.GET("/prompts", s.handlePrompts)

		// Character bot
		character := api.Group("/character/sessions")
		character.POST("", s.handleCreateCharacter)
		character.GET("/:id", s.handleGetCharacter)
		character.DELETE("/:id", s.handleDeleteCharacter)
		character.POST("/:id/turns", jsonLimit, s.handleCharacterTurn)
		character.GET("/:id/export", s.handleExportCharacter)

		// Jargon bot
		jargon := api.Group("/jargon/sessions")
		jargon.POST("", s.handleCreateJargon)
		jargon.GET("/:id", s.handleGetJargon)
		jargon.PATCH("/:id", jsonLimit, s.handleUpdateJargon)
		jargon.DELETE("/:id", s.handleDeleteJargon)
		jargon.POST("/:id/turns", jsonLimit, s.handleJargonTurn)
		jargon.POST("/:id/document", uploadLimit, s.handleUploadDocument)
		jargon.DELETE("/:id/document", s.handleClearDocument)
		jargon.POST("/:id/reset", s.handleResetJargon)
		jargon.POST("/:id/voice", s.handleVoice)
		jargon.GET("/:id/export", s.handleExportJargon)
	}

	// WebSocket
	r.GET("/ws/jargon/:id", s.handleJargonSocket)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorBody("not found"))
	})
	return r
}
