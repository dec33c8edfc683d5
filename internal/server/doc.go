// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the browser front-end for both bots.
//
// A single gin engine serves an embedded chat page, a JSON API for session
// management and the character bot, and a WebSocket that streams jargon bot
// replies as they are generated.
//
// # Endpoints
//
//   - GET  /                                    - embedded chat page
//   - GET  /healthz                             - liveness and backend status
//   - GET  /api/models|capabilities|languages|personas
//   - POST /api/character/sessions              - new character session
//   - POST /api/character/sessions/:id/turns    - one blocking turn
//   - POST /api/jargon/sessions                 - new jargon session
//   - GET|PATCH /api/jargon/sessions/:id        - state and settings
//   - POST|DELETE /api/jargon/sessions/:id/document
//   - POST /api/jargon/sessions/:id/reset|voice
//   - GET  /api/jargon/sessions/:id/export
//   - GET  /ws/jargon/:id                       - streamed turns
//
// Sessions live in memory only and expire after the configured idle time.
//
// # Usage
//
//	srv := server.New(server.Options{Config: cfg, Backend: client, Capabilities: caps, Log: log})
//	if err := srv.Run(ctx); err != nil {
//		return err
//	}
package server
