// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the per-user state of both bots.
//
// Each front-end owns its sessions explicitly: the terminal surfaces create
// one session for the life of the process, the web surface keeps one per
// browser in a Registry. Nothing here is persisted.
//
// # Key Types
//
//   - CharacterSession: active persona plus conversation history
//   - JargonSession: settings, loaded document, history and counters
//   - Registry: live sessions keyed by ID with idle expiry
//
// # Usage
//
//	reg := session.NewRegistry[*session.JargonSession](30 * time.Minute)
//	id, sess := reg.Create(session.NewJargonSessionWithID)
//	defer reg.Delete(id)
//
//	// periodically
//	reg.Sweep(time.Now())
package session
