// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Role: Message role enumeration (user, assistant, system)
//   - Message: Single turn with raw content and, for reasoning models, the
//     think/answer split of that content
//   - History: Append-only ordered list of messages owned by one session
//
// # Usage
//
//	h := model.NewHistory()
//	h.Append(model.NewUserMessage("who are you?"))
//	h.Append(model.NewAssistantMessage(raw, seg.Think, seg.Answer))
//	recent := h.Tail(12)
package model
