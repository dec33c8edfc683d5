// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import "sync"

// =============================================================================
// HISTORY
// =============================================================================

// History is an ordered, append-only list of messages. Role alternation is
// not enforced.
//
// A History belongs to one session. The lock only lets a front-end read it
// while the turn handler appends.
type History struct {
	mu       sync.RWMutex
	messages []*Message
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{}
}

// Append adds a message at the end.
func (h *History) Append(msg *Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
}

// Messages returns a copy of the message slice in conversation order.
func (h *History) Messages() []*Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len returns the number of messages.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// Last returns the most recent message, or nil when empty.
func (h *History) Last() *Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.messages) == 0 {
		return nil
	}
	return h.messages[len(h.messages)-1]
}

// Tail returns the n most recent messages in conversation order.
func (h *History) Tail(n int) []*Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if n <= 0 {
		return nil
	}
	start := len(h.messages) - n
	if start < 0 {
		start = 0
	}
	out := make([]*Message, len(h.messages)-start)
	copy(out, h.messages[start:])
	return out
}

// Clear removes every message.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
}
