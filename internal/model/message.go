// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

var roleNames = map[Role]string{
	RoleUser:      "You",
	RoleAssistant: "Assistant",
	RoleSystem:    "System",
}

func (r Role) String() string { return string(r) }

// DisplayName is the speaker label used in transcripts. Unknown roles are
// shown as-is.
func (r Role) DisplayName() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return string(r)
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single entry of a conversation. Once appended to a History
// it is not modified.
type Message struct {
	ID        string    `json:"id" yaml:"id"`
	Role      Role      `json:"role" yaml:"role"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// Content is the raw text. For assistant replies this includes any
	// reasoning markers exactly as the model produced them.
	Content string `json:"content" yaml:"content"`

	// Think and Answer hold the split of Content for replies produced under
	// the reasoning protocol. User messages of the jargon bot carry
	// Answer = Content.
	Think  string `json:"think,omitempty" yaml:"think,omitempty"`
	Answer string `json:"answer,omitempty" yaml:"answer,omitempty"`
}

// NewMessage stamps a message with a fresh ID and the current time.
func NewMessage(role Role, content string) *Message {
	return &Message{ID: "msg_" + uuid.NewString(), Role: role, Content: content, Timestamp: time.Now()}
}

func NewUserMessage(content string) *Message { return NewMessage(RoleUser, content) }

// NewAssistantMessage records a reply together with its think/answer split.
func NewAssistantMessage(content, think, answer string) *Message {
	m := NewMessage(RoleAssistant, content)
	m.Think, m.Answer = think, answer
	return m
}

// IsUser reports whether the message was written by the user.
func (m *Message) IsUser() bool {
	return m.Role == RoleUser
}

// Display returns the text a front-end should show: the answer when one was
// recorded, the raw content otherwise.
func (m *Message) Display() string {
	if m.Answer != "" {
		return m.Answer
	}
	return m.Content
}
