// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/gemmabots/internal/model"
)

// =============================================================================
// CHARACTER PROMPT
// =============================================================================

func TestCharacter_Exact(t *testing.T) {
	history := []*model.Message{
		model.NewUserMessage("hello"),
		model.NewAssistantMessage("hi there", "", ""),
		model.NewUserMessage("who are you?"),
	}

	got := Character("You are a helpful AI assistant.", history)
	want := "\nYou are a helpful AI assistant.\n\n" +
		"Continue the conversation below while staying in character:\n\n" +
		"User: hello\n" +
		"Assistant: hi there\n" +
		"User: who are you?\n" +
		"\nAssistant:\n"
	assert.Equal(t, want, got)
}

func TestCharacter_EmptyHistory(t *testing.T) {
	got := Character("X", nil)
	assert.Equal(t, "\nX\n\nContinue the conversation below while staying in character:\n\n\nAssistant:\n", got)
}

func TestCharacter_Unbounded(t *testing.T) {
	var history []*model.Message
	for i := 0; i < 40; i++ {
		history = append(history, model.NewUserMessage(fmt.Sprintf("line-%02d", i)))
	}
	got := Character("X", history)
	assert.Equal(t, 40, strings.Count(got, "User: "))
	assert.Contains(t, got, "User: line-00\n")
}

// =============================================================================
// JARGON MESSAGES
// =============================================================================

func TestJargon_NoHistory(t *testing.T) {
	msgs := Jargon(JargonSystem, "", nil, "Explain quantum entanglement")
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, JargonSystem, msgs[0].Content)
	assert.Equal(t, "user", msgs[1].Role)
	assert.Equal(t, "Explain quantum entanglement", msgs[1].Content)
}

func TestJargon_HistoryBoundedToMostRecent12(t *testing.T) {
	var history []*model.Message
	for i := 0; i < 15; i++ {
		if i%2 == 0 {
			history = append(history, model.NewUserMessage(fmt.Sprintf("m%d", i)))
		} else {
			history = append(history, model.NewAssistantMessage(fmt.Sprintf("m%d", i), "", ""))
		}
	}

	msgs := Jargon(JargonSystem, "", history, "now")
	require.Len(t, msgs, 1+HistoryLimit+1)

	replayed := msgs[1 : len(msgs)-1]
	require.Len(t, replayed, 12)
	for i, m := range replayed {
		src := history[3+i]
		assert.Equal(t, src.Content, m.Content)
		assert.Equal(t, src.Role.String(), m.Role)
	}
	assert.Equal(t, "now", msgs[len(msgs)-1].Content)
}

func TestJargon_ReplaysRawContent(t *testing.T) {
	raw := "<think>deliberation</think>Stochastic Gradient Descent Optimization"
	history := []*model.Message{
		model.NewUserMessage("q"),
		model.NewAssistantMessage(raw, "deliberation", "Stochastic Gradient Descent Optimization"),
	}
	msgs := Jargon(JargonSystem, "", history, "next")
	assert.Equal(t, raw, msgs[2].Content)
}

// =============================================================================
// DOCUMENT CONTEXT
// =============================================================================

func TestDocumentTruncation(t *testing.T) {
	doc := strings.Repeat("abcdefghij", 450) // 4500 characters
	msgs := Jargon(JargonSystem, doc, nil, "Summarize uploaded PDF")

	system := msgs[0].Content
	require.True(t, strings.HasPrefix(system, JargonSystem+DocumentHeader))

	contributed := strings.TrimPrefix(system, JargonSystem+DocumentHeader)
	assert.Len(t, contributed, DocumentLimit)
	assert.Equal(t, doc[:DocumentLimit], contributed)
}

func TestDocumentShorterThanLimit(t *testing.T) {
	sys := System("S", "tiny doc")
	assert.Equal(t, "S\n\nPDF CONTEXT:\ntiny doc", sys)
	assert.Equal(t, "S", System("S", ""))
}

func TestTruncateDocument_RuneSafe(t *testing.T) {
	doc := strings.Repeat("ü", DocumentLimit+5)
	got := TruncateDocument(doc)
	assert.Equal(t, DocumentLimit, len([]rune(got)))
}

func TestQuickPrompt(t *testing.T) {
	p, ok := QuickPrompt(1)
	assert.True(t, ok)
	assert.Equal(t, "Explain quantum entanglement", p)

	p, ok = QuickPrompt(len(Quick))
	assert.True(t, ok)
	assert.Equal(t, "Machine learning overfitting", p)

	_, ok = QuickPrompt(0)
	assert.False(t, ok)
	_, ok = QuickPrompt(6)
	assert.False(t, ok)
}
