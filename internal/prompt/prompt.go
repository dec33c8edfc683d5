// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prompt assembles what is sent to the model for a turn.
package prompt

import (
	"strings"

	"github.com/jeranaias/gemmabots/internal/model"
	"github.com/jeranaias/gemmabots/internal/ollama"
	"github.com/jeranaias/gemmabots/internal/util"
)

// =============================================================================
// LIMITS
// =============================================================================

const (
	// HistoryLimit is the number of prior messages the jargon bot replays.
	HistoryLimit = 12

	// DocumentLimit is the number of document characters added to the
	// system message.
	DocumentLimit = 4000

	// DocumentHeader separates the system instruction from document text.
	DocumentHeader = "\n\nPDF CONTEXT:\n"
)

// JargonSystem is the jargon bot's system instruction.
const JargonSystem = `You are JargonBot — an elite AI assistant that ALWAYS:
1. SHOWS THINKING: Wrap your chain-of-thought inside <think>...</think> tags BEFORE answering.
2. ANSWERS IN 4 WORDS: Your final answer (outside <think>) must be exactly 4 words.
3. USES JARGON: Every word should be technical, domain-specific, or sophisticated jargon.
4. CODES ACCURATELY: When asked to code, place code inside <think> as full implementation, then summarize in 4-word jargon answer.
5. BE MULTILINGUAL: If user writes in another language, respond in that language, still in jargon, still 4 words.
6. PRECISION OVER VERBOSITY: You are concise by design. 4 words. Always.

Format STRICTLY:
<think>
[Your detailed reasoning, analysis, full code if needed — all here]
</think>
[EXACTLY 4 JARGON WORDS]
`

// =============================================================================
// CHARACTER BOT
// =============================================================================

// Character builds the flattened prompt for the character bot. Every message
// of history becomes a "User: ..." or "Assistant: ..." line; the prompt ends
// with an "Assistant:" cue.
func Character(instruction string, history []*model.Message) string {
	var conversation strings.Builder
	for _, msg := range history {
		if msg.Role == model.RoleUser {
			conversation.WriteString("User: ")
		} else {
			conversation.WriteString("Assistant: ")
		}
		conversation.WriteString(msg.Content)
		conversation.WriteByte('\n')
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(instruction)
	b.WriteString("\n\nContinue the conversation below while staying in character:\n\n")
	b.WriteString(conversation.String())
	b.WriteString("\nAssistant:\n")
	return b.String()
}

// =============================================================================
// JARGON BOT
// =============================================================================

// TruncateDocument returns at most the first DocumentLimit characters of s.
func TruncateDocument(s string) string {
	return util.HeadRunes(s, DocumentLimit)
}

// System returns the system message content, with document context appended
// when document is non-empty.
func System(instruction, document string) string {
	if document == "" {
		return instruction
	}
	return instruction + DocumentHeader + TruncateDocument(document)
}

// Jargon builds the message list for the jargon bot. history holds the
// prior messages only; the new prompt is passed separately. Only the most
// recent HistoryLimit prior messages are replayed, in original order, using
// their raw content.
func Jargon(instruction, document string, history []*model.Message, userPrompt string) []ollama.Message {
	if len(history) > HistoryLimit {
		history = history[len(history)-HistoryLimit:]
	}

	messages := make([]ollama.Message, 0, len(history)+2)
	messages = append(messages, ollama.NewSystemMessage(System(instruction, document)))
	for _, msg := range history {
		messages = append(messages, ollama.Message{Role: msg.Role.String(), Content: msg.Content})
	}
	messages = append(messages, ollama.NewUserMessage(userPrompt))
	return messages
}

// =============================================================================
// QUICK PROMPTS
// =============================================================================

// Quick holds the starter prompts offered by the jargon front-ends.
var Quick = []string{
	"Explain quantum entanglement",
	"Write Python quicksort",
	"Summarize uploaded PDF",
	"Differential calculus basics",
	"Machine learning overfitting",
}

// QuickPrompt returns the n-th quick prompt, counting from 1.
func QuickPrompt(n int) (string, bool) {
	if n < 1 || n > len(Quick) {
		return "", false
	}
	return Quick[n-1], true
}
