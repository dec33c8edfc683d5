// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bot

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/gemmabots/internal/capability"
	"github.com/jeranaias/gemmabots/internal/model"
	"github.com/jeranaias/gemmabots/internal/ollama"
	"github.com/jeranaias/gemmabots/internal/persona"
	"github.com/jeranaias/gemmabots/internal/prompt"
	"github.com/jeranaias/gemmabots/internal/session"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeGenerator struct {
	requests []ollama.GenerateRequest
	response string
	err      error
}

func (f *fakeGenerator) Generate(_ context.Context, req ollama.GenerateRequest) (*ollama.GenerateResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &ollama.GenerateResponse{Response: f.response, Done: true}, nil
}

type fakeStreamer struct {
	model    string
	messages []ollama.Message
	body     string
	err      error
}

func (f *fakeStreamer) ChatStream(_ context.Context, model string, messages []ollama.Message) (*ollama.Stream, error) {
	f.model = model
	f.messages = messages
	if f.err != nil {
		return nil, f.err
	}
	return ollama.NewStreamFromReader(strings.NewReader(f.body)), nil
}

// ndjson renders chat chunks the way /api/chat streams them.
func ndjson(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		line, _ := json.Marshal(map[string]any{
			"model":   "gemma3:latest",
			"message": map[string]string{"role": "assistant", "content": p},
			"done":    false,
		})
		b.Write(line)
		b.WriteByte('\n')
	}
	b.WriteString(`{"model":"gemma3:latest","message":{"role":"assistant","content":""},"done":true,"eval_count":7,"eval_duration":1000000000}` + "\n")
	return b.String()
}

type fakeTranslator struct{ calls []string }

func (f *fakeTranslator) Translate(_ context.Context, text, _, target string) (string, error) {
	f.calls = append(f.calls, target+":"+text)
	return "[" + target + "] " + text, nil
}

type fakeSpeaker struct{ spoken []string }

func (f *fakeSpeaker) Speak(_ context.Context, text string) error {
	f.spoken = append(f.spoken, text)
	return nil
}

// =============================================================================
// CHARACTER BOT TESTS
// =============================================================================

func TestCharacterTurn_DefaultInstruction(t *testing.T) {
	gen := &fakeGenerator{response: "Hello there."}
	b := NewCharacterBot(gen, nil)
	sess := session.NewCharacterSession()

	reply := b.Turn(context.Background(), sess, "hi")

	assert.Empty(t, reply.Notice)
	assert.False(t, reply.Failed)
	require.NotNil(t, reply.Message)
	assert.Equal(t, "Hello there.", reply.Message.Content)

	require.Len(t, gen.requests, 1)
	assert.Equal(t, DefaultCharacterModel, gen.requests[0].Model)
	assert.Equal(t, "\nYou are a helpful AI assistant.\n\nContinue the conversation below while staying in character:\n\nUser: hi\n\nAssistant:\n", gen.requests[0].Prompt)

	msgs := sess.History.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)
}

func TestCharacterTurn_PersonaSwitchResetsHistory(t *testing.T) {
	gen := &fakeGenerator{response: "Elementary."}
	b := NewCharacterBot(gen, nil)
	sess := session.NewCharacterSession()

	b.Turn(context.Background(), sess, "first")
	b.Turn(context.Background(), sess, "second")
	require.Equal(t, 4, sess.History.Len())

	reply := b.Turn(context.Background(), sess, "Be Sherlock now")

	assert.Equal(t, "Switched to Sherlock mode 🎭", reply.Notice)
	msgs := sess.History.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "Be Sherlock now", msgs[0].Content)
	assert.Equal(t, "Elementary.", msgs[1].Content)

	sherlock, _ := persona.Lookup("sherlock")
	last := gen.requests[len(gen.requests)-1].Prompt
	assert.True(t, strings.HasPrefix(last, "\n"+sherlock.Instruction))
	assert.NotContains(t, last, "User: first")
	assert.Contains(t, last, "User: Be Sherlock now\n")
}

func TestCharacterTurn_FirstPersonaInDefinitionOrder(t *testing.T) {
	b := NewCharacterBot(&fakeGenerator{response: "ok"}, nil)
	sess := session.NewCharacterSession()

	reply := b.Turn(context.Background(), sess, "sherlock vs naruto vs iron man")
	assert.Equal(t, "Switched to Iron Man mode 🎭", reply.Notice)
	p, ok := sess.ActivePersona()
	require.True(t, ok)
	assert.Equal(t, "iron man", p.Key)
}

func TestCharacterTurn_BlankInputIgnored(t *testing.T) {
	gen := &fakeGenerator{response: "ok"}
	b := NewCharacterBot(gen, nil)
	sess := session.NewCharacterSession()

	reply := b.Turn(context.Background(), sess, "   ")
	assert.Nil(t, reply.Message)
	assert.Empty(t, gen.requests)
	assert.Equal(t, 0, sess.History.Len())
}

func TestCharacterTurn_StatusFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollama.GenerateRequest
		json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.False(t, req.Stream)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: srv.URL})
	b := NewCharacterBot(client, nil)
	sess := session.NewCharacterSession()

	reply := b.Turn(context.Background(), sess, "hello")

	assert.True(t, reply.Failed)
	assert.Equal(t, DiagnosticStatus, reply.Message.Content)

	msgs := sess.History.Messages()
	require.Len(t, msgs, 2, "exactly one assistant entry")
	assert.Equal(t, DiagnosticStatus, msgs[1].Content)
}

func TestCharacterTurn_NotRunning(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: url})
	b := NewCharacterBot(client, nil)
	sess := session.NewCharacterSession()

	reply := b.Turn(context.Background(), sess, "hello")
	assert.Equal(t, DiagnosticNotRunning, reply.Message.Content)
	assert.Equal(t, 2, sess.History.Len())
}

func TestCharacterTurn_TimeoutIsUnexpected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: srv.URL})
	b := NewCharacterBot(client, nil)
	b.Timeout = 50 * time.Millisecond
	sess := session.NewCharacterSession()

	reply := b.Turn(context.Background(), sess, "hello")
	assert.Equal(t, DiagnosticUnexpected, reply.Message.Content)
	assert.Equal(t, 2, sess.History.Len())
}

func TestCharacterDiagnostic(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"status", &ollama.ClientError{Type: ollama.ErrTypeStatus, StatusCode: 500}, DiagnosticStatus},
		{"model not found", &ollama.ClientError{Type: ollama.ErrTypeModelNotFound, StatusCode: 404}, DiagnosticStatus},
		{"not running", ollama.ErrNotRunning, DiagnosticNotRunning},
		{"timeout", ollama.ErrTimeout, DiagnosticUnexpected},
		{"decode", &ollama.ClientError{Type: ollama.ErrTypeInvalidResponse}, DiagnosticUnexpected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CharacterDiagnostic(tt.err))
		})
	}
}

// =============================================================================
// JARGON BOT TESTS
// =============================================================================

func TestJargonTurn_Streams(t *testing.T) {
	st := &fakeStreamer{body: ndjson("<think>", "reason", "</think>", " Quantum Superposition Entangled Eigenstates")}
	b := NewJargonBot(st, capability.NoOp(), nil)
	sess := session.NewJargonSession()

	turn := b.Begin(context.Background(), sess, "  explain entanglement  ")
	require.NotNil(t, turn)

	var deltas []Delta
	for {
		d, ok := turn.Next()
		if !ok {
			break
		}
		deltas = append(deltas, d)
	}
	require.Len(t, deltas, 4)
	assert.Equal(t, "<think>reason", deltas[1].Cumulative)
	assert.Equal(t, "", deltas[1].Segments.Think, "no split before the close marker")
	assert.Equal(t, "reason", deltas[2].Segments.Think)
	assert.Equal(t, "Quantum Superposition Entangled Eigenstates", deltas[3].Segments.Answer)

	msg := turn.Finish()
	assert.Equal(t, "<think>reason</think> Quantum Superposition Entangled Eigenstates", msg.Content)
	assert.Equal(t, "reason", msg.Think)
	assert.Equal(t, "Quantum Superposition Entangled Eigenstates", msg.Answer)
	assert.Equal(t, 7, turn.Stats().CompletionTokens)

	msgs := sess.History.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "explain entanglement", msgs[0].Content)
	assert.Equal(t, "explain entanglement", msgs[0].Answer)
	assert.Same(t, msg, msgs[1])

	assert.Equal(t, 2, sess.Stats().Messages)
	think, answer := sess.LastReply()
	assert.Equal(t, "reason", think)
	assert.Equal(t, "Quantum Superposition Entangled Eigenstates", answer)

	assert.Equal(t, session.DefaultModel, st.model)
	require.Len(t, st.messages, 2)
	assert.Equal(t, "system", st.messages[0].Role)
	assert.Equal(t, prompt.JargonSystem, st.messages[0].Content)
	assert.Equal(t, ollama.NewUserMessage("explain entanglement"), st.messages[1])
}

func TestJargonTurn_FinishIsIdempotentAndDrains(t *testing.T) {
	st := &fakeStreamer{body: ndjson("Four ", "Precise ", "Jargon ", "Words")}
	b := NewJargonBot(st, capability.NoOp(), nil)
	sess := session.NewJargonSession()

	turn := b.Begin(context.Background(), sess, "q")
	msg := turn.Finish()
	assert.Equal(t, "Four Precise Jargon Words", msg.Content)
	assert.Same(t, msg, turn.Finish())
	assert.Equal(t, 2, sess.History.Len())

	_, ok := turn.Next()
	assert.False(t, ok)
}

func TestJargonTurn_HistoryBound(t *testing.T) {
	st := &fakeStreamer{body: ndjson("ok")}
	b := NewJargonBot(st, capability.NoOp(), nil)
	sess := session.NewJargonSession()
	for i := 0; i < 20; i++ {
		if i%2 == 0 {
			sess.History.Append(model.NewUserMessage("u"))
		} else {
			sess.History.Append(model.NewAssistantMessage("<think>t</think> a", "t", "a"))
		}
	}

	b.Run(context.Background(), sess, "latest", nil)

	require.Len(t, st.messages, 1+prompt.HistoryLimit+1)
	assert.Equal(t, "latest", st.messages[len(st.messages)-1].Content)
	assert.Equal(t, "<think>t</think> a", st.messages[len(st.messages)-2].Content, "raw content is replayed")
	assert.Equal(t, 22, sess.History.Len())
}

func TestJargonTurn_DocumentTruncated(t *testing.T) {
	st := &fakeStreamer{body: ndjson("ok")}
	b := NewJargonBot(st, capability.NoOp(), nil)
	sess := session.NewJargonSession()
	sess.SetDocument("long.pdf", strings.Repeat("x", 5000))

	b.Run(context.Background(), sess, "Summarize uploaded PDF", nil)

	want := prompt.JargonSystem + "\n\nPDF CONTEXT:\n" + strings.Repeat("x", 4000)
	assert.Equal(t, want, st.messages[0].Content)
}

func TestJargonTurn_OpenFailure(t *testing.T) {
	st := &fakeStreamer{err: ollama.ErrNotRunning}
	b := NewJargonBot(st, capability.NoOp(), nil)
	sess := session.NewJargonSession()

	var deltas []Delta
	msg := b.Run(context.Background(), sess, "hello", func(d Delta) { deltas = append(deltas, d) })

	want := "⚠ Ollama error: Ollama is not running\n\nMake sure `ollama serve` is running and model is pulled."
	require.Len(t, deltas, 1)
	assert.True(t, deltas[0].Failed)
	assert.Equal(t, want, deltas[0].Fragment)
	assert.Equal(t, want, deltas[0].Cumulative)

	assert.Equal(t, want, msg.Content)
	assert.Equal(t, want, msg.Answer)
	assert.Empty(t, msg.Think)
	assert.Equal(t, 2, sess.History.Len(), "exactly one assistant entry")
}

func TestJargonTurn_MidStreamFailure(t *testing.T) {
	body := `{"message":{"role":"assistant","content":"<think>partial"},"done":false}` + "\n" +
		`{"error":"model runner crashed"}` + "\n"
	st := &fakeStreamer{body: body}
	b := NewJargonBot(st, capability.NoOp(), nil)
	sess := session.NewJargonSession()

	turn := b.Begin(context.Background(), sess, "hello")
	first, ok := turn.Next()
	require.True(t, ok)
	assert.Equal(t, "<think>partial", first.Cumulative)

	last, ok := turn.Next()
	require.True(t, ok)
	assert.True(t, last.Failed)
	assert.Equal(t, last.Fragment, last.Cumulative)
	assert.Contains(t, last.Cumulative, "model runner crashed")

	_, ok = turn.Next()
	assert.False(t, ok)
	assert.True(t, turn.Failed())
	assert.Equal(t, last.Cumulative, turn.Finish().Content)
}

func TestJargonTurn_Translation(t *testing.T) {
	tr := &fakeTranslator{}
	sp := &fakeSpeaker{}
	caps := capability.NoOp()
	caps.Translator = tr
	caps.Speaker = sp

	st := &fakeStreamer{body: ndjson("<think>x</think>Answer Words Here Now")}
	b := NewJargonBot(st, caps, nil)
	sess := session.NewJargonSession()
	sess.ApplySettings(session.Settings{Language: "ta", ThinkingVisible: true, SpeakAnswers: true})

	msg := b.Run(context.Background(), sess, "வணக்கம்", nil)

	assert.Equal(t, "[en] வணக்கம்", st.messages[len(st.messages)-1].Content, "prompt is sent in English")
	assert.Equal(t, "வணக்கம்", sess.History.Messages()[0].Content, "user message keeps the original text")
	assert.Equal(t, "[ta] Answer Words Here Now", msg.Answer)
	assert.Equal(t, "<think>x</think>Answer Words Here Now", msg.Content)
	assert.Equal(t, []string{"[ta] Answer Words Here Now"}, sp.spoken)
}

func TestJargonTurn_EnglishSkipsTranslation(t *testing.T) {
	tr := &fakeTranslator{}
	sp := &fakeSpeaker{}
	caps := capability.NoOp()
	caps.Translator = tr
	caps.Speaker = sp

	st := &fakeStreamer{body: ndjson("Plain Answer Four Words")}
	b := NewJargonBot(st, caps, nil)
	sess := session.NewJargonSession()

	b.Run(context.Background(), sess, "hello", nil)
	assert.Empty(t, tr.calls)
	assert.Empty(t, sp.spoken, "speech is off by default")
}

func TestJargonBegin_BlankInput(t *testing.T) {
	st := &fakeStreamer{body: ndjson("x")}
	b := NewJargonBot(st, capability.NoOp(), nil)
	sess := session.NewJargonSession()

	assert.Nil(t, b.Begin(context.Background(), sess, " \n "))
	assert.Nil(t, b.Run(context.Background(), sess, "", nil))
	assert.Equal(t, 0, sess.History.Len())
	assert.Equal(t, 0, sess.Stats().Messages)
}

func TestJargonTurn_AgainstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollama.ChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)
		assert.Equal(t, "qwen3:8b", req.Model)
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.Write([]byte(ndjson("<think>", "deduce", "</think>", "Bayesian Posterior Inference Converged")))
	}))
	defer srv.Close()

	client := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: srv.URL})
	b := NewJargonBot(client, capability.NoOp(), nil)
	sess := session.NewJargonSession()
	sess.ApplySettings(session.Settings{Model: "qwen3:8b", ThinkingVisible: true})

	msg := b.Run(context.Background(), sess, "probability?", nil)
	assert.Equal(t, "deduce", msg.Think)
	assert.Equal(t, "Bayesian Posterior Inference Converged", msg.Answer)
}

// =============================================================================
// DOCUMENTS
// =============================================================================

type fakeExtractor struct {
	text string
	err  error
}

func (f fakeExtractor) Extract(context.Context, io.ReaderAt, int64) (string, error) {
	return f.text, f.err
}

func TestLoadDocument(t *testing.T) {
	caps := capability.NoOp()
	caps.Documents = fakeExtractor{text: "alpha beta gamma"}
	b := NewJargonBot(&fakeStreamer{}, caps, nil)
	sess := session.NewJargonSession()

	sum, err := b.LoadDocument(context.Background(), sess, "/tmp/papers/notes.pdf", strings.NewReader("x"), 1)
	require.NoError(t, err)
	assert.Equal(t, "notes.pdf", sum.Name)
	assert.Equal(t, 3, sum.Words)

	name, text := sess.LoadedDocument()
	assert.Equal(t, "notes.pdf", name)
	assert.Equal(t, "alpha beta gamma", text)
}

func TestLoadDocument_ReadErrorBecomesContext(t *testing.T) {
	caps := capability.NoOp()
	caps.Documents = fakeExtractor{err: errors.New("bad xref")}
	b := NewJargonBot(&fakeStreamer{}, caps, nil)
	sess := session.NewJargonSession()

	_, err := b.LoadDocument(context.Background(), sess, "a.pdf", strings.NewReader("x"), 1)
	require.NoError(t, err)
	_, text := sess.LoadedDocument()
	assert.Equal(t, "PDF read error: bad xref", text)
}

func TestLoadDocument_Disabled(t *testing.T) {
	b := NewJargonBot(&fakeStreamer{}, capability.NoOp(), nil)
	sess := session.NewJargonSession()

	_, err := b.LoadDocument(context.Background(), sess, "a.pdf", strings.NewReader("x"), 1)
	assert.ErrorIs(t, err, ErrDocumentsDisabled)
	name, _ := sess.LoadedDocument()
	assert.Empty(t, name)
}
