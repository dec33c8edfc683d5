// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package capability

import (
	"context"
	"errors"
	"io"
	"log/slog"
)

// =============================================================================
// INTERFACES
// =============================================================================

// ErrUnavailable is returned by the no-op stand-ins.
var ErrUnavailable = errors.New("capability not configured")

// DocumentExtractor turns a binary document into plain text.
type DocumentExtractor interface {
	Extract(ctx context.Context, r io.ReaderAt, size int64) (string, error)
}

// Recognizer captures a bounded audio window and returns the recognized text.
type Recognizer interface {
	Listen(ctx context.Context) (string, error)
}

// Speaker reads text aloud.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Translator translates text. source may be "auto".
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// availability is implemented by the no-op stand-ins.
type availability interface {
	Available() bool
}

// =============================================================================
// NO-OP STAND-INS
// =============================================================================

type noDocuments struct{}

func (noDocuments) Extract(context.Context, io.ReaderAt, int64) (string, error) {
	return "", ErrUnavailable
}
func (noDocuments) Available() bool { return false }

type noRecognizer struct{}

func (noRecognizer) Listen(context.Context) (string, error) { return "", ErrUnavailable }
func (noRecognizer) Available() bool                       { return false }

type noSpeaker struct{}

func (noSpeaker) Speak(context.Context, string) error { return nil }
func (noSpeaker) Available() bool                     { return false }

type noTranslator struct{}

func (noTranslator) Translate(_ context.Context, text, _, _ string) (string, error) {
	return text, ErrUnavailable
}
func (noTranslator) Available() bool { return false }

// =============================================================================
// SET
// =============================================================================

// DefaultLanguage is the language the model is prompted in.
const DefaultLanguage = "en"

// DocumentUnavailable is shown when a document is uploaded but no extractor
// is configured.
const DocumentUnavailable = "PDF extraction unavailable. Enable [capabilities.pdf] in config"

// Set is the capability bundle injected into the jargon bot.
type Set struct {
	Documents  DocumentExtractor
	Recognizer Recognizer
	Speaker    Speaker
	Translator Translator

	Log *slog.Logger
}

// NoOp returns a Set where every capability is absent.
func NoOp() Set {
	return Set{
		Documents:  noDocuments{},
		Recognizer: noRecognizer{},
		Speaker:    noSpeaker{},
		Translator: noTranslator{},
		Log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// withDefaults fills nil fields with stand-ins.
func (s Set) withDefaults() Set {
	base := NoOp()
	if s.Documents == nil {
		s.Documents = base.Documents
	}
	if s.Recognizer == nil {
		s.Recognizer = base.Recognizer
	}
	if s.Speaker == nil {
		s.Speaker = base.Speaker
	}
	if s.Translator == nil {
		s.Translator = base.Translator
	}
	if s.Log == nil {
		s.Log = base.Log
	}
	return s
}

// ReadDocument extracts text, or returns a diagnostic string in its place.
func (s Set) ReadDocument(ctx context.Context, r io.ReaderAt, size int64) string {
	s = s.withDefaults()
	if !available(s.Documents) {
		return DocumentUnavailable
	}
	text, err := s.Documents.Extract(ctx, r, size)
	if err != nil {
		s.Log.Warn("document extraction failed", "error", err)
		return "PDF read error: " + err.Error()
	}
	return text
}

// Listen records and recognizes speech. Failures yield "".
func (s Set) Listen(ctx context.Context) string {
	s = s.withDefaults()
	text, err := s.Recognizer.Listen(ctx)
	if err != nil {
		if !errors.Is(err, ErrUnavailable) {
			s.Log.Warn("speech recognition failed", "error", err)
		}
		return ""
	}
	return text
}

// Speak reads text aloud. Failures are logged and dropped.
func (s Set) Speak(ctx context.Context, text string) {
	s = s.withDefaults()
	if text == "" {
		return
	}
	if err := s.Speaker.Speak(ctx, text); err != nil {
		s.Log.Warn("speech synthesis failed", "error", err)
	}
}

// Localize translates text into target. It returns text unchanged when the
// target is DefaultLanguage or translation fails.
func (s Set) Localize(ctx context.Context, text, target string) string {
	if target == "" || target == DefaultLanguage {
		return text
	}
	return s.translate(ctx, text, target)
}

// Normalize translates text into DefaultLanguage, unchanged on failure.
func (s Set) Normalize(ctx context.Context, text string) string {
	return s.translate(ctx, text, DefaultLanguage)
}

func (s Set) translate(ctx context.Context, text, target string) string {
	s = s.withDefaults()
	if text == "" || !available(s.Translator) {
		return text
	}
	out, err := s.Translator.Translate(ctx, text, "auto", target)
	if err != nil || out == "" {
		if err != nil {
			s.Log.Warn("translation failed", "target", target, "error", err)
		}
		return text
	}
	return out
}

// =============================================================================
// STATUS BADGES
// =============================================================================

// Badge reports whether a capability is active.
type Badge struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// Status lists the capability badges in display order.
func (s Set) Status() []Badge {
	s = s.withDefaults()
	return []Badge{
		{Name: "Voice I/O", Active: available(s.Recognizer)},
		{Name: "TTS", Active: available(s.Speaker)},
		{Name: "PDF", Active: available(s.Documents)},
		{Name: "Translate", Active: available(s.Translator)},
		{Name: "Thinking", Active: true},
		{Name: "Streaming", Active: true},
	}
}

// Has reports whether the named badge is active.
func (s Set) Has(name string) bool {
	for _, b := range s.Status() {
		if b.Name == name {
			return b.Active
		}
	}
	return false
}

func available(v any) bool {
	if a, ok := v.(availability); ok {
		return a.Available()
	}
	return true
}
