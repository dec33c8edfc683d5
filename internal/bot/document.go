// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bot

import (
	"context"
	"errors"
	"io"
	"path/filepath"

	"github.com/jeranaias/gemmabots/internal/capability"
	"github.com/jeranaias/gemmabots/internal/session"
)

// ErrDocumentsDisabled is returned by LoadDocument when no extractor is
// configured.
var ErrDocumentsDisabled = errors.New(capability.DocumentUnavailable)

// LoadDocument extracts r and installs the text as the session's document
// context. An extraction failure installs the read error text in its place,
// so the model sees why the document is missing.
func (b *JargonBot) LoadDocument(ctx context.Context, sess *session.JargonSession, name string, r io.ReaderAt, size int64) (session.DocumentSummary, error) {
	if !b.Capabilities.Has("PDF") {
		return session.DocumentSummary{}, ErrDocumentsDisabled
	}

	text := b.Capabilities.ReadDocument(ctx, r, size)
	sess.SetDocument(filepath.Base(name), text)

	sum, _ := sess.DocumentSummary()
	b.Log.Info("document loaded", "session", sess.ID, "name", sum.Name, "words", sum.Words)
	return sum, nil
}

// Listen captures one utterance for the input box. It returns "" when
// nothing was recognized or no recognizer is configured.
func (b *JargonBot) Listen(ctx context.Context) string {
	return b.Capabilities.Listen(ctx)
}
