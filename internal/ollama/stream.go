// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with Ollama API.
package ollama

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"
)

// =============================================================================
// STREAM
// =============================================================================

// Stream is a pull-based sequence of chunks from a streaming chat response.
// Each call to Next blocks until the backend emits the next NDJSON line.
//
// A Stream is consumed by a single goroutine.
type Stream struct {
	body   io.ReadCloser
	reader *bufio.Reader

	// PERFORMANCE: strings.Builder avoids quadratic allocations
	content strings.Builder
	model   string
	chunks  int
	done    bool
	err     error
}

func newStream(body io.ReadCloser) *Stream {
	return &Stream{
		body:   body,
		reader: bufio.NewReader(body),
	}
}

// NewStreamFromReader wraps an NDJSON reader, mainly for tests and replay.
func NewStreamFromReader(r io.Reader) *Stream {
	rc, ok := r.(io.ReadCloser)
	if !ok {
		rc = io.NopCloser(r)
	}
	return newStream(rc)
}

// Next returns the next chunk. It returns io.EOF once the backend has
// reported completion or closed the body. Empty and malformed lines are
// skipped. A line carrying an "error" field ends the stream with a
// ClientError.
func (s *Stream) Next() (Chunk, error) {
	if s.err != nil {
		return Chunk{}, s.err
	}
	if s.done {
		return Chunk{}, io.EOF
	}

	for {
		line, readErr := s.reader.ReadBytes('\n')
		if len(line) > 0 {
			chunk, ok, err := s.parse(line)
			if err != nil {
				s.err = err
				return Chunk{}, err
			}
			if ok {
				return chunk, nil
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				s.done = true
				return Chunk{}, io.EOF
			}
			s.err = readError(readErr)
			return Chunk{}, s.err
		}
	}
}

// parse decodes one NDJSON line. ok is false for lines that carry nothing.
func (s *Stream) parse(line []byte) (Chunk, bool, error) {
	line = trimLine(line)
	if len(line) == 0 {
		return Chunk{}, false, nil
	}

	var resp chatLine
	if err := json.Unmarshal(line, &resp); err != nil {
		// Skip malformed lines
		return Chunk{}, false, nil
	}

	if resp.Error != "" {
		return Chunk{}, false, &ClientError{Type: ErrTypeInvalidResponse, Message: resp.Error}
	}

	if resp.Model != "" {
		s.model = resp.Model
	}
	if resp.Message.Content != "" {
		s.content.WriteString(resp.Message.Content)
		s.chunks++
	}

	chunk := Chunk{
		Model:      s.model,
		Role:       resp.Message.Role,
		Content:    resp.Message.Content,
		Done:       resp.Done,
		DoneReason: resp.DoneReason,
	}

	if resp.Done {
		s.done = true
		chunk.TotalDuration = time.Duration(resp.TotalDuration)
		chunk.EvalDuration = time.Duration(resp.EvalDuration)
		chunk.PromptTokens = resp.PromptEvalCount
		chunk.CompletionTokens = resp.EvalCount
	}

	return chunk, true, nil
}

// Content returns everything received so far.
func (s *Stream) Content() string {
	return s.content.String()
}

// Model returns the model name reported by the backend.
func (s *Stream) Model() string {
	return s.model
}

// Chunks returns the number of non-empty content chunks received.
func (s *Stream) Chunks() int {
	return s.chunks
}

// Close releases the underlying response body.
func (s *Stream) Close() error {
	if s.body == nil {
		return nil
	}
	err := s.body.Close()
	s.body = nil
	return err
}

func trimLine(line []byte) []byte {
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line
}

func readError(err error) error {
	if isTimeout(err) {
		return &ClientError{Type: ErrTypeTimeout, Message: ErrTimeout.Message, Cause: err}
	}
	return &ClientError{Type: ErrTypeConnection, Message: "stream interrupted", Cause: err}
}
