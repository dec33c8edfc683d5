// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with Ollama API.
package ollama

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the Ollama client.
type ClientError struct {
	Type       ErrorType
	Message    string
	StatusCode int // HTTP status for ErrTypeStatus and ErrTypeModelNotFound
	Cause      error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches any ClientError of the same Type, so callers can compare
// against the sentinels below with errors.Is.
func (e *ClientError) Is(target error) bool {
	var t *ClientError
	if !errors.As(target, &t) {
		return false
	}
	return t.Type == e.Type
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeNotRunning
	ErrTypeTimeout
	ErrTypeModelNotFound
	ErrTypeStatus
	ErrTypeConnection
	ErrTypeInvalidResponse
)

var errorTypeNames = [...]string{
	ErrTypeUnknown:         "unknown",
	ErrTypeNotRunning:      "not_running",
	ErrTypeTimeout:         "timeout",
	ErrTypeModelNotFound:   "model_not_found",
	ErrTypeStatus:          "status",
	ErrTypeConnection:      "connection",
	ErrTypeInvalidResponse: "invalid_response",
}

func (t ErrorType) String() string {
	if t < 0 || int(t) >= len(errorTypeNames) {
		return errorTypeNames[ErrTypeUnknown]
	}
	return errorTypeNames[t]
}

// Sentinel errors for easy checking.
var (
	ErrNotRunning    = &ClientError{Type: ErrTypeNotRunning, Message: "Ollama is not running"}
	ErrTimeout       = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrModelNotFound = &ClientError{Type: ErrTypeModelNotFound, Message: "model not found"}
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

const (
	// DefaultBaseURL is where a local Ollama listens.
	DefaultBaseURL = "http://localhost:11434"

	// DefaultTimeout bounds blocking requests.
	DefaultTimeout = 60 * time.Second
)

// ClientConfig holds configuration options for the Ollama client.
type ClientConfig struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434)
	BaseURL string

	// Timeout for blocking requests (default: 60s)
	Timeout time.Duration

	// StreamTimeout bounds the wait for response headers of a streaming
	// request (default: 60s). The body itself is bounded by the context.
	StreamTimeout time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:       DefaultBaseURL,
		Timeout:       DefaultTimeout,
		StreamTimeout: DefaultTimeout,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to one Ollama server. It is safe for concurrent use.
//
// Blocking calls share one http.Client bounded by Timeout. Streams use a
// client without an overall deadline, so only the wait for headers is
// bounded and the body lives as long as the caller's context.
type Client struct {
	config       *ClientConfig
	httpClient   *http.Client
	streamClient *http.Client
}

// NewClient creates a client for a local Ollama with default settings.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a client. Zero fields take their defaults.
func NewClientWithConfig(config *ClientConfig) *Client {
	cfg := *DefaultConfig()
	if config != nil {
		cfg.BaseURL = cmp.Or(config.BaseURL, cfg.BaseURL)
		cfg.Timeout = cmp.Or(config.Timeout, cfg.Timeout)
		cfg.StreamTimeout = cmp.Or(config.StreamTimeout, cfg.StreamTimeout)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = cfg.StreamTimeout

	return &Client{
		config:       &cfg,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		streamClient: &http.Client{Transport: transport},
	}
}

// BaseURL returns the server address without a trailing slash.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// send issues one request and returns the response only when Ollama
// answered 200. On any other status the body is consumed into the error.
// A nil payload sends a GET.
func (c *Client) send(ctx context.Context, hc *http.Client, path string, payload any, failure string) (*http.Response, error) {
	method, body := http.MethodGet, io.Reader(nil)
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "encode request", Cause: err}
		}
		method, body = http.MethodPost, bytes.NewReader(data)
	}

	// Ollama is local, so plain HTTP is expected.
	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "build request", Cause: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	if resp.StatusCode != http.StatusOK {
		defer drainAndClose(resp.Body)
		return nil, statusError(resp, failure)
	}
	return resp, nil
}

// call runs a blocking request and decodes the JSON reply into out.
func (c *Client) call(ctx context.Context, path string, payload, out any, failure string) error {
	resp, err := c.send(ctx, c.httpClient, path, payload, failure)
	if err != nil {
		return err
	}
	defer drainAndClose(resp.Body)

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if isTimeout(err) {
			return &ClientError{Type: ErrTypeTimeout, Message: ErrTimeout.Message, Cause: err}
		}
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "decode response", Cause: err}
	}
	return nil
}

// =============================================================================
// ENDPOINTS
// =============================================================================

// CheckRunning reports whether the server answers at all.
func (c *Client) CheckRunning(ctx context.Context) error {
	return c.call(ctx, "/", nil, nil, "unexpected status from Ollama")
}

// ListModels returns the installed models from /api/tags.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	var out ListModelsResponse
	if err := c.call(ctx, "/api/tags", nil, &out, "list models"); err != nil {
		return nil, err
	}
	return out.Models, nil
}

// Generate runs a blocking completion on /api/generate. req.Stream is
// always sent as false.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	req.Stream = false
	var out GenerateResponse
	if err := c.call(ctx, "/api/generate", req, &out, "generate"); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChatStream opens a streaming /api/chat request. The caller must Close
// the returned Stream.
func (c *Client) ChatStream(ctx context.Context, model string, messages []Message) (*Stream, error) {
	resp, err := c.send(ctx, c.streamClient, "/api/chat", ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   true,
	}, "chat stream")
	if err != nil {
		return nil, err
	}
	return newStream(resp.Body), nil
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

func IsModelNotFound(err error) bool { return errors.Is(err, ErrModelNotFound) }

// IsNotRunning reports a refused or failed connection.
func IsNotRunning(err error) bool { return errors.Is(err, ErrNotRunning) }

func IsTimeout(err error) bool { return errors.Is(err, ErrTimeout) }

// IsStatus reports whether Ollama answered with a non-success HTTP status.
func IsStatus(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce) && ce.StatusCode != 0
}

// transportError classifies a failure of http.Client.Do.
func transportError(err error) error {
	switch {
	case isTimeout(err):
		return &ClientError{Type: ErrTypeTimeout, Message: ErrTimeout.Message, Cause: err}
	case errors.Is(err, context.Canceled):
		return &ClientError{Type: ErrTypeUnknown, Message: "request canceled", Cause: err}
	default:
		return &ClientError{Type: ErrTypeNotRunning, Message: ErrNotRunning.Message, Cause: err}
	}
}

// statusError prefers the message in Ollama's {"error": ...} body.
func statusError(resp *http.Response, failure string) error {
	ce := &ClientError{Type: ErrTypeStatus, StatusCode: resp.StatusCode, Message: failure + ": " + resp.Status}
	if resp.StatusCode == http.StatusNotFound {
		ce.Type = ErrTypeModelNotFound
	}

	var body OllamaError
	if json.NewDecoder(resp.Body).Decode(&body) == nil && body.Error != "" {
		ce.Message = body.Error
	}
	return ce
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout())
}

func drainAndClose(r io.ReadCloser) {
	io.Copy(io.Discard, r)
	r.Close()
}
