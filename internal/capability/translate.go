// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// HTTP TRANSLATOR
// =============================================================================

// DefaultTranslateURL is the public Google Translate endpoint.
const DefaultTranslateURL = "https://translate.googleapis.com"

// TranslatorConfig configures an HTTPTranslator.
type TranslatorConfig struct {
	BaseURL string
	Timeout time.Duration

	// RequestsPerSecond caps outgoing calls; zero means 2/s.
	RequestsPerSecond float64
}

// HTTPTranslator calls a Google Translate compatible "translate_a/single"
// endpoint.
type HTTPTranslator struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPTranslator creates a translator.
func NewHTTPTranslator(cfg TranslatorConfig) *HTTPTranslator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultTranslateURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2
	}
	return &HTTPTranslator{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

// Translate sends one request. It waits for the rate limiter first.
func (t *HTTPTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	if source == "" {
		source = "auto"
	}
	if err := t.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", source)
	q.Set("tl", target)
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/translate_a/single?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translate request: %s", resp.Status)
	}

	var payload []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return joinSegments(payload)
}

// joinSegments concatenates the translated sentences of a response shaped
// [[["translated","original",...], ...], ...].
func joinSegments(payload []json.RawMessage) (string, error) {
	if len(payload) == 0 {
		return "", fmt.Errorf("empty translation response")
	}

	var segments [][]any
	if err := json.Unmarshal(payload[0], &segments); err != nil {
		return "", fmt.Errorf("unexpected translation payload: %w", err)
	}

	var b strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		if s, ok := seg[0].(string); ok {
			b.WriteString(s)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no translated text in response")
	}
	return b.String(), nil
}
