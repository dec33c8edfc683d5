// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/gemmabots/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports transcripts to JSON.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// Export converts a transcript to indented JSON.
func (e *JSONExporter) Export(t *Transcript) ([]byte, error) {
	if t == nil {
		return nil, fmt.Errorf("transcript is nil")
	}
	return json.MarshalIndent(filtered(t, e.options), "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string { return ".json" }

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string { return "application/json" }

// =============================================================================
// YAML EXPORTER
// =============================================================================

// YAMLExporter exports transcripts to YAML.
type YAMLExporter struct {
	options *Options
}

// NewYAMLExporter creates a new YAML exporter.
func NewYAMLExporter(opts *Options) *YAMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &YAMLExporter{options: opts}
}

// Export converts a transcript to YAML.
func (e *YAMLExporter) Export(t *Transcript) ([]byte, error) {
	if t == nil {
		return nil, fmt.Errorf("transcript is nil")
	}
	return yaml.Marshal(filtered(t, e.options))
}

// FileExtension returns the file extension for YAML.
func (e *YAMLExporter) FileExtension() string { return ".yaml" }

// MimeType returns the MIME type for YAML.
func (e *YAMLExporter) MimeType() string { return "application/yaml" }

// filtered returns t with reasoning removed when the options exclude it.
func filtered(t *Transcript, opts *Options) *Transcript {
	if opts.IncludeThinking {
		return t
	}
	clone := *t
	clone.Messages = make([]*model.Message, len(t.Messages))
	for i, msg := range t.Messages {
		m := *msg
		m.Think = ""
		clone.Messages[i] = &m
	}
	return &clone
}
