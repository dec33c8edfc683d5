// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package capability

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// =============================================================================
// PDF EXTRACTOR
// =============================================================================

// PageSeparator joins the text of consecutive pages.
const PageSeparator = "\n\n"

// PDFExtractor extracts the plain text of every page of a PDF.
type PDFExtractor struct {
	// MaxPages stops extraction early. Zero means all pages.
	MaxPages int
}

// NewPDFExtractor creates an extractor for all pages.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Extract returns the text of each page joined by PageSeparator.
func (p *PDFExtractor) Extract(ctx context.Context, r io.ReaderAt, size int64) (text string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	pages := reader.NumPage()
	if p.MaxPages > 0 && pages > p.MaxPages {
		pages = p.MaxPages
	}

	parts := make([]string, 0, pages)
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			parts = append(parts, "")
			continue
		}
		// Font resources are per page; nil lets the reader load them.
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		parts = append(parts, content)
	}

	return strings.Join(parts, PageSeparator), nil
}
