package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extractor pulls the plain text layer out of PDF documents.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor constructs the PDF text collaborator.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger.With("component", "pdftext.extractor")}
}

// ExtractText concatenates the text of every page, one page per line block.
// Pages without a text layer contribute nothing.
func (e *Extractor) ExtractText(ctx context.Context, content []byte) (text string, err error) {
	// The decoder panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decode pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var b strings.Builder
	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Warn("skipping unreadable page", "page", i, "error", err)
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(pageText)
	}
	e.logger.Debug("pdf text extracted", "pages", total, "chars", b.Len())
	return b.String(), nil
}
