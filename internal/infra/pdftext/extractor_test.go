package pdftext

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractTextRejectsNonPDF(t *testing.T) {
	ext := NewExtractor(slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := ext.ExtractText(context.Background(), []byte("Fasting Glucose: 120 mg/dL"))
	require.Error(t, err)
}

func TestExtractTextRejectsTruncatedPDF(t *testing.T) {
	ext := NewExtractor(nil)

	_, err := ext.ExtractText(context.Background(), []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n"))
	require.Error(t, err)
}
