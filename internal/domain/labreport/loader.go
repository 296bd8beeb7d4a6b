package labreport

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/yanqian/keto-dashboard/pkg/errors"
	"github.com/yanqian/keto-dashboard/pkg/util"
)

// TextExtractor decodes every page of a PDF into one text blob.
type TextExtractor interface {
	ExtractText(ctx context.Context, content []byte) (string, error)
}

// LoaderConfig limits accepted uploads.
type LoaderConfig struct {
	MaxFileBytes int64
}

// Loader turns uploaded files into dated readings.
type Loader struct {
	cfg       LoaderConfig
	extractor *Extractor
	pdf       TextExtractor
	logger    *slog.Logger
	now       func() time.Time
}

// NewLoader wires the PDF collaborator and the value extractor.
func NewLoader(cfg LoaderConfig, extractor *Extractor, pdf TextExtractor, logger *slog.Logger) *Loader {
	return &Loader{
		cfg:       cfg,
		extractor: extractor,
		pdf:       pdf,
		logger:    logger.With("component", "labreport.loader"),
		now:       util.NowUTC,
	}
}

// Load parses one uploaded file. Unsupported extensions fail with unsupported_file_type.
func (l *Loader) Load(ctx context.Context, filename string, content []byte) (DatedReport, error) {
	name := strings.TrimSpace(filename)
	ext := strings.ToLower(filepath.Ext(name))
	if ext != ".pdf" && ext != ".csv" {
		return DatedReport{}, apperrors.Wrap("unsupported_file_type", "only .pdf and .csv reports are supported", nil)
	}
	if len(content) == 0 {
		return DatedReport{}, apperrors.Wrap("invalid_input", "file content cannot be empty", nil)
	}
	if l.cfg.MaxFileBytes > 0 && int64(len(content)) > l.cfg.MaxFileBytes {
		return DatedReport{}, apperrors.Wrap("invalid_input", "file exceeds maximum allowed size", nil)
	}

	var (
		reading Reading
		source  SourceKind
		err     error
	)
	switch ext {
	case ".pdf":
		source = SourcePDF
		reading, err = l.loadPDF(ctx, content)
	case ".csv":
		source = SourceCSV
		reading, err = loadCSV(content)
	}
	if err != nil {
		return DatedReport{}, err
	}

	now := l.now()
	report := DatedReport{
		ID:         uuid.New(),
		Filename:   name,
		Source:     source,
		Date:       DateFromFilename(name, now),
		Reading:    reading,
		UploadedAt: now,
	}
	l.logger.Info("report loaded", "filename", name, "source", source, "markers", len(reading), "date", report.Date.Format(time.DateOnly))
	return report, nil
}

func (l *Loader) loadPDF(ctx context.Context, content []byte) (Reading, error) {
	if l.pdf == nil {
		return nil, apperrors.Wrap("invalid_input", "pdf reports are not supported by this server", nil)
	}
	text, err := l.pdf.ExtractText(ctx, content)
	if err != nil {
		return nil, apperrors.Wrap("invalid_input", "failed to read pdf", err)
	}
	return l.extractor.ExtractAll(text), nil
}

// loadCSV maps the first data row directly by column name. Columns that are
// not marker names and cells that are not numbers are ignored.
func loadCSV(content []byte) (Reading, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(content, []byte("\ufeff"))))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.Wrap("invalid_input", "tabular report is empty", nil)
		}
		return nil, apperrors.Wrap("invalid_input", "failed to parse tabular report", err)
	}
	row, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.Wrap("invalid_input", "tabular report has no data rows", nil)
		}
		return nil, apperrors.Wrap("invalid_input", "failed to parse tabular report", err)
	}

	reading := make(Reading)
	for i, column := range header {
		m := Marker(strings.TrimSpace(column))
		if !m.IsKnown() || i >= len(row) {
			continue
		}
		cell := strings.TrimSpace(row[i])
		if cell == "" {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			continue
		}
		reading[m] = v
	}
	return reading, nil
}

// DateFromFilename returns the first YYYY-MM-DD token in name, or fallback.
func DateFromFilename(name string, fallback time.Time) time.Time {
	if date, ok := util.FindDate(filepath.Base(name)); ok {
		return date
	}
	return fallback
}
