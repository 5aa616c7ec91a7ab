// Package loader turns uploaded PDF bytes into plain text.
package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Extractor reads a PDF stream and returns its text.
type Extractor interface {
	Extract(ctx context.Context, r io.Reader) (string, error)
}

type PDFLoader struct {
	conf   *model.Configuration
	logger *slog.Logger
}

func NewPDFLoader(logger *slog.Logger) *PDFLoader {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFLoader{
		conf:   conf,
		logger: logger.With(slog.String("module", "loader")),
	}
}

// Extract validates the document structure with pdfcpu, then pulls the text
// of every page with ledongthuc/pdf. Page boundaries are not preserved.
func (l *PDFLoader) Extract(ctx context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rs := bytes.NewReader(data)
	if err := api.Validate(rs, l.conf); err != nil {
		return "", fmt.Errorf("invalid pdf: %w", err)
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	pages, err := api.PageCount(rs, l.conf)
	if err != nil {
		return "", fmt.Errorf("failed to count pages: %w", err)
	}

	text, err := plainText(data)
	if err != nil {
		return "", err
	}
	text = cleanText(text)
	if text == "" {
		// scanned or blank pages; the caller stores an empty summary
		l.logger.Warn("no text layer found", "pages", pages)
	}

	l.logger.Info("text extracted", "pages", pages, "bytes", len(data), "chars", len(text))
	return text, nil
}

// plainText wraps ledongthuc/pdf, which panics on some malformed streams.
func plainText(data []byte) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("failed to extract text: %v", p)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to create PDF reader: %w", err)
	}

	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}

	var buf strings.Builder
	if _, err := io.Copy(&buf, content); err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}
	return buf.String(), nil
}

var (
	spaceRun    = regexp.MustCompile(`[ \t\f\r]+`)
	newlineRun  = regexp.MustCompile(`\n{3,}`)
	controlChar = regexp.MustCompile(`[\x00-\x08\x0b\x0e-\x1f]`)
)

func cleanText(s string) string {
	s = controlChar.ReplaceAllString(s, "")
	s = spaceRun.ReplaceAllString(s, " ")
	s = newlineRun.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
