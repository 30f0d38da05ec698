// Package upload turns user-uploaded PDF and text files into plain text for the chat assistant.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"

	"nyaymitra/internal/contextutil"
)

// DefaultMaxSize is the largest accepted upload (10MB).
const DefaultMaxSize int64 = 10 * 1024 * 1024

const (
	mimePDF  = "application/pdf"
	mimeText = "text/plain"
)

var (
	// ErrUnsupportedType is returned for anything other than PDF or plain text.
	ErrUnsupportedType = errors.New("only PDF and TXT files are allowed")
	// ErrTooLarge is returned when the upload exceeds the size limit.
	ErrTooLarge = errors.New("file exceeds the upload size limit")
	// ErrExtraction is returned when a supported file cannot be read.
	ErrExtraction = errors.New("failed to extract text from document")
)

// Document is an uploaded file reduced to its text.
type Document struct {
	Name string
	MIME string
	Size int64
	Text string
}

// Extractor spools uploads to a scratch directory, sniffs their type and extracts text.
// Spooled files are always removed before Extract returns.
type Extractor struct {
	dir     string
	maxSize int64
}

// NewExtractor creates an extractor that spools into dir. maxSize <= 0 means DefaultMaxSize.
func NewExtractor(dir string, maxSize int64) *Extractor {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Extractor{dir: dir, maxSize: maxSize}
}

// MaxSize returns the upload size limit in bytes.
func (e *Extractor) MaxSize() int64 {
	return e.maxSize
}

// Extract reads r (the upload named name) and returns its text.
func (e *Extractor) Extract(ctx context.Context, name string, r io.Reader) (*Document, error) {
	logger := contextutil.LoggerFromContext(ctx)

	tmp, err := os.CreateTemp(e.dir, "upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create spool file: %w", err)
	}
	path := tmp.Name()
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.WarnContext(ctx, "failed to remove spooled upload", "path", path, "error", err)
		}
	}()

	size, err := io.Copy(tmp, io.LimitReader(r, e.maxSize+1))
	closeErr := tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to spool upload: %w", err)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("failed to spool upload: %w", closeErr)
	}
	if size > e.maxSize {
		return nil, ErrTooLarge
	}

	detected, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}

	doc := &Document{Name: name, Size: size}
	switch {
	case detected.Is(mimePDF):
		doc.MIME = mimePDF
		doc.Text, err = pdfText(path)
	case detected.Is(mimeText):
		doc.MIME = mimeText
		doc.Text, err = plainText(path)
	default:
		logger.InfoContext(ctx, "rejected upload", "name", name, "mime", detected.String())
		return nil, fmt.Errorf("%w: got %s", ErrUnsupportedType, detected.String())
	}
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "extracted upload", "name", name, "mime", doc.MIME, "bytes", size, "characters", utf8.RuneCountInString(doc.Text))
	return doc, nil
}

func pdfText(path string) (text string, err error) {
	// The PDF parser panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrExtraction, rec)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	defer func() {
		_ = f.Close()
	}()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	return buf.String(), nil
}

func plainText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}
