// Package docstore keeps generated PDF documents on disk until they are downloaded or expire.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"nyaymitra/internal/contextutil"
)

const pdfExt = ".pdf"

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidName is returned for names that are not plain PDF file names in the store.
	ErrInvalidName = errors.New("invalid document name")
)

// Document describes a stored file.
type Document struct {
	Filename string    `json:"filename"`
	Created  time.Time `json:"created"`
	Size     int64     `json:"size"`
}

// Store is a flat directory of generated PDFs.
type Store struct {
	dir string
	now func() time.Time
}

// New creates the directory if needed and returns a store rooted there.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create document directory %s: %w", dir, err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes a document for docType and returns its file name, e.g. "rti_application-1700000000000.pdf".
func (s *Store) Save(ctx context.Context, docType string, r io.Reader) (string, error) {
	base := slug.Make(docType)
	if base == "" {
		base = "document"
	}
	ms := s.now().UnixMilli()

	var (
		f    *os.File
		name string
		err  error
	)
	for attempt := 0; attempt < 100; attempt++ {
		name = base + "-" + strconv.FormatInt(ms+int64(attempt), 10) + pdfExt
		f, err = os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if !errors.Is(err, fs.ErrExist) {
			break
		}
	}
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", name, err)
	}

	_, err = io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "document saved", "filename", name)
	return name, nil
}

// path resolves name inside the store, rejecting anything but a bare .pdf file name.
func (s *Store) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") ||
		strings.ContainsAny(name, `/\`) || filepath.Ext(name) != pdfExt {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.dir, name), nil
}

// Stat describes a stored document.
func (s *Store) Stat(name string) (Document, error) {
	p, err := s.path(name)
	if err != nil {
		return Document{}, err
	}
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.Mode().IsRegular()) {
		return Document{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return Document{}, fmt.Errorf("failed to stat %s: %w", name, err)
	}
	return Document{Filename: name, Created: info.ModTime(), Size: info.Size()}, nil
}

// Open opens a stored document for reading. The caller closes the file.
func (s *Store) Open(name string) (*os.File, Document, error) {
	doc, err := s.Stat(name)
	if err != nil {
		return nil, Document{}, err
	}
	p, _ := s.path(name)
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, Document{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, Document{}, fmt.Errorf("failed to open %s: %w", name, err)
	}
	return f, doc, nil
}

// List returns every stored PDF, newest first.
func (s *Store) List(ctx context.Context) ([]Document, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read document directory: %w", err)
	}

	docs := make([]Document, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || filepath.Ext(entry.Name()) != pdfExt {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		docs = append(docs, Document{Filename: entry.Name(), Created: info.ModTime(), Size: info.Size()})
	}

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].Created.After(docs[j].Created)
	})
	return docs, nil
}

// Remove deletes a stored document.
func (s *Store) Remove(name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}

// RemoveAfter deletes name once delay has passed, e.g. after a download has been served.
func (s *Store) RemoveAfter(ctx context.Context, name string, delay time.Duration) *time.Timer {
	logger := contextutil.LoggerFromContext(ctx)
	return time.AfterFunc(delay, func() {
		if err := s.Remove(name); err != nil && !errors.Is(err, ErrNotFound) {
			logger.Warn("failed to remove downloaded document", "filename", name, "error", err)
			return
		}
		logger.Debug("removed downloaded document", "filename", name)
	})
}

// Cleanup removes documents last modified more than maxAge ago and returns how many were removed.
func (s *Store) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	docs, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := s.now().Add(-maxAge)
	removed := 0
	var errs []error
	for _, doc := range docs {
		if !doc.Created.Before(cutoff) {
			continue
		}
		if err := s.Remove(doc.Filename); err != nil && !errors.Is(err, ErrNotFound) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
