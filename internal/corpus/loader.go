package corpus

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"nyaymitra/internal/contextutil"
)

// Loader reads the knowledge base file once and hands out the same snapshot afterwards.
type Loader struct {
	path   string
	once   sync.Once
	corpus *Corpus
}

// NewLoader creates a loader for the knowledge base at path.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Path returns the configured knowledge base path.
func (l *Loader) Path() string {
	return l.path
}

// Load reads the knowledge base on the first call and is a no-op afterwards.
// A missing or unreadable file yields an empty corpus rather than an error.
// Concurrent first callers block until the single load finishes.
func (l *Loader) Load(ctx context.Context) *Corpus {
	l.once.Do(func() {
		l.corpus = Read(ctx, l.path)
	})
	return l.corpus
}

// Read loads path into a fresh corpus without any caching.
func Read(ctx context.Context, path string) *Corpus {
	logger := contextutil.LoggerFromContext(ctx)
	source := filepath.Base(path)

	logger.InfoContext(ctx, "loading knowledge base", "path", path)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.WarnContext(ctx, "knowledge base not found, using empty corpus", "path", path)
		} else {
			logger.ErrorContext(ctx, "failed to read knowledge base, using empty corpus", "path", path, "error", err)
		}
		return NewCorpus(source, "")
	}

	c := NewCorpus(source, string(data))
	logger.InfoContext(ctx, "knowledge base loaded", "path", path, "characters", c.Len(), "version", c.Version())
	return c
}
