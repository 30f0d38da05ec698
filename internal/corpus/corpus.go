// Package corpus owns the legal knowledge base text that retrieval runs over.
package corpus

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode/utf8"
)

// Corpus is an immutable snapshot of the knowledge base.
// A nil *Corpus behaves like an empty one.
type Corpus struct {
	source  string
	text    string
	version string
}

// NewCorpus builds a corpus from in-memory text. source names where the text came from
// (for example "legal_data.txt") and is reported as the origin of retrieved sections.
func NewCorpus(source, text string) *Corpus {
	sum := sha256.Sum256([]byte(text))
	return &Corpus{
		source:  source,
		text:    text,
		version: hex.EncodeToString(sum[:])[:16],
	}
}

// Text returns the full corpus text.
func (c *Corpus) Text() string {
	if c == nil {
		return ""
	}
	return c.text
}

// Source returns the origin descriptor of the corpus.
func (c *Corpus) Source() string {
	if c == nil {
		return ""
	}
	return c.source
}

// Version identifies the content; two corpora with equal text share a version.
func (c *Corpus) Version() string {
	if c == nil {
		return ""
	}
	return c.version
}

// Empty reports whether the corpus holds no usable text (missing, empty, or whitespace only).
func (c *Corpus) Empty() bool {
	return c == nil || strings.TrimSpace(c.text) == ""
}

// Len returns the corpus length in characters.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return utf8.RuneCountInString(c.text)
}

// Load lets an already-built corpus act as its own source.
func (c *Corpus) Load(context.Context) *Corpus {
	return c
}
