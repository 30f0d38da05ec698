// Package retrieval implements lexical retrieval over the legal knowledge base: segmentation,
// weighted scoring, ranking and the fallback cascade that guarantees a non-empty result.
package retrieval

import (
	"context"
	"sync/atomic"
	"time"

	"nyaymitra/internal/contextutil"
	"nyaymitra/internal/corpus"
)

// Source supplies the corpus on first use. *corpus.Loader and *corpus.Corpus both satisfy it.
type Source interface {
	Load(ctx context.Context) *corpus.Corpus
}

// Observer receives one notification per retrieval call.
type Observer interface {
	ObserveRetrieval(outcome Type, entries int, elapsed time.Duration)
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithWeights overrides the scoring weights.
func WithWeights(w Weights) Option {
	return func(r *Retriever) {
		r.weights = w
	}
}

// WithObserver registers an observer for retrieval outcomes.
func WithObserver(o Observer) Option {
	return func(r *Retriever) {
		r.observer = o
	}
}

type segmentCache struct {
	version  string
	sections []Section
}

// Retriever is the retrieval entry point. It is safe for concurrent use.
type Retriever struct {
	source   Source
	weights  Weights
	observer Observer

	snapshot atomic.Pointer[corpus.Corpus]
	segments atomic.Pointer[segmentCache]
}

// New creates a Retriever that loads its corpus from source on first use.
func New(source Source, opts ...Option) *Retriever {
	r := &Retriever{
		source:  source,
		weights: DefaultWeights(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Weights returns the weights in use.
func (r *Retriever) Weights() Weights {
	return r.weights
}

// Swap replaces the corpus snapshot. Sections of the previous corpus are discarded.
func (r *Retriever) Swap(c *corpus.Corpus) {
	r.snapshot.Store(c)
}

// Corpus returns the current snapshot, loading it on first use.
func (r *Retriever) Corpus(ctx context.Context) *corpus.Corpus {
	if c := r.snapshot.Load(); c != nil {
		return c
	}
	var loaded *corpus.Corpus
	if r.source != nil {
		loaded = r.source.Load(ctx)
	}
	if loaded == nil {
		loaded = corpus.NewCorpus("", "")
	}
	if r.snapshot.CompareAndSwap(nil, loaded) {
		return loaded
	}
	return r.snapshot.Load()
}

// Sections returns the retained sections of the current corpus.
func (r *Retriever) Sections(ctx context.Context) []Section {
	return r.sectionsFor(r.Corpus(ctx))
}

func (r *Retriever) sectionsFor(c *corpus.Corpus) []Section {
	if cached := r.segments.Load(); cached != nil && cached.version == c.Version() {
		return cached.sections
	}
	sections := Segment(c.Text(), c.Source())
	r.segments.Store(&segmentCache{version: c.Version(), sections: sections})
	return sections
}

// Retrieve returns between 1 and k entries relevant to query. k <= 0 means DefaultK.
// It never fails: problems surface as a synthetic entry tagged TypeError.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) (result Result) {
	logger := contextutil.LoggerFromContext(ctx)
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			logger.ErrorContext(ctx, "retrieval failed", "panic", rec)
			result = Result{systemDocument(errorMessage, TypeError)}
		}
		if r.observer != nil {
			r.observer.ObserveRetrieval(result.Type(), len(result), time.Since(start))
		}
	}()

	if k <= 0 {
		k = DefaultK
	}

	c := r.Corpus(ctx)
	if c.Empty() {
		logger.WarnContext(ctx, "retrieval skipped, knowledge base is empty")
		return Result{systemDocument(noDataMessage, TypeNoData)}
	}

	sections := r.sectionsFor(c)
	logger.DebugContext(ctx, "searching knowledge base",
		"sections", len(sections),
		"query", truncate(query, 50),
		"k", k)

	result, scored := selectDocuments(query, sections, k, r.weights)

	scores := make([]int, len(scored))
	for i, s := range scored {
		scores[i] = s.Score
	}
	logger.InfoContext(ctx, "retrieval complete",
		"outcome", string(result.Type()),
		"entries", len(result),
		"scores", scores,
		"sections", len(sections))
	return result
}

// Stats summarises the current corpus and its sections.
func (r *Retriever) Stats(ctx context.Context) Stats {
	c := r.Corpus(ctx)
	sections := r.sectionsFor(c)
	return Stats{
		Source:       c.Source(),
		Version:      c.Version(),
		CorpusChars:  c.Len(),
		Sections:     len(sections),
		SectionRunes: computeStats(sections),
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
