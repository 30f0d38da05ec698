package retrieval

// Type tags the outcome a Document represents. Consumers branch on it.
type Type string

const (
	// TypeNormal marks a section that scored above zero in the primary pass.
	TypeNormal Type = "normal"
	// TypeFallback marks a section returned by the keyword fallback pass.
	TypeFallback Type = "fallback"
	// TypeNoResults marks the synthetic entry returned when nothing matched.
	TypeNoResults Type = "no_results"
	// TypeNoData marks the synthetic entry returned for an empty knowledge base.
	TypeNoData Type = "no_data"
	// TypeError marks the synthetic entry returned when processing failed.
	TypeError Type = "error"
)

// SystemOrigin is the origin reported for synthetic entries that carry no corpus content.
const SystemOrigin = "system"

const (
	noDataMessage = "No legal data available."
	errorMessage  = "Sorry, there was an error searching the legal database. Please try again."
	noResultsFmt  = "I couldn't find specific information about \"%s\" in the legal database. " +
		"Please try rephrasing your question or ask about specific articles, laws, or legal concepts."
)

// Section is a segmented, topically bounded slice of the corpus.
type Section struct {
	// Text is the verbatim slice of the corpus, untrimmed.
	Text string
	// Index is the position of the section among retained sections.
	Index int
	// Origin names the corpus the section came from.
	Origin string
}

// ScoredSection pairs a section with its score for a single retrieval call.
type ScoredSection struct {
	Section Section
	Score   int
	Rank    int
}

// Metadata describes where a returned Document came from and how it was selected.
type Metadata struct {
	// Origin is the corpus source for section entries, or "system" for synthetic ones.
	Origin string `json:"origin"`
	// ChunkIndex is the section index; nil for synthetic entries.
	ChunkIndex *int `json:"chunkIndex,omitempty"`
	// Score is the additive relevance score (0 for fallback and synthetic entries).
	Score int `json:"score"`
	// Rank is the 1-based position in the primary ranking; 0 when not ranked.
	Rank int  `json:"rank,omitempty"`
	Type Type `json:"type"`
}

// Document is one entry of a retrieval result.
type Document struct {
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// Result is the ordered output of a retrieval call. It always holds at least one entry.
type Result []Document

// Texts returns the text of every entry in order.
func (r Result) Texts() []string {
	texts := make([]string, len(r))
	for i, d := range r {
		texts[i] = d.Text
	}
	return texts
}

// Type returns the outcome tag of the result, taken from its first entry.
func (r Result) Type() Type {
	if len(r) == 0 {
		return ""
	}
	return r[0].Metadata.Type
}

// HasContent reports whether the result carries corpus sections rather than a synthetic message.
func (r Result) HasContent() bool {
	t := r.Type()
	return t == TypeNormal || t == TypeFallback
}
