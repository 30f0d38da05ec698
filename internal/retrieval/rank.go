package retrieval

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultK is the number of entries returned when the caller does not ask for a valid count.
const DefaultK = 4

// maxFallback caps how many sections the keyword fallback pass may return.
const maxFallback = 2

// rank scores every section, drops zero scores and returns the top k in descending order.
// Ties keep their original section order.
func rank(q preparedQuery, sections []Section, k int, w Weights) []ScoredSection {
	scored := make([]ScoredSection, 0, len(sections))
	for _, s := range sections {
		score := q.explain(s.Text, w).Total()
		if score <= 0 {
			continue
		}
		scored = append(scored, ScoredSection{Section: s, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	for i := range scored {
		scored[i].Rank = i + 1
	}
	return scored
}

// Rank returns the primary ranking of sections for query.
func Rank(query string, sections []Section, k int, w Weights) []ScoredSection {
	return rank(prepareQuery(query), sections, k, w)
}

// keywordFallback returns, in section order, up to limit sections that contain any
// query token as a case-insensitive substring.
func keywordFallback(q preparedQuery, sections []Section, limit int) []Section {
	if len(q.tokens) == 0 || limit <= 0 {
		return nil
	}

	var out []Section
	for _, s := range sections {
		lower := strings.ToLower(s.Text)
		for _, tok := range q.tokens {
			if strings.Contains(lower, tok.text) {
				out = append(out, s)
				break
			}
		}
		if len(out) == limit {
			break
		}
	}
	return out
}

// selectDocuments runs the primary pass and, when it finds nothing, the fallback cascade.
func selectDocuments(query string, sections []Section, k int, w Weights) (Result, []ScoredSection) {
	q := prepareQuery(query)

	scored := rank(q, sections, k, w)
	if len(scored) > 0 {
		result := make(Result, len(scored))
		for i, s := range scored {
			result[i] = sectionDocument(s.Section, s.Score, s.Rank, TypeNormal)
		}
		return result, scored
	}

	if fallback := keywordFallback(q, sections, min(k, maxFallback)); len(fallback) > 0 {
		result := make(Result, len(fallback))
		for i, s := range fallback {
			result[i] = sectionDocument(s, 0, 0, TypeFallback)
		}
		return result, nil
	}

	return Result{noResultsDocument(query)}, nil
}

func sectionDocument(s Section, score, rank int, t Type) Document {
	idx := s.Index
	return Document{
		Text: strings.TrimSpace(s.Text),
		Metadata: Metadata{
			Origin:     s.Origin,
			ChunkIndex: &idx,
			Score:      score,
			Rank:       rank,
			Type:       t,
		},
	}
}

func systemDocument(text string, t Type) Document {
	return Document{
		Text:     text,
		Metadata: Metadata{Origin: SystemOrigin, Type: t},
	}
}

func noResultsDocument(query string) Document {
	return systemDocument(fmt.Sprintf(noResultsFmt, query), TypeNoResults)
}
