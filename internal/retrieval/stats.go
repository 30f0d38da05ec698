package retrieval

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

// Stats summarises the segmented knowledge base.
type Stats struct {
	// Source is the corpus origin descriptor.
	Source string `json:"source"`
	// Version identifies the corpus content.
	Version string `json:"version"`
	// CorpusChars is the corpus length in characters.
	CorpusChars int `json:"corpus_chars"`
	// Sections is the number of retained sections.
	Sections int `json:"sections"`
	// SectionRunes describes the trimmed length of retained sections.
	SectionRunes LengthStats `json:"section_runes"`
}

// LengthStats contains min/max/mean/p95 of a set of lengths.
type LengthStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

func computeStats(sections []Section) LengthStats {
	if len(sections) == 0 {
		return LengthStats{}
	}

	lengths := make([]int, len(sections))
	sum := 0
	for i, s := range sections {
		lengths[i] = utf8.RuneCountInString(strings.TrimSpace(s.Text))
		sum += lengths[i]
	}
	sort.Ints(lengths)

	mean := float64(sum) / float64(len(lengths))

	p95Index := int(math.Ceil(float64(len(lengths))*0.95)) - 1
	if p95Index < 0 {
		p95Index = 0
	}
	if p95Index >= len(lengths) {
		p95Index = len(lengths) - 1
	}

	return LengthStats{
		Min:  lengths[0],
		Max:  lengths[len(lengths)-1],
		Mean: math.Round(mean*100) / 100,
		P95:  lengths[p95Index],
	}
}
