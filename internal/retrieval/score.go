package retrieval

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinTokenLen is the length in characters a query token must exceed to take part in token signals.
const MinTokenLen = 2

// explanatoryMarker is the phrase the knowledge base uses to introduce plain-language explanations.
const explanatoryMarker = "in simple terms:"

var (
	domainTerms = map[string]struct{}{
		"article": {}, "section": {}, "act": {}, "constitution": {}, "law": {}, "right": {}, "code": {},
	}
	intentPhrases = []string{"what is", "explain", "meaning"}
)

// Weights holds the contribution of each scoring signal.
type Weights struct {
	// ExactPhrase is added once when the whole query appears verbatim in the section.
	ExactPhrase int `json:"exact_phrase"`
	// TokenExact is added per whole-word occurrence of a query token.
	TokenExact int `json:"token_exact"`
	// TokenPartial is added per substring occurrence beyond the whole-word ones.
	TokenPartial int `json:"token_partial"`
	// DomainTerm is added per query token that is a legal-domain keyword.
	DomainTerm int `json:"domain_term"`
	// Header is added per query token found in the section's first line.
	Header int `json:"header"`
	// Intent is added when the query asks for an explanation and the section offers one.
	Intent int `json:"intent"`
}

// DefaultWeights returns the stock weighting.
func DefaultWeights() Weights {
	return Weights{
		ExactPhrase:  50,
		TokenExact:   10,
		TokenPartial: 2,
		DomainTerm:   5,
		Header:       15,
		Intent:       20,
	}
}

// Breakdown is the per-signal contribution to a section's score.
type Breakdown struct {
	ExactPhrase  int `json:"exact_phrase"`
	TokenExact   int `json:"token_exact"`
	TokenPartial int `json:"token_partial"`
	DomainTerm   int `json:"domain_term"`
	Header       int `json:"header"`
	Intent       int `json:"intent"`
}

// Total sums all signals.
func (b Breakdown) Total() int {
	return b.ExactPhrase + b.TokenExact + b.TokenPartial + b.DomainTerm + b.Header + b.Intent
}

type queryToken struct {
	text   string
	word   *regexp.Regexp
	domain bool
}

// preparedQuery is a query lower-cased and tokenised once per retrieval call.
type preparedQuery struct {
	lower  string
	tokens []queryToken
	intent bool
}

func prepareQuery(query string) preparedQuery {
	lower := strings.ToLower(query)
	q := preparedQuery{lower: lower}

	for _, tok := range Tokens(query) {
		_, domain := domainTerms[tok]
		q.tokens = append(q.tokens, queryToken{
			text:   tok,
			word:   regexp.MustCompile(`\b` + regexp.QuoteMeta(tok) + `\b`),
			domain: domain,
		})
	}

	for _, phrase := range intentPhrases {
		if strings.Contains(lower, phrase) {
			q.intent = true
			break
		}
	}
	return q
}

// Tokens lower-cases query, splits it on whitespace and keeps the tokens longer than MinTokenLen.
// Repeated tokens are kept; each occurrence contributes to the score.
func Tokens(query string) []string {
	var tokens []string
	for _, tok := range strings.Fields(strings.ToLower(query)) {
		if utf8.RuneCountInString(tok) > MinTokenLen {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

func (q preparedQuery) explain(text string, w Weights) Breakdown {
	var b Breakdown
	lower := strings.ToLower(text)

	// An empty query is contained in every section.
	if strings.Contains(lower, q.lower) {
		b.ExactPhrase = w.ExactPhrase
	}

	firstLine, _, _ := strings.Cut(lower, "\n")
	for _, tok := range q.tokens {
		exact := len(tok.word.FindAllStringIndex(lower, -1))
		partial := strings.Count(lower, tok.text) - exact
		if partial < 0 {
			partial = 0
		}
		b.TokenExact += exact * w.TokenExact
		b.TokenPartial += partial * w.TokenPartial

		if tok.domain {
			b.DomainTerm += w.DomainTerm
		}
		if strings.Contains(firstLine, tok.text) {
			b.Header += w.Header
		}
	}

	if q.intent && strings.Contains(lower, explanatoryMarker) {
		b.Intent = w.Intent
	}
	return b
}

// Score computes the additive relevance score of section for query.
func Score(query string, section Section, w Weights) int {
	return prepareQuery(query).explain(section.Text, w).Total()
}

// Explain returns the per-signal contributions behind Score.
func Explain(query string, section Section, w Weights) Breakdown {
	return prepareQuery(query).explain(section.Text, w)
}
