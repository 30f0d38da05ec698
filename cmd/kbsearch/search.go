package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"nyaymitra/internal/retrieval"
)

type searchOptions struct {
	k       int
	explain bool
	json    bool
	full    bool
}

// explainedDocument is a search hit together with its per-signal breakdown.
type explainedDocument struct {
	retrieval.Document
	Breakdown *retrieval.Breakdown `json:"breakdown,omitempty"`
}

type searchOutput struct {
	Query     string              `json:"query"`
	K         int                 `json:"k"`
	Type      retrieval.Type      `json:"type"`
	Weights   retrieval.Weights   `json:"weights"`
	Documents []explainedDocument `json:"documents"`
}

func newSearchCmd(opts *options) *cobra.Command {
	so := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Show the sections a question retrieves",
		Long: `Runs a question through the retrieval pipeline and prints the returned sections
in rank order, with their scores. Use --explain to see which signals produced each score.`,
		Example: `  kbsearch search "what is article 21"
  kbsearch search -k 2 --explain "bail for theft"
  kbsearch search --weight header=30 --json "divorce"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, opts, so, strings.Join(args, " "))
		},
	}

	cmd.Flags().IntVarP(&so.k, "k", "k", retrieval.DefaultK, "maximum number of sections to return")
	cmd.Flags().BoolVar(&so.explain, "explain", false, "show the score breakdown for each section")
	cmd.Flags().BoolVar(&so.json, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&so.full, "full", false, "print whole sections instead of a preview")
	return cmd
}

func runSearch(cmd *cobra.Command, opts *options, so *searchOptions, query string) error {
	ctx, r, err := opts.retriever(cmd)
	if err != nil {
		return err
	}

	result := r.Retrieve(ctx, query, so.k)
	sections := r.Sections(ctx)
	w := r.Weights()

	k := so.k
	if k <= 0 {
		k = retrieval.DefaultK
	}
	res := searchOutput{Query: query, K: k, Type: result.Type(), Weights: w}
	for _, doc := range result {
		ed := explainedDocument{Document: doc}
		if so.explain && doc.Metadata.ChunkIndex != nil && *doc.Metadata.ChunkIndex < len(sections) {
			b := retrieval.Explain(query, sections[*doc.Metadata.ChunkIndex], w)
			ed.Breakdown = &b
		}
		res.Documents = append(res.Documents, ed)
	}

	if so.json {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	out := cmd.OutOrStdout()
	st := newStyles(out)
	fmt.Fprintln(out, st.Title.Render(fmt.Sprintf("Results for %q", query)) + " " +
		st.Muted.Render(fmt.Sprintf("(%s, %d returned)", res.Type, len(res.Documents))))

	if !result.HasContent() {
		fmt.Fprintln(out, st.Warning.Render(result[0].Text))
		return nil
	}

	for i, doc := range res.Documents {
		md := doc.Metadata
		header := fmt.Sprintf("%d.", i+1)
		if md.ChunkIndex != nil {
			header += fmt.Sprintf(" section %d", *md.ChunkIndex)
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, st.Label.Render(header) + "  " + st.Score.Render(fmt.Sprintf("score %d", md.Score)) +
			"  " + st.Muted.Render(string(md.Type)))
		if doc.Breakdown != nil {
			fmt.Fprintln(out, st.Muted.Render("   " + formatBreakdown(*doc.Breakdown)))
		}
		text := strings.TrimSpace(doc.Text)
		if !so.full {
			text = preview(text, 240)
		}
		fmt.Fprintln(out, st.Body.Render(text))
	}
	return nil
}

func formatBreakdown(b retrieval.Breakdown) string {
	return fmt.Sprintf("exact_phrase=%d token_exact=%d token_partial=%d domain_term=%d header=%d intent=%d",
		b.ExactPhrase, b.TokenExact, b.TokenPartial, b.DomainTerm, b.Header, b.Intent)
}

// preview shortens text to at most n runes, cutting at a word boundary where possible.
func preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	cut := string(runes[:n])
	if i := strings.LastIndexAny(cut, " \n"); i > n/2 {
		cut = cut[:i]
	}
	return cut + "..."
}
