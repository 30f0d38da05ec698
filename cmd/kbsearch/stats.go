package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"nyaymitra/internal/retrieval"
)

func newStatsCmd(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Describe the knowledge base sections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, r, err := opts.retriever(cmd)
			if err != nil {
				return err
			}
			stats := r.Stats(ctx)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}
			printStats(cmd, stats)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the statistics as JSON")
	return cmd
}

func printStats(cmd *cobra.Command, s retrieval.Stats) {
	out := cmd.OutOrStdout()
	st := newStyles(out)
	row := func(label string, value any) {
		fmt.Fprintln(out, st.Label.Render(fmt.Sprintf("%-14s", label)) + fmt.Sprint(value))
	}

	fmt.Fprintln(out, st.Title.Render("Knowledge base"))
	row("source", s.Source)
	row("version", s.Version)
	row("characters", s.CorpusChars)
	row("sections", s.Sections)
	row("min length", s.SectionRunes.Min)
	row("max length", s.SectionRunes.Max)
	row("mean length", fmt.Sprintf("%.1f", s.SectionRunes.Mean))
	row("p95 length", s.SectionRunes.P95)
}
