package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"nyaymitra/internal/contextutil"
	"nyaymitra/internal/corpus"
	"nyaymitra/internal/retrieval"
)

// options are the flags shared by every command.
type options struct {
	file    string
	weights map[string]int
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "kbsearch",
		Short:         "Query a legal knowledge base file",
		Long:          "Runs the knowledge base retrieval pipeline against a text file and shows what it returns.",
		SilenceUsage:  true,
	}

	defaultFile := os.Getenv("KB_PATH")
	if defaultFile == "" {
		defaultFile = "./legal_data.txt"
	}
	root.PersistentFlags().StringVarP(&opts.file, "file", "f", defaultFile, "knowledge base file")
	root.PersistentFlags().StringToIntVar(&opts.weights, "weight", nil,
		"override a scoring weight, e.g. --weight header=20 (keys: "+strings.Join(weightKeys(), ", ")+")")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log retrieval diagnostics to stderr")

	root.AddCommand(newSearchCmd(opts), newStatsCmd(opts))
	return root
}

// weightSetters maps flag keys to the weight they override.
var weightSetters = map[string]func(*retrieval.Weights, int){
	"exact_phrase":  func(w *retrieval.Weights, v int) { w.ExactPhrase = v },
	"token_exact":   func(w *retrieval.Weights, v int) { w.TokenExact = v },
	"token_partial": func(w *retrieval.Weights, v int) { w.TokenPartial = v },
	"domain_term":   func(w *retrieval.Weights, v int) { w.DomainTerm = v },
	"header":        func(w *retrieval.Weights, v int) { w.Header = v },
	"intent":        func(w *retrieval.Weights, v int) { w.Intent = v },
}

func weightKeys() []string {
	keys := make([]string, 0, len(weightSetters))
	for k := range weightSetters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// resolveWeights applies the --weight overrides to the default weights.
func (o *options) resolveWeights() (retrieval.Weights, error) {
	w := retrieval.DefaultWeights()
	for key, v := range o.weights {
		set, ok := weightSetters[strings.ToLower(key)]
		if !ok {
			return w, fmt.Errorf("unknown weight %q (known: %s)", key, strings.Join(weightKeys(), ", "))
		}
		if v < 0 {
			return w, fmt.Errorf("weight %s must not be negative", key)
		}
		set(&w, v)
	}
	return w, nil
}

// retriever loads the knowledge base and returns a retriever for it, with a context carrying the
// logger diagnostics go to.
func (o *options) retriever(cmd *cobra.Command) (context.Context, *retrieval.Retriever, error) {
	w, err := o.resolveWeights()
	if err != nil {
		return nil, nil, err
	}

	var sink io.Writer = io.Discard
	level := slog.LevelWarn
	if o.verbose {
		sink = cmd.ErrOrStderr()
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(sink, &slog.HandlerOptions{Level: level}))
	ctx := contextutil.WithLogger(cmd.Context(), logger)

	kb := corpus.Read(ctx, o.file)
	if kb.Empty() {
		return nil, nil, fmt.Errorf("knowledge base %s is empty or unreadable", o.file)
	}
	return ctx, retrieval.New(kb, retrieval.WithWeights(w)), nil
}
