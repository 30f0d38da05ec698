package retrieval

import (
	"context"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"nyaymitra/internal/corpus"
)

const scenarioCorpus = "Article 21 protects life and liberty. It is what guards every person against unlawful arrest, custody and deprivation of personal freedom.\n" +
	"In simple terms: this means the state cannot kill or detain you arbitrarily. Any restriction must follow a fair, just and reasonable procedure.\n\n" +
	"Article 14 ensures equality before law. It applies to every person within the territory of India, citizen or foreigner alike.\n" +
	"In simple terms: everyone is treated the same under the law. The state cannot discriminate between people placed in similar situations."

func newScenarioRetriever(opts ...Option) *Retriever {
	return New(corpus.NewCorpus("legal_data.txt", scenarioCorpus), opts...)
}

func TestRetrieve_Scenario(t *testing.T) {
	r := newScenarioRetriever()
	result := r.Retrieve(context.Background(), "what is Article 21", 2)

	if len(result) != 2 {
		t.Fatalf("Retrieve() returned %d entries, want 2", len(result))
	}
	top := result[0]
	if !strings.HasPrefix(top.Text, "Article 21") {
		t.Fatalf("top entry = %q, want the Article 21 section", top.Text)
	}
	if top.Metadata.Type != TypeNormal || top.Metadata.Rank != 1 {
		t.Errorf("top metadata = %+v, want normal rank 1", top.Metadata)
	}
	if top.Metadata.Origin != "legal_data.txt" {
		t.Errorf("Origin = %q, want legal_data.txt", top.Metadata.Origin)
	}

	var article14 Section
	for _, s := range r.Sections(context.Background()) {
		if strings.HasPrefix(s.Text, "Article 14") {
			article14 = s
		}
	}
	if article14.Text == "" {
		t.Fatal("Article 14 section not found")
	}
	if other := Score("what is Article 21", article14, DefaultWeights()); top.Metadata.Score <= other {
		t.Errorf("Article 21 score %d should exceed Article 14 score %d", top.Metadata.Score, other)
	}
}

func TestRetrieve_SectionsAreTrimmed(t *testing.T) {
	r := newScenarioRetriever()
	for _, d := range r.Retrieve(context.Background(), "state", 4) {
		if d.Text != strings.TrimSpace(d.Text) {
			t.Errorf("entry text should be trimmed: %q", d.Text)
		}
		if d.Metadata.ChunkIndex == nil {
			t.Error("section entries should carry a chunk index")
		}
	}
}

func TestRetrieve_VerbatimQueryRanksFirst(t *testing.T) {
	r := newScenarioRetriever()
	query := "detain you arbitrarily"
	result := r.Retrieve(context.Background(), query, 4)

	if !strings.Contains(strings.ToLower(result[0].Text), query) {
		t.Fatalf("top entry should contain the query verbatim, got %q", result[0].Text)
	}
	if result[0].Metadata.Score < DefaultWeights().ExactPhrase {
		t.Errorf("verbatim match score = %d, want >= %d", result[0].Metadata.Score, DefaultWeights().ExactPhrase)
	}
}

func TestRetrieve_ResultSizeBounds(t *testing.T) {
	r := newScenarioRetriever()
	queries := []string{"", "article", "state law", "what is Article 21", "xylophone", "zz"}

	for _, q := range queries {
		for k := -1; k <= 6; k++ {
			result := r.Retrieve(context.Background(), q, k)
			limit := k
			if k <= 0 {
				limit = DefaultK
			}
			if len(result) < 1 || len(result) > limit {
				t.Errorf("Retrieve(%q, %d) returned %d entries, want 1..%d", q, k, len(result), limit)
			}
		}
	}
}

func TestRetrieve_EmptyQueryMatchesEverySection(t *testing.T) {
	r := newScenarioRetriever()
	ctx := context.Background()
	sections := r.Sections(ctx)
	if len(sections) < 2 {
		t.Fatalf("scenario corpus has %d sections, want at least 2", len(sections))
	}

	result := r.Retrieve(ctx, "", len(sections))
	if len(result) != len(sections) {
		t.Fatalf("Retrieve(\"\") returned %d entries, want %d", len(result), len(sections))
	}
	for i, d := range result {
		md := d.Metadata
		if md.Type != TypeNormal || md.Score != DefaultWeights().ExactPhrase || md.Rank != i+1 {
			t.Errorf("entry %d metadata = %+v, want normal, score %d, rank %d", i, md, DefaultWeights().ExactPhrase, i+1)
		}
		if md.ChunkIndex == nil || *md.ChunkIndex != i {
			t.Errorf("entry %d chunk = %v, want %d", i, md.ChunkIndex, i)
		}
	}
}

func TestRetrieve_NoResults(t *testing.T) {
	r := newScenarioRetriever()
	tests := []string{"xylophone", "zz qq"}

	for _, q := range tests {
		result := r.Retrieve(context.Background(), q, 4)
		if len(result) != 1 {
			t.Fatalf("Retrieve(%q) returned %d entries, want 1", q, len(result))
		}
		d := result[0]
		if d.Metadata.Type != TypeNoResults || d.Metadata.Origin != SystemOrigin {
			t.Errorf("metadata = %+v, want system no_results", d.Metadata)
		}
		want := `I couldn't find specific information about "` + q + `" in the legal database.`
		if !strings.HasPrefix(d.Text, want) {
			t.Errorf("Text = %q, want prefix %q", d.Text, want)
		}
		if d.Metadata.ChunkIndex != nil {
			t.Error("synthetic entries should not carry a chunk index")
		}
	}
}

func TestRetrieve_KeywordFallback(t *testing.T) {
	r := newScenarioRetriever(WithWeights(Weights{}))

	tests := []struct {
		name      string
		query     string
		k         int
		wantCount int
	}{
		{name: "single match", query: "liberty", k: 4, wantCount: 1},
		{name: "capped at two", query: "state", k: 4, wantCount: 2},
		{name: "capped at k", query: "state", k: 1, wantCount: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := r.Retrieve(context.Background(), tt.query, tt.k)
			if len(result) != tt.wantCount {
				t.Fatalf("Retrieve() returned %d entries, want %d", len(result), tt.wantCount)
			}
			for _, d := range result {
				if d.Metadata.Type != TypeFallback || d.Metadata.Score != 0 || d.Metadata.Rank != 0 {
					t.Errorf("metadata = %+v, want fallback with score 0", d.Metadata)
				}
				if !strings.Contains(strings.ToLower(d.Text), tt.query) {
					t.Errorf("fallback entry should contain %q", tt.query)
				}
			}
		})
	}
}

func TestRetrieve_EmptyCorpus(t *testing.T) {
	sources := map[string]Source{
		"empty":      corpus.NewCorpus("legal_data.txt", ""),
		"whitespace": corpus.NewCorpus("legal_data.txt", " \n\t "),
		"missing":    corpus.NewLoader("/nonexistent/legal_data.txt"),
		"nil source": nil,
	}

	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			r := New(src)
			for _, q := range []string{"anything", "what is Article 21", ""} {
				result := r.Retrieve(context.Background(), q, 4)
				if len(result) != 1 || result[0].Metadata.Type != TypeNoData {
					t.Fatalf("Retrieve(%q) = %+v, want one no_data entry", q, result)
				}
				if result[0].Text != "No legal data available." {
					t.Errorf("Text = %q", result[0].Text)
				}
			}
		})
	}
}

type panickingSource struct{}

func (panickingSource) Load(context.Context) *corpus.Corpus {
	panic("boom")
}

func TestRetrieve_RecoversFromPanic(t *testing.T) {
	r := New(panickingSource{})
	result := r.Retrieve(context.Background(), "article", 4)

	if len(result) != 1 || result[0].Metadata.Type != TypeError {
		t.Fatalf("Retrieve() = %+v, want one error entry", result)
	}
	if strings.Contains(result[0].Text, "boom") {
		t.Error("error entry should not leak internal details")
	}
}

func TestRetrieve_Idempotent(t *testing.T) {
	r := newScenarioRetriever()
	for _, q := range []string{"what is Article 21", "state", "xylophone"} {
		first := r.Retrieve(context.Background(), q, 3)
		second := r.Retrieve(context.Background(), q, 3)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("Retrieve(%q) is not idempotent:\n%+v\n%+v", q, first, second)
		}
	}
}

func TestRetrieve_Concurrent(t *testing.T) {
	r := newScenarioRetriever()
	want := r.Retrieve(context.Background(), "equality law", 4)

	var wg sync.WaitGroup
	errs := make(chan string, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := r.Retrieve(context.Background(), "equality law", 4); !reflect.DeepEqual(got, want) {
				errs <- "concurrent result differs"
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}

func TestRetriever_SwapInvalidatesSections(t *testing.T) {
	r := newScenarioRetriever()
	if got := len(r.Sections(context.Background())); got != 4 {
		t.Fatalf("Sections() = %d, want 4", got)
	}

	r.Swap(corpus.NewCorpus("legal_data.txt", "Cyberbullying "+strings.Repeat("online harassment is an offence ", 5)))
	sections := r.Sections(context.Background())
	if len(sections) != 1 || !strings.HasPrefix(sections[0].Text, "Cyberbullying") {
		t.Fatalf("Sections() after Swap = %+v", sections)
	}

	result := r.Retrieve(context.Background(), "harassment", 4)
	if result.Type() != TypeNormal {
		t.Errorf("Retrieve() after Swap type = %q, want normal", result.Type())
	}
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []Type
}

func (o *recordingObserver) ObserveRetrieval(outcome Type, _ int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func TestRetriever_Observer(t *testing.T) {
	obs := &recordingObserver{}
	r := newScenarioRetriever(WithObserver(obs))
	r.Retrieve(context.Background(), "article", 2)
	r.Retrieve(context.Background(), "xylophone", 2)

	New(corpus.NewCorpus("kb", ""), WithObserver(obs)).Retrieve(context.Background(), "x", 1)
	New(panickingSource{}, WithObserver(obs)).Retrieve(context.Background(), "x", 1)

	want := []Type{TypeNormal, TypeNoResults, TypeNoData, TypeError}
	if !reflect.DeepEqual(obs.outcomes, want) {
		t.Errorf("observed %v, want %v", obs.outcomes, want)
	}
}

func TestRetriever_Stats(t *testing.T) {
	r := newScenarioRetriever()
	stats := r.Stats(context.Background())

	if stats.Sections != 4 {
		t.Errorf("Sections = %d, want 4", stats.Sections)
	}
	if stats.Source != "legal_data.txt" {
		t.Errorf("Source = %q", stats.Source)
	}
	if stats.CorpusChars != len([]rune(scenarioCorpus)) {
		t.Errorf("CorpusChars = %d, want %d", stats.CorpusChars, len([]rune(scenarioCorpus)))
	}
	if stats.SectionRunes.Min <= MinSectionLength || stats.SectionRunes.Max < stats.SectionRunes.Min {
		t.Errorf("SectionRunes = %+v", stats.SectionRunes)
	}
}

func TestComputeStats(t *testing.T) {
	sections := make([]Section, 0, 20)
	for i := 1; i <= 20; i++ {
		sections = append(sections, Section{Text: strings.Repeat("a", i)})
	}

	got := computeStats(sections)
	want := LengthStats{Min: 1, Max: 20, Mean: 10.5, P95: 19}
	if got != want {
		t.Errorf("computeStats() = %+v, want %+v", got, want)
	}

	if got := computeStats(nil); got != (LengthStats{}) {
		t.Errorf("computeStats(nil) = %+v, want zero", got)
	}
}
