package engine

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/mnohosten/paperfind/pkg/compression"
)

const testCorpus = `id,title,keywords,venue,year,n_citation,url,abstract,authors,doc_type,references
d1,Machine Learning Basics,"[""ml""]",ICML,2019,42,http://example.org/d1,Neural networks for vision tasks.,Smith,Conference,[]
d2,Database Systems,"[""db""]",VLDB,2020,17,http://example.org/d2,Btree indexing structures and storage pages.,Jones,Journal,[]
d3,Deep Learning Survey,"[""dl""]",NeurIPS,2021,99,http://example.org/d3,Deep networks applied to language problems.,Brown,Conference,[]
`

func buildTestEngine(t *testing.T) *Engine {
	t.Helper()

	dir := t.TempDir()
	corpusPath := filepath.Join(dir, "corpus.csv")
	if err := os.WriteFile(corpusPath, []byte(testCorpus), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig(filepath.Join(dir, "data"), corpusPath)
	cfg.Compression = compression.AlgorithmNone

	e, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func TestSearchFindsUniqueToken(t *testing.T) {
	e := buildTestEngine(t)

	resp, err := e.Search("machine")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if resp.Query != "machin" {
		t.Errorf("normalized query = %q, want machin", resp.Query)
	}
	if resp.ResultsCount != 1 || len(resp.Results) != 1 {
		t.Fatalf("expected exactly one result, got %d", resp.ResultsCount)
	}
	if resp.Results[0].DocID != "d1" {
		t.Errorf("result = %s, want d1", resp.Results[0].DocID)
	}
	if resp.Results[0].Title != "Machine Learning Basics" {
		t.Errorf("title = %q", resp.Results[0].Title)
	}
	if resp.Results[0].Score <= 0 {
		t.Errorf("score = %v, want positive", resp.Results[0].Score)
	}
}

func TestSearchSharedTokenRanksAll(t *testing.T) {
	e := buildTestEngine(t)

	resp, err := e.Search("learning")
	if err != nil {
		t.Fatal(err)
	}
	// d1 and d3 both carry "learning" in the title.
	if resp.ResultsCount != 2 {
		t.Errorf("results_count = %d, want 2", resp.ResultsCount)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	e := buildTestEngine(t)

	if _, err := e.Search("   "); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("Search(blank) = %v, want ErrEmptyQuery", err)
	}
}

func TestSearchStopwordsOnly(t *testing.T) {
	e := buildTestEngine(t)

	resp, err := e.Search("the of ab")
	if err != nil {
		t.Fatalf("stopword query errored: %v", err)
	}
	if resp.ResultsCount != 0 || len(resp.Results) != 0 {
		t.Errorf("expected zero results, got %+v", resp)
	}
}

func TestSearchUnknownTerm(t *testing.T) {
	e := buildTestEngine(t)

	resp, err := e.Search("zzzunknownzzz")
	if err != nil {
		t.Fatal(err)
	}
	if resp.ResultsCount != 0 {
		t.Errorf("expected zero results, got %d", resp.ResultsCount)
	}
}

func TestAddDocumentThenSearch(t *testing.T) {
	e := buildTestEngine(t)

	docID, err := e.AddDocument(&Document{
		Title:    "Refactoring UML Models",
		Abstract: "Automated refactoring of object oriented design models.",
		Keywords: []string{"model"},
		Venue:    "ASE",
		Year:     2001,
	})
	if err != nil {
		t.Fatalf("AddDocument failed: %v", err)
	}
	if !strings.HasPrefix(docID, "doc_") {
		t.Errorf("docID = %q, want doc_ prefix", docID)
	}

	resp, err := e.Search("refactoring")
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, r := range resp.Results {
		if r.DocID == docID {
			found = true
			if r.Title != "Refactoring UML Models" {
				t.Errorf("hydrated title = %q", r.Title)
			}
		}
	}
	if !found {
		t.Errorf("added document %s not in results: %+v", docID, resp.Results)
	}

	stats := e.Stats()
	if stats.Documents != 4 {
		t.Errorf("documents = %d, want 4", stats.Documents)
	}
}

func TestAddDocumentValidation(t *testing.T) {
	e := buildTestEngine(t)

	_, err := e.AddDocument(&Document{Title: "No abstract", Keywords: []string{"x"}, Venue: "V", Year: 2020})
	if !errors.Is(err, ErrMissingField) {
		t.Errorf("expected ErrMissingField, got %v", err)
	}
}

func TestAutocomplete(t *testing.T) {
	e := buildTestEngine(t)

	got := e.Autocomplete("mach")
	if len(got) == 0 {
		t.Fatal("expected completions for mach")
	}
	for _, s := range got {
		if !strings.HasPrefix(s, "mach") {
			t.Errorf("completion %q does not extend prefix", s)
		}
	}
}

func TestAutocompleteMultiWordPrefixesLeadingTokens(t *testing.T) {
	e := buildTestEngine(t)

	got := e.Autocomplete("deep mach")
	if len(got) == 0 {
		t.Fatal("expected completions")
	}
	for _, s := range got {
		if !strings.HasPrefix(s, "deep mach") {
			t.Errorf("completion %q should keep leading tokens", s)
		}
	}
}

func TestAutocompleteTrailingSpace(t *testing.T) {
	e := buildTestEngine(t)

	if got := e.Autocomplete("machine "); got != nil {
		t.Errorf("trailing-space query = %v, want nil", got)
	}
	if got := e.Autocomplete(""); got != nil {
		t.Errorf("empty query = %v, want nil", got)
	}
}

func TestSuggestTypo(t *testing.T) {
	e := buildTestEngine(t)

	got := e.SuggestTypo("machinn")
	found := false
	for _, s := range got {
		if s == "machin" {
			found = true
		}
	}
	if !found {
		t.Errorf("SuggestTypo(machinn) = %v, want machin included", got)
	}
}

func TestOpenAfterBuild(t *testing.T) {
	e := buildTestEngine(t)

	// Capture an ID mapping, reopen from disk, verify stability.
	wantID, ok := e.lexicon.GetID("machin")
	if !ok {
		t.Fatal("machin missing from lexicon")
	}
	cfg := e.cfg
	e.Close()

	reopened, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer reopened.Close()

	gotID, ok := reopened.lexicon.GetID("machin")
	if !ok || gotID != wantID {
		t.Errorf("term ID after reopen = %d, %v, want %d", gotID, ok, wantID)
	}

	resp, err := reopened.Search("machine")
	if err != nil {
		t.Fatal(err)
	}
	if resp.ResultsCount != 1 || resp.Results[0].DocID != "d1" {
		t.Errorf("search after reopen = %+v", resp)
	}
}

func TestConcurrentSearchesDeterministic(t *testing.T) {
	e := buildTestEngine(t)

	const goroutines = 8
	responses := make([]*SearchResponse, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := e.Search("deep learning")
			if err != nil {
				t.Errorf("concurrent search failed: %v", err)
				return
			}
			responses[i] = resp
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		if responses[i] == nil || responses[0] == nil {
			t.Fatal("missing response")
		}
		if !reflect.DeepEqual(responses[0].Results, responses[i].Results) {
			t.Errorf("responses diverge between goroutine 0 and %d", i)
		}
	}
}

func TestMetadataInvariants(t *testing.T) {
	e := buildTestEngine(t)

	if e.meta.ForwardIndexLength != e.forward.Len() {
		t.Errorf("forward_index_length = %d, docs = %d", e.meta.ForwardIndexLength, e.forward.Len())
	}
	if e.meta.TotalDocLength != e.forward.TotalLength() {
		t.Errorf("total_doc_length = %d, sum = %d", e.meta.TotalDocLength, e.forward.TotalLength())
	}

	// Invariants hold across an insertion.
	_, err := e.AddDocument(&Document{
		Title:    "Graph Algorithms",
		Abstract: "Shortest paths on weighted graphs.",
		Keywords: []string{"graphs"},
		Venue:    "SODA",
		Year:     2015,
	})
	if err != nil {
		t.Fatal(err)
	}

	if e.meta.ForwardIndexLength != e.forward.Len() {
		t.Errorf("forward_index_length after add = %d, docs = %d", e.meta.ForwardIndexLength, e.forward.Len())
	}
	if e.meta.TotalDocLength != e.forward.TotalLength() {
		t.Errorf("total_doc_length after add = %d, sum = %d", e.meta.TotalDocLength, e.forward.TotalLength())
	}
}
