package text

import (
	"strings"
	"testing"
)

func TestNormalizeBasic(t *testing.T) {
	a := NewAnalyzer()

	got := a.Normalize("Machine Learning")
	if got != "machin learn" {
		t.Errorf("Normalize(Machine Learning) = %q, want %q", got, "machin learn")
	}
}

func TestNormalizeStripsPunctuation(t *testing.T) {
	a := NewAnalyzer()

	got := a.Tokens("neural-networks, (deep)   learning!!")
	want := []string{"neural", "network", "deep", "learn"}
	if len(got) != len(want) {
		t.Fatalf("Tokens = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNormalizeDropsStopWordsAndShortTokens(t *testing.T) {
	a := NewAnalyzer()

	got := a.Tokens("the of at ab xy analysis")
	if len(got) != 1 || got[0] != "analysi" {
		t.Errorf("Tokens = %v, want [analysi]", got)
	}
}

func TestNormalizeEmpty(t *testing.T) {
	a := NewAnalyzer()

	if got := a.Normalize(""); got != "" {
		t.Errorf("Normalize(\"\") = %q, want empty", got)
	}
	if got := a.Normalize("  ...  "); got != "" {
		t.Errorf("Normalize(punctuation only) = %q, want empty", got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	a := NewAnalyzer()

	inputs := []string{
		"Machine Learning for Information Retrieval",
		"A survey of deep neural networks",
		"refactoring UML models, 2nd edition",
		"indexing & searching scholarly documents",
	}

	for _, input := range inputs {
		once := a.Normalize(input)
		twice := a.Normalize(once)
		if once != twice {
			t.Errorf("not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestNormalizeKeywords(t *testing.T) {
	a := NewAnalyzer()

	got := a.NormalizeKeywords([]string{"neural networks", "NLP"})
	if !strings.Contains(got, "neural") || !strings.Contains(got, "network") {
		t.Errorf("NormalizeKeywords = %q, want neural network terms", got)
	}
}

func TestStemmerDeterministic(t *testing.T) {
	ps := NewPorterStemmer()

	words := []string{"operational", "rational", "conditional", "organization", "sensitivity"}
	for _, w := range words {
		first := ps.Stem(w)
		for i := 0; i < 50; i++ {
			if got := ps.Stem(w); got != first {
				t.Fatalf("Stem(%q) unstable: %q then %q", w, first, got)
			}
		}
	}
}

func TestStemmerCommonForms(t *testing.T) {
	ps := NewPorterStemmer()

	cases := map[string]string{
		"caresses": "caress",
		"cats":     "cat",
		"agreed":   "agree",
		"playing":  "play",
		"hopping":  "hop",
		"learning": "learn",
	}
	for word, want := range cases {
		if got := ps.Stem(word); got != want {
			t.Errorf("Stem(%q) = %q, want %q", word, got, want)
		}
	}
}

func TestLemmatizerExceptions(t *testing.T) {
	l := NewLemmatizer()

	if got := l.Lemmatize("children"); got != "child" {
		t.Errorf("Lemmatize(children) = %q, want child", got)
	}
	if got := l.Lemmatize("matrices"); got != "matrix" {
		t.Errorf("Lemmatize(matrices) = %q, want matrix", got)
	}
	if got := l.Lemmatize("network"); got != "network" {
		t.Errorf("Lemmatize(network) = %q, want unchanged", got)
	}
}
