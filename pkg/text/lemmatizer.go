package text

import "strings"

// Lemmatizer maps inflected forms to a base form, WordNet-morphy style:
// a small exception table first, then ordered detachment rules. It runs
// after stemming, so it mostly catches irregular forms the stemmer
// leaves alone.
type Lemmatizer struct {
	exceptions map[string]string
}

// detachment rewrites tried in order; the first whose suffix matches and
// whose result is at least 3 characters wins.
var detachments = []suffixRule{
	{"ies", "y"},
	{"ves", "f"},
	{"xes", "x"},
	{"zes", "z"},
	{"ches", "ch"},
	{"shes", "sh"},
	{"men", "man"},
}

// NewLemmatizer creates a lemmatizer with the default exception table.
func NewLemmatizer() *Lemmatizer {
	return &Lemmatizer{
		exceptions: map[string]string{
			"children": "child",
			"feet":     "foot",
			"geese":    "goose",
			"mice":     "mouse",
			"teeth":    "tooth",
			"women":    "woman",
			"wolves":   "wolf",
			"lives":    "life",
			"knives":   "knife",
			"indices":  "index",
			"matrices": "matrix",
			"vertices": "vertex",
			"corpora":  "corpus",
			"criteria": "criterion",
			"data":     "datum",
		},
	}
}

// Lemmatize returns the base form of word. Words already in base form
// pass through unchanged, keeping the pipeline idempotent.
func (l *Lemmatizer) Lemmatize(word string) string {
	if base, ok := l.exceptions[word]; ok {
		return base
	}

	for _, rule := range detachments {
		if strings.HasSuffix(word, rule.suffix) {
			base := word[:len(word)-len(rule.suffix)] + rule.replacement
			if len(base) >= 3 {
				return base
			}
		}
	}

	return word
}
