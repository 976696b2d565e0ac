package text

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Analyzer turns raw document text into the normalized token stream used
// by the lexicon, the indexes, and the query path. The pipeline is
// deterministic: the same input always yields the same output, and
// re-normalizing already normalized text is a no-op.
type Analyzer struct {
	stopWords  map[string]bool
	stemmer    *PorterStemmer
	lemmatizer *Lemmatizer
}

// wordBoundary matches every maximal run of non-alphanumeric characters.
var wordBoundary = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// NewAnalyzer creates an analyzer with the default English stop word set.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		stopWords:  defaultStopWords(),
		stemmer:    NewPorterStemmer(),
		lemmatizer: NewLemmatizer(),
	}
}

// Normalize runs the full pipeline and joins the surviving tokens with
// single spaces. Empty input yields an empty string.
func (a *Analyzer) Normalize(text string) string {
	return strings.Join(a.Tokens(text), " ")
}

// Tokens runs the full pipeline and returns the surviving tokens in
// document order:
//
//  1. collapse non-alphanumeric runs to a single space
//  2. lowercase
//  3. split on whitespace
//  4. drop stop words
//  5. drop tokens shorter than 3 characters
//  6. stem, then lemmatize
func (a *Analyzer) Tokens(text string) []string {
	if text == "" {
		return nil
	}

	cleaned := strings.ToLower(wordBoundary.ReplaceAllString(text, " "))

	var result []string
	for _, token := range strings.Fields(cleaned) {
		if a.stopWords[token] {
			continue
		}
		if utf8.RuneCountInString(token) < 3 {
			continue
		}

		token = a.stemmer.Stem(token)
		token = a.lemmatizer.Lemmatize(token)

		result = append(result, token)
	}

	return result
}

// NormalizeKeywords flattens a keyword list to a space-joined string and
// normalizes it as a single section.
func (a *Analyzer) NormalizeKeywords(keywords []string) string {
	return a.Normalize(strings.Join(keywords, " "))
}
