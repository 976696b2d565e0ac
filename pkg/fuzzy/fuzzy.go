// Package fuzzy ranks lexicon keys by edit-distance similarity to a
// mistyped query token.
package fuzzy

import (
	"sort"
	"strings"
)

// MinScore is the similarity threshold (out of 100) below which a
// candidate is discarded.
const MinScore = 70

// TermLister exposes the candidate key set, normally the lexicon.
type TermLister interface {
	Keys() []string
}

// Suggester scans the lexicon keys for close matches.
type Suggester struct {
	terms TermLister
}

// New creates a suggester over the given key source.
func New(terms TermLister) *Suggester {
	return &Suggester{terms: terms}
}

type scored struct {
	word  string
	score int
}

// Suggest returns up to max lexicon keys scoring at least MinScore
// against word, best first; equal scores order lexicographically.
func (s *Suggester) Suggest(word string, max int) []string {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" || max <= 0 {
		return nil
	}

	var candidates []scored
	for _, key := range s.terms.Keys() {
		score := Ratio(word, key)
		if score >= MinScore {
			candidates = append(candidates, scored{word: key, score: score})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].word < candidates[j].word
	})

	if len(candidates) > max {
		candidates = candidates[:max]
	}

	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.word
	}
	return out
}

// Ratio scores the similarity of two strings on a 0–100 scale from
// their Levenshtein distance relative to the longer string.
func Ratio(a, b string) int {
	if a == b {
		return 100
	}

	ra := []rune(a)
	rb := []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 100
	}

	dist := levenshtein(ra, rb)
	return int(100 * (float64(longest) - float64(dist)) / float64(longest))
}

// levenshtein computes the edit distance with a single rolling row.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		current := make([]int, len(b)+1)
		current[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			current[j] = minOf(
				prev[j]+1,      // deletion
				current[j-1]+1, // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev = current
	}

	return prev[len(b)]
}

func minOf(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
