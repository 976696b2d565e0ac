package text

import (
	"strings"
	"unicode"
)

// PorterStemmer reduces English words to their stems. It is a simplified
// Porter implementation focusing on the common suffix classes; suffix
// tables are checked in a fixed order so stemming is fully deterministic.
type PorterStemmer struct{}

// NewPorterStemmer creates a new Porter stemmer.
func NewPorterStemmer() *PorterStemmer {
	return &PorterStemmer{}
}

// suffixRule rewrites one suffix to another when the measure condition holds.
type suffixRule struct {
	suffix      string
	replacement string
}

// Longest-match-first tables. Order matters: "ational" must win over "tional".
var step2Rules = []suffixRule{
	{"ization", "ize"},
	{"iveness", "ive"},
	{"fulness", "ful"},
	{"ousness", "ous"},
	{"ational", "ate"},
	{"tional", "tion"},
	{"biliti", "ble"},
	{"ousli", "ous"},
	{"entli", "ent"},
	{"ation", "ate"},
	{"alism", "al"},
	{"aliti", "al"},
	{"iviti", "ive"},
	{"enci", "ence"},
	{"anci", "ance"},
	{"izer", "ize"},
	{"alli", "al"},
	{"ator", "ate"},
	{"eli", "e"},
}

var step3Rules = []suffixRule{
	{"icate", "ic"},
	{"ative", ""},
	{"alize", "al"},
	{"iciti", "ic"},
	{"ical", "ic"},
	{"ful", ""},
	{"ness", ""},
}

var step4Suffixes = []string{
	"ement", "ance", "ence", "able", "ible", "ment",
	"ant", "ent", "ion", "ism", "ate", "iti", "ous", "ive", "ize",
	"al", "er", "ic", "ou",
}

// Stem reduces a word to its stem. Words shorter than 3 characters are
// returned unchanged.
func (ps *PorterStemmer) Stem(word string) string {
	word = strings.ToLower(word)

	if len(word) < 3 {
		return word
	}

	word = ps.step1a(word)
	word = ps.step1b(word)
	word = ps.step1c(word)
	word = ps.step2(word)
	word = ps.step3(word)
	word = ps.step4(word)
	word = ps.step5(word)

	return word
}

// step1a strips plural forms.
func (ps *PorterStemmer) step1a(word string) string {
	switch {
	case strings.HasSuffix(word, "sses"):
		return word[:len(word)-2]
	case strings.HasSuffix(word, "ies"):
		return word[:len(word)-2]
	case strings.HasSuffix(word, "ss"):
		return word
	case strings.HasSuffix(word, "s") && len(word) > 3:
		return word[:len(word)-1]
	}
	return word
}

// step1b strips -ed and -ing.
func (ps *PorterStemmer) step1b(word string) string {
	if strings.HasSuffix(word, "eed") {
		if ps.measure(word[:len(word)-3]) > 0 {
			return word[:len(word)-1]
		}
		return word
	}

	if strings.HasSuffix(word, "ed") {
		stem := word[:len(word)-2]
		if ps.containsVowel(stem) {
			return ps.fixupAfterStrip(stem)
		}
		return word
	}

	if strings.HasSuffix(word, "ing") {
		stem := word[:len(word)-3]
		if ps.containsVowel(stem) {
			return ps.fixupAfterStrip(stem)
		}
		return word
	}

	return word
}

// fixupAfterStrip repairs stems after -ed/-ing removal: restores the
// trailing e for -at/-bl/-iz, undoubles consonants, and adds e to short
// CVC stems.
func (ps *PorterStemmer) fixupAfterStrip(word string) string {
	if strings.HasSuffix(word, "at") || strings.HasSuffix(word, "bl") || strings.HasSuffix(word, "iz") {
		return word + "e"
	}

	if len(word) >= 2 {
		last := word[len(word)-1]
		prev := word[len(word)-2]
		if last == prev && ps.isConsonant(rune(last)) && last != 'l' && last != 's' && last != 'z' {
			return word[:len(word)-1]
		}
	}

	if ps.measure(word) == 1 && ps.endsWithCVC(word) {
		return word + "e"
	}

	return word
}

// step1c turns a trailing y into i when the stem contains a vowel.
func (ps *PorterStemmer) step1c(word string) string {
	if strings.HasSuffix(word, "y") {
		stem := word[:len(word)-1]
		if ps.containsVowel(stem) {
			return stem + "i"
		}
	}
	return word
}

func (ps *PorterStemmer) step2(word string) string {
	for _, rule := range step2Rules {
		if strings.HasSuffix(word, rule.suffix) {
			stem := word[:len(word)-len(rule.suffix)]
			if ps.measure(stem) > 0 {
				return stem + rule.replacement
			}
			return word
		}
	}
	return word
}

func (ps *PorterStemmer) step3(word string) string {
	for _, rule := range step3Rules {
		if strings.HasSuffix(word, rule.suffix) {
			stem := word[:len(word)-len(rule.suffix)]
			if ps.measure(stem) > 0 {
				return stem + rule.replacement
			}
			return word
		}
	}
	return word
}

func (ps *PorterStemmer) step4(word string) string {
	for _, suffix := range step4Suffixes {
		if !strings.HasSuffix(word, suffix) {
			continue
		}
		stem := word[:len(word)-len(suffix)]
		if ps.measure(stem) > 1 {
			// -ion only strips after s or t
			if suffix == "ion" {
				if len(stem) > 0 && (stem[len(stem)-1] == 's' || stem[len(stem)-1] == 't') {
					return stem
				}
				return word
			}
			return stem
		}
		return word
	}
	return word
}

// step5 removes a trailing e and undoubles a trailing ll.
func (ps *PorterStemmer) step5(word string) string {
	if strings.HasSuffix(word, "e") {
		stem := word[:len(word)-1]
		m := ps.measure(stem)
		if m > 1 || (m == 1 && !ps.endsWithCVC(stem)) {
			word = stem
		}
	}

	if strings.HasSuffix(word, "ll") && ps.measure(word) > 1 {
		return word[:len(word)-1]
	}

	return word
}

// measure counts vowel-consonant sequences, the m of the Porter paper.
func (ps *PorterStemmer) measure(word string) int {
	count := 0
	inVowelSeq := false

	for _, r := range word {
		if ps.isVowel(r) {
			inVowelSeq = true
		} else if inVowelSeq {
			count++
			inVowelSeq = false
		}
	}

	return count
}

func (ps *PorterStemmer) containsVowel(word string) bool {
	for _, r := range word {
		if ps.isVowel(r) {
			return true
		}
	}
	return false
}

func (ps *PorterStemmer) isVowel(r rune) bool {
	r = unicode.ToLower(r)
	return r == 'a' || r == 'e' || r == 'i' || r == 'o' || r == 'u'
}

func (ps *PorterStemmer) isConsonant(r rune) bool {
	return !ps.isVowel(r) && unicode.IsLetter(r)
}

// endsWithCVC reports whether word ends consonant-vowel-consonant with
// the final consonant not being w, x, or y.
func (ps *PorterStemmer) endsWithCVC(word string) bool {
	if len(word) < 3 {
		return false
	}

	runes := []rune(word)
	n := len(runes)

	return ps.isConsonant(runes[n-3]) &&
		ps.isVowel(runes[n-2]) &&
		ps.isConsonant(runes[n-1]) &&
		runes[n-1] != 'w' && runes[n-1] != 'x' && runes[n-1] != 'y'
}
