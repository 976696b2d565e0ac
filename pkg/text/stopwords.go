package text

// defaultStopWords returns common English stop words. The set is applied
// before the length filter, so its one- and two-letter entries would also
// be removed by that filter.
func defaultStopWords() map[string]bool {
	words := []string{
		"a", "an", "and", "are", "as", "at", "be", "but", "by",
		"for", "if", "in", "into", "is", "it", "no", "not", "of",
		"on", "or", "such", "that", "the", "their", "then", "there",
		"these", "they", "this", "to", "was", "will", "with",
		"i", "you", "he", "she", "we", "me", "him", "her",
		"us", "them", "what", "which", "who", "whom", "when", "where",
		"why", "how", "all", "any", "each", "every", "both", "few",
		"more", "most", "other", "some", "can", "could", "may",
		"might", "must", "shall", "should", "would", "am", "been",
		"being", "have", "has", "had", "do", "does", "did", "doing",
		"from", "its", "our", "your", "his", "were", "also",
	}

	stopWords := make(map[string]bool, len(words))
	for _, word := range words {
		stopWords[word] = true
	}

	return stopWords
}
