package search

import "strings"

// Dutch stop words ignored when matching query terms against product text
var stopWords = map[string]bool{
	"de": true, "het": true, "een": true, "en": true, "van": true, "in": true,
	"op": true, "te": true, "voor": true, "met": true, "bij": true, "is": true,
	"zijn": true, "die": true, "dat": true, "er": true, "aan": true, "om": true,
	"of": true, "als": true, "ook": true, "niet": true, "naar": true, "door": true,
	"mijn": true, "ik": true, "heb": true, "hoe": true, "wat": true, "wie": true,
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// termCoverage returns the fraction of distinct query terms that occur in document.
func termCoverage(document, query string) float32 {
	queryWords := tokenizeAndFilter(query)
	if len(queryWords) == 0 {
		return 0
	}

	docWordSet := make(map[string]bool)
	for _, word := range tokenizeAndFilter(document) {
		docWordSet[word] = true
	}

	seen := make(map[string]bool, len(queryWords))
	hits := 0
	for _, qWord := range queryWords {
		if seen[qWord] {
			continue
		}
		seen[qWord] = true
		if docWordSet[qWord] {
			hits++
		}
	}
	return float32(hits) / float32(len(seen))
}
