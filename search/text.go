package search

import (
	"strings"
	"unicode"
)

// stopWords are removed from both queries and documents before the
// verbatim-match comparison. The set includes the reply and forward
// markers that accumulate in email subject lines.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "be": {}, "is": {}, "are": {},
	"was": {}, "to": {}, "of": {}, "and": {}, "in": {}, "that": {},
	"have": {}, "it": {}, "for": {}, "not": {}, "on": {}, "with": {},
	"as": {}, "you": {}, "do": {}, "at": {}, "this": {}, "but": {},
	"by": {}, "from": {}, "re": {}, "fw": {}, "fwd": {},
}

// tokenizeAndFilter lowercases text, splits it on anything that is not
// a letter or digit, and drops stop words.
func tokenizeAndFilter(text string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	filtered := tokens[:0]
	for _, token := range tokens {
		if _, stop := stopWords[token]; !stop {
			filtered = append(filtered, token)
		}
	}
	return filtered
}

// containsAllQueryWords reports whether every significant query word
// appears somewhere in the document. A query made entirely of stop
// words never matches.
func containsAllQueryWords(document, query string) bool {
	queryWords := tokenizeAndFilter(query)
	if len(queryWords) == 0 {
		return false
	}

	seen := make(map[string]struct{})
	for _, word := range tokenizeAndFilter(document) {
		seen[word] = struct{}{}
	}

	for _, word := range queryWords {
		if _, ok := seen[word]; !ok {
			return false
		}
	}
	return true
}
