package retriever

import (
	"regexp"
	"strings"
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Tokenize splits text into lowercase word runs plus one token per CJK
// character. Statute text is mostly unsegmented Chinese; emitting the
// individual characters alongside the full runs lets partial phrase
// overlaps score without a segmenter.
func Tokenize(text string) []string {
	tokens := wordPattern.FindAllString(strings.ToLower(text), -1)
	for _, r := range text {
		if isCJK(r) {
			tokens = append(tokens, string(r))
		}
	}
	return tokens
}

func isCJK(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}

// termCounts returns token frequencies for a text.
func termCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, token := range Tokenize(text) {
		counts[token]++
	}
	return counts
}
