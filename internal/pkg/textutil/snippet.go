// Package textutil provides small text shaping helpers shared by the
// retrievers and the report writers.
package textutil

import "strings"

// DefaultSnippetLimit is the snippet length used in reports.
const DefaultSnippetLimit = 200

// Snippet condenses text to a single line of at most limit runes.
func Snippet(text string, limit int) string {
	compact := strings.Join(strings.Fields(text), " ")
	runes := []rune(compact)
	if limit <= 0 || len(runes) <= limit {
		return compact
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}
