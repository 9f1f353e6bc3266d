// Package retriever provides the retrieval backends evaluated by the
// benchmark. All backends satisfy the same single-method contract; a
// registry maps configuration names to constructors so new backends can
// be added without touching call sites.
package retriever

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/lawbench/law-bench/internal/config"
	"github.com/lawbench/law-bench/internal/corpus"
	"github.com/lawbench/law-bench/internal/pkg/errors"
)

// ScoredCandidate is a single retrieved document with its score.
// Candidate lists are ordered by descending score; ties keep the
// retriever's own order.
type ScoredCandidate struct {
	// LawID is the corpus document ID.
	LawID string `json:"law_id"`

	// LawName is the statute name, when known.
	LawName string `json:"law_name,omitempty"`

	// Score is the retriever's relevance score.
	Score float64 `json:"score"`

	// Snippet is a one-line extract of the document text.
	Snippet string `json:"snippet,omitempty"`
}

// Retriever is the capability every backend provides. Search returns at
// most topK candidates in descending score order. An empty corpus or a
// non-positive topK yields an empty slice, never an error.
type Retriever interface {
	Search(ctx context.Context, query string, topK int) ([]ScoredCandidate, error)
}

// Factory builds a retriever from the loaded corpus and resolved config.
type Factory func(c *corpus.Corpus, cfg *config.Config) (Retriever, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register adds a named backend constructor to the registry.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(name)] = factory
}

// Build constructs the backend selected by name.
func Build(name string, c *corpus.Corpus, cfg *config.Config) (Retriever, error) {
	registryMu.RLock()
	factory, ok := registry[strings.ToLower(name)]
	registryMu.RUnlock()

	if !ok {
		return nil, errors.ValidationError("unknown retriever type: "+name).
			WithDetail("known", strings.Join(Known(), ", "))
	}
	return factory(c, cfg)
}

// Known returns the sorted registered backend names.
func Known() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
