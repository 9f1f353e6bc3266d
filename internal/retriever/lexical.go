package retriever

import (
	"context"
	"math"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/lawbench/law-bench/internal/config"
	"github.com/lawbench/law-bench/internal/corpus"
	"github.com/lawbench/law-bench/internal/pkg/textutil"
)

func init() {
	Register("lexical", func(c *corpus.Corpus, cfg *config.Config) (Retriever, error) {
		return NewLexical(c, cfg.Retriever.IndexWorkers), nil
	})
}

// Lexical is the offline TF-IDF baseline. The corpus is indexed once at
// construction and read-only afterwards; identical query text against
// the same corpus always yields identical ranked output, with ties
// broken by ascending law ID.
type Lexical struct {
	docs []indexedDoc
}

type indexedDoc struct {
	doc    corpus.LawDocument
	vector map[string]float64
	norm   float64
}

// NewLexical builds the TF-IDF index over the corpus. Index construction
// tokenizes documents on a bounded worker pool; the benchmark query loop
// itself stays sequential.
func NewLexical(c *corpus.Corpus, workers int) *Lexical {
	documents := c.Documents()
	counts, idf := corpusTermStats(documents, workers)

	docs := make([]indexedDoc, 0, len(documents))
	for i, doc := range documents {
		vector := make(map[string]float64, len(counts[i]))
		norm := 0.0
		for term, freq := range counts[i] {
			weight := (1.0 + math.Log(float64(freq))) * idf[term]
			vector[term] = weight
			norm += weight * weight
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
		} else {
			norm = 1.0
		}
		docs = append(docs, indexedDoc{doc: doc, vector: vector, norm: norm})
	}

	return &Lexical{docs: docs}
}

// corpusTermStats tokenizes every document and derives smoothed IDF
// weights: idf = ln((N+1)/(df+1)) + 1.
func corpusTermStats(documents []corpus.LawDocument, workers int) ([]map[string]int, map[string]float64) {
	counts := make([]map[string]int, len(documents))

	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i := range documents {
		g.Go(func() error {
			counts[i] = termCounts(documents[i].Text)
			return nil
		})
	}
	// Workers only tokenize; no errors to collect.
	_ = g.Wait()

	df := make(map[string]int)
	for _, c := range counts {
		for term := range c {
			df[term]++
		}
	}

	n := float64(len(documents))
	idf := make(map[string]float64, len(df))
	for term, freq := range df {
		idf[term] = math.Log((n+1.0)/(float64(freq)+1.0)) + 1.0
	}

	return counts, idf
}

// queryVector computes log-TF weights for a query and their norm.
func queryVector(query string) (map[string]float64, float64) {
	vector := make(map[string]float64)
	norm := 0.0
	for term, freq := range termCounts(query) {
		tf := 1.0 + math.Log(float64(freq))
		vector[term] = tf
		norm += tf * tf
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
	} else {
		norm = 1.0
	}
	return vector, norm
}

// Search ranks corpus documents by cosine similarity against the query.
func (l *Lexical) Search(_ context.Context, query string, topK int) ([]ScoredCandidate, error) {
	if topK <= 0 || strings.TrimSpace(query) == "" {
		return nil, nil
	}

	qvec, qnorm := queryVector(query)

	scored := make([]ScoredCandidate, 0, topK)
	for _, entry := range l.docs {
		score := 0.0
		for term, weight := range qvec {
			if docWeight, ok := entry.vector[term]; ok {
				score += weight * docWeight
			}
		}
		if score == 0.0 {
			continue
		}
		score /= qnorm * entry.norm

		scored = append(scored, ScoredCandidate{
			LawID:   entry.doc.ID,
			LawName: entry.doc.Name,
			Score:   score,
			Snippet: textutil.Snippet(entry.doc.Text, textutil.DefaultSnippetLimit),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].LawID < scored[j].LawID
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}
