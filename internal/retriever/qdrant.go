package retriever

import (
	"context"
	stderrors "errors"
	"hash/fnv"
	"math"
	"sort"
	"strings"

	"github.com/lawbench/law-bench/internal/config"
	"github.com/lawbench/law-bench/internal/corpus"
	"github.com/lawbench/law-bench/internal/pkg/errors"
	"github.com/lawbench/law-bench/internal/pkg/textutil"
	"github.com/lawbench/law-bench/internal/qdrant"
)

func init() {
	Register("qdrant", func(c *corpus.Corpus, cfg *config.Config) (Retriever, error) {
		client, err := qdrant.NewClient(qdrant.ClientConfig{
			Host:   cfg.Qdrant.Host,
			Port:   cfg.Qdrant.Port,
			APIKey: cfg.Qdrant.APIKey,
			UseTLS: cfg.Qdrant.UseTLS,
		})
		if err != nil {
			return nil, errors.TransportError("connecting to qdrant", err)
		}
		return NewQdrant(c, client, cfg.Qdrant.Collection), nil
	})
}

// Qdrant queries a sparse-vector collection previously populated from
// the corpus (law-bench index). Query vectors use the same tokenizer and
// log-TF weighting as the lexical baseline; terms are hashed to sparse
// indices.
type Qdrant struct {
	corpus     *corpus.Corpus
	client     *qdrant.Client
	collection string
}

// NewQdrant creates a qdrant-backed retriever.
func NewQdrant(c *corpus.Corpus, client *qdrant.Client, collection string) *Qdrant {
	return &Qdrant{
		corpus:     c,
		client:     client,
		collection: collection,
	}
}

// Search runs a sparse similarity query against the collection.
func (q *Qdrant) Search(ctx context.Context, query string, topK int) ([]ScoredCandidate, error) {
	if topK <= 0 || strings.TrimSpace(query) == "" {
		return nil, nil
	}

	indices, values := sparseVector(termWeights(termCounts(query)))
	if len(indices) == 0 {
		return nil, nil
	}

	results, err := q.client.SparseSearch(ctx, q.collection, indices, values, uint64(topK))
	if err != nil {
		if stderrors.Is(err, qdrant.ErrMalformedPoint) {
			return nil, errors.ProtocolError("qdrant returned unmappable points", err)
		}
		return nil, errors.TransportError("qdrant search failed", err)
	}

	candidates := make([]ScoredCandidate, 0, len(results))
	for _, r := range results {
		candidate := ScoredCandidate{
			LawID:   r.LawID,
			LawName: r.Name,
			Score:   float64(r.Score),
		}
		if doc, ok := q.corpus.Get(r.LawID); ok {
			candidate.LawName = doc.Name
			candidate.Snippet = textutil.Snippet(doc.Text, textutil.DefaultSnippetLimit)
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

// Close releases the underlying client connection.
func (q *Qdrant) Close() error {
	return q.client.Close()
}

// LawPoints converts the corpus into sparse index points with the same
// TF-IDF weighting the lexical retriever scores with, so the two
// backends rank comparably over the same corpus.
func LawPoints(c *corpus.Corpus, workers int) []qdrant.LawPoint {
	documents := c.Documents()
	counts, idf := corpusTermStats(documents, workers)

	points := make([]qdrant.LawPoint, 0, len(documents))
	for i, doc := range documents {
		weights := make(map[string]float64, len(counts[i]))
		for term, freq := range counts[i] {
			weights[term] = (1.0 + math.Log(float64(freq))) * idf[term]
		}
		indices, values := sparseVector(weights)

		points = append(points, qdrant.LawPoint{
			LawID:         doc.ID,
			Name:          doc.Name,
			SparseIndices: indices,
			SparseValues:  values,
		})
	}
	return points
}

// termWeights computes log-TF weights from token counts.
func termWeights(counts map[string]int) map[string]float64 {
	weights := make(map[string]float64, len(counts))
	for term, freq := range counts {
		weights[term] = 1.0 + math.Log(float64(freq))
	}
	return weights
}

// sparseVector hashes terms to FNV-32a indices. Hash collisions merge
// by summing weights. Indices are emitted in ascending order so the
// vector is deterministic for a given text.
func sparseVector(weights map[string]float64) ([]uint32, []float32) {
	merged := make(map[uint32]float64, len(weights))
	for term, weight := range weights {
		merged[termIndex(term)] += weight
	}

	indices := make([]uint32, 0, len(merged))
	for idx := range merged {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	values := make([]float32, len(indices))
	for i, idx := range indices {
		values[i] = float32(merged[idx])
	}
	return indices, values
}

func termIndex(term string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(term))
	return h.Sum32()
}
