// Package scoring computes ranking-quality metrics for benchmark
// queries and aggregates them across a run.
package scoring

import (
	"math"

	"github.com/lawbench/law-bench/internal/pkg/errors"
	"github.com/lawbench/law-bench/internal/retriever"
)

// QueryMetrics holds the per-query ranking metrics at cutoff K.
type QueryMetrics struct {
	NDCG   float64 `json:"ndcg"`
	Recall float64 `json:"recall"`
	MRR    float64 `json:"mrr"`
	Hit    int     `json:"hit"`
	K      int     `json:"k"`
}

// Compute scores one ranked candidate list against the query's
// ground-truth set at cutoff k. The ground-truth set must be non-empty;
// an empty set is a data-integrity bug upstream, not a scorable query.
func Compute(groundTruth []string, candidates []retriever.ScoredCandidate, k int) (QueryMetrics, error) {
	gt := make(map[string]struct{}, len(groundTruth))
	for _, id := range groundTruth {
		if id != "" {
			gt[id] = struct{}{}
		}
	}
	if len(gt) == 0 {
		return QueryMetrics{}, errors.MetricError("query has an empty ground-truth set")
	}

	if k < 0 {
		k = 0
	}
	topK := candidates
	if k < len(topK) {
		topK = topK[:k]
	}

	found := make(map[string]struct{})
	firstRank := 0 // 1-based rank of the first relevant candidate
	dcg := 0.0
	for i, candidate := range topK {
		if _, ok := gt[candidate.LawID]; !ok {
			continue
		}
		if firstRank == 0 {
			firstRank = i + 1
		}
		// Repeats of a relevant ID gain nothing: the ideal DCG holds
		// min(k, |gt|) ones, so double-counting would push NDCG past 1.
		if _, seen := found[candidate.LawID]; seen {
			continue
		}
		found[candidate.LawID] = struct{}{}
		dcg += 1.0 / math.Log2(float64(i)+2.0)
	}

	// Ideal DCG: all |gt| relevant documents ranked first, capped at k.
	ideal := len(gt)
	if k < ideal {
		ideal = k
	}
	idcg := 0.0
	for i := 0; i < ideal; i++ {
		idcg += 1.0 / math.Log2(float64(i)+2.0)
	}

	m := QueryMetrics{
		Recall: float64(len(found)) / float64(len(gt)),
		K:      k,
	}
	if firstRank > 0 {
		m.Hit = 1
		m.MRR = 1.0 / float64(firstRank)
	}
	if idcg > 0 {
		m.NDCG = dcg / idcg
	}

	return m, nil
}
