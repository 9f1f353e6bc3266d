package scoring

import (
	"math"
	"testing"

	apperrors "github.com/lawbench/law-bench/internal/pkg/errors"
	"github.com/lawbench/law-bench/internal/retriever"
)

func ranked(ids ...string) []retriever.ScoredCandidate {
	out := make([]retriever.ScoredCandidate, len(ids))
	for i, id := range ids {
		out[i] = retriever.ScoredCandidate{LawID: id, Score: float64(len(ids) - i)}
	}
	return out
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestCompute(t *testing.T) {
	tests := []struct {
		name       string
		gt         []string
		candidates []retriever.ScoredCandidate
		k          int
		want       QueryMetrics
	}{
		{
			name:       "perfect single hit at rank one",
			gt:         []string{"L1"},
			candidates: ranked("L1", "L2", "L3"),
			k:          3,
			want:       QueryMetrics{NDCG: 1, Recall: 1, MRR: 1, Hit: 1, K: 3},
		},
		{
			name:       "hit at rank two",
			gt:         []string{"L1"},
			candidates: ranked("L2", "L1"),
			k:          2,
			want: QueryMetrics{
				NDCG:   (1 / math.Log2(3)) / 1.0,
				Recall: 1,
				MRR:    0.5,
				Hit:    1,
				K:      2,
			},
		},
		{
			name:       "complete miss",
			gt:         []string{"L9"},
			candidates: ranked("L1", "L2", "L3"),
			k:          3,
			want:       QueryMetrics{K: 3},
		},
		{
			name:       "partial recall over two targets",
			gt:         []string{"L1", "L5"},
			candidates: ranked("L1", "L2", "L3"),
			k:          3,
			want: QueryMetrics{
				NDCG:   1.0 / (1.0 + 1/math.Log2(3)),
				Recall: 0.5,
				MRR:    1,
				Hit:    1,
				K:      3,
			},
		},
		{
			name:       "relevant candidate beyond cutoff ignored",
			gt:         []string{"L4"},
			candidates: ranked("L1", "L2", "L3", "L4"),
			k:          3,
			want:       QueryMetrics{K: 3},
		},
		{
			name:       "zero cutoff yields zeros",
			gt:         []string{"L1"},
			candidates: ranked("L1"),
			k:          0,
			want:       QueryMetrics{K: 0},
		},
		{
			name:       "empty candidate list",
			gt:         []string{"L1"},
			candidates: nil,
			k:          5,
			want:       QueryMetrics{K: 5},
		},
		{
			name:       "duplicate candidate counted once for recall",
			gt:         []string{"L1", "L2"},
			candidates: ranked("L1", "L1", "L3"),
			k:          3,
			want: QueryMetrics{
				NDCG:   1.0 / (1.0 + 1/math.Log2(3)),
				Recall: 0.5,
				MRR:    1,
				Hit:    1,
				K:      3,
			},
		},
		{
			name:       "duplicates of a single target stay within bounds",
			gt:         []string{"L1"},
			candidates: ranked("L1", "L1"),
			k:          2,
			want:       QueryMetrics{NDCG: 1, Recall: 1, MRR: 1, Hit: 1, K: 2},
		},
		{
			name:       "more targets than cutoff caps ideal dcg",
			gt:         []string{"L1", "L2", "L3"},
			candidates: ranked("L1", "L2"),
			k:          2,
			want: QueryMetrics{
				NDCG:   1,
				Recall: 2.0 / 3.0,
				MRR:    1,
				Hit:    1,
				K:      2,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compute(tt.gt, tt.candidates, tt.k)
			if err != nil {
				t.Fatalf("Compute: %v", err)
			}
			if !approx(got.NDCG, tt.want.NDCG) {
				t.Errorf("NDCG = %v, want %v", got.NDCG, tt.want.NDCG)
			}
			if !approx(got.Recall, tt.want.Recall) {
				t.Errorf("Recall = %v, want %v", got.Recall, tt.want.Recall)
			}
			if !approx(got.MRR, tt.want.MRR) {
				t.Errorf("MRR = %v, want %v", got.MRR, tt.want.MRR)
			}
			if got.Hit != tt.want.Hit {
				t.Errorf("Hit = %d, want %d", got.Hit, tt.want.Hit)
			}
			if got.K != tt.want.K {
				t.Errorf("K = %d, want %d", got.K, tt.want.K)
			}
		})
	}
}

func TestComputeBounds(t *testing.T) {
	gts := [][]string{{"L1"}, {"L1", "L2"}, {"L1", "L2", "L3", "L4"}}
	cands := [][]retriever.ScoredCandidate{
		ranked("L2", "L1", "L9"),
		ranked("L9", "L8"),
		ranked("L4", "L3", "L2", "L1", "L7"),
		ranked("L1", "L1", "L2", "L1"),
	}
	for _, gt := range gts {
		for _, cs := range cands {
			m, err := Compute(gt, cs, 3)
			if err != nil {
				t.Fatalf("Compute: %v", err)
			}
			for name, v := range map[string]float64{"ndcg": m.NDCG, "recall": m.Recall, "mrr": m.MRR} {
				if v < 0 || v > 1 {
					t.Errorf("%s = %v out of [0,1] for gt=%v", name, v, gt)
				}
			}
		}
	}
}

func TestComputeEmptyGroundTruth(t *testing.T) {
	_, err := Compute(nil, ranked("L1"), 3)
	if !apperrors.IsCode(err, apperrors.CodeMetric) {
		t.Fatalf("err = %v, want metric computation error", err)
	}
	_, err = Compute([]string{""}, ranked("L1"), 3)
	if !apperrors.IsCode(err, apperrors.CodeMetric) {
		t.Fatalf("blank-only ids: err = %v, want metric computation error", err)
	}
}
