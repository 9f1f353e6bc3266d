// Package badcase builds diagnostic diff records for queries where
// retrieval surfaced none of the ground-truth laws.
package badcase

import (
	"github.com/lawbench/law-bench/internal/corpus"
	"github.com/lawbench/law-bench/internal/retriever"
)

// MissingTextPlaceholder stands in for a ground-truth law whose text
// was not recorded with the query. Diagnostics stay complete even when
// the source data is not.
const MissingTextPlaceholder = "（原文缺失）"

// GroundTruthLaw pairs an expected law with its text.
type GroundTruthLaw struct {
	LawID string `json:"law_id"`
	Text  string `json:"text"`
}

// DiffCase describes one fully-missed query: what was asked, what was
// expected, and what the retriever returned instead.
type DiffCase struct {
	QueryID         string                      `json:"query_id"`
	Query           string                      `json:"query"`
	Source          string                      `json:"bench_source,omitempty"`
	GroundTruth     []GroundTruthLaw            `json:"ground_truth"`
	WrongCandidates []retriever.ScoredCandidate `json:"wrong_candidates"`
	K               int                         `json:"k"`
}

// Record is the slice of a completed prediction record that diff
// reconstruction needs. Its JSON shape matches the prediction entries
// the benchmark writes, so a predictions file decodes straight into it.
type Record struct {
	QueryID    string                      `json:"query_id"`
	Query      string                      `json:"query"`
	LawIDs     []string                    `json:"law_ids"`
	LawTexts   map[string]string           `json:"law_texts,omitempty"`
	Source     string                      `json:"bench_source,omitempty"`
	Candidates []retriever.ScoredCandidate `json:"candidates"`
}

// Check inspects one scored query and returns a DiffCase exactly when
// no ground-truth law appears in the top k candidates. A nil return
// means the query hit.
func Check(query *corpus.EvalQuery, candidates []retriever.ScoredCandidate, k int) *DiffCase {
	return build(query.ID, query.Text, query.Source, query.LawIDs, query.LawContents, candidates, k)
}

// FromRecords rebuilds the diff cases for completed prediction records
// without rerunning retrieval. The result matches what Check produced
// inline during the original run for the same k.
func FromRecords(records []Record, k int) []*DiffCase {
	var cases []*DiffCase
	for _, r := range records {
		if c := build(r.QueryID, r.Query, r.Source, r.LawIDs, r.LawTexts, r.Candidates, k); c != nil {
			cases = append(cases, c)
		}
	}
	return cases
}

func build(queryID, queryText, source string, gtIDs []string, texts map[string]string, candidates []retriever.ScoredCandidate, k int) *DiffCase {
	if k < 0 {
		k = 0
	}
	topK := candidates
	if k < len(topK) {
		topK = topK[:k]
	}

	gt := make(map[string]struct{}, len(gtIDs))
	for _, id := range gtIDs {
		if id != "" {
			gt[id] = struct{}{}
		}
	}
	for _, candidate := range topK {
		if _, ok := gt[candidate.LawID]; ok {
			return nil
		}
	}

	groundTruth := make([]GroundTruthLaw, 0, len(gt))
	seen := make(map[string]struct{}, len(gt))
	for _, id := range gtIDs {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		text := texts[id]
		if text == "" {
			text = MissingTextPlaceholder
		}
		groundTruth = append(groundTruth, GroundTruthLaw{LawID: id, Text: text})
	}

	wrong := make([]retriever.ScoredCandidate, len(topK))
	copy(wrong, topK)

	return &DiffCase{
		QueryID:         queryID,
		Query:           queryText,
		Source:          source,
		GroundTruth:     groundTruth,
		WrongCandidates: wrong,
		K:               k,
	}
}
