// Package report serializes benchmark outputs to disk: per-query
// predictions, aggregate metrics, per-source breakdowns, and bad-case
// diffs.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/lawbench/law-bench/internal/badcase"
	"github.com/lawbench/law-bench/internal/scoring"
)

// Metrics is the aggregate payload written to the metrics JSON file.
type Metrics struct {
	Overall         scoring.Summary            `json:"overall"`
	PerSource       map[string]scoring.Summary `json:"per_source"`
	Failures        int                        `json:"failed_queries"`
	DurationSeconds float64                    `json:"evaluation_duration_seconds"`
	Metadata        map[string]string          `json:"metadata,omitempty"`
}

// SaveJSON writes the payload as indented JSON, creating parent
// directories as needed. Non-ASCII text is written as-is.
func SaveJSON(payload any, path string) error {
	if err := ensureParent(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// SaveCSV writes a header row followed by the given rows.
func SaveCSV(header []string, rows [][]string, path string) error {
	if err := ensureParent(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// WriteMetricsJSON writes the full aggregate payload.
func WriteMetricsJSON(m Metrics, path string) error {
	return SaveJSON(m, path)
}

// WriteMetricsCSV writes the overall summary as metric,value rows.
func WriteMetricsCSV(m Metrics, path string) error {
	rows := [][]string{
		{"ndcg", formatFloat(m.Overall.NDCG)},
		{"recall", formatFloat(m.Overall.Recall)},
		{"mrr", formatFloat(m.Overall.MRR)},
		{"hit_rate", formatFloat(m.Overall.HitRate)},
		{"total_queries", strconv.Itoa(m.Overall.Queries)},
		{"failed_queries", strconv.Itoa(m.Failures)},
		{"evaluation_duration_seconds", strconv.FormatFloat(m.DurationSeconds, 'f', 4, 64)},
	}
	return SaveCSV([]string{"metric", "value"}, rows, path)
}

// WritePerSourceCSV writes one row per bench source, sorted by source
// name. The combined bucket is omitted; it lives in the metrics files.
func WritePerSourceCSV(perSource map[string]scoring.Summary, path string) error {
	sources := make([]string, 0, len(perSource))
	for source := range perSource {
		if source == scoring.AllSources {
			continue
		}
		sources = append(sources, source)
	}
	sort.Strings(sources)

	rows := make([][]string, 0, len(sources))
	for _, source := range sources {
		s := perSource[source]
		rows = append(rows, []string{
			source,
			formatFloat(s.NDCG),
			formatFloat(s.Recall),
			formatFloat(s.MRR),
			formatFloat(s.HitRate),
			strconv.Itoa(s.Queries),
		})
	}
	return SaveCSV([]string{"source", "ndcg", "recall", "mrr", "hit_rate", "total_queries"}, rows, path)
}

// WriteDiffCases writes the bad-case diff file. A run with no misses
// still produces a file, holding an empty list.
func WriteDiffCases(cases []*badcase.DiffCase, path string) error {
	if cases == nil {
		cases = []*badcase.DiffCase{}
	}
	return SaveJSON(cases, path)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func ensureParent(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return nil
}
