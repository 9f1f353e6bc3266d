package report

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lawbench/law-bench/internal/badcase"
	"github.com/lawbench/law-bench/internal/scoring"
)

func TestSaveJSONCreatesParents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reports", "nested", "out.json")

	payload := map[string]string{"law": "违约责任"}
	if err := SaveJSON(payload, path); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "违约责任") {
		t.Errorf("non-ASCII text should be written as-is, got %s", data)
	}

	var decoded map[string]string
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["law"] != "违约责任" {
		t.Errorf("decoded = %v", decoded)
	}
}

func TestWriteMetricsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.csv")
	m := Metrics{
		Overall:         scoring.Summary{NDCG: 0.631, Recall: 1, MRR: 0.5, HitRate: 1, Queries: 2},
		Failures:        1,
		DurationSeconds: 1.5,
	}
	if err := WriteMetricsCSV(m, path); err != nil {
		t.Fatalf("WriteMetricsCSV: %v", err)
	}

	rows := readCSV(t, path)
	if len(rows) != 8 {
		t.Fatalf("rows = %d, want header + 7", len(rows))
	}
	if rows[0][0] != "metric" || rows[0][1] != "value" {
		t.Errorf("header = %v", rows[0])
	}
	byMetric := map[string]string{}
	for _, row := range rows[1:] {
		byMetric[row[0]] = row[1]
	}
	if byMetric["total_queries"] != "2" || byMetric["failed_queries"] != "1" {
		t.Errorf("counts = %v", byMetric)
	}
	if !strings.HasPrefix(byMetric["ndcg"], "0.631") {
		t.Errorf("ndcg = %q", byMetric["ndcg"])
	}
}

func TestWritePerSourceCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "per_source.csv")
	perSource := map[string]scoring.Summary{
		scoring.AllSources: {Queries: 3},
		"jec":              {NDCG: 0.5, Queries: 1},
		"cail":             {NDCG: 0.7, Queries: 2},
	}
	if err := WritePerSourceCSV(perSource, path); err != nil {
		t.Fatalf("WritePerSourceCSV: %v", err)
	}

	rows := readCSV(t, path)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2 sources", len(rows))
	}
	// Sorted by source, combined bucket excluded.
	if rows[1][0] != "cail" || rows[2][0] != "jec" {
		t.Errorf("source order = %v, %v", rows[1][0], rows[2][0])
	}
}

func TestWriteDiffCasesEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diff_cases.json")
	if err := WriteDiffCases(nil, path); err != nil {
		t.Fatalf("WriteDiffCases: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var cases []*badcase.DiffCase
	if err := json.Unmarshal(data, &cases); err != nil {
		t.Fatalf("output is not a JSON list: %v", err)
	}
	if len(cases) != 0 {
		t.Errorf("cases = %v, want empty list", cases)
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	return rows
}
