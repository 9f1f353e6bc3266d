package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lawbench/law-bench/internal/badcase"
	"github.com/lawbench/law-bench/internal/pkg/textutil"
	"github.com/lawbench/law-bench/internal/report"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Inspect a finished run and diff its failing queries",
		Long: `Print the aggregate metrics of a completed run and walk through
its bad cases: for each fully-missed query, the expected laws against
the candidates the retriever returned instead.

Reads the diff file written by the run. When it is missing, the diff
cases are rebuilt from the predictions file.`,
		RunE: runAnalyze,
	}

	cmd.Flags().String("run-name", "", "run to inspect (overrides config)")
	cmd.Flags().Int("limit", 5, "number of diff cases to display")
	cmd.Flags().Int("top-k", 0, "cutoff when rebuilding diffs (defaults to config)")

	return cmd
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetString("run-name"); v != "" {
		cfg.RunName = v
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	topK, _ := cmd.Flags().GetInt("top-k")
	if topK <= 0 {
		topK = cfg.Retriever.TopK
	}

	paths := cfg.Outputs.Paths(cfg.RunName)

	var metrics report.Metrics
	if err := readJSON(paths.MetricsJSON, &metrics); err == nil {
		printMetrics(metrics)
	} else if !os.IsNotExist(err) {
		return err
	}

	cases, err := loadDiffCases(paths.BadCases, paths.Predictions, topK)
	if err != nil {
		return err
	}
	if limit > 0 && len(cases) > limit {
		cases = cases[:limit]
	}

	if len(cases) == 0 {
		fmt.Println("No failing cases to display.")
		return nil
	}

	printDiffCases(cases)
	return nil
}

// loadDiffCases prefers the diff file saved with the run and falls
// back to rebuilding the cases from the predictions file.
func loadDiffCases(diffPath, predictionsPath string, topK int) ([]*badcase.DiffCase, error) {
	var cases []*badcase.DiffCase
	err := readJSON(diffPath, &cases)
	if err == nil {
		return cases, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	var records []badcase.Record
	if err := readJSON(predictionsPath, &records); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no diff file and no predictions file for this run (looked at %s)", predictionsPath)
		}
		return nil, err
	}
	return badcase.FromRecords(records, topK), nil
}

func printMetrics(m report.Metrics) {
	header := color.New(color.FgCyan, color.Bold)
	header.Println("===== Aggregate Metrics =====")
	fmt.Printf("ndcg: %.4f\n", m.Overall.NDCG)
	fmt.Printf("recall: %.4f\n", m.Overall.Recall)
	fmt.Printf("mrr: %.4f\n", m.Overall.MRR)
	fmt.Printf("hit_rate: %.4f\n", m.Overall.HitRate)
	fmt.Printf("total_queries: %d\n", m.Overall.Queries)
	fmt.Printf("failed_queries: %d\n", m.Failures)
	fmt.Printf("evaluation_duration_seconds: %.2f\n", m.DurationSeconds)
	if v := m.Metadata["retriever_type"]; v != "" {
		fmt.Printf("retriever_type: %s\n", v)
	}
	if v := m.Metadata["endpoint"]; v != "" {
		fmt.Printf("endpoint: %s\n", v)
	}

	if len(m.PerSource) > 0 {
		fmt.Println()
		header.Println("===== Per-Source Metrics =====")
		for source, s := range m.PerSource {
			fmt.Printf("[%s]\n", source)
			fmt.Printf("  ndcg: %.4f\n", s.NDCG)
			fmt.Printf("  recall: %.4f\n", s.Recall)
			fmt.Printf("  mrr: %.4f\n", s.MRR)
			fmt.Printf("  hit_rate: %.4f\n", s.HitRate)
			fmt.Printf("  total_queries: %d\n", s.Queries)
		}
	}
	fmt.Println()
}

func printDiffCases(cases []*badcase.DiffCase) {
	header := color.New(color.FgCyan, color.Bold)
	expected := color.New(color.FgGreen)
	got := color.New(color.FgRed)

	header.Println("===== Diff Viewer =====")
	for i, c := range cases {
		fmt.Println()
		header.Printf("Case %d: Query -> %s\n", i+1, c.Query)
		if c.Source != "" {
			fmt.Printf("source: %s\n", c.Source)
		}

		expected.Println("  expected:")
		for _, gt := range c.GroundTruth {
			expected.Printf("    + [%s] %s\n", gt.LawID, textutil.Snippet(gt.Text, 120))
		}

		got.Println("  retrieved instead:")
		if len(c.WrongCandidates) == 0 {
			got.Println("    (no candidates returned)")
		}
		for _, w := range c.WrongCandidates {
			label := w.LawName
			if label == "" {
				label = w.LawID
			}
			got.Printf("    - [%s] %s (score %.4f)\n", w.LawID, textutil.Snippet(label+" "+w.Snippet, 120), w.Score)
		}
	}
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
