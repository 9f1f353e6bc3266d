package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lawbench/law-bench/internal/bench"
	"github.com/lawbench/law-bench/internal/bus"
	"github.com/lawbench/law-bench/internal/config"
	"github.com/lawbench/law-bench/internal/corpus"
	"github.com/lawbench/law-bench/internal/history"
	"github.com/lawbench/law-bench/internal/pkg/logger"
	"github.com/lawbench/law-bench/internal/retriever"
	"github.com/lawbench/law-bench/internal/scoring"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a benchmark run",
		Long: `Load the law corpus and validated queries, run every query
through the configured retriever, and write predictions, metrics, and
bad-case reports under the output directory.`,
		RunE: runBenchmark,
	}

	cmd.Flags().String("retriever", "", "retriever backend (overrides config)")
	cmd.Flags().Int("top-k", 0, "retrieval cutoff (overrides config)")
	cmd.Flags().Int("max-queries", 0, "cap the number of queries (overrides config)")
	cmd.Flags().String("run-name", "", "run label for outputs and history (overrides config)")

	return cmd
}

func runBenchmark(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	if v, _ := cmd.Flags().GetString("retriever"); v != "" {
		cfg.Retriever.Type = v
	}
	if v, _ := cmd.Flags().GetInt("top-k"); v > 0 {
		cfg.Retriever.TopK = v
	}
	if v, _ := cmd.Flags().GetInt("max-queries"); v > 0 {
		cfg.Data.MaxQueries = v
	}
	if v, _ := cmd.Flags().GetString("run-name"); v != "" {
		cfg.RunName = v
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("loading corpus", "path", cfg.Data.CorpusPath)
	laws, err := corpus.LoadCorpus(cfg.Data.CorpusPath, 0)
	if err != nil {
		return err
	}
	log.Info("corpus loaded", "laws", laws.Len())

	queries, err := corpus.LoadQueries(cfg.Data.QueriesPath, cfg.Data.MaxQueries)
	if err != nil {
		return err
	}
	log.Info("queries loaded", "queries", len(queries), "path", cfg.Data.QueriesPath)

	r, err := retriever.Build(cfg.Retriever.Type, laws, cfg)
	if err != nil {
		return err
	}
	defer closeRetriever(r, log)

	eventBus, err := bus.NewBus(cfg.Bus, log)
	if err != nil {
		return err
	}
	defer eventBus.Close()

	runner := bench.NewRunner(r, cfg, log, eventBus)

	queryPtrs := make([]*corpus.EvalQuery, len(queries))
	for i := range queries {
		queryPtrs[i] = &queries[i]
	}

	result, err := runner.Run(ctx, queryPtrs)
	if err != nil {
		return err
	}

	paths := cfg.Outputs.Paths(cfg.RunName)
	if err := bench.SaveArtifacts(result, paths, runMetadata(cfg)); err != nil {
		return err
	}
	log.Info("artifacts saved", "dir", paths.RunDir)

	if cfg.History.Enabled {
		saveHistory(cfg, result, log)
	}

	return nil
}

// runMetadata builds the metadata block echoed into the metrics report.
// User-supplied metadata wins on key collisions.
func runMetadata(cfg *config.Config) map[string]string {
	meta := map[string]string{
		"run_name":       cfg.RunName,
		"retriever_type": cfg.Retriever.Type,
		"top_k":          strconv.Itoa(cfg.Retriever.TopK),
		"query_file":     cfg.Data.QueriesPath,
	}
	if cfg.Retriever.Endpoint != "" {
		meta["endpoint"] = cfg.Retriever.Endpoint
	}
	for k, v := range cfg.Metadata {
		meta[k] = v
	}
	return meta
}

func saveHistory(cfg *config.Config, result *bench.Result, log *logger.Logger) {
	// History is best-effort: a dead Redis must not fail a finished run.
	store, err := history.NewStore(cfg.History.RedisURL, time.Duration(cfg.History.TTLHours)*time.Hour)
	if err != nil {
		log.WithError(err).Warn("run history unavailable")
		return
	}
	defer store.Close()

	record := history.RunRecord{
		Run:             cfg.RunName,
		Retriever:       cfg.Retriever.Type,
		TopK:            cfg.Retriever.TopK,
		Queries:         len(result.Predictions),
		Failures:        len(result.Failures),
		Overall:         result.Summaries[scoring.AllSources],
		DurationSeconds: result.Duration.Seconds(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Save(ctx, record); err != nil {
		log.WithError(err).Warn("failed to save run history")
		return
	}
	log.Info("run recorded in history", "retriever", record.Retriever)
}

func closeRetriever(r retriever.Retriever, log *logger.Logger) {
	if closer, ok := r.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			log.WithError(err).Warn("failed to close retriever")
		}
	}
}

func setup(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	return cfg, logger.New(cfg.Log.Level, cfg.Log.Format), nil
}
