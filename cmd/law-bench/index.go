package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lawbench/law-bench/internal/corpus"
	"github.com/lawbench/law-bench/internal/pkg/errors"
	"github.com/lawbench/law-bench/internal/qdrant"
	"github.com/lawbench/law-bench/internal/retriever"
)

func indexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the Qdrant sparse index from the law corpus",
		Long: `Tokenize and weight every law in the corpus and upsert the
resulting sparse vectors into a Qdrant collection. The qdrant
retriever queries this collection; run this once before benchmarking
with --retriever qdrant or after the corpus changes.`,
		RunE: runIndex,
	}

	cmd.Flags().Bool("recreate", false, "drop and recreate the collection first")
	cmd.Flags().Int("batch-size", 100, "points per upsert batch")

	return cmd
}

func runIndex(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	recreate, _ := cmd.Flags().GetBool("recreate")
	batchSize, _ := cmd.Flags().GetInt("batch-size")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("loading corpus", "path", cfg.Data.CorpusPath)
	laws, err := corpus.LoadCorpus(cfg.Data.CorpusPath, 0)
	if err != nil {
		return err
	}

	client, err := qdrant.NewClient(qdrant.ClientConfig{
		Host:   cfg.Qdrant.Host,
		Port:   cfg.Qdrant.Port,
		APIKey: cfg.Qdrant.APIKey,
		UseTLS: cfg.Qdrant.UseTLS,
	})
	if err != nil {
		return errors.TransportError("connecting to qdrant", err)
	}
	defer client.Close()

	if !client.Healthy(ctx) {
		return errors.TransportError("qdrant is not reachable", nil)
	}

	collection := cfg.Qdrant.Collection
	if recreate {
		log.Info("dropping collection", "collection", collection)
		if err := client.DeleteCollection(ctx, collection); err != nil {
			return err
		}
	}
	if err := client.EnsureCollection(ctx, collection); err != nil {
		return err
	}

	log.Info("building sparse vectors", "laws", laws.Len())
	points := retriever.LawPoints(laws, cfg.Retriever.IndexWorkers)

	if err := client.UpsertLawsBatch(ctx, collection, points, batchSize); err != nil {
		return err
	}

	count, err := client.CountPoints(ctx, collection)
	if err != nil {
		return err
	}
	log.Info("index built", "collection", collection, "points", count)
	return nil
}
