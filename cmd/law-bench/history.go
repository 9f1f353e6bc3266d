package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lawbench/law-bench/internal/history"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show stored run history from Redis",
		Long: `List past benchmark runs recorded in Redis, newest last, so
retrievers can be compared across runs. Requires history to be enabled
in the configuration.`,
		RunE: runHistory,
	}

	cmd.Flags().String("retriever", "", "show runs for one retriever only")
	cmd.Flags().Duration("since", 30*24*time.Hour, "look-back window")

	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	retrieverName, _ := cmd.Flags().GetString("retriever")
	since, _ := cmd.Flags().GetDuration("since")

	store, err := history.NewStore(cfg.History.RedisURL, time.Duration(cfg.History.TTLHours)*time.Hour)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()

	names := []string{retrieverName}
	if retrieverName == "" {
		names, err = store.Retrievers(ctx)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}
	}

	cutoff := time.Now().Add(-since)
	for _, name := range names {
		records, err := store.List(ctx, name, cutoff)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			continue
		}
		fmt.Printf("[%s]\n", name)
		for _, r := range records {
			fmt.Printf("  %s  %s  ndcg=%.4f recall=%.4f mrr=%.4f hit=%.4f queries=%d failures=%d %.1fs\n",
				r.Timestamp.Format("2006-01-02 15:04"),
				r.Run,
				r.Overall.NDCG,
				r.Overall.Recall,
				r.Overall.MRR,
				r.Overall.HitRate,
				r.Queries,
				r.Failures,
				r.DurationSeconds,
			)
		}
	}
	return nil
}
