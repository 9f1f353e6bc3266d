package history

import (
	"context"
	"testing"
	"time"

	"github.com/lawbench/law-bench/internal/scoring"
)

func TestNewStore_InvalidURL(t *testing.T) {
	_, err := NewStore("invalid://url", 0)
	if err == nil {
		t.Fatal("expected error for invalid URL")
	}
}

func TestNewStore_ConnectionFailure(t *testing.T) {
	_, err := NewStore("redis://localhost:9999", 0)
	if err == nil {
		t.Fatal("expected error for connection failure")
	}
}

func TestStore_SaveAndList(t *testing.T) {
	// Skip if Redis not available
	store, err := NewStore("redis://localhost:6379/15", time.Hour)
	if err != nil {
		t.Skip("Redis not available:", err)
	}
	defer store.Close()

	ctx := context.Background()
	defer store.Delete(ctx, "lexical-test")

	now := time.Now()
	records := []RunRecord{
		{
			Run:       "nightly-1",
			Retriever: "lexical-test",
			TopK:      10,
			Queries:   100,
			Overall:   scoring.Summary{NDCG: 0.61, Recall: 0.72, MRR: 0.58, HitRate: 0.8, Queries: 100},
			Timestamp: now.Add(-10 * time.Minute),
		},
		{
			Run:       "nightly-2",
			Retriever: "lexical-test",
			TopK:      10,
			Queries:   100,
			Failures:  2,
			Overall:   scoring.Summary{NDCG: 0.64, Recall: 0.74, MRR: 0.6, HitRate: 0.82, Queries: 98},
			Timestamp: now,
		},
	}
	for _, r := range records {
		if err := store.Save(ctx, r); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	loaded, err := store.List(ctx, "lexical-test", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d records, want 2", len(loaded))
	}
	if loaded[0].Run != "nightly-1" || loaded[1].Run != "nightly-2" {
		t.Errorf("order = %s, %s, want oldest first", loaded[0].Run, loaded[1].Run)
	}
	if loaded[1].Overall.NDCG != 0.64 {
		t.Errorf("NDCG = %v, want 0.64", loaded[1].Overall.NDCG)
	}

	// Records outside the window are excluded.
	recent, err := store.List(ctx, "lexical-test", now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(recent) != 1 {
		t.Errorf("recent window loaded %d records, want 1", len(recent))
	}

	names, err := store.Retrievers(ctx)
	if err != nil {
		t.Fatalf("Retrievers failed: %v", err)
	}
	found := false
	for _, n := range names {
		if n == "lexical-test" {
			found = true
		}
	}
	if !found {
		t.Errorf("Retrievers() = %v, missing lexical-test", names)
	}
}
