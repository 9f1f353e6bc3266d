// Package bench drives a benchmark run: retrieve, score, diff, and
// aggregate, one query at a time.
package bench

import (
	"context"
	"time"

	"github.com/lawbench/law-bench/internal/badcase"
	"github.com/lawbench/law-bench/internal/bus"
	"github.com/lawbench/law-bench/internal/config"
	"github.com/lawbench/law-bench/internal/corpus"
	"github.com/lawbench/law-bench/internal/pkg/errors"
	"github.com/lawbench/law-bench/internal/pkg/logger"
	"github.com/lawbench/law-bench/internal/retriever"
	"github.com/lawbench/law-bench/internal/scoring"
)

// progressEvery controls how often the runner logs loop progress.
const progressEvery = 25

// Prediction is one query's complete evaluation record. Its JSON shape
// is a superset of badcase.Record, so a saved predictions file feeds
// post-hoc diff reconstruction directly.
type Prediction struct {
	QueryID        string                      `json:"query_id"`
	Query          string                      `json:"query"`
	LawIDs         []string                    `json:"law_ids"`
	LawTexts       map[string]string           `json:"law_texts,omitempty"`
	Source         string                      `json:"bench_source,omitempty"`
	DetailedSource string                      `json:"detailed_source,omitempty"`
	Candidates     []retriever.ScoredCandidate `json:"candidates"`
	Metrics        scoring.QueryMetrics        `json:"metrics"`
}

// Failure records a query skipped because its retrieval call failed.
type Failure struct {
	QueryID string `json:"query_id"`
	Query   string `json:"query"`
	Code    string `json:"code"`
	Message string `json:"error"`
}

// Result is everything one run produced.
type Result struct {
	Predictions []Prediction
	Failures    []Failure
	DiffCases   []*badcase.DiffCase
	Summaries   map[string]scoring.Summary
	Duration    time.Duration
}

// Runner executes benchmark queries sequentially against one retriever.
type Runner struct {
	retriever retriever.Retriever
	topK      int
	runName   string
	log       *logger.Logger
	bus       bus.Bus
}

// NewRunner wires a runner from resolved configuration. A nil bus
// disables run events.
func NewRunner(r retriever.Retriever, cfg *config.Config, log *logger.Logger, eventBus bus.Bus) *Runner {
	if log == nil {
		log = logger.Default()
	}
	if eventBus == nil {
		eventBus = bus.NewNoopBus()
	}
	return &Runner{
		retriever: r,
		topK:      cfg.Retriever.TopK,
		runName:   cfg.RunName,
		log:       log.WithRetriever(cfg.Retriever.Type),
		bus:       eventBus,
	}
}

// Run evaluates every query in order. Retrieval failures skip the
// query; data and metric errors abort the run.
func (r *Runner) Run(ctx context.Context, queries []*corpus.EvalQuery) (*Result, error) {
	result := &Result{}
	var agg scoring.Aggregator
	start := time.Now()

	for i, query := range queries {
		if err := ctx.Err(); err != nil {
			return nil, errors.InternalError("run canceled", err)
		}

		candidates, err := r.retriever.Search(ctx, query.Text, r.topK)
		if err != nil {
			if !errors.IsRetrievalFailure(err) {
				return nil, err
			}
			r.recordFailure(ctx, result, query, err)
			continue
		}

		metrics, err := scoring.Compute(query.LawIDs, candidates, r.topK)
		if err != nil {
			return nil, err
		}
		agg.Add(metrics, query.Source)

		result.Predictions = append(result.Predictions, Prediction{
			QueryID:        query.ID,
			Query:          query.Text,
			LawIDs:         query.LawIDs,
			LawTexts:       query.LawContents,
			Source:         query.Source,
			DetailedSource: query.DetailedSource,
			Candidates:     candidates,
			Metrics:        metrics,
		})

		if diff := badcase.Check(query, candidates, r.topK); diff != nil {
			result.DiffCases = append(result.DiffCases, diff)
		}

		r.publish(ctx, bus.TopicQueryEvaluated, map[string]any{
			"query_id": query.ID,
			"metrics":  metrics,
		})

		if (i+1)%progressEvery == 0 {
			r.log.Info("progress", "processed", i+1, "total", len(queries))
		}
	}

	result.Summaries = agg.Result()
	result.Duration = time.Since(start)

	overall := result.Summaries[scoring.AllSources]
	r.log.Info("run finished",
		"queries", overall.Queries,
		"failures", len(result.Failures),
		"ndcg", overall.NDCG,
		"recall", overall.Recall,
		"mrr", overall.MRR,
		"duration", result.Duration,
	)

	r.publish(ctx, bus.TopicRunCompleted, map[string]any{
		"queries":          overall.Queries,
		"failures":         len(result.Failures),
		"overall":          overall,
		"duration_seconds": result.Duration.Seconds(),
	})

	return result, nil
}

func (r *Runner) recordFailure(ctx context.Context, result *Result, query *corpus.EvalQuery, err error) {
	r.log.WithQuery(query.ID).WithError(err).Warn("retrieval failed, skipping query")
	result.Failures = append(result.Failures, Failure{
		QueryID: query.ID,
		Query:   query.Text,
		Code:    errors.CodeOf(err),
		Message: err.Error(),
	})
	r.publish(ctx, bus.TopicQueryFailed, map[string]any{
		"query_id": query.ID,
		"code":     errors.CodeOf(err),
	})
}

func (r *Runner) publish(ctx context.Context, topic string, payload any) {
	event := bus.NewEvent(topic, r.runName, payload)
	if err := r.bus.Publish(ctx, topic, event); err != nil {
		r.log.WithError(err).Warn("failed to publish run event", "topic", topic)
	}
}
