package scoring

import "sort"

// AllSources is the aggregation key covering every scored query
// regardless of its bench source.
const AllSources = "__all__"

// UnknownSource labels queries whose record carries no bench source.
const UnknownSource = "unspecified"

// SourcedMetrics pairs one query's metrics with its bench source.
type SourcedMetrics struct {
	Metrics QueryMetrics
	Source  string
}

// Summary is the arithmetic mean of the per-query metrics within one
// source bucket, plus the bucket's query count.
type Summary struct {
	NDCG    float64 `json:"ndcg"`
	Recall  float64 `json:"recall"`
	MRR     float64 `json:"mrr"`
	HitRate float64 `json:"hit_rate"`
	Queries int     `json:"queries"`
}

// Aggregate averages per-query metrics into one Summary per source,
// plus the AllSources bucket. Only scored queries participate; callers
// exclude failed queries before aggregation.
func Aggregate(entries []SourcedMetrics) map[string]Summary {
	sums := make(map[string]*Summary)
	add := func(key string, m QueryMetrics) {
		s := sums[key]
		if s == nil {
			s = &Summary{}
			sums[key] = s
		}
		s.NDCG += m.NDCG
		s.Recall += m.Recall
		s.MRR += m.MRR
		s.HitRate += float64(m.Hit)
		s.Queries++
	}
	for _, e := range entries {
		source := e.Source
		if source == "" {
			source = UnknownSource
		}
		add(source, e.Metrics)
		add(AllSources, e.Metrics)
	}

	out := make(map[string]Summary, len(sums))
	for key, s := range sums {
		n := float64(s.Queries)
		out[key] = Summary{
			NDCG:    s.NDCG / n,
			Recall:  s.Recall / n,
			MRR:     s.MRR / n,
			HitRate: s.HitRate / n,
			Queries: s.Queries,
		}
	}
	return out
}

// Aggregator accumulates per-query metrics over a run. Zero value is
// ready to use. Not safe for concurrent use.
type Aggregator struct {
	entries []SourcedMetrics
}

// Add records one scored query under its bench source.
func (a *Aggregator) Add(m QueryMetrics, source string) {
	a.entries = append(a.entries, SourcedMetrics{Metrics: m, Source: source})
}

// Count reports the number of scored queries recorded so far.
func (a *Aggregator) Count() int { return len(a.entries) }

// Result aggregates everything recorded so far. Calling it repeatedly
// is safe; it never mutates the accumulated entries.
func (a *Aggregator) Result() map[string]Summary {
	return Aggregate(a.entries)
}

// Sources lists the source buckets seen so far in sorted order,
// excluding the AllSources key.
func (a *Aggregator) Sources() []string {
	seen := make(map[string]struct{})
	for _, e := range a.entries {
		source := e.Source
		if source == "" {
			source = UnknownSource
		}
		seen[source] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
