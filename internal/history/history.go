// Package history persists benchmark run summaries to Redis so runs of
// the same retriever can be compared over time.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lawbench/law-bench/internal/scoring"
)

// RunRecord is one completed benchmark run's summary.
type RunRecord struct {
	Run             string          `json:"run"`
	Retriever       string          `json:"retriever"`
	TopK            int             `json:"top_k"`
	Queries         int             `json:"queries"`
	Failures        int             `json:"failures"`
	Overall         scoring.Summary `json:"overall"`
	DurationSeconds float64         `json:"duration_seconds"`
	Timestamp       time.Time       `json:"timestamp"`
}

// Store provides Redis-backed persistence for run history.
// Records live in one sorted set per retriever, scored by timestamp.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewStore connects to Redis at the given URL. Returns an error if the
// URL is malformed or the server does not answer a ping.
func NewStore(url string, ttl time.Duration) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}

	return &Store{
		client: client,
		prefix: "lawbench:runs:",
		ttl:    ttl,
	}, nil
}

// Save appends one run record and trims entries older than the TTL.
func (s *Store) Save(ctx context.Context, record RunRecord) error {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	member, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling run record: %w", err)
	}

	key := s.prefix + record.Retriever

	// Pipeline keeps the append and the trim atomic.
	pipe := s.client.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(record.Timestamp.Unix()),
		Member: string(member),
	})
	minScore := time.Now().Add(-s.ttl).Unix()
	pipe.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("%d", minScore))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("saving run record: %w", err)
	}
	return nil
}

// List returns the runs of one retriever since the given time, oldest
// first. Entries that no longer decode are skipped.
func (s *Store) List(ctx context.Context, retriever string, since time.Time) ([]RunRecord, error) {
	key := s.prefix + retriever

	results, err := s.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: fmt.Sprintf("%d", since.Unix()),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("loading run history: %w", err)
	}

	records := make([]RunRecord, 0, len(results))
	for _, member := range results {
		var record RunRecord
		if err := json.Unmarshal([]byte(member), &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// Retrievers lists every retriever with stored history.
func (s *Store) Retrievers(ctx context.Context) ([]string, error) {
	keys, err := s.client.Keys(ctx, s.prefix+"*").Result()
	if err != nil {
		return nil, fmt.Errorf("listing retrievers: %w", err)
	}

	names := make([]string, len(keys))
	for i, key := range keys {
		names[i] = key[len(s.prefix):]
	}
	return names, nil
}

// Delete removes all stored runs for one retriever.
func (s *Store) Delete(ctx context.Context, retriever string) error {
	if err := s.client.Del(ctx, s.prefix+retriever).Err(); err != nil {
		return fmt.Errorf("deleting run history: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}
