package qdrant

import (
	"context"
	"errors"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// ErrMalformedPoint marks search hits whose payload cannot be mapped
// back to a law document. Callers treat it as a protocol-level failure
// rather than a connectivity one.
var ErrMalformedPoint = errors.New("malformed point payload")

// SearchResult is a single sparse search hit mapped back to the corpus.
type SearchResult struct {
	// LawID is the corpus document ID from the point payload.
	LawID string

	// Name is the statute name from the point payload.
	Name string

	// Score is the sparse similarity score.
	Score float32
}

// SparseSearch performs a sparse-vector search over a corpus collection.
func (c *Client) SparseSearch(ctx context.Context, collection string, indices []uint32, values []float32, limit uint64) ([]SearchResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, fmt.Errorf("client is closed")
	}

	if len(indices) == 0 || len(values) == 0 {
		return nil, fmt.Errorf("sparse indices and values are required")
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	if limit == 0 {
		limit = 10
	}

	points, err := c.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collectionName(collection),
		Query:          qdrant.NewQuerySparse(indices, values),
		Using:          qdrant.PtrOf("terms"),
		Limit:          qdrant.PtrOf(limit),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("sparse search failed: %w", err)
	}

	return scoredPointsToResults(points)
}

// scoredPointsToResults converts Qdrant scored points to SearchResults.
// A hit whose payload lacks a law_id is a protocol-level problem the
// caller must surface, not silently drop.
func scoredPointsToResults(points []*qdrant.ScoredPoint) ([]SearchResult, error) {
	results := make([]SearchResult, 0, len(points))

	for _, p := range points {
		lawID := getStringValue(p.Payload, "law_id")
		if lawID == "" {
			return nil, fmt.Errorf("point %s carries no law_id payload: %w", pointIDString(p.Id), ErrMalformedPoint)
		}

		results = append(results, SearchResult{
			LawID: lawID,
			Name:  getStringValue(p.Payload, "law_name"),
			Score: p.Score,
		})
	}

	return results, nil
}

func pointIDString(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	switch v := id.PointIdOptions.(type) {
	case *qdrant.PointId_Uuid:
		return v.Uuid
	case *qdrant.PointId_Num:
		return fmt.Sprintf("%d", v.Num)
	}
	return ""
}

func getStringValue(payload map[string]*qdrant.Value, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	if s, ok := v.Kind.(*qdrant.Value_StringValue); ok {
		return s.StringValue
	}
	return ""
}
