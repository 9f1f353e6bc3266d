package qdrant

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// LawPoint is a single law document prepared for indexing: its hashed
// term indices with TF-IDF weights plus the payload needed to map a
// search hit back to the corpus.
type LawPoint struct {
	// LawID is the corpus document ID.
	LawID string

	// Name is the statute name.
	Name string

	// SparseIndices are hashed term IDs.
	SparseIndices []uint32

	// SparseValues are the term weights.
	SparseValues []float32
}

// UpsertLaws inserts or updates law points in a corpus collection.
func (c *Client) UpsertLaws(ctx context.Context, collection string, points []LawPoint) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return fmt.Errorf("client is closed")
	}

	if len(points) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	qdrantPoints := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		qdrantPoints = append(qdrantPoints, lawPointToQdrant(p))
	}

	_, err := c.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collectionName(collection),
		Points:         qdrantPoints,
		Wait:           qdrant.PtrOf(true), // Wait for indexing
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	return nil
}

// UpsertLawsBatch upserts law points in batches to bound request sizes.
func (c *Client) UpsertLawsBatch(ctx context.Context, collection string, points []LawPoint, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 100
	}

	for i := 0; i < len(points); i += batchSize {
		end := i + batchSize
		if end > len(points) {
			end = len(points)
		}

		if err := c.UpsertLaws(ctx, collection, points[i:end]); err != nil {
			return fmt.Errorf("failed to upsert batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// lawPointToQdrant converts a LawPoint to a Qdrant PointStruct.
func lawPointToQdrant(p LawPoint) *qdrant.PointStruct {
	payload := map[string]any{
		"law_id":   p.LawID,
		"law_name": p.Name,
	}

	vectors := &qdrant.Vectors{
		VectorsOptions: &qdrant.Vectors_Vectors{
			Vectors: &qdrant.NamedVectors{
				Vectors: map[string]*qdrant.Vector{
					"terms": {
						Data:    p.SparseValues,
						Indices: &qdrant.SparseIndices{Data: p.SparseIndices},
					},
				},
			},
		},
	}

	return &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(PointID(p.LawID)),
		Vectors: vectors,
		Payload: qdrant.NewValueMap(payload),
	}
}
