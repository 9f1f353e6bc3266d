package qdrant

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// EnsureCollection creates a sparse-vector-only collection for a law
// corpus if it does not exist. Law retrieval uses hashed term weights,
// so no dense vector space is configured.
func (c *Client) EnsureCollection(ctx context.Context, name string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return fmt.Errorf("client is closed")
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	full := collectionName(name)

	exists, err := c.client.CollectionExists(ctx, full)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	err = c.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: full,
		SparseVectorsConfig: &qdrant.SparseVectorConfig{
			Map: map[string]*qdrant.SparseVectorParams{
				"terms": {
					Index: &qdrant.SparseIndexConfig{
						OnDisk:            qdrant.PtrOf(false),
						FullScanThreshold: qdrant.PtrOf(uint64(10000)),
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", full, err)
	}

	return nil
}

// DeleteCollection removes a corpus collection.
func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return fmt.Errorf("client is closed")
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	if err := c.client.DeleteCollection(ctx, collectionName(name)); err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", name, err)
	}
	return nil
}

// CountPoints returns the number of indexed law documents.
func (c *Client) CountPoints(ctx context.Context, name string) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return 0, fmt.Errorf("client is closed")
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	count, err := c.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: collectionName(name),
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return count, nil
}
