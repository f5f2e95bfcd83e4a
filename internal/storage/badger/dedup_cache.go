package badger

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

// scoredProductRecord mirrors the subset of the external scored_products
// store the core needs for read-through deduplication (spec.md §3,
// "Scored Product (external, referenced)").
type scoredProductRecord struct {
	SourceProductID string `badgerhold:"key"`
	ScoredAt        time.Time
	CachedAt        time.Time
}

// DedupCache answers "has this product id been persisted?" in O(1) against
// a local read-through mirror of the scored_products store (C2, spec.md
// §2). It is deliberately read-mostly: a stale negative only causes a
// harmless duplicate enqueue (spec.md §5, "Shared resources").
type DedupCache struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewDedupCache creates a new Deduplication Index cache.
func NewDedupCache(db *BadgerDB, logger arbor.ILogger) *DedupCache {
	return &DedupCache{db: db, logger: logger}
}

// Contains reports whether the given catalog product id is already known
// to be persisted. A cache miss does not imply the product id is new —
// callers that need an authoritative answer should fall back to the
// Postgres scored_products store; see Warm.
func (c *DedupCache) Contains(ctx context.Context, sourceProductID string) (bool, error) {
	var rec scoredProductRecord
	err := c.db.Store().Get(sourceProductID, &rec)
	if err == badgerhold.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Mark records that a product id has been persisted, so subsequent
// Contains calls short-circuit without a round trip to Postgres.
func (c *DedupCache) Mark(ctx context.Context, sourceProductID string, scoredAt time.Time) error {
	rec := scoredProductRecord{
		SourceProductID: sourceProductID,
		ScoredAt:        scoredAt,
		CachedAt:        time.Now(),
	}
	return c.db.Store().Upsert(sourceProductID, &rec)
}

// Warm seeds the cache with a batch of already-known product ids, typically
// called at startup from the authoritative Postgres store.
func (c *DedupCache) Warm(ctx context.Context, sourceProductIDs []string, scoredAt time.Time) error {
	now := time.Now()
	for _, id := range sourceProductIDs {
		rec := scoredProductRecord{SourceProductID: id, ScoredAt: scoredAt, CachedAt: now}
		if err := c.db.Store().Upsert(id, &rec); err != nil {
			return err
		}
	}
	c.logger.Debug().Int("count", len(sourceProductIDs)).Msg("Dedup cache warmed")
	return nil
}
