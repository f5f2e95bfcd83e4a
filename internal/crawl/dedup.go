package crawl

import (
	"context"
	"time"

	"github.com/ternarybob/dropscout/internal/storage/badger"
	"github.com/ternarybob/dropscout/internal/storage/postgres"
)

// DeduplicationIndex (C2) answers "has this product id already been
// scored" by consulting the read-through Badger cache first and falling
// back to the authoritative Postgres scored_products table on a cache
// miss, warming the cache as it goes (spec.md §3, §9).
type DeduplicationIndex struct {
	cache *badger.DedupCache
	store *postgres.ScoredProductStore
}

// NewDeduplicationIndex builds a Deduplication Index over the given cache
// and authoritative store.
func NewDeduplicationIndex(cache *badger.DedupCache, store *postgres.ScoredProductStore) *DeduplicationIndex {
	return &DeduplicationIndex{cache: cache, store: store}
}

// IsScored reports whether sourceProductID has already been persisted as a
// scored product.
func (d *DeduplicationIndex) IsScored(ctx context.Context, sourceProductID string) (bool, error) {
	hit, err := d.cache.Contains(ctx, sourceProductID)
	if err != nil {
		return false, err
	}
	if hit {
		return true, nil
	}

	exists, err := d.store.Exists(ctx, sourceProductID)
	if err != nil {
		return false, err
	}
	if exists {
		if cacheErr := d.cache.Mark(ctx, sourceProductID, time.Now()); cacheErr != nil {
			return true, nil
		}
	}
	return exists, nil
}

// Warm preloads the cache from the authoritative store at startup.
func (d *DeduplicationIndex) Warm(ctx context.Context) error {
	ids, err := d.store.ListIDs(ctx)
	if err != nil {
		return err
	}
	return d.cache.Warm(ctx, ids, time.Now())
}
