package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/ternarybob/arbor"
)

// ScoredProductStore is the authoritative, external scored_products store
// (spec.md §3). The core only ever reads it, for deduplication; writes
// belong exclusively to the downstream scoring collaborator (spec.md §3:
// "the core only reads this store for deduplication and writes through
// the scoring collaborator, never directly"). Modeled here to the depth
// the core needs: existence checks and the dedup cache warm path.
type ScoredProductStore struct {
	db     *DB
	logger arbor.ILogger
}

// NewScoredProductStore creates a new Scored Product Store accessor.
func NewScoredProductStore(db *DB, logger arbor.ILogger) *ScoredProductStore {
	return &ScoredProductStore{db: db, logger: logger}
}

// Exists reports whether a product id has already been persisted.
func (s *ScoredProductStore) Exists(ctx context.Context, sourceProductID string) (bool, error) {
	const q = `SELECT 1 FROM scored_products WHERE source_product_id = $1`
	var dummy int
	err := s.db.Pool.QueryRow(ctx, q, sourceProductID).Scan(&dummy)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check scored product existence: %w", err)
	}
	return true, nil
}

// ListIDs returns all known product ids, used to warm the DedupCache at
// startup.
func (s *ScoredProductStore) ListIDs(ctx context.Context) ([]string, error) {
	const q = `SELECT source_product_id FROM scored_products`
	rows, err := s.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list scored product ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list scored product ids: scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
