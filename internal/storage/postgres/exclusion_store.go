package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/dropscout/internal/models"
)

const pgUniqueViolation = "23505"

// ErrDuplicateRule is returned when a (rule_type, value) pair already
// exists.
var ErrDuplicateRule = errors.New("exclusion rule already exists")

// ExclusionStore persists ExclusionRule records (spec.md §3). Mutable
// only through the admin interface; read by ExclusionCache refreshes.
type ExclusionStore struct {
	db     *DB
	logger arbor.ILogger
}

// NewExclusionStore creates a new Exclusion Rule Store.
func NewExclusionStore(db *DB, logger arbor.ILogger) *ExclusionStore {
	return &ExclusionStore{db: db, logger: logger}
}

// Insert adds a new rule. Returns ErrDuplicateRule on a (rule_type, value)
// collision.
func (s *ExclusionStore) Insert(ctx context.Context, rule *models.ExclusionRule) error {
	const q = `
		INSERT INTO exclusion_rules (id, rule_type, value, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := s.db.Pool.Exec(ctx, q, rule.ID, string(rule.Kind), rule.Value, nullableText(rule.Reason), rule.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicateRule
		}
		return fmt.Errorf("insert exclusion rule: %w", err)
	}
	return nil
}

// Delete removes a rule by id.
func (s *ExclusionStore) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM exclusion_rules WHERE id = $1`
	_, err := s.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("delete exclusion rule: %w", err)
	}
	return nil
}

// List returns all exclusion rules, newest-first.
func (s *ExclusionStore) List(ctx context.Context) ([]models.ExclusionRule, error) {
	const q = `SELECT id, rule_type, value, reason, created_at FROM exclusion_rules ORDER BY created_at DESC`
	rows, err := s.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list exclusion rules: %w", err)
	}
	defer rows.Close()

	var rules []models.ExclusionRule
	for rows.Next() {
		var r models.ExclusionRule
		var kind string
		var reason *string
		if err := rows.Scan(&r.ID, &kind, &r.Value, &reason, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("list exclusion rules: scan: %w", err)
		}
		r.Kind = models.ExclusionKind(kind)
		if reason != nil {
			r.Reason = *reason
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}
