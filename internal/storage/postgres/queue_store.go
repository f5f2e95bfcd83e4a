package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/dropscout/internal/models"
)

// ErrItemNotFound is returned when an operation targets a queue item id
// that does not exist.
var ErrItemNotFound = errors.New("queue item not found")

// QueueStore is the Crawl Queue Store (C3, spec.md §4.1): the durable
// table of queue items with status, priority, retry state and
// next-attempt time. claim_next_ready is the system's single contended
// operation and must serialize via SELECT ... FOR UPDATE SKIP LOCKED so
// two scheduler tasks never claim the same item (spec.md §5).
type QueueStore struct {
	db     *DB
	logger arbor.ILogger
}

// NewQueueStore creates a new Crawl Queue Store.
func NewQueueStore(db *DB, logger arbor.ILogger) *QueueStore {
	return &QueueStore{db: db, logger: logger}
}

// Enqueue inserts a queue item. It is idempotent on (job_id, url): a
// duplicate enqueue during a single job is silently dropped.
func (s *QueueStore) Enqueue(ctx context.Context, item *models.QueueItem) (bool, error) {
	const q = `
		INSERT INTO crawl_queue (id, job_id, url, url_type, keyword, priority, status, retry_count, consecutive_shape_errors, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, 0, $8)
		ON CONFLICT (job_id, url) DO NOTHING`

	tag, err := s.db.Pool.Exec(ctx, q,
		item.ID, item.JobID, item.URL, string(item.URLKind), nullableText(item.Keyword),
		item.Priority, string(models.ItemStatusPending), item.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("enqueue: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ClaimNextReady claims one pending, ready item for the job: lowest
// priority tier first, then uniform-random among remaining ties, using
// the store's native randomness per spec.md §9 ("avoid a
// read-all-then-shuffle anti-pattern"). Returns nil, nil when nothing is
// claimable.
func (s *QueueStore) ClaimNextReady(ctx context.Context, jobID string) (*models.QueueItem, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("claim_next_ready: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const selectQ = `
		SELECT id, job_id, url, url_type, keyword, priority, status, retry_count,
		       consecutive_shape_errors, next_attempt_at, created_at, submitted_at,
		       completed_at, error_message
		FROM crawl_queue
		WHERE job_id = $1 AND status = $2 AND (next_attempt_at IS NULL OR next_attempt_at <= now())
		ORDER BY priority ASC, random()
		LIMIT 1
		FOR UPDATE SKIP LOCKED`

	row := tx.QueryRow(ctx, selectQ, jobID, string(models.ItemStatusPending))
	item, err := scanQueueItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim_next_ready: select: %w", err)
	}

	const updateQ = `UPDATE crawl_queue SET status = $1, submitted_at = $2 WHERE id = $3`
	now := time.Now().UTC()
	if _, err := tx.Exec(ctx, updateQ, string(models.ItemStatusSubmitted), now, item.ID); err != nil {
		return nil, fmt.Errorf("claim_next_ready: update: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("claim_next_ready: commit: %w", err)
	}

	item.Status = models.ItemStatusSubmitted
	item.SubmittedAt = &now
	return item, nil
}

// MarkSubmitted stamps submitted_at and transitions pending -> submitted.
// ClaimNextReady already performs this transition for the items it claims;
// MarkSubmitted is for re-submitting an item outside the claim path and
// has no caller in this repository.
func (s *QueueStore) MarkSubmitted(ctx context.Context, itemID string, now time.Time) error {
	const q = `UPDATE crawl_queue SET status = $1, submitted_at = $2
		WHERE id = $3 AND status = $4`
	tag, err := s.db.Pool.Exec(ctx, q, string(models.ItemStatusSubmitted), now, itemID, string(models.ItemStatusPending))
	if err != nil {
		return fmt.Errorf("mark_submitted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// MarkCompleted transitions submitted -> completed.
func (s *QueueStore) MarkCompleted(ctx context.Context, itemID string, now time.Time) error {
	const q = `UPDATE crawl_queue SET status = $1, completed_at = $2
		WHERE id = $3 AND status = $4`
	tag, err := s.db.Pool.Exec(ctx, q, string(models.ItemStatusCompleted), now, itemID, string(models.ItemStatusSubmitted))
	if err != nil {
		return fmt.Errorf("mark_completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// ScheduleRetry transitions submitted -> pending with an incremented
// retry_count and the given next_attempt_at (spec.md §4.5).
func (s *QueueStore) ScheduleRetry(ctx context.Context, itemID string, nextAttemptAt time.Time, errMsg string) error {
	const q = `UPDATE crawl_queue
		SET status = $1, retry_count = retry_count + 1, next_attempt_at = $2, error_message = $3
		WHERE id = $4 AND status = $5`
	tag, err := s.db.Pool.Exec(ctx, q, string(models.ItemStatusPending), nextAttemptAt, errMsg, itemID, string(models.ItemStatusSubmitted))
	if err != nil {
		return fmt.Errorf("schedule_retry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// MarkFailed transitions submitted -> failed (terminal).
func (s *QueueStore) MarkFailed(ctx context.Context, itemID string, errMsg string) error {
	const q = `UPDATE crawl_queue SET status = $1, error_message = $2
		WHERE id = $3 AND status = $4`
	tag, err := s.db.Pool.Exec(ctx, q, string(models.ItemStatusFailed), errMsg, itemID, string(models.ItemStatusSubmitted))
	if err != nil {
		return fmt.Errorf("mark_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// IncrementShapeErrors increments the consecutive_shape_errors counter and
// returns its new value, used to escalate repeated ParseShape/ParseSyntax
// failures into an operator-visible diagnostic (spec.md §4.6, §7).
func (s *QueueStore) IncrementShapeErrors(ctx context.Context, itemID string) (int, error) {
	const q = `UPDATE crawl_queue SET consecutive_shape_errors = consecutive_shape_errors + 1
		WHERE id = $1 RETURNING consecutive_shape_errors`
	var count int
	if err := s.db.Pool.QueryRow(ctx, q, itemID).Scan(&count); err != nil {
		return 0, fmt.Errorf("increment_shape_errors: %w", err)
	}
	return count, nil
}

// ResetShapeErrors zeroes the consecutive_shape_errors counter, called
// after the item's payload parses successfully; fetch failures and
// incomplete-record parse failures leave the counter unchanged.
func (s *QueueStore) ResetShapeErrors(ctx context.Context, itemID string) error {
	const q = `UPDATE crawl_queue SET consecutive_shape_errors = 0 WHERE id = $1`
	_, err := s.db.Pool.Exec(ctx, q, itemID)
	if err != nil {
		return fmt.Errorf("reset_shape_errors: %w", err)
	}
	return nil
}

// CountByState returns a map of status -> count for the given job, used
// by the Job Coordinator's completion check.
func (s *QueueStore) CountByState(ctx context.Context, jobID string) (map[models.ItemStatus]int64, error) {
	const q = `SELECT status, count(*) FROM crawl_queue WHERE job_id = $1 GROUP BY status`
	rows, err := s.db.Pool.Query(ctx, q, jobID)
	if err != nil {
		return nil, fmt.Errorf("count_by_state: %w", err)
	}
	defer rows.Close()

	counts := map[models.ItemStatus]int64{
		models.ItemStatusPending:   0,
		models.ItemStatusSubmitted: 0,
		models.ItemStatusCompleted: 0,
		models.ItemStatusFailed:    0,
	}
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("count_by_state: scan: %w", err)
		}
		counts[models.ItemStatus(status)] = count
	}
	return counts, rows.Err()
}

// CountByStateGlobal returns status -> count across all jobs, used by the
// /metrics queue-depth gauge.
func (s *QueueStore) CountByStateGlobal(ctx context.Context) (map[models.ItemStatus]int64, error) {
	const q = `SELECT status, count(*) FROM crawl_queue GROUP BY status`
	rows, err := s.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("count_by_state_global: %w", err)
	}
	defer rows.Close()

	counts := map[models.ItemStatus]int64{
		models.ItemStatusPending:   0,
		models.ItemStatusSubmitted: 0,
		models.ItemStatusCompleted: 0,
		models.ItemStatusFailed:    0,
	}
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("count_by_state_global: scan: %w", err)
		}
		counts[models.ItemStatus(status)] = count
	}
	return counts, rows.Err()
}

// Get fetches a single queue item by id.
func (s *QueueStore) Get(ctx context.Context, itemID string) (*models.QueueItem, error) {
	const q = `
		SELECT id, job_id, url, url_type, keyword, priority, status, retry_count,
		       consecutive_shape_errors, next_attempt_at, created_at, submitted_at,
		       completed_at, error_message
		FROM crawl_queue WHERE id = $1`
	row := s.db.Pool.QueryRow(ctx, q, itemID)
	item, err := scanQueueItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get queue item: %w", err)
	}
	return item, nil
}

// StaleSubmitted returns items stuck in submitted past the given cutoff,
// used by the staleness sweeper (spec.md §7, "Recovery").
func (s *QueueStore) StaleSubmitted(ctx context.Context, cutoff time.Time) ([]*models.QueueItem, error) {
	const q = `
		SELECT id, job_id, url, url_type, keyword, priority, status, retry_count,
		       consecutive_shape_errors, next_attempt_at, created_at, submitted_at,
		       completed_at, error_message
		FROM crawl_queue WHERE status = $1 AND submitted_at < $2`
	rows, err := s.db.Pool.Query(ctx, q, string(models.ItemStatusSubmitted), cutoff)
	if err != nil {
		return nil, fmt.Errorf("stale_submitted: %w", err)
	}
	defer rows.Close()

	var items []*models.QueueItem
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			return nil, fmt.Errorf("stale_submitted: scan: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ReadyCount returns the number of currently-claimable items for a job,
// used by the Pacing Scheduler's warm-up gate.
func (s *QueueStore) ReadyCount(ctx context.Context, jobID string) (int64, error) {
	const q = `SELECT count(*) FROM crawl_queue
		WHERE job_id = $1 AND status = $2 AND (next_attempt_at IS NULL OR next_attempt_at <= now())`
	var count int64
	if err := s.db.Pool.QueryRow(ctx, q, jobID, string(models.ItemStatusPending)).Scan(&count); err != nil {
		return 0, fmt.Errorf("ready_count: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQueueItem(row rowScanner) (*models.QueueItem, error) {
	var item models.QueueItem
	var keyword *string
	var status, urlType string
	var errMsg *string

	err := row.Scan(
		&item.ID, &item.JobID, &item.URL, &urlType, &keyword, &item.Priority, &status,
		&item.RetryCount, &item.ConsecutiveShapeErrors, &item.NextAttemptAt, &item.CreatedAt,
		&item.SubmittedAt, &item.CompletedAt, &errMsg,
	)
	if err != nil {
		return nil, err
	}

	item.URLKind = models.URLKind(urlType)
	item.Status = models.ItemStatus(status)
	if keyword != nil {
		item.Keyword = *keyword
	}
	if errMsg != nil {
		item.ErrorMessage = *errMsg
	}
	return &item, nil
}

func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
