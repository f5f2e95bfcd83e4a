package postgres

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/dropscout/internal/models"
)

// JobLogStore persists the per-job structured log stream consumable via
// GET /crawl/{job_id}/logs?since=N (spec.md §6, §7: "all errors are
// written to a structured per-job log stream").
type JobLogStore struct {
	db     *DB
	logger arbor.ILogger
}

// NewJobLogStore creates a new Job Log Store.
func NewJobLogStore(db *DB, logger arbor.ILogger) *JobLogStore {
	return &JobLogStore{db: db, logger: logger}
}

// Append writes one log line, assigning it the next sequence number for
// the job.
func (s *JobLogStore) Append(ctx context.Context, jobID string, entry models.JobLogEntry) error {
	const q = `
		INSERT INTO job_logs (job_id, seq, ts, level, msg)
		VALUES ($1, (SELECT COALESCE(MAX(seq), 0) + 1 FROM job_logs WHERE job_id = $1), $2, $3, $4)`
	_, err := s.db.Pool.Exec(ctx, q, jobID, entry.TS, entry.Level, entry.Msg)
	if err != nil {
		return fmt.Errorf("append job log: %w", err)
	}
	return nil
}

// Since returns log entries for a job with seq strictly greater than the
// given cursor, ordered by seq ascending.
func (s *JobLogStore) Since(ctx context.Context, jobID string, sinceSeq int64) ([]models.JobLogEntry, error) {
	const q = `
		SELECT seq, ts, level, msg FROM job_logs
		WHERE job_id = $1 AND seq > $2
		ORDER BY seq ASC`
	rows, err := s.db.Pool.Query(ctx, q, jobID, sinceSeq)
	if err != nil {
		return nil, fmt.Errorf("job logs since: %w", err)
	}
	defer rows.Close()

	var entries []models.JobLogEntry
	for rows.Next() {
		var e models.JobLogEntry
		if err := rows.Scan(&e.Seq, &e.TS, &e.Level, &e.Msg); err != nil {
			return nil, fmt.Errorf("job logs since: scan: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
