package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/dropscout/internal/models"
)

// ErrJobNotFound is returned when an operation targets a job id that does
// not exist.
var ErrJobNotFound = errors.New("job not found")

// JobStore persists CrawlJob records (spec.md §3, "Job"). Created by the
// Job Coordinator; mutated only by the Coordinator and the Webhook
// Handler.
type JobStore struct {
	db     *DB
	logger arbor.ILogger
}

// NewJobStore creates a new Job Store.
func NewJobStore(db *DB, logger arbor.ILogger) *JobStore {
	return &JobStore{db: db, logger: logger}
}

// Insert persists a newly-created job.
func (s *JobStore) Insert(ctx context.Context, job *models.CrawlJob) error {
	configJSON, err := json.Marshal(job.Config)
	if err != nil {
		return fmt.Errorf("marshal job config: %w", err)
	}
	progressJSON, err := json.Marshal(job.Progress)
	if err != nil {
		return fmt.Errorf("marshal job progress: %w", err)
	}

	const q = `
		INSERT INTO crawl_jobs (id, status, config, progress, error, created_at, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = s.db.Pool.Exec(ctx, q, job.ID, string(job.Status), configJSON, progressJSON,
		nullableText(job.Error), job.CreatedAt, job.StartedAt, job.CompletedAt)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// Get fetches a job by id.
func (s *JobStore) Get(ctx context.Context, jobID string) (*models.CrawlJob, error) {
	const q = `
		SELECT id, status, config, progress, error, created_at, started_at, completed_at
		FROM crawl_jobs WHERE id = $1`
	row := s.db.Pool.QueryRow(ctx, q, jobID)
	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// List returns all jobs ordered newest-first.
func (s *JobStore) List(ctx context.Context) ([]*models.CrawlJob, error) {
	const q = `
		SELECT id, status, config, progress, error, created_at, started_at, completed_at
		FROM crawl_jobs ORDER BY created_at DESC`
	rows, err := s.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.CrawlJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("list jobs: scan: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// UpdateStatus transitions the job to a new status, optionally stamping
// started_at/completed_at and recording an error message.
func (s *JobStore) UpdateStatus(ctx context.Context, jobID string, status models.JobStatus, errMsg string, startedAt, completedAt *time.Time) error {
	const q = `
		UPDATE crawl_jobs
		SET status = $1, error = $2,
		    started_at = COALESCE($3, started_at),
		    completed_at = COALESCE($4, completed_at)
		WHERE id = $5`
	tag, err := s.db.Pool.Exec(ctx, q, string(status), nullableText(errMsg), startedAt, completedAt, jobID)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

// UpdateProgress overwrites the job's progress bundle.
func (s *JobStore) UpdateProgress(ctx context.Context, jobID string, progress models.JobProgress) error {
	progressJSON, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("marshal job progress: %w", err)
	}
	const q = `UPDATE crawl_jobs SET progress = $1 WHERE id = $2`
	tag, err := s.db.Pool.Exec(ctx, q, progressJSON, jobID)
	if err != nil {
		return fmt.Errorf("update job progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

// progressFields whitelists the exact JSON keys of models.JobProgress.
// IncrementProgress interpolates field into the jsonb_set path since
// Postgres has no parameter placeholder for a JSON key; this whitelist
// keeps that interpolation injection-proof regardless of caller input.
var progressFields = map[string]bool{
	"search_urls_submitted":         true,
	"search_urls_completed":         true,
	"product_urls_found":            true,
	"product_urls_skipped_existing": true,
	"product_urls_submitted":        true,
	"product_urls_completed":        true,
	"products_parsed":               true,
	"products_skipped_filtered":     true,
	"products_scored":               true,
	"products_passed_scoring":       true,
	"errors":                        true,
}

// IncrementProgress atomically bumps one counter field in the job's
// progress JSONB bundle by delta, avoiding a read-modify-write race
// between concurrent webhook callbacks for the same job (spec.md §5,
// "Per-job: counters are eventually consistent").
func (s *JobStore) IncrementProgress(ctx context.Context, jobID string, field string, delta int64) error {
	if !progressFields[field] {
		return fmt.Errorf("increment job progress: unknown field %q", field)
	}
	q := fmt.Sprintf(
		`UPDATE crawl_jobs
		 SET progress = jsonb_set(progress, '{%s}', to_jsonb(COALESCE((progress->>'%s')::bigint, 0) + $1::bigint))
		 WHERE id = $2`, field, field)
	tag, err := s.db.Pool.Exec(ctx, q, delta, jobID)
	if err != nil {
		return fmt.Errorf("increment job progress field %s: %w", field, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

func scanJob(row rowScanner) (*models.CrawlJob, error) {
	var job models.CrawlJob
	var status string
	var configJSON, progressJSON []byte
	var errMsg *string

	err := row.Scan(&job.ID, &status, &configJSON, &progressJSON, &errMsg,
		&job.CreatedAt, &job.StartedAt, &job.CompletedAt)
	if err != nil {
		return nil, err
	}

	job.Status = models.JobStatus(status)
	if errMsg != nil {
		job.Error = *errMsg
	}
	if err := json.Unmarshal(configJSON, &job.Config); err != nil {
		return nil, fmt.Errorf("unmarshal job config: %w", err)
	}
	if err := json.Unmarshal(progressJSON, &job.Progress); err != nil {
		return nil, fmt.Errorf("unmarshal job progress: %w", err)
	}
	return &job, nil
}
