package crawl

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/dropscout/internal/models"
	"github.com/ternarybob/dropscout/internal/storage/postgres"
)

// Coordinator is the Job Coordinator (C7): owns the progress bundle
// (spec.md §6) and evaluates job completion on every queue-item terminal
// transition. `failed` is reserved for catastrophic orchestration errors;
// individual item failures never fail the job (spec.md §4.8).
type Coordinator struct {
	jobStore   *postgres.JobStore
	queueStore *postgres.QueueStore
	scheduler  *Scheduler
	logger     arbor.ILogger
}

// NewCoordinator builds a Job Coordinator.
func NewCoordinator(jobStore *postgres.JobStore, queueStore *postgres.QueueStore, scheduler *Scheduler, logger arbor.ILogger) *Coordinator {
	return &Coordinator{jobStore: jobStore, queueStore: queueStore, scheduler: scheduler, logger: logger}
}

// IncrementCounter bumps one named progress bundle field. It does not
// evaluate completion; callers do that separately via EvaluateCompletion.
func (c *Coordinator) IncrementCounter(ctx context.Context, jobID string, field string, delta int64) error {
	if err := c.jobStore.IncrementProgress(ctx, jobID, field, delta); err != nil {
		return fmt.Errorf("increment progress counter %s: %w", field, err)
	}
	return nil
}

// EvaluateCompletion applies spec.md §4.8's completion condition:
// count(pending) == 0 AND count(submitted) == 0. A cancelled job is left
// alone — cancellation is an external command, not something completion
// detection can override.
func (c *Coordinator) EvaluateCompletion(ctx context.Context, jobID string) error {
	job, err := c.jobStore.Get(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job for completion check: %w", err)
	}
	if job.Status.IsTerminal() {
		return nil
	}

	counts, err := c.queueStore.CountByState(ctx, jobID)
	if err != nil {
		return fmt.Errorf("count queue states: %w", err)
	}
	if counts[models.ItemStatusPending] != 0 || counts[models.ItemStatusSubmitted] != 0 {
		return nil
	}

	now := time.Now()
	if err := c.jobStore.UpdateStatus(ctx, jobID, models.JobStatusCompleted, "", nil, &now); err != nil {
		return fmt.Errorf("mark job completed: %w", err)
	}
	c.scheduler.StopJob(jobID)
	c.logger.Info().Str("job_id", jobID).Msg("Job completed")
	return nil
}

// Cancel marks a job cancelled. In-flight items drain naturally via
// ghost-callback handling (spec.md §4.8); the Coordinator simply stops
// kicking the Scheduler and the Webhook Handler refuses to submit new
// work for this job going forward.
func (c *Coordinator) Cancel(ctx context.Context, jobID string) error {
	if err := c.jobStore.UpdateStatus(ctx, jobID, models.JobStatusCancelled, "", nil, nil); err != nil {
		return fmt.Errorf("mark job cancelled: %w", err)
	}
	c.scheduler.StopJob(jobID)
	c.logger.Info().Str("job_id", jobID).Msg("Job cancelled")
	return nil
}

// Fail marks a job failed for a catastrophic orchestration error (not an
// individual item failure).
func (c *Coordinator) Fail(ctx context.Context, jobID string, reason error) error {
	now := time.Now()
	if err := c.jobStore.UpdateStatus(ctx, jobID, models.JobStatusFailed, reason.Error(), nil, &now); err != nil {
		return fmt.Errorf("mark job failed: %w", err)
	}
	c.scheduler.StopJob(jobID)
	c.logger.Error().Err(reason).Str("job_id", jobID).Msg("Job failed with orchestration error")
	return nil
}
