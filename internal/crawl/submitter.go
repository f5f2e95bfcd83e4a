package crawl

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/dropscout/internal/models"
	"github.com/ternarybob/dropscout/internal/storage/postgres"
)

// NewItemSubmitter builds the SubmitFunc the Scheduler drives: hand the
// claimed item (already moved to submitted by ClaimNextReady) to the
// Fetcher Client, and route a
// transport-level submit failure into the same retry ladder a failed
// webhook callback would (spec.md §4.3, "the fetcher client never retries
// internally"). A successful submit's eventual outcome arrives later via
// the webhook, not here. A submit failure is itself a terminal-or-retry
// transition for the item, so it re-evaluates job completion and kicks
// the Scheduler exactly as a failed webhook callback would
// (afterItemTransition in webhook.go) - otherwise a job whose last item
// fails at the transport layer, rather than via the webhook, never
// leaves "running".
func NewItemSubmitter(fetcher *FetcherClient, queueStore *postgres.QueueStore, retryPolicy *RetryPolicy, coordinator *Coordinator, scheduler *Scheduler, logger arbor.ILogger) SubmitFunc {
	return func(ctx context.Context, item *models.QueueItem) {
		if _, err := fetcher.Submit(ctx, item.URL, item.JobID, item.URLKind, item.ID); err != nil {
			logger.Warn().Err(err).Str("item_id", item.ID).Str("url", item.URL).Msg("Fetcher submit failed, scheduling retry")
			retrySubmitFailure(ctx, queueStore, retryPolicy, coordinator, item, err, logger)
			if err := coordinator.EvaluateCompletion(ctx, item.JobID); err != nil {
				logger.Warn().Err(err).Str("job_id", item.JobID).Msg("Completion evaluation failed after submit failure")
			}
			scheduler.Kick(item.JobID, false)
		}
	}
}

func retrySubmitFailure(ctx context.Context, queueStore *postgres.QueueStore, retryPolicy *RetryPolicy, coordinator *Coordinator, item *models.QueueItem, submitErr error, logger arbor.ILogger) {
	retryCount := item.RetryCount + 1
	if retryPolicy.ShouldGiveUp(retryCount) {
		if err := queueStore.MarkFailed(ctx, item.ID, submitErr.Error()); err != nil && !errors.Is(err, postgres.ErrItemNotFound) {
			logger.Warn().Err(err).Str("item_id", item.ID).Msg("mark_failed failed")
		}
	} else {
		delay := retryPolicy.NextAttemptDelay(retryCount)
		nextAttempt := time.Now().UTC().Add(delay)
		if err := queueStore.ScheduleRetry(ctx, item.ID, nextAttempt, submitErr.Error()); err != nil && !errors.Is(err, postgres.ErrItemNotFound) {
			logger.Warn().Err(err).Str("item_id", item.ID).Msg("schedule_retry failed")
		}
	}
	if err := coordinator.IncrementCounter(ctx, item.JobID, "errors", 1); err != nil {
		logger.Debug().Err(err).Str("job_id", item.JobID).Msg("Failed to increment error counter on submit failure")
	}
}
